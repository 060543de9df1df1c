package bus

import "context"

// NoopBus satisfies Bus while doing nothing. The backend selector installs it
// when the configured bus fails to construct so callers never need to branch
// on bus availability.
type NoopBus struct{}

// NewNoopBus returns the no-op bus.
func NewNoopBus() *NoopBus { return &NoopBus{} }

func (*NoopBus) Emit(context.Context, string, map[string]interface{}, Meta) error { return nil }

func (*NoopBus) Subscribe(string, Handler) (string, error) { return "", nil }

func (*NoopBus) Unsubscribe(string) error { return nil }
