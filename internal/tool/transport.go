package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Request is the wire envelope sent to a remote tool server.
type Request struct {
	Method    string                 `json:"method"` // list, call
	Name      string                 `json:"name,omitempty"`
	Arguments map[string]interface{} `json:"arguments,omitempty"`
}

// Response is the wire envelope returned by a remote tool server.
type Response struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  *RemoteError    `json:"error,omitempty"`
}

// RemoteError carries an application-level tool error across the wire.
type RemoteError struct {
	Message string `json:"message"`
}

// Transport performs one request/response exchange with a tool server.
type Transport interface {
	Call(ctx context.Context, req Request) (Response, error)
}

// ErrTransport wraps connection-level failures so callers can distinguish
// them from application-level tool errors reported in Response.Error.
var ErrTransport = fmt.Errorf("tool transport failure")

// HTTPTransport exchanges tool requests as JSON over a single POST endpoint.
type HTTPTransport struct {
	endpoint string
	client   *http.Client
}

// NewHTTPTransport creates a transport against the given endpoint.
func NewHTTPTransport(endpoint string, timeout time.Duration) *HTTPTransport {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &HTTPTransport{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// Call posts the request envelope and decodes the response envelope.
func (t *HTTPTransport) Call(ctx context.Context, req Request) (Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Response{}, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return Response{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Response{}, fmt.Errorf("%w: %s: %s", ErrTransport, resp.Status, string(b))
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		if errors.Is(err, io.EOF) {
			return Response{}, fmt.Errorf("%w: empty response", ErrTransport)
		}
		return Response{}, fmt.Errorf("%w: decode: %v", ErrTransport, err)
	}
	return out, nil
}
