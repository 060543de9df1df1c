package tool

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// RegisterBuiltins installs the tools that ship with the local registry
// backend.
func RegisterBuiltins(r *LocalRegistry) error {
	httpc := &http.Client{Timeout: 15 * time.Second}

	if err := r.Register(Spec{
		Name:        "http_get",
		Description: "Fetch a URL over HTTP GET and return the response body",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"url": {Type: "string", Description: "absolute URL to fetch"},
			},
			Required: []string{"url"},
		},
	}, func(ctx context.Context, params map[string]interface{}) (Outcome, error) {
		url, _ := params["url"].(string)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return Outcome{}, fmt.Errorf("building request: %w", err)
		}
		resp, err := httpc.Do(req)
		if err != nil {
			return Outcome{}, fmt.Errorf("fetching %s: %w", url, err)
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return Outcome{}, fmt.Errorf("reading body: %w", err)
		}
		if resp.StatusCode >= 400 {
			return Outcome{Success: false, Error: fmt.Sprintf("status %d", resp.StatusCode)}, nil
		}
		return Outcome{Success: true, Data: map[string]interface{}{
			"status": resp.StatusCode,
			"body":   string(body),
		}}, nil
	}); err != nil {
		return err
	}

	return r.Register(Spec{
		Name:        "current_time",
		Description: "Return the current time, optionally in a named IANA timezone",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"timezone": {Type: "string", Description: "IANA timezone name, defaults to UTC"},
			},
		},
	}, func(ctx context.Context, params map[string]interface{}) (Outcome, error) {
		loc := time.UTC
		if tz, ok := params["timezone"].(string); ok && tz != "" {
			l, err := time.LoadLocation(tz)
			if err != nil {
				return Outcome{Success: false, Error: fmt.Sprintf("unknown timezone %q", tz)}, nil
			}
			loc = l
		}
		return Outcome{Success: true, Data: map[string]interface{}{
			"time": time.Now().In(loc).Format(time.RFC3339),
			"zone": loc.String(),
		}}, nil
	})
}
