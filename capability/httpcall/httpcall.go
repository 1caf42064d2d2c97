// Package httpcall provides a capability that issues HTTP requests.
// It stands in for environment-specific automation plugins (desktop
// control and the like) as a realistic side-effecting handler: a node can
// fetch a URL or post a payload and feed the response into the run log.
package httpcall

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/xraph/conduct/capability"
)

// maxBodyBytes caps how much of a response body is captured into the result.
const maxBodyBytes = 64 << 10

// HTTPCall performs "get" and "post" actions against a target URL.
// The client is created once per instance, so connections are reused
// across the nodes of one run and never shared between runs.
type HTTPCall struct {
	client *http.Client
}

// New creates an HTTPCall capability instance.
func New() *HTTPCall {
	return &HTTPCall{
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Factory is a capability.Factory for HTTPCall.
func Factory() capability.Capability { return New() }

// Execute performs the HTTP action. Recognized actions:
//
//	get  — fields: url
//	post — fields: url, body (optional), content_type (optional)
func (h *HTTPCall) Execute(ctx context.Context, action string, fields map[string]string) (capability.Result, error) {
	url := fields["url"]
	if url == "" {
		return nil, fmt.Errorf("httpcall: missing url field")
	}

	var (
		resp *http.Response
		err  error
	)
	switch action {
	case "get":
		var req *http.Request
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("httpcall: build request: %w", err)
		}
		resp, err = h.client.Do(req)
	case "post":
		contentType := fields["content_type"]
		if contentType == "" {
			contentType = "application/json"
		}
		var req *http.Request
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(fields["body"]))
		if err != nil {
			return nil, fmt.Errorf("httpcall: build request: %w", err)
		}
		req.Header.Set("Content-Type", contentType)
		resp, err = h.client.Do(req)
	default:
		return nil, fmt.Errorf("httpcall: unsupported action %q", action)
	}
	if err != nil {
		return nil, fmt.Errorf("httpcall: %s %s: %w", action, url, err)
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if readErr != nil {
		return nil, fmt.Errorf("httpcall: read response from %s: %w", url, readErr)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("httpcall: %s %s: status %d", action, url, resp.StatusCode)
	}

	return capability.Result{
		"ok":     true,
		"status": resp.StatusCode,
		"body":   string(body),
	}, nil
}
