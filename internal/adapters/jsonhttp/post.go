// Package jsonhttp posts JSON documents to the remote collaborator services
// over fasthttp.
package jsonhttp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
)

// NewClient returns a fasthttp client tuned for short JSON calls.
func NewClient(name string, timeout time.Duration) *fasthttp.Client {
	return &fasthttp.Client{
		Name:                name,
		ReadTimeout:         timeout,
		WriteTimeout:        timeout,
		MaxIdleConnDuration: 30 * time.Second,
	}
}

// BaseURL trims whitespace and trailing slashes from a service address.
func BaseURL(raw string) string {
	return strings.TrimRight(strings.TrimSpace(raw), "/")
}

// Post sends payload as JSON to url and decodes the reply body into reply,
// whatever the status. The deadline comes from ctx, or now+timeout when ctx
// has none. The response status is returned so callers can map failures.
func Post(ctx context.Context, client *fasthttp.Client, url string, timeout time.Duration, payload, reply interface{}) (int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("failed to encode request: %w", err)
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(body)

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(timeout)
	}

	if err := client.DoDeadline(req, resp, deadline); err != nil {
		return 0, fmt.Errorf("request to %s failed: %w", url, err)
	}

	status := resp.StatusCode()
	if err := json.Unmarshal(resp.Body(), reply); err != nil {
		return status, fmt.Errorf("failed to decode response from %s (status %d): %w", url, status, err)
	}
	return status, nil
}
