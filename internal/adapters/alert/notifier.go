// Package alert raises security breach alerts with the remote alert service.
package alert

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/baditaflorin/go_typing_similarity/internal/adapters/jsonhttp"
	"github.com/baditaflorin/go_typing_similarity/internal/core/domain"
	"github.com/baditaflorin/go_typing_similarity/internal/ports"
	"github.com/valyala/fasthttp"
)

// DefaultTimeout bounds a single call when the context carries no deadline.
const DefaultTimeout = 5 * time.Second

// ErrEmptyBaseURL is returned when the notifier is created without a service address.
var ErrEmptyBaseURL = errors.New("alert service base URL is required")

type breachRequest struct {
	Details domain.BreachAlert `json:"details"`
}

type breachResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Notifier implements ports.BreachNotifier by posting to {baseURL}/breach.
type Notifier struct {
	baseURL string
	timeout time.Duration
	client  *fasthttp.Client
	logger  ports.Logger
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithTimeout sets the per-request timeout used when the context has no deadline.
func WithTimeout(d time.Duration) Option {
	return func(n *Notifier) {
		n.timeout = d
	}
}

// WithHTTPClient replaces the underlying fasthttp client.
func WithHTTPClient(hc *fasthttp.Client) Option {
	return func(n *Notifier) {
		n.client = hc
	}
}

// NewNotifier creates a notifier for the service rooted at baseURL, for example
// "http://localhost:8080/api/alert".
func NewNotifier(baseURL string, logger ports.Logger, opts ...Option) (*Notifier, error) {
	baseURL = jsonhttp.BaseURL(baseURL)
	if baseURL == "" {
		return nil, ErrEmptyBaseURL
	}

	n := &Notifier{
		baseURL: baseURL,
		timeout: DefaultTimeout,
		client:  jsonhttp.NewClient("typingsim-alert", DefaultTimeout),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// NotifyBreach posts the breach details. Any reply other than a 200 with
// success=true is an error.
func (n *Notifier) NotifyBreach(ctx context.Context, alert domain.BreachAlert) error {
	var reply breachResponse
	status, err := jsonhttp.Post(ctx, n.client, n.baseURL+"/breach", n.timeout, breachRequest{Details: alert}, &reply)
	if err != nil {
		return fmt.Errorf("breach alert: %w", err)
	}

	if status != fasthttp.StatusOK || !reply.Success {
		msg := reply.Error
		if msg == "" {
			msg = reply.Message
		}
		return fmt.Errorf("alert service returned status %d: %s", status, msg)
	}

	n.logger.Info("Breach alert sent",
		"failed_attempts", alert.FailedAttempts,
		"max_attempts", alert.MaxAttempts,
		"message", reply.Message,
	)
	return nil
}
