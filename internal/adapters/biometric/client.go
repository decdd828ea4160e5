// Package biometric talks to the remote keystroke-biometric service: it stores
// training sessions, trains the user's model and authenticates attempts.
package biometric

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

// ErrEmptyBaseURL is returned when the client is created without a service address.
var ErrEmptyBaseURL = errors.New("biometric service base URL is required")

// authenticateResponse mirrors the service's /authenticate reply.
type authenticateResponse struct {
	Success     bool     `json:"success"`
	IsAuthentic bool     `json:"is_authentic"`
	Confidence  *float64 `json:"confidence"`
	Message     string   `json:"message"`
	Error       string   `json:"error"`
}

// saveResponse mirrors the service's /save reply.
type saveResponse struct {
	Success       bool   `json:"success"`
	SessionID     int    `json:"session_id"`
	TotalSessions int    `json:"total_sessions"`
	Message       string `json:"message"`
	Error         string `json:"error"`
}

// trainResponse mirrors the service's /train reply.
type trainResponse struct {
	Success  bool    `json:"success"`
	Accuracy float64 `json:"accuracy"`
	Message  string  `json:"message"`
	Error    string  `json:"error"`
}

// Client implements ports.ConfidenceProvider and ports.ProfileTrainer over HTTP.
type Client struct {
	baseURL string
	timeout time.Duration
	client  *fasthttp.Client
	logger  ports.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout used when the context has no deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithHTTPClient replaces the underlying fasthttp client.
func WithHTTPClient(hc *fasthttp.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// NewClient creates a client for the service rooted at baseURL, for example
// "http://localhost:8080/api/keystroke".
func NewClient(baseURL string, logger ports.Logger, opts ...Option) (*Client, error) {
	baseURL = jsonhttp.BaseURL(baseURL)
	if baseURL == "" {
		return nil, ErrEmptyBaseURL
	}

	c := &Client{
		baseURL: baseURL,
		timeout: DefaultTimeout,
		client:  jsonhttp.NewClient("typingsim-biometric", DefaultTimeout),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) post(ctx context.Context, path string, payload, reply interface{}) (int, error) {
	start := time.Now()
	status, err := jsonhttp.Post(ctx, c.client, c.baseURL+path, c.timeout, payload, reply)
	if err != nil {
		return status, fmt.Errorf("biometric %s: %w", path, err)
	}
	c.logger.Debug("Biometric service replied",
		"path", path,
		"status", status,
		"duration", time.Since(start),
	)
	return status, nil
}

// Authenticate posts the attempt to {baseURL}/authenticate. A reply without a
// confidence value, or with success=false, yields a Confidence with Present unset.
func (c *Client) Authenticate(ctx context.Context, req domain.AuthRequest) (domain.Confidence, error) {
	var reply authenticateResponse
	status, err := c.post(ctx, "/authenticate", req, &reply)
	if err != nil {
		return domain.Confidence{}, err
	}

	if status != fasthttp.StatusOK {
		return domain.Confidence{}, statusError(status, reply.Error, reply.Message)
	}

	if !reply.Success || reply.Confidence == nil {
		return domain.Confidence{Message: firstNonEmpty(reply.Error, reply.Message)}, nil
	}

	return domain.Confidence{
		Present:     true,
		IsAuthentic: reply.IsAuthentic,
		Score:       *reply.Confidence,
		Message:     reply.Message,
	}, nil
}

// SaveSession posts a completed training session to {baseURL}/save.
func (c *Client) SaveSession(ctx context.Context, session domain.AuthRequest) (domain.SavedSession, error) {
	var reply saveResponse
	status, err := c.post(ctx, "/save", session, &reply)
	if err != nil {
		return domain.SavedSession{}, err
	}

	if status != fasthttp.StatusOK || !reply.Success {
		return domain.SavedSession{}, statusError(status, reply.Error, reply.Message)
	}

	return domain.SavedSession{
		SessionID:     reply.SessionID,
		TotalSessions: reply.TotalSessions,
		Message:       reply.Message,
	}, nil
}

// Train asks {baseURL}/train to fit the model on the stored sessions. A
// success=false reply is not an error: the result reports Trained=false with
// the service's message.
func (c *Client) Train(ctx context.Context) (domain.TrainingResult, error) {
	var reply trainResponse
	status, err := c.post(ctx, "/train", struct{}{}, &reply)
	if err != nil {
		return domain.TrainingResult{}, err
	}

	if status != fasthttp.StatusOK {
		return domain.TrainingResult{}, statusError(status, reply.Error, reply.Message)
	}

	return domain.TrainingResult{
		Trained:  reply.Success,
		Accuracy: reply.Accuracy,
		Message:  firstNonEmpty(reply.Error, reply.Message),
	}, nil
}

func statusError(status int, msgs ...string) error {
	return fmt.Errorf("biometric service returned status %d: %s", status, firstNonEmpty(msgs...))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
