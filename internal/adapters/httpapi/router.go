// Package httpapi exposes the scorer over JSON HTTP using fasthttp.
package httpapi

import (
	"time"

	"github.com/baditaflorin/go_typing_similarity/internal/ports"
	"github.com/baditaflorin/go_typing_similarity/pkg/scorer"
	"github.com/valyala/fasthttp"
)

const (
	// DefaultRequestTimeout bounds one call that reaches a remote service.
	DefaultRequestTimeout = 30 * time.Second
	// DefaultMaxTextLength caps every text field, in characters.
	DefaultMaxTextLength = 10000
)

// API holds the request handlers and their collaborators.
type API struct {
	scorer         *scorer.Scorer
	logger         ports.Logger
	metrics        ports.MetricsRecorder
	metricsPath    string
	metricsHandler fasthttp.RequestHandler
	requestTimeout time.Duration
	maxTextLength  int
}

// Option configures an API.
type Option func(*API)

// WithMetrics records request latency to m and serves handler at path.
func WithMetrics(m ports.MetricsRecorder, path string, handler fasthttp.RequestHandler) Option {
	return func(a *API) {
		a.metrics = m
		a.metricsPath = path
		a.metricsHandler = handler
	}
}

// WithRequestTimeout sets the deadline applied to requests that call remote services.
func WithRequestTimeout(d time.Duration) Option {
	return func(a *API) {
		a.requestTimeout = d
	}
}

// WithMaxTextLength rejects requests whose texts exceed n characters.
func WithMaxTextLength(n int) Option {
	return func(a *API) {
		a.maxTextLength = n
	}
}

// New creates the API.
func New(s *scorer.Scorer, logger ports.Logger, opts ...Option) *API {
	a := &API{
		scorer:         s,
		logger:         logger,
		requestTimeout: DefaultRequestTimeout,
		maxTextLength:  DefaultMaxTextLength,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Handler is the main fasthttp request handler.
func (a *API) Handler(ctx *fasthttp.RequestCtx) {
	startTime := time.Now()

	ctx.Response.Header.Set("Server", "TypingSimilarityServer")

	path := string(ctx.Path())
	switch path {
	case "/health":
		a.handleHealthCheck(ctx)
	case "/distance":
		a.handleDistance(ctx)
	case "/similarity":
		a.handleSimilarity(ctx)
	case "/accuracy":
		a.handleAccuracy(ctx)
	case "/decide":
		a.handleDecide(ctx)
	case "/feedback":
		a.handleFeedback(ctx)
	case "/authenticate":
		a.handleAuthenticate(ctx)
	case "/sessions":
		a.handleSaveSession(ctx)
	case "/train":
		a.handleTrain(ctx)
	default:
		if a.metricsHandler != nil && path == a.metricsPath {
			a.metricsHandler(ctx)
			break
		}
		ctx.SetStatusCode(fasthttp.StatusNotFound)
		writeJSONError(ctx, a.logger, "Not found")
		path = "unmatched"
	}

	duration := time.Since(startTime)
	if a.metrics != nil {
		a.metrics.ObserveRequest(path, ctx.Response.StatusCode(), duration)
	}
	a.logger.Info("Request processed",
		"method", string(ctx.Method()),
		"path", string(ctx.Path()),
		"status", ctx.Response.StatusCode(),
		"ip", ctx.RemoteIP().String(),
		"duration", duration,
	)
}
