package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/baditaflorin/go_typing_similarity/internal/adapters/logger"
	"github.com/baditaflorin/go_typing_similarity/internal/core/domain"
	"github.com/baditaflorin/go_typing_similarity/pkg/scorer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

type stubTrainer struct {
	saveErr  error
	trainErr error
	last     domain.AuthRequest
}

func (s *stubTrainer) SaveSession(_ context.Context, session domain.AuthRequest) (domain.SavedSession, error) {
	s.last = session
	if s.saveErr != nil {
		return domain.SavedSession{}, s.saveErr
	}
	return domain.SavedSession{SessionID: 3, TotalSessions: 3, Message: "Training session saved successfully"}, nil
}

func (s *stubTrainer) Train(context.Context) (domain.TrainingResult, error) {
	if s.trainErr != nil {
		return domain.TrainingResult{}, s.trainErr
	}
	return domain.TrainingResult{Trained: true, Accuracy: 0.9, Message: "Model trained successfully"}, nil
}

const sessionBody = `{"reference":"The quick brown fox","typed":"The quick brown fox",` +
	`"keystrokes":[{"key":"T","code":"KeyT","type":"keydown","timestamp":0,"shiftKey":true}],"duration_ms":30000}`

func TestSaveSessionHandler(t *testing.T) {
	trainer := &stubTrainer{}
	api := newTestAPI(t, scorer.WithProfileTrainer(trainer))

	ctx := do(api, fasthttp.MethodPost, "/sessions", sessionBody)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode(), string(ctx.Response.Body()))

	var resp SessionResponse
	decodeBody(t, ctx, &resp)
	assert.Equal(t, 3, resp.SessionID)
	assert.Equal(t, 3, resp.TotalSessions)

	assert.Equal(t, "The quick brown fox", trainer.last.Text)
	assert.InDelta(t, 1.0, trainer.last.Accuracy, 1e-9)
	assert.Equal(t, 8, trainer.last.TypingSpeed)
	require.Len(t, trainer.last.Keystrokes, 1)
	assert.True(t, trainer.last.Keystrokes[0].ShiftKey)
}

func TestSaveSessionErrors(t *testing.T) {
	tests := []struct {
		name    string
		opts    []scorer.ScorerOption
		body    string
		status  int
		message string
	}{
		{
			name:    "no trainer",
			body:    sessionBody,
			status:  fasthttp.StatusServiceUnavailable,
			message: "Biometric service is not configured",
		},
		{
			name:    "no keystrokes",
			opts:    []scorer.ScorerOption{scorer.WithProfileTrainer(&stubTrainer{})},
			body:    `{"reference":"abc","typed":"abc"}`,
			status:  fasthttp.StatusBadRequest,
			message: "No keystrokes recorded",
		},
		{
			name:    "no reference",
			opts:    []scorer.ScorerOption{scorer.WithProfileTrainer(&stubTrainer{})},
			body:    `{"reference":" ","typed":"abc","keystrokes":[{"key":"a"}]}`,
			status:  fasthttp.StatusBadRequest,
			message: "No text to compare against",
		},
		{
			name:    "remote failure",
			opts:    []scorer.ScorerOption{scorer.WithProfileTrainer(&stubTrainer{saveErr: errors.New("connection refused")})},
			body:    sessionBody,
			status:  fasthttp.StatusBadGateway,
			message: "Biometric service unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := do(newTestAPI(t, tt.opts...), fasthttp.MethodPost, "/sessions", tt.body)
			assert.Equal(t, tt.status, ctx.Response.StatusCode())

			var resp ErrorResponse
			decodeBody(t, ctx, &resp)
			assert.Equal(t, tt.message, resp.Error)
		})
	}
}

func TestTrainHandler(t *testing.T) {
	api := newTestAPI(t, scorer.WithProfileTrainer(&stubTrainer{}))

	ctx := do(api, fasthttp.MethodPost, "/train", "")
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	var resp TrainResponse
	decodeBody(t, ctx, &resp)
	assert.True(t, resp.Trained)
	assert.InDelta(t, 0.9, resp.Accuracy, 1e-9)

	ctx = do(api, fasthttp.MethodGet, "/train", "")
	assert.Equal(t, fasthttp.StatusMethodNotAllowed, ctx.Response.StatusCode())

	ctx = do(newTestAPI(t), fasthttp.MethodPost, "/train", "")
	assert.Equal(t, fasthttp.StatusServiceUnavailable, ctx.Response.StatusCode())

	api = newTestAPI(t, scorer.WithProfileTrainer(&stubTrainer{trainErr: errors.New("timeout")}))
	ctx = do(api, fasthttp.MethodPost, "/train", "")
	assert.Equal(t, fasthttp.StatusBadGateway, ctx.Response.StatusCode())
}

func TestOversizedTextRejected(t *testing.T) {
	s, err := scorer.New(scorer.WithPortLogger(logger.NewNopLogger()))
	require.NoError(t, err)
	api := New(s, logger.NewNopLogger(), WithMaxTextLength(100))

	long := strings.Repeat("é", 101)
	pair, err := json.Marshal(PairRequest{A: long, B: "x"})
	require.NoError(t, err)
	auth, err := json.Marshal(AuthenticateRequest{Reference: "abc", Candidate: long})
	require.NoError(t, err)

	tests := []struct {
		path string
		body string
	}{
		{"/distance", string(pair)},
		{"/similarity", string(pair)},
		{"/authenticate", string(auth)},
		{"/feedback", fmt.Sprintf(`{"reference":%q,"typed":"x"}`, long)},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			ctx := do(api, fasthttp.MethodPost, tt.path, tt.body)
			assert.Equal(t, fasthttp.StatusRequestEntityTooLarge, ctx.Response.StatusCode())

			var resp ErrorResponse
			decodeBody(t, ctx, &resp)
			assert.Equal(t, "Text exceeds 100 characters", resp.Error)
		})
	}

	// 100 two-byte runes are within the limit.
	ctx := do(api, fasthttp.MethodPost, "/distance", fmt.Sprintf(`{"a":%q,"b":""}`, strings.Repeat("é", 100)))
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	var body map[string]int
	decodeBody(t, ctx, &body)
	assert.Equal(t, 100, body["distance"])
}

func TestDefaultMaxTextLength(t *testing.T) {
	api := newTestAPI(t)
	assert.Equal(t, DefaultMaxTextLength, api.maxTextLength)

	ctx := do(api, fasthttp.MethodPost, "/decide", fmt.Sprintf(`{"reference":"abc","candidate":%q}`, strings.Repeat("a", DefaultMaxTextLength+1)))
	assert.Equal(t, fasthttp.StatusRequestEntityTooLarge, ctx.Response.StatusCode())
}

// waitingProvider blocks until its context is cancelled.
type waitingProvider struct {
	started chan struct{}
	done    chan error
}

func (w *waitingProvider) Authenticate(ctx context.Context, _ domain.AuthRequest) (domain.Confidence, error) {
	close(w.started)
	select {
	case <-ctx.Done():
		w.done <- ctx.Err()
		return domain.Confidence{}, ctx.Err()
	case <-time.After(5 * time.Second):
		w.done <- nil
		return domain.Confidence{}, errors.New("not cancelled")
	}
}

func TestAuthenticateCancelledOnShutdown(t *testing.T) {
	provider := &waitingProvider{started: make(chan struct{}), done: make(chan error, 1)}
	s, err := scorer.New(scorer.WithPortLogger(logger.NewNopLogger()), scorer.WithConfidenceProvider(provider))
	require.NoError(t, err)
	api := New(s, logger.NewNopLogger(), WithRequestTimeout(time.Minute))

	ln := fasthttputil.NewInmemoryListener()
	server := &fasthttp.Server{Handler: api.Handler}
	go func() {
		_ = server.Serve(ln)
	}()

	client := &fasthttp.Client{
		Dial: func(addr string) (net.Conn, error) {
			return ln.Dial()
		},
	}
	go func() {
		req := fasthttp.AcquireRequest()
		resp := fasthttp.AcquireResponse()
		defer fasthttp.ReleaseRequest(req)
		defer fasthttp.ReleaseResponse(resp)
		req.SetRequestURI("http://typingsim.test/authenticate")
		req.Header.SetMethod(fasthttp.MethodPost)
		req.SetBodyString(`{"reference":"hello there","candidate":"hello there"}`)
		_ = client.Do(req, resp)
	}()

	select {
	case <-provider.started:
	case <-time.After(2 * time.Second):
		t.Fatal("authentication never reached the provider")
	}

	go func() {
		_ = server.Shutdown()
	}()

	select {
	case err := <-provider.done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("provider context was not cancelled by shutdown")
	}
}
