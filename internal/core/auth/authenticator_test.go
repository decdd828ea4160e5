package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/baditaflorin/go_typing_similarity/internal/adapters/logger"
	"github.com/baditaflorin/go_typing_similarity/internal/adapters/normalizer"
	"github.com/baditaflorin/go_typing_similarity/internal/core/decision"
	"github.com/baditaflorin/go_typing_similarity/internal/core/domain"
	"github.com/baditaflorin/go_typing_similarity/internal/core/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const prompt = "Security is not a product, but a process."

type fakeProvider struct {
	conf  domain.Confidence
	err   error
	calls int
	last  domain.AuthRequest
}

func (f *fakeProvider) Authenticate(_ context.Context, req domain.AuthRequest) (domain.Confidence, error) {
	f.calls++
	f.last = req
	return f.conf, f.err
}

type fakeMetrics struct {
	decisions []domain.Decision
	breaches  int
}

func (f *fakeMetrics) ObserveDecision(d domain.Decision) { f.decisions = append(f.decisions, d) }
func (f *fakeMetrics) ObserveBreach()                    { f.breaches++ }

func (f *fakeMetrics) ObserveRequest(string, int, time.Duration) {}

type fakeNotifier struct {
	err    error
	alerts []domain.BreachAlert
}

func (f *fakeNotifier) NotifyBreach(_ context.Context, alert domain.BreachAlert) error {
	f.alerts = append(f.alerts, alert)
	return f.err
}

func newAuthenticator(t *testing.T, provider *fakeProvider, metrics *fakeMetrics) *Authenticator {
	t.Helper()
	d, err := decision.NewDecider(decision.DefaultConfig(), logger.NewNopLogger(), normalizer.NewFoldNormalizer())
	require.NoError(t, err)

	a := NewAuthenticator(d, normalizer.NewTrimNormalizer(), nil, nil, nil, logger.NewNopLogger())
	if provider != nil {
		a.provider = provider
	}
	if metrics != nil {
		a.metrics = metrics
	}
	return a
}

func TestAuthenticateTextFallback(t *testing.T) {
	metrics := &fakeMetrics{}
	a := newAuthenticator(t, nil, metrics)

	res, err := a.Authenticate(context.Background(), domain.Attempt{
		Reference: "  " + prompt + "  ",
		Candidate: "security is not a product, but a process.\n",
	}, session.Attempts{Max: 3})
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeAuthentic, res.Decision.Outcome)
	assert.Equal(t, domain.SourceTextSimilarity, res.Decision.Source)
	assert.InDelta(t, 1.0, res.Decision.Score, 1e-9)
	assert.False(t, res.Breach)
	require.Len(t, metrics.decisions, 1)
}

func TestAuthenticateNoReference(t *testing.T) {
	a := newAuthenticator(t, nil, nil)

	_, err := a.Authenticate(context.Background(), domain.Attempt{Reference: "   ", Candidate: "x"}, session.Attempts{})
	assert.ErrorIs(t, err, ErrNoReference)
}

func TestAuthenticateInsufficientSkipsProvider(t *testing.T) {
	provider := &fakeProvider{conf: domain.Confidence{Present: true, IsAuthentic: true, Score: 0.99}}
	a := newAuthenticator(t, provider, nil)

	attempts := session.Attempts{Max: 3, Failed: 2, SecurityActive: true}
	res, err := a.Authenticate(context.Background(), domain.Attempt{Reference: prompt, Candidate: "Security"}, attempts)
	require.NoError(t, err)

	assert.True(t, res.Decision.Insufficient())
	assert.Zero(t, provider.calls)
	assert.Equal(t, attempts, res.Attempts)
	assert.False(t, res.Breach)
}

func TestAuthenticateBiometricOverrides(t *testing.T) {
	provider := &fakeProvider{conf: domain.Confidence{Present: true, IsAuthentic: false, Score: 0.31}}
	a := newAuthenticator(t, provider, nil)

	res, err := a.Authenticate(context.Background(), domain.Attempt{
		Reference: prompt,
		Candidate: prompt,
		Keystrokes: []domain.Keystroke{
			{Key: "S", Code: "KeyS", Type: "keydown", Timestamp: 0, ShiftKey: true},
		},
		Duration: 30 * time.Second,
	}, session.Attempts{Max: 3})
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeRejected, res.Decision.Outcome)
	assert.Equal(t, domain.SourceBiometric, res.Decision.Source)
	assert.InDelta(t, 0.31, res.Decision.Score, 1e-9)
	assert.Equal(t, 1, res.Attempts.Failed)

	require.Equal(t, 1, provider.calls)
	assert.Equal(t, prompt, provider.last.Text)
	assert.InDelta(t, 1.0, provider.last.Accuracy, 1e-9)
	assert.InDelta(t, 30.0, provider.last.Duration, 1e-9)
	assert.Equal(t, 16, provider.last.TypingSpeed)
	assert.Len(t, provider.last.Keystrokes, 1)
}

func TestAuthenticateProviderErrorFallsBack(t *testing.T) {
	provider := &fakeProvider{err: errors.New("connection refused")}
	a := newAuthenticator(t, provider, nil)

	res, err := a.Authenticate(context.Background(), domain.Attempt{Reference: prompt, Candidate: prompt}, session.Attempts{Max: 3})
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeAuthentic, res.Decision.Outcome)
	assert.Equal(t, domain.SourceTextSimilarity, res.Decision.Source)
	assert.Equal(t, "connection refused", res.Decision.Details["biometric_error"])
}

func TestAuthenticateProviderWithoutConfidenceFallsBack(t *testing.T) {
	provider := &fakeProvider{conf: domain.Confidence{Present: false, Message: "model not trained"}}
	a := newAuthenticator(t, provider, nil)

	res, err := a.Authenticate(context.Background(), domain.Attempt{Reference: prompt, Candidate: prompt}, session.Attempts{Max: 3})
	require.NoError(t, err)
	assert.Equal(t, domain.SourceTextSimilarity, res.Decision.Source)
}

func TestAuthenticateBreach(t *testing.T) {
	metrics := &fakeMetrics{}
	a := newAuthenticator(t, nil, metrics)

	attempts := session.Attempts{Max: 3, SecurityActive: true}
	wrong := "Pack my box with five dozen liquor jugs, now!"

	var res Result
	for i := 0; i < 3; i++ {
		var err error
		res, err = a.Authenticate(context.Background(), domain.Attempt{Reference: prompt, Candidate: wrong}, attempts)
		require.NoError(t, err)
		attempts = res.Attempts
	}

	assert.True(t, res.Breach)
	assert.False(t, res.Alerted)
	assert.Equal(t, 3, res.Attempts.Failed)
	assert.Equal(t, 1, metrics.breaches)
}

func failUntilBreach(t *testing.T, a *Authenticator) Result {
	t.Helper()
	attempts := session.Attempts{Max: 3, SecurityActive: true}
	wrong := "Pack my box with five dozen liquor jugs, now!"

	var res Result
	for i := 0; i < 3; i++ {
		var err error
		res, err = a.Authenticate(context.Background(), domain.Attempt{Reference: prompt, Candidate: wrong}, attempts)
		require.NoError(t, err)
		attempts = res.Attempts
	}
	return res
}

func TestAuthenticateBreachNotifies(t *testing.T) {
	notifier := &fakeNotifier{}
	a := newAuthenticator(t, nil, nil)
	a.notifier = notifier
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return at }

	res := failUntilBreach(t, a)

	assert.True(t, res.Breach)
	assert.True(t, res.Alerted)
	require.Len(t, notifier.alerts, 1)
	assert.Equal(t, domain.BreachAlert{Timestamp: at, FailedAttempts: 3, MaxAttempts: 3}, notifier.alerts[0])
}

func TestAuthenticateBreachAlertFailure(t *testing.T) {
	notifier := &fakeNotifier{err: errors.New("alert service down")}
	a := newAuthenticator(t, nil, nil)
	a.notifier = notifier

	res := failUntilBreach(t, a)

	assert.True(t, res.Breach)
	assert.False(t, res.Alerted)
	assert.Len(t, notifier.alerts, 1)
	assert.Equal(t, "alert service down", res.Decision.Details["alert_error"])
}

func TestAuthenticateCancelled(t *testing.T) {
	provider := &fakeProvider{}
	a := newAuthenticator(t, provider, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Authenticate(ctx, domain.Attempt{Reference: prompt, Candidate: prompt}, session.Attempts{Max: 3})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, provider.calls)
}
