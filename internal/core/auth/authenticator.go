// Package auth runs one authentication test end to end: input checks, the length
// gate, an optional keystroke-biometric verdict and the text-similarity fallback.
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/baditaflorin/go_typing_similarity/internal/core/decision"
	"github.com/baditaflorin/go_typing_similarity/internal/core/domain"
	"github.com/baditaflorin/go_typing_similarity/internal/core/feedback"
	"github.com/baditaflorin/go_typing_similarity/internal/core/metric"
	"github.com/baditaflorin/go_typing_similarity/internal/core/session"
	"github.com/baditaflorin/go_typing_similarity/internal/ports"
)

// ErrNoReference is returned when there is no prompt text to compare against.
var ErrNoReference = domain.ErrNoReference

// Result is the outcome of one authentication attempt.
type Result struct {
	Decision domain.Decision
	// Attempts is the caller's bookkeeping after this attempt.
	Attempts session.Attempts
	Breach   bool
	// Alerted reports that the breach notifier accepted the alert.
	Alerted bool
}

// Authenticator decides authentication attempts.
type Authenticator struct {
	decider  *decision.Decider
	trimmer  ports.Normalizer
	provider ports.ConfidenceProvider
	metrics  ports.MetricsRecorder
	notifier ports.BreachNotifier
	logger   ports.Logger
	now      func() time.Time
}

// NewAuthenticator creates an authenticator. provider, metrics and notifier may be nil.
func NewAuthenticator(
	decider *decision.Decider,
	trimmer ports.Normalizer,
	provider ports.ConfidenceProvider,
	metrics ports.MetricsRecorder,
	notifier ports.BreachNotifier,
	logger ports.Logger,
) *Authenticator {
	return &Authenticator{
		decider:  decider,
		trimmer:  trimmer,
		provider: provider,
		metrics:  metrics,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Authenticate decides one attempt and folds the outcome into attempts.
//
// An insufficient decision is returned without consulting the biometric
// service. When the service answers with a confidence it replaces the text
// comparison entirely; when it fails or has no opinion, the text comparison
// decides.
func (a *Authenticator) Authenticate(ctx context.Context, attempt domain.Attempt, attempts session.Attempts) (Result, error) {
	reference := a.trimmer.Normalize(attempt.Reference)
	candidate := a.trimmer.Normalize(attempt.Candidate)

	if reference == "" {
		a.logger.Warn("Authentication attempt without reference text")
		return Result{Attempts: attempts}, ErrNoReference
	}

	gate := a.decider.Decide(candidate, reference)
	if gate.Insufficient() {
		a.logger.Info("Authentication input too short",
			"candidate_length", gate.CandidateLength,
			"required_length", gate.RequiredLength,
		)
		return a.finish(ctx, gate, attempts), nil
	}

	select {
	case <-ctx.Done():
		a.logger.Error("Authentication cancelled", "error", ctx.Err())
		return Result{Attempts: attempts}, fmt.Errorf("authentication cancelled: %w", ctx.Err())
	default:
	}

	d := gate
	if a.provider != nil {
		req := domain.AuthRequest{
			Text:        reference,
			Keystrokes:  attempt.Keystrokes,
			TypingSpeed: feedback.TypingSpeed(candidate, attempt.Duration),
			Accuracy:    metric.PositionalAccuracy(reference, candidate),
			Duration:    attempt.Duration.Seconds(),
		}
		conf, err := a.provider.Authenticate(ctx, req)
		switch {
		case err != nil:
			a.logger.Warn("Biometric service unavailable, using text similarity", "error", err)
			d.Details["biometric_error"] = err.Error()
		case conf.Present:
			d = fromConfidence(gate, conf)
		default:
			a.logger.Debug("Biometric service returned no confidence", "message", conf.Message)
		}
	}

	a.logger.Info("Authentication decided",
		"outcome", d.Outcome.String(),
		"source", string(d.Source),
		"score", d.Score,
	)
	return a.finish(ctx, d, attempts), nil
}

func (a *Authenticator) finish(ctx context.Context, d domain.Decision, attempts session.Attempts) Result {
	next, breach := attempts.Record(d.Outcome)
	if a.metrics != nil {
		a.metrics.ObserveDecision(d)
		if breach {
			a.metrics.ObserveBreach()
		}
	}

	res := Result{Decision: d, Attempts: next, Breach: breach}
	if !breach {
		return res
	}

	a.logger.Warn("Security breach: too many failed attempts",
		"failed_attempts", next.Failed,
		"max_attempts", next.Max,
	)
	if a.notifier == nil {
		return res
	}

	err := a.notifier.NotifyBreach(ctx, domain.BreachAlert{
		Timestamp:      a.now().UTC(),
		FailedAttempts: next.Failed,
		MaxAttempts:    next.Max,
	})
	if err != nil {
		a.logger.Warn("Breach alert failed", "error", err)
		if d.Details != nil {
			d.Details["alert_error"] = err.Error()
		}
		return res
	}
	res.Alerted = true
	return res
}

func fromConfidence(gate domain.Decision, conf domain.Confidence) domain.Decision {
	outcome := domain.OutcomeRejected
	if conf.IsAuthentic {
		outcome = domain.OutcomeAuthentic
	}

	details := make(map[string]interface{}, len(gate.Details)+2)
	for k, v := range gate.Details {
		details[k] = v
	}
	details["confidence"] = conf.Score
	if conf.Message != "" {
		details["biometric_message"] = conf.Message
	}

	return domain.Decision{
		Outcome:         outcome,
		Score:           conf.Score,
		Threshold:       gate.Threshold,
		Source:          domain.SourceBiometric,
		CandidateLength: gate.CandidateLength,
		ReferenceLength: gate.ReferenceLength,
		RequiredLength:  gate.RequiredLength,
		Details:         details,
	}
}
