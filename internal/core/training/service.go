// Package training enrolls a user's typing rhythm with the biometric service.
package training

import (
	"context"
	"errors"

	"github.com/baditaflorin/go_typing_similarity/internal/core/domain"
	"github.com/baditaflorin/go_typing_similarity/internal/core/feedback"
	"github.com/baditaflorin/go_typing_similarity/internal/core/metric"
	"github.com/baditaflorin/go_typing_similarity/internal/ports"
)

// ErrNoTrainer is returned when no biometric service is configured.
var ErrNoTrainer = errors.New("no biometric trainer configured")

// Service saves training sessions and triggers model training.
type Service struct {
	trainer ports.ProfileTrainer
	trimmer ports.Normalizer
	logger  ports.Logger
}

// NewService creates a training service. trainer may be nil, in which case
// every call returns ErrNoTrainer.
func NewService(trainer ports.ProfileTrainer, trimmer ports.Normalizer, logger ports.Logger) *Service {
	return &Service{
		trainer: trainer,
		trimmer: trimmer,
		logger:  logger,
	}
}

// Save stores one completed training session. The typing speed counts the
// prompt's words, and accuracy is case-sensitive over the prompt length.
func (s *Service) Save(ctx context.Context, attempt domain.Attempt) (domain.SavedSession, error) {
	if s.trainer == nil {
		return domain.SavedSession{}, ErrNoTrainer
	}

	reference := s.trimmer.Normalize(attempt.Reference)
	candidate := s.trimmer.Normalize(attempt.Candidate)
	if reference == "" {
		return domain.SavedSession{}, domain.ErrNoReference
	}
	if len(attempt.Keystrokes) == 0 {
		return domain.SavedSession{}, domain.ErrNoKeystrokes
	}

	saved, err := s.trainer.SaveSession(ctx, domain.AuthRequest{
		Text:        reference,
		Keystrokes:  attempt.Keystrokes,
		TypingSpeed: feedback.TypingSpeed(reference, attempt.Duration),
		Accuracy:    metric.PositionalAccuracy(reference, candidate),
		Duration:    attempt.Duration.Seconds(),
	})
	if err != nil {
		s.logger.Warn("Failed to save training session", "error", err)
		return domain.SavedSession{}, err
	}

	s.logger.Info("Training session saved",
		"session_id", saved.SessionID,
		"total_sessions", saved.TotalSessions,
	)
	return saved, nil
}

// Train asks the service to fit the model on the sessions saved so far.
func (s *Service) Train(ctx context.Context) (domain.TrainingResult, error) {
	if s.trainer == nil {
		return domain.TrainingResult{}, ErrNoTrainer
	}

	res, err := s.trainer.Train(ctx)
	if err != nil {
		s.logger.Warn("Model training failed", "error", err)
		return domain.TrainingResult{}, err
	}

	s.logger.Info("Model training finished",
		"trained", res.Trained,
		"accuracy", res.Accuracy,
		"message", res.Message,
	)
	return res, nil
}
