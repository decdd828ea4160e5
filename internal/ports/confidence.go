package ports

import (
	"context"

	"github.com/baditaflorin/go_typing_similarity/internal/core/domain"
)

// ConfidenceProvider obtains an authenticity confidence from a keystroke-biometric service.
// A returned Confidence with Present=false means the service had no opinion.
type ConfidenceProvider interface {
	Authenticate(ctx context.Context, req domain.AuthRequest) (domain.Confidence, error)
}

// ProfileTrainer stores training sessions with the keystroke-biometric service
// and asks it to fit the user's model.
type ProfileTrainer interface {
	SaveSession(ctx context.Context, session domain.AuthRequest) (domain.SavedSession, error)
	Train(ctx context.Context) (domain.TrainingResult, error)
}

// BreachNotifier raises an alert when the failed-attempt limit is reached.
type BreachNotifier interface {
	NotifyBreach(ctx context.Context, alert domain.BreachAlert) error
}
