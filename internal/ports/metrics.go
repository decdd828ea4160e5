package ports

import (
	"time"

	"github.com/baditaflorin/go_typing_similarity/internal/core/domain"
)

// MetricsRecorder receives observations from the scoring and serving paths.
type MetricsRecorder interface {
	ObserveDecision(d domain.Decision)
	ObserveBreach()
	ObserveRequest(path string, status int, duration time.Duration)
}
