package ports

import (
	"github.com/baditaflorin/go_typing_similarity/internal/core/domain"
)

// SimilarityScorer defines the text comparison operations over Unicode code points.
type SimilarityScorer interface {
	// PositionalAccuracy compares runes at identical indices, case-sensitively.
	PositionalAccuracy(reference, candidate string) float64
	// PositionalAccuracyFold compares runes at identical indices, ignoring case.
	PositionalAccuracyFold(reference, candidate string) float64
	EditDistance(a, b string) int
	Similarity(a, b string) float64
}

// Decider turns a candidate/reference pair into an authenticity decision.
type Decider interface {
	Decide(candidate, reference string) domain.Decision
}
