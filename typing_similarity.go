// Package typingsimilarity scores typed text against a prompt.
//
// EditDistance and Similarity compare two texts with the Levenshtein distance
// over Unicode code points:
//
//	similarity = (len(longer) - distance) / len(longer)
//
// PositionalAccuracy counts the positions of the reference reproduced at the
// same index by the candidate. Decide turns a typed attempt into an
// authenticity decision: the candidate must first reach 60% of the reference
// length, and then its case-insensitive similarity must exceed 0.6.
//
// The package-level functions use the default configuration and discard logs.
// Use pkg/scorer for custom thresholds, logging, a biometric service or
// attempt bookkeeping.
package typingsimilarity

import (
	"sync"

	"github.com/baditaflorin/go_typing_similarity/internal/adapters/logger"
	"github.com/baditaflorin/go_typing_similarity/internal/adapters/normalizer"
	"github.com/baditaflorin/go_typing_similarity/internal/core/decision"
	"github.com/baditaflorin/go_typing_similarity/internal/core/domain"
	"github.com/baditaflorin/go_typing_similarity/internal/core/metric"
)

// Decision is the outcome of Decide.
type Decision = domain.Decision

// Default configuration values.
const (
	DefaultThreshold      = 0.6
	DefaultMinLengthRatio = 0.6
)

var (
	defaultDecider     *decision.Decider
	defaultDeciderOnce sync.Once
)

func getDecider() *decision.Decider {
	defaultDeciderOnce.Do(func() {
		d, err := decision.NewDecider(decision.DecisionConfig{
			Threshold:      DefaultThreshold,
			MinLengthRatio: DefaultMinLengthRatio,
		}, logger.NewNopLogger(), normalizer.NewFoldNormalizer())
		if err != nil {
			panic(err)
		}
		defaultDecider = d
	})
	return defaultDecider
}

// EditDistance returns the Levenshtein distance between a and b.
func EditDistance(a, b string) int {
	return metric.EditDistance(a, b)
}

// Similarity returns the edit-distance similarity of a and b in [0, 1].
// Two empty strings are identical.
func Similarity(a, b string) float64 {
	return metric.Similarity(a, b)
}

// PositionalAccuracy is the case-sensitive share of reference positions
// reproduced by candidate. An empty reference scores 0.
func PositionalAccuracy(reference, candidate string) float64 {
	return metric.PositionalAccuracy(reference, candidate)
}

// PositionalAccuracyFold is PositionalAccuracy ignoring case.
func PositionalAccuracyFold(reference, candidate string) float64 {
	return metric.PositionalAccuracyFold(reference, candidate)
}

// Decide applies the default length gate and similarity threshold.
func Decide(candidate, reference string) Decision {
	return getDecider().Decide(candidate, reference)
}
