// Package feedback computes the live state shown to a user while they type a prompt.
package feedback

import (
	"math"
	"strings"
	"time"

	"github.com/baditaflorin/go_typing_similarity/internal/core/domain"
	"github.com/baditaflorin/go_typing_similarity/internal/core/metric"
)

// Profile holds the feedback rules of one typing workflow.
type Profile struct {
	Name string
	// Fold compares runes case-insensitively.
	Fold bool
	// EmptyAccuracy is reported before anything has been typed.
	EmptyAccuracy float64
	// GoodAt and FairAt are the accuracy percentages at which the tiers start.
	GoodAt float64
	FairAt float64
	// ReadyLengthRatio and ReadyAccuracy gate the "ready to submit" hint. A zero
	// ReadyLengthRatio disables it.
	ReadyLengthRatio float64
	ReadyAccuracy    float64
}

// Training is the enrollment workflow profile: strict case and tighter tiers.
var Training = Profile{
	Name:          "training",
	Fold:          false,
	EmptyAccuracy: 0,
	GoodAt:        90,
	FairAt:        70,
}

// Authentication is the authentication-test profile: case-insensitive and more lenient.
var Authentication = Profile{
	Name:             "authentication",
	Fold:             true,
	EmptyAccuracy:    100,
	GoodAt:           85,
	FairAt:           65,
	ReadyLengthRatio: 0.8,
	ReadyAccuracy:    70,
}

// ProfileByName returns the named profile.
func ProfileByName(name string) (Profile, bool) {
	switch strings.ToLower(name) {
	case Training.Name:
		return Training, true
	case Authentication.Name, "auth":
		return Authentication, true
	default:
		return Profile{}, false
	}
}

// RunningAccuracy is the percentage of typed runes matching the expected text at
// the same index. Unlike metric.PositionalAccuracy it is relative to what was typed
// so far, which is what a user sees mid-sentence.
func RunningAccuracy(expected, typed string, p Profile) float64 {
	matches, _, typedLen := metric.AlignedMatches(expected, typed, p.Fold)
	if typedLen == 0 {
		return p.EmptyAccuracy
	}
	return float64(matches) / float64(typedLen) * 100
}

// TierFor buckets an accuracy percentage.
func (p Profile) TierFor(accuracy float64) domain.Tier {
	switch {
	case accuracy >= p.GoodAt:
		return domain.TierGood
	case accuracy >= p.FairAt:
		return domain.TierFair
	default:
		return domain.TierPoor
	}
}

// TypingSpeed returns words per minute for text typed over elapsed. Words are
// space-separated fields, counting empty ones.
func TypingSpeed(text string, elapsed time.Duration) int {
	if elapsed <= 0 {
		return 0
	}
	words := len(strings.Split(text, " "))
	return int(math.Round(float64(words) / elapsed.Minutes()))
}

// Evaluate computes the live feedback for typed against expected.
func Evaluate(expected, typed string, elapsed time.Duration, p Profile) domain.Feedback {
	matches, expLen, typedLen := metric.AlignedMatches(expected, typed, p.Fold)

	accuracy := p.EmptyAccuracy
	if typedLen > 0 {
		accuracy = float64(matches) / float64(typedLen) * 100
	}

	var progress float64
	if expLen > 0 {
		progress = float64(typedLen) / float64(expLen) * 100
	}

	ready := p.ReadyLengthRatio > 0 &&
		float64(typedLen) >= float64(expLen)*p.ReadyLengthRatio &&
		accuracy >= p.ReadyAccuracy

	return domain.Feedback{
		Accuracy:    accuracy,
		Tier:        p.TierFor(accuracy),
		Progress:    progress,
		TypedLength: typedLen,
		Expected:    expLen,
		WPM:         TypingSpeed(typed, elapsed),
		Ready:       ready,
	}
}
