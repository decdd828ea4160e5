// Package decision turns a typed attempt into an authenticity decision.
package decision

import (
	"errors"
	"unicode/utf8"

	"github.com/baditaflorin/go_typing_similarity/internal/core/domain"
	"github.com/baditaflorin/go_typing_similarity/internal/core/metric"
	"github.com/baditaflorin/go_typing_similarity/internal/ports"
)

var (
	// ErrInvalidThreshold is returned when the similarity threshold is outside [0, 1].
	ErrInvalidThreshold = errors.New("threshold must be between 0 and 1")
	// ErrInvalidMinLengthRatio is returned when the length gate ratio is outside [0, 1].
	ErrInvalidMinLengthRatio = errors.New("minLengthRatio must be between 0 and 1")
)

// DecisionConfig holds configuration for the authenticity decider.
type DecisionConfig struct {
	// Threshold is the similarity a candidate must strictly exceed to be authentic.
	Threshold float64
	// MinLengthRatio is the share of the reference length a candidate must reach before scoring.
	MinLengthRatio float64
}

// DefaultConfig returns a default configuration.
func DefaultConfig() DecisionConfig {
	return DecisionConfig{
		Threshold:      0.6,
		MinLengthRatio: 0.6,
	}
}

// Validate checks if the configuration is valid.
func (c DecisionConfig) Validate() error {
	if c.Threshold < 0 || c.Threshold > 1 {
		return ErrInvalidThreshold
	}
	if c.MinLengthRatio < 0 || c.MinLengthRatio > 1 {
		return ErrInvalidMinLengthRatio
	}
	return nil
}

// Decider implements the text-similarity authenticity decision.
type Decider struct {
	config DecisionConfig
	logger ports.Logger
	folder ports.Normalizer
}

// NewDecider creates a new decider. folder must lower-case its input; it is
// applied to both texts before scoring.
func NewDecider(config DecisionConfig, logger ports.Logger, folder ports.Normalizer) (*Decider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Decider{
		config: config,
		logger: logger,
		folder: folder,
	}, nil
}

// Config returns the decider configuration.
func (d *Decider) Config() DecisionConfig {
	return d.config
}

// RequiredLength returns the minimum candidate rune count for a reference of refLen runes.
func (d *Decider) RequiredLength(refLen int) float64 {
	return d.config.MinLengthRatio * float64(refLen)
}

// Decide gates on candidate length and then compares case-insensitively.
// A candidate shorter than MinLengthRatio of the reference yields an
// insufficient decision, which asks for more input rather than rejecting.
func (d *Decider) Decide(candidate, reference string) domain.Decision {
	candLen := utf8.RuneCountInString(candidate)
	refLen := utf8.RuneCountInString(reference)
	required := d.RequiredLength(refLen)

	d.logger.Debug("Starting authenticity decision",
		"candidate_length", candLen,
		"reference_length", refLen,
		"required_length", required,
	)

	details := make(map[string]interface{})
	details["candidate_length"] = candLen
	details["reference_length"] = refLen
	details["required_length"] = required

	if float64(candLen) < required {
		d.logger.Debug("Candidate below length gate", "missing", required-float64(candLen))
		return domain.Decision{
			Outcome:         domain.OutcomeInsufficient,
			Threshold:       d.config.Threshold,
			Source:          domain.SourceLengthGate,
			CandidateLength: candLen,
			ReferenceLength: refLen,
			RequiredLength:  required,
			Details:         details,
		}
	}

	similarity := metric.Similarity(d.folder.Normalize(candidate), d.folder.Normalize(reference))
	outcome := domain.OutcomeRejected
	if similarity > d.config.Threshold {
		outcome = domain.OutcomeAuthentic
	}

	details["similarity"] = similarity
	details["threshold"] = d.config.Threshold

	d.logger.Debug("Computed authenticity decision",
		"similarity", similarity,
		"outcome", outcome.String(),
	)

	return domain.Decision{
		Outcome:         outcome,
		Score:           similarity,
		Threshold:       d.config.Threshold,
		Source:          domain.SourceTextSimilarity,
		CandidateLength: candLen,
		ReferenceLength: refLen,
		RequiredLength:  required,
		Details:         details,
	}
}
