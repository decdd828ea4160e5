package decision

import (
	"strings"
	"testing"

	"github.com/baditaflorin/go_typing_similarity/internal/adapters/logger"
	"github.com/baditaflorin/go_typing_similarity/internal/adapters/normalizer"
	"github.com/baditaflorin/go_typing_similarity/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDecider(t *testing.T) *Decider {
	t.Helper()
	d, err := NewDecider(DefaultConfig(), logger.NewNopLogger(), normalizer.NewFoldNormalizer())
	require.NoError(t, err)
	return d
}

func TestDecide(t *testing.T) {
	reference := "The quick brown fox jumps over the lazy dog."

	tests := []struct {
		name      string
		candidate string
		reference string
		want      domain.Outcome
	}{
		{
			name:      "exact match",
			candidate: reference,
			reference: reference,
			want:      domain.OutcomeAuthentic,
		},
		{
			name:      "case ignored",
			candidate: strings.ToUpper(reference),
			reference: reference,
			want:      domain.OutcomeAuthentic,
		},
		{
			name:      "a few typos",
			candidate: "The quikc brown fox jumsp over teh lazy dog.",
			reference: reference,
			want:      domain.OutcomeAuthentic,
		},
		{
			name:      "half typed",
			candidate: strings.Repeat("a", 10),
			reference: strings.Repeat("a", 20),
			want:      domain.OutcomeInsufficient,
		},
		{
			name:      "exactly at the gate",
			candidate: strings.Repeat("a", 12),
			reference: strings.Repeat("a", 20),
			want:      domain.OutcomeRejected,
		},
		{
			name:      "unrelated text",
			candidate: "Pack my box with five dozen liquor jugs now!",
			reference: reference,
			want:      domain.OutcomeRejected,
		},
		{
			name:      "both empty",
			candidate: "",
			reference: "",
			want:      domain.OutcomeAuthentic,
		},
	}

	d := newTestDecider(t)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := d.Decide(tc.candidate, tc.reference)
			assert.Equal(t, tc.want, got.Outcome, "details: %v", got.Details)
		})
	}
}

func TestDecideInsufficientCarriesLengths(t *testing.T) {
	d := newTestDecider(t)

	got := d.Decide("0123456789", "01234567890123456789")

	assert.True(t, got.Insufficient())
	assert.False(t, got.Authentic())
	assert.Equal(t, domain.SourceLengthGate, got.Source)
	assert.Equal(t, 10, got.CandidateLength)
	assert.Equal(t, 20, got.ReferenceLength)
	assert.InDelta(t, 12.0, got.RequiredLength, 1e-9)
	assert.Zero(t, got.Score)
}

func TestDecideThresholdIsStrict(t *testing.T) {
	d, err := NewDecider(DecisionConfig{Threshold: 0.8, MinLengthRatio: 0}, logger.NewNopLogger(), normalizer.NewFoldNormalizer())
	require.NoError(t, err)

	// Similarity of "abcd" / "abcx" is exactly 0.75.
	got := d.Decide("abcx", "abcd")
	assert.Equal(t, domain.OutcomeRejected, got.Outcome)
	assert.InDelta(t, 0.75, got.Score, 1e-9)

	d, err = NewDecider(DecisionConfig{Threshold: 0.75, MinLengthRatio: 0}, logger.NewNopLogger(), normalizer.NewFoldNormalizer())
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeRejected, d.Decide("abcx", "abcd").Outcome)
}

func TestDecisionConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		config DecisionConfig
		want   error
	}{
		{name: "default", config: DefaultConfig()},
		{name: "threshold too high", config: DecisionConfig{Threshold: 1.5, MinLengthRatio: 0.6}, want: ErrInvalidThreshold},
		{name: "threshold negative", config: DecisionConfig{Threshold: -0.1, MinLengthRatio: 0.6}, want: ErrInvalidThreshold},
		{name: "ratio too high", config: DecisionConfig{Threshold: 0.6, MinLengthRatio: 2}, want: ErrInvalidMinLengthRatio},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.config.Validate()
			if tc.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.want)

			_, err = NewDecider(tc.config, logger.NewNopLogger(), normalizer.NewFoldNormalizer())
			assert.ErrorIs(t, err, tc.want)
		})
	}
}
