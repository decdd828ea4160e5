package normalizer

import (
	"strings"

	"github.com/baditaflorin/go_typing_similarity/internal/ports"
)

// TrimNormalizer removes leading and trailing whitespace from typed input.
type TrimNormalizer struct{}

// NewTrimNormalizer creates a new trimming normalizer.
func NewTrimNormalizer() ports.Normalizer {
	return &TrimNormalizer{}
}

// Normalize trims surrounding whitespace and leaves everything else as typed.
func (n *TrimNormalizer) Normalize(text string) string {
	return strings.TrimSpace(text)
}

// IdentityNormalizer returns text unchanged.
type IdentityNormalizer struct{}

// NewIdentityNormalizer creates a normalizer that keeps input verbatim.
func NewIdentityNormalizer() ports.Normalizer {
	return &IdentityNormalizer{}
}

// Normalize returns text unchanged.
func (n *IdentityNormalizer) Normalize(text string) string {
	return text
}
