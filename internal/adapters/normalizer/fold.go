package normalizer

import (
	"strings"

	"github.com/baditaflorin/go_typing_similarity/internal/pool"
	"github.com/baditaflorin/go_typing_similarity/internal/ports"
)

// FoldNormalizer lower-cases text for case-insensitive comparison, with a pooled
// fast path for ASCII input.
type FoldNormalizer struct {
	bytePool *pool.BufferPool
}

// NewFoldNormalizer creates a new case-folding normalizer
func NewFoldNormalizer() ports.Normalizer {
	return &FoldNormalizer{
		bytePool: pool.NewBufferPool(1024),
	}
}

// Normalize converts the input text to lower case.
func (n *FoldNormalizer) Normalize(text string) string {
	if len(text) == 0 {
		return ""
	}

	hasUpper := false
	for i := 0; i < len(text); i++ {
		b := text[i]
		if b >= 0x80 {
			return strings.ToLower(text)
		}
		if 'A' <= b && b <= 'Z' {
			hasUpper = true
		}
	}
	if !hasUpper {
		return text
	}

	buffer := n.bytePool.Get()
	defer n.bytePool.Put(buffer)

	for i := 0; i < len(text); i++ {
		b := text[i]
		if 'A' <= b && b <= 'Z' {
			b += 'a' - 'A'
		}
		*buffer = append(*buffer, b)
	}
	return string(*buffer)
}
