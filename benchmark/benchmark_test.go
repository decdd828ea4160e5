package benchmark

import (
	"context"
	"strings"
	"testing"

	"github.com/agnivade/levenshtein"
	"github.com/baditaflorin/go_typing_similarity/internal/adapters/logger"
	"github.com/baditaflorin/go_typing_similarity/internal/adapters/normalizer"
	"github.com/baditaflorin/go_typing_similarity/internal/core/metric"
	"github.com/baditaflorin/go_typing_similarity/pkg/scorer"
)

// generateText creates a text of the specified size by repeating a sample text
func generateText(size int) string {
	if size <= 0 {
		return ""
	}

	sample := "The quick brown fox jumps over the lazy dog. This sentence contains all letters of the English alphabet and is commonly used for testing text processing algorithms and systems."
	var sb strings.Builder
	sb.Grow(size + len(sample))

	for sb.Len() < size {
		sb.WriteString(sample)
		sb.WriteString(" ")
	}

	return sb.String()[:size]
}

// withTypos swaps every nth pair of adjacent bytes.
func withTypos(text string, n int) string {
	b := []byte(text)
	for i := 0; i+1 < len(b); i += n {
		b[i], b[i+1] = b[i+1], b[i]
	}
	return string(b)
}

var sizes = []struct {
	name string
	size int
}{
	{"Sentence", 45},
	{"Paragraph", 300},
	{"Page", 2000},
}

// BenchmarkEditDistance compares the pooled implementation with agnivade/levenshtein.
func BenchmarkEditDistance(b *testing.B) {
	for _, sz := range sizes {
		reference := generateText(sz.size)
		typed := withTypos(reference, 9)

		b.Run("Pooled-"+sz.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = metric.EditDistance(reference, typed)
			}
		})

		b.Run("Agnivade-"+sz.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = levenshtein.ComputeDistance(reference, typed)
			}
		})
	}
}

func BenchmarkPositionalAccuracy(b *testing.B) {
	for _, sz := range sizes {
		reference := generateText(sz.size)
		typed := withTypos(reference, 9)

		b.Run(sz.name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(reference)))
			for i := 0; i < b.N; i++ {
				_ = metric.PositionalAccuracyFold(reference, typed)
			}
		})
	}
}

// BenchmarkNormalizers compares case folding with and without the ASCII fast path.
func BenchmarkNormalizers(b *testing.B) {
	ascii := generateText(2000)
	unicode := strings.Repeat("Ünïcödé tëxt ", 150)

	fold := normalizer.NewFoldNormalizer()
	benchmarks := []struct {
		name  string
		input string
	}{
		{"Fold-ASCII", ascii},
		{"Fold-Unicode", unicode},
	}

	for _, bm := range benchmarks {
		b.Run(bm.name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(bm.input)))
			for i := 0; i < b.N; i++ {
				_ = fold.Normalize(bm.input)
			}
		})
	}
}

func BenchmarkDecide(b *testing.B) {
	reference := generateText(300)
	typed := withTypos(reference, 9)

	b.Run("Cold", func(b *testing.B) {
		s, _ := scorer.New(scorer.WithPortLogger(logger.NewNopLogger()))
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_ = s.Decide(typed, reference)
		}
	})

	b.Run("WithWarmUp", func(b *testing.B) {
		s, _ := scorer.New(scorer.WithPortLogger(logger.NewNopLogger()), scorer.WithWarmUp(true))
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_ = s.Decide(typed, reference)
		}
	})

	b.Run("Parallel", func(b *testing.B) {
		s, _ := scorer.New(scorer.WithPortLogger(logger.NewNopLogger()))
		b.ResetTimer()
		b.RunParallel(func(pb *testing.PB) {
			for pb.Next() {
				_ = s.Decide(typed, reference)
			}
		})
	})
}

func BenchmarkAuthenticate(b *testing.B) {
	reference := generateText(300)
	typed := withTypos(reference, 9)
	s, _ := scorer.New(scorer.WithPortLogger(logger.NewNopLogger()))
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = s.Authenticate(ctx, scorer.Attempt{Reference: reference, Candidate: typed}, s.NewAttempts())
	}
}

func TestGenerateText(t *testing.T) {
	for _, size := range []int{0, 1, 45, 500} {
		if got := len(generateText(size)); got != size {
			t.Errorf("generateText(%d) has length %d", size, got)
		}
	}
	if withTypos("abcd", 2) != "badc" {
		t.Errorf("withTypos(abcd, 2) = %q", withTypos("abcd", 2))
	}
}
