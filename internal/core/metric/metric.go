// Package metric implements the character-level text comparison functions.
// All lengths and indices are in Unicode code points, not bytes.
package metric

import (
	"unicode"
	"unicode/utf8"

	"github.com/baditaflorin/go_typing_similarity/internal/pool"
)

// maxPooledTable caps the edit-distance tables kept for reuse, about two
// 1000-rune texts.
const maxPooledTable = 1 << 20

var (
	runePool = pool.NewRuneBufferPool(256)
	intPool  = pool.NewIntBufferPool(4096, maxPooledTable)
)

// AlignedMatches counts the index positions, up to the shorter of the two texts,
// where reference and candidate hold the same rune. When fold is set runes are
// compared case-insensitively. It also returns both rune lengths.
func AlignedMatches(reference, candidate string, fold bool) (matches, refLen, candLen int) {
	rb := runePool.Get()
	defer runePool.Put(rb)
	cb := runePool.Get()
	defer runePool.Put(cb)

	ref := runePool.AppendRunes(rb, reference)
	cand := runePool.AppendRunes(cb, candidate)

	n := min(len(ref), len(cand))
	for i := 0; i < n; i++ {
		r, c := ref[i], cand[i]
		if fold {
			r, c = unicode.ToLower(r), unicode.ToLower(c)
		}
		if r == c {
			matches++
		}
	}
	return matches, len(ref), len(cand)
}

// PositionalAccuracy is the case-sensitive fraction of reference positions the
// candidate reproduces. An empty reference scores 0.
func PositionalAccuracy(reference, candidate string) float64 {
	return positionalAccuracy(reference, candidate, false)
}

// PositionalAccuracyFold is PositionalAccuracy with case-insensitive rune comparison.
func PositionalAccuracyFold(reference, candidate string) float64 {
	return positionalAccuracy(reference, candidate, true)
}

func positionalAccuracy(reference, candidate string, fold bool) float64 {
	matches, refLen, _ := AlignedMatches(reference, candidate, fold)
	if refLen == 0 {
		return 0
	}
	return float64(matches) / float64(refLen)
}

// EditDistance returns the Levenshtein distance between a and b.
//
// The full table has len(b)+1 rows and len(a)+1 columns; table[i][j] is the
// cost of turning the first j runes of a into the first i runes of b.
func EditDistance(a, b string) int {
	ab := runePool.Get()
	defer runePool.Put(ab)
	bb := runePool.Get()
	defer runePool.Put(bb)

	ra := runePool.AppendRunes(ab, a)
	rb := runePool.AppendRunes(bb, b)

	rows, cols := len(rb)+1, len(ra)+1
	buf := intPool.Get(rows * cols)
	defer intPool.Put(buf)
	table := *buf

	for j := 0; j < cols; j++ {
		table[j] = j
	}
	for i := 1; i < rows; i++ {
		table[i*cols] = i
	}

	for i := 1; i < rows; i++ {
		row, prev := i*cols, (i-1)*cols
		for j := 1; j < cols; j++ {
			if rb[i-1] == ra[j-1] {
				table[row+j] = table[prev+j-1]
				continue
			}
			table[row+j] = 1 + min(
				table[prev+j-1], // substitution
				table[row+j-1],  // insertion
				table[prev+j],   // deletion
			)
		}
	}

	return table[len(rb)*cols+len(ra)]
}

// Similarity scores a and b in [0, 1] as the share of the longer text that
// survives the edit distance. Two empty strings are identical.
func Similarity(a, b string) float64 {
	longer, shorter := a, b
	longerLen, shorterLen := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	if shorterLen > longerLen {
		longer, shorter = b, a
		longerLen = shorterLen
	}
	if longerLen == 0 {
		return 1.0
	}
	distance := EditDistance(longer, shorter)
	return float64(longerLen-distance) / float64(longerLen)
}
