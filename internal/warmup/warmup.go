package warmup

import (
	"context"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/baditaflorin/go_typing_similarity/internal/ports"
)

// WarmupConfig defines configuration for warming up the system
type WarmupConfig struct {
	// Number of concurrent warmup routines to run
	Concurrency int
	// Number of iterations per routine
	Iterations int
	// Sample text size for warmup, in bytes
	SampleTextSize int
	// Warmup duration (0 means no time limit)
	Duration time.Duration
	// Whether to perform GC after warmup
	ForceGC bool
}

// DefaultWarmupConfig returns the default warmup configuration. Samples are
// sentence sized since the edit distance table grows with the square of the input.
func DefaultWarmupConfig() WarmupConfig {
	return WarmupConfig{
		Concurrency:    runtime.NumCPU(),
		Iterations:     500,
		SampleTextSize: 120,
		Duration:       2 * time.Second,
		ForceGC:        true,
	}
}

// Manager handles system warmup operations
type Manager struct {
	logger      ports.Logger
	scorers     []ports.SimilarityScorer
	deciders    []ports.Decider
	normalizers []ports.Normalizer
	config      WarmupConfig
}

// NewManager creates a new warmup manager
func NewManager(logger ports.Logger, config WarmupConfig) *Manager {
	if config.Concurrency <= 0 {
		config.Concurrency = 1
	}
	return &Manager{
		logger: logger,
		config: config,
	}
}

// RegisterScorer adds a scorer to be warmed up
func (wm *Manager) RegisterScorer(s ports.SimilarityScorer) {
	wm.scorers = append(wm.scorers, s)
}

// RegisterDecider adds a decider to be warmed up
func (wm *Manager) RegisterDecider(d ports.Decider) {
	wm.deciders = append(wm.deciders, d)
}

// RegisterNormalizer adds a normalizer to be warmed up
func (wm *Manager) RegisterNormalizer(norm ports.Normalizer) {
	wm.normalizers = append(wm.normalizers, norm)
}

// WarmUp runs the warmup process for all registered components and returns the
// number of iterations completed across all routines.
func (wm *Manager) WarmUp(ctx context.Context) int64 {
	startTime := time.Now()
	wm.logger.Info("Starting system warmup",
		"components", len(wm.scorers)+len(wm.deciders)+len(wm.normalizers),
		"concurrency", wm.config.Concurrency,
		"iterations", wm.config.Iterations,
	)

	var warmupCtx context.Context
	var cancel context.CancelFunc
	if wm.config.Duration > 0 {
		warmupCtx, cancel = context.WithTimeout(ctx, wm.config.Duration)
		defer cancel()
	} else {
		warmupCtx = ctx
	}

	original := generateSampleText(wm.config.SampleTextSize)
	similar := generateSimilarText(original, 0.1)   // 10% difference
	different := generateSimilarText(original, 0.5) // 50% difference
	partial := original[:len(original)/2]

	var (
		mu    sync.Mutex
		total int64
		wg    sync.WaitGroup
	)
	for i := 0; i < wm.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			var done int64
			for j := 0; j < wm.config.Iterations; j++ {
				select {
				case <-warmupCtx.Done():
					mu.Lock()
					total += done
					mu.Unlock()
					return
				default:
				}

				candidate := original
				switch j % 3 {
				case 1:
					candidate = similar
				case 2:
					candidate = different
				}

				for _, n := range wm.normalizers {
					_ = n.Normalize(candidate)
				}
				for _, s := range wm.scorers {
					_ = s.PositionalAccuracy(original, candidate)
					_ = s.PositionalAccuracyFold(original, candidate)
					_ = s.Similarity(candidate, original)
				}
				for _, d := range wm.deciders {
					_ = d.Decide(candidate, original)
					_ = d.Decide(partial, original)
				}
				done++
			}

			mu.Lock()
			total += done
			mu.Unlock()
		}()
	}
	wg.Wait()

	if wm.config.ForceGC {
		wm.logger.Debug("Forcing garbage collection after warmup")
		runtime.GC()
	}

	wm.logger.Info("System warmup completed",
		"duration", time.Since(startTime),
		"iterations", total,
	)
	return total
}

// generateSampleText creates sample text of roughly the specified size
func generateSampleText(size int) string {
	words := []string{
		"the", "quick", "brown", "fox", "jumps", "over", "lazy", "dog",
		"security", "is", "not", "a", "product", "but", "process",
		"pack", "my", "box", "with", "five", "dozen", "liquor", "jugs",
	}

	var sb strings.Builder
	wordsNeeded := size/5 + 1 // Assuming average word length of 5

	for i := 0; i < wordsNeeded; i++ {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(words[i%len(words)])
	}

	result := sb.String()
	if len(result) > size {
		return result[:size]
	}
	return result
}

// generateSimilarText replaces the first diffRatio share of words in original
func generateSimilarText(original string, diffRatio float64) string {
	words := strings.Fields(original)
	changeCount := int(float64(len(words)) * diffRatio)

	replacements := []string{
		"replaced", "modified", "changed", "altered", "updated",
	}

	newWords := make([]string, len(words))
	copy(newWords, words)
	for i := 0; i < changeCount && i < len(newWords); i++ {
		newWords[i] = replacements[i%len(replacements)]
	}

	return strings.Join(newWords, " ")
}
