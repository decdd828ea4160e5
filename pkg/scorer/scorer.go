package scorer

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/baditaflorin/go_typing_similarity/internal/adapters/alert"
	"github.com/baditaflorin/go_typing_similarity/internal/adapters/biometric"
	"github.com/baditaflorin/go_typing_similarity/internal/adapters/logger"
	"github.com/baditaflorin/go_typing_similarity/internal/adapters/normalizer"
	"github.com/baditaflorin/go_typing_similarity/internal/core/auth"
	"github.com/baditaflorin/go_typing_similarity/internal/core/decision"
	"github.com/baditaflorin/go_typing_similarity/internal/core/domain"
	"github.com/baditaflorin/go_typing_similarity/internal/core/feedback"
	"github.com/baditaflorin/go_typing_similarity/internal/core/metric"
	"github.com/baditaflorin/go_typing_similarity/internal/core/session"
	"github.com/baditaflorin/go_typing_similarity/internal/core/training"
	"github.com/baditaflorin/go_typing_similarity/internal/ports"
	"github.com/baditaflorin/go_typing_similarity/internal/warmup"
	"github.com/baditaflorin/l"
)

// Re-exported result types.
type (
	Decision   = domain.Decision
	Outcome    = domain.Outcome
	Attempt    = domain.Attempt
	Keystroke  = domain.Keystroke
	Feedback   = domain.Feedback
	Attempts   = session.Attempts
	AuthResult = auth.Result
	Profile    = feedback.Profile

	SavedSession   = domain.SavedSession
	TrainingResult = domain.TrainingResult
)

// Outcomes.
const (
	OutcomeInsufficient = domain.OutcomeInsufficient
	OutcomeAuthentic    = domain.OutcomeAuthentic
	OutcomeRejected     = domain.OutcomeRejected
)

// Feedback profiles.
var (
	TrainingProfile       = feedback.Training
	AuthenticationProfile = feedback.Authentication
)

var (
	// ErrNoReference is returned by Authenticate and SaveSession when the prompt text is empty.
	ErrNoReference = auth.ErrNoReference
	// ErrNoKeystrokes is returned by SaveSession when no key events were recorded.
	ErrNoKeystrokes = domain.ErrNoKeystrokes
	// ErrNoTrainer is returned by SaveSession and Train without a biometric service.
	ErrNoTrainer = training.ErrNoTrainer
)

// Scorer compares typed text against a prompt and decides authentication attempts.
// It is safe for concurrent use.
type Scorer struct {
	decider       *decision.Decider
	authenticator *auth.Authenticator
	training      *training.Service
	logger        ports.Logger
	folder        ports.Normalizer
	maxAttempts   int
	warmed        atomic.Bool
}

// ScorerOption defines a functional option for configuring a Scorer.
type ScorerOption func(*scorerConfig)

type scorerConfig struct {
	Threshold      float64
	MinLengthRatio float64
	MaxAttempts    int
	Logger         ports.Logger
	Folder         ports.Normalizer
	Provider       ports.ConfidenceProvider
	BiometricURL   string
	BiometricTO    time.Duration
	Trainer        ports.ProfileTrainer
	Notifier       ports.BreachNotifier
	AlertURL       string
	AlertTO        time.Duration
	Metrics        ports.MetricsRecorder
	WarmUp         bool
	WarmUpConfig   warmup.WarmupConfig
}

// WithThreshold sets the similarity an attempt must exceed to be authentic.
func WithThreshold(th float64) ScorerOption {
	return func(cfg *scorerConfig) {
		cfg.Threshold = th
	}
}

// WithMinLengthRatio sets the share of the prompt that must be typed before deciding.
func WithMinLengthRatio(ratio float64) ScorerOption {
	return func(cfg *scorerConfig) {
		cfg.MinLengthRatio = ratio
	}
}

// WithMaxAttempts sets how many consecutive failures trip a breach.
func WithMaxAttempts(n int) ScorerOption {
	return func(cfg *scorerConfig) {
		cfg.MaxAttempts = n
	}
}

// WithLogger sets a custom logger.
func WithLogger(l l.Logger) ScorerOption {
	return func(cfg *scorerConfig) {
		cfg.Logger = logger.FromExisting(l)
	}
}

// WithPortLogger sets a logger that already satisfies the internal logging port.
func WithPortLogger(l ports.Logger) ScorerOption {
	return func(cfg *scorerConfig) {
		cfg.Logger = l
	}
}

// WithNormalizer sets the case-folding normalizer used by Decide.
func WithNormalizer(n ports.Normalizer) ScorerOption {
	return func(cfg *scorerConfig) {
		cfg.Folder = n
	}
}

// WithConfidenceProvider sets the keystroke-biometric verdict source.
func WithConfidenceProvider(p ports.ConfidenceProvider) ScorerOption {
	return func(cfg *scorerConfig) {
		cfg.Provider = p
	}
}

// WithBiometricService uses the HTTP keystroke-biometric service at baseURL.
func WithBiometricService(baseURL string, timeout time.Duration) ScorerOption {
	return func(cfg *scorerConfig) {
		cfg.BiometricURL = baseURL
		cfg.BiometricTO = timeout
	}
}

// WithProfileTrainer sets where training sessions are stored.
func WithProfileTrainer(t ports.ProfileTrainer) ScorerOption {
	return func(cfg *scorerConfig) {
		cfg.Trainer = t
	}
}

// WithBreachNotifier sets who is told when an attempt budget is exhausted.
func WithBreachNotifier(n ports.BreachNotifier) ScorerOption {
	return func(cfg *scorerConfig) {
		cfg.Notifier = n
	}
}

// WithAlertService uses the HTTP alert service at baseURL for breach alerts.
func WithAlertService(baseURL string, timeout time.Duration) ScorerOption {
	return func(cfg *scorerConfig) {
		cfg.AlertURL = baseURL
		cfg.AlertTO = timeout
	}
}

// WithMetricsRecorder sets where decisions are reported.
func WithMetricsRecorder(m ports.MetricsRecorder) ScorerOption {
	return func(cfg *scorerConfig) {
		cfg.Metrics = m
	}
}

// WithWarmUp enables system warm-up on initialization.
func WithWarmUp(enable bool) ScorerOption {
	return func(cfg *scorerConfig) {
		cfg.WarmUp = enable
	}
}

// WithWarmUpConfig sets a custom warm-up configuration.
func WithWarmUpConfig(config warmup.WarmupConfig) ScorerOption {
	return func(cfg *scorerConfig) {
		cfg.WarmUpConfig = config
		cfg.WarmUp = true
	}
}

// New creates a new Scorer.
func New(opts ...ScorerOption) (*Scorer, error) {
	defaultConfig := decision.DefaultConfig()

	config := &scorerConfig{
		Threshold:      defaultConfig.Threshold,
		MinLengthRatio: defaultConfig.MinLengthRatio,
		MaxAttempts:    session.DefaultMaxAttempts,
		BiometricTO:    biometric.DefaultTimeout,
		AlertTO:        alert.DefaultTimeout,
		WarmUpConfig:   warmup.DefaultWarmupConfig(),
	}

	for _, opt := range opts {
		opt(config)
	}

	if config.MaxAttempts <= 0 {
		return nil, session.ErrInvalidMaxAttempts
	}

	if config.Logger == nil {
		var err error
		config.Logger, err = logger.NewStdLogger()
		if err != nil {
			return nil, err
		}
	}

	if config.Folder == nil {
		config.Folder = normalizer.NewFoldNormalizer()
	}

	if config.BiometricURL != "" && (config.Provider == nil || config.Trainer == nil) {
		client, err := biometric.NewClient(config.BiometricURL, config.Logger, biometric.WithTimeout(config.BiometricTO))
		if err != nil {
			return nil, err
		}
		if config.Provider == nil {
			config.Provider = client
		}
		if config.Trainer == nil {
			config.Trainer = client
		}
	}

	if config.Notifier == nil && config.AlertURL != "" {
		notifier, err := alert.NewNotifier(config.AlertURL, config.Logger, alert.WithTimeout(config.AlertTO))
		if err != nil {
			return nil, err
		}
		config.Notifier = notifier
	}

	decider, err := decision.NewDecider(decision.DecisionConfig{
		Threshold:      config.Threshold,
		MinLengthRatio: config.MinLengthRatio,
	}, config.Logger, config.Folder)
	if err != nil {
		return nil, err
	}

	trimmer := normalizer.NewTrimNormalizer()
	s := &Scorer{
		decider: decider,
		authenticator: auth.NewAuthenticator(
			decider,
			trimmer,
			config.Provider,
			config.Metrics,
			config.Notifier,
			config.Logger,
		),
		training:    training.NewService(config.Trainer, trimmer, config.Logger),
		logger:      config.Logger,
		folder:      config.Folder,
		maxAttempts: config.MaxAttempts,
	}

	if config.WarmUp {
		s.WarmUp(context.Background(), config.WarmUpConfig)
	}

	return s, nil
}

// PositionalAccuracy is the case-sensitive share of reference positions reproduced by candidate.
func (s *Scorer) PositionalAccuracy(reference, candidate string) float64 {
	return metric.PositionalAccuracy(reference, candidate)
}

// PositionalAccuracyFold is the case-insensitive share of reference positions reproduced by candidate.
func (s *Scorer) PositionalAccuracyFold(reference, candidate string) float64 {
	return metric.PositionalAccuracyFold(reference, candidate)
}

// EditDistance returns the Levenshtein distance between a and b in runes.
func (s *Scorer) EditDistance(a, b string) int {
	return metric.EditDistance(a, b)
}

// Similarity returns the edit-distance similarity of a and b in [0, 1].
func (s *Scorer) Similarity(a, b string) float64 {
	return metric.Similarity(a, b)
}

// Decide applies the length gate and the case-insensitive similarity threshold.
func (s *Scorer) Decide(candidate, reference string) Decision {
	return s.decider.Decide(candidate, reference)
}

// Feedback computes the live typing feedback for the given workflow profile.
func (s *Scorer) Feedback(expected, typed string, elapsed time.Duration, p Profile) Feedback {
	return feedback.Evaluate(expected, typed, elapsed, p)
}

// NewAttempts returns empty attempt bookkeeping using the configured limit.
func (s *Scorer) NewAttempts() Attempts {
	return Attempts{Max: s.maxAttempts}
}

// Authenticate decides one authentication attempt, consulting the biometric
// service when configured, and returns the updated attempt bookkeeping.
func (s *Scorer) Authenticate(ctx context.Context, attempt Attempt, attempts Attempts) (AuthResult, error) {
	if attempts.Max <= 0 {
		attempts.Max = s.maxAttempts
	}
	return s.authenticator.Authenticate(ctx, attempt, attempts)
}

// SaveSession stores a completed training session with the biometric service.
func (s *Scorer) SaveSession(ctx context.Context, attempt Attempt) (SavedSession, error) {
	return s.training.Save(ctx, attempt)
}

// Train asks the biometric service to fit the model on the saved sessions.
func (s *Scorer) Train(ctx context.Context) (TrainingResult, error) {
	return s.training.Train(ctx)
}

// Threshold returns the configured similarity threshold.
func (s *Scorer) Threshold() float64 {
	return s.decider.Config().Threshold
}

// WarmUp performs system warm-up to optimize performance. Only the first
// call does any work.
func (s *Scorer) WarmUp(ctx context.Context, config warmup.WarmupConfig) {
	if !s.warmed.CompareAndSwap(false, true) {
		s.logger.Debug("System already warmed up, skipping")
		return
	}

	warmupMgr := warmup.NewManager(s.logger, config)
	warmupMgr.RegisterScorer(s)
	warmupMgr.RegisterDecider(s.decider)
	warmupMgr.RegisterNormalizer(s.folder)

	warmupMgr.WarmUp(ctx)
}
