package domain

import "time"

// Outcome is the result of an authenticity decision.
type Outcome int

const (
	// OutcomeInsufficient means not enough text was typed to decide; the caller should re-prompt.
	OutcomeInsufficient Outcome = iota
	// OutcomeAuthentic means the typist was accepted.
	OutcomeAuthentic
	// OutcomeRejected means the typist was not accepted.
	OutcomeRejected
)

// String returns the lower-case name of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeInsufficient:
		return "insufficient"
	case OutcomeAuthentic:
		return "authentic"
	case OutcomeRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Source names what produced a decision score.
type Source string

const (
	SourceTextSimilarity Source = "text_similarity"
	SourceBiometric      Source = "biometric"
	SourceLengthGate     Source = "length_gate"
)

// Decision holds the outcome of an authenticity decision.
type Decision struct {
	Outcome Outcome
	// Score is the similarity or biometric confidence in [0, 1]. Zero when Outcome is insufficient.
	Score     float64
	Threshold float64
	Source    Source
	// CandidateLength and ReferenceLength are rune counts.
	CandidateLength int
	ReferenceLength int
	// RequiredLength is the minimum candidate length that clears the length gate.
	RequiredLength float64
	Details        map[string]interface{}
}

// Authentic reports whether the decision accepted the typist.
func (d Decision) Authentic() bool {
	return d.Outcome == OutcomeAuthentic
}

// Insufficient reports whether more input is needed before deciding.
func (d Decision) Insufficient() bool {
	return d.Outcome == OutcomeInsufficient
}

// Confidence is an authenticity verdict from a keystroke-biometric service.
type Confidence struct {
	Present     bool
	IsAuthentic bool
	Score       float64
	Message     string
}

// Keystroke is a single key event captured while typing.
type Keystroke struct {
	Key       string `json:"key"`
	Code      string `json:"code"`
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
	CtrlKey   bool   `json:"ctrlKey"`
	ShiftKey  bool   `json:"shiftKey"`
	AltKey    bool   `json:"altKey"`
}

// AuthRequest is the payload sent to a keystroke-biometric service. Training
// sessions are stored in the same shape.
type AuthRequest struct {
	Text        string      `json:"text"`
	Keystrokes  []Keystroke `json:"keystrokes"`
	TypingSpeed int         `json:"typing_speed"`
	Accuracy    float64     `json:"accuracy"`
	// Duration is in seconds.
	Duration float64 `json:"duration"`
}

// SavedSession acknowledges a training session stored by the biometric service.
type SavedSession struct {
	SessionID     int
	TotalSessions int
	Message       string
}

// TrainingResult reports one keystroke model training run. Trained is false
// when the service declined, typically for lack of sessions.
type TrainingResult struct {
	Trained  bool
	Accuracy float64
	Message  string
}

// BreachAlert describes a tripped failed-attempt limit.
type BreachAlert struct {
	Timestamp      time.Time `json:"timestamp"`
	FailedAttempts int       `json:"failedAttempts"`
	MaxAttempts    int       `json:"maxAttempts"`
}

// Attempt is one authentication test as submitted by a caller.
type Attempt struct {
	Reference  string
	Candidate  string
	Keystrokes []Keystroke
	Duration   time.Duration
}

// Tier buckets running accuracy for visual feedback.
type Tier string

const (
	TierGood Tier = "good"
	TierFair Tier = "fair"
	TierPoor Tier = "poor"
)

// Feedback is the live state shown while a user types.
type Feedback struct {
	// Accuracy is the running accuracy in percent over the typed text.
	Accuracy float64 `json:"accuracy"`
	Tier     Tier    `json:"tier"`
	// Progress is the typed length in percent of the expected length.
	Progress    float64 `json:"progress"`
	TypedLength int     `json:"typed_length"`
	Expected    int     `json:"expected_length"`
	// WPM is words per minute, 0 when no elapsed time was supplied.
	WPM   int  `json:"wpm"`
	Ready bool `json:"ready"`
}
