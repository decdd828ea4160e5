// Package session holds caller-owned bookkeeping for repeated authentication attempts.
package session

import (
	"errors"

	"github.com/baditaflorin/go_typing_similarity/internal/core/domain"
)

// DefaultMaxAttempts is the number of consecutive failures that trips a breach.
const DefaultMaxAttempts = 3

// ErrInvalidMaxAttempts is returned when the attempt limit is not positive.
var ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

// Attempts tracks consecutive failed authentications for one user. It is a value:
// every method returns the next state and leaves the receiver untouched.
type Attempts struct {
	Failed         int  `json:"failed"`
	Max            int  `json:"max"`
	SecurityActive bool `json:"security_active"`
}

// New returns a fresh tracker with the given limit.
func New(limit int) (Attempts, error) {
	if limit <= 0 {
		return Attempts{}, ErrInvalidMaxAttempts
	}
	return Attempts{Max: limit}, nil
}

// Record applies an outcome. An authentic attempt clears the failure count, a
// rejected one increments it and an insufficient one leaves it alone. Breach is
// reported when security monitoring is on and the limit has been reached.
func (a Attempts) Record(outcome domain.Outcome) (next Attempts, breach bool) {
	next = a
	if next.Max <= 0 {
		next.Max = DefaultMaxAttempts
	}

	switch outcome {
	case domain.OutcomeAuthentic:
		next.Failed = 0
	case domain.OutcomeRejected:
		next.Failed++
		breach = next.SecurityActive && next.Failed >= next.Max
	}
	return next, breach
}

// SetSecurity turns monitoring on or off. Either way the failure count restarts.
func (a Attempts) SetSecurity(active bool) Attempts {
	a.SecurityActive = active
	a.Failed = 0
	return a
}

// Remaining is the number of rejections left before a breach.
func (a Attempts) Remaining() int {
	limit := a.Max
	if limit <= 0 {
		limit = DefaultMaxAttempts
	}
	if r := limit - a.Failed; r > 0 {
		return r
	}
	return 0
}
