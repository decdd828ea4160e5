package domain

import "errors"

var (
	// ErrNoReference is returned when there is no prompt text to compare against.
	ErrNoReference = errors.New("no reference text to compare against")
	// ErrNoKeystrokes is returned when a training session carries no key events.
	ErrNoKeystrokes = errors.New("no keystrokes recorded")
)
