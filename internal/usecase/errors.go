package usecase

import "errors"

var (
	// ErrInvalidGuess marks a rejected prediction the user can act on:
	// referential mismatch, unknown session, or a session that already
	// started. Storage failures are never wrapped with it.
	ErrInvalidGuess = errors.New("invalid guess")

	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)
