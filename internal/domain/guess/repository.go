package guess

import "context"

// Repository exposes guess persistence operations.
type Repository interface {
	GetByUserAndSession(ctx context.Context, userEmail string, sessionID int64) (Guess, bool, error)
	// ListBySession returns all guesses for the session ordered by row id,
	// oldest submission first.
	ListBySession(ctx context.Context, sessionID int64) ([]Guess, error)
	// Upsert inserts the guess or overwrites the position fields of the
	// existing (user_email, session_id) row. The three fields change
	// together or not at all.
	Upsert(ctx context.Context, item Guess) (Guess, error)
}
