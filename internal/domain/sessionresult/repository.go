package sessionresult

import "context"

// Repository exposes session-result persistence operations.
type Repository interface {
	GetBySession(ctx context.Context, sessionID int64) (Result, bool, error)
	// ListSessionIDs returns the distinct session ids that already have a
	// result row.
	ListSessionIDs(ctx context.Context) ([]int64, error)
	// Upsert inserts the result or overwrites all three position fields of
	// an existing row.
	Upsert(ctx context.Context, item Result) error
}
