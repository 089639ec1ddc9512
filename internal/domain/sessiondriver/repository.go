package sessiondriver

import "context"

// Repository exposes session-driver persistence operations.
type Repository interface {
	ListBySession(ctx context.Context, sessionID int64) ([]Driver, error)
	GetByNumber(ctx context.Context, sessionID int64, driverNumber int) (Driver, bool, error)
	// ListSessionIDs returns the distinct session ids that have at least one
	// driver row.
	ListSessionIDs(ctx context.Context) ([]int64, error)
	// InsertBatch inserts the given drivers in one transaction, skipping
	// (session_id, driver_number) pairs that already exist. Returns the
	// number of rows inserted.
	InsertBatch(ctx context.Context, items []Driver) (int, error)
}
