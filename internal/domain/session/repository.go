package session

import "context"

// Repository exposes session persistence operations.
type Repository interface {
	List(ctx context.Context) ([]Session, error)
	ListRecent(ctx context.Context, limit int) ([]Session, error)
	GetByID(ctx context.Context, id int64) (Session, bool, error)
	Latest(ctx context.Context) (Session, bool, error)
	// InsertBatch inserts the given sessions in one transaction, skipping
	// ids that already exist. Returns the number of rows inserted.
	InsertBatch(ctx context.Context, items []Session) (int, error)
}
