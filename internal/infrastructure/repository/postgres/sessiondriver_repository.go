package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/mexicorn/podium/internal/domain/sessiondriver"
	qb "github.com/mexicorn/podium/internal/platform/querybuilder"
)

type SessionDriverRepository struct {
	db *sqlx.DB
}

func NewSessionDriverRepository(db *sqlx.DB) *SessionDriverRepository {
	return &SessionDriverRepository{db: db}
}

func (r *SessionDriverRepository) ListBySession(ctx context.Context, sessionID int64) ([]sessiondriver.Driver, error) {
	query, args, err := qb.Select("*").From("session_drivers").
		Where(qb.Eq("session_id", sessionID)).
		OrderBy("driver_number").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select session drivers query: %w", err)
	}

	var rows []sessionDriverTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select session drivers session_id=%d: %w", sessionID, err)
	}

	out := make([]sessiondriver.Driver, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapSessionDriverRow(row))
	}
	return out, nil
}

func (r *SessionDriverRepository) GetByNumber(ctx context.Context, sessionID int64, driverNumber int) (sessiondriver.Driver, bool, error) {
	query, args, err := qb.Select("*").From("session_drivers").
		Where(
			qb.Eq("session_id", sessionID),
			qb.Eq("driver_number", driverNumber),
		).
		ToSQL()
	if err != nil {
		return sessiondriver.Driver{}, false, fmt.Errorf("build select session driver query: %w", err)
	}

	var row sessionDriverTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return sessiondriver.Driver{}, false, nil
		}
		return sessiondriver.Driver{}, false, fmt.Errorf("select session driver session_id=%d number=%d: %w", sessionID, driverNumber, err)
	}
	return mapSessionDriverRow(row), true, nil
}

func (r *SessionDriverRepository) ListSessionIDs(ctx context.Context) ([]int64, error) {
	query, args, err := qb.Select("DISTINCT session_id").From("session_drivers").
		OrderBy("session_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select driver session ids query: %w", err)
	}

	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, fmt.Errorf("select driver session ids: %w", err)
	}
	return ids, nil
}

func (r *SessionDriverRepository) InsertBatch(ctx context.Context, items []sessiondriver.Driver) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin insert session drivers tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	inserted := 0
	for _, item := range items {
		query, args, err := qb.InsertInto("session_drivers").
			Columns("session_id", "driver_number", "driver_name", "nationality", "team").
			Values(item.SessionID, item.DriverNumber, item.DriverName, item.Nationality, item.Team).
			Suffix("ON CONFLICT (session_id, driver_number) DO NOTHING").
			ToSQL()
		if err != nil {
			return 0, fmt.Errorf("build insert session driver query: %w", err)
		}

		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, fmt.Errorf("insert session driver session_id=%d number=%d: %w", item.SessionID, item.DriverNumber, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("count inserted session driver rows: %w", err)
		}
		inserted += int(affected)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit insert session drivers tx: %w", err)
	}
	return inserted, nil
}

func mapSessionDriverRow(row sessionDriverTableModel) sessiondriver.Driver {
	return sessiondriver.Driver{
		ID:           row.ID,
		SessionID:    row.SessionID,
		DriverNumber: row.DriverNumber,
		DriverName:   row.DriverName,
		Nationality:  row.Nationality,
		Team:         row.Team,
	}
}
