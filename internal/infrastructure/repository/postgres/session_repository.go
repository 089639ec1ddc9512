package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mexicorn/podium/internal/domain/session"
	qb "github.com/mexicorn/podium/internal/platform/querybuilder"
)

type SessionRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db, now: time.Now}
}

func (r *SessionRepository) List(ctx context.Context) ([]session.Session, error) {
	query, args, err := qb.Select("*").From("sessions").OrderBy("id").ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select sessions query: %w", err)
	}

	var rows []sessionTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select sessions: %w", err)
	}
	return mapSessionRows(rows), nil
}

func (r *SessionRepository) ListRecent(ctx context.Context, limit int) ([]session.Session, error) {
	query, args, err := qb.Select("*").From("sessions").
		OrderBy("date DESC", "id DESC").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select recent sessions query: %w", err)
	}

	var rows []sessionTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select recent sessions: %w", err)
	}
	return mapSessionRows(rows), nil
}

func (r *SessionRepository) GetByID(ctx context.Context, id int64) (session.Session, bool, error) {
	query, args, err := qb.Select("*").From("sessions").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return session.Session{}, false, fmt.Errorf("build select session query: %w", err)
	}

	var row sessionTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return session.Session{}, false, nil
		}
		return session.Session{}, false, fmt.Errorf("select session id=%d: %w", id, err)
	}
	return mapSessionRow(row), true, nil
}

func (r *SessionRepository) Latest(ctx context.Context) (session.Session, bool, error) {
	query, args, err := qb.Select("*").From("sessions").
		OrderBy("date DESC", "id DESC").
		Limit(1).
		ToSQL()
	if err != nil {
		return session.Session{}, false, fmt.Errorf("build select latest session query: %w", err)
	}

	var row sessionTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return session.Session{}, false, nil
		}
		return session.Session{}, false, fmt.Errorf("select latest session: %w", err)
	}
	return mapSessionRow(row), true, nil
}

func (r *SessionRepository) InsertBatch(ctx context.Context, items []session.Session) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin insert sessions tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	inserted := 0
	for _, item := range items {
		createdAt := item.CreatedAt
		if createdAt.IsZero() {
			createdAt = r.now().UTC()
		}

		query, args, err := qb.InsertInto("sessions").
			Columns("id", "name", "type", "country", "date", "created_at").
			Values(item.ID, item.Name, item.Type, item.Country, item.Date, createdAt).
			Suffix("ON CONFLICT (id) DO NOTHING").
			ToSQL()
		if err != nil {
			return 0, fmt.Errorf("build insert session query: %w", err)
		}

		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, fmt.Errorf("insert session id=%d: %w", item.ID, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("count inserted session rows: %w", err)
		}
		inserted += int(affected)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit insert sessions tx: %w", err)
	}
	return inserted, nil
}

func mapSessionRows(rows []sessionTableModel) []session.Session {
	out := make([]session.Session, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapSessionRow(row))
	}
	return out
}

func mapSessionRow(row sessionTableModel) session.Session {
	return session.Session{
		ID:        row.ID,
		Name:      row.Name,
		Type:      row.Type,
		Country:   row.Country,
		Date:      row.Date,
		CreatedAt: row.CreatedAt,
	}
}
