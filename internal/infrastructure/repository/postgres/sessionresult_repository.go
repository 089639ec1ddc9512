package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mexicorn/podium/internal/domain/sessionresult"
	qb "github.com/mexicorn/podium/internal/platform/querybuilder"
)

type sessionResultTableModel struct {
	SessionID             int64     `db:"session_id"`
	PositionOneDriverNo   int       `db:"position_1_driver_no"`
	PositionTwoDriverNo   int       `db:"position_2_driver_no"`
	PositionThreeDriverNo int       `db:"position_3_driver_no"`
	UpdatedAt             time.Time `db:"updated_at"`
}

type SessionResultRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewSessionResultRepository(db *sqlx.DB) *SessionResultRepository {
	return &SessionResultRepository{db: db, now: time.Now}
}

func (r *SessionResultRepository) GetBySession(ctx context.Context, sessionID int64) (sessionresult.Result, bool, error) {
	query, args, err := qb.Select("*").From("session_results").
		Where(qb.Eq("session_id", sessionID)).
		ToSQL()
	if err != nil {
		return sessionresult.Result{}, false, fmt.Errorf("build select session result query: %w", err)
	}

	var row sessionResultTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return sessionresult.Result{}, false, nil
		}
		return sessionresult.Result{}, false, fmt.Errorf("select session result session_id=%d: %w", sessionID, err)
	}

	return sessionresult.Result{
		SessionID:             row.SessionID,
		PositionOneDriverNo:   row.PositionOneDriverNo,
		PositionTwoDriverNo:   row.PositionTwoDriverNo,
		PositionThreeDriverNo: row.PositionThreeDriverNo,
		UpdatedAt:             row.UpdatedAt,
	}, true, nil
}

func (r *SessionResultRepository) ListSessionIDs(ctx context.Context) ([]int64, error) {
	query, args, err := qb.Select("session_id").From("session_results").
		OrderBy("session_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select result session ids query: %w", err)
	}

	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, fmt.Errorf("select result session ids: %w", err)
	}
	return ids, nil
}

func (r *SessionResultRepository) Upsert(ctx context.Context, item sessionresult.Result) error {
	updatedAt := item.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = r.now().UTC()
	}

	query, args, err := qb.InsertInto("session_results").
		Columns("session_id", "position_1_driver_no", "position_2_driver_no", "position_3_driver_no", "updated_at").
		Values(item.SessionID, item.PositionOneDriverNo, item.PositionTwoDriverNo, item.PositionThreeDriverNo, updatedAt).
		Suffix(`ON CONFLICT (session_id) DO UPDATE SET
			position_1_driver_no = EXCLUDED.position_1_driver_no,
			position_2_driver_no = EXCLUDED.position_2_driver_no,
			position_3_driver_no = EXCLUDED.position_3_driver_no,
			updated_at = EXCLUDED.updated_at`).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build upsert session result query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert session result session_id=%d: %w", item.SessionID, err)
	}
	return nil
}
