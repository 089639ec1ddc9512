package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mexicorn/podium/internal/domain/guess"
	qb "github.com/mexicorn/podium/internal/platform/querybuilder"
)

type guessTableModel struct {
	ID                    int64     `db:"id"`
	UserEmail             string    `db:"user_email"`
	SessionID             int64     `db:"session_id"`
	PositionOneDriverNo   int       `db:"position_1_driver_no"`
	PositionTwoDriverNo   int       `db:"position_2_driver_no"`
	PositionThreeDriverNo int       `db:"position_3_driver_no"`
	UpdatedAt             time.Time `db:"updated_at"`
}

type GuessRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewGuessRepository(db *sqlx.DB) *GuessRepository {
	return &GuessRepository{db: db, now: time.Now}
}

func (r *GuessRepository) GetByUserAndSession(ctx context.Context, userEmail string, sessionID int64) (guess.Guess, bool, error) {
	query, args, err := qb.Select("*").From("guesses").
		Where(
			qb.Eq("user_email", userEmail),
			qb.Eq("session_id", sessionID),
		).
		ToSQL()
	if err != nil {
		return guess.Guess{}, false, fmt.Errorf("build select guess query: %w", err)
	}

	var row guessTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return guess.Guess{}, false, nil
		}
		return guess.Guess{}, false, fmt.Errorf("select guess session_id=%d: %w", sessionID, err)
	}
	return mapGuessRow(row), true, nil
}

func (r *GuessRepository) ListBySession(ctx context.Context, sessionID int64) ([]guess.Guess, error) {
	query, args, err := qb.Select("*").From("guesses").
		Where(qb.Eq("session_id", sessionID)).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select session guesses query: %w", err)
	}

	var rows []guessTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select session guesses session_id=%d: %w", sessionID, err)
	}

	out := make([]guess.Guess, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapGuessRow(row))
	}
	return out, nil
}

func (r *GuessRepository) Upsert(ctx context.Context, item guess.Guess) (guess.Guess, error) {
	updatedAt := item.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = r.now().UTC()
	}

	query, args, err := qb.InsertInto("guesses").
		Columns("user_email", "session_id", "position_1_driver_no", "position_2_driver_no", "position_3_driver_no", "updated_at").
		Values(item.UserEmail, item.SessionID, item.PositionOneDriverNo, item.PositionTwoDriverNo, item.PositionThreeDriverNo, updatedAt).
		Suffix(`ON CONFLICT (user_email, session_id) DO UPDATE SET
			position_1_driver_no = EXCLUDED.position_1_driver_no,
			position_2_driver_no = EXCLUDED.position_2_driver_no,
			position_3_driver_no = EXCLUDED.position_3_driver_no,
			updated_at = EXCLUDED.updated_at
		RETURNING *`).
		ToSQL()
	if err != nil {
		return guess.Guess{}, fmt.Errorf("build upsert guess query: %w", err)
	}

	var row guessTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		return guess.Guess{}, fmt.Errorf("upsert guess session_id=%d: %w", item.SessionID, err)
	}
	return mapGuessRow(row), nil
}

func mapGuessRow(row guessTableModel) guess.Guess {
	return guess.Guess{
		ID:                    row.ID,
		UserEmail:             row.UserEmail,
		SessionID:             row.SessionID,
		PositionOneDriverNo:   row.PositionOneDriverNo,
		PositionTwoDriverNo:   row.PositionTwoDriverNo,
		PositionThreeDriverNo: row.PositionThreeDriverNo,
		UpdatedAt:             row.UpdatedAt,
	}
}
