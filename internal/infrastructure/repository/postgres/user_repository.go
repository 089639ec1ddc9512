package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mexicorn/podium/internal/domain/user"
	qb "github.com/mexicorn/podium/internal/platform/querybuilder"
)

type userTableModel struct {
	Email     string    `db:"email"`
	Username  string    `db:"username"`
	CreatedAt time.Time `db:"created_at"`
}

type UserRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db, now: time.Now}
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (user.User, bool, error) {
	query, args, err := qb.Select("*").From("users").
		Where(qb.Eq("email", email)).
		ToSQL()
	if err != nil {
		return user.User{}, false, fmt.Errorf("build select user query: %w", err)
	}

	var row userTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return user.User{}, false, nil
		}
		return user.User{}, false, fmt.Errorf("select user email=%s: %w", email, err)
	}

	return user.User{
		Email:     row.Email,
		Username:  row.Username,
		CreatedAt: row.CreatedAt,
	}, true, nil
}

func (r *UserRepository) Ensure(ctx context.Context, item user.User) error {
	createdAt := item.CreatedAt
	if createdAt.IsZero() {
		createdAt = r.now().UTC()
	}

	query, args, err := qb.InsertInto("users").
		Columns("email", "username", "created_at").
		Values(item.Email, item.Username, createdAt).
		Suffix("ON CONFLICT (email) DO NOTHING").
		ToSQL()
	if err != nil {
		return fmt.Errorf("build insert user query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert user email=%s: %w", item.Email, err)
	}
	return nil
}
