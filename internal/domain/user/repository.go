package user

import "context"

// Repository exposes user persistence operations.
type Repository interface {
	GetByEmail(ctx context.Context, email string) (User, bool, error)
	// Ensure inserts the user when the email is unknown; an existing row is
	// left untouched.
	Ensure(ctx context.Context, item User) error
}
