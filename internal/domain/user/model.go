package user

import "time"

// User is identified by email. Rows are created on first verified sign-in
// and never updated afterwards.
type User struct {
	Email     string
	Username  string
	CreatedAt time.Time
}

// Principal is the verified identity attached to an authenticated request.
type Principal struct {
	Email string
	Name  string
}
