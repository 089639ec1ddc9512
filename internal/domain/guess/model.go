package guess

import "time"

// Guess is one user's podium prediction for one session. At most one row
// exists per (UserEmail, SessionID); resubmissions overwrite the three
// position fields in place.
type Guess struct {
	ID                    int64
	UserEmail             string
	SessionID             int64
	PositionOneDriverNo   int
	PositionTwoDriverNo   int
	PositionThreeDriverNo int
	UpdatedAt             time.Time
}
