package sessionresult

import "time"

// Result is the official top-3 outcome for one session. Position fields hold
// driver numbers scoped by SessionID, not generated driver row ids. Exactly
// one row per session; re-syncs overwrite all three fields.
type Result struct {
	SessionID             int64
	PositionOneDriverNo   int
	PositionTwoDriverNo   int
	PositionThreeDriverNo int
	UpdatedAt             time.Time
}

// Matches reports whether the given podium prediction equals the result in
// strict positional order.
func (r Result) Matches(first, second, third int) bool {
	return r.PositionOneDriverNo == first &&
		r.PositionTwoDriverNo == second &&
		r.PositionThreeDriverNo == third
}
