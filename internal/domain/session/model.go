package session

import (
	"strings"
	"time"
)

const (
	TypeQualifying = "Qualifying"
	TypeRace       = "Race"
	TypeSprint     = "Sprint"
)

// Session is one race-weekend event, keyed by the data provider's session
// key. Rows are immutable once inserted; a re-sync of a known key is a no-op.
type Session struct {
	ID        int64
	Name      string
	Type      string
	Country   string
	Date      time.Time
	CreatedAt time.Time
}

// Open reports whether predictions for the session are still accepted.
func (s Session) Open(now time.Time) bool {
	return s.Date.After(now)
}

func NormalizeType(value string) string {
	return strings.TrimSpace(value)
}

// DefaultGuessableTypes lists the session types persisted when no
// allow-list is configured.
func DefaultGuessableTypes() []string {
	return []string{TypeQualifying, TypeRace}
}
