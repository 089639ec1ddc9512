package postgres

import "time"

type sessionTableModel struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	Type      string    `db:"type"`
	Country   string    `db:"country"`
	Date      time.Time `db:"date"`
	CreatedAt time.Time `db:"created_at"`
}
