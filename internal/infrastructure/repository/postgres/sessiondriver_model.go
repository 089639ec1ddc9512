package postgres

type sessionDriverTableModel struct {
	ID           int64  `db:"id"`
	SessionID    int64  `db:"session_id"`
	DriverNumber int    `db:"driver_number"`
	DriverName   string `db:"driver_name"`
	Nationality  string `db:"nationality"`
	Team         string `db:"team"`
}
