package sessiondriver

// Driver is one driver's participation record within a session. The natural
// key for lookups is (SessionID, DriverNumber); ID is storage-generated.
type Driver struct {
	ID           int64
	SessionID    int64
	DriverNumber int
	DriverName   string
	Nationality  string
	Team         string
}
