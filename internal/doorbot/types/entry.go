package types

// EntryLogEntry is one audit row joined with its member and location for
// display. Linked fields that no longer resolve are empty strings.
type EntryLogEntry struct {
	ID          int64
	FullName    string
	RFID        string
	Location    string
	EntryTime   string // ISO-8601, UTC, assigned by the store
	IsActiveTag bool
	IsFoundTag  bool
}

// Location is a named access point.
type Location struct {
	ID   int64
	Name string
}
