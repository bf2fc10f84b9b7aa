package types

// Member is a credential holder. RFID is the lookup key for access
// decisions and changes only through an explicit retag.
type Member struct {
	ID         int64
	FullName   string
	RFID       string
	Active     bool
	JoinDate   string  // ISO-8601, UTC
	ExternalID *string // correlation id from the membership system, if any
}

// ExternalIDOrEmpty renders the correlation id for text output.
func (m Member) ExternalIDOrEmpty() string {
	if m.ExternalID == nil {
		return ""
	}
	return *m.ExternalID
}
