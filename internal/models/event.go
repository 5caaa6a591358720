package models

// Event is a single scheduled entry, always owned by exactly one chat.
type Event struct {
	ID          int64
	OwnerID     int64
	Date        string // DD/MM/YYYY
	Description string
}
