package domain

import "time"

// RecordingInfo describes one recording as derived from the store: identity
// comes from the filename, the message count from a line scan. Entries are
// never deserialized for listing.
type RecordingInfo struct {
	ID           int
	Filename     string
	Topic        string
	CreatedAt    time.Time
	MessageCount int64
	SizeBytes    int64
}
