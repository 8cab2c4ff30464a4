package domain

import "time"

// StopReason explains why a capture or replay session ended.
type StopReason string

const (
	StopReasonLimit     StopReason = "limit"
	StopReasonTimeout   StopReason = "timeout"
	StopReasonCancelled StopReason = "cancelled"
	StopReasonEndOfFile StopReason = "end-of-file"
	StopReasonError     StopReason = "error"
)

// CaptureReport summarizes a finished recording session. It is produced
// regardless of how the session ended; a partial recording is a valid one.
type CaptureReport struct {
	SessionID string
	Topic     string
	GroupID   string
	File      string
	Messages  int64
	Bytes     int64
	StartedAt time.Time
	Elapsed   time.Duration
	Reason    StopReason
}

// ReplayReport summarizes a finished replay session.
type ReplayReport struct {
	SessionID        string
	File             string
	TargetTopic      string
	Sent             int64
	Retried          int64
	SkippedSequences []int64
	StartedAt        time.Time
	Elapsed          time.Duration
	Reason           StopReason
}

// Skipped returns the number of messages dropped after exhausting retries.
func (r *ReplayReport) Skipped() int64 {
	return int64(len(r.SkippedSequences))
}
