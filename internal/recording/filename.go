package recording

import (
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultPrefix matches the historical recording naming scheme.
	DefaultPrefix = "kafka_recording"

	// Extension is the uncompressed recording file extension.
	Extension = ".jsonl"

	// CompressedExtension marks a gzip-compressed recording.
	CompressedExtension = ".jsonl.gz"

	timestampLayout = "20060102_150405"
)

// BuildFilename names a recording after its topic and creation time:
// <prefix>_<topic>_<YYYYMMDD>_<HHMMSS>.jsonl. Lexicographic order of
// filenames for one topic equals creation order.
func BuildFilename(prefix, topic string, createdAt time.Time) string {
	return fmt.Sprintf("%s_%s_%s%s", prefix, topic, createdAt.Format(timestampLayout), Extension)
}

// ParseFilename extracts topic and creation time from a recording filename.
// The topic may itself contain underscores, so the timestamp is taken from
// the two final underscore-separated fields.
func ParseFilename(prefix, name string) (topic string, createdAt time.Time, ok bool) {
	base := name
	switch {
	case strings.HasSuffix(base, CompressedExtension):
		base = strings.TrimSuffix(base, CompressedExtension)
	case strings.HasSuffix(base, Extension):
		base = strings.TrimSuffix(base, Extension)
	default:
		return "", time.Time{}, false
	}

	if !strings.HasPrefix(base, prefix+"_") {
		return "", time.Time{}, false
	}
	base = strings.TrimPrefix(base, prefix+"_")

	parts := strings.Split(base, "_")
	if len(parts) < 3 {
		return "", time.Time{}, false
	}

	stamp := parts[len(parts)-2] + "_" + parts[len(parts)-1]
	createdAt, err := time.ParseInLocation(timestampLayout, stamp, time.Local)
	if err != nil {
		return "", time.Time{}, false
	}

	topic = strings.Join(parts[:len(parts)-2], "_")
	if topic == "" {
		return "", time.Time{}, false
	}

	return topic, createdAt, true
}
