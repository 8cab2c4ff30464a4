package recording

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/quantica-technologies/kafka-replay/internal/domain"
)

// Writer appends recorded messages to a recording file. Sequences are
// assigned here, so a writer is the single owner of its file for the
// lifetime of a capture session. Each Append issues exactly one write
// syscall, so a crash leaves the file truncated at an entry boundary.
type Writer struct {
	file         *os.File
	path         string
	count        int64
	lastCaptured time.Time
}

// NewWriter creates the output directory if needed and opens a fresh
// recording file named after topic and creation time.
func NewWriter(outputDir, prefix, topic string, createdAt time.Time) (*Writer, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(outputDir, BuildFilename(prefix, topic, createdAt))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create recording file: %w", err)
	}

	return &Writer{file: file, path: path}, nil
}

// Append assigns the next sequence, stamps the capture time and writes the
// entry. Capture timestamps are clamped to be non-decreasing so replay gap
// computation never sees negative gaps from a stepping wall clock.
func (w *Writer) Append(capturedAt time.Time, msg *domain.Message) (*Entry, error) {
	if capturedAt.Before(w.lastCaptured) {
		capturedAt = w.lastCaptured
	}

	entry := FromMessage(w.count, capturedAt, msg)
	line, err := entry.Marshal()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entry %d: %w", entry.Sequence, err)
	}

	if _, err := w.file.Write(line); err != nil {
		return nil, fmt.Errorf("failed to append entry %d: %w", entry.Sequence, err)
	}

	w.count++
	w.lastCaptured = capturedAt
	return entry, nil
}

// Count returns the number of entries appended so far.
func (w *Writer) Count() int64 {
	return w.count
}

// Path returns the recording file path.
func (w *Writer) Path() string {
	return w.path
}

// Close flushes the file to disk and releases it. The recording is
// immutable from this point on.
func (w *Writer) Close() error {
	if err := w.file.Sync(); err != nil {
		w.file.Close()
		return fmt.Errorf("failed to sync recording file: %w", err)
	}
	return w.file.Close()
}
