package recording

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/quantica-technologies/kafka-replay/pkg/errors"
	"github.com/quantica-technologies/kafka-replay/pkg/utils"
)

// maxLineSize bounds a single recorded entry. Messages beyond this are not
// representable in the line-oriented format.
const maxLineSize = 64 * 1024 * 1024

// Reader parses a recording sequentially. The first malformed entry aborts
// the read with a FORMAT_ERROR naming the offending line; entries already
// returned stay returned.
type Reader struct {
	closer  io.Closer
	gz      io.Closer
	scanner *bufio.Scanner
	line    int64
	nextSeq int64
}

// Open opens a recording file for sequential reading. Files with a .gz
// suffix are decompressed transparently.
func Open(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(err, errors.ErrCodeNotFound, "recording file not found")
		}
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to open recording file")
	}

	var src io.Reader = file
	var gz io.Closer
	if strings.HasSuffix(path, ".gz") {
		gzReader, err := utils.DecompressReader(file)
		if err != nil {
			file.Close()
			return nil, errors.Wrap(err, errors.ErrCodeFormat, "failed to open compressed recording")
		}
		src = gzReader
		gz = gzReader
	}

	return NewReader(src, &multiCloser{closers: []io.Closer{gz, file}}), nil
}

type multiCloser struct {
	closers []io.Closer
}

func (m *multiCloser) Close() error {
	var firstErr error
	for _, c := range m.closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NewReader reads a recording from an arbitrary stream. closer may be nil.
func NewReader(r io.Reader, closer io.Closer) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	return &Reader{closer: closer, scanner: scanner}
}

// Next returns the next entry, io.EOF at the end of the recording, or a
// FORMAT_ERROR describing the position of the first malformed entry.
// Sequence contiguity is enforced: entry N must carry sequence N.
func (r *Reader) Next() (*Entry, error) {
	for r.scanner.Scan() {
		r.line++
		raw := r.scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var entry Entry
		if err := json.Unmarshal(raw, &entry); err != nil {
			return nil, errors.Newf(errors.ErrCodeFormat, "malformed entry at line %d: %v", r.line, err)
		}
		if len(entry.Value) == 0 && !hasValueField(raw) {
			return nil, errors.Newf(errors.ErrCodeFormat, "entry at line %d has no value field", r.line)
		}
		if entry.Sequence != r.nextSeq {
			return nil, errors.Newf(errors.ErrCodeFormat,
				"entry at line %d has sequence %d, want %d", r.line, entry.Sequence, r.nextSeq)
		}

		r.nextSeq++
		return &entry, nil
	}

	if err := r.scanner.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeFormat, "failed to read recording")
	}
	return nil, io.EOF
}

// Line returns the line number of the most recently returned entry.
func (r *Reader) Line() int64 {
	return r.line
}

// Close releases the underlying file, if any.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

func hasValueField(raw []byte) bool {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return false
	}
	v, ok := probe["value"]
	return ok && string(v) != "null"
}

// CountEntries counts non-empty lines without deserializing them. The
// catalog uses this so listing stays cheap on large recordings.
func CountEntries(r io.Reader) (int64, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	var count int64
	for scanner.Scan() {
		if len(scanner.Bytes()) > 0 {
			count++
		}
	}
	return count, scanner.Err()
}
