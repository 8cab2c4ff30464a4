package recording

import (
	"encoding/json"
	"time"

	"github.com/quantica-technologies/kafka-replay/internal/domain"
)

// Entry is one recorded message, serialized as a single JSON line.
//
// CapturedAt is stamped by the recorder at delivery time, not copied from the
// broker's produce timestamp. Replay pacing is derived from gaps between
// CapturedAt values, so it stays reproducible even when broker clocks skew
// across partitions; the trade-off is that recorded gaps include
// consumer-side delivery jitter.
type Entry struct {
	Sequence   int64             `json:"sequence"`
	Topic      string            `json:"topic"`
	Partition  int32             `json:"partition"`
	Offset     int64             `json:"offset"`
	Key        []byte            `json:"key"`
	Value      []byte            `json:"value"`
	Headers    map[string][]byte `json:"headers,omitempty"`
	CapturedAt time.Time         `json:"captured_at"`
}

// Marshal serializes the entry as one newline-terminated JSON line.
func (e *Entry) Marshal() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Message converts the entry back into a domain message for producing.
func (e *Entry) Message() *domain.Message {
	headers := make([]domain.Header, 0, len(e.Headers))
	for k, v := range e.Headers {
		headers = append(headers, domain.Header{Key: k, Value: v})
	}

	return &domain.Message{
		Topic:     e.Topic,
		Partition: e.Partition,
		Offset:    e.Offset,
		Key:       e.Key,
		Value:     e.Value,
		Timestamp: e.CapturedAt,
		Headers:   headers,
	}
}

// FromMessage builds an entry from a consumed message.
func FromMessage(seq int64, capturedAt time.Time, msg *domain.Message) *Entry {
	var headers map[string][]byte
	if len(msg.Headers) > 0 {
		headers = make(map[string][]byte, len(msg.Headers))
		for _, h := range msg.Headers {
			headers[h.Key] = h.Value
		}
	}

	return &Entry{
		Sequence:   seq,
		Topic:      msg.Topic,
		Partition:  msg.Partition,
		Offset:     msg.Offset,
		Key:        msg.Key,
		Value:      msg.Value,
		Headers:    headers,
		CapturedAt: capturedAt,
	}
}
