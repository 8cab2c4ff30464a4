package replay

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantica-technologies/kafka-replay/internal/domain"
	"github.com/quantica-technologies/kafka-replay/internal/recording"
	"github.com/quantica-technologies/kafka-replay/internal/repository"
	"github.com/quantica-technologies/kafka-replay/pkg/clock"
	"github.com/quantica-technologies/kafka-replay/pkg/errors"
	"github.com/quantica-technologies/kafka-replay/pkg/logger"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type sentMessage struct {
	topic string
	key   []byte
	value []byte
}

// fakeProducer captures sends; failOn makes Produce fail for specific payloads.
type fakeProducer struct {
	mu     sync.Mutex
	sent   []sentMessage
	failOn map[string]int // payload -> remaining failures (-1 = always)
}

func (p *fakeProducer) Produce(ctx context.Context, topic string, msg *domain.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if remaining, ok := p.failOn[string(msg.Value)]; ok && remaining != 0 {
		if remaining > 0 {
			p.failOn[string(msg.Value)]--
		}
		return fmt.Errorf("delivery failed")
	}

	p.sent = append(p.sent, sentMessage{topic: topic, key: msg.Key, value: msg.Value})
	return nil
}

func (p *fakeProducer) Close() error { return nil }

func (p *fakeProducer) sentMessages() []sentMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]sentMessage(nil), p.sent...)
}

type fakeKafkaRepo struct {
	producer *fakeProducer
}

func (r *fakeKafkaRepo) CreateConsumer(ctx context.Context, cluster *domain.KafkaCluster, cfg repository.ConsumerConfig) (repository.Consumer, error) {
	return nil, fmt.Errorf("not implemented")
}

func (r *fakeKafkaRepo) CreateProducer(ctx context.Context, cluster *domain.KafkaCluster, cfg repository.ProducerConfig) (repository.Producer, error) {
	return r.producer, nil
}

func (r *fakeKafkaRepo) HealthCheck(ctx context.Context, cluster *domain.KafkaCluster) error {
	return nil
}

func testCluster() *domain.KafkaCluster {
	return &domain.KafkaCluster{BootstrapServers: "localhost:9092"}
}

// writeRecording builds a recording with the given inter-message gaps; the
// payload of entry i is "payload-i".
func writeRecording(t *testing.T, gaps []time.Duration) string {
	t.Helper()

	w, err := recording.NewWriter(t.TempDir(), recording.DefaultPrefix, "orders", epoch)
	require.NoError(t, err)

	capturedAt := epoch
	for i, gap := range gaps {
		capturedAt = capturedAt.Add(gap)
		_, err := w.Append(capturedAt, &domain.Message{
			Topic:  "orders",
			Offset: int64(i),
			Key:    []byte(fmt.Sprintf("key-%d", i)),
			Value:  []byte(fmt.Sprintf("payload-%d", i)),
		})
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return w.Path()
}

func zeroGaps(n int) []time.Duration {
	return make([]time.Duration, n)
}

func newTestService(producer *fakeProducer) *Service {
	return NewService(&fakeKafkaRepo{producer: producer}, clock.NewRealClock(), logger.NewNop())
}

func baseOptions(file string) Options {
	return Options{
		InputFile:    file,
		Rate:         1.0,
		MaxRetries:   2,
		RetryBackoff: time.Millisecond,
	}
}

func TestReplayWindowSelection(t *testing.T) {
	file := writeRecording(t, zeroGaps(5))

	cases := []struct {
		name      string
		startFrom int64
		count     int64
		wantSent  int64
		wantFirst string
	}{
		{"whole file", 0, 0, 5, "payload-0"},
		{"start offset", 2, 0, 3, "payload-2"},
		{"count limit", 0, 3, 3, "payload-0"},
		{"window", 1, 2, 2, "payload-1"},
		{"count past end", 4, 10, 1, "payload-4"},
		{"start at end", 5, 0, 0, ""},
		{"start past end", 7, 3, 0, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			producer := &fakeProducer{}
			opts := baseOptions(file)
			opts.StartFrom = tc.startFrom
			opts.Count = tc.count

			report, err := newTestService(producer).Replay(context.Background(), testCluster(), opts)
			require.NoError(t, err)

			assert.Equal(t, tc.wantSent, report.Sent)
			sent := producer.sentMessages()
			require.Len(t, sent, int(tc.wantSent))
			if tc.wantSent > 0 {
				assert.Equal(t, tc.wantFirst, string(sent[0].value))
			}
		})
	}
}

func TestReplayPreservesOrderAndContent(t *testing.T) {
	file := writeRecording(t, zeroGaps(5))
	producer := &fakeProducer{}

	report, err := newTestService(producer).Replay(context.Background(), testCluster(), baseOptions(file))
	require.NoError(t, err)
	assert.Equal(t, domain.StopReasonEndOfFile, report.Reason)

	sent := producer.sentMessages()
	require.Len(t, sent, 5)
	for i, msg := range sent {
		assert.Equal(t, fmt.Sprintf("payload-%d", i), string(msg.value))
		assert.Equal(t, fmt.Sprintf("key-%d", i), string(msg.key))
		assert.Equal(t, "orders", msg.topic)
	}
}

func TestReplayIsRepeatable(t *testing.T) {
	file := writeRecording(t, zeroGaps(4))

	first := &fakeProducer{}
	_, err := newTestService(first).Replay(context.Background(), testCluster(), baseOptions(file))
	require.NoError(t, err)

	second := &fakeProducer{}
	_, err = newTestService(second).Replay(context.Background(), testCluster(), baseOptions(file))
	require.NoError(t, err)

	a, b := first.sentMessages(), second.sentMessages()
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.True(t, bytes.Equal(a[i].value, b[i].value), "payload %d differs between runs", i)
	}
}

func TestReplayTopicOverride(t *testing.T) {
	file := writeRecording(t, zeroGaps(3))
	producer := &fakeProducer{}

	opts := baseOptions(file)
	opts.TargetTopic = "staging-orders"

	_, err := newTestService(producer).Replay(context.Background(), testCluster(), opts)
	require.NoError(t, err)

	for _, msg := range producer.sentMessages() {
		assert.Equal(t, "staging-orders", msg.topic)
	}
}

func TestReplayRateScaling(t *testing.T) {
	// Gaps [0, 100ms, 100ms, 100ms, 100ms]: 400ms of recorded time.
	gaps := []time.Duration{0, 100 * time.Millisecond, 100 * time.Millisecond, 100 * time.Millisecond, 100 * time.Millisecond}
	file := writeRecording(t, gaps)

	cases := []struct {
		rate    float64
		wantMin time.Duration
	}{
		{1.0, 400 * time.Millisecond},
		{2.0, 200 * time.Millisecond},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("rate=%.1f", tc.rate), func(t *testing.T) {
			producer := &fakeProducer{}
			opts := baseOptions(file)
			opts.Rate = tc.rate

			start := time.Now()
			report, err := newTestService(producer).Replay(context.Background(), testCluster(), opts)
			elapsed := time.Since(start)

			require.NoError(t, err)
			assert.Equal(t, int64(5), report.Sent)

			assert.GreaterOrEqual(t, elapsed, tc.wantMin-20*time.Millisecond,
				"replay finished too fast: %v", elapsed)
			assert.Less(t, elapsed, tc.wantMin+250*time.Millisecond,
				"replay took too long: %v", elapsed)
		})
	}
}

func TestReplayWindowDoesNotInheritLeadInSleep(t *testing.T) {
	// A long gap before entry 3 must not delay a window starting at 3.
	gaps := []time.Duration{0, 0, 0, 10 * time.Second, 0}
	file := writeRecording(t, gaps)

	producer := &fakeProducer{}
	opts := baseOptions(file)
	opts.StartFrom = 3

	start := time.Now()
	report, err := newTestService(producer).Replay(context.Background(), testCluster(), opts)
	require.NoError(t, err)

	assert.Equal(t, int64(2), report.Sent)
	assert.Less(t, time.Since(start), time.Second, "window start inherited skipped lead-in gap")
}

func TestReplayRetriesThenSkips(t *testing.T) {
	file := writeRecording(t, zeroGaps(4))
	producer := &fakeProducer{failOn: map[string]int{"payload-1": -1}}

	opts := baseOptions(file)
	opts.MaxRetries = 2

	report, err := newTestService(producer).Replay(context.Background(), testCluster(), opts)
	require.NoError(t, err)

	assert.Equal(t, int64(3), report.Sent)
	assert.Equal(t, []int64{1}, report.SkippedSequences)
	assert.Equal(t, int64(2), report.Retried)

	// The bad message did not abort the rest of the replay.
	sent := producer.sentMessages()
	require.Len(t, sent, 3)
	assert.Equal(t, "payload-3", string(sent[2].value))
}

func TestReplayRecoversWithinRetryBudget(t *testing.T) {
	file := writeRecording(t, zeroGaps(2))
	producer := &fakeProducer{failOn: map[string]int{"payload-0": 1}}

	report, err := newTestService(producer).Replay(context.Background(), testCluster(), baseOptions(file))
	require.NoError(t, err)

	assert.Equal(t, int64(2), report.Sent)
	assert.Empty(t, report.SkippedSequences)
	assert.Equal(t, int64(1), report.Retried)
}

func TestReplayFormatErrorAbortsButKeepsSent(t *testing.T) {
	file := writeRecording(t, zeroGaps(2))

	// Corrupt the file by appending garbage after the valid entries.
	appendLine(t, file, "definitely not json")

	producer := &fakeProducer{}
	report, err := newTestService(producer).Replay(context.Background(), testCluster(), baseOptions(file))

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeFormat, errors.Code(err))
	assert.Contains(t, err.Error(), "line 3")

	require.NotNil(t, report)
	assert.Equal(t, int64(2), report.Sent)
	assert.Equal(t, domain.StopReasonError, report.Reason)
}

func TestReplayCancellationDuringGap(t *testing.T) {
	gaps := []time.Duration{0, 10 * time.Second}
	file := writeRecording(t, gaps)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	producer := &fakeProducer{}
	start := time.Now()
	report, err := newTestService(producer).Replay(ctx, testCluster(), baseOptions(file))
	require.NoError(t, err)

	assert.Equal(t, domain.StopReasonCancelled, report.Reason)
	assert.Equal(t, int64(1), report.Sent)
	assert.Less(t, time.Since(start), time.Second)
}

func TestReplayValidatesOptions(t *testing.T) {
	service := newTestService(&fakeProducer{})

	cases := []Options{
		{Rate: 1.0},                             // missing file
		{InputFile: "f", Rate: 0},               // zero rate
		{InputFile: "f", Rate: -1},              // negative rate
		{InputFile: "f", Rate: 1, StartFrom: -1},
		{InputFile: "f", Rate: 1, Count: -1},
	}

	for _, opts := range cases {
		_, err := service.Replay(context.Background(), testCluster(), opts)
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeInvalidArgument, errors.Code(err))
	}
}

func TestReplayMissingFile(t *testing.T) {
	opts := baseOptions(filepath.Join(t.TempDir(), "missing.jsonl"))

	_, err := newTestService(&fakeProducer{}).Replay(context.Background(), testCluster(), opts)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeNotFound, errors.Code(err))
}

func appendLine(t *testing.T, path, line string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
	require.NoError(t, err)
	defer f.Close()
	_, err = f.WriteString(line + "\n")
	require.NoError(t, err)
}
