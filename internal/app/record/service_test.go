package record

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
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

type fakeConsumer struct {
	messages chan *domain.Message
	errs     chan error
	startErr error
	closed   bool
}

func newFakeConsumer() *fakeConsumer {
	return &fakeConsumer{
		messages: make(chan *domain.Message, 1),
		errs:     make(chan error, 1),
	}
}

func (c *fakeConsumer) Start(ctx context.Context) error { return c.startErr }

func (c *fakeConsumer) Messages() <-chan *domain.Message { return c.messages }

func (c *fakeConsumer) Errors() <-chan error { return c.errs }

func (c *fakeConsumer) Close() error {
	c.closed = true
	return nil
}

type fakeKafkaRepo struct {
	consumer  *fakeConsumer
	healthErr error
}

func (r *fakeKafkaRepo) CreateConsumer(ctx context.Context, cluster *domain.KafkaCluster, cfg repository.ConsumerConfig) (repository.Consumer, error) {
	return r.consumer, nil
}

func (r *fakeKafkaRepo) CreateProducer(ctx context.Context, cluster *domain.KafkaCluster, cfg repository.ProducerConfig) (repository.Producer, error) {
	return nil, fmt.Errorf("not implemented")
}

func (r *fakeKafkaRepo) HealthCheck(ctx context.Context, cluster *domain.KafkaCluster) error {
	return r.healthErr
}

func testCluster() *domain.KafkaCluster {
	return &domain.KafkaCluster{BootstrapServers: "localhost:9092"}
}

func deliver(c *fakeConsumer, n int) {
	go func() {
		for i := 0; i < n; i++ {
			c.messages <- &domain.Message{
				Topic:     "orders",
				Partition: 0,
				Offset:    int64(i),
				Value:     []byte(fmt.Sprintf("payload-%d", i)),
			}
		}
	}()
}

func readAll(t *testing.T, path string) []*recording.Entry {
	t.Helper()
	r, err := recording.Open(path)
	require.NoError(t, err)
	defer r.Close()

	var entries []*recording.Entry
	for {
		entry, err := r.Next()
		if err == io.EOF {
			return entries
		}
		require.NoError(t, err)
		entries = append(entries, entry)
	}
}

func TestRecordStopsAtMaxMessages(t *testing.T) {
	consumer := newFakeConsumer()
	deliver(consumer, 10)

	service := NewService(&fakeKafkaRepo{consumer: consumer}, clock.NewRealClock(), logger.NewNop())
	report, err := service.Record(context.Background(), testCluster(), Options{
		Topic:       "orders",
		GroupID:     "recorder-group",
		OutputDir:   t.TempDir(),
		MaxMessages: 3,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(3), report.Messages)
	assert.Equal(t, domain.StopReasonLimit, report.Reason)
	assert.True(t, consumer.closed)

	entries := readAll(t, report.File)
	require.Len(t, entries, 3)
	for i, entry := range entries {
		assert.Equal(t, int64(i), entry.Sequence)
		assert.Equal(t, fmt.Sprintf("payload-%d", i), string(entry.Value))
	}
}

func TestRecordCapturedAtNonDecreasing(t *testing.T) {
	consumer := newFakeConsumer()
	deliver(consumer, 5)

	service := NewService(&fakeKafkaRepo{consumer: consumer}, clock.NewRealClock(), logger.NewNop())
	report, err := service.Record(context.Background(), testCluster(), Options{
		Topic:       "orders",
		GroupID:     "recorder-group",
		OutputDir:   t.TempDir(),
		MaxMessages: 5,
	})
	require.NoError(t, err)

	entries := readAll(t, report.File)
	require.Len(t, entries, 5)
	for i := 1; i < len(entries); i++ {
		assert.False(t, entries[i].CapturedAt.Before(entries[i-1].CapturedAt),
			"captured_at decreased between %d and %d", i-1, i)
	}
}

func TestRecordStopsOnTimeout(t *testing.T) {
	consumer := newFakeConsumer()

	service := NewService(&fakeKafkaRepo{consumer: consumer}, clock.NewRealClock(), logger.NewNop())
	report, err := service.Record(context.Background(), testCluster(), Options{
		Topic:     "orders",
		GroupID:   "recorder-group",
		OutputDir: t.TempDir(),
		Timeout:   30 * time.Millisecond,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StopReasonTimeout, report.Reason)
	assert.Equal(t, int64(0), report.Messages)

	// A session that captured nothing still leaves a valid empty recording.
	entries := readAll(t, report.File)
	assert.Empty(t, entries)
}

func TestRecordTimeoutKeepsPartialCapture(t *testing.T) {
	consumer := newFakeConsumer()
	// Only 3 of the topic's messages arrive before the deadline.
	deliver(consumer, 3)

	service := NewService(&fakeKafkaRepo{consumer: consumer}, clock.NewRealClock(), logger.NewNop())
	report, err := service.Record(context.Background(), testCluster(), Options{
		Topic:     "orders",
		GroupID:   "recorder-group",
		OutputDir: t.TempDir(),
		Timeout:   100 * time.Millisecond,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StopReasonTimeout, report.Reason)
	assert.Equal(t, int64(3), report.Messages)

	entries := readAll(t, report.File)
	require.Len(t, entries, 3)
	for i, entry := range entries {
		assert.Equal(t, int64(i), entry.Sequence)
	}
}

func TestRecordStopsOnCancellation(t *testing.T) {
	consumer := newFakeConsumer()
	deliver(consumer, 2)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	service := NewService(&fakeKafkaRepo{consumer: consumer}, clock.NewRealClock(), logger.NewNop())
	report, err := service.Record(ctx, testCluster(), Options{
		Topic:     "orders",
		GroupID:   "recorder-group",
		OutputDir: t.TempDir(),
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StopReasonCancelled, report.Reason)
	assert.Equal(t, int64(2), report.Messages)

	entries := readAll(t, report.File)
	assert.Len(t, entries, 2)
}

func TestRecordStopsOnConsumerError(t *testing.T) {
	consumer := newFakeConsumer()
	consumer.errs <- fmt.Errorf("broker went away")

	service := NewService(&fakeKafkaRepo{consumer: consumer}, clock.NewRealClock(), logger.NewNop())
	report, err := service.Record(context.Background(), testCluster(), Options{
		Topic:     "orders",
		GroupID:   "recorder-group",
		OutputDir: t.TempDir(),
	})

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeDelivery, errors.Code(err))
	assert.Equal(t, domain.StopReasonError, report.Reason)
	// The partial file survives the failure.
	assert.FileExists(t, report.File)
}

func TestRecordConnectionErrorLeavesNoFile(t *testing.T) {
	dir := t.TempDir()

	service := NewService(&fakeKafkaRepo{healthErr: fmt.Errorf("connection refused")}, clock.NewRealClock(), logger.NewNop())
	_, err := service.Record(context.Background(), testCluster(), Options{
		Topic:     "orders",
		GroupID:   "recorder-group",
		OutputDir: dir,
	})

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeUnavailable, errors.Code(err))

	matches, globErr := filepath.Glob(filepath.Join(dir, "*"))
	require.NoError(t, globErr)
	assert.Empty(t, matches)
}

func TestRecordCreatesOutputDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "recordings")
	consumer := newFakeConsumer()
	deliver(consumer, 1)

	service := NewService(&fakeKafkaRepo{consumer: consumer}, clock.NewRealClock(), logger.NewNop())
	report, err := service.Record(context.Background(), testCluster(), Options{
		Topic:       "orders",
		GroupID:     "recorder-group",
		OutputDir:   dir,
		MaxMessages: 1,
	})
	require.NoError(t, err)

	info, statErr := os.Stat(dir)
	require.NoError(t, statErr)
	assert.True(t, info.IsDir())
	assert.Equal(t, dir, filepath.Dir(report.File))
}

func TestRecordValidatesOptions(t *testing.T) {
	service := NewService(&fakeKafkaRepo{consumer: newFakeConsumer()}, clock.NewRealClock(), logger.NewNop())

	cases := []Options{
		{GroupID: "g", OutputDir: "d"},                              // missing topic
		{Topic: "bad/topic", GroupID: "g", OutputDir: "d"},          // invalid topic name
		{Topic: "t", OutputDir: "d"},                                // missing group
		{Topic: "t", GroupID: "g"},                                  // missing output dir
		{Topic: "t", GroupID: "g", OutputDir: "d", MaxMessages: -1}, // negative limit
		{Topic: "t", GroupID: "g", OutputDir: "d", Timeout: -time.Second},
	}

	for _, opts := range cases {
		_, err := service.Record(context.Background(), testCluster(), opts)
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeInvalidArgument, errors.Code(err))
	}
}
