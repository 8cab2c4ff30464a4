package replay

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/quantica-technologies/kafka-replay/internal/domain"
	"github.com/quantica-technologies/kafka-replay/internal/recording"
	"github.com/quantica-technologies/kafka-replay/internal/repository"
	"github.com/quantica-technologies/kafka-replay/pkg/clock"
	"github.com/quantica-technologies/kafka-replay/pkg/errors"
	"github.com/quantica-technologies/kafka-replay/pkg/logger"
	"github.com/quantica-technologies/kafka-replay/pkg/metrics"
)

const progressInterval = 100

// Service replays a recording to a broker, reproducing the recorded
// inter-message gaps under a rate multiplier.
type Service struct {
	kafkaRepo repository.KafkaRepository
	clock     clock.Clock
	logger    logger.Logger
}

// Options select the replay window and pacing. TargetTopic empty means each
// message goes back to the topic recorded in its own entry. Count == 0
// replays the whole window after StartFrom.
type Options struct {
	InputFile    string
	TargetTopic  string
	Rate         float64
	StartFrom    int64
	Count        int64
	MaxRetries   int
	RetryBackoff time.Duration
}

// NewService creates a new replay service
func NewService(kafkaRepo repository.KafkaRepository, clk clock.Clock, log logger.Logger) *Service {
	return &Service{
		kafkaRepo: kafkaRepo,
		clock:     clk,
		logger:    log,
	}
}

// Replay streams the selected window of the recording to the broker. Gaps
// are recomputed relative to the first replayed message, so a window
// starting mid-file does not inherit the lead-in sleep of skipped entries.
// A format error aborts the session but messages already sent stay sent;
// the report is returned alongside the error.
func (s *Service) Replay(ctx context.Context, cluster *domain.KafkaCluster, opts Options) (*domain.ReplayReport, error) {
	if err := validateOptions(opts); err != nil {
		return nil, err
	}

	sessionID := uuid.NewString()
	log := s.logger.WithFields(map[string]interface{}{
		"sessionID": sessionID,
		"file":      opts.InputFile,
	})

	reader, err := recording.Open(opts.InputFile)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	producer, err := s.kafkaRepo.CreateProducer(ctx, cluster, repository.ProducerConfig{
		RequiredAcks: -1,
		MaxRetries:   opts.MaxRetries,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeUnavailable, "failed to create producer")
	}
	defer producer.Close()

	startedAt := s.clock.Now()
	report := &domain.ReplayReport{
		SessionID:   sessionID,
		File:        opts.InputFile,
		TargetTopic: opts.TargetTopic,
		StartedAt:   startedAt,
		Reason:      domain.StopReasonEndOfFile,
	}

	log.Info("Replay started",
		"rate", opts.Rate,
		"startFrom", opts.StartFrom,
		"count", opts.Count)

	var (
		sessionErr   error
		attempted    int64
		anchor       time.Time
		baseCaptured time.Time
		first        = true
	)

loop:
	for {
		if opts.Count > 0 && attempted >= opts.Count {
			report.Reason = domain.StopReasonLimit
			break
		}
		if ctx.Err() != nil {
			report.Reason = domain.StopReasonCancelled
			break
		}

		entry, err := reader.Next()
		if err == io.EOF {
			report.Reason = domain.StopReasonEndOfFile
			break
		}
		if err != nil {
			report.Reason = domain.StopReasonError
			sessionErr = err
			break
		}

		if entry.Sequence < opts.StartFrom {
			continue
		}
		attempted++

		// The first replayed message sends immediately and anchors the
		// schedule. Every later message targets
		// anchor + cumulative_gap/rate, so scheduler latency never
		// compounds across a long replay.
		if first {
			anchor = s.clock.Now()
			baseCaptured = entry.CapturedAt
			first = false
		} else {
			target := anchor.Add(scaleGap(entry.CapturedAt.Sub(baseCaptured), opts.Rate))
			if delay := target.Sub(s.clock.Now()); delay > 0 {
				select {
				case <-s.clock.After(delay):
				case <-ctx.Done():
					report.Reason = domain.StopReasonCancelled
					break loop
				}
			}
		}

		topic := entry.Topic
		if opts.TargetTopic != "" {
			topic = opts.TargetTopic
		}

		if err := s.send(ctx, producer, topic, entry, opts, report, sessionID); err != nil {
			if ctx.Err() != nil {
				report.Reason = domain.StopReasonCancelled
				break
			}
			log.Warn("Message skipped after retries",
				"sequence", entry.Sequence,
				"topic", topic,
				"error", err)
			report.SkippedSequences = append(report.SkippedSequences, entry.Sequence)
			metrics.ReplayMessagesSkipped.WithLabelValues(sessionID, topic).Inc()
			continue
		}

		report.Sent++
		metrics.ReplayMessagesSent.WithLabelValues(sessionID, topic).Inc()

		if report.Sent%progressInterval == 0 {
			log.Info("Replay progress", "sent", report.Sent)
		}
	}

	report.Elapsed = s.clock.Since(startedAt)

	log.Info("Replay finished",
		"sent", report.Sent,
		"skipped", report.Skipped(),
		"retried", report.Retried,
		"elapsed", report.Elapsed,
		"reason", report.Reason)

	return report, sessionErr
}

// send delivers one entry, retrying delivery failures with doubling backoff
// up to MaxRetries before giving up on the message.
func (s *Service) send(
	ctx context.Context,
	producer repository.Producer,
	topic string,
	entry *recording.Entry,
	opts Options,
	report *domain.ReplayReport,
	sessionID string,
) error {
	backoff := opts.RetryBackoff
	if backoff <= 0 {
		backoff = 100 * time.Millisecond
	}

	for attempt := 0; ; attempt++ {
		start := s.clock.Now()
		err := producer.Produce(ctx, topic, entry.Message())
		metrics.ReplaySendLatency.WithLabelValues(sessionID).Observe(s.clock.Since(start).Seconds())

		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt >= opts.MaxRetries {
			return errors.Wrap(err, errors.ErrCodeDelivery, "delivery failed after retries")
		}

		report.Retried++
		metrics.ReplayRetries.WithLabelValues(sessionID, topic).Inc()

		select {
		case <-s.clock.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff *= 2
	}
}

func scaleGap(gap time.Duration, rate float64) time.Duration {
	if gap <= 0 {
		return 0
	}
	return time.Duration(float64(gap) / rate)
}

func validateOptions(opts Options) error {
	if opts.InputFile == "" {
		return errors.New(errors.ErrCodeInvalidArgument, "input file is required")
	}
	if opts.Rate <= 0 {
		return errors.New(errors.ErrCodeInvalidArgument, "rate must be greater than zero")
	}
	if opts.StartFrom < 0 {
		return errors.New(errors.ErrCodeInvalidArgument, "start-from cannot be negative")
	}
	if opts.Count < 0 {
		return errors.New(errors.ErrCodeInvalidArgument, "count cannot be negative")
	}
	if opts.MaxRetries < 0 {
		return errors.New(errors.ErrCodeInvalidArgument, "max retries cannot be negative")
	}
	return nil
}
