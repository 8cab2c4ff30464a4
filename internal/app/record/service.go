package record

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/quantica-technologies/kafka-replay/internal/config"
	"github.com/quantica-technologies/kafka-replay/internal/domain"
	"github.com/quantica-technologies/kafka-replay/internal/recording"
	"github.com/quantica-technologies/kafka-replay/internal/repository"
	"github.com/quantica-technologies/kafka-replay/pkg/clock"
	"github.com/quantica-technologies/kafka-replay/pkg/errors"
	"github.com/quantica-technologies/kafka-replay/pkg/logger"
	"github.com/quantica-technologies/kafka-replay/pkg/metrics"
)

const progressInterval = 100

// Service captures a live topic into a recording file.
type Service struct {
	kafkaRepo repository.KafkaRepository
	clock     clock.Clock
	logger    logger.Logger
}

// Options bound one capture session. MaxMessages == 0 means unlimited count,
// Timeout == 0 unlimited duration; with both unlimited the session runs
// until cancelled.
type Options struct {
	Topic       string
	GroupID     string
	OutputDir   string
	FilePrefix  string
	MaxMessages int64
	Timeout     time.Duration
}

// NewService creates a new capture service
func NewService(kafkaRepo repository.KafkaRepository, clk clock.Clock, log logger.Logger) *Service {
	return &Service{
		kafkaRepo: kafkaRepo,
		clock:     clk,
		logger:    log,
	}
}

// Record joins the topic as a member of the consumer group and appends every
// delivered message to a fresh recording file until one of the session
// bounds fires. The report is returned even when the session ends early; a
// partial recording is a valid recording.
func (s *Service) Record(ctx context.Context, cluster *domain.KafkaCluster, opts Options) (*domain.CaptureReport, error) {
	if err := validateOptions(opts); err != nil {
		return nil, err
	}

	sessionID := uuid.NewString()
	log := s.logger.WithFields(map[string]interface{}{
		"sessionID": sessionID,
		"topic":     opts.Topic,
		"groupID":   opts.GroupID,
	})

	// Connect before touching the filesystem so a connection failure leaves
	// no file behind.
	if err := s.kafkaRepo.HealthCheck(ctx, cluster); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeUnavailable, "broker unreachable")
	}

	consumer, err := s.kafkaRepo.CreateConsumer(ctx, cluster, repository.ConsumerConfig{
		Topic:       opts.Topic,
		GroupID:     opts.GroupID,
		StartOffset: "earliest",
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeUnavailable, "failed to create consumer")
	}
	defer consumer.Close()

	if err := consumer.Start(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Wrap(err, errors.ErrCodeUnavailable, "failed to join consumer group")
	}

	startedAt := s.clock.Now()
	prefix := opts.FilePrefix
	if prefix == "" {
		prefix = recording.DefaultPrefix
	}

	writer, err := recording.NewWriter(opts.OutputDir, prefix, opts.Topic, startedAt)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to create recording file")
	}

	log.Info("Recording started",
		"file", writer.Path(),
		"maxMessages", opts.MaxMessages,
		"timeout", opts.Timeout)

	report := &domain.CaptureReport{
		SessionID: sessionID,
		Topic:     opts.Topic,
		GroupID:   opts.GroupID,
		File:      writer.Path(),
		StartedAt: startedAt,
	}

	var timeoutCh <-chan time.Time
	if opts.Timeout > 0 {
		timeoutCh = s.clock.After(opts.Timeout)
	}

	var sessionErr error
	report.Reason = domain.StopReasonCancelled

loop:
	for {
		if opts.MaxMessages > 0 && writer.Count() >= opts.MaxMessages {
			report.Reason = domain.StopReasonLimit
			break
		}

		select {
		case <-ctx.Done():
			report.Reason = domain.StopReasonCancelled
			break loop

		case <-timeoutCh:
			report.Reason = domain.StopReasonTimeout
			break loop

		case err := <-consumer.Errors():
			report.Reason = domain.StopReasonError
			sessionErr = errors.Wrap(err, errors.ErrCodeDelivery, "consumer failed")
			break loop

		case msg, ok := <-consumer.Messages():
			if !ok {
				report.Reason = domain.StopReasonError
				sessionErr = errors.New(errors.ErrCodeDelivery, "message stream closed")
				break loop
			}

			entry, err := writer.Append(s.clock.Now(), msg)
			if err != nil {
				report.Reason = domain.StopReasonError
				sessionErr = errors.Wrap(err, errors.ErrCodeInternal, "failed to append entry")
				break loop
			}

			report.Bytes += int64(len(msg.Value))
			metrics.CaptureMessages.WithLabelValues(sessionID, opts.Topic).Inc()
			metrics.CaptureBytes.WithLabelValues(sessionID, opts.Topic).Add(float64(len(msg.Value)))

			if (entry.Sequence+1)%progressInterval == 0 {
				log.Info("Recording progress", "messages", entry.Sequence+1)
			}
		}
	}

	// Close the consumer first so no message arrives for a closed writer.
	if err := consumer.Close(); err != nil {
		log.Warn("Failed to close consumer", "error", err)
	}

	report.Messages = writer.Count()
	report.Elapsed = s.clock.Since(startedAt)

	if err := writer.Close(); err != nil && sessionErr == nil {
		sessionErr = errors.Wrap(err, errors.ErrCodeInternal, "failed to close recording file")
	}

	log.Info("Recording finished",
		"file", report.File,
		"messages", report.Messages,
		"elapsed", report.Elapsed,
		"reason", report.Reason)

	return report, sessionErr
}

func validateOptions(opts Options) error {
	if opts.Topic == "" {
		return errors.New(errors.ErrCodeInvalidArgument, "topic is required")
	}
	if err := config.NewValidator().ValidateTopicName(opts.Topic); err != nil {
		return errors.Wrap(err, errors.ErrCodeInvalidArgument, "invalid topic")
	}
	if opts.GroupID == "" {
		return errors.New(errors.ErrCodeInvalidArgument, "group id is required")
	}
	if opts.OutputDir == "" {
		return errors.New(errors.ErrCodeInvalidArgument, "output directory is required")
	}
	if opts.MaxMessages < 0 {
		return errors.New(errors.ErrCodeInvalidArgument, "max messages cannot be negative")
	}
	if opts.Timeout < 0 {
		return errors.New(errors.ErrCodeInvalidArgument, "timeout cannot be negative")
	}
	return nil
}
