package repository

import (
	"context"

	"github.com/quantica-technologies/kafka-replay/internal/domain"
)

// KafkaRepository defines operations for interacting with Kafka
type KafkaRepository interface {
	// CreateConsumer joins a consumer group on the given topic
	CreateConsumer(ctx context.Context, cluster *domain.KafkaCluster, config ConsumerConfig) (Consumer, error)

	// CreateProducer creates a producer for the cluster
	CreateProducer(ctx context.Context, cluster *domain.KafkaCluster, config ProducerConfig) (Producer, error)

	// HealthCheck checks cluster connectivity
	HealthCheck(ctx context.Context, cluster *domain.KafkaCluster) error
}

// Consumer delivers messages from a consumer-group subscription. Delivery
// order on the Messages channel is the arrival order the recorder persists;
// rebalances mid-session only change which partitions feed the channel.
type Consumer interface {
	// Start joins the group and begins delivery. It returns once the group
	// session is established or fails.
	Start(ctx context.Context) error

	// Messages returns the delivery channel. It is closed when the consumer
	// stops.
	Messages() <-chan *domain.Message

	// Errors returns consumer-level errors that end the session.
	Errors() <-chan error

	// Close leaves the group and releases the connection.
	Close() error
}

// Producer defines operations for producing messages
type Producer interface {
	// Produce sends a message and waits for the broker ack.
	Produce(ctx context.Context, topic string, message *domain.Message) error

	// Close closes the producer
	Close() error
}

// ConsumerConfig holds consumer configuration
type ConsumerConfig struct {
	Topic       string
	GroupID     string
	StartOffset string // earliest or latest
}

// ProducerConfig holds producer configuration
type ProducerConfig struct {
	RequiredAcks int
	MaxRetries   int
	Idempotent   bool
}
