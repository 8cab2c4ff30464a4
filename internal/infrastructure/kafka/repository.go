package kafka

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/IBM/sarama"

	"github.com/quantica-technologies/kafka-replay/internal/domain"
	"github.com/quantica-technologies/kafka-replay/internal/repository"
)

// Repository implements KafkaRepository using Sarama
type Repository struct{}

// NewRepository creates a new Kafka repository
func NewRepository() repository.KafkaRepository {
	return &Repository{}
}

// CreateConsumer joins a consumer group on the configured topic
func (r *Repository) CreateConsumer(
	ctx context.Context,
	cluster *domain.KafkaCluster,
	config repository.ConsumerConfig,
) (repository.Consumer, error) {
	saramaConfig := r.buildSaramaConfig(cluster)
	saramaConfig.Consumer.Return.Errors = true
	if config.StartOffset == "latest" {
		saramaConfig.Consumer.Offsets.Initial = sarama.OffsetNewest
	} else {
		saramaConfig.Consumer.Offsets.Initial = sarama.OffsetOldest
	}

	group, err := sarama.NewConsumerGroup(brokerList(cluster), config.GroupID, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	return newGroupConsumer(group, config.Topic), nil
}

// CreateProducer creates a Kafka producer
func (r *Repository) CreateProducer(
	ctx context.Context,
	cluster *domain.KafkaCluster,
	config repository.ProducerConfig,
) (repository.Producer, error) {
	saramaConfig := r.buildSaramaConfig(cluster)
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Idempotent = config.Idempotent
	if config.Idempotent {
		saramaConfig.Net.MaxOpenRequests = 1
	}
	if config.MaxRetries > 0 {
		saramaConfig.Producer.Retry.Max = config.MaxRetries
	}

	client, err := sarama.NewClient(brokerList(cluster), saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	producer, err := sarama.NewSyncProducerFromClient(client)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}

	return &Producer{
		client:   client,
		producer: producer,
	}, nil
}

// HealthCheck checks Kafka cluster connectivity
func (r *Repository) HealthCheck(ctx context.Context, cluster *domain.KafkaCluster) error {
	saramaConfig := r.buildSaramaConfig(cluster)

	client, err := sarama.NewClient(brokerList(cluster), saramaConfig)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer client.Close()

	return nil
}

func (r *Repository) buildSaramaConfig(cluster *domain.KafkaCluster) *sarama.Config {
	config := sarama.NewConfig()
	config.Version = sarama.V2_8_0_0

	if cluster.SecurityConfig.Protocol != domain.SecurityProtocolPlaintext &&
		cluster.SecurityConfig.Protocol != domain.SecurityProtocolSSL {
		config.Net.SASL.Enable = true
		config.Net.SASL.Mechanism = sarama.SASLMechanism(cluster.SecurityConfig.SASLMechanism)
		config.Net.SASL.User = cluster.SecurityConfig.Username
		config.Net.SASL.Password = cluster.SecurityConfig.Password
	}

	if tlsCfg := cluster.SecurityConfig.TLSConfig; tlsCfg != nil && tlsCfg.Enabled {
		config.Net.TLS.Enable = true
		config.Net.TLS.Config = &tls.Config{
			InsecureSkipVerify: tlsCfg.InsecureSkipVerify,
		}
	}

	return config
}

func brokerList(cluster *domain.KafkaCluster) []string {
	return strings.Split(cluster.BootstrapServers, ",")
}
