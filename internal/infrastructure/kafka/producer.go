package kafka

import (
	"context"

	"github.com/IBM/sarama"

	"github.com/quantica-technologies/kafka-replay/internal/domain"
)

// Producer wraps Sarama sync producer
type Producer struct {
	client   sarama.Client
	producer sarama.SyncProducer
}

// Produce sends one message and waits for the broker ack. The recorded key
// is handed to the producer's partitioner, so placement on the target topic
// follows its own partition count; the recorded partition is a hint only.
func (p *Producer) Produce(ctx context.Context, topic string, message *domain.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, _, err := p.producer.SendMessage(p.convertMessage(topic, message))
	return err
}

func (p *Producer) Close() error {
	if p.producer != nil {
		if err := p.producer.Close(); err != nil {
			return err
		}
	}
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}

func (p *Producer) convertMessage(topic string, msg *domain.Message) *sarama.ProducerMessage {
	headers := make([]sarama.RecordHeader, len(msg.Headers))
	for i, h := range msg.Headers {
		headers[i] = sarama.RecordHeader{
			Key:   []byte(h.Key),
			Value: h.Value,
		}
	}

	out := &sarama.ProducerMessage{
		Topic:     topic,
		Value:     sarama.ByteEncoder(msg.Value),
		Timestamp: msg.Timestamp,
		Headers:   headers,
	}
	if msg.Key != nil {
		out.Key = sarama.ByteEncoder(msg.Key)
	}

	return out
}
