package kafka

import (
	"context"
	"fmt"
	"sync"

	"github.com/IBM/sarama"

	"github.com/quantica-technologies/kafka-replay/internal/domain"
)

// groupConsumer adapts a Sarama consumer group to the repository.Consumer
// contract. The delivery channel has capacity one: the group session blocks
// on the slot while the recorder writes the previous message, which keeps
// memory bounded regardless of topic volume.
type groupConsumer struct {
	group    sarama.ConsumerGroup
	topic    string
	messages chan *domain.Message
	errors   chan error
	ready    chan struct{}
	done     chan struct{}
	cancel   context.CancelFunc

	readyOnce sync.Once
	closeOnce sync.Once
	closeErr  error
}

func newGroupConsumer(group sarama.ConsumerGroup, topic string) *groupConsumer {
	return &groupConsumer{
		group:    group,
		topic:    topic,
		messages: make(chan *domain.Message, 1),
		errors:   make(chan error, 1),
		ready:    make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start joins the group and blocks until the first partition assignment or
// failure. Rebalances mid-session rejoin transparently; capture continues
// from whatever partitions are reassigned.
func (c *groupConsumer) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	go func() {
		defer close(c.done)
		defer close(c.messages)
		for {
			if err := c.group.Consume(runCtx, []string{c.topic}, c); err != nil {
				if runCtx.Err() == nil {
					select {
					case c.errors <- err:
					default:
					}
				}
				return
			}
			// Consume returns nil on rebalance; rejoin unless cancelled.
			if runCtx.Err() != nil {
				return
			}
		}
	}()

	select {
	case <-c.ready:
		return nil
	case <-c.done:
		select {
		case err := <-c.errors:
			return err
		default:
			return fmt.Errorf("consumer group session ended before assignment")
		}
	case <-runCtx.Done():
		return runCtx.Err()
	}
}

func (c *groupConsumer) Messages() <-chan *domain.Message {
	return c.messages
}

func (c *groupConsumer) Errors() <-chan error {
	return c.errors
}

func (c *groupConsumer) Close() error {
	c.closeOnce.Do(func() {
		if c.cancel != nil {
			c.cancel()
			<-c.done
		}
		c.closeErr = c.group.Close()
	})
	return c.closeErr
}

// Setup implements sarama.ConsumerGroupHandler.
func (c *groupConsumer) Setup(sarama.ConsumerGroupSession) error {
	c.readyOnce.Do(func() { close(c.ready) })
	return nil
}

// Cleanup implements sarama.ConsumerGroupHandler.
func (c *groupConsumer) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim implements sarama.ConsumerGroupHandler.
func (c *groupConsumer) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		select {
		case c.messages <- convertMessage(msg):
			sess.MarkMessage(msg, "")
		case <-sess.Context().Done():
			return nil
		}
	}
	return nil
}

func convertMessage(msg *sarama.ConsumerMessage) *domain.Message {
	headers := make([]domain.Header, len(msg.Headers))
	for i, h := range msg.Headers {
		headers[i] = domain.Header{
			Key:   string(h.Key),
			Value: h.Value,
		}
	}

	return &domain.Message{
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Key:       msg.Key,
		Value:     msg.Value,
		Timestamp: msg.Timestamp,
		Headers:   headers,
	}
}
