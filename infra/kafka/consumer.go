package kafka

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/segmentio/kafka-go"
)

// Consumer reads the order topic as part of a consumer group.
type Consumer struct {
	reader *kafka.Reader
}

func NewConsumer(brokers []string, topic, group string) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:        brokers,
			Topic:          topic,
			GroupID:        group,
			MinBytes:       1,
			MaxBytes:       1 << 20,
			MaxWait:        500 * time.Millisecond,
			CommitInterval: time.Second,
		}),
	}
}

// Run calls fn for every message until ctx is done. A handler error stops
// the loop.
func (c *Consumer) Run(ctx context.Context, fn func(key, value []byte) error) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "kafka: read message")
		}
		if err := fn(msg.Key, msg.Value); err != nil {
			return errors.Wrapf(err, "kafka: handle offset %d", msg.Offset)
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
