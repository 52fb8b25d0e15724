package kafka

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/segmentio/kafka-go"
)

// Header keys set on every order event.
const (
	HeaderContentType = "content-type"
	HeaderOrderID     = "order-id"
)

const contentTypeJSON = "application/json"

// messageWriter is the part of *kafka.Writer the producer uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes order events with kafka-go. Events for one order id
// hash to one partition, so a consumer sees them in order.
type Producer struct {
	topic  string
	writer messageWriter
}

func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{
		topic: topic,
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			BatchTimeout:           10 * time.Millisecond,
			AllowAutoTopicCreation: true,
		},
	}
}

// Publish writes the event for order key and blocks until every in-sync
// replica has it.
func (p *Producer) Publish(ctx context.Context, key, value []byte) error {
	err := p.writer.WriteMessages(ctx, eventMessage(key, value))
	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil:
		return errors.Wrapf(ctx.Err(), "kafka: publish %s to %s", key, p.topic)
	default:
		return errors.Wrapf(err, "kafka: publish %s to %s", key, p.topic)
	}
}

func eventMessage(key, value []byte) kafka.Message {
	return kafka.Message{
		Key:   key,
		Value: value,
		Headers: []kafka.Header{
			{Key: HeaderContentType, Value: []byte(contentTypeJSON)},
			{Key: HeaderOrderID, Value: key},
		},
	}
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
