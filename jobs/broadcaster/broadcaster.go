package broadcaster

import (
	"context"
	"time"

	"bistro/domain/order"
	"bistro/infra/outbox"
	"bistro/metrics"

	"go.uber.org/zap"
)

// Publisher delivers one message to the order topic.
type Publisher interface {
	Publish(ctx context.Context, key, value []byte) error
	Close() error
}

// Broadcaster drains the outbox into a Publisher.
type Broadcaster struct {
	outbox   *outbox.Outbox
	pub      Publisher
	interval time.Duration
	log      *zap.Logger
	metrics  *metrics.Metrics
}

// ------------------------------------------------
// CONSTRUCTOR
// ------------------------------------------------

func New(
	ob *outbox.Outbox,
	pub Publisher,
	interval time.Duration,
	log *zap.Logger,
	m *metrics.Metrics,
) *Broadcaster {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Broadcaster{
		outbox:   ob,
		pub:      pub,
		interval: interval,
		log:      log,
		metrics:  m,
	}
}

// ------------------------------------------------
// LOOP
// ------------------------------------------------

// Run publishes pending events every interval until ctx is done.
func (b *Broadcaster) Run(ctx context.Context) {
	b.log.Info("broadcaster started", zap.Duration("interval", b.interval))

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.log.Info("broadcaster stopped")
			return

		case <-ticker.C:
			if _, err := b.PublishPending(ctx); err != nil {
				b.log.Warn("outbox scan failed", zap.Error(err))
			}
		}
	}
}

// ------------------------------------------------
// REPLAY LOGIC
// ------------------------------------------------

// PublishPending makes one pass over the outbox and returns how many
// events were delivered. A failed event stays in the outbox and is
// retried on the next pass.
func (b *Broadcaster) PublishPending(ctx context.Context) (int, error) {
	sent := 0
	err := b.outbox.ScanPending(func(e outbox.Entry) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		// 1. Mark SENT
		if err := b.outbox.MarkSent(e.Seq); err != nil {
			return err
		}

		// 2. Publish
		if err := b.pub.Publish(ctx, []byte(order.FormatID(e.Seq)), e.Payload); err != nil {
			b.metrics.Outbox(metrics.OutboxFailed)
			b.log.Warn("event publish failed",
				zap.Uint64("seq", e.Seq),
				zap.Uint32("retries", e.Retries),
				zap.Error(err),
			)
			return b.outbox.MarkFailed(e.Seq)
		}

		// 3. Ack and drop
		b.metrics.Outbox(metrics.OutboxPublished)
		sent++
		return b.outbox.Ack(e.Seq)
	})
	return sent, err
}

// ------------------------------------------------
// SHUTDOWN
// ------------------------------------------------

func (b *Broadcaster) Close() error {
	return b.pub.Close()
}
