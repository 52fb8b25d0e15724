package broadcaster

import (
	"context"
	"errors"
	"testing"

	"bistro/infra/outbox"
	"bistro/metrics"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/cockroachdb/pebble"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap/zaptest"
)

func openOutbox(t *testing.T) *outbox.Outbox {
	t.Helper()
	ob, err := outbox.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ob.Close() })
	return ob
}

func TestPublishPendingAcks(t *testing.T) {
	ob := openOutbox(t)
	for seq := uint64(1); seq <= 3; seq++ {
		if err := ob.Put(seq, []byte(`{"v":1}`)); err != nil {
			t.Fatal(err)
		}
	}

	producer := mocks.NewSyncProducer(t, nil)
	for i := 0; i < 3; i++ {
		producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
			if string(val) != `{"v":1}` {
				return errors.New("unexpected payload " + string(val))
			}
			return nil
		})
	}
	m := metrics.New()
	b := New(ob, NewSaramaPublisherWith(producer, "bistro.orders"), 0, zaptest.NewLogger(t), m)
	defer b.Close()

	sent, err := b.PublishPending(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if sent != 3 {
		t.Fatalf("sent = %d", sent)
	}
	if n, _ := ob.Pending(); n != 0 {
		t.Errorf("pending after publish = %d", n)
	}
	if _, err := ob.Get(2); !errors.Is(err, pebble.ErrNotFound) {
		t.Errorf("acked entry still stored: %v", err)
	}
	if got := testutil.ToFloat64(m.OutboxCounter(metrics.OutboxPublished)); got != 3 {
		t.Errorf("published metric = %v", got)
	}
}

func TestPublishFailureRetriesNextPass(t *testing.T) {
	ob := openOutbox(t)
	if err := ob.Put(9, []byte("payload")); err != nil {
		t.Fatal(err)
	}

	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndFail(sarama.ErrNotLeaderForPartition)
	producer.ExpectSendMessageAndSucceed()
	b := New(ob, NewSaramaPublisherWith(producer, "bistro.orders"), 0, zaptest.NewLogger(t), nil)
	defer b.Close()

	sent, err := b.PublishPending(context.Background())
	if err != nil || sent != 0 {
		t.Fatalf("first pass = %d, %v", sent, err)
	}
	e, err := ob.Get(9)
	if err != nil {
		t.Fatal(err)
	}
	if e.State != outbox.StateFailed || e.Retries != 1 {
		t.Fatalf("entry after failure = %+v", e)
	}

	sent, err = b.PublishPending(context.Background())
	if err != nil || sent != 1 {
		t.Fatalf("second pass = %d, %v", sent, err)
	}
}

type recordingPublisher struct {
	keys []string
}

func (p *recordingPublisher) Publish(_ context.Context, key, _ []byte) error {
	p.keys = append(p.keys, string(key))
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func TestPublishKeysByOrderID(t *testing.T) {
	ob := openOutbox(t)
	ob.Put(2, []byte("b"))
	ob.Put(1, []byte("a"))

	pub := &recordingPublisher{}
	b := New(ob, pub, 0, nil, nil)
	if _, err := b.PublishPending(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(pub.keys) != 2 || pub.keys[0] != "o_00000001" || pub.keys[1] != "o_00000002" {
		t.Errorf("keys = %v", pub.keys)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ob := openOutbox(t)
	b := New(ob, &recordingPublisher{}, 0, zaptest.NewLogger(t), nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.Run(ctx)
		close(done)
	}()
	cancel()
	<-done
}
