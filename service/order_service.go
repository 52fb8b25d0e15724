package service

import (
	"context"
	"time"

	"bistro/catalog"
	"bistro/domain/order"
	"bistro/domain/user"
	"bistro/metrics"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Allocator hands out unique order sequence numbers.
type Allocator interface {
	Allocate(ctx context.Context) (uint64, error)
}

// EventSink receives the payload of every appended order, keyed by its
// sequence number.
type EventSink interface {
	Put(seq uint64, payload []byte) error
}

// SubmitRequest is an order as received from a caller.
type SubmitRequest struct {
	Type      string
	RequestID string
	TakeOut   *order.TakeOutInfo
	Lines     []order.Line
}

/*
OrderService is the only writer of the order ledger.

A submission prices the lines against the published menu, allocates a
sequence number, appends the order and queues its event, in that order.
Nothing is written when pricing fails.
*/
type OrderService struct {
	store   *catalog.Store
	seq     Allocator
	events  EventSink
	roles   Roles
	metrics *metrics.Metrics
	log     *zap.Logger
	now     func() time.Time
}

type OrderOption func(*OrderService)

// WithEventSink queues an event for every appended order.
func WithEventSink(sink EventSink) OrderOption {
	return func(s *OrderService) { s.events = sink }
}

func WithOrderMetrics(m *metrics.Metrics) OrderOption {
	return func(s *OrderService) { s.metrics = m }
}

func WithOrderLogger(log *zap.Logger) OrderOption {
	return func(s *OrderService) { s.log = log }
}

func WithClock(now func() time.Time) OrderOption {
	return func(s *OrderService) { s.now = now }
}

// NewOrderService wires the ledger, the sequence source and the role
// resolver used by ListOrders.
func NewOrderService(store *catalog.Store, seq Allocator, roles Roles, opts ...OrderOption) *OrderService {
	s := &OrderService{
		store: store,
		seq:   seq,
		roles: roles,
		log:   zap.NewNop(),
		now:   time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

//
// ──────────────────────────────────────────────────────────
// Commands
// ──────────────────────────────────────────────────────────
//

// SubmitOrder prices and records an order. It needs no session. An order
// with no lines is rejected as an invalid argument.
func (s *OrderService) SubmitOrder(ctx context.Context, req SubmitRequest) (order.Order, error) {
	typ, err := order.ParseType(req.Type)
	if err != nil {
		return order.Order{}, newError(KindInvalidArgument, "type must be DINE_IN or TAKE_OUT")
	}

	// 1️⃣ Price against one snapshot
	bill, err := order.Price(req.Lines, s.store.Menu().PriceIndex())
	if err != nil {
		var unknown *order.UnknownItemError
		if errors.As(err, &unknown) {
			return order.Order{}, newError(KindNotFound, unknown.Error())
		}
		return order.Order{}, newError(KindInvalidArgument, err.Error())
	}

	// 2️⃣ Allocate identity
	seq, err := s.seq.Allocate(ctx)
	if err != nil {
		s.log.Error("order sequence allocation failed", zap.Error(err))
		return order.Order{}, internal(err, "allocate order id")
	}

	o := order.Order{
		ID:        order.FormatID(seq),
		Seq:       seq,
		Type:      typ,
		RequestID: req.RequestID,
		TakeOut:   req.TakeOut,
		Bill:      bill,
		CreatedAt: s.now().UTC(),
	}

	// 3️⃣ Append to the ledger
	if err := s.store.AppendOrder(ctx, o); err != nil {
		s.log.Error("order append failed", zap.String("order", o.ID), zap.Error(err))
		return order.Order{}, internal(err, "append order")
	}

	// 4️⃣ Queue the event (best-effort, the order stands)
	s.enqueue(o)

	s.metrics.OrderSubmitted(typ.String(), bill.SubtotalCents)
	s.log.Info("order submitted",
		zap.String("order", o.ID),
		zap.Stringer("type", typ),
		zap.String("request", o.RequestID),
		zap.Int("lines", len(bill.Lines)),
		zap.Int64("subtotal_cents", bill.SubtotalCents),
	)
	return o, nil
}

func (s *OrderService) enqueue(o order.Order) {
	if s.events == nil {
		return
	}
	payload, err := order.SubmittedEvent(o).Marshal()
	if err == nil {
		err = s.events.Put(o.Seq, payload)
	}
	if err != nil {
		s.metrics.Outbox(metrics.OutboxEnqueueErr)
		s.log.Warn("order event not queued", zap.String("order", o.ID), zap.Error(err))
	}
}

//
// ──────────────────────────────────────────────────────────
// Queries
// ──────────────────────────────────────────────────────────
//

// ListOrders returns the ledger in append order. Managers only.
func (s *OrderService) ListOrders(ctx context.Context) ([]order.Order, error) {
	if err := requireRole(ctx, s.roles, user.RoleManager); err != nil {
		return nil, err
	}
	orders, err := s.store.Orders(ctx)
	if err != nil {
		s.log.Error("ledger read failed", zap.Error(err))
		return nil, internal(err, "read ledger")
	}
	return orders, nil
}
