package catalog

import (
	"context"
	"sync"
	"sync/atomic"

	"bistro/domain/menu"
	"bistro/domain/order"
	"bistro/infra/storage"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

type Store struct {
	backend storage.Backend
	log     *zap.Logger

	menuMu   sync.Mutex
	ledgerMu sync.Mutex

	current atomic.Pointer[menu.Menu]
}

// Open loads the menu from backend and publishes it. When the backend has
// no menu yet, seed is written and published instead.
func Open(ctx context.Context, backend storage.Backend, seed menu.Menu, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{backend: backend, log: log}

	m, err := backend.LoadMenu(ctx)
	switch {
	case errors.Is(err, storage.ErrNoMenu):
		if err := seed.Validate(); err != nil {
			return nil, errors.Wrap(err, "catalog: seed menu")
		}
		m = seed.Clone()
		if err := backend.SaveMenu(ctx, m); err != nil {
			return nil, errors.Wrap(err, "catalog: write seed menu")
		}
		log.Info("menu seeded", zap.Int("items", m.ItemCount()))
	case err != nil:
		return nil, errors.Wrap(err, "catalog: load menu")
	}
	s.current.Store(&m)
	return s, nil
}

// Menu returns the last published snapshot. The value is shared and must
// not be modified.
func (s *Store) Menu() menu.Menu {
	return *s.current.Load()
}

// UpdateMenu runs fn against the current snapshot while holding the menu
// writer lock, persists the result and publishes it. If fn or the write
// fails, nothing changes and the error is returned as is.
func (s *Store) UpdateMenu(ctx context.Context, fn func(cur menu.Menu) (menu.Menu, error)) (menu.Menu, error) {
	s.menuMu.Lock()
	defer s.menuMu.Unlock()

	next, err := fn(*s.current.Load())
	if err != nil {
		return menu.Menu{}, err
	}
	if err := s.publish(ctx, next); err != nil {
		return menu.Menu{}, err
	}
	return next, nil
}

// ReplaceMenu overwrites the whole menu.
func (s *Store) ReplaceMenu(ctx context.Context, m menu.Menu) error {
	if err := m.Validate(); err != nil {
		return err
	}
	s.menuMu.Lock()
	defer s.menuMu.Unlock()
	return s.publish(ctx, m.Clone())
}

// publish requires menuMu.
func (s *Store) publish(ctx context.Context, m menu.Menu) error {
	if err := s.backend.SaveMenu(ctx, m); err != nil {
		return errors.Wrap(err, "catalog: save menu")
	}
	s.current.Store(&m)
	return nil
}

// AppendOrder adds o to the ledger. Appends are serialized.
func (s *Store) AppendOrder(ctx context.Context, o order.Order) error {
	s.ledgerMu.Lock()
	defer s.ledgerMu.Unlock()
	if err := s.backend.AppendOrder(ctx, o); err != nil {
		return errors.Wrapf(err, "catalog: append order %s", o.ID)
	}
	return nil
}

// Orders returns the full ledger.
func (s *Store) Orders(ctx context.Context) ([]order.Order, error) {
	s.ledgerMu.Lock()
	defer s.ledgerMu.Unlock()
	orders, err := s.backend.LoadOrders(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "catalog: load ledger")
	}
	return orders, nil
}

// LastSeq returns the highest sequence number in the ledger, or the ledger
// length if that is larger (records written before sequence numbers were
// stored have none).
func (s *Store) LastSeq(ctx context.Context) (uint64, error) {
	orders, err := s.Orders(ctx)
	if err != nil {
		return 0, err
	}
	last := uint64(len(orders))
	for _, o := range orders {
		if o.Seq > last {
			last = o.Seq
		}
	}
	return last, nil
}

func (s *Store) Close() error {
	return s.backend.Close()
}
