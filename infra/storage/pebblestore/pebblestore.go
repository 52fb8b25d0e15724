// Package pebblestore keeps the catalog in a Pebble key-value store: the
// menu as one JSON document under a single key, and the ledger as one
// protobuf-encoded record per order keyed by sequence number.
package pebblestore

import (
	"context"
	"fmt"

	"bistro/domain/menu"
	"bistro/domain/order"
	"bistro/infra/storage"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
)

var (
	menuKey     = []byte("menu")
	orderPrefix = []byte("order/")
	orderUpper  = []byte("order/~")
)

type Store struct {
	db *pebble.DB
}

var _ storage.Backend = (*Store)(nil)

func Open(dir string) (*Store, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, errors.Wrapf(err, "pebblestore: open %s", dir)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) LoadMenu(ctx context.Context) (menu.Menu, error) {
	val, closer, err := s.db.Get(menuKey)
	if errors.Is(err, pebble.ErrNotFound) {
		return menu.Menu{}, storage.ErrNoMenu
	}
	if err != nil {
		return menu.Menu{}, errors.Wrap(err, "pebblestore: get menu")
	}
	defer closer.Close()
	// val is only valid until closer.Close; the decoder copies what it keeps.
	return menu.UnmarshalDocument(val)
}

// SaveMenu replaces the menu document. A single Set is atomic.
func (s *Store) SaveMenu(ctx context.Context, m menu.Menu) error {
	data, err := menu.MarshalDocument(m)
	if err != nil {
		return err
	}
	if err := s.db.Set(menuKey, data, pebble.Sync); err != nil {
		return errors.Wrap(err, "pebblestore: set menu")
	}
	return nil
}

func (s *Store) AppendOrder(ctx context.Context, o order.Order) error {
	if o.Seq == 0 {
		return errors.Newf("pebblestore: order %s has no sequence number", o.ID)
	}
	key := orderKey(o.Seq)
	if _, closer, err := s.db.Get(key); err == nil {
		closer.Close()
		return errors.Newf("pebblestore: ledger already holds sequence %d", o.Seq)
	} else if !errors.Is(err, pebble.ErrNotFound) {
		return errors.Wrap(err, "pebblestore: check ledger")
	}
	if err := s.db.Set(key, encodeOrder(o), pebble.Sync); err != nil {
		return errors.Wrap(err, "pebblestore: append order")
	}
	return nil
}

// LoadOrders returns the ledger in sequence order.
func (s *Store) LoadOrders(ctx context.Context) ([]order.Order, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: orderPrefix,
		UpperBound: orderUpper,
	})
	if err != nil {
		return nil, errors.Wrap(err, "pebblestore: iterate ledger")
	}
	defer iter.Close()

	out := []order.Order{}
	for iter.First(); iter.Valid(); iter.Next() {
		o, err := decodeOrder(iter.Value())
		if err != nil {
			return nil, errors.Wrapf(err, "key %s", iter.Key())
		}
		out = append(out, o)
	}
	if err := iter.Error(); err != nil {
		return nil, errors.Wrap(err, "pebblestore: iterate ledger")
	}
	return out, nil
}

func orderKey(seq uint64) []byte {
	return []byte(fmt.Sprintf("order/%020d", seq))
}
