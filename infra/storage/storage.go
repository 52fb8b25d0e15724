// Package storage defines the durable backend behind the catalog store: a
// whole-document menu and an append-only order ledger.
//
// Backends make each write atomic with respect to readers. They do not
// serialize read-modify-write sequences; that is the catalog's job.
package storage

import (
	"context"

	"bistro/domain/menu"
	"bistro/domain/order"

	"github.com/cockroachdb/errors"
)

// ErrNoMenu is returned by LoadMenu when no menu document has been written.
var ErrNoMenu = errors.New("storage: no menu document")

type Backend interface {
	LoadMenu(ctx context.Context) (menu.Menu, error)
	SaveMenu(ctx context.Context, m menu.Menu) error
	LoadOrders(ctx context.Context) ([]order.Order, error)
	AppendOrder(ctx context.Context, o order.Order) error
	Close() error
}

// Kind names a backend implementation in configuration.
type Kind string

const (
	KindFile   Kind = "file"
	KindPebble Kind = "pebble"
	KindSQLite Kind = "sqlite"
)

func (k Kind) Valid() bool {
	switch k {
	case KindFile, KindPebble, KindSQLite:
		return true
	default:
		return false
	}
}
