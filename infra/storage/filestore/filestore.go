// Package filestore keeps the menu and the order ledger as JSON documents
// in a directory, using the menu.json / orders.json layout.
//
// Every write goes to a temporary file in the same directory which is
// synced and then renamed over the target, so a reader sees either the
// old or the new document and a crash never leaves a torn file behind.
package filestore

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"bistro/domain/menu"
	"bistro/domain/order"
	"bistro/infra/storage"

	"github.com/cockroachdb/errors"
)

const (
	MenuFile   = "menu.json"
	OrdersFile = "orders.json"
)

type Store struct {
	dir string
}

var _ storage.Backend = (*Store)(nil)

// Open prepares dir for use, creating it if needed.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "filestore: create %s", dir)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}

func (s *Store) LoadMenu(ctx context.Context) (menu.Menu, error) {
	data, err := os.ReadFile(s.path(MenuFile))
	if errors.Is(err, fs.ErrNotExist) {
		return menu.Menu{}, storage.ErrNoMenu
	}
	if err != nil {
		return menu.Menu{}, errors.Wrap(err, "filestore: read menu")
	}
	return menu.UnmarshalDocument(data)
}

func (s *Store) SaveMenu(ctx context.Context, m menu.Menu) error {
	data, err := menu.MarshalDocument(m)
	if err != nil {
		return err
	}
	return writeAtomic(s.path(MenuFile), data)
}

func (s *Store) LoadOrders(ctx context.Context) ([]order.Order, error) {
	data, err := os.ReadFile(s.path(OrdersFile))
	if errors.Is(err, fs.ErrNotExist) {
		return []order.Order{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "filestore: read ledger")
	}
	return order.UnmarshalLedger(data)
}

// AppendOrder rewrites the whole ledger with o appended. Callers must
// serialize appends; two concurrent calls lose one record.
func (s *Store) AppendOrder(ctx context.Context, o order.Order) error {
	orders, err := s.LoadOrders(ctx)
	if err != nil {
		return err
	}
	orders = append(orders, o)
	data, err := order.MarshalLedger(orders)
	if err != nil {
		return err
	}
	return writeAtomic(s.path(OrdersFile), data)
}

func (s *Store) Close() error { return nil }

func writeAtomic(path string, data []byte) (err error) {
	dir, base := filepath.Split(path)
	tmp, err := os.CreateTemp(dir, base+".tmp-*")
	if err != nil {
		return errors.Wrapf(err, "filestore: temp for %s", base)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.Wrapf(err, "filestore: write %s", base)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return errors.Wrapf(err, "filestore: sync %s", base)
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrapf(err, "filestore: close %s", base)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return errors.Wrapf(err, "filestore: chmod %s", base)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrapf(err, "filestore: replace %s", base)
	}
	syncDir(dir)
	return nil
}

// syncDir makes the rename durable where the platform allows it.
func syncDir(dir string) {
	if dir == "" {
		dir = "."
	}
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}
