// Package sqlitestore keeps the catalog in a SQLite database: the menu as a
// single-row JSON document and the ledger as one row per order.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"bistro/domain/menu"
	"bistro/domain/order"
	"bistro/infra/storage"

	"github.com/cockroachdb/errors"
	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

var _ storage.Backend = (*Store)(nil)

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "sqlitestore: open %s", path)
	}
	// One connection: writers are already serialized by the catalog and
	// this keeps SQLITE_BUSY out of the picture.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "sqlitestore: journal mode")
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS menu_document (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			body TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS orders (
			seq INTEGER PRIMARY KEY,
			order_id TEXT NOT NULL UNIQUE,
			request_id TEXT NOT NULL,
			subtotal_cents INTEGER NOT NULL,
			record_json TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_orders_request ON orders(request_id);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return errors.Wrap(err, "sqlitestore: migrate")
		}
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) LoadMenu(ctx context.Context) (menu.Menu, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM menu_document WHERE id = 1`).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return menu.Menu{}, storage.ErrNoMenu
	}
	if err != nil {
		return menu.Menu{}, errors.Wrap(err, "sqlitestore: read menu")
	}
	return menu.UnmarshalDocument([]byte(body))
}

func (s *Store) SaveMenu(ctx context.Context, m menu.Menu) error {
	data, err := menu.MarshalDocument(m)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO menu_document (id, body, updated_at) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		string(data), time.Now().Unix(),
	)
	if err != nil {
		return errors.Wrap(err, "sqlitestore: write menu")
	}
	return nil
}

func (s *Store) AppendOrder(ctx context.Context, o order.Order) error {
	if o.Seq == 0 {
		return errors.Newf("sqlitestore: order %s has no sequence number", o.ID)
	}
	rec, err := json.Marshal(order.ToRecord(o))
	if err != nil {
		return errors.Wrap(err, "sqlitestore: encode order")
	}
	created := o.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO orders (seq, order_id, request_id, subtotal_cents, record_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		int64(o.Seq), o.ID, o.RequestID, o.Bill.SubtotalCents, string(rec), created.Unix(),
	)
	if err != nil {
		return errors.Wrap(err, "sqlitestore: append order")
	}
	return nil
}

func (s *Store) LoadOrders(ctx context.Context) ([]order.Order, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT record_json FROM orders ORDER BY seq`)
	if err != nil {
		return nil, errors.Wrap(err, "sqlitestore: read ledger")
	}
	defer rows.Close()

	out := []order.Order{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, errors.Wrap(err, "sqlitestore: scan order")
		}
		var rec order.Record
		if err := json.Unmarshal([]byte(body), &rec); err != nil {
			return nil, errors.Wrap(err, "sqlitestore: decode order")
		}
		o, err := order.FromRecord(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
