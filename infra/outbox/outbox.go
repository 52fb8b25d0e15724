// Package outbox is the durable queue of order events waiting to be
// published. Entries survive restarts and are removed once acknowledged.
package outbox

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
)

// -------------------- State --------------------

type State uint8

const (
	StateNew State = iota
	StateSent
	StateAcked
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateSent:
		return "SENT"
	case StateAcked:
		return "ACKED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// -------------------- Entry --------------------

type Entry struct {
	Seq         uint64
	State       State
	Retries     uint32
	LastAttempt time.Time
	Payload     []byte
}

const headerLen = 1 + 4 + 8

var ErrCorruptEntry = errors.New("outbox: corrupt entry")

// binary encoding: [state:1][retries:4][lastAttempt:8][payload...]
func encodeEntry(e Entry) []byte {
	buf := make([]byte, headerLen+len(e.Payload))
	buf[0] = byte(e.State)
	binary.BigEndian.PutUint32(buf[1:5], e.Retries)
	var last int64
	if !e.LastAttempt.IsZero() {
		last = e.LastAttempt.UnixNano()
	}
	binary.BigEndian.PutUint64(buf[5:13], uint64(last))
	copy(buf[headerLen:], e.Payload)
	return buf
}

func decodeEntry(seq uint64, b []byte) (Entry, error) {
	if len(b) < headerLen {
		return Entry{}, errors.Wrapf(ErrCorruptEntry, "seq %d: %d bytes", seq, len(b))
	}
	e := Entry{
		Seq:     seq,
		State:   State(b[0]),
		Retries: binary.BigEndian.Uint32(b[1:5]),
		Payload: append([]byte(nil), b[headerLen:]...),
	}
	if last := int64(binary.BigEndian.Uint64(b[5:13])); last != 0 {
		e.LastAttempt = time.Unix(0, last)
	}
	return e, nil
}

// -------------------- Outbox --------------------

type Outbox struct {
	db  *pebble.DB
	now func() time.Time
}

func Open(dir string) (*Outbox, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, errors.Wrapf(err, "outbox: open %s", dir)
	}
	return &Outbox{db: db, now: time.Now}, nil
}

func (o *Outbox) Close() error {
	return o.db.Close()
}

// -------------------- API --------------------

// Put stores a NEW entry for the order with sequence seq.
func (o *Outbox) Put(seq uint64, payload []byte) error {
	return o.db.Set(keyFor(seq), encodeEntry(Entry{State: StateNew, Payload: payload}), pebble.Sync)
}

// MarkSent records a delivery attempt in progress.
func (o *Outbox) MarkSent(seq uint64) error {
	return o.update(seq, StateSent, false)
}

// MarkFailed records a failed attempt; the entry is retried later.
func (o *Outbox) MarkFailed(seq uint64) error {
	return o.update(seq, StateFailed, true)
}

// Ack removes a delivered entry.
func (o *Outbox) Ack(seq uint64) error {
	return o.db.Delete(keyFor(seq), pebble.Sync)
}

// Get returns the entry for seq, or pebble.ErrNotFound.
func (o *Outbox) Get(seq uint64) (Entry, error) {
	val, closer, err := o.db.Get(keyFor(seq))
	if err != nil {
		return Entry{}, err
	}
	defer closer.Close()
	return decodeEntry(seq, val)
}

func (o *Outbox) update(seq uint64, state State, retry bool) error {
	e, err := o.Get(seq)
	if err != nil {
		return errors.Wrapf(err, "outbox: load seq %d", seq)
	}
	e.State = state
	e.LastAttempt = o.now()
	if retry {
		e.Retries++
	}
	return o.db.Set(keyFor(seq), encodeEntry(e), pebble.Sync)
}

// -------------------- Scan --------------------

// ScanPending visits NEW, SENT and FAILED entries in sequence order. An
// entry left SENT means the process stopped mid-delivery, so it is
// redelivered.
func (o *Outbox) ScanPending(fn func(Entry) error) error {
	iter, err := o.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(keyPrefix),
		UpperBound: []byte(keyPrefix + "~"),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		seq, err := parseKey(iter.Key())
		if err != nil {
			return err
		}
		e, err := decodeEntry(seq, iter.Value())
		if err != nil {
			return err
		}
		if e.State == StateAcked {
			continue
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return iter.Error()
}

// Pending counts entries not yet acknowledged.
func (o *Outbox) Pending() (int, error) {
	n := 0
	err := o.ScanPending(func(Entry) error {
		n++
		return nil
	})
	return n, err
}

// -------------------- Helpers --------------------

const keyPrefix = "event/"

func keyFor(seq uint64) []byte {
	return []byte(fmt.Sprintf(keyPrefix+"%020d", seq))
}

func parseKey(b []byte) (uint64, error) {
	var seq uint64
	_, err := fmt.Sscanf(string(bytes.TrimPrefix(b, []byte(keyPrefix))), "%d", &seq)
	if err != nil {
		return 0, errors.Wrapf(err, "outbox: bad key %q", b)
	}
	return seq, nil
}
