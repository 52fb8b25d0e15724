package order

import (
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
)

// Record is the JSON shape of a ledger entry. Field names follow the
// original orders.json so existing ledgers stay readable.
type Record struct {
	OrderID       string       `json:"orderID"`
	Seq           uint64       `json:"seq,omitempty"`
	Type          string       `json:"type"`
	RequestID     string       `json:"requestId"`
	TakeOut       *takeOutDoc  `json:"takeOut,omitempty"`
	SubtotalCents int64        `json:"subtotalCents"`
	Lines         []lineRecord `json:"lines"`
	CreatedAt     *time.Time   `json:"createdAt,omitempty"`
}

type takeOutDoc struct {
	CustomerName string `json:"customerName"`
}

type lineRecord struct {
	ItemID         string `json:"itemID"`
	Qty            int64  `json:"qty"`
	LineTotalCents int64  `json:"lineTotalCents"`
}

// ToRecord converts o to its document form.
func ToRecord(o Order) Record {
	r := Record{
		OrderID:       o.ID,
		Seq:           o.Seq,
		Type:          o.Type.String(),
		RequestID:     o.RequestID,
		SubtotalCents: o.Bill.SubtotalCents,
		Lines:         make([]lineRecord, 0, len(o.Bill.Lines)),
	}
	if o.TakeOut != nil {
		r.TakeOut = &takeOutDoc{CustomerName: o.TakeOut.CustomerName}
	}
	if !o.CreatedAt.IsZero() {
		ts := o.CreatedAt.UTC()
		r.CreatedAt = &ts
	}
	for _, l := range o.Bill.Lines {
		r.Lines = append(r.Lines, lineRecord(l))
	}
	return r
}

// FromRecord converts a document back into an Order.
func FromRecord(r Record) (Order, error) {
	t, err := ParseType(r.Type)
	if err != nil {
		return Order{}, errors.Wrapf(err, "order %s", r.OrderID)
	}
	o := Order{
		ID:        r.OrderID,
		Seq:       r.Seq,
		Type:      t,
		RequestID: r.RequestID,
		Bill: Bill{
			SubtotalCents: r.SubtotalCents,
			Lines:         make([]BillLine, 0, len(r.Lines)),
		},
	}
	if r.TakeOut != nil {
		o.TakeOut = &TakeOutInfo{CustomerName: r.TakeOut.CustomerName}
	}
	if r.CreatedAt != nil {
		o.CreatedAt = *r.CreatedAt
	}
	for _, l := range r.Lines {
		o.Bill.Lines = append(o.Bill.Lines, BillLine(l))
	}
	return o, nil
}

// MarshalLedger encodes a whole ledger as an indented JSON array.
func MarshalLedger(orders []Order) ([]byte, error) {
	recs := make([]Record, 0, len(orders))
	for _, o := range orders {
		recs = append(recs, ToRecord(o))
	}
	data, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "encode ledger")
	}
	return data, nil
}

// UnmarshalLedger decodes a JSON array of order records.
func UnmarshalLedger(data []byte) ([]Order, error) {
	var recs []Record
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, errors.Wrap(err, "decode ledger")
	}
	out := make([]Order, 0, len(recs))
	for _, r := range recs {
		o, err := FromRecord(r)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}
