// Package order prices order lines against the menu and defines the
// immutable order record appended to the ledger.
package order

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

type Type int

const (
	TypeUnspecified Type = iota
	DineIn
	TakeOut
)

var ErrUnknownType = errors.New("unknown order type")

func (t Type) String() string {
	switch t {
	case DineIn:
		return "DINE_IN"
	case TakeOut:
		return "TAKE_OUT"
	default:
		return "ORDER_TYPE_UNSPECIFIED"
	}
}

func ParseType(s string) (Type, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DINE_IN":
		return DineIn, nil
	case "TAKE_OUT":
		return TakeOut, nil
	default:
		return TypeUnspecified, errors.Wrapf(ErrUnknownType, "%q", s)
	}
}

// Line is a requested item and quantity.
type Line struct {
	ItemID string
	Qty    int64
}

// BillLine is a priced line.
type BillLine struct {
	ItemID         string
	Qty            int64
	LineTotalCents int64
}

type Bill struct {
	Lines         []BillLine
	SubtotalCents int64
}

// TakeOutInfo is attached to TAKE_OUT orders.
type TakeOutInfo struct {
	CustomerName string
}

// Order is a ledger record. It is created once at submission and never
// modified afterwards.
type Order struct {
	ID        string
	Seq       uint64
	Type      Type
	RequestID string
	TakeOut   *TakeOutInfo
	Bill      Bill
	CreatedAt time.Time
}

// FormatID renders a ledger sequence number as an order identifier.
func FormatID(seq uint64) string {
	return fmt.Sprintf("o_%08d", seq)
}

// UnknownItemError reports a line whose itemID is not on the menu.
type UnknownItemError struct {
	ItemID string
}

func (e *UnknownItemError) Error() string {
	return fmt.Sprintf("Unknown itemID: %s", e.ItemID)
}

var (
	ErrNoLines         = errors.New("order must contain at least one line")
	ErrInvalidQuantity = errors.New("qty must be a positive integer")
	ErrOverflow        = errors.New("bill total overflows")
)

// Price computes the bill for lines using unit prices keyed by itemID.
// It is all-or-nothing: the first unknown item or invalid quantity aborts
// without a partial bill.
func Price(lines []Line, prices map[string]int64) (Bill, error) {
	if len(lines) == 0 {
		return Bill{}, ErrNoLines
	}
	bill := Bill{Lines: make([]BillLine, 0, len(lines))}
	for _, l := range lines {
		unit, ok := prices[l.ItemID]
		if !ok {
			return Bill{}, &UnknownItemError{ItemID: l.ItemID}
		}
		if l.Qty <= 0 {
			return Bill{}, errors.Wrapf(ErrInvalidQuantity, "itemID %s", l.ItemID)
		}
		if unit > 0 && l.Qty > math.MaxInt64/unit {
			return Bill{}, ErrOverflow
		}
		total := unit * l.Qty
		if bill.SubtotalCents > math.MaxInt64-total {
			return Bill{}, ErrOverflow
		}
		bill.SubtotalCents += total
		bill.Lines = append(bill.Lines, BillLine{ItemID: l.ItemID, Qty: l.Qty, LineTotalCents: total})
	}
	return bill, nil
}
