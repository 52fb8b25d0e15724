package pebblestore

import (
	"encoding/binary"
	"hash/crc32"
	"time"

	"bistro/domain/order"

	"github.com/cockroachdb/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

// ErrCorruptRecord is returned when a ledger value fails its length or
// checksum check.
var ErrCorruptRecord = errors.New("pebblestore: corrupt ledger record")

// Ledger record field numbers (protobuf wire format).
const (
	fieldID        protowire.Number = 1
	fieldSeq       protowire.Number = 2
	fieldType      protowire.Number = 3
	fieldRequestID protowire.Number = 4
	fieldTakeOut   protowire.Number = 5
	fieldSubtotal  protowire.Number = 6
	fieldLine      protowire.Number = 7
	fieldCreatedAt protowire.Number = 8

	fieldCustomerName protowire.Number = 1

	fieldLineItemID protowire.Number = 1
	fieldLineQty    protowire.Number = 2
	fieldLineTotal  protowire.Number = 3
)

const headerSize = 8

// encodeOrder renders o as [len:4][crc:4][protobuf body], little endian.
func encodeOrder(o order.Order) []byte {
	var body []byte
	body = protowire.AppendTag(body, fieldID, protowire.BytesType)
	body = protowire.AppendString(body, o.ID)
	body = protowire.AppendTag(body, fieldSeq, protowire.VarintType)
	body = protowire.AppendVarint(body, o.Seq)
	body = protowire.AppendTag(body, fieldType, protowire.VarintType)
	body = protowire.AppendVarint(body, uint64(o.Type))
	body = protowire.AppendTag(body, fieldRequestID, protowire.BytesType)
	body = protowire.AppendString(body, o.RequestID)
	if o.TakeOut != nil {
		var to []byte
		to = protowire.AppendTag(to, fieldCustomerName, protowire.BytesType)
		to = protowire.AppendString(to, o.TakeOut.CustomerName)
		body = protowire.AppendTag(body, fieldTakeOut, protowire.BytesType)
		body = protowire.AppendBytes(body, to)
	}
	body = protowire.AppendTag(body, fieldSubtotal, protowire.VarintType)
	body = protowire.AppendVarint(body, uint64(o.Bill.SubtotalCents))
	for _, l := range o.Bill.Lines {
		var lb []byte
		lb = protowire.AppendTag(lb, fieldLineItemID, protowire.BytesType)
		lb = protowire.AppendString(lb, l.ItemID)
		lb = protowire.AppendTag(lb, fieldLineQty, protowire.VarintType)
		lb = protowire.AppendVarint(lb, uint64(l.Qty))
		lb = protowire.AppendTag(lb, fieldLineTotal, protowire.VarintType)
		lb = protowire.AppendVarint(lb, uint64(l.LineTotalCents))
		body = protowire.AppendTag(body, fieldLine, protowire.BytesType)
		body = protowire.AppendBytes(body, lb)
	}
	if !o.CreatedAt.IsZero() {
		body = protowire.AppendTag(body, fieldCreatedAt, protowire.VarintType)
		body = protowire.AppendVarint(body, uint64(o.CreatedAt.UnixNano()))
	}

	out := make([]byte, headerSize, headerSize+len(body))
	binary.LittleEndian.PutUint32(out[:4], uint32(len(body)))
	binary.LittleEndian.PutUint32(out[4:8], crc32.ChecksumIEEE(body))
	return append(out, body...)
}

func decodeOrder(data []byte) (order.Order, error) {
	if len(data) < headerSize {
		return order.Order{}, ErrCorruptRecord
	}
	size := binary.LittleEndian.Uint32(data[:4])
	body := data[headerSize:]
	if int(size) != len(body) || crc32.ChecksumIEEE(body) != binary.LittleEndian.Uint32(data[4:8]) {
		return order.Order{}, ErrCorruptRecord
	}

	var o order.Order
	err := walkFields(body, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == fieldID && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			o.ID = v
			return n, nil
		case num == fieldSeq && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			o.Seq = v
			return n, nil
		case num == fieldType && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			o.Type = order.Type(v)
			return n, nil
		case num == fieldRequestID && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			o.RequestID = v
			return n, nil
		case num == fieldTakeOut && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			to, err := decodeTakeOut(v)
			o.TakeOut = to
			return n, err
		case num == fieldSubtotal && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			o.Bill.SubtotalCents = int64(v)
			return n, nil
		case num == fieldLine && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			line, err := decodeLine(v)
			o.Bill.Lines = append(o.Bill.Lines, line)
			return n, err
		case num == fieldCreatedAt && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			o.CreatedAt = time.Unix(0, int64(v)).UTC()
			return n, nil
		default:
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
	})
	if err != nil {
		return order.Order{}, err
	}
	return o, nil
}

func decodeTakeOut(b []byte) (*order.TakeOutInfo, error) {
	to := &order.TakeOutInfo{}
	err := walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == fieldCustomerName && typ == protowire.BytesType {
			v, n := protowire.ConsumeString(b)
			to.CustomerName = v
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	return to, err
}

func decodeLine(b []byte) (order.BillLine, error) {
	var l order.BillLine
	err := walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == fieldLineItemID && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			l.ItemID = v
			return n, nil
		case num == fieldLineQty && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			l.Qty = int64(v)
			return n, nil
		case num == fieldLineTotal && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			l.LineTotalCents = int64(v)
			return n, nil
		default:
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
	})
	return l, err
}

// walkFields calls fn for every field in b. fn consumes the field value
// and returns the number of bytes read, negative on a parse failure.
func walkFields(b []byte, fn func(protowire.Number, protowire.Type, []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return errors.Wrap(protowire.ParseError(n), "pebblestore: decode tag")
		}
		b = b[n:]
		m, err := fn(num, typ, b)
		if err != nil {
			return err
		}
		if m < 0 {
			return errors.Wrap(protowire.ParseError(m), "pebblestore: decode field")
		}
		b = b[m:]
	}
	return nil
}
