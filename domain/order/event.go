package order

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
)

const (
	EventVersion   = 1
	EventSubmitted = "order.submitted"
)

// Event is the message published for every appended order.
type Event struct {
	V     int    `json:"v"`
	Type  string `json:"type"`
	Seq   uint64 `json:"seq"`
	Order Record `json:"order"`
}

func SubmittedEvent(o Order) Event {
	return Event{V: EventVersion, Type: EventSubmitted, Seq: o.Seq, Order: ToRecord(o)}
}

func (e Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// UnmarshalEvent decodes a published event and rejects versions it does
// not understand.
func UnmarshalEvent(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, errors.Wrap(err, "order: decode event")
	}
	if e.V != EventVersion {
		return Event{}, errors.Newf("order: unsupported event version %d", e.V)
	}
	return e, nil
}
