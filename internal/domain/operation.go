package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

type OpType string

const (
	OpDrawStroke OpType = "draw_stroke"
	OpClear      OpType = "clear"
)

var ErrUnknownOpType = errors.New("unknown operation type")

// Payload is the closed set of operation bodies.
type Payload interface {
	Kind() OpType
	isPayload()
}

// DrawStroke is a finished stroke. Geometry is not validated.
type DrawStroke struct {
	Points []Point `json:"points"`
	Color  string  `json:"color"`
	Width  float64 `json:"width"`
}

func (DrawStroke) Kind() OpType { return OpDrawStroke }
func (DrawStroke) isPayload()   {}

// Clear resets the whole canvas when replayed. It carries no data.
type Clear struct{}

func (Clear) Kind() OpType { return OpClear }
func (Clear) isPayload()   {}

// Operation is one entry of a room's history.
// Active is the only field that changes after the entry is stored.
type Operation struct {
	ID        string
	Type      OpType
	UserID    UserID // empty for system-originated operations
	Payload   Payload
	Timestamp int64 // unix milliseconds, server assigned
	Active    bool
}

type operationJSON struct {
	ID        string          `json:"id"`
	Type      OpType          `json:"type"`
	UserID    *UserID         `json:"userId"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
	Active    bool            `json:"active"`
}

func (o Operation) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(o.Payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", o.Type, err)
	}
	w := operationJSON{
		ID:        o.ID,
		Type:      o.Type,
		Data:      data,
		Timestamp: o.Timestamp,
		Active:    o.Active,
	}
	if o.UserID != "" {
		uid := o.UserID
		w.UserID = &uid
	}
	return json.Marshal(w)
}

func (o *Operation) UnmarshalJSON(b []byte) error {
	var w operationJSON
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	p, err := DecodePayload(w.Type, w.Data)
	if err != nil {
		return err
	}
	*o = Operation{
		ID:        w.ID,
		Type:      w.Type,
		Payload:   p,
		Timestamp: w.Timestamp,
		Active:    w.Active,
	}
	if w.UserID != nil {
		o.UserID = *w.UserID
	}
	return nil
}

// DecodePayload maps a type tag and its raw body onto the closed payload set.
func DecodePayload(t OpType, data json.RawMessage) (Payload, error) {
	switch t {
	case OpDrawStroke:
		var s DrawStroke
		if len(data) > 0 {
			if err := json.Unmarshal(data, &s); err != nil {
				return nil, fmt.Errorf("decode %s: %w", t, err)
			}
		}
		return s, nil
	case OpClear:
		return Clear{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownOpType, t)
	}
}
