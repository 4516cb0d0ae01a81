// Package protocol defines the events exchanged over a drawing connection.
// Every frame is a JSON text message of the form {"type": ..., "data": ...}.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/dkeye/Canvas/internal/domain"
)

// EventType names an inbound or outbound event.
type EventType string

// Inbound (client -> server).
const (
	EventJoin       EventType = "join"
	EventDrawStroke EventType = "draw_stroke"
	EventClearBoard EventType = "clear_board"
	EventUndo       EventType = "undo"
	EventCursorMove EventType = "cursor_move"
	EventLiveStroke EventType = "live_stroke"
)

// Outbound (server -> client). live_stroke is relayed under its inbound name.
const (
	EventHistorySync  EventType = "history_sync"
	EventUsersSync    EventType = "users_sync"
	EventUserJoined   EventType = "user_joined"
	EventUserLeft     EventType = "user_left"
	EventOpNew        EventType = "op_new"
	EventOpUndo       EventType = "op_undo"
	EventCursorUpdate EventType = "cursor_update"
	EventError        EventType = "error"
)

// Envelope is the outer shape of every frame.
type Envelope struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type JoinRequest struct {
	UserID domain.UserID   `json:"userId,omitempty"`
	Color  string          `json:"color,omitempty"`
	RoomID domain.RoomName `json:"roomId,omitempty"`
}

type DrawStrokeRequest struct {
	ID string `json:"id"`
	domain.DrawStroke
}

type ClearBoardRequest struct {
	ID string `json:"id"`
}

type UserLeft struct {
	UserID domain.UserID `json:"userId"`
}

type OpUndo struct {
	ID string `json:"id"`
}

type CursorUpdate struct {
	UserID   domain.UserID `json:"userId"`
	Position domain.Point  `json:"position"`
}

type ErrorMessage struct {
	Error string `json:"error"`
}

// Encode wraps v into an envelope of the given type.
func Encode(t EventType, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", t, err)
	}
	return json.Marshal(Envelope{Type: t, Data: data})
}

// Relay wraps an already encoded body without touching it.
func Relay(t EventType, raw json.RawMessage) ([]byte, error) {
	if len(raw) == 0 {
		raw = json.RawMessage("null")
	}
	return json.Marshal(Envelope{Type: t, Data: raw})
}

// Decode reads the envelope of an inbound frame.
func Decode(frame []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	return env, nil
}

// DecodeData unmarshals the body of an envelope into v.
// An absent body leaves v untouched.
func DecodeData(env Envelope, v any) error {
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return fmt.Errorf("decode %s data: %w", env.Type, err)
	}
	return nil
}
