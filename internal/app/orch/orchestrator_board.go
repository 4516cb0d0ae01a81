package orch

import (
	"encoding/json"

	"github.com/dkeye/Canvas/internal/core"
	"github.com/dkeye/Canvas/internal/domain"
	"github.com/dkeye/Canvas/internal/protocol"
	"github.com/rs/zerolog/log"
)

// DrawStroke appends a finished stroke and forwards it to the room.
func (o *Orchestrator) DrawStroke(sid core.SessionID, req protocol.DrawStrokeRequest) {
	o.appendOp(sid, string(protocol.EventDrawStroke), req.ID, req.DrawStroke)
}

// ClearBoard appends a clear. Prior history stays in the log.
func (o *Orchestrator) ClearBoard(sid core.SessionID, req protocol.ClearBoardRequest) {
	o.appendOp(sid, string(protocol.EventClearBoard), req.ID, domain.Clear{})
}

func (o *Orchestrator) appendOp(sid core.SessionID, event, id string, payload domain.Payload) {
	member, room, ok := o.bound(sid, event)
	if !ok {
		return
	}
	stored, appended, res := room.Append(sid, domain.Operation{
		ID:      id,
		UserID:  member.User,
		Payload: payload,
	})
	if !appended {
		return
	}
	o.handlePublish(room, res)
	log.Debug().Str("module", "orch").Str("sid", string(sid)).Str("room", string(member.Room)).Str("op", stored.ID).Str("type", string(stored.Type)).Msg("op stored")
}

// Undo deactivates the room's newest active op, whoever drew it.
func (o *Orchestrator) Undo(sid core.SessionID) {
	member, room, ok := o.bound(sid, string(protocol.EventUndo))
	if !ok {
		return
	}
	undone, ok, res := room.Undo(sid)
	if !ok {
		return
	}
	o.handlePublish(room, res)
	log.Debug().Str("module", "orch").Str("sid", string(sid)).Str("room", string(member.Room)).Str("op", undone.ID).Msg("op undone")
}

func (o *Orchestrator) MoveCursor(sid core.SessionID, pos domain.Point) {
	member, room, ok := o.bound(sid, string(protocol.EventCursorMove))
	if !ok {
		return
	}
	o.handlePublish(room, room.MoveCursor(sid, member.User, pos))
}

// LiveStroke relays an in-progress stroke preview. It is never stored.
func (o *Orchestrator) LiveStroke(sid core.SessionID, raw json.RawMessage) {
	_, room, ok := o.bound(sid, string(protocol.EventLiveStroke))
	if !ok {
		return
	}
	o.handlePublish(room, room.Relay(sid, raw))
}
