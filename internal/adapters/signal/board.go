package signal

import (
	"errors"

	"github.com/dkeye/Canvas/internal/core"
	"github.com/dkeye/Canvas/internal/domain"
	"github.com/dkeye/Canvas/internal/protocol"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleJoin(sid core.SessionID, reply core.SignalConnection, env protocol.Envelope) {
	var p protocol.JoinRequest
	if err := protocol.DecodeData(env, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad join payload")
		ctl.sendError(reply, "bad_payload")
		return
	}
	if err := ctl.Orch.Join(sid, p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("join rejected")
		ctl.sendError(reply, joinErrorCode(err))
	}
}

func joinErrorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrUserIDTooLong), errors.Is(err, domain.ErrUserIDEmpty):
		return "bad_user_id"
	case errors.Is(err, domain.ErrColorTooLong):
		return "bad_color"
	case errors.Is(err, domain.ErrRoomNameTooLong):
		return "bad_room"
	default:
		return "join_failed"
	}
}

func (ctl *SignalWSController) handleDrawStroke(sid core.SessionID, reply core.SignalConnection, env protocol.Envelope) {
	var p protocol.DrawStrokeRequest
	if err := protocol.DecodeData(env, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad draw_stroke payload")
		ctl.sendError(reply, "bad_payload")
		return
	}
	ctl.Orch.DrawStroke(sid, p)
}

func (ctl *SignalWSController) handleClearBoard(sid core.SessionID, reply core.SignalConnection, env protocol.Envelope) {
	var p protocol.ClearBoardRequest
	if err := protocol.DecodeData(env, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad clear_board payload")
		ctl.sendError(reply, "bad_payload")
		return
	}
	ctl.Orch.ClearBoard(sid, p)
}

// Cursor and live stroke events are telemetry; over the limit they are
// dropped without telling the client.

func (ctl *SignalWSController) handleCursorMove(sid core.SessionID, reply core.SignalConnection, env protocol.Envelope) {
	if !ctl.allow(sid) {
		return
	}
	var pos domain.Point
	if err := protocol.DecodeData(env, &pos); err != nil {
		log.Debug().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad cursor_move payload")
		ctl.sendError(reply, "bad_payload")
		return
	}
	ctl.Orch.MoveCursor(sid, pos)
}

func (ctl *SignalWSController) handleLiveStroke(sid core.SessionID, env protocol.Envelope) {
	if !ctl.allow(sid) {
		return
	}
	ctl.Orch.LiveStroke(sid, env.Data)
}

func (ctl *SignalWSController) allow(sid core.SessionID) bool {
	key := ctl.Orch.Registry.Client(sid)
	if key == "" {
		key = string(sid)
	}
	if ctl.limiter.Allow(key) {
		return true
	}
	if n := ctl.limiter.Rejected(key); n%100 == 1 {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Str("client", key).Int("rejected", n).Msg("rate limit exceeded")
	}
	return false
}
