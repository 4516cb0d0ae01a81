// Package orch drives a connection through unbound -> bound -> closed and
// turns its events into room operations.
package orch

import (
	"context"

	"github.com/dkeye/Canvas/internal/app"
	"github.com/dkeye/Canvas/internal/core"
	"github.com/dkeye/Canvas/internal/domain"
	"github.com/rs/zerolog/log"
)

type Orchestrator struct {
	Registry    *app.Registry
	Rooms       core.RoomFactory
	Policy      app.Policy
	DefaultRoom domain.RoomName
}

// Connect registers a new transport connection in the unbound state.
func (o *Orchestrator) Connect(sid core.SessionID, conn core.SignalConnection, client string, cancel context.CancelFunc) {
	o.Registry.BindSignal(sid, conn, client, cancel)
}

// Disconnect is the terminal transition. History is left untouched.
func (o *Orchestrator) Disconnect(sid core.SessionID) {
	member, wasBound := o.Registry.Close(sid)
	if !wasBound {
		return
	}
	o.leave(sid, member)
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(member.Room)).Msg("disconnected")
}

// bound resolves the room of sid, or reports false for sessions that have
// not joined yet. Those events are dropped without an error.
func (o *Orchestrator) bound(sid core.SessionID, event string) (domain.Member, core.RoomService, bool) {
	member, _, ok := o.Registry.Binding(sid)
	if !ok {
		log.Debug().Str("module", "orch").Str("sid", string(sid)).Str("event", event).Msg("ignored on unbound session")
		return domain.Member{}, nil, false
	}
	return member, o.Rooms.GetOrCreate(member.Room), true
}

func (o *Orchestrator) handlePublish(room core.RoomService, res core.PublishResult) {
	if o.Policy == nil {
		return
	}
	for _, slow := range res.Dropped {
		switch o.Policy.OnBackPressure(room, slow) {
		case app.KickMember:
			log.Warn().Str("module", "orch").Str("room", string(room.Room().Name)).Str("user", string(slow.Meta().User)).Msg("kicking slow member")
			slow.Signal().Close()
		case app.NoAction:
		}
	}
}
