package orch

import (
	"github.com/dkeye/Canvas/internal/core"
	"github.com/dkeye/Canvas/internal/domain"
	"github.com/dkeye/Canvas/internal/protocol"
	"github.com/rs/zerolog/log"
)

// Join binds sid to a room. Missing fields fall back to the default room
// and to the connection id. A session that is already bound leaves its
// current room first.
func (o *Orchestrator) Join(sid core.SessionID, req protocol.JoinRequest) error {
	roomName := req.RoomID
	if roomName == "" {
		roomName = o.defaultRoom()
	}
	if err := domain.ValidateRoomName(roomName); err != nil {
		return err
	}
	uid := req.UserID
	if uid == "" {
		uid = domain.UserID(sid)
	}
	user, err := domain.NewUser(uid, req.Color)
	if err != nil {
		return err
	}

	if prev, _, ok := o.Registry.Binding(sid); ok {
		o.leave(sid, prev)
		log.Info().Str("module", "orch").Str("sid", string(sid)).Str("from_room", string(prev.Room)).Msg("left room on rejoin")
	}

	session, ok := o.Registry.Bind(sid, domain.NewMember(user.ID, roomName))
	if !ok {
		return nil
	}
	room := o.Rooms.GetOrCreate(roomName)
	res := room.Join(sid, session, *user)
	o.handlePublish(room, res)
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(roomName)).Str("user", string(user.ID)).Msg("added to room")
	return nil
}

func (o *Orchestrator) leave(sid core.SessionID, member domain.Member) {
	room, ok := o.Rooms.Get(member.Room)
	if !ok {
		return
	}
	if _, ok, res := room.Leave(sid); ok {
		o.handlePublish(room, res)
	}
}

func (o *Orchestrator) defaultRoom() domain.RoomName {
	if o.DefaultRoom == "" {
		return domain.DefaultRoom
	}
	return o.DefaultRoom
}
