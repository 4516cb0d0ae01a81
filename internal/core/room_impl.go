package core

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/dkeye/Canvas/internal/domain"
	"github.com/dkeye/Canvas/internal/protocol"
	"github.com/rs/zerolog/log"
)

// roomImpl is a threadsafe in-memory room.
// One mutex covers the log, presence and fan-out so that a room has a
// single writer at a time and sends leave in the order ops were stored.
// It never closes adapter-owned resources.
type roomImpl struct {
	room     *domain.Room
	mu       sync.Mutex
	ops      *OperationLog
	presence *PresenceTable
	bySID    map[SessionID]MemberSession
}

func NewRoomService(room *domain.Room) RoomService {
	if room.CreatedAt.IsZero() {
		room.CreatedAt = time.Now()
	}
	return &roomImpl{
		room:     room,
		ops:      NewOperationLog(),
		presence: NewPresenceTable(),
		bySID:    make(map[SessionID]MemberSession),
	}
}

func (r *roomImpl) Room() *domain.Room { return r.room }

func (r *roomImpl) MemberCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bySID)
}

func (r *roomImpl) OpCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ops.Len()
}

func (r *roomImpl) History() []domain.Operation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ops.Snapshot()
}

func (r *roomImpl) Users() []domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.presence.List()
}

func (r *roomImpl) Join(sid SessionID, ms MemberSession, user domain.User) PublishResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.bySID[sid] = ms
	stored := r.presence.Upsert(user.ID, PresenceUpdate{Color: user.Color, Cursor: user.Cursor})
	log.Info().Str("module", "core.room").Str("room", string(r.room.Name)).Str("sid", string(sid)).Str("user", string(user.ID)).Msg("member added")

	res := PublishResult{}
	r.sendLocked(&res, ms, protocol.EventHistorySync, r.ops.Snapshot())
	r.sendLocked(&res, ms, protocol.EventUsersSync, r.presence.List())
	r.fanoutLocked(&res, sid, protocol.EventUserJoined, stored)
	return res
}

func (r *roomImpl) Leave(sid SessionID) (domain.UserID, bool, PublishResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ms, ok := r.bySID[sid]
	if !ok {
		return "", false, PublishResult{}
	}
	delete(r.bySID, sid)
	uid := ms.Meta().User
	log.Info().Str("module", "core.room").Str("room", string(r.room.Name)).Str("sid", string(sid)).Str("user", string(uid)).Msg("member removed")

	res := PublishResult{}
	// Another tab of the same user keeps the presence record alive.
	if r.userBoundLocked(uid) {
		return uid, true, res
	}
	r.presence.Remove(uid)
	r.fanoutLocked(&res, sid, protocol.EventUserLeft, protocol.UserLeft{UserID: uid})
	return uid, true, res
}

func (r *roomImpl) Append(from SessionID, op domain.Operation) (domain.Operation, bool, PublishResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.ops.Append(op)
	if !ok {
		log.Debug().Str("module", "core.room").Str("room", string(r.room.Name)).Str("op", stored.ID).Msg("duplicate op id, not stored")
		return stored, false, PublishResult{}
	}
	res := PublishResult{}
	r.fanoutLocked(&res, from, protocol.EventOpNew, stored)
	return stored, true, res
}

func (r *roomImpl) Undo(from SessionID) (domain.Operation, bool, PublishResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	undone, ok := r.ops.UndoLast()
	if !ok {
		return domain.Operation{}, false, PublishResult{}
	}
	res := PublishResult{}
	r.fanoutLocked(&res, "", protocol.EventOpUndo, protocol.OpUndo{ID: undone.ID})
	return undone, true, res
}

func (r *roomImpl) MoveCursor(from SessionID, user domain.UserID, pos domain.Point) PublishResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := PublishResult{}
	if _, ok := r.presence.Update(user, PresenceUpdate{Cursor: &pos}); !ok {
		return res
	}
	r.fanoutLocked(&res, from, protocol.EventCursorUpdate, protocol.CursorUpdate{UserID: user, Position: pos})
	return res
}

func (r *roomImpl) Relay(from SessionID, raw json.RawMessage) PublishResult {
	frame, err := protocol.Relay(protocol.EventLiveStroke, raw)
	if err != nil {
		log.Warn().Err(err).Str("module", "core.room").Str("sid", string(from)).Msg("relay body rejected")
		return PublishResult{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	res := PublishResult{}
	r.deliverLocked(&res, from, Frame(frame))
	return res
}

func (r *roomImpl) sendLocked(res *PublishResult, ms MemberSession, t protocol.EventType, v any) {
	frame, err := protocol.Encode(t, v)
	if err != nil {
		log.Error().Err(err).Str("module", "core.room").Msg("encode")
		return
	}
	if err := ms.Signal().TrySend(frame); err != nil {
		res.Dropped = append(res.Dropped, ms)
		return
	}
	res.SendTo++
}

// fanoutLocked sends to every member except skip. An empty skip reaches all.
func (r *roomImpl) fanoutLocked(res *PublishResult, skip SessionID, t protocol.EventType, v any) {
	frame, err := protocol.Encode(t, v)
	if err != nil {
		log.Error().Err(err).Str("module", "core.room").Msg("encode")
		return
	}
	sent, dropped := r.deliverLocked(res, skip, Frame(frame))
	log.Debug().Str("module", "core.room").Str("room", string(r.room.Name)).Str("event", string(t)).Int("sent_to", sent).Int("dropped", dropped).Msg("broadcast result")
}

// deliverLocked adds to res and reports the counts of this delivery alone.
func (r *roomImpl) deliverLocked(res *PublishResult, skip SessionID, frame Frame) (sent, dropped int) {
	for sid, m := range r.bySID {
		if skip != "" && sid == skip {
			continue
		}
		if err := m.Signal().TrySend(frame); err != nil {
			res.Dropped = append(res.Dropped, m)
			dropped++
			continue
		}
		res.SendTo++
		sent++
	}
	return sent, dropped
}

func (r *roomImpl) userBoundLocked(uid domain.UserID) bool {
	for _, m := range r.bySID {
		if m.Meta().User == uid {
			return true
		}
	}
	return false
}
