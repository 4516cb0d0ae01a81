package core

import (
	"encoding/json"

	"github.com/dkeye/Canvas/internal/domain"
)

// PublishResult reports delivery stats/backpressure to orchestrator.
type PublishResult struct {
	SendTo  int
	Dropped []MemberSession
}

// RoomService is the core-facing API of a room.
// All mutations and their fan-out are serialized per room, so every
// member observes broadcasts in log order.
// It never touches transport resources beyond TrySend.
type RoomService interface {
	Room() *domain.Room
	MemberCount() int
	OpCount() int
	History() []domain.Operation
	Users() []domain.User

	// Join registers presence, sends history and users snapshots to ms
	// only, then announces the user to everyone else.
	Join(sid SessionID, ms MemberSession, user domain.User) PublishResult
	// Leave drops the member and its presence and announces it.
	Leave(sid SessionID) (domain.UserID, bool, PublishResult)
	// Append stores op and sends it to everyone but the sender.
	// The bool is false when op.ID was already in the log.
	Append(from SessionID, op domain.Operation) (domain.Operation, bool, PublishResult)
	// Undo deactivates the newest active op and tells every member.
	Undo(from SessionID) (domain.Operation, bool, PublishResult)
	MoveCursor(from SessionID, user domain.UserID, pos domain.Point) PublishResult
	// Relay forwards an ephemeral body to everyone but the sender.
	Relay(from SessionID, raw json.RawMessage) PublishResult
}

type RoomInfo struct {
	Name        domain.RoomName `json:"name"`
	MemberCount int             `json:"client_count"`
	OpCount     int             `json:"op_count"`
}

// RoomFactory creates rooms lazily. Rooms are never evicted.
type RoomFactory interface {
	GetOrCreate(name domain.RoomName) RoomService
	Get(name domain.RoomName) (RoomService, bool)
	List() []RoomInfo
}
