package domain

// Member is a connection's binding to a room under a user identity.
// No transport or lifecycle logic here.
type Member struct {
	User UserID
	Room RoomName
}

func NewMember(user UserID, room RoomName) Member {
	return Member{User: user, Room: room}
}
