package core

import (
	"slices"
	"strings"

	"github.com/dkeye/Canvas/internal/domain"
)

// PresenceUpdate carries the fields to merge into a presence record.
// Zero fields leave the stored value alone.
type PresenceUpdate struct {
	Color  string
	Cursor *domain.Point
}

// PresenceTable maps connected users of one room to their metadata.
// Like OperationLog it relies on the owning room for locking.
type PresenceTable struct {
	users map[domain.UserID]*domain.User
}

func NewPresenceTable() *PresenceTable {
	return &PresenceTable{users: make(map[domain.UserID]*domain.User)}
}

// Upsert inserts the user or merges upd into the existing record.
func (t *PresenceTable) Upsert(id domain.UserID, upd PresenceUpdate) domain.User {
	u, ok := t.users[id]
	if !ok {
		u = &domain.User{ID: id}
		t.users[id] = u
	}
	if upd.Color != "" {
		u.Color = upd.Color
	}
	if upd.Cursor != nil {
		c := *upd.Cursor
		u.Cursor = &c
	}
	return copyUser(u)
}

// Update merges upd into an existing record only. Unknown ids are left
// absent so a late report cannot recreate a user without its color.
func (t *PresenceTable) Update(id domain.UserID, upd PresenceUpdate) (domain.User, bool) {
	if _, ok := t.users[id]; !ok {
		return domain.User{}, false
	}
	return t.Upsert(id, upd), true
}

// Remove is idempotent; it reports whether a record was deleted.
func (t *PresenceTable) Remove(id domain.UserID) bool {
	if _, ok := t.users[id]; !ok {
		return false
	}
	delete(t.users, id)
	return true
}

func (t *PresenceTable) Get(id domain.UserID) (domain.User, bool) {
	u, ok := t.users[id]
	if !ok {
		return domain.User{}, false
	}
	return copyUser(u), true
}

// List returns the records ordered by user id.
func (t *PresenceTable) List() []domain.User {
	out := make([]domain.User, 0, len(t.users))
	for _, u := range t.users {
		out = append(out, copyUser(u))
	}
	slices.SortFunc(out, func(a, b domain.User) int {
		return strings.Compare(string(a.ID), string(b.ID))
	})
	return out
}

func (t *PresenceTable) Len() int { return len(t.users) }

func copyUser(u *domain.User) domain.User {
	out := *u
	if u.Cursor != nil {
		c := *u.Cursor
		out.Cursor = &c
	}
	return out
}
