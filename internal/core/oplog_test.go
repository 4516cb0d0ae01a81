package core

import (
	"strconv"
	"testing"
	"time"

	"github.com/dkeye/Canvas/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stroke(id string) domain.Operation {
	return domain.Operation{
		ID:     id,
		UserID: "u1",
		Payload: domain.DrawStroke{
			Points: []domain.Point{{X: 0, Y: 0}, {X: 10, Y: 10}},
			Color:  "#000",
			Width:  4,
		},
	}
}

func activeIDs(ops []domain.Operation) []string {
	var out []string
	for _, op := range ops {
		if op.Active {
			out = append(out, op.ID)
		}
	}
	return out
}

func TestAppendStampsAndActivates(t *testing.T) {
	l := NewOperationLog()

	stored, ok := l.Append(stroke("a"))
	require.True(t, ok)
	assert.Equal(t, "a", stored.ID)
	assert.Equal(t, domain.OpDrawStroke, stored.Type)
	assert.True(t, stored.Active)
	assert.NotZero(t, stored.Timestamp)
	assert.Equal(t, 1, l.Len())
}

func TestAppendAssignsMissingID(t *testing.T) {
	l := NewOperationLog()
	l.newID = func() string { return "generated" }

	stored, ok := l.Append(domain.Operation{Payload: domain.Clear{}})
	require.True(t, ok)
	assert.Equal(t, "generated", stored.ID)
	assert.Equal(t, domain.OpClear, stored.Type)
}

func TestAppendDuplicateIDIsIdempotent(t *testing.T) {
	l := NewOperationLog()
	first, _ := l.Append(stroke("a"))

	again := stroke("a")
	again.UserID = "someone-else"
	stored, ok := l.Append(again)

	assert.False(t, ok)
	assert.Equal(t, first, stored)
	assert.Equal(t, 1, l.Len())
}

func TestTimestampsNeverDecrease(t *testing.T) {
	l := NewOperationLog()
	clock := []time.Time{
		time.UnixMilli(2000),
		time.UnixMilli(1000),
		time.UnixMilli(3000),
	}
	i := 0
	l.now = func() time.Time {
		ts := clock[i]
		i++
		return ts
	}

	a, _ := l.Append(stroke("a"))
	b, _ := l.Append(stroke("b"))
	c, _ := l.Append(stroke("c"))

	assert.Equal(t, int64(2000), a.Timestamp)
	assert.Equal(t, int64(2000), b.Timestamp)
	assert.Equal(t, int64(3000), c.Timestamp)
}

func TestUndoOnEmptyLog(t *testing.T) {
	l := NewOperationLog()

	_, ok := l.UndoLast()
	assert.False(t, ok)
	assert.Equal(t, 0, l.Len())
	assert.Empty(t, l.Snapshot())
}

func TestUndoClearRestoresStroke(t *testing.T) {
	l := NewOperationLog()
	l.Append(stroke("a"))
	l.Append(domain.Operation{ID: "b", Payload: domain.Clear{}})

	assert.Empty(t, Replay(l.Snapshot()))

	undone, ok := l.UndoLast()
	require.True(t, ok)
	assert.Equal(t, "b", undone.ID)
	assert.False(t, undone.Active)

	snap := l.Snapshot()
	require.Len(t, snap, 2)
	assert.True(t, snap[0].Active)
	assert.False(t, snap[1].Active)

	visible := Replay(snap)
	require.Len(t, visible, 1)
	assert.Equal(t, "a", visible[0].ID)
}

func TestUndoWalksBackwards(t *testing.T) {
	l := NewOperationLog()
	for i := 1; i <= 3; i++ {
		l.Append(stroke(strconv.Itoa(i)))
	}

	for _, want := range []string{"3", "2", "1"} {
		undone, ok := l.UndoLast()
		require.True(t, ok)
		assert.Equal(t, want, undone.ID)
	}
	assert.Empty(t, activeIDs(l.Snapshot()))

	_, ok := l.UndoLast()
	assert.False(t, ok)
	assert.Equal(t, 3, l.Len())
}

func TestUndoSkipsInactiveEntries(t *testing.T) {
	l := NewOperationLog()
	l.Append(stroke("1"))
	l.Append(stroke("2"))
	l.UndoLast()
	l.Append(stroke("3"))

	undone, ok := l.UndoLast()
	require.True(t, ok)
	assert.Equal(t, "3", undone.ID)

	undone, ok = l.UndoLast()
	require.True(t, ok)
	assert.Equal(t, "1", undone.ID)
}

func TestSnapshotIsACopy(t *testing.T) {
	l := NewOperationLog()
	l.Append(stroke("a"))

	snap := l.Snapshot()
	snap[0].Active = false

	assert.Equal(t, []string{"a"}, activeIDs(l.Snapshot()))
}
