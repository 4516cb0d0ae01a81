package core

import (
	"time"

	"github.com/dkeye/Canvas/internal/domain"
	"github.com/google/uuid"
)

// OperationLog is the append-only history of one room.
// Entries are never removed or reordered; only Active flips.
// It is not safe for concurrent use: the owning room serializes access.
type OperationLog struct {
	ops   []domain.Operation
	byID  map[string]int
	last  int64
	now   func() time.Time
	newID func() string
}

func NewOperationLog() *OperationLog {
	return &OperationLog{
		ops:   make([]domain.Operation, 0),
		byID:  make(map[string]int),
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Append stores op as active and returns the stored entry.
// The server stamps Timestamp (non-decreasing in append order) and assigns
// an ID only when op has none. If op.ID is already present the existing
// entry is returned untouched and the second result is false.
func (l *OperationLog) Append(op domain.Operation) (domain.Operation, bool) {
	if op.ID == "" {
		op.ID = l.newID()
	} else if i, ok := l.byID[op.ID]; ok {
		return l.ops[i], false
	}
	if op.Payload != nil {
		op.Type = op.Payload.Kind()
	}

	ts := l.now().UnixMilli()
	if ts < l.last {
		ts = l.last
	}
	l.last = ts

	op.Timestamp = ts
	op.Active = true
	l.byID[op.ID] = len(l.ops)
	l.ops = append(l.ops, op)
	return op, true
}

// UndoLast deactivates the newest active entry regardless of its author.
func (l *OperationLog) UndoLast() (domain.Operation, bool) {
	for i := len(l.ops) - 1; i >= 0; i-- {
		if l.ops[i].Active {
			l.ops[i].Active = false
			return l.ops[i], true
		}
	}
	return domain.Operation{}, false
}

// Snapshot returns every entry in append order, inactive ones included.
func (l *OperationLog) Snapshot() []domain.Operation {
	out := make([]domain.Operation, len(l.ops))
	copy(out, l.ops)
	return out
}

func (l *OperationLog) Len() int { return len(l.ops) }
