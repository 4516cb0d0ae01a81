package core

import "github.com/dkeye/Canvas/internal/domain"

// Replay applies ops in order the way a renderer does: inactive entries
// are skipped and an active clear wipes everything drawn before it.
// It returns the strokes left visible, oldest first.
func Replay(ops []domain.Operation) []domain.Operation {
	visible := make([]domain.Operation, 0, len(ops))
	for _, op := range ops {
		if !op.Active {
			continue
		}
		switch op.Payload.(type) {
		case domain.Clear:
			visible = visible[:0]
		case domain.DrawStroke:
			visible = append(visible, op)
		}
	}
	return visible
}
