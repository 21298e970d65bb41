// Package snap places items on the canvas grid: snapping, finding a free
// row when wiring a new item into an input, pushing chains of items down
// to make room, and translating a dragged selection.
package snap

import (
	"math"

	"github.com/msalah0e/nodecanvas/internal/geom"
	"github.com/msalah0e/nodecanvas/internal/undo"
)

// Grid quantizes canvas positions to square cells.
type Grid struct {
	Size float64
}

// Snap rounds v to the nearest grid intersection.
func (g Grid) Snap(v geom.Vec2) geom.Vec2 {
	if g.Size <= 0 {
		return v
	}
	return geom.V(math.Round(v.X/g.Size)*g.Size, math.Round(v.Y/g.Size)*g.Size)
}

// Aligned reports whether v already sits on a grid intersection.
func (g Grid) Aligned(v geom.Vec2) bool {
	return g.Snap(v) == v
}

// Translate returns moves shifting every origin by delta without snapping.
// It is used for the live preview while a drag is in progress.
func Translate(origins []undo.Move, delta geom.Vec2) []undo.Move {
	out := make([]undo.Move, len(origins))
	for i, m := range origins {
		out[i] = undo.Move{ID: m.ID, From: m.From, To: m.From.Add(delta)}
	}
	return out
}

// Release returns the final moves of a drag: every origin shifted by delta
// and snapped to the grid. Moves that end where they started are dropped.
func (g Grid) Release(origins []undo.Move, delta geom.Vec2) []undo.Move {
	out := make([]undo.Move, 0, len(origins))
	for _, m := range origins {
		to := g.Snap(m.From.Add(delta))
		if to == m.From {
			continue
		}
		out = append(out, undo.Move{ID: m.ID, From: m.From, To: to})
	}
	return out
}
