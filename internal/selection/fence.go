package selection

import (
	"github.com/msalah0e/nodecanvas/internal/geom"
	"github.com/msalah0e/nodecanvas/internal/layout"
)

// FenceState is the phase of a fence gesture.
type FenceState int

const (
	FenceInactive FenceState = iota
	FencePressedButNotMoved
	FenceUpdated
	FenceCompletedAsClick
	FenceCompletedAsArea
)

func (s FenceState) String() string {
	switch s {
	case FenceInactive:
		return "inactive"
	case FencePressedButNotMoved:
		return "pressed"
	case FenceUpdated:
		return "updated"
	case FenceCompletedAsClick:
		return "click"
	case FenceCompletedAsArea:
		return "area"
	default:
		return "unknown"
	}
}

// Mode decides how a fence combines with the existing selection.
type Mode int

const (
	Replace Mode = iota
	AddMode
	RemoveMode
)

// ModeFor maps modifier keys to a fence mode: Shift adds, Ctrl removes.
func ModeFor(shift, ctrl bool) Mode {
	switch {
	case ctrl:
		return RemoveMode
	case shift:
		return AddMode
	default:
		return Replace
	}
}

// Fence is the marquee selector. Its rectangle is kept in screen space and
// converted to canvas space once per update.
type Fence struct {
	state FenceState
	mode  Mode
	start geom.Vec2
	end   geom.Vec2

	// before is the selection at press time, used by Add and Remove to
	// undo their own changes when the rectangle shrinks again.
	before map[string]bool
	saved  []Entity
}

func (f *Fence) State() FenceState { return f.state }

func (f *Fence) Mode() Mode { return f.mode }

// Active reports whether a gesture is in progress.
func (f *Fence) Active() bool {
	return f.state == FencePressedButNotMoved || f.state == FenceUpdated
}

// Rect returns the marquee in screen space.
func (f *Fence) Rect() geom.Rect {
	return geom.RectFromPoints(f.start, f.end)
}

// Press starts a gesture at a screen position. Replace clears the
// selection right away; a plain click reselects on release.
func (f *Fence) Press(screen geom.Vec2, mode Mode, sel *Selection) {
	f.state = FencePressedButNotMoved
	f.mode = mode
	f.start, f.end = screen, screen
	f.saved = sel.Entities()
	f.before = make(map[string]bool, len(f.saved))
	for _, e := range f.saved {
		f.before[e.ID] = true
	}
	if mode == Replace {
		sel.Clear()
	}
}

// Update moves the marquee corner and applies it to the selection.
func (f *Fence) Update(screen geom.Vec2, l *layout.Layout, view geom.View, sel *Selection) {
	if !f.Active() {
		return
	}
	f.state = FenceUpdated
	f.end = screen
	f.apply(Hits(l, view.RectToCanvas(f.Rect())), l, sel)
}

func (f *Fence) apply(hits []Entity, l *layout.Layout, sel *Selection) {
	switch f.mode {
	case Replace:
		sel.Clear()
		for _, e := range hits {
			sel.Add(e)
		}
	case AddMode, RemoveMode:
		hit := make(map[string]bool, len(hits))
		for _, e := range hits {
			hit[e.ID] = true
		}
		for _, e := range candidates(l) {
			switch {
			case hit[e.ID] && f.mode == AddMode:
				sel.Add(e)
			case hit[e.ID]:
				sel.Remove(e.ID)
			case f.before[e.ID]:
				sel.Add(e)
			default:
				sel.Remove(e.ID)
			}
		}
	}
}

// Complete ends the gesture. A gesture that never moved completes as a
// click in any mode: the selection is cleared and the composition itself
// selected, unless a popup is open.
func (f *Fence) Complete(compositionID string, popupOpen bool, sel *Selection) FenceState {
	switch f.state {
	case FencePressedButNotMoved:
		f.state = FenceCompletedAsClick
		if !popupOpen {
			sel.Clear()
			if compositionID != "" {
				sel.Add(Entity{ID: compositionID, Kind: KindComposition})
			}
		}
	case FenceUpdated:
		f.state = FenceCompletedAsArea
	}
	f.before, f.saved = nil, nil
	return f.state
}

// Cancel abandons an active gesture and puts back the selection it was
// pressed over.
func (f *Fence) Cancel(sel *Selection) {
	if f.Active() {
		sel.Clear()
		for _, e := range f.saved {
			sel.Add(e)
		}
	}
	f.Reset()
}

// Reset returns the fence to inactive.
func (f *Fence) Reset() {
	*f = Fence{}
}

// Hits returns the entities a canvas rectangle selects: items whose bounds
// intersect it and annotations it fully contains. Placeholders are never
// selectable.
func Hits(l *layout.Layout, r geom.Rect) []Entity {
	var out []Entity
	for _, it := range l.Items() {
		if it.Kind == layout.KindPlaceholder {
			continue
		}
		if r.Intersects(it.Bounds()) {
			out = append(out, Entity{ID: it.ID, Kind: KindItem})
		}
	}
	for _, a := range l.Annotations() {
		if r.Contains(a.Bounds()) {
			out = append(out, Entity{ID: a.ID, Kind: KindAnnotation})
		}
	}
	return out
}

func candidates(l *layout.Layout) []Entity {
	var out []Entity
	for _, it := range l.Items() {
		if it.Kind != layout.KindPlaceholder {
			out = append(out, Entity{ID: it.ID, Kind: KindItem})
		}
	}
	for _, a := range l.Annotations() {
		out = append(out, Entity{ID: a.ID, Kind: KindAnnotation})
	}
	return out
}
