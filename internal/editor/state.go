package editor

import (
	"github.com/msalah0e/nodecanvas/internal/geom"
	"github.com/msalah0e/nodecanvas/internal/selection"
	"github.com/msalah0e/nodecanvas/internal/undo"
)

// State is the active interaction mode. The set of states is closed: only
// this package can implement it.
type State interface {
	Name() string
	isState()
}

// press remembers a primary press in Default until it becomes a drag or
// a click.
type press struct {
	screen geom.Vec2
	hit    selection.Entity

	// wasSelected is set when the pressed entity was already selected, so
	// a plain release narrows the selection to it.
	wasSelected bool
}

// Default is the idle state.
type Default struct {
	press *press
}

// PlaceholderOpen runs the symbol browser. Its data lives in the browser.
type PlaceholderOpen struct{}

// RenameChild edits an item's name.
type RenameChild struct {
	ItemID   string
	Buffer   string
	Original string
}

// RenameAnnotation edits an annotation's title.
type RenameAnnotation struct {
	AnnotationID string
	Buffer       string
	Original     string
}

// Dragging moves the selection with the pointer.
type Dragging struct {
	Start   geom.Vec2 // screen
	Origins []undo.Move
}

// HoldBackground is a press on empty canvas that has not moved yet.
type HoldBackground struct {
	Start geom.Vec2
}

// BackgroundInteractive runs the fence selector.
type BackgroundInteractive struct{}

func (Default) Name() string               { return "default" }
func (PlaceholderOpen) Name() string       { return "placeholder" }
func (RenameChild) Name() string           { return "rename-child" }
func (RenameAnnotation) Name() string      { return "rename-annotation" }
func (Dragging) Name() string              { return "dragging" }
func (HoldBackground) Name() string        { return "hold-background" }
func (BackgroundInteractive) Name() string { return "background" }

func (Default) isState()               {}
func (PlaceholderOpen) isState()       {}
func (RenameChild) isState()           {}
func (RenameAnnotation) isState()      {}
func (Dragging) isState()              {}
func (HoldBackground) isState()        {}
func (BackgroundInteractive) isState() {}
