package editor

import (
	"github.com/msalah0e/nodecanvas/internal/browser"
	"github.com/msalah0e/nodecanvas/internal/drop"
	"github.com/msalah0e/nodecanvas/internal/geom"
)

// Key is a set of keys pressed this frame.
type Key uint32

const (
	KeyEnter Key = 1 << iota
	KeyEscape
	KeyTab
	KeyUp
	KeyDown
	KeyBackspace
	KeyDelete
	KeyF2
	KeyA
	KeyZ
)

var keyNames = map[string]Key{
	"enter":     KeyEnter,
	"escape":    KeyEscape,
	"tab":       KeyTab,
	"up":        KeyUp,
	"down":      KeyDown,
	"backspace": KeyBackspace,
	"delete":    KeyDelete,
	"f2":        KeyF2,
	"a":         KeyA,
	"z":         KeyZ,
}

// ParseKey looks up a key by its lower-case name.
func ParseKey(name string) (Key, bool) {
	k, ok := keyNames[name]
	return k, ok
}

// Action is an editor command issued from a menu, a shortcut or a script.
type Action int

const (
	ActionNone Action = iota
	ActionInsert
	ActionRename
	ActionExtract
	ActionDelete
	ActionUndo
	ActionRedo
	ActionSelectAll
	ActionAnnotate
	ActionCollapse
)

var actionNames = map[string]Action{
	"insert":     ActionInsert,
	"rename":     ActionRename,
	"extract":    ActionExtract,
	"delete":     ActionDelete,
	"undo":       ActionUndo,
	"redo":       ActionRedo,
	"select-all": ActionSelectAll,
	"annotate":   ActionAnnotate,
	"collapse":   ActionCollapse,
}

// ParseAction looks up an action by name.
func ParseAction(name string) (Action, bool) {
	a, ok := actionNames[name]
	return a, ok
}

func (a Action) String() string {
	for name, v := range actionNames {
		if v == a {
			return name
		}
	}
	return "none"
}

// DanglingConnection is a connection dragged from a slot and released
// over empty canvas.
type DanglingConnection struct {
	ItemID string
	Slot   string
	Type   string

	// FromInput is set when the drag started on an input slot, so the new
	// operator must provide an output.
	FromInput bool
	Multi     bool
}

// Input is everything the engine sees of one frame.
type Input struct {
	Pointer  geom.Vec2 // screen
	Pressed  bool      // primary button went down this frame
	Down     bool      // primary button is held
	Released bool      // primary button went up this frame

	Keys  Key
	Shift bool
	Ctrl  bool
	Text  string
	Wheel int

	Actions []Action

	// ExtractSlot names the input ActionExtract applies to. Empty picks
	// the first input with an inlined value.
	ExtractSlot string

	Drop       *drop.Payload
	Connection *DanglingConnection

	// PopupOpen is set while a modal popup outside the engine has focus.
	PopupOpen bool
}

// Has reports whether every key in k was pressed.
func (in Input) Has(k Key) bool {
	return in.Keys&k == k
}

// actions merges explicit actions with keyboard shortcuts.
func (in Input) actions() []Action {
	out := append([]Action(nil), in.Actions...)
	switch {
	case in.Ctrl && in.Shift && in.Has(KeyZ):
		out = append(out, ActionRedo)
	case in.Ctrl && in.Has(KeyZ):
		out = append(out, ActionUndo)
	case in.Ctrl && in.Has(KeyA):
		out = append(out, ActionSelectAll)
	}
	if in.Has(KeyTab) {
		out = append(out, ActionInsert)
	}
	if in.Has(KeyF2) {
		out = append(out, ActionRename)
	}
	if in.Has(KeyDelete) {
		out = append(out, ActionDelete)
	}
	return out
}

func (in Input) browserInput() browser.Input {
	return browser.Input{
		Text:      in.Text,
		Backspace: in.Has(KeyBackspace),
		Up:        in.Has(KeyUp),
		Down:      in.Has(KeyDown),
		Enter:     in.Has(KeyEnter),
		Escape:    in.Has(KeyEscape),
		Pointer:   in.Pointer,
		Clicked:   in.Pressed,
		Wheel:     in.Wheel,
	}
}

// Output is what a renderer needs after a frame.
type Output struct {
	State string

	FenceActive bool
	Fence       geom.Rect // screen

	BrowserOpen   bool
	BrowserQuery  string
	BrowserRows   []browser.Row
	BrowserResult browser.Result
	FocusSearch   bool

	EditBuffer string

	// Created lists items added this frame by drops or commits.
	Created   []string
	Selection []string
}
