// Package undo is the command layer of the editor. Every structural edit
// of a layout is a Command; commands are recorded in a History so they
// can be undone and redone, and a Recorder groups several commands into
// one Macro that undoes as a unit.
package undo

import (
	"errors"
	"fmt"

	"github.com/msalah0e/nodecanvas/internal/layout"
)

var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// Stack is the history surface the editor records into.
type Stack interface {
	// Add records a command that has already been executed.
	Add(cmd Command)
	// AddAndExecute executes a command and records it on success.
	AddAndExecute(cmd Command) error
}

// History is a bounded undo/redo stack bound to one layout.
type History struct {
	layout *layout.Layout
	depth  int
	undo   []Command
	redo   []Command
}

// NewHistory creates a history keeping at most depth entries.
func NewHistory(l *layout.Layout, depth int) *History {
	if depth < 1 {
		depth = 1
	}
	return &History{layout: l, depth: depth}
}

// Add records an already executed command and clears the redo stack.
func (h *History) Add(cmd Command) {
	h.undo = append(h.undo, cmd)
	if len(h.undo) > h.depth {
		h.undo = h.undo[len(h.undo)-h.depth:]
	}
	h.redo = nil
}

// AddAndExecute runs cmd against the layout and records it.
func (h *History) AddAndExecute(cmd Command) error {
	if err := cmd.Do(h.layout); err != nil {
		return fmt.Errorf("%s: %w", cmd.Name(), err)
	}
	h.Add(cmd)
	return nil
}

// Undo reverts the most recent entry.
func (h *History) Undo() error {
	if len(h.undo) == 0 {
		return ErrNothingToUndo
	}
	cmd := h.undo[len(h.undo)-1]
	if err := cmd.Undo(h.layout); err != nil {
		return fmt.Errorf("undo %s: %w", cmd.Name(), err)
	}
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, cmd)
	h.layout.MarkChanged()
	return nil
}

// Redo reapplies the most recently undone entry.
func (h *History) Redo() error {
	if len(h.redo) == 0 {
		return ErrNothingToRedo
	}
	cmd := h.redo[len(h.redo)-1]
	if err := cmd.Do(h.layout); err != nil {
		return fmt.Errorf("redo %s: %w", cmd.Name(), err)
	}
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, cmd)
	h.layout.MarkChanged()
	return nil
}

func (h *History) CanUndo() bool { return len(h.undo) > 0 }
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// Len returns the number of undoable entries.
func (h *History) Len() int {
	return len(h.undo)
}

// Labels returns the undo entries' names, oldest first.
func (h *History) Labels() []string {
	out := make([]string, len(h.undo))
	for i, cmd := range h.undo {
		out[i] = cmd.Name()
	}
	return out
}
