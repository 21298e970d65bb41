package undo

import (
	"fmt"

	"github.com/msalah0e/nodecanvas/internal/geom"
	"github.com/msalah0e/nodecanvas/internal/layout"
)

// Command is one reversible edit of a layout.
type Command interface {
	Name() string
	Do(l *layout.Layout) error
	Undo(l *layout.Layout) error
}

// AddItem inserts an item.
type AddItem struct {
	Item *layout.Item
}

func (c *AddItem) Name() string { return "Add " + c.Item.Name }

func (c *AddItem) Do(l *layout.Layout) error {
	return l.AddItem(c.Item.Clone())
}

func (c *AddItem) Undo(l *layout.Layout) error {
	_, err := l.RemoveItem(c.Item.ID)
	return err
}

// RemoveItem deletes an item along with its connections. The removed state
// is captured on Do so Undo puts back exactly what was taken.
type RemoveItem struct {
	ID string

	removal *layout.Removal
}

func (c *RemoveItem) Name() string { return "Delete item" }

func (c *RemoveItem) Do(l *layout.Layout) error {
	r, err := l.RemoveItem(c.ID)
	if err != nil {
		return err
	}
	c.removal = r
	return nil
}

func (c *RemoveItem) Undo(l *layout.Layout) error {
	if c.removal == nil {
		return fmt.Errorf("undo remove %s: nothing captured", c.ID)
	}
	r := *c.removal
	r.Item = c.removal.Item.Clone()
	return l.Restore(&r)
}

// AddConnection wires two slots.
type AddConnection struct {
	Conn layout.Connection
}

func (c *AddConnection) Name() string { return "Connect" }

func (c *AddConnection) Do(l *layout.Layout) error   { return l.AddConnection(c.Conn) }
func (c *AddConnection) Undo(l *layout.Layout) error { return l.RemoveConnection(c.Conn) }

// RemoveConnection unwires two slots.
type RemoveConnection struct {
	Conn layout.Connection
}

func (c *RemoveConnection) Name() string { return "Disconnect" }

func (c *RemoveConnection) Do(l *layout.Layout) error   { return l.RemoveConnection(c.Conn) }
func (c *RemoveConnection) Undo(l *layout.Layout) error { return l.AddConnection(c.Conn) }

// Move is the before/after position of one item or annotation.
type Move struct {
	ID   string
	From geom.Vec2
	To   geom.Vec2
}

// MoveItems repositions a set of items and annotations.
type MoveItems struct {
	Label string
	Moves []Move
}

func (c *MoveItems) Name() string {
	if c.Label != "" {
		return c.Label
	}
	return "Move"
}

func (c *MoveItems) Do(l *layout.Layout) error {
	for _, m := range c.Moves {
		if err := l.Move(m.ID, m.To); err != nil {
			return err
		}
	}
	l.MarkChanged()
	return nil
}

func (c *MoveItems) Undo(l *layout.Layout) error {
	for i := len(c.Moves) - 1; i >= 0; i-- {
		if err := l.Move(c.Moves[i].ID, c.Moves[i].From); err != nil {
			return err
		}
	}
	l.MarkChanged()
	return nil
}

// RenameItem changes an item's display name.
type RenameItem struct {
	ID  string
	Old string
	New string
}

func (c *RenameItem) Name() string { return "Rename " + c.Old }

func (c *RenameItem) Do(l *layout.Layout) error   { return l.RenameItem(c.ID, c.New) }
func (c *RenameItem) Undo(l *layout.Layout) error { return l.RenameItem(c.ID, c.Old) }

// SetInputValue sets an inlined slot value, or clears it when Clear is set.
type SetInputValue struct {
	ItemID string
	Slot   string
	Value  string
	Clear  bool

	prev    string
	hadPrev bool
}

func (c *SetInputValue) Name() string { return "Set " + c.Slot }

func (c *SetInputValue) Do(l *layout.Layout) error {
	it, ok := l.Item(c.ItemID)
	if !ok {
		return fmt.Errorf("item %s: %w", c.ItemID, layout.ErrNotFound)
	}
	c.prev, c.hadPrev = it.Input(c.Slot)
	return l.SetInput(c.ItemID, c.Slot, c.Value, c.Clear)
}

func (c *SetInputValue) Undo(l *layout.Layout) error {
	return l.SetInput(c.ItemID, c.Slot, c.prev, !c.hadPrev)
}

// AddAnnotation inserts an annotation.
type AddAnnotation struct {
	Annotation *layout.Annotation
}

func (c *AddAnnotation) Name() string { return "Add annotation" }

func (c *AddAnnotation) Do(l *layout.Layout) error {
	return l.AddAnnotation(c.Annotation.Clone())
}

func (c *AddAnnotation) Undo(l *layout.Layout) error {
	_, err := l.RemoveAnnotation(c.Annotation.ID)
	return err
}

// RemoveAnnotation deletes an annotation.
type RemoveAnnotation struct {
	ID string

	removed *layout.Annotation
}

func (c *RemoveAnnotation) Name() string { return "Delete annotation" }

func (c *RemoveAnnotation) Do(l *layout.Layout) error {
	a, err := l.RemoveAnnotation(c.ID)
	if err != nil {
		return err
	}
	c.removed = a
	return nil
}

func (c *RemoveAnnotation) Undo(l *layout.Layout) error {
	if c.removed == nil {
		return fmt.Errorf("undo remove annotation %s: nothing captured", c.ID)
	}
	return l.AddAnnotation(c.removed.Clone())
}

// RenameAnnotation changes an annotation's title.
type RenameAnnotation struct {
	ID  string
	Old string
	New string
}

func (c *RenameAnnotation) Name() string { return "Rename annotation" }

func (c *RenameAnnotation) Do(l *layout.Layout) error   { return l.RenameAnnotation(c.ID, c.New) }
func (c *RenameAnnotation) Undo(l *layout.Layout) error { return l.RenameAnnotation(c.ID, c.Old) }

// SetAnnotationCollapsed collapses or expands an annotation.
type SetAnnotationCollapsed struct {
	ID        string
	Collapsed bool

	prev bool
}

func (c *SetAnnotationCollapsed) Name() string {
	if c.Collapsed {
		return "Collapse annotation"
	}
	return "Expand annotation"
}

func (c *SetAnnotationCollapsed) Do(l *layout.Layout) error {
	a, ok := l.Annotation(c.ID)
	if !ok {
		return fmt.Errorf("annotation %s: %w", c.ID, layout.ErrNotFound)
	}
	c.prev = a.Collapsed
	return l.SetCollapsed(c.ID, c.Collapsed)
}

func (c *SetAnnotationCollapsed) Undo(l *layout.Layout) error {
	return l.SetCollapsed(c.ID, c.prev)
}
