// Package layout holds the spatial model of one open composition: the
// graph items placed on the canvas, the connections between their slots
// and the annotations drawn around them.
//
// A Layout is owned by exactly one editing session and is not safe for
// concurrent use. Edits are expected to arrive through the undo package's
// commands; the mutators here are the primitives those commands call.
package layout

import (
	"errors"
	"fmt"
	"sort"

	"github.com/msalah0e/nodecanvas/internal/geom"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
	ErrDangling  = errors.New("connection endpoint missing")
	ErrEmptyID   = errors.New("id cannot be empty")
)

// Layout is the container for items, connections and annotations.
type Layout struct {
	items       map[string]*Item
	itemOrder   []string
	annotations map[string]*Annotation
	annOrder    []string
	connections []Connection

	changed   bool
	onRemove  []func(id string)
	onChanged []func()
}

// TourRef records where a removed item appeared in an annotation tour.
type TourRef struct {
	AnnotationID string
	Index        int
}

// Removal is everything RemoveItem took out of the layout, enough to put
// it back exactly.
type Removal struct {
	Item        *Item
	Connections []Connection
	Tours       []TourRef
}

// New creates an empty layout.
func New() *Layout {
	return &Layout{
		items:       make(map[string]*Item),
		annotations: make(map[string]*Annotation),
	}
}

// OnRemove registers a callback invoked with the id of every item or
// annotation removed from the layout, synchronously and inside the removal.
func (l *Layout) OnRemove(fn func(id string)) {
	l.onRemove = append(l.onRemove, fn)
}

// OnStructureChanged registers a callback invoked whenever the layout is
// flagged as structurally changed.
func (l *Layout) OnStructureChanged(fn func()) {
	l.onChanged = append(l.onChanged, fn)
}

// MarkChanged flags that derived geometry must be recomputed before the
// next draw.
func (l *Layout) MarkChanged() {
	l.changed = true
	for _, fn := range l.onChanged {
		fn()
	}
}

// Changed reports whether the structure-changed flag is set.
func (l *Layout) Changed() bool {
	return l.changed
}

// ConsumeChanged clears the structure-changed flag and returns its prior value.
func (l *Layout) ConsumeChanged() bool {
	c := l.changed
	l.changed = false
	return c
}

// ─── Items ───

// Item returns an item by id.
func (l *Layout) Item(id string) (*Item, bool) {
	it, ok := l.items[id]
	return it, ok
}

// HasItem reports whether an item with the id is present.
func (l *Layout) HasItem(id string) bool {
	_, ok := l.items[id]
	return ok
}

// Items returns all items in insertion order.
func (l *Layout) Items() []*Item {
	out := make([]*Item, 0, len(l.itemOrder))
	for _, id := range l.itemOrder {
		out = append(out, l.items[id])
	}
	return out
}

// ItemCount returns the number of items, placeholders included.
func (l *Layout) ItemCount() int {
	return len(l.items)
}

// AddItem inserts an item. The layout keeps the pointer.
func (l *Layout) AddItem(it *Item) error {
	if it.ID == "" {
		return ErrEmptyID
	}
	if _, exists := l.items[it.ID]; exists {
		return fmt.Errorf("item %s: %w", it.ID, ErrDuplicate)
	}
	if it.Size == (geom.Vec2{}) {
		it.Size = DefaultItemSize
	}
	l.items[it.ID] = it
	l.itemOrder = append(l.itemOrder, it.ID)
	l.MarkChanged()
	return nil
}

// RemoveItem deletes an item together with every connection touching it
// and its appearances in annotation tours.
func (l *Layout) RemoveItem(id string) (*Removal, error) {
	it, ok := l.items[id]
	if !ok {
		return nil, fmt.Errorf("item %s: %w", id, ErrNotFound)
	}

	removal := &Removal{Item: it}

	kept := make([]Connection, 0, len(l.connections))
	for _, c := range l.connections {
		if c.Involves(id) {
			removal.Connections = append(removal.Connections, c)
			continue
		}
		kept = append(kept, c)
	}
	l.connections = kept

	for _, annID := range l.annOrder {
		a := l.annotations[annID]
		for i := len(a.Tour) - 1; i >= 0; i-- {
			if a.Tour[i] == id {
				removal.Tours = append(removal.Tours, TourRef{AnnotationID: annID, Index: i})
				a.Tour = append(a.Tour[:i], a.Tour[i+1:]...)
			}
		}
	}

	delete(l.items, id)
	l.itemOrder = removeID(l.itemOrder, id)
	l.notifyRemoved(id)
	l.MarkChanged()
	return removal, nil
}

// Restore reverses a RemoveItem.
func (l *Layout) Restore(r *Removal) error {
	if err := l.AddItem(r.Item); err != nil {
		return err
	}
	for _, c := range r.Connections {
		if err := l.AddConnection(c); err != nil && !errors.Is(err, ErrDuplicate) {
			return err
		}
	}
	// Tour refs were recorded back to front, so re-insert front to back.
	for i := len(r.Tours) - 1; i >= 0; i-- {
		ref := r.Tours[i]
		a, ok := l.annotations[ref.AnnotationID]
		if !ok {
			continue
		}
		idx := ref.Index
		if idx > len(a.Tour) {
			idx = len(a.Tour)
		}
		a.Tour = append(a.Tour[:idx], append([]string{r.Item.ID}, a.Tour[idx:]...)...)
	}
	return nil
}

// MoveItem sets an item's canvas position.
func (l *Layout) MoveItem(id string, pos geom.Vec2) error {
	it, ok := l.items[id]
	if !ok {
		return fmt.Errorf("item %s: %w", id, ErrNotFound)
	}
	it.Pos = pos
	return nil
}

// Move sets the canvas position of an item or an annotation.
func (l *Layout) Move(id string, pos geom.Vec2) error {
	if a, ok := l.annotations[id]; ok {
		a.Pos = pos
		return nil
	}
	return l.MoveItem(id, pos)
}

// Position returns the canvas position of an item or an annotation.
func (l *Layout) Position(id string) (geom.Vec2, bool) {
	if it, ok := l.items[id]; ok {
		return it.Pos, true
	}
	if a, ok := l.annotations[id]; ok {
		return a.Pos, true
	}
	return geom.Vec2{}, false
}

// RenameItem sets an item's display name.
func (l *Layout) RenameItem(id, name string) error {
	it, ok := l.items[id]
	if !ok {
		return fmt.Errorf("item %s: %w", id, ErrNotFound)
	}
	it.Name = name
	return nil
}

// SetInput sets or clears (when clear is true) an inlined slot value.
func (l *Layout) SetInput(id, slot, value string, clear bool) error {
	it, ok := l.items[id]
	if !ok {
		return fmt.Errorf("item %s: %w", id, ErrNotFound)
	}
	if clear {
		delete(it.Inputs, slot)
		return nil
	}
	if it.Inputs == nil {
		it.Inputs = make(map[string]string)
	}
	it.Inputs[slot] = value
	return nil
}

// ─── Connections ───

// Connections returns a copy of all connections.
func (l *Layout) Connections() []Connection {
	return append([]Connection(nil), l.connections...)
}

// ConnectionCount returns the number of connections.
func (l *Layout) ConnectionCount() int {
	return len(l.connections)
}

// HasConnection reports whether the exact connection is present.
func (l *Layout) HasConnection(c Connection) bool {
	for _, existing := range l.connections {
		if existing == c {
			return true
		}
	}
	return false
}

// AddConnection inserts a connection. Both endpoints must be present.
func (l *Layout) AddConnection(c Connection) error {
	if !l.HasItem(c.SourceItemID) || !l.HasItem(c.TargetItemID) {
		return fmt.Errorf("%s.%s -> %s.%s: %w", c.SourceItemID, c.SourceSlot, c.TargetItemID, c.TargetSlot, ErrDangling)
	}
	if l.HasConnection(c) {
		return fmt.Errorf("connection %s -> %s: %w", c.SourceItemID, c.TargetItemID, ErrDuplicate)
	}
	l.connections = append(l.connections, c)
	l.MarkChanged()
	return nil
}

// RemoveConnection deletes a connection.
func (l *Layout) RemoveConnection(c Connection) error {
	for i, existing := range l.connections {
		if existing == c {
			l.connections = append(l.connections[:i], l.connections[i+1:]...)
			l.MarkChanged()
			return nil
		}
	}
	return fmt.Errorf("connection %s -> %s: %w", c.SourceItemID, c.TargetItemID, ErrNotFound)
}

// InputsOf returns connections whose target is the item.
func (l *Layout) InputsOf(id string) []Connection {
	var out []Connection
	for _, c := range l.connections {
		if c.TargetItemID == id {
			out = append(out, c)
		}
	}
	return out
}

// OutputsOf returns connections whose source is the item.
func (l *Layout) OutputsOf(id string) []Connection {
	var out []Connection
	for _, c := range l.connections {
		if c.SourceItemID == id {
			out = append(out, c)
		}
	}
	return out
}

// ConnectionsInto returns the connections feeding one input slot, ordered
// by multi-input index.
func (l *Layout) ConnectionsInto(id, slot string) []Connection {
	var out []Connection
	for _, c := range l.connections {
		if c.TargetItemID == id && c.TargetSlot == slot {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MultiInputIndex < out[j].MultiInputIndex
	})
	return out
}

// ─── Annotations ───

// Annotation returns an annotation by id.
func (l *Layout) Annotation(id string) (*Annotation, bool) {
	a, ok := l.annotations[id]
	return a, ok
}

// Annotations returns all annotations in insertion order.
func (l *Layout) Annotations() []*Annotation {
	out := make([]*Annotation, 0, len(l.annOrder))
	for _, id := range l.annOrder {
		out = append(out, l.annotations[id])
	}
	return out
}

// AddAnnotation inserts an annotation.
func (l *Layout) AddAnnotation(a *Annotation) error {
	if a.ID == "" {
		return ErrEmptyID
	}
	if _, exists := l.annotations[a.ID]; exists {
		return fmt.Errorf("annotation %s: %w", a.ID, ErrDuplicate)
	}
	l.annotations[a.ID] = a
	l.annOrder = append(l.annOrder, a.ID)
	l.MarkChanged()
	return nil
}

// RemoveAnnotation deletes an annotation and returns it.
func (l *Layout) RemoveAnnotation(id string) (*Annotation, error) {
	a, ok := l.annotations[id]
	if !ok {
		return nil, fmt.Errorf("annotation %s: %w", id, ErrNotFound)
	}
	delete(l.annotations, id)
	l.annOrder = removeID(l.annOrder, id)
	l.notifyRemoved(id)
	l.MarkChanged()
	return a, nil
}

// RenameAnnotation sets an annotation's title.
func (l *Layout) RenameAnnotation(id, title string) error {
	a, ok := l.annotations[id]
	if !ok {
		return fmt.Errorf("annotation %s: %w", id, ErrNotFound)
	}
	a.Title = title
	return nil
}

// SetCollapsed collapses or expands an annotation and refreshes its
// nested item list so the two stay consistent.
func (l *Layout) SetCollapsed(id string, collapsed bool) error {
	a, ok := l.annotations[id]
	if !ok {
		return fmt.Errorf("annotation %s: %w", id, ErrNotFound)
	}
	a.Collapsed = collapsed
	a.Nested = l.ItemsInside(a)
	l.MarkChanged()
	return nil
}

// ItemsInside returns ids of items fully enclosed by the annotation.
func (l *Layout) ItemsInside(a *Annotation) []string {
	bounds := a.Bounds()
	var ids []string
	for _, id := range l.itemOrder {
		if bounds.Contains(l.items[id].Bounds()) {
			ids = append(ids, id)
		}
	}
	return ids
}

// Recompute refreshes derived geometry: nested item lists of expanded
// annotations. Collapsed annotations keep the set recorded when they were
// collapsed, minus items that no longer exist.
func (l *Layout) Recompute() {
	for _, id := range l.annOrder {
		a := l.annotations[id]
		if !a.Collapsed {
			a.Nested = l.ItemsInside(a)
			continue
		}
		kept := a.Nested[:0]
		for _, itemID := range a.Nested {
			if l.HasItem(itemID) {
				kept = append(kept, itemID)
			}
		}
		a.Nested = kept
	}
}

// Validate checks the cross-reference invariants: every connection
// endpoint and every tour entry names a present item.
func (l *Layout) Validate() error {
	var errs []error
	for _, c := range l.connections {
		if !l.HasItem(c.SourceItemID) || !l.HasItem(c.TargetItemID) {
			errs = append(errs, fmt.Errorf("%s -> %s: %w", c.SourceItemID, c.TargetItemID, ErrDangling))
		}
	}
	for _, id := range l.annOrder {
		for _, itemID := range l.annotations[id].Tour {
			if !l.HasItem(itemID) {
				errs = append(errs, fmt.Errorf("annotation %s tour references %s: %w", id, itemID, ErrNotFound))
			}
		}
	}
	return errors.Join(errs...)
}

func (l *Layout) notifyRemoved(id string) {
	for _, fn := range l.onRemove {
		fn(id)
	}
}

func removeID(ids []string, id string) []string {
	for i, existing := range ids {
		if existing == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
