package snap

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/msalah0e/nodecanvas/internal/catalog"
	"github.com/msalah0e/nodecanvas/internal/geom"
	"github.com/msalah0e/nodecanvas/internal/layout"
	"github.com/msalah0e/nodecanvas/internal/undo"
)

var (
	ErrPushDownSaturated = errors.New("push-down chain exceeds limit")
	ErrAlreadyConnected  = errors.New("input is already connected")
	ErrNoValueSymbol     = errors.New("no value operator for type")
)

const epsilon = 1e-6

// Engine computes placements for structured insertions.
type Engine struct {
	Grid        Grid
	MaxPushDown int

	log *zap.Logger
}

// New creates an engine for the given grid cell size. maxPushDown bounds
// how many items a single push-down may displace.
func New(gridSize float64, maxPushDown int, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if maxPushDown < 1 {
		maxPushDown = 1
	}
	return &Engine{Grid: Grid{Size: gridSize}, MaxPushDown: maxPushDown, log: log}
}

// Placement is where a new item wired into an input should go.
type Placement struct {
	Pos geom.Vec2
	Row int

	// PushDown is set when every candidate row was occupied. Pos is then the
	// slot's own row, which must be cleared with PushDownMoves first.
	PushDown bool
}

// axes returns the step between neighbouring input rows and the offset of
// the insertion column for an item of the given size.
func (e *Engine) axes(target *layout.Item, size geom.Vec2) (origin, step geom.Vec2) {
	gap := e.Grid.Size
	if target.Orientation == layout.Vertical {
		return geom.V(target.Pos.X, target.Pos.Y-size.Y-gap), geom.V(size.X, 0)
	}
	return geom.V(target.Pos.X-size.X-gap, target.Pos.Y), geom.V(0, size.Y)
}

// pushDirection is one grid unit along the row axis.
func (e *Engine) pushDirection(o layout.Orientation) geom.Vec2 {
	if o == layout.Vertical {
		return geom.V(e.Grid.Size, 0)
	}
	return geom.V(0, e.Grid.Size)
}

// InsertionLine finds the free row nearest to slotIndex among the target's
// slotCount input rows. Items listed in ignore are treated as absent.
func (e *Engine) InsertionLine(l *layout.Layout, target *layout.Item, slotIndex, slotCount int, size geom.Vec2, ignore ...string) Placement {
	if slotCount < 1 {
		slotCount = 1
	}
	if slotIndex < 0 {
		slotIndex = 0
	}
	if slotIndex >= slotCount {
		slotCount = slotIndex + 1
	}

	origin, step := e.axes(target, size)
	cell := func(row int) geom.Vec2 {
		return e.Grid.Snap(origin.Add(step.Scale(float64(row))))
	}

	for d := 0; d < slotCount; d++ {
		for _, row := range []int{slotIndex + d, slotIndex - d} {
			if row < 0 || row >= slotCount {
				continue
			}
			pos := cell(row)
			if !occupied(l, geom.RectAt(pos, size), target.ID, ignore) {
				return Placement{Pos: pos, Row: row}
			}
			if d == 0 {
				break
			}
		}
	}
	return Placement{Pos: cell(slotIndex), Row: slotIndex, PushDown: true}
}

func occupied(l *layout.Layout, r geom.Rect, targetID string, ignore []string) bool {
	for _, it := range l.Items() {
		if it.ID == targetID || contains(ignore, it.ID) {
			continue
		}
		if it.Bounds().Intersects(r) {
			return true
		}
	}
	return false
}

// PushDownMoves returns the moves that shift every item occupying area,
// and transitively every item snapped below a shifted one, by one grid unit
// along the orientation's row axis. Each item moves at most once; more than
// MaxPushDown displaced items yields ErrPushDownSaturated.
func (e *Engine) PushDownMoves(l *layout.Layout, area geom.Rect, o layout.Orientation, ignore ...string) ([]undo.Move, error) {
	dir := e.pushDirection(o)
	items := l.Items()

	visited := make(map[string]bool)
	var queue []*layout.Item
	for _, it := range items {
		if contains(ignore, it.ID) {
			continue
		}
		if it.Bounds().Intersects(area) {
			visited[it.ID] = true
			queue = append(queue, it)
		}
	}

	var moves []undo.Move
	for len(queue) > 0 {
		it := queue[0]
		queue = queue[1:]

		moves = append(moves, undo.Move{ID: it.ID, From: it.Pos, To: it.Pos.Add(dir)})
		if len(moves) > e.MaxPushDown {
			return nil, fmt.Errorf("%d items: %w", len(moves), ErrPushDownSaturated)
		}

		shifted := it.Bounds().Translate(dir)
		for _, other := range items {
			if visited[other.ID] || contains(ignore, other.ID) {
				continue
			}
			if snappedAfter(it.Bounds(), other.Bounds(), o) || shifted.Intersects(other.Bounds()) {
				visited[other.ID] = true
				queue = append(queue, other)
			}
		}
	}
	return moves, nil
}

// snappedAfter reports whether b sits flush against the far edge of a
// along the row axis, overlapping it on the other axis.
func snappedAfter(a, b geom.Rect, o layout.Orientation) bool {
	if o == layout.Vertical {
		return math.Abs(b.Min.X-a.Max.X) < epsilon && a.Min.Y < b.Max.Y && b.Min.Y < a.Max.Y
	}
	return math.Abs(b.Min.Y-a.Max.Y) < epsilon && a.Min.X < b.Max.X && b.Min.X < a.Max.X
}

// Insertion wires a new item's output into one input of an existing item.
type Insertion struct {
	Item       *layout.Item // not yet part of the layout
	OutputSlot string
	Target     *layout.Item
	TargetSlot string
	SlotIndex  int
	SlotCount  int

	// Multi keeps existing connections into the slot and appends.
	Multi bool
}

// Insert places ins.Item on the insertion line of the target slot, pushes
// down blocking items if needed, adds the item and wires it. When no macro
// is open the whole insertion is bracketed in one.
func (e *Engine) Insert(rec *undo.Recorder, ins Insertion) error {
	return within(rec, "Insert "+ins.Item.Name, func() error {
		return e.insert(rec, ins)
	})
}

func (e *Engine) insert(rec *undo.Recorder, ins Insertion) error {
	l := rec.Layout()
	size := ins.Item.Size
	if size == (geom.Vec2{}) {
		size = layout.DefaultItemSize
	}

	p := e.InsertionLine(l, ins.Target, ins.SlotIndex, ins.SlotCount, size, ins.Item.ID)
	if p.PushDown {
		moves, err := e.PushDownMoves(l, geom.RectAt(p.Pos, size), ins.Target.Orientation, ins.Target.ID, ins.Item.ID)
		if err != nil {
			e.log.Warn("push-down aborted", zap.String("target", ins.Target.ID), zap.Error(err))
			return err
		}
		if len(moves) > 0 {
			if err := rec.Execute(&undo.MoveItems{Label: "Push down", Moves: moves}); err != nil {
				return err
			}
		}
	}

	ins.Item.Pos = p.Pos
	ins.Item.Orientation = ins.Target.Orientation
	if err := rec.Execute(&undo.AddItem{Item: ins.Item}); err != nil {
		return err
	}

	existing := l.ConnectionsInto(ins.Target.ID, ins.TargetSlot)
	index := 0
	if ins.Multi {
		index = len(existing)
	} else {
		for _, c := range existing {
			if err := rec.Execute(&undo.RemoveConnection{Conn: c}); err != nil {
				return err
			}
		}
	}

	return rec.Execute(&undo.AddConnection{Conn: layout.Connection{
		SourceItemID:    ins.Item.ID,
		SourceSlot:      ins.OutputSlot,
		TargetItemID:    ins.Target.ID,
		TargetSlot:      ins.TargetSlot,
		MultiInputIndex: index,
	}})
}

// ValueCatalog resolves symbols and knows the value operator of each type.
type ValueCatalog interface {
	catalog.Catalog
	ValueSymbol(typ string) (*catalog.Symbol, bool)
}

// ExtractParameter turns the inlined value of an input into a new value
// operator wired into that input, placed with the same insertion rules.
// It returns the new item's id.
func (e *Engine) ExtractParameter(rec *undo.Recorder, cat ValueCatalog, itemID, slotID string) (string, error) {
	l := rec.Layout()
	target, ok := l.Item(itemID)
	if !ok {
		return "", fmt.Errorf("item %s: %w", itemID, layout.ErrNotFound)
	}
	sym, ok := cat.TryResolve(target.SymbolID)
	if !ok {
		return "", fmt.Errorf("%s: %w", target.SymbolID, catalog.ErrUnknownSymbol)
	}
	slot, index, ok := sym.Input(slotID)
	if !ok {
		return "", fmt.Errorf("%s has no input %s: %w", sym.Name, slotID, layout.ErrNotFound)
	}
	if len(l.ConnectionsInto(itemID, slotID)) > 0 {
		return "", fmt.Errorf("%s.%s: %w", target.Name, slotID, ErrAlreadyConnected)
	}

	valueSym, ok := cat.ValueSymbol(slot.Type)
	if !ok || len(valueSym.Outputs) == 0 {
		return "", fmt.Errorf("%s: %w", slot.Type, ErrNoValueSymbol)
	}

	value, ok := target.Input(slotID)
	if !ok {
		value = slot.Default
	}

	item, err := cat.Instantiate(valueSym.ID, target.Pos)
	if err != nil {
		return "", err
	}
	item.Name = slot.Name
	if item.Name == "" {
		item.Name = slot.ID
	}
	if len(valueSym.Inputs) > 0 {
		if item.Inputs == nil {
			item.Inputs = make(map[string]string)
		}
		item.Inputs[valueSym.Inputs[0].ID] = value
	}

	err = within(rec, "Extract "+slotID, func() error {
		if err := e.insert(rec, Insertion{
			Item:       item,
			OutputSlot: valueSym.Outputs[0].ID,
			Target:     target,
			TargetSlot: slotID,
			SlotIndex:  index,
			SlotCount:  len(sym.Inputs),
		}); err != nil {
			return err
		}
		if _, had := target.Input(slotID); !had {
			return nil
		}
		return rec.Execute(&undo.SetInputValue{ItemID: itemID, Slot: slotID, Clear: true})
	})
	if err != nil {
		return "", err
	}
	return item.ID, nil
}

// within runs fn inside the already open macro, or brackets it in a new one.
func within(rec *undo.Recorder, label string, fn func() error) error {
	if rec.Depth() > 0 {
		return fn()
	}
	return rec.Do(label, fn)
}

func contains(ids []string, id string) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
