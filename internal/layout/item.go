package layout

import (
	"github.com/google/uuid"

	"github.com/msalah0e/nodecanvas/internal/geom"
)

// Orientation is the direction values flow through an item.
type Orientation int

const (
	Horizontal Orientation = iota
	Vertical
)

func (o Orientation) String() string {
	if o == Vertical {
		return "vertical"
	}
	return "horizontal"
}

// Kind tags what a graph item stands for.
type Kind int

const (
	KindOperator Kind = iota
	KindAnnotationAnchor
	KindPlaceholder
)

func (k Kind) String() string {
	switch k {
	case KindAnnotationAnchor:
		return "anchor"
	case KindPlaceholder:
		return "placeholder"
	default:
		return "operator"
	}
}

// DefaultItemSize is the canvas size of a freshly instantiated item:
// five grid cells wide and one row high.
var DefaultItemSize = geom.V(100, 20)

// Item is a node placed on the canvas.
type Item struct {
	ID          string
	SymbolID    string
	Name        string
	Kind        Kind
	Pos         geom.Vec2
	Size        geom.Vec2
	Orientation Orientation

	// Inputs holds inlined (unconnected) slot values keyed by slot id.
	Inputs map[string]string
}

// NewID returns a fresh id for an item or annotation.
func NewID() string {
	return uuid.NewString()
}

// Bounds returns the item's canvas rectangle.
func (i *Item) Bounds() geom.Rect {
	return geom.RectAt(i.Pos, i.Size)
}

// Input returns an inlined slot value.
func (i *Item) Input(slot string) (string, bool) {
	if i.Inputs == nil {
		return "", false
	}
	v, ok := i.Inputs[slot]
	return v, ok
}

// Clone returns a deep copy of the item.
func (i *Item) Clone() *Item {
	c := *i
	if i.Inputs != nil {
		c.Inputs = make(map[string]string, len(i.Inputs))
		for k, v := range i.Inputs {
			c.Inputs[k] = v
		}
	}
	return &c
}

// Connection wires an output slot of one item into an input slot of another.
type Connection struct {
	SourceItemID string
	SourceSlot   string
	TargetItemID string
	TargetSlot   string

	// MultiInputIndex orders several connections feeding the same multi-input slot.
	MultiInputIndex int
}

// Involves reports whether either endpoint is the given item.
func (c Connection) Involves(itemID string) bool {
	return c.SourceItemID == itemID || c.TargetItemID == itemID
}

// Annotation is a titled frame drawn behind a group of items.
type Annotation struct {
	ID        string
	Title     string
	Label     string
	Pos       geom.Vec2
	Size      geom.Vec2
	Collapsed bool

	// Tour lists item ids in presentation order.
	Tour []string

	// Nested holds the items whose bounds lie inside the annotation. It is
	// derived state, refreshed by Layout.Recompute.
	Nested []string
}

// Bounds returns the annotation's canvas rectangle.
func (a *Annotation) Bounds() geom.Rect {
	return geom.RectAt(a.Pos, a.Size)
}

// Clone returns a deep copy of the annotation.
func (a *Annotation) Clone() *Annotation {
	c := *a
	c.Tour = append([]string(nil), a.Tour...)
	c.Nested = append([]string(nil), a.Nested...)
	return &c
}
