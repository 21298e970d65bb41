// Package browser implements the placeholder workflow: a transient item is
// placed where a new operator should go, the user searches the catalog,
// and committing replaces the placeholder with a real instance.
//
// Draw only decides what happened this frame. The caller acts on the
// returned flags by calling Commit or Cancel, which keeps the decisions
// testable without a renderer.
package browser

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/msalah0e/nodecanvas/internal/catalog"
	"github.com/msalah0e/nodecanvas/internal/geom"
	"github.com/msalah0e/nodecanvas/internal/layout"
	"github.com/msalah0e/nodecanvas/internal/snap"
	"github.com/msalah0e/nodecanvas/internal/undo"
)

// Popup geometry in screen pixels.
const (
	Width        = 240.0
	HeaderHeight = 24.0
	RowHeight    = 20.0
)

var (
	ErrNotOpen     = errors.New("browser is not open")
	ErrNoSelection = errors.New("no symbol selected")
)

// Result is the set of things that happened during one Draw.
type Result uint8

const (
	SelectionChanged Result = 1 << iota
	Create
	Cancel
	ClickedOutside
)

// Has reports whether all flags in f are set.
func (r Result) Has(f Result) bool {
	return r&f == f
}

func (r Result) String() string {
	var parts []string
	for _, f := range []struct {
		flag Result
		name string
	}{
		{SelectionChanged, "selection-changed"},
		{Create, "create"},
		{Cancel, "cancel"},
		{ClickedOutside, "clicked-outside"},
	} {
		if r.Has(f.flag) {
			parts = append(parts, f.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// Catalog is what the browser needs from the operator registry.
type Catalog interface {
	catalog.Catalog
	Search(f catalog.Filter) []*catalog.Symbol
}

// Wire is one end of the connection being dragged when the browser opened.
type Wire struct {
	ItemID string
	Slot   string
	Multi  bool
}

// Request describes where the placeholder goes and what it connects to.
type Request struct {
	Pos         geom.Vec2 // canvas
	Screen      geom.Vec2 // top-left of the popup
	Orientation layout.Orientation

	InputFilter  string
	OutputFilter string

	// Target is an existing input the new instance's output feeds.
	Target *Wire
	// Source is an existing output feeding the new instance's input.
	Source *Wire
}

// Input is the part of a frame the browser reacts to.
type Input struct {
	Text      string
	Backspace bool
	Up        bool
	Down      bool
	Enter     bool
	Escape    bool

	Pointer geom.Vec2
	Clicked bool
	Wheel   int // rows, positive scrolls down
}

// Row is one materialized result line.
type Row struct {
	Index    int
	Symbol   *catalog.Symbol
	Selected bool
}

// Browser is the per-session symbol browser.
type Browser struct {
	cat         Catalog
	rec         *undo.Recorder
	place       *snap.Engine
	log         *zap.Logger
	visibleRows int

	open          bool
	focusPending  bool
	req           Request
	placeholderID string
	query         string
	results       []*catalog.Symbol
	selected      int
	scroll        int
}

// New creates a closed browser. place positions instances committed into
// an existing input.
func New(cat Catalog, rec *undo.Recorder, place *snap.Engine, visibleRows int, log *zap.Logger) *Browser {
	if log == nil {
		log = zap.NewNop()
	}
	if visibleRows < 1 {
		visibleRows = 1
	}
	return &Browser{cat: cat, rec: rec, place: place, log: log, visibleRows: visibleRows}
}

// Open resets the query, adds the placeholder item and asks for keyboard
// focus. The placeholder is transient and never reaches history.
func (b *Browser) Open(req Request) error {
	if b.open {
		b.Cancel()
	}
	ph := &layout.Item{
		ID:          layout.NewID(),
		Kind:        layout.KindPlaceholder,
		Pos:         req.Pos,
		Size:        layout.DefaultItemSize,
		Orientation: req.Orientation,
	}
	if err := b.rec.ExecuteTransient(&undo.AddItem{Item: ph}); err != nil {
		return fmt.Errorf("placeholder: %w", err)
	}

	b.open = true
	b.focusPending = true
	b.req = req
	b.placeholderID = ph.ID
	b.query = ""
	b.refresh()
	b.log.Debug("browser opened",
		zap.String("input_filter", req.InputFilter),
		zap.String("output_filter", req.OutputFilter),
		zap.Int("results", len(b.results)))
	return nil
}

func (b *Browser) IsOpen() bool { return b.open }

// PlaceholderID returns the id of the transient placeholder item.
func (b *Browser) PlaceholderID() string { return b.placeholderID }

func (b *Browser) Query() string { return b.query }

func (b *Browser) Request() Request { return b.req }

// TakeFocusRequest reports once after Open that the search field should
// grab keyboard focus.
func (b *Browser) TakeFocusRequest() bool {
	f := b.focusPending
	b.focusPending = false
	return f
}

// Results returns every match in ranked order.
func (b *Browser) Results() []*catalog.Symbol { return b.results }

// Selected returns the highlighted symbol.
func (b *Browser) Selected() (*catalog.Symbol, bool) {
	if b.selected < 0 || b.selected >= len(b.results) {
		return nil, false
	}
	return b.results[b.selected], true
}

func (b *Browser) SelectedIndex() int { return b.selected }

// Region is the popup's screen rectangle; clicks outside it cancel.
func (b *Browser) Region() geom.Rect {
	return geom.RectAt(b.req.Screen, geom.V(Width, HeaderHeight+float64(b.visibleRows)*RowHeight))
}

// Visible materializes only the rows inside the scroll window.
func (b *Browser) Visible() []Row {
	end := min(b.scroll+b.visibleRows, len(b.results))
	rows := make([]Row, 0, max(end-b.scroll, 0))
	for i := b.scroll; i < end; i++ {
		rows = append(rows, Row{Index: i, Symbol: b.results[i], Selected: i == b.selected})
	}
	return rows
}

// SetQuery replaces the search text.
func (b *Browser) SetQuery(q string) {
	b.query = q
	b.refresh()
}

// Draw processes one frame of input and returns what happened.
func (b *Browser) Draw(in Input) Result {
	if !b.open {
		return 0
	}
	var res Result

	if in.Text != "" || in.Backspace {
		q := b.query
		if in.Backspace && q != "" {
			r := []rune(q)
			q = string(r[:len(r)-1])
		}
		q += in.Text
		if q != b.query {
			b.SetQuery(q)
			res |= SelectionChanged
		}
	}

	if in.Down && b.selected < len(b.results)-1 {
		b.selected++
		res |= SelectionChanged
	}
	if in.Up && b.selected > 0 {
		b.selected--
		res |= SelectionChanged
	}
	if in.Wheel != 0 {
		b.scroll = clamp(b.scroll+in.Wheel, 0, max(len(b.results)-b.visibleRows, 0))
	}

	if in.Clicked {
		region := b.Region()
		if !region.ContainsPoint(in.Pointer) {
			return res | ClickedOutside
		}
		if row, ok := b.rowAt(in.Pointer); ok {
			if row != b.selected {
				res |= SelectionChanged
			}
			b.selected = row
			res |= Create
		}
	}

	if in.Escape {
		return res | Cancel
	}
	if in.Enter && len(b.results) > 0 {
		res |= Create
	}

	if res.Has(SelectionChanged) {
		b.follow()
	}
	return res
}

func (b *Browser) rowAt(p geom.Vec2) (int, bool) {
	y := p.Y - b.req.Screen.Y - HeaderHeight
	if y < 0 {
		return 0, false
	}
	row := b.scroll + int(y/RowHeight)
	if row >= len(b.results) || row >= b.scroll+b.visibleRows {
		return 0, false
	}
	return row, true
}

// follow keeps the selected row inside the scroll window.
func (b *Browser) follow() {
	if b.selected < b.scroll {
		b.scroll = b.selected
	}
	if b.selected >= b.scroll+b.visibleRows {
		b.scroll = b.selected - b.visibleRows + 1
	}
}

func (b *Browser) refresh() {
	ns, q := splitQuery(b.query)
	found := b.cat.Search(catalog.Filter{
		Query:      q,
		InputType:  b.req.InputFilter,
		OutputType: b.req.OutputFilter,
	})
	if ns != "" {
		kept := found[:0]
		for _, s := range found {
			if strings.HasPrefix(strings.ToLower(s.Namespace), ns) {
				kept = append(kept, s)
			}
		}
		found = kept
	}
	b.results = found
	b.selected = 0
	b.scroll = 0
}

// splitQuery pulls an "ns:<prefix>" term out of the query.
func splitQuery(q string) (ns, rest string) {
	var terms []string
	for _, f := range strings.Fields(q) {
		if p, ok := strings.CutPrefix(strings.ToLower(f), "ns:"); ok {
			ns = p
			continue
		}
		terms = append(terms, f)
	}
	return ns, strings.Join(terms, " ")
}

// Cancel removes the placeholder and closes the browser. Nothing else in
// the layout changes.
func (b *Browser) Cancel() {
	if !b.open {
		return
	}
	b.removePlaceholder()
	b.close()
	b.log.Debug("browser cancelled")
}

// Commit replaces the placeholder with an instance of the selected symbol
// and wires the pending connection, all in one macro. It returns the new
// item's id. The browser is closed either way.
func (b *Browser) Commit() (string, error) {
	if !b.open {
		return "", ErrNotOpen
	}
	sym, ok := b.Selected()
	if !ok {
		b.Cancel()
		return "", ErrNoSelection
	}
	req := b.req
	pos := req.Pos
	if ph, ok := b.rec.Layout().Item(b.placeholderID); ok {
		pos = ph.Pos
	}
	b.removePlaceholder()
	b.close()

	item, err := b.cat.Instantiate(sym.ID, pos)
	if err != nil {
		b.log.Warn("instantiate failed", zap.String("symbol", sym.ID), zap.Error(err))
		return "", err
	}
	item.Orientation = req.Orientation

	err = b.rec.Do("Create "+sym.Name, func() error {
		if err := b.add(sym, item, req); err != nil {
			return err
		}
		return b.wireSource(sym, item.ID, req)
	})
	if err != nil {
		b.log.Warn("commit failed", zap.String("symbol", sym.ID), zap.Error(err))
		return "", err
	}
	b.log.Debug("browser committed", zap.String("symbol", sym.ID), zap.String("item", item.ID))
	return item.ID, nil
}

// add puts the new instance into the layout. Feeding an existing input
// places it on that input's insertion line, pushing blockers down.
func (b *Browser) add(sym *catalog.Symbol, item *layout.Item, req Request) error {
	w := req.Target
	if w == nil {
		return b.rec.Execute(&undo.AddItem{Item: item})
	}
	target, ok := b.rec.Layout().Item(w.ItemID)
	if !ok {
		return b.rec.Execute(&undo.AddItem{Item: item})
	}
	out, ok := sym.FirstOutput(req.OutputFilter)
	if !ok {
		return fmt.Errorf("%s has no %q output", sym.Name, req.OutputFilter)
	}
	index, count := 0, 1
	if ts, ok := b.cat.TryResolve(target.SymbolID); ok {
		if _, i, ok := ts.Input(w.Slot); ok {
			index, count = i, len(ts.Inputs)
		}
	}
	return b.place.Insert(b.rec, snap.Insertion{
		Item:       item,
		OutputSlot: out.ID,
		Target:     target,
		TargetSlot: w.Slot,
		SlotIndex:  index,
		SlotCount:  count,
		Multi:      w.Multi,
	})
}

func (b *Browser) wireSource(sym *catalog.Symbol, itemID string, req Request) error {
	l := b.rec.Layout()
	if s := req.Source; s != nil && l.HasItem(s.ItemID) {
		in, ok := sym.FirstInput(req.InputFilter)
		if !ok {
			return fmt.Errorf("%s has no %q input", sym.Name, req.InputFilter)
		}
		if err := b.rec.Execute(&undo.AddConnection{Conn: layout.Connection{
			SourceItemID: s.ItemID, SourceSlot: s.Slot,
			TargetItemID: itemID, TargetSlot: in.ID,
		}}); err != nil {
			return err
		}
	}
	return nil
}

// Stale reports whether the item the pending connection refers to has
// been removed since Open.
func (b *Browser) Stale() bool {
	if !b.open {
		return false
	}
	l := b.rec.Layout()
	if !l.HasItem(b.placeholderID) {
		return true
	}
	if b.req.Target != nil && !l.HasItem(b.req.Target.ItemID) {
		return true
	}
	return b.req.Source != nil && !l.HasItem(b.req.Source.ItemID)
}

func (b *Browser) removePlaceholder() {
	if b.placeholderID == "" || !b.rec.Layout().HasItem(b.placeholderID) {
		return
	}
	if err := b.rec.ExecuteTransient(&undo.RemoveItem{ID: b.placeholderID}); err != nil {
		b.log.Warn("removing placeholder failed", zap.Error(err))
	}
}

func (b *Browser) close() {
	b.open = false
	b.focusPending = false
	b.placeholderID = ""
	b.results = nil
	b.selected = 0
	b.scroll = 0
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
