package browser

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/msalah0e/nodecanvas/internal/catalog"
	"github.com/msalah0e/nodecanvas/internal/geom"
	"github.com/msalah0e/nodecanvas/internal/layout"
	"github.com/msalah0e/nodecanvas/internal/snap"
	"github.com/msalah0e/nodecanvas/internal/undo"
)

// bigCatalog has 500 symbols; exactly three produce a float.
func bigCatalog() *catalog.Registry {
	var syms []catalog.Symbol
	for i := 0; i < 500; i++ {
		s := catalog.Symbol{
			ID:        fmt.Sprintf("lib.Op%03d", i),
			Name:      fmt.Sprintf("Op%03d", i),
			Namespace: "lib",
			Inputs:    []catalog.Slot{{ID: "in", Type: "texture"}},
			Outputs:   []catalog.Slot{{ID: "out", Type: "texture"}},
		}
		switch i {
		case 17, 230, 499:
			s.Namespace = "math"
			s.ID = "math." + s.Name
			s.Outputs = []catalog.Slot{{ID: "texture", Type: "texture"}, {ID: "result", Type: "float"}}
		}
		syms = append(syms, s)
	}
	return catalog.New(syms)
}

type fixture struct {
	l   *layout.Layout
	h   *undo.History
	rec *undo.Recorder
	b   *Browser
}

func newFixture(t *testing.T, cat Catalog) *fixture {
	t.Helper()
	l := layout.New()
	h := undo.NewHistory(l, 100)
	rec := undo.NewRecorder(l, h, zap.NewNop(), true)
	return &fixture{l: l, h: h, rec: rec, b: New(cat, rec, snap.New(20, 8, nil), 5, zap.NewNop())}
}

func (f *fixture) seedTarget(t *testing.T) {
	t.Helper()
	require.NoError(t, f.l.AddItem(&layout.Item{ID: "blur", Name: "Blur", Pos: geom.V(300, 0)}))
	require.NoError(t, f.l.AddItem(&layout.Item{ID: "src", Name: "Src", Pos: geom.V(0, 200)}))
	require.NoError(t, f.l.AddConnection(layout.Connection{SourceItemID: "src", SourceSlot: "out", TargetItemID: "blur", TargetSlot: "radius"}))
}

func TestOutputFilterNarrowsToFloatProducers(t *testing.T) {
	f := newFixture(t, bigCatalog())
	f.seedTarget(t)

	require.NoError(t, f.b.Open(Request{
		Pos:          geom.V(600, 400),
		OutputFilter: "float",
		Target:       &Wire{ItemID: "blur", Slot: "radius"},
	}))
	assert.True(t, f.b.TakeFocusRequest())
	assert.False(t, f.b.TakeFocusRequest())

	results := f.b.Results()
	require.Len(t, results, 3)
	assert.Equal(t, "math.Op017", results[0].ID)
	assert.Equal(t, "math.Op230", results[1].ID)
	assert.Equal(t, "math.Op499", results[2].ID)
	sel, ok := f.b.Selected()
	require.True(t, ok)
	assert.Equal(t, "math.Op017", sel.ID)

	res := f.b.Draw(Input{Enter: true})
	require.True(t, res.Has(Create))

	id, err := f.b.Commit()
	require.NoError(t, err)
	assert.False(t, f.b.IsOpen())
	assert.Equal(t, 0, f.rec.Depth())

	it, ok := f.l.Item(id)
	require.True(t, ok)
	assert.Equal(t, "math.Op017", it.SymbolID)
	assert.Equal(t, geom.V(180, 0), it.Pos, "left of the target on its insertion line")
	assert.Equal(t, []layout.Connection{{SourceItemID: id, SourceSlot: "result", TargetItemID: "blur", TargetSlot: "radius"}},
		f.l.ConnectionsInto("blur", "radius"))
	assert.Equal(t, 3, f.l.ItemCount(), "placeholder must be gone")

	// The whole commit is one undo step and the placeholder does not return.
	assert.Equal(t, 1, f.h.Len())
	require.NoError(t, f.h.Undo())
	assert.Equal(t, 2, f.l.ItemCount())
	assert.True(t, f.l.HasConnection(layout.Connection{SourceItemID: "src", SourceSlot: "out", TargetItemID: "blur", TargetSlot: "radius"}))
}

func TestCancelIsNoop(t *testing.T) {
	f := newFixture(t, bigCatalog())
	f.seedTarget(t)
	items, conns := f.l.ItemCount(), f.l.ConnectionCount()

	sequences := [][]Input{
		{{Escape: true}},
		{{Text: "op1"}, {Down: true}, {Down: true}, {Escape: true}},
		{{Text: "x"}, {Backspace: true}, {Up: true}, {Clicked: true, Pointer: geom.V(-100, -100)}},
	}
	for i, seq := range sequences {
		require.NoError(t, f.b.Open(Request{Pos: geom.V(0, 0), Screen: geom.V(10, 10)}))
		assert.Equal(t, items+1, f.l.ItemCount())

		var last Result
		for _, in := range seq {
			last = f.b.Draw(in)
		}
		assert.True(t, last.Has(Cancel) || last.Has(ClickedOutside), "sequence %d ended with %s", i, last)
		f.b.Cancel()

		assert.Equal(t, items, f.l.ItemCount(), "sequence %d", i)
		assert.Equal(t, conns, f.l.ConnectionCount(), "sequence %d", i)
		assert.Equal(t, 0, f.h.Len())
	}
}

func TestNavigationClamps(t *testing.T) {
	f := newFixture(t, bigCatalog())
	require.NoError(t, f.b.Open(Request{OutputFilter: "float"}))

	assert.Equal(t, Result(0), f.b.Draw(Input{Up: true}))
	assert.Equal(t, 0, f.b.SelectedIndex())

	for i := 0; i < 10; i++ {
		f.b.Draw(Input{Down: true})
	}
	assert.Equal(t, 2, f.b.SelectedIndex(), "no wraparound")
	assert.Equal(t, Result(0), f.b.Draw(Input{Down: true}))
}

func TestVisibleRowsAreVirtualized(t *testing.T) {
	f := newFixture(t, bigCatalog())
	require.NoError(t, f.b.Open(Request{}))
	require.Len(t, f.b.Results(), 500)

	rows := f.b.Visible()
	require.Len(t, rows, 5)
	assert.True(t, rows[0].Selected)

	for i := 0; i < 7; i++ {
		f.b.Draw(Input{Down: true})
	}
	rows = f.b.Visible()
	require.Len(t, rows, 5)
	assert.Equal(t, 3, rows[0].Index)
	assert.Equal(t, 7, rows[4].Index)
	assert.True(t, rows[4].Selected)

	f.b.Draw(Input{Wheel: 1000})
	rows = f.b.Visible()
	assert.Equal(t, 499, rows[len(rows)-1].Index)
}

func TestQueryFiltersAndResetsSelection(t *testing.T) {
	f := newFixture(t, bigCatalog())
	require.NoError(t, f.b.Open(Request{}))
	f.b.Draw(Input{Down: true})

	res := f.b.Draw(Input{Text: "op23"})
	assert.True(t, res.Has(SelectionChanged))
	assert.Equal(t, 0, f.b.SelectedIndex())
	require.NotEmpty(t, f.b.Results())
	for _, s := range f.b.Results() {
		assert.Contains(t, s.Name, "Op23")
	}

	f.b.SetQuery("ns:math op")
	assert.Len(t, f.b.Results(), 3)
}

func TestClickOnRowCreates(t *testing.T) {
	f := newFixture(t, bigCatalog())
	require.NoError(t, f.b.Open(Request{Screen: geom.V(100, 100), OutputFilter: "float"}))

	res := f.b.Draw(Input{Clicked: true, Pointer: geom.V(150, 100+HeaderHeight+RowHeight+5)})
	assert.True(t, res.Has(Create))
	assert.True(t, res.Has(SelectionChanged))
	sel, _ := f.b.Selected()
	assert.Equal(t, "math.Op230", sel.ID)

	// A click inside the popup but below the last result does nothing.
	res = f.b.Draw(Input{Clicked: true, Pointer: geom.V(150, 100+HeaderHeight+4*RowHeight+5)})
	assert.Equal(t, Result(0), res)
}

func TestSourceWireFeedsNewInput(t *testing.T) {
	cat := catalog.New([]catalog.Symbol{{
		ID: "fx.Blur", Name: "Blur", Namespace: "fx",
		Inputs:  []catalog.Slot{{ID: "image", Type: "texture"}, {ID: "layers", Type: "texture", Multi: true}},
		Outputs: []catalog.Slot{{ID: "out", Type: "texture"}},
	}})
	f := newFixture(t, cat)
	require.NoError(t, f.l.AddItem(&layout.Item{ID: "src", Pos: geom.V(0, 0)}))

	require.NoError(t, f.b.Open(Request{Pos: geom.V(200, 0), InputFilter: "[]texture", Source: &Wire{ItemID: "src", Slot: "out"}}))
	id, err := f.b.Commit()
	require.NoError(t, err)
	assert.True(t, f.l.HasConnection(layout.Connection{SourceItemID: "src", SourceSlot: "out", TargetItemID: id, TargetSlot: "layers"}))
}

func TestStaleWhenTargetRemoved(t *testing.T) {
	f := newFixture(t, bigCatalog())
	f.seedTarget(t)
	require.NoError(t, f.b.Open(Request{Target: &Wire{ItemID: "blur", Slot: "radius"}}))
	assert.False(t, f.b.Stale())

	_, err := f.l.RemoveItem("blur")
	require.NoError(t, err)
	assert.True(t, f.b.Stale())
}

func TestCommitWithoutResults(t *testing.T) {
	f := newFixture(t, bigCatalog())
	require.NoError(t, f.b.Open(Request{}))
	f.b.SetQuery("nothing matches this")
	assert.Equal(t, Result(0), f.b.Draw(Input{Enter: true}))

	_, err := f.b.Commit()
	assert.ErrorIs(t, err, ErrNoSelection)
	assert.Equal(t, 0, f.l.ItemCount())
}

func TestResultString(t *testing.T) {
	assert.Equal(t, "none", Result(0).String())
	assert.Equal(t, "selection-changed|create", (SelectionChanged | Create).String())
}
