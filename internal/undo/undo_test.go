package undo

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/msalah0e/nodecanvas/internal/geom"
	"github.com/msalah0e/nodecanvas/internal/layout"
)

func newFixture(t *testing.T) (*layout.Layout, *History, *Recorder) {
	t.Helper()
	l := layout.New()
	h := NewHistory(l, 50)
	return l, h, NewRecorder(l, h, zap.NewNop(), false)
}

func item(id string, y float64) *layout.Item {
	return &layout.Item{ID: id, Name: id, Pos: geom.V(0, y)}
}

func TestPrimitiveOutsideMacroIsOwnEntry(t *testing.T) {
	l, h, rec := newFixture(t)

	require.NoError(t, rec.Execute(&AddItem{Item: item("a", 0)}))
	require.NoError(t, rec.Execute(&AddItem{Item: item("b", 40)}))
	assert.Equal(t, 2, h.Len())

	require.NoError(t, h.Undo())
	assert.Equal(t, 1, l.ItemCount())
	assert.True(t, l.HasItem("a"))
}

func TestMacroUndoesAtomically(t *testing.T) {
	l, h, rec := newFixture(t)
	conn := layout.Connection{SourceItemID: "a", SourceSlot: "out", TargetItemID: "b", TargetSlot: "in"}

	require.NoError(t, rec.StartMacroCommand("Insert"))
	require.NoError(t, rec.Execute(&AddItem{Item: item("a", 0)}))
	require.NoError(t, rec.Execute(&AddItem{Item: item("b", 40)}))
	require.NoError(t, rec.Execute(&AddConnection{Conn: conn}))
	require.NoError(t, rec.CompleteMacroCommand())

	assert.Equal(t, 0, rec.Depth())
	assert.Equal(t, 1, h.Len())
	assert.Equal(t, []string{"Insert"}, h.Labels())

	require.NoError(t, h.Undo())
	assert.Equal(t, 0, l.ItemCount())
	assert.Equal(t, 0, l.ConnectionCount())

	require.NoError(t, h.Redo())
	assert.Equal(t, 2, l.ItemCount())
	assert.True(t, l.HasConnection(conn))
}

func TestMacroNestingIsAnError(t *testing.T) {
	_, _, rec := newFixture(t)

	require.NoError(t, rec.StartMacroCommand("outer"))
	err := rec.StartMacroCommand("inner")
	assert.True(t, errors.Is(err, ErrMacroNesting))
	assert.Equal(t, 1, rec.Depth())
	require.NoError(t, rec.CompleteMacroCommand())
}

func TestCompleteWithoutStart(t *testing.T) {
	_, _, rec := newFixture(t)
	assert.ErrorIs(t, rec.CompleteMacroCommand(), ErrNoOpenMacro)
}

func TestDebugModePanicsOnImbalance(t *testing.T) {
	l := layout.New()
	rec := NewRecorder(l, NewHistory(l, 10), nil, true)

	assert.Panics(t, func() { _ = rec.CompleteMacroCommand() })
}

func TestEmptyMacroIsDropped(t *testing.T) {
	_, h, rec := newFixture(t)
	require.NoError(t, rec.StartMacroCommand("nothing"))
	require.NoError(t, rec.CompleteMacroCommand())
	assert.Equal(t, 0, h.Len())
}

func TestAbortRollsBack(t *testing.T) {
	l, h, rec := newFixture(t)
	require.NoError(t, rec.Execute(&AddItem{Item: item("keep", 0)}))

	err := rec.Do("Broken", func() error {
		if err := rec.Execute(&AddItem{Item: item("temp", 40)}); err != nil {
			return err
		}
		return rec.Execute(&AddConnection{Conn: layout.Connection{SourceItemID: "temp", TargetItemID: "ghost"}})
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, layout.ErrDangling)
	assert.Equal(t, 0, rec.Depth())
	assert.Equal(t, 1, l.ItemCount())
	assert.Equal(t, 1, h.Len())
}

func TestRemoveItemRestoresConnections(t *testing.T) {
	l, h, rec := newFixture(t)
	l.AddItem(item("a", 0))
	l.AddItem(item("b", 40))
	conn := layout.Connection{SourceItemID: "a", SourceSlot: "out", TargetItemID: "b", TargetSlot: "in"}
	require.NoError(t, l.AddConnection(conn))

	require.NoError(t, rec.Execute(&RemoveItem{ID: "a"}))
	assert.Equal(t, 0, l.ConnectionCount())

	require.NoError(t, h.Undo())
	assert.True(t, l.HasItem("a"))
	assert.True(t, l.HasConnection(conn))

	require.NoError(t, h.Redo())
	assert.False(t, l.HasItem("a"))
	require.NoError(t, l.Validate())
}

func TestMoveAndRename(t *testing.T) {
	l, h, rec := newFixture(t)
	l.AddItem(item("a", 0))

	require.NoError(t, rec.Execute(&MoveItems{Moves: []Move{{ID: "a", From: geom.V(0, 0), To: geom.V(40, 60)}}}))
	require.NoError(t, rec.Execute(&RenameItem{ID: "a", Old: "a", New: "Blur"}))

	it, _ := l.Item("a")
	assert.Equal(t, geom.V(40, 60), it.Pos)
	assert.Equal(t, "Blur", it.Name)

	require.NoError(t, h.Undo())
	require.NoError(t, h.Undo())
	assert.Equal(t, geom.V(0, 0), it.Pos)
	assert.Equal(t, "a", it.Name)
}

func TestSetInputValueUndoClearsNewValue(t *testing.T) {
	l, h, rec := newFixture(t)
	l.AddItem(item("a", 0))

	require.NoError(t, rec.Execute(&SetInputValue{ItemID: "a", Slot: "path", Value: "Resources/x.png"}))
	it, _ := l.Item("a")
	v, ok := it.Input("path")
	assert.True(t, ok)
	assert.Equal(t, "Resources/x.png", v)

	require.NoError(t, h.Undo())
	_, ok = it.Input("path")
	assert.False(t, ok)
}

func TestAnnotationCommands(t *testing.T) {
	l, h, rec := newFixture(t)
	ann := &layout.Annotation{ID: "n", Title: "Intro", Size: geom.V(200, 100)}

	require.NoError(t, rec.Execute(&AddAnnotation{Annotation: ann}))
	require.NoError(t, rec.Execute(&RenameAnnotation{ID: "n", Old: "Intro", New: "Setup"}))
	require.NoError(t, rec.Execute(&SetAnnotationCollapsed{ID: "n", Collapsed: true}))

	a, ok := l.Annotation("n")
	require.True(t, ok)
	assert.Equal(t, "Setup", a.Title)
	assert.True(t, a.Collapsed)

	require.NoError(t, rec.Execute(&RemoveAnnotation{ID: "n"}))
	_, ok = l.Annotation("n")
	assert.False(t, ok)

	require.NoError(t, h.Undo())
	a, ok = l.Annotation("n")
	require.True(t, ok)
	assert.True(t, a.Collapsed)
}

func TestCollapseUndoRestoresPriorState(t *testing.T) {
	l, h, rec := newFixture(t)
	require.NoError(t, l.AddAnnotation(&layout.Annotation{ID: "n", Size: geom.V(200, 100), Collapsed: true}))

	// Collapsing an already collapsed annotation changes nothing, and
	// neither does undoing it.
	require.NoError(t, rec.Execute(&SetAnnotationCollapsed{ID: "n", Collapsed: true}))
	require.NoError(t, h.Undo())
	a, _ := l.Annotation("n")
	assert.True(t, a.Collapsed)

	require.NoError(t, rec.Execute(&SetAnnotationCollapsed{ID: "n", Collapsed: false}))
	assert.False(t, a.Collapsed)
	require.NoError(t, h.Undo())
	assert.True(t, a.Collapsed)

	assert.ErrorIs(t, rec.Execute(&SetAnnotationCollapsed{ID: "missing", Collapsed: true}), layout.ErrNotFound)
}

func TestHistoryDepthIsBounded(t *testing.T) {
	l := layout.New()
	h := NewHistory(l, 2)
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, h.AddAndExecute(&AddItem{Item: item(id, 0)}))
	}
	assert.Equal(t, 2, h.Len())
	require.NoError(t, h.Undo())
	require.NoError(t, h.Undo())
	assert.ErrorIs(t, h.Undo(), ErrNothingToUndo)
	assert.True(t, l.HasItem("a"))
}
