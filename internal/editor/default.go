package editor

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/msalah0e/nodecanvas/internal/browser"
	"github.com/msalah0e/nodecanvas/internal/catalog"
	"github.com/msalah0e/nodecanvas/internal/geom"
	"github.com/msalah0e/nodecanvas/internal/layout"
	"github.com/msalah0e/nodecanvas/internal/selection"
	"github.com/msalah0e/nodecanvas/internal/undo"
)

var (
	errNoSingleSelection = errors.New("exactly one entity must be selected")
	errNothingInlined    = errors.New("no inlined input to extract")
)

func (s *Session) updateDefault(ctx context.Context, st *Default, in Input, out *Output) {
	for _, a := range in.actions() {
		s.runAction(a, in, out)
		if _, idle := s.state.(*Default); !idle {
			return
		}
	}

	if in.Connection != nil {
		s.openForConnection(in)
		return
	}

	if in.Drop != nil && !in.Drop.Empty() {
		ids, err := s.drops.Drop(ctx, *in.Drop, s.toCanvas(in.Pointer))
		if err != nil {
			s.log.Warn("drop rejected", zap.Error(err))
		}
		s.selectCreated(ids, out)
		return
	}

	switch {
	case in.Pressed:
		s.pressDefault(st, in)
	case in.Down && st.press != nil:
		moved := in.Pointer.Sub(st.press.screen).Len()
		if moved > s.cfg.Canvas.DragThreshold {
			s.startDrag(st.press.screen)
		}
	case in.Released && st.press != nil:
		if st.press.wasSelected && !in.Shift && !in.Ctrl {
			s.sel.Select(st.press.hit)
		}
		st.press = nil
	}
}

func (s *Session) pressDefault(st *Default, in Input) {
	hit, ok := s.hitTest(s.toCanvas(in.Pointer))
	if !ok {
		st.press = nil
		s.fence.Press(in.Pointer, selection.ModeFor(in.Shift, in.Ctrl), s.sel)
		s.state = &HoldBackground{Start: in.Pointer}
		return
	}

	p := &press{screen: in.Pointer, hit: hit, wasSelected: s.sel.Contains(hit.ID)}
	switch {
	case in.Ctrl:
		if p.wasSelected {
			s.sel.Remove(hit.ID)
			p.wasSelected = false
			st.press = nil
			return
		}
		s.sel.Add(hit)
	case in.Shift:
		s.sel.Add(hit)
	case !p.wasSelected:
		s.sel.Select(hit)
	}
	st.press = p
}

func (s *Session) runAction(a Action, in Input, out *Output) {
	var err error
	switch a {
	case ActionInsert:
		err = s.openBrowser(browser.Request{
			Pos:    s.snap.Grid.Snap(s.toCanvas(in.Pointer)),
			Screen: in.Pointer,
		})
	case ActionRename:
		err = s.beginRename()
	case ActionExtract:
		err = s.extract(in.ExtractSlot, out)
	case ActionDelete:
		err = s.DeleteSelection()
	case ActionUndo:
		err = s.history.Undo()
	case ActionRedo:
		err = s.history.Redo()
	case ActionSelectAll:
		s.SelectAll()
	case ActionAnnotate:
		err = s.Annotate()
	case ActionCollapse:
		err = s.ToggleCollapsed()
	}
	if err != nil {
		s.log.Warn("action failed", zap.String("action", a.String()), zap.Error(err))
	}
}

func (s *Session) openBrowser(req browser.Request) error {
	if err := s.browser.Open(req); err != nil {
		return err
	}
	s.state = &PlaceholderOpen{}
	return nil
}

// openForConnection opens the browser for a connection released over
// empty canvas, filtered to operators that can take its other end.
func (s *Session) openForConnection(in Input) {
	c := in.Connection
	if !s.layout.HasItem(c.ItemID) {
		s.log.Warn("dangling connection from missing item", zap.String("item", c.ItemID))
		return
	}
	req := browser.Request{
		Pos:    s.snap.Grid.Snap(s.toCanvas(in.Pointer)),
		Screen: in.Pointer,
	}
	if target, ok := s.layout.Item(c.ItemID); ok {
		req.Orientation = target.Orientation
	}
	w := &browser.Wire{ItemID: c.ItemID, Slot: c.Slot, Multi: c.Multi}
	if c.FromInput {
		req.OutputFilter = c.Type
		req.Target = w
	} else {
		req.InputFilter = c.Type
		req.Source = w
	}
	if err := s.openBrowser(req); err != nil {
		s.log.Warn("opening browser failed", zap.Error(err))
	}
}

func (s *Session) beginRename() error {
	e, ok := s.sel.Single()
	if !ok {
		return errNoSingleSelection
	}
	switch e.Kind {
	case selection.KindItem:
		it, ok := s.layout.Item(e.ID)
		if !ok {
			return layout.ErrNotFound
		}
		s.state = &RenameChild{ItemID: it.ID, Buffer: it.Name, Original: it.Name}
	case selection.KindAnnotation:
		a, ok := s.layout.Annotation(e.ID)
		if !ok {
			return layout.ErrNotFound
		}
		s.state = &RenameAnnotation{AnnotationID: a.ID, Buffer: a.Title, Original: a.Title}
	default:
		return errNoSingleSelection
	}
	return nil
}

func (s *Session) extract(slotID string, out *Output) error {
	e, ok := s.sel.Single()
	if !ok || e.Kind != selection.KindItem {
		return errNoSingleSelection
	}
	it, ok := s.layout.Item(e.ID)
	if !ok {
		return layout.ErrNotFound
	}
	if slotID == "" {
		sym, ok := s.cat.TryResolve(it.SymbolID)
		if !ok {
			return fmt.Errorf("%s: %w", it.SymbolID, catalog.ErrUnknownSymbol)
		}
		for _, in := range sym.Inputs {
			if _, inlined := it.Input(in.ID); inlined {
				slotID = in.ID
				break
			}
		}
		if slotID == "" {
			return errNothingInlined
		}
	}
	id, err := s.snap.ExtractParameter(s.rec, s.cat, it.ID, slotID)
	if err != nil {
		return err
	}
	s.selectCreated([]string{id}, out)
	return nil
}

// DeleteSelection removes every selected item and annotation in one undo
// step. Removed ids leave the selection in the same edit.
// Annotate frames the selected items in a new annotation, padded by one
// grid cell, and selects it.
func (s *Session) Annotate() error {
	var bounds geom.Rect
	n := 0
	for _, id := range s.sel.Of(selection.KindItem) {
		it, ok := s.layout.Item(id)
		if !ok {
			continue
		}
		if n == 0 {
			bounds = it.Bounds()
		} else {
			bounds = bounds.Union(it.Bounds())
		}
		n++
	}
	if n == 0 {
		return nil
	}
	pad := geom.V(s.snap.Grid.Size, s.snap.Grid.Size)
	a := &layout.Annotation{
		ID:    layout.NewID(),
		Title: "Annotation",
		Pos:   bounds.Min.Sub(pad),
		Size:  bounds.Size().Add(pad.Scale(2)),
	}
	if err := s.rec.Do("Annotate", func() error {
		return s.rec.Execute(&undo.AddAnnotation{Annotation: a})
	}); err != nil {
		return err
	}
	s.sel.Select(selection.Entity{ID: a.ID, Kind: selection.KindAnnotation})
	return nil
}

// ToggleCollapsed collapses the selected annotations, or expands them when
// all are collapsed already.
func (s *Session) ToggleCollapsed() error {
	var anns []*layout.Annotation
	collapse := false
	for _, id := range s.sel.Of(selection.KindAnnotation) {
		if a, ok := s.layout.Annotation(id); ok {
			anns = append(anns, a)
			collapse = collapse || !a.Collapsed
		}
	}
	if len(anns) == 0 {
		return nil
	}
	label := "Expand"
	if collapse {
		label = "Collapse"
	}
	return s.rec.Do(label, func() error {
		for _, a := range anns {
			if err := s.rec.Execute(&undo.SetAnnotationCollapsed{ID: a.ID, Collapsed: collapse}); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Session) DeleteSelection() error {
	entities := s.sel.Entities()
	var targets []selection.Entity
	for _, e := range entities {
		if e.Kind != selection.KindComposition {
			targets = append(targets, e)
		}
	}
	if len(targets) == 0 {
		return nil
	}
	return s.rec.Do("Delete", func() error {
		for _, e := range targets {
			var cmd undo.Command
			switch e.Kind {
			case selection.KindItem:
				if !s.layout.HasItem(e.ID) {
					continue
				}
				cmd = &undo.RemoveItem{ID: e.ID}
			case selection.KindAnnotation:
				if _, ok := s.layout.Annotation(e.ID); !ok {
					continue
				}
				cmd = &undo.RemoveAnnotation{ID: e.ID}
			}
			if err := s.rec.Execute(cmd); err != nil {
				return err
			}
		}
		return nil
	})
}

// SelectAll selects every item and annotation of the composition.
func (s *Session) SelectAll() {
	s.sel.Clear()
	for _, it := range s.layout.Items() {
		if it.Kind != layout.KindPlaceholder {
			s.sel.Add(selection.Entity{ID: it.ID, Kind: selection.KindItem})
		}
	}
	for _, a := range s.layout.Annotations() {
		s.sel.Add(selection.Entity{ID: a.ID, Kind: selection.KindAnnotation})
	}
}

func (s *Session) selectCreated(ids []string, out *Output) {
	if len(ids) == 0 {
		return
	}
	s.sel.Clear()
	for _, id := range ids {
		s.sel.Add(selection.Entity{ID: id, Kind: selection.KindItem})
	}
	out.Created = append(out.Created, ids...)
}

// startDrag captures the origins of every selected item and annotation.
func (s *Session) startDrag(start geom.Vec2) {
	var origins []undo.Move
	for _, e := range s.sel.Entities() {
		if pos, ok := s.layout.Position(e.ID); ok {
			origins = append(origins, undo.Move{ID: e.ID, From: pos})
		}
	}
	if len(origins) == 0 {
		s.state = &Default{}
		return
	}
	s.state = &Dragging{Start: start, Origins: origins}
}
