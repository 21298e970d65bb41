package editor

import (
	"go.uber.org/zap"

	"github.com/msalah0e/nodecanvas/internal/browser"
	"github.com/msalah0e/nodecanvas/internal/geom"
	"github.com/msalah0e/nodecanvas/internal/selection"
	"github.com/msalah0e/nodecanvas/internal/snap"
	"github.com/msalah0e/nodecanvas/internal/undo"
)

func (s *Session) updatePlaceholder(in Input, out *Output) {
	if s.browser.Stale() {
		s.log.Debug("placeholder target vanished")
		s.browser.Cancel()
		s.state = &Default{}
		return
	}

	res := s.browser.Draw(in.browserInput())
	out.BrowserResult = res
	switch {
	case res.Has(browser.Create):
		id, err := s.browser.Commit()
		if err != nil {
			s.log.Warn("placeholder commit failed", zap.Error(err))
		} else {
			s.selectCreated([]string{id}, out)
		}
		s.state = &Default{}
	case res.Has(browser.Cancel), res.Has(browser.ClickedOutside):
		s.browser.Cancel()
		s.state = &Default{}
	}
}

// editText applies typed text and backspace to an edit buffer.
func editText(buf string, in Input) string {
	if in.Has(KeyBackspace) && buf != "" {
		r := []rune(buf)
		buf = string(r[:len(r)-1])
	}
	return buf + in.Text
}

func (s *Session) updateRenameChild(st *RenameChild, in Input) {
	it, ok := s.layout.Item(st.ItemID)
	if !ok {
		s.log.Debug("renamed item vanished", zap.String("item", st.ItemID))
		s.state = &Default{}
		return
	}
	st.Buffer = editText(st.Buffer, in)

	switch {
	case in.Has(KeyEscape):
		s.state = &Default{}
	case in.Pressed && !s.view.RectToScreen(it.Bounds()).ContainsPoint(in.Pointer):
		s.state = &Default{}
	case in.Has(KeyEnter):
		if st.Buffer != st.Original {
			if err := s.rec.Execute(&undo.RenameItem{ID: st.ItemID, Old: st.Original, New: st.Buffer}); err != nil {
				s.log.Warn("rename failed", zap.Error(err))
			}
		}
		s.state = &Default{}
	}
}

func (s *Session) updateRenameAnnotation(st *RenameAnnotation, in Input) {
	a, ok := s.layout.Annotation(st.AnnotationID)
	if !ok {
		s.log.Debug("renamed annotation vanished", zap.String("annotation", st.AnnotationID))
		s.state = &Default{}
		return
	}
	st.Buffer = editText(st.Buffer, in)

	switch {
	case in.Has(KeyEscape):
		s.state = &Default{}
	case in.Pressed && !s.view.RectToScreen(a.Bounds()).ContainsPoint(in.Pointer):
		s.state = &Default{}
	case in.Has(KeyEnter):
		if st.Buffer != st.Original {
			if err := s.rec.Execute(&undo.RenameAnnotation{ID: st.AnnotationID, Old: st.Original, New: st.Buffer}); err != nil {
				s.log.Warn("rename failed", zap.Error(err))
			}
		}
		s.state = &Default{}
	}
}

func (s *Session) updateDragging(st *Dragging, in Input) {
	if s.dropVanished(st) {
		s.resetDrag(st)
		s.state = &Default{}
		return
	}
	delta := s.view.DeltaToCanvas(in.Pointer.Sub(st.Start))

	switch {
	case in.Has(KeyEscape):
		s.resetDrag(st)
		s.state = &Default{}
	case in.Released || !in.Down:
		s.resetDrag(st)
		if moves := s.snap.Grid.Release(st.Origins, delta); len(moves) > 0 {
			if err := s.rec.Execute(&undo.MoveItems{Label: "Move", Moves: moves}); err != nil {
				s.log.Warn("move failed", zap.Error(err))
			}
		}
		s.state = &Default{}
	default:
		if err := s.rec.ExecuteTransient(&undo.MoveItems{Moves: snap.Translate(st.Origins, delta)}); err != nil {
			s.log.Warn("drag preview failed", zap.Error(err))
		}
	}
}

// dropVanished removes origins whose entity no longer exists and reports
// whether nothing is left to drag.
func (s *Session) dropVanished(st *Dragging) bool {
	kept := st.Origins[:0]
	for _, m := range st.Origins {
		if _, ok := s.layout.Position(m.ID); ok {
			kept = append(kept, m)
		}
	}
	st.Origins = kept
	return len(kept) == 0
}

// resetDrag puts dragged entities back where the drag started, outside
// the history.
func (s *Session) resetDrag(st *Dragging) {
	back := make([]undo.Move, 0, len(st.Origins))
	for _, m := range st.Origins {
		if _, ok := s.layout.Position(m.ID); ok {
			back = append(back, undo.Move{ID: m.ID, From: m.From, To: m.From})
		}
	}
	if len(back) == 0 {
		return
	}
	if err := s.rec.ExecuteTransient(&undo.MoveItems{Moves: back}); err != nil {
		s.log.Warn("resetting drag failed", zap.Error(err))
	}
}

func (s *Session) updateHoldBackground(st *HoldBackground, in Input) {
	switch {
	case in.Has(KeyEscape):
		s.cancelFence()
	case in.Released || !in.Down:
		s.completeFence(in)
	case in.Pointer.Sub(st.Start).Len() > s.cfg.Canvas.DragThreshold:
		s.fence.Update(in.Pointer, s.layout, s.view, s.sel)
		s.state = &BackgroundInteractive{}
	}
}

func (s *Session) updateBackground(in Input) {
	if in.Has(KeyEscape) {
		s.cancelFence()
		return
	}
	if in.Down || in.Released {
		s.fence.Update(in.Pointer, s.layout, s.view, s.sel)
	}
	if in.Released || !in.Down {
		s.completeFence(in)
	}
}

func (s *Session) completeFence(in Input) {
	result := s.fence.Complete(s.opts.CompositionID, in.PopupOpen, s.sel)
	s.log.Debug("fence completed", zap.Stringer("as", result), zap.Int("selected", s.sel.Len()))
	s.fence.Reset()
	s.state = &Default{}
}

func (s *Session) cancelFence() {
	s.fence.Cancel(s.sel)
	s.log.Debug("fence cancelled", zap.Int("selected", s.sel.Len()))
	s.state = &Default{}
}

// Fence exposes the fence for renderers.
func (s *Session) Fence() *selection.Fence { return &s.fence }

// ScreenBounds returns an item's rectangle on screen.
func (s *Session) ScreenBounds(id string) (geom.Rect, bool) {
	if it, ok := s.layout.Item(id); ok {
		return s.view.RectToScreen(it.Bounds()), true
	}
	if a, ok := s.layout.Annotation(id); ok {
		return s.view.RectToScreen(a.Bounds()), true
	}
	return geom.Rect{}, false
}
