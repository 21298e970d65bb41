// Package editor is the interaction engine of one open composition view.
//
// A Session owns its layout, selection, undo history and active state.
// Frame is called once per frame with that frame's input; it drains work
// queued by background goroutines, dispatches the input to exactly one
// state, closes any macro left open and recomputes derived geometry.
package editor

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/msalah0e/nodecanvas/internal/browser"
	"github.com/msalah0e/nodecanvas/internal/catalog"
	"github.com/msalah0e/nodecanvas/internal/config"
	"github.com/msalah0e/nodecanvas/internal/drop"
	"github.com/msalah0e/nodecanvas/internal/geom"
	"github.com/msalah0e/nodecanvas/internal/layout"
	"github.com/msalah0e/nodecanvas/internal/selection"
	"github.com/msalah0e/nodecanvas/internal/snap"
	"github.com/msalah0e/nodecanvas/internal/undo"
)

// Catalog is the operator registry as the editor uses it.
type Catalog interface {
	browser.Catalog
	ValueSymbol(typ string) (*catalog.Symbol, bool)
}

// Options are the per-view settings of a session.
type Options struct {
	CompositionID string
	ProjectDir    string

	// Index is the shared asset index, drained at frame boundaries. It may
	// be nil.
	Index *drop.Index
}

// Session is the editing context of one composition view.
type Session struct {
	cfg  *config.Config
	log  *zap.Logger
	cat  Catalog
	opts Options

	layout  *layout.Layout
	sel     *selection.Selection
	history *undo.History
	rec     *undo.Recorder
	browser *browser.Browser
	drops   *drop.Handler
	snap    *snap.Engine
	fence   selection.Fence
	view    geom.View

	// onChanged survives navigation; bind registers it with every layout.
	onChanged []func()

	state State
	frame int
}

// New creates a session editing l.
func New(cat Catalog, l *layout.Layout, cfg *config.Config, log *zap.Logger, opts Options) *Session {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = zap.NewNop()
	}
	if opts.CompositionID == "" {
		opts.CompositionID = "root"
	}
	s := &Session{
		cfg:  cfg,
		log:  log,
		cat:  cat,
		opts: opts,
		sel:  selection.New(),
		snap: snap.New(cfg.Canvas.GridSize, cfg.Canvas.MaxPushDown, log.Named("snap")),
		view: geom.DefaultView(),
	}
	s.bind(l)
	return s
}

// bind attaches the session to a layout with a fresh history.
func (s *Session) bind(l *layout.Layout) {
	s.layout = l
	s.history = undo.NewHistory(l, s.cfg.Undo.Depth)
	s.rec = undo.NewRecorder(l, s.history, s.log.Named("undo"), s.cfg.Log.Debug)
	s.browser = browser.New(s.cat, s.rec, s.snap, s.cfg.Browser.VisibleRows, s.log.Named("browser"))
	s.drops = drop.NewHandler(s.cat, s.rec, drop.NewAssetMap(s.cfg.Assets), s.opts.Index, drop.Options{
		ProjectDir:  s.opts.ProjectDir,
		ResourceDir: s.cfg.Drop.ResourceDir,
		Concurrency: s.cfg.Drop.CopyConcurrency,
	}, s.log.Named("drop"))
	l.OnStructureChanged(func() {
		if s.layout != l {
			return
		}
		for _, fn := range s.onChanged {
			fn()
		}
	})
	s.sel.Clear()
	s.sel.Watch(l)
	s.fence.Reset()
	s.state = &Default{}
	l.MarkChanged()
}

func (s *Session) Layout() *layout.Layout          { return s.layout }
func (s *Session) Selection() *selection.Selection { return s.sel }
func (s *Session) History() *undo.History          { return s.history }
func (s *Session) Recorder() *undo.Recorder        { return s.rec }
func (s *Session) Browser() *browser.Browser       { return s.browser }
func (s *Session) Drops() *drop.Handler            { return s.drops }
func (s *Session) State() State                    { return s.state }
func (s *Session) CompositionID() string           { return s.opts.CompositionID }
func (s *Session) FrameCount() int                 { return s.frame }

func (s *Session) View() geom.View { return s.view }

// SetView replaces the canvas view transform.
func (s *Session) SetView(v geom.View) { s.view = v }

// OnStructureChanged registers a callback fired whenever the layout's
// structure changes, for navigation to request a relayout. It stays
// registered across Navigate.
func (s *Session) OnStructureChanged(fn func()) {
	s.onChanged = append(s.onChanged, fn)
}

// Navigate switches the session to another composition. Any interaction
// in progress is cancelled and the history starts over.
func (s *Session) Navigate(compositionID string, l *layout.Layout) {
	s.cancelActive()
	s.opts.CompositionID = compositionID
	s.bind(l)
	s.sel.Select(selection.Entity{ID: compositionID, Kind: selection.KindComposition})
	s.log.Info("navigated", zap.String("composition", compositionID), zap.Int("items", l.ItemCount()))
}

// Frame processes one frame of input.
func (s *Session) Frame(ctx context.Context, in Input) Output {
	s.frame++
	var out Output

	if s.opts.Index != nil {
		if changes := s.opts.Index.Drain(); len(changes) > 0 {
			s.log.Debug("asset index updated", zap.Int("changes", len(changes)))
		}
	}
	s.selectCreated(s.drops.Drain(), &out)

	s.dispatch(ctx, in, &out)

	if s.rec.Depth() != 0 {
		s.log.Error("macro left open at end of frame", zap.Int("frame", s.frame), zap.String("state", s.state.Name()))
		if err := s.rec.Abort(); err != nil {
			s.log.Error("aborting macro failed", zap.Error(err))
		}
	}
	if s.layout.ConsumeChanged() {
		s.layout.Recompute()
		s.sel.Prune(s.layout, s.opts.CompositionID)
	}

	s.fill(&out)
	return out
}

func (s *Session) fill(out *Output) {
	out.State = s.state.Name()
	out.FenceActive = s.fence.Active()
	if out.FenceActive {
		out.Fence = s.fence.Rect()
	}
	if s.browser.IsOpen() {
		out.BrowserOpen = true
		out.BrowserQuery = s.browser.Query()
		out.BrowserRows = s.browser.Visible()
		out.FocusSearch = s.browser.TakeFocusRequest()
	}
	switch st := s.state.(type) {
	case *RenameChild:
		out.EditBuffer = st.Buffer
	case *RenameAnnotation:
		out.EditBuffer = st.Buffer
	}
	out.Selection = s.sel.IDs()
}

// dispatch hands the frame to the active state.
func (s *Session) dispatch(ctx context.Context, in Input, out *Output) {
	switch st := s.state.(type) {
	case *Default:
		s.updateDefault(ctx, st, in, out)
	case *PlaceholderOpen:
		s.updatePlaceholder(in, out)
	case *RenameChild:
		s.updateRenameChild(st, in)
	case *RenameAnnotation:
		s.updateRenameAnnotation(st, in)
	case *Dragging:
		s.updateDragging(st, in)
	case *HoldBackground:
		s.updateHoldBackground(st, in)
	case *BackgroundInteractive:
		s.updateBackground(in)
	default:
		s.log.Error("unknown state", zap.String("state", fmt.Sprintf("%T", st)))
		s.state = &Default{}
	}
}

// cancelActive leaves whatever mode is active without committing.
func (s *Session) cancelActive() {
	switch st := s.state.(type) {
	case *PlaceholderOpen:
		s.browser.Cancel()
	case *Dragging:
		s.resetDrag(st)
	case *HoldBackground, *BackgroundInteractive:
		s.fence.Reset()
	}
	s.state = &Default{}
}

// toCanvas converts a screen position with the session's view.
func (s *Session) toCanvas(p geom.Vec2) geom.Vec2 {
	return s.view.ToCanvas(p)
}

// hitTest finds the topmost entity under a canvas position. Items win
// over annotations; placeholders are ignored.
func (s *Session) hitTest(p geom.Vec2) (selection.Entity, bool) {
	items := s.layout.Items()
	for i := len(items) - 1; i >= 0; i-- {
		it := items[i]
		if it.Kind != layout.KindPlaceholder && it.Bounds().ContainsPoint(p) {
			return selection.Entity{ID: it.ID, Kind: selection.KindItem}, true
		}
	}
	anns := s.layout.Annotations()
	for i := len(anns) - 1; i >= 0; i-- {
		if anns[i].Bounds().ContainsPoint(p) {
			return selection.Entity{ID: anns[i].ID, Kind: selection.KindAnnotation}, true
		}
	}
	return selection.Entity{}, false
}
