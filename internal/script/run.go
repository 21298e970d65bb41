package script

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/msalah0e/nodecanvas/internal/editor"
	"github.com/msalah0e/nodecanvas/internal/geom"
)

// Mismatch is one failed expectation.
type Mismatch struct {
	Frame int
	Field string
	Want  string
	Got   string
}

func (m Mismatch) Error() string {
	return fmt.Sprintf("frame %d: %s: want %s, got %s", m.Frame, m.Field, m.Want, m.Got)
}

// Step records one executed frame.
type Step struct {
	Frame  int
	Output editor.Output
}

// Report is the outcome of a replay.
type Report struct {
	Script     string
	Steps      []Step
	Mismatches []Mismatch
}

// OK reports whether every expectation held.
func (r *Report) OK() bool { return len(r.Mismatches) == 0 }

// Run feeds every frame of s to sess in order. Expectations are checked
// after the last repetition of their frame. It stops early only when ctx
// is cancelled.
func Run(ctx context.Context, sess *editor.Session, s *Script, log *zap.Logger) (*Report, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if s.View != nil {
		sess.SetView(*s.View)
	}

	rep := &Report{Script: s.Name}
	var pointer geom.Vec2
	n := 0
	for _, f := range s.Frames {
		in, err := f.input(pointer)
		if err != nil {
			return rep, fmt.Errorf("frame %d: %w", n, err)
		}
		pointer = in.Pointer

		var out editor.Output
		for range f.times() {
			if err := ctx.Err(); err != nil {
				return rep, err
			}
			if f.Wait {
				sess.Drops().Wait()
			}
			out = sess.Frame(ctx, in)
			rep.Steps = append(rep.Steps, Step{Frame: n, Output: out})
			n++
		}
		if f.Expect != nil {
			for _, m := range check(n-1, f.Expect, sess, out) {
				log.Debug("expectation failed", zap.Int("frame", m.Frame), zap.String("field", m.Field))
				rep.Mismatches = append(rep.Mismatches, m)
			}
		}
	}
	log.Info("script replayed", zap.String("script", s.Name), zap.Int("frames", n), zap.Int("mismatches", len(rep.Mismatches)))
	return rep, nil
}

func check(frame int, e *ExpectYAML, sess *editor.Session, out editor.Output) []Mismatch {
	var ms []Mismatch
	fail := func(field string, want, got any) {
		ms = append(ms, Mismatch{Frame: frame, Field: field, Want: fmt.Sprint(want), Got: fmt.Sprint(got)})
	}
	intCheck := func(field string, want *int, got int) {
		if want != nil && *want != got {
			fail(field, *want, got)
		}
	}

	l := sess.Layout()
	if e.State != "" && e.State != out.State {
		fail("state", e.State, out.State)
	}
	if e.Selection != nil && !slices.Equal(e.Selection, out.Selection) {
		fail("selection", e.Selection, out.Selection)
	}
	intCheck("selected", e.Selected, len(out.Selection))
	intCheck("items", e.Items, l.ItemCount())
	intCheck("connections", e.Connections, l.ConnectionCount())
	intCheck("history", e.History, sess.History().Len())
	intCheck("created", e.Created, len(out.Created))
	intCheck("browser_rows", e.BrowserRows, len(sess.Browser().Results()))
	if e.BrowserOpen != nil && *e.BrowserOpen != out.BrowserOpen {
		fail("browser_open", *e.BrowserOpen, out.BrowserOpen)
	}

	for _, id := range sortedKeys(e.Positions) {
		want := e.Positions[id]
		got, ok := l.Position(id)
		switch {
		case !ok:
			fail("position "+id, want, "missing")
		case got != want:
			fail("position "+id, want, got)
		}
	}
	for _, id := range sortedKeys(e.Names) {
		want := e.Names[id]
		var got string
		if it, ok := l.Item(id); ok {
			got = it.Name
		} else if a, ok := l.Annotation(id); ok {
			got = a.Title
		} else {
			fail("name "+id, want, "missing")
			continue
		}
		if got != want {
			fail("name "+id, want, got)
		}
	}
	return ms
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
