// Package selection tracks which entities of a composition are selected
// and implements the fence (marquee) gesture that edits that set.
package selection

import "github.com/msalah0e/nodecanvas/internal/layout"

// Kind tells what a selected id refers to.
type Kind int

const (
	KindItem Kind = iota
	KindAnnotation

	// KindComposition is the composition being edited, selected when the
	// user clicks empty canvas.
	KindComposition
)

func (k Kind) String() string {
	switch k {
	case KindItem:
		return "item"
	case KindAnnotation:
		return "annotation"
	case KindComposition:
		return "composition"
	default:
		return "unknown"
	}
}

// Entity is one selected id.
type Entity struct {
	ID   string
	Kind Kind
}

// Selection is an ordered set of entities without duplicates.
type Selection struct {
	entries []Entity
	index   map[string]int
	watched *layout.Layout
}

// New creates an empty selection.
func New() *Selection {
	return &Selection{index: make(map[string]int)}
}

// Watch purges ids from the selection as soon as the layout removes them,
// so the selection never outlives the entities it names. Only the most
// recently watched layout purges.
func (s *Selection) Watch(l *layout.Layout) {
	s.watched = l
	l.OnRemove(func(id string) {
		if s.watched == l {
			s.Remove(id)
		}
	})
}

// Select replaces the selection with e.
func (s *Selection) Select(e Entity) {
	s.Clear()
	s.Add(e)
}

// Add appends e unless it is already selected. It reports whether the
// selection changed.
func (s *Selection) Add(e Entity) bool {
	if _, ok := s.index[e.ID]; ok {
		return false
	}
	s.index[e.ID] = len(s.entries)
	s.entries = append(s.entries, e)
	return true
}

// Remove drops id. It reports whether the selection changed.
func (s *Selection) Remove(id string) bool {
	i, ok := s.index[id]
	if !ok {
		return false
	}
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	delete(s.index, id)
	for j := i; j < len(s.entries); j++ {
		s.index[s.entries[j].ID] = j
	}
	return true
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.entries = s.entries[:0]
	clear(s.index)
}

func (s *Selection) Contains(id string) bool {
	_, ok := s.index[id]
	return ok
}

func (s *Selection) Len() int {
	return len(s.entries)
}

// Entities returns a copy of the selection in selection order.
func (s *Selection) Entities() []Entity {
	return append([]Entity(nil), s.entries...)
}

// IDs returns the selected ids in selection order.
func (s *Selection) IDs() []string {
	out := make([]string, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.ID
	}
	return out
}

// Of returns the selected ids of one kind.
func (s *Selection) Of(kind Kind) []string {
	var out []string
	for _, e := range s.entries {
		if e.Kind == kind {
			out = append(out, e.ID)
		}
	}
	return out
}

// Single returns the only selected entity.
func (s *Selection) Single() (Entity, bool) {
	if len(s.entries) != 1 {
		return Entity{}, false
	}
	return s.entries[0], true
}

// Prune drops every id the layout no longer contains. It is used after
// edits that bypass removal observers, such as swapping compositions.
func (s *Selection) Prune(l *layout.Layout, compositionID string) {
	for _, e := range s.Entities() {
		var present bool
		switch e.Kind {
		case KindItem:
			present = l.HasItem(e.ID)
		case KindAnnotation:
			_, present = l.Annotation(e.ID)
		case KindComposition:
			present = e.ID == compositionID
		}
		if !present {
			s.Remove(e.ID)
		}
	}
}
