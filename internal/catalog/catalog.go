// Package catalog is the operator registry the editor instantiates from.
// Symbols are declared in TOML files, either embedded in the binary or
// dropped into the user's config directory.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/msalah0e/nodecanvas/internal/geom"
	"github.com/msalah0e/nodecanvas/internal/layout"
)

// ErrUnknownSymbol is returned when a symbol id does not resolve.
var ErrUnknownSymbol = errors.New("unknown symbol")

// Catalog is the lookup surface the editor depends on.
type Catalog interface {
	TryResolve(id string) (*Symbol, bool)
	Instantiate(symbolID string, pos geom.Vec2) (*layout.Item, error)
}

// Registry holds all known symbols.
type Registry struct {
	symbols []Symbol
	byID    map[string]*Symbol
}

// New creates a registry from a list of symbols.
func New(symbols []Symbol) *Registry {
	r := &Registry{
		symbols: symbols,
		byID:    make(map[string]*Symbol, len(symbols)),
	}
	for i := range r.symbols {
		r.byID[r.symbols[i].ID] = &r.symbols[i]
	}
	return r
}

// All returns all symbols in the registry.
func (r *Registry) All() []Symbol {
	return r.symbols
}

// Len returns the number of symbols.
func (r *Registry) Len() int {
	return len(r.symbols)
}

// TryResolve returns a symbol by id.
func (r *Registry) TryResolve(id string) (*Symbol, bool) {
	s, ok := r.byID[id]
	return s, ok
}

// Instantiate builds a new, not yet inserted item for the symbol at pos.
// Inputs with declared defaults are inlined on the item.
func (r *Registry) Instantiate(symbolID string, pos geom.Vec2) (*layout.Item, error) {
	s, ok := r.byID[symbolID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", symbolID, ErrUnknownSymbol)
	}
	it := &layout.Item{
		ID:       layout.NewID(),
		SymbolID: s.ID,
		Name:     s.Name,
		Kind:     layout.KindOperator,
		Pos:      pos,
		Size:     layout.DefaultItemSize,
	}
	for _, in := range s.Inputs {
		if in.Default == "" {
			continue
		}
		if it.Inputs == nil {
			it.Inputs = make(map[string]string)
		}
		it.Inputs[in.ID] = in.Default
	}
	return it, nil
}

// ValueSymbol returns the value operator declared for a slot type.
func (r *Registry) ValueSymbol(typ string) (*Symbol, bool) {
	for i := range r.symbols {
		if strings.EqualFold(r.symbols[i].ValueFor, typ) {
			return &r.symbols[i], true
		}
	}
	return nil, false
}

// Namespaces returns all unique namespaces, sorted.
func (r *Registry) Namespaces() []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range r.symbols {
		if !seen[s.Namespace] {
			seen[s.Namespace] = true
			out = append(out, s.Namespace)
		}
	}
	sort.Strings(out)
	return out
}

// Filter narrows a search.
type Filter struct {
	Query string

	// InputType keeps symbols with an input slot accepting this type.
	InputType string

	// OutputType keeps symbols with an output slot producing this type.
	OutputType string
}

// Search returns symbols matching the filter, best matches first: exact
// name, then name prefix, then name substring, then namespace or tag
// matches. Ties keep catalog order.
func (r *Registry) Search(f Filter) []*Symbol {
	q := strings.ToLower(strings.TrimSpace(f.Query))

	type hit struct {
		s     *Symbol
		score int
	}
	var hits []hit
	for i := range r.symbols {
		s := &r.symbols[i]
		if f.InputType != "" {
			if _, ok := s.FirstInput(f.InputType); !ok {
				continue
			}
		}
		if f.OutputType != "" {
			if _, ok := s.FirstOutput(f.OutputType); !ok {
				continue
			}
		}
		score := matchScore(s, q)
		if score == 0 {
			continue
		}
		hits = append(hits, hit{s: s, score: score})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].score > hits[j].score
	})

	out := make([]*Symbol, len(hits))
	for i, h := range hits {
		out[i] = h.s
	}
	return out
}

func matchScore(s *Symbol, q string) int {
	if q == "" {
		return 1
	}
	name := strings.ToLower(s.Name)
	switch {
	case name == q:
		return 100
	case strings.HasPrefix(name, q):
		return 50
	case strings.Contains(name, q):
		return 30
	case strings.Contains(strings.ToLower(s.FullName()), q):
		return 20
	}
	for _, tag := range s.Tags {
		if strings.ToLower(tag) == q {
			return 10
		}
	}
	return 0
}
