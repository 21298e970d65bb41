package script

import (
	"fmt"

	"github.com/msalah0e/nodecanvas/internal/catalog"
	"github.com/msalah0e/nodecanvas/internal/layout"
)

// Seed builds the script's starting composition. Every item must name a
// symbol the catalog knows and every connection must join present items.
func (s *Script) Seed(cat catalog.Catalog) (*layout.Layout, error) {
	l := layout.New()

	for _, y := range s.Items {
		sym, ok := cat.TryResolve(y.Symbol)
		if !ok {
			return nil, fmt.Errorf("item %s: %s: %w", y.ID, y.Symbol, catalog.ErrUnknownSymbol)
		}
		it := &layout.Item{
			ID:       y.ID,
			SymbolID: sym.ID,
			Name:     y.Name,
			Kind:     layout.KindOperator,
			Pos:      y.Pos,
		}
		if it.Name == "" {
			it.Name = sym.Name
		}
		if y.Orientation == "vertical" {
			it.Orientation = layout.Vertical
		}
		if len(y.Inputs) > 0 {
			it.Inputs = make(map[string]string, len(y.Inputs))
			for k, v := range y.Inputs {
				if _, _, ok := sym.Input(k); !ok {
					return nil, fmt.Errorf("item %s: no input %q on %s", y.ID, k, sym.ID)
				}
				it.Inputs[k] = v
			}
		}
		if err := l.AddItem(it); err != nil {
			return nil, err
		}
	}

	for _, y := range s.Connections {
		src, srcSlot, err := splitEndpoint(y.From)
		if err != nil {
			return nil, err
		}
		dst, dstSlot, err := splitEndpoint(y.To)
		if err != nil {
			return nil, err
		}
		c := layout.Connection{
			SourceItemID: src,
			SourceSlot:   srcSlot,
			TargetItemID: dst,
			TargetSlot:   dstSlot,
		}
		if err := l.AddConnection(c); err != nil {
			return nil, fmt.Errorf("connection %s -> %s: %w", y.From, y.To, err)
		}
	}

	for _, y := range s.Annotations {
		a := &layout.Annotation{ID: y.ID, Title: y.Title, Pos: y.Pos, Size: y.Size}
		if err := l.AddAnnotation(a); err != nil {
			return nil, err
		}
	}

	l.Recompute()
	l.ConsumeChanged()
	return l, nil
}
