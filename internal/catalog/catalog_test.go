package catalog

import (
	"errors"
	"testing"

	"github.com/msalah0e/nodecanvas/internal/geom"
)

func sampleSymbols() []Symbol {
	return []Symbol{
		{ID: "fx.MotionBlur", Name: "MotionBlur", Namespace: "fx"},
		{ID: "blur.Gauss", Name: "Gauss", Namespace: "blur"},
		{ID: "fx.Soften", Name: "Soften", Namespace: "fx", Tags: []string{"Blur"}},
		{ID: "fx.BlurMask", Name: "BlurMask", Namespace: "fx"},
		{
			ID: "fx.Blur", Name: "Blur", Namespace: "fx",
			Inputs: []Slot{
				{ID: "image", Type: "texture"},
				{ID: "radius", Type: "float", Default: "2"},
			},
			Outputs: []Slot{{ID: "out", Type: "texture"}},
		},
		{
			ID: "fx.Blend", Name: "Blend", Namespace: "fx",
			Inputs:  []Slot{{ID: "layers", Type: "Texture", Multi: true}},
			Outputs: []Slot{{ID: "out", Type: "texture"}},
		},
		{ID: "fx.Unsharp", Name: "Unsharp", Namespace: "fx"},
	}
}

func ids(syms []*Symbol) []string {
	out := make([]string, len(syms))
	for i, s := range syms {
		out[i] = s.ID
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSearchRanking(t *testing.T) {
	reg := New(sampleSymbols())

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{
			name:   "exact, prefix, substring, namespace, tag",
			filter: Filter{Query: "blur"},
			want:   []string{"fx.Blur", "fx.BlurMask", "fx.MotionBlur", "blur.Gauss", "fx.Soften"},
		},
		{
			name:   "ties keep catalog order",
			filter: Filter{Query: "bl"},
			want:   []string{"fx.BlurMask", "fx.Blur", "fx.Blend", "fx.MotionBlur", "blur.Gauss"},
		},
		{
			name:   "empty query lists everything",
			filter: Filter{Query: "  "},
			want:   []string{"fx.MotionBlur", "blur.Gauss", "fx.Soften", "fx.BlurMask", "fx.Blur", "fx.Blend", "fx.Unsharp"},
		},
		{
			name:   "output type",
			filter: Filter{OutputType: "texture"},
			want:   []string{"fx.Blur", "fx.Blend"},
		},
		{
			name:   "input type matches multi element",
			filter: Filter{InputType: "texture"},
			want:   []string{"fx.Blur", "fx.Blend"},
		},
		{
			name:   "list input type",
			filter: Filter{InputType: "[]texture"},
			want:   []string{"fx.Blend"},
		},
		{
			name:   "no match",
			filter: Filter{Query: "zzz"},
			want:   []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(reg.Search(tt.filter))
			if !equal(got, tt.want) {
				t.Errorf("Search(%+v) = %v, want %v", tt.filter, got, tt.want)
			}
		})
	}
}

func TestCompatible(t *testing.T) {
	tests := []struct {
		slot   Slot
		filter string
		want   bool
	}{
		{Slot{Type: "float"}, "", true},
		{Slot{Type: "float"}, "float", true},
		{Slot{Type: "Float"}, "FLOAT", true},
		{Slot{Type: "float"}, "[]float", false},
		{Slot{Type: "float"}, "int", false},
		{Slot{Type: "texture", Multi: true}, "texture", true},
		{Slot{Type: "texture", Multi: true}, "[]texture", true},
		{Slot{Type: "texture", Multi: true}, "[]float", false},
	}
	for _, tt := range tests {
		if got := Compatible(tt.slot, tt.filter); got != tt.want {
			t.Errorf("Compatible(%+v, %q) = %v, want %v", tt.slot, tt.filter, got, tt.want)
		}
	}
}

func TestDedupLastWins(t *testing.T) {
	got := dedup([]Symbol{
		{ID: "a", Name: "first"},
		{ID: "b", Name: "B"},
		{ID: "a", Name: "second"},
		{ID: "c", Name: "C"},
		{ID: "a", Name: "third"},
	})
	if len(got) != 3 {
		t.Fatalf("expected 3 symbols, got %d", len(got))
	}
	if got[0].ID != "a" || got[0].Name != "third" {
		t.Errorf("expected last 'a' in first position, got %+v", got[0])
	}
	if got[1].ID != "b" || got[2].ID != "c" {
		t.Errorf("unexpected order: %+v", got)
	}
}

func TestInstantiate(t *testing.T) {
	reg := New(sampleSymbols())

	it, err := reg.Instantiate("fx.Blur", geom.V(10, 20))
	if err != nil {
		t.Fatalf("Instantiate failed: %v", err)
	}
	if it.ID == "" || it.SymbolID != "fx.Blur" || it.Name != "Blur" {
		t.Errorf("unexpected item: %+v", it)
	}
	if it.Pos != geom.V(10, 20) {
		t.Errorf("expected pos (10,20), got %v", it.Pos)
	}
	if len(it.Inputs) != 1 || it.Inputs["radius"] != "2" {
		t.Errorf("expected only the radius default inlined, got %v", it.Inputs)
	}

	other, _ := reg.Instantiate("fx.Blur", geom.V(0, 0))
	if other.ID == it.ID {
		t.Error("instances must get distinct ids")
	}

	if _, err := reg.Instantiate("fx.Nope", geom.V(0, 0)); !errors.Is(err, ErrUnknownSymbol) {
		t.Errorf("expected ErrUnknownSymbol, got %v", err)
	}
}

func TestSymbolSlots(t *testing.T) {
	reg := New(sampleSymbols())
	blur, _ := reg.TryResolve("fx.Blur")

	if _, idx, ok := blur.Input("radius"); !ok || idx != 1 {
		t.Errorf("Input(radius) = %d, %v", idx, ok)
	}
	if _, idx, ok := blur.Input("nope"); ok || idx != -1 {
		t.Errorf("Input(nope) = %d, %v", idx, ok)
	}
	if _, ok := blur.Output("out"); !ok {
		t.Error("Output(out) not found")
	}
	if s, ok := blur.FirstInput("float"); !ok || s.ID != "radius" {
		t.Errorf("FirstInput(float) = %+v, %v", s, ok)
	}
	if got := blur.FullName(); got != "fx.Blur" {
		t.Errorf("FullName() = %q", got)
	}
	if got := (Symbol{Name: "Bare"}).FullName(); got != "Bare" {
		t.Errorf("FullName() = %q", got)
	}

	ns := reg.Namespaces()
	if !equal(ns, []string{"blur", "fx"}) {
		t.Errorf("Namespaces() = %v", ns)
	}
}
