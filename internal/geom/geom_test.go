package geom

import "testing"

func TestRectFromPointsNormalizes(t *testing.T) {
	r := RectFromPoints(V(10, 40), V(-5, 2))
	if r.Min != V(-5, 2) || r.Max != V(10, 40) {
		t.Errorf("unexpected rect %+v", r)
	}
	if r.Width() != 15 || r.Height() != 38 {
		t.Errorf("expected 15x38, got %vx%v", r.Width(), r.Height())
	}
}

func TestIntersectsAndContains(t *testing.T) {
	a := RectAt(V(0, 0), V(10, 10))

	tests := []struct {
		name       string
		b          Rect
		intersects bool
		contains   bool
	}{
		{"inside", RectAt(V(2, 2), V(3, 3)), true, true},
		{"overlap", RectAt(V(5, 5), V(10, 10)), true, false},
		{"touching edge", RectAt(V(10, 0), V(5, 5)), false, false},
		{"disjoint", RectAt(V(20, 20), V(1, 1)), false, false},
		{"same", a, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.Intersects(tt.b); got != tt.intersects {
				t.Errorf("Intersects = %v, want %v", got, tt.intersects)
			}
			if got := a.Contains(tt.b); got != tt.contains {
				t.Errorf("Contains = %v, want %v", got, tt.contains)
			}
		})
	}
}

func TestViewRoundTrip(t *testing.T) {
	v := View{Origin: V(100, 50), Scroll: V(-20, 30), Scale: 2}

	canvas := V(15, 7)
	screen := v.ToScreen(canvas)
	if screen != V(170, 4) {
		t.Fatalf("ToScreen = %+v", screen)
	}
	if back := v.ToCanvas(screen); back != canvas {
		t.Errorf("ToCanvas(ToScreen(p)) = %+v, want %+v", back, canvas)
	}
	if d := v.DeltaToCanvas(V(10, -4)); d != V(5, -2) {
		t.Errorf("DeltaToCanvas = %+v", d)
	}
}

func TestViewZeroScaleFallsBackToOne(t *testing.T) {
	var v View
	if got := v.ToCanvas(V(3, 4)); got != V(3, 4) {
		t.Errorf("expected identity transform, got %+v", got)
	}
}

func TestRectToCanvas(t *testing.T) {
	v := View{Scale: 0.5}
	r := v.RectToCanvas(RectFromPoints(V(10, 10), V(0, 0)))
	if r.Min != V(0, 0) || r.Max != V(20, 20) {
		t.Errorf("unexpected canvas rect %+v", r)
	}
}
