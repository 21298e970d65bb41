package geom

// View maps canvas space onto the screen. Origin is the screen position of
// the canvas window's top-left corner, Scroll the canvas position shown
// there and Scale the zoom factor (screen pixels per canvas unit).
type View struct {
	Origin Vec2    `yaml:"origin"`
	Scroll Vec2    `yaml:"scroll"`
	Scale  float64 `yaml:"scale"`
}

// DefaultView is an unscrolled, unzoomed view at the screen origin.
func DefaultView() View {
	return View{Scale: 1}
}

func (v View) scale() float64 {
	if v.Scale <= 0 {
		return 1
	}
	return v.Scale
}

// ToCanvas converts a screen position into canvas space.
func (v View) ToCanvas(screen Vec2) Vec2 {
	return screen.Sub(v.Origin).Scale(1 / v.scale()).Add(v.Scroll)
}

// ToScreen converts a canvas position into screen space.
func (v View) ToScreen(canvas Vec2) Vec2 {
	return canvas.Sub(v.Scroll).Scale(v.scale()).Add(v.Origin)
}

// DeltaToCanvas converts a screen-space offset into a canvas-space offset.
func (v View) DeltaToCanvas(d Vec2) Vec2 {
	return d.Scale(1 / v.scale())
}

// RectToCanvas transforms a screen rectangle into canvas space.
func (v View) RectToCanvas(r Rect) Rect {
	return RectFromPoints(v.ToCanvas(r.Min), v.ToCanvas(r.Max))
}

// RectToScreen transforms a canvas rectangle into screen space.
func (v View) RectToScreen(r Rect) Rect {
	return RectFromPoints(v.ToScreen(r.Min), v.ToScreen(r.Max))
}
