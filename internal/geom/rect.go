package geom

// Rect is an axis-aligned box. Left/Top is the origin corner.
type Rect struct {
	Left   float64 `json:"left" yaml:"left"`
	Top    float64 `json:"top" yaml:"top"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// R is shorthand for Rect{left, top, width, height}.
func R(left, top, width, height float64) Rect {
	return Rect{Left: left, Top: top, Width: width, Height: height}
}

// Origin returns the top-left corner.
func (r Rect) Origin() Vec { return Vec{r.Left, r.Top} }

// Right returns the right edge.
func (r Rect) Right() float64 { return r.Left + r.Width }

// Bottom returns the bottom edge.
func (r Rect) Bottom() float64 { return r.Top + r.Height }

// Empty reports whether r has no area.
func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// Contains reports whether p lies inside r. The right and bottom edges are exclusive.
func (r Rect) Contains(p Vec) bool {
	return p.X >= r.Left && p.X < r.Right() && p.Y >= r.Top && p.Y < r.Bottom()
}

// Offset returns r moved by v.
func (r Rect) Offset(v Vec) Rect {
	return Rect{Left: r.Left + v.X, Top: r.Top + v.Y, Width: r.Width, Height: r.Height}
}

// Map returns the bounding box of r after mapping its corners through t.
func (r Rect) Map(t Transform) Rect {
	corners := [4]Vec{
		Apply(t, Vec{r.Left, r.Top}),
		Apply(t, Vec{r.Right(), r.Top}),
		Apply(t, Vec{r.Left, r.Bottom()}),
		Apply(t, Vec{r.Right(), r.Bottom()}),
	}
	minX, minY := corners[0].X, corners[0].Y
	maxX, maxY := minX, minY
	for _, c := range corners[1:] {
		minX = min(minX, c.X)
		minY = min(minY, c.Y)
		maxX = max(maxX, c.X)
		maxY = max(maxY, c.Y)
	}
	return Rect{Left: minX, Top: minY, Width: maxX - minX, Height: maxY - minY}
}
