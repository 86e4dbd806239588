// Package render paints hover and selection highlights with Gio, and
// positions Gio-drawn content with the same view transform the inspector
// measures through.
package render

import (
	"image"
	"image/color"
	"math"

	"gioui.org/f32"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"

	"github.com/standardbeagle/domlens/internal/geom"
	"github.com/standardbeagle/domlens/internal/session"
	"github.com/standardbeagle/domlens/internal/tree"
)

// Kind distinguishes highlight styles.
type Kind string

const (
	KindHover    Kind = "hover"
	KindSelected Kind = "selected"
	KindOutline  Kind = "outline"
)

// Highlight is one rectangle to paint, in container space.
type Highlight struct {
	Kind Kind      `json:"kind" yaml:"kind"`
	Rect geom.Rect `json:"rect" yaml:"rect"`
	Tag  string    `json:"tag" yaml:"tag"`
}

// Style holds highlight colors.
type Style struct {
	Background     color.NRGBA
	Grid           color.NRGBA
	GridSpacing    float64
	OutlineStroke  color.NRGBA
	HoverStroke    color.NRGBA
	SelectedFill   color.NRGBA
	SelectedStroke color.NRGBA
	StrokeWidth    float32
}

// DefaultStyle is a blue outline for hover and a translucent fill for the
// selection, over a light grid.
func DefaultStyle() Style {
	return Style{
		Background:     color.NRGBA{R: 0xf8, G: 0xfa, B: 0xfc, A: 0xff},
		Grid:           color.NRGBA{R: 0xe2, G: 0xe8, B: 0xf0, A: 0xff},
		GridSpacing:    50,
		OutlineStroke:  color.NRGBA{R: 0x94, G: 0xa3, B: 0xb8, A: 0xff},
		HoverStroke:    color.NRGBA{R: 0x3b, G: 0x82, B: 0xf6, A: 0xff},
		SelectedFill:   color.NRGBA{R: 0x3b, G: 0x82, B: 0xf6, A: 0x33},
		SelectedStroke: color.NRGBA{R: 0x1d, G: 0x4e, B: 0xd8, A: 0xff},
		StrokeWidth:    2,
	}
}

// Highlights returns what to paint for snap, selection last so it draws on
// top. Hovering the selected node draws it once. Empty geometry, such as a
// detached node's, is skipped.
func Highlights(snap session.Snapshot) []Highlight {
	var out []Highlight
	sel := snap.Selected
	if h := snap.Hovered; h != nil && !h.Geometry.Empty() {
		same := sel != nil && !sel.Handle.IsZero() && sel.Handle == h.Handle
		if !same {
			out = append(out, Highlight{Kind: KindHover, Rect: h.Geometry, Tag: h.TagName})
		}
	}
	if sel != nil && !sel.Geometry.Empty() {
		out = append(out, Highlight{Kind: KindSelected, Rect: sel.Geometry, Tag: sel.TagName})
	}
	return out
}

// Outlines returns one outline per measured node of root, in tree order.
func Outlines(root *tree.Node) []Highlight {
	var out []Highlight
	root.Walk(func(n *tree.Node, _ int) bool {
		if !n.Geometry.Empty() {
			out = append(out, Highlight{Kind: KindOutline, Rect: n.Geometry, Tag: n.TagName})
		}
		return true
	})
	return out
}

// Paint records hs into ops.
func Paint(ops *op.Ops, hs []Highlight, st Style) {
	for _, h := range hs {
		switch h.Kind {
		case KindSelected:
			paint.FillShape(ops, st.SelectedFill, clip.Outline{Path: rectPath(ops, h.Rect)}.Op())
			paint.FillShape(ops, st.SelectedStroke, clip.Stroke{Path: rectPath(ops, h.Rect), Width: st.StrokeWidth}.Op())
		case KindOutline:
			paint.FillShape(ops, st.OutlineStroke, clip.Stroke{Path: rectPath(ops, h.Rect), Width: 1}.Op())
		default:
			paint.FillShape(ops, st.HoverStroke, clip.Stroke{Path: rectPath(ops, h.Rect), Width: st.StrokeWidth}.Op())
		}
	}
}

// rectPath builds a closed path around r. Gio's clip.Rect only takes
// integer rectangles; highlight geometry is fractional under zoom.
func rectPath(ops *op.Ops, r geom.Rect) clip.PathSpec {
	var p clip.Path
	p.Begin(ops)
	p.MoveTo(f32.Pt(float32(r.Left), float32(r.Top)))
	p.LineTo(f32.Pt(float32(r.Right()), float32(r.Top)))
	p.LineTo(f32.Pt(float32(r.Right()), float32(r.Bottom())))
	p.LineTo(f32.Pt(float32(r.Left), float32(r.Bottom())))
	p.Close()
	return p.End()
}

// Affine converts t to Gio's affine type.
func Affine(t geom.Transform) f32.Affine2D {
	return f32.NewAffine2D(
		float32(t.A), float32(t.C), float32(t.E),
		float32(t.B), float32(t.D), float32(t.F),
	)
}

// PushContent applies t to everything recorded into ops until the returned
// stack is popped.
func PushContent(ops *op.Ops, t geom.Transform) op.TransformStack {
	return op.Affine(Affine(t)).Push(ops)
}

// maxGridLines bounds the lines Grid draws per axis when zoomed far out.
const maxGridLines = 1000

// Grid paints world-space lines every spacing units, placed by t, over a
// view of the given size. It draws nothing for a singular t.
func Grid(ops *op.Ops, t geom.Transform, size image.Point, spacing float64, c color.NRGBA) {
	inv, err := geom.Invert(t)
	if err != nil || spacing <= 0 || size.X <= 0 || size.Y <= 0 {
		return
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	w, h := float64(size.X), float64(size.Y)
	for _, p := range []geom.Vec{geom.Pt(0, 0), geom.Pt(w, 0), geom.Pt(0, h), geom.Pt(w, h)} {
		q := geom.Apply(inv, p)
		minX, maxX = math.Min(minX, q.X), math.Max(maxX, q.X)
		minY, maxY = math.Min(minY, q.Y), math.Max(maxY, q.Y)
	}
	if (maxX-minX)/spacing > maxGridLines || (maxY-minY)/spacing > maxGridLines {
		return
	}

	stack := PushContent(ops, t)
	defer stack.Pop()

	var p clip.Path
	p.Begin(ops)
	for x := math.Floor(minX/spacing) * spacing; x <= maxX; x += spacing {
		p.MoveTo(f32.Pt(float32(x), float32(minY)))
		p.LineTo(f32.Pt(float32(x), float32(maxY)))
	}
	for y := math.Floor(minY/spacing) * spacing; y <= maxY; y += spacing {
		p.MoveTo(f32.Pt(float32(minX), float32(y)))
		p.LineTo(f32.Pt(float32(maxX), float32(y)))
	}
	// One screen pixel wide at any zoom.
	width := float32(1 / t.ScaleX())
	paint.FillShape(ops, c, clip.Stroke{Path: p.End(), Width: width}.Op())
}
