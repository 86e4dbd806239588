// Package geom provides the 2D affine math behind the view transform.
//
// Three coordinate spaces are in play:
//
//   - viewport: relative to the visible window, origin at its top-left
//   - container (screen): relative to the editing surface's top-left, scroll-adjusted
//   - world: content coordinates before the pan/zoom transform is applied
//
// A Transform maps world to container space. Its inverse maps container back
// to world. All values are plain structs and every function is pure.
package geom

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Epsilon is the determinant magnitude below which a transform is singular.
const Epsilon = 1e-9

// ErrSingularTransform is returned when inverting a transform whose
// determinant is (nearly) zero.
var ErrSingularTransform = errors.New("geom: singular transform")

// Vec is a 2D point or vector.
type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Vec{X: x, Y: y}.
func Pt(x, y float64) Vec {
	return Vec{X: x, Y: y}
}

// Add returns v + o.
func (v Vec) Add(o Vec) Vec { return Vec{v.X + o.X, v.Y + o.Y} }

// Sub returns v - o.
func (v Vec) Sub(o Vec) Vec { return Vec{v.X - o.X, v.Y - o.Y} }

// Neg returns -v.
func (v Vec) Neg() Vec { return Vec{-v.X, -v.Y} }

// Transform is a 2x3 affine matrix in CSS matrix(a, b, c, d, e, f) layout:
//
//	x' = A*x + C*y + E
//	y' = B*x + D*y + F
//
// The zero value is not the identity; use Identity.
type Transform struct {
	A, B, C, D, E, F float64
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{A: 1, D: 1}
}

// ScaleUniform returns a transform scaling both axes by s.
func ScaleUniform(s float64) Transform {
	return Transform{A: s, D: s}
}

// Scale returns a transform scaling x by v.X and y by v.Y.
func Scale(v Vec) Transform {
	return Transform{A: v.X, D: v.Y}
}

// Translate returns a transform moving points by (dx, dy).
func Translate(dx, dy float64) Transform {
	return Transform{A: 1, D: 1, E: dx, F: dy}
}

// TranslateVec returns a transform moving points by v.
func TranslateVec(v Vec) Transform {
	return Translate(v.X, v.Y)
}

// Compose returns the transform that applies b first, then a.
// This is the only composition order used in the module.
func Compose(a, b Transform) Transform {
	return Transform{
		A: a.A*b.A + a.C*b.B,
		B: a.B*b.A + a.D*b.B,
		C: a.A*b.C + a.C*b.D,
		D: a.B*b.C + a.D*b.D,
		E: a.A*b.E + a.C*b.F + a.E,
		F: a.B*b.E + a.D*b.F + a.F,
	}
}

// Then returns the transform applying t first, then next.
func (t Transform) Then(next Transform) Transform {
	return Compose(next, t)
}

// Determinant returns A*D - B*C.
func (t Transform) Determinant() float64 {
	return t.A*t.D - t.B*t.C
}

// Invert returns the inverse of t, or ErrSingularTransform.
func Invert(t Transform) (Transform, error) {
	det := t.Determinant()
	if math.Abs(det) < Epsilon || math.IsNaN(det) {
		return Transform{}, ErrSingularTransform
	}
	inv := 1 / det
	return Transform{
		A: t.D * inv,
		B: -t.B * inv,
		C: -t.C * inv,
		D: t.A * inv,
		E: (t.C*t.F - t.D*t.E) * inv,
		F: (t.B*t.E - t.A*t.F) * inv,
	}, nil
}

// Apply maps p through t.
func Apply(t Transform, p Vec) Vec {
	return Vec{
		X: t.A*p.X + t.C*p.Y + t.E,
		Y: t.B*p.X + t.D*p.Y + t.F,
	}
}

// ScaleAround returns a scale by factor that keeps pivot fixed.
func ScaleAround(pivot Vec, factor float64) Transform {
	return Compose(TranslateVec(pivot), Compose(ScaleUniform(factor), TranslateVec(pivot.Neg())))
}

// ScaleAroundPoint scales t around pivot given in t's source (world) space,
// so Apply(result, pivot) == Apply(t, pivot).
func ScaleAroundPoint(t Transform, pivot Vec, factor float64) Transform {
	return Compose(t, ScaleAround(pivot, factor))
}

// ZoomAt scales t around pivot given in t's output (screen) space. The world
// point currently drawn under pivot is still drawn under it afterwards.
func ZoomAt(t Transform, pivot Vec, factor float64) Transform {
	return Compose(ScaleAround(pivot, factor), t)
}

// ScaleX returns the horizontal scale component.
func (t Transform) ScaleX() float64 { return math.Hypot(t.A, t.B) }

// ScaleY returns the vertical scale component.
func (t Transform) ScaleY() float64 { return math.Hypot(t.C, t.D) }

// TranslateX returns the horizontal translation component.
func (t Transform) TranslateX() float64 { return t.E }

// TranslateY returns the vertical translation component.
func (t Transform) TranslateY() float64 { return t.F }

// Coefficients returns {a, b, c, d, e, f}.
func (t Transform) Coefficients() [6]float64 {
	return [6]float64{t.A, t.B, t.C, t.D, t.E, t.F}
}

// FromCoefficients builds a transform from {a, b, c, d, e, f}.
func FromCoefficients(c [6]float64) Transform {
	return Transform{A: c[0], B: c[1], C: c[2], D: c[3], E: c[4], F: c[5]}
}

// ApproxEqual reports whether every coefficient of t and o differs by at most tol.
func (t Transform) ApproxEqual(o Transform, tol float64) bool {
	a, b := t.Coefficients(), o.Coefficients()
	for i := range a {
		if math.Abs(a[i]-b[i]) > tol {
			return false
		}
	}
	return true
}

// CSS serializes t as a CSS matrix() function.
func (t Transform) CSS() string {
	c := t.Coefficients()
	parts := make([]string, len(c))
	for i, v := range c {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return "matrix(" + strings.Join(parts, ", ") + ")"
}

// String implements fmt.Stringer.
func (t Transform) String() string {
	return t.CSS()
}

// ParseCSS parses the output of CSS, accepting comma or space separators.
func ParseCSS(s string) (Transform, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "matrix(") || !strings.HasSuffix(s, ")") {
		return Transform{}, fmt.Errorf("geom: not a matrix(): %q", s)
	}
	body := strings.TrimSuffix(strings.TrimPrefix(s, "matrix("), ")")
	fields := strings.FieldsFunc(body, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	if len(fields) != 6 {
		return Transform{}, fmt.Errorf("geom: matrix() needs 6 values, got %d", len(fields))
	}
	var c [6]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return Transform{}, fmt.Errorf("geom: matrix() value %d: %w", i, err)
		}
		c[i] = v
	}
	return FromCoefficients(c), nil
}
