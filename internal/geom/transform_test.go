package geom

import (
	"errors"
	"math"
	"testing"
)

const tol = 1e-6

func TestCompose_AppliesRightOperandFirst(t *testing.T) {
	// scale then translate
	st := Compose(Translate(10, 20), ScaleUniform(2))
	got := Apply(st, Pt(1, 1))
	if got != Pt(12, 22) {
		t.Errorf("Apply(translate∘scale) = %v, want {12 22}", got)
	}

	// translate then scale
	ts := Compose(ScaleUniform(2), Translate(10, 20))
	got = Apply(ts, Pt(1, 1))
	if got != Pt(22, 42) {
		t.Errorf("Apply(scale∘translate) = %v, want {22 42}", got)
	}

	if th := ScaleUniform(2).Then(Translate(10, 20)); th != st {
		t.Errorf("Then = %v, want %v", th, st)
	}
}

func TestInvert_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		t    Transform
	}{
		{"identity", Identity()},
		{"half scale", ScaleUniform(0.5)},
		{"translate", Translate(-35.5, 1200)},
		{"scale and translate", Compose(Translate(13, -7), Scale(Pt(3, 0.25)))},
		{"general affine", Transform{A: 2, B: 0.5, C: -1, D: 3, E: 4, F: 5}},
		{"tiny scale", ScaleUniform(1e-3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv, err := Invert(tt.t)
			if err != nil {
				t.Fatalf("Invert: %v", err)
			}
			back, err := Invert(inv)
			if err != nil {
				t.Fatalf("Invert(Invert): %v", err)
			}
			if !back.ApproxEqual(tt.t, tol) {
				t.Errorf("Invert(Invert(t)) = %v, want %v", back, tt.t)
			}
			if id := Compose(tt.t, inv); !id.ApproxEqual(Identity(), tol) {
				t.Errorf("t∘inv = %v, want identity", id)
			}
		})
	}
}

func TestInvert_Singular(t *testing.T) {
	singular := []Transform{
		ScaleUniform(0),
		Scale(Pt(1, 0)),
		{A: 1, B: 2, C: 2, D: 4},
		{},
		{A: math.NaN(), D: 1},
	}
	for _, s := range singular {
		if _, err := Invert(s); !errors.Is(err, ErrSingularTransform) {
			t.Errorf("Invert(%v) error = %v, want ErrSingularTransform", s, err)
		}
	}
}

func TestScaleAroundPoint_PivotInvariant(t *testing.T) {
	bases := []Transform{
		Identity(),
		ScaleUniform(0.5),
		Compose(Translate(100, -40), ScaleUniform(1.7)),
	}
	pivots := []Vec{Pt(0, 0), Pt(400, 300), Pt(-12.5, 77)}
	factors := []float64{1.1, 1 / 1.1, 3, 0.01}

	for _, base := range bases {
		for _, p := range pivots {
			for _, f := range factors {
				got := ScaleAroundPoint(base, p, f)
				a, b := Apply(got, p), Apply(base, p)
				if math.Abs(a.X-b.X) > tol || math.Abs(a.Y-b.Y) > tol {
					t.Errorf("ScaleAroundPoint(%v, %v, %v): pivot moved %v -> %v", base, p, f, b, a)
				}
				if math.Abs(got.ScaleX()-base.ScaleX()*f) > tol {
					t.Errorf("ScaleX = %v, want %v", got.ScaleX(), base.ScaleX()*f)
				}
			}
		}
	}
}

func TestZoomAt_KeepsWorldPointUnderScreenPivot(t *testing.T) {
	base := Compose(Translate(120, 80), ScaleUniform(0.5))
	screen := Pt(300, 200)

	inv, err := Invert(base)
	if err != nil {
		t.Fatal(err)
	}
	world := Apply(inv, screen)

	zoomed := ZoomAt(base, screen, 1.1)
	got := Apply(zoomed, world)
	if math.Abs(got.X-screen.X) > tol || math.Abs(got.Y-screen.Y) > tol {
		t.Errorf("world point drawn at %v after zoom, want %v", got, screen)
	}

	// Both pivot conventions agree.
	alt := ScaleAroundPoint(base, world, 1.1)
	if !alt.ApproxEqual(zoomed, tol) {
		t.Errorf("ScaleAroundPoint(world) = %v, ZoomAt(screen) = %v", alt, zoomed)
	}
}

func TestCSS_RoundTrip(t *testing.T) {
	tr := Compose(Translate(50, 30.25), ScaleUniform(0.5))
	css := tr.CSS()
	if css != "matrix(0.5, 0, 0, 0.5, 50, 30.25)" {
		t.Errorf("CSS() = %q", css)
	}

	parsed, err := ParseCSS(css)
	if err != nil {
		t.Fatalf("ParseCSS: %v", err)
	}
	if parsed != tr {
		t.Errorf("ParseCSS = %v, want %v", parsed, tr)
	}

	if _, err := ParseCSS("matrix(1 0 0 1 2 3)"); err != nil {
		t.Errorf("space separated: %v", err)
	}
	for _, bad := range []string{"", "scale(2)", "matrix(1, 2)", "matrix(a, 0, 0, 1, 0, 0)"} {
		if _, err := ParseCSS(bad); err == nil {
			t.Errorf("ParseCSS(%q) succeeded, want error", bad)
		}
	}
}

func TestRect_MapAndContains(t *testing.T) {
	r := R(10, 20, 100, 50)
	if !r.Contains(Pt(10, 20)) || r.Contains(Pt(110, 20)) || r.Contains(Pt(9, 30)) {
		t.Error("Contains edge handling is wrong")
	}

	mapped := r.Map(Compose(Translate(5, 5), ScaleUniform(2)))
	want := R(25, 45, 200, 100)
	if mapped != want {
		t.Errorf("Map = %+v, want %+v", mapped, want)
	}

	if !R(0, 0, 0, 10).Empty() || R(0, 0, 1, 1).Empty() {
		t.Error("Empty is wrong")
	}
}
