package panzoom

import (
	"errors"
	"math"
	"testing"

	"github.com/standardbeagle/domlens/internal/dom"
	"github.com/standardbeagle/domlens/internal/dom/domtest"
	"github.com/standardbeagle/domlens/internal/geom"
)

func newController(t *testing.T, cfg Config) (*Controller, *domtest.Doc, dom.Handle) {
	t.Helper()
	doc := domtest.New()
	container := doc.Add("", domtest.Node{Tag: "div", Box: geom.R(0, 0, 800, 600)})
	return New(doc, container, cfg), doc, container
}

func identityConfig() Config {
	id := geom.Identity()
	return Config{InitialTransform: &id}
}

func TestNew_Defaults(t *testing.T) {
	c, _, _ := newController(t, Config{})

	if got := c.Transform(); got != geom.ScaleUniform(0.5) {
		t.Errorf("initial transform = %v, want 0.5x", got)
	}
	if c.ScaleFactor() != 1.1 {
		t.Errorf("ScaleFactor = %v, want 1.1", c.ScaleFactor())
	}
	if c.IsDragging() {
		t.Error("new controller should not be dragging")
	}
}

func TestNew_CustomAndSingularInitial(t *testing.T) {
	custom := geom.Translate(10, 20)
	c, _, _ := newController(t, Config{InitialTransform: &custom, ScaleFactor: 1.25})
	if c.Transform() != custom {
		t.Errorf("transform = %v, want %v", c.Transform(), custom)
	}
	if c.ScaleFactor() != 1.25 {
		t.Errorf("ScaleFactor = %v, want 1.25", c.ScaleFactor())
	}

	singular := geom.ScaleUniform(0)
	c, _, _ = newController(t, Config{InitialTransform: &singular})
	if c.Transform() != geom.ScaleUniform(0.5) {
		t.Errorf("singular initial should fall back to default, got %v", c.Transform())
	}
}

func TestPointerDown_OnlyPanButtonStartsDrag(t *testing.T) {
	c, _, _ := newController(t, identityConfig())

	c.PointerDown(PointerEvent{Button: ButtonLeft, ClientX: 10, ClientY: 10})
	if c.IsDragging() {
		t.Fatal("left button must not start a pan")
	}
	c.PointerDown(PointerEvent{Button: ButtonRight, ClientX: 10, ClientY: 10})
	if c.IsDragging() {
		t.Fatal("right button must not start a pan")
	}

	c.PointerDown(PointerEvent{Button: ButtonMiddle, ClientX: 10, ClientY: 10})
	s := c.State()
	if !s.Dragging || s.DragAnchor == nil || *s.DragAnchor != geom.Pt(10, 10) {
		t.Errorf("state after middle down = %+v", s)
	}
	if s.TransformAtDragStart == nil || *s.TransformAtDragStart != geom.Identity() {
		t.Error("transform at drag start not captured")
	}
}

func TestDrag_TranslatesByPointerDelta(t *testing.T) {
	c, _, _ := newController(t, identityConfig())

	c.PointerDown(PointerEvent{Button: ButtonMiddle, ClientX: 100, ClientY: 100})
	c.PointerMove(PointerEvent{Button: ButtonMiddle, ClientX: 150, ClientY: 130})

	got := c.Transform()
	if got.E != 50 || got.F != 30 {
		t.Errorf("translation = (%v, %v), want (50, 30)", got.E, got.F)
	}
	if got.A != 1 || got.D != 1 {
		t.Errorf("scale changed during drag: %v", got)
	}

	// Moves are relative to the anchor, not cumulative.
	c.PointerMove(PointerEvent{Button: ButtonMiddle, ClientX: 110, ClientY: 100})
	if got := c.Transform(); got.E != 10 || got.F != 0 {
		t.Errorf("second move translation = (%v, %v), want (10, 0)", got.E, got.F)
	}
}

func TestDrag_DeltaUnscaledAtAnyScale(t *testing.T) {
	for _, s := range []float64{0.1, 0.5, 2, 7.5} {
		start := geom.Compose(geom.Translate(13, -4), geom.ScaleUniform(s))
		c, _, _ := newController(t, Config{InitialTransform: &start})

		c.PointerDown(PointerEvent{Button: ButtonMiddle, ClientX: 200, ClientY: 200})
		c.PointerMove(PointerEvent{Button: ButtonMiddle, ClientX: 240, ClientY: 170})

		got := c.Transform()
		if math.Abs(got.E-(13+40)) > 1e-9 || math.Abs(got.F-(-4-30)) > 1e-9 {
			t.Errorf("scale %v: translation = (%v, %v), want (53, -34)", s, got.E, got.F)
		}
		if got.A != s || got.D != s {
			t.Errorf("scale %v: scale changed to %v", s, got.A)
		}
	}
}

func TestPointerMove_WithoutDragIsNoop(t *testing.T) {
	c, _, _ := newController(t, identityConfig())
	c.PointerMove(PointerEvent{ClientX: 300, ClientY: 300})
	if c.Transform() != geom.Identity() {
		t.Errorf("move without drag changed transform to %v", c.Transform())
	}
}

func TestDrag_EndsOnUpAndLeave(t *testing.T) {
	c, _, _ := newController(t, identityConfig())

	c.PointerDown(PointerEvent{Button: ButtonMiddle})
	c.PointerUp(PointerEvent{Button: ButtonLeft})
	if !c.IsDragging() {
		t.Error("releasing a different button must not end the drag")
	}
	c.PointerUp(PointerEvent{Button: ButtonMiddle})
	if c.IsDragging() {
		t.Error("drag should end on pan button up")
	}
	if s := c.State(); s.DragAnchor != nil || s.TransformAtDragStart != nil {
		t.Errorf("drag bookkeeping not cleared: %+v", s)
	}

	c.PointerDown(PointerEvent{Button: ButtonMiddle, ClientX: 5, ClientY: 5})
	c.PointerLeave()
	if c.IsDragging() {
		t.Error("drag should end on pointer leave")
	}
	c.PointerMove(PointerEvent{ClientX: 500, ClientY: 500})
	if c.Transform() != geom.Identity() {
		t.Error("move after leave should not pan")
	}
}

func TestWheel_DirectionAndPivot(t *testing.T) {
	c, doc, container := newController(t, Config{})
	doc.SetBox(container, geom.R(50, 20, 800, 600))

	cursor := geom.Pt(450, 320)
	pivot := cursor.Sub(geom.Pt(50, 20))
	before, err := c.ScreenToWorld(pivot)
	if err != nil {
		t.Fatal(err)
	}

	if !c.Wheel(WheelEvent{ClientX: cursor.X, ClientY: cursor.Y, DeltaY: -100}) {
		t.Fatal("wheel in should change the transform")
	}
	if got := c.Transform().ScaleX(); math.Abs(got-0.55) > 1e-9 {
		t.Errorf("scale after zoom in = %v, want 0.55", got)
	}
	after := c.WorldToScreen(before)
	if math.Abs(after.X-pivot.X) > 1e-9 || math.Abs(after.Y-pivot.Y) > 1e-9 {
		t.Errorf("point under cursor moved: %v -> %v", pivot, after)
	}

	c.Wheel(WheelEvent{ClientX: cursor.X, ClientY: cursor.Y, DeltaY: 100})
	if !c.Transform().ApproxEqual(geom.ScaleUniform(0.5), 1e-9) {
		t.Errorf("zoom in then out = %v, want 0.5x", c.Transform())
	}

	c.Wheel(WheelEvent{ClientX: cursor.X, ClientY: cursor.Y, DeltaY: 3})
	if got := c.Transform().ScaleX(); math.Abs(got-0.5/1.1) > 1e-9 {
		t.Errorf("scale after zoom out = %v, want %v", got, 0.5/1.1)
	}
}

func TestWheel_Noops(t *testing.T) {
	c, doc, container := newController(t, Config{})
	start := c.Transform()

	if c.Wheel(WheelEvent{ClientX: 1, ClientY: 1, DeltaY: 0}) {
		t.Error("zero delta should be a no-op")
	}

	doc.Node(container).Detached = true
	if c.Wheel(WheelEvent{ClientX: 1, ClientY: 1, DeltaY: -1}) {
		t.Error("wheel with unavailable container should be a no-op")
	}

	c.SetContainer("")
	if c.Wheel(WheelEvent{DeltaY: -1}) {
		t.Error("wheel without container should be a no-op")
	}

	if c.Transform() != start {
		t.Errorf("transform changed to %v", c.Transform())
	}

	orphan := New(nil, "x", Config{})
	if orphan.Wheel(WheelEvent{DeltaY: -1}) {
		t.Error("wheel without provider should be a no-op")
	}
}

func TestWheel_ScaleBounds(t *testing.T) {
	c, _, _ := newController(t, Config{MinScale: 0.46, MaxScale: 0.6})

	if c.Wheel(WheelEvent{DeltaY: 1}) {
		t.Error("zoom below MinScale should be rejected")
	}
	if !c.Wheel(WheelEvent{DeltaY: -1}) {
		t.Error("zoom to 0.55 should be allowed")
	}
	if c.Wheel(WheelEvent{DeltaY: -1}) {
		t.Error("zoom above MaxScale should be rejected")
	}
}

func TestSetTransform(t *testing.T) {
	c, _, _ := newController(t, Config{})

	err := c.SetTransform(geom.Transform{A: 1, B: 2, C: 2, D: 4})
	if !errors.Is(err, geom.ErrSingularTransform) {
		t.Errorf("singular SetTransform err = %v", err)
	}
	if c.Transform() != geom.ScaleUniform(0.5) {
		t.Error("rejected transform must leave state unchanged")
	}

	next := geom.Translate(3, 4)
	if err := c.SetTransform(next); err != nil {
		t.Fatal(err)
	}
	if c.Transform() != next {
		t.Errorf("transform = %v, want %v", c.Transform(), next)
	}
}

func TestZoomByPanByReset(t *testing.T) {
	c, _, _ := newController(t, identityConfig())

	if err := c.ZoomBy(geom.Pt(100, 100), 2); err != nil {
		t.Fatal(err)
	}
	if got := c.WorldToScreen(geom.Pt(100, 100)); got != geom.Pt(100, 100) {
		t.Errorf("ZoomBy pivot moved to %v", got)
	}
	if c.Transform().ScaleX() != 2 {
		t.Errorf("scale = %v, want 2", c.Transform().ScaleX())
	}

	if err := c.ZoomBy(geom.Vec{}, 0); !errors.Is(err, geom.ErrSingularTransform) {
		t.Errorf("ZoomBy(0) err = %v", err)
	}

	c.PanBy(geom.Pt(-20, 5))
	if tx, ty := c.Transform().TranslateX(), c.Transform().TranslateY(); tx != -120 || ty != -95 {
		t.Errorf("translation after pan = (%v, %v), want (-120, -95)", tx, ty)
	}

	c.PointerDown(PointerEvent{Button: ButtonMiddle})
	c.Reset()
	if c.Transform() != geom.Identity() || c.IsDragging() {
		t.Errorf("Reset left %v dragging=%v", c.Transform(), c.IsDragging())
	}
}

func TestOnChange(t *testing.T) {
	var seen []geom.Transform
	id := geom.Identity()
	c, _, _ := newController(t, Config{
		InitialTransform: &id,
		OnChange:         func(t geom.Transform) { seen = append(seen, t) },
	})

	c.PointerDown(PointerEvent{Button: ButtonMiddle, ClientX: 0, ClientY: 0})
	c.PointerMove(PointerEvent{Button: ButtonMiddle, ClientX: 1, ClientY: 2})
	c.PointerUp(PointerEvent{Button: ButtonMiddle})
	c.Wheel(WheelEvent{DeltaY: -1})
	_ = c.SetTransform(geom.Transform{})

	if len(seen) != 2 {
		t.Fatalf("OnChange calls = %d, want 2", len(seen))
	}
	if seen[0] != geom.Translate(1, 2) {
		t.Errorf("first change = %v", seen[0])
	}
}

func TestState_ReturnsCopy(t *testing.T) {
	c, _, _ := newController(t, identityConfig())
	c.PointerDown(PointerEvent{Button: ButtonMiddle, ClientX: 7, ClientY: 8})

	s := c.State()
	s.DragAnchor.X = 999
	if c.State().DragAnchor.X != 7 {
		t.Error("State must not expose internal pointers")
	}
}
