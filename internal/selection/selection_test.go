package selection

import (
	"testing"

	"github.com/standardbeagle/domlens/internal/dom"
	"github.com/standardbeagle/domlens/internal/dom/domtest"
	"github.com/standardbeagle/domlens/internal/geom"
	"github.com/standardbeagle/domlens/internal/inspect"
	"github.com/standardbeagle/domlens/internal/tree"
)

type fixture struct {
	doc       *domtest.Doc
	container dom.Handle
	button    dom.Handle
	heading   dom.Handle
	palette   dom.Handle
	c         *Controller
}

func newFixture() *fixture {
	doc := domtest.New()
	container := doc.Add("", domtest.Node{Tag: "div", Box: geom.R(0, 0, 1024, 768)})
	button := doc.Add(container, domtest.Node{
		Tag:   "BUTTON",
		Attrs: []dom.Attribute{{Name: "id", Value: "test-btn"}},
		Class: "btn primary",
		Text:  "Click me",
		Box:   geom.R(10, 20, 100, 50),
	})
	heading := doc.Add(container, domtest.Node{Tag: "h1", Text: "Title", Box: geom.R(0, 100, 300, 40)})
	palette := doc.Add(container, domtest.Node{
		Tag:   "div",
		Attrs: []dom.Attribute{{Name: dom.DefaultIgnoreAttribute, Value: "true"}},
		Box:   geom.R(900, 0, 124, 768),
	})

	return &fixture{
		doc:       doc,
		container: container,
		button:    button,
		heading:   heading,
		palette:   palette,
		c:         New(inspect.New(doc, inspect.Options{}), container),
	}
}

func TestClickThenRecalculateTracksMovedNode(t *testing.T) {
	f := newFixture()

	f.c.OnClick(f.button)
	sel := f.c.Selected()
	if sel == nil {
		t.Fatal("expected a selection")
	}
	if sel.TagName != "button" || sel.ID != "test-btn" || sel.ClassName != "btn primary" {
		t.Errorf("selected = %+v", sel)
	}
	if sel.Geometry != geom.R(10, 20, 100, 50) {
		t.Errorf("geometry = %+v, want {10 20 100 50}", sel.Geometry)
	}

	f.doc.SetBox(f.button, geom.R(100, 200, 100, 50))
	f.c.Recalculate()

	got := f.c.Selected().Geometry
	if got.Left != 100 || got.Top != 200 {
		t.Errorf("after recalculate left=%v top=%v, want 100, 200", got.Left, got.Top)
	}
	if sel.Geometry.Left != 10 {
		t.Error("previous descriptor was mutated")
	}
}

func TestPointerMove_HoversAndKeepsOnEmptyOrChrome(t *testing.T) {
	f := newFixture()

	f.c.OnPointerMove(f.heading)
	if h := f.c.Hovered(); h == nil || h.TagName != "h1" {
		t.Fatalf("hovered = %+v", h)
	}
	if f.c.State().HoveredRef != f.heading {
		t.Error("hovered ref not retained")
	}

	f.c.OnPointerMove("")
	if h := f.c.Hovered(); h == nil || h.TagName != "h1" {
		t.Error("empty target should keep the previous hover")
	}
	f.c.OnPointerMove(f.palette)
	if f.c.State().HoveredRef != f.heading {
		t.Error("chrome target should keep the previous hover")
	}
}

func TestPointerLeave_ClearsHoverKeepsSelection(t *testing.T) {
	f := newFixture()

	f.c.OnClick(f.button)
	f.c.OnPointerMove(f.heading)
	f.c.OnPointerLeave()

	s := f.c.State()
	if s.Hovered != nil || !s.HoveredRef.IsZero() {
		t.Errorf("hover not cleared: %+v", s)
	}
	if s.Selected == nil || s.SelectedRef != f.button {
		t.Error("leave must keep the selection")
	}
}

func TestClick_Callback(t *testing.T) {
	f := newFixture()

	var calls []*inspect.Descriptor
	f.c.OnSelect = func(d *inspect.Descriptor) { calls = append(calls, d) }

	f.c.OnClick(f.button)
	f.c.OnClick(f.palette)
	f.c.OnClick("")

	if len(calls) != 3 {
		t.Fatalf("OnSelect calls = %d, want 3", len(calls))
	}
	if calls[0] == nil || calls[0].ID != "test-btn" {
		t.Errorf("first call = %+v", calls[0])
	}
	if calls[1] != nil || calls[2] != nil {
		t.Error("unresolved clicks should report nil")
	}
	if f.c.State().SelectedRef != f.button {
		t.Error("unresolved clicks must not change the selection")
	}
}

func TestRecalculate_ContainerUnavailableIsNoop(t *testing.T) {
	f := newFixture()

	f.c.OnClick(f.button)
	f.c.OnPointerMove(f.heading)
	before := f.c.State()

	f.doc.Node(f.container).Detached = true
	f.doc.SetBox(f.button, geom.R(500, 500, 1, 1))
	f.c.Recalculate()

	after := f.c.State()
	if after.Selected != before.Selected || after.Hovered != before.Hovered {
		t.Error("recalculate with unavailable container changed state")
	}

	f.c.SetContainer("")
	f.c.Recalculate()
	if f.c.Selected() != before.Selected {
		t.Error("recalculate without container changed state")
	}
}

func TestMoveAndClick_ContainerUnavailable(t *testing.T) {
	f := newFixture()
	f.doc.Node(f.container).Detached = true

	var got []*inspect.Descriptor
	f.c.OnSelect = func(d *inspect.Descriptor) { got = append(got, d) }

	f.c.OnPointerMove(f.button)
	f.c.OnClick(f.button)

	if s := f.c.State(); s.Hovered != nil || s.Selected != nil {
		t.Errorf("state changed with unavailable container: %+v", s)
	}
	if len(got) != 1 || got[0] != nil {
		t.Errorf("OnSelect got %v, want one nil", got)
	}
}

func TestRecalculate_DetachedSelectionKeepsDescriptor(t *testing.T) {
	f := newFixture()
	f.c.OnClick(f.button)

	f.doc.Node(f.button).Detached = true
	f.c.Recalculate()

	sel := f.c.Selected()
	if sel == nil || sel.ID != "test-btn" {
		t.Fatalf("selection lost: %+v", sel)
	}
	if sel.Geometry != (geom.Rect{}) {
		t.Errorf("detached geometry = %+v, want zero", sel.Geometry)
	}
}

func TestSelectTreeNode(t *testing.T) {
	f := newFixture()
	in := inspect.New(f.doc, inspect.Options{})
	root := tree.Build(in, f.container, f.container, 0)

	node := root.Find(tree.Identity{TagName: "button", ClassName: "btn primary", Top: 20, Left: 10})
	if node == nil {
		t.Fatal("tree node not found")
	}

	var called *inspect.Descriptor
	f.c.OnSelect = func(d *inspect.Descriptor) { called = d }
	f.c.SelectTreeNode(node)

	sel := f.c.Selected()
	if sel == nil || called != sel {
		t.Fatal("tree selection not stored or not reported")
	}
	if sel.TextContent != "" || len(sel.Attributes) != 0 || sel.Ancestors != nil {
		t.Errorf("tree selection should be lean: %+v", sel)
	}
	if sel.ID != "test-btn" || sel.Geometry != geom.R(10, 20, 100, 50) {
		t.Errorf("tree selection = %+v", sel)
	}

	f.doc.SetBox(f.button, geom.R(40, 60, 100, 50))
	f.c.Recalculate()
	sel = f.c.Selected()
	if sel.Geometry.Left != 40 || sel.Geometry.Top != 60 {
		t.Errorf("tree selection not re-measured: %+v", sel.Geometry)
	}
	if sel.TextContent != "" || len(sel.Attributes) != 0 {
		t.Error("recalculated tree selection gained text or attributes")
	}

	f.c.SelectTreeNode(nil)
	if f.c.Selected() != sel {
		t.Error("nil tree node should be ignored")
	}
}

func TestClear(t *testing.T) {
	f := newFixture()
	f.c.OnClick(f.button)
	f.c.OnPointerMove(f.heading)
	f.c.Clear()

	if s := f.c.State(); s != (State{}) {
		t.Errorf("state after Clear = %+v", s)
	}
}
