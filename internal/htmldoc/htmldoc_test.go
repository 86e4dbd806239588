package htmldoc

import (
	"errors"
	"strings"
	"testing"

	"github.com/standardbeagle/domlens/internal/dom"
	"github.com/standardbeagle/domlens/internal/geom"
	"github.com/standardbeagle/domlens/internal/inspect"
)

const page = `<!DOCTYPE html>
<html><body>
<div id="container" style="width: 1024px; height: 768px">
  <main id="content" class="page" style="left: 100px; top: 50px; width: 800px; height: 600px">
    <button id="test-btn" class="btn primary" style="left:10px;top:20px;width:100px;height:50px" data-role="save">Click me</button>
    <section class="card" style="left: 0; top: 200px; width: 400px; height: 100px; display: flex; position: relative">
      <p>Hello <b>world</b></p>
    </section>
    <svg class="icon  large" style="left: 500px; top: 0; width: 24px; height: 24px"><circle r="4"></circle></svg>
  </main>
  <aside data-editor-ignore style="left: 900px; width: 124px; height: 768px">palette</aside>
</div>
</body></html>`

func mustParse(t *testing.T) *Document {
	t.Helper()
	d, err := ParseString(page)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func mustQuery(t *testing.T, d *Document, sel string) dom.Handle {
	t.Helper()
	h, err := d.Query(sel)
	if err != nil {
		t.Fatalf("Query(%q): %v", sel, err)
	}
	return h
}

func TestQuery(t *testing.T) {
	d := mustParse(t)

	tests := []struct {
		sel  string
		want string
	}{
		{"button", "test-btn"},
		{"#test-btn", "test-btn"},
		{"button#test-btn.primary", "test-btn"},
		{".primary.btn", "test-btn"},
		{"[data-role=save]", "test-btn"},
		{"main button", "test-btn"},
		{"#container main", "content"},
	}
	for _, tt := range tests {
		h := mustQuery(t, d, tt.sel)
		id, _ := dom.AttributeValue(d.Attributes(h), "id")
		if id != tt.want {
			t.Errorf("Query(%q) id = %q, want %q", tt.sel, id, tt.want)
		}
	}

	if _, err := d.Query("video"); !errors.Is(err, ErrNoMatch) {
		t.Errorf("Query(video) err = %v, want ErrNoMatch", err)
	}
	if _, err := d.Query("aside button"); !errors.Is(err, ErrNoMatch) {
		t.Errorf("Query(aside button) err = %v, want ErrNoMatch", err)
	}
	if _, err := d.Query("  "); err == nil {
		t.Error("empty selector should fail")
	}

	all, err := d.QueryAll("[style]")
	if err != nil || len(all) != 6 {
		t.Errorf("QueryAll([style]) = %d, %v; want 6", len(all), err)
	}
}

func TestAttributesAndNames(t *testing.T) {
	d := mustParse(t)
	btn := mustQuery(t, d, "#test-btn")

	attrs := d.Attributes(btn)
	names := make([]string, len(attrs))
	for i, a := range attrs {
		names[i] = a.Name
	}
	if got := strings.Join(names, ","); got != "id,class,style,data-role" {
		t.Errorf("attribute order = %s", got)
	}
	if d.TagName(btn) != "button" || d.ClassName(btn) != "btn primary" {
		t.Errorf("tag = %q class = %q", d.TagName(btn), d.ClassName(btn))
	}

	svg := mustQuery(t, d, "svg")
	if got := d.ClassName(svg); got != "icon  large" {
		t.Errorf("svg class = %q", got)
	}

	section := mustQuery(t, d, "section")
	if got := d.TextContent(section); strings.TrimSpace(got) != "Hello world" {
		t.Errorf("TextContent = %q", got)
	}
}

func TestTreeNavigation(t *testing.T) {
	d := mustParse(t)
	main := mustQuery(t, d, "main")

	kids := d.Children(main)
	if len(kids) != 3 {
		t.Fatalf("children = %d, want 3", len(kids))
	}
	if d.TagName(kids[0]) != "button" || d.TagName(kids[2]) != "svg" {
		t.Errorf("children tags = %s..%s", d.TagName(kids[0]), d.TagName(kids[2]))
	}
	if d.Parent(kids[0]) != main {
		t.Error("Parent(button) != main")
	}

	html := mustQuery(t, d, "html")
	if d.Parent(html) != "" {
		t.Error("html should have no element parent")
	}
	if d.Body() == "" {
		t.Error("Body not found")
	}
}

func TestLayout(t *testing.T) {
	d := mustParse(t)
	btn := mustQuery(t, d, "#test-btn")
	main := mustQuery(t, d, "main")
	p := mustQuery(t, d, "p")

	if got, _ := d.BoundingBox(btn); got != geom.R(110, 70, 100, 50) {
		t.Errorf("button box = %+v", got)
	}
	// No inline geometry: positioned at the parent origin with zero size.
	if got, _ := d.BoundingBox(p); got != geom.R(100, 250, 0, 0) {
		t.Errorf("p box = %+v", got)
	}

	if err := d.SetContentTransform(main, geom.ScaleUniform(0.5)); err != nil {
		t.Fatal(err)
	}
	if got, _ := d.BoundingBox(btn); got != geom.R(105, 60, 50, 25) {
		t.Errorf("scaled button box = %+v", got)
	}
	if got, _ := d.BoundingBox(main); got != geom.R(100, 50, 400, 300) {
		t.Errorf("scaled main box = %+v", got)
	}
	aside := mustQuery(t, d, "aside")
	if got, _ := d.BoundingBox(aside); got != geom.R(900, 0, 124, 768) {
		t.Errorf("aside outside the content root moved: %+v", got)
	}

	container := mustQuery(t, d, "#container")
	d.SetScroll(container, geom.Pt(0, 30))
	if got, _ := d.BoundingBox(btn); got != geom.R(105, 30, 50, 25) {
		t.Errorf("scrolled button box = %+v", got)
	}
	if got, _ := d.ScrollOffset(container); got != geom.Pt(0, 30) {
		t.Errorf("ScrollOffset = %v", got)
	}

	d.SetBox(btn, geom.R(1, 2, 3, 4))
	if got, _ := d.BoundingBox(btn); got != geom.R(1, 2, 3, 4) {
		t.Errorf("override box = %+v", got)
	}
	d.ClearBox(btn)
	if got, _ := d.BoundingBox(btn); got != geom.R(105, 30, 50, 25) {
		t.Errorf("box after ClearBox = %+v", got)
	}

	if err := d.SetContentTransform("nope", geom.Identity()); !errors.Is(err, dom.ErrUnknownHandle) {
		t.Errorf("unknown root err = %v", err)
	}
}

func TestComputedStyle(t *testing.T) {
	d := mustParse(t)

	tests := []struct {
		sel  string
		want dom.Style
	}{
		{"section", dom.Style{Display: "flex", Position: "relative"}},
		{"main", dom.Style{Display: "block", Position: "static"}},
		{"button", dom.Style{Display: "inline-block", Position: "static"}},
		{"b", dom.Style{Display: "inline", Position: "static"}},
		{"head", dom.Style{Display: "none", Position: "static"}},
	}
	for _, tt := range tests {
		if got := d.ComputedStyle(mustQuery(t, d, tt.sel)); got != tt.want {
			t.Errorf("ComputedStyle(%s) = %+v, want %+v", tt.sel, got, tt.want)
		}
	}
}

func TestDetach(t *testing.T) {
	d := mustParse(t)
	btn := mustQuery(t, d, "#test-btn")

	if err := d.Detach(btn); err != nil {
		t.Fatal(err)
	}
	if _, err := d.BoundingBox(btn); !errors.Is(err, dom.ErrDetached) {
		t.Errorf("BoundingBox after detach err = %v", err)
	}
	if d.Parent(btn) != "" {
		t.Error("detached node should have no parent")
	}
	if _, err := d.Query("#test-btn"); !errors.Is(err, ErrNoMatch) {
		t.Error("detached node should not match queries")
	}
	if _, err := d.BoundingBox("e999"); !errors.Is(err, dom.ErrUnknownHandle) {
		t.Errorf("unknown handle err = %v", err)
	}
}

func TestInspectorOverDocument(t *testing.T) {
	d := mustParse(t)
	container := mustQuery(t, d, "#container")
	main := mustQuery(t, d, "main")
	btn := mustQuery(t, d, "#test-btn")
	if err := d.SetContentTransform(main, geom.ScaleUniform(0.5)); err != nil {
		t.Fatal(err)
	}

	in := inspect.New(d, inspect.Options{Ancestors: true, Selector: true})
	desc, err := in.Describe(btn, container)
	if err != nil {
		t.Fatal(err)
	}
	if desc.Geometry != geom.R(105, 60, 50, 25) {
		t.Errorf("Geometry = %+v", desc.Geometry)
	}
	if desc.TextContent != "Click me" || desc.ClassName != "btn primary" {
		t.Errorf("descriptor = %+v", desc)
	}
	if desc.Selector != "#test-btn" {
		t.Errorf("Selector = %q", desc.Selector)
	}
	if len(desc.Ancestors) != 1 || desc.Ancestors[0].ID != "content" {
		t.Errorf("Ancestors = %+v", desc.Ancestors)
	}

	aside := mustQuery(t, d, "aside")
	if desc, _ := in.Describe(aside, container); desc != nil {
		t.Error("chrome should not be described")
	}
}

func TestRender(t *testing.T) {
	d := mustParse(t)
	var b strings.Builder
	if err := d.Render(&b); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(b.String(), `id="test-btn"`) {
		t.Errorf("render lost content: %s", b.String())
	}
}
