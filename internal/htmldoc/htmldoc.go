// Package htmldoc is a dom.Provider over a parsed HTML document.
//
// Layout is deliberately simple: every element is positioned by the
// left/top/width/height pixel values of its inline style, relative to its
// parent, the way absolutely positioned mock-ups are authored. Boxes can be
// overridden per node, which makes the package the deterministic fixture the
// controllers are tested against and the offline backend of the CLI.
package htmldoc

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/net/html"

	"github.com/standardbeagle/domlens/internal/dom"
	"github.com/standardbeagle/domlens/internal/geom"
)

// ErrNoMatch is returned by Query when no element matches.
var ErrNoMatch = errors.New("htmldoc: no element matches selector")

// Document is a parsed document plus its layout state. It is safe for
// concurrent use.
type Document struct {
	mu sync.RWMutex

	root    *html.Node
	nodes   map[dom.Handle]*html.Node
	handles map[*html.Node]dom.Handle

	boxes  map[dom.Handle]geom.Rect
	scroll map[dom.Handle]geom.Vec

	contentRoot dom.Handle
	transform   geom.Transform
}

var (
	_ dom.Provider    = (*Document)(nil)
	_ dom.Transformer = (*Document)(nil)
)

// Parse reads an HTML document from r.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	d := &Document{
		root:      root,
		nodes:     make(map[dom.Handle]*html.Node),
		handles:   make(map[*html.Node]dom.Handle),
		boxes:     make(map[dom.Handle]geom.Rect),
		scroll:    make(map[dom.Handle]geom.Vec),
		transform: geom.Identity(),
	}

	// Handles follow document order so they are stable across reloads of an
	// unchanged file.
	next := 0
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			next++
			h := dom.Handle(fmt.Sprintf("e%d", next))
			d.nodes[h] = n
			d.handles[n] = h
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return d, nil
}

// ParseString parses an HTML string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// ParseFile parses the HTML file at path.
func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(bytes.NewReader(data))
}

// Render writes the document back out as HTML.
func (d *Document) Render(w io.Writer) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return html.Render(w, d.root)
}

// Body returns the <body> element, or the zero handle.
func (d *Document) Body() dom.Handle {
	h, _ := d.Query("body")
	return h
}

// ByID returns the element with the given id attribute.
func (d *Document) ByID(id string) (dom.Handle, error) {
	return d.Query("#" + id)
}

// node returns the element behind h. Callers hold mu.
func (d *Document) node(h dom.Handle) (*html.Node, bool) {
	n, ok := d.nodes[h]
	return n, ok
}

// connected reports whether n is still attached to the document.
func (d *Document) connected(n *html.Node) bool {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur == d.root {
			return true
		}
	}
	return false
}

func (d *Document) TagName(h dom.Handle) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if n, ok := d.node(h); ok {
		return n.Data
	}
	return ""
}

// Attributes returns attributes in source order. Namespaced attributes keep
// their prefix, e.g. "xlink:href".
func (d *Document) Attributes(h dom.Handle) []dom.Attribute {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n, ok := d.node(h)
	if !ok {
		return nil
	}
	attrs := make([]dom.Attribute, 0, len(n.Attr))
	for _, a := range n.Attr {
		name := a.Key
		if a.Namespace != "" {
			name = a.Namespace + ":" + a.Key
		}
		attrs = append(attrs, dom.Attribute{Name: name, Value: a.Val})
	}
	return attrs
}

// ClassName returns the class attribute. SVG elements expose it the way a
// browser does, as an animated string, and go through the same normalization.
func (d *Document) ClassName(h dom.Handle) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n, ok := d.node(h)
	if !ok {
		return ""
	}
	v := getAttr(n, "class")
	if n.Namespace == "svg" {
		return dom.NormalizeClassName(dom.AnimatedString{BaseVal: v, AnimVal: v})
	}
	return dom.NormalizeClassName(v)
}

func (d *Document) TextContent(h dom.Handle) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n, ok := d.node(h)
	if !ok {
		return ""
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func (d *Document) BoundingBox(h dom.Handle) (geom.Rect, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n, ok := d.node(h)
	if !ok {
		return geom.Rect{}, dom.ErrUnknownHandle
	}
	if !d.connected(n) {
		return geom.Rect{}, dom.ErrDetached
	}
	return d.viewportBox(h, n), nil
}

func (d *Document) ScrollOffset(h dom.Handle) (geom.Vec, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n, ok := d.node(h)
	if !ok {
		return geom.Vec{}, dom.ErrUnknownHandle
	}
	if !d.connected(n) {
		return geom.Vec{}, dom.ErrDetached
	}
	return d.scroll[h], nil
}

func (d *Document) ComputedStyle(h dom.Handle) dom.Style {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n, ok := d.node(h)
	if !ok {
		return dom.Style{}
	}
	return computedStyle(n)
}

func (d *Document) Parent(h dom.Handle) dom.Handle {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n, ok := d.node(h)
	if !ok || n.Parent == nil || n.Parent.Type != html.ElementNode {
		return ""
	}
	return d.handles[n.Parent]
}

func (d *Document) Children(h dom.Handle) []dom.Handle {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n, ok := d.node(h)
	if !ok {
		return nil
	}
	var out []dom.Handle
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, d.handles[c])
		}
	}
	return out
}

// SetContentTransform lays out root and its descendants under t, with the
// transform origin at root's top-left corner.
func (d *Document) SetContentTransform(root dom.Handle, t geom.Transform) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.node(root); !ok {
		return fmt.Errorf("content root %q: %w", root, dom.ErrUnknownHandle)
	}
	d.contentRoot = root
	d.transform = t
	return nil
}

// ContentTransform returns the transform last set with SetContentTransform.
func (d *Document) ContentTransform() geom.Transform {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.transform
}

// SetBox pins h's viewport box to r, bypassing layout.
func (d *Document) SetBox(h dom.Handle, r geom.Rect) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.boxes[h] = r
}

// ClearBox removes a SetBox override.
func (d *Document) ClearBox(h dom.Handle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.boxes, h)
}

// SetScroll sets h's scroll offset. Descendants move up and left by it.
func (d *Document) SetScroll(h dom.Handle, v geom.Vec) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.scroll[h] = v
}

// Detach removes h from the document. Its handle stays valid but measures as
// dom.ErrDetached, like a node held across an unmount.
func (d *Document) Detach(h dom.Handle) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, ok := d.node(h)
	if !ok {
		return dom.ErrUnknownHandle
	}
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
	return nil
}
