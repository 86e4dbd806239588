// Package domtest provides an in-memory dom.Provider for tests. Boxes are set
// directly, the same way a browser test would stub getBoundingClientRect.
package domtest

import (
	"fmt"
	"strings"

	"github.com/standardbeagle/domlens/internal/dom"
	"github.com/standardbeagle/domlens/internal/geom"
)

// Node is one fake element.
type Node struct {
	Tag      string
	Attrs    []dom.Attribute
	Class    any // string, dom.AnimatedString, or nil
	Text     string
	Box      geom.Rect
	Scroll   geom.Vec
	Style    dom.Style
	Detached bool

	parent   dom.Handle
	children []dom.Handle
}

// Doc is a fake provider. It is not safe for concurrent use.
type Doc struct {
	nodes map[dom.Handle]*Node
	next  int
}

var _ dom.Provider = (*Doc)(nil)

// New returns an empty document.
func New() *Doc {
	return &Doc{nodes: make(map[dom.Handle]*Node)}
}

// Add inserts n under parent (zero handle for a root) and returns its handle.
func (d *Doc) Add(parent dom.Handle, n Node) dom.Handle {
	d.next++
	h := dom.Handle(fmt.Sprintf("n%d", d.next))
	n.parent = parent
	d.nodes[h] = &n
	if p, ok := d.nodes[parent]; ok {
		p.children = append(p.children, h)
	}
	return h
}

// Node returns the mutable node behind h.
func (d *Doc) Node(h dom.Handle) *Node {
	return d.nodes[h]
}

// SetBox replaces the viewport box of h.
func (d *Doc) SetBox(h dom.Handle, r geom.Rect) {
	if n, ok := d.nodes[h]; ok {
		n.Box = r
	}
}

func (d *Doc) TagName(h dom.Handle) string {
	if n, ok := d.nodes[h]; ok {
		return n.Tag
	}
	return ""
}

func (d *Doc) Attributes(h dom.Handle) []dom.Attribute {
	n, ok := d.nodes[h]
	if !ok {
		return nil
	}
	attrs := append([]dom.Attribute(nil), n.Attrs...)
	if cls := dom.NormalizeClassName(n.Class); cls != "" {
		if _, has := dom.AttributeValue(attrs, "class"); !has {
			attrs = append(attrs, dom.Attribute{Name: "class", Value: cls})
		}
	}
	return attrs
}

func (d *Doc) ClassName(h dom.Handle) string {
	if n, ok := d.nodes[h]; ok {
		return dom.NormalizeClassName(n.Class)
	}
	return ""
}

func (d *Doc) TextContent(h dom.Handle) string {
	n, ok := d.nodes[h]
	if !ok {
		return ""
	}
	var b strings.Builder
	b.WriteString(n.Text)
	for _, c := range n.children {
		b.WriteString(d.TextContent(c))
	}
	return b.String()
}

func (d *Doc) BoundingBox(h dom.Handle) (geom.Rect, error) {
	n, ok := d.nodes[h]
	if !ok {
		return geom.Rect{}, dom.ErrUnknownHandle
	}
	if n.Detached {
		return geom.Rect{}, dom.ErrDetached
	}
	return n.Box, nil
}

func (d *Doc) ScrollOffset(h dom.Handle) (geom.Vec, error) {
	n, ok := d.nodes[h]
	if !ok {
		return geom.Vec{}, dom.ErrUnknownHandle
	}
	if n.Detached {
		return geom.Vec{}, dom.ErrDetached
	}
	return n.Scroll, nil
}

func (d *Doc) ComputedStyle(h dom.Handle) dom.Style {
	if n, ok := d.nodes[h]; ok {
		return n.Style
	}
	return dom.Style{}
}

func (d *Doc) Parent(h dom.Handle) dom.Handle {
	if n, ok := d.nodes[h]; ok {
		return n.parent
	}
	return ""
}

func (d *Doc) Children(h dom.Handle) []dom.Handle {
	if n, ok := d.nodes[h]; ok {
		return append([]dom.Handle(nil), n.children...)
	}
	return nil
}
