// Package tree builds a depth-bounded snapshot of a node and its descendants
// for the panel's navigable tree view.
package tree

import (
	"strings"

	"github.com/standardbeagle/domlens/internal/dom"
	"github.com/standardbeagle/domlens/internal/geom"
	"github.com/standardbeagle/domlens/internal/inspect"
)

// DefaultMaxDepth bounds traversal on pathological documents.
const DefaultMaxDepth = 10

// Node mirrors the inspector descriptor per node, without text or attributes.
type Node struct {
	TagName   string     `json:"tagName" yaml:"tagName"`
	ClassName string     `json:"className" yaml:"className"`
	ID        string     `json:"id" yaml:"id"`
	Geometry  geom.Rect  `json:"geometry" yaml:"geometry"`
	Handle    dom.Handle `json:"handle,omitempty" yaml:"handle,omitempty"`
	Children  []*Node    `json:"children" yaml:"children"`
}

// Build snapshots root and its descendants relative to container. Children
// are visited while depth < maxDepth, where root is depth 0. Chrome nodes are
// dropped together with their subtrees; a chrome root yields nil. maxDepth <= 0
// means DefaultMaxDepth.
func Build(in *inspect.Inspector, root, container dom.Handle, maxDepth int) *Node {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	if root.IsZero() || in.IsChrome(root) {
		return nil
	}
	return build(in, root, container, 0, maxDepth)
}

func build(in *inspect.Inspector, h, container dom.Handle, depth, maxDepth int) *Node {
	p := in.Provider()
	attrs := p.Attributes(h)
	id, _ := dom.AttributeValue(attrs, "id")

	// Geometry degrades to zero when the container is gone, same as Describe.
	rect, _ := in.Measure(h, container)

	n := &Node{
		TagName:   strings.ToLower(p.TagName(h)),
		ClassName: p.ClassName(h),
		ID:        id,
		Geometry:  rect,
		Handle:    h,
		Children:  []*Node{},
	}

	if depth < maxDepth {
		for _, c := range p.Children(h) {
			if in.IsChrome(c) {
				continue
			}
			n.Children = append(n.Children, build(in, c, container, depth+1, maxDepth))
		}
	}
	return n
}

// Walk calls fn for n and every descendant in depth-first order, passing the
// depth of each node. Returning false from fn skips that node's children.
func (n *Node) Walk(fn func(node *Node, depth int) bool) {
	if n == nil {
		return
	}
	n.walk(fn, 0)
}

func (n *Node) walk(fn func(*Node, int) bool, depth int) {
	if !fn(n, depth) {
		return
	}
	for _, c := range n.Children {
		c.walk(fn, depth+1)
	}
}

// Count returns the number of nodes in the tree.
func (n *Node) Count() int {
	count := 0
	n.Walk(func(*Node, int) bool {
		count++
		return true
	})
	return count
}

// Depth returns the depth of the deepest node; a lone root has depth 0.
func (n *Node) Depth() int {
	deepest := -1
	n.Walk(func(_ *Node, d int) bool {
		deepest = max(deepest, d)
		return true
	})
	return deepest
}

// Identity is what the tree view can match a node by.
type Identity struct {
	TagName   string  `json:"tagName"`
	ClassName string  `json:"className"`
	Top       float64 `json:"top"`
	Left      float64 `json:"left"`
}

// IdentityOf returns n's identity.
func (n *Node) IdentityOf() Identity {
	return Identity{TagName: n.TagName, ClassName: n.ClassName, Top: n.Geometry.Top, Left: n.Geometry.Left}
}

// Find returns the first node, in depth-first order, matching id.
func (n *Node) Find(id Identity) *Node {
	var found *Node
	n.Walk(func(c *Node, _ int) bool {
		if found != nil {
			return false
		}
		if c.IdentityOf() == id {
			found = c
			return false
		}
		return true
	})
	return found
}

// FindHandle returns the node built from h.
func (n *Node) FindHandle(h dom.Handle) *Node {
	var found *Node
	n.Walk(func(c *Node, _ int) bool {
		if found != nil {
			return false
		}
		if c.Handle == h {
			found = c
			return false
		}
		return true
	})
	return found
}
