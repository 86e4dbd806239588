// Package hittest resolves a viewport point to the node painted there, for
// transports that report pointer coordinates instead of an event target.
package hittest

import (
	"github.com/standardbeagle/domlens/internal/dom"
	"github.com/standardbeagle/domlens/internal/geom"
	"github.com/standardbeagle/domlens/internal/inspect"
	"github.com/standardbeagle/domlens/internal/tree"
)

// Resolver finds the topmost node under a point. It reuses its collection
// buffer between calls and is not safe for concurrent use.
type Resolver struct {
	in       *inspect.Inspector
	maxDepth int
	buf      []dom.Handle
}

// New returns a Resolver that descends at most maxDepth levels below the root
// (tree.DefaultMaxDepth when maxDepth <= 0).
func New(in *inspect.Inspector, maxDepth int) *Resolver {
	if maxDepth <= 0 {
		maxDepth = tree.DefaultMaxDepth
	}
	return &Resolver{in: in, maxDepth: maxDepth}
}

// Resolve returns the topmost node under root whose viewport box contains p,
// or the zero handle when nothing is hit. Later siblings paint over earlier
// ones and children over their parents. Chrome paints like any other node:
// a point over chrome resolves to the zero handle rather than to the content
// beneath it, while unmarked nodes nested inside chrome can still be hit.
func (r *Resolver) Resolve(root dom.Handle, p geom.Vec) dom.Handle {
	if root.IsZero() || r.in.IsChrome(root) {
		return ""
	}
	r.buf = r.collect(root, 0, r.buf[:0])

	prov := r.in.Provider()
	// Walk backward: reverse paint order puts the topmost node first.
	for i := len(r.buf) - 1; i >= 0; i-- {
		h := r.buf[i]
		box, err := prov.BoundingBox(h)
		if err != nil {
			continue
		}
		if box.Contains(p) {
			if r.in.IsChrome(h) {
				return ""
			}
			return h
		}
	}
	return ""
}

// collect appends h and its descendants in paint order.
func (r *Resolver) collect(h dom.Handle, depth int, buf []dom.Handle) []dom.Handle {
	buf = append(buf, h)
	if depth >= r.maxDepth {
		return buf
	}
	for _, c := range r.in.Provider().Children(h) {
		buf = r.collect(c, depth+1, buf)
	}
	return buf
}

// Resolve is a one-shot Resolver.Resolve with the default depth.
func Resolve(in *inspect.Inspector, root dom.Handle, p geom.Vec) dom.Handle {
	return New(in, 0).Resolve(root, p)
}
