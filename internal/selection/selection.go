// Package selection tracks the hovered and selected nodes of an editing
// surface and keeps their descriptors in step with the view.
package selection

import (
	"errors"

	"github.com/standardbeagle/domlens/internal/debug"
	"github.com/standardbeagle/domlens/internal/dom"
	"github.com/standardbeagle/domlens/internal/inspect"
	"github.com/standardbeagle/domlens/internal/tree"
)

// State is the hover and selection state. Descriptors are snapshots; the refs
// are the live nodes they were measured from and are what Recalculate uses.
type State struct {
	Hovered     *inspect.Descriptor `json:"hovered" yaml:"hovered"`
	Selected    *inspect.Descriptor `json:"selected" yaml:"selected"`
	HoveredRef  dom.Handle          `json:"hoveredRef,omitempty" yaml:"hoveredRef,omitempty"`
	SelectedRef dom.Handle          `json:"selectedRef,omitempty" yaml:"selectedRef,omitempty"`
}

// Controller owns State. Like the pan/zoom controller it is single-threaded;
// the session serializes calls.
type Controller struct {
	in        *inspect.Inspector
	container dom.Handle
	state     State

	// fromTree marks a selection made in the tree view.
	fromTree bool

	// OnSelect is called on every click with the new selection, or nil when
	// the click did not resolve to a node.
	OnSelect func(*inspect.Descriptor)
}

// New creates a Controller that measures against container.
func New(in *inspect.Inspector, container dom.Handle) *Controller {
	return &Controller{in: in, container: container}
}

// State returns the current state. The descriptors are shared, not copied;
// they are never mutated once published.
func (c *Controller) State() State { return c.state }

// Hovered returns the hovered descriptor, or nil.
func (c *Controller) Hovered() *inspect.Descriptor { return c.state.Hovered }

// Selected returns the selected descriptor, or nil.
func (c *Controller) Selected() *inspect.Descriptor { return c.state.Selected }

// SetContainer replaces the measuring container.
func (c *Controller) SetContainer(container dom.Handle) { c.container = container }

// describe resolves target. ok is false when there is nothing to store: an
// empty or chrome target, or a container that cannot be measured.
func (c *Controller) describe(target dom.Handle) (d *inspect.Descriptor, ok bool) {
	d, err := c.in.Describe(target, c.container)
	if errors.Is(err, inspect.ErrContainerUnavailable) {
		debug.Log("selection", "container unavailable, ignoring %q", target)
		return nil, false
	}
	return d, d != nil
}

// OnPointerMove hovers target. An empty or chrome target keeps the previous
// hover: moving across editor chrome does not flicker the outline.
func (c *Controller) OnPointerMove(target dom.Handle) {
	d, ok := c.describe(target)
	if !ok {
		return
	}
	debug.Trace("selection", "hover %s %q", d.TagName, target)
	c.state.Hovered = d
	c.state.HoveredRef = target
}

// OnPointerLeave clears the hover. The selection is kept.
func (c *Controller) OnPointerLeave() {
	c.state.Hovered = nil
	c.state.HoveredRef = ""
}

// OnClick selects target. A click that does not resolve leaves the selection
// as it was and reports nil to OnSelect.
func (c *Controller) OnClick(target dom.Handle) {
	d, ok := c.describe(target)
	if ok {
		debug.Log("selection", "select %s#%s %q", d.TagName, d.ID, target)
		c.state.Selected = d
		c.state.SelectedRef = target
		c.fromTree = false
	}
	if c.OnSelect != nil {
		c.OnSelect(d)
	}
}

// SelectTreeNode selects a node picked in the tree view. The tree never
// collected text or attributes, so the descriptor carries neither. When n
// kept its handle, later recalculation re-measures that node.
func (c *Controller) SelectTreeNode(n *tree.Node) {
	if n == nil {
		return
	}
	d := &inspect.Descriptor{
		TagName:    n.TagName,
		ID:         n.ID,
		ClassName:  n.ClassName,
		Attributes: []dom.Attribute{},
		Geometry:   n.Geometry,
		Handle:     n.Handle,
	}
	c.state.Selected = d
	c.state.SelectedRef = n.Handle
	c.fromTree = true
	if c.OnSelect != nil {
		c.OnSelect(d)
	}
}

// Clear drops both hover and selection.
func (c *Controller) Clear() {
	c.state = State{}
	c.fromTree = false
}

// Recalculate re-derives both descriptors from their refs. Call it after
// every view transform change so overlays follow the content. It is a no-op
// while the container cannot be measured.
func (c *Controller) Recalculate() {
	if !c.in.ContainerAvailable(c.container) {
		debug.Log("selection", "recalculate skipped: container unavailable")
		return
	}

	if !c.state.HoveredRef.IsZero() {
		if d, ok := c.describe(c.state.HoveredRef); ok {
			c.state.Hovered = d
		}
	}
	if !c.state.SelectedRef.IsZero() {
		if d, ok := c.describe(c.state.SelectedRef); ok {
			if c.fromTree {
				d = lean(d)
			}
			c.state.Selected = d
		}
	}
}

// lean strips what a tree selection never had, so a recalculated tree
// selection looks the same as a fresh one.
func lean(d *inspect.Descriptor) *inspect.Descriptor {
	out := *d
	out.TextContent = ""
	out.Attributes = []dom.Attribute{}
	out.Ancestors = nil
	return &out
}
