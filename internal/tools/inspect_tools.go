package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/domlens/internal/debug"
	"github.com/standardbeagle/domlens/internal/dom"
	"github.com/standardbeagle/domlens/internal/geom"
	"github.com/standardbeagle/domlens/internal/inspect"
	"github.com/standardbeagle/domlens/internal/session"
	"github.com/standardbeagle/domlens/internal/tree"
)

// InspectInput names the element to describe.
type InspectInput struct {
	Handle   string   `json:"handle,omitempty" jsonschema:"Element handle as returned by domlens_tree"`
	Selector string   `json:"selector,omitempty" jsonschema:"CSS selector, used when handle is empty"`
	X        *float64 `json:"x,omitempty" jsonschema:"Viewport x; with y, inspects the element under the point"`
	Y        *float64 `json:"y,omitempty" jsonschema:"Viewport y"`
}

// InspectOutput is the described element.
type InspectOutput struct {
	Element *inspect.Descriptor `json:"element,omitempty"`
	Warning string              `json:"warning,omitempty"`
}

// RegisterInspectTool adds domlens_inspect.
func RegisterInspectTool(server *mcp.Server, st *SessionTools) {
	mcp.AddTool(server, &mcp.Tool{
		Name: "domlens_inspect",
		Description: `Describe one element of the edited content without changing the selection.

Returns tag, id, class, text (first 100 characters), attributes, computed
display/position and geometry relative to the editor container.

Pick the element by handle, CSS selector, or viewport point:
  domlens_inspect {handle: "e12"}
  domlens_inspect {selector: "#test-btn"}
  domlens_inspect {x: 130, y: 80}`,
	}, st.handleInspect)
}

func (st *SessionTools) handleInspect(ctx context.Context, req *mcp.CallToolRequest, input InspectInput) (*mcp.CallToolResult, InspectOutput, error) {
	var h dom.Handle
	if input.X != nil && input.Y != nil {
		h = st.sess.TargetAt(*input.X, *input.Y)
		if h.IsZero() {
			return errorResult(fmt.Sprintf("no element at (%g, %g)", *input.X, *input.Y)), InspectOutput{}, nil
		}
	} else {
		var err error
		if h, err = st.resolve(input.Handle, input.Selector); err != nil {
			return errorResult(err.Error()), InspectOutput{}, nil
		}
	}

	d, err := st.sess.Inspect(h)
	if d == nil || d.TagName == "" {
		return errorResult(fmt.Sprintf("%q is not an inspectable element", h)), InspectOutput{}, nil
	}
	out := InspectOutput{Element: d}
	if errors.Is(err, inspect.ErrContainerUnavailable) {
		out.Warning = "editor container unavailable; geometry is zero"
	} else if err != nil {
		debug.Warn("mcp", "inspect %s: %v", h, err)
	}
	return nil, out, nil
}

// TreeInput bounds the returned tree.
type TreeInput struct {
	MaxDepth int `json:"max_depth,omitempty" jsonschema:"Deepest level to return, root is 0 (default: configured tree depth)"`
}

// TreeEntry is one node of the flattened tree.
type TreeEntry struct {
	Depth     int       `json:"depth"`
	Handle    string    `json:"handle,omitempty"`
	TagName   string    `json:"tag_name"`
	ID        string    `json:"id,omitempty"`
	ClassName string    `json:"class_name,omitempty"`
	Geometry  geom.Rect `json:"geometry"`
}

// TreeOutput lists the tree in depth-first order.
type TreeOutput struct {
	Nodes []TreeEntry `json:"nodes"`
	Count int         `json:"count"`
}

// RegisterTreeTool adds domlens_tree.
func RegisterTreeTool(server *mcp.Server, st *SessionTools) {
	mcp.AddTool(server, &mcp.Tool{
		Name: "domlens_tree",
		Description: `List the element tree of the edited content in depth-first order.

Editor chrome is excluded. Each entry has its depth, handle, tag, id, class
and geometry; pass a handle to domlens_inspect or domlens_select.

Examples:
  domlens_tree {}
  domlens_tree {max_depth: 2}`,
	}, st.handleTree)
}

func (st *SessionTools) handleTree(ctx context.Context, req *mcp.CallToolRequest, input TreeInput) (*mcp.CallToolResult, TreeOutput, error) {
	root := st.sess.Tree()
	if root == nil {
		return errorResult("content root is not available"), TreeOutput{}, nil
	}

	out := TreeOutput{Nodes: []TreeEntry{}}
	root.Walk(func(n *tree.Node, depth int) bool {
		out.Nodes = append(out.Nodes, TreeEntry{
			Depth:     depth,
			Handle:    string(n.Handle),
			TagName:   n.TagName,
			ID:        n.ID,
			ClassName: n.ClassName,
			Geometry:  n.Geometry,
		})
		return input.MaxDepth <= 0 || depth < input.MaxDepth
	})
	out.Count = len(out.Nodes)
	return nil, out, nil
}

// SelectInput picks the element to select. Tag name with top/left selects
// by tree identity; otherwise handle or selector act like a click.
type SelectInput struct {
	Handle    string  `json:"handle,omitempty" jsonschema:"Element handle"`
	Selector  string  `json:"selector,omitempty" jsonschema:"CSS selector"`
	TagName   string  `json:"tag_name,omitempty" jsonschema:"Tree identity: lowercase tag name"`
	ClassName string  `json:"class_name,omitempty" jsonschema:"Tree identity: class name"`
	Top       float64 `json:"top,omitempty" jsonschema:"Tree identity: geometry top"`
	Left      float64 `json:"left,omitempty" jsonschema:"Tree identity: geometry left"`
	Clear     bool    `json:"clear,omitempty" jsonschema:"Clear hover and selection instead"`
}

// SelectOutput is the selection after the call.
type SelectOutput struct {
	Selected *inspect.Descriptor `json:"selected,omitempty"`
}

// RegisterSelectTool adds domlens_select.
func RegisterSelectTool(server *mcp.Server, st *SessionTools) {
	mcp.AddTool(server, &mcp.Tool{
		Name: "domlens_select",
		Description: `Select an element in the editor, as if the user clicked it.

Selecting editor chrome or nothing leaves the selection unchanged.

Examples:
  domlens_select {selector: "#test-btn"}
  domlens_select {handle: "e12"}
  domlens_select {tag_name: "button", class_name: "btn", top: 60, left: 105}
  domlens_select {clear: true}`,
	}, st.handleSelect)
}

func (st *SessionTools) handleSelect(ctx context.Context, req *mcp.CallToolRequest, input SelectInput) (*mcp.CallToolResult, SelectOutput, error) {
	switch {
	case input.Clear:
		st.sess.ClearSelection()
		return nil, SelectOutput{}, nil

	case input.TagName != "":
		d, err := st.sess.SelectIdentity(tree.Identity{
			TagName:   input.TagName,
			ClassName: input.ClassName,
			Top:       input.Top,
			Left:      input.Left,
		})
		if errors.Is(err, session.ErrNodeNotFound) {
			return errorResult(err.Error()), SelectOutput{}, nil
		}
		if err != nil {
			return nil, SelectOutput{}, err
		}
		return nil, SelectOutput{Selected: d}, nil
	}

	h, err := st.resolve(input.Handle, input.Selector)
	if err != nil {
		return errorResult(err.Error()), SelectOutput{}, nil
	}
	st.sess.Click(h)
	return nil, SelectOutput{Selected: st.sess.Snapshot().Selected}, nil
}
