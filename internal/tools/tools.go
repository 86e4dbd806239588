// Package tools exposes a session to MCP clients: inspection, the element
// tree, selection, and view control.
package tools

import (
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/domlens/internal/dom"
	"github.com/standardbeagle/domlens/internal/session"
)

// Querier resolves CSS selectors to handles. Both the static document and
// the browser page implement it.
type Querier interface {
	Query(selector string) (dom.Handle, error)
}

// SessionTools holds what the tool handlers operate on.
type SessionTools struct {
	sess  *session.Session
	query Querier
}

// New returns tools over sess. q may be nil, in which case selector
// arguments are rejected.
func New(sess *session.Session, q Querier) *SessionTools {
	return &SessionTools{sess: sess, query: q}
}

// NewServer creates an MCP server with every domlens tool registered.
func NewServer(version string, st *SessionTools) *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "domlens",
			Version: version,
		},
		&mcp.ServerOptions{
			Instructions: `Visual inspector for an HTML page shown in a pan/zoom editor.

Geometry is reported relative to the editor container, after the view
transform. Elements marked with the editor-ignore attribute are chrome and
are never inspected or selected.

Available tools:
- domlens_tree: list elements with handles
- domlens_inspect: describe one element
- domlens_select: select an element like a click
- domlens_zoom, domlens_pan: change the view
- domlens_state: current transform, hover and selection`,
		},
	)
	st.Register(server)
	return server
}

// Register adds all tools to server.
func (st *SessionTools) Register(server *mcp.Server) {
	RegisterInspectTool(server, st)
	RegisterTreeTool(server, st)
	RegisterSelectTool(server, st)
	RegisterZoomTool(server, st)
	RegisterPanTool(server, st)
	RegisterStateTool(server, st)
}

// resolve picks the node named by a handle or, failing that, a selector.
func (st *SessionTools) resolve(handle, selector string) (dom.Handle, error) {
	if handle != "" {
		return dom.Handle(handle), nil
	}
	if selector == "" {
		return "", errors.New("handle or selector required")
	}
	if st.query == nil {
		return "", errors.New("selectors are not supported by this content source")
	}
	h, err := st.query.Query(selector)
	if err != nil {
		return "", fmt.Errorf("query %q: %w", selector, err)
	}
	return h, nil
}

// errorResult creates an error result with the given message.
func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
	}
}
