package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/domlens/internal/geom"
	"github.com/standardbeagle/domlens/internal/session"
)

// ZoomInput scales the view around a screen point.
type ZoomInput struct {
	Factor float64 `json:"factor,omitempty" jsonschema:"Scale multiplier, e.g. 1.1 to zoom in or 0.9 to zoom out"`
	X      float64 `json:"x,omitempty" jsonschema:"Pivot x in viewport coordinates"`
	Y      float64 `json:"y,omitempty" jsonschema:"Pivot y in viewport coordinates"`
	Reset  bool    `json:"reset,omitempty" jsonschema:"Restore the initial transform instead"`
}

// RegisterZoomTool adds domlens_zoom.
func RegisterZoomTool(server *mcp.Server, st *SessionTools) {
	mcp.AddTool(server, &mcp.Tool{
		Name: "domlens_zoom",
		Description: `Zoom the editor view around a viewport point.

The point under the pivot stays fixed. Zooming past the configured scale
limits is rejected.

Examples:
  domlens_zoom {factor: 1.1, x: 400, y: 300}
  domlens_zoom {factor: 0.5}
  domlens_zoom {reset: true}`,
	}, st.handleZoom)
}

func (st *SessionTools) handleZoom(ctx context.Context, req *mcp.CallToolRequest, input ZoomInput) (*mcp.CallToolResult, session.Snapshot, error) {
	if input.Reset {
		st.sess.ResetView()
		return nil, st.sess.Snapshot(), nil
	}
	if input.Factor <= 0 {
		return errorResult("factor must be positive"), session.Snapshot{}, nil
	}
	if err := st.sess.ZoomBy(geom.Pt(input.X, input.Y), input.Factor); err != nil {
		return errorResult(fmt.Sprintf("zoom rejected: %v", err)), session.Snapshot{}, nil
	}
	return nil, st.sess.Snapshot(), nil
}

// PanInput moves the view by a screen-space delta.
type PanInput struct {
	DX float64 `json:"dx" jsonschema:"Horizontal delta in screen pixels"`
	DY float64 `json:"dy" jsonschema:"Vertical delta in screen pixels"`
}

// RegisterPanTool adds domlens_pan.
func RegisterPanTool(server *mcp.Server, st *SessionTools) {
	mcp.AddTool(server, &mcp.Tool{
		Name: "domlens_pan",
		Description: `Pan the editor view by a screen-space delta, independent of zoom.

Example:
  domlens_pan {dx: 50, dy: -20}`,
	}, st.handlePan)
}

func (st *SessionTools) handlePan(ctx context.Context, req *mcp.CallToolRequest, input PanInput) (*mcp.CallToolResult, session.Snapshot, error) {
	st.sess.PanBy(geom.Pt(input.DX, input.DY))
	return nil, st.sess.Snapshot(), nil
}

// StateInput takes no arguments.
type StateInput struct{}

// RegisterStateTool adds domlens_state.
func RegisterStateTool(server *mcp.Server, st *SessionTools) {
	mcp.AddTool(server, &mcp.Tool{
		Name: "domlens_state",
		Description: `Report the editor state: view transform as matrix() and coefficients,
scale, drag state, hovered and selected elements, and the cursor.`,
	}, st.handleState)
}

func (st *SessionTools) handleState(ctx context.Context, req *mcp.CallToolRequest, input StateInput) (*mcp.CallToolResult, session.Snapshot, error) {
	return nil, st.sess.Snapshot(), nil
}
