package render

import (
	"image"
	"math"

	"gioui.org/f32"
	"gioui.org/io/event"
	"gioui.org/io/pointer"
	"gioui.org/layout"
	"gioui.org/op/clip"
	"gioui.org/op/paint"

	"github.com/standardbeagle/domlens/internal/geom"
	"github.com/standardbeagle/domlens/internal/panzoom"
	"github.com/standardbeagle/domlens/internal/session"
)

// clickSlop is how far a primary press may travel and still count as a click.
const clickSlop = 4

// Viewer draws a session's element outlines and highlights and feeds pointer
// input from its area back into the session. The area stands in for the
// container: its top-left corner is the container's viewport origin.
type Viewer struct {
	sess  *session.Session
	style Style

	pressed  pointer.Buttons
	clicking bool
	pressAt  geom.Vec
}

// NewViewer returns a Viewer for sess.
func NewViewer(sess *session.Session, st Style) *Viewer {
	return &Viewer{sess: sess, style: st}
}

// Layout handles queued pointer events, then paints the current snapshot.
func (v *Viewer) Layout(gtx layout.Context) layout.Dimensions {
	for {
		ev, ok := gtx.Event(pointer.Filter{
			Target:  v,
			Kinds:   pointer.Press | pointer.Release | pointer.Move | pointer.Drag | pointer.Leave | pointer.Cancel | pointer.Scroll,
			ScrollY: pointer.ScrollRange{Min: math.MinInt32, Max: math.MaxInt32},
		})
		if !ok {
			break
		}
		if e, ok := ev.(pointer.Event); ok {
			v.handle(e)
		}
	}

	size := gtx.Constraints.Max
	defer clip.Rect(image.Rectangle{Max: size}).Push(gtx.Ops).Pop()
	paint.Fill(gtx.Ops, v.style.Background)
	event.Op(gtx.Ops, v)

	snap := v.sess.Snapshot()
	Grid(gtx.Ops, geom.FromCoefficients(snap.Matrix), size, v.style.GridSpacing, v.style.Grid)
	Paint(gtx.Ops, Outlines(v.sess.Tree()), v.style)
	Paint(gtx.Ops, Highlights(snap), v.style)
	cursor(snap.Cursor).Add(gtx.Ops)

	return layout.Dimensions{Size: size}
}

// handle translates one Gio pointer event into session events.
func (v *Viewer) handle(e pointer.Event) {
	pos := v.client(e.Position)
	pe := panzoom.PointerEvent{ClientX: pos.X, ClientY: pos.Y}

	switch e.Kind {
	case pointer.Press:
		pressed := e.Buttons &^ v.pressed
		v.pressed |= e.Buttons
		pe.Button = button(pressed)
		if pe.Button == panzoom.ButtonLeft {
			v.clicking = true
			v.pressAt = pos
		}
		v.sess.PointerDown(pe)

	case pointer.Move, pointer.Drag:
		if v.clicking && math.Hypot(pos.X-v.pressAt.X, pos.Y-v.pressAt.Y) > clickSlop {
			v.clicking = false
		}
		v.sess.PointerMove(pe, v.sess.TargetAt(pos.X, pos.Y))

	case pointer.Release:
		// Platforms report either the buttons still held or the one released.
		released := v.pressed &^ e.Buttons
		if released == 0 {
			released = e.Buttons
		}
		v.pressed &^= released
		pe.Button = button(released)
		v.sess.PointerUp(pe)
		if pe.Button == panzoom.ButtonLeft {
			if v.clicking {
				v.sess.Click(v.sess.TargetAt(pos.X, pos.Y))
			}
			v.clicking = false
		}

	case pointer.Leave, pointer.Cancel:
		v.pressed = 0
		v.clicking = false
		v.sess.PointerLeave()

	case pointer.Scroll:
		v.sess.Wheel(panzoom.WheelEvent{ClientX: pos.X, ClientY: pos.Y, DeltaY: float64(e.Scroll.Y)})
	}
}

// client converts an area position to viewport coordinates.
func (v *Viewer) client(p f32.Point) geom.Vec {
	return v.sess.ContainerOrigin().Add(geom.Pt(float64(p.X), float64(p.Y)))
}

func button(b pointer.Buttons) panzoom.Button {
	switch {
	case b.Contain(pointer.ButtonTertiary):
		return panzoom.ButtonMiddle
	case b.Contain(pointer.ButtonSecondary):
		return panzoom.ButtonRight
	default:
		return panzoom.ButtonLeft
	}
}

func cursor(hint string) pointer.Cursor {
	switch hint {
	case session.CursorGrabbing:
		return pointer.CursorGrab
	case session.CursorPointer:
		return pointer.CursorPointer
	default:
		return pointer.CursorDefault
	}
}
