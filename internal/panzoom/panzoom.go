// Package panzoom owns the view transform of one editing surface and turns
// drag and wheel input into transform updates.
package panzoom

import (
	"github.com/standardbeagle/domlens/internal/debug"
	"github.com/standardbeagle/domlens/internal/dom"
	"github.com/standardbeagle/domlens/internal/geom"
)

// Button identifies a pointer button, numbered like DOM MouseEvent.button.
type Button int

const (
	ButtonLeft Button = iota
	ButtonMiddle
	ButtonRight
)

// PointerEvent is a pointer event in viewport coordinates.
type PointerEvent struct {
	Button  Button
	ClientX float64
	ClientY float64
}

// Pos returns the pointer position in viewport space.
func (e PointerEvent) Pos() geom.Vec { return geom.Pt(e.ClientX, e.ClientY) }

// WheelEvent is a wheel event in viewport coordinates.
type WheelEvent struct {
	ClientX float64
	ClientY float64
	DeltaY  float64
}

// ViewState is the transform plus drag bookkeeping.
type ViewState struct {
	Transform            geom.Transform  `json:"transform"`
	Dragging             bool            `json:"dragging"`
	DragAnchor           *geom.Vec       `json:"dragAnchor,omitempty"`
	TransformAtDragStart *geom.Transform `json:"transformAtDragStart,omitempty"`
}

// Config configures a Controller.
type Config struct {
	// InitialTransform is the starting view. Default: 0.5x uniform scale.
	InitialTransform *geom.Transform

	// ScaleFactor is the zoom change per wheel notch. Default: 1.1
	ScaleFactor float64

	// PanButton starts a drag. Default: ButtonMiddle. ButtonLeft is reserved
	// for selection and is treated as unset.
	PanButton Button

	// MinScale and MaxScale bound the effective scale reachable by wheel
	// zoom. Steps that would leave the range are dropped.
	// Defaults: 1e-3 and 1e3.
	MinScale float64
	MaxScale float64

	// OnChange is called after every transform change.
	OnChange func(geom.Transform)
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	initial := geom.ScaleUniform(0.5)
	return Config{
		InitialTransform: &initial,
		ScaleFactor:      1.1,
		PanButton:        ButtonMiddle,
		MinScale:         1e-3,
		MaxScale:         1e3,
	}
}

// Controller is the pan/zoom state machine. It is not safe for concurrent
// use; callers serialize events.
type Controller struct {
	cfg       Config
	provider  dom.Provider
	container dom.Handle
	state     ViewState
}

// New creates a Controller measuring the container through p. A nil p or a
// zero container turns wheel zoom into a no-op.
func New(p dom.Provider, container dom.Handle, cfg Config) *Controller {
	def := DefaultConfig()
	if cfg.InitialTransform == nil {
		cfg.InitialTransform = def.InitialTransform
	}
	if cfg.ScaleFactor <= 0 || cfg.ScaleFactor == 1 {
		cfg.ScaleFactor = def.ScaleFactor
	}
	if cfg.PanButton == ButtonLeft {
		cfg.PanButton = def.PanButton
	}
	if cfg.MinScale <= 0 {
		cfg.MinScale = def.MinScale
	}
	if cfg.MaxScale <= cfg.MinScale {
		cfg.MaxScale = def.MaxScale
	}

	initial := *cfg.InitialTransform
	if _, err := geom.Invert(initial); err != nil {
		debug.Warn("panzoom", "initial transform %s is singular, using default", initial)
		initial = *def.InitialTransform
		cfg.InitialTransform = &initial
	}

	return &Controller{
		cfg:       cfg,
		provider:  p,
		container: container,
		state:     ViewState{Transform: initial},
	}
}

// Transform returns the current view transform.
func (c *Controller) Transform() geom.Transform { return c.state.Transform }

// IsDragging reports whether a pan drag is in progress.
func (c *Controller) IsDragging() bool { return c.state.Dragging }

// State returns a copy of the view state.
func (c *Controller) State() ViewState {
	s := c.state
	if s.DragAnchor != nil {
		a := *s.DragAnchor
		s.DragAnchor = &a
	}
	if s.TransformAtDragStart != nil {
		t := *s.TransformAtDragStart
		s.TransformAtDragStart = &t
	}
	return s
}

// ScaleFactor returns the per-notch zoom factor in effect.
func (c *Controller) ScaleFactor() float64 { return c.cfg.ScaleFactor }

// SetContainer replaces the container used for wheel pivots.
func (c *Controller) SetContainer(container dom.Handle) { c.container = container }

// Rebind points the controller at a new provider and container, keeping the
// transform. Used when the content is reloaded.
func (c *Controller) Rebind(p dom.Provider, container dom.Handle) {
	c.endDrag()
	c.provider = p
	c.container = container
}

// PointerDown starts a drag when the pan button is pressed.
func (c *Controller) PointerDown(e PointerEvent) {
	if e.Button != c.cfg.PanButton {
		return
	}
	anchor := e.Pos()
	start := c.state.Transform
	c.state.Dragging = true
	c.state.DragAnchor = &anchor
	c.state.TransformAtDragStart = &start
	debug.Log("panzoom", "drag start at %v", anchor)
}

// PointerMove pans while dragging. The delta is applied after the transform
// captured at drag start, in screen space, so it is never scaled.
func (c *Controller) PointerMove(e PointerEvent) {
	if !c.state.Dragging || c.state.DragAnchor == nil || c.state.TransformAtDragStart == nil {
		return
	}
	delta := e.Pos().Sub(*c.state.DragAnchor)
	c.set(geom.Compose(geom.TranslateVec(delta), *c.state.TransformAtDragStart))
}

// PointerUp ends the drag when the pan button is released.
func (c *Controller) PointerUp(e PointerEvent) {
	if e.Button != c.cfg.PanButton {
		return
	}
	c.endDrag()
}

// PointerLeave ends any drag. Losing the pointer must not leave the view stuck
// in the dragging state.
func (c *Controller) PointerLeave() {
	c.endDrag()
}

func (c *Controller) endDrag() {
	if c.state.Dragging {
		debug.Log("panzoom", "drag end")
	}
	c.state.Dragging = false
	c.state.DragAnchor = nil
	c.state.TransformAtDragStart = nil
}

// Wheel zooms around the cursor. Positive DeltaY zooms out, negative zooms
// in. It reports whether the transform changed; an unmeasurable container,
// a zero delta, or a step leaving [MinScale, MaxScale] leaves it untouched.
func (c *Controller) Wheel(e WheelEvent) bool {
	if e.DeltaY == 0 || c.provider == nil || c.container.IsZero() {
		return false
	}
	box, err := c.provider.BoundingBox(c.container)
	if err != nil {
		debug.Log("panzoom", "wheel ignored: %v", err)
		return false
	}

	factor := c.cfg.ScaleFactor
	if e.DeltaY > 0 {
		factor = 1 / factor
	}

	pivot := geom.Pt(e.ClientX, e.ClientY).Sub(box.Origin())
	next := geom.ZoomAt(c.state.Transform, pivot, factor)

	scale := next.ScaleX()
	if scale < c.cfg.MinScale || scale > c.cfg.MaxScale {
		debug.Log("panzoom", "wheel ignored: scale %g out of range", scale)
		return false
	}
	c.set(next)
	return true
}

// ZoomBy scales around a container-space pivot by factor, bypassing the
// wheel direction mapping. Used by tools that zoom programmatically.
func (c *Controller) ZoomBy(pivot geom.Vec, factor float64) error {
	next := geom.ZoomAt(c.state.Transform, pivot, factor)
	return c.SetTransform(next)
}

// PanBy translates the view by a screen-space delta.
func (c *Controller) PanBy(delta geom.Vec) {
	c.set(geom.Compose(geom.TranslateVec(delta), c.state.Transform))
}

// SetTransform replaces the transform. A singular transform is rejected with
// geom.ErrSingularTransform and the state is left unchanged.
func (c *Controller) SetTransform(t geom.Transform) error {
	if _, err := geom.Invert(t); err != nil {
		return err
	}
	c.set(t)
	return nil
}

// Reset restores the initial transform and ends any drag.
func (c *Controller) Reset() {
	c.endDrag()
	c.set(*c.cfg.InitialTransform)
}

// ScreenToWorld maps a container-space point to world space.
func (c *Controller) ScreenToWorld(p geom.Vec) (geom.Vec, error) {
	inv, err := geom.Invert(c.state.Transform)
	if err != nil {
		return geom.Vec{}, err
	}
	return geom.Apply(inv, p), nil
}

// WorldToScreen maps a world-space point to container space.
func (c *Controller) WorldToScreen(p geom.Vec) geom.Vec {
	return geom.Apply(c.state.Transform, p)
}

func (c *Controller) set(t geom.Transform) {
	c.state.Transform = t
	if c.cfg.OnChange != nil {
		c.cfg.OnChange(t)
	}
}
