// Package session wires a content provider, a pan/zoom controller and a
// selection controller into one editing surface.
//
// The controllers underneath are single-threaded. Session serializes every
// event behind one mutex so transports that run a goroutine per connection
// still deliver events one at a time, in order.
package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/standardbeagle/domlens/internal/debug"
	"github.com/standardbeagle/domlens/internal/dom"
	"github.com/standardbeagle/domlens/internal/geom"
	"github.com/standardbeagle/domlens/internal/hittest"
	"github.com/standardbeagle/domlens/internal/inspect"
	"github.com/standardbeagle/domlens/internal/panzoom"
	"github.com/standardbeagle/domlens/internal/selection"
	"github.com/standardbeagle/domlens/internal/tree"
)

// Cursor hints for the surface.
const (
	CursorDefault  = "default"
	CursorPointer  = "pointer"
	CursorGrabbing = "grabbing"
)

// ErrNodeNotFound is returned when a tree identity matches no node.
var ErrNodeNotFound = errors.New("session: node not found")

// Snapshot is what panels render: the view transform, drag state, current
// hover and selection, and a cursor hint. Seq increases with every event;
// a panel holding a higher Seq can drop the snapshot.
type Snapshot struct {
	ID        string              `json:"id" yaml:"id"`
	Seq       uint64              `json:"seq" yaml:"seq"`
	Transform string              `json:"transform" yaml:"transform"`
	Matrix    [6]float64          `json:"matrix" yaml:"matrix"`
	Scale     float64             `json:"scale" yaml:"scale"`
	Dragging  bool                `json:"dragging" yaml:"dragging"`
	Hovered   *inspect.Descriptor `json:"hovered" yaml:"hovered"`
	Selected  *inspect.Descriptor `json:"selected" yaml:"selected"`
	Cursor    string              `json:"cursor" yaml:"cursor"`
}

// Content identifies what a session edits.
type Content struct {
	Provider dom.Provider

	// Root is the content root: the node the view transform is applied to
	// and the tree is built from.
	Root dom.Handle

	// Container is the scrollable element that defines container space.
	Container dom.Handle
}

// Options configures a Session.
type Options struct {
	Inspect inspect.Options

	// View configures pan/zoom. View.OnChange runs after the event that
	// changed the transform, outside the session lock.
	View     panzoom.Config
	MaxDepth int
}

// Session is one editing surface. All methods are safe for concurrent use.
type Session struct {
	id string

	mu       sync.Mutex
	content  Content
	opts     Options
	in       *inspect.Inspector
	pan      *panzoom.Controller
	sel      *selection.Controller
	hit      *hittest.Resolver
	onSelect func(*inspect.Descriptor)
	seq      uint64
	pending  []func()

	subsMu  sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int

	// pubMu serializes deliveries; published is the last Seq delivered.
	pubMu     sync.Mutex
	published uint64
}

// New creates a session over content and pushes the initial transform to the
// renderer.
func New(content Content, opts Options) (*Session, error) {
	if content.Provider == nil {
		return nil, fmt.Errorf("session: provider is required")
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = tree.DefaultMaxDepth
	}

	s := &Session{
		id:   uuid.NewString(),
		opts: opts,
		subs: make(map[int]func(Snapshot)),
	}

	view := opts.View
	userChange := view.OnChange
	view.OnChange = func(t geom.Transform) {
		s.transformChanged(t)
		if userChange != nil {
			s.pending = append(s.pending, func() { userChange(t) })
		}
	}
	s.opts.View = view

	s.bind(content)
	s.pan = panzoom.New(content.Provider, content.Container, view)
	if err := s.pushTransform(s.pan.Transform()); err != nil {
		return nil, err
	}
	debug.Log("session", "session %s created (root=%q container=%q)", s.id, content.Root, content.Container)
	return s, nil
}

// bind sets up the inspector-side collaborators for content.
func (s *Session) bind(content Content) {
	s.content = content
	s.in = inspect.New(content.Provider, s.opts.Inspect)
	s.hit = hittest.New(s.in, s.opts.MaxDepth)
	s.sel = selection.New(s.in, content.Container)
	s.sel.OnSelect = func(d *inspect.Descriptor) {
		if fn := s.onSelect; fn != nil {
			s.pending = append(s.pending, func() { fn(d) })
		}
	}
}

// ID returns the session's unique id.
func (s *Session) ID() string { return s.id }

// OnSelect sets the callback invoked on every click or tree selection. It
// runs after the event completes, outside the session lock, so it may call
// back into the session.
func (s *Session) OnSelect(fn func(*inspect.Descriptor)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSelect = fn
}

// transformChanged runs inside an event, with mu held.
func (s *Session) transformChanged(t geom.Transform) {
	if err := s.pushTransform(t); err != nil {
		debug.Warn("session", "apply transform: %v", err)
	}
	s.sel.Recalculate()
}

// pushTransform hands t to the renderer when the provider can re-render.
func (s *Session) pushTransform(t geom.Transform) error {
	tr, ok := s.content.Provider.(dom.Transformer)
	if !ok || s.content.Root.IsZero() {
		return nil
	}
	if err := tr.SetContentTransform(s.content.Root, t); err != nil {
		return fmt.Errorf("set content transform: %w", err)
	}
	return nil
}

// update runs fn under the lock, then runs the callbacks fn queued and
// notifies subscribers.
func (s *Session) update(fn func()) {
	s.mu.Lock()
	fn()
	s.seq++
	snap := s.snapshotLocked()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, cb := range pending {
		cb()
	}
	s.publish(snap)
}

// PointerDown routes a button press to pan/zoom.
func (s *Session) PointerDown(e panzoom.PointerEvent) {
	s.update(func() { s.pan.PointerDown(e) })
}

// PointerMove routes a move to pan/zoom and, unless a pan is in progress, to
// selection with target as the hovered node.
func (s *Session) PointerMove(e panzoom.PointerEvent, target dom.Handle) {
	s.update(func() {
		s.pan.PointerMove(e)
		if !s.pan.IsDragging() {
			s.sel.OnPointerMove(target)
		}
	})
}

// PointerUp routes a button release to pan/zoom.
func (s *Session) PointerUp(e panzoom.PointerEvent) {
	s.update(func() { s.pan.PointerUp(e) })
}

// PointerLeave ends any drag and clears the hover.
func (s *Session) PointerLeave() {
	s.update(func() {
		s.pan.PointerLeave()
		s.sel.OnPointerLeave()
	})
}

// Wheel zooms around the cursor.
func (s *Session) Wheel(e panzoom.WheelEvent) {
	s.update(func() { s.pan.Wheel(e) })
}

// Click selects target.
func (s *Session) Click(target dom.Handle) {
	s.update(func() { s.sel.OnClick(target) })
}

// TargetAt resolves a viewport point to the node under it, for transports
// that only report coordinates.
func (s *Session) TargetAt(clientX, clientY float64) dom.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hit.Resolve(s.content.Root, geom.Pt(clientX, clientY))
}

// ContainerOrigin returns the container's viewport position, or the zero
// vector when it cannot be measured.
func (s *Session) ContainerOrigin() geom.Vec {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.content.Container.IsZero() {
		return geom.Vec{}
	}
	box, err := s.content.Provider.BoundingBox(s.content.Container)
	if err != nil {
		return geom.Vec{}
	}
	return box.Origin()
}

// SetTransform replaces the view transform.
func (s *Session) SetTransform(t geom.Transform) error {
	var err error
	s.update(func() { err = s.pan.SetTransform(t) })
	return err
}

// ZoomBy zooms by factor around a container-space pivot.
func (s *Session) ZoomBy(pivot geom.Vec, factor float64) error {
	var err error
	s.update(func() { err = s.pan.ZoomBy(pivot, factor) })
	return err
}

// PanBy pans by a screen-space delta.
func (s *Session) PanBy(delta geom.Vec) {
	s.update(func() { s.pan.PanBy(delta) })
}

// ResetView restores the initial transform.
func (s *Session) ResetView() {
	s.update(func() { s.pan.Reset() })
}

// Inspect describes h without touching the selection.
func (s *Session) Inspect(h dom.Handle) (*inspect.Descriptor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.in.Describe(h, s.content.Container)
}

// Tree builds a fresh tree of the content root.
func (s *Session) Tree() *tree.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return tree.Build(s.in, s.content.Root, s.content.Container, s.opts.MaxDepth)
}

// SelectIdentity selects the tree node matching id.
func (s *Session) SelectIdentity(id tree.Identity) (*inspect.Descriptor, error) {
	var (
		sel *inspect.Descriptor
		err error
	)
	s.update(func() {
		root := tree.Build(s.in, s.content.Root, s.content.Container, s.opts.MaxDepth)
		n := root.Find(id)
		if n == nil {
			err = fmt.Errorf("%w: %s.%s at (%g, %g)", ErrNodeNotFound, id.TagName, id.ClassName, id.Left, id.Top)
			return
		}
		s.sel.SelectTreeNode(n)
		sel = s.sel.Selected()
	})
	return sel, err
}

// ClearSelection drops hover and selection.
func (s *Session) ClearSelection() {
	s.update(func() { s.sel.Clear() })
}

// Reload swaps in new content, for example after the source file changed.
// The view transform is kept; hover and selection are dropped because their
// refs belong to the old content.
func (s *Session) Reload(content Content) error {
	if content.Provider == nil {
		return fmt.Errorf("session: provider is required")
	}
	var err error
	s.update(func() {
		s.bind(content)
		s.pan.Rebind(content.Provider, content.Container)
		err = s.pushTransform(s.pan.Transform())
	})
	debug.Log("session", "session %s reloaded", s.id)
	return err
}

// Snapshot returns the current panel state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	t := s.pan.Transform()
	st := s.sel.State()

	cursor := CursorDefault
	switch {
	case s.pan.IsDragging():
		cursor = CursorGrabbing
	case st.Hovered.Clickable():
		cursor = CursorPointer
	}

	return Snapshot{
		ID:        s.id,
		Seq:       s.seq,
		Transform: t.CSS(),
		Matrix:    t.Coefficients(),
		Scale:     t.ScaleX(),
		Dragging:  s.pan.IsDragging(),
		Hovered:   st.Hovered,
		Selected:  st.Selected,
		Cursor:    cursor,
	}
}

// Subscribe registers fn to receive a snapshot after every event. The
// returned function unsubscribes. fn runs on the caller's goroutine, outside
// the session lock, and must not block. Deliveries never overlap and arrive
// in event order; a snapshot older than one already delivered is dropped.
// fn may read the session but must not send it events.
func (s *Session) Subscribe(fn func(Snapshot)) (cancel func()) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Session) publish(snap Snapshot) {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	if snap.Seq <= s.published {
		return
	}
	s.published = snap.Seq

	s.subsMu.Lock()
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subsMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
