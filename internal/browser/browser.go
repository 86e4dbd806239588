// Package browser is a dom.Provider over a live page driven through the
// Chrome DevTools protocol with Rod.
//
// Structure (tags, attributes, text, children) comes from a snapshot taken
// with one script evaluation. Geometry is never cached: every BoundingBox
// call measures the element in the page, so the inspector always sees the
// box as currently rendered under the view transform.
package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/standardbeagle/domlens/internal/debug"
	"github.com/standardbeagle/domlens/internal/dom"
	"github.com/standardbeagle/domlens/internal/geom"
)

// ErrNotFound is returned when a selector or point matches no element.
var ErrNotFound = errors.New("browser: element not found")

// Config configures how the browser is reached.
type Config struct {
	// RemoteURL is the DevTools WebSocket URL of a running Chrome.
	// Empty = launch a local Chrome via launcher.
	RemoteURL string

	Headless bool

	// Timeout bounds navigation. Default: 30s.
	Timeout time.Duration
}

// evalFunc evaluates a page function with args and returns its JSON result.
type evalFunc func(js string, args ...any) ([]byte, error)

type node struct {
	Handle    dom.Handle      `json:"handle"`
	Parent    dom.Handle      `json:"parent"`
	Tag       string          `json:"tag"`
	Attrs     []dom.Attribute `json:"attrs"`
	ClassName any             `json:"className"`
	Text      string          `json:"text"`
	Style     dom.Style       `json:"style"`
	Children  []dom.Handle    `json:"children"`
}

type measurement struct {
	Left       float64 `json:"left"`
	Top        float64 `json:"top"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	ScrollLeft float64 `json:"scrollLeft"`
	ScrollTop  float64 `json:"scrollTop"`
}

// Page is an open page. Provider methods are safe for concurrent use.
type Page struct {
	eval evalFunc

	mu    sync.RWMutex
	nodes map[dom.Handle]*node
	root  dom.Handle

	page     *rod.Page
	browser  *rod.Browser
	launcher *launcher.Launcher
}

var (
	_ dom.Provider    = (*Page)(nil)
	_ dom.Transformer = (*Page)(nil)
)

// Open launches or connects to Chrome, navigates to url and takes the first
// snapshot.
func Open(ctx context.Context, cfg Config, url string) (*Page, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	var l *launcher.Launcher
	wsURL := cfg.RemoteURL
	if wsURL == "" {
		l = launcher.New().Headless(cfg.Headless)
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("browser: launch: %w", err)
		}
		wsURL = u
		debug.Log("browser", "launched local chrome at %s", wsURL)
	} else {
		debug.Log("browser", "connecting to remote %s", wsURL)
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		if l != nil {
			l.Kill()
		}
		return nil, fmt.Errorf("browser: connect: %w", err)
	}

	page, err := b.Page(proto.TargetCreateTarget{URL: ""})
	if err != nil {
		closeQuietly(b, l)
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}

	navCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := page.Context(navCtx).Navigate(url); err != nil {
		closeQuietly(b, l)
		return nil, fmt.Errorf("browser: navigate %s: %w", url, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		closeQuietly(b, l)
		return nil, fmt.Errorf("browser: wait load %s: %w", url, err)
	}

	p := newPage(func(js string, args ...any) ([]byte, error) {
		res, err := page.Context(ctx).Eval(js, args...)
		if err != nil {
			return nil, err
		}
		return res.Value.MarshalJSON()
	})
	p.page = page
	p.browser = b
	p.launcher = l

	if err := p.Snapshot(); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

func newPage(eval evalFunc) *Page {
	return &Page{eval: eval, nodes: make(map[dom.Handle]*node)}
}

func closeQuietly(b *rod.Browser, l *launcher.Launcher) {
	if err := b.Close(); err != nil {
		debug.Log("browser", "close: %v", err)
	}
	if l != nil {
		l.Kill()
	}
}

// Close closes the tab and the browser, and kills Chrome if it was launched.
func (p *Page) Close() {
	if p.page != nil {
		if err := p.page.Close(); err != nil {
			debug.Log("browser", "close page: %v", err)
		}
	}
	if p.browser != nil {
		closeQuietly(p.browser, p.launcher)
	}
}

// Snapshot re-reads the page structure. Handles of elements that survive
// are kept; elements removed since the last snapshot are forgotten.
func (p *Page) Snapshot() error {
	raw, err := p.eval(scripts().snapshot)
	if err != nil {
		return fmt.Errorf("browser: snapshot: %w", err)
	}
	nodes, err := decodeSnapshot(raw)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.nodes = make(map[dom.Handle]*node, len(nodes))
	p.root = ""
	for _, n := range nodes {
		if p.root.IsZero() {
			p.root = n.Handle
		}
		p.nodes[n.Handle] = n
	}
	debug.Log("browser", "snapshot: %d elements", len(nodes))
	return nil
}

func decodeSnapshot(raw []byte) ([]*node, error) {
	var nodes []*node
	if err := json.Unmarshal(raw, &nodes); err != nil {
		return nil, fmt.Errorf("browser: decode snapshot: %w", err)
	}
	return nodes, nil
}

// Root returns the documentElement handle.
func (p *Page) Root() dom.Handle {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.root
}

// Query returns the handle of the first element matching a CSS selector.
// The element must have been seen by a snapshot.
func (p *Page) Query(selector string) (dom.Handle, error) {
	raw, err := p.eval(scripts().query, selector)
	if err != nil {
		return "", fmt.Errorf("browser: query %q: %w", selector, err)
	}
	var h *string
	if err := json.Unmarshal(raw, &h); err != nil {
		return "", fmt.Errorf("browser: decode query: %w", err)
	}
	if h == nil || *h == "" {
		return "", fmt.Errorf("%w: %q", ErrNotFound, selector)
	}
	return dom.Handle(*h), nil
}

// ElementFromPoint returns the tagged element the browser paints at the
// viewport point (x, y).
func (p *Page) ElementFromPoint(x, y float64) (dom.Handle, error) {
	raw, err := p.eval(scripts().fromPoint, x, y)
	if err != nil {
		return "", fmt.Errorf("browser: element from point: %w", err)
	}
	var h string
	if err := json.Unmarshal(raw, &h); err != nil {
		return "", fmt.Errorf("browser: decode element: %w", err)
	}
	if h == "" {
		return "", ErrNotFound
	}
	return dom.Handle(h), nil
}

func (p *Page) get(h dom.Handle) (*node, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	n, ok := p.nodes[h]
	return n, ok
}

func (p *Page) TagName(h dom.Handle) string {
	if n, ok := p.get(h); ok {
		return n.Tag
	}
	return ""
}

func (p *Page) Attributes(h dom.Handle) []dom.Attribute {
	if n, ok := p.get(h); ok {
		return append([]dom.Attribute(nil), n.Attrs...)
	}
	return nil
}

func (p *Page) ClassName(h dom.Handle) string {
	if n, ok := p.get(h); ok {
		return dom.NormalizeClassName(n.ClassName)
	}
	return ""
}

func (p *Page) TextContent(h dom.Handle) string {
	if n, ok := p.get(h); ok {
		return n.Text
	}
	return ""
}

func (p *Page) ComputedStyle(h dom.Handle) dom.Style {
	if n, ok := p.get(h); ok {
		return n.Style
	}
	return dom.Style{}
}

func (p *Page) Parent(h dom.Handle) dom.Handle {
	if n, ok := p.get(h); ok {
		return n.Parent
	}
	return ""
}

func (p *Page) Children(h dom.Handle) []dom.Handle {
	if n, ok := p.get(h); ok {
		return append([]dom.Handle(nil), n.Children...)
	}
	return nil
}

// measure evaluates the element's current box in the page.
func (p *Page) measure(h dom.Handle) (measurement, error) {
	if _, ok := p.get(h); !ok {
		return measurement{}, dom.ErrUnknownHandle
	}
	raw, err := p.eval(scripts().measure, string(h))
	if err != nil {
		return measurement{}, fmt.Errorf("browser: measure %q: %w", h, err)
	}
	var m *measurement
	if err := json.Unmarshal(raw, &m); err != nil {
		return measurement{}, fmt.Errorf("browser: decode measurement: %w", err)
	}
	if m == nil {
		return measurement{}, dom.ErrDetached
	}
	return *m, nil
}

func (p *Page) BoundingBox(h dom.Handle) (geom.Rect, error) {
	m, err := p.measure(h)
	if err != nil {
		return geom.Rect{}, err
	}
	return geom.R(m.Left, m.Top, m.Width, m.Height), nil
}

func (p *Page) ScrollOffset(h dom.Handle) (geom.Vec, error) {
	m, err := p.measure(h)
	if err != nil {
		return geom.Vec{}, err
	}
	return geom.Pt(m.ScrollLeft, m.ScrollTop), nil
}

// SetContentTransform sets root's CSS transform, origin top left.
func (p *Page) SetContentTransform(root dom.Handle, t geom.Transform) error {
	raw, err := p.eval(scripts().applyTransform, string(root), t.CSS())
	if err != nil {
		return fmt.Errorf("browser: apply transform: %w", err)
	}
	var ok bool
	if err := json.Unmarshal(raw, &ok); err != nil {
		return fmt.Errorf("browser: decode transform result: %w", err)
	}
	if !ok {
		return fmt.Errorf("content root %q: %w", root, dom.ErrDetached)
	}
	return nil
}
