// Package inspect turns a live node into a normalized, immutable Descriptor
// measured in container space.
package inspect

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode/utf16"

	"github.com/standardbeagle/domlens/internal/dom"
	"github.com/standardbeagle/domlens/internal/geom"
)

// DefaultTextLimit caps TextContent, counted in UTF-16 code units.
const DefaultTextLimit = 100

// ErrContainerUnavailable is returned alongside a best-effort descriptor when
// the container cannot be measured (missing, detached, or mid-unmount).
var ErrContainerUnavailable = errors.New("inspect: container unavailable")

// clickableTags get a pointer cursor in the editor.
var clickableTags = []string{"a", "button", "input", "select", "textarea", "label"}

// Summary is the lightweight per-ancestor record used for breadcrumbs.
type Summary struct {
	TagName   string    `json:"tagName" yaml:"tagName"`
	ID        string    `json:"id" yaml:"id"`
	ClassName string    `json:"className" yaml:"className"`
	Geometry  geom.Rect `json:"geometry" yaml:"geometry"`
}

// Descriptor is a snapshot of one node at one point in time. A new descriptor
// is produced for every hover, click, and recalculation; existing ones are
// never mutated.
type Descriptor struct {
	TagName     string          `json:"tagName" yaml:"tagName"`
	ID          string          `json:"id" yaml:"id"`
	ClassName   string          `json:"className" yaml:"className"`
	TextContent string          `json:"textContent" yaml:"textContent"`
	Attributes  []dom.Attribute `json:"attributes" yaml:"attributes"`
	Geometry    geom.Rect       `json:"geometry" yaml:"geometry"`
	Style       dom.Style       `json:"style" yaml:"style"`
	Selector    string          `json:"selector,omitempty" yaml:"selector,omitempty"`
	Ancestors   []Summary       `json:"ancestors,omitempty" yaml:"ancestors,omitempty"`

	// Handle is the node the descriptor was measured from. Empty for
	// descriptors synthesized from a tree node without a handle.
	Handle dom.Handle `json:"handle,omitempty" yaml:"handle,omitempty"`
}

// AttributeMap returns the attributes keyed by name.
func (d *Descriptor) AttributeMap() map[string]string {
	m := make(map[string]string, len(d.Attributes))
	for _, a := range d.Attributes {
		m[a.Name] = a.Value
	}
	return m
}

// Clickable reports whether the node is a natively interactive element.
func (d *Descriptor) Clickable() bool {
	return d != nil && slices.Contains(clickableTags, d.TagName)
}

// Options configures an Inspector.
type Options struct {
	// IgnoreAttribute marks chrome nodes. Default: dom.DefaultIgnoreAttribute.
	IgnoreAttribute string

	// TextLimit caps TextContent. Default: DefaultTextLimit.
	TextLimit int

	// Ancestors fills Descriptor.Ancestors.
	Ancestors bool

	// Selector fills Descriptor.Selector.
	Selector bool
}

// Inspector describes nodes through a dom.Provider.
type Inspector struct {
	p    dom.Provider
	opts Options
}

// New creates an Inspector.
func New(p dom.Provider, opts Options) *Inspector {
	if opts.IgnoreAttribute == "" {
		opts.IgnoreAttribute = dom.DefaultIgnoreAttribute
	}
	if opts.TextLimit <= 0 {
		opts.TextLimit = DefaultTextLimit
	}
	return &Inspector{p: p, opts: opts}
}

// Provider returns the provider the inspector measures through.
func (in *Inspector) Provider() dom.Provider { return in.p }

// IgnoreAttribute returns the chrome marker in effect.
func (in *Inspector) IgnoreAttribute() string { return in.opts.IgnoreAttribute }

// IsChrome reports whether h is editor chrome.
func (in *Inspector) IsChrome(h dom.Handle) bool {
	return dom.IsChrome(in.p, h, in.opts.IgnoreAttribute)
}

// ContainerAvailable reports whether container can currently be measured.
func (in *Inspector) ContainerAvailable(container dom.Handle) bool {
	if container.IsZero() {
		return false
	}
	_, err := in.p.BoundingBox(container)
	return err == nil
}

// Describe measures node relative to container.
//
// A zero or chrome node yields (nil, nil). When the container cannot be
// measured the descriptor is still returned, with zero geometry, together with
// ErrContainerUnavailable. A detached node yields zero geometry and no error.
func (in *Inspector) Describe(node, container dom.Handle) (*Descriptor, error) {
	if node.IsZero() || in.IsChrome(node) {
		return nil, nil
	}

	attrs := in.p.Attributes(node)
	id, _ := dom.AttributeValue(attrs, "id")

	d := &Descriptor{
		TagName:     strings.ToLower(in.p.TagName(node)),
		ID:          id,
		ClassName:   in.p.ClassName(node),
		TextContent: truncateUTF16(strings.TrimSpace(in.p.TextContent(node)), in.opts.TextLimit),
		Attributes:  attrs,
		Style:       in.p.ComputedStyle(node),
		Handle:      node,
	}
	if d.Attributes == nil {
		d.Attributes = []dom.Attribute{}
	}
	if in.opts.Selector {
		d.Selector = Selector(in.p, node)
	}

	origin, err := in.containerOrigin(container)
	if err != nil {
		return d, err
	}

	d.Geometry = in.measure(node, origin)
	if in.opts.Ancestors {
		d.Ancestors = in.ancestors(node, container, origin)
	}
	return d, nil
}

// Measure returns node's geometry in container space.
func (in *Inspector) Measure(node, container dom.Handle) (geom.Rect, error) {
	origin, err := in.containerOrigin(container)
	if err != nil {
		return geom.Rect{}, err
	}
	return in.measure(node, origin), nil
}

// containerOrigin returns the vector that converts viewport positions to
// container positions: scroll offset minus the container's viewport origin.
func (in *Inspector) containerOrigin(container dom.Handle) (geom.Vec, error) {
	if container.IsZero() {
		return geom.Vec{}, ErrContainerUnavailable
	}
	box, err := in.p.BoundingBox(container)
	if err != nil {
		return geom.Vec{}, fmt.Errorf("%w: %v", ErrContainerUnavailable, err)
	}
	scroll, err := in.p.ScrollOffset(container)
	if err != nil {
		return geom.Vec{}, fmt.Errorf("%w: %v", ErrContainerUnavailable, err)
	}
	return scroll.Sub(box.Origin()), nil
}

func (in *Inspector) measure(node dom.Handle, origin geom.Vec) geom.Rect {
	box, err := in.p.BoundingBox(node)
	if err != nil {
		return geom.Rect{}
	}
	return box.Offset(origin)
}

// ancestors walks parents from node up to, not including, container.
func (in *Inspector) ancestors(node, container dom.Handle, origin geom.Vec) []Summary {
	var chain []Summary
	for cur := in.p.Parent(node); !cur.IsZero() && cur != container; cur = in.p.Parent(cur) {
		attrs := in.p.Attributes(cur)
		id, _ := dom.AttributeValue(attrs, "id")
		chain = append(chain, Summary{
			TagName:   strings.ToLower(in.p.TagName(cur)),
			ID:        id,
			ClassName: in.p.ClassName(cur),
			Geometry:  in.measure(cur, origin),
		})
	}
	return chain
}

// truncateUTF16 cuts s to at most limit UTF-16 code units. A surrogate pair
// split by the cut loses its dangling half.
func truncateUTF16(s string, limit int) string {
	units := utf16.Encode([]rune(s))
	if len(units) <= limit {
		return s
	}
	units = units[:limit]
	if u := units[limit-1]; u >= 0xd800 && u < 0xdc00 {
		units = units[:limit-1]
	}
	return string(utf16.Decode(units))
}

// Selector builds a CSS selector path for h: "#id" when the node has an id,
// otherwise a "tag:nth-of-type(n)" chain from the root.
func Selector(p dom.Provider, h dom.Handle) string {
	var path []string
	for cur := h; !cur.IsZero(); cur = p.Parent(cur) {
		if id, ok := dom.AttributeValue(p.Attributes(cur), "id"); ok && id != "" {
			path = append(path, "#"+id)
			break
		}
		tag := strings.ToLower(p.TagName(cur))
		seg := tag

		if parent := p.Parent(cur); !parent.IsZero() {
			index, same := 0, 0
			for _, sib := range p.Children(parent) {
				if strings.ToLower(p.TagName(sib)) != tag {
					continue
				}
				same++
				if sib == cur {
					index = same
				}
			}
			if same > 1 {
				seg = fmt.Sprintf("%s:nth-of-type(%d)", tag, index)
			}
		}
		path = append(path, seg)
	}
	slices.Reverse(path)
	return strings.Join(path, " > ")
}
