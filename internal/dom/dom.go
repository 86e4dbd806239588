// Package dom defines the boundary between the inspector core and whatever
// renders the content being inspected.
//
// The core never touches a live tree directly. It holds opaque handles and
// asks a Provider to measure them, so the same controllers run against a
// parsed HTML document, a live browser page, or a hand-built fixture.
package dom

import (
	"errors"
	"strings"

	"github.com/standardbeagle/domlens/internal/geom"
)

// DefaultIgnoreAttribute marks editor chrome that must not be inspected.
const DefaultIgnoreAttribute = "data-editor-ignore"

var (
	// ErrDetached is returned when a handle no longer resolves to a measurable node.
	ErrDetached = errors.New("dom: node detached")

	// ErrUnknownHandle is returned for handles the provider never issued.
	ErrUnknownHandle = errors.New("dom: unknown handle")
)

// Handle is an opaque reference to a node issued by a Provider.
// The empty handle stands for "no node" (a null event target).
type Handle string

// IsZero reports whether h refers to no node.
func (h Handle) IsZero() bool { return h == "" }

// Attribute is one authored attribute. Name keeps its authored case.
type Attribute struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// Style is the subset of computed style the inspector reports.
type Style struct {
	Display  string `json:"display,omitempty" yaml:"display,omitempty"`
	Position string `json:"position,omitempty" yaml:"position,omitempty"`
}

// Provider measures and describes nodes. Implementations must be safe to call
// with handles that have since been detached: they report ErrDetached instead
// of panicking.
type Provider interface {
	// TagName returns the node's tag name in any case.
	TagName(h Handle) string

	// Attributes returns the node's attributes in declaration order where the
	// provider can observe it.
	Attributes(h Handle) []Attribute

	// ClassName returns the node's class list, already normalized with
	// NormalizeClassName.
	ClassName(h Handle) string

	// TextContent returns the node's full descendant text, untrimmed.
	TextContent(h Handle) string

	// BoundingBox returns the node's rendered box in viewport space. The box
	// already reflects any visual transform applied by the renderer.
	BoundingBox(h Handle) (geom.Rect, error)

	// ScrollOffset returns the node's scroll position.
	ScrollOffset(h Handle) (geom.Vec, error)

	// ComputedStyle returns the node's computed display and position.
	ComputedStyle(h Handle) Style

	// Parent returns the parent element, or the zero handle at the root.
	Parent(h Handle) Handle

	// Children returns the element children in document order.
	Children(h Handle) []Handle
}

// Transformer is implemented by providers that can re-render content under a
// new view transform.
type Transformer interface {
	SetContentTransform(root Handle, t geom.Transform) error
}

// AttributeValue looks up name among attrs.
func AttributeValue(attrs []Attribute, name string) (string, bool) {
	for _, a := range attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// IsChrome reports whether h carries the ignore marker attribute.
func IsChrome(p Provider, h Handle, marker string) bool {
	if h.IsZero() {
		return false
	}
	if marker == "" {
		marker = DefaultIgnoreAttribute
	}
	_, ok := AttributeValue(p.Attributes(h), marker)
	return ok
}

// AnimatedString is the SVG class representation: a wrapper whose base value
// holds the authored class list.
type AnimatedString struct {
	BaseVal string `json:"baseVal"`
	AnimVal string `json:"animVal,omitempty"`
}

// NormalizeClassName folds the class representations a provider may see into
// a single space-joined string. Unknown or absent values yield "".
func NormalizeClassName(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case *string:
		if c == nil {
			return ""
		}
		return *c
	case AnimatedString:
		return c.BaseVal
	case *AnimatedString:
		if c == nil {
			return ""
		}
		return c.BaseVal
	case []string:
		return strings.Join(c, " ")
	case map[string]any:
		if base, ok := c["baseVal"].(string); ok {
			return base
		}
		return ""
	case []any:
		tokens := make([]string, 0, len(c))
		for _, t := range c {
			if s, ok := t.(string); ok {
				tokens = append(tokens, s)
			}
		}
		return strings.Join(tokens, " ")
	default:
		return ""
	}
}
