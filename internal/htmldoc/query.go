package htmldoc

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/net/html"

	"github.com/standardbeagle/domlens/internal/dom"
)

// Query returns the first element, in document order, matching selector.
//
// Supported selectors:
//   - tag: "main", "button"
//   - #id, .class and compounds: "button#save.primary"
//   - [attr] and [attr=val]: "div[data-editor-ignore]"
//   - descendant combinator: "main .card button"
func (d *Document) Query(selector string) (dom.Handle, error) {
	all, err := d.QueryAll(selector)
	if err != nil {
		return "", err
	}
	return all[0], nil
}

// QueryAll returns every element matching selector in document order.
func (d *Document) QueryAll(selector string) ([]dom.Handle, error) {
	parts := strings.Fields(selector)
	if len(parts) == 0 {
		return nil, fmt.Errorf("empty selector")
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	sels := make([]simpleSelector, len(parts))
	for i, p := range parts {
		sels[i] = parseSimpleSelector(p)
	}

	var out []dom.Handle
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && matchesChain(n, sels) {
			out = append(out, d.handles[n])
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(d.root)

	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoMatch, selector)
	}
	return out, nil
}

// matchesChain matches n against the last selector and its ancestors
// against the rest, right to left.
func matchesChain(n *html.Node, sels []simpleSelector) bool {
	last := len(sels) - 1
	if !matchesSelector(n, sels[last]) {
		return false
	}
	i := last - 1
	for p := n.Parent; p != nil && i >= 0; p = p.Parent {
		if matchesSelector(p, sels[i]) {
			i--
		}
	}
	return i < 0
}

type simpleSelector struct {
	tag     string
	id      string
	classes []string
	attrKey string
	attrVal string
	hasVal  bool
}

// parseSimpleSelector parses "tag#id.class[attr=val]" and any subset of it.
func parseSimpleSelector(sel string) simpleSelector {
	var s simpleSelector

	if idx := strings.IndexByte(sel, '['); idx >= 0 {
		attrPart := strings.TrimRight(sel[idx+1:], "]")
		sel = sel[:idx]
		if key, val, ok := strings.Cut(attrPart, "="); ok {
			s.attrKey = key
			s.attrVal = strings.Trim(val, `"'`)
			s.hasVal = true
		} else {
			s.attrKey = attrPart
		}
	}

	// Split the rest at each '#' or '.', keeping the marker.
	start := 0
	for i := 1; i <= len(sel); i++ {
		if i < len(sel) && sel[i] != '#' && sel[i] != '.' {
			continue
		}
		part := sel[start:i]
		start = i
		switch {
		case strings.HasPrefix(part, "#"):
			s.id = part[1:]
		case strings.HasPrefix(part, "."):
			s.classes = append(s.classes, part[1:])
		default:
			s.tag = strings.ToLower(part)
		}
	}
	return s
}

func matchesSelector(n *html.Node, s simpleSelector) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if s.tag != "" && s.tag != "*" && !strings.EqualFold(n.Data, s.tag) {
		return false
	}
	if s.id != "" && getAttr(n, "id") != s.id {
		return false
	}
	if len(s.classes) > 0 {
		have := strings.Fields(getAttr(n, "class"))
		for _, c := range s.classes {
			if !slices.Contains(have, c) {
				return false
			}
		}
	}
	if s.attrKey != "" {
		if !hasAttr(n, s.attrKey) {
			return false
		}
		if s.hasVal && getAttr(n, s.attrKey) != s.attrVal {
			return false
		}
	}
	return true
}
