package htmldoc

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/standardbeagle/domlens/internal/dom"
	"github.com/standardbeagle/domlens/internal/geom"
)

// viewportBox computes h's rendered box. Callers hold mu.
func (d *Document) viewportBox(h dom.Handle, n *html.Node) geom.Rect {
	if r, ok := d.boxes[h]; ok {
		return r
	}

	box := layoutBox(n)
	if root, ok := d.nodes[d.contentRoot]; ok && isInclusiveAncestor(root, n) {
		origin := layoutBox(root).Origin()
		box = box.Offset(origin.Neg()).Map(d.transform).Offset(origin)
	}

	// Scrolled ancestors shift everything inside them.
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type != html.ElementNode {
			continue
		}
		if s, ok := d.scroll[d.handles[p]]; ok {
			box = box.Offset(s.Neg())
		}
	}
	return box
}

// layoutBox is n's untransformed box: inline left/top offset from the
// parent's box, inline width/height as size.
func layoutBox(n *html.Node) geom.Rect {
	var origin geom.Vec
	if p := n.Parent; p != nil && p.Type == html.ElementNode {
		origin = layoutBox(p).Origin()
	}
	style := parseStyle(getAttr(n, "style"))
	return geom.R(
		origin.X+parsePx(style["left"]),
		origin.Y+parsePx(style["top"]),
		parsePx(style["width"]),
		parsePx(style["height"]),
	)
}

func isInclusiveAncestor(a, n *html.Node) bool {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur == a {
			return true
		}
	}
	return false
}

// parseStyle splits an inline style attribute into lowercased properties.
func parseStyle(s string) map[string]string {
	props := make(map[string]string)
	for _, decl := range strings.Split(s, ";") {
		name, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		name = strings.ToLower(strings.TrimSpace(name))
		value = strings.TrimSpace(value)
		if name != "" {
			props[name] = value
		}
	}
	return props
}

// parsePx reads "12px" or "12". Other units read as 0.
func parsePx(v string) float64 {
	v = strings.TrimSuffix(strings.TrimSpace(v), "px")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return f
}

func computedStyle(n *html.Node) dom.Style {
	style := parseStyle(getAttr(n, "style"))
	s := dom.Style{Display: style["display"], Position: style["position"]}
	if s.Display == "" {
		s.Display = defaultDisplay(n)
	}
	if s.Position == "" {
		s.Position = "static"
	}
	return s
}

// defaultDisplay is the user-agent display value for n.
func defaultDisplay(n *html.Node) string {
	switch n.DataAtom {
	case atom.Head, atom.Script, atom.Style, atom.Template, atom.Title, atom.Meta, atom.Link:
		return "none"
	case atom.Html, atom.Body, atom.Div, atom.P, atom.Section, atom.Main, atom.Article,
		atom.Aside, atom.Header, atom.Footer, atom.Nav, atom.Ul, atom.Ol, atom.Form,
		atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6, atom.Pre, atom.Blockquote,
		atom.Figure, atom.Fieldset, atom.Hr, atom.Dl, atom.Dd, atom.Dt:
		return "block"
	case atom.Li:
		return "list-item"
	case atom.Table:
		return "table"
	case atom.Tr:
		return "table-row"
	case atom.Td, atom.Th:
		return "table-cell"
	case atom.Button, atom.Input, atom.Select, atom.Textarea, atom.Img:
		return "inline-block"
	}
	return "inline"
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key && a.Namespace == "" {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}
