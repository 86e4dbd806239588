package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/standardbeagle/domlens/internal/inspect"
	"github.com/standardbeagle/domlens/internal/tree"
)

// writeOutput prints v in the --format chosen. text falls back to JSON for
// values without a text form.
func writeOutput(cmd *cobra.Command, v any) error {
	format, _ := cmd.Flags().GetString("format")
	out := cmd.OutOrStdout()

	switch format {
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case "text":
		switch v := v.(type) {
		case *tree.Node:
			return writeTreeText(out, v)
		case *inspect.Descriptor:
			return writeDescriptorText(out, v)
		}
		return writeJSON(out, v)
	case "json", "":
		return writeJSON(out, v)
	default:
		return fmt.Errorf("unknown format %q (use json, yaml or text)", format)
	}
}

// writeJSON indents when writing to a terminal.
func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	if isTerminal(out) {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// label renders tag#id.class.class.
func label(tag, id, className string) string {
	s := tag
	if id != "" {
		s += "#" + id
	}
	for _, c := range strings.Fields(className) {
		s += "." + c
	}
	return s
}

func writeTreeText(out io.Writer, root *tree.Node) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ELEMENT\tHANDLE\tGEOMETRY")
	root.Walk(func(n *tree.Node, depth int) bool {
		g := n.Geometry
		fmt.Fprintf(w, "%s%s\t%s\t%g,%g %gx%g\n", strings.Repeat("  ", depth), label(n.TagName, n.ID, n.ClassName), n.Handle, g.Left, g.Top, g.Width, g.Height)
		return true
	})
	return w.Flush()
}

func writeDescriptorText(out io.Writer, d *inspect.Descriptor) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	g := d.Geometry
	fmt.Fprintf(w, "Element:\t%s\n", label(d.TagName, d.ID, d.ClassName))
	if d.Selector != "" {
		fmt.Fprintf(w, "Selector:\t%s\n", d.Selector)
	}
	fmt.Fprintf(w, "Geometry:\t%g,%g %gx%g\n", g.Left, g.Top, g.Width, g.Height)
	fmt.Fprintf(w, "Display:\t%s\n", d.Style.Display)
	fmt.Fprintf(w, "Position:\t%s\n", d.Style.Position)
	if d.TextContent != "" {
		fmt.Fprintf(w, "Text:\t%q\n", d.TextContent)
	}
	for _, a := range d.Attributes {
		fmt.Fprintf(w, "  %s\t%s\n", a.Name, a.Value)
	}
	for _, a := range d.Ancestors {
		fmt.Fprintf(w, "  in\t%s\n", label(a.TagName, a.ID, a.ClassName))
	}
	return w.Flush()
}
