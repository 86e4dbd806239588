package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/standardbeagle/domlens/internal/session"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <source> <selector>",
	Short: "Describe one element",
	Long: `Describe the element matching a CSS selector.

The description has tag, id, class, the first 100 characters of text,
attributes, display/position and geometry relative to the editor container
under the initial view transform.

Examples:
  domlens inspect page.html "#test-btn"
  domlens inspect page.html "main .card" --format yaml
  domlens inspect http://localhost:3000 button --container "#app"`,
	Args: cobra.ExactArgs(2),
	RunE: runInspect,
}

var treeCmd = &cobra.Command{
	Use:   "tree <source>",
	Short: "Print the element tree of the content root",
	Long: `Print the content root and its descendants, chrome excluded.

Examples:
  domlens tree page.html --format text
  domlens tree page.html --max-depth 3`,
	Args: cobra.ExactArgs(1),
	RunE: runTree,
}

func init() {
	treeCmd.Flags().Int("max-depth", 0, "Deepest level to include (default: config tree max-depth)")
}

// openSession opens the source and starts a session over it.
func openSession(cmd *cobra.Command, arg string, opts func(*session.Options)) (*source, *session.Session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	src, err := openSource(cmd.Context(), cfg, arg, selectorsFrom(cmd, cfg))
	if err != nil {
		return nil, nil, err
	}
	so := cfg.SessionOptions()
	if opts != nil {
		opts(&so)
	}
	sess, err := session.New(src.content, so)
	if err != nil {
		src.close()
		return nil, nil, err
	}
	return src, sess, nil
}

func runInspect(cmd *cobra.Command, args []string) error {
	src, sess, err := openSession(cmd, args[0], nil)
	if err != nil {
		return err
	}
	defer src.close()

	h, err := src.query.Query(args[1])
	if err != nil {
		return err
	}
	d, err := sess.Inspect(h)
	if err != nil {
		return err
	}
	if d == nil {
		return fmt.Errorf("%q matches editor chrome", args[1])
	}
	return writeOutput(cmd, d)
}

func runTree(cmd *cobra.Command, args []string) error {
	maxDepth, _ := cmd.Flags().GetInt("max-depth")
	src, sess, err := openSession(cmd, args[0], func(o *session.Options) {
		if maxDepth > 0 {
			o.MaxDepth = maxDepth
		}
	})
	if err != nil {
		return err
	}
	defer src.close()

	return writeOutput(cmd, sess.Tree())
}
