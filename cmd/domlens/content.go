package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/standardbeagle/domlens/internal/browser"
	"github.com/standardbeagle/domlens/internal/config"
	"github.com/standardbeagle/domlens/internal/debug"
	"github.com/standardbeagle/domlens/internal/dom"
	"github.com/standardbeagle/domlens/internal/htmldoc"
	"github.com/standardbeagle/domlens/internal/session"
)

// queryProvider is a provider that can also resolve selectors.
type queryProvider interface {
	dom.Provider
	Query(selector string) (dom.Handle, error)
}

// querier resolves selectors against whatever document is current.
type querier interface {
	Query(selector string) (dom.Handle, error)
}

// source is an opened page: a static file or a live browser tab.
type source struct {
	content session.Content
	query   querier

	// live is set for files; it serves the page and follows reloads.
	live *liveDoc

	close func()
}

// contentSelectors names the container and content root inside a page.
type contentSelectors struct {
	container string
	root      string
	ignore    string
}

func selectorsFrom(cmd *cobra.Command, cfg *config.Config) contentSelectors {
	container, _ := cmd.Flags().GetString("container")
	root, _ := cmd.Flags().GetString("root")
	return contentSelectors{container: container, root: root, ignore: cfg.Inspector.IgnoreAttribute}
}

func isURL(arg string) bool {
	return strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://")
}

// openSource opens arg as a URL in Chrome or as a local HTML file.
func openSource(ctx context.Context, cfg *config.Config, arg string, sel contentSelectors) (*source, error) {
	if isURL(arg) {
		page, err := browser.Open(ctx, browser.Config{
			RemoteURL: cfg.Browser.RemoteURL,
			Headless:  cfg.Browser.Headless,
		}, arg)
		if err != nil {
			return nil, err
		}
		content, err := resolveContent(page, sel)
		if err != nil {
			page.Close()
			return nil, err
		}
		return &source{content: content, query: page, close: page.Close}, nil
	}

	live := &liveDoc{path: arg, sel: sel}
	content, err := live.load()
	if err != nil {
		return nil, err
	}
	return &source{content: content, query: live, live: live, close: func() {}}, nil
}

// resolveContent finds the container and content root in p.
func resolveContent(p queryProvider, sel contentSelectors) (session.Content, error) {
	container, err := p.Query(sel.container)
	if err != nil {
		return session.Content{}, fmt.Errorf("container %q: %w", sel.container, err)
	}

	var root dom.Handle
	if sel.root != "" {
		if root, err = p.Query(sel.root); err != nil {
			return session.Content{}, fmt.Errorf("content root %q: %w", sel.root, err)
		}
	} else {
		for _, c := range p.Children(container) {
			if !dom.IsChrome(p, c, sel.ignore) {
				root = c
				break
			}
		}
		if root.IsZero() {
			return session.Content{}, fmt.Errorf("container %q has no content element", sel.container)
		}
	}
	return session.Content{Provider: p, Root: root, Container: container}, nil
}

// liveDoc is a parsed HTML file that is swapped out when the file changes.
// It forwards provider calls to the current document.
type liveDoc struct {
	path string
	sel  contentSelectors

	mu  sync.RWMutex
	doc *htmldoc.Document
}

// load parses the file and makes it current.
func (l *liveDoc) load() (session.Content, error) {
	doc, err := htmldoc.ParseFile(l.path)
	if err != nil {
		return session.Content{}, err
	}
	content, err := resolveContent(doc, l.sel)
	if err != nil {
		return session.Content{}, fmt.Errorf("%s: %w", l.path, err)
	}
	l.mu.Lock()
	l.doc = doc
	l.mu.Unlock()
	return content, nil
}

// reload re-parses the file and rebinds sess to it, keeping the view.
func (l *liveDoc) reload(sess *session.Session) error {
	content, err := l.load()
	if err != nil {
		return err
	}
	if err := sess.Reload(content); err != nil {
		return err
	}
	debug.Info("cli", "reloaded %s", l.path)
	return nil
}

func (l *liveDoc) current() *htmldoc.Document {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.doc
}

func (l *liveDoc) Render(w io.Writer) error { return l.current().Render(w) }

func (l *liveDoc) Query(selector string) (dom.Handle, error) {
	return l.current().Query(selector)
}
