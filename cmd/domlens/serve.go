package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/standardbeagle/domlens/internal/debug"
	"github.com/standardbeagle/domlens/internal/inspect"
	"github.com/standardbeagle/domlens/internal/server"
	"github.com/standardbeagle/domlens/internal/session"
	"github.com/standardbeagle/domlens/internal/tools"
	"github.com/standardbeagle/domlens/internal/watch"
)

var serveCmd = &cobra.Command{
	Use:   "serve <source>",
	Short: "Serve the editor state over HTTP and WebSocket",
	Long: `Serve a session to editor panels.

Endpoints:
  GET  /              the page (file sources)
  GET  /api/state     transform, hover, selection, cursor
  GET  /api/tree      element tree
  GET  /api/overlay   highlight rectangles
  POST /api/transform {"matrix":[a,b,c,d,e,f]} | {"css":"matrix(...)"} | {"reset":true}
  POST /api/select    {"tagName","className","top","left"}
  GET  /ws            state stream; accepts pointer, wheel and click events

File sources are reloaded when the file changes.`,
	Args: cobra.ExactArgs(1),
	RunE: runServe,
}

var mcpCmd = &cobra.Command{
	Use:   "mcp <source>",
	Short: "Run an MCP server over stdio",
	Long: `Run an MCP server over stdio exposing domlens_inspect, domlens_tree,
domlens_select, domlens_zoom, domlens_pan and domlens_state.

File sources are reloaded when the file changes.`,
	Args: cobra.ExactArgs(1),
	RunE: runMCP,
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default: config server addr)")
	addRememberFlag(serveCmd)
	addRememberFlag(mcpCmd)
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// watchSource reloads file sources into sess when the file changes. The
// returned stop func is safe to call for URL sources too.
func watchSource(src *source, sess *session.Session) (stop func(), err error) {
	if src.live == nil {
		return func() {}, nil
	}
	w, err := watch.New(src.live.path, watch.DefaultDebounce, func(string) {
		if err := src.live.reload(sess); err != nil {
			debug.Error("cli", "reload %s: %v", src.live.path, err)
		}
	})
	if err != nil {
		return nil, err
	}
	if err := w.Start(); err != nil {
		return nil, err
	}
	return func() {
		if err := w.Stop(); err != nil {
			debug.Warn("cli", "stop watcher: %v", err)
		}
	}, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	src, err := openSource(ctx, cfg, args[0], selectorsFrom(cmd, cfg))
	if err != nil {
		return err
	}
	defer src.close()

	sess, err := session.New(src.content, cfg.SessionOptions())
	if err != nil {
		return err
	}
	sess.OnSelect(func(d *inspect.Descriptor) {
		if d != nil {
			debug.Log("cli", "selected %s %q", d.TagName, d.ID)
		}
	})

	views := viewStore(cmd)
	restoreView(views, args[0], sess)
	defer saveView(views, args[0], sess)

	stop, err := watchSource(src, sess)
	if err != nil {
		return err
	}
	defer stop()

	var opts []server.Option
	if src.live != nil {
		opts = append(opts, server.WithPage(src.live))
	}
	srv := server.New(sess, opts...)

	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = cfg.Server.Addr
	}
	return srv.ListenAndServe(ctx, addr)
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	// stdout carries the protocol.
	debug.SetOutput(os.Stderr)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	src, err := openSource(ctx, cfg, args[0], selectorsFrom(cmd, cfg))
	if err != nil {
		return err
	}
	defer src.close()

	sess, err := session.New(src.content, cfg.SessionOptions())
	if err != nil {
		return err
	}
	views := viewStore(cmd)
	restoreView(views, args[0], sess)
	defer saveView(views, args[0], sess)

	stop, err := watchSource(src, sess)
	if err != nil {
		return err
	}
	defer stop()

	mcpServer := tools.NewServer(appVersion, tools.New(sess, src.query))
	debug.Info("mcp", "domlens %s serving %s over stdio", appVersion, args[0])
	if err := mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
