package main

import (
	"context"
	"os"

	"gioui.org/app"
	"gioui.org/io/system"
	"gioui.org/op"
	"gioui.org/unit"
	"github.com/spf13/cobra"

	"github.com/standardbeagle/domlens/internal/debug"
	"github.com/standardbeagle/domlens/internal/render"
	"github.com/standardbeagle/domlens/internal/session"
)

var viewCmd = &cobra.Command{
	Use:   "view <source>",
	Short: "Open a window showing the element layout, hover and selection",
	Long: `Open a window over a session.

The window stands in for the container: it draws every element's box, the
hover outline and the selection under the current view.

  left click     select
  middle drag    pan
  wheel          zoom around the cursor

File sources are reloaded when the file changes.`,
	Args: cobra.ExactArgs(1),
	RunE: runView,
}

func init() {
	addRememberFlag(viewCmd)
}

func runView(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(cmd.Context())

	cfg, err := loadConfig(cmd)
	if err != nil {
		cancel()
		return err
	}
	src, err := openSource(ctx, cfg, args[0], selectorsFrom(cmd, cfg))
	if err != nil {
		cancel()
		return err
	}
	sess, err := session.New(src.content, cfg.SessionOptions())
	if err != nil {
		src.close()
		cancel()
		return err
	}

	views := viewStore(cmd)
	restoreView(views, args[0], sess)

	stop, err := watchSource(src, sess)
	if err != nil {
		src.close()
		cancel()
		return err
	}

	w := new(app.Window)
	w.Option(app.Title("domlens - "+args[0]), app.Size(unit.Dp(1024), unit.Dp(768)))
	unsubscribe := sess.Subscribe(func(session.Snapshot) { w.Invalidate() })

	// app.Main never returns; the loop goroutine cleans up and exits.
	go func() {
		err := viewLoop(ctx, w, render.NewViewer(sess, render.DefaultStyle()))
		unsubscribe()
		stop()
		saveView(views, args[0], sess)
		src.close()
		cancel()
		if err != nil {
			debug.Error("cli", "view: %v", err)
			os.Exit(1)
		}
		os.Exit(0)
	}()
	app.Main()
	return nil
}

func viewLoop(ctx context.Context, w *app.Window, v *render.Viewer) error {
	go func() {
		<-ctx.Done()
		w.Perform(system.ActionClose)
	}()

	var ops op.Ops
	for {
		switch e := w.Event().(type) {
		case app.DestroyEvent:
			return e.Err
		case app.FrameEvent:
			gtx := app.NewContext(&ops, e)
			v.Layout(gtx)
			e.Frame(gtx.Ops)
		}
	}
}
