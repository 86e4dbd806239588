package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/standardbeagle/domlens/internal/debug"
	"github.com/standardbeagle/domlens/internal/geom"
	"github.com/standardbeagle/domlens/internal/session"
	"github.com/standardbeagle/domlens/internal/store"
)

func addRememberFlag(cmd *cobra.Command) {
	cmd.Flags().Bool("remember", true, "Restore and save the pan/zoom view for this source")
}

// viewStore returns the project's view store, or nil when --remember=false.
func viewStore(cmd *cobra.Command) *store.Store {
	if on, _ := cmd.Flags().GetBool("remember"); !on {
		return nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil
	}
	return store.New(cwd)
}

// restoreView applies the stored transform for source.
func restoreView(st *store.Store, source string, sess *session.Session) {
	if st == nil {
		return
	}
	v, err := st.Get(source)
	if errors.Is(err, store.ErrNotFound) {
		return
	}
	if err != nil {
		debug.Warn("cli", "load view: %v", err)
		return
	}
	if err := sess.SetTransform(geom.FromCoefficients(v.Matrix)); err != nil {
		debug.Warn("cli", "stored transform for %s: %v", source, err)
		return
	}
	debug.Log("cli", "restored view for %s", v.Source)
}

// saveView stores the session's current transform.
func saveView(st *store.Store, source string, sess *session.Session) {
	if st == nil {
		return
	}
	v := store.View{Source: source, Matrix: sess.Snapshot().Matrix}
	if err := st.Put(v); err != nil {
		debug.Warn("cli", "save view: %v", err)
	}
}
