package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/standardbeagle/domlens/internal/geom"
	"github.com/standardbeagle/domlens/internal/panzoom"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.View.InitialScale != 0.5 || cfg.View.ScaleFactor != 1.1 {
		t.Errorf("view defaults = %+v", cfg.View)
	}
	if cfg.View.PanButton != int(panzoom.ButtonMiddle) {
		t.Errorf("PanButton = %d, want middle", cfg.View.PanButton)
	}
	if cfg.Inspector.TextLimit != 100 || cfg.Inspector.IgnoreAttribute != "data-editor-ignore" {
		t.Errorf("inspector defaults = %+v", cfg.Inspector)
	}
	if cfg.Tree.MaxDepth != 10 {
		t.Errorf("MaxDepth = %d, want 10", cfg.Tree.MaxDepth)
	}
	if cfg.Server.Addr != DefaultAddr {
		t.Errorf("Addr = %q", cfg.Server.Addr)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults invalid: %v", err)
	}
}

func TestParseConfig(t *testing.T) {
	data := `
view {
    initial-scale 1.0
    scale-factor 1.25
    pan-button 2
}
inspector {
    text-limit 40
    ignore-attribute "data-chrome"
}
tree {
    max-depth 4
}
server {
    addr ":9000"
}
`
	cfg, err := ParseConfig(data)
	if err != nil {
		t.Fatalf("ParseConfig failed: %v", err)
	}

	if cfg.View.InitialScale != 1 || cfg.View.ScaleFactor != 1.25 || cfg.View.PanButton != 2 {
		t.Errorf("view = %+v", cfg.View)
	}
	if cfg.Inspector.TextLimit != 40 || cfg.Inspector.IgnoreAttribute != "data-chrome" {
		t.Errorf("inspector = %+v", cfg.Inspector)
	}
	if cfg.Tree.MaxDepth != 4 || cfg.Server.Addr != ":9000" {
		t.Errorf("tree = %+v server = %+v", cfg.Tree, cfg.Server)
	}
	if !cfg.Browser.Headless {
		t.Error("omitted browser block should keep defaults")
	}

	opts := cfg.SessionOptions()
	if *opts.View.InitialTransform != geom.Identity() {
		t.Errorf("InitialTransform = %v", *opts.View.InitialTransform)
	}
	if opts.View.PanButton != panzoom.ButtonRight || opts.MaxDepth != 4 {
		t.Errorf("session options = %+v", opts)
	}
	if opts.Inspect.IgnoreAttribute != "data-chrome" || opts.Inspect.TextLimit != 40 {
		t.Errorf("inspect options = %+v", opts.Inspect)
	}
}

func TestParseConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"zero scale", "view {\n initial-scale 0\n}", "initial-scale"},
		{"unit factor", "view {\n scale-factor 1\n}", "scale-factor"},
		{"left pan", "view {\n pan-button 0\n}", "pan-button"},
		{"inverted bounds", "view {\n min-scale 2\n max-scale 1\n}", "min-scale"},
		{"negative depth", "tree {\n max-depth -1\n}", "max-depth"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig(tt.data)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestFindConfigFile(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	if got := FindConfigFile(nested); got != "" && strings.HasPrefix(got, root) {
		t.Errorf("found unexpected config %q", got)
	}

	path := filepath.Join(root, ConfigFileName)
	if err := WriteDefaultConfig(path); err != nil {
		t.Fatal(err)
	}
	if got := FindConfigFile(nested); got != path {
		t.Errorf("FindConfigFile = %q, want %q", got, path)
	}

	cfg, err := LoadConfig(nested)
	if err != nil {
		t.Fatalf("LoadConfig on written default: %v", err)
	}
	def := DefaultConfig()
	if *cfg.View != *def.View || *cfg.Inspector != *def.Inspector || *cfg.Tree != *def.Tree {
		t.Errorf("written default differs from DefaultConfig: %+v", cfg)
	}
}

func TestLoadConfigFile_Missing(t *testing.T) {
	if _, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope.kdl")); err == nil {
		t.Error("expected error for missing file")
	}
}
