// Package config loads the .domlens.kdl configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	kdl "github.com/sblinch/kdl-go"

	"github.com/standardbeagle/domlens/internal/dom"
	"github.com/standardbeagle/domlens/internal/geom"
	"github.com/standardbeagle/domlens/internal/inspect"
	"github.com/standardbeagle/domlens/internal/panzoom"
	"github.com/standardbeagle/domlens/internal/session"
	"github.com/standardbeagle/domlens/internal/tree"
)

// ConfigFileName is the name of the domlens configuration file.
const ConfigFileName = ".domlens.kdl"

// DefaultAddr is where `domlens serve` listens unless configured.
const DefaultAddr = "127.0.0.1:7420"

// Config represents the domlens configuration.
type Config struct {
	View      *ViewConfig      `kdl:"view"`
	Inspector *InspectorConfig `kdl:"inspector"`
	Tree      *TreeConfig      `kdl:"tree"`
	Server    *ServerConfig    `kdl:"server"`
	Browser   *BrowserConfig   `kdl:"browser"`
}

// ViewConfig configures pan and zoom.
type ViewConfig struct {
	// InitialScale is the uniform scale of the initial view (default 0.5)
	InitialScale float64 `kdl:"initial-scale"`
	// ScaleFactor is the zoom change per wheel notch (default 1.1)
	ScaleFactor float64 `kdl:"scale-factor"`
	MinScale    float64 `kdl:"min-scale"`
	MaxScale    float64 `kdl:"max-scale"`
	// PanButton is the pointer button that pans: 1 middle, 2 right
	PanButton int `kdl:"pan-button"`
}

// InspectorConfig configures element descriptors.
type InspectorConfig struct {
	TextLimit       int    `kdl:"text-limit"`
	IgnoreAttribute string `kdl:"ignore-attribute"`
	Ancestors       bool   `kdl:"ancestors"`
	Selector        bool   `kdl:"selector"`
}

// TreeConfig configures the tree view.
type TreeConfig struct {
	MaxDepth int `kdl:"max-depth"`
}

// ServerConfig configures `domlens serve`.
type ServerConfig struct {
	Addr string `kdl:"addr"`
}

// BrowserConfig configures the live browser backend.
type BrowserConfig struct {
	// RemoteURL attaches to a running Chrome DevTools endpoint instead of
	// launching one.
	RemoteURL string `kdl:"remote-url"`
	Headless  bool   `kdl:"headless"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	view := panzoom.DefaultConfig()
	return &Config{
		View: &ViewConfig{
			InitialScale: view.InitialTransform.ScaleX(),
			ScaleFactor:  view.ScaleFactor,
			MinScale:     view.MinScale,
			MaxScale:     view.MaxScale,
			PanButton:    int(view.PanButton),
		},
		Inspector: &InspectorConfig{
			TextLimit:       inspect.DefaultTextLimit,
			IgnoreAttribute: dom.DefaultIgnoreAttribute,
			Ancestors:       true,
			Selector:        true,
		},
		Tree:    &TreeConfig{MaxDepth: tree.DefaultMaxDepth},
		Server:  &ServerConfig{Addr: DefaultAddr},
		Browser: &BrowserConfig{Headless: true},
	}
}

// LoadConfig loads configuration from the specified directory.
// It looks for .domlens.kdl in the directory and its parents.
func LoadConfig(dir string) (*Config, error) {
	configPath := FindConfigFile(dir)
	if configPath == "" {
		return DefaultConfig(), nil
	}

	return LoadConfigFile(configPath)
}

// FindConfigFile searches for .domlens.kdl starting from dir and walking up.
func FindConfigFile(dir string) string {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(absDir, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(absDir)
		if parent == absDir {
			// Reached root
			break
		}
		absDir = parent
	}

	return ""
}

// LoadConfigFile loads configuration from a specific file.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return ParseConfig(string(data))
}

// ParseConfig parses KDL configuration data. Blocks and fields left out
// keep their defaults.
func ParseConfig(data string) (*Config, error) {
	cfg := DefaultConfig()

	if err := kdl.Unmarshal([]byte(data), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.fillDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// fillDefaults restores blocks the file declared empty.
func (c *Config) fillDefaults() {
	def := DefaultConfig()
	if c.View == nil {
		c.View = def.View
	}
	if c.Inspector == nil {
		c.Inspector = def.Inspector
	}
	if c.Tree == nil {
		c.Tree = def.Tree
	}
	if c.Server == nil {
		c.Server = def.Server
	}
	if c.Browser == nil {
		c.Browser = def.Browser
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
}

// Validate reports values no component could run with.
func (c *Config) Validate() error {
	v := c.View
	if v.InitialScale <= 0 {
		return fmt.Errorf("view: initial-scale must be positive, got %g", v.InitialScale)
	}
	if v.ScaleFactor <= 0 || v.ScaleFactor == 1 {
		return fmt.Errorf("view: scale-factor must be positive and not 1, got %g", v.ScaleFactor)
	}
	if v.MinScale > 0 && v.MaxScale > 0 && v.MinScale >= v.MaxScale {
		return fmt.Errorf("view: min-scale %g must be below max-scale %g", v.MinScale, v.MaxScale)
	}
	if v.PanButton != int(panzoom.ButtonMiddle) && v.PanButton != int(panzoom.ButtonRight) {
		return fmt.Errorf("view: pan-button must be 1 (middle) or 2 (right), got %d", v.PanButton)
	}
	if c.Tree.MaxDepth < 0 {
		return fmt.Errorf("tree: max-depth must not be negative, got %d", c.Tree.MaxDepth)
	}
	return nil
}

// SessionOptions converts the config to session options.
func (c *Config) SessionOptions() session.Options {
	initial := geom.ScaleUniform(c.View.InitialScale)
	return session.Options{
		Inspect: inspect.Options{
			IgnoreAttribute: c.Inspector.IgnoreAttribute,
			TextLimit:       c.Inspector.TextLimit,
			Ancestors:       c.Inspector.Ancestors,
			Selector:        c.Inspector.Selector,
		},
		View: panzoom.Config{
			InitialTransform: &initial,
			ScaleFactor:      c.View.ScaleFactor,
			PanButton:        panzoom.Button(c.View.PanButton),
			MinScale:         c.View.MinScale,
			MaxScale:         c.View.MaxScale,
		},
		MaxDepth: c.Tree.MaxDepth,
	}
}

// WriteDefaultConfig writes a default configuration file with documentation.
func WriteDefaultConfig(path string) error {
	defaultKDL := `// domlens configuration
// Looked up from the working directory upward.

// Pan and zoom
view {
    initial-scale 0.5   // Uniform scale of the initial view
    scale-factor 1.1    // Zoom change per wheel notch
    min-scale 0.001
    max-scale 1000
    pan-button 1        // 1 = middle, 2 = right
}

// Element descriptors
inspector {
    text-limit 100                         // UTF-16 code units of text kept
    ignore-attribute "data-editor-ignore"  // Marks editor chrome
    ancestors true                         // Include breadcrumb ancestors
    selector true                          // Include a CSS selector path
}

// Tree view
tree {
    max-depth 10
}

// domlens serve
server {
    addr "127.0.0.1:7420"
}

// Live browser backend
browser {
    // remote-url "ws://127.0.0.1:9222/devtools/browser/..."
    headless true
}
`
	return os.WriteFile(path, []byte(defaultKDL), 0644)
}
