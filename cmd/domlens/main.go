// Command domlens inspects and edits HTML pages through a pan/zoom view.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/standardbeagle/domlens/internal/config"
	"github.com/standardbeagle/domlens/internal/debug"
)

var appVersion = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "domlens",
	Short: "Visual inspector for HTML pages under a pan/zoom view",
	Long: `domlens inspects the elements of an HTML page the way a visual editor does:
geometry relative to the editor container, after the pan/zoom transform, with
editor chrome excluded.

A source is either a local HTML file or an http(s) URL opened in Chrome.

Examples:
  domlens inspect page.html "#test-btn"
  domlens tree page.html --format text
  domlens serve page.html
  domlens mcp https://localhost:3000 --container "#app"
  domlens init`,
	Version:           appVersion,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Config file (default: .domlens.kdl in this or a parent directory)")
	pf.Bool("debug", false, "Enable debug logging")
	pf.Bool("log-file", false, "Also write logs to the domlens log file")
	pf.String("format", "json", "Output format: json, yaml or text")
	pf.String("container", "body", "Selector of the editor container")
	pf.String("root", "", "Selector of the content root (default: first non-chrome child of the container)")

	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(initCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads .env and applies the logging flags before any command runs.
func setup(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	// .env may have set it after the debug package initialized.
	if os.Getenv(debug.EnvVar) != "" {
		debug.Enable()
	}
	if on, _ := cmd.Flags().GetBool("debug"); on {
		debug.Enable()
	}
	if on, _ := cmd.Flags().GetBool("log-file"); on {
		if err := debug.SetLogFile("domlens.log"); err != nil {
			return err
		}
		debug.Log("cli", "logging to %s", debug.LogFilePath())
	}
	return nil
}

// loadConfig reads --config, or discovers the config from the working
// directory upward.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		return config.LoadConfigFile(path)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}
	return config.LoadConfig(cwd)
}
