// isoengine runs the isometric engine demo.
//
// Usage:
//
//	isoengine run       - Open a window and run the demo grid
//	isoengine config    - Print the resolved configuration
//
// Global flags:
//
//	--config <path>     - YAML configuration file
//	--base <dir>        - Base directory (Assets/ and Worlds/ live under it)
//	--log-level <lvl>   - debug, info, warn or error
package main

import (
	"fmt"
	"os"
	"runtime"

	"isoengine/internal/config"

	"github.com/spf13/cobra"
)

func init() {
	runtime.LockOSThread()
}

var (
	// Global flags
	flagConfig   string
	flagBase     string
	flagAssets   string
	flagLogLevel string
	flagDev      bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "isoengine",
	Short:         "Isometric 2D engine",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&flagBase, "base", "", "Base directory (default: executable directory)")
	rootCmd.PersistentFlags().StringVar(&flagAssets, "assets", "", "Assets directory (default: <base>/Assets)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&flagDev, "dev", false, "Human readable development logging")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(configCmd)
}

// loadConfig layers the command line over the file and environment.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return cfg, err
	}
	flags := cmd.Flags()
	if flags.Changed("base") {
		// Derived directories follow the new base unless set explicitly
		cfg.Dirs = config.Dirs{Base: flagBase}
	}
	if flags.Changed("assets") {
		cfg.Dirs.Assets = flagAssets
		cfg.Dirs.Shaders = ""
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = flagLogLevel
	}
	if flags.Changed("dev") {
		cfg.Log.Development = flagDev
	}
	if flags.Changed("width") {
		cfg.Window.Width = flagWidth
	}
	if flags.Changed("height") {
		cfg.Window.Height = flagHeight
	}
	if flags.Changed("fps") {
		cfg.Window.FPSLimit = flagFPS
	}
	if flags.Changed("update-rate") {
		cfg.Window.UpdateRate = flagUpdateRate
	}
	cfg.Resolve()
	return cfg, cfg.Validate()
}
