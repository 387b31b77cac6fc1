package main

import (
	"fmt"
	"os"

	"curvetour/internal/config"
	"curvetour/internal/datadir"
	"curvetour/internal/logger"
	"curvetour/internal/version"

	"github.com/spf13/cobra"
)

var (
	cfgFile    string
	verbose    bool
	curveDir   string
	resolution int
	noCache    bool

	dataDir *datadir.DataDir
	cfg     *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "curvetour",
	Short: "Walk a light-curve archive in order of shape similarity",
	Long: `curvetour folds every light curve in an archive at its own period,
resamples it onto a common phase grid and walks the archive from a seed curve,
always stepping to the most similar curve not yet shown.`,
	Version:       version.Get().String(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == versionCmd.Name() {
			return nil
		}
		return initConfig()
	},
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		info := version.Get()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "curvetour %s\n", info)
		if info.BuildDate != "" {
			fmt.Fprintf(out, "Build date: %s\n", info.BuildDate)
		}
		fmt.Fprintf(out, "Go version: %s\n", info.GoVersion)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (default ~/.curvetour/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&curveDir, "curve-dir", "", "light-curve root directory (overrides config)")
	rootCmd.PersistentFlags().IntVarP(&resolution, "resolution", "r", 0, "phase grid resolution (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "neither read nor write the dataset cache")

	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(tourCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() error {
	dd, err := datadir.New("")
	if err != nil {
		return err
	}
	dataDir = dd

	// .env first so CURVETOUR_* overrides reach config.Load
	if err := datadir.LoadEnv(dd.Root()); err != nil {
		return err
	}

	path := cfgFile
	if path == "" {
		path = dd.ConfigPath()
	}
	c, err := config.Load(path)
	if err != nil {
		return err
	}

	if curveDir != "" {
		c.CurveDir = curveDir
	}
	if resolution != 0 {
		c.Resolution = resolution
	}
	if noCache {
		c.Cache.Enabled = false
	}
	if verbose {
		c.Debug.VerboseLogging = true
	}
	if err := c.Validate(); err != nil {
		return err
	}
	cfg = c

	logger.Init(logger.Params{
		Debug:  c.Debug.VerboseLogging,
		Format: c.Debug.LogFormat,
		Output: os.Stderr,
		Prefix: "curvetour",
	})
	logger.Debug("configuration loaded", "path", path, "curve_dir", c.CurveDir, "resolution", c.Resolution)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
