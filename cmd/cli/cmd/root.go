// Package cmd implements the g1heapviz command line.
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/g1heapviz/pkg/config"
	"github.com/g1heapviz/pkg/telemetry"
	"github.com/g1heapviz/pkg/utils"
)

var (
	// Global flags
	verbose    bool
	configPath string

	cfg               *config.Config
	logger            utils.Logger = &utils.NullLogger{}
	telemetryShutdown telemetry.ShutdownFunc
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "g1heapviz",
	Short: "Inspect G1 heap region layouts recorded in JVM GC logs",
	Long: `g1heapviz reads JVM GC logs written with region tracing enabled
(-Xlog:gc+heap+region=trace) and rebuilds the heap layout before and after
every collection.

It reports external and internal fragmentation per cycle, scans logs for
humongous allocations and serves the layouts to a browser over HTTP.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}

		level := cfg.Log.Level
		if verbose {
			level = "debug"
		}
		l, err := utils.NewLogger(level, cfg.Log.OutputPath)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		logger = l
		utils.SetGlobalLogger(l)

		telemetryShutdown, err = telemetry.Init(cmd.Context(), telemetry.WithServiceVersion(Version))
		if err != nil {
			logger.Warn("Tracing disabled: %v", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if telemetryShutdown != nil {
			if err := telemetryShutdown(context.Background()); err != nil {
				logger.Warn("Failed to flush traces: %v", err)
			}
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")

	binName := BinName()
	rootCmd.Example = `  # Print the fragmentation report of a log
  ` + binName + ` analyze gc.log

  # Save the report as JSON as well
  ` + binName + ` analyze gc.log --output report.json

  # List cycles with more than 90000 humongous regions
  ` + binName + ` humongous ./logs

  # Serve a log to the browser
  ` + binName + ` serve gc.log --port 8080`
}

// GetLogger returns the configured logger
func GetLogger() utils.Logger {
	return logger
}

// BinName returns the base name of the current executable
func BinName() string {
	return filepath.Base(os.Args[0])
}
