package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/g1heapviz/internal/parser/humongous"
)

var (
	humongousThreshold int
	humongousWorkers   int
)

// humongousCmd represents the humongous command
var humongousCmd = &cobra.Command{
	Use:   "humongous <gc-log|directory>",
	Short: "List collections that left many humongous regions behind",
	Long: `Scan "Humongous regions: before->after" summary lines and print
every collection whose after count exceeds the threshold as

  cycle, before, after

A directory is scanned for *.log files, several files at a time.`,
	Args: cobra.ExactArgs(1),
	RunE: runHumongous,
}

func init() {
	rootCmd.AddCommand(humongousCmd)

	humongousCmd.Flags().IntVarP(&humongousThreshold, "threshold", "t", 0, "Report cycles with more humongous regions than this (default from config)")
	humongousCmd.Flags().IntVarP(&humongousWorkers, "workers", "w", 0, "Files scanned in parallel (default: CPU count)")
}

func runHumongous(cmd *cobra.Command, args []string) error {
	threshold := cfg.Parser.HumongousThreshold
	if cmd.Flags().Changed("threshold") {
		threshold = humongousThreshold
	}

	scanner := humongous.NewScanner(
		humongous.WithThreshold(threshold),
		humongous.WithWorkers(humongousWorkers),
		humongous.WithLogger(GetLogger()),
	)

	records, err := scanner.ScanPath(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, r := range records {
		fmt.Fprintln(out, humongous.Format(r))
	}
	GetLogger().Debug("%d collections above %d humongous regions", len(records), threshold)
	return nil
}
