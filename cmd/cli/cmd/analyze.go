package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/g1heapviz/internal/analyzer"
	"github.com/g1heapviz/internal/formatter"
	"github.com/g1heapviz/internal/parser"
	"github.com/g1heapviz/internal/parser/gclog"
	"github.com/g1heapviz/pkg/model"
	"github.com/g1heapviz/pkg/utils"
	"github.com/g1heapviz/pkg/writer"
)

var (
	// Analyze command flags
	reportFormat string
	reportOutput string
	strictParse  bool
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <gc-log>",
	Short: "Report external fragmentation before and after every collection",
	Long: `Parse a GC log, pair the region dumps taken before and after each
collection and print their external fragmentation.

The default CSV output has one row per collection:

  GC#, ext frag before GC, ext frag after GC, is full GC

followed by the average fragmentation before and after collection.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVarP(&reportFormat, "format", "f", "csv", "Output format: csv or json")
	analyzeCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "Also write the report as JSON to this file (.gz to compress)")
	analyzeCmd.Flags().BoolVar(&strictParse, "strict", false, "Fail on the first malformed region line")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	log := GetLogger()
	timer := utils.NewTimer("analyze")

	a := analyzer.NewFragmentationAnalyzer(analyzer.Config{
		Parser: gclog.NewParser(
			parser.WithStrictMode(strictParse || cfg.Parser.Strict),
			parser.WithLogger(log),
		),
		Logger: log,
	})

	var report *model.FragmentationReport
	_, err := timer.TimeFuncWithError("parse", func() error {
		var err error
		report, err = a.AnalyzeFile(cmd.Context(), args[0])
		return err
	})
	if err != nil {
		return err
	}

	stop := timer.Start("report")
	if err := formatter.NewRegistry().Get(reportFormat).Write(report, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if reportOutput != "" {
		if err := writer.WriteFile(report, reportOutput); err != nil {
			return fmt.Errorf("failed to save report: %w", err)
		}
		log.Info("Report saved to %s", reportOutput)
	}
	stop()

	if verbose {
		formatter.Log(report, log)
	}
	timer.Log(log)
	return nil
}
