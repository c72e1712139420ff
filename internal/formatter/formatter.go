// Package formatter renders fragmentation reports for terminals and files.
package formatter

import (
	"io"
	"sort"

	"github.com/g1heapviz/pkg/model"
	"github.com/g1heapviz/pkg/utils"
)

// ReportFormatter is the interface for rendering a fragmentation report.
type ReportFormatter interface {
	// Write renders the report to w.
	Write(report *model.FragmentationReport, w io.Writer) error

	// Name returns the format name used to select this formatter.
	Name() string
}

// Registry manages formatter instances.
type Registry struct {
	formatters map[string]ReportFormatter
	fallback   ReportFormatter
}

// NewRegistry creates a new formatter registry with the default formatters.
func NewRegistry() *Registry {
	r := &Registry{
		formatters: make(map[string]ReportFormatter),
		fallback:   &CSVFormatter{},
	}

	r.Register(&CSVFormatter{})
	r.Register(&JSONFormatter{Indent: "  "})

	return r
}

// Register registers a formatter under its name.
func (r *Registry) Register(f ReportFormatter) {
	r.formatters[f.Name()] = f
}

// Get returns the formatter for name, or the CSV formatter when name is
// unknown.
func (r *Registry) Get(name string) ReportFormatter {
	if f, ok := r.formatters[name]; ok {
		return f
	}
	return r.fallback
}

// Names returns the registered format names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.formatters))
	for n := range r.formatters {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Log writes a short human-readable summary of the report to log.
func Log(report *model.FragmentationReport, log utils.Logger) {
	if report == nil {
		return
	}

	log.Info("=== Fragmentation Report ===")
	log.Info("Source:           %s", report.Source)
	log.Info("Snapshots:        %d", report.SnapshotCount)
	log.Info("Cycles:           %d", len(report.Pairs))
	log.Info("Full collections: %d", report.FullCollections)
	log.Info("Avg ext frag:     %d%% before, %d%% after", report.AvgBefore, report.AvgAfter)

	if report.UnpairedSnapshot {
		log.Warn("Last snapshot has no before/after partner and was left out")
	}
	for _, p := range report.Pairs {
		if p.CycleMismatch {
			log.Warn("Pair starting at cycle %d spans two cycles", p.Cycle)
		}
	}
}

// Summary returns a summary map for serialization.
func Summary(report *model.FragmentationReport) map[string]interface{} {
	if report == nil {
		return nil
	}
	return map[string]interface{}{
		"source":           report.Source,
		"snapshots":        report.SnapshotCount,
		"cycles":           len(report.Pairs),
		"full_collections": report.FullCollections,
		"avg_ext_before":   report.AvgBefore,
		"avg_ext_after":    report.AvgAfter,
	}
}
