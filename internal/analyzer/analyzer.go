// Package analyzer turns parsed heap snapshots into fragmentation reports.
package analyzer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/g1heapviz/internal/parser"
	"github.com/g1heapviz/internal/parser/gclog"
	"github.com/g1heapviz/pkg/errors"
	"github.com/g1heapviz/pkg/model"
	"github.com/g1heapviz/pkg/utils"
)

const tracerName = "github.com/g1heapviz/internal/analyzer"

// Analyzer produces a fragmentation report from a GC log.
type Analyzer interface {
	// Analyze parses the log read from r. source names the log in the report.
	Analyze(ctx context.Context, source string, r io.Reader) (*model.FragmentationReport, error)

	// Name returns the name of this analyzer.
	Name() string
}

// Config holds configuration for the fragmentation analyzer.
type Config struct {
	// Parser decodes the log. Defaults to a gclog parser.
	Parser parser.Parser

	// Logger is used for warnings such as mismatched cycle pairs.
	Logger utils.Logger
}

// FragmentationAnalyzer pairs the before and after snapshots of every
// collection and compares their external fragmentation.
type FragmentationAnalyzer struct {
	parser parser.Parser
	logger utils.Logger
}

// NewFragmentationAnalyzer creates a FragmentationAnalyzer.
func NewFragmentationAnalyzer(cfg Config) *FragmentationAnalyzer {
	if cfg.Logger == nil {
		cfg.Logger = &utils.NullLogger{}
	}
	if cfg.Parser == nil {
		cfg.Parser = gclog.NewParser(parser.WithLogger(cfg.Logger))
	}
	return &FragmentationAnalyzer{parser: cfg.Parser, logger: cfg.Logger}
}

// Name returns the name of this analyzer.
func (a *FragmentationAnalyzer) Name() string {
	return "fragmentation"
}

// Analyze implements Analyzer.
func (a *FragmentationAnalyzer) Analyze(ctx context.Context, source string, r io.Reader) (*model.FragmentationReport, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "analyzer.fragmentation")
	defer span.End()

	snapshots, err := a.parser.Parse(ctx, r)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	report := BuildReport(source, snapshots, a.logger)

	span.SetAttributes(
		attribute.String("analyzer.source", source),
		attribute.Int("analyzer.snapshots", report.SnapshotCount),
		attribute.Int("analyzer.pairs", len(report.Pairs)),
	)
	return report, nil
}

// AnalyzeFile analyzes the log at path.
func (a *FragmentationAnalyzer) AnalyzeFile(ctx context.Context, path string) (*model.FragmentationReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.CodeIOFailure, fmt.Sprintf("failed to open %s", path), err)
	}
	defer f.Close()

	return a.Analyze(ctx, filepath.Base(path), f)
}

var _ Analyzer = (*FragmentationAnalyzer)(nil)

// BuildReport pairs snapshots (0,1), (2,3), ... A trailing odd snapshot is
// left out of the pairs and flagged. A pair whose cycles differ is kept and
// flagged, and a warning is logged. Averages are integer means over the
// pairs and 0 when there are none.
func BuildReport(source string, snapshots []*model.HeapSnapshot, logger utils.Logger) *model.FragmentationReport {
	if logger == nil {
		logger = &utils.NullLogger{}
	}

	report := &model.FragmentationReport{
		Source:        source,
		SnapshotCount: len(snapshots),
		Pairs:         make([]model.CyclePair, 0, len(snapshots)/2),
	}

	sumBefore, sumAfter := 0, 0
	for i := 0; i+1 < len(snapshots); i += 2 {
		before, after := snapshots[i], snapshots[i+1]

		pair := model.CyclePair{
			Cycle:  before.Cycle,
			Before: before.Metrics(),
			After:  after.Metrics(),
			IsFull: before.IsFullCollection,
			Label:  before.CollectionLabel,
		}
		if before.Cycle != after.Cycle {
			pair.CycleMismatch = true
			logger.Warn("analyzer: snapshots %d and %d belong to different cycles (%d, %d)", i, i+1, before.Cycle, after.Cycle)
		}
		if pair.IsFull {
			report.FullCollections++
		}

		sumBefore += pair.Before.External
		sumAfter += pair.After.External
		report.Pairs = append(report.Pairs, pair)
	}

	if n := len(report.Pairs); n > 0 {
		report.AvgBefore = sumBefore / n
		report.AvgAfter = sumAfter / n
	}
	if len(snapshots)%2 == 1 {
		report.UnpairedSnapshot = true
		logger.Debug("analyzer: last snapshot (cycle %d) has no partner", snapshots[len(snapshots)-1].Cycle)
	}

	return report
}
