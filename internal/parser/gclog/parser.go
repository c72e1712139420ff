// Package gclog parses region-level G1 GC logs into heap snapshots.
//
// The logs are produced by the JVM with -Xlog:gc,heap,region=trace. Every
// collection dumps the heap region table once before and once after the
// pause:
//
//	[0.150s][info][gc,start] GC(0) Pause Young (Normal) (G1 Evacuation Pause)
//	[0.152s][trace][gc,heap,region] GC(0) Heap Regions: E=young(eden), S=young(survivor), O=old, ...
//	[0.152s][trace][gc,heap,region] GC(0) |   0|0x..., 0x..., 0x...|  0%| F|  |TAMS 0x...| PB 0x...| Untracked
//	[0.152s][trace][gc,heap,region] GC(0) |  11|0x..., 0x..., 0x...| 95%| E|  |TAMS 0x...| PB 0x...| Complete
//
// JVM crash dumps contain a single region table without cycle tokens.
package gclog

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/g1heapviz/internal/parser"
	"github.com/g1heapviz/pkg/compression"
	"github.com/g1heapviz/pkg/errors"
	"github.com/g1heapviz/pkg/model"
)

const (
	maxLineSize = 4 * 1024 * 1024

	tracerName = "github.com/g1heapviz/internal/parser/gclog"
)

// Stats counts what a parse saw.
type Stats struct {
	Lines          int
	Regions        int
	Snapshots      int
	SkippedLines   int
	DroppedRegions int
}

// Parser implements parser.Parser for region-level GC logs.
type Parser struct {
	opts *parser.ParseOptions
}

// NewParser creates a new GC log parser.
func NewParser(opts ...parser.Option) *Parser {
	return &Parser{opts: parser.ApplyOptions(opts...)}
}

// Name returns the name of this parser.
func (p *Parser) Name() string {
	return "gclog"
}

// Parse parses a GC log and returns its snapshots in log order.
func (p *Parser) Parse(ctx context.Context, reader io.Reader) ([]*model.HeapSnapshot, error) {
	snapshots, _, err := p.ParseWithStats(ctx, reader)
	return snapshots, err
}

var _ parser.Parser = (*Parser)(nil)

// ParseWithStats parses a GC log and also reports line-level statistics.
func (p *Parser) ParseWithStats(ctx context.Context, reader io.Reader) ([]*model.HeapSnapshot, Stats, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "gclog.parse")
	defer span.End()

	s := newSession(p.opts)

	plain, _, err := compression.NewReader(reader)
	if err != nil {
		return nil, Stats{}, errors.Wrap(errors.CodeIOFailure, "failed to decompress log", err)
	}
	defer plain.Close()

	scanner := bufio.NewScanner(plain)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			span.RecordError(ctx.Err())
			return nil, s.stats, ctx.Err()
		default:
		}

		if err := s.feed(scanner.Text()); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, s.stats, err
		}
	}

	if err := scanner.Err(); err != nil {
		wrapped := errors.Wrap(errors.CodeIOFailure, "failed to read gc log", err)
		span.RecordError(wrapped)
		span.SetStatus(codes.Error, wrapped.Error())
		return nil, s.stats, wrapped
	}

	snapshots := s.finish()

	span.SetAttributes(
		attribute.Int("gclog.lines", s.stats.Lines),
		attribute.Int("gclog.snapshots", s.stats.Snapshots),
		attribute.Int("gclog.skipped_lines", s.stats.SkippedLines),
	)

	return snapshots, s.stats, nil
}

// ParseFile opens path and parses it. Failing to open or read the file is
// reported as an IO_FAILURE error with no partial results.
func (p *Parser) ParseFile(ctx context.Context, path string) ([]*model.HeapSnapshot, Stats, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, errors.Wrap(errors.CodeIOFailure, fmt.Sprintf("failed to open %s", path), err)
	}
	defer file.Close()

	return p.ParseWithStats(ctx, file)
}

// ParseFile parses the GC log at path with default options.
func ParseFile(ctx context.Context, path string, opts ...parser.Option) ([]*model.HeapSnapshot, error) {
	snapshots, _, err := NewParser(opts...).ParseFile(ctx, path)
	return snapshots, err
}

// state is the position of the session relative to region sections.
type state int

const (
	stateScanning state = iota
	stateInSection
)

// session holds the state of one parse call.
type session struct {
	opts *parser.ParseOptions

	state     state
	regions   []model.Region
	prevLine  string
	isFull    bool
	label     string
	snapshots []*model.HeapSnapshot
	stats     Stats
}

func newSession(opts *parser.ParseOptions) *session {
	return &session{
		opts:      opts,
		state:     stateScanning,
		snapshots: make([]*model.HeapSnapshot, 0),
	}
}

// feed advances the state machine by one line.
func (s *session) feed(raw string) error {
	s.stats.Lines++

	line := Classify(raw)

	if line.Kind == LineSectionStart {
		s.state = stateInSection
		if isFull, label, ok := cycleMetadata(s.prevLine); ok {
			s.isFull = isFull
			s.label = label
		}
		return nil
	}

	// Cycle metadata is only taken from the line directly above a section
	// start, so every other line replaces it, including one that closes a
	// section.
	s.prevLine = raw
	if s.state == stateScanning {
		return nil
	}

	switch line.Kind {
	case LineRegionRecord:
		s.regions = append(s.regions, line.Region)
		s.stats.Regions++
		return nil

	case LineRejectedRecord:
		return s.skip(line.Err)

	default:
		if line.Err != nil {
			if err := s.skip(line.Err); err != nil {
				return err
			}
		}
		s.closeSection()
		return nil
	}
}

// skip records a line-level failure, or aborts in strict mode.
func (s *session) skip(err error) error {
	s.stats.SkippedLines++
	if s.opts.StrictMode {
		return errors.Wrap(errors.CodeParseError, fmt.Sprintf("line %d", s.stats.Lines), err)
	}
	s.opts.Logger.Warn("gclog: skipping line %d: %v", s.stats.Lines, err)
	return nil
}

// closeSection emits the accumulated regions, if any, and resets the
// per-section state.
func (s *session) closeSection() {
	if len(s.regions) > 0 {
		s.emit()
	}
	s.regions = nil
	s.isFull = false
	s.label = ""
	s.state = stateScanning
}

func (s *session) emit() {
	last := s.regions[len(s.regions)-1]
	s.snapshots = append(s.snapshots, model.NewHeapSnapshot(last.Cycle, s.regions, s.isFull, s.label))
	s.stats.Snapshots++
}

// finish handles end of input. A section left open is only kept when it is
// the only one in the log, which is the shape of a crash dump. Otherwise the
// trailing regions are dropped.
func (s *session) finish() []*model.HeapSnapshot {
	if len(s.regions) > 0 {
		if len(s.snapshots) == 0 {
			s.emit()
		} else {
			s.stats.DroppedRegions = len(s.regions)
			s.opts.Logger.Debug("gclog: dropping %d regions of unterminated trailing section", len(s.regions))
		}
	}
	s.regions = nil
	return s.snapshots
}
