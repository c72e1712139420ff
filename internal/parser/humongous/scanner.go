// Package humongous scans GC logs for humongous region summary lines:
//
//	[0.159s][info][gc,heap] GC(0) Humongous regions: 2->2
//
// It reports the cycles whose humongous region count after the pause exceeds
// a threshold.
package humongous

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/g1heapviz/internal/parser"
	"github.com/g1heapviz/pkg/compression"
	"github.com/g1heapviz/pkg/errors"
	"github.com/g1heapviz/pkg/model"
	"github.com/g1heapviz/pkg/parallel"
	"github.com/g1heapviz/pkg/utils"
)

const (
	summaryMarker = "Humongous regions:"

	// DefaultThreshold is the humongous region count a cycle must exceed
	// after the pause to be reported.
	DefaultThreshold = 90000
)

var summaryRegex = regexp.MustCompile(`GC\((\d+)\).*Humongous regions:\s*(\d+)->(\d+)`)

// Scanner finds humongous summary lines above a threshold.
type Scanner struct {
	threshold int
	workers   int
	logger    utils.Logger
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithThreshold sets the reporting threshold.
func WithThreshold(n int) Option {
	return func(s *Scanner) {
		s.threshold = n
	}
}

// WithWorkers sets how many files of a directory are scanned at once.
func WithWorkers(n int) Option {
	return func(s *Scanner) {
		s.workers = n
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(l utils.Logger) Option {
	return func(s *Scanner) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewScanner creates a Scanner.
func NewScanner(opts ...Option) *Scanner {
	s := &Scanner{
		threshold: DefaultThreshold,
		workers:   parallel.DefaultPoolConfig().MaxWorkers,
		logger:    &utils.NullLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DecodeLine decodes a summary line into a record with an empty source.
func DecodeLine(line string) (model.HumongousRecord, error) {
	m := summaryRegex.FindStringSubmatch(line)
	if m == nil {
		return model.HumongousRecord{}, fmt.Errorf("%w: %q", parser.ErrMalformedHumongousLine, strings.TrimSpace(line))
	}
	// The regex only admits digits, so Atoi can only fail on overflow.
	cycle, err1 := strconv.Atoi(m[1])
	before, err2 := strconv.Atoi(m[2])
	after, err3 := strconv.Atoi(m[3])
	if err1 != nil || err2 != nil || err3 != nil {
		return model.HumongousRecord{}, fmt.Errorf("%w: number out of range in %q", parser.ErrMalformedHumongousLine, strings.TrimSpace(line))
	}
	return model.HumongousRecord{Cycle: cycle, Before: before, After: after}, nil
}

// Scan reads r and returns the records whose after count exceeds the
// threshold, in log order. source is copied into every record.
func (s *Scanner) Scan(ctx context.Context, source string, r io.Reader) ([]model.HumongousRecord, error) {
	plain, _, err := compression.NewReader(r)
	if err != nil {
		return nil, errors.Wrap(errors.CodeIOFailure, fmt.Sprintf("failed to decompress %s", source), err)
	}
	defer plain.Close()

	records := make([]model.HumongousRecord, 0)
	scanner := bufio.NewScanner(plain)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lineNo++

		line := scanner.Text()
		if !strings.Contains(line, summaryMarker) {
			continue
		}

		rec, err := DecodeLine(line)
		if err != nil {
			s.logger.Warn("humongous: %s line %d: %v", source, lineNo, err)
			continue
		}
		if rec.After <= s.threshold {
			continue
		}
		rec.Source = source
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(errors.CodeIOFailure, fmt.Sprintf("failed to read %s", source), err)
	}

	return records, nil
}

// ScanFile scans a single file.
func (s *Scanner) ScanFile(ctx context.Context, path string) ([]model.HumongousRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.CodeIOFailure, fmt.Sprintf("failed to open %s", path), err)
	}
	defer f.Close()

	return s.Scan(ctx, filepath.Base(path), f)
}

// ScanPath scans path, which is either a file or a directory. Only files
// ending in .log, .log.gz or .log.zst are considered. A directory's files are
// scanned in parallel and their records concatenated in file name order; a
// file that cannot be read is logged and skipped.
func (s *Scanner) ScanPath(ctx context.Context, path string) ([]model.HumongousRecord, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrap(errors.CodeIOFailure, fmt.Sprintf("failed to stat %s", path), err)
	}

	if !info.IsDir() {
		if !isLogFile(info.Name()) {
			return []model.HumongousRecord{}, nil
		}
		return s.ScanFile(ctx, path)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, errors.Wrap(errors.CodeIOFailure, fmt.Sprintf("failed to list %s", path), err)
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !isLogFile(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(path, e.Name()))
	}
	sort.Strings(files)

	pool := parallel.NewWorkerPool[string, []model.HumongousRecord](
		parallel.DefaultPoolConfig().WithWorkers(s.workers).WithMetrics())
	results := pool.ExecuteFunc(ctx, files, s.ScanFile)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records := make([]model.HumongousRecord, 0)
	for _, res := range results {
		if res.Error != nil {
			s.logger.Warn("humongous: skipping %s: %v", res.Input, res.Error)
			continue
		}
		records = append(records, res.Result...)
	}

	m := pool.Metrics()
	s.logger.Debug("humongous: scanned %d files (%d failed) in %v", m.TotalTasks, m.FailedTasks, m.TotalDuration)
	return records, nil
}

func isLogFile(name string) bool {
	for _, ext := range []string{".log", ".log.gz", ".log.zst"} {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// Format renders a record as "cycle, before, after".
func Format(r model.HumongousRecord) string {
	return fmt.Sprintf("%d, %d, %d", r.Cycle, r.Before, r.After)
}
