package gclog

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/g1heapviz/internal/parser"
	"github.com/g1heapviz/pkg/model"
)

const (
	// sectionStartMarker opens a region listing, e.g.
	// [0.152s][trace][gc,heap,region] GC(0) Heap Regions: E=young(eden), S=young(survivor), ...
	sectionStartMarker = "Heap Regions:"

	// cycleStartMarker tags the line announcing a new collection, e.g.
	// [0.150s][info][gc,start] GC(0) Pause Young (Normal) (G1 Evacuation Pause)
	cycleStartMarker = "gc,start"

	// fullCollectionMarker distinguishes a full collection on a cycle start line.
	fullCollectionMarker = "Full"

	fieldSeparator = "|"
	minFields      = 5
)

// cycleTokenRegex matches the GC(<n>) token carried by every cycle-scoped line.
var cycleTokenRegex = regexp.MustCompile(`GC\((\d+)\)`)

// LineKind classifies one log line for the parser state machine.
type LineKind int

const (
	// LineOther is any line that is neither a section start nor a region
	// record. Inside a section it closes the section.
	LineOther LineKind = iota
	// LineSectionStart opens a region listing.
	LineSectionStart
	// LineRegionRecord is a decoded region.
	LineRegionRecord
	// LineRejectedRecord is a region record whose category code is unknown.
	// It is skipped without closing the section.
	LineRejectedRecord
)

// String returns the string representation of LineKind.
func (k LineKind) String() string {
	switch k {
	case LineOther:
		return "other"
	case LineSectionStart:
		return "section_start"
	case LineRegionRecord:
		return "region"
	case LineRejectedRecord:
		return "rejected"
	default:
		return "unknown"
	}
}

// Line is the classification of one raw line.
type Line struct {
	Kind   LineKind
	Region model.Region
	// Err explains why a line that looked like a region record was not
	// decoded. It is nil for lines that simply are not region records.
	Err error
}

// Classify decides what role a raw line plays in the log.
func Classify(raw string) Line {
	if strings.Contains(raw, sectionStartMarker) {
		return Line{Kind: LineSectionStart}
	}

	parts := strings.Split(raw, fieldSeparator)
	if len(parts) < minFields {
		return Line{Kind: LineOther}
	}

	index, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || index < 0 {
		return Line{Kind: LineOther, Err: fmt.Errorf("%w: invalid index %q", parser.ErrMalformedRegionLine, parts[1])}
	}

	code := strings.TrimSpace(parts[4])
	if code == "" {
		return Line{Kind: LineOther}
	}

	category, err := model.ParseCategory(code)
	if err != nil {
		return Line{Kind: LineRejectedRecord, Err: fmt.Errorf("region %d: %w", index, err)}
	}

	return Line{
		Kind: LineRegionRecord,
		Region: model.Region{
			Index:            index,
			Category:         category,
			OccupancyPercent: model.ParseOccupancy(parts[3]),
			Cycle:            cycleNumber(parts[0]),
		},
	}
}

// DecodeRegionLine decodes a single region line, failing on anything that is
// not a well-formed region record.
func DecodeRegionLine(raw string) (model.Region, error) {
	line := Classify(raw)
	switch line.Kind {
	case LineRegionRecord:
		return line.Region, nil
	case LineRejectedRecord:
		return model.Region{}, line.Err
	case LineSectionStart:
		return model.Region{}, parser.ErrNotRegionLine
	default:
		if line.Err != nil {
			return model.Region{}, line.Err
		}
		if len(strings.Split(raw, fieldSeparator)) < minFields {
			return model.Region{}, fmt.Errorf("%w: fewer than %d fields", parser.ErrMalformedRegionLine, minFields)
		}
		return model.Region{}, parser.ErrNotRegionLine
	}
}

// cycleNumber extracts n from a GC(n) token. Crash dumps carry no cycle
// context, in which case the cycle is 0.
func cycleNumber(field string) int {
	m := cycleTokenRegex.FindStringSubmatch(field)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

// cycleMetadata reads the full-collection flag and the sub-phase label from a
// cycle start line. ok is false when the line does not start a cycle.
func cycleMetadata(line string) (isFull bool, label string, ok bool) {
	if !strings.Contains(line, cycleStartMarker) {
		return false, "", false
	}

	isFull = strings.Contains(line, fullCollectionMarker)

	if loc := cycleTokenRegex.FindStringIndex(line); loc != nil {
		label = strings.TrimSpace(line[loc[1]:])
	} else if i := strings.Index(line, ")"); i >= 0 {
		label = strings.TrimSpace(line[i+1:])
	}

	return isFull, label, true
}
