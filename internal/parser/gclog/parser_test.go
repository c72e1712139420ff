package gclog

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/g1heapviz/internal/parser"
	"github.com/g1heapviz/internal/testutil"
	"github.com/g1heapviz/pkg/compression"
	apperrors "github.com/g1heapviz/pkg/errors"
	"github.com/g1heapviz/pkg/model"
)

const legend = "Heap Regions: E=young(eden), S=young(survivor), O=old, HS=humongous(starts), HC=humongous(continues), CS=collection set, F=free"

// regionLine renders a region table row the way the JVM prints it.
func regionLine(cycle string, index int, used string, code string) string {
	prefix := "[0.152s][trace][gc,heap,region] "
	if cycle != "" {
		prefix += "GC(" + cycle + ") "
	}
	return fmt.Sprintf("%s|%4d|0x0000000680000000, 0x0000000680000000, 0x0000000680400000|%s|%s|  |TAMS 0x0000000680000000| PB 0x0000000680000000| Untracked",
		prefix, index, used, code)
}

func parse(t *testing.T, input string, opts ...parser.Option) []*model.HeapSnapshot {
	t.Helper()
	snapshots, err := NewParser(opts...).Parse(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	require.NotNil(t, snapshots)
	return snapshots
}

func TestParser_Parse_SampleLog(t *testing.T) {
	p := NewParser()
	snapshots, stats, err := p.ParseFile(context.Background(), testutil.GetTestDataPath(t, "sample_gc.log"))
	require.NoError(t, err)

	// Two cycles, each dumped before and after the pause.
	require.Len(t, snapshots, 4)
	assert.Equal(t, 4, stats.Snapshots)
	assert.Equal(t, 64, stats.Regions)
	assert.Zero(t, stats.SkippedLines)

	for i := 0; i < len(snapshots); i += 2 {
		assert.Equal(t, snapshots[i].Cycle, snapshots[i+1].Cycle)
		assert.NotEmpty(t, snapshots[i].Regions)
		assert.NotEmpty(t, snapshots[i+1].Regions)
	}

	before := snapshots[0]
	assert.Equal(t, 0, before.Cycle)
	assert.False(t, before.IsFullCollection)
	assert.Equal(t, "Pause Young (Normal) (G1 Evacuation Pause)", before.CollectionLabel)
	assert.Equal(t, 16, before.RegionCount())
	assert.Equal(t, 4, before.GridSize())
	assert.Equal(t, model.Metrics{External: 67, Internal: 12, Free: 56}, before.Metrics())

	after := snapshots[1]
	assert.Equal(t, "", after.CollectionLabel)
	assert.False(t, after.IsFullCollection)
	assert.Equal(t, 58, after.ExternalFragmentation())

	full := snapshots[2]
	assert.Equal(t, 1, full.Cycle)
	assert.True(t, full.IsFullCollection)
	assert.Equal(t, "Pause Full (System.gc())", full.CollectionLabel)
	assert.False(t, snapshots[3].IsFullCollection)
}

func TestParser_Parse_CrashLog(t *testing.T) {
	snapshots, err := ParseFile(context.Background(), testutil.GetTestDataPath(t, "jvm_crash.log"))
	require.NoError(t, err)

	require.Len(t, snapshots, 1)
	snap := snapshots[0]
	assert.Equal(t, 0, snap.Cycle)
	assert.Equal(t, 10, snap.RegionCount())
	assert.Equal(t, model.Region{Index: 2, Category: model.CategoryOld, OccupancyPercent: 87}, snap.Regions[2])

	m := snap.Metrics()
	assert.GreaterOrEqual(t, m.External, 0)
	assert.LessOrEqual(t, m.External, 100)
	assert.Equal(t, 30, m.Free)
}

func TestParser_Parse_EmptyInput(t *testing.T) {
	snapshots := parse(t, "")
	assert.Empty(t, snapshots)
}

func TestParser_Parse_NoRegionSection(t *testing.T) {
	input := `[0.010s][info][gc,init] Version: 21.0.2+13 (release)
[0.150s][info][gc,start    ] GC(0) Pause Young (Normal) (G1 Evacuation Pause)
[0.159s][info][gc          ] GC(0) Pause Young (Normal) (G1 Evacuation Pause) 12M->6M(64M) 8.512ms`

	assert.Empty(t, parse(t, input))
}

func TestParser_Parse_EmptySectionIsDiscarded(t *testing.T) {
	input := strings.Join([]string{
		"[0.152s][trace][gc,heap,region] GC(0) " + legend,
		"[0.153s][info][gc,phases] GC(0) Pre Evacuate Collection Set: 0.1ms",
		"[0.158s][trace][gc,heap,region] GC(0) " + legend,
		regionLine("0", 0, "  0%", " F"),
		"[0.159s][info][gc,heap] GC(0) Humongous regions: 0->0",
	}, "\n")

	snapshots := parse(t, input)
	require.Len(t, snapshots, 1)
	assert.Equal(t, 1, snapshots[0].RegionCount())
}

func TestParser_Parse_InvalidCategorySkipped(t *testing.T) {
	input := strings.Join([]string{
		"[0.152s][trace][gc,heap,region] GC(3) " + legend,
		regionLine("3", 0, "  0%", " F"),
		regionLine("3", 1, " 50%", " Q"),
		regionLine("3", 2, " 87%", " O"),
		"[0.159s][info][gc,heap] GC(3) Humongous regions: 0->0",
	}, "\n")

	logger := testutil.NewRecordingLogger()
	snapshots := parse(t, input, parser.WithLogger(logger))

	require.Len(t, snapshots, 1)
	snap := snapshots[0]
	require.Equal(t, 2, snap.RegionCount())
	assert.Equal(t, 0, snap.Regions[0].Index)
	assert.Equal(t, model.Region{Index: 2, Category: model.CategoryOld, OccupancyPercent: 87, Cycle: 3}, snap.Regions[1])
	assert.Equal(t, 3, snap.Cycle)
	assert.Len(t, logger.Messages("WARN"), 1)
}

func TestParser_Parse_StrictModeFailsOnInvalidCategory(t *testing.T) {
	input := strings.Join([]string{
		"[0.152s][trace][gc,heap,region] GC(3) " + legend,
		regionLine("3", 0, "  0%", " F"),
		regionLine("3", 1, " 50%", " Q"),
	}, "\n")

	_, err := NewParser(parser.WithStrictMode(true)).Parse(context.Background(), strings.NewReader(input))
	require.Error(t, err)
	assert.ErrorIs(t, err, parser.ErrInvalidRegionCategory)
	assert.Contains(t, err.Error(), "line 3")
	assert.True(t, apperrors.IsParseError(err))
}

func TestParser_Parse_MalformedIndexClosesSection(t *testing.T) {
	input := strings.Join([]string{
		"[0.152s][trace][gc,heap,region] GC(1) " + legend,
		regionLine("1", 0, "  0%", " F"),
		"[0.152s][trace][gc,heap,region] GC(1) | abc|0x0, 0x0, 0x0|  0%| F|  |TAMS 0x0| PB 0x0| Untracked",
		regionLine("1", 2, "  0%", " F"),
	}, "\n")

	logger := testutil.NewRecordingLogger()
	snapshots := parse(t, input, parser.WithLogger(logger))

	// The malformed row ends the section; the following row is outside any
	// section and is ignored.
	require.Len(t, snapshots, 1)
	assert.Equal(t, 1, snapshots[0].RegionCount())
	assert.Len(t, logger.Messages("WARN"), 1)
}

func TestParser_Parse_MissingCycleTokenDefaultsToZero(t *testing.T) {
	input := strings.Join([]string{
		legend,
		regionLine("", 0, " 10%", " E"),
		regionLine("", 1, "", " S"),
	}, "\n")

	snapshots := parse(t, input)
	require.Len(t, snapshots, 1)
	assert.Equal(t, 0, snapshots[0].Cycle)
	assert.Equal(t, 10, snapshots[0].Regions[0].OccupancyPercent)
	assert.Equal(t, 0, snapshots[0].Regions[1].OccupancyPercent)
}

func TestParser_Parse_TrailingSectionAfterSnapshotsIsDropped(t *testing.T) {
	// An unterminated section is only kept when it is the only one in the
	// log. Here a complete section precedes it, so its regions are dropped.
	input := strings.Join([]string{
		"[0.152s][trace][gc,heap,region] GC(0) " + legend,
		regionLine("0", 0, "  0%", " F"),
		"[0.159s][info][gc,heap] GC(0) Humongous regions: 0->0",
		"[0.300s][trace][gc,heap,region] GC(1) " + legend,
		regionLine("1", 0, " 10%", " E"),
		regionLine("1", 1, " 10%", " E"),
	}, "\n")

	snapshots, stats, err := NewParser().ParseWithStats(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	assert.Equal(t, 0, snapshots[0].Cycle)
	assert.Equal(t, 2, stats.DroppedRegions)
}

func TestParser_Parse_MetadataNeedsAdjacentCycleStart(t *testing.T) {
	input := strings.Join([]string{
		"[0.310s][info][gc,start    ] GC(7) Pause Full (System.gc())",
		"[0.311s][info][gc,task     ] GC(7) Using 8 workers of 8 for full compaction",
		"[0.312s][trace][gc,heap,region] GC(7) " + legend,
		regionLine("7", 0, "  0%", " F"),
		"[0.321s][info][gc          ] GC(7) Pause Full (System.gc()) 20M->12M(64M) 10.100ms",
	}, "\n")

	snapshots := parse(t, input)
	require.Len(t, snapshots, 1)
	assert.False(t, snapshots[0].IsFullCollection)
	assert.Empty(t, snapshots[0].CollectionLabel)
	assert.Equal(t, 7, snapshots[0].Cycle)
}

func TestParser_Parse_ClosingLineIsNotCycleStart(t *testing.T) {
	input := strings.Join([]string{
		"[0.310s][info][gc,start    ] GC(1) Pause Full (System.gc())",
		"[0.312s][trace][gc,heap,region] GC(1) " + legend,
		regionLine("1", 0, "  0%", " F"),
		"[0.320s][info][gc,heap     ] GC(1) Eden regions: 2->0(10)",
		"[0.320s][trace][gc,heap,region] GC(1) " + legend,
		regionLine("1", 0, " 40%", " O"),
		"[0.321s][info][gc          ] GC(1) Pause Full (System.gc()) 20M->12M(64M) 10.100ms",
	}, "\n")

	snapshots := parse(t, input)
	require.Len(t, snapshots, 2)
	assert.True(t, snapshots[0].IsFullCollection)
	assert.Equal(t, "Pause Full (System.gc())", snapshots[0].CollectionLabel)
	assert.False(t, snapshots[1].IsFullCollection)
	assert.Empty(t, snapshots[1].CollectionLabel)
}

func TestParser_Parse_SectionStartInsideSection(t *testing.T) {
	input := strings.Join([]string{
		"[0.310s][info][gc,start    ] GC(2) Pause Full (System.gc())",
		"[0.312s][trace][gc,heap,region] GC(2) " + legend,
		regionLine("2", 0, "  0%", " F"),
		"[0.313s][trace][gc,heap,region] GC(2) " + legend,
		regionLine("2", 1, " 60%", " O"),
		"[0.320s][info][gc,heap     ] GC(2) Eden regions: 0->0(10)",
	}, "\n")

	// A repeated start marker keeps the open section and its metadata; the
	// row above it carries no cycle start.
	snapshots := parse(t, input)
	require.Len(t, snapshots, 1)
	assert.Equal(t, 2, snapshots[0].RegionCount())
	assert.True(t, snapshots[0].IsFullCollection)
	assert.Equal(t, "Pause Full (System.gc())", snapshots[0].CollectionLabel)
}

func TestParser_Parse_NegativeIndexClosesSection(t *testing.T) {
	input := strings.Join([]string{
		"[0.152s][trace][gc,heap,region] GC(1) " + legend,
		regionLine("1", 0, "  0%", " F"),
		regionLine("1", -2, "  0%", " E"),
	}, "\n")

	logger := testutil.NewRecordingLogger()
	snapshots := parse(t, input, parser.WithLogger(logger))
	require.Len(t, snapshots, 1)
	require.Equal(t, 1, snapshots[0].RegionCount())
	assert.Equal(t, 0, snapshots[0].Regions[0].Index)
	assert.Len(t, logger.Messages("WARN"), 1)
}

func TestParser_Parse_CompressedLog(t *testing.T) {
	raw, err := os.ReadFile(testutil.GetTestDataPath(t, "sample_gc.log"))
	require.NoError(t, err)

	for _, typ := range []compression.Type{compression.TypeGzip, compression.TypeZstd} {
		t.Run(typ.String(), func(t *testing.T) {
			data := testutil.Compress(t, typ, string(raw))

			snapshots, stats, err := NewParser().ParseWithStats(context.Background(), bytes.NewReader(data))
			require.NoError(t, err)
			assert.Len(t, snapshots, 4)
			assert.Equal(t, 64, stats.Regions)
		})
	}
}

func TestParser_Parse_CorruptCompressedLog(t *testing.T) {
	_, err := NewParser().Parse(context.Background(), bytes.NewReader([]byte{0x1f, 0x8b, 0x08}))
	assert.True(t, apperrors.IsIOFailure(err))
}

func TestParser_Parse_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewParser().Parse(ctx, strings.NewReader("line\n"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseFile_NotFound(t *testing.T) {
	snapshots, err := ParseFile(context.Background(), filepath.Join(t.TempDir(), "missing.log"))
	require.Error(t, err)
	assert.Nil(t, snapshots)
	assert.Equal(t, apperrors.CodeIOFailure, apperrors.GetErrorCode(err))
	assert.True(t, apperrors.IsIOFailure(err))
}

func TestParser_Name(t *testing.T) {
	assert.Equal(t, "gclog", NewParser().Name())
}
