package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/g1heapviz/internal/testutil"
	"github.com/g1heapviz/internal/webui"
	"github.com/g1heapviz/pkg/model"
)

var (
	sampleLog    = filepath.Join("..", "..", "..", "internal", "parser", "gclog", "testdata", "sample_gc.log")
	humongousDir = filepath.Join("..", "..", "..", "internal", "parser", "humongous", "testdata")
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	reportFormat, reportOutput, strictParse = "csv", "", false
	humongousThreshold, humongousWorkers = 0, 0
	for _, c := range rootCmd.Commands() {
		c.Flags().VisitAll(func(f *pflag.Flag) { f.Changed = false })
	}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "version dev")
	assert.Contains(t, out, "Go Version:")
}

func TestAnalyze_CSV(t *testing.T) {
	out, err := run(t, "analyze", sampleLog)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "GC#, ext frag before GC, ext frag after GC, is full GC", lines[0])
	assert.True(t, strings.HasPrefix(lines[3], "AVG frag before: "))
	assert.True(t, strings.HasPrefix(lines[4], "AVG frag after: "))
}

func TestAnalyze_JSONOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")

	_, err := run(t, "analyze", sampleLog, "--format", "json", "--output", path)
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var report model.FragmentationReport
	require.NoError(t, json.Unmarshal(raw, &report))
	assert.Equal(t, "sample_gc.log", report.Source)
	assert.Equal(t, 4, report.SnapshotCount)
	assert.Len(t, report.Pairs, 2)
}

func TestAnalyze_MissingFile(t *testing.T) {
	_, err := run(t, "analyze", filepath.Join(t.TempDir(), "missing.log"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IO_FAILURE")
}

func TestAnalyze_RequiresOneArgument(t *testing.T) {
	_, err := run(t, "analyze")
	assert.Error(t, err)
}

func TestHumongous(t *testing.T) {
	out, err := run(t, "humongous", humongousDir, "--threshold", "0")
	require.NoError(t, err)
	assert.NotEmpty(t, strings.TrimSpace(out))
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		assert.Len(t, strings.Split(line, ", "), 3, line)
	}
}

func TestPreload(t *testing.T) {
	logger := testutil.NewRecordingLogger()
	server := webui.NewServer(webui.Options{Logger: logger})

	preload(context.Background(), server, filepath.Join(t.TempDir(), "absent.log"), logger)
	assert.Contains(t, logger.Messages("ERROR")[0], "File not found")

	preload(context.Background(), server, sampleLog, logger)
	assert.Contains(t, logger.Messages("INFO"), "Loaded 4 heap snapshots")

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/graph/size", nil))
	assert.JSONEq(t, "4", rec.Body.String())
}
