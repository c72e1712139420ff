package formatter

import (
	"bufio"
	"fmt"
	"io"

	"github.com/g1heapviz/pkg/model"
)

const csvHeader = "GC#, ext frag before GC, ext frag after GC, is full GC"

// CSVFormatter writes one row per collection followed by the averages.
//
//	GC#, ext frag before GC, ext frag after GC, is full GC
//	0, 67, 0, false
//	AVG frag before: 67
//	AVG frag after: 0
type CSVFormatter struct{}

// Name returns the format name.
func (f *CSVFormatter) Name() string {
	return "csv"
}

// Write renders the report to w.
func (f *CSVFormatter) Write(report *model.FragmentationReport, w io.Writer) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, csvHeader)
	for _, p := range report.Pairs {
		fmt.Fprintf(bw, "%d, %d, %d, %t\n", p.Cycle, p.Before.External, p.After.External, p.IsFull)
	}
	fmt.Fprintf(bw, "AVG frag before: %d\n", report.AvgBefore)
	fmt.Fprintf(bw, "AVG frag after: %d\n", report.AvgAfter)

	return bw.Flush()
}
