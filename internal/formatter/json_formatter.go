package formatter

import (
	"io"

	"github.com/g1heapviz/pkg/model"
	"github.com/g1heapviz/pkg/writer"
)

// JSONFormatter writes the whole report as JSON.
type JSONFormatter struct {
	Indent string
}

// Name returns the format name.
func (f *JSONFormatter) Name() string {
	return "json"
}

// Write renders the report to w.
func (f *JSONFormatter) Write(report *model.FragmentationReport, w io.Writer) error {
	jw := writer.NewJSONWriter[*model.FragmentationReport]()
	jw.Indent = f.Indent
	return jw.Write(report, w)
}
