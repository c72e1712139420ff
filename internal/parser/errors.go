package parser

import (
	"errors"

	"github.com/g1heapviz/pkg/model"
)

var (
	// ErrInvalidRegionCategory is returned when a region line carries an
	// unknown category code.
	ErrInvalidRegionCategory = model.ErrInvalidRegionCategory

	// ErrMalformedRegionLine is returned when a line has fewer than five
	// fields or a non-numeric region index.
	ErrMalformedRegionLine = errors.New("malformed region line")

	// ErrNotRegionLine is returned by strict decoding when a well-formed line
	// carries no category, such as a legend line.
	ErrNotRegionLine = errors.New("not a region line")
)

// ErrMalformedHumongousLine is returned when a "Humongous regions:" summary
// line does not carry a GC(n) token and a before->after pair.
var ErrMalformedHumongousLine = errors.New("malformed humongous summary line")
