// Package parser defines the interfaces for parsing GC logs into heap snapshots.
package parser

import (
	"context"
	"io"

	"github.com/g1heapviz/pkg/model"
	"github.com/g1heapviz/pkg/utils"
)

// Parser is the interface for parsing GC logs.
type Parser interface {
	// Parse reads the whole log and returns its snapshots in log order.
	// It never returns a nil slice on success.
	Parse(ctx context.Context, reader io.Reader) ([]*model.HeapSnapshot, error)

	// Name returns the name of this parser.
	Name() string
}

// ParseOptions holds common parsing options.
type ParseOptions struct {
	// StrictMode aborts the parse on the first malformed region line
	// instead of skipping it.
	StrictMode bool

	// Logger receives diagnostics for skipped lines.
	Logger utils.Logger
}

// DefaultParseOptions returns default parsing options.
func DefaultParseOptions() *ParseOptions {
	return &ParseOptions{
		StrictMode: false,
		Logger:     &utils.NullLogger{},
	}
}

// Option configures ParseOptions.
type Option func(*ParseOptions)

// WithStrictMode enables or disables strict mode.
func WithStrictMode(strict bool) Option {
	return func(o *ParseOptions) {
		o.StrictMode = strict
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(l utils.Logger) Option {
	return func(o *ParseOptions) {
		if l != nil {
			o.Logger = l
		}
	}
}

// ApplyOptions builds ParseOptions from the defaults and opts.
func ApplyOptions(opts ...Option) *ParseOptions {
	o := DefaultParseOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}
