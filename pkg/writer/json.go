// Package writer persists reports as JSON, optionally gzip-compressed.
package writer

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Writer encodes a value of type T to a stream.
type Writer[T any] interface {
	Write(data T, w io.Writer) error
}

// JSONWriter writes data as JSON.
type JSONWriter[T any] struct {
	// Indent is the indentation used for pretty printing.
	// Empty string means compact output.
	Indent string
}

// NewJSONWriter creates a new JSON writer with compact output.
func NewJSONWriter[T any]() *JSONWriter[T] {
	return &JSONWriter[T]{}
}

// NewPrettyJSONWriter creates a JSON writer with pretty printing.
func NewPrettyJSONWriter[T any]() *JSONWriter[T] {
	return &JSONWriter[T]{Indent: "  "}
}

// Write writes the data as JSON to w.
func (jw *JSONWriter[T]) Write(data T, w io.Writer) error {
	encoder := json.NewEncoder(w)
	if jw.Indent != "" {
		encoder.SetIndent("", jw.Indent)
	}
	return encoder.Encode(data)
}

// GzipWriter writes data as gzipped JSON.
type GzipWriter[T any] struct {
	// CompressionLevel is the gzip compression level (1-9).
	CompressionLevel int
}

// NewGzipWriter creates a new gzip writer with default compression.
func NewGzipWriter[T any]() *GzipWriter[T] {
	return &GzipWriter[T]{CompressionLevel: gzip.DefaultCompression}
}

// Write writes the data as gzipped JSON to w.
func (gw *GzipWriter[T]) Write(data T, w io.Writer) error {
	zw, err := gzip.NewWriterLevel(w, gw.CompressionLevel)
	if err != nil {
		return fmt.Errorf("failed to create gzip writer: %w", err)
	}

	if err := json.NewEncoder(zw).Encode(data); err != nil {
		zw.Close()
		return fmt.Errorf("failed to encode data: %w", err)
	}
	return zw.Close()
}

// ForPath picks the writer for path: gzipped JSON for a ".gz" suffix,
// pretty JSON otherwise.
func ForPath[T any](path string) Writer[T] {
	if strings.HasSuffix(path, ".gz") {
		return NewGzipWriter[T]()
	}
	return NewPrettyJSONWriter[T]()
}

// WriteFile encodes data to path with the writer chosen by ForPath. The file
// is written to a temporary name in the same directory and renamed into
// place, so readers never see a partial report.
func WriteFile[T any](data T, path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	tmpName := tmp.Name()

	if err := ForPath[T](path).Write(data, tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}
