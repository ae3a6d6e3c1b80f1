package output

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// RecordWriter is the interface export jobs write through.
type RecordWriter interface {
	Write(data json.RawMessage) error
	Close() error
}

// JSONLWriter writes JSON records as newline-delimited JSON (JSONL),
// optionally gzip-compressed. Safe for concurrent use.
type JSONLWriter struct {
	mu         sync.Mutex
	file       *os.File
	gzipWriter *gzip.Writer // nil if not compressing
	writer     *bufio.Writer

	writtenCount int
	closed       bool
}

// NewJSONLWriter creates a new JSONL writer at the specified path, creating
// parent directories as needed.
func NewJSONLWriter(path string, useGzip bool) (*JSONLWriter, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	var gzipWriter *gzip.Writer
	var baseWriter io.Writer = file
	if useGzip {
		gzipWriter = gzip.NewWriter(file)
		baseWriter = gzipWriter
	}

	return &JSONLWriter{
		file:       file,
		gzipWriter: gzipWriter,
		writer:     bufio.NewWriterSize(baseWriter, 64*1024),
	}, nil
}

// Write appends one record as a single JSONL line.
func (w *JSONLWriter) Write(data json.RawMessage) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return fmt.Errorf("writer is closed")
	}

	if _, err := w.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	if err := w.writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}

	w.writtenCount++
	return nil
}

// Written returns the number of records written so far.
func (w *JSONLWriter) Written() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writtenCount
}

// Close flushes buffers and closes the underlying file. Idempotent.
func (w *JSONLWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	if err := w.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}
	if w.gzipWriter != nil {
		if err := w.gzipWriter.Close(); err != nil {
			return fmt.Errorf("failed to finalize gzip stream: %w", err)
		}
	}
	return w.file.Close()
}

// FileManager hands out per-collection writers rooted in one output
// directory.
type FileManager struct {
	dir     string
	useGzip bool
}

// NewFileManager creates the output directory and returns a manager for it.
func NewFileManager(dir string, useGzip bool) (*FileManager, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &FileManager{dir: dir, useGzip: useGzip}, nil
}

// CollectionPath returns the output path for a named collection.
func (m *FileManager) CollectionPath(name string) string {
	filename := name + ".jsonl"
	if m.useGzip {
		filename += ".gz"
	}
	return filepath.Join(m.dir, filename)
}

// WriterFor opens the JSONL writer for a named collection.
func (m *FileManager) WriterFor(name string) (*JSONLWriter, error) {
	return NewJSONLWriter(m.CollectionPath(name), m.useGzip)
}
