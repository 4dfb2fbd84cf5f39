package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
)

// CSVWriter streams generation records into a CSV file, writing the header
// once on the first record.
type CSVWriter struct {
	file          *os.File
	headerWritten bool
}

// NewCSVWriter creates the stats CSV file at path, creating parent
// directories as needed. Returns nil (output disabled) if path is empty.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if path == "" {
		return nil, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating stats output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating stats CSV %s: %w", path, err)
	}
	return &CSVWriter{file: f}, nil
}

// Write appends one generation record. Safe to call on a nil writer.
func (w *CSVWriter) Write(stats GenerationStats) error {
	if w == nil {
		return nil
	}
	records := []*GenerationStats{&stats}
	if !w.headerWritten {
		w.headerWritten = true
		if err := gocsv.MarshalFile(&records, w.file); err != nil {
			return fmt.Errorf("writing stats CSV header record: %w", err)
		}
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(&records, w.file); err != nil {
		return fmt.Errorf("writing stats CSV record: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file. Safe to call on a nil writer.
func (w *CSVWriter) Close() error {
	if w == nil || w.file == nil {
		return nil
	}
	return w.file.Close()
}
