// Package export serializes parse results to newline-delimited JSON
// and reads them back. Writes go to a temporary file in the target
// directory and are renamed into place, so a failed run never leaves a
// half-written output file.
package export

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/specdex/specdex/internal/model"
)

const (
	// maxLineSize bounds a single JSONL record when reading back.
	maxLineSize = 4 * 1024 * 1024

	outputFilePerm = 0o640
)

// Writer emits output files for a parse run.
type Writer struct {
	dir string
}

// NewWriter creates a writer rooted at the output directory.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// WriteTOC writes one TOCEntry JSON object per line.
func (w *Writer) WriteTOC(filename string, entries []model.TOCEntry) error {
	return w.writeAtomic(filename, func(enc *json.Encoder) error {
		for i := range entries {
			if err := enc.Encode(&entries[i]); err != nil {
				return fmt.Errorf("failed to encode TOC entry %d: %w", i, err)
			}
		}
		return nil
	})
}

// WriteContent writes one ContentEntry JSON object per line.
func (w *Writer) WriteContent(filename string, entries []model.ContentEntry) error {
	return w.writeAtomic(filename, func(enc *json.Encoder) error {
		for i := range entries {
			if err := enc.Encode(&entries[i]); err != nil {
				return fmt.Errorf("failed to encode content entry %d: %w", i, err)
			}
		}
		return nil
	})
}

// writeAtomic writes through a temp file in the same directory and
// renames it over the target.
func (w *Writer) writeAtomic(filename string, write func(*json.Encoder) error) error {
	tmp, err := os.CreateTemp(w.dir, filename+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	cleanup := func() {
		tmp.Close()
		os.Remove(tmpPath)
	}

	bw := bufio.NewWriter(tmp)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)

	if err := write(enc); err != nil {
		cleanup()
		return err
	}
	if err := bw.Flush(); err != nil {
		cleanup()
		return fmt.Errorf("failed to flush output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, outputFilePerm); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set file mode: %w", err)
	}

	target := filepath.Join(w.dir, filename)
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace %s: %w", target, err)
	}
	return nil
}

// writeAtomicRaw writes pre-rendered bytes through a temp file.
func (w *Writer) writeAtomicRaw(filename string, data []byte) error {
	tmp, err := os.CreateTemp(w.dir, filename+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, outputFilePerm); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set file mode: %w", err)
	}

	target := filepath.Join(w.dir, filename)
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace %s: %w", target, err)
	}
	return nil
}

// ReadTOC loads TOCEntry records from a JSONL file. Malformed lines
// are skipped; the count of skipped lines is returned alongside.
func ReadTOC(path string) ([]model.TOCEntry, int, error) {
	var entries []model.TOCEntry
	skipped, err := readLines(path, func(line []byte) bool {
		var e model.TOCEntry
		if json.Unmarshal(line, &e) != nil {
			return false
		}
		entries = append(entries, e)
		return true
	})
	if err != nil {
		return nil, 0, err
	}
	return entries, skipped, nil
}

// ReadContent loads ContentEntry records from a JSONL file.
func ReadContent(path string) ([]model.ContentEntry, int, error) {
	var entries []model.ContentEntry
	skipped, err := readLines(path, func(line []byte) bool {
		var e model.ContentEntry
		if json.Unmarshal(line, &e) != nil {
			return false
		}
		entries = append(entries, e)
		return true
	})
	if err != nil {
		return nil, 0, err
	}
	return entries, skipped, nil
}

// readLines feeds non-blank lines to parse and counts rejected ones.
func readLines(path string, parse func([]byte) bool) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	skipped := 0
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if !parse(line) {
			skipped++
		}
	}
	if err := scanner.Err(); err != nil {
		return skipped, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return skipped, nil
}
