package utils

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// maxLineSize bounds one JSON line. Records are a few hundred bytes.
const maxLineSize = 1 << 20

// EncodeJSONLine renders v as one line of JSON followed by a newline, with
// non-ASCII text and HTML characters left as written.
func EncodeJSONLine(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// AppendJSONLine appends v as one line to a newline-delimited JSON file and
// returns the file size before the write, for use with TruncateFile. A
// previous line missing its newline is terminated first.
func AppendJSONLine(path string, v interface{}) (int64, error) {
	line, err := EncodeJSONLine(v)
	if err != nil {
		return 0, fmt.Errorf("failed to encode record: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return 0, fmt.Errorf("failed to create directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	prev := info.Size()

	if prev > 0 {
		last := make([]byte, 1)
		if _, err := f.ReadAt(last, prev-1); err != nil {
			return prev, fmt.Errorf("failed to read %s: %w", path, err)
		}
		if last[0] != '\n' {
			line = append([]byte("\n"), line...)
		}
	}

	if _, err := f.Write(line); err != nil {
		return prev, fmt.Errorf("failed to append to %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		return prev, fmt.Errorf("failed to sync %s: %w", path, err)
	}
	return prev, nil
}

// TruncateFile cuts path back to size. It undoes an AppendJSONLine.
func TruncateFile(path string, size int64) error {
	if err := os.Truncate(path, size); err != nil {
		return fmt.Errorf("failed to truncate %s: %w", path, err)
	}
	return nil
}

// ReadJSONLines calls fn for every non-blank line of a newline-delimited
// file, with 1-based line numbers. A missing file has no lines.
func ReadJSONLines(path string, fn func(lineNo int, line []byte) error) error {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return ScanJSONLines(f, fn)
}

// ScanJSONLines is ReadJSONLines over a reader.
func ScanJSONLines(r io.Reader, fn func(lineNo int, line []byte) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	n := 0
	for scanner.Scan() {
		n++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := fn(n, line); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// WriteJSONLines atomically replaces path with one JSON line per record.
func WriteJSONLines[T any](path string, records []T) error {
	var buf bytes.Buffer
	for i := range records {
		line, err := EncodeJSONLine(records[i])
		if err != nil {
			return fmt.Errorf("failed to encode record %d: %w", i, err)
		}
		buf.Write(line)
	}
	return WriteFileAtomic(path, buf.Bytes(), 0644)
}
