// Package ndjson reads newline-delimited JSON files one record at a time.
package ndjson

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"iter"
	"os"
)

// maxLine bounds a single record.
const maxLine = 4 << 20

// ParseError reports a file that could not be opened or read, or a line that
// is not a JSON object of the expected shape.
type ParseError struct {
	Path string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("parse %s:%d: %v", e.Path, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Records yields one decoded value per non-blank line of the file at path.
// The file is opened when iteration starts and closed when it stops. On the
// first failure a *ParseError is yielded and iteration ends.
func Records[T any](path string) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T

		f, err := os.Open(path)
		if err != nil {
			yield(zero, &ParseError{Path: path, Err: err})
			return
		}
		defer func() {
			_ = f.Close()
		}()

		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLine)

		line := 0
		for scanner.Scan() {
			line++
			raw := bytes.TrimSpace(scanner.Bytes())
			if len(raw) == 0 {
				continue
			}

			var rec T
			if err := json.Unmarshal(raw, &rec); err != nil {
				yield(zero, &ParseError{Path: path, Line: line, Err: err})
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			yield(zero, &ParseError{Path: path, Line: line + 1, Err: err})
		}
	}
}

// ReadAll collects every record of the file, or returns the first error.
func ReadAll[T any](path string) ([]T, error) {
	var out []T
	for rec, err := range Records[T](path) {
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
