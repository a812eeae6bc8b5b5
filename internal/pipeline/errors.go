package pipeline

import (
	"errors"
	"fmt"

	"github.com/mkoziy/sparkify/loader/internal/discovery"
	"github.com/mkoziy/sparkify/loader/internal/sources/ndjson"
)

type (
	// DiscoveryError aborts a run before any file is read.
	DiscoveryError = discovery.DiscoveryError
	// ParseError fails a single file; the run moves on to the next one.
	ParseError = ndjson.ParseError
)

// LoadError reports rows of a file that could not be written. Nothing from
// the file is committed. Conn is set when the database connection itself was
// lost, which ends the run.
type LoadError struct {
	Path  string
	Table string
	Conn  bool
	Err   error
}

func (e *LoadError) Error() string {
	msg := fmt.Sprintf("load %s", e.Path)
	if e.Table != "" {
		msg += " into " + e.Table
	}
	if e.Conn {
		msg += " (connection lost)"
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// IsFatal reports whether err must stop the whole run.
func IsFatal(err error) bool {
	var derr *DiscoveryError
	if errors.As(err, &derr) {
		return true
	}
	var lerr *LoadError
	return errors.As(err, &lerr) && lerr.Conn
}
