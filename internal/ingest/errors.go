package ingest

import (
	"errors"
	"fmt"
)

var (
	// ErrEndOfStream is returned by Next once every frame has been read. It
	// is the normal end of iteration, not a failure.
	ErrEndOfStream      = errors.New("end of stream")
	ErrMalformedHeader  = errors.New("malformed frame header")
	ErrMalformedCluster = errors.New("malformed cluster line")
	ErrOpen             = errors.New("cannot open cluster log")
	ErrClosed           = errors.New("cluster log is closed")
)

// OpenError reports why a cluster log could not be opened.
type OpenError struct {
	Path   string
	Reason string
	Err    error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("open %s: %s", e.Path, e.Reason)
}

func (e *OpenError) Is(target error) bool { return target == ErrOpen }
func (e *OpenError) Unwrap() error        { return e.Err }

// MalformedHeaderError is returned when a frame does not start with a header
// line. Line is 1-based.
type MalformedHeaderError struct {
	Line int
}

func (e *MalformedHeaderError) Error() string {
	return fmt.Sprintf("malformed data file: missing meta-data string at line %d", e.Line)
}

func (e *MalformedHeaderError) Is(target error) bool { return target == ErrMalformedHeader }

// MalformedClusterError is only produced in strict mode.
type MalformedClusterError struct {
	Line int
}

func (e *MalformedClusterError) Error() string {
	return fmt.Sprintf("malformed cluster data at line %d", e.Line)
}

func (e *MalformedClusterError) Is(target error) bool { return target == ErrMalformedCluster }

// IOError wraps a failure of the underlying reader.
type IOError struct {
	Line int
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("read error after line %d: %v", e.Line, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }
