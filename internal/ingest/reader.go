package ingest

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"

	"golang.org/x/exp/constraints"

	"clusterlog-go/internal/pathinfo"
	"clusterlog-go/internal/types"
)

// Reader is a Parser bound to a cluster log file, plus the file metadata
// gathered when it was opened.
type Reader[T constraints.Integer] struct {
	file     *os.File
	parser   *Parser[T]
	path     string
	source   string
	settings string
	size     int64
	lines    int
}

// Open checks that path is a non-empty regular file, counts its lines and
// returns a Reader positioned at the first line. Failures are *OpenError.
func Open[T constraints.Integer](path string, opts ...Option) (*Reader[T], error) {
	info, err := os.Stat(path)
	if err != nil {
		reason := err.Error()
		if errors.Is(err, fs.ErrNotExist) {
			reason = "does not exist"
		}
		return nil, &OpenError{Path: path, Reason: reason, Err: err}
	}
	if !info.Mode().IsRegular() {
		return nil, &OpenError{Path: path, Reason: "is not a regular file"}
	}
	if info.Size() == 0 {
		return nil, &OpenError{Path: path, Reason: "is empty"}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &OpenError{Path: path, Reason: err.Error(), Err: err}
	}
	lines, err := CountLines(f)
	if err != nil {
		_ = f.Close()
		return nil, &OpenError{Path: path, Reason: "counting lines: " + err.Error(), Err: err}
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		_ = f.Close()
		return nil, &OpenError{Path: path, Reason: err.Error(), Err: err}
	}

	source, settings := pathinfo.Labels(path)
	return &Reader[T]{
		file:     f,
		parser:   NewParser[T](f, opts...),
		path:     path,
		source:   source,
		settings: settings,
		size:     info.Size(),
		lines:    lines,
	}, nil
}

func (r *Reader[T]) HasMore() bool {
	if r.file == nil {
		return false
	}
	return r.parser.HasMore()
}

func (r *Reader[T]) Next() (types.Frame[T], error) {
	if r.file == nil {
		return types.Frame[T]{}, ErrClosed
	}
	return r.parser.Next()
}

// Line is the number of lines consumed so far.
func (r *Reader[T]) Line() int {
	return r.parser.Line()
}

// Close releases the file. It is safe to call more than once.
func (r *Reader[T]) Close() error {
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

func (r *Reader[T]) Path() string     { return r.path }
func (r *Reader[T]) Source() string   { return r.source }
func (r *Reader[T]) Settings() string { return r.settings }
func (r *Reader[T]) Size() int64      { return r.size }

// Lines is the total line count found when the file was opened.
func (r *Reader[T]) Lines() int { return r.lines }

// CountLines counts lines the way a line reader sees them: every '\n' ends a
// line, and trailing text without one is a line too.
func CountLines(r io.Reader) (int, error) {
	buf := make([]byte, 32*1024)
	count := 0
	var last byte = '\n'
	for {
		n, err := r.Read(buf)
		if n > 0 {
			count += bytes.Count(buf[:n], []byte{'\n'})
			last = buf[n-1]
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, err
		}
	}
	if last != '\n' {
		count++
	}
	return count, nil
}
