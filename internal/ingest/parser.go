package ingest

import (
	"errors"
	"io"
	"strings"

	"golang.org/x/exp/constraints"

	"clusterlog-go/internal/types"
)

type state int

const (
	stateExpectHeader state = iota
	stateExpectClusterOrEnd
	stateEndOfStream
)

func (s state) String() string {
	switch s {
	case stateExpectHeader:
		return "expect-header"
	case stateExpectClusterOrEnd:
		return "expect-cluster-or-end"
	case stateEndOfStream:
		return "end-of-stream"
	default:
		return "unknown"
	}
}

type options struct {
	strict bool
	logf   func(format string, v ...any)
}

type Option func(*options)

// WithStrict rejects headers and cluster lines whose numbers are not well
// formed instead of reading them as 0.
func WithStrict(strict bool) Option {
	return func(o *options) { o.strict = strict }
}

// WithLogf sets the diagnostic logger. Nil mutes it.
func WithLogf(logf func(format string, v ...any)) Option {
	return func(o *options) { o.logf = logf }
}

// Parser assembles Frames from a cluster log stream, one frame per call to
// Next. A Parser is bound to one stream and is not safe for concurrent use.
type Parser[T constraints.Integer] struct {
	cur    *lineCursor
	state  state
	seq    uint
	strict bool
	logf   func(format string, v ...any)
	err    error
}

func NewParser[T constraints.Integer](r io.Reader, opts ...Option) *Parser[T] {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logf == nil {
		o.logf = func(string, ...any) {}
	}
	return &Parser[T]{
		cur:    newLineCursor(r),
		state:  stateExpectHeader,
		strict: o.strict,
		logf:   o.logf,
	}
}

// HasMore reports whether another call to Next may yield a frame. A pending
// read error counts as more, so that Next can report it.
func (p *Parser[T]) HasMore() bool {
	if p.err != nil || p.state == stateEndOfStream {
		return false
	}
	_, err := p.cur.peek()
	return !errors.Is(err, io.EOF)
}

// Line is the number of lines consumed so far.
func (p *Parser[T]) Line() int {
	return p.cur.consumed()
}

// Next reads one frame: a header line, then cluster lines up to and
// including the first line that is not one. It returns ErrEndOfStream when
// the input is exhausted. A missing header, a read error, or (in strict
// mode) a malformed cluster line is fatal and returned by every later call.
func (p *Parser[T]) Next() (types.Frame[T], error) {
	if p.err != nil {
		return types.Frame[T]{}, p.err
	}
	if !p.HasMore() {
		p.state = stateEndOfStream
		return types.Frame[T]{}, ErrEndOfStream
	}

	frame, err := p.readHeader()
	if err != nil {
		return types.Frame[T]{}, p.fail(err)
	}

	for {
		line, err := p.cur.next()
		if errors.Is(err, io.EOF) {
			p.state = stateExpectHeader
			return frame, nil
		}
		if err != nil {
			return types.Frame[T]{}, p.fail(&IOError{Line: p.cur.consumed(), Err: err})
		}

		cluster, ok := p.parseCluster(line)
		if !ok {
			if p.strict && strings.IndexByte(line, clusterOpen) >= 0 {
				return types.Frame[T]{}, p.fail(&MalformedClusterError{Line: p.cur.consumed()})
			}
			// The first non-cluster line terminates the frame and is dropped.
			p.state = stateExpectHeader
			return frame, nil
		}
		p.seq++
		frame.SetPixel(p.seq, cluster.Pixel())
	}
}

func (p *Parser[T]) readHeader() (types.Frame[T], error) {
	p.state = stateExpectHeader
	line, err := p.cur.next()
	if err != nil {
		return types.Frame[T]{}, &IOError{Line: p.cur.consumed(), Err: err}
	}
	header, ok := p.parseHeader(line)
	if !ok {
		lineNumber := p.cur.consumed()
		p.cur.unread(line)
		p.logf("ingest: no frame header at line %d: %q", lineNumber, line)
		return types.Frame[T]{}, &MalformedHeaderError{Line: lineNumber}
	}
	p.state = stateExpectClusterOrEnd
	p.seq = 0
	return types.NewFrame[T](header.CaptureTime, header.RunningTime), nil
}

func (p *Parser[T]) parseHeader(line string) (Header, bool) {
	if p.strict {
		return ParseHeaderStrict(line)
	}
	return ParseHeader(line)
}

func (p *Parser[T]) parseCluster(line string) (Cluster[T], bool) {
	if p.strict {
		return ParseClusterStrict[T](line)
	}
	return ParseCluster[T](line)
}

func (p *Parser[T]) fail(err error) error {
	p.err = err
	p.state = stateEndOfStream
	return err
}
