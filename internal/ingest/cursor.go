package ingest

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// lineCursor reads a stream line by line and can give back the last line it
// returned, which is all the lookahead the frame grammar needs. Lines have
// no length limit.
type lineCursor struct {
	reader     *bufio.Reader
	line       int
	pending    string
	hasPending bool
	err        error
}

func newLineCursor(r io.Reader) *lineCursor {
	return &lineCursor{reader: bufio.NewReaderSize(r, 64*1024)}
}

// next consumes one line without its "\n" or "\r\n". It returns io.EOF at
// the end of input, or the reader's error. A final line without a newline
// is still returned.
func (c *lineCursor) next() (string, error) {
	if c.hasPending {
		c.hasPending = false
		c.line++
		return c.pending, nil
	}
	if c.err != nil {
		return "", c.err
	}
	text, err := c.reader.ReadString('\n')
	if err != nil {
		c.err = err
		if !errors.Is(err, io.EOF) || text == "" {
			return "", err
		}
	}
	c.line++
	return dropLineEnd(text), nil
}

func dropLineEnd(text string) string {
	text = strings.TrimSuffix(text, "\n")
	return strings.TrimSuffix(text, "\r")
}

// unread gives back the line most recently returned by next. At most one
// line can be pending.
func (c *lineCursor) unread(line string) {
	if c.hasPending {
		panic("ingest: unread called twice without next")
	}
	c.pending = line
	c.hasPending = true
	c.line--
}

// peek returns the next line without consuming it.
func (c *lineCursor) peek() (string, error) {
	line, err := c.next()
	if err != nil {
		return "", err
	}
	c.unread(line)
	return line, nil
}

// consumed is the number of lines read so far.
func (c *lineCursor) consumed() int {
	return c.line
}
