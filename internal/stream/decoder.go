package stream

import (
	"io"
	"strings"
)

// readBufferSize is the chunk size for reads off the response body.
const readBufferSize = 4096

// LineDecoder incrementally splits a byte stream into lines. Network reads do
// not align with line boundaries, so a trailing partial line is buffered
// across reads and only surfaced once its terminator arrives. A final
// unterminated line is surfaced at end-of-stream, since it can no longer grow.
type LineDecoder struct {
	r        io.Reader
	buf      []byte
	pending  []string
	leftover string
	eof      bool
}

// NewLineDecoder creates a line decoder reading from r.
func NewLineDecoder(r io.Reader) *LineDecoder {
	return &LineDecoder{
		r:   r,
		buf: make([]byte, readBufferSize),
	}
}

// Next returns the next complete line without its terminator. It returns
// io.EOF once the stream is exhausted, or the transport's read error.
func (d *LineDecoder) Next() (string, error) {
	for {
		if len(d.pending) > 0 {
			line := d.pending[0]
			d.pending = d.pending[1:]
			return strings.TrimSuffix(line, "\r"), nil
		}

		if d.eof {
			if d.leftover != "" {
				line := d.leftover
				d.leftover = ""
				return strings.TrimSuffix(line, "\r"), nil
			}
			return "", io.EOF
		}

		n, err := d.r.Read(d.buf)
		if n > 0 {
			data := d.leftover + string(d.buf[:n])
			lines := strings.Split(data, "\n")

			// The last element is either empty (data ended on a newline) or an
			// incomplete line; either way it waits for the next read.
			d.leftover = lines[len(lines)-1]
			d.pending = append(d.pending, lines[:len(lines)-1]...)
		}

		if err == io.EOF {
			d.eof = true
			continue
		}
		if err != nil {
			return "", err
		}
	}
}
