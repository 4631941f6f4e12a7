package stream

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunkReader yields its chunks one Read at a time, then the final error.
type chunkReader struct {
	chunks []string
	final  error
}

func (c *chunkReader) Read(p []byte) (int, error) {
	if len(c.chunks) == 0 {
		if c.final != nil {
			return 0, c.final
		}
		return 0, io.EOF
	}
	chunk := c.chunks[0]
	c.chunks = c.chunks[1:]
	n := copy(p, chunk)
	if n < len(chunk) {
		c.chunks = append([]string{chunk[n:]}, c.chunks...)
	}
	return n, nil
}

func readAllLines(t *testing.T, d *LineDecoder) []string {
	t.Helper()
	var lines []string
	for {
		line, err := d.Next()
		if err == io.EOF {
			return lines
		}
		require.NoError(t, err)
		lines = append(lines, line)
	}
}

func TestLineDecoder_SplitsCompleteLines(t *testing.T) {
	d := NewLineDecoder(strings.NewReader("one\ntwo\nthree\n"))
	assert.Equal(t, []string{"one", "two", "three"}, readAllLines(t, d))
}

func TestLineDecoder_BuffersPartialLineAcrossReads(t *testing.T) {
	// One frame split mid-line over three reads must come out as one line.
	d := NewLineDecoder(&chunkReader{chunks: []string{
		"data: {\"event\": \"mess",
		"age\", \"data\": {\"chunk\"",
		": \"Hi\"}}\n",
	}})

	lines := readAllLines(t, d)
	require.Len(t, lines, 1)
	assert.Equal(t, `data: {"event": "message", "data": {"chunk": "Hi"}}`, lines[0])
}

func TestLineDecoder_MultipleLinesInOneRead(t *testing.T) {
	d := NewLineDecoder(&chunkReader{chunks: []string{
		"a\nb\n\nc\npartial",
		"-rest\n",
	}})

	assert.Equal(t, []string{"a", "b", "", "c", "partial-rest"}, readAllLines(t, d))
}

func TestLineDecoder_UnterminatedFinalLine(t *testing.T) {
	d := NewLineDecoder(strings.NewReader("complete\ntrailing"))
	assert.Equal(t, []string{"complete", "trailing"}, readAllLines(t, d))
}

func TestLineDecoder_StripsCarriageReturn(t *testing.T) {
	d := NewLineDecoder(strings.NewReader("line one\r\nline two\r\n"))
	assert.Equal(t, []string{"line one", "line two"}, readAllLines(t, d))
}

func TestLineDecoder_PropagatesReadError(t *testing.T) {
	readErr := errors.New("connection reset")
	d := NewLineDecoder(&chunkReader{chunks: []string{"ok\n"}, final: readErr})

	line, err := d.Next()
	require.NoError(t, err)
	assert.Equal(t, "ok", line)

	_, err = d.Next()
	assert.ErrorIs(t, err, readErr)
}

func TestLineDecoder_EmptyStream(t *testing.T) {
	d := NewLineDecoder(strings.NewReader(""))
	_, err := d.Next()
	assert.Equal(t, io.EOF, err)
}
