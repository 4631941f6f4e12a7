package stream

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// errReadCloser wraps a reader and records whether Close was called.
type errReadCloser struct {
	io.Reader
	closed bool
}

func (e *errReadCloser) Close() error {
	e.closed = true
	return nil
}

func collect(events <-chan Event) []Event {
	var out []Event
	for event := range events {
		out = append(out, event)
	}
	return out
}

func TestDecode_FullStream(t *testing.T) {
	body := strings.Join([]string{
		`data: {"event": "phase", "data": {"phase": "thinking"}}`,
		"",
		`data: {"event": "message", "data": {"chunk": "H"}}`,
		"",
		`data: {"event": "message", "data": {"chunk": "i"}}`,
		"",
		`data: {"event": "done", "data": {"assistant_message_id": "m-42", "user_message_id": "m-41"}}`,
		"",
		"",
	}, "\n")

	rc := &errReadCloser{Reader: strings.NewReader(body)}
	events := collect(Decode(rc))

	require.Len(t, events, 5)
	assert.Equal(t, PhaseEvent{Phase: "thinking"}, events[0])
	assert.Equal(t, MessageEvent{Chunk: "H"}, events[1])
	assert.Equal(t, MessageEvent{Chunk: "i"}, events[2])
	assert.Equal(t, DoneEvent{AssistantMessageID: "m-42", UserMessageID: "m-41"}, events[3])
	assert.Equal(t, ClosedEvent{}, events[4])
	assert.True(t, rc.closed, "Decode should close the body")
}

func TestDecode_FrameSplitAcrossReads(t *testing.T) {
	reader := &chunkReader{chunks: []string{
		"data: {\"event\": \"message\", \"data\"",
		": {\"chunk\": \"Hello\"}}\n\ndata: {\"event\": \"done\", ",
		"\"data\": {\"assistant_message_id\": \"m-1\"}}\n\n",
	}}

	events := collect(Decode(io.NopCloser(reader)))
	require.Len(t, events, 3)
	assert.Equal(t, MessageEvent{Chunk: "Hello"}, events[0])
	assert.Equal(t, DoneEvent{AssistantMessageID: "m-1"}, events[1])
	assert.Equal(t, ClosedEvent{}, events[2])
}

func TestDecode_InBandErrorDoesNotTerminate(t *testing.T) {
	body := strings.Join([]string{
		`data: {"event": "error", "data": {"message": "LLM hiccup"}}`,
		`data: {"event": "message", "data": {"chunk": "still going"}}`,
		"",
	}, "\n")

	events := collect(Decode(io.NopCloser(strings.NewReader(body))))
	require.Len(t, events, 3)
	assert.Equal(t, ErrorEvent{Message: "LLM hiccup"}, events[0])
	assert.Equal(t, MessageEvent{Chunk: "still going"}, events[1])
	assert.Equal(t, ClosedEvent{}, events[2])
}

func TestDecode_TransportFailure(t *testing.T) {
	readErr := errors.New("connection reset by peer")
	reader := &chunkReader{
		chunks: []string{"data: {\"event\": \"message\", \"data\": {\"chunk\": \"Hel\"}}\n"},
		final:  readErr,
	}

	events := collect(Decode(io.NopCloser(reader)))
	require.Len(t, events, 2)
	assert.Equal(t, MessageEvent{Chunk: "Hel"}, events[0])

	closed, ok := events[1].(ClosedEvent)
	require.True(t, ok)
	require.Error(t, closed.Err)
	assert.ErrorIs(t, closed.Err, readErr)
}

func TestDecode_MalformedFramesAreSkipped(t *testing.T) {
	body := strings.Join([]string{
		`data: {"event": "message", "data": {"chu`,
		`data: {"event": "message", "data": {"chunk": "ok"}}`,
		"",
	}, "\n")

	events := collect(Decode(io.NopCloser(strings.NewReader(body))))
	require.Len(t, events, 2)
	assert.Equal(t, MessageEvent{Chunk: "ok"}, events[0])
	assert.Equal(t, ClosedEvent{}, events[1])
}
