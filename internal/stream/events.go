// Package stream decodes the chat streaming protocol: a chunked HTTP response
// body carrying newline-delimited frames, each a "data: "-prefixed JSON object
// with an event discriminator. The package turns raw bytes into typed events;
// applying them to session state is the store's job.
package stream

import (
	"encoding/json"
	"strings"

	"agentchat/internal/logger"
)

// dataPrefix marks a protocol frame. Lines without it (blank separators,
// comments) carry no events.
const dataPrefix = "data: "

// Event is one decoded frame from the chat stream, or the terminal close.
type Event interface {
	streamEvent()
}

// MessageEvent carries one content fragment of the assistant reply.
type MessageEvent struct {
	Chunk string
}

// PhaseEvent reports the backend's current processing phase. Display only.
type PhaseEvent struct {
	Phase string
}

// DoneEvent carries the server-assigned identifiers of the finalized messages.
type DoneEvent struct {
	AssistantMessageID string
	UserMessageID      string
}

// ErrorEvent is an in-band error report. It does not terminate the stream.
type ErrorEvent struct {
	Message string
}

// ClosedEvent is the terminal event: the transport reached end-of-stream.
// A non-nil Err means the transport failed rather than completing.
type ClosedEvent struct {
	Err error
}

func (MessageEvent) streamEvent() {}
func (PhaseEvent) streamEvent()   {}
func (DoneEvent) streamEvent()    {}
func (ErrorEvent) streamEvent()   {}
func (ClosedEvent) streamEvent()  {}

// frame is the wire form of a protocol frame.
type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// parseFrame decodes one complete line into an event. Lines that are not
// frames, and frames whose payload fails to parse, are dropped: a payload
// split across network reads must never kill the stream.
func parseFrame(line string) (Event, bool) {
	if !strings.HasPrefix(line, dataPrefix) {
		return nil, false
	}
	payload := strings.TrimPrefix(line, dataPrefix)

	var f frame
	if err := json.Unmarshal([]byte(payload), &f); err != nil {
		logger.Debug("Discarding malformed stream frame", "error", err)
		return nil, false
	}

	switch f.Event {
	case "message":
		var d struct {
			Chunk string `json:"chunk"`
		}
		if err := json.Unmarshal(f.Data, &d); err != nil {
			return nil, false
		}
		return MessageEvent{Chunk: d.Chunk}, true
	case "phase":
		var d struct {
			Phase string `json:"phase"`
		}
		if err := json.Unmarshal(f.Data, &d); err != nil {
			return nil, false
		}
		return PhaseEvent{Phase: d.Phase}, true
	case "done":
		var d struct {
			AssistantMessageID string `json:"assistant_message_id"`
			UserMessageID      string `json:"user_message_id"`
		}
		if err := json.Unmarshal(f.Data, &d); err != nil {
			return nil, false
		}
		return DoneEvent{AssistantMessageID: d.AssistantMessageID, UserMessageID: d.UserMessageID}, true
	case "error":
		var d struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(f.Data, &d); err != nil {
			return nil, false
		}
		return ErrorEvent{Message: d.Message}, true
	default:
		logger.Debug("Discarding frame with unknown event", "event", f.Event)
		return nil, false
	}
}
