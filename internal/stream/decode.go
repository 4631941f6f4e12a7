package stream

import (
	"fmt"
	"io"
	"strings"

	"agentchat/internal/logger"
)

// Decode consumes a chat stream body and delivers its frames as typed events.
// The channel always ends with exactly one ClosedEvent and is then closed; a
// ClosedEvent with a non-nil Err signals transport failure, including the body
// read aborting because the request context was canceled. Decode takes
// ownership of the body and closes it.
func Decode(body io.ReadCloser) <-chan Event {
	events := make(chan Event, 16)

	go func() {
		defer close(events)
		defer func() { _ = body.Close() }()

		decoder := NewLineDecoder(body)
		for {
			line, err := decoder.Next()
			if err == io.EOF {
				logger.Debug("Chat stream ended")
				events <- ClosedEvent{}
				return
			}
			if err != nil {
				logger.Debug("Chat stream transport failed", "error", err)
				events <- ClosedEvent{Err: fmt.Errorf("stream read failed: %w", err)}
				return
			}

			if event, ok := parseFrame(strings.TrimSpace(line)); ok {
				events <- event
			}
		}
	}()

	return events
}
