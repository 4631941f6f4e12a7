// Package chattypes defines the send pipeline state machine for the agentchat client.
// This file contains the states a message send moves through and the transient
// processing-phase labels reported by the backend while a reply streams in.
package chattypes

// SendState represents the current state of a message send in the store's
// send state machine.
type SendState int

const (
	// SendIdle - no send in flight
	SendIdle SendState = iota
	// SendAwaitingSession - a session is being created for the first message
	SendAwaitingSession
	// SendDispatching - the stream request is being issued
	SendDispatching
	// SendStreaming - the response body is being consumed event by event
	SendStreaming
	// SendCompleted - the stream ended and the assistant message was finalized
	SendCompleted
	// SendFailed - the transport failed and provisional messages were rolled back
	SendFailed
)

// String returns a human-readable representation of the send state.
func (s SendState) String() string {
	switch s {
	case SendIdle:
		return "Idle"
	case SendAwaitingSession:
		return "AwaitingSession"
	case SendDispatching:
		return "Dispatching"
	case SendStreaming:
		return "Streaming"
	case SendCompleted:
		return "Completed"
	case SendFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Terminal reports whether the state is one of the two end states.
func (s SendState) Terminal() bool {
	return s == SendCompleted || s == SendFailed
}

// Processing-phase labels carried by phase events. Phases are display metadata
// only; nothing in the client gates on them.
const (
	PhaseThinking    = "thinking"
	PhasePlanning    = "planning"
	PhaseExecuting   = "executing"
	PhaseSummarizing = "summarizing"
	PhaseResponding  = "responding"
)
