package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"agentchat/internal/logger"
	"agentchat/internal/stream"
	"agentchat/pkg/chattypes"
)

const (
	// provisionalPrefix marks client-assigned message ids awaiting promotion.
	provisionalPrefix = "local-"

	// titleMessageThreshold is the session size at or below which a completed
	// send schedules title generation.
	titleMessageThreshold = 2

	// titleGenerationDelay debounces title generation against the user
	// immediately typing a follow-up.
	titleGenerationDelay = 2 * time.Second
)

// ErrSendInProgress is returned when a send is attempted while another is
// still streaming.
var ErrSendInProgress = errors.New("a message send is already in progress")

// SendMessage runs one user turn: it appends a provisional user message and an
// assistant placeholder, opens the chat stream, applies its events to the
// placeholder, and finalizes or rolls back when the transport closes. Blocks
// until the stream finishes; cancel ctx to abort, which takes the failure path.
func (s *Store) SendMessage(ctx context.Context, text string) error {
	s.mu.Lock()
	if s.sending {
		s.mu.Unlock()
		return ErrSendInProgress
	}
	s.sending = true
	s.sendState = chattypes.SendIdle
	sessionID := s.current
	s.mu.Unlock()

	// First message of a fresh conversation: create the session synchronously.
	if sessionID == "" {
		s.setSendState(chattypes.SendAwaitingSession)
		session, err := s.CreateSession(ctx, "New Chat")
		if err != nil {
			s.finishSend(chattypes.SendFailed)
			return err
		}
		sessionID = session.ID
	}

	assistantID := s.appendProvisionalPair(sessionID, text)
	s.notify(sessionID)

	s.setSendState(chattypes.SendDispatching)
	logger.Debug("Opening chat stream", "session_id", sessionID)

	body, err := s.backend.OpenChatStream(ctx, sessionID, text)
	if err != nil {
		s.rollbackProvisional(sessionID)
		s.setError(err)
		s.finishSend(chattypes.SendFailed)
		s.notify(sessionID)
		return fmt.Errorf("failed to open chat stream: %w", err)
	}

	s.setSendState(chattypes.SendStreaming)

	var (
		buf           strings.Builder
		doneAssistant string
		doneUser      string
		transportErr  error
	)

	for event := range stream.Decode(body) {
		switch e := event.(type) {
		case stream.MessageEvent:
			// Each event republishes the full accumulated content, so a
			// consumer reading between events never sees a partial append.
			buf.WriteString(e.Chunk)
			s.setStreamingContent(sessionID, buf.String())
		case stream.PhaseEvent:
			s.setPhase(e.Phase)
			s.notify(sessionID)
		case stream.DoneEvent:
			doneAssistant = e.AssistantMessageID
			doneUser = e.UserMessageID
		case stream.ErrorEvent:
			// Informational unless the transport itself gives out.
			s.setError(errors.New(e.Message))
		case stream.ClosedEvent:
			transportErr = e.Err
		}
	}

	if transportErr != nil {
		s.rollbackProvisional(sessionID)
		s.setError(transportErr)
		s.finishSend(chattypes.SendFailed)
		s.notify(sessionID)
		logger.Error("Chat stream failed", "session_id", sessionID, "error", transportErr)
		return fmt.Errorf("chat stream failed: %w", transportErr)
	}

	messageCount := s.finalizeStream(sessionID, assistantID, doneAssistant, doneUser)
	s.finishSend(chattypes.SendCompleted)
	s.notify(sessionID)

	logger.Debug("Chat stream completed", "session_id", sessionID, "messages", messageCount)

	// Fresh conversations get a semantic title shortly after the first
	// exchange; the delay debounces against immediate further typing.
	if messageCount > 0 && messageCount <= titleMessageThreshold {
		s.schedule(titleGenerationDelay, func() {
			s.GenerateTitle(context.Background(), sessionID)
		})
	}
	s.spawn(func() { _ = s.RefreshSessions(context.Background()) })

	return nil
}

// appendProvisionalPair atomically appends the user's message and the
// assistant placeholder to a session's cached sequence and returns the
// placeholder's provisional id.
func (s *Store) appendProvisionalPair(sessionID, text string) string {
	now := s.now()
	userMsg := chattypes.Message{
		ID:        provisionalPrefix + s.newID(),
		Role:      chattypes.RoleUser,
		Content:   text,
		CreatedAt: now,
	}
	placeholder := chattypes.Message{
		ID:          provisionalPrefix + s.newID(),
		Role:        chattypes.RoleAssistant,
		CreatedAt:   now,
		IsStreaming: true,
	}

	s.mu.Lock()
	cached := s.messages[sessionID]
	next := make([]chattypes.Message, 0, len(cached)+2)
	next = append(next, cached...)
	next = append(next, userMsg, placeholder)
	s.messages[sessionID] = next
	s.mu.Unlock()

	return placeholder.ID
}

// setStreamingContent overwrites the trailing streaming message's content with
// the full accumulated buffer and republishes the sequence.
func (s *Store) setStreamingContent(sessionID, content string) {
	s.mu.Lock()
	cached := s.messages[sessionID]
	idx := streamingIndex(cached)
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	next := make([]chattypes.Message, len(cached))
	copy(next, cached)
	next[idx].Content = content
	s.messages[sessionID] = next
	s.mu.Unlock()

	s.notify(sessionID)
}

// finalizeStream clears the streaming flag on the trailing message and
// promotes provisional ids to the server-assigned ones captured from the done
// event. Applying it twice is a no-op: once the flag is cleared there is
// nothing left to finalize. Returns the session's message count.
func (s *Store) finalizeStream(sessionID, assistantID, doneAssistant, doneUser string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cached := s.messages[sessionID]
	idx := streamingIndex(cached)
	if idx < 0 {
		return len(cached)
	}

	next := make([]chattypes.Message, len(cached))
	copy(next, cached)
	next[idx].IsStreaming = false
	if doneAssistant != "" && next[idx].ID == assistantID {
		next[idx].ID = doneAssistant
	}
	if doneUser != "" && idx > 0 && strings.HasPrefix(next[idx-1].ID, provisionalPrefix) {
		next[idx-1].ID = doneUser
	}
	s.messages[sessionID] = next
	return len(next)
}

// rollbackProvisional strips every provisional message from a session's
// cached sequence, restoring the exact pre-send state.
func (s *Store) rollbackProvisional(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cached := s.messages[sessionID]
	next := make([]chattypes.Message, 0, len(cached))
	for _, msg := range cached {
		if strings.HasPrefix(msg.ID, provisionalPrefix) {
			continue
		}
		next = append(next, msg)
	}
	s.messages[sessionID] = next
}

// finishSend clears the per-send transient state on every exit path.
func (s *Store) finishSend(state chattypes.SendState) {
	s.mu.Lock()
	s.sending = false
	s.phase = ""
	s.sendState = state
	s.mu.Unlock()
}

// streamingIndex returns the index of the streaming message in a sequence, or
// -1. By invariant it is the last element and there is at most one.
func streamingIndex(messages []chattypes.Message) int {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].IsStreaming {
			return i
		}
	}
	return -1
}

// hasStreamingMessage reports whether a sequence contains an in-flight
// assistant message.
func hasStreamingMessage(messages []chattypes.Message) bool {
	return streamingIndex(messages) >= 0
}
