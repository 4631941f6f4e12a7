package store

import (
	"context"
	"fmt"

	"agentchat/internal/logger"
)

// SelectSession makes a session current and ensures its message sequence is
// loaded. If the sequence is already cached the switch is instant and a
// background refresh is issued; otherwise the load happens in the foreground.
// Refresh results are applied by session key, so a user switching away before
// the refresh resolves still gets the right cache entry updated.
func (s *Store) SelectSession(ctx context.Context, id string) error {
	s.mu.Lock()
	_, cached := s.messages[id]
	s.current = id
	if !cached {
		s.loadingMessages = true
	}
	s.mu.Unlock()

	if cached {
		logger.Debug("Session selected from cache", "session_id", id)
		s.notify(id)
		s.spawn(func() { _ = s.refreshSession(ctx, id) })
		return nil
	}

	err := s.refreshSession(ctx, id)

	s.mu.Lock()
	s.loadingMessages = false
	s.mu.Unlock()

	if err != nil {
		return err
	}
	return nil
}

// refreshSession fetches a session's detail and replaces its cache entry
// wholesale, merging the metadata returned alongside into the registry entry.
// The replacement is keyed by id, not by the current pointer.
func (s *Store) refreshSession(ctx context.Context, id string) error {
	detail, err := s.backend.GetSession(ctx, id)
	if err != nil {
		s.setError(err)
		return fmt.Errorf("failed to load session %s: %w", id, err)
	}

	s.mu.Lock()
	// A stream in flight for this session owns the trailing messages; the
	// refreshed list predates them and must not clobber the provisional state.
	if hasStreamingMessage(s.messages[id]) {
		s.mu.Unlock()
		logger.Debug("Skipping cache replace during active stream", "session_id", id)
		return nil
	}
	s.messages[id] = detail.Messages
	s.mergeSessionLocked(detail.Session)
	sortSessions(s.sessions)
	s.mu.Unlock()

	logger.Debug("Session messages refreshed", "session_id", id, "count", len(detail.Messages))
	s.notify(id)
	return nil
}
