package store

import (
	"context"
	"fmt"
	"sort"

	"agentchat/internal/api"
	"agentchat/internal/logger"
	"agentchat/pkg/chattypes"
)

// RefreshSessions fetches the first page of session summaries and replaces the
// local list wholesale. On failure the previous list stays intact and the
// error is recorded.
func (s *Store) RefreshSessions(ctx context.Context) error {
	s.mu.Lock()
	s.loadingSessions = true
	s.mu.Unlock()

	list, err := s.backend.ListSessions(ctx, 1, s.pageSize)

	s.mu.Lock()
	s.loadingSessions = false
	if err != nil {
		s.lastErr = err
		s.mu.Unlock()
		logger.Error("Session list refresh failed", "error", err)
		return fmt.Errorf("failed to refresh sessions: %w", err)
	}
	s.sessions = activeSessions(list.Sessions)
	s.hasMore = list.HasMore
	sortSessions(s.sessions)
	s.mu.Unlock()

	logger.Debug("Session list refreshed", "count", len(list.Sessions))
	s.notify("")
	return nil
}

// CreateSession remote-creates a session, prepends it to the local list, and
// makes it current. The created session is returned for navigation; failures
// are recorded and returned.
func (s *Store) CreateSession(ctx context.Context, title string) (*chattypes.Session, error) {
	session, err := s.backend.CreateSession(ctx, api.SessionCreate{Title: title})
	if err != nil {
		s.setError(err)
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.mu.Lock()
	s.sessions = append([]chattypes.Session{*session}, s.sessions...)
	sortSessions(s.sessions)
	s.current = session.ID
	if _, ok := s.messages[session.ID]; !ok {
		s.messages[session.ID] = nil
	}
	s.mu.Unlock()

	logger.Debug("Session created", "session_id", session.ID)
	s.notify(session.ID)
	return session, nil
}

// UpdateSession remote-patches a session and merges the returned fields into
// the matching local entry. Metadata edits are not applied optimistically:
// failure leaves local state unchanged.
func (s *Store) UpdateSession(ctx context.Context, id string, patch api.SessionPatch) error {
	updated, err := s.backend.UpdateSession(ctx, id, patch)
	if err != nil {
		s.setError(err)
		return fmt.Errorf("failed to update session: %w", err)
	}

	s.mu.Lock()
	s.mergeSessionLocked(*updated)
	sortSessions(s.sessions)
	s.mu.Unlock()

	logger.StoreOperation("update", "session_id", id)
	s.notify("")
	return nil
}

// RenameSession is a convenience wrapper over UpdateSession for title edits.
func (s *Store) RenameSession(ctx context.Context, id, title string) error {
	return s.UpdateSession(ctx, id, api.SessionPatch{Title: &title})
}

// DeleteSession remote-deletes a session, drops it from the list, purges its
// message cache entry, and clears the current pointer if it matched.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	if err := s.backend.DeleteSession(ctx, id); err != nil {
		s.setError(err)
		return fmt.Errorf("failed to delete session: %w", err)
	}

	s.mu.Lock()
	s.removeSessionLocked(id)
	s.mu.Unlock()

	logger.Debug("Session deleted", "session_id", id)
	s.notify(id)
	return nil
}

// TogglePin flips a session's pinned flag on the backend, applies the returned
// flag locally, and re-sorts the list by the pin/recency rule.
func (s *Store) TogglePin(ctx context.Context, id string) error {
	updated, err := s.backend.TogglePin(ctx, id)
	if err != nil {
		s.setError(err)
		return fmt.Errorf("failed to toggle pin: %w", err)
	}

	s.mu.Lock()
	s.mergeSessionLocked(*updated)
	sortSessions(s.sessions)
	s.mu.Unlock()

	logger.StoreOperation("toggle-pin", "session_id", id, "pinned", updated.IsPinned)
	s.notify("")
	return nil
}

// ArchiveSession remote-archives a session and removes it from the active
// list; archived sessions are not retained locally.
func (s *Store) ArchiveSession(ctx context.Context, id string) error {
	if _, err := s.backend.ArchiveSession(ctx, id); err != nil {
		s.setError(err)
		return fmt.Errorf("failed to archive session: %w", err)
	}

	s.mu.Lock()
	s.removeSessionLocked(id)
	s.mu.Unlock()

	logger.Debug("Session archived", "session_id", id)
	s.notify(id)
	return nil
}

// ExportSession fetches the full transcript payload for external download.
// Pure read: no local mutation, and failures propagate without touching the
// error slot.
func (s *Store) ExportSession(ctx context.Context, id string) (*api.ExportedSession, error) {
	exported, err := s.backend.ExportSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to export session: %w", err)
	}
	return exported, nil
}

// GenerateTitle asks the backend for a semantic title and merges the result
// into the matching registry entry. Title generation is best-effort: failures
// only clear the loading flag and never reach the error slot.
func (s *Store) GenerateTitle(ctx context.Context, id string) {
	s.mu.Lock()
	s.generatingTitle = true
	s.mu.Unlock()

	generated, err := s.backend.GenerateTitle(ctx, id)

	s.mu.Lock()
	s.generatingTitle = false
	if err != nil {
		s.mu.Unlock()
		logger.Debug("Title generation failed", "session_id", id, "error", err)
		return
	}
	for i := range s.sessions {
		if s.sessions[i].ID == id {
			s.sessions[i].Title = generated.Title
			if generated.Description != "" {
				s.sessions[i].Description = generated.Description
			}
			break
		}
	}
	s.mu.Unlock()

	logger.Debug("Title generated", "session_id", id, "title", generated.Title)
	s.notify("")
}

// mergeSessionLocked folds a backend-returned session into the matching local
// entry, keeping denormalized summary fields the response omitted.
func (s *Store) mergeSessionLocked(updated chattypes.Session) {
	for i := range s.sessions {
		if s.sessions[i].ID != updated.ID {
			continue
		}
		if updated.MessageCount == nil {
			updated.MessageCount = s.sessions[i].MessageCount
		}
		if updated.LastMessagePreview == "" {
			updated.LastMessagePreview = s.sessions[i].LastMessagePreview
		}
		s.sessions[i] = updated
		return
	}
}

// removeSessionLocked drops a session from the list, purges its cache entry,
// and clears the current pointer if it matched.
func (s *Store) removeSessionLocked(id string) {
	for i := range s.sessions {
		if s.sessions[i].ID == id {
			s.sessions = append(s.sessions[:i], s.sessions[i+1:]...)
			break
		}
	}
	delete(s.messages, id)
	if s.current == id {
		s.current = ""
	}
}

// activeSessions filters out archived entries from a backend listing.
func activeSessions(sessions []chattypes.Session) []chattypes.Session {
	out := make([]chattypes.Session, 0, len(sessions))
	for _, session := range sessions {
		if !session.IsArchived {
			out = append(out, session)
		}
	}
	return out
}

// sortSessions orders pinned sessions before unpinned ones, each group by
// last update descending.
func sortSessions(sessions []chattypes.Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		if sessions[i].IsPinned != sessions[j].IsPinned {
			return sessions[i].IsPinned
		}
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})
}
