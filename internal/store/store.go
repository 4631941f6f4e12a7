// Package store owns the canonical in-memory model of sessions and messages.
// It mirrors the backend's session registry, caches message sequences per
// session, and runs the send pipeline that feeds streamed assistant replies
// into the cache under concurrent read access from rendering consumers.
package store

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"agentchat/internal/api"
	"agentchat/pkg/chattypes"
)

// Backend is the remote authority the store reconciles against.
// *api.Client is the production implementation.
type Backend interface {
	ListSessions(ctx context.Context, page, pageSize int) (*api.SessionList, error)
	CreateSession(ctx context.Context, req api.SessionCreate) (*chattypes.Session, error)
	GetSession(ctx context.Context, id string) (*api.SessionDetail, error)
	UpdateSession(ctx context.Context, id string, patch api.SessionPatch) (*chattypes.Session, error)
	DeleteSession(ctx context.Context, id string) error
	TogglePin(ctx context.Context, id string) (*chattypes.Session, error)
	ArchiveSession(ctx context.Context, id string) (*chattypes.Session, error)
	GenerateTitle(ctx context.Context, id string) (*api.GeneratedTitle, error)
	ExportSession(ctx context.Context, id string) (*api.ExportedSession, error)
	OpenChatStream(ctx context.Context, sessionID, message string) (io.ReadCloser, error)
}

var _ Backend = (*api.Client)(nil)

// Subscriber is notified with the affected session id after a state change.
// An empty id means the session list itself changed. Subscribers must re-read
// the store rather than hold on to previously returned values.
type Subscriber func(sessionID string)

// Store composes the session registry, the per-session message cache, and the
// streaming send pipeline behind one mutex. All returned slices are copies;
// internal state is never handed out by reference.
type Store struct {
	mu       sync.Mutex
	backend  Backend
	pageSize int

	sessions []chattypes.Session
	hasMore  bool
	current  string
	messages map[string][]chattypes.Message

	loadingSessions bool
	loadingMessages bool
	sending         bool
	generatingTitle bool

	lastErr   error
	phase     string
	sendState chattypes.SendState

	subscribers []Subscriber

	// Injection points for deterministic tests.
	newID    func() string
	now      func() time.Time
	spawn    func(fn func())
	schedule func(d time.Duration, fn func())
}

// New creates a store backed by the given remote authority.
func New(backend Backend, pageSize int) *Store {
	return &Store{
		backend:  backend,
		pageSize: pageSize,
		messages: make(map[string][]chattypes.Message),
		newID:    uuid.NewString,
		now:      time.Now,
		spawn:    func(fn func()) { go fn() },
		schedule: func(d time.Duration, fn func()) { time.AfterFunc(d, fn) },
	}
}

// Subscribe registers a change listener. Not safe to call concurrently with
// notifications; register subscribers during setup.
func (s *Store) Subscribe(fn Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// notify invokes subscribers outside the store lock.
func (s *Store) notify(sessionID string) {
	s.mu.Lock()
	subs := make([]Subscriber, len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(sessionID)
	}
}

// Sessions returns a copy of the current session list, pinned sessions first,
// each group ordered by last update descending.
func (s *Store) Sessions() []chattypes.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]chattypes.Session, len(s.sessions))
	copy(out, s.sessions)
	return out
}

// HasMore reports whether the backend had more sessions beyond the fetched page.
func (s *Store) HasMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasMore
}

// CurrentSessionID returns the id of the selected session, or "" if none.
func (s *Store) CurrentSessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// CurrentSession returns the selected session's registry entry, if any.
func (s *Store) CurrentSession() (chattypes.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == "" {
		return chattypes.Session{}, false
	}
	for _, session := range s.sessions {
		if session.ID == s.current {
			return session, true
		}
	}
	return chattypes.Session{}, false
}

// Messages returns a copy of the cached message sequence for a session.
// The second return reports whether the session has a cache entry at all.
func (s *Store) Messages(sessionID string) ([]chattypes.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cached, ok := s.messages[sessionID]
	if !ok {
		return nil, false
	}
	out := make([]chattypes.Message, len(cached))
	copy(out, cached)
	return out, true
}

// Err returns the most recent operation failure, or nil.
func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// ClearError resets the error slot.
func (s *Store) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = nil
}

// setError records a failure. Last write wins; earlier errors are overwritten.
func (s *Store) setError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = err
}

// Phase returns the transient streaming-phase label, or "" when none is active.
func (s *Store) Phase() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// SendState returns the state of the send pipeline.
func (s *Store) SendState() chattypes.SendState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sendState
}

// Sending reports whether a message send is in flight.
func (s *Store) Sending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sending
}

// LoadingSessions reports whether a session list fetch is in flight.
func (s *Store) LoadingSessions() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadingSessions
}

// LoadingMessages reports whether a message list fetch is in flight.
func (s *Store) LoadingMessages() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadingMessages
}

// GeneratingTitle reports whether a title-generation call is in flight.
func (s *Store) GeneratingTitle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generatingTitle
}

func (s *Store) setSendState(state chattypes.SendState) {
	s.mu.Lock()
	s.sendState = state
	s.mu.Unlock()
}

func (s *Store) setPhase(phase string) {
	s.mu.Lock()
	s.phase = phase
	s.mu.Unlock()
}
