package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentchat/internal/api"
	"agentchat/pkg/chattypes"
)

func detailWith(id string, messages ...chattypes.Message) *api.SessionDetail {
	return &api.SessionDetail{
		Session:  chattypes.Session{ID: id, Title: "refreshed " + id},
		Messages: messages,
	}
}

func TestSelectSession_UncachedLoadsForeground(t *testing.T) {
	backend := &fakeBackend{
		getFn: func(id string) (*api.SessionDetail, error) {
			return detailWith(id,
				chattypes.Message{ID: "m1", Role: chattypes.RoleUser, Content: "hi"},
				chattypes.Message{ID: "m2", Role: chattypes.RoleAssistant, Content: "hello"},
			), nil
		},
	}
	h := newHarness(backend)

	require.NoError(t, h.store.SelectSession(context.Background(), "s1"))

	assert.Equal(t, "s1", h.store.CurrentSessionID())
	msgs, ok := h.store.Messages("s1")
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, "hi", msgs[0].Content)
	assert.False(t, h.store.LoadingMessages())
	assert.Empty(t, h.spawned, "uncached select must not defer the load")
}

func TestSelectSession_CachedIsInstantThenRefreshes(t *testing.T) {
	backend := &fakeBackend{
		getFn: func(id string) (*api.SessionDetail, error) {
			return detailWith(id,
				chattypes.Message{ID: "m1", Role: chattypes.RoleUser, Content: "updated upstream"},
			), nil
		},
	}
	h := newHarness(backend)
	h.store.mu.Lock()
	h.store.sessions = []chattypes.Session{{ID: "s1", Title: "stale"}}
	h.store.messages["s1"] = []chattypes.Message{{ID: "m1", Role: chattypes.RoleUser, Content: "stale copy"}}
	h.store.mu.Unlock()

	require.NoError(t, h.store.SelectSession(context.Background(), "s1"))

	// The cached copy is published before any network round trip.
	assert.Empty(t, backend.callLog())
	msgs, _ := h.store.Messages("s1")
	assert.Equal(t, "stale copy", msgs[0].Content)
	assert.False(t, h.store.LoadingMessages())

	h.runBackground()

	msgs, _ = h.store.Messages("s1")
	assert.Equal(t, "updated upstream", msgs[0].Content)
	assert.Equal(t, "refreshed s1", h.store.Sessions()[0].Title, "refresh merges session metadata")
}

func TestSelectSession_RefreshAppliesByKeyAfterSwitch(t *testing.T) {
	backend := &fakeBackend{
		getFn: func(id string) (*api.SessionDetail, error) {
			return detailWith(id, chattypes.Message{ID: "m-" + id, Content: "for " + id}), nil
		},
	}
	h := newHarness(backend)
	h.store.mu.Lock()
	h.store.messages["s1"] = []chattypes.Message{{ID: "old", Content: "old"}}
	h.store.messages["s2"] = []chattypes.Message{{ID: "old", Content: "old"}}
	h.store.mu.Unlock()

	require.NoError(t, h.store.SelectSession(context.Background(), "s1"))
	require.NoError(t, h.store.SelectSession(context.Background(), "s2"))
	assert.Equal(t, "s2", h.store.CurrentSessionID())

	// Both deferred refreshes resolve after the user has moved on to s2.
	h.runBackground()

	s1, _ := h.store.Messages("s1")
	s2, _ := h.store.Messages("s2")
	assert.Equal(t, "for s1", s1[0].Content, "late refresh lands on its own session, not the current one")
	assert.Equal(t, "for s2", s2[0].Content)
	assert.Equal(t, "s2", h.store.CurrentSessionID())
}

func TestSelectSession_LoadFailureRecordsError(t *testing.T) {
	backend := &fakeBackend{
		getFn: func(id string) (*api.SessionDetail, error) {
			return nil, fmt.Errorf("not found")
		},
	}
	h := newHarness(backend)

	err := h.store.SelectSession(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load session missing")
	assert.Error(t, h.store.Err())
	assert.False(t, h.store.LoadingMessages())
}

func TestRefreshSession_SkippedWhileStreaming(t *testing.T) {
	backend := &fakeBackend{
		getFn: func(id string) (*api.SessionDetail, error) {
			return detailWith(id), nil
		},
	}
	h := newHarness(backend)
	h.store.mu.Lock()
	h.store.messages["s1"] = []chattypes.Message{
		{ID: "local-id-1", Role: chattypes.RoleUser, Content: "hello"},
		{ID: "local-id-2", Role: chattypes.RoleAssistant, Content: "partial", IsStreaming: true},
	}
	h.store.mu.Unlock()

	require.NoError(t, h.store.refreshSession(context.Background(), "s1"))

	msgs, _ := h.store.Messages("s1")
	require.Len(t, msgs, 2, "in-flight stream owns the cache entry")
	assert.Equal(t, "partial", msgs[1].Content)
	assert.True(t, msgs[1].IsStreaming)
}

func TestCurrentSession_ReflectsRegistry(t *testing.T) {
	h := newHarness(&fakeBackend{})
	h.store.mu.Lock()
	h.store.sessions = []chattypes.Session{
		{ID: "s1", Title: "First", UpdatedAt: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)},
	}
	h.store.current = "s1"
	h.store.mu.Unlock()

	current, ok := h.store.CurrentSession()
	require.True(t, ok)
	assert.Equal(t, "First", current.Title)

	h.store.mu.Lock()
	h.store.current = "ghost"
	h.store.mu.Unlock()
	_, ok = h.store.CurrentSession()
	assert.False(t, ok)
}
