package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"agentchat/pkg/chattypes"
)

// SessionList is the paged session listing returned by the backend.
type SessionList struct {
	Sessions []chattypes.Session `json:"sessions"`
	Total    int                 `json:"total"`
	Page     int                 `json:"page"`
	PageSize int                 `json:"page_size"`
	HasMore  bool                `json:"has_more"`
}

// SessionDetail is a session together with its full message list.
type SessionDetail struct {
	chattypes.Session
	Messages []chattypes.Message `json:"messages"`
}

// SessionCreate is the payload for creating a session.
type SessionCreate struct {
	Title     string   `json:"title"`
	ModelName string   `json:"model_name,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

// SessionPatch is a partial session update. Nil fields are left untouched.
type SessionPatch struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	ModelName   *string   `json:"model_name,omitempty"`
	IsArchived  *bool     `json:"is_archived,omitempty"`
	IsPinned    *bool     `json:"is_pinned,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
}

// GeneratedTitle is the backend's response to a generate-title request.
type GeneratedTitle struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// ExportedSession is the transcript payload returned by the export endpoint.
// The schema is opaque to this client; callers receive the raw bytes.
type ExportedSession struct {
	Data       []byte
	ExportedAt time.Time
}

// ListSessions fetches one page of session summaries.
func (c *Client) ListSessions(ctx context.Context, page, pageSize int) (*SessionList, error) {
	query := url.Values{}
	query.Set("page", fmt.Sprintf("%d", page))
	query.Set("page_size", fmt.Sprintf("%d", pageSize))

	var list SessionList
	if err := c.do(ctx, http.MethodGet, "/api/sessions?"+query.Encode(), nil, &list); err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return &list, nil
}

// CreateSession creates a new session on the backend.
func (c *Client) CreateSession(ctx context.Context, req SessionCreate) (*chattypes.Session, error) {
	if req.Title == "" {
		req.Title = "New Chat"
	}
	var session chattypes.Session
	if err := c.do(ctx, http.MethodPost, "/api/sessions", req, &session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return &session, nil
}

// GetSession fetches a session with its full message list.
func (c *Client) GetSession(ctx context.Context, id string) (*SessionDetail, error) {
	var detail SessionDetail
	if err := c.do(ctx, http.MethodGet, "/api/sessions/"+url.PathEscape(id), nil, &detail); err != nil {
		return nil, fmt.Errorf("failed to fetch session %s: %w", id, err)
	}
	return &detail, nil
}

// UpdateSession applies a partial update and returns the updated session.
func (c *Client) UpdateSession(ctx context.Context, id string, patch SessionPatch) (*chattypes.Session, error) {
	var session chattypes.Session
	if err := c.do(ctx, http.MethodPatch, "/api/sessions/"+url.PathEscape(id), patch, &session); err != nil {
		return nil, fmt.Errorf("failed to update session %s: %w", id, err)
	}
	return &session, nil
}

// DeleteSession deletes a session and all its messages.
func (c *Client) DeleteSession(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/api/sessions/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	return nil
}

// TogglePin flips the pinned flag on the backend and returns the updated session.
func (c *Client) TogglePin(ctx context.Context, id string) (*chattypes.Session, error) {
	var session chattypes.Session
	if err := c.do(ctx, http.MethodPost, "/api/sessions/"+url.PathEscape(id)+"/pin", nil, &session); err != nil {
		return nil, fmt.Errorf("failed to toggle pin on session %s: %w", id, err)
	}
	return &session, nil
}

// ArchiveSession archives a session and returns its updated form.
func (c *Client) ArchiveSession(ctx context.Context, id string) (*chattypes.Session, error) {
	var session chattypes.Session
	if err := c.do(ctx, http.MethodPost, "/api/sessions/"+url.PathEscape(id)+"/archive", nil, &session); err != nil {
		return nil, fmt.Errorf("failed to archive session %s: %w", id, err)
	}
	return &session, nil
}

// GenerateTitle asks the backend to derive a title and description from the
// session's conversation so far.
func (c *Client) GenerateTitle(ctx context.Context, id string) (*GeneratedTitle, error) {
	var generated GeneratedTitle
	if err := c.do(ctx, http.MethodPost, "/api/sessions/"+url.PathEscape(id)+"/generate-title", nil, &generated); err != nil {
		return nil, fmt.Errorf("failed to generate title for session %s: %w", id, err)
	}
	return &generated, nil
}

// ExportSession downloads the full transcript payload for a session. The
// payload is treated as opaque bytes for the caller to persist.
func (c *Client) ExportSession(ctx context.Context, id string) (*ExportedSession, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/sessions/"+url.PathEscape(id)+"/export", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create export request: %w", err)
	}
	if err := c.authorize(req); err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to export session %s: %w", id, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read export payload: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(resp.StatusCode, body)
	}

	return &ExportedSession{Data: body, ExportedAt: time.Now()}, nil
}

// OpenChatStream issues the streaming chat request and hands back the raw
// response body. The caller owns the body and must close it; the stream
// package decodes it into events.
func (c *Client) OpenChatStream(ctx context.Context, sessionID, message string) (io.ReadCloser, error) {
	payload := struct {
		SessionID string `json:"session_id"`
		Message   string `json:"message"`
	}{SessionID: sessionID, Message: message}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal stream request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat/stream", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create stream request: %w", err)
	}
	if err := c.authorize(req); err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to open chat stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, decodeAPIError(resp.StatusCode, body)
	}
	return resp.Body, nil
}
