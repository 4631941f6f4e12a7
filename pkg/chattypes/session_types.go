// Package chattypes defines the shared data model for the agentchat client.
// This file contains the core types for sessions and conversation messages as
// they are exchanged with the backend and cached locally.
package chattypes

import "time"

// Role identifies the author of a conversation message.
// The set of roles is closed; the backend rejects anything else.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
	RoleTool      = "tool"
)

// ValidRole reports whether role is one of the four known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleUser, RoleAssistant, RoleSystem, RoleTool:
		return true
	}
	return false
}

// Session represents a conversation thread as summarized by the backend.
// MessageCount and LastMessagePreview are denormalized summary fields: they are
// only trustworthy until the session is opened and its real message list loads.
type Session struct {
	ID                 string    `json:"id"`
	Title              string    `json:"title"`
	Description        string    `json:"description,omitempty"`
	ModelName          string    `json:"model_name"`
	IsActive           bool      `json:"is_active"`
	IsArchived         bool      `json:"is_archived"`
	IsPinned           bool      `json:"is_pinned"`
	Tags               []string  `json:"tags,omitempty"`
	TotalTokensUsed    int       `json:"total_tokens_used"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
	MessageCount       *int      `json:"message_count,omitempty"`
	LastMessagePreview string    `json:"last_message_preview,omitempty"`
}

// Message represents a single message in a session's conversation history.
// IsStreaming is client-side state: it marks the trailing assistant message
// whose content is still arriving and is never sent to the backend.
type Message struct {
	ID          string     `json:"id"`
	Role        string     `json:"role"`
	Content     string     `json:"content"`
	ToolCallID  string     `json:"tool_call_id,omitempty"`
	ToolCalls   []ToolCall `json:"tool_calls,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	IsStreaming bool       `json:"-"`
}

// ToolCall describes a tool invocation requested by an assistant message.
// The shape mirrors the backend's OpenAI-style tool_calls payload.
type ToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function ToolCallFunction `json:"function"`
}

// ToolCallFunction carries the function name and raw JSON arguments of a tool call.
type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}
