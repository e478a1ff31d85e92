package models

import "time"

// CreateConversationRequest is the body of POST /api/conversations.
type CreateConversationRequest struct {
	Title     string `json:"title"`
	ProjectID *uint  `json:"project_id"`
	Model     string `json:"model"`
}

// UpdateConversationRequest is a partial patch; nil fields are untouched.
// ProjectID set to null unfiles the conversation.
type UpdateConversationRequest struct {
	Title      *string    `json:"title"`
	ProjectID  NullableID `json:"project_id"`
	Model      *string    `json:"model"`
	IsArchived *bool      `json:"is_archived"`
	IsPinned   *bool      `json:"is_pinned"`
}

// ArchiveConversationRequest defaults to archiving when the body is empty.
type ArchiveConversationRequest struct {
	IsArchived *bool `json:"is_archived"`
}

// ConversationFilter narrows GET /api/conversations.
type ConversationFilter struct {
	ProjectID       *uint
	IncludeArchived bool
	OnlyArchived    bool
	Search          string
}

// ConversationSummary is one row of the conversation list.
type ConversationSummary struct {
	ID            uint       `json:"id"`
	Title         string     `json:"title"`
	ProjectID     *uint      `json:"project_id"`
	Model         string     `json:"model"`
	MessageCount  int        `json:"message_count"`
	LastMessageAt *time.Time `json:"last_message_at"`
	IsArchived    bool       `json:"is_archived"`
	IsPinned      bool       `json:"is_pinned"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// NewConversationSummary projects a conversation row for list responses.
func NewConversationSummary(c *Conversation) ConversationSummary {
	return ConversationSummary{
		ID:            c.ID,
		Title:         c.Title,
		ProjectID:     c.ProjectID,
		Model:         c.Model,
		MessageCount:  c.MessageCount,
		LastMessageAt: c.LastMessageAt,
		IsArchived:    c.IsArchived,
		IsPinned:      c.IsPinned,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

// ShareResponse is returned when a conversation is published.
type ShareResponse struct {
	ShareToken string     `json:"share_token"`
	URL        string     `json:"url"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

// CreateShareRequest optionally bounds a share's lifetime.
type CreateShareRequest struct {
	ExpiresInHours int `json:"expires_in_hours"`
}

// SharedConversationView is the read-only snapshot behind a share token.
type SharedConversationView struct {
	ShareToken   string       `json:"share_token"`
	ViewCount    int          `json:"view_count"`
	Conversation Conversation `json:"conversation"`
	Messages     []Message    `json:"messages"`
	Artifacts    []Artifact   `json:"artifacts"`
}
