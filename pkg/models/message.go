package models

// CreateMessageRequest is the body of POST /api/conversations/:id/messages.
// TokenCount is estimated from the content when omitted.
type CreateMessageRequest struct {
	Role       string            `json:"role"`
	Content    string            `json:"content"`
	Images     []ImageAttachment `json:"images"`
	TokenCount *int              `json:"token_count"`
}

// UpdateMessageRequest edits message content only.
type UpdateMessageRequest struct {
	Content string `json:"content"`
}
