package models

// CreateArtifactRequest is the body of POST /api/conversations/:id/artifacts.
// An empty Identifier starts a new version history.
type CreateArtifactRequest struct {
	MessageID  uint   `json:"message_id"`
	Type       string `json:"type"`
	Title      string `json:"title"`
	Identifier string `json:"identifier"`
	Language   string `json:"language"`
	Content    string `json:"content"`
}

// UpdateArtifactRequest creates the next version of an artifact. Title and
// Language carry over from the previous version when nil.
type UpdateArtifactRequest struct {
	Content  *string `json:"content"`
	Title    *string `json:"title"`
	Language *string `json:"language"`
}
