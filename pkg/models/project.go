package models

// CreateProjectRequest is the body of POST /api/projects.
type CreateProjectRequest struct {
	Name               string `json:"name"`
	Color              string `json:"color"`
	Description        string `json:"description"`
	CustomInstructions string `json:"custom_instructions"`
}

// UpdateProjectRequest is a partial patch.
type UpdateProjectRequest struct {
	Name               *string `json:"name"`
	Color              *string `json:"color"`
	Description        *string `json:"description"`
	CustomInstructions *string `json:"custom_instructions"`
	IsArchived         *bool   `json:"is_archived"`
}

// ProjectWithStats is a project plus the number of live conversations in it.
type ProjectWithStats struct {
	Project
	ConversationCount int64 `json:"conversation_count"`
}

// UpdateUserRequest is a partial patch of the profile.
type UpdateUserRequest struct {
	Name               *string `json:"name"`
	Email              *string `json:"email"`
	CustomInstructions *string `json:"custom_instructions"`
	AvatarURL          *string `json:"avatar_url"`
}
