// Database models for chat conversations
package db

import "time"

// Conversation is a chat thread. Archive and soft delete are reversible
// flags; MessageCount caches the number of non-deleted messages.
type Conversation struct {
	ID            uint       `json:"id" gorm:"primaryKey"`
	UserID        uint       `json:"user_id" gorm:"index;not null"`
	ProjectID     *uint      `json:"project_id" gorm:"index"`
	Title         string     `json:"title" gorm:"size:500;not null"`
	Model         string     `json:"model" gorm:"size:100"`
	MessageCount  int        `json:"message_count" gorm:"not null;default:0"`
	IsArchived    bool       `json:"is_archived" gorm:"not null;default:false;index"`
	IsPinned      bool       `json:"is_pinned" gorm:"not null;default:false"`
	IsDeleted     bool       `json:"is_deleted" gorm:"not null;default:false;index"`
	LastMessageAt *time.Time `json:"last_message_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (Conversation) TableName() string {
	return "conversations"
}

// LastActivity is the timestamp conversation lists are ordered by.
func (c Conversation) LastActivity() time.Time {
	if c.LastMessageAt != nil {
		return *c.LastMessageAt
	}
	return c.UpdatedAt
}

// DefaultModel backs conversations created without an explicit model.
const DefaultModel = "claude-sonnet-4-5"
