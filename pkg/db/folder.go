// Database models for folders and shares
package db

import "time"

// Folder groups conversations; membership lives in FolderItem.
type Folder struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"index;not null"`
	Name      string    `json:"name" gorm:"size:200;not null"`
	Color     string    `json:"color,omitempty" gorm:"size:20"`
	CreatedAt time.Time `json:"created_at"`
}

func (Folder) TableName() string {
	return "folders"
}

// FolderItem joins a folder to a conversation.
type FolderItem struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	FolderID       uint      `json:"folder_id" gorm:"not null;uniqueIndex:idx_folder_item"`
	ConversationID uint      `json:"conversation_id" gorm:"not null;uniqueIndex:idx_folder_item;index"`
	CreatedAt      time.Time `json:"created_at"`
}

func (FolderItem) TableName() string {
	return "folder_items"
}

// SharedConversation publishes a read-only view of a conversation under
// an unguessable token.
type SharedConversation struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	ConversationID uint       `json:"conversation_id" gorm:"index;not null"`
	ShareToken     string     `json:"share_token" gorm:"size:36;not null;uniqueIndex"`
	ViewCount      int        `json:"view_count" gorm:"not null;default:0"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

func (SharedConversation) TableName() string {
	return "shared_conversations"
}

// Expired reports whether the share is past its expiry at now.
func (s *SharedConversation) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && !now.Before(*s.ExpiresAt)
}
