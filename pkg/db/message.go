// Database models for chat messages
package db

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Message is one turn of a conversation. Content may embed fenced code
// blocks or mermaid markup; Images keeps attachment order.
type Message struct {
	ID             uint             `json:"id" gorm:"primaryKey"`
	ConversationID uint             `json:"conversation_id" gorm:"index;not null"`
	Role           string           `json:"role" gorm:"size:20;not null"` // user, assistant, system
	Content        string           `json:"content" gorm:"type:text;not null"`
	Images         ImageAttachments `json:"images,omitempty" gorm:"type:text"`
	TokenCount     int              `json:"token_count"`
	IsDeleted      bool             `json:"-" gorm:"not null;default:false;index"`
	CreatedAt      time.Time        `json:"created_at"`
	EditedAt       *time.Time       `json:"edited_at"`
}

func (Message) TableName() string {
	return "messages"
}

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// ValidRole reports whether r is one of the stored roles.
func ValidRole(r string) bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// ImageAttachment describes one image sent with a message. Either URL or
// Data (base64) is set.
type ImageAttachment struct {
	Name      string `json:"name,omitempty"`
	MediaType string `json:"media_type,omitempty"`
	URL       string `json:"url,omitempty"`
	Data      string `json:"data,omitempty"`
}

// ImageAttachments is stored as a JSON array in a text column.
type ImageAttachments []ImageAttachment

// Value implements driver.Valuer for database storage
func (a ImageAttachments) Value() (driver.Value, error) {
	if len(a) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for database retrieval
func (a *ImageAttachments) Scan(value interface{}) error {
	if value == nil {
		*a = nil
		return nil
	}
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return errors.New("type assertion to []byte failed")
	}
	if len(b) == 0 {
		*a = nil
		return nil
	}
	return json.Unmarshal(b, a)
}
