// Database models for account and projects
package db

import "time"

// User is the account owner. A deployment normally has exactly one.
type User struct {
	ID                 uint      `json:"id" gorm:"primaryKey"`
	Name               string    `json:"name" gorm:"size:200"`
	Email              string    `json:"email" gorm:"size:320"`
	CustomInstructions string    `json:"custom_instructions" gorm:"type:text"`
	AvatarURL          string    `json:"avatar_url,omitempty" gorm:"size:1024"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// Project groups conversations and carries shared instructions.
// Name is unique per user.
type Project struct {
	ID                 uint      `json:"id" gorm:"primaryKey"`
	UserID             uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_project_user_name"`
	Name               string    `json:"name" gorm:"size:200;not null;uniqueIndex:idx_project_user_name"`
	Color              string    `json:"color,omitempty" gorm:"size:20"`
	Description        string    `json:"description,omitempty" gorm:"type:text"`
	CustomInstructions string    `json:"custom_instructions,omitempty" gorm:"type:text"`
	IsArchived         bool      `json:"is_archived" gorm:"not null;default:false"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (Project) TableName() string {
	return "projects"
}
