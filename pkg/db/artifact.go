// Database models for versioned artifacts
package db

import "time"

// Artifact is one version of a content object produced by an assistant
// message. Rows sharing an Identifier form its history; editing inserts
// Version N+1 and never touches earlier rows.
type Artifact struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	ConversationID uint      `json:"conversation_id" gorm:"index;not null"`
	MessageID      uint      `json:"message_id" gorm:"index;not null"`
	Type           string    `json:"type" gorm:"size:20;not null"`
	Title          string    `json:"title" gorm:"size:500"`
	Identifier     string    `json:"identifier" gorm:"size:64;not null;uniqueIndex:idx_artifact_identifier_version"`
	Language       string    `json:"language,omitempty" gorm:"size:50"`
	Content        string    `json:"content" gorm:"type:text"`
	Version        int       `json:"version" gorm:"not null;uniqueIndex:idx_artifact_identifier_version"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (Artifact) TableName() string {
	return "artifacts"
}

// Artifact types
const (
	ArtifactTypeCode     = "code"
	ArtifactTypeMermaid  = "mermaid"
	ArtifactTypeDocument = "document"
	ArtifactTypeHTML     = "html"
	ArtifactTypeSVG      = "svg"
	ArtifactTypeReact    = "react"
	ArtifactTypeOther    = "other"
)

var artifactTypes = map[string]struct{}{
	ArtifactTypeCode:     {},
	ArtifactTypeMermaid:  {},
	ArtifactTypeDocument: {},
	ArtifactTypeHTML:     {},
	ArtifactTypeSVG:      {},
	ArtifactTypeReact:    {},
	ArtifactTypeOther:    {},
}

// ValidArtifactType reports whether t is a known artifact type.
func ValidArtifactType(t string) bool {
	_, ok := artifactTypes[t]
	return ok
}
