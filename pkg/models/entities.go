// Entity types shared by the service and handler layers
package models

import (
	"github.com/parley-chat/parley/pkg/db"
)

// ========== Type aliases for database types ==========
// These allow other packages to use models.Conversation instead of db.Conversation

type User = db.User
type Project = db.Project
type Conversation = db.Conversation
type Message = db.Message
type ImageAttachment = db.ImageAttachment
type ImageAttachments = db.ImageAttachments
type Artifact = db.Artifact
type Folder = db.Folder
type FolderItem = db.FolderItem
type SharedConversation = db.SharedConversation

// ========== Constant aliases from db package ==========

const (
	RoleUser      = db.RoleUser
	RoleAssistant = db.RoleAssistant
	RoleSystem    = db.RoleSystem
)

const (
	ArtifactTypeCode     = db.ArtifactTypeCode
	ArtifactTypeMermaid  = db.ArtifactTypeMermaid
	ArtifactTypeDocument = db.ArtifactTypeDocument
	ArtifactTypeOther    = db.ArtifactTypeOther
)
