package event

// ============================================================================
// Event Names (constants)
// ============================================================================

const (
	ConversationCreated = "conversation.created"
	ConversationUpdated = "conversation.updated"
	ConversationDeleted = "conversation.deleted"
	MessageCreated      = "message.created"
	MessageUpdated      = "message.updated"
	MessageDeleted      = "message.deleted"
	ArtifactCreated     = "artifact.created"
	ProjectChanged      = "project.changed"
	FolderChanged       = "folder.changed"
	UserUpdated         = "user.updated"
)

// ============================================================================
// Conversation Events
// ============================================================================

// ConversationCreatedEvent is emitted when a conversation is created.
type ConversationCreatedEvent struct {
	ConversationID uint `json:"conversation_id"`
}

func (e ConversationCreatedEvent) EventName() string { return ConversationCreated }

// ConversationUpdatedEvent covers title, project, archive, pin and restore changes.
type ConversationUpdatedEvent struct {
	ConversationID uint `json:"conversation_id"`
}

func (e ConversationUpdatedEvent) EventName() string { return ConversationUpdated }

// ConversationDeletedEvent is emitted on soft delete and purge.
type ConversationDeletedEvent struct {
	ConversationID uint `json:"conversation_id"`
	Purged         bool `json:"purged"`
}

func (e ConversationDeletedEvent) EventName() string { return ConversationDeleted }

// ============================================================================
// Message Events
// ============================================================================

type MessageCreatedEvent struct {
	ConversationID uint `json:"conversation_id"`
	MessageID      uint `json:"message_id"`
}

func (e MessageCreatedEvent) EventName() string { return MessageCreated }

type MessageUpdatedEvent struct {
	ConversationID uint `json:"conversation_id"`
	MessageID      uint `json:"message_id"`
}

func (e MessageUpdatedEvent) EventName() string { return MessageUpdated }

type MessageDeletedEvent struct {
	ConversationID uint `json:"conversation_id"`
	MessageID      uint `json:"message_id"`
}

func (e MessageDeletedEvent) EventName() string { return MessageDeleted }

// ============================================================================
// Artifact / Project / Folder / User Events
// ============================================================================

// ArtifactCreatedEvent fires for every new version, including version 1.
type ArtifactCreatedEvent struct {
	ConversationID uint   `json:"conversation_id"`
	ArtifactID     uint   `json:"artifact_id"`
	Identifier     string `json:"identifier"`
	Version        int    `json:"version"`
}

func (e ArtifactCreatedEvent) EventName() string { return ArtifactCreated }

type ProjectChangedEvent struct {
	ProjectID uint `json:"project_id"`
	Deleted   bool `json:"deleted,omitempty"`
}

func (e ProjectChangedEvent) EventName() string { return ProjectChanged }

type FolderChangedEvent struct {
	FolderID uint `json:"folder_id"`
	Deleted  bool `json:"deleted,omitempty"`
}

func (e FolderChangedEvent) EventName() string { return FolderChanged }

type UserUpdatedEvent struct {
	UserID uint `json:"user_id"`
}

func (e UserUpdatedEvent) EventName() string { return UserUpdated }
