package models

import "time"

// ExportVersion identifies the layout of FullExport.
const ExportVersion = "1.0"

// FullExport is the account-wide document served by GET /api/export/full-data.
type FullExport struct {
	ExportedAt    time.Time            `json:"exported_at"`
	Version       string               `json:"version"`
	User          User                 `json:"user"`
	Projects      []Project            `json:"projects"`
	Folders       []FolderWithItems    `json:"folders"`
	Conversations []ExportConversation `json:"conversations"`
	Statistics    Statistics           `json:"statistics"`
}

// ExportConversation nests a conversation's messages and artifacts.
type ExportConversation struct {
	Conversation
	Messages  []Message  `json:"messages"`
	Artifacts []Artifact `json:"artifacts"`
}

// Statistics are aggregate counts over the exported data.
type Statistics struct {
	TotalProjects      int `json:"total_projects"`
	TotalConversations int `json:"total_conversations"`
	TotalMessages      int `json:"total_messages"`
	TotalArtifacts     int `json:"total_artifacts"`
	TotalFolders       int `json:"total_folders"`
}

// ReconcileResult reports a message-count read-repair pass.
type ReconcileResult struct {
	Checked  int    `json:"checked"`
	Repaired int    `json:"repaired"`
	Fixed    []uint `json:"fixed,omitempty"`
}
