package models

// CreateFolderRequest is the body of POST /api/folders.
type CreateFolderRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// AddFolderItemRequest is the body of POST /api/folders/:id/items.
type AddFolderItemRequest struct {
	ConversationID uint `json:"conversation_id"`
}

// FolderWithItems is a folder plus the ids of its conversations.
type FolderWithItems struct {
	Folder
	ConversationIDs []uint `json:"conversation_ids"`
}
