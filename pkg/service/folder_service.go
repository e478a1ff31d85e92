package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/parley-chat/parley/pkg/event"
	"github.com/parley-chat/parley/pkg/models"
	"gorm.io/gorm"
)

// FolderService groups conversations into user folders.
type FolderService struct {
	db     *gorm.DB
	events *event.Emitter
}

// NewFolderService creates a new folder service
func NewFolderService(db *gorm.DB, events *event.Emitter) *FolderService {
	return &FolderService{db: db, events: events}
}

func findFolder(tx *gorm.DB, userID, id uint) (*models.Folder, error) {
	var folder models.Folder
	if err := tx.First(&folder, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFolderNotFound
		}
		return nil, err
	}
	return &folder, nil
}

// List returns every folder with the ids of its conversations.
func (s *FolderService) List(ctx context.Context, userID uint) ([]models.FolderWithItems, error) {
	return listFolders(s.db.WithContext(ctx), userID)
}

func listFolders(tx *gorm.DB, userID uint) ([]models.FolderWithItems, error) {
	var folders []models.Folder
	if err := tx.Where("user_id = ?", userID).Order("name ASC").Order("id ASC").Find(&folders).Error; err != nil {
		return nil, err
	}
	if len(folders) == 0 {
		return []models.FolderWithItems{}, nil
	}

	ids := make([]uint, 0, len(folders))
	for _, f := range folders {
		ids = append(ids, f.ID)
	}
	var items []models.FolderItem
	if err := tx.Where("folder_id IN ?", ids).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	byFolder := make(map[uint][]uint, len(folders))
	for _, it := range items {
		byFolder[it.FolderID] = append(byFolder[it.FolderID], it.ConversationID)
	}

	result := make([]models.FolderWithItems, 0, len(folders))
	for _, f := range folders {
		convIDs := byFolder[f.ID]
		if convIDs == nil {
			convIDs = []uint{}
		}
		result = append(result, models.FolderWithItems{Folder: f, ConversationIDs: convIDs})
	}
	return result, nil
}

// Create creates a new folder
func (s *FolderService) Create(ctx context.Context, userID uint, req *models.CreateFolderRequest) (*models.Folder, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, invalid("name", "is required")
	}
	if len(name) > maxProjectNameLen {
		return nil, invalid("name", fmt.Sprintf("must be at most %d characters", maxProjectNameLen))
	}

	folder := &models.Folder{UserID: userID, Name: name, Color: strings.TrimSpace(req.Color)}
	if err := s.db.WithContext(ctx).Create(folder).Error; err != nil {
		return nil, fmt.Errorf("failed to create folder: %w", err)
	}
	emit(s.events, event.FolderChangedEvent{FolderID: folder.ID})
	return folder, nil
}

// Delete removes a folder and its memberships. Conversations are untouched.
func (s *FolderService) Delete(ctx context.Context, userID, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findFolder(tx, userID, id); err != nil {
			return err
		}
		if err := tx.Where("folder_id = ?", id).Delete(&models.FolderItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Folder{}, "id = ?", id).Error
	})
	if err != nil {
		return err
	}
	emit(s.events, event.FolderChangedEvent{FolderID: id, Deleted: true})
	return nil
}

// Items lists the non-deleted conversations filed in a folder.
func (s *FolderService) Items(ctx context.Context, userID, folderID uint) ([]models.Conversation, error) {
	tx := s.db.WithContext(ctx)
	if _, err := findFolder(tx, userID, folderID); err != nil {
		return nil, err
	}
	conversations := []models.Conversation{}
	err := tx.Joins("JOIN folder_items ON folder_items.conversation_id = conversations.id").
		Where("folder_items.folder_id = ? AND conversations.is_deleted = ?", folderID, false).
		Order("folder_items.id ASC").
		Find(&conversations).Error
	return conversations, err
}

// AddItem files a conversation in a folder. A conversation may appear in a
// folder only once.
func (s *FolderService) AddItem(ctx context.Context, userID, folderID uint, req *models.AddFolderItemRequest) (*models.FolderItem, error) {
	if req.ConversationID == 0 {
		return nil, invalid("conversation_id", "is required")
	}

	item := &models.FolderItem{FolderID: folderID, ConversationID: req.ConversationID}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findFolder(tx, userID, folderID); err != nil {
			return err
		}
		if _, err := findConversation(tx, userID, req.ConversationID); err != nil {
			return err
		}
		var count int64
		if err := tx.Model(&models.FolderItem{}).
			Where("folder_id = ? AND conversation_id = ?", folderID, req.ConversationID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrAlreadyInFolder
		}
		if err := tx.Create(item).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrAlreadyInFolder
			}
			return fmt.Errorf("failed to add folder item: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	emit(s.events, event.FolderChangedEvent{FolderID: folderID})
	return item, nil
}

// RemoveItem takes a conversation out of a folder.
func (s *FolderService) RemoveItem(ctx context.Context, userID, folderID, conversationID uint) error {
	tx := s.db.WithContext(ctx)
	if _, err := findFolder(tx, userID, folderID); err != nil {
		return err
	}
	res := tx.Where("folder_id = ? AND conversation_id = ?", folderID, conversationID).Delete(&models.FolderItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConversationNotFound
	}
	emit(s.events, event.FolderChangedEvent{FolderID: folderID})
	return nil
}
