package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/parley-chat/parley/pkg/db"
	"github.com/parley-chat/parley/pkg/event"
	"github.com/parley-chat/parley/pkg/models"
	"gorm.io/gorm"
)

const maxTitleLen = 500

// ConversationService handles conversation lifecycle: create, patch,
// archive, soft delete, restore and purge.
type ConversationService struct {
	db     *gorm.DB
	events *event.Emitter
}

// NewConversationService creates a new conversation service
func NewConversationService(db *gorm.DB, events *event.Emitter) *ConversationService {
	return &ConversationService{db: db, events: events}
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", invalid("title", "is required")
	}
	if len(title) > maxTitleLen {
		return "", invalid("title", fmt.Sprintf("must be at most %d characters", maxTitleLen))
	}
	return title, nil
}

// resolveProject checks that a non-nil project reference exists.
func resolveProject(tx *gorm.DB, userID uint, projectID *uint) error {
	if projectID == nil {
		return nil
	}
	if _, err := findProject(tx, userID, *projectID); err != nil {
		if errors.Is(err, ErrProjectNotFound) {
			return invalid("project_id", fmt.Sprintf("project %d does not exist", *projectID))
		}
		return err
	}
	return nil
}

// findConversation loads a conversation owned by userID, deleted or not.
func findConversation(tx *gorm.DB, userID, id uint) (*models.Conversation, error) {
	var conv models.Conversation
	if err := tx.First(&conv, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	return &conv, nil
}

// Create creates an empty conversation.
func (s *ConversationService) Create(ctx context.Context, userID uint, req *models.CreateConversationRequest) (*models.Conversation, error) {
	title, err := validateTitle(req.Title)
	if err != nil {
		return nil, err
	}
	tx := s.db.WithContext(ctx)
	if err := resolveProject(tx, userID, req.ProjectID); err != nil {
		return nil, err
	}

	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = db.DefaultModel
	}

	conv := &models.Conversation{
		UserID:    userID,
		ProjectID: req.ProjectID,
		Title:     title,
		Model:     model,
	}
	if err := tx.Create(conv).Error; err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}

	emit(s.events, event.ConversationCreatedEvent{ConversationID: conv.ID})
	return conv, nil
}

// Get retrieves a conversation by ID. Soft-deleted conversations are
// still returned; callers can inspect IsDeleted.
func (s *ConversationService) Get(ctx context.Context, userID, id uint) (*models.Conversation, error) {
	return findConversation(s.db.WithContext(ctx), userID, id)
}

// List returns non-deleted conversations, most recently active first.
func (s *ConversationService) List(ctx context.Context, userID uint, filter models.ConversationFilter) ([]models.Conversation, error) {
	query := s.db.WithContext(ctx).
		Where("user_id = ? AND is_deleted = ?", userID, false)

	switch {
	case filter.OnlyArchived:
		query = query.Where("is_archived = ?", true)
	case !filter.IncludeArchived:
		query = query.Where("is_archived = ?", false)
	}
	if filter.ProjectID != nil {
		query = query.Where("project_id = ?", *filter.ProjectID)
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		query = query.Where("LOWER(title) LIKE LOWER(?) ESCAPE '\\'", likePattern(term))
	}

	conversations := []models.Conversation{}
	if err := query.
		Order("COALESCE(last_message_at, updated_at) DESC").
		Order("id DESC").
		Find(&conversations).Error; err != nil {
		return nil, err
	}
	return conversations, nil
}

// Update applies a partial patch. A null project_id unfiles the conversation.
func (s *ConversationService) Update(ctx context.Context, userID, id uint, req *models.UpdateConversationRequest) (*models.Conversation, error) {
	tx := s.db.WithContext(ctx)
	conv, err := findConversation(tx, userID, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		title, err := validateTitle(*req.Title)
		if err != nil {
			return nil, err
		}
		updates["title"] = title
	}
	if req.ProjectID.Set {
		if err := resolveProject(tx, userID, req.ProjectID.Value); err != nil {
			return nil, err
		}
		updates["project_id"] = req.ProjectID.Value
	}
	if req.Model != nil {
		model := strings.TrimSpace(*req.Model)
		if model == "" {
			return nil, invalid("model", "must not be empty")
		}
		updates["model"] = model
	}
	if req.IsArchived != nil {
		updates["is_archived"] = *req.IsArchived
	}
	if req.IsPinned != nil {
		updates["is_pinned"] = *req.IsPinned
	}

	if len(updates) > 0 {
		updates["updated_at"] = now()
		if err := tx.Model(conv).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update conversation: %w", err)
		}
		emit(s.events, event.ConversationUpdatedEvent{ConversationID: id})
	}
	return findConversation(tx, userID, id)
}

// SetArchived toggles the archived flag.
func (s *ConversationService) SetArchived(ctx context.Context, userID, id uint, archived bool) (*models.Conversation, error) {
	return s.Update(ctx, userID, id, &models.UpdateConversationRequest{IsArchived: &archived})
}

// Delete soft-deletes a conversation. Messages and artifacts are kept.
func (s *ConversationService) Delete(ctx context.Context, userID, id uint) error {
	if err := s.setDeleted(ctx, userID, id, true); err != nil {
		return err
	}
	emit(s.events, event.ConversationDeletedEvent{ConversationID: id})
	return nil
}

// Restore reverses a soft delete.
func (s *ConversationService) Restore(ctx context.Context, userID, id uint) (*models.Conversation, error) {
	if err := s.setDeleted(ctx, userID, id, false); err != nil {
		return nil, err
	}
	emit(s.events, event.ConversationUpdatedEvent{ConversationID: id})
	return s.Get(ctx, userID, id)
}

func (s *ConversationService) setDeleted(ctx context.Context, userID, id uint, deleted bool) error {
	tx := s.db.WithContext(ctx)
	conv, err := findConversation(tx, userID, id)
	if err != nil {
		return err
	}
	return tx.Model(conv).Updates(map[string]interface{}{
		"is_deleted": deleted,
		"updated_at": now(),
	}).Error
}

// Purge permanently removes a soft-deleted conversation with its messages,
// artifacts, folder memberships and shares.
func (s *ConversationService) Purge(ctx context.Context, userID, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		conv, err := findConversation(tx, userID, id)
		if err != nil {
			return err
		}
		if !conv.IsDeleted {
			return ErrConversationNotDeleted
		}
		for _, model := range []interface{}{
			&models.Artifact{},
			&models.Message{},
			&models.FolderItem{},
			&models.SharedConversation{},
		} {
			if err := tx.Where("conversation_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.Conversation{}, "id = ?", id).Error
	})
	if err != nil {
		return err
	}
	emit(s.events, event.ConversationDeletedEvent{ConversationID: id, Purged: true})
	return nil
}
