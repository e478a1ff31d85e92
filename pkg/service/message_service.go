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

// MessageService appends, edits and removes conversation messages. Every
// write keeps the parent's message_count and last_message_at in step
// inside the same transaction.
type MessageService struct {
	db     *gorm.DB
	events *event.Emitter
}

// NewMessageService creates a new message service
func NewMessageService(db *gorm.DB, events *event.Emitter) *MessageService {
	return &MessageService{db: db, events: events}
}

// List returns the visible messages of a conversation in chronological order.
// Soft-deleted conversations stay readable.
func (s *MessageService) List(ctx context.Context, userID, conversationID uint) ([]models.Message, error) {
	tx := s.db.WithContext(ctx)
	if _, err := findConversation(tx, userID, conversationID); err != nil {
		return nil, err
	}
	return listMessages(tx, conversationID)
}

func listMessages(tx *gorm.DB, conversationID uint) ([]models.Message, error) {
	messages := []models.Message{}
	err := tx.Where("conversation_id = ? AND is_deleted = ?", conversationID, false).
		Order("created_at ASC").Order("id ASC").
		Find(&messages).Error
	return messages, err
}

// Get retrieves a visible message.
func (s *MessageService) Get(ctx context.Context, userID, id uint) (*models.Message, error) {
	return findMessage(s.db.WithContext(ctx), userID, id)
}

func findMessage(tx *gorm.DB, userID, id uint) (*models.Message, error) {
	var msg models.Message
	err := tx.Joins("JOIN conversations ON conversations.id = messages.conversation_id").
		Where("messages.id = ? AND messages.is_deleted = ? AND conversations.user_id = ?", id, false, userID).
		First(&msg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}
	return &msg, nil
}

// Create appends a message to a live conversation.
func (s *MessageService) Create(ctx context.Context, userID, conversationID uint, req *models.CreateMessageRequest) (*models.Message, error) {
	role := strings.TrimSpace(req.Role)
	if !db.ValidRole(role) {
		return nil, invalid("role", "must be one of user, assistant, system")
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, invalid("content", "is required")
	}
	tokens := estimateTokens(req.Content)
	if req.TokenCount != nil {
		if *req.TokenCount < 0 {
			return nil, invalid("token_count", "must not be negative")
		}
		tokens = *req.TokenCount
	}

	msg := &models.Message{
		ConversationID: conversationID,
		Role:           role,
		Content:        req.Content,
		Images:         req.Images,
		TokenCount:     tokens,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		conv, err := findConversation(tx, userID, conversationID)
		if err != nil {
			return err
		}
		if conv.IsDeleted {
			return ErrConversationNotFound
		}

		ts := now()
		msg.CreatedAt = ts
		if err := tx.Create(msg).Error; err != nil {
			return fmt.Errorf("failed to create message: %w", err)
		}
		return tx.Model(&models.Conversation{}).Where("id = ?", conversationID).
			Updates(map[string]interface{}{
				"message_count":   gorm.Expr("message_count + 1"),
				"last_message_at": ts,
				"updated_at":      ts,
			}).Error
	})
	if err != nil {
		return nil, err
	}

	emit(s.events, event.MessageCreatedEvent{ConversationID: conversationID, MessageID: msg.ID})
	return msg, nil
}

// Update replaces a message's content and stamps edited_at. Role and
// conversation never change.
func (s *MessageService) Update(ctx context.Context, userID, id uint, req *models.UpdateMessageRequest) (*models.Message, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, invalid("content", "is required")
	}

	tx := s.db.WithContext(ctx)
	msg, err := findMessage(tx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Model(msg).Updates(map[string]interface{}{
		"content":     req.Content,
		"token_count": estimateTokens(req.Content),
		"edited_at":   now(),
	}).Error; err != nil {
		return nil, fmt.Errorf("failed to update message: %w", err)
	}

	emit(s.events, event.MessageUpdatedEvent{ConversationID: msg.ConversationID, MessageID: id})
	return findMessage(tx, userID, id)
}

// Delete hides a message and decrements the parent's count.
func (s *MessageService) Delete(ctx context.Context, userID, id uint) error {
	var conversationID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		msg, err := findMessage(tx, userID, id)
		if err != nil {
			return err
		}
		conversationID = msg.ConversationID
		if err := tx.Model(msg).Update("is_deleted", true).Error; err != nil {
			return err
		}
		return tx.Model(&models.Conversation{}).
			Where("id = ? AND message_count > 0", conversationID).
			Updates(map[string]interface{}{
				"message_count": gorm.Expr("message_count - 1"),
				"updated_at":    now(),
			}).Error
	})
	if err != nil {
		return err
	}

	emit(s.events, event.MessageDeletedEvent{ConversationID: conversationID, MessageID: id})
	return nil
}
