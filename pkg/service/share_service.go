package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/parley-chat/parley/pkg/models"
	"gorm.io/gorm"
)

// ShareService publishes read-only snapshots of conversations.
type ShareService struct {
	db *gorm.DB
}

// NewShareService creates a new share service
func NewShareService(db *gorm.DB) *ShareService {
	return &ShareService{db: db}
}

// Create publishes a live conversation under a fresh token.
func (s *ShareService) Create(ctx context.Context, userID, conversationID uint, req *models.CreateShareRequest) (*models.SharedConversation, error) {
	if req.ExpiresInHours < 0 {
		return nil, invalid("expires_in_hours", "must not be negative")
	}

	tx := s.db.WithContext(ctx)
	conv, err := findConversation(tx, userID, conversationID)
	if err != nil {
		return nil, err
	}
	if conv.IsDeleted {
		return nil, ErrConversationNotFound
	}

	share := &models.SharedConversation{
		ConversationID: conversationID,
		ShareToken:     uuid.NewString(),
	}
	if req.ExpiresInHours > 0 {
		exp := now().Add(time.Duration(req.ExpiresInHours) * time.Hour)
		share.ExpiresAt = &exp
	}
	if err := tx.Create(share).Error; err != nil {
		return nil, fmt.Errorf("failed to create share: %w", err)
	}
	return share, nil
}

func findShare(tx *gorm.DB, token string) (*models.SharedConversation, error) {
	var share models.SharedConversation
	if err := tx.First(&share, "share_token = ?", token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShareNotFound
		}
		return nil, err
	}
	return &share, nil
}

// View resolves a token to its snapshot and counts the view. Expired shares
// and shares of deleted conversations are not found.
func (s *ShareService) View(ctx context.Context, token string) (*models.SharedConversationView, error) {
	var view *models.SharedConversationView
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		share, err := findShare(tx, token)
		if err != nil {
			return err
		}
		if share.Expired(now()) {
			return ErrShareNotFound
		}

		var conv models.Conversation
		if err := tx.First(&conv, "id = ? AND is_deleted = ?", share.ConversationID, false).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrShareNotFound
			}
			return err
		}
		if err := tx.Model(share).Update("view_count", gorm.Expr("view_count + 1")).Error; err != nil {
			return err
		}

		messages, err := listMessages(tx, conv.ID)
		if err != nil {
			return err
		}
		artifacts, err := listArtifacts(tx, conv.ID)
		if err != nil {
			return err
		}
		view = &models.SharedConversationView{
			ShareToken:   share.ShareToken,
			ViewCount:    share.ViewCount + 1,
			Conversation: conv,
			Messages:     messages,
			Artifacts:    artifacts,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// Revoke unpublishes a share of one of the user's conversations.
func (s *ShareService) Revoke(ctx context.Context, userID uint, token string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		share, err := findShare(tx, token)
		if err != nil {
			return err
		}
		if _, err := findConversation(tx, userID, share.ConversationID); err != nil {
			if errors.Is(err, ErrConversationNotFound) {
				return ErrShareNotFound
			}
			return err
		}
		return tx.Delete(share).Error
	})
}
