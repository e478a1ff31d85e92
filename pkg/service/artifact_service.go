package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/parley-chat/parley/pkg/db"
	"github.com/parley-chat/parley/pkg/event"
	"github.com/parley-chat/parley/pkg/models"
	"gorm.io/gorm"
)

const maxIdentifierLen = 64

// ArtifactService stores versioned artifacts. Rows are append-only: an
// edit inserts version N+1 under the same identifier.
type ArtifactService struct {
	db     *gorm.DB
	events *event.Emitter
}

// NewArtifactService creates a new artifact service
func NewArtifactService(db *gorm.DB, events *event.Emitter) *ArtifactService {
	return &ArtifactService{db: db, events: events}
}

// ListByConversation returns the latest version of every identifier, or all
// rows when all is set. Ordered by identifier creation then version.
func (s *ArtifactService) ListByConversation(ctx context.Context, userID, conversationID uint, all bool) ([]models.Artifact, error) {
	tx := s.db.WithContext(ctx)
	if _, err := findConversation(tx, userID, conversationID); err != nil {
		return nil, err
	}
	if all {
		return listArtifacts(tx, conversationID)
	}

	latest := tx.Model(&models.Artifact{}).
		Select("MAX(id)").
		Where("conversation_id = ?", conversationID).
		Group("identifier")

	artifacts := []models.Artifact{}
	err := tx.Where("id IN (?)", latest).
		Order("created_at ASC").Order("id ASC").
		Find(&artifacts).Error
	return artifacts, err
}

func listArtifacts(tx *gorm.DB, conversationID uint) ([]models.Artifact, error) {
	artifacts := []models.Artifact{}
	err := tx.Where("conversation_id = ?", conversationID).
		Order("id ASC").
		Find(&artifacts).Error
	return artifacts, err
}

// Get retrieves one artifact row.
func (s *ArtifactService) Get(ctx context.Context, userID, id uint) (*models.Artifact, error) {
	return findArtifact(s.db.WithContext(ctx), userID, id)
}

func findArtifact(tx *gorm.DB, userID, id uint) (*models.Artifact, error) {
	var artifact models.Artifact
	err := tx.Joins("JOIN conversations ON conversations.id = artifacts.conversation_id").
		Where("artifacts.id = ? AND conversations.user_id = ?", id, userID).
		First(&artifact).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrArtifactNotFound
		}
		return nil, err
	}
	return &artifact, nil
}

// Versions returns every version of the artifact's identifier, oldest first.
func (s *ArtifactService) Versions(ctx context.Context, userID, id uint) ([]models.Artifact, error) {
	tx := s.db.WithContext(ctx)
	artifact, err := findArtifact(tx, userID, id)
	if err != nil {
		return nil, err
	}
	versions := []models.Artifact{}
	err = tx.Where("identifier = ?", artifact.Identifier).
		Order("version ASC").
		Find(&versions).Error
	return versions, err
}

// Create stores version 1 of a new artifact. When the identifier already
// exists in the conversation the content becomes its next version.
func (s *ArtifactService) Create(ctx context.Context, userID, conversationID uint, req *models.CreateArtifactRequest) (*models.Artifact, error) {
	artType := strings.TrimSpace(req.Type)
	if !db.ValidArtifactType(artType) {
		return nil, invalid("type", fmt.Sprintf("unknown artifact type %q", req.Type))
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, invalid("title", "is required")
	}
	if req.Content == "" {
		return nil, invalid("content", "is required")
	}
	if req.MessageID == 0 {
		return nil, invalid("message_id", "is required")
	}
	identifier := strings.TrimSpace(req.Identifier)
	if len(identifier) > maxIdentifierLen {
		return nil, invalid("identifier", fmt.Sprintf("must be at most %d characters", maxIdentifierLen))
	}
	if identifier == "" {
		identifier = uuid.NewString()
	}

	artifact := &models.Artifact{
		ConversationID: conversationID,
		MessageID:      req.MessageID,
		Type:           artType,
		Title:          title,
		Identifier:     identifier,
		Language:       strings.TrimSpace(req.Language),
		Content:        req.Content,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		conv, err := findConversation(tx, userID, conversationID)
		if err != nil {
			return err
		}
		if conv.IsDeleted {
			return ErrConversationNotFound
		}

		var count int64
		if err := tx.Model(&models.Message{}).
			Where("id = ? AND conversation_id = ? AND is_deleted = ?", req.MessageID, conversationID, false).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return invalid("message_id", fmt.Sprintf("message %d is not part of conversation %d", req.MessageID, conversationID))
		}

		var owner models.Artifact
		err = tx.Where("identifier = ?", identifier).Order("version DESC").First(&owner).Error
		switch {
		case err == nil:
			if owner.ConversationID != conversationID {
				return fmt.Errorf("%w: identifier %q belongs to another conversation", ErrConflict, identifier)
			}
			artifact.Version = owner.Version + 1
		case errors.Is(err, gorm.ErrRecordNotFound):
			artifact.Version = 1
		default:
			return err
		}
		return insertArtifact(tx, artifact)
	})
	if err != nil {
		return nil, err
	}

	s.emitCreated(artifact)
	return artifact, nil
}

// Update appends version N+1 of the artifact's identifier, where N is the
// current highest version. Earlier rows are left untouched.
func (s *ArtifactService) Update(ctx context.Context, userID, id uint, req *models.UpdateArtifactRequest) (*models.Artifact, error) {
	if req.Content == nil || *req.Content == "" {
		return nil, invalid("content", "is required")
	}

	var next *models.Artifact
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		base, err := findArtifact(tx, userID, id)
		if err != nil {
			return err
		}
		conv, err := findConversation(tx, userID, base.ConversationID)
		if err != nil {
			return err
		}
		if conv.IsDeleted {
			return ErrConversationNotFound
		}

		var latest models.Artifact
		if err := tx.Where("identifier = ?", base.Identifier).
			Order("version DESC").First(&latest).Error; err != nil {
			return err
		}

		next = &models.Artifact{
			ConversationID: latest.ConversationID,
			MessageID:      latest.MessageID,
			Type:           latest.Type,
			Title:          latest.Title,
			Identifier:     latest.Identifier,
			Language:       latest.Language,
			Content:        *req.Content,
			Version:        latest.Version + 1,
		}
		if req.Title != nil {
			title := strings.TrimSpace(*req.Title)
			if title == "" {
				return invalid("title", "must not be empty")
			}
			next.Title = title
		}
		if req.Language != nil {
			next.Language = strings.TrimSpace(*req.Language)
		}
		return insertArtifact(tx, next)
	})
	if err != nil {
		return nil, err
	}

	s.emitCreated(next)
	return next, nil
}

func insertArtifact(tx *gorm.DB, artifact *models.Artifact) error {
	if err := tx.Create(artifact).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrArtifactVersionConflict
		}
		return fmt.Errorf("failed to create artifact: %w", err)
	}
	return nil
}

func (s *ArtifactService) emitCreated(a *models.Artifact) {
	emit(s.events, event.ArtifactCreatedEvent{
		ConversationID: a.ConversationID,
		ArtifactID:     a.ID,
		Identifier:     a.Identifier,
		Version:        a.Version,
	})
}
