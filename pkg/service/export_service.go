package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/parley-chat/parley/pkg/models"
	"gorm.io/gorm"
)

// ExportService builds the account-wide export and its statistics. It
// only reads.
type ExportService struct {
	db *gorm.DB
}

// NewExportService creates a new export service
func NewExportService(db *gorm.DB) *ExportService {
	return &ExportService{db: db}
}

// Export returns every non-purged conversation exactly once, soft-deleted
// ones included with is_deleted set, alongside projects, folders and the
// profile. Statistics are summed from the nested arrays.
func (s *ExportService) Export(ctx context.Context, userID uint) (*models.FullExport, error) {
	out := &models.FullExport{
		ExportedAt: now(),
		Version:    models.ExportVersion,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&out.User, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		out.Projects = []models.Project{}
		if err := tx.Where("user_id = ?", userID).Order("id ASC").Find(&out.Projects).Error; err != nil {
			return fmt.Errorf("load projects: %w", err)
		}

		var err error
		if out.Folders, err = listFolders(tx, userID); err != nil {
			return fmt.Errorf("load folders: %w", err)
		}

		var conversations []models.Conversation
		if err := tx.Where("user_id = ?", userID).Order("id ASC").Find(&conversations).Error; err != nil {
			return fmt.Errorf("load conversations: %w", err)
		}

		convIDs := tx.Model(&models.Conversation{}).Select("id").Where("user_id = ?", userID)

		var messages []models.Message
		if err := tx.Where("conversation_id IN (?) AND is_deleted = ?", convIDs, false).
			Order("created_at ASC").Order("id ASC").
			Find(&messages).Error; err != nil {
			return fmt.Errorf("load messages: %w", err)
		}
		var artifacts []models.Artifact
		if err := tx.Where("conversation_id IN (?)", convIDs).
			Order("id ASC").
			Find(&artifacts).Error; err != nil {
			return fmt.Errorf("load artifacts: %w", err)
		}

		msgsByConv := make(map[uint][]models.Message)
		for _, m := range messages {
			msgsByConv[m.ConversationID] = append(msgsByConv[m.ConversationID], m)
		}
		artsByConv := make(map[uint][]models.Artifact)
		for _, a := range artifacts {
			artsByConv[a.ConversationID] = append(artsByConv[a.ConversationID], a)
		}

		out.Conversations = make([]models.ExportConversation, 0, len(conversations))
		for _, c := range conversations {
			ec := models.ExportConversation{
				Conversation: c,
				Messages:     msgsByConv[c.ID],
				Artifacts:    artsByConv[c.ID],
			}
			if ec.Messages == nil {
				ec.Messages = []models.Message{}
			}
			if ec.Artifacts == nil {
				ec.Artifacts = []models.Artifact{}
			}
			out.Conversations = append(out.Conversations, ec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out.Statistics = exportStatistics(out)
	return out, nil
}

func exportStatistics(e *models.FullExport) models.Statistics {
	st := models.Statistics{
		TotalProjects:      len(e.Projects),
		TotalConversations: len(e.Conversations),
		TotalFolders:       len(e.Folders),
	}
	for _, c := range e.Conversations {
		st.TotalMessages += len(c.Messages)
		st.TotalArtifacts += len(c.Artifacts)
	}
	return st
}

// Stats counts the same rows Export would include, without loading them.
func (s *ExportService) Stats(ctx context.Context, userID uint) (*models.Statistics, error) {
	tx := s.db.WithContext(ctx)
	convIDs := tx.Model(&models.Conversation{}).Select("id").Where("user_id = ?", userID)

	var projects, conversations, messages, artifacts, folders int64
	counts := []struct {
		q   *gorm.DB
		dst *int64
	}{
		{tx.Model(&models.Project{}).Where("user_id = ?", userID), &projects},
		{tx.Model(&models.Conversation{}).Where("user_id = ?", userID), &conversations},
		{tx.Model(&models.Message{}).Where("conversation_id IN (?) AND is_deleted = ?", convIDs, false), &messages},
		{tx.Model(&models.Artifact{}).Where("conversation_id IN (?)", convIDs), &artifacts},
		{tx.Model(&models.Folder{}).Where("user_id = ?", userID), &folders},
	}
	for _, c := range counts {
		if err := c.q.Count(c.dst).Error; err != nil {
			return nil, err
		}
	}

	return &models.Statistics{
		TotalProjects:      int(projects),
		TotalConversations: int(conversations),
		TotalMessages:      int(messages),
		TotalArtifacts:     int(artifacts),
		TotalFolders:       int(folders),
	}, nil
}
