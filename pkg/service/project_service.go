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

const maxProjectNameLen = 200

// ProjectService handles project CRUD. Project names are unique per user.
type ProjectService struct {
	db     *gorm.DB
	events *event.Emitter
}

// NewProjectService creates a new project service
func NewProjectService(db *gorm.DB, events *event.Emitter) *ProjectService {
	return &ProjectService{db: db, events: events}
}

func validateProjectName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", invalid("name", "is required")
	}
	if len(name) > maxProjectNameLen {
		return "", invalid("name", fmt.Sprintf("must be at most %d characters", maxProjectNameLen))
	}
	return name, nil
}

// List returns the user's projects with live conversation counts.
func (s *ProjectService) List(ctx context.Context, userID uint) ([]models.ProjectWithStats, error) {
	var projects []models.Project
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("name ASC").Find(&projects).Error; err != nil {
		return nil, err
	}

	var counts []struct {
		ProjectID uint
		Total     int64
	}
	if err := s.db.WithContext(ctx).Model(&models.Conversation{}).
		Select("project_id, COUNT(*) AS total").
		Where("user_id = ? AND project_id IS NOT NULL AND is_deleted = ?", userID, false).
		Group("project_id").
		Scan(&counts).Error; err != nil {
		return nil, err
	}
	byProject := make(map[uint]int64, len(counts))
	for _, c := range counts {
		byProject[c.ProjectID] = c.Total
	}

	result := make([]models.ProjectWithStats, 0, len(projects))
	for _, p := range projects {
		result = append(result, models.ProjectWithStats{Project: p, ConversationCount: byProject[p.ID]})
	}
	return result, nil
}

// Get retrieves a project by ID
func (s *ProjectService) Get(ctx context.Context, userID, id uint) (*models.Project, error) {
	return findProject(s.db.WithContext(ctx), userID, id)
}

func findProject(tx *gorm.DB, userID, id uint) (*models.Project, error) {
	var project models.Project
	if err := tx.First(&project, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return &project, nil
}

func (s *ProjectService) nameTaken(tx *gorm.DB, userID uint, name string, exceptID uint) (bool, error) {
	var count int64
	q := tx.Model(&models.Project{}).Where("user_id = ? AND name = ?", userID, name)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create creates a new project
func (s *ProjectService) Create(ctx context.Context, userID uint, req *models.CreateProjectRequest) (*models.Project, error) {
	name, err := validateProjectName(req.Name)
	if err != nil {
		return nil, err
	}

	tx := s.db.WithContext(ctx)
	taken, err := s.nameTaken(tx, userID, name, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrProjectNameExists
	}

	project := &models.Project{
		UserID:             userID,
		Name:               name,
		Color:              strings.TrimSpace(req.Color),
		Description:        req.Description,
		CustomInstructions: req.CustomInstructions,
	}
	if err := tx.Create(project).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrProjectNameExists
		}
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	emit(s.events, event.ProjectChangedEvent{ProjectID: project.ID})
	return project, nil
}

// Update applies a partial patch to a project.
func (s *ProjectService) Update(ctx context.Context, userID, id uint, req *models.UpdateProjectRequest) (*models.Project, error) {
	tx := s.db.WithContext(ctx)
	project, err := findProject(tx, userID, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		name, err := validateProjectName(*req.Name)
		if err != nil {
			return nil, err
		}
		if name != project.Name {
			taken, err := s.nameTaken(tx, userID, name, id)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, ErrProjectNameExists
			}
			updates["name"] = name
		}
	}
	if req.Color != nil {
		updates["color"] = strings.TrimSpace(*req.Color)
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.CustomInstructions != nil {
		updates["custom_instructions"] = *req.CustomInstructions
	}
	if req.IsArchived != nil {
		updates["is_archived"] = *req.IsArchived
	}

	if len(updates) > 0 {
		updates["updated_at"] = now()
		if err := tx.Model(project).Updates(updates).Error; err != nil {
			if isUniqueViolation(err) {
				return nil, ErrProjectNameExists
			}
			return nil, fmt.Errorf("failed to update project: %w", err)
		}
		emit(s.events, event.ProjectChangedEvent{ProjectID: id})
	}
	return findProject(tx, userID, id)
}

// Delete removes a project. Its conversations are kept and become unfiled.
func (s *ProjectService) Delete(ctx context.Context, userID, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findProject(tx, userID, id); err != nil {
			return err
		}
		if err := tx.Model(&models.Conversation{}).
			Where("project_id = ?", id).
			Update("project_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Project{}, "id = ?", id).Error
	})
	if err != nil {
		return err
	}
	emit(s.events, event.ProjectChangedEvent{ProjectID: id, Deleted: true})
	return nil
}
