package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/parley-chat/parley/pkg/event"
	"github.com/parley-chat/parley/pkg/models"
	"github.com/parley-chat/parley/pkg/utils"
	"gorm.io/gorm"
)

// UserService manages the account profile.
type UserService struct {
	db     *gorm.DB
	events *event.Emitter
	logger *slog.Logger
}

// NewUserService creates a new user service
func NewUserService(db *gorm.DB, events *event.Emitter) *UserService {
	return &UserService{db: db, events: events, logger: utils.GetLogger()}
}

// EnsureDefault creates the implicit account on first start.
func (s *UserService) EnsureDefault(ctx context.Context) (*models.User, error) {
	user := models.User{ID: DefaultUserID}
	err := s.db.WithContext(ctx).
		Attrs(models.User{Name: "Default User", Email: "user@example.com"}).
		FirstOrCreate(&user, "id = ?", DefaultUserID).Error
	if err != nil {
		return nil, fmt.Errorf("failed to ensure default user: %w", err)
	}
	return &user, nil
}

// Get retrieves a user by ID
func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Update applies a partial profile patch.
func (s *UserService) Update(ctx context.Context, id uint, req *models.UpdateUserRequest) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, invalid("name", "must not be empty")
		}
		updates["name"] = name
	}
	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if email != "" && !strings.Contains(email, "@") {
			return nil, invalid("email", "must be an email address")
		}
		updates["email"] = email
	}
	if req.CustomInstructions != nil {
		updates["custom_instructions"] = *req.CustomInstructions
	}
	if req.AvatarURL != nil {
		updates["avatar_url"] = strings.TrimSpace(*req.AvatarURL)
	}

	if len(updates) > 0 {
		updates["updated_at"] = now()
		if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update user: %w", err)
		}
		emit(s.events, event.UserUpdatedEvent{UserID: id})
	}
	return s.Get(ctx, id)
}
