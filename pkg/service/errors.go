package service

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Error kinds. Handlers map them to status codes with errors.Is.
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
)

var (
	ErrUserNotFound         = fmt.Errorf("user %w", ErrNotFound)
	ErrProjectNotFound      = fmt.Errorf("project %w", ErrNotFound)
	ErrConversationNotFound = fmt.Errorf("conversation %w", ErrNotFound)
	ErrMessageNotFound      = fmt.Errorf("message %w", ErrNotFound)
	ErrArtifactNotFound     = fmt.Errorf("artifact %w", ErrNotFound)
	ErrFolderNotFound       = fmt.Errorf("folder %w", ErrNotFound)
	ErrShareNotFound        = fmt.Errorf("share %w", ErrNotFound)

	ErrProjectNameExists       = fmt.Errorf("%w: project name already exists", ErrConflict)
	ErrAlreadyInFolder         = fmt.Errorf("%w: conversation already in folder", ErrConflict)
	ErrConversationNotDeleted  = fmt.Errorf("%w: only deleted conversations can be purged", ErrConflict)
	ErrArtifactVersionConflict = fmt.Errorf("%w: artifact version was created concurrently", ErrConflict)
)

// ValidationError names the offending request field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrValidation) true for every ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// isUniqueViolation recognizes unique-constraint failures from both
// sqlite and postgres without importing driver error types.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
