package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/adhocore/gronx"
	"github.com/parley-chat/parley/pkg/models"
	"github.com/parley-chat/parley/pkg/utils"
	"gorm.io/gorm"
)

const visibleMessageCount = "(SELECT COUNT(*) FROM messages WHERE messages.conversation_id = conversations.id AND messages.is_deleted = ?)"

// ReconcileService recomputes cached message counts from the message rows
// and repairs any drift. Runs on demand or on a cron schedule.
type ReconcileService struct {
	db     *gorm.DB
	logger *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewReconcileService creates a new reconcile service
func NewReconcileService(db *gorm.DB) *ReconcileService {
	return &ReconcileService{db: db, logger: utils.GetLogger()}
}

// Run checks every conversation and rewrites message_count where it differs
// from the number of visible messages.
func (s *ReconcileService) Run(ctx context.Context) (*models.ReconcileResult, error) {
	var rows []struct {
		ID           uint
		MessageCount int
		Actual       int
	}
	err := s.db.WithContext(ctx).Model(&models.Conversation{}).
		Select("conversations.id, conversations.message_count, "+visibleMessageCount+" AS actual", false).
		Order("conversations.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("scan message counts: %w", err)
	}

	result := &models.ReconcileResult{Checked: len(rows)}
	for _, r := range rows {
		if r.MessageCount == r.Actual {
			continue
		}
		// The count is recomputed in the UPDATE itself so a message appended
		// after the scan is not overwritten by the scanned value.
		if err := s.db.WithContext(ctx).Model(&models.Conversation{}).
			Where("id = ?", r.ID).
			UpdateColumn("message_count", gorm.Expr(visibleMessageCount, false)).Error; err != nil {
			return result, fmt.Errorf("repair conversation %d: %w", r.ID, err)
		}
		s.logger.Warn("message count drift repaired", "conversation_id", r.ID, "cached", r.MessageCount, "actual", r.Actual)
		result.Repaired++
		result.Fixed = append(result.Fixed, r.ID)
	}

	s.logger.Info("reconcile finished", "checked", result.Checked, "repaired", result.Repaired)
	return result, nil
}

// Start runs the reconcile pass on the given cron expression until ctx is
// cancelled. An empty expression disables the schedule.
func (s *ReconcileService) Start(ctx context.Context, expr string) {
	if expr == "" {
		s.logger.Debug("scheduled reconcile disabled")
		return
	}
	s.logger.Info("scheduled reconcile enabled", "cron", expr)
	go s.scheduleLoop(ctx, expr)
}

func (s *ReconcileService) scheduleLoop(ctx context.Context, expr string) {
	for {
		next, err := gronx.NextTickAfter(expr, time.Now(), false)
		if err != nil {
			s.logger.Error("reconcile next tick failed", "cron", expr, "error", err)
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		select {
		case <-time.After(time.Until(next)):
			s.runJob(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// runJob skips a tick while a previous pass is still running.
func (s *ReconcileService) runJob(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	if _, err := s.Run(ctx); err != nil {
		s.logger.Error("scheduled reconcile failed", "error", err)
	}
}
