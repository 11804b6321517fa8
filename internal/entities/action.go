package entities

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/nudge/internal/constants"
	"github.com/julianstephens/nudge/internal/logger"
	"github.com/julianstephens/nudge/internal/models"
	"github.com/julianstephens/nudge/internal/recurrence"
	"github.com/julianstephens/nudge/internal/storage"
)

func (s *Service) CreateAction(ctx context.Context, a models.Action) (models.Action, error) {
	if strings.TrimSpace(a.Title) == "" {
		return models.Action{}, models.NewValidationError("title", "must not be empty")
	}
	if a.IntervalDays < 0 {
		return models.Action{}, models.NewValidationError("interval_days", "must not be negative")
	}

	now, err := s.Now(ctx)
	if err != nil {
		return models.Action{}, err
	}
	a.ID = ""
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}

	id, err := s.store.AddAction(ctx, a)
	if err != nil {
		return models.Action{}, fmt.Errorf("create action: %w", err)
	}
	a.ID = id
	return a, nil
}

func (s *Service) GetAction(ctx context.Context, id string) (models.Action, error) {
	return s.store.GetAction(ctx, id)
}

// ListActions returns every action, newest first.
func (s *Service) ListActions(ctx context.Context) ([]models.Action, error) {
	return s.store.GetAllActions(ctx)
}

// ActiveActions drops archived actions and finished ones.
func (s *Service) ActiveActions(ctx context.Context) ([]models.Action, error) {
	all, err := s.store.GetAllActions(ctx)
	if err != nil {
		return nil, err
	}
	active := make([]models.Action, 0, len(all))
	for _, a := range all {
		if a.Archived || (a.IsFinishable && a.IsCompleted) {
			continue
		}
		active = append(active, a)
	}
	return active, nil
}

// DueActions returns the actions due at now.
func (s *Service) DueActions(ctx context.Context, now time.Time) ([]models.Action, error) {
	all, err := s.store.GetAllActions(ctx)
	if err != nil {
		return nil, err
	}
	due := make([]models.Action, 0, len(all))
	for _, a := range all {
		if recurrence.IsActionDue(a, now) {
			due = append(due, a)
		}
	}
	return due, nil
}

// mutateAction loads, changes and stores an action in one transaction. A
// missing action is a no-op and yields nil.
func (s *Service) mutateAction(ctx context.Context, id string, fn func(a *models.Action, now time.Time) error) (*models.Action, error) {
	now, err := s.Now(ctx)
	if err != nil {
		return nil, err
	}

	var result *models.Action
	err = s.store.RunInTx(ctx, func(ctx context.Context) error {
		a, err := s.store.GetAction(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(&a, now); err != nil {
			return err
		}
		if err := s.store.UpdateAction(ctx, a); err != nil {
			return fmt.Errorf("update action %s: %w", id, err)
		}
		result = &a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RecordActionInteraction marks the action done for today.
func (s *Service) RecordActionInteraction(ctx context.Context, id string) (*models.Action, error) {
	return s.mutateAction(ctx, id, func(a *models.Action, now time.Time) error {
		a.LastCompleted = &now
		return nil
	})
}

// FinishAction completes a finishable action for good.
func (s *Service) FinishAction(ctx context.Context, id string) (*models.Action, error) {
	return s.mutateAction(ctx, id, func(a *models.Action, now time.Time) error {
		if !a.IsFinishable {
			return models.NewValidationError("is_finishable", "action cannot be finished")
		}
		a.IsCompleted = true
		a.CompletedAt = &now
		a.LastCompleted = &now
		return nil
	})
}

func (s *Service) ReopenAction(ctx context.Context, id string) (*models.Action, error) {
	return s.mutateAction(ctx, id, func(a *models.Action, _ time.Time) error {
		a.IsCompleted = false
		a.CompletedAt = nil
		return nil
	})
}

func (s *Service) SetActionArchived(ctx context.Context, id string, archived bool) (*models.Action, error) {
	return s.mutateAction(ctx, id, func(a *models.Action, _ time.Time) error {
		a.Archived = archived
		return nil
	})
}

// DeleteAction removes the action and its pending queue entries.
func (s *Service) DeleteAction(ctx context.Context, id string) error {
	return s.store.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.DeleteAction(ctx, id); err != nil {
			return fmt.Errorf("delete action %s: %w", id, err)
		}
		removed, err := s.store.DeletePendingQueueItems(ctx, constants.QueueCategoryAction, id)
		if err != nil {
			return fmt.Errorf("delete queue entries for action %s: %w", id, err)
		}
		logger.Debug("action deleted", "id", id, "queue_entries", removed)
		return nil
	})
}
