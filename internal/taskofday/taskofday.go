// Package taskofday picks one due daily task per habit day and remembers
// the pick until the day is over.
package taskofday

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/nudge/internal/entities"
	"github.com/julianstephens/nudge/internal/logger"
	"github.com/julianstephens/nudge/internal/models"
	"github.com/julianstephens/nudge/internal/random"
	"github.com/julianstephens/nudge/internal/storage"
	"github.com/julianstephens/nudge/internal/utils"
)

type candidateSource interface {
	Now(ctx context.Context) (time.Time, error)
	Settings(ctx context.Context) (models.Settings, error)
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
	DueCandidatesAt(ctx context.Context, now time.Time) (entities.DueCandidates, error)
	GetEntity(ctx context.Context, kind models.Kind, id string) (models.Entity, error)
}

type recordStore interface {
	FindTaskOfTheDay(ctx context.Context, dateKey string) (models.TaskOfTheDay, error)
	ListTasksOfTheDay(ctx context.Context) ([]models.TaskOfTheDay, error)
	AddTaskOfTheDay(ctx context.Context, r models.TaskOfTheDay) (string, error)
	SetTaskOfTheDayCompleted(ctx context.Context, id string, completedAt time.Time) error
	DeleteTaskOfTheDay(ctx context.Context, id string) error
}

// Result is the current habit day's selection. Task is nil when nothing was
// due, or when the selected entity has since been deleted; in the latter
// case Record is still set and no new task is picked until the day ends.
type Result struct {
	Task        *models.Entity       `json:"task"`
	IsCompleted bool                 `json:"is_completed"`
	Record      *models.TaskOfTheDay `json:"record"`
}

type Selector struct {
	source  candidateSource
	records recordStore
	rnd     random.Source
}

type Option func(*Selector)

// WithRandom replaces the default random source.
func WithRandom(src random.Source) Option {
	return func(s *Selector) { s.rnd = src }
}

func New(source candidateSource, records recordStore, opts ...Option) *Selector {
	s := &Selector{source: source, records: records, rnd: random.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// today returns the current instant and its habit-day key.
func (s *Selector) today(ctx context.Context) (time.Time, string, error) {
	now, err := s.source.Now(ctx)
	if err != nil {
		return time.Time{}, "", err
	}
	settings, err := s.source.Settings(ctx)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("get settings: %w", err)
	}
	return now, utils.HabitDayKey(now, settings.HabitDayCutoffHour), nil
}

// GetCurrent returns today's task, selecting one at random from the due
// daily tasks when no selection exists yet. Repeated calls on the same
// habit day return the same task.
func (s *Selector) GetCurrent(ctx context.Context) (Result, error) {
	var result Result
	err := s.source.RunInTx(ctx, func(ctx context.Context) error {
		now, key, err := s.today(ctx)
		if err != nil {
			return err
		}
		if _, err := s.cleanupBefore(ctx, key); err != nil {
			return err
		}

		record, err := s.records.FindTaskOfTheDay(ctx, key)
		switch {
		case err == nil:
			result, err = s.resolve(ctx, record)
			return err
		case !errors.Is(err, storage.ErrNotFound):
			return fmt.Errorf("find task of the day %s: %w", key, err)
		}

		due, err := s.source.DueCandidatesAt(ctx, now)
		if err != nil {
			return err
		}
		task, ok := random.Pick(s.rnd, due.DailyTasks)
		if !ok {
			logger.Debug("no daily task due", "date", key)
			return nil
		}

		record = models.TaskOfTheDay{
			Date:       key,
			TaskID:     task.ID,
			TaskType:   task.Kind,
			SelectedAt: now,
		}
		record.ID, err = s.records.AddTaskOfTheDay(ctx, record)
		if err != nil {
			return fmt.Errorf("save task of the day: %w", err)
		}
		logger.Info("task of the day selected", "date", key, "kind", task.Kind, "id", task.ID, "candidates", len(due.DailyTasks))

		result = Result{Task: &task, Record: &record}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return result, nil
}

func (s *Selector) resolve(ctx context.Context, record models.TaskOfTheDay) (Result, error) {
	result := Result{IsCompleted: record.IsCompleted(), Record: &record}

	task, err := s.source.GetEntity(ctx, record.TaskType, record.TaskID)
	if errors.Is(err, storage.ErrNotFound) {
		logger.Info("task of the day no longer exists", "date", record.Date, "kind", record.TaskType, "id", record.TaskID)
		return result, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("resolve task of the day: %w", err)
	}
	result.Task = &task
	return result, nil
}

// MarkTaskCompleted stamps today's record as completed. Without a record
// for today it does nothing and returns nil.
func (s *Selector) MarkTaskCompleted(ctx context.Context) (*models.TaskOfTheDay, error) {
	var completed *models.TaskOfTheDay
	err := s.source.RunInTx(ctx, func(ctx context.Context) error {
		now, key, err := s.today(ctx)
		if err != nil {
			return err
		}

		record, err := s.records.FindTaskOfTheDay(ctx, key)
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("find task of the day %s: %w", key, err)
		}

		if err := s.records.SetTaskOfTheDayCompleted(ctx, record.ID, now); err != nil {
			return fmt.Errorf("complete task of the day: %w", err)
		}
		record.CompletedAt = &now
		completed = &record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return completed, nil
}

// Cleanup deletes records from habit days before today and returns how many
// were removed.
func (s *Selector) Cleanup(ctx context.Context) (int, error) {
	var removed int
	err := s.source.RunInTx(ctx, func(ctx context.Context) error {
		_, key, err := s.today(ctx)
		if err != nil {
			return err
		}
		removed, err = s.cleanupBefore(ctx, key)
		return err
	})
	return removed, err
}

// cleanupBefore relies on zero-padded YYYY-MM-DD keys sorting
// chronologically.
func (s *Selector) cleanupBefore(ctx context.Context, key string) (int, error) {
	records, err := s.records.ListTasksOfTheDay(ctx)
	if err != nil {
		return 0, fmt.Errorf("list tasks of the day: %w", err)
	}

	removed := 0
	for _, r := range records {
		if r.Date >= key {
			continue
		}
		if err := s.records.DeleteTaskOfTheDay(ctx, r.ID); err != nil {
			return removed, fmt.Errorf("delete task of the day %s: %w", r.Date, err)
		}
		removed++
	}
	if removed > 0 {
		logger.Debug("expired tasks of the day removed", "before", key, "count", removed)
	}
	return removed, nil
}
