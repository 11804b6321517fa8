// Package scheduler fills a day's queue from the due candidates. High
// priority candidates always go first; each tier is shuffled so the same
// item does not lead every day.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/nudge/internal/constants"
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
	DueActions(ctx context.Context, now time.Time) ([]models.Action, error)
}

type queueStore interface {
	ListQueueItems(ctx context.Context, from, to time.Time) ([]models.QueueItem, error)
	CountQueueItems(ctx context.Context, from, to time.Time) (int, error)
	GetQueueItem(ctx context.Context, id string) (models.QueueItem, error)
	AddQueueItem(ctx context.Context, item models.QueueItem) (string, error)
	CompleteQueueItem(ctx context.Context, id string, response string, completedAt time.Time) error
}

// Candidate is anything that can be queued.
type Candidate struct {
	Category     string
	ItemID       string
	Title        string
	HighPriority bool
}

type Scheduler struct {
	source candidateSource
	queue  queueStore
	rnd    random.Source
}

type Option func(*Scheduler)

// WithRandom replaces the default random source.
func WithRandom(src random.Source) Option {
	return func(s *Scheduler) { s.rnd = src }
}

func New(source candidateSource, queue queueStore, opts ...Option) *Scheduler {
	s := &Scheduler{source: source, queue: queue, rnd: random.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today returns the start of the current habit day.
func (s *Scheduler) Today(ctx context.Context) (time.Time, error) {
	now, err := s.source.Now(ctx)
	if err != nil {
		return time.Time{}, err
	}
	settings, err := s.source.Settings(ctx)
	if err != nil {
		return time.Time{}, fmt.Errorf("get settings: %w", err)
	}
	return utils.HabitDayWithCutoff(now, settings.HabitDayCutoffHour), nil
}

// GenerateForToday tops up today's queue to the configured size.
func (s *Scheduler) GenerateForToday(ctx context.Context) ([]models.QueueItem, error) {
	settings, err := s.source.Settings(ctx)
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	today, err := s.Today(ctx)
	if err != nil {
		return nil, err
	}
	return s.GenerateQueueForDate(ctx, today, settings.QueueMaxItems)
}

// GenerateQueueForDate tops up the queue for date's calendar day to at most
// maxItems entries and returns the entries it added. Entries already
// scheduled for the day are never removed or reordered, and an item is
// queued at most once per day.
func (s *Scheduler) GenerateQueueForDate(ctx context.Context, date time.Time, maxItems int) ([]models.QueueItem, error) {
	if maxItems <= 0 {
		return nil, nil
	}
	from, to := utils.StartOfDay(date), utils.EndOfDay(date)

	var added []models.QueueItem
	err := s.source.RunInTx(ctx, func(ctx context.Context) error {
		count, err := s.queue.CountQueueItems(ctx, from, to)
		if err != nil {
			return fmt.Errorf("count queue: %w", err)
		}
		if count >= maxItems {
			logger.Debug("queue already full", "date", utils.FormatDateKey(from), "count", count, "max", maxItems)
			return nil
		}

		existing, err := s.queue.ListQueueItems(ctx, from, to)
		if err != nil {
			return fmt.Errorf("list queue: %w", err)
		}
		queued := make(map[string]bool, len(existing))
		for _, item := range existing {
			queued[queueKey(item.Category, item.ItemID)] = true
		}

		now, err := s.source.Now(ctx)
		if err != nil {
			return err
		}
		candidates, err := s.candidates(ctx, now)
		if err != nil {
			return err
		}

		var high, normal []Candidate
		for _, c := range candidates {
			if queued[queueKey(c.Category, c.ItemID)] {
				continue
			}
			if c.HighPriority {
				high = append(high, c)
			} else {
				normal = append(normal, c)
			}
		}

		for _, c := range s.pick(high, normal, maxItems-count) {
			item := models.QueueItem{
				Category:     c.Category,
				ItemID:       c.ItemID,
				ScheduledFor: from,
				CreatedAt:    now,
			}
			id, err := s.queue.AddQueueItem(ctx, item)
			if err != nil {
				return fmt.Errorf("add queue item for %s %s: %w", c.Category, c.ItemID, err)
			}
			item.ID = id
			added = append(added, item)
		}

		logger.Debug("queue generated", "date", utils.FormatDateKey(from), "existing", count, "added", len(added))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

// pick shuffles each tier independently and returns at most limit
// candidates, high priority first.
func (s *Scheduler) pick(high, normal []Candidate, limit int) []Candidate {
	random.Shuffle(s.rnd, high)
	random.Shuffle(s.rnd, normal)

	ordered := append(high, normal...)
	if len(ordered) > limit {
		ordered = ordered[:limit]
	}
	return ordered
}

// candidates lists every queueable item due at now.
func (s *Scheduler) candidates(ctx context.Context, now time.Time) ([]Candidate, error) {
	due, err := s.source.DueCandidatesAt(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("due candidates: %w", err)
	}
	actions, err := s.source.DueActions(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("due actions: %w", err)
	}

	out := make([]Candidate, 0, due.Len()+len(actions))
	for _, e := range due.All() {
		out = append(out, Candidate{
			Category:     string(e.Kind),
			ItemID:       e.ID,
			Title:        e.Title,
			HighPriority: e.Kind == models.KindIntervalPromptHighPriority,
		})
	}
	for _, a := range actions {
		out = append(out, Candidate{
			Category:     constants.QueueCategoryAction,
			ItemID:       a.ID,
			Title:        a.Title,
			HighPriority: a.HighPriority,
		})
	}
	return out, nil
}

// ListQueue returns the entries scheduled on date's calendar day.
func (s *Scheduler) ListQueue(ctx context.Context, date time.Time) ([]models.QueueItem, error) {
	return s.queue.ListQueueItems(ctx, utils.StartOfDay(date), utils.EndOfDay(date))
}

// CompleteQueueItem marks an entry done with an optional free-text response.
// A missing entry is a no-op and yields nil.
func (s *Scheduler) CompleteQueueItem(ctx context.Context, id, response string) (*models.QueueItem, error) {
	now, err := s.source.Now(ctx)
	if err != nil {
		return nil, err
	}

	var completed *models.QueueItem
	err = s.source.RunInTx(ctx, func(ctx context.Context) error {
		item, err := s.queue.GetQueueItem(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := s.queue.CompleteQueueItem(ctx, id, response, now); err != nil {
			return fmt.Errorf("complete queue item %s: %w", id, err)
		}
		item.Completed = true
		item.Response = response
		item.CompletedAt = &now
		completed = &item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return completed, nil
}

func queueKey(category, itemID string) string {
	return category + "/" + itemID
}
