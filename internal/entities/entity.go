package entities

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/julianstephens/nudge/internal/logger"
	"github.com/julianstephens/nudge/internal/models"
	"github.com/julianstephens/nudge/internal/recurrence"
	"github.com/julianstephens/nudge/internal/storage"
)

// CreateEntity validates e, stamps its creation time and stores it. The
// returned entity carries the store-assigned id.
func (s *Service) CreateEntity(ctx context.Context, e models.Entity) (models.Entity, error) {
	now, err := s.Now(ctx)
	if err != nil {
		return models.Entity{}, err
	}

	e.ID = ""
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	if e.Answers == nil {
		e.Answers = []models.Answer{}
	}
	recurrence.Normalize(&e)
	if err := recurrence.Validate(e); err != nil {
		return models.Entity{}, err
	}

	id, err := s.store.CreateEntity(ctx, e)
	if err != nil {
		return models.Entity{}, fmt.Errorf("create %s: %w", e.Kind, err)
	}
	e.ID = id
	logger.Debug("entity created", "kind", e.Kind, "id", id)
	return e, nil
}

func (s *Service) GetEntity(ctx context.Context, kind models.Kind, id string) (models.Entity, error) {
	return s.store.GetEntity(ctx, kind, id)
}

// UpdateEntity applies patch after validating the merged result.
func (s *Service) UpdateEntity(ctx context.Context, kind models.Kind, id string, patch models.EntityPatch) (models.Entity, error) {
	var updated models.Entity
	err := s.store.RunInTx(ctx, func(ctx context.Context) error {
		before, err := s.store.GetEntity(ctx, kind, id)
		if err != nil {
			return err
		}

		after := before
		patch.Apply(&after)
		recurrence.Normalize(&after)
		if err := recurrence.Validate(after); err != nil {
			return err
		}
		if err := recurrence.CheckTransition(before, after); err != nil {
			return err
		}

		if err := s.store.UpdateEntity(ctx, kind, id, patch); err != nil {
			return fmt.Errorf("update %s %s: %w", kind, id, err)
		}
		updated = after
		return nil
	})
	return updated, err
}

// RecordAnswer appends a to the entity and marks it shown. A missing entity
// is not an error: the returned entity is nil.
func (s *Service) RecordAnswer(ctx context.Context, kind models.Kind, id string, a models.Answer) (*models.Entity, error) {
	now, err := s.Now(ctx)
	if err != nil {
		return nil, err
	}

	var recorded *models.Entity
	err = s.store.RunInTx(ctx, func(ctx context.Context) error {
		e, err := s.store.GetEntity(ctx, kind, id)
		if errors.Is(err, storage.ErrNotFound) {
			logger.Debug("answer for missing entity ignored", "kind", kind, "id", id)
			return nil
		}
		if err != nil {
			return err
		}

		if err := recurrence.ApplyAnswer(&e, a, now); err != nil {
			return err
		}
		patch := models.EntityPatch{
			LastShownAt: e.LastShownAt,
			Answers:     &e.Answers,
		}
		if e.Kind.IsOneTime() {
			patch.IsDone = &e.IsDone
		}
		if err := s.store.UpdateEntity(ctx, kind, id, patch); err != nil {
			return fmt.Errorf("record answer for %s %s: %w", kind, id, err)
		}
		recorded = &e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return recorded, nil
}

// DeleteEntity removes e and every pending queue entry pointing at it. An
// entity without an id is ignored.
func (s *Service) DeleteEntity(ctx context.Context, e models.Entity) error {
	if e.ID == "" {
		return nil
	}
	return s.store.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.DeleteEntity(ctx, e.Kind, e.ID); err != nil {
			return fmt.Errorf("delete %s %s: %w", e.Kind, e.ID, err)
		}
		removed, err := s.store.DeletePendingQueueItems(ctx, string(e.Kind), e.ID)
		if err != nil {
			return fmt.Errorf("delete queue entries for %s %s: %w", e.Kind, e.ID, err)
		}
		logger.Debug("entity deleted", "kind", e.Kind, "id", e.ID, "queue_entries", removed)
		return nil
	})
}

// listAll reads every kind concurrently. The result is indexed like kinds.
func (s *Service) listAll(ctx context.Context, kinds []models.Kind) ([][]models.Entity, error) {
	results := make([][]models.Entity, len(kinds))
	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range kinds {
		g.Go(func() error {
			entities, err := s.store.ListEntities(gctx, kind)
			if err != nil {
				return fmt.Errorf("list %s: %w", kind, err)
			}
			results[i] = entities
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// GetAllEntities returns every entity of every kind, newest first.
func (s *Service) GetAllEntities(ctx context.Context) ([]models.Entity, error) {
	groups, err := s.listAll(ctx, models.Kinds)
	if err != nil {
		return nil, err
	}

	all := []models.Entity{}
	for _, g := range groups {
		all = append(all, g...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return all, nil
}
