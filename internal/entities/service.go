// Package entities is the engine's view of stored entities: validated
// writes, answer recording, cascading deletes and the due-candidate
// aggregator.
package entities

import (
	"context"
	"fmt"
	"time"

	"github.com/julianstephens/nudge/internal/models"
	"github.com/julianstephens/nudge/internal/utils"
)

type store interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetSettings(ctx context.Context) (models.Settings, error)

	ListEntities(ctx context.Context, kind models.Kind) ([]models.Entity, error)
	GetEntity(ctx context.Context, kind models.Kind, id string) (models.Entity, error)
	CreateEntity(ctx context.Context, e models.Entity) (string, error)
	UpdateEntity(ctx context.Context, kind models.Kind, id string, patch models.EntityPatch) error
	DeleteEntity(ctx context.Context, kind models.Kind, id string) error

	AddAction(ctx context.Context, a models.Action) (string, error)
	GetAction(ctx context.Context, id string) (models.Action, error)
	GetAllActions(ctx context.Context) ([]models.Action, error)
	UpdateAction(ctx context.Context, a models.Action) error
	DeleteAction(ctx context.Context, id string) error

	DeletePendingQueueItems(ctx context.Context, category, itemID string) (int, error)
}

// Clock returns the current instant.
type Clock func() time.Time

// Service is stateless apart from its collaborators and safe for concurrent
// use.
type Service struct {
	store store
	now   Clock
}

type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(c Clock) Option {
	return func(s *Service) { s.now = c }
}

func NewService(store store, opts ...Option) *Service {
	s := &Service{store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the current instant in the timezone from the stored settings.
func (s *Service) Now(ctx context.Context) (time.Time, error) {
	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return time.Time{}, fmt.Errorf("get settings: %w", err)
	}
	loc, err := utils.LoadLocation(settings.Timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timezone %q: %w", settings.Timezone, err)
	}
	return s.now().In(loc), nil
}

// Settings exposes the stored settings to the other engine components.
func (s *Service) Settings(ctx context.Context) (models.Settings, error) {
	return s.store.GetSettings(ctx)
}

// RunInTx runs fn inside a store transaction.
func (s *Service) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.store.RunInTx(ctx, fn)
}
