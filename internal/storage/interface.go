package storage

import (
	"context"
	"time"

	"github.com/julianstephens/nudge/internal/models"
)

type Provider interface {
	// Lifecycle
	Init(ctx context.Context) error
	Load(ctx context.Context) error
	Close() error

	// RunInTx runs fn so that every store call made with the context it
	// receives commits or rolls back together. Calls from other goroutines
	// using a context without the transaction are serialized against it by
	// the backend.
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error

	// Settings
	GetSettings(ctx context.Context) (models.Settings, error)
	SaveSettings(ctx context.Context, settings models.Settings) error

	// Entities. ListEntities orders by creation time, newest first. A
	// missing id yields an error wrapping ErrNotFound.
	ListEntities(ctx context.Context, kind models.Kind) ([]models.Entity, error)
	GetEntity(ctx context.Context, kind models.Kind, id string) (models.Entity, error)
	CreateEntity(ctx context.Context, entity models.Entity) (string, error)
	UpdateEntity(ctx context.Context, kind models.Kind, id string, patch models.EntityPatch) error
	DeleteEntity(ctx context.Context, kind models.Kind, id string) error

	// Task of the day. Several records may share a date; lookups return
	// the earliest selection.
	FindTaskOfTheDay(ctx context.Context, dateKey string) (models.TaskOfTheDay, error)
	ListTasksOfTheDay(ctx context.Context) ([]models.TaskOfTheDay, error)
	AddTaskOfTheDay(ctx context.Context, record models.TaskOfTheDay) (string, error)
	SetTaskOfTheDayCompleted(ctx context.Context, id string, completedAt time.Time) error
	DeleteTaskOfTheDay(ctx context.Context, id string) error

	// Queue. Ranges are inclusive on both ends.
	ListQueueItems(ctx context.Context, from, to time.Time) ([]models.QueueItem, error)
	CountQueueItems(ctx context.Context, from, to time.Time) (int, error)
	GetQueueItem(ctx context.Context, id string) (models.QueueItem, error)
	AddQueueItem(ctx context.Context, item models.QueueItem) (string, error)
	CompleteQueueItem(ctx context.Context, id string, response string, completedAt time.Time) error
	// DeletePendingQueueItems removes uncompleted entries pointing at the
	// given source item and reports how many were removed.
	DeletePendingQueueItems(ctx context.Context, category, itemID string) (int, error)
	GetAllQueueItems(ctx context.Context) ([]models.QueueItem, error)

	// Actions
	AddAction(ctx context.Context, action models.Action) (string, error)
	GetAction(ctx context.Context, id string) (models.Action, error)
	GetAllActions(ctx context.Context) ([]models.Action, error)
	UpdateAction(ctx context.Context, action models.Action) error
	DeleteAction(ctx context.Context, id string) error

	// Utils
	GetConfigPath() string
}
