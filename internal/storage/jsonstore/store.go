// Package jsonstore keeps all records in a single JSON document on disk.
// It suits small portable setups and tests; every write rewrites the file.
package jsonstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/julianstephens/nudge/internal/models"
	"github.com/julianstephens/nudge/internal/recurrence"
	"github.com/julianstephens/nudge/internal/storage"
)

const currentVersion = 1

var _ storage.Provider = (*Store)(nil)

type document struct {
	Version       int                            `json:"version"`
	Settings      map[string]string              `json:"settings"`
	Entities      map[string]models.Entity       `json:"entities"`
	TasksOfTheDay map[string]models.TaskOfTheDay `json:"tasks_of_the_day"`
	Queue         map[string]models.QueueItem    `json:"queue"`
	Actions       map[string]models.Action       `json:"actions"`
}

func newDocument() *document {
	return &document{
		Version:       currentVersion,
		Settings:      models.SettingsToMap(models.DefaultSettings()),
		Entities:      map[string]models.Entity{},
		TasksOfTheDay: map[string]models.TaskOfTheDay{},
		Queue:         map[string]models.QueueItem{},
		Actions:       map[string]models.Action{},
	}
}

func (d *document) ensureMaps() {
	if d.Settings == nil {
		d.Settings = map[string]string{}
	}
	if d.Entities == nil {
		d.Entities = map[string]models.Entity{}
	}
	if d.TasksOfTheDay == nil {
		d.TasksOfTheDay = map[string]models.TaskOfTheDay{}
	}
	if d.Queue == nil {
		d.Queue = map[string]models.QueueItem{}
	}
	if d.Actions == nil {
		d.Actions = map[string]models.Action{}
	}
}

type Store struct {
	path string
	mu   sync.Mutex
	doc  *document
}

func New(path string) *Store {
	return &Store{path: path}
}

// Init creates the file with default settings, or loads it when it already
// exists.
func (s *Store) Init(ctx context.Context) error {
	if _, err := os.Stat(s.path); err == nil {
		return s.Load(ctx)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = newDocument()
	return s.save()
}

func (s *Store) Load(context.Context) error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("storage not initialized, run 'nudge init' first")
		}
		return fmt.Errorf("failed to read storage: %w", err)
	}

	doc := &document{}
	if err := json.Unmarshal(data, doc); err != nil {
		return fmt.Errorf("failed to parse storage: %w", err)
	}
	if doc.Version > currentVersion {
		return fmt.Errorf("storage version (%d) is newer than supported version (%d) - please upgrade the application", doc.Version, currentVersion)
	}
	doc.ensureMaps()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc
	return nil
}

func (s *Store) Close() error {
	return nil
}

func (s *Store) GetConfigPath() string {
	return s.path
}

func (s *Store) save() error {
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize storage: %w", err)
	}

	// write-then-rename so a crash never leaves a truncated file
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write storage: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to write storage: %w", err)
	}
	return nil
}

type txKey struct{}

type txState struct {
	mu    sync.Mutex
	owner *Store
}

func (s *Store) inTx(ctx context.Context) (*txState, bool) {
	st, ok := ctx.Value(txKey{}).(*txState)
	return st, ok && st.owner == s
}

// RunInTx holds the store lock for the duration of fn. The document is
// restored from a snapshot when fn fails and written to disk once when it
// succeeds.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := s.inTx(ctx); ok {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return storage.ErrNotLoaded
	}

	snapshot, err := json.Marshal(s.doc)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	rollback := func() {
		restored := &document{}
		if jerr := json.Unmarshal(snapshot, restored); jerr == nil {
			restored.ensureMaps()
			s.doc = restored
		}
	}

	defer func() {
		if r := recover(); r != nil {
			rollback()
			panic(r)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, &txState{owner: s})); err != nil {
		rollback()
		return err
	}
	if err := s.save(); err != nil {
		rollback()
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// read runs fn under the appropriate lock.
func (s *Store) read(ctx context.Context, fn func(doc *document) error) error {
	if st, ok := s.inTx(ctx); ok {
		st.mu.Lock()
		defer st.mu.Unlock()
		return fn(s.doc)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return storage.ErrNotLoaded
	}
	return fn(s.doc)
}

// write runs fn under the appropriate lock and persists the result unless a
// transaction will do so on commit.
func (s *Store) write(ctx context.Context, fn func(doc *document) error) error {
	if st, ok := s.inTx(ctx); ok {
		st.mu.Lock()
		defer st.mu.Unlock()
		return fn(s.doc)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return storage.ErrNotLoaded
	}
	if err := fn(s.doc); err != nil {
		return err
	}
	return s.save()
}

func (s *Store) GetSettings(ctx context.Context) (models.Settings, error) {
	var settings models.Settings
	err := s.read(ctx, func(doc *document) error {
		var err error
		settings, err = models.MapToSettings(doc.Settings)
		return err
	})
	return settings, err
}

func (s *Store) SaveSettings(ctx context.Context, settings models.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	return s.write(ctx, func(doc *document) error {
		for k, v := range models.SettingsToMap(settings) {
			doc.Settings[k] = v
		}
		return nil
	})
}

func cloneEntity(e models.Entity) models.Entity {
	e.Answers = append([]models.Answer{}, e.Answers...)
	if e.LastShownAt != nil {
		t := *e.LastShownAt
		e.LastShownAt = &t
	}
	return e
}

func (s *Store) ListEntities(ctx context.Context, kind models.Kind) ([]models.Entity, error) {
	entities := []models.Entity{}
	err := s.read(ctx, func(doc *document) error {
		for _, e := range doc.Entities {
			if e.Kind == kind {
				entities = append(entities, cloneEntity(e))
			}
		}
		return nil
	})
	sort.Slice(entities, func(i, j int) bool {
		if !entities[i].CreatedAt.Equal(entities[j].CreatedAt) {
			return entities[i].CreatedAt.After(entities[j].CreatedAt)
		}
		return entities[i].ID < entities[j].ID
	})
	return entities, err
}

func (s *Store) GetEntity(ctx context.Context, kind models.Kind, id string) (models.Entity, error) {
	var found models.Entity
	err := s.read(ctx, func(doc *document) error {
		e, ok := doc.Entities[id]
		if !ok || e.Kind != kind {
			return storage.NotFound(string(kind), id)
		}
		found = cloneEntity(e)
		return nil
	})
	return found, err
}

func (s *Store) CreateEntity(ctx context.Context, e models.Entity) (string, error) {
	if e.ID == "" {
		e.ID = storage.NewID()
	}
	e = cloneEntity(e)
	recurrence.Normalize(&e)
	err := s.write(ctx, func(doc *document) error {
		if _, exists := doc.Entities[e.ID]; exists {
			return fmt.Errorf("create %s: id %s already exists", e.Kind, e.ID)
		}
		doc.Entities[e.ID] = e
		return nil
	})
	if err != nil {
		return "", err
	}
	return e.ID, nil
}

func (s *Store) UpdateEntity(ctx context.Context, kind models.Kind, id string, patch models.EntityPatch) error {
	return s.write(ctx, func(doc *document) error {
		e, ok := doc.Entities[id]
		if !ok || e.Kind != kind {
			return storage.NotFound(string(kind), id)
		}
		patch.Apply(&e)
		recurrence.Normalize(&e)
		doc.Entities[id] = e
		return nil
	})
}

func (s *Store) DeleteEntity(ctx context.Context, kind models.Kind, id string) error {
	return s.write(ctx, func(doc *document) error {
		e, ok := doc.Entities[id]
		if !ok || e.Kind != kind {
			return storage.NotFound(string(kind), id)
		}
		delete(doc.Entities, id)
		return nil
	})
}

func (s *Store) FindTaskOfTheDay(ctx context.Context, dateKey string) (models.TaskOfTheDay, error) {
	var (
		found models.TaskOfTheDay
		ok    bool
	)
	err := s.read(ctx, func(doc *document) error {
		for _, r := range doc.TasksOfTheDay {
			if r.Date != dateKey {
				continue
			}
			if !ok || r.SelectedAt.Before(found.SelectedAt) {
				found, ok = r, true
			}
		}
		return nil
	})
	if err != nil {
		return models.TaskOfTheDay{}, err
	}
	if !ok {
		return models.TaskOfTheDay{}, storage.NotFound("task of the day", dateKey)
	}
	return found, nil
}

func (s *Store) ListTasksOfTheDay(ctx context.Context) ([]models.TaskOfTheDay, error) {
	records := []models.TaskOfTheDay{}
	err := s.read(ctx, func(doc *document) error {
		for _, r := range doc.TasksOfTheDay {
			records = append(records, r)
		}
		return nil
	})
	sort.Slice(records, func(i, j int) bool {
		if records[i].Date != records[j].Date {
			return records[i].Date < records[j].Date
		}
		return records[i].SelectedAt.Before(records[j].SelectedAt)
	})
	return records, err
}

func (s *Store) AddTaskOfTheDay(ctx context.Context, r models.TaskOfTheDay) (string, error) {
	if r.ID == "" {
		r.ID = storage.NewID()
	}
	err := s.write(ctx, func(doc *document) error {
		doc.TasksOfTheDay[r.ID] = r
		return nil
	})
	if err != nil {
		return "", err
	}
	return r.ID, nil
}

func (s *Store) SetTaskOfTheDayCompleted(ctx context.Context, id string, completedAt time.Time) error {
	return s.write(ctx, func(doc *document) error {
		r, ok := doc.TasksOfTheDay[id]
		if !ok {
			return storage.NotFound("task of the day", id)
		}
		r.CompletedAt = &completedAt
		doc.TasksOfTheDay[id] = r
		return nil
	})
}

func (s *Store) DeleteTaskOfTheDay(ctx context.Context, id string) error {
	return s.write(ctx, func(doc *document) error {
		if _, ok := doc.TasksOfTheDay[id]; !ok {
			return storage.NotFound("task of the day", id)
		}
		delete(doc.TasksOfTheDay, id)
		return nil
	})
}

func inRange(t, from, to time.Time) bool {
	return !t.Before(from) && !t.After(to)
}

func sortQueue(items []models.QueueItem) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].ScheduledFor.Equal(items[j].ScheduledFor) {
			return items[i].ScheduledFor.Before(items[j].ScheduledFor)
		}
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})
}

func (s *Store) ListQueueItems(ctx context.Context, from, to time.Time) ([]models.QueueItem, error) {
	items := []models.QueueItem{}
	err := s.read(ctx, func(doc *document) error {
		for _, item := range doc.Queue {
			if inRange(item.ScheduledFor, from, to) {
				items = append(items, item)
			}
		}
		return nil
	})
	sortQueue(items)
	return items, err
}

func (s *Store) CountQueueItems(ctx context.Context, from, to time.Time) (int, error) {
	count := 0
	err := s.read(ctx, func(doc *document) error {
		for _, item := range doc.Queue {
			if inRange(item.ScheduledFor, from, to) {
				count++
			}
		}
		return nil
	})
	return count, err
}

func (s *Store) GetQueueItem(ctx context.Context, id string) (models.QueueItem, error) {
	var found models.QueueItem
	err := s.read(ctx, func(doc *document) error {
		item, ok := doc.Queue[id]
		if !ok {
			return storage.NotFound("queue item", id)
		}
		found = item
		return nil
	})
	return found, err
}

func (s *Store) GetAllQueueItems(ctx context.Context) ([]models.QueueItem, error) {
	items := []models.QueueItem{}
	err := s.read(ctx, func(doc *document) error {
		for _, item := range doc.Queue {
			items = append(items, item)
		}
		return nil
	})
	sortQueue(items)
	return items, err
}

func (s *Store) AddQueueItem(ctx context.Context, item models.QueueItem) (string, error) {
	if item.ID == "" {
		item.ID = storage.NewID()
	}
	err := s.write(ctx, func(doc *document) error {
		doc.Queue[item.ID] = item
		return nil
	})
	if err != nil {
		return "", err
	}
	return item.ID, nil
}

func (s *Store) CompleteQueueItem(ctx context.Context, id string, response string, completedAt time.Time) error {
	return s.write(ctx, func(doc *document) error {
		item, ok := doc.Queue[id]
		if !ok {
			return storage.NotFound("queue item", id)
		}
		item.Completed = true
		item.Response = response
		item.CompletedAt = &completedAt
		doc.Queue[id] = item
		return nil
	})
}

func (s *Store) DeletePendingQueueItems(ctx context.Context, category, itemID string) (int, error) {
	removed := 0
	err := s.write(ctx, func(doc *document) error {
		for id, item := range doc.Queue {
			if item.Category == category && item.ItemID == itemID && !item.Completed {
				delete(doc.Queue, id)
				removed++
			}
		}
		return nil
	})
	return removed, err
}

func (s *Store) AddAction(ctx context.Context, a models.Action) (string, error) {
	if a.ID == "" {
		a.ID = storage.NewID()
	}
	err := s.write(ctx, func(doc *document) error {
		doc.Actions[a.ID] = a
		return nil
	})
	if err != nil {
		return "", err
	}
	return a.ID, nil
}

func (s *Store) GetAction(ctx context.Context, id string) (models.Action, error) {
	var found models.Action
	err := s.read(ctx, func(doc *document) error {
		a, ok := doc.Actions[id]
		if !ok {
			return storage.NotFound("action", id)
		}
		found = a
		return nil
	})
	return found, err
}

func (s *Store) GetAllActions(ctx context.Context) ([]models.Action, error) {
	actions := []models.Action{}
	err := s.read(ctx, func(doc *document) error {
		for _, a := range doc.Actions {
			actions = append(actions, a)
		}
		return nil
	})
	sort.Slice(actions, func(i, j int) bool {
		if !actions[i].CreatedAt.Equal(actions[j].CreatedAt) {
			return actions[i].CreatedAt.After(actions[j].CreatedAt)
		}
		return actions[i].ID < actions[j].ID
	})
	return actions, err
}

func (s *Store) UpdateAction(ctx context.Context, a models.Action) error {
	return s.write(ctx, func(doc *document) error {
		if _, ok := doc.Actions[a.ID]; !ok {
			return storage.NotFound("action", a.ID)
		}
		doc.Actions[a.ID] = a
		return nil
	})
}

func (s *Store) DeleteAction(ctx context.Context, id string) error {
	return s.write(ctx, func(doc *document) error {
		if _, ok := doc.Actions[id]; !ok {
			return storage.NotFound("action", id)
		}
		delete(doc.Actions, id)
		return nil
	})
}
