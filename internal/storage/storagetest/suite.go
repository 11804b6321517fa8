// Package storagetest holds the behaviour every storage.Provider backend
// must share. Backend test files call Run with a constructor for a fresh,
// initialized store.
package storagetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/nudge/internal/models"
	"github.com/julianstephens/nudge/internal/storage"
)

// Factory returns an initialized store. Cleanup is the factory's job.
type Factory func(t *testing.T) storage.Provider

var base = time.Date(2024, time.January, 15, 9, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

// Run executes the shared provider suite.
func Run(t *testing.T, newStore Factory) {
	t.Run("Settings", func(t *testing.T) { testSettings(t, newStore(t)) })
	t.Run("EntityRoundTrip", func(t *testing.T) { testEntityRoundTrip(t, newStore(t)) })
	t.Run("EntityOrdering", func(t *testing.T) { testEntityOrdering(t, newStore(t)) })
	t.Run("EntityPatch", func(t *testing.T) { testEntityPatch(t, newStore(t)) })
	t.Run("EntityNotFound", func(t *testing.T) { testEntityNotFound(t, newStore(t)) })
	t.Run("TaskOfTheDay", func(t *testing.T) { testTaskOfTheDay(t, newStore(t)) })
	t.Run("Queue", func(t *testing.T) { testQueue(t, newStore(t)) })
	t.Run("Actions", func(t *testing.T) { testActions(t, newStore(t)) })
	t.Run("TxRollback", func(t *testing.T) { testTxRollback(t, newStore(t)) })
	t.Run("TxConcurrentReads", func(t *testing.T) { testTxConcurrentReads(t, newStore(t)) })
}

func testSettings(t *testing.T, s storage.Provider) {
	ctx := context.Background()

	settings, err := s.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSettings(), settings)

	settings.QueueMaxItems = 8
	settings.HabitDayCutoffHour = 0
	settings.Timezone = "Europe/Berlin"
	require.NoError(t, s.SaveSettings(ctx, settings))

	got, err := s.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, settings, got)

	err = s.SaveSettings(ctx, models.Settings{QueueMaxItems: -1})
	assert.ErrorIs(t, err, models.ErrInvalidEntity)
}

func testEntityRoundTrip(t *testing.T, s storage.Provider) {
	ctx := context.Background()
	shown := base.Add(2 * time.Hour)

	entities := []models.Entity{
		{Kind: models.KindIntervalPrompt, Title: "What went well?", CreatedAt: base, IntervalDays: 2,
			LastShownAt: &shown, Answers: []models.Answer{{At: shown, Text: "shipped it"}}},
		{Kind: models.KindIntervalYesNoPrompt, Title: "Slept enough?", CreatedAt: base, IntervalDays: 1,
			Answers: []models.Answer{{At: shown, Choice: models.KindOf}}},
		{Kind: models.KindOneTimeTaskDelayedUntilDate, Title: "Renew passport", CreatedAt: base,
			StartAtDate: "24-02-01", IsDone: true},
		{Kind: models.KindRepeatingTaskDelayedByDays, Title: "Rotate tires", CreatedAt: base,
			IntervalDays: 90, StartInDays: 30},
	}

	for _, e := range entities {
		id, err := s.CreateEntity(ctx, e)
		require.NoError(t, err)
		require.NotEmpty(t, id)

		got, err := s.GetEntity(ctx, e.Kind, id)
		require.NoError(t, err)

		e.ID = id
		if e.Answers == nil {
			e.Answers = []models.Answer{}
		}
		assertEntityEqual(t, e, got)
	}

	// absent optional timestamp survives as absent
	got, err := s.ListEntities(ctx, models.KindRepeatingTaskDelayedByDays)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Nil(t, got[0].LastShownAt)
	assert.False(t, got[0].IsDone)
}

func testEntityOrdering(t *testing.T, s storage.Provider) {
	ctx := context.Background()

	for i, title := range []string{"oldest", "middle", "newest"} {
		_, err := s.CreateEntity(ctx, models.Entity{
			Kind:      models.KindOneTimeTask,
			Title:     title,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}
	_, err := s.CreateEntity(ctx, models.Entity{Kind: models.KindRepeatingTask, Title: "other kind", CreatedAt: base, IntervalDays: 1})
	require.NoError(t, err)

	got, err := s.ListEntities(ctx, models.KindOneTimeTask)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "newest", got[0].Title)
	assert.Equal(t, "middle", got[1].Title)
	assert.Equal(t, "oldest", got[2].Title)

	empty, err := s.ListEntities(ctx, models.KindIntervalPromptHighPriority)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func testEntityPatch(t *testing.T, s storage.Provider) {
	ctx := context.Background()

	id, err := s.CreateEntity(ctx, models.Entity{Kind: models.KindOneTimeTask, Title: "Call mom", CreatedAt: base})
	require.NoError(t, err)

	shown := base.Add(24 * time.Hour)
	answers := []models.Answer{{At: shown, Action: models.TaskActionAlreadyDone}}
	require.NoError(t, s.UpdateEntity(ctx, models.KindOneTimeTask, id, models.EntityPatch{
		LastShownAt: &shown,
		Answers:     &answers,
		IsDone:      ptr(true),
		// not owned by this kind, must be ignored
		IntervalDays: ptr(4),
	}))

	got, err := s.GetEntity(ctx, models.KindOneTimeTask, id)
	require.NoError(t, err)
	assert.Equal(t, "Call mom", got.Title)
	assert.True(t, got.IsDone)
	require.NotNil(t, got.LastShownAt)
	assert.True(t, shown.Equal(*got.LastShownAt))
	require.Len(t, got.Answers, 1)
	assert.Equal(t, models.TaskActionAlreadyDone, got.Answers[0].Action)
	assert.Zero(t, got.IntervalDays)

	// an empty patch on an existing record is a no-op
	require.NoError(t, s.UpdateEntity(ctx, models.KindOneTimeTask, id, models.EntityPatch{}))
}

func testEntityNotFound(t *testing.T, s storage.Provider) {
	ctx := context.Background()

	id, err := s.CreateEntity(ctx, models.Entity{Kind: models.KindOneTimeTask, Title: "x", CreatedAt: base})
	require.NoError(t, err)

	// ids are scoped by kind
	_, err = s.GetEntity(ctx, models.KindRepeatingTask, id)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = s.GetEntity(ctx, models.KindOneTimeTask, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	err = s.UpdateEntity(ctx, models.KindOneTimeTask, "missing", models.EntityPatch{Title: ptr("y")})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	err = s.UpdateEntity(ctx, models.KindOneTimeTask, "missing", models.EntityPatch{})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.DeleteEntity(ctx, models.KindOneTimeTask, id))
	err = s.DeleteEntity(ctx, models.KindOneTimeTask, id)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testTaskOfTheDay(t *testing.T, s storage.Provider) {
	ctx := context.Background()

	_, err := s.FindTaskOfTheDay(ctx, "2024-01-15")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	first, err := s.AddTaskOfTheDay(ctx, models.TaskOfTheDay{
		Date: "2024-01-15", TaskID: "t1", TaskType: models.KindRepeatingTask, SelectedAt: base,
	})
	require.NoError(t, err)
	_, err = s.AddTaskOfTheDay(ctx, models.TaskOfTheDay{
		Date: "2024-01-15", TaskID: "t2", TaskType: models.KindOneTimeTask, SelectedAt: base.Add(time.Minute),
	})
	require.NoError(t, err)
	_, err = s.AddTaskOfTheDay(ctx, models.TaskOfTheDay{
		Date: "2024-01-14", TaskID: "t0", TaskType: models.KindOneTimeTask, SelectedAt: base.Add(-24 * time.Hour),
	})
	require.NoError(t, err)

	got, err := s.FindTaskOfTheDay(ctx, "2024-01-15")
	require.NoError(t, err)
	assert.Equal(t, first, got.ID)
	assert.Equal(t, "t1", got.TaskID)
	assert.Equal(t, models.KindRepeatingTask, got.TaskType)
	assert.Nil(t, got.CompletedAt)

	done := base.Add(3 * time.Hour)
	require.NoError(t, s.SetTaskOfTheDayCompleted(ctx, first, done))
	got, err = s.FindTaskOfTheDay(ctx, "2024-01-15")
	require.NoError(t, err)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, done.Equal(*got.CompletedAt))

	all, err := s.ListTasksOfTheDay(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "2024-01-14", all[0].Date)

	require.NoError(t, s.DeleteTaskOfTheDay(ctx, all[0].ID))
	assert.ErrorIs(t, s.DeleteTaskOfTheDay(ctx, all[0].ID), storage.ErrNotFound)
	assert.ErrorIs(t, s.SetTaskOfTheDayCompleted(ctx, "missing", done), storage.ErrNotFound)
}

func testQueue(t *testing.T, s storage.Provider) {
	ctx := context.Background()
	day := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	endOfDay := day.Add(24*time.Hour - time.Nanosecond)

	add := func(category, itemID string, scheduled time.Time) string {
		id, err := s.AddQueueItem(ctx, models.QueueItem{
			Category: category, ItemID: itemID, ScheduledFor: scheduled, CreatedAt: base,
		})
		require.NoError(t, err)
		return id
	}

	a := add("action", "a1", day)
	add(string(models.KindOneTimeTask), "e1", day)
	add(string(models.KindOneTimeTask), "e1", day.AddDate(0, 0, 1))
	add("action", "a2", endOfDay)
	add("action", "a0", day.Add(-time.Nanosecond))

	count, err := s.CountQueueItems(ctx, day, endOfDay)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	items, err := s.ListQueueItems(ctx, day, endOfDay)
	require.NoError(t, err)
	require.Len(t, items, 3)
	for _, item := range items {
		assert.False(t, item.Completed)
		assert.Nil(t, item.CompletedAt)
	}

	completedAt := base.Add(time.Hour)
	require.NoError(t, s.CompleteQueueItem(ctx, a, "felt good", completedAt))
	item, err := s.GetQueueItem(ctx, a)
	require.NoError(t, err)
	assert.True(t, item.Completed)
	assert.Equal(t, "felt good", item.Response)
	require.NotNil(t, item.CompletedAt)
	assert.True(t, completedAt.Equal(*item.CompletedAt))

	// completed entries survive the cascade, pending ones for other items too
	add("action", "a1", day.AddDate(0, 0, 2))
	removed, err := s.DeletePendingQueueItems(ctx, "action", "a1")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	removed, err = s.DeletePendingQueueItems(ctx, string(models.KindOneTimeTask), "e1")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	all, err := s.GetAllQueueItems(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	ids := []string{}
	for _, it := range all {
		ids = append(ids, it.ItemID)
	}
	assert.ElementsMatch(t, []string{"a0", "a1", "a2"}, ids)

	_, err = s.GetQueueItem(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, s.CompleteQueueItem(ctx, "missing", "", completedAt), storage.ErrNotFound)
}

func testActions(t *testing.T, s storage.Provider) {
	ctx := context.Background()

	id, err := s.AddAction(ctx, models.Action{Title: "Meditate", IntervalDays: 1, HighPriority: true, CreatedAt: base})
	require.NoError(t, err)
	_, err = s.AddAction(ctx, models.Action{Title: "File taxes", IntervalDays: 1, IsFinishable: true, CreatedAt: base.Add(time.Hour)})
	require.NoError(t, err)

	all, err := s.GetAllActions(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "File taxes", all[0].Title)

	a, err := s.GetAction(ctx, id)
	require.NoError(t, err)
	assert.True(t, a.HighPriority)
	assert.Nil(t, a.LastCompleted)

	done := base.Add(2 * time.Hour)
	a.LastCompleted = &done
	a.Archived = true
	require.NoError(t, s.UpdateAction(ctx, a))

	a, err = s.GetAction(ctx, id)
	require.NoError(t, err)
	assert.True(t, a.Archived)
	require.NotNil(t, a.LastCompleted)
	assert.True(t, done.Equal(*a.LastCompleted))

	require.NoError(t, s.DeleteAction(ctx, id))
	_, err = s.GetAction(ctx, id)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, s.UpdateAction(ctx, models.Action{ID: "missing"}), storage.ErrNotFound)
}

func testTxRollback(t *testing.T, s storage.Provider) {
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.CreateEntity(ctx, models.Entity{Kind: models.KindOneTimeTask, Title: "ghost", CreatedAt: base}); err != nil {
			return err
		}
		if _, err := s.AddTaskOfTheDay(ctx, models.TaskOfTheDay{Date: "2024-01-15", TaskID: "ghost", TaskType: models.KindOneTimeTask, SelectedAt: base}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.ListEntities(ctx, models.KindOneTimeTask)
	require.NoError(t, err)
	assert.Empty(t, got)
	_, err = s.FindTaskOfTheDay(ctx, "2024-01-15")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	err = s.RunInTx(ctx, func(ctx context.Context) error {
		_, err := s.CreateEntity(ctx, models.Entity{Kind: models.KindOneTimeTask, Title: "kept", CreatedAt: base})
		return err
	})
	require.NoError(t, err)
	got, err = s.ListEntities(ctx, models.KindOneTimeTask)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func testTxConcurrentReads(t *testing.T, s storage.Provider) {
	ctx := context.Background()
	for _, kind := range models.Kinds {
		_, err := s.CreateEntity(ctx, models.Entity{Kind: kind, Title: string(kind), CreatedAt: base, IntervalDays: 1, StartAtDate: "24-01-01"})
		require.NoError(t, err)
	}

	err := s.RunInTx(ctx, func(ctx context.Context) error {
		var wg sync.WaitGroup
		errs := make([]error, len(models.Kinds))
		for i, kind := range models.Kinds {
			wg.Add(1)
			go func() {
				defer wg.Done()
				got, err := s.ListEntities(ctx, kind)
				if err == nil && len(got) != 1 {
					err = errors.New("unexpected entity count for " + string(kind))
				}
				errs[i] = err
			}()
		}
		wg.Wait()
		return errors.Join(errs...)
	})
	require.NoError(t, err)
}

func assertEntityEqual(t *testing.T, want, got models.Entity) {
	t.Helper()
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Kind, got.Kind)
	assert.Equal(t, want.Title, got.Title)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt), "created_at %v != %v", want.CreatedAt, got.CreatedAt)
	if want.LastShownAt == nil {
		assert.Nil(t, got.LastShownAt)
	} else {
		require.NotNil(t, got.LastShownAt)
		assert.True(t, want.LastShownAt.Equal(*got.LastShownAt))
	}
	require.Len(t, got.Answers, len(want.Answers))
	for i := range want.Answers {
		assert.True(t, want.Answers[i].At.Equal(got.Answers[i].At))
		assert.Equal(t, want.Answers[i].Text, got.Answers[i].Text)
		assert.Equal(t, want.Answers[i].Choice, got.Answers[i].Choice)
		assert.Equal(t, want.Answers[i].Action, got.Answers[i].Action)
	}
	assert.Equal(t, want.IntervalDays, got.IntervalDays)
	assert.Equal(t, want.IsDone, got.IsDone)
	assert.Equal(t, want.StartAtDate, got.StartAtDate)
	assert.Equal(t, want.StartInDays, got.StartInDays)
}
