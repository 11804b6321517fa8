package entities

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/nudge/internal/constants"
	"github.com/julianstephens/nudge/internal/models"
	"github.com/julianstephens/nudge/internal/storage"
	"github.com/julianstephens/nudge/internal/storage/jsonstore"
)

var testNow = time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *jsonstore.Store {
	t.Helper()
	ctx := context.Background()
	store := jsonstore.New(filepath.Join(t.TempDir(), "nudge.json"))
	require.NoError(t, store.Init(ctx))

	settings := models.DefaultSettings()
	settings.Timezone = "UTC"
	require.NoError(t, store.SaveSettings(ctx, settings))
	return store
}

func newTestService(t *testing.T) (*Service, *jsonstore.Store, *time.Time) {
	t.Helper()
	store := newTestStore(t)
	now := testNow
	svc := NewService(store, WithClock(func() time.Time { return now }))
	return svc, store, &now
}

func ptr[T any](v T) *T { return &v }

func TestCreateEntity(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)

	created, err := svc.CreateEntity(ctx, models.Entity{
		ID:           "ignored",
		Kind:         models.KindOneTimeTask,
		Title:        "Call mom",
		IntervalDays: 5,
	})
	require.NoError(t, err)
	assert.NotEqual(t, "ignored", created.ID)
	assert.True(t, testNow.Equal(created.CreatedAt))
	assert.Zero(t, created.IntervalDays)
	assert.NotNil(t, created.Answers)

	stored, err := store.GetEntity(ctx, models.KindOneTimeTask, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Call mom", stored.Title)
	assert.Zero(t, stored.IntervalDays)
}

func TestCreateEntityRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	tests := []struct {
		name   string
		entity models.Entity
	}{
		{"missing interval", models.Entity{Kind: models.KindRepeatingTask, Title: "x"}},
		{"bad start date", models.Entity{Kind: models.KindOneTimeTaskDelayedUntilDate, Title: "x", StartAtDate: "24-02-30"}},
		{"blank title", models.Entity{Kind: models.KindOneTimeTask, Title: "  "}},
		{"unknown kind", models.Entity{Kind: "weekly-thing", Title: "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateEntity(ctx, tt.entity)
			assert.ErrorIs(t, err, models.ErrInvalidEntity)
		})
	}

	all, err := svc.GetAllEntities(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestRecordAnswer(t *testing.T) {
	ctx := context.Background()
	svc, _, now := newTestService(t)

	prompt, err := svc.CreateEntity(ctx, models.Entity{Kind: models.KindIntervalPrompt, Title: "What went well?", IntervalDays: 2})
	require.NoError(t, err)

	due, err := svc.GetAllDueCandidates(ctx)
	require.NoError(t, err)
	require.Len(t, due.PromptsText, 1)

	got, err := svc.RecordAnswer(ctx, prompt.Kind, prompt.ID, models.Answer{Text: "finished the report"})
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, got.Answers, 1)
	assert.True(t, testNow.Equal(got.Answers[0].At))
	require.NotNil(t, got.LastShownAt)
	assert.True(t, testNow.Equal(*got.LastShownAt))

	due, err = svc.GetAllDueCandidates(ctx)
	require.NoError(t, err)
	assert.Empty(t, due.PromptsText)

	*now = testNow.AddDate(0, 0, 2)
	due, err = svc.GetAllDueCandidates(ctx)
	require.NoError(t, err)
	assert.Len(t, due.PromptsText, 1)

	stored, err := svc.GetEntity(ctx, prompt.Kind, prompt.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Answers, 1)
}

func TestRecordAnswerMissingEntityIsNoop(t *testing.T) {
	svc, _, _ := newTestService(t)

	got, err := svc.RecordAnswer(context.Background(), models.KindIntervalPrompt, "missing", models.Answer{Text: "hi"})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRecordAnswerRejectsWrongShape(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	q, err := svc.CreateEntity(ctx, models.Entity{Kind: models.KindIntervalYesNoPrompt, Title: "Slept enough?", IntervalDays: 1})
	require.NoError(t, err)

	_, err = svc.RecordAnswer(ctx, q.Kind, q.ID, models.Answer{Text: "maybe"})
	assert.ErrorIs(t, err, models.ErrInvalidEntity)

	stored, err := svc.GetEntity(ctx, q.Kind, q.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Answers)
	assert.Nil(t, stored.LastShownAt)
}

func TestAlreadyDoneIsOneWay(t *testing.T) {
	ctx := context.Background()
	svc, _, now := newTestService(t)

	task, err := svc.CreateEntity(ctx, models.Entity{Kind: models.KindOneTimeTaskDelayedByDays, Title: "Renew passport", StartInDays: 1})
	require.NoError(t, err)

	got, err := svc.RecordAnswer(ctx, task.Kind, task.ID, models.Answer{Action: models.TaskActionAlreadyDone})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.IsDone)

	_, err = svc.UpdateEntity(ctx, task.Kind, task.ID, models.EntityPatch{IsDone: ptr(false)})
	assert.ErrorIs(t, err, models.ErrInvalidEntity)

	_, err = svc.UpdateEntity(ctx, task.Kind, task.ID, models.EntityPatch{Title: ptr("Renew passport (again)"), StartInDays: ptr(0)})
	require.NoError(t, err)

	for _, days := range []int{0, 1, 30} {
		*now = testNow.AddDate(0, 0, days)
		due, err := svc.GetAllDueCandidates(ctx)
		require.NoError(t, err)
		assert.Empty(t, due.DailyTasks, "day %d", days)
	}
}

func TestDoneAnswerKeepsOneTimeTaskOpen(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	task, err := svc.CreateEntity(ctx, models.Entity{Kind: models.KindOneTimeTask, Title: "Water plants"})
	require.NoError(t, err)

	got, err := svc.RecordAnswer(ctx, task.Kind, task.ID, models.Answer{Action: models.TaskActionDone})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.IsDone)
}

func TestUpdateEntity(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	task, err := svc.CreateEntity(ctx, models.Entity{Kind: models.KindRepeatingTask, Title: "Stretch", IntervalDays: 1})
	require.NoError(t, err)

	updated, err := svc.UpdateEntity(ctx, task.Kind, task.ID, models.EntityPatch{IntervalDays: ptr(3)})
	require.NoError(t, err)
	assert.Equal(t, 3, updated.IntervalDays)

	_, err = svc.UpdateEntity(ctx, task.Kind, task.ID, models.EntityPatch{IntervalDays: ptr(0)})
	assert.ErrorIs(t, err, models.ErrInvalidEntity)

	stored, err := svc.GetEntity(ctx, task.Kind, task.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.IntervalDays)

	_, err = svc.UpdateEntity(ctx, task.Kind, "missing", models.EntityPatch{Title: ptr("x")})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDueCandidatesGroups(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	for _, kind := range models.Kinds {
		_, err := svc.CreateEntity(ctx, models.Entity{
			Kind:         kind,
			Title:        string(kind),
			IntervalDays: 1,
			StartAtDate:  "24-01-01",
		})
		require.NoError(t, err)
	}
	// not due until tomorrow
	_, err := svc.CreateEntity(ctx, models.Entity{
		Kind: models.KindOneTimeTaskDelayedUntilDate, Title: "later", StartAtDate: "24-06-02",
	})
	require.NoError(t, err)

	due, err := svc.GetAllDueCandidates(ctx)
	require.NoError(t, err)
	assert.Len(t, due.PromptsText, 1)
	assert.Len(t, due.PromptsHighPriority, 1)
	assert.Len(t, due.YesNoPrompts, 1)
	assert.Len(t, due.DailyTasks, len(models.DailyTaskKinds))
	assert.Equal(t, 3+len(models.DailyTaskKinds), due.Len())
	assert.Len(t, due.All(), due.Len())

	for _, e := range due.DailyTasks {
		assert.True(t, e.Kind.IsDailyTask())
		assert.NotEqual(t, "later", e.Title)
	}
}

func TestDueCandidatesEmpty(t *testing.T) {
	svc, _, _ := newTestService(t)

	due, err := svc.GetAllDueCandidates(context.Background())
	require.NoError(t, err)
	assert.Zero(t, due.Len())
	assert.NotNil(t, due.DailyTasks)
}

func TestGetAllEntitiesNewestFirst(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	titles := []string{"first", "second", "third"}
	kinds := []models.Kind{models.KindRepeatingTask, models.KindIntervalPrompt, models.KindOneTimeTask}
	for i, title := range titles {
		_, err := svc.CreateEntity(ctx, models.Entity{
			Kind:         kinds[i],
			Title:        title,
			IntervalDays: 1,
			CreatedAt:    testNow.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	all, err := svc.GetAllEntities(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "third", all[0].Title)
	assert.Equal(t, "second", all[1].Title)
	assert.Equal(t, "first", all[2].Title)
}

func TestDeleteEntityCascadesPendingQueueEntries(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)

	gone, err := svc.CreateEntity(ctx, models.Entity{Kind: models.KindRepeatingTask, Title: "gone", IntervalDays: 1})
	require.NoError(t, err)
	kept, err := svc.CreateEntity(ctx, models.Entity{Kind: models.KindRepeatingTask, Title: "kept", IntervalDays: 1})
	require.NoError(t, err)

	queue := func(itemID string) string {
		id, err := store.AddQueueItem(ctx, models.QueueItem{
			Category: string(models.KindRepeatingTask), ItemID: itemID, ScheduledFor: testNow, CreatedAt: testNow,
		})
		require.NoError(t, err)
		return id
	}
	queue(gone.ID)
	done := queue(gone.ID)
	require.NoError(t, store.CompleteQueueItem(ctx, done, "", testNow))
	queue(kept.ID)

	require.NoError(t, svc.DeleteEntity(ctx, gone))

	_, err = svc.GetEntity(ctx, gone.Kind, gone.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	items, err := store.GetAllQueueItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	for _, item := range items {
		if item.ItemID == gone.ID {
			assert.True(t, item.Completed)
		} else {
			assert.Equal(t, kept.ID, item.ItemID)
		}
	}
}

func TestDeleteEntityWithoutID(t *testing.T) {
	svc, _, _ := newTestService(t)
	assert.NoError(t, svc.DeleteEntity(context.Background(), models.Entity{Kind: models.KindOneTimeTask}))
}

func TestDeleteEntityRollsBackOnQueueFailure(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	failing := &failingStore{Store: store, failQueue: errors.New("disk full")}
	svc := NewService(failing, WithClock(func() time.Time { return testNow }))

	e, err := svc.CreateEntity(ctx, models.Entity{Kind: models.KindOneTimeTask, Title: "keep me"})
	require.NoError(t, err)

	err = svc.DeleteEntity(ctx, e)
	require.Error(t, err)
	assert.ErrorIs(t, err, failing.failQueue)

	_, err = svc.GetEntity(ctx, e.Kind, e.ID)
	assert.NoError(t, err)
}

func TestStoreFailurePropagates(t *testing.T) {
	boom := errors.New("connection reset")
	svc := NewService(&failingStore{Store: newTestStore(t), failList: boom})

	_, err := svc.GetAllDueCandidates(context.Background())
	assert.ErrorIs(t, err, boom)

	_, err = svc.GetAllEntities(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestActions(t *testing.T) {
	ctx := context.Background()
	svc, store, now := newTestService(t)

	_, err := svc.CreateAction(ctx, models.Action{Title: ""})
	assert.ErrorIs(t, err, models.ErrInvalidEntity)

	meditate, err := svc.CreateAction(ctx, models.Action{Title: "Meditate", IntervalDays: 0})
	require.NoError(t, err)
	taxes, err := svc.CreateAction(ctx, models.Action{Title: "File taxes", IntervalDays: 7, IsFinishable: true})
	require.NoError(t, err)

	due, err := svc.DueActions(ctx, *now)
	require.NoError(t, err)
	assert.Len(t, due, 2)

	got, err := svc.RecordActionInteraction(ctx, meditate.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastCompleted)

	due, err = svc.DueActions(ctx, *now)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, taxes.ID, due[0].ID)

	// a zero interval still means once per day
	due, err = svc.DueActions(ctx, now.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Len(t, due, 2)

	_, err = svc.FinishAction(ctx, meditate.ID)
	assert.ErrorIs(t, err, models.ErrInvalidEntity)

	finished, err := svc.FinishAction(ctx, taxes.ID)
	require.NoError(t, err)
	assert.True(t, finished.IsCompleted)

	active, err := svc.ActiveActions(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, meditate.ID, active[0].ID)

	reopened, err := svc.ReopenAction(ctx, taxes.ID)
	require.NoError(t, err)
	assert.False(t, reopened.IsCompleted)
	assert.Nil(t, reopened.CompletedAt)

	archived, err := svc.SetActionArchived(ctx, meditate.ID, true)
	require.NoError(t, err)
	assert.True(t, archived.Archived)

	missing, err := svc.RecordActionInteraction(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = store.AddQueueItem(ctx, models.QueueItem{
		Category: constants.QueueCategoryAction, ItemID: taxes.ID, ScheduledFor: testNow, CreatedAt: testNow,
	})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteAction(ctx, taxes.ID))

	items, err := store.GetAllQueueItems(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	all, err := svc.ListActions(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

type failingStore struct {
	*jsonstore.Store
	failList  error
	failQueue error
}

func (f *failingStore) ListEntities(ctx context.Context, kind models.Kind) ([]models.Entity, error) {
	if f.failList != nil {
		return nil, f.failList
	}
	return f.Store.ListEntities(ctx, kind)
}

func (f *failingStore) DeletePendingQueueItems(ctx context.Context, category, itemID string) (int, error) {
	if f.failQueue != nil {
		return 0, f.failQueue
	}
	return f.Store.DeletePendingQueueItems(ctx, category, itemID)
}
