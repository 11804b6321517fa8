package tui

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/nudge/internal/entities"
	"github.com/julianstephens/nudge/internal/models"
	"github.com/julianstephens/nudge/internal/scheduler"
	"github.com/julianstephens/nudge/internal/storage/jsonstore"
	"github.com/julianstephens/nudge/internal/taskofday"
	"github.com/julianstephens/nudge/internal/tui/components/queuelist"
)

var testNow = time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC)

type fixture struct {
	svc   *entities.Service
	model Model
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := jsonstore.New(filepath.Join(t.TempDir(), "nudge.json"))
	require.NoError(t, store.Init(ctx))
	settings := models.DefaultSettings()
	settings.Timezone = "UTC"
	require.NoError(t, store.SaveSettings(ctx, settings))

	svc := entities.NewService(store, entities.WithClock(func() time.Time { return testNow }))
	_, err := svc.CreateEntity(ctx, models.Entity{Kind: models.KindOneTimeTask, Title: "Call mom"})
	require.NoError(t, err)
	_, err = svc.CreateAction(ctx, models.Action{Title: "Stretch", IntervalDays: 1, HighPriority: true})
	require.NoError(t, err)

	m := NewModel(ctx, svc, scheduler.New(svc, store), taskofday.New(svc, store))
	f := &fixture{svc: svc, model: m}
	f.send(t, tea.WindowSizeMsg{Width: 100, Height: 40})
	return f
}

func (f *fixture) send(t *testing.T, msg tea.Msg) tea.Cmd {
	t.Helper()
	next, cmd := f.model.Update(msg)
	m, ok := next.(Model)
	require.True(t, ok)
	f.model = m
	return cmd
}

func keyPress(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func (f *fixture) itemFor(t *testing.T, category string) queuelist.Item {
	t.Helper()
	for _, it := range f.model.queueList.Items() {
		if it.Entry.Category == category {
			return it
		}
	}
	t.Fatalf("no queue entry with category %q", category)
	return queuelist.Item{}
}

func TestTabsCycle(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, StateQueue, f.model.state)

	f.send(t, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, StateToday, f.model.state)
	f.send(t, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, StateDue, f.model.state)
	f.send(t, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, StateQueue, f.model.state)
	f.send(t, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, StateDue, f.model.state)

	assert.Contains(t, f.model.duePane.Content(), "Call mom")
	assert.Contains(t, f.model.duePane.Content(), "Stretch")
}

func TestQuit(t *testing.T) {
	f := newFixture(t)
	cmd := f.send(t, keyPress("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, f.model.View())
}

func TestGenerateAndCompleteQueue(t *testing.T) {
	f := newFixture(t)
	assert.Empty(t, f.model.queueList.Items())

	f.send(t, keyPress("g"))
	require.Len(t, f.model.queueList.Items(), 2)
	action := f.itemFor(t, "action")
	assert.True(t, action.High)
	assert.Equal(t, "Stretch", action.Label)

	f.send(t, queuelist.CompleteItemMsg{Item: f.itemFor(t, string(models.KindOneTimeTask))})
	assert.True(t, f.itemFor(t, string(models.KindOneTimeTask)).Entry.Completed)

	// completed entries cannot be answered again
	f.send(t, queuelist.AnswerItemMsg{Item: f.itemFor(t, string(models.KindOneTimeTask))})
	assert.Equal(t, StateQueue, f.model.state)
	assert.Equal(t, "Already completed.", f.model.status)
}

func TestAnswerAction(t *testing.T) {
	f := newFixture(t)
	f.send(t, keyPress("g"))

	f.send(t, queuelist.AnswerItemMsg{Item: f.itemFor(t, "action")})

	assert.Equal(t, StateQueue, f.model.state)
	assert.True(t, f.itemFor(t, "action").Entry.Completed)
	actions, err := f.svc.ListActions(context.Background())
	require.NoError(t, err)
	require.Len(t, actions, 1)
	require.NotNil(t, actions[0].LastCompleted)
	assert.True(t, testNow.Equal(*actions[0].LastCompleted))
}

func TestAnswerEntityOpensForm(t *testing.T) {
	f := newFixture(t)
	f.send(t, keyPress("g"))
	task := f.itemFor(t, string(models.KindOneTimeTask))

	f.send(t, queuelist.AnswerItemMsg{Item: task})
	require.Equal(t, StateAnswering, f.model.state)
	require.NotNil(t, f.model.form)
	assert.Equal(t, "Call mom", f.model.answering.entity.Title)
	assert.Contains(t, f.model.viewTabs(), "Queue")

	f.send(t, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, StateQueue, f.model.state)
	assert.Nil(t, f.model.form)
	assert.False(t, f.itemFor(t, string(models.KindOneTimeTask)).Entry.Completed)
}

func TestSubmitAnswer(t *testing.T) {
	f := newFixture(t)
	f.send(t, keyPress("g"))
	task := f.itemFor(t, string(models.KindOneTimeTask))
	f.send(t, queuelist.AnswerItemMsg{Item: task})
	require.Equal(t, StateAnswering, f.model.state)

	f.model.answer.Action = models.TaskActionAlreadyDone
	f.model.submitAnswer()

	assert.Equal(t, StateQueue, f.model.state)
	entry := f.itemFor(t, string(models.KindOneTimeTask))
	assert.True(t, entry.Entry.Completed)
	assert.Equal(t, "already-done", entry.Entry.Response)

	e, err := f.svc.GetEntity(context.Background(), models.KindOneTimeTask, task.Entry.ItemID)
	require.NoError(t, err)
	assert.True(t, e.IsDone)
	require.Len(t, e.Answers, 1)
}

func TestMarkTodayDone(t *testing.T) {
	f := newFixture(t)
	require.NotNil(t, f.model.today.Task)
	assert.Equal(t, "Call mom", f.model.today.Task.Title)
	assert.False(t, f.model.today.IsCompleted)

	// d only acts on the today tab
	f.send(t, keyPress("d"))
	assert.False(t, f.model.today.IsCompleted)

	f.send(t, tea.KeyMsg{Type: tea.KeyTab})
	f.send(t, keyPress("d"))
	assert.True(t, f.model.today.IsCompleted)
	assert.Contains(t, f.model.todayPane.Content(), "completed")
}

func TestResponseText(t *testing.T) {
	assert.Equal(t, "felt calm", responseText(models.Answer{Text: "felt calm"}))
	assert.Equal(t, "kind-of", responseText(models.Answer{Choice: models.KindOf}))
	assert.Equal(t, "done", responseText(models.Answer{Action: models.TaskActionDone}))
}
