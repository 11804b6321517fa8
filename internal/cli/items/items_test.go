package items

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/nudge/internal/cli"
	"github.com/julianstephens/nudge/internal/models"
	"github.com/julianstephens/nudge/internal/storage/sqlite"
)

var testNow = time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC)

func setupTestDB(t *testing.T) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	ctx := context.Background()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, store.Init(ctx))
	t.Cleanup(func() { store.Close() })

	settings := models.DefaultSettings()
	settings.Timezone = "UTC"
	require.NoError(t, store.SaveSettings(ctx, settings))

	var out bytes.Buffer
	return cli.NewContext(ctx, store,
		cli.WithClock(func() time.Time { return testNow }),
		cli.WithOutput(&out),
	), &out
}

func onlyEntity(t *testing.T, c *cli.Context) models.Entity {
	t.Helper()
	all, err := c.Entities.GetAllEntities(c.Ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	return all[0]
}

func TestAddCmd(t *testing.T) {
	c, out := setupTestDB(t)

	err := (&AddCmd{Kind: "prompt", Title: "What went well?", Interval: 2}).Run(c)
	require.NoError(t, err)

	e := onlyEntity(t, c)
	assert.Equal(t, models.KindIntervalPrompt, e.Kind)
	assert.Equal(t, 2, e.IntervalDays)
	assert.True(t, testNow.Equal(e.CreatedAt))
	assert.Contains(t, out.String(), "every 2 days")
	assert.Contains(t, out.String(), e.ID)
}

func TestAddCmd_Invalid(t *testing.T) {
	c, _ := setupTestDB(t)

	tests := []struct {
		name string
		cmd  AddCmd
	}{
		{"missing interval", AddCmd{Kind: "repeating", Title: "Water plants"}},
		{"bad start date", AddCmd{Kind: "task-until", Title: "Renew passport", StartAt: "24-13-01"}},
		{"negative start offset", AddCmd{Kind: "task-in", Title: "Follow up", StartIn: -1}},
		{"empty title", AddCmd{Kind: "task", Title: "  "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cmd.Run(c)
			assert.ErrorIs(t, err, models.ErrInvalidEntity)
		})
	}

	err := (&AddCmd{Kind: "weekly", Title: "x"}).Run(c)
	assert.Error(t, err)
}

func TestListCmd(t *testing.T) {
	c, out := setupTestDB(t)

	require.NoError(t, (&ListCmd{}).Run(c))
	assert.Contains(t, out.String(), "No entities found")

	require.NoError(t, (&AddCmd{Kind: "task", Title: "Call mom"}).Run(c))
	require.NoError(t, (&AddCmd{Kind: "yesno", Title: "Did you stretch?", Interval: 1}).Run(c))
	out.Reset()

	require.NoError(t, (&ListCmd{Kind: "task", ShowIDs: true}).Run(c))
	assert.Contains(t, out.String(), "Call mom")
	assert.NotContains(t, out.String(), "Did you stretch?")
	assert.Contains(t, out.String(), "ID: ")
}

func TestDueCmd(t *testing.T) {
	c, out := setupTestDB(t)

	require.NoError(t, (&DueCmd{}).Run(c))
	assert.Contains(t, out.String(), "Nothing is due")

	require.NoError(t, (&AddCmd{Kind: "task", Title: "Call mom"}).Run(c))
	require.NoError(t, (&AddCmd{Kind: "task-in", Title: "Later", StartIn: 3}).Run(c))
	_, err := c.Entities.CreateAction(c.Ctx, models.Action{Title: "Stretch", IntervalDays: 1})
	require.NoError(t, err)
	out.Reset()

	require.NoError(t, (&DueCmd{}).Run(c))
	assert.Contains(t, out.String(), "Call mom")
	assert.Contains(t, out.String(), "Stretch")
	assert.NotContains(t, out.String(), "Later")
}

func TestAnswerCmd(t *testing.T) {
	c, out := setupTestDB(t)
	require.NoError(t, (&AddCmd{Kind: "task", Title: "Call mom"}).Run(c))
	e := onlyEntity(t, c)

	require.NoError(t, (&AnswerCmd{Kind: "task", ID: e.ID, Action: "already-done"}).Run(c))
	assert.Contains(t, out.String(), "will not come up again")

	answered := onlyEntity(t, c)
	assert.True(t, answered.IsDone)
	require.Len(t, answered.Answers, 1)
	require.NotNil(t, answered.LastShownAt)
	assert.True(t, testNow.Equal(*answered.LastShownAt))

	// wrong answer shape for a task
	err := (&AnswerCmd{Kind: "task", ID: e.ID, Choice: "yes"}).Run(c)
	assert.ErrorIs(t, err, models.ErrInvalidEntity)

	out.Reset()
	require.NoError(t, (&AnswerCmd{Kind: "task", ID: "missing", Action: "done"}).Run(c))
	assert.Contains(t, out.String(), "nothing recorded")
}

func TestEditCmd(t *testing.T) {
	c, out := setupTestDB(t)
	require.NoError(t, (&AddCmd{Kind: "repeating", Title: "Water plants", Interval: 3}).Run(c))
	e := onlyEntity(t, c)

	out.Reset()
	require.NoError(t, (&EditCmd{Kind: "repeating", ID: e.ID}).Run(c))
	assert.Contains(t, out.String(), "No changes specified")

	title, interval := "Water the plants", 7
	require.NoError(t, (&EditCmd{Kind: "repeating", ID: e.ID, Title: &title, Interval: &interval}).Run(c))
	edited := onlyEntity(t, c)
	assert.Equal(t, "Water the plants", edited.Title)
	assert.Equal(t, 7, edited.IntervalDays)

	zero := 0
	err := (&EditCmd{Kind: "repeating", ID: e.ID, Interval: &zero}).Run(c)
	assert.ErrorIs(t, err, models.ErrInvalidEntity)
}

func TestDeleteCmd(t *testing.T) {
	c, out := setupTestDB(t)
	require.NoError(t, (&AddCmd{Kind: "task", Title: "Call mom"}).Run(c))
	e := onlyEntity(t, c)

	require.NoError(t, (&DeleteCmd{Kind: "task", ID: e.ID}).Run(c))
	assert.Contains(t, out.String(), "Deleted")

	all, err := c.Entities.GetAllEntities(c.Ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	mgr, err := c.BackupManager()
	require.NoError(t, err)
	backups, err := mgr.List()
	require.NoError(t, err)
	assert.Len(t, backups, 1, "delete takes an automatic backup first")

	assert.Error(t, (&DeleteCmd{Kind: "task", ID: e.ID}).Run(c))
}
