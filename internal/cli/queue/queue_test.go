package queue

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
	settings.QueueMaxItems = 2
	require.NoError(t, store.SaveSettings(ctx, settings))

	var out bytes.Buffer
	return cli.NewContext(ctx, store,
		cli.WithClock(func() time.Time { return testNow }),
		cli.WithOutput(&out),
	), &out
}

func addTasks(t *testing.T, c *cli.Context, titles ...string) {
	t.Helper()
	for _, title := range titles {
		_, err := c.Entities.CreateEntity(c.Ctx, models.Entity{Kind: models.KindOneTimeTask, Title: title})
		require.NoError(t, err)
	}
}

func TestGenerateCmd_UsesSettings(t *testing.T) {
	c, out := setupTestDB(t)
	addTasks(t, c, "a", "b", "c")

	require.NoError(t, (&GenerateCmd{Max: -1}).Run(c))
	assert.Contains(t, out.String(), "Added 2 item(s) to the queue for 2024-06-01")

	out.Reset()
	require.NoError(t, (&GenerateCmd{Max: -1}).Run(c))
	assert.Contains(t, out.String(), "already full")
}

func TestGenerateCmd_ExplicitDateAndMax(t *testing.T) {
	c, out := setupTestDB(t)
	addTasks(t, c, "a", "b", "c")

	require.NoError(t, (&GenerateCmd{Date: "2024-06-03", Max: 3}).Run(c))
	assert.Contains(t, out.String(), "Added 3 item(s) to the queue for 2024-06-03")

	date, err := c.ParseDate("2024-06-03")
	require.NoError(t, err)
	items, err := c.Scheduler.ListQueue(c.Ctx, date)
	require.NoError(t, err)
	assert.Len(t, items, 3)

	assert.Error(t, (&GenerateCmd{Date: "June 3rd", Max: 3}).Run(c))
}

func TestListAndCompleteCmd(t *testing.T) {
	c, out := setupTestDB(t)

	require.NoError(t, (&ListCmd{}).Run(c))
	assert.Contains(t, out.String(), "is empty")

	addTasks(t, c, "Call mom")
	require.NoError(t, (&GenerateCmd{Max: -1}).Run(c))

	today, err := c.Scheduler.Today(c.Ctx)
	require.NoError(t, err)
	items, err := c.Scheduler.ListQueue(c.Ctx, today)
	require.NoError(t, err)
	require.Len(t, items, 1)

	out.Reset()
	require.NoError(t, (&ListCmd{ShowIDs: true}).Run(c))
	assert.Contains(t, out.String(), "Call mom")
	assert.Contains(t, out.String(), items[0].ID)

	out.Reset()
	require.NoError(t, (&CompleteCmd{ID: items[0].ID, Response: "called"}).Run(c))
	assert.Contains(t, out.String(), "Completed: Call mom")

	out.Reset()
	require.NoError(t, (&ListCmd{}).Run(c))
	assert.Contains(t, out.String(), "[x]")
	assert.Contains(t, out.String(), "called")

	out.Reset()
	require.NoError(t, (&CompleteCmd{ID: "missing"}).Run(c))
	assert.Contains(t, out.String(), "No queue item with ID missing")
}

func TestTitle_MissingSource(t *testing.T) {
	c, _ := setupTestDB(t)
	title := Title(c, models.QueueItem{Category: string(models.KindOneTimeTask), ItemID: "gone"})
	assert.Equal(t, "(missing one-time-task gone)", title)

	title = Title(c, models.QueueItem{Category: "action", ItemID: "gone"})
	assert.Equal(t, "(missing action gone)", title)
}
