package today

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

func TestTodayCmd_NothingDue(t *testing.T) {
	c, out := setupTestDB(t)

	require.NoError(t, (&TodayCmd{}).Run(c))
	assert.Contains(t, out.String(), "Nothing to do today")

	out.Reset()
	require.NoError(t, (&TodayCmd{Done: true}).Run(c))
	assert.Contains(t, out.String(), "No task selected for today.")
}

func TestTodayCmd_SelectAndComplete(t *testing.T) {
	c, out := setupTestDB(t)
	_, err := c.Entities.CreateEntity(c.Ctx, models.Entity{Kind: models.KindOneTimeTask, Title: "Call mom"})
	require.NoError(t, err)

	require.NoError(t, (&TodayCmd{}).Run(c))
	assert.Contains(t, out.String(), "Task of the day (2024-06-01)")
	assert.Contains(t, out.String(), "Call mom")
	assert.Contains(t, out.String(), "pending")

	out.Reset()
	require.NoError(t, (&TodayCmd{Done: true}).Run(c))
	assert.Contains(t, out.String(), "Today's task is done.")

	out.Reset()
	require.NoError(t, (&TodayCmd{}).Run(c))
	assert.Contains(t, out.String(), "done")
	assert.NotContains(t, out.String(), "--done")
}

func TestTodayCmd_DeletedTask(t *testing.T) {
	c, out := setupTestDB(t)
	e, err := c.Entities.CreateEntity(c.Ctx, models.Entity{Kind: models.KindOneTimeTask, Title: "Call mom"})
	require.NoError(t, err)
	require.NoError(t, (&TodayCmd{}).Run(c))

	require.NoError(t, c.Entities.DeleteEntity(c.Ctx, e))

	out.Reset()
	require.NoError(t, (&TodayCmd{}).Run(c))
	assert.Contains(t, out.String(), "was deleted")
}
