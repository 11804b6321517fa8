package system

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

func setupSQLite(t *testing.T) (*cli.Context, *sqlite.Store, *bytes.Buffer) {
	t.Helper()
	ctx := context.Background()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, store.Init(ctx))
	t.Cleanup(func() { store.Close() })

	settings := models.DefaultSettings()
	settings.Timezone = "UTC"
	require.NoError(t, store.SaveSettings(ctx, settings))

	var out bytes.Buffer
	c := cli.NewContext(ctx, store,
		cli.WithClock(func() time.Time { return testNow }),
		cli.WithOutput(&out),
	)
	return c, store, &out
}

func TestDoctor_Healthy(t *testing.T) {
	c, _, out := setupSQLite(t)
	_, err := c.Entities.CreateEntity(c.Ctx, models.Entity{Kind: models.KindOneTimeTask, Title: "Call mom"})
	require.NoError(t, err)

	require.NoError(t, (&DoctorCmd{}).Run(c))
	assert.Contains(t, out.String(), "Database reachable: OK")
	assert.Contains(t, out.String(), "Schema version: OK")
	assert.Contains(t, out.String(), "Backups present: WARNING")
	assert.Contains(t, out.String(), "All checks passed.")
}

func TestDoctor_OrphanedQueueItem(t *testing.T) {
	c, store, out := setupSQLite(t)
	_, err := store.AddQueueItem(c.Ctx, models.QueueItem{
		Category:     string(models.KindOneTimeTask),
		ItemID:       "gone",
		ScheduledFor: testNow,
		CreatedAt:    testNow,
	})
	require.NoError(t, err)

	err = (&DoctorCmd{}).Run(c)
	require.Error(t, err)
	assert.Contains(t, out.String(), "Data validation: FAIL")
	assert.Contains(t, out.String(), "gone")

	out.Reset()
	require.NoError(t, (&DoctorCmd{Fix: true}).Run(c))
	assert.Contains(t, out.String(), "Removed 1 orphaned queue entries")

	items, err := store.GetAllQueueItems(c.Ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestDoctor_NewerSchema(t *testing.T) {
	c, store, out := setupSQLite(t)
	runner, err := store.Runner()
	require.NoError(t, err)
	require.NoError(t, runner.SetVersion(c.Ctx, 999))

	require.Error(t, (&DoctorCmd{}).Run(c))
	assert.Contains(t, out.String(), "Schema version: FAIL")
}
