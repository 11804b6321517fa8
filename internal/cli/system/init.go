package system

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/nudge/internal/cli"
	"github.com/julianstephens/nudge/internal/models"
	"github.com/julianstephens/nudge/internal/storage"
	"github.com/julianstephens/nudge/internal/storage/postgres"
)

type InitCmd struct {
	Force  bool   `help:"Force reset by deleting the existing database file before initialization."`
	Source string `help:"Source database path or connection string to copy data from."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if c.Force {
		if err := c.reset(ctx); err != nil {
			return err
		}
	}

	if err := ctx.Store.Init(ctx.Ctx); err != nil {
		return err
	}
	ctx.Printf("Initialized nudge storage at: %s\n", location(ctx.Store))

	if c.Source != "" {
		ctx.Printf("Copying data from: %s\n", c.Source)
		if err := c.copyFrom(ctx, c.Source); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		ctx.Println("Migration completed successfully!")
	}
	return nil
}

func (c *InitCmd) reset(ctx *cli.Context) error {
	if _, ok := ctx.Store.(*postgres.Store); ok {
		return fmt.Errorf("--force is not supported for PostgreSQL, drop the schema instead")
	}
	dbPath := ctx.Store.GetConfigPath()
	if c.Source != "" {
		absDB, err1 := filepath.Abs(dbPath)
		absSource, err2 := filepath.Abs(c.Source)
		if err1 == nil && err2 == nil && absDB == absSource {
			return fmt.Errorf("cannot use --force when source and destination are the same: %s", dbPath)
		}
	}

	if _, err := os.Stat(dbPath); err == nil {
		if err := ctx.Store.Close(); err != nil {
			return fmt.Errorf("failed to close existing database: %w", err)
		}
		if err := os.Remove(dbPath); err != nil {
			return fmt.Errorf("failed to delete existing database: %w", err)
		}
		ctx.Printf("Deleted existing database at: %s\n", dbPath)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to access existing database: %w", err)
	}
	return nil
}

// copyFrom copies every record of the source store into the freshly
// initialized one in a single transaction, keeping ids.
func (c *InitCmd) copyFrom(ctx *cli.Context, sourcePath string) error {
	source, err := cli.OpenStore(sourcePath)
	if err != nil {
		return err
	}
	if err := source.Load(ctx.Ctx); err != nil {
		return fmt.Errorf("failed to load source database: %w", err)
	}
	defer source.Close()

	return ctx.Store.RunInTx(ctx.Ctx, func(txCtx context.Context) error {
		return copyStore(txCtx, source, ctx.Store, ctx.Println)
	})
}

func copyStore(ctx context.Context, src, dst storage.Provider, logFn func(...any)) error {
	settings, err := src.GetSettings(ctx)
	if err != nil {
		return fmt.Errorf("failed to get settings from source: %w", err)
	}
	if err := dst.SaveSettings(ctx, settings); err != nil {
		return fmt.Errorf("failed to save settings to destination: %w", err)
	}

	var entityCount int
	for _, kind := range models.Kinds {
		list, err := src.ListEntities(ctx, kind)
		if err != nil {
			return fmt.Errorf("failed to get %s entities from source: %w", kind, err)
		}
		for _, e := range list {
			if _, err := dst.CreateEntity(ctx, e); err != nil {
				return fmt.Errorf("failed to add %s %s: %w", kind, e.ID, err)
			}
		}
		entityCount += len(list)
	}
	logFn(fmt.Sprintf("  Copied %d entities", entityCount))

	actions, err := src.GetAllActions(ctx)
	if err != nil {
		return fmt.Errorf("failed to get actions from source: %w", err)
	}
	for _, a := range actions {
		if _, err := dst.AddAction(ctx, a); err != nil {
			return fmt.Errorf("failed to add action %s: %w", a.ID, err)
		}
	}
	logFn(fmt.Sprintf("  Copied %d actions", len(actions)))

	items, err := src.GetAllQueueItems(ctx)
	if err != nil {
		return fmt.Errorf("failed to get queue from source: %w", err)
	}
	for _, item := range items {
		if _, err := dst.AddQueueItem(ctx, item); err != nil {
			return fmt.Errorf("failed to add queue item %s: %w", item.ID, err)
		}
	}
	logFn(fmt.Sprintf("  Copied %d queue items", len(items)))

	records, err := src.ListTasksOfTheDay(ctx)
	if err != nil {
		return fmt.Errorf("failed to get tasks of the day from source: %w", err)
	}
	for _, r := range records {
		if _, err := dst.AddTaskOfTheDay(ctx, r); err != nil {
			return fmt.Errorf("failed to add task of the day %s: %w", r.Date, err)
		}
	}
	logFn(fmt.Sprintf("  Copied %d task-of-the-day records", len(records)))
	return nil
}

// location hides PostgreSQL connection strings.
func location(store storage.Provider) string {
	if _, ok := store.(*postgres.Store); ok {
		return "PostgreSQL"
	}
	return store.GetConfigPath()
}
