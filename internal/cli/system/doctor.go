package system

import (
	"context"
	"fmt"
	"time"

	"github.com/julianstephens/nudge/internal/cli"
	"github.com/julianstephens/nudge/internal/constants"
	"github.com/julianstephens/nudge/internal/models"
	"github.com/julianstephens/nudge/internal/utils"
	"github.com/julianstephens/nudge/internal/validation"
)

type DoctorCmd struct {
	Fix bool `help:"Remove pending queue entries that point at deleted items."`
}

// check is one diagnostic. A nil run result means OK; warn marks failures
// that do not fail the command.
type check struct {
	name      string
	needsData bool
	warn      bool
	run       func(ctx *cli.Context) error
}

func (cmd *DoctorCmd) checks() []check {
	return []check{
		{name: "Database reachable", run: checkDBReachable},
		{name: "Schema version", needsData: true, run: checkSchemaVersion},
		{name: "Migrations complete", needsData: true, run: checkMigrationsComplete},
		{name: "Backups present", warn: true, run: checkBackupsPresent},
		{name: "Clock/timezone", needsData: true, run: checkClockTimezone},
		{name: "Data validation", needsData: true, run: cmd.checkData},
	}
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	ctx.Println("Running diagnostics...")
	ctx.Println()

	failed := 0
	reachable := true
	for i, c := range cmd.checks() {
		if c.needsData && !reachable {
			ctx.Printf("⊘ %s: SKIPPED (database not reachable)\n", c.name)
			continue
		}
		err := c.run(ctx)
		switch {
		case err == nil:
			ctx.Println(cli.Check(true, c.name+": OK"))
		case c.warn:
			ctx.Println(cli.WarnStyle.Render("⚠ " + c.name + ": WARNING"))
			ctx.Printf("   %v\n", err)
		default:
			ctx.Println(cli.Check(false, c.name+": FAIL"))
			ctx.Printf("   Error: %v\n", err)
			failed++
			if i == 0 {
				reachable = false
			}
		}
	}

	ctx.Println()
	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	ctx.Println("All checks passed.")
	return nil
}

func checkDBReachable(ctx *cli.Context) error {
	if _, err := ctx.Store.GetSettings(ctx.Ctx); err != nil {
		return fmt.Errorf("failed to read settings: %w", err)
	}
	return nil
}

func checkSchemaVersion(ctx *cli.Context) error {
	m, ok := ctx.Store.(migratable)
	if !ok {
		// the JSON store carries its own format version
		return nil
	}
	runner, err := m.Runner()
	if err != nil {
		return err
	}
	return runner.ValidateVersion(ctx.Ctx)
}

func checkMigrationsComplete(ctx *cli.Context) error {
	m, ok := ctx.Store.(migratable)
	if !ok {
		return nil
	}
	runner, err := m.Runner()
	if err != nil {
		return err
	}
	current, err := runner.GetCurrentVersion(ctx.Ctx)
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}
	latest, err := runner.GetLatestVersion()
	if err != nil {
		return fmt.Errorf("failed to get latest schema version: %w", err)
	}
	if current < latest {
		return fmt.Errorf("database is at version %d, latest is %d - run '%s migrate'", current, latest, constants.AppName)
	}
	return nil
}

func checkBackupsPresent(ctx *cli.Context) error {
	mgr, err := ctx.BackupManager()
	if err != nil {
		return err
	}
	backups, err := mgr.List()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups found - consider creating one with '%s backup create'", constants.AppName)
	}
	return nil
}

func checkClockTimezone(ctx *cli.Context) error {
	now := time.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	settings, err := ctx.Store.GetSettings(ctx.Ctx)
	if err != nil {
		return err
	}
	if _, err := utils.NowInTimezone(settings.Timezone); err != nil {
		return err
	}
	return nil
}

func (cmd *DoctorCmd) checkData(ctx *cli.Context) error {
	snap, err := snapshot(ctx)
	if err != nil {
		return err
	}
	result := validation.New().Validate(snap)
	if !result.HasConflicts() {
		return nil
	}

	if cmd.Fix {
		fixed, err := fixConflicts(ctx, snap, result.Fixable())
		if err != nil {
			return fmt.Errorf("fix failed: %w", err)
		}
		if fixed > 0 {
			ctx.Printf("   Removed %d orphaned queue entries\n", fixed)
			snap, err = snapshot(ctx)
			if err != nil {
				return err
			}
			result = validation.New().Validate(snap)
			if !result.HasConflicts() {
				return nil
			}
		}
	}
	return fmt.Errorf("%s", result.FormatReport())
}

func snapshot(ctx *cli.Context) (validation.Snapshot, error) {
	var snap validation.Snapshot
	var err error
	c := ctx.Ctx
	if snap.Settings, err = ctx.Store.GetSettings(c); err != nil {
		return snap, fmt.Errorf("failed to get settings: %w", err)
	}
	if snap.Entities, err = ctx.Entities.GetAllEntities(c); err != nil {
		return snap, fmt.Errorf("failed to get entities: %w", err)
	}
	if snap.Queue, err = ctx.Store.GetAllQueueItems(c); err != nil {
		return snap, fmt.Errorf("failed to get queue: %w", err)
	}
	if snap.TasksOfTheDay, err = ctx.Store.ListTasksOfTheDay(c); err != nil {
		return snap, fmt.Errorf("failed to get tasks of the day: %w", err)
	}
	if snap.Actions, err = ctx.Store.GetAllActions(c); err != nil {
		return snap, fmt.Errorf("failed to get actions: %w", err)
	}
	return snap, nil
}

// fixConflicts deletes the pending queue entries behind fixable conflicts.
func fixConflicts(ctx *cli.Context, snap validation.Snapshot, conflicts []validation.Conflict) (int, error) {
	byID := make(map[string]models.QueueItem, len(snap.Queue))
	for _, item := range snap.Queue {
		byID[item.ID] = item
	}

	fixed := 0
	err := ctx.Store.RunInTx(ctx.Ctx, func(txCtx context.Context) error {
		done := make(map[string]bool)
		for _, c := range conflicts {
			for _, id := range c.IDs {
				item, ok := byID[id]
				if !ok {
					continue
				}
				key := item.Category + "/" + item.ItemID
				if done[key] {
					continue
				}
				done[key] = true
				n, err := ctx.Store.DeletePendingQueueItems(txCtx, item.Category, item.ItemID)
				if err != nil {
					return err
				}
				fixed += n
			}
		}
		return nil
	})
	return fixed, err
}
