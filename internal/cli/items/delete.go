package items

import (
	"fmt"

	"github.com/julianstephens/nudge/internal/cli"
)

type DeleteCmd struct {
	Kind string `arg:"" help:"Entity kind or alias."`
	ID   string `arg:"" help:"Entity ID to delete."`
}

func (c *DeleteCmd) Run(ctx *cli.Context) error {
	kind, err := cli.ParseKind(c.Kind)
	if err != nil {
		return err
	}

	// Check if the entity exists first
	e, err := ctx.Entities.GetEntity(ctx.Ctx, kind, c.ID)
	if err != nil {
		return fmt.Errorf("failed to find %s with ID %s: %w", kind, c.ID, err)
	}

	ctx.PerformAutomaticBackup()
	if err := ctx.Entities.DeleteEntity(ctx.Ctx, e); err != nil {
		return fmt.Errorf("failed to delete %s: %w", kind, err)
	}

	ctx.Printf("Deleted %s: %s (ID: %s)\n", kind, e.Title, c.ID)
	return nil
}
