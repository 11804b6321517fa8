package items

import (
	"fmt"

	"github.com/julianstephens/nudge/internal/cli"
	"github.com/julianstephens/nudge/internal/models"
)

type EditCmd struct {
	Kind     string  `arg:"" help:"Entity kind or alias."`
	ID       string  `arg:"" help:"Entity ID."`
	Title    *string `help:"New title."`
	Interval *int    `help:"New interval in days." short:"i"`
	StartAt  *string `help:"New start date (YY-MM-DD)." name:"start-at"`
	StartIn  *int    `help:"New start offset in days." name:"start-in"`
	Done     bool    `help:"Mark a one-time task finished for good."`
}

func (c *EditCmd) Run(ctx *cli.Context) error {
	kind, err := cli.ParseKind(c.Kind)
	if err != nil {
		return err
	}

	patch := models.EntityPatch{
		Title:        c.Title,
		IntervalDays: c.Interval,
		StartAtDate:  c.StartAt,
		StartInDays:  c.StartIn,
	}
	if c.Done {
		done := true
		patch.IsDone = &done
	}
	if patch.IsEmpty() {
		ctx.Println("No changes specified. Use flags to update fields.")
		return nil
	}

	updated, err := ctx.Entities.UpdateEntity(ctx.Ctx, kind, c.ID, patch)
	if err != nil {
		return fmt.Errorf("failed to update %s %s: %w", kind, c.ID, err)
	}
	ctx.Printf("%s Updated %s: %s (%s)\n", cli.SuccessStyle.Render("✓"), updated.Kind, updated.Title, cli.FormatSchedule(updated))
	return nil
}
