package items

import (
	"fmt"

	"github.com/julianstephens/nudge/internal/cli"
	"github.com/julianstephens/nudge/internal/models"
)

type AddCmd struct {
	Kind        string `arg:"" optional:"" help:"Entity kind or alias (prompt, hp, yesno, task, task-until, task-in, repeating, repeating-until, repeating-in)."`
	Title       string `arg:"" optional:"" help:"Title shown when the entity comes up."`
	Interval    int    `help:"Days between interactions." short:"i"`
	StartAt     string `help:"First due date (YY-MM-DD)." name:"start-at"`
	StartIn     int    `help:"Days after creation before the entity becomes due." name:"start-in"`
	Interactive bool   `help:"Fill in the entity with a form." short:"I"`
}

func (c *AddCmd) Run(ctx *cli.Context) error {
	var e models.Entity
	if c.Interactive || c.Kind == "" {
		fm := &entityFormModel{}
		if c.Kind != "" {
			kind, err := cli.ParseKind(c.Kind)
			if err != nil {
				return err
			}
			fm.Kind = kind
		}
		fm.Title = c.Title
		if err := newEntityForm(fm).Run(); err != nil {
			return err
		}
		e = fm.entity()
	} else {
		kind, err := cli.ParseKind(c.Kind)
		if err != nil {
			return err
		}
		e = models.Entity{
			Kind:         kind,
			Title:        c.Title,
			IntervalDays: c.Interval,
			StartAtDate:  c.StartAt,
			StartInDays:  c.StartIn,
		}
	}

	created, err := ctx.Entities.CreateEntity(ctx.Ctx, e)
	if err != nil {
		return fmt.Errorf("failed to add %s: %w", e.Kind, err)
	}

	ctx.Printf("%s Added %s: %s (%s)\n", cli.SuccessStyle.Render("✓"), created.Kind, created.Title, cli.FormatSchedule(created))
	ctx.Println(cli.DimStyle.Render("ID: " + created.ID))
	return nil
}
