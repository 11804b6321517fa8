package items

import (
	"fmt"

	"github.com/julianstephens/nudge/internal/cli"
	"github.com/julianstephens/nudge/internal/models"
)

type AnswerCmd struct {
	Kind   string `arg:"" help:"Entity kind or alias."`
	ID     string `arg:"" help:"Entity ID."`
	Text   string `help:"Free-text answer for prompts." short:"t"`
	Choice string `help:"Answer for yes/no questions (yes, kind-of, no)."`
	Action string `help:"Answer for tasks (done, already-done)."`
}

func (c *AnswerCmd) Run(ctx *cli.Context) error {
	kind, err := cli.ParseKind(c.Kind)
	if err != nil {
		return err
	}

	a := models.Answer{
		Text:   c.Text,
		Choice: models.YesNo(c.Choice),
		Action: models.TaskAction(c.Action),
	}
	if a.Text == "" && a.Choice == "" && a.Action == "" {
		e, err := ctx.Entities.GetEntity(ctx.Ctx, kind, c.ID)
		if err != nil {
			return fmt.Errorf("failed to find %s with ID %s: %w", kind, c.ID, err)
		}
		if a, err = promptAnswer(e); err != nil {
			return err
		}
	}

	recorded, err := ctx.Entities.RecordAnswer(ctx.Ctx, kind, c.ID, a)
	if err != nil {
		return fmt.Errorf("failed to record answer: %w", err)
	}
	if recorded == nil {
		ctx.Printf("No %s with ID %s, nothing recorded.\n", kind, c.ID)
		return nil
	}

	ctx.Printf("%s Recorded answer for: %s\n", cli.SuccessStyle.Render("✓"), recorded.Title)
	if recorded.IsDone {
		ctx.Println(cli.DimStyle.Render("This task is finished and will not come up again."))
	}
	return nil
}
