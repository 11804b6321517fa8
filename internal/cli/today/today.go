package today

import (
	"fmt"

	"github.com/julianstephens/nudge/internal/cli"
	"github.com/julianstephens/nudge/internal/constants"
)

type TodayCmd struct {
	Done bool `help:"Mark today's task completed."`
}

func (c *TodayCmd) Run(ctx *cli.Context) error {
	if c.Done {
		record, err := ctx.Selector.MarkTaskCompleted(ctx.Ctx)
		if err != nil {
			return fmt.Errorf("failed to complete today's task: %w", err)
		}
		if record == nil {
			ctx.Println("No task selected for today.")
			return nil
		}
		ctx.Printf("%s Today's task is done.\n", cli.SuccessStyle.Render("✓"))
		return nil
	}

	result, err := ctx.Selector.GetCurrent(ctx.Ctx)
	if err != nil {
		return fmt.Errorf("failed to get today's task: %w", err)
	}

	switch {
	case result.Record == nil:
		ctx.Println("Nothing to do today. No daily task is due.")
	case result.Task == nil:
		ctx.Println(cli.WarnStyle.Render("Today's task was deleted. A new one is picked tomorrow."))
	default:
		status := "pending"
		if result.IsCompleted {
			status = cli.SuccessStyle.Render("done")
		}
		ctx.Println(cli.TitleStyle.Render("Task of the day (" + result.Record.Date + "):"))
		ctx.Printf("  %s %s\n", result.Task.Title, cli.DimStyle.Render("["+status+"]"))
		if !result.IsCompleted {
			ctx.Println(cli.DimStyle.Render(fmt.Sprintf("Run '%s today --done' when finished.", constants.AppName)))
		}
	}
	return nil
}
