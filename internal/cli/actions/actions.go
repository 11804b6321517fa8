package actions

import (
	"fmt"

	"github.com/julianstephens/nudge/internal/cli"
	"github.com/julianstephens/nudge/internal/models"
)

type AddCmd struct {
	Title        string `arg:"" help:"Action title."`
	Interval     int    `help:"Days between interactions." short:"i" default:"1"`
	Finishable   bool   `help:"The action can be finished for good."`
	HighPriority bool   `help:"Queue ahead of normal items." name:"high-priority"`
}

func (c *AddCmd) Run(ctx *cli.Context) error {
	a, err := ctx.Entities.CreateAction(ctx.Ctx, models.Action{
		Title:        c.Title,
		IntervalDays: c.Interval,
		IsFinishable: c.Finishable,
		HighPriority: c.HighPriority,
	})
	if err != nil {
		return fmt.Errorf("failed to add action: %w", err)
	}
	ctx.Printf("%s Added action: %s (every %d day(s))\n", cli.SuccessStyle.Render("✓"), a.Title, max(1, a.IntervalDays))
	ctx.Println(cli.DimStyle.Render("ID: " + a.ID))
	return nil
}

type ListCmd struct {
	All     bool `help:"Include archived and finished actions."`
	ShowIDs bool `help:"Show action IDs." name:"show-ids"`
}

func (c *ListCmd) Run(ctx *cli.Context) error {
	var (
		list []models.Action
		err  error
	)
	if c.All {
		list, err = ctx.Entities.ListActions(ctx.Ctx)
	} else {
		list, err = ctx.Entities.ActiveActions(ctx.Ctx)
	}
	if err != nil {
		return fmt.Errorf("failed to list actions: %w", err)
	}
	if len(list) == 0 {
		ctx.Println("No actions found")
		return nil
	}

	ctx.Println(cli.TitleStyle.Render("Actions:"))
	for _, a := range list {
		title := a.Title
		if a.HighPriority {
			title = cli.HighPriorityStyle.Render(title)
		}
		idStr := ""
		if c.ShowIDs {
			idStr = fmt.Sprintf(" (ID: %s)", a.ID)
		}
		ctx.Printf("  [%s] %s%s - every %d day(s)%s\n", status(a), title, idStr, max(1, a.IntervalDays), last(a))
	}
	return nil
}

func status(a models.Action) string {
	switch {
	case a.Archived:
		return "archived"
	case a.IsFinishable && a.IsCompleted:
		return "finished"
	default:
		return "active"
	}
}

func last(a models.Action) string {
	if a.LastCompleted == nil {
		return ""
	}
	return cli.DimStyle.Render(", last " + a.LastCompleted.Format("2006-01-02"))
}

type DoneCmd struct {
	ID string `arg:"" help:"Action ID."`
}

func (c *DoneCmd) Run(ctx *cli.Context) error {
	a, err := ctx.Entities.RecordActionInteraction(ctx.Ctx, c.ID)
	return report(ctx, a, err, "Recorded")
}

type FinishCmd struct {
	ID string `arg:"" help:"Action ID."`
}

func (c *FinishCmd) Run(ctx *cli.Context) error {
	a, err := ctx.Entities.FinishAction(ctx.Ctx, c.ID)
	return report(ctx, a, err, "Finished")
}

type ReopenCmd struct {
	ID string `arg:"" help:"Action ID."`
}

func (c *ReopenCmd) Run(ctx *cli.Context) error {
	a, err := ctx.Entities.ReopenAction(ctx.Ctx, c.ID)
	return report(ctx, a, err, "Reopened")
}

type ArchiveCmd struct {
	ID   string `arg:"" help:"Action ID."`
	Undo bool   `help:"Unarchive instead."`
}

func (c *ArchiveCmd) Run(ctx *cli.Context) error {
	a, err := ctx.Entities.SetActionArchived(ctx.Ctx, c.ID, !c.Undo)
	verb := "Archived"
	if c.Undo {
		verb = "Unarchived"
	}
	return report(ctx, a, err, verb)
}

type DeleteCmd struct {
	ID string `arg:"" help:"Action ID to delete."`
}

func (c *DeleteCmd) Run(ctx *cli.Context) error {
	a, err := ctx.Entities.GetAction(ctx.Ctx, c.ID)
	if err != nil {
		return fmt.Errorf("failed to find action with ID %s: %w", c.ID, err)
	}
	ctx.PerformAutomaticBackup()
	if err := ctx.Entities.DeleteAction(ctx.Ctx, c.ID); err != nil {
		return fmt.Errorf("failed to delete action: %w", err)
	}
	ctx.Printf("Deleted action: %s (ID: %s)\n", a.Title, c.ID)
	return nil
}

func report(ctx *cli.Context, a *models.Action, err error, verb string) error {
	if err != nil {
		return fmt.Errorf("failed to update action: %w", err)
	}
	if a == nil {
		ctx.Println("No such action.")
		return nil
	}
	ctx.Printf("%s %s: %s\n", cli.SuccessStyle.Render("✓"), verb, a.Title)
	return nil
}
