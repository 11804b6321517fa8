package items

import (
	"fmt"

	"github.com/julianstephens/nudge/internal/cli"
	"github.com/julianstephens/nudge/internal/models"
)

type DueCmd struct {
	ShowIDs bool `help:"Show entity IDs." name:"show-ids"`
}

func (c *DueCmd) Run(ctx *cli.Context) error {
	now, err := ctx.Entities.Now(ctx.Ctx)
	if err != nil {
		return err
	}
	due, err := ctx.Entities.DueCandidatesAt(ctx.Ctx, now)
	if err != nil {
		return fmt.Errorf("failed to collect due entities: %w", err)
	}
	actions, err := ctx.Entities.DueActions(ctx.Ctx, now)
	if err != nil {
		return fmt.Errorf("failed to collect due actions: %w", err)
	}

	if due.Len() == 0 && len(actions) == 0 {
		ctx.Println("Nothing is due right now.")
		return nil
	}

	groups := []struct {
		name string
		list []models.Entity
	}{
		{"High priority", due.PromptsHighPriority},
		{"Prompts", due.PromptsText},
		{"Yes/no questions", due.YesNoPrompts},
		{"Tasks", due.DailyTasks},
	}
	for _, g := range groups {
		if len(g.list) == 0 {
			continue
		}
		ctx.Println(cli.TitleStyle.Render(g.name + ":"))
		for _, e := range g.list {
			ctx.Printf("  • %s%s\n", e.Title, c.id(e.ID))
		}
	}
	if len(actions) > 0 {
		ctx.Println(cli.TitleStyle.Render("Actions:"))
		for _, a := range actions {
			title := a.Title
			if a.HighPriority {
				title = cli.HighPriorityStyle.Render(title)
			}
			ctx.Printf("  • %s%s\n", title, c.id(a.ID))
		}
	}
	return nil
}

func (c *DueCmd) id(id string) string {
	if !c.ShowIDs {
		return ""
	}
	return cli.DimStyle.Render(" (ID: " + id + ")")
}
