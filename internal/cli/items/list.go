package items

import (
	"fmt"

	"github.com/julianstephens/nudge/internal/cli"
	"github.com/julianstephens/nudge/internal/models"
)

type ListCmd struct {
	Kind    string `help:"Only list entities of this kind." short:"k"`
	ShowIDs bool   `help:"Show entity IDs." name:"show-ids"`
}

func (c *ListCmd) Run(ctx *cli.Context) error {
	var (
		list []models.Entity
		err  error
	)
	if c.Kind != "" {
		kind, kerr := cli.ParseKind(c.Kind)
		if kerr != nil {
			return kerr
		}
		list, err = ctx.Store.ListEntities(ctx.Ctx, kind)
	} else {
		list, err = ctx.Entities.GetAllEntities(ctx.Ctx)
	}
	if err != nil {
		return fmt.Errorf("failed to list entities: %w", err)
	}

	if len(list) == 0 {
		ctx.Println("No entities found")
		return nil
	}

	ctx.Println(cli.TitleStyle.Render("Entities:"))
	for _, e := range list {
		idStr := ""
		if c.ShowIDs {
			idStr = fmt.Sprintf(" (ID: %s)", e.ID)
		}
		ctx.Printf("  [%s] %s%s - %s, %d answer(s)\n", e.Kind, e.Title, idStr, cli.FormatSchedule(e), len(e.Answers))
	}
	return nil
}
