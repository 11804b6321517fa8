package queue

import (
	"fmt"
	"time"

	"github.com/julianstephens/nudge/internal/cli"
	"github.com/julianstephens/nudge/internal/constants"
	"github.com/julianstephens/nudge/internal/models"
	"github.com/julianstephens/nudge/internal/utils"
)

type GenerateCmd struct {
	Date string `arg:"" optional:"" help:"Date to fill (YYYY-MM-DD). Defaults to the current habit day."`
	Max  int    `help:"Maximum entries for the day. Defaults to the queue_max_items setting." default:"-1"`
}

func (c *GenerateCmd) Run(ctx *cli.Context) error {
	var (
		added []models.QueueItem
		date  time.Time
		err   error
	)
	if c.Date == "" && c.Max < 0 {
		if date, err = ctx.Scheduler.Today(ctx.Ctx); err != nil {
			return err
		}
		added, err = ctx.Scheduler.GenerateForToday(ctx.Ctx)
	} else {
		if date, err = ctx.ParseDate(c.Date); err != nil {
			return err
		}
		limit := c.Max
		if limit < 0 {
			settings, serr := ctx.Entities.Settings(ctx.Ctx)
			if serr != nil {
				return serr
			}
			limit = settings.QueueMaxItems
		}
		added, err = ctx.Scheduler.GenerateQueueForDate(ctx.Ctx, date, limit)
	}
	if err != nil {
		return fmt.Errorf("failed to generate queue: %w", err)
	}

	if len(added) == 0 {
		ctx.Printf("Queue for %s is already full or nothing is due.\n", utils.FormatDateKey(date))
		return nil
	}
	ctx.Printf("%s Added %d item(s) to the queue for %s\n", cli.SuccessStyle.Render("✓"), len(added), utils.FormatDateKey(date))
	return nil
}

type ListCmd struct {
	Date    string `arg:"" optional:"" help:"Date to show (YYYY-MM-DD). Defaults to the current habit day."`
	ShowIDs bool   `help:"Show queue item IDs." name:"show-ids"`
}

func (c *ListCmd) Run(ctx *cli.Context) error {
	date, err := ctx.ParseDate(c.Date)
	if err != nil {
		return err
	}
	items, err := ctx.Scheduler.ListQueue(ctx.Ctx, date)
	if err != nil {
		return fmt.Errorf("failed to list queue: %w", err)
	}

	if len(items) == 0 {
		ctx.Printf("Queue for %s is empty. Run '%s queue generate' to fill it.\n", utils.FormatDateKey(date), constants.AppName)
		return nil
	}

	ctx.Println(cli.TitleStyle.Render("Queue for " + utils.FormatDateKey(date) + ":"))
	for _, item := range items {
		mark := "[ ]"
		if item.Completed {
			mark = cli.SuccessStyle.Render("[x]")
		}
		title := Title(ctx, item)
		idStr := ""
		if c.ShowIDs {
			idStr = cli.DimStyle.Render(" (ID: " + item.ID + ")")
		}
		ctx.Printf("  %s %s %s%s\n", mark, title, cli.DimStyle.Render(item.Category), idStr)
		if item.Response != "" {
			ctx.Printf("      %s\n", cli.DimStyle.Render(item.Response))
		}
	}
	return nil
}

type CompleteCmd struct {
	ID       string `arg:"" help:"Queue item ID."`
	Response string `help:"Optional response to keep with the item." short:"r"`
}

func (c *CompleteCmd) Run(ctx *cli.Context) error {
	item, err := ctx.Scheduler.CompleteQueueItem(ctx.Ctx, c.ID, c.Response)
	if err != nil {
		return fmt.Errorf("failed to complete queue item: %w", err)
	}
	if item == nil {
		ctx.Printf("No queue item with ID %s.\n", c.ID)
		return nil
	}
	ctx.Printf("%s Completed: %s\n", cli.SuccessStyle.Render("✓"), Title(ctx, *item))
	return nil
}

// Title resolves the display title of the item a queue entry points at. A
// deleted source shows as its category and id.
func Title(c *cli.Context, item models.QueueItem) string {
	if item.Category == constants.QueueCategoryAction {
		if a, err := c.Entities.GetAction(c.Ctx, item.ItemID); err == nil {
			return a.Title
		}
	} else if kind, err := models.ParseKind(item.Category); err == nil {
		if e, err := c.Entities.GetEntity(c.Ctx, kind, item.ItemID); err == nil {
			return e.Title
		}
	}
	return fmt.Sprintf("(missing %s %s)", item.Category, item.ItemID)
}
