package system

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/nudge/internal/cli"
	"github.com/julianstephens/nudge/internal/tui"
)

// ReviewCmd opens the interactive review session over today's queue.
type ReviewCmd struct {
	Generate bool `help:"Fill today's queue before opening." default:"true" negatable:""`
}

func (c *ReviewCmd) Run(ctx *cli.Context) error {
	ctx.PerformAutomaticBackup()

	if c.Generate {
		if _, err := ctx.Scheduler.GenerateForToday(ctx.Ctx); err != nil {
			return fmt.Errorf("failed to fill today's queue: %w", err)
		}
	}

	model := tui.NewModel(ctx.Ctx, ctx.Entities, ctx.Scheduler, ctx.Selector)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx.Ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("review session failed: %w", err)
	}
	return nil
}
