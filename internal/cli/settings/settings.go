package settings

import (
	"fmt"
	"sort"

	"github.com/julianstephens/nudge/internal/cli"
	"github.com/julianstephens/nudge/internal/constants"
	"github.com/julianstephens/nudge/internal/models"
	"github.com/julianstephens/nudge/internal/utils"
)

type ShowCmd struct{}

func (c *ShowCmd) Run(ctx *cli.Context) error {
	settings, err := ctx.Store.GetSettings(ctx.Ctx)
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	ctx.Println(cli.TitleStyle.Render("Current Settings:"))
	ctx.Printf("  Queue Max Items:       %d\n", settings.QueueMaxItems)
	ctx.Printf("  Habit Day Cutoff Hour: %d\n", settings.HabitDayCutoffHour)
	ctx.Printf("  Timezone:              %s\n", settings.Timezone)
	return nil
}

type SetCmd struct {
	Key   string `arg:"" help:"Setting key (queue_max_items, habit_day_cutoff_hour, timezone)."`
	Value string `arg:"" help:"New value."`
}

func (c *SetCmd) Run(ctx *cli.Context) error {
	settings, err := ctx.Store.GetSettings(ctx.Ctx)
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	data := models.SettingsToMap(settings)
	if _, ok := data[c.Key]; !ok {
		keys := make([]string, 0, len(data))
		for k := range data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return fmt.Errorf("unknown setting %q (known: %v)", c.Key, keys)
	}
	data[c.Key] = c.Value

	updated, err := models.MapToSettings(data)
	if err != nil {
		return models.NewValidationError(c.Key, err.Error())
	}
	if err := updated.Validate(); err != nil {
		return err
	}
	if !utils.ValidateTimezone(updated.Timezone) {
		return models.NewValidationError(constants.SettingTimezone, fmt.Sprintf("unknown timezone %q", updated.Timezone))
	}

	if err := ctx.Store.SaveSettings(ctx.Ctx, updated); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	ctx.Println("Settings updated successfully.")
	return nil
}
