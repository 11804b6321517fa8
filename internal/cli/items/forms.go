package items

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/nudge/internal/models"
	"github.com/julianstephens/nudge/internal/utils"
)

type entityFormModel struct {
	Kind        models.Kind
	Title       string
	Interval    string
	StartAtDate string
	StartInDays string
}

func kindOptions() []huh.Option[models.Kind] {
	opts := make([]huh.Option[models.Kind], 0, len(models.Kinds))
	for _, k := range models.Kinds {
		opts = append(opts, huh.NewOption(string(k), k))
	}
	return opts
}

func positiveInt(s string) error {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return err
	}
	if i <= 0 {
		return fmt.Errorf("must be a positive number of days")
	}
	return nil
}

func nonNegativeInt(s string) error {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return err
	}
	if i < 0 {
		return fmt.Errorf("must not be negative")
	}
	return nil
}

func compactDate(s string) error {
	if _, ok := utils.ParseCompactDate(s); !ok {
		return fmt.Errorf("expected a YY-MM-DD date")
	}
	return nil
}

// newEntityForm asks for the kind and title first, then only the fields the
// chosen kind owns.
func newEntityForm(fm *entityFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[models.Kind]().
				Title("Kind").
				Options(kindOptions()...).
				Value(&fm.Kind),
			huh.NewInput().
				Title("Title").
				Value(&fm.Title).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("title is required")
					}
					return nil
				}),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Interval (days)").
				Value(&fm.Interval).
				Validate(positiveInt),
		).WithHideFunc(func() bool { return !fm.Kind.HasInterval() }),
		huh.NewGroup(
			huh.NewInput().
				Title("Start date (YY-MM-DD)").
				Value(&fm.StartAtDate).
				Validate(compactDate),
		).WithHideFunc(func() bool { return !fm.Kind.HasStartAtDate() }),
		huh.NewGroup(
			huh.NewInput().
				Title("Start in (days)").
				Value(&fm.StartInDays).
				Validate(nonNegativeInt),
		).WithHideFunc(func() bool { return !fm.Kind.HasStartInDays() }),
	)
}

func (fm *entityFormModel) entity() models.Entity {
	e := models.Entity{Kind: fm.Kind, Title: strings.TrimSpace(fm.Title)}
	e.IntervalDays, _ = strconv.Atoi(strings.TrimSpace(fm.Interval))
	e.StartAtDate = strings.TrimSpace(fm.StartAtDate)
	e.StartInDays, _ = strconv.Atoi(strings.TrimSpace(fm.StartInDays))
	return e
}

// promptAnswer asks for an answer matching kind's shape.
func promptAnswer(e models.Entity) (models.Answer, error) {
	var a models.Answer
	var field huh.Field
	switch e.Kind.AnswerShape() {
	case models.AnswerShapeText:
		field = huh.NewText().Title(e.Title).Value(&a.Text)
	case models.AnswerShapeYesNo:
		field = huh.NewSelect[models.YesNo]().
			Title(e.Title).
			Options(
				huh.NewOption("Yes", models.Yes),
				huh.NewOption("Kind of", models.KindOf),
				huh.NewOption("No", models.No),
			).
			Value(&a.Choice)
	default:
		field = huh.NewSelect[models.TaskAction]().
			Title(e.Title).
			Options(
				huh.NewOption("Done", models.TaskActionDone),
				huh.NewOption("Already done", models.TaskActionAlreadyDone),
			).
			Value(&a.Action)
	}
	if err := huh.NewForm(huh.NewGroup(field)).Run(); err != nil {
		return models.Answer{}, err
	}
	return a, nil
}
