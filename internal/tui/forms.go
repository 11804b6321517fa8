package tui

import (
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/nudge/internal/models"
)

// newAnswerForm asks for an answer shaped for e's kind and writes it to a.
func newAnswerForm(e models.Entity, a *models.Answer) *huh.Form {
	var field huh.Field
	switch e.Kind.AnswerShape() {
	case models.AnswerShapeText:
		field = huh.NewText().
			Title(e.Title).
			Value(&a.Text)
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
				huh.NewOption("Already done, stop asking", models.TaskActionAlreadyDone),
			).
			Value(&a.Action)
	}
	return huh.NewForm(huh.NewGroup(field)).WithTheme(huh.ThemeDracula())
}

// responseText is what the queue entry records for a.
func responseText(a models.Answer) string {
	switch {
	case a.Text != "":
		return a.Text
	case a.Choice != "":
		return string(a.Choice)
	default:
		return string(a.Action)
	}
}
