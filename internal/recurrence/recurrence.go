// Package recurrence holds the due rules for every entity kind. Each kind
// has exactly one Policy, looked up by its discriminant.
package recurrence

import (
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/nudge/internal/logger"
	"github.com/julianstephens/nudge/internal/models"
	"github.com/julianstephens/nudge/internal/utils"
)

// Policy bundles the behaviour of one entity kind.
type Policy struct {
	Kind models.Kind
	// IsDue reports whether the entity is eligible for interaction at now.
	IsDue func(e models.Entity, now time.Time) bool
	// Validate rejects variant fields that would make IsDue meaningless.
	Validate func(e models.Entity) error
}

var policies = map[models.Kind]Policy{
	models.KindIntervalPrompt: {
		Kind:     models.KindIntervalPrompt,
		IsDue:    intervalElapsed,
		Validate: requireInterval,
	},
	models.KindIntervalPromptHighPriority: {
		Kind:     models.KindIntervalPromptHighPriority,
		IsDue:    nextCalendarDay,
		Validate: noVariantFields,
	},
	models.KindIntervalYesNoPrompt: {
		Kind:     models.KindIntervalYesNoPrompt,
		IsDue:    intervalElapsed,
		Validate: requireInterval,
	},
	models.KindOneTimeTask: {
		Kind:     models.KindOneTimeTask,
		IsDue:    notDone,
		Validate: noVariantFields,
	},
	models.KindOneTimeTaskDelayedUntilDate: {
		Kind:     models.KindOneTimeTaskDelayedUntilDate,
		IsDue:    all(notDone, startDateReached),
		Validate: requireStartAtDate,
	},
	models.KindOneTimeTaskDelayedByDays: {
		Kind:     models.KindOneTimeTaskDelayedByDays,
		IsDue:    all(notDone, startOffsetElapsed),
		Validate: requireStartInDays,
	},
	models.KindRepeatingTask: {
		Kind:     models.KindRepeatingTask,
		IsDue:    intervalElapsed,
		Validate: requireInterval,
	},
	models.KindRepeatingTaskDelayedUntil: {
		Kind:     models.KindRepeatingTaskDelayedUntil,
		IsDue:    all(startDateReached, intervalElapsed),
		Validate: both(requireInterval, requireStartAtDate),
	},
	models.KindRepeatingTaskDelayedByDays: {
		Kind:     models.KindRepeatingTaskDelayedByDays,
		IsDue:    all(startOffsetElapsed, intervalElapsed),
		Validate: both(requireInterval, requireStartInDays),
	},
}

// For returns the policy registered for kind.
func For(kind models.Kind) (Policy, bool) {
	p, ok := policies[kind]
	return p, ok
}

// IsDue reports whether e is due at now. Unknown kinds are never due.
func IsDue(e models.Entity, now time.Time) bool {
	p, ok := policies[e.Kind]
	if !ok {
		return false
	}
	return p.IsDue(e, now)
}

// FilterDue returns the due subset of entities, preserving order.
func FilterDue(entities []models.Entity, now time.Time) []models.Entity {
	due := make([]models.Entity, 0, len(entities))
	for _, e := range entities {
		if IsDue(e, now) {
			due = append(due, e)
		}
	}
	return due
}

// Validate checks an entity before it is written.
func Validate(e models.Entity) error {
	p, ok := policies[e.Kind]
	if !ok {
		return models.NewValidationError("kind", fmt.Sprintf("unknown kind %q", e.Kind))
	}
	if strings.TrimSpace(e.Title) == "" {
		return models.NewValidationError("title", "must not be empty")
	}
	if err := p.Validate(e); err != nil {
		return err
	}
	for i, a := range e.Answers {
		if err := ValidateAnswer(e.Kind, a); err != nil {
			return fmt.Errorf("answer %d: %w", i, err)
		}
	}
	return nil
}

// Normalize clears variant fields the entity's kind does not own.
func Normalize(e *models.Entity) {
	if !e.Kind.HasInterval() {
		e.IntervalDays = 0
	}
	if !e.Kind.IsOneTime() {
		e.IsDone = false
	}
	if !e.Kind.HasStartAtDate() {
		e.StartAtDate = ""
	}
	if !e.Kind.HasStartInDays() {
		e.StartInDays = 0
	}
}

// CheckTransition rejects updates that reopen a finished one-time task.
func CheckTransition(before, after models.Entity) error {
	if before.Kind.IsOneTime() && before.IsDone && !after.IsDone {
		return models.NewValidationError("is_done", "a finished one-time task cannot be reopened")
	}
	return nil
}

// ValidateAnswer checks that a matches the answer shape of kind.
func ValidateAnswer(kind models.Kind, a models.Answer) error {
	switch kind.AnswerShape() {
	case models.AnswerShapeText:
		if a.Choice != "" || a.Action != "" {
			return models.NewValidationError("answer", "expected a free-text answer")
		}
	case models.AnswerShapeYesNo:
		if !a.Choice.Valid() || a.Text != "" || a.Action != "" {
			return models.NewValidationError("answer", "expected yes, kind-of or no")
		}
	case models.AnswerShapeTask:
		if !a.Action.Valid() || a.Text != "" || a.Choice != "" {
			return models.NewValidationError("answer", "expected done or already-done")
		}
	}
	return nil
}

// ApplyAnswer appends a to e and marks e shown at now. An already-done
// answer finishes a one-time task for good.
func ApplyAnswer(e *models.Entity, a models.Answer, now time.Time) error {
	if err := ValidateAnswer(e.Kind, a); err != nil {
		return err
	}
	if a.At.IsZero() {
		a.At = now
	}
	e.Answers = append(e.Answers, a)
	shown := now
	e.LastShownAt = &shown
	if e.Kind.IsOneTime() && a.Action == models.TaskActionAlreadyDone {
		e.IsDone = true
	}
	return nil
}

// IsActionDue applies the generic single-category rule: archived and
// finished actions are never due, and a non-positive interval counts as one
// day.
func IsActionDue(a models.Action, ref time.Time) bool {
	if a.Archived {
		return false
	}
	if a.IsFinishable && a.IsCompleted {
		return false
	}
	if a.LastCompleted == nil {
		return true
	}
	interval := max(1, a.IntervalDays)
	return daysBetween(ref, *a.LastCompleted) >= interval
}

// daysBetween counts whole days from the calendar day of earlier to the
// calendar day of now, both taken in now's location.
func daysBetween(now, earlier time.Time) int {
	loc := now.Location()
	return utils.DifferenceInDays(utils.StartOfDay(now), utils.StartOfDay(earlier.In(loc)))
}

type rule func(e models.Entity, now time.Time) bool

func all(rules ...rule) rule {
	return func(e models.Entity, now time.Time) bool {
		for _, r := range rules {
			if !r(e, now) {
				return false
			}
		}
		return true
	}
}

func intervalElapsed(e models.Entity, now time.Time) bool {
	if e.LastShownAt == nil {
		return true
	}
	return daysBetween(now, *e.LastShownAt) >= e.IntervalDays
}

func nextCalendarDay(e models.Entity, now time.Time) bool {
	if e.LastShownAt == nil {
		return true
	}
	loc := now.Location()
	return utils.StartOfDay(now).After(utils.StartOfDay(e.LastShownAt.In(loc)))
}

func notDone(e models.Entity, _ time.Time) bool {
	return !e.IsDone
}

func startDateReached(e models.Entity, now time.Time) bool {
	start, ok := utils.ParseCompactDateIn(e.StartAtDate, now.Location())
	if !ok {
		logger.Warn("unparsable start date, entity is never due", "id", e.ID, "kind", e.Kind, "start_at_date", e.StartAtDate)
		return false
	}
	return !utils.StartOfDay(now).Before(start)
}

func startOffsetElapsed(e models.Entity, now time.Time) bool {
	return daysBetween(now, e.CreatedAt) >= e.StartInDays
}

type check func(e models.Entity) error

func both(a, b check) check {
	return func(e models.Entity) error {
		if err := a(e); err != nil {
			return err
		}
		return b(e)
	}
}

func noVariantFields(models.Entity) error { return nil }

func requireInterval(e models.Entity) error {
	if e.IntervalDays < 1 {
		return models.NewValidationError("interval_days", "must be at least 1")
	}
	return nil
}

func requireStartAtDate(e models.Entity) error {
	if _, ok := utils.ParseCompactDate(e.StartAtDate); !ok {
		return models.NewValidationError("start_at_date", fmt.Sprintf("%q is not a valid YY-MM-DD date", e.StartAtDate))
	}
	return nil
}

func requireStartInDays(e models.Entity) error {
	if e.StartInDays < 0 {
		return models.NewValidationError("start_in_days", "must not be negative")
	}
	return nil
}
