package models

import (
	"fmt"
	"time"
)

// Kind is the discriminant of a trackable entity. The set is closed.
type Kind string

const (
	KindIntervalPrompt              Kind = "interval-prompt"
	KindIntervalPromptHighPriority  Kind = "interval-prompt-high-priority"
	KindIntervalYesNoPrompt         Kind = "interval-yes-no-prompt"
	KindOneTimeTask                 Kind = "one-time-task"
	KindOneTimeTaskDelayedUntilDate Kind = "one-time-task-delayed-until-date"
	KindOneTimeTaskDelayedByDays    Kind = "one-time-task-delayed-by-days"
	KindRepeatingTask               Kind = "repeating-task"
	KindRepeatingTaskDelayedUntil   Kind = "repeating-task-delayed-until-date"
	KindRepeatingTaskDelayedByDays  Kind = "repeating-task-delayed-by-days"
)

// Kinds lists every entity kind. Prompt kinds come first, followed by the
// six daily-task kinds.
var Kinds = []Kind{
	KindIntervalPrompt,
	KindIntervalPromptHighPriority,
	KindIntervalYesNoPrompt,
	KindOneTimeTask,
	KindOneTimeTaskDelayedUntilDate,
	KindOneTimeTaskDelayedByDays,
	KindRepeatingTask,
	KindRepeatingTaskDelayedUntil,
	KindRepeatingTaskDelayedByDays,
}

// DailyTaskKinds lists the kinds eligible for task-of-the-day selection.
var DailyTaskKinds = Kinds[3:]

// ParseKind converts a string into a Kind, rejecting unknown values.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown entity kind %q", s)
	}
	return k, nil
}

func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

func (k Kind) String() string {
	return string(k)
}

// IsDailyTask reports whether k belongs to the daily-task pool.
func (k Kind) IsDailyTask() bool {
	for _, known := range DailyTaskKinds {
		if k == known {
			return true
		}
	}
	return false
}

// IsOneTime reports whether k carries the one-way isDone flag.
func (k Kind) IsOneTime() bool {
	switch k {
	case KindOneTimeTask, KindOneTimeTaskDelayedUntilDate, KindOneTimeTaskDelayedByDays:
		return true
	}
	return false
}

// HasInterval reports whether k repeats on an intervalDays cadence.
func (k Kind) HasInterval() bool {
	switch k {
	case KindIntervalPrompt, KindIntervalYesNoPrompt,
		KindRepeatingTask, KindRepeatingTaskDelayedUntil, KindRepeatingTaskDelayedByDays:
		return true
	}
	return false
}

// HasStartAtDate reports whether k is gated by a YY-MM-DD start date.
func (k Kind) HasStartAtDate() bool {
	return k == KindOneTimeTaskDelayedUntilDate || k == KindRepeatingTaskDelayedUntil
}

// HasStartInDays reports whether k is gated by an offset from creation.
func (k Kind) HasStartInDays() bool {
	return k == KindOneTimeTaskDelayedByDays || k == KindRepeatingTaskDelayedByDays
}

// AnswerShape returns the shape of answers recorded against k.
func (k Kind) AnswerShape() AnswerShape {
	switch k {
	case KindIntervalPrompt, KindIntervalPromptHighPriority:
		return AnswerShapeText
	case KindIntervalYesNoPrompt:
		return AnswerShapeYesNo
	default:
		return AnswerShapeTask
	}
}

// Entity is a trackable prompt, question or task. Variant-specific fields
// are only meaningful for the kinds that own them; backends persist them as
// absent (NULL) for every other kind.
type Entity struct {
	ID          string     `json:"id"`
	Kind        Kind       `json:"kind"`
	Title       string     `json:"title"`
	CreatedAt   time.Time  `json:"created_at"`
	LastShownAt *time.Time `json:"last_shown_at,omitempty"`
	Answers     []Answer   `json:"answers"`

	IntervalDays int    `json:"interval_days,omitempty"`
	IsDone       bool   `json:"is_done,omitempty"`
	StartAtDate  string `json:"start_at_date,omitempty"` // YY-MM-DD
	StartInDays  int    `json:"start_in_days,omitempty"`
}

// EntityPatch is a partial update. Nil fields are left unchanged.
type EntityPatch struct {
	Title        *string
	LastShownAt  *time.Time
	Answers      *[]Answer
	IntervalDays *int
	IsDone       *bool
	StartAtDate  *string
	StartInDays  *int
}

// Apply copies every non-nil field of p onto e.
func (p EntityPatch) Apply(e *Entity) {
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.LastShownAt != nil {
		t := *p.LastShownAt
		e.LastShownAt = &t
	}
	if p.Answers != nil {
		e.Answers = append([]Answer(nil), (*p.Answers)...)
	}
	if p.IntervalDays != nil {
		e.IntervalDays = *p.IntervalDays
	}
	if p.IsDone != nil {
		e.IsDone = *p.IsDone
	}
	if p.StartAtDate != nil {
		e.StartAtDate = *p.StartAtDate
	}
	if p.StartInDays != nil {
		e.StartInDays = *p.StartInDays
	}
}

// IsEmpty reports whether the patch changes nothing.
func (p EntityPatch) IsEmpty() bool {
	return p.Title == nil && p.LastShownAt == nil && p.Answers == nil &&
		p.IntervalDays == nil && p.IsDone == nil && p.StartAtDate == nil && p.StartInDays == nil
}
