// Package validation checks a snapshot of the store for records that the
// engine would silently skip or misinterpret.
package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/julianstephens/nudge/internal/constants"
	"github.com/julianstephens/nudge/internal/models"
	"github.com/julianstephens/nudge/internal/recurrence"
	"github.com/julianstephens/nudge/internal/utils"
)

// ConflictType represents the type of validation conflict
type ConflictType string

const (
	ConflictInvalidEntity       ConflictType = "invalid_entity"
	ConflictInvalidStartDate    ConflictType = "invalid_start_date"
	ConflictOrphanedQueueItem   ConflictType = "orphaned_queue_item"
	ConflictDuplicateQueueItem  ConflictType = "duplicate_queue_item"
	ConflictDanglingTaskOfDay   ConflictType = "dangling_task_of_the_day"
	ConflictDuplicateTaskOfDay  ConflictType = "duplicate_task_of_the_day"
	ConflictInvalidSettings     ConflictType = "invalid_settings"
	ConflictInvalidActionRecord ConflictType = "invalid_action"
)

// Conflict is one problem found in the store.
type Conflict struct {
	Type        ConflictType
	Description string
	Date        string   // YYYY-MM-DD (if applicable)
	IDs         []string // record IDs involved
	// Fixable conflicts can be repaired by deleting the records in IDs.
	Fixable bool
}

// ValidationResult contains all detected conflicts
type ValidationResult struct {
	Conflicts []Conflict
}

func (vr *ValidationResult) HasConflicts() bool {
	return len(vr.Conflicts) > 0
}

// Count returns how many conflicts have type t.
func (vr *ValidationResult) Count(t ConflictType) int {
	n := 0
	for _, c := range vr.Conflicts {
		if c.Type == t {
			n++
		}
	}
	return n
}

// Fixable returns the conflicts Fix-capable callers may repair.
func (vr *ValidationResult) Fixable() []Conflict {
	var out []Conflict
	for _, c := range vr.Conflicts {
		if c.Fixable {
			out = append(out, c)
		}
	}
	return out
}

// FormatReport returns a human-readable report of all conflicts
func (vr *ValidationResult) FormatReport() string {
	if !vr.HasConflicts() {
		return "No problems detected."
	}

	var b strings.Builder
	b.WriteString("Problems detected:\n")
	for _, c := range vr.Conflicts {
		fmt.Fprintf(&b, "- %s", c.Description)
		if c.Fixable {
			b.WriteString(" (fixable)")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Snapshot is everything the validator looks at.
type Snapshot struct {
	Settings      models.Settings
	Entities      []models.Entity
	Queue         []models.QueueItem
	TasksOfTheDay []models.TaskOfTheDay
	Actions       []models.Action
}

// Validator validates store contents
type Validator struct{}

func New() *Validator {
	return &Validator{}
}

// Validate runs every check against snap. Conflicts are ordered by check and
// then by record ID so reports are stable.
func (v *Validator) Validate(snap Snapshot) ValidationResult {
	result := ValidationResult{Conflicts: []Conflict{}}

	result.Conflicts = append(result.Conflicts, v.checkSettings(snap.Settings)...)
	result.Conflicts = append(result.Conflicts, v.checkEntities(snap.Entities)...)
	result.Conflicts = append(result.Conflicts, v.checkActions(snap.Actions)...)
	result.Conflicts = append(result.Conflicts, v.checkQueue(snap)...)
	result.Conflicts = append(result.Conflicts, v.checkTasksOfTheDay(snap)...)

	return result
}

func (v *Validator) checkSettings(s models.Settings) []Conflict {
	var out []Conflict
	if err := s.Validate(); err != nil {
		out = append(out, Conflict{
			Type:        ConflictInvalidSettings,
			Description: fmt.Sprintf("Settings: %v", err),
		})
	}
	if s.Timezone != "" && !utils.ValidateTimezone(s.Timezone) {
		out = append(out, Conflict{
			Type:        ConflictInvalidSettings,
			Description: fmt.Sprintf("Settings: unknown %s %q", constants.SettingTimezone, s.Timezone),
		})
	}
	return out
}

func (v *Validator) checkEntities(entities []models.Entity) []Conflict {
	sorted := append([]models.Entity(nil), entities...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	var out []Conflict
	for _, e := range sorted {
		// A start date that never parses leaves the entity permanently not
		// due, so it gets its own conflict type.
		if e.Kind.HasStartAtDate() && e.StartAtDate != "" {
			if _, ok := utils.ParseCompactDate(e.StartAtDate); !ok {
				out = append(out, Conflict{
					Type:        ConflictInvalidStartDate,
					Description: fmt.Sprintf("%s %q has unparsable start date %q", e.Kind, e.Title, e.StartAtDate),
					IDs:         []string{e.ID},
				})
				continue
			}
		}
		if err := recurrence.Validate(e); err != nil {
			out = append(out, Conflict{
				Type:        ConflictInvalidEntity,
				Description: fmt.Sprintf("%s %q: %v", e.Kind, e.Title, err),
				IDs:         []string{e.ID},
			})
		}
	}
	return out
}

func (v *Validator) checkActions(actions []models.Action) []Conflict {
	var out []Conflict
	for _, a := range actions {
		switch {
		case strings.TrimSpace(a.Title) == "":
			out = append(out, Conflict{
				Type:        ConflictInvalidActionRecord,
				Description: fmt.Sprintf("Action %s has an empty title", a.ID),
				IDs:         []string{a.ID},
			})
		case a.IsCompleted && !a.IsFinishable:
			out = append(out, Conflict{
				Type:        ConflictInvalidActionRecord,
				Description: fmt.Sprintf("Action %q is completed but not finishable", a.Title),
				IDs:         []string{a.ID},
			})
		}
	}
	return out
}

func (v *Validator) checkQueue(snap Snapshot) []Conflict {
	entityIDs := make(map[string]bool, len(snap.Entities))
	for _, e := range snap.Entities {
		entityIDs[string(e.Kind)+"/"+e.ID] = true
	}
	actionIDs := make(map[string]bool, len(snap.Actions))
	for _, a := range snap.Actions {
		actionIDs[a.ID] = true
	}

	var out []Conflict
	seen := make(map[string]string)
	for _, item := range snap.Queue {
		date := utils.FormatDateKey(item.ScheduledFor)

		var exists bool
		if item.Category == constants.QueueCategoryAction {
			exists = actionIDs[item.ItemID]
		} else {
			exists = entityIDs[item.Category+"/"+item.ItemID]
		}
		if !exists {
			out = append(out, Conflict{
				Type:        ConflictOrphanedQueueItem,
				Description: fmt.Sprintf("%s: queue item %s points at missing %s %s", date, item.ID, item.Category, item.ItemID),
				Date:        date,
				IDs:         []string{item.ID},
				Fixable:     !item.Completed,
			})
			continue
		}

		key := date + "|" + item.Category + "/" + item.ItemID
		if first, dup := seen[key]; dup {
			out = append(out, Conflict{
				Type:        ConflictDuplicateQueueItem,
				Description: fmt.Sprintf("%s: %s %s is queued twice (%s, %s)", date, item.Category, item.ItemID, first, item.ID),
				Date:        date,
				IDs:         []string{first, item.ID},
			})
			continue
		}
		seen[key] = item.ID
	}
	return out
}

func (v *Validator) checkTasksOfTheDay(snap Snapshot) []Conflict {
	entityIDs := make(map[string]bool, len(snap.Entities))
	for _, e := range snap.Entities {
		entityIDs[string(e.Kind)+"/"+e.ID] = true
	}

	var out []Conflict
	byDate := make(map[string][]string)
	for _, r := range snap.TasksOfTheDay {
		byDate[r.Date] = append(byDate[r.Date], r.ID)
		if !entityIDs[string(r.TaskType)+"/"+r.TaskID] {
			out = append(out, Conflict{
				Type:        ConflictDanglingTaskOfDay,
				Description: fmt.Sprintf("%s: task of the day points at missing %s %s", r.Date, r.TaskType, r.TaskID),
				Date:        r.Date,
				IDs:         []string{r.ID},
			})
		}
	}

	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	for _, d := range dates {
		if ids := byDate[d]; len(ids) > 1 {
			out = append(out, Conflict{
				Type:        ConflictDuplicateTaskOfDay,
				Description: fmt.Sprintf("%s: %d task-of-the-day records, the earliest wins", d, len(ids)),
				Date:        d,
				IDs:         ids,
			})
		}
	}
	return out
}
