package models

import "time"

// TaskOfTheDay is the persisted selection for one habit day.
type TaskOfTheDay struct {
	ID          string     `json:"id"`
	Date        string     `json:"date"` // YYYY-MM-DD habit-day key
	TaskID      string     `json:"task_id"`
	TaskType    Kind       `json:"task_type"`
	SelectedAt  time.Time  `json:"selected_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (r TaskOfTheDay) IsCompleted() bool {
	return r.CompletedAt != nil
}
