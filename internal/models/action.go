package models

import "time"

// Action is the generic single-category item: a habit, a reflection or a
// finishable todo, repeated every IntervalDays.
type Action struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	IntervalDays  int        `json:"interval_days"`
	IsFinishable  bool       `json:"is_finishable"`
	IsCompleted   bool       `json:"is_completed"`
	Archived      bool       `json:"archived"`
	HighPriority  bool       `json:"high_priority"`
	LastCompleted *time.Time `json:"last_completed,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}
