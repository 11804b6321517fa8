package models

import "time"

// QueueItem is one scheduled interaction for a calendar day. Category is an
// entity Kind or "action".
type QueueItem struct {
	ID           string     `json:"id"`
	Category     string     `json:"category"`
	ItemID       string     `json:"item_id"`
	ScheduledFor time.Time  `json:"scheduled_for"`
	Completed    bool       `json:"completed"`
	Response     string     `json:"response,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}
