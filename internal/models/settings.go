package models

// Settings represents user preferences stored alongside the data
type Settings struct {
	QueueMaxItems      int    `json:"queue_max_items"`       // queue entries generated per day
	HabitDayCutoffHour int    `json:"habit_day_cutoff_hour"` // local hour a new habit day starts
	Timezone           string `json:"timezone"`              // IANA timezone name or "Local"
}
