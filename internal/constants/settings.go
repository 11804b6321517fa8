package constants

const (
	SettingQueueMaxItems      = "queue_max_items"
	SettingHabitDayCutoffHour = "habit_day_cutoff_hour"
	SettingTimezone           = "timezone"

	// Default Settings Values
	DefaultTimezone = "Local" // Use system local timezone by default
)
