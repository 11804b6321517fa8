package constants

const (
	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// CompactDateFormat is the two-digit-year form used for delayed-until start dates (YY-MM-DD)
	CompactDateFormat = "06-01-02"

	// TimeFormat is the standard time format used throughout the application (HH:MM)
	TimeFormat = "15:04"

	// HabitDayCutoffHour is the local hour at which a new habit day begins.
	// Activity before this hour still belongs to the previous calendar day.
	HabitDayCutoffHour = 4

	// MillisPerDay is the length of a scheduling day on the epoch-millisecond axis.
	MillisPerDay = 24 * 60 * 60 * 1000
)
