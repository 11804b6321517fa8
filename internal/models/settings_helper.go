package models

import (
	"fmt"

	"github.com/julianstephens/nudge/internal/constants"
)

// DefaultSettings returns the settings used for a fresh store.
func DefaultSettings() Settings {
	return Settings{
		QueueMaxItems:      constants.DefaultQueueMaxItems,
		HabitDayCutoffHour: constants.HabitDayCutoffHour,
		Timezone:           constants.DefaultTimezone,
	}
}

// MapToSettings converts a map of key-value pairs to a Settings struct.
// Missing keys keep their default value.
func MapToSettings(data map[string]string) (Settings, error) {
	settings := DefaultSettings()

	for key, value := range data {
		switch key {
		case constants.SettingQueueMaxItems:
			if _, err := fmt.Sscanf(value, "%d", &settings.QueueMaxItems); err != nil {
				return Settings{}, fmt.Errorf("parsing %s: %w", key, err)
			}
		case constants.SettingHabitDayCutoffHour:
			if _, err := fmt.Sscanf(value, "%d", &settings.HabitDayCutoffHour); err != nil {
				return Settings{}, fmt.Errorf("parsing %s: %w", key, err)
			}
		case constants.SettingTimezone:
			settings.Timezone = value
		}
	}
	return settings, nil
}

// SettingsToMap converts a Settings struct to a map of key-value pairs.
func SettingsToMap(settings Settings) map[string]string {
	return map[string]string{
		constants.SettingQueueMaxItems:      fmt.Sprintf("%d", settings.QueueMaxItems),
		constants.SettingHabitDayCutoffHour: fmt.Sprintf("%d", settings.HabitDayCutoffHour),
		constants.SettingTimezone:           settings.Timezone,
	}
}

// Validate checks that settings values are within range.
func (s Settings) Validate() error {
	if s.QueueMaxItems < 0 {
		return NewValidationError(constants.SettingQueueMaxItems, "must not be negative")
	}
	if s.HabitDayCutoffHour < 0 || s.HabitDayCutoffHour > 23 {
		return NewValidationError(constants.SettingHabitDayCutoffHour, "must be between 0 and 23")
	}
	return nil
}
