package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/julianstephens/nudge/internal/models"
)

func (s *Store) GetSettings(ctx context.Context) (models.Settings, error) {
	data := map[string]string{}
	err := s.query(ctx, s.sb.Select("key", "value").From("settings"), func(rows *sql.Rows) error {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return err
		}
		data[key] = value
		return nil
	})
	if err != nil {
		return models.Settings{}, fmt.Errorf("get settings: %w", err)
	}
	return models.MapToSettings(data)
}

func (s *Store) SaveSettings(ctx context.Context, settings models.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	return s.RunInTx(ctx, func(ctx context.Context) error {
		for key, value := range models.SettingsToMap(settings) {
			upsert := s.sb.Insert("settings").
				Columns("key", "value").
				Values(key, value).
				Suffix("ON CONFLICT (key) DO UPDATE SET value = excluded.value")
			if _, err := s.exec(ctx, upsert); err != nil {
				return fmt.Errorf("save setting %s: %w", key, err)
			}
		}
		return nil
	})
}

// EnsureDefaultSettings writes the defaults when the settings table is empty.
func (s *Store) EnsureDefaultSettings(ctx context.Context) error {
	var count int
	if err := s.queryRow(ctx, s.sb.Select("count(*)").From("settings"), &count); err != nil {
		return fmt.Errorf("count settings: %w", err)
	}
	if count > 0 {
		return nil
	}
	return s.SaveSettings(ctx, models.DefaultSettings())
}
