package store

import (
	"context"
	"encoding/json"
	"fmt"

	"bedclock/internal/model"
)

// LoadSettings reads the stored settings, falling back to the defaults when
// none were saved.
func LoadSettings(ctx context.Context, s Store) (model.Settings, error) {
	blob, ok, err := s.Read(ctx, model.SettingsKey)
	if err != nil {
		return model.Settings{}, err
	}
	if !ok {
		return model.DefaultSettings, nil
	}
	settings := model.DefaultSettings
	if err := json.Unmarshal(blob, &settings); err != nil {
		return model.Settings{}, fmt.Errorf("stored settings are corrupt: %w", err)
	}
	return settings, nil
}
