package model

// SettingsKey is the preference key Settings are stored under.
const SettingsKey = "settings"

// Settings are the user preferences kept next to the alarms. They are
// stored as JSON in a Preference row.
type Settings struct {
	Brightness  int    `json:"brightness"`
	City        string `json:"city"`
	CountryCode string `json:"country_code"`
}

// DefaultSettings is what a fresh device reports.
var DefaultSettings = Settings{Brightness: 7}
