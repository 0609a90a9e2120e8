package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Clock      ClockConfig      `yaml:"clock"`
	Display    DisplayConfig    `yaml:"display"`
	Button     ButtonConfig     `yaml:"button"`
	Playback   PlaybackConfig   `yaml:"playback"`
	Weather    WeatherConfig    `yaml:"weather"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
}

// WeatherConfig controls the current-conditions lookup shown on the weather
// view. City and CountryCode are fallbacks for when the user has not saved a
// location in the settings.
type WeatherConfig struct {
	Enabled         bool          `yaml:"enabled"`
	URL             string        `yaml:"url"`
	APIKey          string        `yaml:"api_key"`
	HTTPProxy       string        `yaml:"http_proxy"`
	City            string        `yaml:"city"`
	CountryCode     string        `yaml:"country_code"`
	IntervalSeconds int           `yaml:"interval_seconds"`
	Interval        time.Duration `yaml:"-"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// PushConfig holds the VAPID keys for web push notifications. Push is
// disabled when either key is empty.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// Enabled reports whether both VAPID keys are configured.
func (p PushConfig) Enabled() bool {
	return p.PublicKey != "" && p.PrivateKey != ""
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"` // sqlite or postgres
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// ClockConfig controls the wall clock the alarms are evaluated against.
type ClockConfig struct {
	Timezone       string        `yaml:"timezone"`
	AssumeSynced   bool          `yaml:"assume_synced"`
	TickIntervalMS int           `yaml:"tick_interval_ms"`
	TickInterval   time.Duration `yaml:"-"`
}

// DisplayConfig controls the informational view cycle.
type DisplayConfig struct {
	CycleIntervalSeconds int           `yaml:"cycle_interval_seconds"`
	CycleInterval        time.Duration `yaml:"-"`
}

// ButtonConfig controls the acknowledge button.
type ButtonConfig struct {
	DebounceMS int           `yaml:"debounce_ms"`
	Debounce   time.Duration `yaml:"-"`
}

// PlaybackConfig selects the tone backend.
type PlaybackConfig struct {
	Backend    string        `yaml:"backend"` // oto or silent
	SampleRate int           `yaml:"sample_rate"`
	PauseMS    int           `yaml:"pause_ms"`
	Pause      time.Duration `yaml:"-"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 80
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 30
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.DSN == "" && cfg.Database.Driver == "sqlite" {
		cfg.Database.DSN = "bedclock.db"
	}

	if cfg.Clock.Timezone == "" {
		cfg.Clock.Timezone = "Local"
	}
	if cfg.Clock.TickIntervalMS <= 0 {
		cfg.Clock.TickIntervalMS = 1000
	}
	if cfg.Clock.TickIntervalMS > 60*1000 {
		log.Printf("clock.tick_interval_ms %d would skip alarm minutes; clamping to 60000", cfg.Clock.TickIntervalMS)
		cfg.Clock.TickIntervalMS = 60 * 1000
	}
	cfg.Clock.TickInterval = time.Duration(cfg.Clock.TickIntervalMS) * time.Millisecond

	if cfg.Display.CycleIntervalSeconds <= 0 {
		cfg.Display.CycleIntervalSeconds = 60
	}
	cfg.Display.CycleInterval = time.Duration(cfg.Display.CycleIntervalSeconds) * time.Second

	if cfg.Button.DebounceMS <= 0 {
		cfg.Button.DebounceMS = 333
	}
	cfg.Button.Debounce = time.Duration(cfg.Button.DebounceMS) * time.Millisecond

	if cfg.Playback.Backend == "" {
		cfg.Playback.Backend = "oto"
	}
	if cfg.Playback.SampleRate <= 0 {
		cfg.Playback.SampleRate = 44100
	}
	if cfg.Playback.PauseMS <= 0 {
		cfg.Playback.PauseMS = 5000
	}
	cfg.Playback.Pause = time.Duration(cfg.Playback.PauseMS) * time.Millisecond

	if cfg.Weather.URL == "" {
		cfg.Weather.URL = "http://api.openweathermap.org/data/2.5/weather"
	}
	if cfg.Weather.City == "" {
		cfg.Weather.City = "George Town"
		cfg.Weather.CountryCode = "MY"
	}
	if cfg.Weather.IntervalSeconds <= 0 {
		cfg.Weather.IntervalSeconds = 60
	}
	cfg.Weather.Interval = time.Duration(cfg.Weather.IntervalSeconds) * time.Second

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}
}
