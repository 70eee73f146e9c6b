package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds the application configuration
type Config struct {
	Storage  StorageConfig  `toml:"storage"`
	Postgres PostgresConfig `toml:"postgres"`
	Mongo    MongoConfig    `toml:"mongo"`
	Persist  PersistConfig  `toml:"persist"`
	UI       UIConfig       `toml:"ui"`
	Log      LogConfig      `toml:"log"`
	Metrics  MetricsConfig  `toml:"metrics"`
}

// StorageConfig selects the persistence backend
type StorageConfig struct {
	// Backend is a registered backend name: sqlite, memory, postgres or mongo
	Backend string `toml:"backend"`
	// Path is the sqlite database file
	Path string `toml:"path"`
}

// PostgresConfig holds the postgres connection string
type PostgresConfig struct {
	DSN string `toml:"dsn"`
}

// MongoConfig locates the mongo deployment
type MongoConfig struct {
	URI      string `toml:"uri"`
	Database string `toml:"database"`
}

// PersistConfig tunes the background saver
type PersistConfig struct {
	Debounce Duration `toml:"debounce"`
}

// UIConfig holds display preferences
type UIConfig struct {
	Theme          string   `toml:"theme"`
	SignalDuration Duration `toml:"signal_duration"`
}

// LogConfig controls the log file
type LogConfig struct {
	Level string `toml:"level"`
	Path  string `toml:"path"`
}

// MetricsConfig enables the prometheus endpoint when Addr is set
type MetricsConfig struct {
	Addr string `toml:"addr"`
}

// Duration is a time.Duration written as "1500ms" in TOML
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Dir returns the configuration directory
func Dir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", "scheduler-tui")
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend: "sqlite",
			Path:    filepath.Join(Dir(), "scheduler.db"),
		},
		Mongo: MongoConfig{
			Database: "scheduler",
		},
		Persist: PersistConfig{
			Debounce: Duration{1500 * time.Millisecond},
		},
		UI: UIConfig{
			Theme:          "dark",
			SignalDuration: Duration{4 * time.Second},
		},
		Log: LogConfig{
			Level: "info",
			Path:  filepath.Join(Dir(), "scheduler.log"),
		},
	}
}

// Load loads configuration from the standard location
func Load() (*Config, error) {
	return LoadFrom(filepath.Join(Dir(), "config.toml"))
}

// LoadFrom loads configuration from a specific path, then applies
// environment overrides
func LoadFrom(configPath string) (*Config, error) {
	// Start with defaults
	cfg := Default()

	data, err := os.ReadFile(configPath)
	switch {
	case os.IsNotExist(err):
		// No config file, keep defaults
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.applyEnv()

	// Expand home directory in paths
	cfg.Storage.Path = expandPath(cfg.Storage.Path)
	cfg.Log.Path = expandPath(cfg.Log.Path)

	return cfg, cfg.Validate()
}

// applyEnv lets deploy-time secrets stay out of the file
func (c *Config) applyEnv() {
	if v := os.Getenv("SCHEDULER_BACKEND"); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv("SCHEDULER_DB_PATH"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("SCHEDULER_POSTGRES_DSN"); v != "" {
		c.Postgres.DSN = v
	}
	if v := os.Getenv("SCHEDULER_MONGO_URI"); v != "" {
		c.Mongo.URI = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// Validate rejects settings the app cannot run with
func (c *Config) Validate() error {
	if c.Storage.Backend == "" {
		return fmt.Errorf("storage.backend must be set")
	}
	if c.Persist.Debounce.Duration <= 0 {
		return fmt.Errorf("persist.debounce must be positive")
	}
	if c.UI.SignalDuration.Duration <= 0 {
		return fmt.Errorf("ui.signal_duration must be positive")
	}
	return nil
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[1:])
	}
	return path
}

// Save saves the configuration to the standard location
func (c *Config) Save() error {
	configDir := Dir()
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return c.SaveTo(filepath.Join(configDir, "config.toml"))
}

// SaveTo saves the configuration to a specific path
func (c *Config) SaveTo(configPath string) error {
	f, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	return nil
}
