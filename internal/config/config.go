package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Backends supported by the store factory.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config holds all kantong configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Daemon     DaemonConfig     `toml:"daemon"`
	AMQP       AMQPConfig       `toml:"amqp"`
	Log        LogConfig        `toml:"log"`
	Appearance AppearanceConfig `toml:"appearance"`
}

// GeneralConfig selects the user and the store backend.
type GeneralConfig struct {
	UserID      string `toml:"user_id"`
	Backend     string `toml:"backend"`
	DBPath      string `toml:"db_path,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
}

// DaemonConfig controls the background service and stream triggers.
type DaemonConfig struct {
	Addr         string   `toml:"addr"`
	Interval     Duration `toml:"interval"`
	EventsBuffer int      `toml:"events_buffer"`
	QueueSize    int      `toml:"queue_size"`
	Watch        bool     `toml:"watch"`
	Debounce     Duration `toml:"debounce"`
}

// AMQPConfig holds the optional change-notification bus settings.
type AMQPConfig struct {
	URL           string `toml:"url,omitempty"`
	Exchange      string `toml:"exchange"`
	RoutingPrefix string `toml:"routing_prefix"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// Duration is a time.Duration stored as a string such as "15s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			UserID:  "default",
			Backend: BackendSQLite,
			DBPath:  filepath.Join(DataDir(), "kantong.db"),
		},
		Daemon: DaemonConfig{
			Addr:         "127.0.0.1:8797",
			Interval:     Duration{15 * time.Second},
			EventsBuffer: 200,
			QueueSize:    64,
			Watch:        true,
			Debounce:     Duration{250 * time.Millisecond},
		},
		AMQP: AMQPConfig{
			Exchange:      "kantong",
			RoutingPrefix: "changes",
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		Appearance: AppearanceConfig{
			Theme: "kantong-gelap",
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "kantong")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "kantong")
}

// DataDir returns the XDG-compliant data directory holding the database.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "kantong")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "kantong")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads .env (if present) and the config file, returning defaults
// when the file doesn't exist. Environment overrides are applied last.
func Load() (Config, error) {
	_ = godotenv.Load()
	return LoadFile(ConfigPath())
}

// LoadFile reads the config at path and applies environment overrides.
func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
	case !os.IsNotExist(err):
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	applyEnv(&cfg)
	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	return SaveFile(ConfigPath(), cfg)
}

// SaveFile writes the config to path.
func SaveFile(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("KANTONG_USER"); v != "" {
		cfg.General.UserID = v
	}
	if v := os.Getenv("KANTONG_BACKEND"); v != "" {
		cfg.General.Backend = v
	}
	if v := os.Getenv("KANTONG_DB_PATH"); v != "" {
		cfg.General.DBPath = v
	}
	if v := os.Getenv("KANTONG_POSTGRES_DSN"); v != "" {
		cfg.General.PostgresDSN = v
	}
	if v := os.Getenv("KANTONG_AMQP_URL"); v != "" {
		cfg.AMQP.URL = v
	}
	if v := os.Getenv("KANTONG_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

// Validate checks the configuration, reporting every problem at once.
func (c Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.General.UserID) == "" {
		problems = append(problems, "general.user_id must not be empty")
	}

	switch c.General.Backend {
	case BackendSQLite:
		if c.General.DBPath == "" {
			problems = append(problems, "general.db_path is required for the sqlite backend")
		}
	case BackendPostgres:
		if c.General.PostgresDSN == "" {
			problems = append(problems, "general.postgres_dsn is required for the postgres backend")
		}
	case BackendMemory:
	default:
		problems = append(problems, fmt.Sprintf("unknown backend %q (want sqlite, postgres or memory)", c.General.Backend))
	}

	if c.Daemon.Interval.Duration < time.Second {
		problems = append(problems, fmt.Sprintf("daemon.interval %s is below 1s", c.Daemon.Interval))
	}
	if c.Daemon.EventsBuffer < 1 {
		problems = append(problems, "daemon.events_buffer must be positive")
	}
	if c.Daemon.QueueSize < 1 {
		problems = append(problems, "daemon.queue_size must be positive")
	}

	if c.AMQP.URL != "" {
		u, err := url.Parse(c.AMQP.URL)
		if err != nil || (u.Scheme != "amqp" && u.Scheme != "amqps") {
			problems = append(problems, fmt.Sprintf("amqp.url %q is not an amqp:// URL", c.AMQP.URL))
		}
		if c.AMQP.Exchange == "" || c.AMQP.RoutingPrefix == "" {
			problems = append(problems, "amqp.exchange and amqp.routing_prefix are required when amqp.url is set")
		}
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}
