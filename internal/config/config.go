// Package config loads lotplan settings from defaults, an optional YAML or
// JSON file and LOTPLAN_ environment variables, in that order.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix marks the environment variables read by Load. A double
// underscore separates levels: LOTPLAN_DB__PATH sets db.path.
const EnvPrefix = "LOTPLAN_"

type Config struct {
	DB       DBConfig       `json:"db"`
	View     ViewConfig     `json:"view"`
	Holidays HolidaysConfig `json:"holidays"`
	Log      LogConfig      `json:"log"`
	Metrics  MetricsConfig  `json:"metrics"`
	API      APIConfig      `json:"api"`
	Cascade  CascadeConfig  `json:"cascade"`
}

type DBConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver string `json:"driver"`
	Path   string `json:"path"`
	URL    string `json:"url"`
}

func (c *DBConfig) SetDefaults() {
	if c.Driver == "" {
		c.Driver = "sqlite"
	}
	if c.Driver == "sqlite" && c.Path == "" {
		c.Path = defaultDBPath()
	}
}

func (c DBConfig) Validate() error {
	switch c.Driver {
	case "sqlite":
		if c.Path == "" {
			return fmt.Errorf("db.path is required for sqlite")
		}
	case "postgres":
		if c.URL == "" {
			return fmt.Errorf("db.url is required for postgres")
		}
	default:
		return fmt.Errorf("unknown db driver %q", c.Driver)
	}
	return nil
}

type ViewConfig struct {
	Months int `json:"months"`
	// ColumnWidth is the number of terminal cells drawn per day.
	ColumnWidth int `json:"column_width"`
}

func (c *ViewConfig) SetDefaults() {
	if c.Months == 0 {
		c.Months = 3
	}
	if c.ColumnWidth == 0 {
		c.ColumnWidth = 2
	}
}

func (c ViewConfig) Validate() error {
	if c.Months < 1 || c.Months > 24 {
		return fmt.Errorf("view.months must be between 1 and 24, got %d", c.Months)
	}
	if c.ColumnWidth < 2 || c.ColumnWidth > 8 {
		return fmt.Errorf("view.column_width must be between 2 and 8, got %d", c.ColumnWidth)
	}
	return nil
}

type HolidaysConfig struct {
	Enabled      bool          `json:"enabled"`
	HolidaysURL  string        `json:"holidays_url"`
	VacationsURL string        `json:"vacations_url"`
	Zone         string        `json:"zone"`
	Timeout      time.Duration `json:"timeout"`
}

func (c HolidaysConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.HolidaysURL == "" || c.VacationsURL == "" {
		return fmt.Errorf("holidays urls are required when holidays are enabled")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("holidays.timeout must be positive")
	}
	return nil
}

type LogConfig struct {
	Level string `json:"level"`
	// UseCaseEvents turns on one log record per service command.
	UseCaseEvents bool `json:"use_case_events"`
}

// SlogLevel maps Level onto slog; unknown values were rejected by Validate.
func (c LogConfig) SlogLevel() slog.Level {
	var l slog.Level
	_ = l.UnmarshalText([]byte(c.Level))
	return l
}

func (c LogConfig) Validate() error {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.Level)); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr"`
}

type APIConfig struct {
	Addr string `json:"addr"`
}

type CascadeConfig struct {
	MaxConcurrency int `json:"max_concurrency"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		DB:   DBConfig{Driver: "sqlite", Path: defaultDBPath()},
		View: ViewConfig{Months: 3, ColumnWidth: 2},
		Holidays: HolidaysConfig{
			Enabled:      false,
			HolidaysURL:  "https://calendrier.api.gouv.fr/jours-feries/metropole",
			VacationsURL: "https://data.education.gouv.fr/api/explore/v2.1/catalog/datasets/fr-en-calendrier-scolaire/records",
			Zone:         "Zone B",
			Timeout:      5 * time.Second,
		},
		Log:     LogConfig{Level: "info"},
		Metrics: MetricsConfig{Addr: ":9090"},
		API:     APIConfig{Addr: ":8080"},
		Cascade: CascadeConfig{MaxConcurrency: 8},
	}
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".lotplan", "lotplan.db")
	}
	return filepath.Join(home, ".lotplan", "lotplan.db")
}

// Load reads path when it is not empty, then applies environment overrides
// and validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		parser, err := parserFor(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.DB.SetDefaults()
	cfg.View.SetDefaults()
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Cascade.MaxConcurrency <= 0 {
		cfg.Cascade.MaxConcurrency = 8
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c Config) Validate() error {
	if err := c.DB.Validate(); err != nil {
		return err
	}
	if err := c.View.Validate(); err != nil {
		return err
	}
	if err := c.Holidays.Validate(); err != nil {
		return err
	}
	return c.Log.Validate()
}

func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".json":
		return json.Parser(), nil
	default:
		return nil, fmt.Errorf("unsupported config format: %s", filepath.Ext(path))
	}
}

func envKey(s string) string {
	s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}
