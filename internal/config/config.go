package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/go-playground/validator/v10"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"
)

const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendAPI      = "api"

	// DefaultWorkingDays is used when workingDays is not set
	DefaultWorkingDays = "FREQ=WEEKLY;BYDAY=MO,TU,WE,TH,FR"

	defaultExchange  = "workshop.board"
	defaultHTTPAddr  = ":8080"
	defaultCacheSize = 64
)

// EventsConfig controls publishing of board notifications to RabbitMQ
type EventsConfig struct {
	Enabled  bool   `yaml:"enabled" env:"SCHEDULER_EVENTS_ENABLED"`
	URL      string `yaml:"url,omitempty" env:"SCHEDULER_EVENTS_URL" validate:"required_if=Enabled true,omitempty,url"`
	Exchange string `yaml:"exchange,omitempty" env:"SCHEDULER_EVENTS_EXCHANGE"`
}

// CacheConfig sizes the in-memory projection cache
type CacheConfig struct {
	Disabled bool `yaml:"disabled" env:"SCHEDULER_CACHE_DISABLED"`
	// Size is the number of day projections kept
	Size int `yaml:"size,omitempty" env:"SCHEDULER_CACHE_SIZE" validate:"min=0"`
}

// HTTPConfig configures the board API server
type HTTPConfig struct {
	Addr string `yaml:"addr,omitempty" env:"SCHEDULER_HTTP_ADDR" validate:"omitempty,hostname_port|startswith=:"`
}

// Config represents the application configuration
type Config struct {
	Backend     string `yaml:"backend" env:"SCHEDULER_BACKEND" validate:"required,oneof=postgres sqlite api"`
	DatabaseURL string `yaml:"databaseURL,omitempty" env:"SCHEDULER_DATABASE_URL" validate:"required_if=Backend postgres"`
	SQLitePath  string `yaml:"sqlitePath,omitempty" env:"SCHEDULER_SQLITE_PATH" validate:"required_if=Backend sqlite"`
	APIBaseURL  string `yaml:"apiBaseURL,omitempty" env:"SCHEDULER_API_BASE_URL" validate:"required_if=Backend api,omitempty,url"`
	APIToken    string `yaml:"apiToken,omitempty" env:"SCHEDULER_API_TOKEN"`

	Timezone    string   `yaml:"timezone,omitempty" env:"SCHEDULER_TIMEZONE" validate:"omitempty,timezone"`
	WorkingDays string   `yaml:"workingDays,omitempty"`
	Palette     []string `yaml:"palette,omitempty" validate:"omitempty,dive,hexcolor"`

	ProjectionCache CacheConfig `yaml:"projectionCache,omitempty"`

	ScheduleSheetID string `yaml:"scheduleSheetID,omitempty" env:"SCHEDULER_SHEET_ID"`

	Events EventsConfig `yaml:"events,omitempty"`
	HTTP   HTTPConfig   `yaml:"http,omitempty"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Load loads and validates the configuration from scheduler_config.yaml
// It looks for the config file in the current directory first, then in the user's home directory
func Load() (*Config, error) {
	return LoadWithEnv("")
}

// LoadWithEnv loads the configuration for an environment.
// For example, env="test" will look for "scheduler_config.test.yaml"
func LoadWithEnv(envName string) (*Config, error) {
	configPath, err := findConfigFile(envName)
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads the configuration from a specific path, applies
// SCHEDULER_* environment overrides and validates the result
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	cfg.applyDefaults()

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.WorkingDays == "" {
		c.WorkingDays = DefaultWorkingDays
	}
	if c.Events.Exchange == "" {
		c.Events.Exchange = defaultExchange
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = defaultHTTPAddr
	}
	if c.ProjectionCache.Size == 0 {
		c.ProjectionCache.Size = defaultCacheSize
	}
}

// Validate validates the configuration struct and checks the working-day rule
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if cfg.WorkingDays != "" {
		if _, err := rrule.StrToRRule(cfg.WorkingDays); err != nil {
			return fmt.Errorf("invalid rrule in workingDays: %w", err)
		}
	}

	return nil
}

// Location returns the configured timezone, defaulting to the local zone
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %s: %w", c.Timezone, err)
	}
	return loc, nil
}

// WorkingDayRule returns the working-day rule anchored at dtstart
func (c *Config) WorkingDayRule(dtstart time.Time) (*rrule.RRule, error) {
	rule := c.WorkingDays
	if rule == "" {
		rule = DefaultWorkingDays
	}
	opt, err := rrule.StrToROption(rule)
	if err != nil {
		return nil, fmt.Errorf("invalid rrule in workingDays: %w", err)
	}
	opt.Dtstart = dtstart
	r, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, fmt.Errorf("failed to build working day rule: %w", err)
	}
	return r, nil
}

// CacheSize returns the projection cache size, 0 when disabled
func (c *Config) CacheSize() int {
	if c.ProjectionCache.Disabled {
		return 0
	}
	if c.ProjectionCache.Size == 0 {
		return defaultCacheSize
	}
	return c.ProjectionCache.Size
}

// findConfigFile searches for scheduler_config[.<env>].yaml in current directory and home directory
func findConfigFile(envName string) (string, error) {
	configFileName := "scheduler_config.yaml"
	if envName != "" {
		configFileName = "scheduler_config." + envName + ".yaml"
	}
	return findFile(configFileName)
}
