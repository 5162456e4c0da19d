package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPort      = 10000
	DefaultEditDelay = 3 * time.Second

	StoreFile     = "file"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

var (
	ErrMissingToken = errors.New("TELEGRAM_BOT_TOKEN is required")
	ErrInvalidPort  = errors.New("port must be between 1 and 65535")
)

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token        string        `yaml:"token"`
	Workers      int           `yaml:"workers"`      // update workers
	MetricsPort  int           `yaml:"metrics_port"` // 0 disables /metrics on the bot
	Language     string        `yaml:"language"`     // fr | en
	DisplayStyle int           `yaml:"display_style"`
	EditDelay    time.Duration `yaml:"edit_delay"`
	RateLimit    int           `yaml:"rate_limit"` // commands per chat per minute, 0 = off
}

type WebConfig struct {
	Port         int           `yaml:"port"`
	APIKey       string        `yaml:"api_key"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type StoreConfig struct {
	Driver string `yaml:"driver"` // file | redis | postgres | memory
	Dir    string `yaml:"dir"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type ReportConfig struct {
	UTCOffsetHours *int `yaml:"utc_offset_hours"` // nil = UTC+1 (Benin)
	MinMinutes     int  `yaml:"min_minutes"`
	MaxMinutes     int  `yaml:"max_minutes"`
}

type DeployConfig struct {
	Root  string   `yaml:"root"`
	Paths []string `yaml:"paths"`
}

type Config struct {
	Bot      BotConfig      `yaml:"bot"`
	Web      WebConfig      `yaml:"web"`
	Log      LogConfig      `yaml:"log"`
	Store    StoreConfig    `yaml:"store"`
	Redis    RedisConfig    `yaml:"redis"`
	Database DatabaseConfig `yaml:"database"`
	Report   ReportConfig   `yaml:"report"`
	Deploy   DeployConfig   `yaml:"deploy"`

	Runtime RuntimeConfig `yaml:"-"`
}

// envOverrides holds the variables a PaaS dashboard typically sets. Anything
// non-zero here wins over the YAML file.
type envOverrides struct {
	Token        string        `envconfig:"TELEGRAM_BOT_TOKEN"`
	Port         int           `envconfig:"PORT"`
	LogLevel     string        `envconfig:"LOG_LEVEL"`
	LogFormat    string        `envconfig:"LOG_FORMAT"`
	StoreDriver  string        `envconfig:"STORE_DRIVER"`
	StoreDir     string        `envconfig:"STORE_DIR"`
	RedisURL     string        `envconfig:"REDIS_URL"`
	RedisPass    string        `envconfig:"REDIS_PASSWORD"`
	RedisDB      int           `envconfig:"REDIS_DB"`
	DatabaseURL  string        `envconfig:"DATABASE_URL"`
	Workers      int           `envconfig:"BOT_WORKERS"`
	MetricsPort  int           `envconfig:"BOT_METRICS_PORT"`
	Language     string        `envconfig:"BOT_LANGUAGE"`
	DisplayStyle int           `envconfig:"BOT_DISPLAY_STYLE"`
	EditDelay    time.Duration `envconfig:"BOT_EDIT_DELAY"`
	RateLimit    int           `envconfig:"BOT_RATE_LIMIT"`
	UTCOffset    *int          `envconfig:"REPORT_UTC_OFFSET"`
	APIKey       string        `envconfig:"DASHBOARD_API_KEY"`
}

// LoadConfig reads the optional YAML file at path, then .env, then the process
// environment. A missing file is not an error: on a PaaS everything usually
// comes from the environment.
func LoadConfig(path string, dev bool) (*Config, error) {
	var cfg Config
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	var env envOverrides
	if err := envconfig.Process("", &env); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	cfg.applyEnv(env)
	cfg.applyDefaults()

	cfg.Runtime.Dev = dev
	if err := cfg.validateStore(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv(e envOverrides) {
	setStr := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	setInt := func(dst *int, v int) {
		if v != 0 {
			*dst = v
		}
	}
	setStr(&c.Bot.Token, strings.TrimSpace(e.Token))
	setInt(&c.Web.Port, e.Port)
	setStr(&c.Log.Level, e.LogLevel)
	setStr(&c.Log.Format, e.LogFormat)
	setStr(&c.Store.Driver, e.StoreDriver)
	setStr(&c.Store.Dir, e.StoreDir)
	setStr(&c.Redis.URL, e.RedisURL)
	setStr(&c.Redis.Password, e.RedisPass)
	setInt(&c.Redis.DB, e.RedisDB)
	setStr(&c.Database.URL, e.DatabaseURL)
	setInt(&c.Bot.Workers, e.Workers)
	setInt(&c.Bot.MetricsPort, e.MetricsPort)
	setStr(&c.Bot.Language, e.Language)
	setInt(&c.Bot.DisplayStyle, e.DisplayStyle)
	setInt(&c.Bot.RateLimit, e.RateLimit)
	if e.EditDelay > 0 {
		c.Bot.EditDelay = e.EditDelay
	}
	if e.UTCOffset != nil {
		c.Report.UTCOffsetHours = e.UTCOffset
	}
	setStr(&c.Web.APIKey, e.APIKey)
}

func (c *Config) applyDefaults() {
	if c.Bot.Workers <= 0 {
		c.Bot.Workers = 4
	}
	if c.Bot.Language == "" {
		c.Bot.Language = "fr"
	}
	if c.Bot.DisplayStyle != 2 {
		c.Bot.DisplayStyle = 1
	}
	if c.Bot.EditDelay <= 0 {
		c.Bot.EditDelay = DefaultEditDelay
	}
	if c.Web.Port == 0 {
		c.Web.Port = DefaultPort
	}
	if c.Web.WriteTimeout <= 0 {
		c.Web.WriteTimeout = 15 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	if c.Store.Driver == "" {
		c.Store.Driver = StoreFile
	}
	if c.Store.Dir == "" {
		c.Store.Dir = "."
	}
	if c.Database.MaxConns <= 0 {
		c.Database.MaxConns = 5
	}
	if c.Report.MinMinutes <= 0 {
		c.Report.MinMinutes = 5
	}
	if c.Report.MaxMinutes <= 0 {
		c.Report.MaxMinutes = 32
	}
	if c.Report.UTCOffsetHours == nil {
		benin := 1
		c.Report.UTCOffsetHours = &benin
	}
	if c.Deploy.Root == "" {
		c.Deploy.Root = "."
	}
	if len(c.Deploy.Paths) == 0 {
		c.Deploy.Paths = []string{"render.yaml", "go.mod", "go.sum", "config.example.yaml", "cmd", "internal"}
	}
}

func (c *Config) validateStore() error {
	switch c.Store.Driver {
	case StoreFile, StoreMemory:
	case StoreRedis:
		if c.Redis.URL == "" {
			return errors.New("redis.url is required when store.driver=redis")
		}
	case StorePostgres:
		if c.Database.URL == "" {
			return errors.New("database.url is required when store.driver=postgres")
		}
	default:
		return fmt.Errorf("unknown store.driver %q", c.Store.Driver)
	}
	return nil
}

// ValidateBot checks what the bot process needs before touching the network.
func (c *Config) ValidateBot() error {
	if strings.TrimSpace(c.Bot.Token) == "" {
		return ErrMissingToken
	}
	if c.Report.MinMinutes > c.Report.MaxMinutes {
		return fmt.Errorf("report.min_minutes (%d) exceeds report.max_minutes (%d)", c.Report.MinMinutes, c.Report.MaxMinutes)
	}
	return nil
}

// ValidateWeb checks what the monitoring process needs.
func (c *Config) ValidateWeb() error {
	if c.Web.Port < 1 || c.Web.Port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.Web.Port)
	}
	return nil
}

// ReportLocation is the fixed zone used to timestamp automatic reports.
func (c *Config) ReportLocation() *time.Location {
	h := 1
	if c.Report.UTCOffsetHours != nil {
		h = *c.Report.UTCOffsetHours
	}
	return time.FixedZone(fmt.Sprintf("UTC%+d", h), h*3600)
}

// Addr is the listen address of the monitoring process.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Web.Port)
}
