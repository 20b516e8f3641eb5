package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/alextanhongpin/go-fitmate/domain"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// Config holds all fitmate settings.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Slot   SlotConfig   `yaml:"slot"`
	Ticket TicketConfig `yaml:"ticket"`
	Log    LogConfig    `yaml:"log"`

	// Directory replaces the built-in known users when non-empty.
	Directory []domain.Friend `yaml:"directory"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// SlotConfig selects where friend lists are persisted.
type SlotConfig struct {
	Backend   string       `yaml:"backend"` // memory, redis, sqlite
	Namespace string       `yaml:"namespace"`
	Redis     RedisConfig  `yaml:"redis"`
	SQLite    SQLiteConfig `yaml:"sqlite"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type TicketConfig struct {
	Secret    string        `yaml:"secret"`
	ExpiresIn time.Duration `yaml:"expires_in"`
}

type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":3000"},
		Slot: SlotConfig{
			Backend:   BackendMemory,
			Namespace: "fitmate",
			Redis:     RedisConfig{Addr: "127.0.0.1:6379"},
			SQLite:    SQLiteConfig{Path: "fitmate.db"},
		},
		Ticket: TicketConfig{
			Secret:    "secret :)",
			ExpiresIn: 24 * time.Hour,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads the YAML file at path over the defaults. A missing file is not
// an error. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(b, cfg); err != nil {
				return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
			}
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	for env, dst := range map[string]*string{
		"FITMATE_ADDR":          &c.Server.Addr,
		"FITMATE_SLOT_BACKEND":  &c.Slot.Backend,
		"FITMATE_REDIS_ADDR":    &c.Slot.Redis.Addr,
		"FITMATE_SQLITE_PATH":   &c.Slot.SQLite.Path,
		"FITMATE_TICKET_SECRET": &c.Ticket.Secret,
		"FITMATE_LOG_LEVEL":     &c.Log.Level,
	} {
		if v := os.Getenv(env); v != "" {
			*dst = v
		}
	}
}

func (c *Config) Validate() error {
	switch c.Slot.Backend {
	case BackendMemory, BackendRedis, BackendSQLite:
	default:
		return fmt.Errorf("config: unknown slot backend %q", c.Slot.Backend)
	}

	if c.Ticket.Secret == "" {
		return errors.New("config: ticket secret is required")
	}

	for _, f := range c.Directory {
		if f.Email == "" {
			return fmt.Errorf("config: directory entry %q has no email", f.Name)
		}
	}

	return nil
}
