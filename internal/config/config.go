package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/udisondev/rpgcore/internal/model"
)

// EnvPrefix prefixes every environment override, e.g. RPGCORE_SERVER_PORT.
const EnvPrefix = "RPGCORE_"

// PathEnv names the variable holding the config file path.
const PathEnv = EnvPrefix + "CONFIG"

// DefaultPath is used when PathEnv is unset.
const DefaultPath = "config/rpgcore.yaml"

// Config holds all configuration for the rpgcore binaries.
type Config struct {
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL"`

	Inventory  InventoryConfig  `yaml:"inventory" envPrefix:"INVENTORY_"`
	Generator  GeneratorConfig  `yaml:"generator" envPrefix:"GENERATOR_"`
	Simulation SimulationConfig `yaml:"simulation" envPrefix:"SIMULATION_"`
	Server     ServerConfig     `yaml:"server" envPrefix:"SERVER_"`
	Database   DatabaseConfig   `yaml:"database" envPrefix:"DATABASE_"`
}

// InventoryConfig sizes the inventories created by the binaries.
type InventoryConfig struct {
	MaxSlots int `yaml:"max_slots" env:"MAX_SLOTS"`
}

// GeneratorConfig controls item generation.
type GeneratorConfig struct {
	// Seed for the item generator; 0 means a fresh random seed per run.
	Seed uint64 `yaml:"seed" env:"SEED"`
	// Count caps how many items lootfill draws; 0 means until the inventory overflows.
	Count int `yaml:"count" env:"COUNT"`
}

// SimulationConfig controls the world ticker.
type SimulationConfig struct {
	Workers      int           `yaml:"workers" env:"WORKERS"`
	TickInterval time.Duration `yaml:"tick_interval" env:"TICK_INTERVAL"`
}

// ServerConfig is the websocket listener.
type ServerConfig struct {
	BindAddress  string        `yaml:"bind_address" env:"BIND_ADDRESS"`
	Port         int           `yaml:"port" env:"PORT"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"` // per-write deadline
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`   // idle client disconnect
}

// Addr returns host:port for net.Listen.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.BindAddress, s.Port)
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Enabled  bool   `yaml:"enabled" env:"ENABLED"`
	Host     string `yaml:"host" env:"HOST"`
	Port     int    `yaml:"port" env:"PORT"`
	User     string `yaml:"user" env:"USER"`
	Password string `yaml:"password" env:"PASSWORD"`
	DBName   string `yaml:"dbname" env:"DBNAME"`
	SSLMode  string `yaml:"sslmode" env:"SSLMODE"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// Default returns Config with sensible defaults.
func Default() Config {
	return Config{
		LogLevel: "info",
		Inventory: InventoryConfig{
			MaxSlots: model.DefaultInventorySlots,
		},
		Simulation: SimulationConfig{
			Workers:      4,
			TickInterval: time.Second,
		},
		Server: ServerConfig{
			BindAddress:  "0.0.0.0",
			Port:         8080,
			WriteTimeout: 5 * time.Second,
			ReadTimeout:  120 * time.Second,
		},
		Database: DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "rpgcore",
			Password: "rpgcore",
			DBName:   "rpgcore",
			SSLMode:  "disable",
		},
	}
}

// Load reads config from a YAML file and applies RPGCORE_* environment
// overrides on top. If the file doesn't exist, defaults are used.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", path, err)
		}
	case !os.IsNotExist(err):
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Path returns the config path from RPGCORE_CONFIG, or DefaultPath.
func Path() string {
	if p := os.Getenv(PathEnv); p != "" {
		return p
	}
	return DefaultPath
}

// Validate rejects values no component can run with.
func (c Config) Validate() error {
	if c.Inventory.MaxSlots <= 0 {
		return fmt.Errorf("inventory.max_slots must be positive, got %d", c.Inventory.MaxSlots)
	}
	if c.Generator.Count < 0 {
		return fmt.Errorf("generator.count cannot be negative, got %d", c.Generator.Count)
	}
	if c.Simulation.Workers <= 0 {
		return fmt.Errorf("simulation.workers must be positive, got %d", c.Simulation.Workers)
	}
	if c.Simulation.TickInterval <= 0 {
		return fmt.Errorf("simulation.tick_interval must be positive, got %s", c.Simulation.TickInterval)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	return nil
}
