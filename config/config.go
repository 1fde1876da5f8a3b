/*
config.go - Application configuration

PURPOSE:
  Loads server and CLI configuration with viper. Precedence, highest
  first: environment variables (WORKTIME_ prefix, dots become
  underscores), the config file, then the defaults below.

KEYS:
  server.port                  HTTP port (8080)
  server.cors.allow_origins    CORS origins
  server.shutdown_timeout      Graceful shutdown window (30s)
  db.path                      SQLite path, ":memory:" allowed (worktime.db)
  log.level                    debug, info, warn, error (info)
  log.format                   json or text (json)
  policy.settings_path         YAML/JSON settings file used as the base tree
  policy.preset                Built-in preset used when no file is set
  simulation.workers           Default simulation pool size (4)
  retention.enabled            Prune old runs (true)
  retention.window             How long runs are kept (2160h)
  retention.interval           Prune interval (1h)

SEE ALSO:
  - cmd/server/main.go
  - cmd/worktime/main.go
*/
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "WORKTIME"

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"db"`
	Log        LogConfig        `mapstructure:"log"`
	Policy     PolicyConfig     `mapstructure:"policy"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Retention  RetentionConfig  `mapstructure:"retention"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	CORS            CORSConfig    `mapstructure:"cors"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// PolicyConfig selects the base settings tree. SettingsPath wins over Preset.
type PolicyConfig struct {
	SettingsPath string `mapstructure:"settings_path"`
	Preset       string `mapstructure:"preset"`
}

type SimulationConfig struct {
	Workers int `mapstructure:"workers"`
}

type RetentionConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Window   time.Duration `mapstructure:"window"`
	Interval time.Duration `mapstructure:"interval"`
}

// Load reads configuration from path, or from worktime.yaml in ./config or
// the working directory when path is empty. A missing default file is not
// an error; a missing explicit file is.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("worktime")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173", "http://localhost:8080"})
	v.SetDefault("server.shutdown_timeout", "30s")

	v.SetDefault("db.path", "worktime.db")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("policy.settings_path", "")
	v.SetDefault("policy.preset", "")

	v.SetDefault("simulation.workers", 4)

	v.SetDefault("retention.enabled", true)
	v.SetDefault("retention.window", "2160h")
	v.SetDefault("retention.interval", "1h")
}

// Validate checks the values the server cannot start without.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid config: server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return errors.New("invalid config: db.path is required")
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return fmt.Errorf("invalid config: log.level: %w", err)
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("invalid config: log.format must be json or text, got %q", c.Log.Format)
	}
	if c.Simulation.Workers < 1 {
		return fmt.Errorf("invalid config: simulation.workers must be at least 1, got %d", c.Simulation.Workers)
	}
	if c.Retention.Enabled && (c.Retention.Window <= 0 || c.Retention.Interval <= 0) {
		return errors.New("invalid config: retention.window and retention.interval must be positive")
	}
	return nil
}

// SlogLevel parses Level.
func (c LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(c.Level))
	return level, err
}
