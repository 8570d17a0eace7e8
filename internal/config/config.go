package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"
)

// Config holds the Club Companion configuration shared by the client and the
// reference server. Each binary only reads the sections it needs.
type Config struct {
	Client   ClientConfig   `yaml:"client" envPrefix:"CLIENT_"`
	UI       UIConfig       `yaml:"ui" envPrefix:"UI_"`
	Server   ServerConfig   `yaml:"server" envPrefix:"SERVER_"`
	Database DatabaseConfig `yaml:"database" envPrefix:"DATABASE_"`
	Auth     AuthConfig     `yaml:"auth" envPrefix:"AUTH_"`
	Paths    PathsConfig    `yaml:"paths" envPrefix:"PATHS_"`
	Log      LogConfig      `yaml:"log" envPrefix:"LOG_"`
}

// ClientConfig holds REST API client settings.
type ClientConfig struct {
	APIURL  string        `yaml:"api_url" env:"API_URL"`
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// UIConfig holds dashboard timing settings.
type UIConfig struct {
	BannerTTL      time.Duration `yaml:"banner_ttl" env:"BANNER_TTL"`
	RefetchDelay   time.Duration `yaml:"refetch_delay" env:"REFETCH_DELAY"`
	TabSwitchDelay time.Duration `yaml:"tab_switch_delay" env:"TAB_SWITCH_DELAY"`
	PollInterval   time.Duration `yaml:"poll_interval" env:"POLL_INTERVAL"`
}

// ServerConfig holds the reference API listener settings.
type ServerConfig struct {
	Host        string   `yaml:"host" env:"HOST"`
	Port        int      `yaml:"port" env:"PORT"`
	CORSOrigins []string `yaml:"cors_origins" env:"CORS_ORIGINS" envSeparator:","`
}

// DatabaseConfig selects the storage driver. Driver is "sqlite" or "postgres".
type DatabaseConfig struct {
	Driver string `yaml:"driver" env:"DRIVER"`
	DSN    string `yaml:"dsn" env:"DSN"`
}

// AuthConfig holds token and password hashing settings.
type AuthConfig struct {
	JWTSecret  string        `yaml:"jwt_secret" env:"JWT_SECRET"`
	TokenTTL   time.Duration `yaml:"token_ttl" env:"TOKEN_TTL"`
	BcryptCost int           `yaml:"bcrypt_cost" env:"BCRYPT_COST"`
}

// PathsConfig holds filesystem paths for data and uploads.
type PathsConfig struct {
	Data    string `yaml:"data" env:"DATA"`
	Uploads string `yaml:"uploads" env:"UPLOADS"`
}

// LogConfig holds logger settings. Format is "console" or "json".
type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
	File   string `yaml:"file" env:"FILE"`
}

const envPrefix = "CLUBCOMPANION_"

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Client: ClientConfig{
			APIURL:  "http://localhost:8000",
			Timeout: 10 * time.Second,
		},
		UI: UIConfig{
			BannerTTL:      3 * time.Second,
			RefetchDelay:   time.Second,
			TabSwitchDelay: 2 * time.Second,
			PollInterval:   10 * time.Second,
		},
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000"},
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "./data/club_companion.db",
		},
		Auth: AuthConfig{
			TokenTTL:   24 * time.Hour,
			BcryptCost: 12,
		},
		Paths: PathsConfig{
			Data:    "./data",
			Uploads: "./data/uploads",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads a YAML config file on top of the defaults and applies
// CLUBCOMPANION_* environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: envPrefix}); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.UI.BannerTTL <= 0 {
		return fmt.Errorf("ui.banner_ttl must be > 0")
	}
	if c.UI.PollInterval <= 0 {
		return fmt.Errorf("ui.poll_interval must be > 0")
	}
	return nil
}

// HTTPAddr returns the listen address of the reference server.
func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
