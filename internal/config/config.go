// Package config loads server configuration from an optional YAML file and
// the environment. Environment variables win over the file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Suggest  SuggestConfig  `yaml:"suggest"`
	Drafts   DraftConfig    `yaml:"drafts"`
}

type ServerConfig struct {
	Port               string   `yaml:"port" validate:"required,numeric"`
	PublicBaseURL      string   `yaml:"public_base_url" validate:"required,url"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins" validate:"min=1"`
	LogLevel           string   `yaml:"log_level" validate:"oneof=debug info warn error"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host" validate:"required"`
	Port     string `yaml:"port" validate:"required,numeric"`
	User     string `yaml:"user" validate:"required"`
	Password string `yaml:"password"`
	Name     string `yaml:"name" validate:"required"`
	SSLMode  string `yaml:"sslmode" validate:"oneof=disable require verify-ca verify-full"`
}

// DSN renders the lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret" validate:"required,min=16"`
	TokenTTL  time.Duration `yaml:"token_ttl" validate:"gt=0"`
}

type SuggestConfig struct {
	// Mode selects the LLM backend: api, cli or mock.
	Mode          string `yaml:"mode" validate:"oneof=api cli mock"`
	Model         string `yaml:"model"`
	CLIPath       string `yaml:"cli_path"`
	RatePerMinute int    `yaml:"rate_per_minute" validate:"min=1,max=600"`
}

type DraftConfig struct {
	TTL time.Duration `yaml:"ttl" validate:"gt=0"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:               "8080",
			PublicBaseURL:      "http://localhost:3000",
			CORSAllowedOrigins: []string{"*"},
			LogLevel:           "info",
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     "5432",
			User:     "worksheet_user",
			Password: "worksheet_password",
			Name:     "worksheets",
			SSLMode:  "disable",
		},
		Auth: AuthConfig{
			JWTSecret: "worksheet-dev-signing-key-change-me",
			TokenTTL:  72 * time.Hour,
		},
		Suggest: SuggestConfig{
			Mode:          "mock",
			Model:         "claude-sonnet-4-5",
			CLIPath:       "claude",
			RatePerMinute: 10,
		},
		Drafts: DraftConfig{
			TTL: 2 * time.Hour,
		},
	}
}

var validate = validator.New()

// Load builds the configuration: defaults, then the YAML file named by
// CONFIG_FILE (if set), then environment overrides.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	cfg.Server.PublicBaseURL = strings.TrimRight(getEnv("PUBLIC_BASE_URL", cfg.Server.PublicBaseURL), "/")
	cfg.Server.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", cfg.Server.LogLevel))
	if origins, ok := os.LookupEnv("CORS_ALLOWED_ORIGINS"); ok {
		cfg.Server.CORSAllowedOrigins = splitList(origins)
	}

	cfg.Database.Host = getEnv("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = getEnv("DB_PORT", cfg.Database.Port)
	cfg.Database.User = getEnv("DB_USER", cfg.Database.User)
	cfg.Database.Password = getEnv("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.Name = getEnv("DB_NAME", cfg.Database.Name)
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", cfg.Database.SSLMode)

	cfg.Auth.JWTSecret = getEnv("JWT_SECRET", cfg.Auth.JWTSecret)

	cfg.Suggest.Mode = getEnv("SUGGEST_MODE", cfg.Suggest.Mode)
	cfg.Suggest.Model = getEnv("ANTHROPIC_MODEL", cfg.Suggest.Model)
	cfg.Suggest.CLIPath = getEnv("CLAUDE_CLI_PATH", cfg.Suggest.CLIPath)
	if v, ok := os.LookupEnv("SUGGEST_RATE_PER_MINUTE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse SUGGEST_RATE_PER_MINUTE: %w", err)
		}
		cfg.Suggest.RatePerMinute = n
	}

	if v, ok := os.LookupEnv("DRAFT_TTL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse DRAFT_TTL: %w", err)
		}
		cfg.Drafts.TTL = d
	}
	return nil
}

// SlogLevel maps the configured log level onto slog.
func (c ServerConfig) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
