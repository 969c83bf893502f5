package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"prediction-service/internal/synthetic"
)

// Config holds the application's configuration.
type Config struct {
	Server struct {
		Port           string   `yaml:"port"`
		AllowedOrigins []string `yaml:"allowed_origins"`
		ReleaseMode    bool     `yaml:"release_mode"`
	} `yaml:"server"`

	Prediction struct {
		Mode           string `yaml:"mode"` // "auto", "remote" or "synthetic"
		Endpoint       string `yaml:"endpoint"`
		TimeoutSeconds int    `yaml:"timeout_seconds"` // 0 keeps the transport default
		Insights       string `yaml:"insights"`        // "deviation" or "random"
	} `yaml:"prediction"`

	Synthetic struct {
		Rules []synthetic.Rule `yaml:"rules"`
	} `yaml:"synthetic"`

	Features struct {
		Variant      string `yaml:"variant"` // "compact" or "full"
		StrictRanges bool   `yaml:"strict_ranges"`
	} `yaml:"features"`

	Sessions struct {
		MaxSessions int `yaml:"max_sessions"`
		TTLMinutes  int `yaml:"ttl_minutes"`
	} `yaml:"sessions"`

	Database struct {
		Enabled              bool   `yaml:"enabled"`
		Type                 string `yaml:"type"` // "sqlite" or "postgres"
		Path                 string `yaml:"path"` // SQLite path or PostgreSQL URL
		EncryptionPassphrase string `yaml:"encryption_passphrase"`
		EncryptionSalt       string `yaml:"encryption_salt"`
	} `yaml:"database"`

	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"auth"`

	Notifier struct {
		Enabled          bool   `yaml:"enabled"`
		TelegramBotToken string `yaml:"telegram_bot_token"`
		TelegramChatID   int64  `yaml:"telegram_chat_id"`
	} `yaml:"notifier"`

	Log struct {
		Level       string `yaml:"level"`
		Development bool   `yaml:"development"`
		File        string `yaml:"file"`
		MaxSizeMB   int    `yaml:"max_size_mb"`
		MaxBackups  int    `yaml:"max_backups"`
		MaxAgeDays  int    `yaml:"max_age_days"`
	} `yaml:"log"`
}

// Timeout returns the outbound request timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Prediction.TimeoutSeconds) * time.Second
}

// SessionTTL returns how long an idle session is kept.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.Sessions.TTLMinutes) * time.Minute
}

// LoadConfig reads configuration from the specified YAML file.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	if err := config.applyEnv(); err != nil {
		return nil, err
	}
	config.setDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// applyEnv expands ${VAR} references in secrets and applies overrides.
func (c *Config) applyEnv() error {
	c.Prediction.Endpoint = os.ExpandEnv(c.Prediction.Endpoint)
	c.Database.Path = os.ExpandEnv(c.Database.Path)
	c.Database.EncryptionPassphrase = os.ExpandEnv(c.Database.EncryptionPassphrase)
	c.Auth.JWTSecret = os.ExpandEnv(c.Auth.JWTSecret)
	c.Notifier.TelegramBotToken = os.ExpandEnv(c.Notifier.TelegramBotToken)

	if v := os.Getenv("PREDICTION_ENDPOINT"); v != "" {
		c.Prediction.Endpoint = v
	}
	if v := os.Getenv("PREDICTION_MODE"); v != "" {
		c.Prediction.Mode = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid TELEGRAM_CHAT_ID %q: %w", v, err)
		}
		c.Notifier.TelegramChatID = id
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"*"}
	}
	if c.Prediction.Mode == "" {
		c.Prediction.Mode = "auto"
	}
	if c.Prediction.Insights == "" {
		c.Prediction.Insights = "deviation"
	}
	if len(c.Synthetic.Rules) == 0 {
		c.Synthetic.Rules = synthetic.DefaultRules
	}
	if c.Features.Variant == "" {
		c.Features.Variant = "compact"
	}
	if c.Sessions.MaxSessions == 0 {
		c.Sessions.MaxSessions = 1000
	}
	if c.Sessions.TTLMinutes == 0 {
		c.Sessions.TTLMinutes = 30
	}
	if c.Database.Type == "" {
		c.Database.Type = "sqlite"
	}
	if c.Database.Path == "" {
		c.Database.Path = "./data/predictions.db"
	}
	if c.Database.EncryptionSalt == "" {
		c.Database.EncryptionSalt = "prediction-history"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 100
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = 5
	}
	if c.Log.MaxAgeDays == 0 {
		c.Log.MaxAgeDays = 28
	}
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	switch c.Prediction.Mode {
	case "auto", "synthetic":
	case "remote":
		if c.Prediction.Endpoint == "" {
			return fmt.Errorf("prediction.endpoint is required in remote mode")
		}
	default:
		return fmt.Errorf("unknown prediction.mode %q", c.Prediction.Mode)
	}
	if c.Prediction.TimeoutSeconds < 0 {
		return fmt.Errorf("prediction.timeout_seconds must not be negative")
	}
	if c.Database.Type != "sqlite" && c.Database.Type != "postgres" {
		return fmt.Errorf("unknown database.type %q", c.Database.Type)
	}
	if c.Database.Enabled && c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required when database.enabled is set")
	}
	if c.Notifier.Enabled && (c.Notifier.TelegramBotToken == "" || c.Notifier.TelegramChatID == 0) {
		return fmt.Errorf("notifier requires telegram_bot_token and telegram_chat_id")
	}
	return nil
}
