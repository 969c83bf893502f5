package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prediction-service/internal/synthetic"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "server:\n  port: \"9000\"\n"))
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "auto", cfg.Prediction.Mode)
	assert.Equal(t, "deviation", cfg.Prediction.Insights)
	assert.Equal(t, "compact", cfg.Features.Variant)
	assert.Equal(t, synthetic.DefaultRules, cfg.Synthetic.Rules)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL())
	assert.Equal(t, time.Duration(0), cfg.Timeout())
	assert.Equal(t, "sqlite", cfg.Database.Type)
}

func TestLoadConfigEnvironment(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("PREDICTION_ENDPOINT", "https://override.example.com/predict")

	cfg, err := LoadConfig(writeConfig(t, `
prediction:
  mode: remote
  endpoint: https://configured.example.com/predict
  timeout_seconds: 15
auth:
  jwt_secret: ${JWT_SECRET}
synthetic:
  rules:
    - contains: texture
      threshold: 25
`))
	require.NoError(t, err)

	assert.Equal(t, "https://override.example.com/predict", cfg.Prediction.Endpoint)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, 15*time.Second, cfg.Timeout())
	assert.Equal(t, []synthetic.Rule{{Contains: "texture", Threshold: 25}}, cfg.Synthetic.Rules)
}

func TestLoadConfigValidation(t *testing.T) {
	cases := map[string]string{
		"remote without endpoint": "prediction:\n  mode: remote\n",
		"unknown mode":            "prediction:\n  mode: psychic\n",
		"bad database":            "database:\n  type: oracle\n",
		"notifier without token":  "notifier:\n  enabled: true\n",
		"history without secret":  "database:\n  enabled: true\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("PREDICTION_ENDPOINT", "")
			_, err := LoadConfig(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}

func TestLoadConfigRejectsBadChatID(t *testing.T) {
	t.Setenv("TELEGRAM_CHAT_ID", "not-a-number")
	_, err := LoadConfig(writeConfig(t, "server:\n  port: \"9000\"\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TELEGRAM_CHAT_ID")
}

func TestLoadConfigChatIDFromEnvironment(t *testing.T) {
	t.Setenv("TELEGRAM_CHAT_ID", "-100123")
	cfg, err := LoadConfig(writeConfig(t, "server:\n  port: \"9000\"\n"))
	require.NoError(t, err)
	assert.Equal(t, int64(-100123), cfg.Notifier.TelegramChatID)
}

func TestLoadConfigHistoryWithSecret(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "database:\n  enabled: true\nauth:\n  jwt_secret: s3cret\n"))
	require.NoError(t, err)
	assert.True(t, cfg.Database.Enabled)
}
