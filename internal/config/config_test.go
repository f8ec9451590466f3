package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, "portfolio.db", cfg.DatabaseURL)
	assert.Equal(t, 10, cfg.AgentMaxRounds)
	assert.Equal(t, int64(4096), cfg.AnthropicMaxTokens)
	assert.Equal(t, 10*time.Second, cfg.HealthProbeTimeout)
	assert.Equal(t, 5*time.Second, cfg.HealthDegradedThreshold)
	assert.Equal(t, 30*time.Second, cfg.KeepaliveInterval)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.MailConfigured())
	assert.False(t, cfg.GoogleConfigured())
	assert.False(t, cfg.StorageConfigured())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("GMAIL_USER", "ops@example.com")
	t.Setenv("GMAIL_APP_PASSWORD", "secret")
	t.Setenv("HEALTH_PROBE_TIMEOUT", "2s")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Port)
	assert.Equal(t, 2*time.Second, cfg.HealthProbeTimeout)
	assert.True(t, cfg.MailConfigured())
	assert.Equal(t, "ops@example.com", cfg.Sender())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 9000\nagent_max_rounds: 3\nmail_from: updates@example.com\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 3, cfg.AgentMaxRounds)
	assert.Equal(t, "updates@example.com", cfg.Sender())
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("AGENT_MAX_ROUNDS", "0")
	_, err := Load("")
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
