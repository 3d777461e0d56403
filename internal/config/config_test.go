package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, 5001, cfg.Relay.Port)
	assert.False(t, cfg.Relay.CloudConsent)
	assert.Equal(t, "memory", cfg.Storage.Engine)
	assert.Equal(t, "http://localhost:11434", cfg.LLM.OllamaURL)
	assert.Equal(t, "neural-chat", cfg.LLM.Model)
	assert.Equal(t, 30, cfg.LLM.TimeoutSeconds)
	assert.Equal(t, 50, cfg.Chat.HistoryLimit)
	assert.Equal(t, 0.01, cfg.Chat.IntimacyStep)
	assert.Equal(t, 168, cfg.Security.SessionTTLHours)
	assert.False(t, cfg.Security.SecureCookies)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("KINDRED_PORT", "8080")
	t.Setenv("KINDRED_STORAGE_ENGINE", "sqlite")
	t.Setenv("KINDRED_CLOUD_CONSENT", "true")
	t.Setenv("KINDRED_OLLAMA_MODEL", "llama3")
	t.Setenv("KINDRED_HISTORY_LIMIT", "100")
	t.Setenv("KINDRED_INTIMACY_STEP", "0.05")
	t.Setenv("KINDRED_CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Storage.Engine)
	assert.True(t, cfg.Relay.CloudConsent)
	assert.Equal(t, "llama3", cfg.LLM.Model)
	assert.Equal(t, 100, cfg.Chat.HistoryLimit)
	assert.Equal(t, 0.05, cfg.Chat.IntimacyStep)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
}

func TestInvalidValuesFallBackToDefaults(t *testing.T) {
	t.Setenv("KINDRED_PORT", "not-a-number")
	t.Setenv("KINDRED_CLOUD_CONSENT", "maybe")
	t.Setenv("KINDRED_INTIMACY_STEP", "fast")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Server.Port)
	assert.False(t, cfg.Relay.CloudConsent)
	assert.Equal(t, 0.01, cfg.Chat.IntimacyStep)
}

func TestBoolAliases(t *testing.T) {
	for _, v := range []string{"true", "1", "yes", "YES"} {
		t.Setenv("KINDRED_CLOUD_CONSENT", v)
		cfg, err := LoadConfig()
		require.NoError(t, err)
		assert.True(t, cfg.Relay.CloudConsent, "value %q", v)
	}
	for _, v := range []string{"false", "0", "no"} {
		t.Setenv("KINDRED_CLOUD_CONSENT", v)
		cfg, err := LoadConfig()
		require.NoError(t, err)
		assert.False(t, cfg.Relay.CloudConsent, "value %q", v)
	}
}
