package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcflow/substrate/internal/config"
	"github.com/arcflow/substrate/internal/valueobjects"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "substrate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, "tool:\n  directory: /tools\n")
	c, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5, c.Canvas.AckTimeoutSeconds)
	assert.Equal(t, 3, c.Canvas.MaxRetries)
	assert.Equal(t, 1000, c.Canvas.DedupRingSize)
	assert.Equal(t, valueobjects.PolicyFIFO, c.Scheduler.Policy)
}

func TestLoad_MissingToolDirectoryFails(t *testing.T) {
	path := writeConfig(t, "canvas:\n  max_retries: 5\n")
	_, err := config.Load(path)
	require.Error(t, err)
	kind, ok := valueobjects.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, valueobjects.ErrValidation, kind)
}

func TestLoad_RejectsUnknownLMProvider(t *testing.T) {
	path := writeConfig(t, "tool:\n  directory: /tools\nlm:\n  provider: claude\n")
	_, err := config.Load(path)
	require.Error(t, err)
}

func TestDecodeHTTPNodeConfig(t *testing.T) {
	raw := map[string]any{"url": "https://example.com", "method": "POST"}
	out, err := config.DecodeHTTPNodeConfig(raw)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", out.URL)
	assert.Equal(t, "POST", out.Method)
}

func TestLoadEnv_RequiresAPIKey(t *testing.T) {
	os.Unsetenv(config.EnvLMAPIKey)
	os.Unsetenv(config.EnvLMBaseURL)
	_, err := config.LoadEnv("")
	require.Error(t, err)

	t.Setenv(config.EnvLMAPIKey, "sk-test")
	env, err := config.LoadEnv("")
	require.NoError(t, err)
	assert.Equal(t, "sk-test", env.APIKey)
}
