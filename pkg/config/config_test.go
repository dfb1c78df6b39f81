package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	ResetForTest()
	require.NoError(t, LoadConfig(t.TempDir()))

	cfg, err := GetConfig()
	require.NoError(t, err)
	assert.Equal(t, "anthropic", cfg.Provider)
	assert.Equal(t, "lenient", cfg.CriticStrictness)
}

func TestLoadConfigFromFile(t *testing.T) {
	ResetForTest()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ConfigDir), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, ConfigDir, "config.json"),
		[]byte(`{"provider":"ollama","ollama_host":"http://localhost:11434","critic_strictness":"strict"}`),
		0o644))

	require.NoError(t, LoadConfig(dir))
	cfg, err := GetConfig()
	require.NoError(t, err)
	assert.Equal(t, "ollama", cfg.Provider)
	assert.Equal(t, "strict", cfg.CriticStrictness)
}

func TestEnvOverridesWin(t *testing.T) {
	ResetForTest()
	t.Setenv("APPFORGE_PROVIDER", "openai")
	t.Setenv("APPFORGE_DEPLOY_ENDPOINT", "https://deploy.example.com/hook")

	require.NoError(t, LoadConfig(t.TempDir()))
	cfg, err := GetConfig()
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, "https://deploy.example.com/hook", cfg.DeployEndpoint)
}

func TestLoadConfigRejectsBadProvider(t *testing.T) {
	ResetForTest()
	t.Setenv("APPFORGE_PROVIDER", "skynet")
	require.Error(t, LoadConfig(t.TempDir()))
}

func TestGetConfigBeforeLoadFails(t *testing.T) {
	ResetForTest()
	_, err := GetConfig()
	require.Error(t, err)
}

func TestSecretsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	SetDecryptedSecrets(map[string]string{"ANTHROPIC_API_KEY": "sk-test"})
	require.NoError(t, SaveSecretsFile(dir, "hunter2"))
	assert.True(t, SecretsFileExists(dir))

	SetDecryptedSecrets(nil)
	require.NoError(t, LoadSecretsFile(dir, "hunter2"))
	value, err := GetSecret("ANTHROPIC_API_KEY")
	require.NoError(t, err)
	assert.Equal(t, "sk-test", value)
}

func TestSecretsWrongPassword(t *testing.T) {
	dir := t.TempDir()
	SetDecryptedSecrets(map[string]string{"K": "v"})
	require.NoError(t, SaveSecretsFile(dir, "right"))

	err := LoadSecretsFile(dir, "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decryption failed")
}

func TestGetSecretFallsBackToEnv(t *testing.T) {
	SetDecryptedSecrets(nil)
	t.Setenv("SOME_TOKEN", "env-value")

	value, err := GetSecret("SOME_TOKEN")
	require.NoError(t, err)
	assert.Equal(t, "env-value", value)

	_, err = GetSecret("MISSING_TOKEN")
	require.Error(t, err)
}
