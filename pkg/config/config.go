// Package config provides configuration loading and secret management.
//
// Configuration is a single JSON file plus environment overrides. A
// global instance is kept in memory behind a mutex; GetConfig returns
// it by value so callers cannot mutate shared state. State that
// changes at runtime (job status, repo URLs) belongs in the database,
// never here.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"appforge/pkg/logx"
)

// ConfigDir is the per-project directory holding config and secrets.
const ConfigDir = ".appforge"

const configFileName = "config.json"

//nolint:gochecknoglobals // Intentional singleton pattern for config management
var (
	config *Config
	logger *logx.Logger
	mu     sync.RWMutex
)

func getLogger() *logx.Logger {
	if logger == nil {
		logger = logx.NewLogger("config")
	}
	return logger
}

// Config is the full application configuration.
type Config struct {
	// Provider selects the LLM backend: anthropic, openai, google,
	// ollama.
	Provider string `json:"provider"`

	// Model overrides the provider's default model when set.
	Model string `json:"model,omitempty"`

	// OllamaHost is the Ollama server URL for the ollama provider.
	OllamaHost string `json:"ollama_host,omitempty"`

	// TokensPerMinute rate-limits provider requests. Zero disables
	// limiting.
	TokensPerMinute int `json:"tokens_per_minute,omitempty"`

	// WorkspaceRoot is where job workspaces are created. Empty means
	// the system temp directory.
	WorkspaceRoot string `json:"workspace_root,omitempty"`

	// DatabasePath is the SQLite file location.
	DatabasePath string `json:"database_path,omitempty"`

	// RepoOwner is the forge account repositories are created under.
	// Empty uses the authenticated account.
	RepoOwner string `json:"repo_owner,omitempty"`

	// PrivateRepos creates generated repositories as private.
	PrivateRepos bool `json:"private_repos"`

	// DeployEndpoint is the deploy webhook URL. Empty disables
	// deployment.
	DeployEndpoint string `json:"deploy_endpoint,omitempty"`

	// CriticStrictness is "lenient" or "strict".
	CriticStrictness string `json:"critic_strictness,omitempty"`

	// SkipCriticReasoning disables the provider-backed critique step
	// and runs deterministic rules only.
	SkipCriticReasoning bool `json:"skip_critic_reasoning"`

	// Debug enables debug logging.
	Debug bool `json:"debug"`
}

// defaults returns a config with every optional field filled.
func defaults() *Config {
	return &Config{
		Provider:         "anthropic",
		DatabasePath:     filepath.Join(ConfigDir, "appforge.db"),
		CriticStrictness: "lenient",
	}
}

// Validate checks invariants that would otherwise fail deep inside a
// job.
func (c *Config) Validate() error {
	switch c.Provider {
	case "anthropic", "openai", "google", "ollama":
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}
	switch c.CriticStrictness {
	case "lenient", "strict":
	default:
		return fmt.Errorf("critic_strictness must be lenient or strict, got %q", c.CriticStrictness)
	}
	return nil
}

// LoadConfig reads projectDir/.appforge/config.json, applies
// environment overrides, validates, and installs the result as the
// global config. A missing file is not an error; defaults apply.
func LoadConfig(projectDir string) error {
	cfg := defaults()

	path := filepath.Join(projectDir, ConfigDir, configFileName)
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		getLogger().Debug("no config file at %s, using defaults", path)
	case err != nil:
		return fmt.Errorf("failed to read config: %w", err)
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse config: %w", err)
		}
	}

	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	mu.Lock()
	config = cfg
	mu.Unlock()

	if cfg.Debug {
		logx.SetDebug(true)
	}
	getLogger().Info("configuration loaded (provider=%s)", cfg.Provider)
	return nil
}

// applyEnvOverrides lets APPFORGE_* variables win over the file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("APPFORGE_PROVIDER"); v != "" {
		cfg.Provider = strings.ToLower(v)
	}
	if v := os.Getenv("APPFORGE_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("APPFORGE_OLLAMA_HOST"); v != "" {
		cfg.OllamaHost = v
	}
	if v := os.Getenv("APPFORGE_TOKENS_PER_MINUTE"); v != "" {
		if rate, err := strconv.Atoi(v); err == nil {
			cfg.TokensPerMinute = rate
		}
	}
	if v := os.Getenv("APPFORGE_WORKSPACE_ROOT"); v != "" {
		cfg.WorkspaceRoot = v
	}
	if v := os.Getenv("APPFORGE_DB_PATH"); v != "" {
		cfg.DatabasePath = v
	}
	if v := os.Getenv("APPFORGE_REPO_OWNER"); v != "" {
		cfg.RepoOwner = v
	}
	if v := os.Getenv("APPFORGE_DEPLOY_ENDPOINT"); v != "" {
		cfg.DeployEndpoint = v
	}
	if v := os.Getenv("APPFORGE_CRITIC_STRICTNESS"); v != "" {
		cfg.CriticStrictness = strings.ToLower(v)
	}
	if os.Getenv("APPFORGE_DEBUG") == "1" {
		cfg.Debug = true
	}
}

// GetConfig returns the loaded config by value.
func GetConfig() (Config, error) {
	mu.RLock()
	defer mu.RUnlock()
	if config == nil {
		return Config{}, fmt.Errorf("config not loaded; call LoadConfig first")
	}
	return *config, nil
}

// SaveConfig writes cfg to projectDir/.appforge/config.json and
// installs it as the global config.
func SaveConfig(projectDir string, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	dir := filepath.Join(projectDir, ConfigDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, configFileName), data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	mu.Lock()
	copied := *cfg
	config = &copied
	mu.Unlock()
	return nil
}

// ResetForTest clears the global config so tests can reload.
func ResetForTest() {
	mu.Lock()
	defer mu.Unlock()
	config = nil
}
