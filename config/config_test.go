package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "Grok", cfg.Backends.A.Name)
	assert.Equal(t, "https://api.x.ai/v1", cfg.Backends.A.BaseURL)
	assert.Equal(t, []string{"grok-beta", "grok-3-mini-beta"}, cfg.Backends.A.Models)
	assert.Equal(t, "ChatGPT", cfg.Backends.B.Name)
	assert.Equal(t, "OPENAI_API_KEY", cfg.Backends.B.APIKeyEnv)

	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Retry.InitialInterval)
	assert.Equal(t, 10*time.Second, cfg.Retry.MaxInterval)
	assert.False(t, cfg.Retry.FailFastUnauthorized)

	assert.Equal(t, 10, cfg.Battle.MaxRounds)
	assert.Equal(t, 500*time.Millisecond, cfg.Battle.RoundPause)

	assert.Empty(t, cfg.Validate())
}

func TestNewViper_DefaultsWithoutFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())

	v, err := NewViper("")
	require.NoError(t, err)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestNewViper_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aibattle.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
backends:
  b:
    name: Claude
    provider: anthropic
    base_url: https://api.anthropic.com
    api_key_env: ANTHROPIC_API_KEY
    models: [claude-3-5-haiku-20241022]
    default_model: claude-3-5-haiku-20241022
retry:
  initial_interval: 2s
  fail_fast_unauthorized: true
battle:
  rounds: 4
  auto_export: true
logging:
  format: json
`), 0o644))

	v, err := NewViper(path)
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "Grok", cfg.Backends.A.Name, "untouched side keeps defaults")
	assert.Equal(t, "Claude", cfg.Backends.B.Name)
	assert.Equal(t, "anthropic", cfg.Backends.B.Provider)
	assert.Equal(t, []string{"claude-3-5-haiku-20241022"}, cfg.Backends.B.Models)
	assert.Equal(t, 2*time.Second, cfg.Retry.InitialInterval)
	assert.True(t, cfg.Retry.FailFastUnauthorized)
	assert.Equal(t, 4, cfg.Battle.Rounds)
	assert.True(t, cfg.Battle.AutoExport)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestNewViper_MissingExplicitFile(t *testing.T) {
	_, err := NewViper(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestNewViper_EnvOverrides(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())
	t.Setenv("AIBATTLE_BATTLE_ROUNDS", "7")
	t.Setenv("AIBATTLE_RETRY_MAX_ATTEMPTS", "5")
	t.Setenv("AIBATTLE_SERVER_LISTEN", ":9090")

	v, err := NewViper("")
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Battle.Rounds)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, ":9090", cfg.Server.Listen)
}

func TestLoad_ReturnsValidationErrors(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())

	v, err := NewViper("")
	require.NoError(t, err)
	v.Set("battle.rounds", 99)
	v.Set("logging.level", "loud")

	_, err = Load(v)
	require.Error(t, err)

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs, 2)
	assert.Contains(t, err.Error(), "2 validation errors")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{"name with colon", func(c *Config) { c.Backends.A.Name = "gpt:4" }, "backends.a.name"},
		{"empty name", func(c *Config) { c.Backends.B.Name = " " }, "backends.b.name"},
		{"unknown provider", func(c *Config) { c.Backends.A.Provider = "bard" }, "backends.a.provider"},
		{"relative base url", func(c *Config) { c.Backends.B.BaseURL = "api/v1" }, "backends.b.base_url"},
		{"openai without base url", func(c *Config) { c.Backends.B.BaseURL = "" }, "backends.b.base_url"},
		{"no models", func(c *Config) { c.Backends.A.Models = nil }, "backends.a.models"},
		{"default model not listed", func(c *Config) { c.Backends.A.DefaultModel = "gpt-4" }, "backends.a.default_model"},
		{"negative max tokens", func(c *Config) { c.Backends.A.MaxTokens = -1 }, "backends.a.max_tokens"},
		{"zero attempts", func(c *Config) { c.Retry.MaxAttempts = 0 }, "retry.max_attempts"},
		{"zero interval", func(c *Config) { c.Retry.InitialInterval = 0 }, "retry.initial_interval"},
		{"max below initial", func(c *Config) { c.Retry.MaxInterval = 500 * time.Millisecond }, "retry.max_interval"},
		{"shrinking multiplier", func(c *Config) { c.Retry.Multiplier = 0.5 }, "retry.multiplier"},
		{"jitter out of range", func(c *Config) { c.Retry.Jitter = 1 }, "retry.jitter"},
		{"rounds above max", func(c *Config) { c.Battle.Rounds = 11 }, "battle.rounds"},
		{"zero max rounds", func(c *Config) { c.Battle.MaxRounds = 0 }, "battle.max_rounds"},
		{"negative pause", func(c *Config) { c.Battle.RoundPause = -time.Second }, "battle.round_pause"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"empty listen", func(c *Config) { c.Server.Listen = "" }, "server.listen"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			errs := cfg.Validate()
			require.NotEmpty(t, errs)
			assert.Equal(t, tt.field, errs[0].Field)
		})
	}
}

func TestValidate_AnthropicWithoutBaseURL(t *testing.T) {
	cfg := Default()
	cfg.Backends.B = BackendConfig{
		Name:     "Claude",
		Provider: "anthropic",
		Models:   []string{"claude-3-5-haiku-20241022"},
	}
	assert.Empty(t, cfg.Validate())
}

func TestResolveAPIKey(t *testing.T) {
	t.Setenv("TEST_BATTLE_KEY", " from-env ")

	assert.Equal(t, "inline", BackendConfig{APIKey: "inline", APIKeyEnv: "TEST_BATTLE_KEY"}.ResolveAPIKey())
	assert.Equal(t, "from-env", BackendConfig{APIKeyEnv: "TEST_BATTLE_KEY"}.ResolveAPIKey())
	assert.Empty(t, BackendConfig{}.ResolveAPIKey())
}

func TestConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	assert.Equal(t, "/tmp/xdg/aibattle", ConfigDir())
	assert.Equal(t, "/tmp/xdg/aibattle/aibattle.yaml", ConfigFile())
}
