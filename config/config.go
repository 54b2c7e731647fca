// Package config loads the application configuration from aibattle.yaml,
// AIBATTLE_* environment variables and built-in defaults via viper.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// AIBATTLE_BATTLE_ROUNDS=3.
const EnvPrefix = "AIBATTLE"

// Config represents the complete application configuration
type Config struct {
	Backends BackendsConfig `mapstructure:"backends"`
	Retry    RetryConfig    `mapstructure:"retry"`
	Battle   BattleConfig   `mapstructure:"battle"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Server   ServerConfig   `mapstructure:"server"`
}

// BackendsConfig holds the two parties of a battle. A always speaks first.
type BackendsConfig struct {
	A BackendConfig `mapstructure:"a"`
	B BackendConfig `mapstructure:"b"`
}

// BackendConfig describes one chat-completion endpoint
type BackendConfig struct {
	// Name is the display name used in transcripts (must not contain ':')
	Name string `mapstructure:"name"`
	// Provider selects the client implementation
	// Options: "openai" (any OpenAI-compatible endpoint), "anthropic"
	Provider string `mapstructure:"provider"`
	// BaseURL of the API, e.g. https://api.x.ai/v1
	BaseURL string `mapstructure:"base_url"`
	// APIKey is the credential; prefer APIKeyEnv over storing it in the file
	APIKey string `mapstructure:"api_key"`
	// APIKeyEnv names the environment variable holding the credential
	APIKeyEnv string `mapstructure:"api_key_env"`
	// Models enumerates the selectable models
	Models []string `mapstructure:"models"`
	// DefaultModel is used when a run does not pick one (default: first of Models)
	DefaultModel string `mapstructure:"default_model"`
	// MaxTokens caps regular completions (0 = provider default)
	MaxTokens int64 `mapstructure:"max_tokens"`
}

// RetryConfig controls the per-call retry policy
type RetryConfig struct {
	MaxAttempts     int           `mapstructure:"max_attempts"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
	Multiplier      float64       `mapstructure:"multiplier"`
	// Jitter is the randomization factor applied to each delay (0 disables)
	Jitter float64 `mapstructure:"jitter"`
	// FailFastUnauthorized stops retrying on HTTP 401/403
	FailFastUnauthorized bool `mapstructure:"fail_fast_unauthorized"`
}

// BattleConfig controls run defaults
type BattleConfig struct {
	// Rounds is the default number of follow-up rounds in battle mode
	Rounds int `mapstructure:"rounds"`
	// MaxRounds bounds the rounds a submission may request
	MaxRounds int `mapstructure:"max_rounds"`
	// RoundPause is the wait between two follow-up rounds
	RoundPause time.Duration `mapstructure:"round_pause"`
	// ExportDir receives auto-exported transcripts
	ExportDir string `mapstructure:"export_dir"`
	// AutoExport saves every finished run as battle_log_<timestamp>.txt
	AutoExport bool `mapstructure:"auto_export"`
}

// LoggingConfig controls structured logging
type LoggingConfig struct {
	// Level: "debug", "info", "warn", "error"
	Level string `mapstructure:"level"`
	// Format: "text" or "json"
	Format string `mapstructure:"format"`
}

// ServerConfig controls the HTTP shell
type ServerConfig struct {
	Listen string `mapstructure:"listen"`
}

// ResolveAPIKey returns the configured credential, falling back to the
// environment variable named by APIKeyEnv.
func (b BackendConfig) ResolveAPIKey() string {
	if key := strings.TrimSpace(b.APIKey); key != "" {
		return key
	}
	if b.APIKeyEnv != "" {
		return strings.TrimSpace(os.Getenv(b.APIKeyEnv))
	}
	return ""
}

// Default returns the default configuration: Grok (xAI) against ChatGPT.
func Default() *Config {
	return &Config{
		Backends: BackendsConfig{
			A: BackendConfig{
				Name:         "Grok",
				Provider:     "openai",
				BaseURL:      "https://api.x.ai/v1",
				APIKeyEnv:    "XAI_API_KEY",
				Models:       []string{"grok-beta", "grok-3-mini-beta"},
				DefaultModel: "grok-beta",
			},
			B: BackendConfig{
				Name:         "ChatGPT",
				Provider:     "openai",
				BaseURL:      "https://api.openai.com/v1",
				APIKeyEnv:    "OPENAI_API_KEY",
				Models:       []string{"gpt-4", "gpt-3.5-turbo"},
				DefaultModel: "gpt-4",
			},
		},
		Retry: RetryConfig{
			MaxAttempts:     3,
			InitialInterval: time.Second,
			MaxInterval:     10 * time.Second,
			Multiplier:      2,
		},
		Battle: BattleConfig{
			Rounds:     3,
			MaxRounds:  10,
			RoundPause: 500 * time.Millisecond,
			ExportDir:  ".",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Listen: "127.0.0.1:8080",
		},
	}
}

// SetDefaults registers every default on v so that environment overrides
// are picked up by Unmarshal.
func SetDefaults(v *viper.Viper) {
	defaults := Default()

	for side, b := range map[string]BackendConfig{"a": defaults.Backends.A, "b": defaults.Backends.B} {
		prefix := "backends." + side + "."
		v.SetDefault(prefix+"name", b.Name)
		v.SetDefault(prefix+"provider", b.Provider)
		v.SetDefault(prefix+"base_url", b.BaseURL)
		v.SetDefault(prefix+"api_key", b.APIKey)
		v.SetDefault(prefix+"api_key_env", b.APIKeyEnv)
		v.SetDefault(prefix+"models", b.Models)
		v.SetDefault(prefix+"default_model", b.DefaultModel)
		v.SetDefault(prefix+"max_tokens", b.MaxTokens)
	}

	// Retry defaults
	v.SetDefault("retry.max_attempts", defaults.Retry.MaxAttempts)
	v.SetDefault("retry.initial_interval", defaults.Retry.InitialInterval)
	v.SetDefault("retry.max_interval", defaults.Retry.MaxInterval)
	v.SetDefault("retry.multiplier", defaults.Retry.Multiplier)
	v.SetDefault("retry.jitter", defaults.Retry.Jitter)
	v.SetDefault("retry.fail_fast_unauthorized", defaults.Retry.FailFastUnauthorized)

	// Battle defaults
	v.SetDefault("battle.rounds", defaults.Battle.Rounds)
	v.SetDefault("battle.max_rounds", defaults.Battle.MaxRounds)
	v.SetDefault("battle.round_pause", defaults.Battle.RoundPause)
	v.SetDefault("battle.export_dir", defaults.Battle.ExportDir)
	v.SetDefault("battle.auto_export", defaults.Battle.AutoExport)

	// Logging defaults
	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.format", defaults.Logging.Format)

	// Server defaults
	v.SetDefault("server.listen", defaults.Server.Listen)
}

// NewViper prepares a viper instance: defaults, AIBATTLE_* environment
// overrides and the config file. An explicit configFile must exist; otherwise
// aibattle.yaml is searched in ConfigDir() and the working directory and may
// be absent.
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("aibattle")
		v.SetConfigType("yaml")
		v.AddConfigPath(ConfigDir())
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, err
		}
	}
	return v, nil
}

// Load reads the configuration from v into a Config struct and validates it
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "aibattle")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".aibattle"
	}
	return filepath.Join(home, ".config", "aibattle")
}

// ConfigFile returns the path to the default config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "aibattle.yaml")
}
