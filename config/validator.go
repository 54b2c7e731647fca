package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "battle.rounds")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidProviders returns the list of supported backend providers
func ValidProviders() []string {
	return []string{"openai", "anthropic"}
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidLogFormats returns the list of valid log formats
func ValidLogFormats() []string {
	return []string{"text", "json"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.Backends.A.validate("backends.a")...)
	errors = append(errors, c.Backends.B.validate("backends.b")...)
	errors = append(errors, c.validateRetry()...)
	errors = append(errors, c.validateBattle()...)
	errors = append(errors, c.validateLogging()...)

	if strings.TrimSpace(c.Server.Listen) == "" {
		errors = append(errors, ValidationError{
			Field:   "server.listen",
			Value:   c.Server.Listen,
			Message: "must not be empty",
		})
	}

	return errors
}

func (b BackendConfig) validate(prefix string) []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(b.Name) == "" {
		errors = append(errors, ValidationError{Field: prefix + ".name", Value: b.Name, Message: "must not be empty"})
	} else if strings.ContainsAny(b.Name, ":\n") {
		// transcript blocks use "<name>:" as delimiter
		errors = append(errors, ValidationError{Field: prefix + ".name", Value: b.Name, Message: "must not contain ':' or newlines"})
	}

	if !slices.Contains(ValidProviders(), b.Provider) {
		errors = append(errors, ValidationError{
			Field:   prefix + ".provider",
			Value:   b.Provider,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidProviders(), ", ")),
		})
	}

	if b.BaseURL == "" {
		if b.Provider == "openai" {
			errors = append(errors, ValidationError{Field: prefix + ".base_url", Value: b.BaseURL, Message: "is required for openai-compatible backends"})
		}
	} else if u, err := url.Parse(b.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errors = append(errors, ValidationError{Field: prefix + ".base_url", Value: b.BaseURL, Message: "must be an absolute URL"})
	}

	if len(b.Models) == 0 {
		errors = append(errors, ValidationError{Field: prefix + ".models", Value: b.Models, Message: "must list at least one model"})
	} else if b.DefaultModel != "" && !slices.Contains(b.Models, b.DefaultModel) {
		errors = append(errors, ValidationError{
			Field:   prefix + ".default_model",
			Value:   b.DefaultModel,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(b.Models, ", ")),
		})
	}

	if b.MaxTokens < 0 {
		errors = append(errors, ValidationError{Field: prefix + ".max_tokens", Value: b.MaxTokens, Message: "must be non-negative"})
	}

	return errors
}

// validateRetry validates the RetryConfig
func (c *Config) validateRetry() []ValidationError {
	var errors []ValidationError
	r := c.Retry

	const maxAttempts = 10
	if r.MaxAttempts < 1 || r.MaxAttempts > maxAttempts {
		errors = append(errors, ValidationError{
			Field:   "retry.max_attempts",
			Value:   r.MaxAttempts,
			Message: fmt.Sprintf("must be between 1 and %d", maxAttempts),
		})
	}
	if r.InitialInterval <= 0 {
		errors = append(errors, ValidationError{Field: "retry.initial_interval", Value: r.InitialInterval, Message: "must be positive"})
	}
	if r.MaxInterval < r.InitialInterval {
		errors = append(errors, ValidationError{Field: "retry.max_interval", Value: r.MaxInterval, Message: "must not be shorter than retry.initial_interval"})
	}
	if r.Multiplier < 1 {
		errors = append(errors, ValidationError{Field: "retry.multiplier", Value: r.Multiplier, Message: "must be at least 1"})
	}
	if r.Jitter < 0 || r.Jitter >= 1 {
		errors = append(errors, ValidationError{Field: "retry.jitter", Value: r.Jitter, Message: "must be in [0, 1)"})
	}

	return errors
}

// validateBattle validates the BattleConfig
func (c *Config) validateBattle() []ValidationError {
	var errors []ValidationError
	b := c.Battle

	if b.MaxRounds < 1 {
		errors = append(errors, ValidationError{Field: "battle.max_rounds", Value: b.MaxRounds, Message: "must be at least 1"})
	}
	if b.Rounds < 1 || (b.MaxRounds >= 1 && b.Rounds > b.MaxRounds) {
		errors = append(errors, ValidationError{
			Field:   "battle.rounds",
			Value:   b.Rounds,
			Message: fmt.Sprintf("must be between 1 and battle.max_rounds (%d)", b.MaxRounds),
		})
	}
	if b.RoundPause < 0 {
		errors = append(errors, ValidationError{Field: "battle.round_pause", Value: b.RoundPause, Message: "must be non-negative"})
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}
	if c.Logging.Format != "" && !slices.Contains(ValidLogFormats(), c.Logging.Format) {
		errors = append(errors, ValidationError{
			Field:   "logging.format",
			Value:   c.Logging.Format,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogFormats(), ", ")),
		})
	}

	return errors
}
