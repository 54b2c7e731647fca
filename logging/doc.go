// Package logging provides a minimal logging interface and adapters.
//
// The Logger interface defines the standard logging methods (Debug, Info,
// Warn, Error) that the controller, retry policy and HTTP shell use. This
// package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping an existing *slog.Logger
//   - BattleLogger with run/component context and backend call helpers
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger("info", "text", os.Stderr)
//	ctrl := battle.New(a, b, func(o *battle.Options) { o.Logger = logger })
package logging
