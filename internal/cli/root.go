// Package cli implements the aibattle command line.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	aibattle "github.com/sprocket78/ai-battle-app"
	"github.com/sprocket78/ai-battle-app/config"
	"github.com/sprocket78/ai-battle-app/core"
	"github.com/sprocket78/ai-battle-app/logging"
)

const rootLongDesc string = `Pit two chat-completion backends against each other.

Side A answers the prompt, side B answers side A. In battle mode both
sides keep responding to each other for a number of follow-up rounds.

Configuration is read from --config, $XDG_CONFIG_HOME/aibattle/aibattle.yaml
or ./aibattle.yaml, and AIBATTLE_* environment variables
(e.g. AIBATTLE_BATTLE_ROUNDS for battle.rounds).`

type rootCommander struct {
	configFile string
	logLevel   string
	logFormat  string

	cfg    *config.Config
	logger *logging.BattleLogger

	readSecret secretReader
}

// NewRootCmd builds the aibattle command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&rootCommander{readSecret: terminalSecret(os.Stdin, os.Stderr)})
}

func newRootCmd(r *rootCommander) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "aibattle",
		Short:         "AI vs AI chat battles",
		Long:          rootLongDesc,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return r.load(cmd)
		},
	}

	cmd.PersistentFlags().StringVarP(&r.configFile, "config", "c", "", "config file (default is $HOME/.config/aibattle/aibattle.yaml)")
	cmd.PersistentFlags().StringVar(&r.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&r.logFormat, "log-format", "", "log format (text, json)")

	cmd.AddCommand(newRunCmd(r))
	cmd.AddCommand(newServeCmd(r))
	cmd.AddCommand(newValidateCmd(r))
	cmd.AddCommand(newBackendsCmd(r))

	return cmd
}

// load reads the configuration and the logger before any subcommand runs.
func (r *rootCommander) load(cmd *cobra.Command) error {
	v, err := config.NewViper(r.configFile)
	if err != nil {
		return &ExitError{Code: ExitStartup, Err: err}
	}
	root := cmd.Root()
	if err := v.BindPFlag("logging.level", root.PersistentFlags().Lookup("log-level")); err != nil {
		return err
	}
	if err := v.BindPFlag("logging.format", root.PersistentFlags().Lookup("log-format")); err != nil {
		return err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return &ExitError{Code: ExitStartup, Err: err}
	}
	r.cfg = cfg
	r.logger = logging.NewSlogLogger(cfg.Logging.Level, cfg.Logging.Format, cmd.ErrOrStderr())
	return nil
}

// newApp collects credentials and assembles the application.
func (r *rootCommander) newApp(sinks ...core.Sink) (*aibattle.App, error) {
	keys, err := collectKeys(r.cfg, r.readSecret)
	if err != nil {
		return nil, &ExitError{Code: ExitStartup, Err: err}
	}
	app, err := aibattle.New(func(o *aibattle.Options) {
		o.Config = r.cfg
		o.Logger = r.logger
		o.Keys = keys
		o.Sinks = sinks
	})
	if err != nil {
		return nil, &ExitError{Code: ExitStartup, Err: err}
	}
	return app, nil
}

// validate probes both credentials; failure is fatal for every command.
func (r *rootCommander) validate(ctx context.Context, app *aibattle.App) error {
	if err := app.Controller().Validate(ctx); err != nil {
		return &ExitError{Code: ExitStartup, Err: err}
	}
	return nil
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context) int {
	cmd := NewRootCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
		return ExitCode(err)
	}
	return ExitOK
}
