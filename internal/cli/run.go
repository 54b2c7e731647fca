package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sprocket78/ai-battle-app/core"
	"github.com/sprocket78/ai-battle-app/sink"
)

const runLongDesc string = `Run one battle and print both sides as they answer.

Without --battle, side A answers the prompt and side B answers side A.
With --battle, both sides then respond to each other for --rounds rounds.
The first Ctrl-C stops the battle before the next round; a second one
aborts the calls in flight.

Examples:
  aibattle run "What is 2+2?"
  aibattle run --battle --rounds 5 --out debate.txt "Tabs or spaces?"`

const runShortDesc string = "Run a battle between the two backends"

type runCommander struct {
	root *rootCommander

	battle     bool
	rounds     int
	modelA     string
	modelB     string
	out        string
	autoExport bool
	quiet      bool
}

func newRunCmd(root *rootCommander) *cobra.Command {
	cmder := &runCommander{root: root}

	cmd := &cobra.Command{
		Use:   "run <prompt>",
		Short: runShortDesc,
		Long:  runLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, strings.Join(args, " "))
		},
	}

	cmd.Flags().BoolVarP(&cmder.battle, "battle", "b", false, "keep both sides responding to each other")
	cmd.Flags().IntVarP(&cmder.rounds, "rounds", "r", 0, "follow-up rounds in battle mode (default from battle.rounds)")
	cmd.Flags().StringVar(&cmder.modelA, "model-a", "", "model for side A (default from backends.a.default_model)")
	cmd.Flags().StringVar(&cmder.modelB, "model-b", "", "model for side B (default from backends.b.default_model)")
	cmd.Flags().StringVarP(&cmder.out, "out", "o", "", "write the transcript to this file")
	cmd.Flags().BoolVar(&cmder.autoExport, "auto-export", false, "save a timestamped transcript into battle.export_dir")
	cmd.Flags().BoolVarP(&cmder.quiet, "quiet", "q", false, "hide progress lines")

	return cmd
}

func (c *runCommander) run(ctx context.Context, cmd *cobra.Command, prompt string) error {
	cfg := c.root.cfg
	console := sink.NewConsole(cmd.OutOrStdout(), func(o *sink.ConsoleOptions) {
		o.Names = map[core.Side]string{core.SideA: cfg.Backends.A.Name, core.SideB: cfg.Backends.B.Name}
		o.ShowProgress = !c.quiet
	})

	app, err := c.root.newApp(console)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := c.root.validate(ctx, app); err != nil {
		return err
	}

	rc := app.RunConfig(prompt, c.battle)
	if cmd.Flags().Changed("rounds") {
		rc.Rounds = c.rounds
	}
	if cmd.Flags().Changed("auto-export") {
		rc.AutoExport = c.autoExport
	}
	rc.ModelA = c.modelA
	rc.ModelB = c.modelB

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	run, err := app.Controller().Submit(ctx, rc)
	if err != nil {
		return &ExitError{Code: ExitStartup, Err: err}
	}

	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)
	go func() {
		stopping := false
		for {
			select {
			case <-sigs:
				if stopping {
					cancel()
					return
				}
				stopping = true
				app.Controller().RequestCancel()
				fmt.Fprintln(cmd.ErrOrStderr(), "Stopping before the next round (Ctrl-C again to abort)...")
			case <-run.Done():
				return
			}
		}
	}()

	<-run.Done()
	res, _ := run.Result()
	// Flush the console before anything else is printed.
	app.Close()

	if c.out != "" {
		if err := res.WriteFile(c.out); err != nil {
			return &ExitError{Code: ExitStartup, Err: fmt.Errorf("write transcript: %w", err)}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Transcript written to %s\n", c.out)
	}

	if res.Outcome == core.OutcomeDegraded {
		return &ExitError{Code: ExitDegraded, Err: fmt.Errorf("battle degraded: %w", res.Err)}
	}
	return nil
}
