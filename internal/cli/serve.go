package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sprocket78/ai-battle-app/server"
)

const serveLongDesc string = `Serve the battle controller over HTTP.

Credentials are validated once at startup. Runs are submitted with
POST /runs, stopped with POST /runs/cancel and inspected with
GET /runs/current, GET /runs/last and GET /transcript.

Examples:
  aibattle serve
  aibattle serve --listen :9090`

const serveShortDesc string = "Serve battles over HTTP"

type serveCommander struct {
	root   *rootCommander
	listen string
}

func newServeCmd(root *rootCommander) *cobra.Command {
	cmder := &serveCommander{root: root}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&cmder.listen, "listen", "l", "", "address to listen on (default from server.listen)")

	return cmd
}

func (c *serveCommander) run(ctx context.Context) error {
	listen := c.listen
	if listen == "" {
		listen = c.root.cfg.Server.Listen
	}

	progress := server.NewProgressTracker()
	app, err := c.root.newApp(progress)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := c.root.validate(ctx, app); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(app.Controller(), func(o *server.Options) {
		o.Listen = listen
		o.Logger = app.Logger()
		o.BaseContext = ctx
		o.Progress = progress
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		app.Logger().Info("shutting down")
		app.Controller().RequestCancel()
		return srv.Shutdown()
	}
}
