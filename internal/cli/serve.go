package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"recsync/internal/app"
)

// NewServeCommand creates the command that runs the webhook server.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, rootOpts)
		},
	}
}

func runServe(ctx context.Context, rootOpts *RootOptions) error {
	deps, err := app.Bootstrap(ctx, rootOpts.Config)
	if err != nil {
		return err
	}
	defer deps.Close()

	a, err := app.New(rootOpts.Config, deps)
	if err != nil {
		return err
	}
	return a.Run(ctx)
}
