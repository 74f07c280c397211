// Command smoothoperator runs the multi-agent chat API server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	smoothoperator "github.com/djdjm-value-shore/smoothoperatormini"
	"github.com/djdjm-value-shore/smoothoperatormini/config"
	"github.com/djdjm-value-shore/smoothoperatormini/logging"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "smoothoperator",
		Short:        "Multi-agent chat API with session-scoped note management",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context())
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	app := smoothoperator.New(cfg, func(o *smoothoperator.Options) {
		o.Logger = logger
	})
	return app.Run(ctx)
}
