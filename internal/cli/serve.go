package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/keep/internal/app"
	"github.com/MrSnakeDoc/keep/internal/config"
	"github.com/MrSnakeDoc/keep/internal/logger"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and change feed (configured through KEEP_* variables)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			log := logger.New(cfg.LogLevel, cfg.PrettyLog)
			defer func() { _ = log.Sync() }()

			a, err := app.New(cmd.Context(), cfg, log)
			if err != nil {
				return fmt.Errorf("failed to start: %w", err)
			}
			return a.Run(cmd.Context())
		},
	}
}
