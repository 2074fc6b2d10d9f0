package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/movie-booking/internal/config"
	"github.com/iliyamo/movie-booking/internal/logger"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newRootCommand runs the API server by default; the subcommands cover
// schema setup, the booking log consumer and admin accounts.
func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "movie-booking",
		Short:         "Movie ticket booking API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newMigrateCommand())
	cmd.AddCommand(newConsumeCommand())
	cmd.AddCommand(newAdminCommand())
	return cmd
}

// bootstrap loads the configuration and builds the logger every
// subcommand shares.
func bootstrap() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	log, err := logger.New(cfg.Env)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("build logger: %w", err)
	}
	return cfg, log, nil
}
