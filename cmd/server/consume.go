package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/iliyamo/movie-booking/internal/queue"
)

func newConsumeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "consume",
		Short: "Append booking confirmations from RabbitMQ to the booking log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			if cfg.RabbitURL == "" {
				return errors.New("RABBITMQ_URL is required")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			err = queue.NewConsumer(cfg.RabbitURL, cfg.BookingQueue, cfg.BookingLogPath, log).Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}
