package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/movie-booking/internal/database"
	"github.com/iliyamo/movie-booking/internal/model"
	"github.com/iliyamo/movie-booking/internal/repository"
)

// newAdminCommand creates ADMIN accounts.  Signup over HTTP only ever
// creates customers.
func newAdminCommand() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an ADMIN user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" || len(password) < 6 {
				return errors.New("--email and a --password of at least 6 characters are required")
			}
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			u, err := repository.NewUserRepo(db).Create(ctx, email, password, model.RoleAdmin, nil, cfg.BcryptCost)
			if err != nil {
				return err
			}
			log.Info("admin created", zap.Uint64("id", u.ID), zap.String("email", u.Email))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "admin email")
	cmd.Flags().StringVar(&password, "password", "", "admin password")
	return cmd
}
