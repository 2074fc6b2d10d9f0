package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/movie-booking/internal/config"
	"github.com/iliyamo/movie-booking/internal/database"
	"github.com/iliyamo/movie-booking/internal/handler"
	"github.com/iliyamo/movie-booking/internal/middleware"
	"github.com/iliyamo/movie-booking/internal/repository"
	"github.com/iliyamo/movie-booking/internal/router"
	"github.com/iliyamo/movie-booking/internal/seating"
	"github.com/iliyamo/movie-booking/internal/service"
	"github.com/iliyamo/movie-booking/internal/session"
	"github.com/iliyamo/movie-booking/internal/venue"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	rdb, err := config.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer rdb.Close()

	v, err := venue.Load(cfg.VenueFile)
	if err != nil {
		return err
	}
	lock, err := repository.ParseSeatLock(cfg.SeatLock)
	if err != nil {
		return err
	}

	bookings := repository.NewBookingRepo(db, lock)
	movies := repository.NewMovieRepo(db)
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)

	var events service.EventPublisher = service.NopPublisher{}
	if cfg.RabbitURL != "" {
		events = service.NewRabbitPublisher(cfg.RabbitURL, cfg.BookingQueue)
	} else {
		log.Info("RABBITMQ_URL not set, booking events disabled")
	}
	checkout := service.NewCheckoutService(bookings, movies, events, v, log)
	seats := seating.NewReconciler(bookings, log)

	invalidate := func(ctx context.Context) error {
		return middleware.InvalidateCache(ctx, rdb, cfg.Cache.Prefix)
	}
	authH := handler.NewAuthHandler(cfg, users, tokens, log)
	movieH := handler.NewMovieHandler(service.NewCatalogService(movies), users, invalidate, log)
	venueH := handler.NewVenueHandler(v, seats)
	bookingH := handler.NewBookingHandler(checkout, bookings, log)
	sessionH := handler.NewSessionHandler(session.NewStore(rdb, cfg.SessionTTL), seats, movies, checkout, v, log)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewRequestValidator()
	e.Use(echomw.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger(log))

	limit := middleware.NewTokenBucket(cfg.RateLimit, rdb, log)
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret, limit)
	router.RegisterPublic(e, movieH, venueH, cfg.JWTSecret, middleware.NewRedisCache(cfg.Cache, rdb, log))
	router.RegisterCustomer(e, bookingH, sessionH, cfg.JWTSecret, limit)
	router.RegisterAdmin(e, movieH, bookingH, cfg.JWTSecret)

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env),
			zap.String("seat_lock", string(lock)))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
