package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/andreasstove999/ecommerce-system/shopping-cart-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/shopping-cart-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/shopping-cart-go/internal/config"
	"github.com/andreasstove999/ecommerce-system/shopping-cart-go/internal/db"
	"github.com/andreasstove999/ecommerce-system/shopping-cart-go/internal/events"
	httpapi "github.com/andreasstove999/ecommerce-system/shopping-cart-go/internal/http"
	"github.com/andreasstove999/ecommerce-system/shopping-cart-go/internal/logging"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel, cfg.LogPretty)

	if err := run(cfg, logger); err != nil {
		logger.Error().Err(err).Msg("shopping-cart stopped")
		os.Exit(1)
	}
}

func run(cfg config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.RunMigrations {
		if err := db.RunMigrations(cfg.DatabaseDSN, logger); err != nil {
			return err
		}
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseDSN, cfg.DBMaxConns)
	if err != nil {
		return err
	}
	defer pool.Close()

	tx := db.NewTransactor(pool)

	if cfg.SeedData {
		if err := db.Seed(ctx, tx, logger); err != nil {
			return err
		}
	}

	var publisher checkout.Publisher
	if cfg.EventsEnabled() {
		conn, err := events.Dial(cfg.RabbitMQURL)
		if err != nil {
			return err
		}
		defer conn.Close()

		pub, err := events.NewRabbitCartEventsPublisher(conn, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := pub.Close(); err != nil {
				logger.Warn().Err(err).Msg("publisher close error")
			}
		}()
		publisher = pub
	} else {
		logger.Info().Msg("event publishing disabled")
	}

	handler := httpapi.NewHandler(
		cart.NewService(tx, logger),
		checkout.NewService(tx, publisher, logger),
		cfg.RequestTimeout,
		logger,
	)
	router := httpapi.NewRouter(handler, httpapi.RouterConfig{
		APIPrefix:        cfg.APIPrefix,
		CORSAllowOrigins: cfg.CORSAllowOrigins,
	}, logger)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("shopping-cart listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("graceful shutdown error")
	}
	return nil
}
