package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/erazemk/premiki/internal/api"
	"github.com/erazemk/premiki/internal/config"
	"github.com/erazemk/premiki/internal/notify"
	"github.com/erazemk/premiki/internal/report"
	"github.com/erazemk/premiki/internal/store"
	"github.com/erazemk/premiki/internal/transfer"
)

const shutdownTimeout = 5 * time.Second

func cmdServe(ctx context.Context, args []string, stdout io.Writer) error {
	cfg, database, cleanup, err := setup(newFlagSet("serve", stdout), args)
	if err != nil {
		return err
	}
	defer cleanup()

	slog.Info("database ready", "path", cfg.DBPath)

	password, err := ensureAdmin(ctx, database, cfg.AdminEmail)
	if err != nil {
		return err
	}
	if password != "" {
		printAdminPassword(stdout, cfg.AdminEmail, password)
	}

	jwtSecret, err := store.JWTSecret(ctx, database)
	if err != nil {
		return fmt.Errorf("loading JWT secret: %w", err)
	}

	notifier, closeNotifier, err := newNotifier(cfg)
	if err != nil {
		return err
	}

	cache, err := report.NewCache(cfg.ReportCacheSize)
	if err != nil {
		closeNotifier(context.Background())
		return err
	}

	router := api.NewRouter(api.Options{
		DB:        database,
		JWTSecret: jwtSecret,
		Transfers: transfer.New(database, notifier),
		Reports:   report.NewEngine(database),
		Cache:     cache,
	})

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.LoggingMiddleware(api.CORSMiddleware(cfg.CORSOrigins, router)),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server started", "addr", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")

		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(sctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
		if err := closeNotifier(sctx); err != nil {
			slog.Warn("pending events dropped", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("server stopped, closing database")
	return nil
}

// newNotifier publishes to AMQP when a broker is configured and logs events
// otherwise. Delivery is always asynchronous. The close function drains the
// queue and releases the broker connection.
func newNotifier(cfg *config.Config) (notify.Notifier, func(context.Context) error, error) {
	var (
		sink    notify.Notifier
		closers []func() error
	)

	if cfg.AMQPURL != "" {
		conn, err := notify.DialAMQP(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to broker: %w", err)
		}
		slog.Info("publishing events", "exchange", cfg.AMQPExchange)
		sink = conn
		closers = append(closers, conn.Close)
	} else {
		sink = notify.NewLog(slog.Default())
	}

	async := notify.NewAsync(sink, cfg.NotifyBuffer, slog.Default())
	closeAll := func(ctx context.Context) error {
		err := async.Close(ctx)
		for _, c := range closers {
			err = errors.Join(err, c())
		}
		return err
	}
	return async, closeAll, nil
}
