package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/draftline/internal/config"
	"github.com/DoyleJ11/draftline/internal/httpapi"
	"github.com/DoyleJ11/draftline/internal/logging"
	"github.com/DoyleJ11/draftline/internal/session"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ses := session.New(session.Options{
		BindHost:       cfg.BindHost,
		OriginPatterns: cfg.OriginPatterns,
		WriteTimeout:   cfg.WriteTimeout,
		OutboxSize:     cfg.OutboxSize,
		TimerSeconds:   cfg.TimerDuration(),
	}, log)

	if cfg.Autostart {
		msg, err := ses.Start(cfg.SessionPort)
		if err != nil {
			return err
		}
		log.Info(msg)
	}

	control := &http.Server{
		Addr:              cfg.ControlAddr,
		Handler:           httpapi.SetupRoutes(ses, cfg.ShutdownTimeout, log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("control api listening", zap.String("addr", cfg.ControlAddr))
		if err := control.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("control api: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		var err error
		if _, stopErr := ses.Stop(sctx); stopErr != nil && !errors.Is(stopErr, session.ErrNotRunning) {
			err = multierr.Append(err, stopErr)
		}
		if shutdownErr := control.Shutdown(sctx); shutdownErr != nil {
			err = multierr.Append(err, fmt.Errorf("control api shutdown: %w", shutdownErr))
		}
		return err
	})
	return g.Wait()
}
