package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/orrn/printgate/internal/api"
	"github.com/orrn/printgate/internal/archive"
	"github.com/orrn/printgate/internal/db"
	"github.com/orrn/printgate/internal/webhook"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP service",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := newService(cfg, log)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(cfg.Database.Path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	store, err := db.Open(db.Config{Path: cfg.Database.Path})
	if err != nil {
		return err
	}
	defer store.Close()

	archiver, err := archive.NewArchiver(store, archive.ArchiveConfig{
		ArchivePath: cfg.Database.ArchivePath,
		ArchiveDays: cfg.Database.ArchiveDays,
	}, log)
	if err != nil {
		return err
	}
	archiver.Start()
	defer archiver.Stop()

	deps := api.Deps{
		Service:        svc,
		Logger:         log,
		RequestTimeout: cfg.Server.RequestTimeout,
		Auditor:        store,
		Audit:          store,
		Archives:       archiver,
		Health:         store,
	}

	if len(cfg.Webhooks.Endpoints) > 0 {
		endpoints := make([]webhook.Endpoint, 0, len(cfg.Webhooks.Endpoints))
		for _, e := range cfg.Webhooks.Endpoints {
			endpoints = append(endpoints, webhook.Endpoint{URL: e.URL, Secret: e.Secret, Events: e.Events})
		}
		sender := webhook.NewSender(webhook.Config{
			Endpoints:   endpoints,
			RetryCount:  cfg.Webhooks.MaxRetries,
			RetryDelay:  cfg.Webhooks.RetryDelay,
			Timeout:     cfg.Webhooks.Timeout,
			WorkerCount: cfg.Webhooks.Workers,
			QueueSize:   cfg.Webhooks.QueueSize,
		}, log)
		sender.Start()
		defer sender.Stop()
		deps.Notifier = sender
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      api.NewRouter(deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
