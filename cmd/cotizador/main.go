package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cotizador/internal/app"
	"cotizador/internal/config"
	"cotizador/internal/lib/logger"
	authsvc "cotizador/internal/service/auth"
	"cotizador/internal/storage/mysql"
)

func main() {
	cfg := config.MustConfig()

	log := logger.Setup(cfg.Env, os.Stdout, "errors.log")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := app.New(cfg, log)

	var (
		db          *mysql.Storage
		authService *authsvc.Service
	)
	if cfg.DB.Enabled {
		var err error
		db, authService, err = app.OpenDB(ctx, cfg, log)
		if err != nil {
			log.Error("failed to open db", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer db.Close()
	}

	if cfg.Sync.Enabled {
		go a.Sync.Run(ctx)
	}

	log.Info("server started", slog.String("address", cfg.Address), slog.String("env", cfg.Env))

	srv := &http.Server{
		Addr:         cfg.Address,
		Handler:      routes(*cfg, log, a, db, authService),
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", slog.String("error", err.Error()))
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("failed start server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("server stopped")
}
