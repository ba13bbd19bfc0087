// @title           Task API
// @version         1.0
// @description     Task list: create, list, update, delete and toggle completion.
// @host            localhost:8080
// @BasePath        /
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"taskapi/internal/app"
	"taskapi/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", slog.Any("err", err))
		os.Exit(1)
	}
	log := app.NewLogger(cfg.App, os.Stdout)
	slog.SetDefault(log)
	log.Info("config loaded", slog.String("store", cfg.Store.Driver), slog.Bool("cache", cfg.Redis.Enabled()))

	application, err := app.New(cfg, log)
	if err != nil {
		log.Error("app init", slog.Any("err", err))
		os.Exit(1)
	}
	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.HTTP.Port,
		Handler:      application.Router(),
		ReadTimeout:  cfg.HTTP.ReadTimeout.Duration(),
		WriteTimeout: cfg.HTTP.WriteTimeout.Duration(),
		IdleTimeout:  cfg.HTTP.IdleTimeout.Duration(),
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	exitCode := 0
	select {
	case sig := <-quit:
		log.Info("shutting down", slog.String("signal", sig.String()))
	case err := <-serveErr:
		log.Error("HTTP server error", slog.Any("err", err))
		exitCode = 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout.Duration())
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("HTTP shutdown", slog.Any("err", err))
		exitCode = 1
	}
	if err := application.Close(ctx); err != nil {
		log.Error("app close", slog.Any("err", err))
		exitCode = 1
	}
	if exitCode != 0 {
		cancel()
		os.Exit(exitCode)
	}
}
