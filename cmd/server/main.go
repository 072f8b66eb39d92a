package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"game-stock-advisor/console/internal/advisor"
	"game-stock-advisor/console/internal/api"
	"game-stock-advisor/console/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	configureLogging(cfg)

	client, err := advisor.NewClient(advisor.Config{
		BaseURL: cfg.BackendURL,
		Timeout: cfg.BackendTimeout,
	})
	if err != nil {
		logrus.Fatalf("create backend client: %v", err)
	}

	years := advisor.NewYearCache(client, cfg.YearsTTL)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loadCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	if err := years.Load(loadCtx); err != nil {
		logrus.WithError(err).Info("year list unavailable until the model is trained")
	}
	cancel()

	server, err := api.NewServer(api.Config{
		Dispatcher:     client,
		Years:          years,
		BackendURL:     cfg.BackendURL,
		AllowedOrigins: cfg.AllowedOrigins,
		TrainCooldown:  cfg.TrainCooldown,
		ScrollDelay:    cfg.ScrollDelay,
		SessionTTL:     cfg.SessionTTL,
	})
	if err != nil {
		logrus.Fatalf("create server: %v", err)
	}

	router, err := server.Router()
	if err != nil {
		logrus.Fatalf("configure router: %v", err)
	}

	go server.Sessions().Run(ctx, time.Minute)

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logrus.WithError(err).Warn("shutdown console server")
		}
	}()

	logrus.WithFields(logrus.Fields{
		"addr":    cfg.Addr(),
		"backend": cfg.BackendURL,
	}).Info("starting game stock advisor console")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logrus.Fatalf("server exited: %v", err)
	}
}

func configureLogging(cfg *config.Config) {
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	} else {
		logrus.WithField("level", cfg.LogLevel).Warn("unknown log level, keeping info")
	}
	if cfg.LogFormat == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
}
