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

	"github.com/sirupsen/logrus"

	"github.com/stayware/tolk/pkg/archive"
	"github.com/stayware/tolk/pkg/cache"
	"github.com/stayware/tolk/pkg/config"
	"github.com/stayware/tolk/pkg/inference"
	"github.com/stayware/tolk/pkg/server"
	"github.com/stayware/tolk/pkg/translation"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	// Set log level
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.WithError(err).Warn("Invalid log level, using info")
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	logger.WithFields(logrus.Fields{
		"port":       cfg.Port,
		"runner_url": cfg.RunnerURL,
		"redis":      cfg.RedisAddr(),
		"log_level":  level.String(),
	}).Info("Starting Tolk translation server")

	// Model runner client
	backend := inference.NewRunnerClient(cfg.RunnerURL, logger)

	// Result cache; an unreachable Redis degrades to uncached operation
	var resultCache *translation.ResultCache
	if cfg.CacheEnabled {
		store, err := cache.NewRedisStore(cache.RedisOptions{
			Addr:     cfg.RedisAddr(),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, logger)
		if err != nil {
			logger.WithError(err).Warn("Redis connection failed, running without cache")
		} else {
			resultCache = translation.NewResultCache(store, cfg.CacheTTL, logger)
		}
	} else {
		logger.Info("Result cache disabled by configuration")
	}

	// Translation history; an unreachable cluster degrades to no history
	var recorder *archive.Recorder
	if cfg.HistoryEnabled {
		recorder, err = archive.NewRecorder(archive.Options{
			Hosts:    cfg.ScyllaHosts,
			Keyspace: cfg.ScyllaKeyspace,
		}, logger)
		if err != nil {
			logger.WithError(err).Warn("ScyllaDB connection failed, running without history")
			recorder = nil
		}
	} else {
		logger.Info("Translation history disabled by configuration")
	}

	svcCfg := translation.Config{
		Backend: backend,
		Cache:   resultCache,
		Logger:  logger,
	}
	if recorder != nil {
		svcCfg.History = recorder
	}
	svc := translation.NewService(svcCfg)

	// Warm up against the model runner
	warmCtx, warmCancel := context.WithTimeout(context.Background(), 10*time.Second)
	logger.Info("Checking model runner health...")
	if err := svc.WarmUp(warmCtx); err != nil {
		logger.WithError(err).Warn("Model runner warm-up failed, but continuing anyway")
		logger.Warn("Server will start, but translation requests fail with 503 until the runner is ready")
	}
	warmCancel()

	// Keep probing in the background until the runner comes up
	retryCtx, retryCancel := context.WithCancel(context.Background())
	defer retryCancel()

	go func() {
		ticker := time.NewTicker(cfg.WarmUpInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if svc.Ready() {
					return
				}
				probeCtx, probeCancel := context.WithTimeout(retryCtx, 10*time.Second)
				if err := svc.WarmUp(probeCtx); err != nil {
					logger.WithError(err).Debug("Model runner still not ready")
				}
				probeCancel()
			case <-retryCtx.Done():
				return
			}
		}
	}()

	httpServer := server.NewHTTPServer(svc, logger, cfg.ListenAddr())

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("failed to serve: %w", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		logger.WithError(err).Fatal("Server error")
	case sig := <-sigChan:
		logger.WithFields(logrus.Fields{
			"signal": sig.String(),
		}).Info("Received signal, shutting down gracefully...")

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(ctx); err != nil {
			logger.WithError(err).Warn("Graceful shutdown failed, some requests may have been dropped")
		} else {
			logger.Info("Server stopped gracefully")
		}

		if resultCache != nil {
			if err := resultCache.Close(); err != nil {
				logger.WithError(err).Warn("Failed to close cache")
			}
		}
		recorder.Close()
	}
}
