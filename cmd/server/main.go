// Package main provides the API server entry point for the rollover fee service.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rollover-fees/internal/adapter"
	"github.com/rollover-fees/internal/api"
	"github.com/rollover-fees/internal/config"
	"github.com/rollover-fees/internal/logging"
	"github.com/rollover-fees/internal/service"
	"github.com/rollover-fees/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize structured logging
	logLevel := logging.ParseLogLevel(cfg.Logging.Level)
	logFormat := logging.ParseLogFormat(cfg.Logging.Format)
	logging.InitGlobalLogger(logLevel, logFormat)

	logger := logging.GetGlobalLogger()
	defer func() { _ = logger.Sync() }()

	logger.WithFields(map[string]interface{}{
		"level":  cfg.Logging.Level,
		"format": cfg.Logging.Format,
	}).Info("Structured logging initialized")

	// Nonce source
	var nonces adapter.NonceSource
	switch cfg.Nonce.Backend {
	case config.NonceBackendRedis:
		redisStore, err := storage.NewRedisStore(&cfg.Redis)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to Redis")
		}
		defer redisStore.Close()

		nonces = storage.NewRedisNonceStore(redisStore.Client(), cfg.Nonce.Key)
		logger.WithFields(map[string]interface{}{
			"backend": string(cfg.Nonce.Backend),
			"key":     cfg.Nonce.Key,
		}).Info("Nonce source initialized")
	default:
		nonces = adapter.NewClockNonce()
		logger.WithField("backend", string(config.NonceBackendMemory)).Info("Nonce source initialized")
	}

	// Exchange client
	kraken, err := adapter.NewKrakenClient(&cfg.Kraken, nonces)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create Kraken client")
	}
	logger.WithFields(map[string]interface{}{
		"base_url": cfg.Kraken.BaseURL,
		"timeout":  cfg.Kraken.Timeout.String(),
	}).Info("Kraken client initialized")

	rolloverService := service.NewRolloverService(kraken)

	serverConfig := &api.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}

	server := api.NewServer(serverConfig, rolloverService)

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	logger.WithFields(map[string]interface{}{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("Server started successfully")

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server exited")
}
