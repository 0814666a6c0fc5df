package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"britlab/timesheet-portal/internal/client"
	"britlab/timesheet-portal/internal/config"
	"britlab/timesheet-portal/internal/database"
	"britlab/timesheet-portal/internal/handler"
	"britlab/timesheet-portal/internal/logger"
	"britlab/timesheet-portal/internal/normalize"
	"britlab/timesheet-portal/internal/proxy"
	"britlab/timesheet-portal/internal/repository"
	"britlab/timesheet-portal/internal/retry"
	"britlab/timesheet-portal/internal/router"
	"britlab/timesheet-portal/internal/session"
	"britlab/timesheet-portal/internal/store"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config/local.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting timesheet portal",
		zap.String("env", cfg.Env),
		zap.String("config_path", *configPath),
	)

	db, err := database.New(cfg.StoragePath, log.Logger)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", zap.Error(err))
		}
	}()

	userRepo := repository.NewUserRepository(db.DB)
	if err := userRepo.Seed(cfg.Roster); err != nil {
		log.Fatal("Failed to seed roster", zap.Error(err))
	}
	log.Info("Roster seeded", zap.Int("users", len(cfg.Roster)))

	sessionRepo := repository.NewSessionRepository(db.DB)
	gate := session.NewGate(userRepo, sessionRepo, log.Logger)

	keyMap := normalize.KeyMap(nil)
	if cfg.KeymapPath != "" {
		keyMap, err = normalize.LoadKeyMap(cfg.KeymapPath)
		if err != nil {
			log.Fatal("Failed to load key map", zap.Error(err))
		}
		log.Info("Loaded alternate-key table", zap.String("path", cfg.KeymapPath))
	}
	normalizer := normalize.New(keyMap)

	timeout := time.Duration(cfg.Backend.Timeout) * time.Second
	policy := retry.Policy{
		Attempts:          cfg.Backend.RetryAttempts,
		Delay:             time.Duration(cfg.Backend.RetryDelayMS) * time.Millisecond,
		PerAttemptTimeout: timeout,
	}

	// The client goes through the local relay so the API key stays on
	// the server side of the boundary.
	relay := proxy.NewRelay(cfg.Backend.ScriptURL, cfg.Backend.APIKey, timeout, log.Logger)
	relayURL := fmt.Sprintf("http://localhost:%d/api/proxy", cfg.Server.Port)

	sheetClient := client.NewSheetClient(relayURL, policy, normalizer, log.Logger)
	if cfg.Backend.ScriptURL == "" {
		log.Warn("Script URL not configured; sheet operations will be no-ops")
	}

	recordStore := store.NewRecordStore(sheetClient, log.Logger)

	validate := validator.New()
	if err := validate.RegisterValidation("hhmm", handler.TimeValidator); err != nil {
		log.Fatal("Failed to register validator", zap.Error(err))
	}

	portal := handler.NewPortalHandler(
		recordStore,
		gate,
		validate,
		time.Duration(cfg.Backend.RefreshDelayMS)*time.Millisecond,
		log.Logger,
	)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router.New(portal, relay, log.Logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Portal listening", zap.String("address", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("Received shutdown signal", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn("Server shutdown error", zap.Error(err))
	}

	log.Info("Timesheet portal stopped")
}
