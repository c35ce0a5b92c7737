package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"horizon/internal/adapters/cache"
	"horizon/internal/adapters/dwolla"
	"horizon/internal/adapters/eventbus"
	"horizon/internal/adapters/identity"
	"horizon/internal/adapters/plaid"
	"horizon/internal/adapters/postgres"
	"horizon/internal/adapters/security"
	"horizon/internal/core/services"
	"horizon/internal/server"
	"horizon/internal/shared/config"
	"horizon/internal/shared/logger"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize logger
	isDevMode := cfg.AppEnv == "dev"
	baseLogger := logger.New(isDevMode)
	baseLogger.Info().Str("app_env", cfg.AppEnv).Str("http_addr", cfg.HTTPAddr).Msg("Configuration loaded")

	// 3. Security service and sharable-id codec. Each gets its own
	// subkey: the two components run different nonce regimes and must
	// not encrypt under the same AES key.
	keyBytes, err := hex.DecodeString(cfg.EncryptionKey)
	if err != nil {
		baseLogger.Fatal().Err(err).Msg("Failed to decode ENCRYPTION_KEY. It must be hex-encoded.")
	}
	columnKey, err := security.DeriveKey(keyBytes, "column-encryption")
	if err != nil {
		baseLogger.Fatal().Err(err).Msg("Failed to derive column-encryption key")
	}
	idKey, err := security.DeriveKey(keyBytes, "sharable-id")
	if err != nil {
		baseLogger.Fatal().Err(err).Msg("Failed to derive sharable-id key")
	}
	secSvc, err := security.NewAESService(columnKey, &baseLogger)
	if err != nil {
		baseLogger.Fatal().Err(err).Msg("Failed to initialize security service")
	}
	idCodec, err := security.NewIDCodec(idKey, &baseLogger)
	if err != nil {
		baseLogger.Fatal().Err(err).Msg("Failed to initialize sharable-id codec")
	}

	// 4. Database and repositories
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.NewDB(ctx, cfg.DatabaseURL, &baseLogger)
	if err != nil {
		baseLogger.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	userRepo := postgres.NewUserRepository(db, secSvc, &baseLogger)
	bankRepo := postgres.NewBankRepository(db, secSvc, &baseLogger)

	// 5. External gateways
	aggregator := plaid.NewClient(plaid.Config{
		BaseURL:  cfg.Plaid.BaseURL,
		ClientID: cfg.Plaid.ClientID,
		Secret:   cfg.Plaid.Secret,
		Timeout:  cfg.GatewayTimeout,
	}, &baseLogger)

	rail := dwolla.NewClient(dwolla.Config{
		BaseURL: cfg.Dwolla.BaseURL,
		Key:     cfg.Dwolla.Key,
		Secret:  cfg.Dwolla.Secret,
		Timeout: cfg.GatewayTimeout,
	}, &baseLogger)

	identityGw := identity.NewClient(identity.Config{
		Endpoint:  cfg.Identity.Endpoint,
		ProjectID: cfg.Identity.ProjectID,
		APIKey:    cfg.Identity.APIKey,
		Timeout:   cfg.GatewayTimeout,
	}, &baseLogger)

	// 6. Event bus and bank-list cache
	bus := eventbus.NewInMemoryEventBus(&baseLogger)
	bankCache := cache.NewBankList(&baseLogger)
	bankCache.SubscribeInvalidation(bus)

	// 7. Services
	userSvc := services.NewUserService(identityGw, rail, userRepo, &baseLogger)
	linkingSvc := services.NewLinkingService(aggregator, rail, bankRepo, idCodec, bankCache, bus, &baseLogger)
	bankSvc := services.NewBankService(bankRepo, bankCache, idCodec, &baseLogger)

	// 8. HTTP surface
	handlers := server.NewHandlers(userSvc, linkingSvc, bankSvc, !isDevMode, &baseLogger)
	router := server.NewRouter(handlers, db, &baseLogger)
	srv := server.New(cfg.HTTPAddr, router, &baseLogger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			baseLogger.Fatal().Err(err).Msg("HTTP server failed")
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			baseLogger.Error().Err(err).Msg("Graceful shutdown failed")
		}
	}

	baseLogger.Info().Msg("Server stopped")
}
