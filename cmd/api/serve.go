package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"refundsafe-shopify-layer/internal/application"
	"refundsafe-shopify-layer/internal/application/webhook_handlers"
	"refundsafe-shopify-layer/internal/config"
	"refundsafe-shopify-layer/internal/infrastructure/api"
	"refundsafe-shopify-layer/internal/infrastructure/encryption"
	"refundsafe-shopify-layer/internal/infrastructure/ledger"
	"refundsafe-shopify-layer/internal/infrastructure/metrics"
	"refundsafe-shopify-layer/internal/infrastructure/repository"
	shopifyinfra "refundsafe-shopify-layer/internal/infrastructure/shopify"
	"refundsafe-shopify-layer/internal/ports"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const shutdownTimeout = 30 * time.Second

func serveCmd(logger zerolog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), logger)
		},
	}
}

func runServer(ctx context.Context, logger zerolog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Warn().Str("level", cfg.LogLevel).Msg("Unknown LOG_LEVEL, using info")
		level = zerolog.InfoLevel
	}
	logger = logger.Level(level)

	store, closeStore, err := initMerchantStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize merchant store: %w", err)
	}
	defer closeStore()

	deliveries, closeLedger, err := initLedger(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize delivery ledger: %w", err)
	}
	defer closeLedger()

	key, err := cfg.EncryptionKey()
	if err != nil {
		return err
	}
	codec, err := encryption.NewCodec(key)
	if err != nil {
		return fmt.Errorf("failed to initialize token codec: %w", err)
	}
	if key == nil {
		logger.Warn().Msg("TOKEN_ENCRYPTION_KEY not set: access tokens are stored base64-encoded, not encrypted")
	}
	tokens := shopifyinfra.NewTokenManager(codec, logger)

	// Initialize infrastructure (implementations)
	shopifyClient := shopifyinfra.NewClient(shopifyinfra.ClientConfig{
		APIKey:      cfg.ShopifyAPIKey,
		APISecret:   cfg.ShopifyAPISecret,
		RedirectURI: cfg.CallbackURL(),
		APIVersion:  cfg.ShopifyAPIVersion,
		HTTPClient:  &http.Client{Timeout: cfg.ShopifyTimeout},
	}, logger)

	// Initialize application services
	webhookManager := application.NewWebhookManager(shopifyClient, logger, cfg.WebhookURL(), cfg.SubscribeTimeout)
	oauthService := application.NewOAuthService(
		shopifyClient,
		shopifyinfra.NewCallbackVerifier(cfg.ShopifyAPISecret),
		tokens,
		store,
		webhookManager,
		logger,
		cfg.StoreTimeout,
	)

	// Initialize webhook dispatcher and register handlers
	webhookDispatcher := application.NewWebhookDispatcher(logger)
	webhookDispatcher.RegisterHandler(webhook_handlers.NewDisputeHandler(logger))
	webhookDispatcher.RegisterHandler(webhook_handlers.NewOrderHandler(logger))
	webhookDispatcher.RegisterHandler(webhook_handlers.NewAppUninstalledHandler(logger, store, cfg.StoreTimeout))

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	router := api.NewRouter(api.Dependencies{
		OAuth:           oauthService,
		Dispatcher:      webhookDispatcher,
		WebhookVerifier: shopifyinfra.NewWebhookVerifier(cfg.ShopifyAPISecret),
		Ledger:          deliveries,
		Metrics:         metrics.New(reg),
		Gatherer:        reg,
		Logger:          logger,
		AllowedOrigins:  cfg.CORSAllowedOrigins,
	})

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      config.ServerWriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("port", cfg.Port).Str("store", cfg.MerchantStore).Msg("Starting API server")
		logger.Info().Msg("Swagger documentation available at http://localhost:" + cfg.Port + "/swagger/index.html")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutdown signal received, draining connections")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	logger.Info().Msg("Server stopped")
	return nil
}

func initMerchantStore(ctx context.Context, cfg config.Config, logger zerolog.Logger) (ports.MerchantStore, func(), error) {
	switch cfg.MerchantStore {
	case config.StoreMongo:
		logger.Info().Str("database", cfg.MongoDatabase).Msg("Initializing MongoDB merchant store")

		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		closeFn := func() {
			if err := client.Disconnect(context.Background()); err != nil {
				logger.Error().Err(err).Msg("Failed to disconnect from MongoDB")
			}
		}

		pingCtx, cancel := context.WithTimeout(ctx, cfg.StoreTimeout)
		defer cancel()
		if err := client.Ping(pingCtx, nil); err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("failed to ping MongoDB: %w", err)
		}

		repo := repository.NewMongoMerchantRepository(client.Database(cfg.MongoDatabase))
		if err := repo.EnsureIndexes(pingCtx); err != nil {
			closeFn()
			return nil, nil, err
		}
		return repo, closeFn, nil

	case config.StorePostgres:
		logger.Info().Msg("Initializing PostgreSQL merchant store")

		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}

		pingCtx, cancel := context.WithTimeout(ctx, cfg.StoreTimeout)
		defer cancel()
		if err := pool.Ping(pingCtx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
		}

		repo := repository.NewPostgresMerchantRepository(pool)
		if err := repo.Migrate(pingCtx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return repo, pool.Close, nil

	default:
		logger.Warn().Msg("Using in-memory merchant store; merchant records are lost on restart")
		return repository.NewMemoryMerchantRepository(), func() {}, nil
	}
}

func initLedger(ctx context.Context, cfg config.Config, logger zerolog.Logger) (ports.DeliveryLedger, func(), error) {
	if cfg.RedisURL == "" {
		logger.Info().Msg("REDIS_URL not set; webhook redeliveries will not be de-duplicated")
		return ledger.NopLedger{}, func() {}, nil
	}

	client, err := ledger.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	logger.Info().Dur("ttl", cfg.DeliveryTTL).Msg("Webhook delivery ledger enabled")

	return ledger.NewRedisLedger(client, cfg.DeliveryTTL), func() {
		if err := client.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close redis client")
		}
	}, nil
}
