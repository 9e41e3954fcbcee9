// Package config reads process configuration from the environment.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Merchant store backends.
const (
	StoreMemory   = "memory"
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
)

// ServerWriteTimeout bounds every response, including the install callback.
const ServerWriteTimeout = 30 * time.Second

// Config holds everything the server needs at startup. The Shopify credentials and
// the public app URL are required; the process refuses to start without them.
type Config struct {
	ShopifyAPIKey     string        `env:"SHOPIFY_API_KEY,required,notEmpty"`
	ShopifyAPISecret  string        `env:"SHOPIFY_API_SECRET,required,notEmpty"`
	ShopifyAPIVersion string        `env:"SHOPIFY_API_VERSION" envDefault:"2024-07"`
	ShopifyTimeout    time.Duration `env:"SHOPIFY_HTTP_TIMEOUT" envDefault:"10s"`
	SubscribeTimeout  time.Duration `env:"WEBHOOK_SUBSCRIBE_TIMEOUT" envDefault:"10s"`
	AppURL            string        `env:"APP_URL,required,notEmpty"`

	Port     string `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	MerchantStore string        `env:"MERCHANT_STORE" envDefault:"memory"`
	StoreTimeout  time.Duration `env:"STORE_TIMEOUT" envDefault:"5s"`
	MongoURI      string        `env:"MONGODB_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase string        `env:"MONGODB_DATABASE" envDefault:"refundsafe"`
	PostgresURL   string        `env:"DATABASE_URL"`

	RedisURL    string        `env:"REDIS_URL"`
	DeliveryTTL time.Duration `env:"WEBHOOK_DELIVERY_TTL" envDefault:"24h"`

	TokenEncryptionKey string `env:"TOKEN_ENCRYPTION_KEY"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	cfg.AppURL = strings.TrimRight(cfg.AppURL, "/")
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints the struct tags cannot express.
func (c Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.AppURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("APP_URL must be an absolute http(s) URL, got %q", c.AppURL))
	}

	switch c.MerchantStore {
	case StoreMemory:
	case StoreMongo:
		if c.MongoURI == "" {
			errs = append(errs, errors.New("MONGODB_URI is required when MERCHANT_STORE=mongo"))
		}
	case StorePostgres:
		if c.PostgresURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when MERCHANT_STORE=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown MERCHANT_STORE %q", c.MerchantStore))
	}

	if c.TokenEncryptionKey != "" {
		if _, err := c.EncryptionKey(); err != nil {
			errs = append(errs, err)
		}
	}

	if c.ShopifyTimeout <= 0 {
		errs = append(errs, errors.New("SHOPIFY_HTTP_TIMEOUT must be positive"))
	}
	if c.StoreTimeout <= 0 {
		errs = append(errs, errors.New("STORE_TIMEOUT must be positive"))
	}
	if c.SubscribeTimeout <= 0 {
		errs = append(errs, errors.New("WEBHOOK_SUBSCRIBE_TIMEOUT must be positive"))
	}
	// The callback runs exchange, store write and subscriptions in sequence.
	if c.ShopifyTimeout+c.StoreTimeout+c.SubscribeTimeout >= ServerWriteTimeout {
		errs = append(errs, fmt.Errorf("SHOPIFY_HTTP_TIMEOUT + STORE_TIMEOUT + WEBHOOK_SUBSCRIBE_TIMEOUT must stay below %s", ServerWriteTimeout))
	}

	return errors.Join(errs...)
}

// EncryptionKey decodes TOKEN_ENCRYPTION_KEY. It returns nil, nil when unset.
func (c Config) EncryptionKey() ([]byte, error) {
	if c.TokenEncryptionKey == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(c.TokenEncryptionKey)
	if err != nil || len(key) != 32 {
		return nil, errors.New("TOKEN_ENCRYPTION_KEY must be 64 hex characters (32 bytes)")
	}
	return key, nil
}

// CallbackURL is the redirect_uri registered with Shopify.
func (c Config) CallbackURL() string {
	return c.AppURL + "/api/auth/shopify/callback"
}

// WebhookURL is the delivery address used for every subscription.
func (c Config) WebhookURL() string {
	return c.AppURL + "/api/webhooks/shopify"
}
