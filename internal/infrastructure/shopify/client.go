package shopify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"refundsafe-shopify-layer/internal/domain"
	"refundsafe-shopify-layer/internal/ports"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

const defaultTimeout = 10 * time.Second

// DefaultScopes are the access scopes requested on every install.
var DefaultScopes = []string{"read_orders", "read_customers", "read_fulfillments", "read_products"}

// ClientConfig carries the app identity and transport settings.
type ClientConfig struct {
	APIKey      string
	APISecret   string
	RedirectURI string
	APIVersion  string
	Scopes      []string
	// HTTPClient is used for every outbound call. It must carry a Timeout.
	HTTPClient *http.Client
}

type client struct {
	cfg    ClientConfig
	app    goshopify.App
	logger zerolog.Logger
}

var _ ports.ShopifyClient = (*client)(nil)

// NewClient creates a new Shopify client adapter
func NewClient(cfg ClientConfig, logger zerolog.Logger) ports.ShopifyClient {
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = DefaultScopes
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: defaultTimeout}
	}
	return &client{
		cfg: cfg,
		app: goshopify.App{
			ApiKey:    cfg.APIKey,
			ApiSecret: cfg.APISecret,
		},
		logger: logger,
	}
}

// oauthConfig builds the per-shop OAuth endpoint description. Shopify expects the
// scope list comma-separated, so it is passed as a single scope value.
func (c *client) oauthConfig(shop string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.cfg.APIKey,
		ClientSecret: c.cfg.APISecret,
		RedirectURL:  c.cfg.RedirectURI,
		Scopes:       []string{strings.Join(c.cfg.Scopes, ",")},
		Endpoint: oauth2.Endpoint{
			AuthURL:   fmt.Sprintf("https://%s/admin/oauth/authorize", shop),
			TokenURL:  fmt.Sprintf("https://%s/admin/oauth/access_token", shop),
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// Authentication methods

func (c *client) AuthorizeURL(shop string, state string) string {
	authURL := c.oauthConfig(shop).AuthCodeURL(state)

	c.logger.Debug().
		Str("shop", shop).
		Strs("scopes", c.cfg.Scopes).
		Msg("Generated OAuth authorization URL")

	return authURL
}

func (c *client) ExchangeToken(ctx context.Context, shop string, code string) (string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.cfg.HTTPClient)

	token, err := c.oauthConfig(shop).Exchange(ctx, code)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			return "", fmt.Errorf("%w: status %d", domain.ErrUpstreamExchange, retrieveErr.Response.StatusCode)
		}
		return "", fmt.Errorf("%w: %w", domain.ErrUpstreamExchange, err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", domain.ErrUpstreamExchange)
	}
	return token.AccessToken, nil
}

// Webhook API

func (c *client) CreateWebhook(ctx context.Context, shop string, accessToken string, sub domain.WebhookSubscription) (uint64, error) {
	api, err := goshopify.NewClient(c.app, shop, accessToken,
		goshopify.WithVersion(c.cfg.APIVersion),
		goshopify.WithHTTPClient(c.cfg.HTTPClient),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create client: %w", err)
	}

	created, err := api.Webhook.Create(ctx, goshopify.Webhook{
		Topic:   sub.Topic,
		Address: sub.Address,
		Format:  sub.Format,
	})
	if IsDuplicateSubscription(err) {
		return 0, fmt.Errorf("%w: %s: %w", domain.ErrSubscriptionExists, sub.Topic, err)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", domain.ErrSubscription, sub.Topic, err)
	}
	return created.Id, nil
}

// IsDuplicateSubscription reports whether err is Shopify rejecting a topic that is
// already subscribed for the same address.
func IsDuplicateSubscription(err error) bool {
	var respErr goshopify.ResponseError
	if errors.As(err, &respErr) {
		return respErr.Status == http.StatusUnprocessableEntity
	}
	return false
}

