package ports

import (
	"context"
	"net/url"

	"refundsafe-shopify-layer/internal/domain"
)

// ShopifyClient defines the Shopify operations the install flow needs
type ShopifyClient interface {
	// Authentication
	AuthorizeURL(shop string, state string) string
	ExchangeToken(ctx context.Context, shop string, code string) (string, error)

	// Webhook API
	CreateWebhook(ctx context.Context, shop string, accessToken string, sub domain.WebhookSubscription) (uint64, error)
}

// TokenCodec turns access tokens into their at-rest form and back.
// Implementations range from a reversible placeholder to a real cipher; the install
// flow does not depend on which one is configured.
type TokenCodec interface {
	Encode(plain string) (string, error)
	Decode(encoded string) (string, error)
}

// CallbackVerifier checks the signature Shopify attaches to an authorization callback.
type CallbackVerifier interface {
	Verify(query url.Values) error
}
