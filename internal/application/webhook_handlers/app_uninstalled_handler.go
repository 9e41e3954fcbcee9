package webhook_handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"refundsafe-shopify-layer/internal/domain"
	"refundsafe-shopify-layer/internal/ports"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// AppUninstalledHandler handles app uninstalled webhook events
type AppUninstalledHandler struct {
	logger       zerolog.Logger
	store        ports.MerchantStore
	storeTimeout time.Duration
}

// NewAppUninstalledHandler creates a new app uninstalled webhook handler
func NewAppUninstalledHandler(logger zerolog.Logger, store ports.MerchantStore, storeTimeout time.Duration) *AppUninstalledHandler {
	return &AppUninstalledHandler{
		logger:       logger,
		store:        store,
		storeTimeout: storeTimeout,
	}
}

// CanHandle returns true if this handler can process the given topic
func (h *AppUninstalledHandler) CanHandle(topic string) bool {
	return topic == domain.TopicAppUninstalled
}

// Handle marks the merchant as uninstalled. The record is kept for audit purposes.
func (h *AppUninstalledHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	shopDomain, err := h.shopDomain(event)
	if err != nil {
		return err
	}

	storeCtx, cancel := context.WithTimeout(ctx, h.storeTimeout)
	defer cancel()

	merchant, err := h.store.MarkUninstalled(storeCtx, shopDomain)
	if errors.Is(err, domain.ErrMerchantNotFound) {
		h.logger.Warn().Str("shop", shopDomain).Msg("App uninstalled for unknown merchant")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to mark merchant uninstalled: %w", err)
	}

	h.logger.Info().
		Str("shop", shopDomain).
		Time("uninstalledAt", *merchant.UninstalledAt).
		Msg("App uninstalled - merchant marked inactive")

	return nil
}

// shopDomain prefers the verified shop header and reads the payload only when the
// header is missing or malformed. Both are normalized to match stored records.
func (h *AppUninstalledHandler) shopDomain(event *domain.WebhookEvent) (string, error) {
	if shop, err := domain.NormalizeShopDomain(event.Shop); err == nil {
		return shop, nil
	}

	var shopData struct {
		MyshopifyDomain string `json:"myshopify_domain"`
	}
	if err := json.Unmarshal(event.Payload, &shopData); err != nil {
		return "", fmt.Errorf("failed to parse app uninstalled webhook payload: %w", err)
	}

	shop, err := domain.NormalizeShopDomain(shopData.MyshopifyDomain)
	if err != nil {
		return "", fmt.Errorf("%w: app uninstalled webhook has no valid shop domain", domain.ErrClientInput)
	}
	return shop, nil
}
