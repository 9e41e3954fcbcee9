package application

import (
	"context"
	"errors"
	"time"

	"refundsafe-shopify-layer/internal/domain"
	"refundsafe-shopify-layer/internal/ports"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// WebhookFormat is the payload format requested for every subscription.
const WebhookFormat = "json"

// WebhookManager subscribes newly installed shops to the app's webhook topics
type WebhookManager struct {
	client  ports.ShopifyClient
	logger  zerolog.Logger
	address string
	topics  []string
	timeout time.Duration
}

// NewWebhookManager creates a manager that points every subscription at address.
// timeout caps one SubscribeAll call as a whole, not each topic.
func NewWebhookManager(client ports.ShopifyClient, logger zerolog.Logger, address string, timeout time.Duration) *WebhookManager {
	return &WebhookManager{
		client:  client,
		logger:  logger,
		address: address,
		topics:  domain.DefaultWebhookTopics(),
		timeout: timeout,
	}
}

// SubscribeAll requests every default topic concurrently and independently. A failed
// topic never stops the others, and an existing subscription counts as success.
// Outcomes keep the order of the default topics. The calls are detached from ctx
// cancellation so a dropped client connection does not abort the bootstrap, but the
// whole batch is bounded by the manager's timeout.
func (m *WebhookManager) SubscribeAll(ctx context.Context, shop string, accessToken string) []domain.SubscriptionOutcome {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.timeout)
	defer cancel()

	outcomes := make([]domain.SubscriptionOutcome, len(m.topics))

	var g errgroup.Group
	for i, topic := range m.topics {
		g.Go(func() error {
			outcomes[i] = m.subscribe(ctx, shop, accessToken, topic)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

func (m *WebhookManager) subscribe(ctx context.Context, shop string, accessToken string, topic string) domain.SubscriptionOutcome {
	id, err := m.client.CreateWebhook(ctx, shop, accessToken, domain.WebhookSubscription{
		Topic:   topic,
		Address: m.address,
		Format:  WebhookFormat,
	})

	outcome := domain.SubscriptionOutcome{Topic: topic, WebhookID: id, Err: err}
	switch {
	case err == nil:
		m.logger.Info().Str("shop", shop).Str("topic", topic).Uint64("webhookId", id).Msg("Subscribed to webhook")
	case errors.Is(err, domain.ErrSubscriptionExists):
		outcome.Duplicate = true
		m.logger.Info().Str("shop", shop).Str("topic", topic).Msg("Webhook already subscribed")
	default:
		m.logger.Warn().Err(err).Str("shop", shop).Str("topic", topic).Msg("Failed to subscribe to webhook")
	}
	return outcome
}
