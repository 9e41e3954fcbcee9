package api

import (
	"errors"
	"io"
	"net/http"
	"slices"

	"refundsafe-shopify-layer/internal/application"
	"refundsafe-shopify-layer/internal/domain"
	"refundsafe-shopify-layer/internal/infrastructure/metrics"
	shopifyinfra "refundsafe-shopify-layer/internal/infrastructure/shopify"
	"refundsafe-shopify-layer/internal/ports"

	"github.com/rs/zerolog"
)

// MaxWebhookBodyBytes caps the webhook body read before verification.
const MaxWebhookBodyBytes = 1 << 20

// webhookHandler verifies a delivery against the raw body, then dispatches it.
// Verified deliveries are always acknowledged so Shopify does not back off.
func webhookHandler(
	verifier PayloadVerifier,
	ledger ports.DeliveryLedger,
	dispatcher *application.WebhookDispatcher,
	m *metrics.Metrics,
	logger zerolog.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		r.Body = http.MaxBytesReader(w, r.Body, MaxWebhookBodyBytes)
		payload, err := io.ReadAll(r.Body)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
				return
			}
			logger.Error().Err(err).Msg("Failed to read webhook payload")
			http.Error(w, "Failed to read request body", http.StatusBadRequest)
			return
		}

		if err := verifier.Verify(payload, r.Header.Get(shopifyinfra.HeaderHMAC)); err != nil {
			m.Delivery("unverified", metrics.ResultInvalidSignature)
			logger.Warn().Str("remoteAddr", r.RemoteAddr).Msg("Webhook signature verification failed")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		event := &domain.WebhookEvent{
			Topic:     r.Header.Get(shopifyinfra.HeaderTopic),
			Shop:      r.Header.Get(shopifyinfra.HeaderShopDomain),
			WebhookID: r.Header.Get(shopifyinfra.HeaderWebhookID),
			Payload:   payload,
			Verified:  true,
		}
		topic := topicLabel(event.Topic)

		if event.WebhookID != "" {
			first, err := ledger.FirstSeen(ctx, event.WebhookID)
			if err != nil {
				logger.Warn().Err(err).Str("webhookId", event.WebhookID).Msg("Delivery ledger unavailable; processing anyway")
			} else if !first {
				m.Delivery(topic, metrics.ResultDuplicate)
				logger.Info().Str("topic", event.Topic).Str("webhookId", event.WebhookID).Msg("Duplicate webhook delivery acknowledged")
				acknowledge(w)
				return
			}
		}

		handled, err := dispatcher.Dispatch(ctx, event)
		switch {
		case err != nil:
			m.Delivery(topic, metrics.ResultHandlerError)
			if errors.Is(err, domain.ErrPersistence) {
				m.StoreError("mark_uninstalled")
			}
			logger.Error().
				Err(err).
				Str("topic", event.Topic).
				Str("shop", event.Shop).
				Msg("Failed to handle webhook event")
		case !handled:
			m.Delivery(topic, metrics.ResultIgnored)
		default:
			m.Delivery(topic, metrics.ResultSuccess)
		}

		acknowledge(w)
	}
}

func acknowledge(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// topicLabel keeps metric cardinality bounded to the subscribed topics.
func topicLabel(topic string) string {
	if slices.Contains(domain.DefaultWebhookTopics(), topic) {
		return topic
	}
	return "other"
}
