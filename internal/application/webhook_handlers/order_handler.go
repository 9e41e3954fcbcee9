package webhook_handlers

import (
	"context"
	"fmt"

	"refundsafe-shopify-layer/internal/domain"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// fulfilledOrder is the subset of the order payload the fulfillment handler reads
type fulfilledOrder struct {
	ID                int64  `json:"id"`
	OrderID           int64  `json:"order_id"`
	Name              string `json:"name"`
	FulfillmentStatus string `json:"fulfillment_status"`
	FinancialStatus   string `json:"financial_status"`
}

// OrderHandler handles order fulfillment webhook events
type OrderHandler struct {
	logger zerolog.Logger
}

// NewOrderHandler creates a new order webhook handler
func NewOrderHandler(logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		logger: logger,
	}
}

// CanHandle returns true if this handler can process the given topic
func (h *OrderHandler) CanHandle(topic string) bool {
	return topic == domain.TopicOrdersFulfilled
}

// Handle processes an order webhook event
func (h *OrderHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	var order fulfilledOrder
	if err := json.Unmarshal(event.Payload, &order); err != nil {
		return fmt.Errorf("failed to parse order webhook payload: %w", err)
	}

	orderID := order.ID
	if orderID == 0 {
		orderID = order.OrderID
	}

	// Fulfillment evidence is only logged for now; dispute responses read it from Shopify.
	h.logger.Info().
		Str("topic", event.Topic).
		Str("shop", event.Shop).
		Int64("orderId", orderID).
		Str("name", order.Name).
		Str("fulfillmentStatus", order.FulfillmentStatus).
		Str("financialStatus", order.FinancialStatus).
		Msg("Order fulfilled")

	return nil
}
