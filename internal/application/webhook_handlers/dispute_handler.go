package webhook_handlers

import (
	"context"
	"fmt"

	"refundsafe-shopify-layer/internal/domain"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

type dispute struct {
	ID            int64  `json:"id"`
	OrderID       int64  `json:"order_id"`
	Type          string `json:"type"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	Reason        string `json:"reason"`
	NetworkReason string `json:"network_reason_code"`
	Status        string `json:"status"`
	EvidenceDueBy string `json:"evidence_due_by"`
}

// DisputeHandler handles Shopify Payments dispute webhook events
type DisputeHandler struct {
	logger zerolog.Logger
}

// NewDisputeHandler creates a new dispute webhook handler
func NewDisputeHandler(logger zerolog.Logger) *DisputeHandler {
	return &DisputeHandler{logger: logger}
}

// CanHandle returns true for dispute create and update topics
func (h *DisputeHandler) CanHandle(topic string) bool {
	return topic == domain.TopicDisputesCreate || topic == domain.TopicDisputesUpdate
}

// Handle parses the dispute and records it in the log
func (h *DisputeHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	var d dispute
	if err := json.Unmarshal(event.Payload, &d); err != nil {
		return fmt.Errorf("failed to parse dispute webhook payload: %w", err)
	}

	msg := "Dispute opened"
	if event.Topic == domain.TopicDisputesUpdate {
		msg = "Dispute updated"
	}

	h.logger.Info().
		Str("topic", event.Topic).
		Str("shop", event.Shop).
		Int64("disputeId", d.ID).
		Int64("orderId", d.OrderID).
		Str("type", d.Type).
		Str("status", d.Status).
		Str("reason", d.Reason).
		Str("amount", d.Amount).
		Str("currency", d.Currency).
		Str("evidenceDueBy", d.EvidenceDueBy).
		Msg(msg)

	return nil
}
