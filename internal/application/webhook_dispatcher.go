package application

import (
	"context"
	"errors"
	"fmt"

	"refundsafe-shopify-layer/internal/domain"

	"github.com/rs/zerolog"
)

// ErrUnverifiedEvent is returned when an event reaches the dispatcher without a
// verified signature.
var ErrUnverifiedEvent = errors.New("webhook event is not verified")

// WebhookHandler processes verified webhook events for the topics it claims
type WebhookHandler interface {
	CanHandle(topic string) bool
	Handle(ctx context.Context, event *domain.WebhookEvent) error
}

// WebhookDispatcher routes webhook events to registered handlers
type WebhookDispatcher struct {
	handlers []WebhookHandler
	logger   zerolog.Logger
}

// NewWebhookDispatcher creates an empty dispatcher
func NewWebhookDispatcher(logger zerolog.Logger) *WebhookDispatcher {
	return &WebhookDispatcher{logger: logger}
}

// RegisterHandler adds a handler. Handlers run in registration order.
func (d *WebhookDispatcher) RegisterHandler(h WebhookHandler) {
	d.handlers = append(d.handlers, h)
}

// Dispatch hands the event to every handler that claims its topic and reports whether
// any did. Handler errors are joined; one failing handler does not skip the rest.
func (d *WebhookDispatcher) Dispatch(ctx context.Context, event *domain.WebhookEvent) (bool, error) {
	if !event.Verified {
		return false, ErrUnverifiedEvent
	}

	handled := false
	var errs []error
	for _, h := range d.handlers {
		if !h.CanHandle(event.Topic) {
			continue
		}
		handled = true
		if err := h.Handle(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("%T: %w", h, err))
		}
	}

	if !handled {
		d.logger.Info().Str("topic", event.Topic).Str("shop", event.Shop).Msg("No handler registered for webhook topic")
	}
	return handled, errors.Join(errs...)
}
