package application_test

import (
	"context"
	"errors"
	"testing"

	"refundsafe-shopify-layer/internal/application"
	"refundsafe-shopify-layer/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	topic string
	err   error
	seen  []*domain.WebhookEvent
}

func (h *recordingHandler) CanHandle(topic string) bool { return topic == h.topic }

func (h *recordingHandler) Handle(_ context.Context, event *domain.WebhookEvent) error {
	h.seen = append(h.seen, event)
	return h.err
}

func TestWebhookDispatcher_RoutesByTopic(t *testing.T) {
	orders := &recordingHandler{topic: domain.TopicOrdersFulfilled}
	uninstall := &recordingHandler{topic: domain.TopicAppUninstalled}
	d := application.NewWebhookDispatcher(zerolog.Nop())
	d.RegisterHandler(orders)
	d.RegisterHandler(uninstall)

	handled, err := d.Dispatch(context.Background(), &domain.WebhookEvent{Topic: domain.TopicOrdersFulfilled, Verified: true})

	require.NoError(t, err)
	assert.True(t, handled)
	assert.Len(t, orders.seen, 1)
	assert.Empty(t, uninstall.seen)
}

func TestWebhookDispatcher_UnknownTopic(t *testing.T) {
	d := application.NewWebhookDispatcher(zerolog.Nop())
	d.RegisterHandler(&recordingHandler{topic: domain.TopicOrdersFulfilled})

	handled, err := d.Dispatch(context.Background(), &domain.WebhookEvent{Topic: "products/create", Verified: true})

	assert.NoError(t, err)
	assert.False(t, handled)
}

func TestWebhookDispatcher_RefusesUnverified(t *testing.T) {
	h := &recordingHandler{topic: domain.TopicOrdersFulfilled}
	d := application.NewWebhookDispatcher(zerolog.Nop())
	d.RegisterHandler(h)

	_, err := d.Dispatch(context.Background(), &domain.WebhookEvent{Topic: domain.TopicOrdersFulfilled})

	assert.ErrorIs(t, err, application.ErrUnverifiedEvent)
	assert.Empty(t, h.seen)
}

func TestWebhookDispatcher_JoinsHandlerErrors(t *testing.T) {
	boom := errors.New("boom")
	first := &recordingHandler{topic: domain.TopicAppUninstalled, err: boom}
	second := &recordingHandler{topic: domain.TopicAppUninstalled}
	d := application.NewWebhookDispatcher(zerolog.Nop())
	d.RegisterHandler(first)
	d.RegisterHandler(second)

	handled, err := d.Dispatch(context.Background(), &domain.WebhookEvent{Topic: domain.TopicAppUninstalled, Verified: true})

	assert.True(t, handled)
	assert.ErrorIs(t, err, boom)
	assert.Len(t, second.seen, 1)
}
