package domain

// Webhook topics this app subscribes to.
const (
	TopicDisputesCreate  = "shopify_payments/disputes/create"
	TopicDisputesUpdate  = "shopify_payments/disputes/update"
	TopicOrdersFulfilled = "orders/fulfilled"
	TopicAppUninstalled  = "app/uninstalled"
)

// DefaultWebhookTopics is the fixed topic set requested after every install.
func DefaultWebhookTopics() []string {
	return []string{
		TopicDisputesCreate,
		TopicDisputesUpdate,
		TopicOrdersFulfilled,
		TopicAppUninstalled,
	}
}

// WebhookEvent is an inbound delivery. Payload is the raw, unparsed body.
type WebhookEvent struct {
	Topic     string
	Shop      string
	WebhookID string
	Payload   []byte
	Verified  bool
}

// WebhookSubscription is a subscription request sent to Shopify; it is not stored locally.
type WebhookSubscription struct {
	Topic   string
	Address string
	Format  string
}

// SubscriptionOutcome records the result of subscribing a single topic.
type SubscriptionOutcome struct {
	Topic     string
	WebhookID uint64
	Duplicate bool
	Err       error
}

// OK reports whether the topic ended up subscribed, counting an existing
// subscription as success.
func (o SubscriptionOutcome) OK() bool {
	return o.Err == nil || o.Duplicate
}
