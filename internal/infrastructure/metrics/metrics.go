// Package metrics holds the Prometheus collectors for the install and webhook flows.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "shopify_layer"

// Result label values.
const (
	ResultSuccess          = "success"
	ResultClientError      = "client_error"
	ResultRejected         = "rejected"
	ResultUpstreamError    = "upstream_error"
	ResultNotPersisted     = "not_persisted"
	ResultDuplicate        = "duplicate"
	ResultError            = "error"
	ResultIgnored          = "ignored"
	ResultHandlerError     = "handler_error"
	ResultInvalidSignature = "invalid_signature"
)

// Metrics groups the collectors. The zero value is not usable; call New.
type Metrics struct {
	Installs            *prometheus.CounterVec
	WebhookDeliveries   *prometheus.CounterVec
	Subscriptions       *prometheus.CounterVec
	MerchantStoreErrors *prometheus.CounterVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Installs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "oauth_installs_total",
			Help:      "Authorization completions by result.",
		}, []string{"result"}),
		WebhookDeliveries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_deliveries_total",
			Help:      "Inbound webhook deliveries by topic and result.",
		}, []string{"topic", "result"}),
		Subscriptions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_subscriptions_total",
			Help:      "Webhook topic subscription attempts by topic and result.",
		}, []string{"topic", "result"}),
		MerchantStoreErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "merchant_store_errors_total",
			Help:      "Merchant store failures by operation.",
		}, []string{"op"}),
	}
}

func (m *Metrics) Install(result string) {
	m.Installs.WithLabelValues(result).Inc()
}

func (m *Metrics) Delivery(topic, result string) {
	m.WebhookDeliveries.WithLabelValues(topic, result).Inc()
}

func (m *Metrics) Subscription(topic, result string) {
	m.Subscriptions.WithLabelValues(topic, result).Inc()
}

func (m *Metrics) StoreError(op string) {
	m.MerchantStoreErrors.WithLabelValues(op).Inc()
}
