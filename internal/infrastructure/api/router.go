package api

import (
	"net/http"

	"refundsafe-shopify-layer/docs"
	"refundsafe-shopify-layer/internal/application"
	"refundsafe-shopify-layer/internal/infrastructure/metrics"
	securitymiddleware "refundsafe-shopify-layer/internal/infrastructure/middleware"
	"refundsafe-shopify-layer/internal/ports"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
)

// PayloadVerifier checks a webhook body against its signature header.
type PayloadVerifier interface {
	Verify(payload []byte, signature string) error
}

// Dependencies are the shared, already-constructed objects the routes use.
type Dependencies struct {
	OAuth           *application.OAuthService
	Dispatcher      *application.WebhookDispatcher
	WebhookVerifier PayloadVerifier
	Ledger          ports.DeliveryLedger
	Metrics         *metrics.Metrics
	Gatherer        prometheus.Gatherer
	Logger          zerolog.Logger
	AllowedOrigins  []string
}

// NewRouter builds the HTTP surface.
func NewRouter(d Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(securitymiddleware.SecurityHeadersMiddleware())
	r.Use(securitymiddleware.AuditLoggingMiddleware(d.Logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))

	r.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(docs.SwaggerJSON)
	})
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Route("/api", func(r chi.Router) {
		r.Get("/auth/shopify", oauthInitHandler(d.OAuth, d.Logger))
		r.Get("/auth/shopify/callback", oauthCallbackHandler(d.OAuth, d.Metrics, d.Logger))
		r.Post("/webhooks/shopify", webhookHandler(d.WebhookVerifier, d.Ledger, d.Dispatcher, d.Metrics, d.Logger))
	})

	return r
}
