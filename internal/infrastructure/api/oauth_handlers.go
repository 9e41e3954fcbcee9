package api

import (
	"errors"
	"net/http"

	"refundsafe-shopify-layer/internal/application"
	"refundsafe-shopify-layer/internal/domain"
	"refundsafe-shopify-layer/internal/infrastructure/metrics"

	"github.com/rs/zerolog"
)

// StateCookieName holds the state issued at initiation until the callback.
const StateCookieName = "shopify_state"

// Callback failures share one body so a caller cannot tell which check failed.
const (
	invalidShopMessage     = "Invalid shop parameter"
	invalidCallbackMessage = "Invalid authorization request"
	exchangeFailedMessage  = "Failed to complete installation"
)

// oauthInitHandler initiates the OAuth flow
func oauthInitHandler(svc *application.OAuthService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := svc.BeginInstall(r.URL.Query().Get("shop"))
		if err != nil {
			if errors.Is(err, domain.ErrClientInput) {
				http.Error(w, invalidShopMessage, http.StatusBadRequest)
				return
			}
			logger.Error().Err(err).Msg("Failed to start OAuth install")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		http.SetCookie(w, stateCookie(req.State.Value, int(domain.StateTTL.Seconds())))
		http.Redirect(w, r, req.AuthorizeURL, http.StatusFound)
	}
}

// oauthCallbackHandler handles the OAuth callback
func oauthCallbackHandler(svc *application.OAuthService, m *metrics.Metrics, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		issued := ""
		if c, err := r.Cookie(StateCookieName); err == nil {
			issued = c.Value
		}

		result, err := svc.CompleteInstall(r.Context(), domain.NewCallbackRequest(r.URL.Query(), issued))
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrUpstreamExchange):
			m.Install(metrics.ResultUpstreamError)
			// The code is spent; the state cannot be reused either.
			http.SetCookie(w, stateCookie("", -1))
			http.Error(w, exchangeFailedMessage, http.StatusBadGateway)
			return
		case errors.Is(err, domain.ErrSecurityVerification):
			m.Install(metrics.ResultRejected)
			http.Error(w, invalidCallbackMessage, http.StatusBadRequest)
			return
		default:
			m.Install(metrics.ResultClientError)
			http.Error(w, invalidCallbackMessage, http.StatusBadRequest)
			return
		}

		if result.Persisted {
			m.Install(metrics.ResultSuccess)
		} else {
			m.Install(metrics.ResultNotPersisted)
			m.StoreError("upsert")
		}
		for _, o := range result.Subscriptions {
			switch {
			case o.Duplicate:
				m.Subscription(o.Topic, metrics.ResultDuplicate)
			case o.Err != nil:
				m.Subscription(o.Topic, metrics.ResultError)
			default:
				m.Subscription(o.Topic, metrics.ResultSuccess)
			}
		}

		logger.Info().
			Str("shop", result.Shop).
			Str("redirect", result.RedirectURL).
			Msg("Redirecting merchant after successful OAuth")

		http.SetCookie(w, stateCookie("", -1))
		http.Redirect(w, r, result.RedirectURL, http.StatusFound)
	}
}

func stateCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     StateCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}
