package application

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/url"
	"time"

	"refundsafe-shopify-layer/internal/domain"
	"refundsafe-shopify-layer/internal/ports"

	"github.com/rs/zerolog"
)

// OnboardPath is where a merchant lands after a completed install.
const OnboardPath = "/onboard"

// InstallRequest is the outcome of starting an install: where to send the merchant
// and the state the client must present on return.
type InstallRequest struct {
	Shop         string
	State        domain.AuthorizationState
	AuthorizeURL string
}

// InstallResult describes a completed install.
type InstallResult struct {
	Shop        string
	RedirectURL string
	Merchant    *domain.Merchant
	// Persisted is false when the token exchange succeeded but the merchant
	// record could not be written.
	Persisted     bool
	Subscriptions []domain.SubscriptionOutcome
}

// OAuthService runs the authorization-code install flow
// It depends on ports (interfaces) not concrete implementations
type OAuthService struct {
	client       ports.ShopifyClient
	verifier     ports.CallbackVerifier
	tokens       ports.TokenCodec
	store        ports.MerchantStore
	webhooks     *WebhookManager
	logger       zerolog.Logger
	storeTimeout time.Duration
	now          func() time.Time
}

// NewOAuthService creates a new install flow service
func NewOAuthService(
	client ports.ShopifyClient,
	verifier ports.CallbackVerifier,
	tokens ports.TokenCodec,
	store ports.MerchantStore,
	webhooks *WebhookManager,
	logger zerolog.Logger,
	storeTimeout time.Duration,
) *OAuthService {
	return &OAuthService{
		client:       client,
		verifier:     verifier,
		tokens:       tokens,
		store:        store,
		webhooks:     webhooks,
		logger:       logger,
		storeTimeout: storeTimeout,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// BeginInstall validates the shop and mints a fresh state token bound to the
// authorization URL.
func (s *OAuthService) BeginInstall(rawShop string) (*InstallRequest, error) {
	shop, err := domain.NormalizeShopDomain(rawShop)
	if err != nil {
		s.logger.Warn().Str("shop", rawShop).Msg("Rejected install request for invalid shop")
		return nil, err
	}

	state, err := domain.NewAuthorizationState(s.now())
	if err != nil {
		s.logger.Error().Err(err).Str("shop", shop).Msg("Failed to generate state")
		return nil, err
	}

	s.logger.Info().
		Str("shop", shop).
		Time("stateExpiresAt", state.ExpiresAt).
		Msg("Generated OAuth authorization URL")

	return &InstallRequest{
		Shop:         shop,
		State:        state,
		AuthorizeURL: s.client.AuthorizeURL(shop, state.Value),
	}, nil
}

// CompleteInstall verifies the callback, exchanges the code, stores the merchant,
// and subscribes the default webhook topics.
//
// Verification failures return before any outbound call. The exchange is attempted
// exactly once. Store and subscription failures do not fail the install.
func (s *OAuthService) CompleteInstall(ctx context.Context, req domain.CallbackRequest) (*InstallResult, error) {
	if req.Shop == "" || req.Code == "" || req.State == "" {
		return nil, fmt.Errorf("%w: missing required parameters", domain.ErrClientInput)
	}

	shop, err := domain.NormalizeShopDomain(req.Shop)
	if err != nil {
		return nil, err
	}

	if !stateMatches(req.IssuedState, req.State) {
		s.logger.Warn().Str("shop", shop).Msg("OAuth callback rejected: state check failed")
		return nil, fmt.Errorf("%w: state", domain.ErrSecurityVerification)
	}

	if err := s.verifier.Verify(req.Query); err != nil {
		s.logger.Warn().Str("shop", shop).Msg("OAuth callback rejected: signature check failed")
		return nil, err
	}

	accessToken, err := s.client.ExchangeToken(ctx, shop, req.Code)
	if err != nil {
		s.logger.Error().Err(err).Str("shop", shop).Msg("Failed to exchange token")
		if !errors.Is(err, domain.ErrUpstreamExchange) {
			err = fmt.Errorf("%w: %w", domain.ErrUpstreamExchange, err)
		}
		return nil, err
	}

	result := &InstallResult{
		Shop:        shop,
		RedirectURL: OnboardPath + "?shop=" + url.QueryEscape(shop),
	}

	merchant, err := s.saveMerchant(ctx, shop, accessToken)
	if err != nil {
		// Known gap: the merchant is redirected as installed without a stored record.
		s.logger.Error().Err(err).Str("shop", shop).Msg("Failed to save merchant; continuing install")
	} else {
		result.Merchant = merchant
		result.Persisted = true
	}

	result.Subscriptions = s.webhooks.SubscribeAll(ctx, shop, accessToken)

	s.logger.Info().
		Str("shop", shop).
		Bool("persisted", result.Persisted).
		Msg("OAuth install completed")

	return result, nil
}

func (s *OAuthService) saveMerchant(ctx context.Context, shop string, accessToken string) (*domain.Merchant, error) {
	encoded, err := s.tokens.Encode(accessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	merchant, err := s.store.Upsert(storeCtx, shop, encoded, s.now())
	if err != nil {
		if !errors.Is(err, domain.ErrPersistence) {
			err = fmt.Errorf("%w: %w", domain.ErrPersistence, err)
		}
		return nil, err
	}
	return merchant, nil
}

func stateMatches(issued, presented string) bool {
	if issued == "" || presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(issued), []byte(presented)) == 1
}
