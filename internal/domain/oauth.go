package domain

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const (
	// ShopDomainSuffix is the storefront domain every installable shop must live under.
	ShopDomainSuffix = ".myshopify.com"

	// StateTTL bounds how long an issued state token may be redeemed.
	StateTTL = 600 * time.Second

	stateBytes = 16
)

var shopDomainPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*\.myshopify\.com$`)

// NormalizeShopDomain strips an optional scheme prefix and checks that what remains
// is a single *.myshopify.com hostname.
func NormalizeShopDomain(raw string) (string, error) {
	shop := strings.TrimSpace(raw)
	shop = strings.TrimPrefix(shop, "https://")
	shop = strings.TrimPrefix(shop, "http://")
	shop = strings.ToLower(shop)

	if shop == "" || !strings.HasSuffix(shop, ShopDomainSuffix) || !shopDomainPattern.MatchString(shop) {
		return "", fmt.Errorf("%w: invalid shop", ErrClientInput)
	}
	return shop, nil
}

// AuthorizationState is a single-use anti-CSRF token bound to the initiating client.
type AuthorizationState struct {
	Value     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// NewAuthorizationState mints a state token with 128 bits of entropy.
func NewAuthorizationState(now time.Time) (AuthorizationState, error) {
	b := make([]byte, stateBytes)
	if _, err := rand.Read(b); err != nil {
		return AuthorizationState{}, fmt.Errorf("failed to generate state: %w", err)
	}
	return AuthorizationState{
		Value:     hex.EncodeToString(b),
		IssuedAt:  now,
		ExpiresAt: now.Add(StateTTL),
	}, nil
}

// CallbackRequest is the inbound authorization-completion request.
type CallbackRequest struct {
	Shop  string
	Code  string
	State string
	HMAC  string
	// Query holds every parameter as received, used for signature canonicalization.
	Query url.Values
	// IssuedState is the state value held by the client's credential, empty when absent.
	IssuedState string
}

// NewCallbackRequest extracts the well-known parameters from a callback query.
func NewCallbackRequest(query url.Values, issuedState string) CallbackRequest {
	return CallbackRequest{
		Shop:        query.Get("shop"),
		Code:        query.Get("code"),
		State:       query.Get("state"),
		HMAC:        query.Get("hmac"),
		Query:       query,
		IssuedState: issuedState,
	}
}
