package shopify

import (
	"errors"
	"net/url"

	"refundsafe-shopify-layer/internal/domain"
	"refundsafe-shopify-layer/internal/infrastructure/signature"
)

// Header names set by Shopify on webhook deliveries.
const (
	HeaderHMAC       = "X-Shopify-Hmac-Sha256"
	HeaderTopic      = "X-Shopify-Topic"
	HeaderShopDomain = "X-Shopify-Shop-Domain"
	HeaderWebhookID  = "X-Shopify-Webhook-Id"
)

var (
	ErrMissingSignature = errors.New("signature is required")
	ErrInvalidSignature = errors.New("invalid signature")
)

// WebhookVerifier checks the base64 HMAC Shopify attaches to webhook deliveries.
type WebhookVerifier struct {
	secret []byte
}

// NewWebhookVerifier creates a verifier keyed by the app's shared secret.
func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{secret: []byte(secret)}
}

// Verify checks hmacHeader against the exact raw payload. The payload must not have
// been decoded or re-encoded in any way.
func (v *WebhookVerifier) Verify(payload []byte, hmacHeader string) error {
	if hmacHeader == "" {
		return errors.Join(domain.ErrSecurityVerification, ErrMissingSignature)
	}
	if !signature.VerifyPayload(v.secret, payload, hmacHeader) {
		return errors.Join(domain.ErrSecurityVerification, ErrInvalidSignature)
	}
	return nil
}

// CallbackVerifier checks the hex hmac parameter on OAuth callback queries.
type CallbackVerifier struct {
	secret []byte
}

// NewCallbackVerifier creates a verifier keyed by the app's shared secret.
func NewCallbackVerifier(secret string) *CallbackVerifier {
	return &CallbackVerifier{secret: []byte(secret)}
}

// Verify canonicalizes query and compares the digest with its hmac parameter.
func (v *CallbackVerifier) Verify(query url.Values) error {
	if query.Get(signature.ParamHMAC) == "" {
		return errors.Join(domain.ErrSecurityVerification, ErrMissingSignature)
	}
	if !signature.VerifyQuery(v.secret, query) {
		return errors.Join(domain.ErrSecurityVerification, ErrInvalidSignature)
	}
	return nil
}
