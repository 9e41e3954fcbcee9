package shopify_test

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"refundsafe-shopify-layer/internal/domain"
	"refundsafe-shopify-layer/internal/infrastructure/shopify"
	"refundsafe-shopify-layer/internal/infrastructure/signature"
)

func TestWebhookVerifier(t *testing.T) {
	body := []byte(`{"order_id": 123}`)
	verifier := shopify.NewWebhookVerifier("secret")

	require.NoError(t, verifier.Verify(body, signature.SignPayload([]byte("secret"), body)))

	err := verifier.Verify(body, signature.SignPayload([]byte("other"), body))
	assert.ErrorIs(t, err, domain.ErrSecurityVerification)
	assert.ErrorIs(t, err, shopify.ErrInvalidSignature)

	err = verifier.Verify(body, "")
	assert.ErrorIs(t, err, domain.ErrSecurityVerification)
	assert.ErrorIs(t, err, shopify.ErrMissingSignature)
}

func TestCallbackVerifier(t *testing.T) {
	query := url.Values{}
	query.Set("shop", "test-store.myshopify.com")
	query.Set("code", "abc")
	query.Set("state", "s")
	query.Set("hmac", signature.SignQuery([]byte("secret"), query))

	verifier := shopify.NewCallbackVerifier("secret")
	require.NoError(t, verifier.Verify(query))

	query.Set("hmac", tamper(query.Get("hmac")))
	err := verifier.Verify(query)
	assert.ErrorIs(t, err, domain.ErrSecurityVerification)

	query.Del("hmac")
	assert.ErrorIs(t, verifier.Verify(query), shopify.ErrMissingSignature)
}

func tamper(digest string) string {
	b := []byte(digest)
	if b[0] == 'a' {
		b[0] = 'b'
	} else {
		b[0] = 'a'
	}
	return string(b)
}
