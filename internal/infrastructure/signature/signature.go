// Package signature implements the HMAC-SHA256 scheme Shopify uses to sign OAuth
// callbacks and webhook deliveries.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// Encoding selects how a digest is rendered on the wire.
type Encoding int

const (
	// Hex is lowercase hexadecimal, used by OAuth callback query strings.
	Hex Encoding = iota
	// Base64 is standard padded base64, used by the webhook HMAC header.
	Base64
)

func (e Encoding) String() string {
	switch e {
	case Hex:
		return "hex"
	case Base64:
		return "base64"
	default:
		return "unknown"
	}
}

// Parameters excluded from the canonical query string.
const (
	ParamHMAC      = "hmac"
	ParamSignature = "signature"
)

// Canonicalize builds the string Shopify signs for a callback query: every
// parameter except hmac and signature, keys sorted byte-wise ascending, rendered as
// key=value with multiple values joined by a comma, pairs joined by &.
func Canonicalize(values url.Values) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		if k == ParamHMAC || k == ParamSignature {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(strings.Join(values[k], ","))
	}
	return b.String()
}

// Digest returns the raw HMAC-SHA256 of msg keyed by secret.
func Digest(secret, msg []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write(msg)
	return mac.Sum(nil)
}

// Sign returns the encoded HMAC-SHA256 of msg.
func Sign(secret, msg []byte, enc Encoding) string {
	sum := Digest(secret, msg)
	if enc == Base64 {
		return base64.StdEncoding.EncodeToString(sum)
	}
	return hex.EncodeToString(sum)
}

// Verify recomputes the digest of msg and compares it with supplied in constant time.
// A supplied digest that does not decode, or decodes to the wrong length, fails.
func Verify(secret, msg []byte, supplied string, enc Encoding) bool {
	if supplied == "" {
		return false
	}
	got, err := decode(supplied, enc)
	if err != nil {
		return false
	}
	want := Digest(secret, msg)
	if len(got) != len(want) {
		return false
	}
	return subtle.ConstantTimeCompare(got, want) == 1
}

// SignQuery returns the hex digest Shopify would attach to values.
func SignQuery(secret []byte, values url.Values) string {
	return Sign(secret, []byte(Canonicalize(values)), Hex)
}

// VerifyQuery checks the hmac parameter of an OAuth callback query.
func VerifyQuery(secret []byte, values url.Values) bool {
	return Verify(secret, []byte(Canonicalize(values)), values.Get(ParamHMAC), Hex)
}

// SignPayload returns the base64 digest Shopify would send for a webhook body.
func SignPayload(secret, body []byte) string {
	return Sign(secret, body, Base64)
}

// VerifyPayload checks a webhook HMAC header against the exact raw body.
func VerifyPayload(secret, body []byte, header string) bool {
	return Verify(secret, body, header, Base64)
}

func decode(s string, enc Encoding) ([]byte, error) {
	if enc == Base64 {
		return base64.StdEncoding.DecodeString(s)
	}
	return hex.DecodeString(s)
}
