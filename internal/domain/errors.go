package domain

import "errors"

// Error kinds surfaced by the authorization and webhook flows. Callers wrap them
// with context and match with errors.Is.
var (
	// ErrClientInput covers missing or malformed shop, code, or state.
	ErrClientInput = errors.New("invalid request parameters")

	// ErrSecurityVerification covers state and signature mismatches. Its message is
	// deliberately generic and must not reveal which check failed.
	ErrSecurityVerification = errors.New("request verification failed")

	// ErrUpstreamExchange is returned when the authorization code could not be
	// exchanged. Codes are single-use, so it is never retried.
	ErrUpstreamExchange = errors.New("token exchange failed")

	// ErrPersistence wraps merchant store failures.
	ErrPersistence = errors.New("merchant persistence failed")

	// ErrSubscription wraps a single topic subscription failure.
	ErrSubscription = errors.New("webhook subscription failed")

	// ErrSubscriptionExists marks a topic that is already subscribed for the address.
	ErrSubscriptionExists = errors.New("webhook subscription already exists")

	// ErrMerchantNotFound is returned by stores when no record exists for a shop.
	ErrMerchantNotFound = errors.New("merchant not found")
)
