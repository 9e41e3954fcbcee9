package shopify

import (
	"fmt"

	"refundsafe-shopify-layer/internal/ports"

	"github.com/rs/zerolog"
)

// TokenManager encodes access tokens before storage and decodes them after retrieval
type TokenManager struct {
	codec  ports.TokenCodec
	logger zerolog.Logger
}

// NewTokenManager creates a new token manager
func NewTokenManager(codec ports.TokenCodec, logger zerolog.Logger) *TokenManager {
	return &TokenManager{
		codec:  codec,
		logger: logger,
	}
}

var _ ports.TokenCodec = (*TokenManager)(nil)

// Encode converts an access token to its at-rest form before storage
func (tm *TokenManager) Encode(token string) (string, error) {
	if token == "" {
		return "", fmt.Errorf("token cannot be empty")
	}
	encoded, err := tm.codec.Encode(token)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt access token: %w", err)
	}
	return encoded, nil
}

// Decode recovers an access token after retrieval
func (tm *TokenManager) Decode(encryptedToken string) (string, error) {
	if encryptedToken == "" {
		return "", fmt.Errorf("encrypted token cannot be empty")
	}
	token, err := tm.codec.Decode(encryptedToken)
	if err != nil {
		tm.logger.Warn().Err(err).Msg("Stored access token could not be decoded")
		return "", fmt.Errorf("failed to decrypt access token: %w", err)
	}
	return token, nil
}
