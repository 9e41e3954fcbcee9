package ports

import (
	"context"
	"time"

	"refundsafe-shopify-layer/internal/domain"
)

// MerchantStore persists merchant installations keyed by shop domain.
// Both write operations must be safe to repeat for the same key and safe under
// concurrent calls; for concurrent upserts the last writer wins.
type MerchantStore interface {
	// Upsert creates or overwrites the merchant record, reactivating it if it was
	// previously uninstalled.
	Upsert(ctx context.Context, shopDomain string, encodedToken string, installedAt time.Time) (*domain.Merchant, error)

	// MarkUninstalled sets the uninstallation timestamp, leaving every other field
	// untouched. It returns domain.ErrMerchantNotFound for unknown shops.
	MarkUninstalled(ctx context.Context, shopDomain string) (*domain.Merchant, error)

	// Get returns the merchant or domain.ErrMerchantNotFound.
	Get(ctx context.Context, shopDomain string) (*domain.Merchant, error)
}

// DeliveryLedger remembers webhook delivery IDs so redeliveries are not dispatched twice.
type DeliveryLedger interface {
	// FirstSeen records id and reports whether it had not been recorded before.
	FirstSeen(ctx context.Context, id string) (bool, error)
}
