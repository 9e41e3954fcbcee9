package repository

import (
	"context"
	"sync"
	"time"

	"refundsafe-shopify-layer/internal/domain"
	"refundsafe-shopify-layer/internal/ports"
)

// MemoryMerchantRepository keeps merchants in process memory. It is meant for local
// development and tests; records are lost on restart.
type MemoryMerchantRepository struct {
	mu        sync.Mutex
	merchants map[string]domain.Merchant
	now       func() time.Time
}

// NewMemoryMerchantRepository creates an empty in-memory merchant repository
func NewMemoryMerchantRepository() *MemoryMerchantRepository {
	return &MemoryMerchantRepository{
		merchants: make(map[string]domain.Merchant),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

var _ ports.MerchantStore = (*MemoryMerchantRepository)(nil)

func (r *MemoryMerchantRepository) Upsert(_ context.Context, shopDomain string, encodedToken string, installedAt time.Time) (*domain.Merchant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m := r.merchants[shopDomain]
	m.ShopDomain = shopDomain
	m.Reinstall(encodedToken, installedAt)
	m.UpdatedAt = r.now()
	r.merchants[shopDomain] = m

	return clone(m), nil
}

func (r *MemoryMerchantRepository) MarkUninstalled(_ context.Context, shopDomain string) (*domain.Merchant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.merchants[shopDomain]
	if !ok {
		return nil, domain.ErrMerchantNotFound
	}
	m.MarkUninstalled(r.now())
	r.merchants[shopDomain] = m

	return clone(m), nil
}

func (r *MemoryMerchantRepository) Get(_ context.Context, shopDomain string) (*domain.Merchant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.merchants[shopDomain]
	if !ok {
		return nil, domain.ErrMerchantNotFound
	}
	return clone(m), nil
}

// Len returns the number of stored merchants.
func (r *MemoryMerchantRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.merchants)
}

func clone(m domain.Merchant) *domain.Merchant {
	if m.UninstalledAt != nil {
		t := *m.UninstalledAt
		m.UninstalledAt = &t
	}
	return &m
}
