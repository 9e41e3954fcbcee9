package application_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"refundsafe-shopify-layer/internal/domain"
	"refundsafe-shopify-layer/internal/infrastructure/repository"
)

type fakeShopify struct {
	mu            sync.Mutex
	exchangeCalls int
	exchangeToken string
	exchangeErr   error
	webhookErrs   map[string]error
	webhookDelay  time.Duration
	created       []domain.WebhookSubscription
}

func newFakeShopify() *fakeShopify {
	return &fakeShopify{
		exchangeToken: "shpat_test_token",
		webhookErrs:   map[string]error{},
	}
}

func (f *fakeShopify) AuthorizeURL(shop string, state string) string {
	return fmt.Sprintf("https://%s/admin/oauth/authorize?state=%s", shop, state)
}

func (f *fakeShopify) ExchangeToken(_ context.Context, _ string, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exchangeCalls++
	if f.exchangeErr != nil {
		return "", f.exchangeErr
	}
	return f.exchangeToken, nil
}

func (f *fakeShopify) CreateWebhook(ctx context.Context, _ string, _ string, sub domain.WebhookSubscription) (uint64, error) {
	if f.webhookDelay > 0 {
		select {
		case <-time.After(f.webhookDelay):
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, sub)
	if err := f.webhookErrs[sub.Topic]; err != nil {
		return 0, err
	}
	return uint64(len(f.created)), nil
}

type fakeStore struct {
	*repository.MemoryMerchantRepository
	upsertErr error
	markErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{MemoryMerchantRepository: repository.NewMemoryMerchantRepository()}
}

func (s *fakeStore) Upsert(ctx context.Context, shopDomain string, encodedToken string, installedAt time.Time) (*domain.Merchant, error) {
	if s.upsertErr != nil {
		return nil, s.upsertErr
	}
	return s.MemoryMerchantRepository.Upsert(ctx, shopDomain, encodedToken, installedAt)
}

func (s *fakeStore) MarkUninstalled(ctx context.Context, shopDomain string) (*domain.Merchant, error) {
	if s.markErr != nil {
		return nil, s.markErr
	}
	return s.MemoryMerchantRepository.MarkUninstalled(ctx, shopDomain)
}
