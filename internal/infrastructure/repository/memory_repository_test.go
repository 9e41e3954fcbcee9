package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"refundsafe-shopify-layer/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestMemoryMerchantRepository_UpsertCreatesMerchant(t *testing.T) {
	repo := NewMemoryMerchantRepository()
	installed := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
	repo.now = fixedClock(installed)

	m, err := repo.Upsert(context.Background(), "test-store.myshopify.com", "enc-token", installed)
	require.NoError(t, err)

	assert.Equal(t, "test-store.myshopify.com", m.ShopDomain)
	assert.Equal(t, "enc-token", m.AccessToken)
	assert.Equal(t, installed, m.InstalledAt)
	assert.Equal(t, installed, m.CreatedAt)
	assert.Nil(t, m.UninstalledAt)
	assert.True(t, m.IsActive())
	assert.Equal(t, 1, repo.Len())
}

func TestMemoryMerchantRepository_ReinstallOverwritesAndReactivates(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryMerchantRepository()
	first := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
	second := first.Add(48 * time.Hour)

	_, err := repo.Upsert(ctx, "shop.myshopify.com", "old", first)
	require.NoError(t, err)
	_, err = repo.MarkUninstalled(ctx, "shop.myshopify.com")
	require.NoError(t, err)

	m, err := repo.Upsert(ctx, "shop.myshopify.com", "new", second)
	require.NoError(t, err)

	assert.Equal(t, "new", m.AccessToken)
	assert.Equal(t, second, m.InstalledAt)
	assert.Equal(t, first, m.CreatedAt)
	assert.Nil(t, m.UninstalledAt)
	assert.Equal(t, 1, repo.Len())
}

func TestMemoryMerchantRepository_MarkUninstalledKeepsOtherFields(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryMerchantRepository()
	installed := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
	uninstalled := installed.Add(time.Hour)

	_, err := repo.Upsert(ctx, "shop.myshopify.com", "enc-token", installed)
	require.NoError(t, err)

	repo.now = fixedClock(uninstalled)
	m, err := repo.MarkUninstalled(ctx, "shop.myshopify.com")
	require.NoError(t, err)

	require.NotNil(t, m.UninstalledAt)
	assert.Equal(t, uninstalled, *m.UninstalledAt)
	assert.Equal(t, "enc-token", m.AccessToken)
	assert.Equal(t, installed, m.InstalledAt)
	assert.Equal(t, installed, m.CreatedAt)
	assert.False(t, m.IsActive())
}

func TestMemoryMerchantRepository_MarkUninstalledIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryMerchantRepository()
	installed := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)

	_, err := repo.Upsert(ctx, "shop.myshopify.com", "enc-token", installed)
	require.NoError(t, err)

	repo.now = fixedClock(installed.Add(time.Hour))
	first, err := repo.MarkUninstalled(ctx, "shop.myshopify.com")
	require.NoError(t, err)

	repo.now = fixedClock(installed.Add(2 * time.Hour))
	second, err := repo.MarkUninstalled(ctx, "shop.myshopify.com")
	require.NoError(t, err)

	assert.Equal(t, *first.UninstalledAt, *second.UninstalledAt)
}

func TestMemoryMerchantRepository_UnknownShop(t *testing.T) {
	repo := NewMemoryMerchantRepository()

	_, err := repo.MarkUninstalled(context.Background(), "ghost.myshopify.com")
	assert.ErrorIs(t, err, domain.ErrMerchantNotFound)

	_, err = repo.Get(context.Background(), "ghost.myshopify.com")
	assert.ErrorIs(t, err, domain.ErrMerchantNotFound)
	assert.Equal(t, 0, repo.Len())
}

func TestMemoryMerchantRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryMerchantRepository()
	installed := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)

	m, err := repo.Upsert(ctx, "shop.myshopify.com", "enc-token", installed)
	require.NoError(t, err)
	m.AccessToken = "mutated"

	got, err := repo.Get(ctx, "shop.myshopify.com")
	require.NoError(t, err)
	assert.Equal(t, "enc-token", got.AccessToken)
}

func TestMemoryMerchantRepository_ConcurrentUpserts(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryMerchantRepository()
	installed := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			shop := fmt.Sprintf("shop-%d.myshopify.com", i%10)
			_, err := repo.Upsert(ctx, shop, fmt.Sprintf("token-%d", i), installed)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, repo.Len())
}
