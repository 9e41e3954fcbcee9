package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"refundsafe-shopify-layer/internal/domain"
	"refundsafe-shopify-layer/internal/ports"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MerchantsSchema creates the merchants table used by PostgresMerchantRepository.
const MerchantsSchema = `
CREATE TABLE IF NOT EXISTS merchants (
	shop_domain    TEXT PRIMARY KEY,
	access_token   TEXT NOT NULL,
	installed_at   TIMESTAMPTZ NOT NULL,
	uninstalled_at TIMESTAMPTZ,
	created_at     TIMESTAMPTZ NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL
)`

const (
	merchantColumns = `shop_domain, access_token, installed_at, uninstalled_at, created_at, updated_at`

	upsertMerchantSQL = `
INSERT INTO merchants (shop_domain, access_token, installed_at, uninstalled_at, created_at, updated_at)
VALUES ($1, $2, $3, NULL, $3, $4)
ON CONFLICT (shop_domain) DO UPDATE SET
	access_token   = EXCLUDED.access_token,
	installed_at   = EXCLUDED.installed_at,
	uninstalled_at = NULL,
	updated_at     = EXCLUDED.updated_at
RETURNING ` + merchantColumns

	markUninstalledSQL = `
UPDATE merchants
SET uninstalled_at = COALESCE(uninstalled_at, $2), updated_at = $2
WHERE shop_domain = $1
RETURNING ` + merchantColumns

	getMerchantSQL = `SELECT ` + merchantColumns + ` FROM merchants WHERE shop_domain = $1`
)

// PostgresMerchantRepository implements MerchantStore on a pgx pool
type PostgresMerchantRepository struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewPostgresMerchantRepository creates a new Postgres merchant repository
func NewPostgresMerchantRepository(pool *pgxpool.Pool) *PostgresMerchantRepository {
	return &PostgresMerchantRepository{
		pool: pool,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

var _ ports.MerchantStore = (*PostgresMerchantRepository)(nil)

// Migrate creates the merchants table if it does not exist.
func (r *PostgresMerchantRepository) Migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, MerchantsSchema); err != nil {
		return fmt.Errorf("failed to migrate merchants table: %w", err)
	}
	return nil
}

func (r *PostgresMerchantRepository) Upsert(ctx context.Context, shopDomain string, encodedToken string, installedAt time.Time) (*domain.Merchant, error) {
	row := r.pool.QueryRow(ctx, upsertMerchantSQL, shopDomain, encodedToken, installedAt, r.now())
	m, err := scanMerchant(row)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to save merchant: %w", domain.ErrPersistence, err)
	}
	return m, nil
}

func (r *PostgresMerchantRepository) MarkUninstalled(ctx context.Context, shopDomain string) (*domain.Merchant, error) {
	row := r.pool.QueryRow(ctx, markUninstalledSQL, shopDomain, r.now())
	m, err := scanMerchant(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrMerchantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to mark merchant uninstalled: %w", domain.ErrPersistence, err)
	}
	return m, nil
}

func (r *PostgresMerchantRepository) Get(ctx context.Context, shopDomain string) (*domain.Merchant, error) {
	m, err := scanMerchant(r.pool.QueryRow(ctx, getMerchantSQL, shopDomain))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrMerchantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get merchant: %w", domain.ErrPersistence, err)
	}
	return m, nil
}

func scanMerchant(row pgx.Row) (*domain.Merchant, error) {
	var m domain.Merchant
	if err := row.Scan(&m.ShopDomain, &m.AccessToken, &m.InstalledAt, &m.UninstalledAt, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}
