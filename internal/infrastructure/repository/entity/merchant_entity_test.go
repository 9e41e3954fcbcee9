package entity_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"

	"refundsafe-shopify-layer/internal/domain"
	"refundsafe-shopify-layer/internal/infrastructure/repository/entity"
)

func TestMongoMerchantDoc_ToDomain(t *testing.T) {
	installed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	uninstalled := installed.Add(time.Hour)
	doc := &entity.MongoMerchantDoc{
		ShopDomain:    "test-store.myshopify.com",
		AccessToken:   "encoded",
		InstalledAt:   installed.In(time.FixedZone("EST", -5*3600)),
		UninstalledAt: &uninstalled,
		CreatedAt:     installed,
		UpdatedAt:     uninstalled,
	}

	assert.Equal(t, &domain.Merchant{
		ShopDomain:    "test-store.myshopify.com",
		AccessToken:   "encoded",
		InstalledAt:   installed,
		UninstalledAt: &uninstalled,
		CreatedAt:     installed,
		UpdatedAt:     uninstalled,
	}, doc.ToDomain())
}

func TestMongoMerchantDoc_ActiveMerchantHasNoUninstalledAt(t *testing.T) {
	doc := &entity.MongoMerchantDoc{ShopDomain: "a.myshopify.com", InstalledAt: time.Now()}

	m := doc.ToDomain()

	assert.Nil(t, m.UninstalledAt)
	assert.True(t, m.IsActive())
}

func TestMongoMerchantDoc_BSONRoundTrip(t *testing.T) {
	raw, err := bson.Marshal(bson.M{
		"shop_domain":    "a.myshopify.com",
		"access_token":   "x",
		"installed_at":   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		"uninstalled_at": nil,
	})
	assert.NoError(t, err)

	var doc entity.MongoMerchantDoc
	assert.NoError(t, bson.Unmarshal(raw, &doc))
	assert.Equal(t, "a.myshopify.com", doc.ShopDomain)
	assert.Equal(t, "x", doc.AccessToken)
	assert.Nil(t, doc.UninstalledAt)
	assert.True(t, doc.ID.IsZero())
}
