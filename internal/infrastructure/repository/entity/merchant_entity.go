package entity

import (
	"time"

	"refundsafe-shopify-layer/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MongoMerchantDoc represents a merchant in MongoDB
type MongoMerchantDoc struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	ShopDomain    string             `bson:"shop_domain"`
	AccessToken   string             `bson:"access_token"`
	InstalledAt   time.Time          `bson:"installed_at"`
	UninstalledAt *time.Time         `bson:"uninstalled_at"`
	CreatedAt     time.Time          `bson:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoMerchantDoc) ToDomain() *domain.Merchant {
	m := &domain.Merchant{
		ShopDomain:  d.ShopDomain,
		AccessToken: d.AccessToken,
		InstalledAt: d.InstalledAt.UTC(),
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
	if d.UninstalledAt != nil {
		t := d.UninstalledAt.UTC()
		m.UninstalledAt = &t
	}
	return m
}
