package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"refundsafe-shopify-layer/internal/domain"
	"refundsafe-shopify-layer/internal/infrastructure/repository/entity"
	"refundsafe-shopify-layer/internal/ports"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoMerchantRepository implements MerchantStore using MongoDB
type MongoMerchantRepository struct {
	merchants *mongo.Collection
	now       func() time.Time
}

// NewMongoMerchantRepository creates a new MongoDB merchant repository
func NewMongoMerchantRepository(db *mongo.Database) *MongoMerchantRepository {
	return &MongoMerchantRepository{
		merchants: db.Collection("merchants"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

var _ ports.MerchantStore = (*MongoMerchantRepository)(nil)

// EnsureIndexes creates the unique index on shop_domain that makes upserts atomic per shop.
func (r *MongoMerchantRepository) EnsureIndexes(ctx context.Context) error {
	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "shop_domain", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := r.merchants.Indexes().CreateOne(ctx, indexModel); err != nil {
		return fmt.Errorf("failed to create merchant index: %w", err)
	}
	return nil
}

// Upsert saves or overwrites a merchant, clearing any uninstallation mark
func (r *MongoMerchantRepository) Upsert(ctx context.Context, shopDomain string, encodedToken string, installedAt time.Time) (*domain.Merchant, error) {
	filter := bson.M{"shop_domain": shopDomain}
	update := merchantUpsertUpdate(encodedToken, installedAt, r.now())
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc entity.MongoMerchantDoc
	if err := r.merchants.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: failed to save merchant: %w", domain.ErrPersistence, err)
	}

	return doc.ToDomain(), nil
}

// MarkUninstalled sets uninstalled_at once; repeated calls keep the first timestamp
func (r *MongoMerchantRepository) MarkUninstalled(ctx context.Context, shopDomain string) (*domain.Merchant, error) {
	filter := bson.M{"shop_domain": shopDomain}
	update := markUninstalledUpdate(r.now())
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc entity.MongoMerchantDoc
	err := r.merchants.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrMerchantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to mark merchant uninstalled: %w", domain.ErrPersistence, err)
	}

	return doc.ToDomain(), nil
}

// Get retrieves a merchant by shop domain
func (r *MongoMerchantRepository) Get(ctx context.Context, shopDomain string) (*domain.Merchant, error) {
	var doc entity.MongoMerchantDoc
	err := r.merchants.FindOne(ctx, bson.M{"shop_domain": shopDomain}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrMerchantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get merchant: %w", domain.ErrPersistence, err)
	}

	return doc.ToDomain(), nil
}

// merchantUpsertUpdate overwrites the install fields and clears any uninstall mark.
// created_at is only written when the upsert inserts.
func merchantUpsertUpdate(encodedToken string, installedAt time.Time, now time.Time) bson.M {
	return bson.M{
		"$set": bson.M{
			"access_token":   encodedToken,
			"installed_at":   installedAt,
			"uninstalled_at": nil,
			"updated_at":     now,
		},
		"$setOnInsert": bson.M{
			"created_at": installedAt,
		},
	}
}

// markUninstalledUpdate is an aggregation pipeline so an existing uninstalled_at wins.
func markUninstalledUpdate(now time.Time) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"uninstalled_at": bson.M{"$ifNull": bson.A{"$uninstalled_at", now}},
			"updated_at":     now,
		}}},
	}
}
