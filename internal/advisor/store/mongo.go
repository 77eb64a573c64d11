package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kart-io/loan-advisor/internal/model"
)

// MongoCatalog reads products from a MongoDB collection.
type MongoCatalog struct {
	coll *mongo.Collection
}

var (
	_ Catalog = (*MongoCatalog)(nil)
	_ Seeder  = (*MongoCatalog)(nil)
)

// NewMongoCatalog creates a catalog on top of coll.
func NewMongoCatalog(coll *mongo.Collection) *MongoCatalog {
	return &MongoCatalog{coll: coll}
}

// EnsureIndexes creates the APR sort index.
func (c *MongoCatalog) EnsureIndexes(ctx context.Context) error {
	_, err := c.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "rate_apr", Value: 1}, {Key: "name", Value: 1}},
		Options: options.Index().SetName("rate_apr_name"),
	})
	if err != nil {
		return fmt.Errorf("create products index: %w", err)
	}
	return nil
}

// ListAll returns every product ordered by APR, then name.
func (c *MongoCatalog) ListAll(ctx context.Context) ([]*model.LoanProduct, error) {
	opts := options.Find().SetSort(bson.D{{Key: "rate_apr", Value: 1}, {Key: "name", Value: 1}})
	cur, err := c.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	products := make([]*model.LoanProduct, 0)
	if err := cur.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return products, nil
}

// GetByID returns the product with the given ID.
func (c *MongoCatalog) GetByID(ctx context.Context, id string) (*model.LoanProduct, error) {
	var p model.LoanProduct
	if err := c.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	return &p, nil
}

// Seed replaces or inserts products by ID in one unordered bulk write.
func (c *MongoCatalog) Seed(ctx context.Context, products []*model.LoanProduct) (int, error) {
	if len(products) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	writes := make([]mongo.WriteModel, 0, len(products))
	for _, p := range products {
		p.EnsureID()
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		p.UpdatedAt = now
		writes = append(writes, mongo.NewReplaceOneModel().
			SetFilter(bson.D{{Key: "_id", Value: p.ID}}).
			SetReplacement(p).
			SetUpsert(true))
	}

	if _, err := c.coll.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false)); err != nil {
		return 0, fmt.Errorf("seed products: %w", err)
	}
	return len(products), nil
}
