package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kart-io/loan-advisor/internal/model"
)

// 导入时覆盖的列，created_at 保持首次写入的值。
var seedUpdateColumns = []string{
	"name", "bank", "type", "rate_apr", "min_income", "min_credit_score",
	"tenure_min_months", "tenure_max_months", "summary", "processing_fee_pct",
	"prepayment_allowed", "disbursal_speed", "docs_level", "faq", "terms", "updated_at",
}

// GormCatalog reads products from a SQL database through GORM.
type GormCatalog struct {
	db *gorm.DB
}

var (
	_ Catalog = (*GormCatalog)(nil)
	_ Seeder  = (*GormCatalog)(nil)
)

// NewGormCatalog creates a catalog on top of db.
func NewGormCatalog(db *gorm.DB) *GormCatalog {
	return &GormCatalog{db: db}
}

// Migrate creates or updates the products table.
func (c *GormCatalog) Migrate(ctx context.Context) error {
	if err := c.db.WithContext(ctx).AutoMigrate(&model.LoanProduct{}); err != nil {
		return fmt.Errorf("migrate products: %w", err)
	}
	return nil
}

// ListAll returns every product ordered by APR, then name.
func (c *GormCatalog) ListAll(ctx context.Context) ([]*model.LoanProduct, error) {
	products := make([]*model.LoanProduct, 0)
	if err := c.db.WithContext(ctx).
		Order("rate_apr ASC").
		Order("name ASC").
		Find(&products).Error; err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// GetByID returns the product with the given ID.
func (c *GormCatalog) GetByID(ctx context.Context, id string) (*model.LoanProduct, error) {
	var p model.LoanProduct
	if err := c.db.WithContext(ctx).Where("id = ?", id).Take(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	return &p, nil
}

// Seed upserts products by ID.
func (c *GormCatalog) Seed(ctx context.Context, products []*model.LoanProduct) (int, error) {
	if len(products) == 0 {
		return 0, nil
	}
	for _, p := range products {
		p.EnsureID()
	}

	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns(seedUpdateColumns),
		}).CreateInBatches(products, 100).Error
	})
	if err != nil {
		return 0, fmt.Errorf("seed products: %w", err)
	}
	return len(products), nil
}
