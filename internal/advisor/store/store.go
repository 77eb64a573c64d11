// Package store provides read access to the loan product catalog.
package store

import (
	"context"
	"errors"

	"github.com/kart-io/loan-advisor/internal/model"
)

// ErrProductNotFound 产品不存在。
var ErrProductNotFound = errors.New("product not found")

// Catalog is the read-only product source.
type Catalog interface {
	// ListAll returns every product ordered by ascending APR.
	ListAll(ctx context.Context) ([]*model.LoanProduct, error)

	// GetByID returns one product or ErrProductNotFound.
	GetByID(ctx context.Context, id string) (*model.LoanProduct, error)
}

// Seeder imports fixture products, replacing records with the same ID.
type Seeder interface {
	Seed(ctx context.Context, products []*model.LoanProduct) (int, error)
}
