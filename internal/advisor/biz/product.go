package biz

import (
	"context"
	"errors"

	"github.com/kart-io/logger"

	"github.com/kart-io/loan-advisor/internal/advisor/store"
	"github.com/kart-io/loan-advisor/internal/model"
	"github.com/kart-io/loan-advisor/pkg/infra/tracing"
	errs "github.com/kart-io/loan-advisor/pkg/utils/errors"
)

// FeaturedLimit 首页展示的产品数量。
const FeaturedLimit = 5

// FilterRecorder 记录筛选结果，用于指标。
type FilterRecorder interface {
	ObserveFilter(total, matched int)
}

// ProductView 产品及其展示字段。
type ProductView struct {
	*model.LoanProduct
	TypeLabel      string  `json:"type_label"`
	MinIncomeLabel string  `json:"min_income_label"`
	Badges         []Badge `json:"badges"`
}

// FeaturedProducts 首页推荐：第一个为最佳匹配。
type FeaturedProducts struct {
	BestMatch *ProductView   `json:"bestMatch"`
	Others    []*ProductView `json:"others"`
}

// ProductService serves catalog listings.
type ProductService struct {
	catalog  store.Catalog
	recorder FilterRecorder
}

// NewProductService creates a ProductService. recorder may be nil.
func NewProductService(catalog store.Catalog, recorder FilterRecorder) *ProductService {
	return &ProductService{catalog: catalog, recorder: recorder}
}

// NewProductView attaches display fields and badges to p.
func NewProductView(p *model.LoanProduct) *ProductView {
	return &ProductView{
		LoanProduct:    p,
		TypeLabel:      FormatLoanType(p.Type),
		MinIncomeLabel: FormatCurrency(p.MinIncome),
		Badges:         GenerateBadges(p),
	}
}

// List returns the catalog filtered by c, ordered by ascending APR.
func (s *ProductService) List(ctx context.Context, c FilterCriteria) ([]*ProductView, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "ProductService.List")
	defer span.End()

	all, err := s.catalog.ListAll(ctx)
	if err != nil {
		tracing.RecordError(ctx, err)
		return nil, errs.ErrLoanUnexpected.WithCause(err)
	}

	matched := Filter(all, c.Normalize())
	if s.recorder != nil {
		s.recorder.ObserveFilter(len(all), len(matched))
	}
	logger.Debugw("products filtered", "total", len(all), "matched", len(matched))
	return toViews(matched), nil
}

// Featured returns the first FeaturedLimit catalog entries.
func (s *ProductService) Featured(ctx context.Context) (*FeaturedProducts, error) {
	all, err := s.catalog.ListAll(ctx)
	if err != nil {
		return nil, errs.ErrLoanUnexpected.WithCause(err)
	}

	views := toViews(all[:min(len(all), FeaturedLimit)])
	out := &FeaturedProducts{Others: []*ProductView{}}
	if len(views) > 0 {
		out.BestMatch = views[0]
		out.Others = views[1:]
	}
	return out, nil
}

// Get returns one product.
func (s *ProductService) Get(ctx context.Context, id string) (*ProductView, error) {
	p, err := s.catalog.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrProductNotFound) {
			return nil, errs.ErrLoanProductNotFound.WithMessagef("product %s not found", id)
		}
		return nil, errs.ErrLoanUnexpected.WithCause(err)
	}
	return NewProductView(p), nil
}

func toViews(products []*model.LoanProduct) []*ProductView {
	views := make([]*ProductView, 0, len(products))
	for _, p := range products {
		views = append(views, NewProductView(p))
	}
	return views
}
