package store

import (
	"context"
	"sync/atomic"

	"github.com/kart-io/loan-advisor/internal/model"
)

func ptr[T any](v T) *T { return &v }

func sampleProducts() []*model.LoanProduct {
	return []*model.LoanProduct{
		{
			ID:              "6f1c2b9e-9d7f-4c55-9a55-0c1d7e1f0a01",
			Name:            "Everyday Personal",
			Bank:            "First Harbor Bank",
			Type:            model.LoanTypePersonal,
			RateAPR:         14.5,
			MinIncome:       30000,
			MinCreditScore:  650,
			TenureMaxMonths: ptr(36),
			DisbursalSpeed:  "standard",
			DocsLevel:       "standard",
		},
		{
			ID:              "6f1c2b9e-9d7f-4c55-9a55-0c1d7e1f0a02",
			Name:            "Green Auto",
			Bank:            "Maple Credit Union",
			Type:            model.LoanTypeVehicle,
			RateAPR:         8.9,
			MinIncome:       25000,
			MinCreditScore:  620,
			TenureMinMonths: ptr(12),
			TenureMaxMonths: ptr(72),
			DisbursalSpeed:  "fast",
			DocsLevel:       "low",
			FAQ:             model.Document{"Can I prepay?": "Yes, after 6 months."},
		},
		{
			ID:             "6f1c2b9e-9d7f-4c55-9a55-0c1d7e1f0a03",
			Name:           "Scholar Plus",
			Bank:           "First Harbor Bank",
			Type:           model.LoanTypeEducation,
			RateAPR:        10.25,
			MinIncome:      0,
			MinCreditScore: 600,
			DisbursalSpeed: "standard",
			DocsLevel:      "high",
		},
	}
}

// fakeCatalog 内存目录，记录 ListAll 调用次数。
type fakeCatalog struct {
	products []*model.LoanProduct
	err      error
	calls    atomic.Int32
}

func (f *fakeCatalog) ListAll(context.Context) ([]*model.LoanProduct, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.products, nil
}

func (f *fakeCatalog) GetByID(_ context.Context, id string) (*model.LoanProduct, error) {
	for _, p := range f.products {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, ErrProductNotFound
}
