package biz

import (
	"strings"

	"github.com/kart-io/loan-advisor/internal/model"
)

// Filter UI contract: slider domains and steps.
const (
	APRDomainMin         = 0.0
	APRDomainMax         = 20.0
	APRStep              = 0.5
	IncomeDomainMax      = 150000.0
	IncomeStep           = 5000.0
	CreditScoreDomainMin = 500
	CreditScoreDomainMax = 850
	CreditScoreStep      = 10
)

// FilterCriteria 用户输入的筛选条件。
//
// Income 和 CreditScore 是用户自身拥有的值，产品要求不超过它们才通过。
// Income <= 0 与 CreditScore >= CreditScoreDomainMax 表示不限制。
type FilterCriteria struct {
	Bank        string  `json:"bank" form:"bank"`
	APRLow      float64 `json:"apr_low" form:"apr_low" validate:"finite"`
	APRHigh     float64 `json:"apr_high" form:"apr_high" validate:"finite"`
	Income      float64 `json:"income" form:"income" validate:"finite"`
	CreditScore int     `json:"credit_score" form:"credit_score"`
}

// DefaultCriteria returns criteria that match every product in the domain.
func DefaultCriteria() FilterCriteria {
	return FilterCriteria{
		APRLow:      APRDomainMin,
		APRHigh:     APRDomainMax,
		Income:      0,
		CreditScore: CreditScoreDomainMax,
	}
}

// Normalize trims the bank name, raises negative values to zero and swaps an
// inverted APR window.
// 不做上限截断：滑块范围只是界面约定，超出范围的输入按原值参与筛选。
func (c FilterCriteria) Normalize() FilterCriteria {
	c.Bank = strings.TrimSpace(c.Bank)
	c.APRLow = max(c.APRLow, 0)
	c.APRHigh = max(c.APRHigh, 0)
	if c.APRLow > c.APRHigh {
		c.APRLow, c.APRHigh = c.APRHigh, c.APRLow
	}
	c.Income = max(c.Income, 0)
	c.CreditScore = max(c.CreditScore, 0)
	return c
}

// Filter returns the products satisfying every criterion, in input order.
// 输入不会被修改；无匹配时返回非 nil 的空切片。
func Filter(products []*model.LoanProduct, c FilterCriteria) []*model.LoanProduct {
	bank := strings.ToLower(strings.TrimSpace(c.Bank))
	out := make([]*model.LoanProduct, 0, len(products))
	for _, p := range products {
		if p == nil {
			continue
		}
		if bank != "" && !strings.Contains(strings.ToLower(p.Bank), bank) {
			continue
		}
		if p.RateAPR < c.APRLow || p.RateAPR > c.APRHigh {
			continue
		}
		if c.Income > 0 && p.MinIncome > c.Income {
			continue
		}
		if c.CreditScore < CreditScoreDomainMax && p.MinCreditScore > c.CreditScore {
			continue
		}
		out = append(out, p)
	}
	return out
}

// SliderDomain 滑块的取值范围与步长。
type SliderDomain struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Step float64 `json:"step"`
}

// FilterContract describes the filter controls and their defaults.
type FilterContract struct {
	Defaults    FilterCriteria `json:"defaults"`
	APR         SliderDomain   `json:"apr"`
	Income      SliderDomain   `json:"income"`
	CreditScore SliderDomain   `json:"credit_score"`
}

// DefaultFilterContract returns the filter UI contract.
func DefaultFilterContract() FilterContract {
	return FilterContract{
		Defaults:    DefaultCriteria(),
		APR:         SliderDomain{Min: APRDomainMin, Max: APRDomainMax, Step: APRStep},
		Income:      SliderDomain{Min: 0, Max: IncomeDomainMax, Step: IncomeStep},
		CreditScore: SliderDomain{Min: CreditScoreDomainMin, Max: CreditScoreDomainMax, Step: CreditScoreStep},
	}
}
