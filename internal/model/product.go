// Package model defines the persistent data models of the loan advisor.
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LoanType 贷款类型。
type LoanType string

// Known loan types. Any other value is rendered as a generic loan.
const (
	LoanTypePersonal          LoanType = "personal"
	LoanTypeEducation         LoanType = "education"
	LoanTypeVehicle           LoanType = "vehicle"
	LoanTypeHome              LoanType = "home"
	LoanTypeCreditLine        LoanType = "credit_line"
	LoanTypeDebtConsolidation LoanType = "debt_consolidation"
)

// Disbursal speeds and documentation levels with badge semantics.
const (
	DisbursalStandard = "standard"
	DocsLevelLow      = "low"
)

// LoanProduct 贷款产品。可选字段使用指针，nil 表示数据缺失。
type LoanProduct struct {
	ID                string    `json:"id" bson:"_id" gorm:"primaryKey;size:36"`
	Name              string    `json:"name" bson:"name" gorm:"size:255;not null"`
	Bank              string    `json:"bank" bson:"bank" gorm:"size:255;not null;index"`
	Type              LoanType  `json:"type" bson:"type" gorm:"size:32;not null"`
	RateAPR           float64   `json:"rate_apr" bson:"rate_apr" gorm:"not null;index"`
	MinIncome         float64   `json:"min_income" bson:"min_income" gorm:"not null;default:0"`
	MinCreditScore    int       `json:"min_credit_score" bson:"min_credit_score" gorm:"not null;default:0"`
	TenureMinMonths   *int      `json:"tenure_min_months,omitempty" bson:"tenure_min_months,omitempty"`
	TenureMaxMonths   *int      `json:"tenure_max_months,omitempty" bson:"tenure_max_months,omitempty"`
	Summary           *string   `json:"summary,omitempty" bson:"summary,omitempty" gorm:"type:text"`
	ProcessingFeePct  *float64  `json:"processing_fee_pct,omitempty" bson:"processing_fee_pct,omitempty"`
	PrepaymentAllowed bool      `json:"prepayment_allowed" bson:"prepayment_allowed" gorm:"not null;default:false"`
	DisbursalSpeed    string    `json:"disbursal_speed" bson:"disbursal_speed" gorm:"size:32;not null;default:standard"`
	DocsLevel         string    `json:"docs_level" bson:"docs_level" gorm:"size:32;not null;default:standard"`
	FAQ               Document  `json:"faq,omitempty" bson:"faq,omitempty" gorm:"column:faq"`
	Terms             Document  `json:"terms,omitempty" bson:"terms,omitempty"`
	CreatedAt         time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" bson:"updated_at"`
}

// TableName returns the table name for GORM.
func (*LoanProduct) TableName() string {
	return "products"
}

// BeforeCreate assigns a UUID when the ID is empty.
func (p *LoanProduct) BeforeCreate(_ *gorm.DB) error {
	p.EnsureID()
	return nil
}

// EnsureID 为空 ID 生成 UUID。
func (p *LoanProduct) EnsureID() {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
}
