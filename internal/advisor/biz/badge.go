package biz

import (
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/kart-io/loan-advisor/internal/model"
)

var usdPrinter = message.NewPrinter(language.AmericanEnglish)

// BadgeVariant 徽章样式。
type BadgeVariant string

// Badge variants.
const (
	BadgeSuccess BadgeVariant = "success"
	BadgeInfo    BadgeVariant = "info"
	BadgeWarning BadgeVariant = "warning"
	BadgeDefault BadgeVariant = "default"
)

// Badge 产品卡片上的标签。
type Badge struct {
	Label   string       `json:"label"`
	Variant BadgeVariant `json:"variant"`
}

// Card badge limits.
const (
	DashboardBadgeLimit = 3
	CatalogBadgeLimit   = 4
)

const (
	lowAPRThreshold         = 12.0
	flexibleTenureThreshold = 48
)

// GenerateBadges derives the badges of a product in their fixed display order.
func GenerateBadges(p *model.LoanProduct) []Badge {
	badges := make([]Badge, 0, 7)

	if p.RateAPR < lowAPRThreshold {
		badges = append(badges, Badge{Label: "Low APR", Variant: BadgeSuccess})
	}
	if p.DisbursalSpeed != model.DisbursalStandard {
		badges = append(badges, Badge{Label: "Fast Disbursal", Variant: BadgeInfo})
	}
	if p.DocsLevel == model.DocsLevelLow {
		badges = append(badges, Badge{Label: "Low Docs", Variant: BadgeInfo})
	}

	badges = append(badges,
		Badge{Label: fmt.Sprintf("Credit Score ≥ %d", p.MinCreditScore), Variant: BadgeDefault},
		Badge{Label: fmt.Sprintf("Salary > $%.0fK Eligible", math.Round(p.MinIncome/1000)), Variant: BadgeDefault},
	)

	if p.PrepaymentAllowed {
		badges = append(badges, Badge{Label: "Prepayment Allowed", Variant: BadgeSuccess})
	}
	if p.TenureMaxMonths != nil && *p.TenureMaxMonths > flexibleTenureThreshold {
		badges = append(badges, Badge{Label: "Flexible Tenure", Variant: BadgeInfo})
	}

	return badges
}

// TopBadges returns at most n leading badges.
func TopBadges(badges []Badge, n int) []Badge {
	if n < 0 {
		n = 0
	}
	if len(badges) <= n {
		return badges
	}
	return badges[:n]
}

// FormatLoanType returns the display name of a loan type.
func FormatLoanType(t model.LoanType) string {
	switch t {
	case model.LoanTypePersonal:
		return "Personal Loan"
	case model.LoanTypeEducation:
		return "Education Loan"
	case model.LoanTypeVehicle:
		return "Vehicle Loan"
	case model.LoanTypeHome:
		return "Home Loan"
	case model.LoanTypeCreditLine:
		return "Credit Line"
	case model.LoanTypeDebtConsolidation:
		return "Debt Consolidation"
	default:
		return "Loan"
	}
}

// FormatCurrency formats an amount as whole US dollars, e.g. $25,000.
func FormatCurrency(amount float64) string {
	rounded := int64(math.Round(amount))
	if rounded < 0 {
		return "-$" + usdPrinter.Sprintf("%d", -rounded)
	}
	return "$" + usdPrinter.Sprintf("%d", rounded)
}
