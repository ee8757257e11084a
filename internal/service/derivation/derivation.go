// Package derivation computes the derived money fields of rental details.
// Every function is pure; callers decide when to store the results.
package derivation

import (
	"github.com/shopspring/decimal"

	"github.com/mamadbah2/alquiler/internal/domain/models"
)

var hundred = decimal.NewFromInt(100)

// Derived holds the computed columns of one detail.
type Derived struct {
	Income          decimal.Decimal
	CompanyPayroll  decimal.Decimal
	FinalPayroll    decimal.Decimal
	InvestmentTotal decimal.Decimal
	InvestmentAlert bool
}

// Round2 rounds half away from zero to cents.
func Round2(v decimal.Decimal) decimal.Decimal {
	return v.Round(2)
}

// Income is price times days worked.
func Income(price decimal.Decimal, daysWorked int) decimal.Decimal {
	return Round2(price.Mul(decimal.NewFromInt(int64(daysWorked))))
}

// CompanyPayroll is the company's percentage cut of the income.
func CompanyPayroll(income, companyPercentage decimal.Decimal) decimal.Decimal {
	return Round2(income.Mul(companyPercentage).Div(hundred))
}

// FinalPayroll is income plus outstanding debt.
func FinalPayroll(income, debt decimal.Decimal) decimal.Decimal {
	return Round2(income.Add(debt))
}

// InvestmentTotal sums itemized investments. Payloads without items fall back to
// the server-reported total and then to the legacy single investment field.
func InvestmentTotal(d models.RentalDetail) decimal.Decimal {
	if len(d.Investments) > 0 {
		total := decimal.Zero
		for _, inv := range d.Investments {
			total = total.Add(inv.Cost)
		}
		return total
	}
	if d.ReportedInvestmentTotal.IsPositive() {
		return d.ReportedInvestmentTotal
	}
	return d.LegacyInvestment
}

// InvestmentAlert is raised once investments reach the weekly price.
func InvestmentAlert(d models.RentalDetail) bool {
	return InvestmentTotal(d).GreaterThanOrEqual(d.Price)
}

// Derive computes every derived column of d.
func Derive(d models.RentalDetail) Derived {
	income := Income(d.Price, d.DaysWorked)
	return Derived{
		Income:          income,
		CompanyPayroll:  CompanyPayroll(income, d.CompanyPercentage),
		FinalPayroll:    FinalPayroll(income, d.Debt),
		InvestmentTotal: InvestmentTotal(d),
		InvestmentAlert: InvestmentAlert(d),
	}
}

// Apply stores the income and payroll columns on d.
func Apply(d *models.RentalDetail) Derived {
	derived := Derive(*d)
	d.Income = derived.Income
	d.CompanyPayroll = derived.CompanyPayroll
	d.FinalPayroll = derived.FinalPayroll
	return derived
}

// Totals sums the footer columns over details using their stored derived values.
func Totals(details []models.RentalDetail) models.Totals {
	t := models.Totals{
		Price:           decimal.Zero,
		Income:          decimal.Zero,
		InvestmentTotal: decimal.Zero,
		Discount:        decimal.Zero,
		CompanyPayroll:  decimal.Zero,
		Debt:            decimal.Zero,
		FinalPayroll:    decimal.Zero,
		Count:           len(details),
	}
	for _, d := range details {
		t.Price = t.Price.Add(d.Price)
		t.Income = t.Income.Add(d.Income)
		t.InvestmentTotal = t.InvestmentTotal.Add(InvestmentTotal(d))
		t.Discount = t.Discount.Add(d.Discount)
		t.CompanyPayroll = t.CompanyPayroll.Add(d.CompanyPayroll)
		t.Debt = t.Debt.Add(d.Debt)
		t.FinalPayroll = t.FinalPayroll.Add(d.FinalPayroll)
	}
	return t
}
