package derivation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/mamadbah2/alquiler/internal/domain/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestDerive_FullWeek(t *testing.T) {
	d := models.RentalDetail{Price: dec("100"), DaysWorked: 7, Debt: decimal.Zero, CompanyPercentage: dec("10")}

	got := Derive(d)

	assert.True(t, got.Income.Equal(dec("700")), got.Income.String())
	assert.True(t, got.CompanyPayroll.Equal(dec("70")), got.CompanyPayroll.String())
	assert.True(t, got.FinalPayroll.Equal(dec("700")), got.FinalPayroll.String())
	assert.False(t, got.InvestmentAlert)
}

func TestDerive_ItemizedInvestmentsRaiseAlert(t *testing.T) {
	d := models.RentalDetail{
		Price:      dec("100"),
		DaysWorked: 7,
		Investments: []models.Investment{
			{Cost: dec("50")},
			{Cost: dec("60")},
		},
	}

	got := Derive(d)

	assert.True(t, got.InvestmentTotal.Equal(dec("110")))
	assert.True(t, got.InvestmentAlert)
}

func TestApply_RecomputesAfterDaysEdit(t *testing.T) {
	d := models.RentalDetail{ID: 1, Price: dec("100"), DaysWorked: 7, CompanyPercentage: dec("10")}
	Apply(&d)

	d.DaysWorked = 3
	Apply(&d)

	assert.True(t, d.Income.Equal(dec("300")))
	assert.True(t, d.FinalPayroll.Equal(dec("300")))

	totals := Totals([]models.RentalDetail{d})
	assert.Equal(t, 1, totals.Count)
	assert.True(t, totals.Income.Equal(dec("300")))
	assert.True(t, totals.FinalPayroll.Equal(dec("300")))
	assert.True(t, totals.CompanyPayroll.Equal(dec("30")))
}

func TestRounding(t *testing.T) {
	tests := []struct {
		name    string
		price   string
		days    int
		debt    string
		pct     string
		income  string
		company string
		final   string
	}{
		{"half cent rounds away from zero", "0.125", 1, "0", "100", "0.13", "0.13", "0.13"},
		{"percentage fraction", "333.33", 3, "0.005", "15", "999.99", "150", "1000"},
		{"zero price", "0", 7, "25.5", "50", "0", "0", "25.5"},
		{"full percentage", "1234.56", 1, "0", "100", "1234.56", "1234.56", "1234.56"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			income := Income(dec(tt.price), tt.days)
			assert.True(t, income.Equal(dec(tt.income)), "income %s", income)
			company := CompanyPayroll(income, dec(tt.pct))
			assert.True(t, company.Equal(dec(tt.company)), "company %s", company)
			final := FinalPayroll(income, dec(tt.debt))
			assert.True(t, final.Equal(dec(tt.final)), "final %s", final)
		})
	}
}

func TestInvestmentAlert_Boundary(t *testing.T) {
	d := models.RentalDetail{Price: dec("100"), LegacyInvestment: dec("100")}
	assert.True(t, InvestmentAlert(d))

	d.LegacyInvestment = dec("99.99")
	assert.False(t, InvestmentAlert(d))

	d.Price = decimal.Zero
	d.LegacyInvestment = decimal.Zero
	assert.True(t, InvestmentAlert(d))
}

func TestInvestmentTotal_FallbackOrder(t *testing.T) {
	d := models.RentalDetail{
		LegacyInvestment:        dec("10"),
		ReportedInvestmentTotal: dec("20"),
		Investments:             []models.Investment{{Cost: dec("30")}},
	}
	assert.True(t, InvestmentTotal(d).Equal(dec("30")))

	d.Investments = nil
	assert.True(t, InvestmentTotal(d).Equal(dec("20")))

	d.ReportedInvestmentTotal = decimal.Zero
	assert.True(t, InvestmentTotal(d).Equal(dec("10")))
}

func TestTotals_SumsStoredColumns(t *testing.T) {
	a := models.RentalDetail{Price: dec("100"), DaysWorked: 7, Debt: dec("50"), Discount: dec("5"), CompanyPercentage: dec("10"), LegacyInvestment: dec("20")}
	b := models.RentalDetail{Price: dec("200"), DaysWorked: 2, CompanyPercentage: dec("25"), Investments: []models.Investment{{Cost: dec("15")}}}
	Apply(&a)
	Apply(&b)

	got := Totals([]models.RentalDetail{a, b})

	assert.Equal(t, 2, got.Count)
	assert.True(t, got.Price.Equal(dec("300")))
	assert.True(t, got.Income.Equal(dec("1100")))
	assert.True(t, got.CompanyPayroll.Equal(dec("170")))
	assert.True(t, got.FinalPayroll.Equal(dec("1150")))
	assert.True(t, got.Debt.Equal(dec("50")))
	assert.True(t, got.Discount.Equal(dec("5")))
	assert.True(t, got.InvestmentTotal.Equal(dec("35")))

	empty := Totals(nil)
	assert.Equal(t, 0, empty.Count)
	assert.True(t, empty.Income.IsZero())
}
