package presentation

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/alquiler/internal/domain/models"
	"github.com/mamadbah2/alquiler/internal/service/accordion"
	"github.com/mamadbah2/alquiler/internal/service/derivation"
	"github.com/mamadbah2/alquiler/internal/service/ledger"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sampleView() ledger.WeekView {
	details := []models.RentalDetail{
		{
			ID: 10, VehicleMake: "Toyota", VehicleModel: "Corolla", VehiclePlate: "A100",
			TenantName: "Ana Perez", OwnerName: "Luis Gomez", OwnerInitials: "LG",
			Price: dec("100"), DaysWorked: 7, CompanyPercentage: dec("10"),
		},
		{
			ID: 11, VehiclePlate: "B200",
			Price: dec("50"), DaysWorked: 1, CompanyPercentage: dec("20"),
			LegacyInvestment: dec("60"), InvestmentConcept: "frenos",
		},
	}
	return viewFrom(details, nil)
}

func viewFrom(details []models.RentalDetail, modified []int64) ledger.WeekView {
	for i := range details {
		derivation.Apply(&details[i])
	}
	return ledger.WeekView{
		Week:        models.RentalWeek{ID: 1, Number: 19, StartDate: "2024-05-06", EndDate: "2024-05-12", Status: models.WeekOpen},
		Details:     details,
		ModifiedIDs: modified,
		Totals:      derivation.Totals(details),
	}
}

func TestRender_CollapsedHasNoRows(t *testing.T) {
	table := Render(sampleView(), accordion.StateCollapsed)

	assert.Equal(t, int64(1), table.WeekID)
	assert.Equal(t, 19, table.Number)
	assert.Equal(t, "abierta", table.Status)
	assert.Nil(t, table.Rows)
	assert.Nil(t, table.Footer)
	assert.False(t, table.Empty)
}

func TestRender_Expanded(t *testing.T) {
	table := Render(sampleView(), accordion.StateExpanded)

	require.Len(t, table.Rows, 2)
	first := table.Rows[0]
	assert.Equal(t, "Toyota Corolla (A100)", first.Vehicle)
	assert.Equal(t, "LG", first.OwnerInitials)
	assert.Equal(t, "$100.00", first.Price)
	assert.Equal(t, "$700.00", first.Income)
	assert.Equal(t, "$70.00", first.CompanyPayroll)
	assert.Equal(t, "$700.00", first.FinalPayroll)
	assert.Equal(t, "$0.00", first.InvestmentTotal)
	assert.False(t, first.InvestmentAlert)
	assert.True(t, first.Editable)

	second := table.Rows[1]
	assert.Equal(t, "B200", second.Vehicle)
	assert.Equal(t, "$60.00", second.InvestmentTotal)
	assert.True(t, second.InvestmentAlert)

	assert.Equal(t, 1, table.AlertCount)
	require.NotNil(t, table.Footer)
	assert.Equal(t, 2, table.Footer.Count)
	assert.Equal(t, "$750.00", table.Footer.Income)
	assert.Equal(t, "$80.00", table.Footer.CompanyPayroll)
	assert.Equal(t, "$60.00", table.Footer.InvestmentTotal)
}

func TestRender_EmptyAndReadOnly(t *testing.T) {
	view := viewFrom(nil, nil)
	view.ReadOnly = true
	view.Week.Status = models.WeekClosed

	table := Render(view, accordion.StateExpanded)

	assert.True(t, table.Empty)
	assert.True(t, table.ReadOnly)
	assert.Empty(t, table.Rows)
	require.NotNil(t, table.Footer)
	assert.Equal(t, "$0.00", table.Footer.FinalPayroll)
}

func TestRender_ModifiedRowsAreFlagged(t *testing.T) {
	view := sampleView()
	view.ModifiedIDs = []int64{11}

	table := Render(view, accordion.StateExpanded)

	assert.Equal(t, 1, table.ModifiedCount)
	assert.False(t, table.Rows[0].Modified)
	assert.True(t, table.Rows[1].Modified)
}

func TestDiff_DaysEdit(t *testing.T) {
	prev := Render(sampleView(), accordion.StateExpanded)

	edited := sampleView().Details
	edited[0].DaysWorked = 3
	next := Render(viewFrom(edited, []int64{10}), accordion.StateExpanded)

	assert.Equal(t, []CellChange{
		{DetailID: 10, Column: "dias_trabajo", Value: "3"},
		{DetailID: 10, Column: "ingreso", Value: "$300.00"},
		{DetailID: 10, Column: "nomina_empresa", Value: "$30.00"},
		{DetailID: 10, Column: "nomina_final", Value: "$300.00"},
		{DetailID: 10, Column: "modificado", Value: "true"},
		{Column: "footer.ingreso", Value: "$350.00"},
		{Column: "footer.nomina_empresa", Value: "$40.00"},
		{Column: "footer.nomina_final", Value: "$350.00"},
	}, Diff(prev, next))
}

func TestDiff_NoChanges(t *testing.T) {
	table := Render(sampleView(), accordion.StateExpanded)
	assert.Empty(t, Diff(table, table))
}

func TestDiff_RemovedRow(t *testing.T) {
	prev := Render(sampleView(), accordion.StateExpanded)
	next := Render(viewFrom(sampleView().Details[:1], nil), accordion.StateExpanded)

	changes := Diff(prev, next)
	require.NotEmpty(t, changes)
	assert.Contains(t, changes, CellChange{DetailID: 11, Removed: true})
	assert.Contains(t, changes, CellChange{Column: "footer.cantidad", Value: "1"})
}

func TestDiff_FromCollapsedEmitsEveryCell(t *testing.T) {
	prev := Render(sampleView(), accordion.StateCollapsed)
	next := Render(sampleView(), accordion.StateExpanded)

	changes := Diff(prev, next)
	rowCols := len(next.Rows[0].columns())
	footerCols := len(next.Footer.columns())
	assert.Len(t, changes, 2*rowCols+footerCols)
}

func TestDescribeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorView
	}{
		{"nil", nil, ErrorView{}},
		{"foreign error", errors.New("boom"), ErrorView{Kind: models.KindServer, Message: "boom"}},
		{
			"network",
			fmt.Errorf("commit: %w", &models.Error{Kind: models.KindNetwork, Op: "batch update", Message: "timeout"}),
			ErrorView{Kind: models.KindNetwork, Message: "timeout", Retryable: true},
		},
		{
			"conflict",
			models.NewError(models.KindConflict, "create detail", "El vehiculo ya esta asignado"),
			ErrorView{Kind: models.KindConflict, Message: "El vehiculo ya esta asignado"},
		},
		{
			"validation",
			models.ValidationError("mutate", "days worked must be between 0 and 7"),
			ErrorView{Kind: models.KindValidation, Message: "days worked must be between 0 and 7"},
		},
		{
			"fetch failure",
			&ledger.FetchError{WeekID: 3, Err: models.NewError(models.KindServer, "list details", "Semana no existe")},
			ErrorView{Kind: models.KindServer, Message: "Could not load week 3: Semana no existe", Retryable: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DescribeError(tt.err))
		})
	}
}
