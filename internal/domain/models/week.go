package models

import (
	"github.com/shopspring/decimal"
)

// WeekStatus is the lifecycle state of a rental week. Closing is terminal.
type WeekStatus string

const (
	WeekOpen   WeekStatus = "abierta"
	WeekClosed WeekStatus = "cerrada"
)

// RentalWeek ("semana") groups the rental assignments billed together.
type RentalWeek struct {
	ID           int64           `json:"id"`
	Number       int             `json:"numero_semana"`
	StartDate    string          `json:"fecha_inicio"`
	EndDate      string          `json:"fecha_fin"`
	Status       WeekStatus      `json:"estado"`
	VehicleCount int             `json:"total_vehiculos"`
	OwnerCount   int             `json:"total_socios"`
	TenantCount  int             `json:"total_inquilinos"`
	TotalIncome  decimal.Decimal `json:"ingreso_total"`
}

// Closed reports whether the week no longer accepts edits.
func (w RentalWeek) Closed() bool {
	return w.Status == WeekClosed
}

// WeekDetails is the payload of the list-details endpoint.
type WeekDetails struct {
	Week    RentalWeek     `json:"semana"`
	Details []RentalDetail `json:"detalles"`
}

// Totals are the field-wise footer sums over the loaded details of a week.
type Totals struct {
	Price           decimal.Decimal `json:"precio_semanal"`
	Income          decimal.Decimal `json:"ingreso"`
	InvestmentTotal decimal.Decimal `json:"inversion"`
	Discount        decimal.Decimal `json:"descuento"`
	CompanyPayroll  decimal.Decimal `json:"nomina_empresa"`
	Debt            decimal.Decimal `json:"deuda"`
	FinalPayroll    decimal.Decimal `json:"nomina_final"`
	Count           int             `json:"cantidad"`
}

// Role is the caller's role inside the rental application.
type Role string

const RoleAdmin Role = "admin"

// IsAdmin reports whether the role may close or delete weeks.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}
