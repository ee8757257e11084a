package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bank is an entry of the bank dropdown.
type Bank struct {
	ID      int64  `json:"id"`
	Name    string `json:"banco"`
	Account string `json:"cuenta"`
}

// Vehicle is a vehicle that can be assigned to a week.
type Vehicle struct {
	ID        int64           `json:"id"`
	Plate     string          `json:"placa"`
	Make      string          `json:"marca"`
	Model     string          `json:"modelo"`
	Color     string          `json:"color"`
	Price     decimal.Decimal `json:"precio_semanal"`
	OwnerID   *int64          `json:"propietario_id"`
	OwnerName string          `json:"propietario_nombre"`
}

// Tenant ("inquilino") is a renter that can be assigned to a week.
type Tenant struct {
	ID       int64  `json:"id"`
	Name     string `json:"nombre_apellido"`
	Phone    string `json:"telefono"`
	IDNumber string `json:"cedula"`
}

// Availability lists vehicles and tenants not yet assigned in a week.
type Availability struct {
	Vehicles []Vehicle `json:"vehiculos"`
	Tenants  []Tenant  `json:"inquilinos"`
}

// AnomalyKind tells whether an active week ended already or starts later.
type AnomalyKind string

const (
	AnomalyPast   AnomalyKind = "pasada"
	AnomalyFuture AnomalyKind = "futura"
)

// WeekAnomaly is an active week whose date range is outside the current one.
type WeekAnomaly struct {
	Number    int         `json:"numero_semana"`
	StartDate string      `json:"fecha_inicio"`
	EndDate   string      `json:"fecha_fin"`
	Kind      AnomalyKind `json:"tipo"`
	DaysOff   int         `json:"dias_diferencia"`
}

// ActiveWeeksReport feeds the active-weeks warning banner.
type ActiveWeeksReport struct {
	HasProblems bool          `json:"has_problems"`
	ActiveCount int           `json:"active_count"`
	Anomalies   []WeekAnomaly `json:"anomalies"`
	CheckedAt   time.Time     `json:"checked_at"`
}
