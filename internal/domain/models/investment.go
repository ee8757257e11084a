package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// InvestmentType classifies a repair or incident cost.
type InvestmentType string

const (
	InvestmentMechanicalFailure InvestmentType = "falla_mecanica"
	InvestmentAccident          InvestmentType = "accidente"
	InvestmentMaintenance       InvestmentType = "mantenimiento"
	InvestmentWear              InvestmentType = "desgaste"
	InvestmentOther             InvestmentType = "otro"
)

// Investment is an itemized mechanical or incident cost attributed to a detail.
type Investment struct {
	ID          int64           `json:"id"`
	DetailID    int64           `json:"detalle_id,omitempty"`
	WorkTypeID  int64           `json:"tipo_trabajo_id"`
	WorkType    string          `json:"tipo_trabajo"`
	MechanicID  *int64          `json:"mecanico_id"`
	Mechanic    string          `json:"mecanico"`
	Type        InvestmentType  `json:"tipo_inversion"`
	Description string          `json:"descripcion"`
	Cost        decimal.Decimal `json:"costo"`
	Date        string          `json:"fecha"`
}

// InvestmentList is the payload of the list-investments endpoint.
type InvestmentList struct {
	Investments []Investment    `json:"inversiones"`
	Total       decimal.Decimal `json:"total"`
}

// InvestmentInput is the body of an add-investment request.
type InvestmentInput struct {
	WorkTypeID  int64          `validate:"required,gt=0"`
	MechanicID  *int64         `validate:"omitempty,gt=0"`
	Type        InvestmentType `validate:"required,oneof=falla_mecanica accidente mantenimiento desgaste otro"`
	Description string         `validate:"required"`
	Cost        decimal.Decimal
}

// Validate checks the input before any request is sent.
func (in InvestmentInput) Validate() error {
	const op = "validate investment"

	in.Description = strings.TrimSpace(in.Description)
	if err := validateStruct(op, in); err != nil {
		return err
	}
	if !in.Cost.IsPositive() {
		return ValidationError(op, "cost must be greater than 0")
	}
	return nil
}
