package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// RentalDetail ("detalle") is one vehicle to tenant assignment within a week.
type RentalDetail struct {
	ID        int64 `json:"id"`
	WeekID    int64 `json:"semana_alquiler_id,omitempty"`
	VehicleID int64 `json:"vehiculo_id"`
	TenantID  int64 `json:"inquilino_id"`
	OwnerID   int64 `json:"propietario_id"`

	OwnerName     string `json:"propietario_nombre"`
	OwnerInitials string `json:"propietario_iniciales"`
	VehicleMake   string `json:"vehiculo_marca"`
	VehicleModel  string `json:"vehiculo_modelo"`
	VehiclePlate  string `json:"vehiculo_placa"`
	TenantName    string `json:"inquilino_nombre"`
	TenantPhone   string `json:"inquilino_telefono"`

	Price             decimal.Decimal `json:"precio_semanal"`
	DaysWorked        int             `json:"dias_trabajo"`
	Debt              decimal.Decimal `json:"monto_deuda"`
	Overdue           bool            `json:"tiene_deuda"`
	BankID            *int64          `json:"banco_id"`
	PaymentDate       string          `json:"fecha_confirmacion_pago"`
	PaymentConfirmed  bool            `json:"pago_confirmado"`
	DiscountConcept   string          `json:"concepto_descuento"`
	Discount          decimal.Decimal `json:"monto_descuento"`
	LegacyInvestment  decimal.Decimal `json:"inversion_mecanica"`
	InvestmentConcept string          `json:"concepto_inversion"`
	Notes             string          `json:"notas"`
	CompanyPercentage decimal.Decimal `json:"porcentaje_empresa"`

	// Itemized investments; older payloads only carry LegacyInvestment.
	Investments             []Investment    `json:"inversiones,omitempty"`
	ReportedInvestmentTotal decimal.Decimal `json:"inversiones_totales"`

	Income         decimal.Decimal `json:"ingreso_calculado"`
	CompanyPayroll decimal.Decimal `json:"nomina_empresa"`
	FinalPayroll   decimal.Decimal `json:"nomina_final"`
}

// Clone returns a deep copy safe to hand out of the cache.
func (d RentalDetail) Clone() RentalDetail {
	out := d
	if d.BankID != nil {
		id := *d.BankID
		out.BankID = &id
	}
	if d.Investments != nil {
		out.Investments = make([]Investment, len(d.Investments))
		copy(out.Investments, d.Investments)
	}
	return out
}

// VehicleLabel is the make, model and plate shown in the table.
func (d RentalDetail) VehicleLabel() string {
	label := strings.TrimSpace(strings.Join([]string{d.VehicleMake, d.VehicleModel}, " "))
	if d.VehiclePlate == "" {
		return label
	}
	if label == "" {
		return d.VehiclePlate
	}
	return label + " (" + d.VehiclePlate + ")"
}

// Set applies a staged edit of one editable field. The record is left
// untouched when the value does not satisfy the field invariants.
func (d *RentalDetail) Set(field Field, value any) error {
	const op = "set field"

	switch field {
	case FieldPrice:
		v, err := requiredMoney(field, value)
		if err != nil {
			return err
		}
		d.Price = v
	case FieldDaysWorked:
		v, err := toInt(value)
		if err != nil {
			return ValidationError(op, "%s: %v", field, err)
		}
		if v < MinDaysWorked || v > MaxDaysWorked {
			return ValidationError(op, "%s must be between %d and %d, got %d", field, MinDaysWorked, MaxDaysWorked, v)
		}
		d.DaysWorked = v
	case FieldDebt:
		v, err := optionalMoney(field, value)
		if err != nil {
			return err
		}
		d.Debt = v
	case FieldDiscount:
		v, err := optionalMoney(field, value)
		if err != nil {
			return err
		}
		d.Discount = v
	case FieldLegacyInvestment:
		v, err := optionalMoney(field, value)
		if err != nil {
			return err
		}
		d.LegacyInvestment = v
	case FieldBank:
		v, err := toOptionalID(value)
		if err != nil {
			return ValidationError(op, "%s: %v", field, err)
		}
		d.BankID = v
	case FieldPaymentDate:
		v, err := toDateString(value)
		if err != nil {
			return ValidationError(op, "%s: %v", field, err)
		}
		d.PaymentDate = v
	case FieldPaymentConfirmed:
		v, err := toBool(value)
		if err != nil {
			return ValidationError(op, "%s: %v", field, err)
		}
		d.PaymentConfirmed = v
	case FieldDiscountConcept:
		d.DiscountConcept = toText(value)
	case FieldInvestmentConcept:
		d.InvestmentConcept = toText(value)
	case FieldNotes:
		d.Notes = toText(value)
	default:
		return ValidationError(op, "field %q is not editable", string(field))
	}
	return nil
}

// Change snapshots the editable fields for a batch save.
func (d RentalDetail) Change() DetailChange {
	c := DetailChange{
		ID:                d.ID,
		Price:             d.Price,
		DaysWorked:        d.DaysWorked,
		LegacyInvestment:  d.LegacyInvestment,
		InvestmentConcept: d.InvestmentConcept,
		Discount:          d.Discount,
		DiscountConcept:   d.DiscountConcept,
		Debt:              d.Debt,
		PaymentDate:       d.PaymentDate,
		PaymentConfirmed:  d.PaymentConfirmed,
		Notes:             d.Notes,
	}
	if d.BankID != nil {
		id := *d.BankID
		c.BankID = &id
	}
	return c
}

// DetailChange is one entry of a batch save ("cambios").
type DetailChange struct {
	ID                int64
	Price             decimal.Decimal
	DaysWorked        int
	LegacyInvestment  decimal.Decimal
	InvestmentConcept string
	Discount          decimal.Decimal
	DiscountConcept   string
	Debt              decimal.Decimal
	BankID            *int64
	PaymentDate       string
	PaymentConfirmed  bool
	Notes             string
}

func requiredMoney(field Field, value any) (decimal.Decimal, error) {
	if isBlank(value) {
		return decimal.Zero, ValidationError("set field", "%s is required", field)
	}
	return optionalMoney(field, value)
}

func optionalMoney(field Field, value any) (decimal.Decimal, error) {
	v, err := toDecimal(value)
	if err != nil {
		return decimal.Zero, ValidationError("set field", "%s: %v", field, err)
	}
	if v.IsNegative() {
		return decimal.Zero, ValidationError("set field", "%s must not be negative", field)
	}
	return v, nil
}
