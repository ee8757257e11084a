package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Field names an inline-editable column of a rental detail, using the backend wire name.
type Field string

const (
	FieldPrice             Field = "precio_semanal"
	FieldDaysWorked        Field = "dias_trabajo"
	FieldDebt              Field = "monto_deuda"
	FieldDiscount          Field = "monto_descuento"
	FieldDiscountConcept   Field = "concepto_descuento"
	FieldLegacyInvestment  Field = "inversion_mecanica"
	FieldInvestmentConcept Field = "concepto_inversion"
	FieldBank              Field = "banco_id"
	FieldPaymentDate       Field = "fecha_confirmacion_pago"
	FieldPaymentConfirmed  Field = "pago_confirmado"
	FieldNotes             Field = "notas"
)

const (
	MinDaysWorked = 1
	MaxDaysWorked = 7

	DateLayout = "2006-01-02"
)

// EditableFields lists every field accepted by RentalDetail.Set.
var EditableFields = []Field{
	FieldPrice,
	FieldDaysWorked,
	FieldDebt,
	FieldDiscount,
	FieldDiscountConcept,
	FieldLegacyInvestment,
	FieldInvestmentConcept,
	FieldBank,
	FieldPaymentDate,
	FieldPaymentConfirmed,
	FieldNotes,
}

// ParseField validates a wire field name.
func ParseField(name string) (Field, error) {
	f := Field(strings.TrimSpace(name))
	for _, known := range EditableFields {
		if f == known {
			return f, nil
		}
	}
	return "", ValidationError("parse field", "unknown field %q", name)
}

// AffectsDerivation reports whether an edit must recompute income and payroll.
func (f Field) AffectsDerivation() bool {
	switch f {
	case FieldPrice, FieldDaysWorked, FieldDebt:
		return true
	}
	return false
}

// AffectsInvestment reports whether an edit changes the legacy investment total.
func (f Field) AffectsInvestment() bool {
	return f == FieldLegacyInvestment
}

// AffectsTotals reports whether an edit moves any footer total.
func (f Field) AffectsTotals() bool {
	return f.AffectsDerivation() || f.AffectsInvestment() || f == FieldDiscount
}

func isBlank(value any) bool {
	if value == nil {
		return true
	}
	s, ok := value.(string)
	return ok && strings.TrimSpace(s) == ""
}

func toDecimal(value any) (decimal.Decimal, error) {
	switch v := value.(type) {
	case nil:
		return decimal.Zero, nil
	case decimal.Decimal:
		return v, nil
	case *decimal.Decimal:
		if v == nil {
			return decimal.Zero, nil
		}
		return *v, nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return decimal.Zero, nil
		}
		d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
		if err != nil {
			return decimal.Zero, fmt.Errorf("%q is not a number", v)
		}
		return d, nil
	default:
		return decimal.Zero, fmt.Errorf("unsupported value type %T", value)
	}
}

func toInt(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("%v is not a whole number", v)
		}
		return int(v), nil
	case decimal.Decimal:
		if !v.IsInteger() {
			return 0, fmt.Errorf("%s is not a whole number", v)
		}
		return int(v.IntPart()), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("%q is not a whole number", v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("unsupported value type %T", value)
	}
}

func toOptionalID(value any) (*int64, error) {
	if isBlank(value) {
		return nil, nil
	}
	var id int64
	switch v := value.(type) {
	case *int64:
		if v == nil {
			return nil, nil
		}
		id = *v
	case int64:
		id = v
	default:
		n, err := toInt(value)
		if err != nil {
			return nil, err
		}
		id = int64(n)
	}
	if id < 0 {
		return nil, fmt.Errorf("id must not be negative")
	}
	if id == 0 {
		return nil, nil
	}
	return &id, nil
}

func toBool(value any) (bool, error) {
	switch v := value.(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "", "0", "false", "off", "no":
			return false, nil
		case "1", "true", "on", "yes", "si", "sí":
			return true, nil
		}
		return false, fmt.Errorf("%q is not a boolean", v)
	default:
		return false, fmt.Errorf("unsupported value type %T", value)
	}
}

func toDateString(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case time.Time:
		if v.IsZero() {
			return "", nil
		}
		return v.Format(DateLayout), nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return "", nil
		}
		if _, err := time.Parse(DateLayout, s); err != nil {
			return "", fmt.Errorf("%q is not a %s date", v, DateLayout)
		}
		return s, nil
	default:
		return "", fmt.Errorf("unsupported value type %T", value)
	}
}

func toText(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
