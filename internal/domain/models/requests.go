package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// CreateDetailRequest adds a vehicle and tenant assignment to a week.
type CreateDetailRequest struct {
	WeekID     int64 `validate:"required,gt=0"`
	VehicleID  int64 `validate:"required,gt=0"`
	TenantID   int64 `validate:"required,gt=0"`
	DaysWorked int   `validate:"gte=1,lte=7"`
}

// Validate defaults DaysWorked to a full week and checks the request.
func (r *CreateDetailRequest) Validate() error {
	if r.DaysWorked == 0 {
		r.DaysWorked = MaxDaysWorked
	}
	return validateStruct("validate create detail", r)
}

// DetailUpdate replaces every editable field of a detail, including its vehicle and tenant.
type DetailUpdate struct {
	VehicleID         int64 `validate:"required,gt=0"`
	TenantID          int64 `validate:"required,gt=0"`
	Price             decimal.Decimal
	DaysWorked        int `validate:"gte=1,lte=7"`
	LegacyInvestment  decimal.Decimal
	InvestmentConcept string
	Discount          decimal.Decimal
	DiscountConcept   string
	Debt              decimal.Decimal
	BankID            *int64 `validate:"omitempty,gt=0"`
	PaymentDate       string `validate:"omitempty,datetime=2006-01-02"`
	PaymentConfirmed  bool
	Notes             string
}

// UpdateFromDetail seeds a full-edit form from the cached record.
func UpdateFromDetail(d RentalDetail) DetailUpdate {
	c := d.Change()
	return DetailUpdate{
		VehicleID:         d.VehicleID,
		TenantID:          d.TenantID,
		Price:             c.Price,
		DaysWorked:        c.DaysWorked,
		LegacyInvestment:  c.LegacyInvestment,
		InvestmentConcept: c.InvestmentConcept,
		Discount:          c.Discount,
		DiscountConcept:   c.DiscountConcept,
		Debt:              c.Debt,
		BankID:            c.BankID,
		PaymentDate:       c.PaymentDate,
		PaymentConfirmed:  c.PaymentConfirmed,
		Notes:             c.Notes,
	}
}

// Validate checks the full-edit invariants.
func (u DetailUpdate) Validate() error {
	const op = "validate detail update"

	if err := validateStruct(op, u); err != nil {
		return err
	}
	money := map[Field]decimal.Decimal{
		FieldPrice:            u.Price,
		FieldLegacyInvestment: u.LegacyInvestment,
		FieldDiscount:         u.Discount,
		FieldDebt:             u.Debt,
	}
	for _, f := range []Field{FieldPrice, FieldLegacyInvestment, FieldDiscount, FieldDebt} {
		if money[f].IsNegative() {
			return ValidationError(op, "%s must not be negative", f)
		}
	}
	return nil
}

func validateStruct(op string, s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &Error{Kind: KindValidation, Op: op, Message: err.Error(), Err: err}
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return &Error{Kind: KindValidation, Op: op, Message: strings.Join(parts, "; "), Err: err}
}
