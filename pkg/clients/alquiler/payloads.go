package alquiler

import (
	"strings"

	"github.com/mamadbah2/alquiler/internal/domain/models"
)

// Request bodies use plain numbers for money, as the backend forms do.

type createBody struct {
	WeekID     int64 `json:"semana_id"`
	VehicleID  int64 `json:"vehiculo_id"`
	TenantID   int64 `json:"inquilino_id"`
	DaysWorked int   `json:"dias_trabajo"`
}

type editableBody struct {
	Price             float64 `json:"precio_semanal"`
	DaysWorked        int     `json:"dias_trabajo"`
	LegacyInvestment  float64 `json:"inversion_mecanica"`
	InvestmentConcept string  `json:"concepto_inversion"`
	Discount          float64 `json:"monto_descuento"`
	DiscountConcept   string  `json:"concepto_descuento"`
	Debt              float64 `json:"monto_deuda"`
	BankID            *int64  `json:"banco_id"`
	PaymentDate       string  `json:"fecha_confirmacion_pago"`
	PaymentConfirmed  bool    `json:"pago_confirmado"`
	Notes             string  `json:"notas"`
}

type changeBody struct {
	ID int64 `json:"id"`
	editableBody
}

type batchBody struct {
	Changes []changeBody `json:"cambios"`
}

type fullEditBody struct {
	VehicleID int64 `json:"vehiculo_id"`
	TenantID  int64 `json:"inquilino_id"`
	editableBody
}

type investmentBody struct {
	WorkTypeID  int64                 `json:"tipo_trabajo_id"`
	MechanicID  *int64                `json:"mecanico_id,omitempty"`
	Type        models.InvestmentType `json:"tipo_inversion"`
	Description string                `json:"descripcion"`
	Cost        float64               `json:"costo"`
}

func newCreateBody(req models.CreateDetailRequest) createBody {
	return createBody{
		WeekID:     req.WeekID,
		VehicleID:  req.VehicleID,
		TenantID:   req.TenantID,
		DaysWorked: req.DaysWorked,
	}
}

func newEditableBody(c models.DetailChange) editableBody {
	return editableBody{
		Price:             c.Price.InexactFloat64(),
		DaysWorked:        c.DaysWorked,
		LegacyInvestment:  c.LegacyInvestment.InexactFloat64(),
		InvestmentConcept: c.InvestmentConcept,
		Discount:          c.Discount.InexactFloat64(),
		DiscountConcept:   c.DiscountConcept,
		Debt:              c.Debt.InexactFloat64(),
		BankID:            c.BankID,
		PaymentDate:       c.PaymentDate,
		PaymentConfirmed:  c.PaymentConfirmed,
		Notes:             c.Notes,
	}
}

// newBatchBody keeps the caller's order, which is modification order.
func newBatchBody(changes []models.DetailChange) batchBody {
	body := batchBody{Changes: make([]changeBody, 0, len(changes))}
	for _, c := range changes {
		body.Changes = append(body.Changes, changeBody{ID: c.ID, editableBody: newEditableBody(c)})
	}
	return body
}

func newFullEditBody(u models.DetailUpdate) fullEditBody {
	return fullEditBody{
		VehicleID: u.VehicleID,
		TenantID:  u.TenantID,
		editableBody: newEditableBody(models.DetailChange{
			Price:             u.Price,
			DaysWorked:        u.DaysWorked,
			LegacyInvestment:  u.LegacyInvestment,
			InvestmentConcept: u.InvestmentConcept,
			Discount:          u.Discount,
			DiscountConcept:   u.DiscountConcept,
			Debt:              u.Debt,
			BankID:            u.BankID,
			PaymentDate:       u.PaymentDate,
			PaymentConfirmed:  u.PaymentConfirmed,
			Notes:             u.Notes,
		}),
	}
}

func newInvestmentBody(in models.InvestmentInput) investmentBody {
	return investmentBody{
		WorkTypeID:  in.WorkTypeID,
		MechanicID:  in.MechanicID,
		Type:        in.Type,
		Description: strings.TrimSpace(in.Description),
		Cost:        in.Cost.InexactFloat64(),
	}
}
