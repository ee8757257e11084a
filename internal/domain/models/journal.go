package models

import "time"

// CommitRecord is the journal entry written after a confirmed batch save.
type CommitRecord struct {
	ID          string          `bson:"_id" json:"id"`
	WeekID      int64           `bson:"week_id" json:"week_id"`
	DetailIDs   []int64         `bson:"detail_ids" json:"detail_ids"`
	Updated     int             `bson:"updated" json:"updated"`
	Changes     []JournalChange `bson:"changes" json:"changes"`
	Role        string          `bson:"role,omitempty" json:"role,omitempty"`
	CommittedAt time.Time       `bson:"committed_at" json:"committed_at"`
}

// JournalChange stores a batch entry with money as strings to keep exact values.
type JournalChange struct {
	DetailID         int64  `bson:"detail_id" json:"detail_id"`
	Price            string `bson:"precio_semanal" json:"precio_semanal"`
	DaysWorked       int    `bson:"dias_trabajo" json:"dias_trabajo"`
	Debt             string `bson:"monto_deuda" json:"monto_deuda"`
	Discount         string `bson:"monto_descuento" json:"monto_descuento"`
	LegacyInvestment string `bson:"inversion_mecanica" json:"inversion_mecanica"`
	BankID           *int64 `bson:"banco_id,omitempty" json:"banco_id,omitempty"`
	PaymentDate      string `bson:"fecha_confirmacion_pago,omitempty" json:"fecha_confirmacion_pago,omitempty"`
	PaymentConfirmed bool   `bson:"pago_confirmado" json:"pago_confirmado"`
	Notes            string `bson:"notas,omitempty" json:"notas,omitempty"`
}

// JournalChangeFrom converts a batch entry into its stored form.
func JournalChangeFrom(c DetailChange) JournalChange {
	return JournalChange{
		DetailID:         c.ID,
		Price:            c.Price.StringFixed(2),
		DaysWorked:       c.DaysWorked,
		Debt:             c.Debt.StringFixed(2),
		Discount:         c.Discount.StringFixed(2),
		LegacyInvestment: c.LegacyInvestment.StringFixed(2),
		BankID:           c.BankID,
		PaymentDate:      c.PaymentDate,
		PaymentConfirmed: c.PaymentConfirmed,
		Notes:            c.Notes,
	}
}
