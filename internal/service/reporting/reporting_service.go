package reporting

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/alquiler/internal/domain/models"
	repo "github.com/mamadbah2/alquiler/internal/repository/sheets"
	"github.com/mamadbah2/alquiler/internal/service/presentation"
)

const (
	weekClearRange = "Semana!A:Q"
	weekWriteRange = "Semana!A1"
	historyRange   = "Historial!A:E"
)

var header = []interface{}{
	"Propietario", "Vehiculo", "Inquilino", "Precio semanal", "Dias", "Ingreso",
	"Inversion", "Descuento", "Concepto descuento", "Nomina empresa", "Deuda",
	"Nomina final", "Banco", "Fecha pago", "Pago confirmado", "Notas", "Alerta",
}

// Service exports rendered week tables to a spreadsheet.
type Service struct {
	repo   repo.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires a new reporting service instance.
func NewService(repository repo.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repository, logger: logger, now: time.Now}
}

// ExportWeek replaces the week sheet with the table and logs the export.
// It returns the number of detail rows written.
func (s *Service) ExportWeek(ctx context.Context, table presentation.WeekTable) (int, error) {
	if table.Footer == nil {
		return 0, models.ValidationError("export week", "week %d is not expanded", table.WeekID)
	}

	if err := s.repo.ClearRange(ctx, weekClearRange); err != nil {
		return 0, fmt.Errorf("clear week sheet: %w", err)
	}
	if err := s.repo.WriteRows(ctx, weekWriteRange, BuildRows(table)); err != nil {
		return 0, fmt.Errorf("write week sheet: %w", err)
	}

	entry := []interface{}{
		s.now().UTC().Format(time.RFC3339),
		table.WeekID,
		table.Number,
		len(table.Rows),
		table.Footer.FinalPayroll,
	}
	if err := s.repo.AppendRow(ctx, historyRange, entry); err != nil {
		// The week sheet is already written; a missing history line is not fatal.
		s.logger.Warn("failed to log week export", zap.Int64("week_id", table.WeekID), zap.Error(err))
	}

	s.logger.Info("week exported", zap.Int64("week_id", table.WeekID), zap.Int("rows", len(table.Rows)))
	return len(table.Rows), nil
}

// BuildRows lays out a title line, the header, every detail and the totals.
func BuildRows(table presentation.WeekTable) [][]interface{} {
	rows := make([][]interface{}, 0, len(table.Rows)+3)
	rows = append(rows, []interface{}{
		fmt.Sprintf("Semana %d", table.Number),
		table.StartDate,
		table.EndDate,
		table.Status,
	})
	rows = append(rows, header)

	for _, r := range table.Rows {
		bank := ""
		if r.BankID != nil {
			bank = strconv.FormatInt(*r.BankID, 10)
		}
		alert := ""
		if r.InvestmentAlert {
			alert = "!"
		}
		rows = append(rows, []interface{}{
			r.Owner, r.Vehicle, r.Tenant, r.Price, r.DaysWorked, r.Income,
			r.InvestmentTotal, r.Discount, r.DiscountConcept, r.CompanyPayroll, r.Debt,
			r.FinalPayroll, bank, r.PaymentDate, yesNo(r.PaymentConfirmed), r.Notes, alert,
		})
	}

	f := table.Footer
	if f != nil {
		rows = append(rows, []interface{}{
			"Totales", "", strconv.Itoa(f.Count), f.Price, "", f.Income,
			f.InvestmentTotal, f.Discount, "", f.CompanyPayroll, f.Debt,
			f.FinalPayroll,
		})
	}
	return rows
}

func yesNo(v bool) string {
	if v {
		return "Si"
	}
	return "No"
}
