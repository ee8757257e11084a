package presentation

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/mamadbah2/alquiler/internal/domain/models"
	"github.com/mamadbah2/alquiler/internal/service/accordion"
	"github.com/mamadbah2/alquiler/internal/service/derivation"
	"github.com/mamadbah2/alquiler/internal/service/ledger"
)

// Row is one rendered rental detail.
type Row struct {
	DetailID          int64  `json:"detail_id"`
	Owner             string `json:"owner"`
	OwnerInitials     string `json:"owner_initials"`
	Vehicle           string `json:"vehicle"`
	Tenant            string `json:"tenant"`
	TenantPhone       string `json:"tenant_phone"`
	Price             string `json:"price"`
	DaysWorked        int    `json:"days_worked"`
	Income            string `json:"income"`
	InvestmentTotal   string `json:"investment_total"`
	InvestmentConcept string `json:"investment_concept"`
	Discount          string `json:"discount"`
	DiscountConcept   string `json:"discount_concept"`
	CompanyPayroll    string `json:"company_payroll"`
	Debt              string `json:"debt"`
	Overdue           bool   `json:"overdue"`
	FinalPayroll      string `json:"final_payroll"`
	BankID            *int64 `json:"bank_id"`
	PaymentDate       string `json:"payment_date"`
	PaymentConfirmed  bool   `json:"payment_confirmed"`
	Notes             string `json:"notes"`
	Modified          bool   `json:"modified"`
	InvestmentAlert   bool   `json:"investment_alert"`
	Editable          bool   `json:"editable"`
}

// Footer holds the formatted column sums.
type Footer struct {
	Count           int    `json:"count"`
	Price           string `json:"price"`
	Income          string `json:"income"`
	InvestmentTotal string `json:"investment_total"`
	Discount        string `json:"discount"`
	CompanyPayroll  string `json:"company_payroll"`
	Debt            string `json:"debt"`
	FinalPayroll    string `json:"final_payroll"`
}

// WeekTable is the projection of a week row and, when expanded, its details.
type WeekTable struct {
	WeekID        int64           `json:"week_id"`
	Number        int             `json:"number"`
	StartDate     string          `json:"start_date"`
	EndDate       string          `json:"end_date"`
	Status        string          `json:"status"`
	State         accordion.State `json:"state"`
	ReadOnly      bool            `json:"read_only"`
	Empty         bool            `json:"empty"`
	Rows          []Row           `json:"rows,omitempty"`
	Footer        *Footer         `json:"footer,omitempty"`
	ModifiedCount int             `json:"modified_count"`
	AlertCount    int             `json:"alert_count"`
}

// Render projects a cached week. Only expanded weeks carry rows and a footer.
func Render(view ledger.WeekView, state accordion.State) WeekTable {
	table := WeekTable{
		WeekID:        view.Week.ID,
		Number:        view.Week.Number,
		StartDate:     view.Week.StartDate,
		EndDate:       view.Week.EndDate,
		Status:        string(view.Week.Status),
		State:         state,
		ReadOnly:      view.ReadOnly,
		ModifiedCount: len(view.ModifiedIDs),
	}
	if state != accordion.StateExpanded {
		return table
	}

	table.Empty = len(view.Details) == 0
	table.Rows = make([]Row, 0, len(view.Details))
	for _, d := range view.Details {
		row := renderRow(d, view.Modified(d.ID), !view.ReadOnly)
		if row.InvestmentAlert {
			table.AlertCount++
		}
		table.Rows = append(table.Rows, row)
	}
	footer := renderFooter(view.Totals)
	table.Footer = &footer
	return table
}

func renderRow(d models.RentalDetail, modified, editable bool) Row {
	derived := derivation.Derive(d)
	return Row{
		DetailID:          d.ID,
		Owner:             d.OwnerName,
		OwnerInitials:     d.OwnerInitials,
		Vehicle:           d.VehicleLabel(),
		Tenant:            d.TenantName,
		TenantPhone:       d.TenantPhone,
		Price:             Money(d.Price),
		DaysWorked:        d.DaysWorked,
		Income:            Money(d.Income),
		InvestmentTotal:   Money(derived.InvestmentTotal),
		InvestmentConcept: d.InvestmentConcept,
		Discount:          Money(d.Discount),
		DiscountConcept:   d.DiscountConcept,
		CompanyPayroll:    Money(d.CompanyPayroll),
		Debt:              Money(d.Debt),
		Overdue:           d.Overdue,
		FinalPayroll:      Money(d.FinalPayroll),
		BankID:            d.BankID,
		PaymentDate:       d.PaymentDate,
		PaymentConfirmed:  d.PaymentConfirmed,
		Notes:             d.Notes,
		Modified:          modified,
		InvestmentAlert:   derived.InvestmentAlert,
		Editable:          editable,
	}
}

func renderFooter(t models.Totals) Footer {
	return Footer{
		Count:           t.Count,
		Price:           Money(t.Price),
		Income:          Money(t.Income),
		InvestmentTotal: Money(t.InvestmentTotal),
		Discount:        Money(t.Discount),
		CompanyPayroll:  Money(t.CompanyPayroll),
		Debt:            Money(t.Debt),
		FinalPayroll:    Money(t.FinalPayroll),
	}
}

// CellChange is one cell whose rendered value differs between two renders.
// DetailID 0 addresses the footer. Removed marks a row that disappeared.
type CellChange struct {
	DetailID int64  `json:"detail_id"`
	Column   string `json:"column,omitempty"`
	Value    string `json:"value,omitempty"`
	Removed  bool   `json:"removed,omitempty"`
}

// Diff returns the cells that changed from prev to next, rows in next's order.
func Diff(prev, next WeekTable) []CellChange {
	var changes []CellChange

	before := make(map[int64]Row, len(prev.Rows))
	for _, r := range prev.Rows {
		before[r.DetailID] = r
	}
	seen := make(map[int64]struct{}, len(next.Rows))

	for _, r := range next.Rows {
		seen[r.DetailID] = struct{}{}
		old, existed := before[r.DetailID]
		oldCols := map[string]string{}
		if existed {
			oldCols = toMap(old.columns())
		}
		for _, c := range r.columns() {
			if v, ok := oldCols[c.name]; existed && ok && v == c.value {
				continue
			}
			changes = append(changes, CellChange{DetailID: r.DetailID, Column: c.name, Value: c.value})
		}
	}
	for _, r := range prev.Rows {
		if _, ok := seen[r.DetailID]; !ok {
			changes = append(changes, CellChange{DetailID: r.DetailID, Removed: true})
		}
	}

	oldFooter := map[string]string{}
	if prev.Footer != nil {
		oldFooter = toMap(prev.Footer.columns())
	}
	if next.Footer != nil {
		for _, c := range next.Footer.columns() {
			if v, ok := oldFooter[c.name]; ok && v == c.value {
				continue
			}
			changes = append(changes, CellChange{Column: "footer." + c.name, Value: c.value})
		}
	}
	return changes
}

type column struct {
	name  string
	value string
}

func (r Row) columns() []column {
	bank := ""
	if r.BankID != nil {
		bank = strconv.FormatInt(*r.BankID, 10)
	}
	return []column{
		{"precio_semanal", r.Price},
		{"dias_trabajo", strconv.Itoa(r.DaysWorked)},
		{"ingreso", r.Income},
		{"inversion", r.InvestmentTotal},
		{"concepto_inversion", r.InvestmentConcept},
		{"monto_descuento", r.Discount},
		{"concepto_descuento", r.DiscountConcept},
		{"nomina_empresa", r.CompanyPayroll},
		{"monto_deuda", r.Debt},
		{"nomina_final", r.FinalPayroll},
		{"banco_id", bank},
		{"fecha_confirmacion_pago", r.PaymentDate},
		{"pago_confirmado", strconv.FormatBool(r.PaymentConfirmed)},
		{"notas", r.Notes},
		{"modificado", strconv.FormatBool(r.Modified)},
		{"alerta_inversion", strconv.FormatBool(r.InvestmentAlert)},
	}
}

func (f Footer) columns() []column {
	return []column{
		{"cantidad", strconv.Itoa(f.Count)},
		{"precio_semanal", f.Price},
		{"ingreso", f.Income},
		{"inversion", f.InvestmentTotal},
		{"monto_descuento", f.Discount},
		{"nomina_empresa", f.CompanyPayroll},
		{"monto_deuda", f.Debt},
		{"nomina_final", f.FinalPayroll},
	}
}

func toMap(cols []column) map[string]string {
	m := make(map[string]string, len(cols))
	for _, c := range cols {
		m[c.name] = c.value
	}
	return m
}

// ErrorView is what a toast needs to report a failed action.
type ErrorView struct {
	Kind      models.ErrorKind `json:"kind"`
	Message   string           `json:"message"`
	Retryable bool             `json:"retryable"`
}

// DescribeError maps any ledger or adapter error to a displayable view.
func DescribeError(err error) ErrorView {
	if err == nil {
		return ErrorView{}
	}

	kind := models.KindOf(err)
	if kind == "" {
		kind = models.KindServer
	}
	view := ErrorView{
		Kind:      kind,
		Message:   models.MessageOf(err),
		Retryable: kind == models.KindNetwork || kind == models.KindProtocol,
	}

	var fetchErr *ledger.FetchError
	if errors.As(err, &fetchErr) {
		view.Message = fmt.Sprintf("Could not load week %d: %s", fetchErr.WeekID, models.MessageOf(fetchErr.Err))
		view.Retryable = true
	}
	return view
}
