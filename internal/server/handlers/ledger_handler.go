package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/alquiler/internal/domain/models"
	"github.com/mamadbah2/alquiler/internal/service/accordion"
	"github.com/mamadbah2/alquiler/internal/service/ledger"
	"github.com/mamadbah2/alquiler/internal/service/presentation"
)

// Exporter writes a rendered week to an external spreadsheet.
type Exporter interface {
	ExportWeek(ctx context.Context, table presentation.WeekTable) (int, error)
}

// CommitLister reads the batch-save journal.
type CommitLister interface {
	ListCommits(ctx context.Context, weekID int64, limit int64) ([]models.CommitRecord, error)
}

// LedgerHandler turns staff actions into ledger operations.
type LedgerHandler struct {
	ledger      *ledger.Service
	rows        *accordion.Accordion
	exporter    Exporter
	journal     CommitLister
	sessionRole models.Role
	logger      *zap.Logger
}

// NewLedgerHandler constructs the HTTP handler adapter. exporter and journal
// may be nil. sessionRole is the role of the staff session the console runs
// as; requests cannot override it.
func NewLedgerHandler(svc *ledger.Service, rows *accordion.Accordion, exporter Exporter, journal CommitLister, sessionRole models.Role, logger *zap.Logger) *LedgerHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerHandler{
		ledger:      svc,
		rows:        rows,
		exporter:    exporter,
		journal:     journal,
		sessionRole: sessionRole,
		logger:      logger,
	}
}

type mutateRequest struct {
	Field string `json:"field" binding:"required"`
	Value any    `json:"value"`
}

type createDetailRequest struct {
	VehicleID  int64 `json:"vehiculo_id" binding:"required"`
	TenantID   int64 `json:"inquilino_id" binding:"required"`
	DaysWorked int   `json:"dias_trabajo"`
}

type fullEditRequest struct {
	VehicleID         int64           `json:"vehiculo_id" binding:"required"`
	TenantID          int64           `json:"inquilino_id" binding:"required"`
	Price             decimal.Decimal `json:"precio_semanal"`
	DaysWorked        int             `json:"dias_trabajo" binding:"required"`
	LegacyInvestment  decimal.Decimal `json:"inversion_mecanica"`
	InvestmentConcept string          `json:"concepto_inversion"`
	Discount          decimal.Decimal `json:"monto_descuento"`
	DiscountConcept   string          `json:"concepto_descuento"`
	Debt              decimal.Decimal `json:"monto_deuda"`
	BankID            *int64          `json:"banco_id"`
	PaymentDate       string          `json:"fecha_confirmacion_pago"`
	PaymentConfirmed  bool            `json:"pago_confirmado"`
	Notes             string          `json:"notas"`
}

type investmentRequest struct {
	WorkTypeID  int64                 `json:"tipo_trabajo_id" binding:"required"`
	MechanicID  *int64                `json:"mecanico_id"`
	Type        models.InvestmentType `json:"tipo_inversion" binding:"required"`
	Description string                `json:"descripcion" binding:"required"`
	Cost        decimal.Decimal       `json:"costo"`
}

// ShowWeek renders a week row. Expanded rows that were invalidated reload first.
// Like ToggleWeek it takes the status the week list reported in ?estado=.
func (h *LedgerHandler) ShowWeek(c *gin.Context) {
	weekID, ok := h.pathID(c, "weekID")
	if !ok {
		return
	}

	if !h.applyWeekStatus(c, weekID) {
		return
	}

	snap, err := h.rows.Refresh(c.Request.Context(), weekID)
	if err != nil {
		h.fail(c, "refresh week", err)
		return
	}
	c.JSON(http.StatusOK, h.table(snap))
}

// ToggleWeek expands or collapses a week row.
func (h *LedgerHandler) ToggleWeek(c *gin.Context) {
	weekID, ok := h.pathID(c, "weekID")
	if !ok {
		return
	}

	if !h.applyWeekStatus(c, weekID) {
		return
	}

	snap, err := h.rows.Toggle(c.Request.Context(), weekID)
	if err != nil {
		h.logger.Warn("week toggle failed", zap.Int64("week_id", weekID), zap.Error(err))
		c.JSON(statusFor(err), gin.H{"error": presentation.DescribeError(err), "table": h.table(snap)})
		return
	}
	c.JSON(http.StatusOK, h.table(snap))
}

// ReloadWeek discards local state and refetches the week.
func (h *LedgerHandler) ReloadWeek(c *gin.Context) {
	weekID, ok := h.pathID(c, "weekID")
	if !ok {
		return
	}

	view, err := h.ledger.Reload(c.Request.Context(), weekID)
	if err != nil {
		h.fail(c, "reload week", err)
		return
	}
	c.JSON(http.StatusOK, presentation.Render(view, accordion.StateExpanded))
}

// MutateDetail stages one inline edit and returns the cells it changed.
func (h *LedgerHandler) MutateDetail(c *gin.Context) {
	weekID, ok := h.pathID(c, "weekID")
	if !ok {
		return
	}
	detailID, ok := h.pathID(c, "detailID")
	if !ok {
		return
	}

	var req mutateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid edit payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	field, err := models.ParseField(req.Field)
	if err != nil {
		h.fail(c, "parse field", err)
		return
	}

	before, _ := h.ledger.Get(weekID)
	res, err := h.ledger.Mutate(weekID, detailID, field, req.Value)
	if err != nil {
		h.fail(c, "mutate detail", err)
		return
	}
	after, _ := h.ledger.Get(weekID)

	prev := presentation.Render(before, accordion.StateExpanded)
	next := presentation.Render(after, accordion.StateExpanded)
	c.JSON(http.StatusOK, gin.H{
		"recomputed":     res.Recomputed,
		"changes":        presentation.Diff(prev, next),
		"modified_count": next.ModifiedCount,
	})
}

// PendingChanges lists the staged records of a week.
func (h *LedgerHandler) PendingChanges(c *gin.Context) {
	weekID, ok := h.pathID(c, "weekID")
	if !ok {
		return
	}

	changes, err := h.ledger.CollectChanges(weekID)
	if err != nil {
		h.fail(c, "collect changes", err)
		return
	}
	ids := make([]int64, 0, len(changes))
	for _, ch := range changes {
		ids = append(ids, ch.ID)
	}
	c.JSON(http.StatusOK, gin.H{"count": len(changes), "detail_ids": ids})
}

// CommitWeek saves every staged edit of a week in one batch.
func (h *LedgerHandler) CommitWeek(c *gin.Context) {
	weekID, ok := h.pathID(c, "weekID")
	if !ok {
		return
	}

	updated, err := h.ledger.Commit(c.Request.Context(), h.sessionRole, weekID)
	if errors.Is(err, ledger.ErrNoPendingChanges) {
		c.JSON(http.StatusOK, gin.H{"updated": 0, "noop": true, "message": models.MessageOf(err)})
		return
	}
	if err != nil {
		h.fail(c, "commit week", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated, "noop": false})
}

// CreateDetail assigns a vehicle and tenant to a week.
func (h *LedgerHandler) CreateDetail(c *gin.Context) {
	weekID, ok := h.pathID(c, "weekID")
	if !ok {
		return
	}

	var req createDetailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	id, err := h.ledger.CreateDetail(c.Request.Context(), models.CreateDetailRequest{
		WeekID:     weekID,
		VehicleID:  req.VehicleID,
		TenantID:   req.TenantID,
		DaysWorked: req.DaysWorked,
	})
	if err != nil {
		h.fail(c, "create detail", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"detail_id": id})
}

// UpdateDetail saves the full-edit form of a record.
func (h *LedgerHandler) UpdateDetail(c *gin.Context) {
	weekID, ok := h.pathID(c, "weekID")
	if !ok {
		return
	}
	detailID, ok := h.pathID(c, "detailID")
	if !ok {
		return
	}

	var req fullEditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid full edit payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	upd := models.DetailUpdate{
		VehicleID:         req.VehicleID,
		TenantID:          req.TenantID,
		Price:             req.Price,
		DaysWorked:        req.DaysWorked,
		LegacyInvestment:  req.LegacyInvestment,
		InvestmentConcept: req.InvestmentConcept,
		Discount:          req.Discount,
		DiscountConcept:   req.DiscountConcept,
		Debt:              req.Debt,
		BankID:            req.BankID,
		PaymentDate:       req.PaymentDate,
		PaymentConfirmed:  req.PaymentConfirmed,
		Notes:             req.Notes,
	}
	if err := h.ledger.UpdateDetailFull(c.Request.Context(), weekID, detailID, upd); err != nil {
		h.fail(c, "update detail", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteDetail removes a record.
func (h *LedgerHandler) DeleteDetail(c *gin.Context) {
	weekID, ok := h.pathID(c, "weekID")
	if !ok {
		return
	}
	detailID, ok := h.pathID(c, "detailID")
	if !ok {
		return
	}

	if err := h.ledger.DeleteDetail(c.Request.Context(), weekID, detailID); err != nil {
		h.fail(c, "delete detail", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Available lists assignable vehicles and tenants; ?detail_id= keeps that record's own.
func (h *LedgerHandler) Available(c *gin.Context) {
	weekID, ok := h.pathID(c, "weekID")
	if !ok {
		return
	}
	var detailID int64
	if raw := c.Query("detail_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid detail_id"})
			return
		}
		detailID = id
	}

	avail, err := h.ledger.Available(c.Request.Context(), weekID, detailID)
	if err != nil {
		h.fail(c, "list available", err)
		return
	}
	c.JSON(http.StatusOK, avail)
}

// ListInvestments lists the itemized investments of a record.
func (h *LedgerHandler) ListInvestments(c *gin.Context) {
	detailID, ok := h.pathID(c, "detailID")
	if !ok {
		return
	}

	list, err := h.ledger.Investments(c.Request.Context(), detailID)
	if err != nil {
		h.fail(c, "list investments", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// AddInvestment records an investment against a record.
func (h *LedgerHandler) AddInvestment(c *gin.Context) {
	weekID, ok := h.pathID(c, "weekID")
	if !ok {
		return
	}
	detailID, ok := h.pathID(c, "detailID")
	if !ok {
		return
	}

	var req investmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid investment payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	in := models.InvestmentInput{
		WorkTypeID:  req.WorkTypeID,
		MechanicID:  req.MechanicID,
		Type:        req.Type,
		Description: req.Description,
		Cost:        req.Cost,
	}
	if err := h.ledger.AddInvestment(c.Request.Context(), weekID, detailID, in); err != nil {
		h.fail(c, "add investment", err)
		return
	}
	c.Status(http.StatusCreated)
}

// RemoveInvestment deletes an investment.
func (h *LedgerHandler) RemoveInvestment(c *gin.Context) {
	weekID, ok := h.pathID(c, "weekID")
	if !ok {
		return
	}
	investmentID, ok := h.pathID(c, "investmentID")
	if !ok {
		return
	}

	if err := h.ledger.RemoveInvestment(c.Request.Context(), weekID, investmentID); err != nil {
		h.fail(c, "remove investment", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CloseWeek closes a week. Administrators only.
func (h *LedgerHandler) CloseWeek(c *gin.Context) {
	weekID, ok := h.pathID(c, "weekID")
	if !ok {
		return
	}

	if err := h.ledger.CloseWeek(c.Request.Context(), h.sessionRole, weekID); err != nil {
		h.fail(c, "close week", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteWeek deletes a week. Administrators only.
func (h *LedgerHandler) DeleteWeek(c *gin.Context) {
	weekID, ok := h.pathID(c, "weekID")
	if !ok {
		return
	}

	if err := h.ledger.DeleteWeek(c.Request.Context(), h.sessionRole, weekID); err != nil {
		h.fail(c, "delete week", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ExportLink returns the backend spreadsheet download link.
func (h *LedgerHandler) ExportLink(c *gin.Context) {
	weekID, ok := h.pathID(c, "weekID")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": h.ledger.ExportURL(weekID)})
}

// ExportSheet writes the week table to the configured Google Sheet.
func (h *LedgerHandler) ExportSheet(c *gin.Context) {
	if h.exporter == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "sheet export is not configured"})
		return
	}
	weekID, ok := h.pathID(c, "weekID")
	if !ok {
		return
	}

	view, err := h.ledger.Load(c.Request.Context(), weekID)
	if err != nil {
		h.fail(c, "load week", err)
		return
	}
	rows, err := h.exporter.ExportWeek(c.Request.Context(), presentation.Render(view, accordion.StateExpanded))
	if err != nil {
		h.fail(c, "export week", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": rows})
}

// Commits lists the journal of batch saves of a week.
func (h *LedgerHandler) Commits(c *gin.Context) {
	if h.journal == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commit journal is not configured"})
		return
	}
	weekID, ok := h.pathID(c, "weekID")
	if !ok {
		return
	}
	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}

	records, err := h.journal.ListCommits(c.Request.Context(), weekID, limit)
	if err != nil {
		h.logger.Error("failed listing commits", zap.Int64("week_id", weekID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to read commit journal"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"commits": records})
}

// Banks returns the bank dropdown entries.
func (h *LedgerHandler) Banks(c *gin.Context) {
	banks, err := h.ledger.Banks(c.Request.Context(), c.Query("refresh") == "true")
	if err != nil {
		h.fail(c, "list banks", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"banks": banks})
}

// Anomalies returns the last active-weeks report.
func (h *LedgerHandler) Anomalies(c *gin.Context) {
	report, ok := h.ledger.Anomalies()
	if !ok {
		c.JSON(http.StatusOK, gin.H{"checked": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"checked": true, "report": report})
}

// RefreshAnomalies runs the active-weeks check now.
func (h *LedgerHandler) RefreshAnomalies(c *gin.Context) {
	report, err := h.ledger.ValidateActiveWeeks(c.Request.Context())
	if err != nil {
		h.fail(c, "validate active weeks", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"checked": true, "report": report})
}

// applyWeekStatus marks the week read-only when the week list reported it
// closed. The details payload does not always carry the status.
func (h *LedgerHandler) applyWeekStatus(c *gin.Context, weekID int64) bool {
	switch models.WeekStatus(c.Query("estado")) {
	case "", models.WeekOpen:
		return true
	case models.WeekClosed:
		h.ledger.MarkClosed(weekID)
		return true
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid estado"})
		return false
	}
}

// table prefers the live cache so staged edits show on expanded rows.
func (h *LedgerHandler) table(snap accordion.Snapshot) presentation.WeekTable {
	view, ok := h.ledger.Get(snap.WeekID)
	if ok {
		return presentation.Render(view, snap.State)
	}
	if snap.View != nil {
		return presentation.Render(*snap.View, snap.State)
	}
	return presentation.Render(ledger.WeekView{Week: models.RentalWeek{ID: snap.WeekID}}, snap.State)
}

func (h *LedgerHandler) pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

func (h *LedgerHandler) fail(c *gin.Context, action string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("ledger action failed", zap.String("action", action), zap.Error(err))
	} else {
		h.logger.Warn("ledger action rejected", zap.String("action", action), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": presentation.DescribeError(err)})
}

func statusFor(err error) int {
	switch models.KindOf(err) {
	case models.KindValidation:
		return http.StatusBadRequest
	case models.KindNotFound:
		return http.StatusNotFound
	case models.KindConflict:
		return http.StatusConflict
	case models.KindForbidden:
		return http.StatusForbidden
	case models.KindServer:
		return http.StatusUnprocessableEntity
	case models.KindNetwork, models.KindProtocol:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
