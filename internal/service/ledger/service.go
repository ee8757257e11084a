package ledger

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/alquiler/internal/domain/models"
	client "github.com/mamadbah2/alquiler/pkg/clients/alquiler"
)

// ErrNoPendingChanges is returned by Commit when nothing was edited. No request is sent.
var ErrNoPendingChanges = models.ValidationError("commit", "no pending changes to save")

// Journal stores an audit entry for every confirmed batch save.
type Journal interface {
	RecordCommit(ctx context.Context, record models.CommitRecord) error
}

// Service is the application-root ledger for one staff session.
type Service struct {
	client  client.Client
	cache   *WeekCache
	journal Journal
	events  *eventBus
	logger  *zap.Logger
	now     func() time.Time

	mu        sync.RWMutex
	banks     []models.Bank
	anomalies *models.ActiveWeeksReport
}

// NewService wires a ledger over the backend client. journal may be nil.
func NewService(backend client.Client, journal Journal, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		client:  backend,
		cache:   NewWeekCache(backend, logger.Named("cache")),
		journal: journal,
		events:  newEventBus(),
		logger:  logger,
		now:     time.Now,
	}
}

// Subscribe registers fn for ledger events and returns its cancel function.
func (s *Service) Subscribe(fn func(Event)) func() {
	return s.events.subscribe(fn)
}

// Get returns a loaded week without fetching.
func (s *Service) Get(weekID int64) (WeekView, bool) {
	return s.cache.Get(weekID)
}

// Load returns the week, fetching it when it is not cached.
func (s *Service) Load(ctx context.Context, weekID int64) (WeekView, error) {
	if view, ok := s.cache.Get(weekID); ok {
		return view, nil
	}
	view, err := s.cache.Load(ctx, weekID)
	if err != nil {
		return WeekView{}, err
	}
	s.events.publish(Event{Kind: EventWeekLoaded, WeekID: weekID})
	return view, nil
}

// MarkClosed makes a week read-only for the rest of the session. Callers use
// it when the week list reports a closed week whose details payload does not.
func (s *Service) MarkClosed(weekID int64) {
	if s.cache.ReadOnly(weekID) {
		return
	}
	s.cache.MarkClosed(weekID)
	s.logger.Info("week marked read-only", zap.Int64("week_id", weekID))
}

// Invalidate discards the cached week.
func (s *Service) Invalidate(weekID int64) {
	s.cache.Invalidate(weekID)
	s.events.publish(Event{Kind: EventWeekInvalidated, WeekID: weekID})
}

// Reload discards and refetches the week in one sequenced step.
func (s *Service) Reload(ctx context.Context, weekID int64) (WeekView, error) {
	s.events.publish(Event{Kind: EventWeekInvalidated, WeekID: weekID})
	view, err := s.cache.Reload(ctx, weekID)
	if err != nil {
		return WeekView{}, err
	}
	s.events.publish(Event{Kind: EventWeekLoaded, WeekID: weekID})
	return view, nil
}

// Mutate stages an inline edit on a cached record.
func (s *Service) Mutate(weekID, detailID int64, field models.Field, value any) (MutationResult, error) {
	res, err := s.cache.Mutate(weekID, detailID, field, value)
	if err != nil {
		return MutationResult{}, err
	}

	s.logger.Debug("detail staged",
		zap.Int64("week_id", weekID),
		zap.Int64("detail_id", detailID),
		zap.String("field", string(field)),
		zap.Bool("recomputed", res.Recomputed))

	s.events.publish(Event{Kind: EventDetailChanged, WeekID: weekID, DetailID: detailID, Field: field})
	if field.AffectsTotals() {
		totals := res.Totals
		s.events.publish(Event{Kind: EventTotalsChanged, WeekID: weekID, DetailID: detailID, Field: field, Totals: &totals})
	}
	return res, nil
}

// CollectChanges lists the staged records of a week in modification order.
func (s *Service) CollectChanges(weekID int64) ([]models.DetailChange, error) {
	return s.cache.CollectChanges(weekID)
}

// Commit sends every staged record in one batch. On success the week is
// invalidated so the next load shows server values; on failure the staged
// edits stay in place for a retry.
func (s *Service) Commit(ctx context.Context, role models.Role, weekID int64) (int, error) {
	if s.cache.ReadOnly(weekID) {
		return 0, models.ValidationError("commit", "week %d is closed", weekID)
	}
	changes, err := s.cache.CollectChanges(weekID)
	if err != nil {
		return 0, err
	}
	if len(changes) == 0 {
		return 0, ErrNoPendingChanges
	}

	updated, err := s.client.BatchUpdate(ctx, weekID, changes)
	if err != nil {
		s.logger.Warn("batch save failed", zap.Int64("week_id", weekID), zap.Int("changes", len(changes)), zap.Error(err))
		return 0, err
	}

	s.Invalidate(weekID)
	s.events.publish(Event{Kind: EventChangesCommitted, WeekID: weekID, Updated: updated})
	s.logger.Info("batch saved", zap.Int64("week_id", weekID), zap.Int("changes", len(changes)), zap.Int("updated", updated))

	s.recordCommit(ctx, role, weekID, changes, updated)
	return updated, nil
}

// CreateDetail adds a rental to a week. Conflicts leave the cache untouched.
func (s *Service) CreateDetail(ctx context.Context, req models.CreateDetailRequest) (int64, error) {
	const op = "create detail"

	if err := req.Validate(); err != nil {
		return 0, err
	}
	if s.cache.ReadOnly(req.WeekID) {
		return 0, models.ValidationError(op, "week %d is closed", req.WeekID)
	}

	id, err := s.client.CreateDetail(ctx, req)
	if err != nil {
		return 0, err
	}
	s.Invalidate(req.WeekID)
	s.logger.Info("detail created", zap.Int64("week_id", req.WeekID), zap.Int64("detail_id", id))
	return id, nil
}

// UpdateDetailFull saves a full edit of one record immediately.
func (s *Service) UpdateDetailFull(ctx context.Context, weekID, detailID int64, upd models.DetailUpdate) error {
	const op = "update detail"

	if s.cache.ReadOnly(weekID) {
		return models.ValidationError(op, "week %d is closed", weekID)
	}
	if err := upd.Validate(); err != nil {
		return err
	}
	if err := s.client.UpdateDetailFull(ctx, detailID, upd); err != nil {
		return err
	}
	s.Invalidate(weekID)
	return nil
}

// DeleteDetail removes a record from its week.
func (s *Service) DeleteDetail(ctx context.Context, weekID, detailID int64) error {
	if s.cache.ReadOnly(weekID) {
		return models.ValidationError("delete detail", "week %d is closed", weekID)
	}
	if err := s.client.DeleteDetail(ctx, detailID); err != nil {
		return err
	}
	s.Invalidate(weekID)
	s.logger.Info("detail deleted", zap.Int64("week_id", weekID), zap.Int64("detail_id", detailID))
	return nil
}

// Available lists assignable vehicles and tenants. With a detailID the
// record's current vehicle and tenant stay selectable for the edit form.
func (s *Service) Available(ctx context.Context, weekID, detailID int64) (*models.Availability, error) {
	avail, err := s.client.ListAvailable(ctx, weekID)
	if err != nil {
		return nil, err
	}
	if detailID == 0 {
		return avail, nil
	}

	view, ok := s.cache.Get(weekID)
	if !ok {
		return avail, nil
	}
	current, ok := view.Detail(detailID)
	if !ok {
		return avail, nil
	}
	return withCurrentAssignment(*avail, current), nil
}

func withCurrentAssignment(avail models.Availability, d models.RentalDetail) *models.Availability {
	out := models.Availability{
		Vehicles: append([]models.Vehicle(nil), avail.Vehicles...),
		Tenants:  append([]models.Tenant(nil), avail.Tenants...),
	}

	hasVehicle := false
	for _, v := range out.Vehicles {
		if v.ID == d.VehicleID {
			hasVehicle = true
			break
		}
	}
	if !hasVehicle && d.VehicleID != 0 {
		ownerID := d.OwnerID
		out.Vehicles = append([]models.Vehicle{{
			ID:        d.VehicleID,
			Plate:     d.VehiclePlate,
			Make:      d.VehicleMake,
			Model:     d.VehicleModel,
			Price:     d.Price,
			OwnerID:   &ownerID,
			OwnerName: d.OwnerName,
		}}, out.Vehicles...)
	}

	hasTenant := false
	for _, t := range out.Tenants {
		if t.ID == d.TenantID {
			hasTenant = true
			break
		}
	}
	if !hasTenant && d.TenantID != 0 {
		out.Tenants = append([]models.Tenant{{
			ID:    d.TenantID,
			Name:  d.TenantName,
			Phone: d.TenantPhone,
		}}, out.Tenants...)
	}
	return &out
}

// Investments lists the itemized investments of a record.
func (s *Service) Investments(ctx context.Context, detailID int64) (*models.InvestmentList, error) {
	return s.client.ListInvestments(ctx, detailID)
}

// AddInvestment records an investment against a record.
func (s *Service) AddInvestment(ctx context.Context, weekID, detailID int64, in models.InvestmentInput) error {
	if s.cache.ReadOnly(weekID) {
		return models.ValidationError("add investment", "week %d is closed", weekID)
	}
	if err := in.Validate(); err != nil {
		return err
	}
	if err := s.client.AddInvestment(ctx, detailID, in); err != nil {
		return err
	}
	s.Invalidate(weekID)
	return nil
}

// RemoveInvestment deletes an investment of a record in weekID.
func (s *Service) RemoveInvestment(ctx context.Context, weekID, investmentID int64) error {
	if s.cache.ReadOnly(weekID) {
		return models.ValidationError("remove investment", "week %d is closed", weekID)
	}
	if err := s.client.RemoveInvestment(ctx, investmentID); err != nil {
		return err
	}
	s.Invalidate(weekID)
	return nil
}

// CloseWeek closes a week for good. Only administrators may close weeks.
func (s *Service) CloseWeek(ctx context.Context, role models.Role, weekID int64) error {
	if !role.IsAdmin() {
		return &models.Error{Kind: models.KindForbidden, Op: "close week", Message: "only administrators can close weeks"}
	}
	if err := s.client.CloseWeek(ctx, weekID); err != nil {
		return err
	}
	s.cache.MarkClosed(weekID)
	s.Invalidate(weekID)
	s.events.publish(Event{Kind: EventWeekClosed, WeekID: weekID})
	s.logger.Info("week closed", zap.Int64("week_id", weekID))
	return nil
}

// DeleteWeek deletes a week. Only administrators may delete weeks.
func (s *Service) DeleteWeek(ctx context.Context, role models.Role, weekID int64) error {
	if !role.IsAdmin() {
		return &models.Error{Kind: models.KindForbidden, Op: "delete week", Message: "only administrators can delete weeks"}
	}
	if err := s.client.DeleteWeek(ctx, weekID); err != nil {
		return err
	}
	s.cache.Forget(weekID)
	s.events.publish(Event{Kind: EventWeekDeleted, WeekID: weekID})
	s.logger.Info("week deleted", zap.Int64("week_id", weekID))
	return nil
}

// ValidateActiveWeeks refreshes the active-weeks warning data.
func (s *Service) ValidateActiveWeeks(ctx context.Context) (*models.ActiveWeeksReport, error) {
	report, err := s.client.ValidateActiveWeeks(ctx)
	if err != nil {
		return nil, err
	}
	report.CheckedAt = s.now().UTC()

	s.mu.Lock()
	s.anomalies = report
	s.mu.Unlock()
	return report, nil
}

// Anomalies returns the last active-weeks report, if any.
func (s *Service) Anomalies() (*models.ActiveWeeksReport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.anomalies == nil {
		return nil, false
	}
	report := *s.anomalies
	report.Anomalies = append([]models.WeekAnomaly(nil), s.anomalies.Anomalies...)
	return &report, true
}

// Banks returns the bank list, fetched once per session unless refresh is set.
func (s *Service) Banks(ctx context.Context, refresh bool) ([]models.Bank, error) {
	s.mu.RLock()
	cached := s.banks
	s.mu.RUnlock()
	if cached != nil && !refresh {
		return append([]models.Bank(nil), cached...), nil
	}

	banks, err := s.client.ListBanks(ctx)
	if err != nil {
		return nil, err
	}
	if banks == nil {
		banks = []models.Bank{}
	}

	s.mu.Lock()
	s.banks = banks
	s.mu.Unlock()
	return append([]models.Bank(nil), banks...), nil
}

// ExportURL is the backend spreadsheet download for a week.
func (s *Service) ExportURL(weekID int64) string {
	return s.client.ExcelExportURL(weekID)
}

func (s *Service) recordCommit(ctx context.Context, role models.Role, weekID int64, changes []models.DetailChange, updated int) {
	if s.journal == nil {
		return
	}
	record := newCommitRecord(weekID, changes, updated, s.now().UTC())
	record.Role = string(role)
	if err := s.journal.RecordCommit(ctx, record); err != nil {
		s.logger.Error("failed to journal batch save", zap.Int64("week_id", weekID), zap.String("commit_id", record.ID), zap.Error(err))
	}
}
