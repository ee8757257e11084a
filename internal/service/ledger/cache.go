package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/mamadbah2/alquiler/internal/domain/models"
	"github.com/mamadbah2/alquiler/internal/service/derivation"
)

// maxLoadAttempts bounds refetches when an invalidation races a fetch.
const maxLoadAttempts = 3

// errStaleFetch marks a fetch that resolved after its week was invalidated.
var errStaleFetch = errors.New("week was invalidated while loading")

// DetailSource fetches the authoritative details of a week.
type DetailSource interface {
	ListDetails(ctx context.Context, weekID int64) (*models.WeekDetails, error)
}

// FetchError reports a failed week load. It unwraps to the adapter error.
type FetchError struct {
	WeekID int64
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("load week %d: %v", e.WeekID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// WeekView is a read-only snapshot of a cached week.
type WeekView struct {
	Week        models.RentalWeek
	Details     []models.RentalDetail
	ModifiedIDs []int64
	Totals      models.Totals
	ReadOnly    bool
	Generation  uint64
}

// Modified reports whether detailID has staged edits.
func (v WeekView) Modified(detailID int64) bool {
	for _, id := range v.ModifiedIDs {
		if id == detailID {
			return true
		}
	}
	return false
}

// Detail returns the record with the given id.
func (v WeekView) Detail(detailID int64) (models.RentalDetail, bool) {
	for _, d := range v.Details {
		if d.ID == detailID {
			return d, true
		}
	}
	return models.RentalDetail{}, false
}

// MutationResult is the outcome of a staged field edit.
type MutationResult struct {
	Detail     models.RentalDetail
	Recomputed bool
	Totals     models.Totals
}

type weekEntry struct {
	week     models.RentalWeek
	details  []*models.RentalDetail
	modified []int64
	dirty    map[int64]struct{}
	readOnly bool
}

func (e *weekEntry) find(detailID int64) *models.RentalDetail {
	for _, d := range e.details {
		if d.ID == detailID {
			return d
		}
	}
	return nil
}

func (e *weekEntry) view(gen uint64) WeekView {
	details := make([]models.RentalDetail, len(e.details))
	for i, d := range e.details {
		details[i] = d.Clone()
	}
	modified := make([]int64, len(e.modified))
	copy(modified, e.modified)
	return WeekView{
		Week:        e.week,
		Details:     details,
		ModifiedIDs: modified,
		Totals:      derivation.Totals(details),
		ReadOnly:    e.readOnly,
		Generation:  gen,
	}
}

// WeekCache is the per-session store of loaded weeks. Absence of an entry
// means the week has not been loaded since its last invalidation.
type WeekCache struct {
	source DetailSource
	logger *zap.Logger
	group  singleflight.Group

	mu          sync.Mutex
	entries     map[int64]*weekEntry
	generations map[int64]uint64
	closed      map[int64]struct{}
}

// NewWeekCache builds an empty cache backed by source.
func NewWeekCache(source DetailSource, logger *zap.Logger) *WeekCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WeekCache{
		source:      source,
		logger:      logger,
		entries:     make(map[int64]*weekEntry),
		generations: make(map[int64]uint64),
		closed:      make(map[int64]struct{}),
	}
}

// Get returns the cached week without fetching.
func (c *WeekCache) Get(weekID int64) (WeekView, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[weekID]
	if !ok {
		return WeekView{}, false
	}
	return entry.view(c.generations[weekID]), true
}

// Load returns the cached week, fetching it first when absent. A failed
// fetch leaves no entry behind so the next call retries.
func (c *WeekCache) Load(ctx context.Context, weekID int64) (WeekView, error) {
	for attempt := 1; attempt <= maxLoadAttempts; attempt++ {
		c.mu.Lock()
		if entry, ok := c.entries[weekID]; ok {
			view := entry.view(c.generations[weekID])
			c.mu.Unlock()
			return view, nil
		}
		gen := c.generations[weekID]
		c.mu.Unlock()

		view, err := c.fetch(ctx, weekID, gen)
		if errors.Is(err, errStaleFetch) {
			c.logger.Debug("discarding stale week fetch", zap.Int64("week_id", weekID), zap.Uint64("generation", gen), zap.Int("attempt", attempt))
			continue
		}
		return view, err
	}
	return WeekView{}, &FetchError{WeekID: weekID, Err: errStaleFetch}
}

// fetch loads one generation of a week. Callers of the same generation share
// a single request, which runs detached from any one caller's cancellation
// and populates the cache even if every caller has given up.
func (c *WeekCache) fetch(ctx context.Context, weekID int64, gen uint64) (WeekView, error) {
	key := fmt.Sprintf("%d:%d", weekID, gen)
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		payload, err := c.source.ListDetails(shared, weekID)
		if err != nil {
			return nil, err
		}
		if payload == nil {
			return nil, models.NewError(models.KindProtocol, "list details", "empty week payload")
		}
		return nil, c.populate(weekID, gen, payload)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return WeekView{}, &FetchError{WeekID: weekID, Err: &models.Error{
			Kind:    models.KindNetwork,
			Op:      "list details",
			Message: "request cancelled",
			Err:     ctx.Err(),
		}}
	}

	if errors.Is(res.Err, errStaleFetch) {
		return WeekView{}, errStaleFetch
	}
	if res.Err != nil {
		c.logger.Warn("week fetch failed", zap.Int64("week_id", weekID), zap.Error(res.Err))
		return WeekView{}, &FetchError{WeekID: weekID, Err: res.Err}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[weekID]
	if !ok || c.generations[weekID] != gen {
		return WeekView{}, errStaleFetch
	}
	return entry.view(gen), nil
}

// populate stores a fetched payload unless the week was invalidated meanwhile.
func (c *WeekCache) populate(weekID int64, gen uint64, payload *models.WeekDetails) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generations[weekID] != gen {
		return errStaleFetch
	}
	if _, ok := c.entries[weekID]; ok {
		return nil
	}

	entry := &weekEntry{
		week:    payload.Week,
		details: make([]*models.RentalDetail, 0, len(payload.Details)),
		dirty:   make(map[int64]struct{}),
	}
	if entry.week.ID == 0 {
		entry.week.ID = weekID
	}
	for _, d := range payload.Details {
		rec := d.Clone()
		derivation.Apply(&rec)
		entry.details = append(entry.details, &rec)
	}
	_, closedHere := c.closed[weekID]
	entry.readOnly = entry.week.Closed() || closedHere
	if closedHere {
		entry.week.Status = models.WeekClosed
	}

	c.entries[weekID] = entry
	c.logger.Debug("week loaded", zap.Int64("week_id", weekID), zap.Int("details", len(entry.details)), zap.Bool("read_only", entry.readOnly))
	return nil
}

// Invalidate discards the week entry and its staged edits unconditionally.
// Fetches already in flight for the week are discarded when they resolve.
func (c *WeekCache) Invalidate(weekID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidateLocked(weekID)
}

func (c *WeekCache) invalidateLocked(weekID int64) {
	delete(c.entries, weekID)
	c.generations[weekID]++
}

// Reload invalidates and then loads the week as one sequenced step.
func (c *WeekCache) Reload(ctx context.Context, weekID int64) (WeekView, error) {
	c.Invalidate(weekID)
	return c.Load(ctx, weekID)
}

// Generation is the number of invalidations the week has seen.
func (c *WeekCache) Generation(weekID int64) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[weekID]
}

// MarkClosed makes the week read-only now and on every future load.
func (c *WeekCache) MarkClosed(weekID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed[weekID] = struct{}{}
	if entry, ok := c.entries[weekID]; ok {
		entry.readOnly = true
		entry.week.Status = models.WeekClosed
	}
}

// Forget drops every trace of a deleted week.
func (c *WeekCache) Forget(weekID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidateLocked(weekID)
	delete(c.closed, weekID)
}

// Mutate stages an edit of one field. Price, days and debt edits recompute
// the record's derived columns; other fields only mark the record dirty.
func (c *WeekCache) Mutate(weekID, detailID int64, field models.Field, value any) (MutationResult, error) {
	const op = "mutate"

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[weekID]
	if !ok {
		return MutationResult{}, models.NotFoundError(op, "week %d is not loaded", weekID)
	}
	if entry.readOnly {
		return MutationResult{}, models.ValidationError(op, "week %d is closed", weekID)
	}
	rec := entry.find(detailID)
	if rec == nil {
		return MutationResult{}, models.NotFoundError(op, "detail %d is not in week %d", detailID, weekID)
	}

	staged := rec.Clone()
	if err := staged.Set(field, value); err != nil {
		return MutationResult{}, err
	}
	recomputed := field.AffectsDerivation()
	if recomputed {
		derivation.Apply(&staged)
	}
	*rec = staged

	if _, seen := entry.dirty[detailID]; !seen {
		entry.dirty[detailID] = struct{}{}
		entry.modified = append(entry.modified, detailID)
	}

	view := entry.view(c.generations[weekID])
	return MutationResult{Detail: rec.Clone(), Recomputed: recomputed, Totals: view.Totals}, nil
}

// CollectChanges snapshots every modified record in modification order.
func (c *WeekCache) CollectChanges(weekID int64) ([]models.DetailChange, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[weekID]
	if !ok {
		return nil, models.NotFoundError("collect changes", "week %d is not loaded", weekID)
	}

	changes := make([]models.DetailChange, 0, len(entry.modified))
	for _, id := range entry.modified {
		if rec := entry.find(id); rec != nil {
			changes = append(changes, rec.Change())
		}
	}
	return changes, nil
}

// ReadOnly reports whether a loaded week rejects edits.
func (c *WeekCache) ReadOnly(weekID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.closed[weekID]; ok {
		return true
	}
	entry, ok := c.entries[weekID]
	return ok && entry.readOnly
}
