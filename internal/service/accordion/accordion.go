package accordion

import (
	"context"
	"fmt"
	"sync"

	"github.com/qmuntal/stateless"
	"go.uber.org/zap"

	"github.com/mamadbah2/alquiler/internal/service/ledger"
)

// State is the display state of one week row.
type State string

const (
	StateCollapsed State = "collapsed"
	StateExpanding State = "expanding"
	StateExpanded  State = "expanded"
	// StateFailed is collapsed with an error. Toggling retries the load.
	StateFailed State = "failed"
)

const (
	triggerExpand     = "expand"
	triggerLoaded     = "loaded"
	triggerLoadFailed = "load_failed"
	triggerCollapse   = "collapse"
)

// Loader is the part of the ledger the accordion drives.
type Loader interface {
	Load(ctx context.Context, weekID int64) (ledger.WeekView, error)
	Subscribe(fn func(ledger.Event)) func()
}

// Snapshot is the observable state of a row.
type Snapshot struct {
	WeekID int64
	State  State
	Token  uint64
	Stale  bool
	Err    error
	View   *ledger.WeekView
}

type row struct {
	weekID  int64
	machine *stateless.StateMachine
	token   uint64
	stale   bool
	err     error
	view    *ledger.WeekView
}

func newRow(weekID int64) *row {
	m := stateless.NewStateMachine(StateCollapsed)

	m.Configure(StateCollapsed).
		Permit(triggerExpand, StateExpanding)

	m.Configure(StateExpanding).
		Permit(triggerLoaded, StateExpanded).
		Permit(triggerLoadFailed, StateFailed).
		Permit(triggerCollapse, StateCollapsed)

	m.Configure(StateExpanded).
		Permit(triggerCollapse, StateCollapsed).
		Permit(triggerLoadFailed, StateFailed).
		PermitReentry(triggerLoaded)

	m.Configure(StateFailed).
		Permit(triggerExpand, StateExpanding).
		Permit(triggerCollapse, StateCollapsed)

	return &row{weekID: weekID, machine: m}
}

func (r *row) state() State {
	return r.machine.MustState().(State)
}

func (r *row) snapshot() Snapshot {
	snap := Snapshot{
		WeekID: r.weekID,
		State:  r.state(),
		Token:  r.token,
		Stale:  r.stale,
		Err:    r.err,
	}
	if snap.State == StateExpanded && r.view != nil {
		view := *r.view
		snap.View = &view
	}
	return snap
}

// Accordion tracks the expand/collapse state of week rows.
type Accordion struct {
	loader      Loader
	logger      *zap.Logger
	unsubscribe func()

	mu   sync.Mutex
	rows map[int64]*row
}

// New builds an accordion and subscribes it to ledger invalidations.
func New(loader Loader, logger *zap.Logger) *Accordion {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Accordion{
		loader: loader,
		logger: logger,
		rows:   make(map[int64]*row),
	}
	a.unsubscribe = loader.Subscribe(a.onEvent)
	return a
}

// Close detaches the accordion from the ledger.
func (a *Accordion) Close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
}

// State returns the snapshot of a row. Unknown rows are collapsed.
func (a *Accordion) State(weekID int64) Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.rowLocked(weekID).snapshot()
}

// Toggle collapses an open or opening row, or expands a closed one. Expanding
// loads the week; the returned error is that load's failure, if any.
func (a *Accordion) Toggle(ctx context.Context, weekID int64) (Snapshot, error) {
	a.mu.Lock()
	r := a.rowLocked(weekID)

	switch r.state() {
	case StateExpanding, StateExpanded:
		r.token++
		if err := r.machine.Fire(triggerCollapse); err != nil {
			a.mu.Unlock()
			return Snapshot{}, fmt.Errorf("collapse week %d: %w", weekID, err)
		}
		r.view = nil
		snap := r.snapshot()
		a.mu.Unlock()
		return snap, nil
	}

	r.token++
	token := r.token
	r.err = nil
	if err := r.machine.Fire(triggerExpand); err != nil {
		a.mu.Unlock()
		return Snapshot{}, fmt.Errorf("expand week %d: %w", weekID, err)
	}
	a.mu.Unlock()

	view, err := a.loader.Load(ctx, weekID)
	return a.resolve(weekID, token, StateExpanding, view, err)
}

// Refresh re-fetches an expanded row that was invalidated since it loaded.
func (a *Accordion) Refresh(ctx context.Context, weekID int64) (Snapshot, error) {
	a.mu.Lock()
	r := a.rowLocked(weekID)
	if r.state() != StateExpanded || !r.stale {
		snap := r.snapshot()
		a.mu.Unlock()
		return snap, nil
	}
	r.token++
	token := r.token
	a.mu.Unlock()

	view, err := a.loader.Load(ctx, weekID)
	return a.resolve(weekID, token, StateExpanded, view, err)
}

// resolve applies a finished load unless the row moved on while it ran.
func (a *Accordion) resolve(weekID int64, token uint64, want State, view ledger.WeekView, loadErr error) (Snapshot, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	r := a.rowLocked(weekID)
	if r.token != token || r.state() != want {
		a.logger.Debug("dropping stale week load",
			zap.Int64("week_id", weekID),
			zap.Uint64("token", token),
			zap.Uint64("current_token", r.token),
			zap.String("state", string(r.state())))
		return r.snapshot(), loadErr
	}

	if loadErr != nil {
		r.err = loadErr
		r.view = nil
		if err := r.machine.Fire(triggerLoadFailed); err != nil {
			return r.snapshot(), fmt.Errorf("fail week %d: %w", weekID, err)
		}
		a.logger.Warn("week load failed", zap.Int64("week_id", weekID), zap.Error(loadErr))
		return r.snapshot(), loadErr
	}

	r.view = &view
	r.stale = false
	r.err = nil
	if err := r.machine.Fire(triggerLoaded); err != nil {
		return r.snapshot(), fmt.Errorf("show week %d: %w", weekID, err)
	}
	return r.snapshot(), nil
}

func (a *Accordion) onEvent(ev ledger.Event) {
	switch ev.Kind {
	case ledger.EventWeekInvalidated, ledger.EventWeekClosed:
		a.mu.Lock()
		if r, ok := a.rows[ev.WeekID]; ok {
			r.stale = true
		}
		a.mu.Unlock()
	case ledger.EventWeekDeleted:
		a.mu.Lock()
		delete(a.rows, ev.WeekID)
		a.mu.Unlock()
	}
}

func (a *Accordion) rowLocked(weekID int64) *row {
	r, ok := a.rows[weekID]
	if !ok {
		r = newRow(weekID)
		a.rows[weekID] = r
	}
	return r
}
