package ledger

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mamadbah2/alquiler/internal/domain/models"
)

// EventKind names a ledger notification.
type EventKind string

const (
	EventWeekLoaded       EventKind = "week_loaded"
	EventWeekInvalidated  EventKind = "week_invalidated"
	EventDetailChanged    EventKind = "detail_changed"
	EventTotalsChanged    EventKind = "totals_changed"
	EventChangesCommitted EventKind = "changes_committed"
	EventWeekClosed       EventKind = "week_closed"
	EventWeekDeleted      EventKind = "week_deleted"
)

// Event is delivered synchronously to subscribers after the cache changed.
type Event struct {
	Kind     EventKind
	WeekID   int64
	DetailID int64
	Field    models.Field
	Totals   *models.Totals
	Updated  int
}

type eventBus struct {
	mu   sync.RWMutex
	next int
	subs map[int]func(Event)
}

func newEventBus() *eventBus {
	return &eventBus{subs: make(map[int]func(Event))}
}

func (b *eventBus) subscribe(fn func(Event)) func() {
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

// publish calls subscribers in subscription order outside the lock.
func (b *eventBus) publish(ev Event) {
	b.mu.RLock()
	ids := make([]int, 0, len(b.subs))
	for id := range b.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, b.subs[id])
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}

func newCommitRecord(weekID int64, changes []models.DetailChange, updated int, at time.Time) models.CommitRecord {
	record := models.CommitRecord{
		ID:          uuid.NewString(),
		WeekID:      weekID,
		DetailIDs:   make([]int64, 0, len(changes)),
		Updated:     updated,
		Changes:     make([]models.JournalChange, 0, len(changes)),
		CommittedAt: at,
	}
	for _, c := range changes {
		record.DetailIDs = append(record.DetailIDs, c.ID)
		record.Changes = append(record.Changes, models.JournalChangeFrom(c))
	}
	return record
}
