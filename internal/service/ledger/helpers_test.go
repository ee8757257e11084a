package ledger

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/mamadbah2/alquiler/internal/domain/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func weekFixture(status models.WeekStatus) *models.WeekDetails {
	return &models.WeekDetails{
		Week: models.RentalWeek{ID: 1, Number: 12, StartDate: "2024-05-06", EndDate: "2024-05-12", Status: status},
		Details: []models.RentalDetail{
			{
				ID: 10, WeekID: 1, VehicleID: 100, TenantID: 200,
				VehicleMake: "Toyota", VehicleModel: "Corolla", VehiclePlate: "A100",
				TenantName: "Ana Perez", TenantPhone: "809-555-0100", OwnerID: 300, OwnerName: "Luis Gomez",
				Price: dec("100"), DaysWorked: 7, CompanyPercentage: dec("10"),
				// Server values are recomputed on load.
				Income: dec("1"),
			},
			{
				ID: 11, WeekID: 1, VehicleID: 101, TenantID: 201,
				Price: dec("250"), DaysWorked: 7, CompanyPercentage: dec("20"),
			},
		},
	}
}

type stubSource struct {
	mu    sync.Mutex
	calls int
	resp  func(call int) (*models.WeekDetails, error)
}

func (s *stubSource) ListDetails(_ context.Context, _ int64) (*models.WeekDetails, error) {
	s.mu.Lock()
	n := s.calls
	s.calls++
	s.mu.Unlock()
	return s.resp(n)
}

func (s *stubSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type mockJournal struct {
	mock.Mock
}

func (m *mockJournal) RecordCommit(ctx context.Context, record models.CommitRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) record(ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) kinds() []EventKind {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]EventKind, 0, len(l.events))
	for _, ev := range l.events {
		out = append(out, ev.Kind)
	}
	return out
}
