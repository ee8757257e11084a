package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/alquiler/internal/domain/models"
	"github.com/mamadbah2/alquiler/pkg/clients/alquiler/mocks"
)

var fixedNow = time.Date(2024, 5, 8, 14, 30, 0, 0, time.UTC)

func newTestService(t *testing.T, journal Journal) (*Service, *mocks.Client, *eventLog) {
	t.Helper()
	client := new(mocks.Client)
	svc := NewService(client, journal, nil)
	svc.now = func() time.Time { return fixedNow }
	events := &eventLog{}
	svc.Subscribe(events.record)
	return svc, client, events
}

func loadWeek(t *testing.T, svc *Service, client *mocks.Client, status models.WeekStatus) {
	t.Helper()
	client.On("ListDetails", mock.Anything, int64(1)).Return(weekFixture(status), nil)
	_, err := svc.Load(context.Background(), 1)
	require.NoError(t, err)
}

func TestCommit_EmptyDiffIsLocalNoop(t *testing.T) {
	svc, client, _ := newTestService(t, nil)
	loadWeek(t, svc, client, models.WeekOpen)

	updated, err := svc.Commit(context.Background(), "operador", 1)

	assert.Equal(t, 0, updated)
	assert.ErrorIs(t, err, ErrNoPendingChanges)
	assert.ErrorIs(t, err, models.ErrValidation)
	client.AssertNotCalled(t, "BatchUpdate", mock.Anything, mock.Anything, mock.Anything)
	_, ok := svc.Get(1)
	assert.True(t, ok)
}

func TestCommit_SuccessInvalidatesAndJournals(t *testing.T) {
	journal := new(mockJournal)
	svc, client, events := newTestService(t, journal)
	loadWeek(t, svc, client, models.WeekOpen)

	_, err := svc.Mutate(1, 11, models.FieldDebt, "40")
	require.NoError(t, err)
	_, err = svc.Mutate(1, 10, models.FieldDaysWorked, 5)
	require.NoError(t, err)

	inOrder := mock.MatchedBy(func(changes []models.DetailChange) bool {
		return len(changes) == 2 && changes[0].ID == 11 && changes[1].ID == 10
	})
	client.On("BatchUpdate", mock.Anything, int64(1), inOrder).Return(2, nil).Once()
	journal.On("RecordCommit", mock.Anything, mock.MatchedBy(func(r models.CommitRecord) bool {
		return r.ID != "" && r.WeekID == 1 && r.Updated == 2 &&
			assert.ObjectsAreEqual([]int64{11, 10}, r.DetailIDs) &&
			r.Role == "admin" && r.CommittedAt.Equal(fixedNow) &&
			r.Changes[0].Debt == "40.00"
	})).Return(nil).Once()

	updated, err := svc.Commit(context.Background(), models.RoleAdmin, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, updated)

	_, ok := svc.Get(1)
	assert.False(t, ok)
	assert.Contains(t, events.kinds(), EventChangesCommitted)

	view, err := svc.Load(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, view.ModifiedIDs)
	client.AssertNumberOfCalls(t, "ListDetails", 2)
	client.AssertExpectations(t)
	journal.AssertExpectations(t)
}

func TestCommit_FailureKeepsStagedEdits(t *testing.T) {
	svc, client, _ := newTestService(t, nil)
	loadWeek(t, svc, client, models.WeekOpen)

	_, err := svc.Mutate(1, 10, models.FieldPrice, "150")
	require.NoError(t, err)

	serverErr := &models.Error{Kind: models.KindServer, Op: "batch update", Message: "semana cerrada"}
	client.On("BatchUpdate", mock.Anything, int64(1), mock.Anything).Return(0, serverErr).Once()

	_, err = svc.Commit(context.Background(), "operador", 1)
	assert.ErrorIs(t, err, models.ErrServer)
	assert.Equal(t, "semana cerrada", models.MessageOf(err))

	view, ok := svc.Get(1)
	require.True(t, ok)
	assert.Equal(t, []int64{10}, view.ModifiedIDs)
	d, _ := view.Detail(10)
	assert.True(t, d.Price.Equal(dec("150")))
}

func TestCommit_JournalFailureIsNotSurfaced(t *testing.T) {
	journal := new(mockJournal)
	svc, client, _ := newTestService(t, journal)
	loadWeek(t, svc, client, models.WeekOpen)

	_, err := svc.Mutate(1, 10, models.FieldNotes, "ok")
	require.NoError(t, err)
	client.On("BatchUpdate", mock.Anything, int64(1), mock.Anything).Return(1, nil).Once()
	journal.On("RecordCommit", mock.Anything, mock.Anything).Return(errors.New("mongo down")).Once()

	updated, err := svc.Commit(context.Background(), "operador", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, updated)
}

func TestMutate_PublishesEvents(t *testing.T) {
	svc, client, events := newTestService(t, nil)
	loadWeek(t, svc, client, models.WeekOpen)

	_, err := svc.Mutate(1, 10, models.FieldNotes, "x")
	require.NoError(t, err)
	_, err = svc.Mutate(1, 10, models.FieldPrice, "200")
	require.NoError(t, err)

	assert.Equal(t, []EventKind{
		EventWeekLoaded,
		EventDetailChanged,
		EventDetailChanged,
		EventTotalsChanged,
	}, events.kinds())

	last := events.events[len(events.events)-1]
	require.NotNil(t, last.Totals)
	assert.True(t, last.Totals.Income.Equal(dec("3150")))
}

func TestSubscribe_Unsubscribe(t *testing.T) {
	svc, client, _ := newTestService(t, nil)
	other := &eventLog{}
	cancel := svc.Subscribe(other.record)
	cancel()
	cancel()

	loadWeek(t, svc, client, models.WeekOpen)
	assert.Empty(t, other.kinds())
}

func TestCreateDetail_ConflictLeavesCacheUntouched(t *testing.T) {
	svc, client, _ := newTestService(t, nil)
	loadWeek(t, svc, client, models.WeekOpen)
	_, err := svc.Mutate(1, 10, models.FieldNotes, "pendiente")
	require.NoError(t, err)

	req := models.CreateDetailRequest{WeekID: 1, VehicleID: 100, TenantID: 999, DaysWorked: 7}
	conflict := &models.Error{Kind: models.KindConflict, Op: "create detail", Message: "el vehiculo ya esta asignado", Status: 400}
	client.On("CreateDetail", mock.Anything, req).Return(int64(0), conflict).Once()

	_, err = svc.CreateDetail(context.Background(), req)
	assert.ErrorIs(t, err, models.ErrConflict)

	view, ok := svc.Get(1)
	require.True(t, ok)
	assert.Equal(t, []int64{10}, view.ModifiedIDs)
	client.AssertNumberOfCalls(t, "ListDetails", 1)
}

func TestCreateDetail_SuccessInvalidates(t *testing.T) {
	svc, client, _ := newTestService(t, nil)
	loadWeek(t, svc, client, models.WeekOpen)

	client.On("CreateDetail", mock.Anything, mock.AnythingOfType("models.CreateDetailRequest")).Return(int64(12), nil).Once()

	id, err := svc.CreateDetail(context.Background(), models.CreateDetailRequest{WeekID: 1, VehicleID: 102, TenantID: 202})
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)
	_, ok := svc.Get(1)
	assert.False(t, ok)
}

func TestCreateDetail_ValidationBeforeNetwork(t *testing.T) {
	svc, client, _ := newTestService(t, nil)

	_, err := svc.CreateDetail(context.Background(), models.CreateDetailRequest{WeekID: 1, TenantID: 202})
	assert.ErrorIs(t, err, models.ErrValidation)
	client.AssertNotCalled(t, "CreateDetail", mock.Anything, mock.Anything)
}

func TestClosedWeekRejectsWrites(t *testing.T) {
	svc, client, _ := newTestService(t, nil)
	loadWeek(t, svc, client, models.WeekClosed)

	err := svc.UpdateDetailFull(context.Background(), 1, 10, models.DetailUpdate{VehicleID: 1, TenantID: 1, DaysWorked: 7})
	assert.ErrorIs(t, err, models.ErrValidation)

	err = svc.AddInvestment(context.Background(), 1, 10, models.InvestmentInput{WorkTypeID: 1, Type: models.InvestmentOther, Description: "x", Cost: dec("1")})
	assert.ErrorIs(t, err, models.ErrValidation)

	err = svc.DeleteDetail(context.Background(), 1, 10)
	assert.ErrorIs(t, err, models.ErrValidation)

	err = svc.RemoveInvestment(context.Background(), 1, 55)
	assert.ErrorIs(t, err, models.ErrValidation)

	client.AssertNotCalled(t, "UpdateDetailFull", mock.Anything, mock.Anything, mock.Anything)
	client.AssertNotCalled(t, "AddInvestment", mock.Anything, mock.Anything, mock.Anything)
	client.AssertNotCalled(t, "DeleteDetail", mock.Anything, mock.Anything)
	client.AssertNotCalled(t, "RemoveInvestment", mock.Anything, mock.Anything)
}

func TestMarkClosed_PayloadWithoutStatus(t *testing.T) {
	svc, client, _ := newTestService(t, nil)
	loadWeek(t, svc, client, "")

	view, ok := svc.Get(1)
	require.True(t, ok)
	assert.False(t, view.ReadOnly)

	_, err := svc.Mutate(1, 10, models.FieldPrice, "150")
	require.NoError(t, err)

	svc.MarkClosed(1)

	view, _ = svc.Get(1)
	assert.True(t, view.ReadOnly)
	assert.Equal(t, models.WeekClosed, view.Week.Status)

	_, err = svc.Mutate(1, 11, models.FieldNotes, "x")
	assert.ErrorIs(t, err, models.ErrValidation)

	updated, err := svc.Commit(context.Background(), models.RoleAdmin, 1)
	assert.Zero(t, updated)
	assert.ErrorIs(t, err, models.ErrValidation)
	client.AssertNotCalled(t, "BatchUpdate", mock.Anything, mock.Anything, mock.Anything)

	view, err = svc.Reload(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, view.ReadOnly)
}

func TestUpdateDetailFull_InvalidatesOnSuccess(t *testing.T) {
	svc, client, _ := newTestService(t, nil)
	loadWeek(t, svc, client, models.WeekOpen)

	view, _ := svc.Get(1)
	d, _ := view.Detail(10)
	upd := models.UpdateFromDetail(d)
	upd.TenantID = 205
	client.On("UpdateDetailFull", mock.Anything, int64(10), upd).Return(nil).Once()

	require.NoError(t, svc.UpdateDetailFull(context.Background(), 1, 10, upd))
	_, ok := svc.Get(1)
	assert.False(t, ok)
	client.AssertExpectations(t)
}

func TestInvestments_AddAndRemoveInvalidate(t *testing.T) {
	svc, client, _ := newTestService(t, nil)
	loadWeek(t, svc, client, models.WeekOpen)

	in := models.InvestmentInput{WorkTypeID: 2, Type: models.InvestmentAccident, Description: "parachoques", Cost: dec("800")}
	client.On("AddInvestment", mock.Anything, int64(10), in).Return(nil).Once()
	require.NoError(t, svc.AddInvestment(context.Background(), 1, 10, in))
	_, ok := svc.Get(1)
	assert.False(t, ok)

	loadWeek(t, svc, client, models.WeekOpen)
	client.On("RemoveInvestment", mock.Anything, int64(55)).Return(nil).Once()
	require.NoError(t, svc.RemoveInvestment(context.Background(), 1, 55))
	_, ok = svc.Get(1)
	assert.False(t, ok)

	bad := in
	bad.Cost = dec("0")
	assert.ErrorIs(t, svc.AddInvestment(context.Background(), 1, 10, bad), models.ErrValidation)
	client.AssertNumberOfCalls(t, "AddInvestment", 1)
}

func TestCloseWeek_RequiresAdmin(t *testing.T) {
	svc, client, events := newTestService(t, nil)
	loadWeek(t, svc, client, models.WeekOpen)

	err := svc.CloseWeek(context.Background(), "operador", 1)
	assert.ErrorIs(t, err, models.ErrForbidden)
	client.AssertNotCalled(t, "CloseWeek", mock.Anything, mock.Anything)

	client.On("CloseWeek", mock.Anything, int64(1)).Return(nil).Once()
	require.NoError(t, svc.CloseWeek(context.Background(), models.RoleAdmin, 1))
	assert.Contains(t, events.kinds(), EventWeekClosed)

	view, err := svc.Load(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, view.ReadOnly)
	_, err = svc.Mutate(1, 10, models.FieldNotes, "x")
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestDeleteWeek_RequiresAdmin(t *testing.T) {
	svc, client, events := newTestService(t, nil)
	loadWeek(t, svc, client, models.WeekOpen)

	assert.ErrorIs(t, svc.DeleteWeek(context.Background(), "", 1), models.ErrForbidden)

	client.On("DeleteWeek", mock.Anything, int64(1)).Return(nil).Once()
	require.NoError(t, svc.DeleteWeek(context.Background(), models.RoleAdmin, 1))
	_, ok := svc.Get(1)
	assert.False(t, ok)
	assert.Contains(t, events.kinds(), EventWeekDeleted)
}

func TestAvailable_KeepsCurrentAssignmentForEdits(t *testing.T) {
	svc, client, _ := newTestService(t, nil)
	loadWeek(t, svc, client, models.WeekOpen)

	avail := &models.Availability{
		Vehicles: []models.Vehicle{{ID: 105, Plate: "B200"}},
		Tenants:  []models.Tenant{{ID: 205, Name: "Juan Diaz"}},
	}
	client.On("ListAvailable", mock.Anything, int64(1)).Return(avail, nil)

	plain, err := svc.Available(context.Background(), 1, 0)
	require.NoError(t, err)
	assert.Len(t, plain.Vehicles, 1)

	forEdit, err := svc.Available(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Len(t, forEdit.Vehicles, 2)
	assert.Equal(t, int64(100), forEdit.Vehicles[0].ID)
	assert.Equal(t, "A100", forEdit.Vehicles[0].Plate)
	require.Len(t, forEdit.Tenants, 2)
	assert.Equal(t, "Ana Perez", forEdit.Tenants[0].Name)
	assert.Len(t, avail.Vehicles, 1)
}

func TestBanks_CachedPerSession(t *testing.T) {
	svc, client, _ := newTestService(t, nil)
	banks := []models.Bank{{ID: 1, Name: "Banreservas"}, {ID: 2, Name: "Popular"}}
	client.On("ListBanks", mock.Anything).Return(banks, nil)

	first, err := svc.Banks(context.Background(), false)
	require.NoError(t, err)
	second, err := svc.Banks(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	client.AssertNumberOfCalls(t, "ListBanks", 1)

	_, err = svc.Banks(context.Background(), true)
	require.NoError(t, err)
	client.AssertNumberOfCalls(t, "ListBanks", 2)
}

func TestValidateActiveWeeks_StoresReport(t *testing.T) {
	svc, client, _ := newTestService(t, nil)

	_, ok := svc.Anomalies()
	assert.False(t, ok)

	report := &models.ActiveWeeksReport{
		HasProblems: true,
		ActiveCount: 2,
		Anomalies:   []models.WeekAnomaly{{Number: 10, Kind: models.AnomalyPast, DaysOff: 14}},
	}
	client.On("ValidateActiveWeeks", mock.Anything).Return(report, nil).Once()

	got, err := svc.ValidateActiveWeeks(context.Background())
	require.NoError(t, err)
	assert.True(t, got.CheckedAt.Equal(fixedNow))

	stored, ok := svc.Anomalies()
	require.True(t, ok)
	assert.True(t, stored.HasProblems)
	assert.Len(t, stored.Anomalies, 1)
}

func TestReload_RefetchesAndDropsEdits(t *testing.T) {
	svc, client, events := newTestService(t, nil)
	loadWeek(t, svc, client, models.WeekOpen)
	_, err := svc.Mutate(1, 10, models.FieldPrice, "500")
	require.NoError(t, err)

	view, err := svc.Reload(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, view.ModifiedIDs)
	client.AssertNumberOfCalls(t, "ListDetails", 2)
	assert.Contains(t, events.kinds(), EventWeekInvalidated)
}

func TestExportURL(t *testing.T) {
	svc, client, _ := newTestService(t, nil)
	client.On("ExcelExportURL", int64(4)).Return("http://backend/alquiler/semanas/4/exportar-excel")

	assert.Equal(t, "http://backend/alquiler/semanas/4/exportar-excel", svc.ExportURL(4))
}
