package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/mamadbah2/alquiler/internal/domain/models"
)

type Client struct {
	mock.Mock
}

func (m *Client) ListDetails(ctx context.Context, weekID int64) (*models.WeekDetails, error) {
	args := m.Called(ctx, weekID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WeekDetails), args.Error(1)
}

func (m *Client) ListAvailable(ctx context.Context, weekID int64) (*models.Availability, error) {
	args := m.Called(ctx, weekID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Availability), args.Error(1)
}

func (m *Client) CreateDetail(ctx context.Context, req models.CreateDetailRequest) (int64, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(int64), args.Error(1)
}

func (m *Client) UpdateDetailFull(ctx context.Context, detailID int64, upd models.DetailUpdate) error {
	args := m.Called(ctx, detailID, upd)
	return args.Error(0)
}

func (m *Client) BatchUpdate(ctx context.Context, weekID int64, changes []models.DetailChange) (int, error) {
	args := m.Called(ctx, weekID, changes)
	return args.Int(0), args.Error(1)
}

func (m *Client) DeleteDetail(ctx context.Context, detailID int64) error {
	args := m.Called(ctx, detailID)
	return args.Error(0)
}

func (m *Client) ListInvestments(ctx context.Context, detailID int64) (*models.InvestmentList, error) {
	args := m.Called(ctx, detailID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InvestmentList), args.Error(1)
}

func (m *Client) AddInvestment(ctx context.Context, detailID int64, in models.InvestmentInput) error {
	args := m.Called(ctx, detailID, in)
	return args.Error(0)
}

func (m *Client) RemoveInvestment(ctx context.Context, investmentID int64) error {
	args := m.Called(ctx, investmentID)
	return args.Error(0)
}

func (m *Client) CloseWeek(ctx context.Context, weekID int64) error {
	args := m.Called(ctx, weekID)
	return args.Error(0)
}

func (m *Client) DeleteWeek(ctx context.Context, weekID int64) error {
	args := m.Called(ctx, weekID)
	return args.Error(0)
}

func (m *Client) ValidateActiveWeeks(ctx context.Context) (*models.ActiveWeeksReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ActiveWeeksReport), args.Error(1)
}

func (m *Client) ListBanks(ctx context.Context) ([]models.Bank, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Bank), args.Error(1)
}

func (m *Client) ExcelExportURL(weekID int64) string {
	args := m.Called(weekID)
	return args.String(0)
}
