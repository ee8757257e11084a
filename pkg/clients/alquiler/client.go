package alquiler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"

	"github.com/mamadbah2/alquiler/internal/config"
	"github.com/mamadbah2/alquiler/internal/domain/models"
)

const (
	activeWeeksPath    = "/alquiler/semanas/validar-activas"
	activeWeeksAltPath = "/alquiler/semanas/validar_activas"
)

// Client exposes the rental backend operations consumed by the ledger.
//
//go:generate mockery --name Client --output ./mocks
type Client interface {
	ListDetails(ctx context.Context, weekID int64) (*models.WeekDetails, error)
	ListAvailable(ctx context.Context, weekID int64) (*models.Availability, error)
	CreateDetail(ctx context.Context, req models.CreateDetailRequest) (int64, error)
	UpdateDetailFull(ctx context.Context, detailID int64, upd models.DetailUpdate) error
	BatchUpdate(ctx context.Context, weekID int64, changes []models.DetailChange) (int, error)
	DeleteDetail(ctx context.Context, detailID int64) error
	ListInvestments(ctx context.Context, detailID int64) (*models.InvestmentList, error)
	AddInvestment(ctx context.Context, detailID int64, in models.InvestmentInput) error
	RemoveInvestment(ctx context.Context, investmentID int64) error
	CloseWeek(ctx context.Context, weekID int64) error
	DeleteWeek(ctx context.Context, weekID int64) error
	ValidateActiveWeeks(ctx context.Context) (*models.ActiveWeeksReport, error)
	ListBanks(ctx context.Context) ([]models.Bank, error)
	ExcelExportURL(weekID int64) string
}

var _ Client = (*APIClient)(nil)

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient *resty.Client
	baseURL    string
}

// NewClient builds a backend client using the provided configuration values.
func NewClient(cfg config.BackendConfig) *APIClient {
	base := strings.TrimSuffix(cfg.BaseURL, "/")

	restyClient := resty.New()
	restyClient.JSONMarshal = json.Marshal
	restyClient.JSONUnmarshal = json.Unmarshal
	restyClient.
		SetBaseURL(base).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetTimeout(cfg.Timeout)

	if cfg.SessionCookie != "" {
		restyClient.SetCookie(&http.Cookie{Name: cfg.SessionCookieName, Value: cfg.SessionCookie})
	}

	return &APIClient{
		httpClient: restyClient,
		baseURL:    base,
	}
}

// envelope is the {success, message} wrapper every backend response carries.
type envelope struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
}

func (e *envelope) env() *envelope { return e }

type enveloped interface {
	env() *envelope
}

type detailsResponse struct {
	envelope
	models.WeekDetails
}

type availabilityResponse struct {
	envelope
	models.Availability
}

type createResponse struct {
	envelope
	DetailID int64 `json:"detalle_id"`
}

type batchResponse struct {
	envelope
	Updated int `json:"updated"`
}

type investmentsResponse struct {
	envelope
	models.InvestmentList
}

type banksResponse struct {
	envelope
	Banks []models.Bank `json:"bancos"`
}

type activeWeeksResponse struct {
	envelope
	HasProblems *bool                `json:"tiene_problemas"`
	Problems    []models.WeekAnomaly `json:"problemas"`
	Warning     *bool                `json:"warning"`
	ActiveCount int                  `json:"total_activas"`
	OutOfRange  []models.WeekAnomaly `json:"semanas_fuera_rango"`
}

// ListDetails fetches the details of a week.
func (c *APIClient) ListDetails(ctx context.Context, weekID int64) (*models.WeekDetails, error) {
	out := new(detailsResponse)
	if err := c.call(ctx, "list details", http.MethodGet, fmt.Sprintf("/alquiler/semanas/%d/detalles", weekID), nil, out); err != nil {
		return nil, err
	}
	if out.Week.ID == 0 {
		out.Week.ID = weekID
	}
	for i := range out.Details {
		if out.Details[i].WeekID == 0 {
			out.Details[i].WeekID = weekID
		}
	}
	return &out.WeekDetails, nil
}

// ListAvailable fetches vehicles and tenants not yet assigned in a week.
func (c *APIClient) ListAvailable(ctx context.Context, weekID int64) (*models.Availability, error) {
	out := new(availabilityResponse)
	if err := c.call(ctx, "list available", http.MethodGet, fmt.Sprintf("/alquiler/semanas/%d/disponibles", weekID), nil, out); err != nil {
		return nil, err
	}
	return &out.Availability, nil
}

// CreateDetail adds a rental to a week. A rejected double assignment yields models.ErrConflict.
func (c *APIClient) CreateDetail(ctx context.Context, req models.CreateDetailRequest) (int64, error) {
	const op = "create detail"

	if err := req.Validate(); err != nil {
		return 0, err
	}

	out := new(createResponse)
	err := c.call(ctx, op, http.MethodPost, "/alquiler/semanas/agregar_alquiler", newCreateBody(req), out)
	if err != nil {
		var e *models.Error
		if errors.As(err, &e) && e.Kind == models.KindServer &&
			(e.Status == http.StatusBadRequest || e.Status == http.StatusConflict) {
			e.Kind = models.KindConflict
		}
		return 0, err
	}
	return out.DetailID, nil
}

// UpdateDetailFull replaces every editable field of a detail.
func (c *APIClient) UpdateDetailFull(ctx context.Context, detailID int64, upd models.DetailUpdate) error {
	if err := upd.Validate(); err != nil {
		return err
	}
	out := new(envelope)
	return c.call(ctx, "update detail", http.MethodPost, fmt.Sprintf("/alquiler/detalles/%d/editar_completo", detailID), newFullEditBody(upd), out)
}

// BatchUpdate saves the staged changes of a week in one request.
func (c *APIClient) BatchUpdate(ctx context.Context, weekID int64, changes []models.DetailChange) (int, error) {
	out := new(batchResponse)
	if err := c.call(ctx, "batch update", http.MethodPost, fmt.Sprintf("/alquiler/semanas/%d/guardar-cambios", weekID), newBatchBody(changes), out); err != nil {
		return 0, err
	}
	return out.Updated, nil
}

// DeleteDetail removes a detail from its week.
func (c *APIClient) DeleteDetail(ctx context.Context, detailID int64) error {
	out := new(envelope)
	return c.call(ctx, "delete detail", http.MethodPost, fmt.Sprintf("/alquiler/detalles/%d/eliminar", detailID), nil, out)
}

// ListInvestments fetches the itemized investments of a detail.
func (c *APIClient) ListInvestments(ctx context.Context, detailID int64) (*models.InvestmentList, error) {
	out := new(investmentsResponse)
	if err := c.call(ctx, "list investments", http.MethodGet, fmt.Sprintf("/alquiler/detalles/%d/inversiones", detailID), nil, out); err != nil {
		return nil, err
	}
	return &out.InvestmentList, nil
}

// AddInvestment records an investment. Invalid input fails before any request.
func (c *APIClient) AddInvestment(ctx context.Context, detailID int64, in models.InvestmentInput) error {
	if err := in.Validate(); err != nil {
		return err
	}
	out := new(envelope)
	return c.call(ctx, "add investment", http.MethodPost, fmt.Sprintf("/alquiler/detalles/%d/agregar_inversion", detailID), newInvestmentBody(in), out)
}

// RemoveInvestment deletes an investment record.
func (c *APIClient) RemoveInvestment(ctx context.Context, investmentID int64) error {
	out := new(envelope)
	return c.call(ctx, "remove investment", http.MethodPost, fmt.Sprintf("/alquiler/inversiones/%d/eliminar", investmentID), nil, out)
}

// CloseWeek closes a week. Callers check the admin role first.
func (c *APIClient) CloseWeek(ctx context.Context, weekID int64) error {
	out := new(envelope)
	return c.call(ctx, "close week", http.MethodPost, fmt.Sprintf("/alquiler/semanas/%d/cerrar", weekID), nil, out)
}

// DeleteWeek deletes a week. Callers check the admin role first.
func (c *APIClient) DeleteWeek(ctx context.Context, weekID int64) error {
	out := new(envelope)
	return c.call(ctx, "delete week", http.MethodPost, fmt.Sprintf("/alquiler/semanas/%d/eliminar", weekID), nil, out)
}

// ValidateActiveWeeks returns active weeks with date-range anomalies.
// Both endpoint spellings and both response shapes in use are accepted.
func (c *APIClient) ValidateActiveWeeks(ctx context.Context) (*models.ActiveWeeksReport, error) {
	const op = "validate active weeks"

	out := new(activeWeeksResponse)
	err := c.call(ctx, op, http.MethodGet, activeWeeksPath, nil, out)
	var e *models.Error
	if errors.As(err, &e) && e.Status == http.StatusNotFound {
		out = new(activeWeeksResponse)
		err = c.call(ctx, op, http.MethodGet, activeWeeksAltPath, nil, out)
	}
	if err != nil {
		return nil, err
	}

	report := &models.ActiveWeeksReport{ActiveCount: out.ActiveCount}
	report.Anomalies = append(report.Anomalies, out.Problems...)
	report.Anomalies = append(report.Anomalies, out.OutOfRange...)
	switch {
	case out.HasProblems != nil:
		report.HasProblems = *out.HasProblems
	case out.Warning != nil:
		report.HasProblems = *out.Warning
	default:
		report.HasProblems = len(report.Anomalies) > 0
	}
	return report, nil
}

// ListBanks fetches the bank reference list.
func (c *APIClient) ListBanks(ctx context.Context) ([]models.Bank, error) {
	out := new(banksResponse)
	if err := c.call(ctx, "list banks", http.MethodGet, "/alquiler/bancos/json", nil, out); err != nil {
		return nil, err
	}
	return out.Banks, nil
}

// ExcelExportURL is the browser download link for a week. It is never fetched here.
func (c *APIClient) ExcelExportURL(weekID int64) string {
	return fmt.Sprintf("%s/alquiler/semanas/%d/exportar-excel", c.baseURL, weekID)
}

func (c *APIClient) call(ctx context.Context, op, method, path string, body any, out enveloped) error {
	req := c.httpClient.R().SetContext(ctx)
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return &models.Error{Kind: models.KindNetwork, Op: op, Message: "could not reach the rental backend", Err: err}
	}

	status := resp.StatusCode()
	decodeErr := json.Unmarshal(resp.Body(), out)
	env := out.env()

	if status >= http.StatusBadRequest {
		if decodeErr == nil && env.Success != nil && !*env.Success {
			return &models.Error{Kind: models.KindServer, Op: op, Message: serverMessage(env), Status: status}
		}
		return &models.Error{Kind: models.KindNetwork, Op: op, Message: fmt.Sprintf("unexpected status %d", status), Status: status}
	}

	if decodeErr != nil {
		return &models.Error{Kind: models.KindProtocol, Op: op, Message: "malformed response body", Status: status, Err: decodeErr}
	}
	if env.Success == nil {
		return &models.Error{Kind: models.KindProtocol, Op: op, Message: "response is missing the success flag", Status: status}
	}
	if !*env.Success {
		return &models.Error{Kind: models.KindServer, Op: op, Message: serverMessage(env), Status: status}
	}
	return nil
}

func serverMessage(env *envelope) string {
	if env.Message != "" {
		return env.Message
	}
	return "the server rejected the request"
}
