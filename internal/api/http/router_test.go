package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/change-control/internal/api/http/handlers"
	"github.com/spec-kit/change-control/internal/auth"
	"github.com/spec-kit/change-control/internal/domain"
	"github.com/spec-kit/change-control/internal/observability"
	apperrors "github.com/spec-kit/change-control/pkg/util/errorutil"
)

type fakeTickets struct {
	submitted *domain.TicketForm
	fileBody  string
	removeErr error
	grid      [2]string
}

func (f *fakeTickets) SubmitTicket(_ context.Context, form *domain.TicketForm) (*domain.TicketForm, error) {
	f.submitted = form
	if len(form.Files) > 0 {
		rc, err := form.Files[0].Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		body, err := io.ReadAll(rc)
		if err != nil {
			return nil, err
		}
		f.fileBody = string(body)
	}
	result := *form
	result.Files = nil
	if result.TicketID == 0 {
		result.TicketID = 11
	}
	return &result, nil
}

func (f *fakeTickets) RemoveTicket(_ context.Context, ticketID int) (*domain.Ticket, error) {
	if f.removeErr != nil {
		return nil, f.removeErr
	}
	return &domain.Ticket{
		TicketID:     ticketID,
		ChangeTitle:  "Rotate certificates",
		IsActive:     true,
		Applications: []domain.TicketApplication{{TicketApplicationID: 1, TicketID: ticketID, ApplicationID: 4}},
	}, nil
}

func (f *fakeTickets) GetTicketsForGrid(_ context.Context, statusFilter, typeFilter string) ([]domain.TicketGrid, error) {
	f.grid = [2]string{statusFilter, typeFilter}
	return nil, nil
}

type fakeDeployments struct {
	added *domain.SubmitterDeploymentHistory
}

func (f *fakeDeployments) GetSubmitterDeploymentStatus(context.Context) ([]domain.SubmitterDeploymentStatus, error) {
	return []domain.SubmitterDeploymentStatus{{SubmitterDeploymentStatusID: 1, StatusName: "Scheduled"}}, nil
}

func (f *fakeDeployments) GetSubmitterDeploymentHistory(_ context.Context, ticketID int) ([]domain.SubmitterDeploymentHistory, error) {
	return []domain.SubmitterDeploymentHistory{}, nil
}

func (f *fakeDeployments) AddSubmitterDeploymentHistory(_ context.Context, record *domain.SubmitterDeploymentHistory) (*domain.SubmitterDeploymentHistory, error) {
	f.added = record
	record.SubmitterDeploymentHistoryID = 99
	return record, nil
}

type fakeReference struct{}

func (fakeReference) GetGroups(context.Context) ([]domain.Group, error) { return nil, nil }

func (fakeReference) GetSqlInstances(context.Context) ([]domain.SqlInstance, error) {
	return nil, errors.New("connection refused")
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

type testServer struct {
	app         *fiber.App
	tickets     *fakeTickets
	deployments *fakeDeployments
	token       string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	tokens := auth.NewTokenManager("test-secret", 5)
	token, _, err := tokens.GenerateToken(domain.Principal{Username: "jdoe"})
	require.NoError(t, err)

	srv := &testServer{
		app:         fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logger, metrics)}),
		tickets:     &fakeTickets{},
		deployments: &fakeDeployments{},
		token:       token,
	}
	RegisterMiddlewares(srv.app, logger, metrics, 0)
	RegisterRoutes(srv.app, RouteConfig{
		Health:         handlers.NewHealthHandler("change-control", "test", fakePinger{}, fakePinger{err: errors.New("redis down")}),
		Metrics:        handlers.NewMetricsHandler(metrics),
		Tickets:        handlers.NewTicketsHandler(srv.tickets),
		Deployments:    handlers.NewDeploymentsHandler(srv.deployments),
		Reference:      handlers.NewReferenceHandler(fakeReference{}),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
	})
	return srv
}

func (s *testServer) do(t *testing.T, req *nethttp.Request) (int, map[string]any) {
	t.Helper()
	if req.Header.Get("Authorization") == "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	resp, err := s.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func errorCode(body map[string]any) string {
	errBody, _ := body["error"].(map[string]any)
	code, _ := errBody["code"].(string)
	return code
}

const ticketJSON = `{
	"change_title": "Patch billing database",
	"change_description": "Apply CU",
	"rollback_strategy": "Restore snapshot",
	"start_date_time": "2024-03-01T22:00:00Z",
	"end_date_time": "2024-03-02T22:00:00Z",
	"change_type": 1,
	"groups": [1, 2]
}`

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	status, body := srv.do(t, httptest.NewRequest("GET", "/health/live", nil))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "alive", body["status"])

	status, body = srv.do(t, httptest.NewRequest("GET", "/health/ready", nil))
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
	assert.Equal(t, "DEPENDENCY_UNAVAILABLE", errorCode(body))
}

func TestAPIRequiresAuthentication(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest("GET", "/api/groups", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")

	status, body := srv.do(t, req)

	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errorCode(body))
}

func TestSubmitTicket_JSON(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest("POST", "/api/tickets", strings.NewReader(ticketJSON))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)

	status, body := srv.do(t, req)

	assert.Equal(t, fiber.StatusCreated, status)
	require.NotNil(t, srv.tickets.submitted)
	assert.Equal(t, "jdoe", srv.tickets.submitted.Submitter)
	assert.Equal(t, []int{1, 2}, srv.tickets.submitted.Groups)
	data := body["data"].(map[string]any)
	assert.Equal(t, float64(11), data["ticket_id"])
}

func TestSubmitTicket_ExistingTicketReturnsOK(t *testing.T) {
	srv := newTestServer(t)
	payload := strings.Replace(ticketJSON, "{", `{"ticket_id": 8, "submitter": "asmith",`, 1)
	req := httptest.NewRequest("POST", "/api/tickets", strings.NewReader(payload))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)

	status, _ := srv.do(t, req)

	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "asmith", srv.tickets.submitted.Submitter)
}

func TestSubmitTicket_Multipart(t *testing.T) {
	srv := newTestServer(t)
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("ticket", ticketJSON))
	part, err := w.CreateFormFile("files", "plan.sql")
	require.NoError(t, err)
	_, err = part.Write([]byte("select 1"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/api/tickets", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())

	status, _ := srv.do(t, req)

	assert.Equal(t, fiber.StatusCreated, status)
	require.Len(t, srv.tickets.submitted.Files, 1)
	assert.Equal(t, "plan.sql", srv.tickets.submitted.Files[0].Name())
	assert.Equal(t, "select 1", srv.tickets.fileBody)
	assert.Equal(t, "Patch billing database", srv.tickets.submitted.ChangeTitle)
}

func TestSubmitTicket_MultipartWithoutTicketField(t *testing.T) {
	srv := newTestServer(t)
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("other", "x"))
	require.NoError(t, w.Close())
	req := httptest.NewRequest("POST", "/api/tickets", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())

	status, body := srv.do(t, req)

	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))
}

func TestRemoveTicket(t *testing.T) {
	srv := newTestServer(t)

	status, body := srv.do(t, httptest.NewRequest("DELETE", "/api/tickets/5", nil))

	assert.Equal(t, fiber.StatusOK, status)
	data := body["data"].(map[string]any)
	assert.Equal(t, float64(5), data["ticket_id"])
	assert.Equal(t, true, data["is_active"])
	assert.Equal(t, []any{float64(4)}, data["applications"])
}

func TestRemoveTicket_NotFound(t *testing.T) {
	srv := newTestServer(t)
	srv.tickets.removeErr = apperrors.NewTicketNotFound(5)

	status, body := srv.do(t, httptest.NewRequest("DELETE", "/api/tickets/5", nil))

	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "TICKET_NOT_FOUND", errorCode(body))
	assert.Equal(t, apperrors.TicketIDNotExistsMessage, body["error"].(map[string]any)["message"])
}

func TestRemoveTicket_InvalidID(t *testing.T) {
	srv := newTestServer(t)

	status, body := srv.do(t, httptest.NewRequest("DELETE", "/api/tickets/abc", nil))

	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))
}

func TestGrid_PassesFilters(t *testing.T) {
	srv := newTestServer(t)

	status, body := srv.do(t, httptest.NewRequest("GET", "/api/tickets/grid?status=4&type=1", nil))

	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, [2]string{"4", "1"}, srv.tickets.grid)
	assert.Equal(t, []any{}, body["data"])
}

func TestAddDeploymentHistory(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest("POST", "/api/tickets/7/deployments",
		strings.NewReader(`{"submitter_deployment_status_id": 2, "notes": "deployed to prod"}`))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)

	status, body := srv.do(t, req)

	assert.Equal(t, fiber.StatusCreated, status)
	require.NotNil(t, srv.deployments.added)
	assert.Equal(t, 7, srv.deployments.added.TicketID)
	assert.Equal(t, "jdoe", srv.deployments.added.CreatedBy)
	data := body["data"].(map[string]any)
	assert.Equal(t, float64(99), data["submitter_deployment_history_id"])
}

func TestDeploymentStatuses(t *testing.T) {
	srv := newTestServer(t)

	status, body := srv.do(t, httptest.NewRequest("GET", "/api/deployments/statuses", nil))

	assert.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["data"], 1)
}

func TestStoreFailureRendersInternalError(t *testing.T) {
	srv := newTestServer(t)

	status, body := srv.do(t, httptest.NewRequest("GET", "/api/sql-instances", nil))

	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "INTERNAL_ERROR", errorCode(body))
}

func TestUnknownRoute(t *testing.T) {
	srv := newTestServer(t)

	status, body := srv.do(t, httptest.NewRequest("GET", "/nowhere", nil))

	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))
}

func TestMetricsCountsRequests(t *testing.T) {
	srv := newTestServer(t)
	srv.do(t, httptest.NewRequest("GET", "/health/live", nil))

	status, body := srv.do(t, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, fiber.StatusOK, status)
	requests := body["requests"].(map[string]any)
	assert.Contains(t, requests, "/health/live|GET|200")
}
