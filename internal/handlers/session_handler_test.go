package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/abhi-bochare/Payout-Automation-System/internal/models"
	"github.com/abhi-bochare/Payout-Automation-System/internal/repository"
	"github.com/abhi-bochare/Payout-Automation-System/internal/services"
)

type stubSessionService struct {
	addResult       *models.Session
	addErr          error
	bulkResult      *services.BulkAddResult
	bulkErr         error
	listResult      *services.SessionPage
	listErr         error
	getResult       *models.Session
	getErr          error
	updateResult    *models.Session
	updateErr       error
	lastPrincipal   models.Principal
	lastAddInput    services.AddSessionInput
	lastBulkRows    []services.AddSessionInput
	lastListFilter  repository.SessionListFilter
	lastPage        int
	lastLimit       int
	lastSessionID   int64
	lastStatusParam string
}

func (s *stubSessionService) AddSession(_ context.Context, principal models.Principal, input services.AddSessionInput) (*models.Session, error) {
	s.lastPrincipal = principal
	s.lastAddInput = input
	return s.addResult, s.addErr
}

func (s *stubSessionService) BulkAddSessions(_ context.Context, principal models.Principal, rows []services.AddSessionInput) (*services.BulkAddResult, error) {
	s.lastPrincipal = principal
	s.lastBulkRows = rows
	return s.bulkResult, s.bulkErr
}

func (s *stubSessionService) ListSessions(_ context.Context, principal models.Principal, filter repository.SessionListFilter, page, limit int) (*services.SessionPage, error) {
	s.lastPrincipal = principal
	s.lastListFilter = filter
	s.lastPage = page
	s.lastLimit = limit
	return s.listResult, s.listErr
}

func (s *stubSessionService) GetSession(_ context.Context, principal models.Principal, sessionID int64) (*models.Session, error) {
	s.lastPrincipal = principal
	s.lastSessionID = sessionID
	return s.getResult, s.getErr
}

func (s *stubSessionService) UpdateStatus(_ context.Context, principal models.Principal, sessionID int64, requestedStatus string) (*models.Session, error) {
	s.lastPrincipal = principal
	s.lastSessionID = sessionID
	s.lastStatusParam = requestedStatus
	return s.updateResult, s.updateErr
}

func newTestApp(userID, role string) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", userID)
		c.Locals("role", role)
		return c.Next()
	})
	return app
}

func TestAddSessionReturnsCreatedSession(t *testing.T) {
	service := &stubSessionService{
		addResult: &models.Session{
			ID:            91,
			MentorID:      7,
			DurationHours: 2,
			Rate:          4000,
			Status:        models.SessionPending,
		},
	}
	handler := &SessionHandler{service: service}

	app := newTestApp("1", "admin")
	app.Post("/api/v1/sessions", handler.AddSession)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", strings.NewReader(`{
		"mentor_id": 7,
		"date": "2026-07-10T10:00:00Z",
		"duration_hours": 2,
		"rate": 4000
	}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if service.lastPrincipal.UserID != 1 || service.lastPrincipal.Role != "admin" {
		t.Fatalf("unexpected principal: %+v", service.lastPrincipal)
	}
	if service.lastAddInput.MentorID != 7 || service.lastAddInput.Rate != 4000 {
		t.Fatalf("unexpected input: %+v", service.lastAddInput)
	}
	want := time.Date(2026, 7, 10, 10, 0, 0, 0, time.UTC)
	if !service.lastAddInput.ScheduledAt.Equal(want) {
		t.Fatalf("expected scheduled at %v, got %v", want, service.lastAddInput.ScheduledAt)
	}
}

func TestAddSessionDefaultsOmittedRate(t *testing.T) {
	service := &stubSessionService{addResult: &models.Session{ID: 1}}
	handler := &SessionHandler{service: service}

	app := newTestApp("1", "admin")
	app.Post("/api/v1/sessions", handler.AddSession)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", strings.NewReader(`{
		"mentor_id": 7,
		"date": "2026-07-10",
		"duration_hours": 1
	}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if service.lastAddInput.Rate != services.DefaultSessionRate {
		t.Fatalf("expected default rate, got %f", service.lastAddInput.Rate)
	}
}

func TestAddSessionRejectsBadDate(t *testing.T) {
	service := &stubSessionService{}
	handler := &SessionHandler{service: service}

	app := newTestApp("1", "admin")
	app.Post("/api/v1/sessions", handler.AddSession)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", strings.NewReader(`{
		"mentor_id": 7,
		"date": "next tuesday",
		"duration_hours": 1
	}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestAddSessionReturnsForbiddenForMentor(t *testing.T) {
	service := &stubSessionService{addErr: services.ErrForbidden}
	handler := &SessionHandler{service: service}

	app := newTestApp("7", "mentor")
	app.Post("/api/v1/sessions", handler.AddSession)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", strings.NewReader(`{
		"mentor_id": 7,
		"date": "2026-07-10",
		"duration_hours": 1
	}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestBulkAddSessionsReturnsCounts(t *testing.T) {
	service := &stubSessionService{
		bulkResult: &services.BulkAddResult{
			Created: []models.Session{{ID: 1, MentorID: 7}},
			Skipped: 2,
		},
	}
	handler := &SessionHandler{service: service}

	app := newTestApp("1", "admin")
	app.Post("/api/v1/sessions/bulk", handler.BulkAddSessions)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/bulk", strings.NewReader(`{
		"sessions": [
			{"mentor_id": 7, "date": "2026-07-10", "duration_hours": 2},
			{"mentor_id": 0, "date": "2026-07-11", "duration_hours": 1},
			{"mentor_id": 7, "date": "", "duration_hours": 1}
		]
	}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if len(service.lastBulkRows) != 3 {
		t.Fatalf("expected 3 rows forwarded, got %d", len(service.lastBulkRows))
	}

	var body services.BulkAddResult
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Created) != 1 || body.Skipped != 2 {
		t.Fatalf("unexpected result: %+v", body)
	}
}

func TestBulkAddSessionsRejectsEmptyBatch(t *testing.T) {
	handler := &SessionHandler{service: &stubSessionService{}}

	app := newTestApp("1", "admin")
	app.Post("/api/v1/sessions/bulk", handler.BulkAddSessions)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/bulk", strings.NewReader(`{"sessions": []}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestListSessionsPassesFilterAndPaging(t *testing.T) {
	service := &stubSessionService{
		listResult: &services.SessionPage{
			Sessions:   []models.Session{{ID: 5, Status: models.SessionCompleted}},
			Pagination: models.PaginationMeta{Page: 2, Limit: 10, Total: 11, TotalPages: 2},
		},
	}
	handler := &SessionHandler{service: service}

	app := newTestApp("7", "mentor")
	app.Get("/api/v1/sessions", handler.ListSessions)

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/sessions?status=completed&from=2026-07-01&to=2026-07-31&page=2&limit=10", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if len(service.lastListFilter.Statuses) != 1 || service.lastListFilter.Statuses[0] != models.SessionCompleted {
		t.Fatalf("unexpected status filter: %v", service.lastListFilter.Statuses)
	}
	if service.lastListFilter.From.IsZero() || service.lastListFilter.To.IsZero() {
		t.Fatal("expected date range forwarded")
	}
	// A plain calendar "to" date covers the whole day.
	if service.lastListFilter.To.Day() != 31 || service.lastListFilter.To.Hour() != 23 {
		t.Fatalf("expected the to date widened to end of day, got %v", service.lastListFilter.To)
	}
	if service.lastPage != 2 || service.lastLimit != 10 {
		t.Fatalf("expected page 2 limit 10, got %d/%d", service.lastPage, service.lastLimit)
	}
}

func TestGetSessionReturnsNotFound(t *testing.T) {
	service := &stubSessionService{getErr: pgx.ErrNoRows}
	handler := &SessionHandler{service: service}

	app := newTestApp("7", "mentor")
	app.Get("/api/v1/sessions/:id", handler.GetSession)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/999", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestGetSessionRejectsBadID(t *testing.T) {
	handler := &SessionHandler{service: &stubSessionService{}}

	app := newTestApp("7", "mentor")
	app.Get("/api/v1/sessions/:id", handler.GetSession)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/abc", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestUpdateStatusReturnsUnprocessableForEarlyCompletion(t *testing.T) {
	service := &stubSessionService{updateErr: services.ErrSessionNotStarted}
	handler := &SessionHandler{service: service}

	app := newTestApp("7", "mentor")
	app.Put("/api/v1/sessions/:id/status", handler.UpdateStatus)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/sessions/5/status",
		strings.NewReader(`{"status": "completed"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	if service.lastSessionID != 5 || service.lastStatusParam != "completed" {
		t.Fatalf("unexpected forwarding: id=%d status=%q", service.lastSessionID, service.lastStatusParam)
	}
}

func TestUpdateStatusReturnsUpdatedSession(t *testing.T) {
	service := &stubSessionService{
		updateResult: &models.Session{ID: 5, MentorID: 7, Status: models.SessionNotCompleted},
	}
	handler := &SessionHandler{service: service}

	app := newTestApp("7", "mentor")
	app.Put("/api/v1/sessions/:id/status", handler.UpdateStatus)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/sessions/5/status",
		strings.NewReader(`{"status": "not completed"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Session models.Session `json:"session"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Session.Status != models.SessionNotCompleted {
		t.Fatalf("expected not_completed in response, got %s", body.Session.Status)
	}
}

func TestSessionEndpointsRequirePrincipal(t *testing.T) {
	handler := &SessionHandler{service: &stubSessionService{}}

	app := fiber.New()
	app.Get("/api/v1/sessions", handler.ListSessions)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}
