package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/abhi-bochare/Payout-Automation-System/internal/models"
	"github.com/abhi-bochare/Payout-Automation-System/internal/repository"
	"github.com/abhi-bochare/Payout-Automation-System/internal/services"
)

type SessionHandler struct {
	service sessionApplicationService
}

type sessionApplicationService interface {
	AddSession(ctx context.Context, principal models.Principal, input services.AddSessionInput) (*models.Session, error)
	BulkAddSessions(ctx context.Context, principal models.Principal, rows []services.AddSessionInput) (*services.BulkAddResult, error)
	ListSessions(ctx context.Context, principal models.Principal, filter repository.SessionListFilter, page, limit int) (*services.SessionPage, error)
	GetSession(ctx context.Context, principal models.Principal, sessionID int64) (*models.Session, error)
	UpdateStatus(ctx context.Context, principal models.Principal, sessionID int64, requestedStatus string) (*models.Session, error)
}

func NewSessionHandler(service *services.SessionService) *SessionHandler {
	return &SessionHandler{service: service}
}

type sessionRowRequest struct {
	MentorID      int64    `json:"mentor_id"`
	Date          string   `json:"date"`
	DurationHours float64  `json:"duration_hours"`
	Rate          *float64 `json:"rate"`
	SessionType   string   `json:"session_type"`
}

type bulkAddSessionsRequest struct {
	Sessions []sessionRowRequest `json:"sessions"`
}

type updateSessionStatusRequest struct {
	Status string `json:"status"`
}

func (r sessionRowRequest) toInput() services.AddSessionInput {
	input := services.AddSessionInput{
		MentorID:      r.MentorID,
		DurationHours: r.DurationHours,
		SessionType:   models.SessionType(strings.TrimSpace(r.SessionType)),
	}
	if r.Rate != nil {
		input.Rate = *r.Rate
	} else {
		input.Rate = services.DefaultSessionRate
	}
	if date, err := parseDateParam(r.Date); err == nil {
		input.ScheduledAt = date
	}
	return input
}

func (h *SessionHandler) AddSession(c *fiber.Ctx) error {
	principal, err := parsePrincipal(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req sessionRowRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if _, err := parseDateParam(req.Date); err != nil {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"error": "date must be an RFC3339 timestamp or YYYY-MM-DD"})
	}

	session, err := h.service.AddSession(c.Context(), principal, req.toInput())
	if err != nil {
		return mapSessionError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"session": session})
}

func (h *SessionHandler) BulkAddSessions(c *fiber.Ctx) error {
	principal, err := parsePrincipal(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req bulkAddSessionsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if len(req.Sessions) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "sessions must not be empty"})
	}

	rows := make([]services.AddSessionInput, 0, len(req.Sessions))
	for _, row := range req.Sessions {
		rows = append(rows, row.toInput())
	}

	result, err := h.service.BulkAddSessions(c.Context(), principal, rows)
	if err != nil {
		return mapSessionError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

func (h *SessionHandler) ListSessions(c *fiber.Ctx) error {
	principal, err := parsePrincipal(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	filter := repository.SessionListFilter{}
	if status := strings.TrimSpace(c.Query("status")); status != "" {
		filter.Statuses = []models.SessionStatus{models.SessionStatus(status)}
	}
	if from := strings.TrimSpace(c.Query("from")); from != "" {
		parsed, err := parseDateParam(from)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid from date"})
		}
		filter.From = parsed
	}
	if to := strings.TrimSpace(c.Query("to")); to != "" {
		parsed, err := parseRangeEnd(to)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid to date"})
		}
		filter.To = parsed
	}

	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 0)

	result, err := h.service.ListSessions(c.Context(), principal, filter, page, limit)
	if err != nil {
		return mapSessionError(c, err)
	}
	return c.JSON(result)
}

func (h *SessionHandler) GetSession(c *fiber.Ctx) error {
	principal, err := parsePrincipal(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	sessionID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || sessionID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	session, err := h.service.GetSession(c.Context(), principal, sessionID)
	if err != nil {
		return mapSessionError(c, err)
	}
	return c.JSON(fiber.Map{"session": session})
}

func (h *SessionHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, err := parsePrincipal(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	sessionID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || sessionID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	var req updateSessionStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	session, err := h.service.UpdateStatus(c.Context(), principal, sessionID, req.Status)
	if err != nil {
		return mapSessionError(c, err)
	}
	return c.JSON(fiber.Map{"session": session})
}

// parseDateParam accepts either a full RFC3339 timestamp or a plain
// calendar date.
func parseDateParam(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed.UTC(), nil
	}
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, err
	}
	return parsed.UTC(), nil
}

// parseRangeEnd widens a plain calendar date to the end of that day so the
// range stays inclusive of sessions scheduled later the same day.
func parseRangeEnd(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed.UTC(), nil
	}
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, err
	}
	return parsed.UTC().Add(24*time.Hour - time.Nanosecond), nil
}

func mapSessionError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput), errors.Is(err, services.ErrInvalidStatus):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrSessionNotStarted):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidStateTransition):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrMentorNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Mentor not found"})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process session request"})
	}
}
