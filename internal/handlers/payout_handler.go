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
	"github.com/abhi-bochare/Payout-Automation-System/internal/services"
)

type payoutApplicationService interface {
	ComputePayouts(ctx context.Context, principal models.Principal, input services.ComputePayoutsInput) ([]models.PayoutSummary, error)
	MarkAsPaid(ctx context.Context, principal models.Principal, mentorID int64, from, to time.Time) (int, error)
	ListSummaries(ctx context.Context, principal models.Principal) ([]models.PayoutSummary, error)
}

type reportApplicationService interface {
	GetPayoutBreakdown(ctx context.Context, principal models.Principal, mentorID int64, paidFilter string) ([]models.MentorBreakdown, error)
	GetReceipts(ctx context.Context, principal models.Principal, mentorID int64) ([]models.MonthlyReceipt, error)
}

type PayoutHandler struct {
	payouts    payoutApplicationService
	reports    reportApplicationService
	defaultFee float64
	defaultTax float64
}

func NewPayoutHandler(
	payouts *services.PayoutService,
	reports *services.ReportService,
	defaultFee float64,
	defaultTax float64,
) *PayoutHandler {
	return &PayoutHandler{
		payouts:    payouts,
		reports:    reports,
		defaultFee: defaultFee,
		defaultTax: defaultTax,
	}
}

type computePayoutsRequest struct {
	From       string   `json:"from"`
	To         string   `json:"to"`
	Status     string   `json:"status"`
	MentorID   int64    `json:"mentor_id"`
	FeePercent *float64 `json:"fee_percent"`
	TaxPercent *float64 `json:"tax_percent"`
}

type markPaidRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func (h *PayoutHandler) ComputePayouts(c *fiber.Ctx) error {
	principal, err := parsePrincipal(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req computePayoutsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	from, err := parseDateParam(req.From)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid from date"})
	}
	to, err := parseRangeEnd(req.To)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid to date"})
	}

	input := services.ComputePayoutsInput{
		From:       from,
		To:         to,
		Status:     models.SessionStatus(strings.TrimSpace(req.Status)),
		MentorID:   req.MentorID,
		FeePercent: h.defaultFee,
		TaxPercent: h.defaultTax,
	}
	if req.FeePercent != nil {
		input.FeePercent = *req.FeePercent
	}
	if req.TaxPercent != nil {
		input.TaxPercent = *req.TaxPercent
	}

	summaries, err := h.payouts.ComputePayouts(c.Context(), principal, input)
	if err != nil {
		return mapPayoutError(c, err)
	}
	return c.JSON(fiber.Map{"payouts": summaries})
}

func (h *PayoutHandler) MarkAsPaid(c *fiber.Ctx) error {
	principal, err := parsePrincipal(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	mentorID, err := strconv.ParseInt(c.Params("mentorId"), 10, 64)
	if err != nil || mentorID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid mentor id"})
	}

	var req markPaidRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	from, err := parseDateParam(req.From)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid from date"})
	}
	to, err := parseRangeEnd(req.To)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid to date"})
	}

	updated, err := h.payouts.MarkAsPaid(c.Context(), principal, mentorID, from, to)
	if err != nil {
		return mapPayoutError(c, err)
	}
	return c.JSON(fiber.Map{"updated": updated})
}

func (h *PayoutHandler) GetPayoutBreakdown(c *fiber.Ctx) error {
	principal, err := parsePrincipal(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var mentorID int64
	if raw := strings.TrimSpace(c.Query("mentor_id")); raw != "" {
		mentorID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil || mentorID <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid mentor id"})
		}
	}
	paidFilter := strings.TrimSpace(c.Query("filter"))

	breakdowns, err := h.reports.GetPayoutBreakdown(c.Context(), principal, mentorID, paidFilter)
	if err != nil {
		return mapPayoutError(c, err)
	}
	return c.JSON(fiber.Map{"breakdowns": breakdowns})
}

func (h *PayoutHandler) GetReceipts(c *fiber.Ctx) error {
	principal, err := parsePrincipal(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var mentorID int64
	if raw := strings.TrimSpace(c.Query("mentor_id")); raw != "" {
		mentorID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil || mentorID <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid mentor id"})
		}
	}

	receipts, err := h.reports.GetReceipts(c.Context(), principal, mentorID)
	if err != nil {
		return mapPayoutError(c, err)
	}
	return c.JSON(fiber.Map{"receipts": receipts})
}

func (h *PayoutHandler) ListSummaries(c *fiber.Ctx) error {
	principal, err := parsePrincipal(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	summaries, err := h.payouts.ListSummaries(c.Context(), principal)
	if err != nil {
		return mapPayoutError(c, err)
	}
	return c.JSON(fiber.Map{"summaries": summaries})
}

func mapPayoutError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput), errors.Is(err, services.ErrInvalidStatus):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrMentorNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Mentor not found"})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process payout request"})
	}
}
