package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/abhi-bochare/Payout-Automation-System/internal/models"
	"github.com/abhi-bochare/Payout-Automation-System/internal/repository"
)

// MonthKeyFormat renders the calendar-month bucket a paid session falls in,
// e.g. "July-2026".
const MonthKeyFormat = "January-2006"

const (
	PaidFilterAll    = "all"
	PaidFilterPaid   = "paid"
	PaidFilterUnpaid = "unpaid"
)

// GroupByMentor folds sessions into per-mentor running totals: paid payouts,
// unpaid payouts, and the sessions behind them. Mentors appear in first-seen
// session order. Sessions without a payout annotation contribute nothing to
// either total.
func GroupByMentor(sessions []models.Session, mentorNames map[int64]string) []models.MentorBreakdown {
	order := make([]int64, 0)
	byMentor := make(map[int64]*models.MentorBreakdown)

	for _, session := range sessions {
		breakdown, ok := byMentor[session.MentorID]
		if !ok {
			name, found := mentorNames[session.MentorID]
			if !found || name == "" {
				name = UnknownMentorName
			}
			breakdown = &models.MentorBreakdown{
				MentorID:   session.MentorID,
				MentorName: name,
				Sessions:   make([]models.Session, 0, 1),
			}
			byMentor[session.MentorID] = breakdown
			order = append(order, session.MentorID)
		}

		breakdown.Sessions = append(breakdown.Sessions, session)
		if session.PayoutMeta == nil {
			continue
		}
		if session.PayoutMeta.Paid {
			breakdown.TotalPaid += session.PayoutMeta.TotalPayout
		} else {
			breakdown.TotalUnpaid += session.PayoutMeta.TotalPayout
		}
	}

	breakdowns := make([]models.MentorBreakdown, 0, len(order))
	for _, mentorID := range order {
		breakdowns = append(breakdowns, *byMentor[mentorID])
	}
	return breakdowns
}

// GroupByMonth bundles a mentor's paid sessions into one invoice per
// calendar month, in first-seen order (chronological when the input is date
// ordered). Months with no paid sessions produce no bundle.
func GroupByMonth(sessions []models.Session, mentor models.User) []models.MonthlyReceipt {
	order := make([]string, 0)
	byMonth := make(map[string]*models.MonthlyReceipt)

	for _, session := range sessions {
		if session.Status != models.SessionPaid {
			continue
		}

		key := session.ScheduledAt.Format(MonthKeyFormat)
		receipt, ok := byMonth[key]
		if !ok {
			receipt = &models.MonthlyReceipt{
				MonthKey:    key,
				MentorID:    mentor.ID,
				MentorName:  mentor.Name,
				MentorEmail: mentor.Email,
				Sessions:    make([]models.Session, 0, 1),
			}
			byMonth[key] = receipt
			order = append(order, key)
		}

		receipt.Sessions = append(receipt.Sessions, session)
		if session.PayoutMeta != nil {
			receipt.Total += session.PayoutMeta.TotalPayout
		}
	}

	receipts := make([]models.MonthlyReceipt, 0, len(order))
	for i, key := range order {
		receipt := byMonth[key]
		receipt.InvoiceNumber = fmt.Sprintf(
			"INV-%s-%d",
			strings.ToUpper(strings.ReplaceAll(key, "-", "")),
			i+1,
		)
		receipts = append(receipts, *receipt)
	}
	return receipts
}

// FilterByPaidStatus keeps sessions whose annotation matches the requested
// paid state. "all" passes the input through unchanged; sessions without an
// annotation are excluded from the paid and unpaid views.
func FilterByPaidStatus(sessions []models.Session, mode string) []models.Session {
	if mode != PaidFilterPaid && mode != PaidFilterUnpaid {
		return sessions
	}

	wantPaid := mode == PaidFilterPaid
	filtered := make([]models.Session, 0, len(sessions))
	for _, session := range sessions {
		if session.PayoutMeta == nil {
			continue
		}
		if session.PayoutMeta.Paid == wantPaid {
			filtered = append(filtered, session)
		}
	}
	return filtered
}

type reportSessionStore interface {
	List(ctx context.Context, filter repository.SessionListFilter) ([]models.Session, error)
}

type ReportService struct {
	sessionRepo reportSessionStore
	userRepo    mentorDirectory
}

func NewReportService(
	sessionRepo *repository.SessionRepository,
	userRepo *repository.UserRepository,
) *ReportService {
	return &ReportService{
		sessionRepo: sessionRepo,
		userRepo:    userRepo,
	}
}

// GetPayoutBreakdown builds the grouped paid/unpaid view over computed
// sessions. Mentors are scoped to themselves; admins pass mentorID 0 for all
// mentors. Read-only: nothing is persisted.
func (s *ReportService) GetPayoutBreakdown(
	ctx context.Context,
	principal models.Principal,
	mentorID int64,
	paidFilter string,
) ([]models.MentorBreakdown, error) {
	if principal.IsMentor() {
		mentorID = principal.UserID
	} else if !principal.IsAdmin() {
		return nil, ErrForbidden
	}

	switch paidFilter {
	case "", PaidFilterAll, PaidFilterPaid, PaidFilterUnpaid:
	default:
		return nil, ErrInvalidInput
	}

	sessions, err := s.sessionRepo.List(ctx, repository.SessionListFilter{
		MentorID: mentorID,
		Statuses: []models.SessionStatus{models.SessionCompleted, models.SessionPaid},
	})
	if err != nil {
		return nil, err
	}

	computed := make([]models.Session, 0, len(sessions))
	for _, session := range sessions {
		if session.PayoutMeta != nil {
			computed = append(computed, session)
		}
	}
	computed = FilterByPaidStatus(computed, paidFilter)

	names, err := mentorNameMap(ctx, s.userRepo)
	if err != nil {
		return nil, err
	}
	return GroupByMentor(computed, names), nil
}

// GetReceipts returns the mentor's paid sessions bundled into monthly
// invoices. Mentors may only fetch their own receipts.
func (s *ReportService) GetReceipts(
	ctx context.Context,
	principal models.Principal,
	mentorID int64,
) ([]models.MonthlyReceipt, error) {
	if principal.IsMentor() {
		mentorID = principal.UserID
	} else if !principal.IsAdmin() {
		return nil, ErrForbidden
	}
	if mentorID <= 0 {
		return nil, ErrInvalidInput
	}

	mentor, err := s.userRepo.GetByID(ctx, mentorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMentorNotFound
		}
		return nil, err
	}

	sessions, err := s.sessionRepo.List(ctx, repository.SessionListFilter{
		MentorID: mentorID,
		Statuses: []models.SessionStatus{models.SessionPaid},
	})
	if err != nil {
		return nil, err
	}
	return GroupByMonth(sessions, *mentor), nil
}

func mentorNameMap(ctx context.Context, directory mentorDirectory) (map[int64]string, error) {
	mentors, err := directory.ListMentors(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(mentors))
	for _, mentor := range mentors {
		name := mentor.Name
		if name == "" {
			name = UnnamedMentorName
		}
		names[mentor.ID] = name
	}
	return names, nil
}
