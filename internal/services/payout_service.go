package services

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/abhi-bochare/Payout-Automation-System/internal/models"
	"github.com/abhi-bochare/Payout-Automation-System/internal/repository"
)

// UnnamedMentorName is used for mentors present in the directory without a
// name set, mirroring the distinct "Unknown" placeholder for missing ids.
const UnnamedMentorName = "Unnamed Mentor"

type payoutSessionStore interface {
	List(ctx context.Context, filter repository.SessionListFilter) ([]models.Session, error)
	SetPayoutMeta(ctx context.Context, sessionID int64, meta models.PayoutMeta) error
	MarkPaid(ctx context.Context, sessionID int64) (bool, error)
}

type summaryStore interface {
	Upsert(ctx context.Context, summary models.PayoutSummary) (*models.PayoutSummary, error)
	GetByMentorID(ctx context.Context, mentorID int64) (*models.PayoutSummary, error)
	List(ctx context.Context) ([]models.PayoutSummary, error)
	UpdateStatus(ctx context.Context, mentorID int64, status string) error
}

type PayoutService struct {
	sessionRepo payoutSessionStore
	summaryRepo summaryStore
	userRepo    mentorDirectory
	events      EventPublisher
}

func NewPayoutService(
	sessionRepo *repository.SessionRepository,
	summaryRepo *repository.PayoutSummaryRepository,
	userRepo *repository.UserRepository,
	events EventPublisher,
) *PayoutService {
	return &PayoutService{
		sessionRepo: sessionRepo,
		summaryRepo: summaryRepo,
		userRepo:    userRepo,
		events:      events,
	}
}

type ComputePayoutsInput struct {
	From       time.Time
	To         time.Time
	Status     models.SessionStatus
	MentorID   int64
	FeePercent float64
	TaxPercent float64
}

// ComputePayouts runs the payout engine over the filtered session set and
// persists the results: one summary per mentor (mentor-keyed overwrite) and
// a payout annotation on every covered session. The writes are independent
// last-write-wins overwrites, so a failed run is safe to retry from scratch.
// Zero matching sessions is a valid empty result; nothing is written.
func (s *PayoutService) ComputePayouts(
	ctx context.Context,
	principal models.Principal,
	input ComputePayoutsInput,
) ([]models.PayoutSummary, error) {
	if !principal.IsAdmin() {
		return nil, ErrForbidden
	}
	if input.From.IsZero() || input.To.IsZero() || input.To.Before(input.From) {
		return nil, ErrInvalidInput
	}
	if input.FeePercent < 0 || input.FeePercent > 100 ||
		input.TaxPercent < 0 || input.TaxPercent > 100 {
		return nil, ErrInvalidInput
	}
	status := input.Status
	if status == "" {
		status = models.SessionCompleted
	}
	if status != models.SessionCompleted && status != models.SessionPaid {
		return nil, ErrInvalidStatus
	}

	sessions, err := s.sessionRepo.List(ctx, repository.SessionListFilter{
		MentorID: input.MentorID,
		Statuses: []models.SessionStatus{status},
		From:     input.From,
		To:       input.To,
	})
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return []models.PayoutSummary{}, nil
	}

	names, err := mentorNameMap(ctx, s.userRepo)
	if err != nil {
		return nil, err
	}

	summaries := ComputeSummaries(sessions, names, input.FeePercent, input.TaxPercent, time.Now().UTC())

	allPaid := make(map[int64]bool, len(summaries))
	for _, summary := range summaries {
		allPaid[summary.MentorID] = true
	}
	for _, session := range sessions {
		if session.Status != models.SessionPaid {
			allPaid[session.MentorID] = false
		}
	}

	for i := range summaries {
		if allPaid[summaries[i].MentorID] {
			summaries[i].Status = models.PayoutStatusPaid
		}
		if _, err := s.summaryRepo.Upsert(ctx, summaries[i]); err != nil {
			return nil, err
		}
	}

	for _, session := range sessions {
		meta := ComputeBreakdown(session, input.FeePercent, input.TaxPercent)
		// Recomputing must never silently revert a payment that already
		// happened; the paid flag survives for sessions in the paid state.
		meta.Paid = session.Status == models.SessionPaid
		if err := s.sessionRepo.SetPayoutMeta(ctx, session.ID, meta); err != nil {
			return nil, err
		}
	}

	publish(s.events, SessionEvent{
		Type:     EventPayoutsComputed,
		MentorID: input.MentorID,
		Count:    len(summaries),
	})
	return summaries, nil
}

// MarkAsPaid transitions every completed session for the mentor inside the
// date range to paid, one independent write per session. Re-running it is a
// no-op; zero matches is a valid result, not an error.
func (s *PayoutService) MarkAsPaid(
	ctx context.Context,
	principal models.Principal,
	mentorID int64,
	from time.Time,
	to time.Time,
) (int, error) {
	if !principal.IsAdmin() {
		return 0, ErrForbidden
	}
	if mentorID <= 0 || from.IsZero() || to.IsZero() || to.Before(from) {
		return 0, ErrInvalidInput
	}

	sessions, err := s.sessionRepo.List(ctx, repository.SessionListFilter{
		MentorID: mentorID,
		Statuses: []models.SessionStatus{models.SessionCompleted},
		From:     from,
		To:       to,
	})
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, session := range sessions {
		ok, err := s.sessionRepo.MarkPaid(ctx, session.ID)
		if err != nil {
			return updated, err
		}
		if ok {
			updated++
		}
	}

	if updated > 0 {
		if err := s.summaryRepo.UpdateStatus(ctx, mentorID, models.PayoutStatusPaid); err != nil {
			return updated, err
		}
		publish(s.events, SessionEvent{
			Type:     EventSessionsPaid,
			MentorID: mentorID,
			Count:    updated,
		})
	}
	return updated, nil
}

// ListSummaries returns the stored aggregates from the latest computation
// runs: all of them for admins, the caller's own for mentors.
func (s *PayoutService) ListSummaries(
	ctx context.Context,
	principal models.Principal,
) ([]models.PayoutSummary, error) {
	if principal.IsAdmin() {
		return s.summaryRepo.List(ctx)
	}
	if !principal.IsMentor() {
		return nil, ErrForbidden
	}

	summary, err := s.summaryRepo.GetByMentorID(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []models.PayoutSummary{}, nil
		}
		return nil, err
	}
	return []models.PayoutSummary{*summary}, nil
}
