package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/abhi-bochare/Payout-Automation-System/internal/models"
	"github.com/abhi-bochare/Payout-Automation-System/internal/repository"
)

var (
	ErrForbidden              = errors.New("forbidden")
	ErrInvalidInput           = errors.New("invalid input")
	ErrInvalidStatus          = errors.New("invalid status")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrMentorNotFound         = errors.New("mentor not found")
	ErrSessionNotStarted      = errors.New("session has not taken place yet")
)

type sessionStore interface {
	Create(ctx context.Context, input repository.CreateSessionInput) (*models.Session, error)
	GetByID(ctx context.Context, sessionID int64) (*models.Session, error)
	List(ctx context.Context, filter repository.SessionListFilter) ([]models.Session, error)
	Count(ctx context.Context, filter repository.SessionListFilter) (int, error)
	UpdateStatusIfCurrent(ctx context.Context, sessionID int64, currentStatus, nextStatus models.SessionStatus) (*models.Session, error)
}

type mentorDirectory interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	ListMentors(ctx context.Context) ([]models.User, error)
}

type SessionService struct {
	sessionRepo sessionStore
	userRepo    mentorDirectory
	events      EventPublisher
}

func NewSessionService(
	sessionRepo *repository.SessionRepository,
	userRepo *repository.UserRepository,
	events EventPublisher,
) *SessionService {
	return &SessionService{
		sessionRepo: sessionRepo,
		userRepo:    userRepo,
		events:      events,
	}
}

const (
	DefaultSessionRate   = 4000.0
	defaultSessionsLimit = 20
	maxSessionsPageLimit = 100
)

type AddSessionInput struct {
	MentorID      int64
	ScheduledAt   time.Time
	DurationHours float64
	Rate          float64
	SessionType   models.SessionType
}

type BulkAddResult struct {
	Created []models.Session `json:"created"`
	Skipped int              `json:"skipped"`
}

func (s *SessionService) AddSession(
	ctx context.Context,
	principal models.Principal,
	input AddSessionInput,
) (*models.Session, error) {
	if !principal.IsAdmin() {
		return nil, ErrForbidden
	}
	if input.MentorID <= 0 || input.ScheduledAt.IsZero() {
		return nil, ErrInvalidInput
	}
	if input.DurationHours <= 0 || input.Rate < 0 {
		return nil, ErrInvalidInput
	}
	sessionType := input.SessionType
	if sessionType == "" {
		sessionType = models.SessionTypeLive
	}
	if !sessionType.Valid() {
		return nil, ErrInvalidInput
	}

	mentor, err := s.userRepo.GetByID(ctx, input.MentorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMentorNotFound
		}
		return nil, err
	}
	if mentor.Role != "mentor" {
		return nil, ErrMentorNotFound
	}

	session, err := s.sessionRepo.Create(ctx, repository.CreateSessionInput{
		MentorID:      input.MentorID,
		ScheduledAt:   input.ScheduledAt.UTC(),
		DurationHours: input.DurationHours,
		Rate:          input.Rate,
		SessionType:   sessionType,
	})
	if err != nil {
		return nil, err
	}

	publish(s.events, SessionEvent{
		Type:      EventSessionCreated,
		MentorID:  session.MentorID,
		SessionID: session.ID,
		Status:    string(session.Status),
	})
	return session, nil
}

// BulkAddSessions creates sessions from pre-parsed rows. Rows missing a
// mentor reference, a positive duration, or a date are skipped rather than
// failing the batch; store errors abort the whole operation.
func (s *SessionService) BulkAddSessions(
	ctx context.Context,
	principal models.Principal,
	rows []AddSessionInput,
) (*BulkAddResult, error) {
	if !principal.IsAdmin() {
		return nil, ErrForbidden
	}

	mentors, err := s.userRepo.ListMentors(ctx)
	if err != nil {
		return nil, err
	}
	known := make(map[int64]struct{}, len(mentors))
	for _, mentor := range mentors {
		known[mentor.ID] = struct{}{}
	}

	result := &BulkAddResult{Created: make([]models.Session, 0, len(rows))}
	for _, row := range rows {
		if row.MentorID <= 0 || row.DurationHours <= 0 || row.ScheduledAt.IsZero() {
			result.Skipped++
			continue
		}
		if _, ok := known[row.MentorID]; !ok {
			result.Skipped++
			continue
		}

		rate := row.Rate
		if rate <= 0 {
			rate = DefaultSessionRate
		}
		sessionType := row.SessionType
		if !sessionType.Valid() {
			sessionType = models.SessionTypeLive
		}

		session, err := s.sessionRepo.Create(ctx, repository.CreateSessionInput{
			MentorID:      row.MentorID,
			ScheduledAt:   row.ScheduledAt.UTC(),
			DurationHours: row.DurationHours,
			Rate:          rate,
			SessionType:   sessionType,
		})
		if err != nil {
			return nil, err
		}
		result.Created = append(result.Created, *session)
	}

	// One event per mentor, so mentor feed connections see their own
	// bulk-created sessions just like single adds.
	mentorOrder := make([]int64, 0)
	perMentor := make(map[int64]int)
	for _, session := range result.Created {
		if perMentor[session.MentorID] == 0 {
			mentorOrder = append(mentorOrder, session.MentorID)
		}
		perMentor[session.MentorID]++
	}
	for _, mentorID := range mentorOrder {
		publish(s.events, SessionEvent{
			Type:     EventSessionCreated,
			MentorID: mentorID,
			Count:    perMentor[mentorID],
		})
	}
	return result, nil
}

type SessionPage struct {
	Sessions   []models.Session      `json:"sessions"`
	Pagination models.PaginationMeta `json:"pagination"`
}

func (s *SessionService) ListSessions(
	ctx context.Context,
	principal models.Principal,
	filter repository.SessionListFilter,
	page int,
	limit int,
) (*SessionPage, error) {
	if principal.IsMentor() {
		filter.MentorID = principal.UserID
	} else if !principal.IsAdmin() {
		return nil, ErrForbidden
	}
	for _, status := range filter.Statuses {
		if !status.Valid() {
			return nil, ErrInvalidStatus
		}
	}

	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultSessionsLimit
	}
	if limit > maxSessionsPageLimit {
		limit = maxSessionsPageLimit
	}
	filter.Limit = limit
	filter.Offset = (page - 1) * limit

	total, err := s.sessionRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	sessions, err := s.sessionRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return &SessionPage{
		Sessions: sessions,
		Pagination: models.PaginationMeta{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
		},
	}, nil
}

func (s *SessionService) GetSession(
	ctx context.Context,
	principal models.Principal,
	sessionID int64,
) (*models.Session, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !canAccessSession(principal, session) {
		return nil, ErrForbidden
	}
	return session, nil
}

// UpdateStatus is the mentor-facing half of the lifecycle: marking a pending
// session completed or not completed once its date has passed. The paid
// transition is reserved for the admin mark-as-paid path.
func (s *SessionService) UpdateStatus(
	ctx context.Context,
	principal models.Principal,
	sessionID int64,
	requestedStatus string,
) (*models.Session, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !principal.IsMentor() || session.MentorID != principal.UserID {
		return nil, ErrForbidden
	}

	nextStatus, err := normalizeRequestedStatus(requestedStatus)
	if err != nil {
		return nil, err
	}
	if !session.Status.CanTransitionTo(nextStatus) {
		return nil, ErrInvalidStateTransition
	}
	if session.ScheduledAt.After(time.Now().UTC()) {
		return nil, ErrSessionNotStarted
	}

	updated, err := s.sessionRepo.UpdateStatusIfCurrent(ctx, sessionID, session.Status, nextStatus)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}

	publish(s.events, SessionEvent{
		Type:      EventStatusChanged,
		MentorID:  updated.MentorID,
		SessionID: updated.ID,
		Status:    string(updated.Status),
	})
	return updated, nil
}

func canAccessSession(principal models.Principal, session *models.Session) bool {
	if principal.IsAdmin() {
		return true
	}
	if principal.IsMentor() {
		return session.MentorID == principal.UserID
	}
	return false
}

func normalizeRequestedStatus(status string) (models.SessionStatus, error) {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "complete", "completed":
		return models.SessionCompleted, nil
	case "not completed", "not-completed", "not_completed":
		return models.SessionNotCompleted, nil
	default:
		return "", ErrInvalidStatus
	}
}
