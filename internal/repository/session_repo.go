package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/abhi-bochare/Payout-Automation-System/internal/models"
)

type CreateSessionInput struct {
	MentorID      int64
	ScheduledAt   time.Time
	DurationHours float64
	Rate          float64
	SessionType   models.SessionType
}

// SessionListFilter narrows session queries. Zero values mean "no
// constraint": MentorID 0 matches all mentors and zero times leave the date
// range unbounded. Filters combine with AND.
type SessionListFilter struct {
	MentorID int64
	Statuses []models.SessionStatus
	From     time.Time
	To       time.Time
	Limit    int
	Offset   int
}

type SessionRepository struct {
	db DBTX
}

func NewSessionRepository(db DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = "id, mentor_id, scheduled_at, duration_hours, rate, session_type, status, payout_meta, created_at, updated_at"

func scanSession(row interface{ Scan(dest ...any) error }, session *models.Session) error {
	return row.Scan(
		&session.ID,
		&session.MentorID,
		&session.ScheduledAt,
		&session.DurationHours,
		&session.Rate,
		&session.SessionType,
		&session.Status,
		&session.PayoutMeta,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
}

func (r *SessionRepository) Create(
	ctx context.Context,
	input CreateSessionInput,
) (*models.Session, error) {
	query := fmt.Sprintf(`
		INSERT INTO sessions (mentor_id, scheduled_at, duration_hours, rate, session_type, status)
		VALUES ($1, $2, $3, $4, $5, 'pending')
		RETURNING %s
	`, sessionColumns)

	var session models.Session
	err := scanSession(r.db.QueryRow(
		ctx,
		query,
		input.MentorID,
		input.ScheduledAt,
		input.DurationHours,
		input.Rate,
		input.SessionType,
	), &session)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *SessionRepository) GetByID(ctx context.Context, sessionID int64) (*models.Session, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM sessions
		WHERE id = $1
	`, sessionColumns)

	var session models.Session
	if err := scanSession(r.db.QueryRow(ctx, query, sessionID), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *SessionRepository) List(
	ctx context.Context,
	filter SessionListFilter,
) ([]models.Session, error) {
	args := []any{}
	whereParts := []string{}

	if filter.MentorID > 0 {
		args = append(args, filter.MentorID)
		whereParts = append(whereParts, fmt.Sprintf("mentor_id = $%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, status := range filter.Statuses {
			statuses = append(statuses, string(status))
		}
		args = append(args, statuses)
		whereParts = append(whereParts, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		whereParts = append(whereParts, fmt.Sprintf("scheduled_at >= $%d", len(args)))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		whereParts = append(whereParts, fmt.Sprintf("scheduled_at <= $%d", len(args)))
	}

	where := ""
	if len(whereParts) > 0 {
		where = "WHERE " + strings.Join(whereParts, " AND ")
	}

	paging := ""
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		paging = fmt.Sprintf("LIMIT $%d", len(args))
		if filter.Offset > 0 {
			args = append(args, filter.Offset)
			paging = fmt.Sprintf("%s OFFSET $%d", paging, len(args))
		}
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM sessions
		%s
		ORDER BY scheduled_at ASC, id ASC
		%s
	`, sessionColumns, where, paging)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]models.Session, 0)
	for rows.Next() {
		var session models.Session
		if err := scanSession(rows, &session); err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

func (r *SessionRepository) Count(ctx context.Context, filter SessionListFilter) (int, error) {
	args := []any{}
	whereParts := []string{}

	if filter.MentorID > 0 {
		args = append(args, filter.MentorID)
		whereParts = append(whereParts, fmt.Sprintf("mentor_id = $%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, status := range filter.Statuses {
			statuses = append(statuses, string(status))
		}
		args = append(args, statuses)
		whereParts = append(whereParts, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		whereParts = append(whereParts, fmt.Sprintf("scheduled_at >= $%d", len(args)))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		whereParts = append(whereParts, fmt.Sprintf("scheduled_at <= $%d", len(args)))
	}

	where := ""
	if len(whereParts) > 0 {
		where = "WHERE " + strings.Join(whereParts, " AND ")
	}

	var total int
	query := fmt.Sprintf("SELECT COUNT(*) FROM sessions %s", where)
	if err := r.db.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *SessionRepository) UpdateStatusIfCurrent(
	ctx context.Context,
	sessionID int64,
	currentStatus models.SessionStatus,
	nextStatus models.SessionStatus,
) (*models.Session, error) {
	query := fmt.Sprintf(`
		UPDATE sessions
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING %s
	`, sessionColumns)

	var session models.Session
	err := scanSession(r.db.QueryRow(ctx, query, sessionID, currentStatus, nextStatus), &session)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// SetPayoutMeta overwrites the session's payout annotation as a whole. The
// breakdown fields are only ever written together.
func (r *SessionRepository) SetPayoutMeta(
	ctx context.Context,
	sessionID int64,
	meta models.PayoutMeta,
) error {
	query := `
		UPDATE sessions
		SET payout_meta = $2, updated_at = NOW()
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query, sessionID, meta)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("session %d not found", sessionID)
	}
	return nil
}

// MarkPaid transitions a completed session to paid and flips the annotation
// paid flag in one write, leaving every computed amount untouched. It
// returns false when the session was not in the completed state, which makes
// repeated mark-as-paid runs no-ops.
func (r *SessionRepository) MarkPaid(ctx context.Context, sessionID int64) (bool, error) {
	query := `
		UPDATE sessions
		SET status = 'paid',
		    payout_meta = jsonb_set(COALESCE(payout_meta, '{}'::jsonb), '{paid}', 'true'),
		    updated_at = NOW()
		WHERE id = $1 AND status = 'completed'
	`
	tag, err := r.db.Exec(ctx, query, sessionID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
