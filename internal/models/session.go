package models

import "time"

type SessionStatus string

const (
	SessionPending      SessionStatus = "pending"
	SessionCompleted    SessionStatus = "completed"
	SessionNotCompleted SessionStatus = "not_completed"
	SessionPaid         SessionStatus = "paid"
)

func (s SessionStatus) Valid() bool {
	switch s {
	case SessionPending, SessionCompleted, SessionNotCompleted, SessionPaid:
		return true
	}
	return false
}

// CanTransitionTo reports whether the status state machine permits moving
// from s to next. pending splits into completed/not_completed once the
// session date has passed; only completed sessions may become paid.
func (s SessionStatus) CanTransitionTo(next SessionStatus) bool {
	switch s {
	case SessionPending:
		return next == SessionCompleted || next == SessionNotCompleted
	case SessionCompleted:
		return next == SessionPaid
	default:
		return false
	}
}

type SessionType string

const (
	SessionTypeLive       SessionType = "live"
	SessionTypeEvaluation SessionType = "evaluation"
	SessionTypeALH        SessionType = "alh"
	SessionTypeRecorded   SessionType = "recorded"
)

func (t SessionType) Valid() bool {
	switch t {
	case SessionTypeLive, SessionTypeEvaluation, SessionTypeALH, SessionTypeRecorded:
		return true
	}
	return false
}

// PayoutMeta is the computed financial breakdown attached to a session once
// a payout run has covered it. All amount fields are recomputed together;
// only the Paid flag is toggled independently, and only by mark-as-paid.
type PayoutMeta struct {
	Hours       float64 `json:"hours"`
	Rate        float64 `json:"rate"`
	BaseAmount  float64 `json:"base_amount"`
	PlatformFee float64 `json:"platform_fee"`
	Tax         float64 `json:"tax"`
	TotalPayout float64 `json:"total_payout"`
	Paid        bool    `json:"paid"`
}

type Session struct {
	ID            int64         `json:"id"`
	MentorID      int64         `json:"mentor_id"`
	ScheduledAt   time.Time     `json:"scheduled_at"`
	DurationHours float64       `json:"duration_hours"`
	Rate          float64       `json:"rate"`
	SessionType   SessionType   `json:"session_type"`
	Status        SessionStatus `json:"status"`
	PayoutMeta    *PayoutMeta   `json:"payout_meta,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}
