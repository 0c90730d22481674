package models

import "time"

const (
	PayoutStatusUnpaid = "unpaid"
	PayoutStatusPaid   = "paid"
)

// PayoutSummary is the per-mentor aggregate of one payout computation run.
// It is keyed by mentor id in the store; a rerun replaces the prior summary.
type PayoutSummary struct {
	MentorID    int64     `json:"mentor_id"`
	MentorName  string    `json:"mentor_name"`
	TotalHours  float64   `json:"total_hours"`
	BaseAmount  float64   `json:"base_amount"`
	PlatformFee float64   `json:"platform_fee"`
	Tax         float64   `json:"tax"`
	TotalPayout float64   `json:"total_payout"`
	SessionIDs  []int64   `json:"session_ids"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// MentorBreakdown is the read-only grouped view behind the payout breakdown
// pages: running paid/unpaid totals plus the sessions they cover.
type MentorBreakdown struct {
	MentorID    int64     `json:"mentor_id"`
	MentorName  string    `json:"mentor_name"`
	TotalPaid   float64   `json:"total_paid"`
	TotalUnpaid float64   `json:"total_unpaid"`
	Sessions    []Session `json:"sessions"`
}

// MonthlyReceipt is one invoice bundle of a mentor's paid sessions within a
// calendar month.
type MonthlyReceipt struct {
	MonthKey      string    `json:"month_key"`
	InvoiceNumber string    `json:"invoice_number"`
	MentorID      int64     `json:"mentor_id"`
	MentorName    string    `json:"mentor_name"`
	MentorEmail   string    `json:"mentor_email"`
	Sessions      []Session `json:"sessions"`
	Total         float64   `json:"total"`
}
