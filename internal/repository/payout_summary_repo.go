package repository

import (
	"context"

	"github.com/abhi-bochare/Payout-Automation-System/internal/models"
)

type PayoutSummaryRepository struct {
	db DBTX
}

func NewPayoutSummaryRepository(db DBTX) *PayoutSummaryRepository {
	return &PayoutSummaryRepository{db: db}
}

const payoutSummaryColumns = "mentor_id, mentor_name, total_hours, base_amount, platform_fee, tax, total_payout, session_ids, status, created_at"

func scanPayoutSummary(row interface{ Scan(dest ...any) error }, summary *models.PayoutSummary) error {
	return row.Scan(
		&summary.MentorID,
		&summary.MentorName,
		&summary.TotalHours,
		&summary.BaseAmount,
		&summary.PlatformFee,
		&summary.Tax,
		&summary.TotalPayout,
		&summary.SessionIDs,
		&summary.Status,
		&summary.CreatedAt,
	)
}

// Upsert stores the summary keyed by mentor id. A rerun for the same mentor
// replaces the previous aggregate wholesale (last-write-wins).
func (r *PayoutSummaryRepository) Upsert(
	ctx context.Context,
	summary models.PayoutSummary,
) (*models.PayoutSummary, error) {
	query := `
		INSERT INTO payout_summaries
			(mentor_id, mentor_name, total_hours, base_amount, platform_fee, tax, total_payout, session_ids, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (mentor_id) DO UPDATE SET
			mentor_name = EXCLUDED.mentor_name,
			total_hours = EXCLUDED.total_hours,
			base_amount = EXCLUDED.base_amount,
			platform_fee = EXCLUDED.platform_fee,
			tax = EXCLUDED.tax,
			total_payout = EXCLUDED.total_payout,
			session_ids = EXCLUDED.session_ids,
			status = EXCLUDED.status,
			created_at = EXCLUDED.created_at
		RETURNING ` + payoutSummaryColumns

	var stored models.PayoutSummary
	err := scanPayoutSummary(r.db.QueryRow(
		ctx,
		query,
		summary.MentorID,
		summary.MentorName,
		summary.TotalHours,
		summary.BaseAmount,
		summary.PlatformFee,
		summary.Tax,
		summary.TotalPayout,
		summary.SessionIDs,
		summary.Status,
		summary.CreatedAt,
	), &stored)
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *PayoutSummaryRepository) GetByMentorID(
	ctx context.Context,
	mentorID int64,
) (*models.PayoutSummary, error) {
	query := `
		SELECT ` + payoutSummaryColumns + `
		FROM payout_summaries
		WHERE mentor_id = $1
	`
	var summary models.PayoutSummary
	if err := scanPayoutSummary(r.db.QueryRow(ctx, query, mentorID), &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

func (r *PayoutSummaryRepository) List(ctx context.Context) ([]models.PayoutSummary, error) {
	query := `
		SELECT ` + payoutSummaryColumns + `
		FROM payout_summaries
		ORDER BY mentor_id ASC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]models.PayoutSummary, 0)
	for rows.Next() {
		var summary models.PayoutSummary
		if err := scanPayoutSummary(rows, &summary); err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return summaries, nil
}

// UpdateStatus flips the stored aggregate between unpaid and paid without
// touching any computed field.
func (r *PayoutSummaryRepository) UpdateStatus(
	ctx context.Context,
	mentorID int64,
	status string,
) error {
	query := `
		UPDATE payout_summaries
		SET status = $2
		WHERE mentor_id = $1
	`
	_, err := r.db.Exec(ctx, query, mentorID, status)
	return err
}
