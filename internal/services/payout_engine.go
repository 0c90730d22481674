package services

import (
	"time"

	"github.com/abhi-bochare/Payout-Automation-System/internal/models"
)

// UnknownMentorName is the placeholder used when a session references a
// mentor id missing from the directory.
const UnknownMentorName = "Unknown"

// ComputeBreakdown derives the financial breakdown for one session. The
// computation order is fixed: base, then platform fee, then tax on the
// post-fee amount. Pure; the result always starts unpaid regardless of any
// prior annotation on the session.
func ComputeBreakdown(session models.Session, feePercent, taxPercent float64) models.PayoutMeta {
	baseAmount := session.DurationHours * session.Rate
	platformFee := baseAmount * feePercent / 100
	tax := (baseAmount - platformFee) * taxPercent / 100

	return models.PayoutMeta{
		Hours:       session.DurationHours,
		Rate:        session.Rate,
		BaseAmount:  baseAmount,
		PlatformFee: platformFee,
		Tax:         tax,
		TotalPayout: baseAmount - platformFee - tax,
		Paid:        false,
	}
}

// ComputeSummaries groups sessions by mentor, applies ComputeBreakdown to
// each, and accumulates per-mentor totals. Mentors appear in first-seen
// session order. Output is deterministic for a given input except for the
// createdAt stamp.
func ComputeSummaries(
	sessions []models.Session,
	mentorNames map[int64]string,
	feePercent float64,
	taxPercent float64,
	createdAt time.Time,
) []models.PayoutSummary {
	order := make([]int64, 0)
	byMentor := make(map[int64]*models.PayoutSummary)

	for _, session := range sessions {
		summary, ok := byMentor[session.MentorID]
		if !ok {
			name, found := mentorNames[session.MentorID]
			if !found || name == "" {
				name = UnknownMentorName
			}
			summary = &models.PayoutSummary{
				MentorID:   session.MentorID,
				MentorName: name,
				SessionIDs: make([]int64, 0, 1),
				Status:     models.PayoutStatusUnpaid,
				CreatedAt:  createdAt,
			}
			byMentor[session.MentorID] = summary
			order = append(order, session.MentorID)
		}

		meta := ComputeBreakdown(session, feePercent, taxPercent)
		summary.TotalHours += meta.Hours
		summary.BaseAmount += meta.BaseAmount
		summary.PlatformFee += meta.PlatformFee
		summary.Tax += meta.Tax
		summary.TotalPayout += meta.TotalPayout
		summary.SessionIDs = append(summary.SessionIDs, session.ID)
	}

	summaries := make([]models.PayoutSummary, 0, len(order))
	for _, mentorID := range order {
		summaries = append(summaries, *byMentor[mentorID])
	}
	return summaries
}
