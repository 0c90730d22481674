package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/abhi-bochare/Payout-Automation-System/internal/models"
	"github.com/abhi-bochare/Payout-Automation-System/internal/repository"
)

var (
	testDBOnce sync.Once
	testDBPool *pgxpool.Pool
	testDBErr  error
)

func TestPayoutLifecycleFlow(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)

	mentorID := createTestMentor(t, ctx, pool, "Flow Mentor")
	t.Cleanup(func() { cleanupTestData(t, ctx, pool, mentorID) })

	sessionRepo := repository.NewSessionRepository(pool)
	summaryRepo := repository.NewPayoutSummaryRepository(pool)
	userRepo := repository.NewUserRepository(pool)

	sessionService := NewSessionService(sessionRepo, userRepo, nil)
	payoutService := NewPayoutService(sessionRepo, summaryRepo, userRepo, nil)

	admin := models.Principal{UserID: 1, Role: "admin"}
	mentor := models.Principal{UserID: mentorID, Role: "mentor"}

	scheduledAt := time.Now().UTC().Add(-48 * time.Hour)
	session, err := sessionService.AddSession(ctx, admin, AddSessionInput{
		MentorID:      mentorID,
		ScheduledAt:   scheduledAt,
		DurationHours: 2,
		Rate:          4000,
	})
	if err != nil {
		t.Fatalf("AddSession: %v", err)
	}
	if session.Status != models.SessionPending {
		t.Fatalf("expected pending session, got %q", session.Status)
	}

	if _, err := sessionService.UpdateStatus(ctx, mentor, session.ID, "completed"); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	from := scheduledAt.Add(-time.Hour)
	to := scheduledAt.Add(time.Hour)
	summaries, err := payoutService.ComputePayouts(ctx, admin, ComputePayoutsInput{
		From:       from,
		To:         to,
		MentorID:   mentorID,
		FeePercent: 10,
		TaxPercent: 18,
	})
	if err != nil {
		t.Fatalf("ComputePayouts: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("expected one summary, got %d", len(summaries))
	}
	if !almostEqual(summaries[0].TotalPayout, 5904) {
		t.Fatalf("expected total payout 5904, got %f", summaries[0].TotalPayout)
	}

	updated, err := payoutService.MarkAsPaid(ctx, admin, mentorID, from, to)
	if err != nil {
		t.Fatalf("MarkAsPaid: %v", err)
	}
	if updated != 1 {
		t.Fatalf("expected one session paid, got %d", updated)
	}

	paid, err := sessionService.GetSession(ctx, mentor, session.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if paid.Status != models.SessionPaid {
		t.Fatalf("expected paid session, got %q", paid.Status)
	}
	if paid.PayoutMeta == nil || !paid.PayoutMeta.Paid {
		t.Fatalf("expected a paid annotation, got %+v", paid.PayoutMeta)
	}

	// Rerun is a no-op.
	updated, err = payoutService.MarkAsPaid(ctx, admin, mentorID, from, to)
	if err != nil {
		t.Fatalf("MarkAsPaid rerun: %v", err)
	}
	if updated != 0 {
		t.Fatalf("expected rerun to update nothing, got %d", updated)
	}

	stored, err := payoutService.ListSummaries(ctx, mentor)
	if err != nil {
		t.Fatalf("ListSummaries: %v", err)
	}
	if len(stored) != 1 || stored[0].Status != models.PayoutStatusPaid {
		t.Fatalf("expected one paid summary, got %+v", stored)
	}
}

func integrationTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	testDBOnce.Do(func() {
		_ = godotenv.Load(".env")
		_ = godotenv.Load(filepath.Join("..", "..", ".env"))

		dbURL := os.Getenv("DB_URL")
		if dbURL == "" {
			testDBErr = fmt.Errorf("DB_URL is not set")
			return
		}

		cfg, err := pgxpool.ParseConfig(dbURL)
		if err != nil {
			testDBErr = err
			return
		}

		testDBPool, testDBErr = pgxpool.NewWithConfig(context.Background(), cfg)
		if testDBErr != nil {
			return
		}
		testDBErr = testDBPool.Ping(context.Background())
	})

	if testDBErr != nil {
		t.Skipf("skipping integration test: %v", testDBErr)
	}
	return testDBPool
}

func createTestMentor(t *testing.T, ctx context.Context, pool *pgxpool.Pool, name string) int64 {
	t.Helper()

	userRepo := repository.NewUserRepository(pool)
	user := &models.User{
		Name:         name,
		Email:        fmt.Sprintf("payout-test-mentor-%d@example.com", time.Now().UnixNano()),
		PasswordHash: "test-hash",
		Role:         "mentor",
	}
	if err := userRepo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return user.ID
}

func cleanupTestData(t *testing.T, ctx context.Context, pool *pgxpool.Pool, mentorID int64) {
	t.Helper()

	if _, err := pool.Exec(ctx, "DELETE FROM payout_summaries WHERE mentor_id = $1", mentorID); err != nil {
		t.Errorf("cleanup payout_summaries: %v", err)
	}
	if _, err := pool.Exec(ctx, "DELETE FROM sessions WHERE mentor_id = $1", mentorID); err != nil {
		t.Errorf("cleanup sessions: %v", err)
	}
	if _, err := pool.Exec(ctx, "DELETE FROM users WHERE id = $1", mentorID); err != nil {
		t.Errorf("cleanup users: %v", err)
	}
}
