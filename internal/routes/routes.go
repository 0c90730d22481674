package routes

import (
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/abhi-bochare/Payout-Automation-System/internal/config"
	"github.com/abhi-bochare/Payout-Automation-System/internal/handlers"
	"github.com/abhi-bochare/Payout-Automation-System/internal/middleware"
	"github.com/abhi-bochare/Payout-Automation-System/internal/repository"
	"github.com/abhi-bochare/Payout-Automation-System/internal/services"
	eventws "github.com/abhi-bochare/Payout-Automation-System/internal/websocket"
)

func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool) {
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	summaryRepo := repository.NewPayoutSummaryRepository(db)

	hub := eventws.NewHub()
	go hub.Run()

	sessionService := services.NewSessionService(sessionRepo, userRepo, hub)
	payoutService := services.NewPayoutService(sessionRepo, summaryRepo, userRepo, hub)
	reportService := services.NewReportService(sessionRepo, userRepo)

	authHandler := handlers.NewAuthHandler(userRepo, cfg.JWTSecret)
	sessionHandler := handlers.NewSessionHandler(sessionService)
	payoutHandler := handlers.NewPayoutHandler(
		payoutService,
		reportService,
		cfg.DefaultFeePercent,
		cfg.DefaultTaxPercent,
	)
	feedHandler := handlers.NewFeedHandler(hub, cfg.JWTSecret)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", middleware.AuthRequired(cfg.JWTSecret), authHandler.Me)

	protected := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret))

	sessions := protected.Group("/sessions")
	sessions.Post("", sessionHandler.AddSession)
	sessions.Post("/bulk", sessionHandler.BulkAddSessions)
	sessions.Get("", sessionHandler.ListSessions)
	sessions.Get("/:id", sessionHandler.GetSession)
	sessions.Put("/:id/status", sessionHandler.UpdateStatus)

	payouts := protected.Group("/payouts")
	payouts.Post("/compute", payoutHandler.ComputePayouts)
	payouts.Post("/:mentorId/mark-paid", payoutHandler.MarkAsPaid)
	payouts.Get("/breakdown", payoutHandler.GetPayoutBreakdown)
	payouts.Get("/receipts", payoutHandler.GetReceipts)
	payouts.Get("/summaries", payoutHandler.ListSummaries)

	api.Use("/v1/ws", feedHandler.WebSocketAuth)
	api.Get("/v1/ws", websocket.New(feedHandler.HandleWebSocket))
}
