package routes

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	healthHandler *handlers.HealthHandler,
	reportHandler *handlers.ReportHandler,
	reviewHandler *handlers.ReviewHandler,
	auditHandler *handlers.AuditHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	can := func(caps ...string) fiber.Handler {
		return middleware.RequireCapability(cfg, caps...)
	}

	// User endpoints
	api.Post("/reports", middleware.JWTProtected(cfg), can(middleware.CapReportsCreate), reportHandler.CreateReport)

	// Moderation panel
	mod := api.Group("/admin/moderation", middleware.JWTProtected(cfg))

	mod.Get("/reports", can(middleware.CapReportsTriage), reportHandler.ListReports)
	mod.Get("/reports/:id", can(middleware.CapReportsTriage), reportHandler.GetReport)
	mod.Post("/reports/:id/dismiss", can(middleware.CapReportsTriage), reportHandler.DismissReport)
	mod.Post("/reports/:id/act", can(middleware.CapReportsTriage), reportHandler.ActOnReport)
	mod.Put("/reports/:id/notes", can(middleware.CapReportsTriage), reportHandler.UpdateNotes)
	mod.Post("/reports/:id/escalate", can(middleware.CapReviewsStart), reportHandler.EscalateReport)

	mod.Post("/reviews", can(middleware.CapReviewsStart), reviewHandler.StartReview)
	mod.Get("/reviews", can(middleware.CapReviewsVote), reviewHandler.ListReviews)
	mod.Get("/reviews/:id", can(middleware.CapReviewsVote), reviewHandler.GetReview)
	mod.Put("/reviews/:id/vote", can(middleware.CapReviewsVote), reviewHandler.CastVote)
	mod.Post("/reviews/:id/close", can(middleware.CapReviewsClose), reviewHandler.CloseReview)
	mod.Post("/reviews/:id/extend", can(middleware.CapReviewsExtend), reviewHandler.ExtendReview)

	// Manual resolver run; it both closes and extends.
	mod.Post("/resolve", can(middleware.CapReviewsClose, middleware.CapReviewsExtend), reviewHandler.Resolve)

	mod.Get("/audit", can(middleware.CapAuditRead), auditHandler.ListEntries)
	mod.Post("/audit/prune", can(middleware.CapAuditPrune), auditHandler.Prune)
}
