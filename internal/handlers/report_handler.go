package handlers

import (
	"context"

	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/store"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ReportHandler struct {
	reports    *services.ReportService
	escalation *services.EscalationService
}

func NewReportHandler(reports *services.ReportService, escalation *services.EscalationService) *ReportHandler {
	return &ReportHandler{reports: reports, escalation: escalation}
}

func (h *ReportHandler) CreateReport(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.CreateReportRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.ImageID == uuid.Nil {
		return badRequest(c, "image_id is required")
	}

	report, err := h.reports.FileReport(c.UserContext(), req.ImageID, userID, req.Category, req.Reason)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(report)
}

func (h *ReportHandler) ListReports(c *fiber.Ctx) error {
	var filter store.ReportFilter
	if raw := c.Query("status"); raw != "" {
		status, err := models.ParseReportStatus(raw)
		if err != nil {
			return badRequest(c, err.Error())
		}
		filter.Status = status
	}
	if raw := c.Query("image_id"); raw != "" {
		imageID, err := uuid.Parse(raw)
		if err != nil {
			return badRequest(c, "Invalid image_id")
		}
		filter.ImageID = imageID
	}
	filter.Limit, filter.Offset = pageParams(c)

	reports, total, err := h.reports.ListReports(c.UserContext(), filter)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{
		"reports": reports,
		"total":   total,
		"limit":   filter.Limit,
		"offset":  filter.Offset,
	})
}

func (h *ReportHandler) GetReport(c *fiber.Ctx) error {
	reportID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid report ID")
	}

	report, err := h.reports.GetReport(c.UserContext(), reportID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(report)
}

func (h *ReportHandler) DismissReport(c *fiber.Ctx) error {
	return h.triage(c, h.reports.DismissReport)
}

func (h *ReportHandler) ActOnReport(c *fiber.Ctx) error {
	return h.triage(c, h.reports.ActOnReport)
}

func (h *ReportHandler) UpdateNotes(c *fiber.Ctx) error {
	moderatorID, err := middleware.UserID(c)
	if err != nil {
		return unauthorized(c)
	}
	reportID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid report ID")
	}

	var req dto.UpdateNotesRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	report, err := h.reports.UpdateNotes(c.UserContext(), reportID, moderatorID, req.Notes)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(report)
}

// EscalateReport opens a review from a pending report.
func (h *ReportHandler) EscalateReport(c *fiber.Ctx) error {
	initiatorID, err := middleware.UserID(c)
	if err != nil {
		return unauthorized(c)
	}
	reportID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid report ID")
	}

	var req dto.EscalateReportRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request body")
		}
	}

	review, err := h.escalation.EscalateReport(c.UserContext(), reportID, initiatorID, req.DeadlineDays)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(review)
}

func (h *ReportHandler) triage(c *fiber.Ctx, apply func(ctx context.Context, reportID, moderatorID uuid.UUID, notes *string) (*models.Report, error)) error {
	moderatorID, err := middleware.UserID(c)
	if err != nil {
		return unauthorized(c)
	}
	reportID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid report ID")
	}

	var req dto.TriageReportRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request body")
		}
	}

	report, err := apply(c.UserContext(), reportID, moderatorID, req.Notes)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(report)
}
