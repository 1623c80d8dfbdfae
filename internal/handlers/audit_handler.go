package handlers

import (
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/store"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type AuditHandler struct {
	audit *services.AuditService
}

func NewAuditHandler(audit *services.AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

func (h *AuditHandler) ListEntries(c *fiber.Ctx) error {
	var filter store.AuditFilter
	if raw := c.Query("action"); raw != "" {
		action := models.AuditAction(raw)
		if !action.Valid() {
			return badRequest(c, "Unknown action: "+raw)
		}
		filter.Action = action
	}
	for param, dst := range map[string]*uuid.UUID{
		"review_id": &filter.ReviewID,
		"report_id": &filter.ReportID,
		"image_id":  &filter.ImageID,
	} {
		raw := c.Query(param)
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return badRequest(c, "Invalid "+param)
		}
		*dst = id
	}
	filter.Limit, filter.Offset = pageParams(c)

	entries, total, err := h.audit.List(c.UserContext(), filter)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{
		"entries": entries,
		"total":   total,
		"limit":   filter.Limit,
		"offset":  filter.Offset,
	})
}

// Prune deletes audit entries older than the requested (or configured)
// retention.
func (h *AuditHandler) Prune(c *fiber.Ctx) error {
	var req dto.PruneAuditRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request body")
		}
	}

	var (
		deleted int64
		err     error
	)
	if req.RetentionYears != nil {
		deleted, err = h.audit.Prune(c.UserContext(), *req.RetentionYears)
	} else {
		deleted, err = h.audit.PruneDefault(c.UserContext())
	}
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(dto.PruneAuditResponse{Deleted: deleted})
}
