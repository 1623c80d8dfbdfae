package handlers

import (
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/store"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ReviewHandler struct {
	escalation *services.EscalationService
	voting     *services.VotingService
	resolver   *services.Resolver
}

func NewReviewHandler(escalation *services.EscalationService, voting *services.VotingService, resolver *services.Resolver) *ReviewHandler {
	return &ReviewHandler{escalation: escalation, voting: voting, resolver: resolver}
}

// StartReview opens a review of an image without a report.
func (h *ReviewHandler) StartReview(c *fiber.Ctx) error {
	initiatorID, err := middleware.UserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.StartReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.ImageID == uuid.Nil {
		return badRequest(c, "image_id is required")
	}

	review, err := h.escalation.StartReview(c.UserContext(), req.ImageID, initiatorID, req.DeadlineDays)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(review)
}

func (h *ReviewHandler) ListReviews(c *fiber.Ctx) error {
	var filter store.ReviewFilter
	if raw := c.Query("status"); raw != "" {
		status, err := models.ParseReviewStatus(raw)
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

	reviews, total, err := h.voting.ListReviews(c.UserContext(), filter)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{
		"reviews": reviews,
		"total":   total,
		"limit":   filter.Limit,
		"offset":  filter.Offset,
	})
}

func (h *ReviewHandler) GetReview(c *fiber.Ctx) error {
	reviewID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid review ID")
	}

	detail, err := h.voting.GetReview(c.UserContext(), reviewID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(detail)
}

func (h *ReviewHandler) CastVote(c *fiber.Ctx) error {
	voterID, err := middleware.UserID(c)
	if err != nil {
		return unauthorized(c)
	}
	reviewID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid review ID")
	}

	var req dto.CastVoteRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	vote, err := h.voting.CastVote(c.UserContext(), reviewID, voterID, req.Value, req.Comment)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(vote)
}

func (h *ReviewHandler) CloseReview(c *fiber.Ctx) error {
	closerID, err := middleware.UserID(c)
	if err != nil {
		return unauthorized(c)
	}
	reviewID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid review ID")
	}

	var req dto.CloseReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	review, err := h.voting.CloseEarly(c.UserContext(), reviewID, closerID, req.Outcome)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(review)
}

func (h *ReviewHandler) ExtendReview(c *fiber.Ctx) error {
	extenderID, err := middleware.UserID(c)
	if err != nil {
		return unauthorized(c)
	}
	reviewID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid review ID")
	}

	var req dto.ExtendReviewRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request body")
		}
	}

	review, err := h.voting.ExtendDeadline(c.UserContext(), reviewID, extenderID, req.ExtensionDays)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(review)
}

// Resolve runs the deadline resolver once, on demand.
func (h *ReviewHandler) Resolve(c *fiber.Ctx) error {
	summary, err := h.resolver.ResolveExpiredReviews(c.UserContext())
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(summary)
}
