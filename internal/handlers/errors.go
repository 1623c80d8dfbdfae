package handlers

import (
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

var kindStatus = map[string]int{
	"not_found":        fiber.StatusNotFound,
	"invalid_state":    fiber.StatusConflict,
	"conflict":         fiber.StatusConflict,
	"validation_error": fiber.StatusBadRequest,
}

// serviceError writes the response for an error returned by a service.
// Unclassified errors become a 500 without details.
func serviceError(c *fiber.Ctx, err error) error {
	kind := services.Kind(err)
	status, ok := kindStatus[kind]
	if !ok {
		slog.Error("request failed",
			"event", "request_failed",
			"method", c.Method(),
			"path", c.Path(),
			"requestid", c.GetRespHeader(fiber.HeaderXRequestID),
			"error", err.Error(),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Code: "internal", Message: "Internal server error",
		})
	}
	return c.Status(status).JSON(dto.ErrorResponse{
		Error: true, Code: kind, Message: err.Error(),
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error: true, Code: "validation_error", Message: message,
	})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error: true, Code: "unauthorized", Message: "Unauthorized",
	})
}

func pageParams(c *fiber.Ctx) (limit, offset int) {
	return c.QueryInt("limit", 20), c.QueryInt("offset", 0)
}
