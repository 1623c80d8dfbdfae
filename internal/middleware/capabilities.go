package middleware

import (
	"strings"

	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/dto"
	"github.com/gofiber/fiber/v2"
)

// Capabilities checked before a moderation operation runs.
const (
	CapReportsCreate = "reports:create"
	CapReportsTriage = "reports:triage"
	CapReviewsStart  = "reviews:start"
	CapReviewsVote   = "reviews:vote"
	CapReviewsClose  = "reviews:close"
	CapReviewsExtend = "reviews:extend"
	CapAuditRead     = "audit:read"
	CapAuditPrune    = "audit:prune"
)

var moderatorCaps = []string{
	CapReportsCreate, CapReportsTriage,
	CapReviewsStart, CapReviewsVote, CapReviewsClose, CapReviewsExtend,
	CapAuditRead,
}

var roleCaps = map[string][]string{
	"user":      {CapReportsCreate},
	"moderator": moderatorCaps,
	"admin":     append(append([]string{}, moderatorCaps...), CapAuditPrune),
}

// RequireCapability lets the request through only when the caller holds every
// listed capability. Capabilities come from the token's caps claim, its role
// claim, and the moderator/admin id lists in config.
func RequireCapability(cfg *config.Config, required ...string) fiber.Handler {
	moderators := parseCSV(cfg.ModeratorUserIDs)
	admins := parseCSV(cfg.AdminUserIDs)

	return func(c *fiber.Ctx) error {
		claims, err := claimsFrom(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Code: "unauthorized", Message: "Unauthorized",
			})
		}

		granted := make(map[string]bool)
		grant := func(caps []string) {
			for _, cp := range caps {
				granted[cp] = true
			}
		}

		if raw, ok := claims["caps"].([]any); ok {
			for _, v := range raw {
				if s, ok := v.(string); ok {
					granted[s] = true
				}
			}
		}
		if role, ok := claims["role"].(string); ok {
			grant(roleCaps[role])
		}
		sub, _ := claims["sub"].(string)
		if sub != "" {
			if contains(admins, sub) {
				grant(roleCaps["admin"])
			} else if contains(moderators, sub) {
				grant(roleCaps["moderator"])
			}
		}

		for _, cp := range required {
			if !granted[cp] {
				return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
					Error: true, Code: "forbidden", Message: "Missing capability: " + cp,
				})
			}
		}
		return c.Next()
	}
}

func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func contains(list []string, val string) bool {
	for _, item := range list {
		if item == val {
			return true
		}
	}
	return false
}
