package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"trustnet/internal/service"
)

// @Summary Submit feedback on a verdict
// @Tags feedback
// @Accept json
// @Produce json
// @Param request body service.FeedbackRequest true "Feedback"
// @Success 201 {object} service.FeedbackReceipt
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /v1/feedback [post]
func SubmitFeedback(svc service.FeedbackService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req service.FeedbackRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		receipt, err := svc.Submit(c.UserContext(), req)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(receipt)
	}
}

// @Summary List feedback for a verdict
// @Tags feedback
// @Produce json
// @Param id path string true "Verdict ID"
// @Success 200 {object} map[string]any
// @Router /v1/feedback/verdict/{id} [get]
func VerdictFeedback(svc service.FeedbackService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := svc.ListByVerdict(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"items": items, "total": len(items)})
	}
}

// @Summary List a user's contributions
// @Tags feedback
// @Produce json
// @Param id path string true "User ID"
// @Param limit query int false "Maximum items (1-50)" default(10)
// @Success 200 {object} map[string]any
// @Failure 400 {object} errorPayload
// @Router /v1/feedback/user/{id}/contributions [get]
func UserContributions(svc service.FeedbackService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		items, err := svc.Contributions(c.UserContext(), c.Params("id"), limit)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"items": items, "total": len(items)})
	}
}

// @Summary Get a user's reputation
// @Tags feedback
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} service.ReputationScore
// @Failure 404 {object} errorPayload
// @Router /v1/feedback/user/{id}/reputation [get]
func UserReputation(svc service.FeedbackService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rep, err := svc.Reputation(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(rep)
	}
}
