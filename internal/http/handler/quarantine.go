package handler

import (
	"github.com/gofiber/fiber/v2"

	"trustnet/internal/model"
	"trustnet/internal/service"
)

// @Summary Get a quarantined verification for review
// @Tags quarantine
// @Produce json
// @Param id path string true "Verification ID"
// @Success 200 {object} service.QuarantineItem
// @Failure 404 {object} errorPayload
// @Router /v1/quarantine/{id} [get]
func QuarantineItem(svc service.QuarantineService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		item, err := svc.Item(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(item)
	}
}

// SubmitQuarantineVerdict records a reviewer's verdict on a quarantined verification.
//
// @Summary Submit a community verdict
// @Tags quarantine
// @Accept json
// @Produce json
// @Param id path string true "Verification ID"
// @Param request body model.UserVerdict true "Reviewer verdict"
// @Success 200 {object} service.QuarantineOutcome
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /v1/quarantine/{id}/verdict [post]
func SubmitQuarantineVerdict(svc service.QuarantineService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var uv model.UserVerdict
		if err := c.BodyParser(&uv); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		out, err := svc.SubmitVerdict(c.UserContext(), c.Params("id"), uv)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(out)
	}
}

// @Summary Get community consensus for a verification
// @Tags quarantine
// @Produce json
// @Param id path string true "Verification ID"
// @Success 200 {object} service.Consensus
// @Failure 404 {object} errorPayload
// @Router /v1/quarantine/{id}/consensus [get]
func QuarantineConsensus(svc service.QuarantineService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		out, err := svc.Consensus(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(out)
	}
}

// @Summary List reviewed cases similar to a verification
// @Tags quarantine
// @Produce json
// @Param id path string true "Verification ID"
// @Success 200 {object} service.SimilarCases
// @Failure 404 {object} errorPayload
// @Router /v1/quarantine/{id}/similar [get]
func QuarantineSimilar(svc service.QuarantineService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		out, err := svc.Similar(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(out)
	}
}

// @Summary Quarantine review statistics
// @Tags quarantine
// @Produce json
// @Success 200 {object} service.QuarantineStats
// @Router /v1/quarantine/stats/community [get]
func QuarantineStats(svc service.QuarantineService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		out, err := svc.CommunityStats(c.UserContext())
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(out)
	}
}
