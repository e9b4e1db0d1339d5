package handler

import (
	"github.com/gofiber/fiber/v2"

	"trustnet/internal/service"
)

// Verify submits content for verification. Queued verifications answer 202.
//
// @Summary Verify content
// @Tags verification
// @Accept json
// @Produce json
// @Param request body service.VerifyRequest true "Content to verify"
// @Success 200 {object} service.VerificationResult
// @Success 202 {object} service.VerificationResult
// @Failure 400 {object} errorPayload
// @Router /v1/verify [post]
func Verify(svc service.VerificationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req service.VerifyRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		res, err := svc.Verify(c.UserContext(), req)
		if err != nil {
			return writeServiceError(c, err)
		}
		status := fiber.StatusOK
		if res.Status == service.VerificationAnalyzing {
			status = fiber.StatusAccepted
		}
		return c.Status(status).JSON(res)
	}
}

// VerifyResult returns the current state of a verification.
//
// @Summary Get verification result
// @Tags verification
// @Produce json
// @Param id path string true "Verification ID"
// @Success 200 {object} service.VerificationResult
// @Failure 404 {object} errorPayload
// @Router /v1/verify/{id} [get]
func VerifyResult(svc service.VerificationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := svc.Result(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// @Summary Get a link to the archived verification report
// @Tags verification
// @Produce json
// @Param id path string true "Verification ID"
// @Success 200 {object} service.ReportLink
// @Failure 404 {object} errorPayload
// @Failure 503 {object} errorPayload
// @Router /v1/verify/{id}/report [get]
func VerifyReport(svc service.VerificationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		link, err := svc.ReportURL(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(link)
	}
}

// @Summary Get the archived verification report
// @Tags verification
// @Produce json
// @Param id path string true "Verification ID"
// @Success 200 {object} service.VerificationReport
// @Failure 404 {object} errorPayload
// @Failure 503 {object} errorPayload
// @Router /v1/verify/{id}/report/content [get]
func VerifyReportContent(svc service.VerificationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		report, err := svc.Report(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(report)
	}
}
