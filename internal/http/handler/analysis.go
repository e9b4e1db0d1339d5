package handler

import (
	"github.com/gofiber/fiber/v2"

	"trustnet/internal/service"
)

type detectRequest struct {
	Content      string `json:"content"`
	DeepAnalysis bool   `json:"deep_analysis"`
}

type batchRequest struct {
	Items []string `json:"items"`
}

// Analyze returns quick findings immediately; the deep pass continues in the background.
//
// @Summary Analyze content
// @Tags analysis
// @Accept json
// @Produce json
// @Param request body service.AnalyzeRequest true "Content to analyze"
// @Success 200 {object} service.AnalysisResponse
// @Failure 400 {object} errorPayload
// @Router /v1/analysis/analyze [post]
func Analyze(svc service.AnalysisService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req service.AnalyzeRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		res, err := svc.Analyze(c.UserContext(), req)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// @Summary Get a stored analysis
// @Tags analysis
// @Produce json
// @Param id path string true "Analysis ID"
// @Success 200 {object} model.AnalysisRecord
// @Failure 404 {object} errorPayload
// @Router /v1/analysis/analyze/{id} [get]
func AnalysisResult(svc service.AnalysisService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rec, err := svc.Result(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(rec)
	}
}

// @Summary Detect manipulation techniques
// @Tags analysis
// @Accept json
// @Produce json
// @Param request body detectRequest true "Content"
// @Success 200 {array} model.ManipulationTechnique
// @Failure 400 {object} errorPayload
// @Router /v1/analysis/manipulation/detect [post]
func DetectManipulation(svc service.AnalysisService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req detectRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		if req.Content == "" {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", "content is required")
		}
		return c.JSON(svc.DetectTechniques(req.Content, req.DeepAnalysis))
	}
}

// @Summary Get the trust score of analyzed content
// @Tags analysis
// @Produce json
// @Param hash path string true "Content hash"
// @Success 200 {object} model.TrustScore
// @Failure 404 {object} errorPayload
// @Router /v1/analysis/trust-score/{hash} [get]
func TrustScore(svc service.AnalysisService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ts, err := svc.TrustScore(c.UserContext(), c.Params("hash"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(ts)
	}
}

// @Summary Analysis engine status
// @Tags analysis
// @Produce json
// @Success 200 {object} service.EngineStatus
// @Router /v1/analysis/engine/status [get]
func EngineStatus(svc service.AnalysisService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(svc.EngineStatus(c.UserContext()))
	}
}

// @Summary Start a batch analysis
// @Tags analysis
// @Accept json
// @Produce json
// @Param request body batchRequest true "Up to 100 items"
// @Success 202 {object} service.BatchAccepted
// @Failure 400 {object} errorPayload
// @Router /v1/analysis/batch [post]
func StartBatch(svc service.AnalysisService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req batchRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		res, err := svc.StartBatch(c.UserContext(), req.Items)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusAccepted).JSON(res)
	}
}

// @Summary Get batch analysis status
// @Tags analysis
// @Produce json
// @Param id path string true "Batch ID"
// @Success 200 {object} model.AnalysisRecord
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /v1/analysis/batch/{id} [get]
func BatchStatus(svc service.AnalysisService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rec, err := svc.BatchStatus(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(rec)
	}
}
