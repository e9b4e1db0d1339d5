package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"trustnet/internal/service"
)

// Services bundles the service layer exposed over HTTP.
type Services struct {
	Verification service.VerificationService
	Quarantine   service.QuarantineService
	Feed         service.FeedService
	Analysis     service.AnalysisService
	Feedback     service.FeedbackService
}

// RegisterRoutes attaches the health checks, metrics and /v1 API to app.
func RegisterRoutes(app *fiber.App, health Pinger, metrics prometheus.Gatherer, svcs Services) {
	app.Get("/health", HealthCheck(health))
	app.Get("/healthz", Liveness())
	if metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(metrics, promhttp.HandlerOpts{})))
	}

	v1 := app.Group("/v1")

	verify := v1.Group("/verify")
	verify.Post("/", Verify(svcs.Verification))
	verify.Get("/:id", VerifyResult(svcs.Verification))
	verify.Get("/:id/report", VerifyReport(svcs.Verification))
	verify.Get("/:id/report/content", VerifyReportContent(svcs.Verification))

	// Static segments are registered before /:id.
	quarantine := v1.Group("/quarantine")
	quarantine.Get("/stats/community", QuarantineStats(svcs.Quarantine))
	quarantine.Get("/:id", QuarantineItem(svcs.Quarantine))
	quarantine.Post("/:id/verdict", SubmitQuarantineVerdict(svcs.Quarantine))
	quarantine.Get("/:id/consensus", QuarantineConsensus(svcs.Quarantine))
	quarantine.Get("/:id/similar", QuarantineSimilar(svcs.Quarantine))

	feed := v1.Group("/feed")
	feed.Get("/", Feed(svcs.Feed))
	feed.Get("/categories", FeedCategories(svcs.Feed))
	feed.Get("/trends", FeedTrends(svcs.Feed))
	feed.Get("/:id", FeedItem(svcs.Feed))
	feed.Post("/:id/engagement", FeedEngagement(svcs.Feed))

	analysis := v1.Group("/analysis")
	analysis.Post("/analyze", Analyze(svcs.Analysis))
	analysis.Get("/analyze/:id", AnalysisResult(svcs.Analysis))
	analysis.Post("/manipulation/detect", DetectManipulation(svcs.Analysis))
	analysis.Get("/trust-score/:hash", TrustScore(svcs.Analysis))
	analysis.Get("/engine/status", EngineStatus(svcs.Analysis))
	analysis.Post("/batch", StartBatch(svcs.Analysis))
	analysis.Get("/batch/:id", BatchStatus(svcs.Analysis))

	feedback := v1.Group("/feedback")
	feedback.Post("/", SubmitFeedback(svcs.Feedback))
	feedback.Get("/verdict/:id", VerdictFeedback(svcs.Feedback))
	feedback.Get("/user/:id/contributions", UserContributions(svcs.Feedback))
	feedback.Get("/user/:id/reputation", UserReputation(svcs.Feedback))
}
