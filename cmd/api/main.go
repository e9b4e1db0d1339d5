package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"trustnet/docs"
	"trustnet/internal/backend"
	"trustnet/internal/config"
	handlers "trustnet/internal/http/handler"
	"trustnet/internal/http/middleware"
	"trustnet/internal/logging"
	tracing "trustnet/internal/otel"
	"trustnet/internal/service"
)

// @title TrustNet API
// @version 1.0
// @description Misinformation verification, community review and media literacy feed.
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	log := logging.New(os.Stdout, cfg.Location())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, log)
	if err != nil {
		log.Error("startup_failed", err, logging.Fields{"stage": "tracing"})
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	be, err := backend.Open(ctx, cfg, log, reg)
	if err != nil {
		log.Error("startup_failed", err, logging.Fields{"stage": "backend"})
		os.Exit(1)
	}
	be.Pool.Start(context.WithoutCancel(ctx))

	deps := be.Deps(cfg.Verification, log)
	svcs := handlers.Services{
		Verification: service.NewVerificationService(deps),
		Quarantine:   service.NewQuarantineService(deps),
		Feed:         service.NewFeedService(deps),
		Analysis:     service.NewAnalysisService(deps),
		Feedback:     service.NewFeedbackService(deps),
	}

	promMiddleware, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Error("startup_failed", err, logging.Fields{"stage": "metrics"})
		os.Exit(1)
	}

	app := fiber.New(fiber.Config{
		AppName:               "trustnet",
		ErrorHandler:          handlers.ErrorHandler(),
		DisableStartupMessage: cfg.Environment == "production",
	})

	app.Use(recover.New())
	app.Use(otelfiber.Middleware(otelfiber.WithNext(func(c *fiber.Ctx) bool {
		return c.Path() == "/metrics" || c.Path() == "/healthz"
	})))
	// RequestID must run before the logger so every access line carries it.
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(log))
	app.Use(promMiddleware.Handler())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.AllowedOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, " + middleware.RequestIDHeader,
	}))
	app.Use(compress.New())

	handlers.RegisterRoutes(app, be, reg, svcs)

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	go func() {
		<-ctx.Done()
		log.Info("shutdown_started", nil)
		sctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(sctx); err != nil {
			log.Error("http_shutdown_failed", err, nil)
		}
	}()

	addr := ":" + cfg.Port
	log.Info("server_starting", logging.Fields{"addr": addr, "environment": cfg.Environment})
	if err := app.Listen(addr); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server_failed", err, logging.Fields{"addr": addr})
	}

	// Drains queued verifications before the stores close.
	if err := be.Close(); err != nil {
		log.Error("backend_close_failed", err, nil)
	}
	tctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(tctx); err != nil {
		log.Error("tracing_shutdown_failed", err, nil)
	}
	log.Info("shutdown_complete", nil)
}
