// Package api wires the report handlers and middleware into a fiber app.
package api

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/afi-report/backend/internal/api/handlers"
	"github.com/afi-report/backend/internal/metrics"
	"github.com/afi-report/backend/internal/middleware/ratelimit"
	"github.com/afi-report/backend/internal/middleware/security"
	"github.com/afi-report/backend/internal/middleware/validation"
	"github.com/afi-report/backend/pkg/config"
	"github.com/afi-report/backend/pkg/logger"
)

type Deps struct {
	Report    *handlers.ReportHandler
	WebSocket *handlers.WebSocketHandler
	Dataset   *handlers.DatasetHandler
	Health    *handlers.HealthHandler
	Limiter   *ratelimit.RateLimiter
}

// NewApp builds the HTTP surface. A nil Limiter disables rate limiting.
func NewApp(cfg *config.Config, deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		ReadTimeout:           time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:          time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:             cfg.Server.BodyLimit,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/metrics"
		},
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: allowOrigins(cfg.Security.AllowedOrigins),
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, HEAD, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{
		AllowedOrigins: cfg.Security.AllowedOrigins,
		IsDevelopment:  cfg.Security.IsDevelopment,
	}))

	app.Get("/metrics", metrics.MetricsHandler())

	api := app.Group("/api/v1")
	api.Get("/health", deps.Health.Health)
	api.Get("/ready", deps.Health.Ready)

	// probes and metrics are registered ahead of the limiter
	if deps.Limiter != nil {
		app.Use(deps.Limiter.Middleware())
	}

	validate := validation.Middleware(validation.Config{Logger: logger.Named("validation")})

	app.Get("/", deps.Report.Index)
	app.Get("/report/:page", validate, deps.Report.RenderPage)

	api.Get("/pages", deps.Report.ListPages)
	api.Get("/pages/:page", validate, deps.Report.GetPage)
	api.Get("/dataset", deps.Dataset.GetDataset)
	api.Get("/districts", validate, deps.Dataset.ListDistricts)
	api.Get("/states", deps.Dataset.ListStates)

	api.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	api.Get("/ws", websocket.New(deps.WebSocket.HandleConnection))

	return app
}

func allowOrigins(origins []string) string {
	if len(origins) == 0 {
		return "*"
	}
	return strings.Join(origins, ", ")
}
