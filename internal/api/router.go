package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/websocket/v2"

	"github.com/industrial-rag/backend/internal/api/handlers"
	"github.com/industrial-rag/backend/internal/metrics"
	"github.com/industrial-rag/backend/internal/middleware/ratelimit"
	"github.com/industrial-rag/backend/internal/middleware/security"
	"github.com/industrial-rag/backend/internal/middleware/validation"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Chat     *handlers.ChatHandler
	Session  *handlers.SessionHandler
	Document *handlers.DocumentHandler
	Feedback *handlers.FeedbackHandler
	Health   *handlers.HealthHandler
	WS       *handlers.WebSocketHandler
	Limiter  *ratelimit.Limiter
}

func SetupRoutes(app *fiber.App, h Handlers) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New())
	app.Use(security.Headers())

	app.Get("/health", h.Health.Health)
	app.Get("/ready", h.Health.Ready)
	app.Get("/metrics", metrics.Handler())

	v1 := app.Group("/api/v1")
	if h.Limiter != nil {
		v1.Use(ratelimit.Middleware(h.Limiter))
	}
	v1.Use(validation.RequireJSON())

	v1.Post("/chat", h.Chat.Handle)

	v1.Get("/sessions/:id/history", h.Session.History)
	v1.Delete("/sessions/:id", h.Session.Delete)
	v1.Post("/sessions/:id/reset-searches", h.Session.ResetSearches)

	v1.Post("/documents", h.Document.Ingest)
	v1.Post("/feedback", h.Feedback.Submit)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/chat", websocket.New(h.WS.Handle))
}
