package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/wayfinder/internal/pkg/metrics"
)

// handlerTimeout bounds every API request. Sensor acquisition is the slow
// path: three 15s fix attempts plus retry delays.
const handlerTimeout = 50 * time.Second

// SetupRoutes registers all REST and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies, deviceID string) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	// Request ID
	app.Use(requestid.New())

	// Propagate request ID into slog context
	app.Use(RequestIDLogMiddleware())

	// Access logs (structured HTTP request logging)
	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(429).JSON(fiber.Map{
				"error":   "rate limit exceeded",
				"message": "too many requests, please try again later",
			})
		},
		SkipFailedRequests: false,
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	// ETag for conditional caching
	app.Use(ETagMiddleware())

	// Default Cache-Control headers
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")

	// Positioning
	v1.Get("/location", GetLocationHandler(deps))
	v1.Post("/location/acquire", timeout.NewWithContext(AcquireLocationHandler(deps), handlerTimeout))
	v1.Get("/location/describe", timeout.NewWithContext(DescribeLocationHandler(deps), handlerTimeout))

	// Geocoding
	v1.Get("/geocode", timeout.NewWithContext(GeocodeHandler(deps), handlerTimeout))

	// Navigation
	v1.Post("/navigation/route", timeout.NewWithContext(StartNavigationHandler(deps), handlerTimeout))
	v1.Delete("/navigation/route", ClearNavigationHandler(deps))
	v1.Get("/navigation", GetNavigationHandler(deps))
	v1.Post("/navigation/position", PositionUpdateHandler(deps))

	// API documentation (Swagger UI)
	SetupDocs(app)

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS, deviceID)))
}
