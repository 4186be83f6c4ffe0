package controller

import (
	"github.com/appditto/capture-server/metrics"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/pprof"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type AppOptions struct {
	BodyLimit int
	Pprof     bool
	// Gatherer backs /metrics, nil disables the endpoint
	Gatherer prometheus.Gatherer
}

// NewApp builds the fiber app with middleware and every route mounted
func NewApp(opts AppOptions, uc *UploadController, m *metrics.Metrics) *fiber.App {
	config := fiber.Config{}
	if opts.BodyLimit > 0 {
		config.BodyLimit = opts.BodyLimit
	}
	app := fiber.New(config)

	app.Use(recover.New())
	// Cors middleware
	app.Use(cors.New())
	if opts.Pprof {
		app.Use(pprof.New())
	}
	app.Use(m.Middleware())

	// Health check
	app.Get("/", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).SendString("OK")
	})
	if opts.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	uc.SetRoutes(app)

	// 404 Handler
	app.Use(func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNotFound)
	})
	return app
}
