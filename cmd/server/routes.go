package main

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// registerRoutes registers all HTTP routes
func registerRoutes(app *fiber.App, deps *Dependencies) {
	app.Get("/", deps.Health.Root)
	app.Get("/health", deps.Health.Health)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	app.Get("/solve", deps.Solve.Solve)
	app.Get(deps.PlotsPath+"/:name", deps.Artifacts.Get)
}
