// Package main provides the Ideon API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/ideonhq/ideon/pkg/cache"
	"github.com/ideonhq/ideon/pkg/eventbus"
	"github.com/ideonhq/ideon/pkg/persistence"
	"github.com/ideonhq/ideon/pkg/registry"
	"github.com/ideonhq/ideon/pkg/services"
	"github.com/ideonhq/ideon/pkg/trace"
	"github.com/ideonhq/ideon/pkg/web"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	eventBus    eventbus.EventBus
	store       cache.Store
	recorder    trace.Recorder
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	registry *registry.Registry,
	eventBus eventbus.EventBus,
	store cache.Store,
	recorder trace.Recorder,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		registry:    registry,
		eventBus:    eventBus,
		store:       store,
		recorder:    recorder,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	runLock := cache.NewRunLock(a.store, 0)
	graphService := services.NewGraph(a.persistence, runLock, a.recorder)
	runService := services.NewRun(a.persistence, a.eventBus, a.store, runLock, a.recorder)

	handlers := web.NewAPIHandlers(graphService, runService, a.validate, a.registry)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Ideon API")
	})

	g := app.Group("/graphs")
	g.Get("/", handlers.ListGraphs)
	g.Post("/", handlers.BuildGraph)
	g.Post("/import", handlers.ImportGraph)
	g.Get("/:id", handlers.GetGraph)
	g.Delete("/:id", handlers.DeleteGraph)
	g.Get("/:id/export", handlers.ExportGraph)

	// Structure edits:
	g.Delete("/:id/nodes/:nodeId", handlers.DeleteGraphNode)
	g.Post("/:id/edges", handlers.ConnectGraphNodes)
	g.Post("/:id/reset", handlers.ResetGraph)

	// Run lifecycle:
	g.Post("/:id/run", handlers.StartRun)
	g.Get("/:id/run", handlers.GetRunStatus)
	g.Post("/:id/run/cancel", handlers.CancelRun)
	g.Get("/:id/trace", handlers.GetTrace)

	app.Get("/components", handlers.ListComponents)
	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}
