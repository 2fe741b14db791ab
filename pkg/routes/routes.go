// Package routes assembles the HTTP API
package routes

import (
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/Ramsey-B/clover/pkg/middleware"
	"github.com/Ramsey-B/clover/pkg/routes/agents"
	"github.com/Ramsey-B/clover/pkg/routes/duplicates"
	"github.com/Ramsey-B/clover/pkg/routes/health"
	"github.com/Ramsey-B/clover/pkg/routes/imports"
)

// Handlers are the route groups served under /api/v1
type Handlers struct {
	Agents     *agents.Handler
	Duplicates *duplicates.Handler
	Imports    *imports.Handler
	Health     *health.Checker
}

// NewServer builds the echo server with middleware, metrics and every route group
func NewServer(serviceName string, handlers Handlers, logger ectologger.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.Error(logger)

	e.Use(otelecho.Middleware(serviceName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api/v1")
	handlers.Health.Register(api.Group("/health"))
	handlers.Agents.Register(api.Group("/agents"))
	handlers.Duplicates.Register(api.Group("/duplicates"))
	handlers.Imports.Register(api.Group("/imports"))

	return e
}
