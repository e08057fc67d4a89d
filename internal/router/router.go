package router // package router defines how HTTP routes are registered for the API

import (
	"net/http" // http.Handler for the metrics endpoint

	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/pipeline-tokens/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/pipeline-tokens/internal/middleware" // import middleware for JWT authentication and scope enforcement
)

// RegisterRoutes registers the unauthenticated operational endpoints:
// liveness, readiness and Prometheus metrics.
func RegisterRoutes(e *echo.Echo, db handler.Pinger, metricsHandler http.Handler) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(db))
	e.GET("/metrics", echo.WrapHandler(metricsHandler))
}

// RegisterTokens registers the pipeline token routes under /v1.  Callers
// must present a user JWT whose scope includes "user" and not "guest".
// limiter runs after authentication so buckets are keyed by caller; pass
// nil to register without rate limiting.
func RegisterTokens(e *echo.Echo, h *handler.TokenHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	mw := []echo.MiddlewareFunc{
		middleware.JWTAuth(jwtSecret),
		middleware.RequireScope([]string{"user"}, "guest"),
	}
	if limiter != nil {
		mw = append(mw, limiter)
	}
	g := e.Group("/v1/pipelines", mw...)
	// Rotate a token's secret while keeping its name, description and owner.
	g.PUT("/:pipelineId/tokens/:tokenId/refresh", h.Refresh)
}
