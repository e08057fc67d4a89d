package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireScope returns a middleware that lets a request through only when
// the caller's scope list contains every scope in required and none in
// denied.  It must run after JWTAuth.  Failures answer 403.
func RequireScope(required []string, denied ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			scope, _ := c.Get(ctxScope).([]string)
			have := make(map[string]bool, len(scope))
			for _, s := range scope {
				have[s] = true
			}
			for _, s := range denied {
				if have[s] {
					return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient scope"})
				}
			}
			for _, s := range required {
				if !have[s] {
					return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient scope"})
				}
			}
			return next(c)
		}
	}
}
