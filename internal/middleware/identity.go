package middleware

// identity.go exposes the caller identity stored by JWTAuth.

import "github.com/labstack/echo/v4"

// Identity returns the authenticated username and SCM context.  ok is false
// when the request did not pass through JWTAuth.
func Identity(c echo.Context) (username, scmContext string, ok bool) {
	username, _ = c.Get(ctxUsername).(string)
	scmContext, _ = c.Get(ctxSCMContext).(string)
	return username, scmContext, username != "" && scmContext != ""
}

// SetIdentity stores a caller identity the way JWTAuth does.  Handlers behind
// other authentication schemes and tests use it.
func SetIdentity(c echo.Context, username, scmContext string, scope ...string) {
	c.Set(ctxUsername, username)
	c.Set(ctxSCMContext, scmContext)
	c.Set(ctxScope, scope)
}

// userKey identifies the caller for rate limiting; "anon" when unknown.
func userKey(c echo.Context) string {
	username, scmContext, ok := Identity(c)
	if !ok {
		return "anon"
	}
	return scmContext + "/" + username
}
