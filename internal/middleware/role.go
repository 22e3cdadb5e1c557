package middleware // middleware provides shared request processing for handlers

import (
    "net/http" // http package defines standard HTTP status codes
    "github.com/labstack/echo/v4" // echo provides middleware chaining and context
)

// RequireRole returns a middleware function that enforces that the
// caller's token carries one of the given roles.  In this service the
// only role ever issued is "admin", but the allowed set is kept open
// so door-staff tokens can be added without touching the routes.  It
// assumes JWTAuth already extracted the role into the context under
// the key "role"; a missing or unexpected role aborts the request
// with 403 Forbidden.
func RequireRole(roles ...string) echo.MiddlewareFunc {
    allowed := make(map[string]bool, len(roles))
    for _, r := range roles {
        allowed[r] = true
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            // The role should have been stored by JWTAuth as a
            // string.  If not present or of the wrong type, treat it
            // as missing.
            v := c.Get("role")
            role, ok := v.(string)
            if !ok || !allowed[role] {
                return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
            }
            return next(c)
        }
    }
}
