package middleware

// identity.go defines helper functions shared across middleware and
// handlers for reading the authenticated admin out of the Echo context.

import (
	"github.com/labstack/echo/v4"
)

// AdminTgID returns the Telegram id JWTAuth stored for the current
// request, or 0 when the request is unauthenticated.
func AdminTgID(c echo.Context) int64 {
	if v, ok := c.Get("admin_tg_id").(int64); ok {
		return v
	}
	return 0
}
