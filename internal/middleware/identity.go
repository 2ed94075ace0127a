package middleware

import (
	"fmt"

	"github.com/labstack/echo/v4"
)

// identityKey returns a stable identifier for rate-limit and cache
// keys: the authenticated user's id, or "guest" on public routes.
func identityKey(c echo.Context) string {
	if id, ok := UserIDFromCtx(c); ok {
		return fmt.Sprintf("u%d", id)
	}
	return "guest"
}
