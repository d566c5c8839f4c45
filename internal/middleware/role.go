package middleware // middleware provides shared request processing for handlers

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

// RequireRol returns a middleware that enforces that the authenticated user
// holds one of the given roles. It assumes JWTAuth already stored the role
// in the context; a missing or disallowed role aborts the request with 403.
// Registration is gated with RequireRol("admin") composed in front of the
// handler rather than a check inside it.
func RequireRol(roles ...string) echo.MiddlewareFunc {
    allowed := make(map[string]bool, len(roles))
    for _, r := range roles {
        allowed[r] = true
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            rol, ok := c.Get(ClaveRol).(string)
            if !ok || !allowed[rol] {
                return c.JSON(http.StatusForbidden, echo.Map{"error": "Acceso denegado. Permisos insuficientes."})
            }
            return next(c)
        }
    }
}
