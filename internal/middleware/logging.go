package middleware

import (
	"log"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/historias-clinicas/api/internal/utils"
)

// Logging writes one line per request with timestamp, method, path and the
// authenticated user's email (or "anónimo"). Placed after JWTAuth on
// protected groups so the identity is already in context.
func Logging() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			email := "anónimo"
			if claims, ok := c.Get(ClaveUsuario).(utils.AccessClaims); ok && claims.Email != "" {
				email = claims.Email
			}
			log.Printf("[%s] %s %s - Usuario: %s",
				time.Now().UTC().Format(time.RFC3339), c.Request().Method, c.Request().URL.Path, email)
			return next(c)
		}
	}
}
