package middleware // middleware provides shared request processing for handlers

import (
    "errors"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/historias-clinicas/api/internal/utils"
)

// Context keys used by the auth middleware. Handlers read the decoded
// identity via ClaveUsuario; RequireRol reads the role via ClaveRol.
const (
    ClaveUsuario = "usuario"
    ClaveRol     = "rol"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and injects the decoded identity into the request context. Expired tokens
// answer 401 with codigo TOKEN_EXPIRADO so clients know a refresh attempt is
// worthwhile; any other failure answers a plain 401.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "No autenticado. Debes iniciar sesión."})
            }
            raw := strings.TrimPrefix(auth, "Bearer ")

            claims, err := utils.VerificarAccessToken(secret, raw)
            if err != nil {
                if errors.Is(err, utils.ErrTokenExpirado) {
                    return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Token expirado", "codigo": "TOKEN_EXPIRADO"})
                }
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Token inválido"})
            }

            c.Set(ClaveUsuario, claims)
            c.Set(ClaveRol, claims.Rol)
            return next(c)
        }
    }
}
