package router

import (
    "github.com/labstack/echo/v4"

    "github.com/historias-clinicas/api/internal/handler"
    "github.com/historias-clinicas/api/internal/middleware"
)

// RegisterAuth mounts the /api/auth group. The whole group runs behind the
// rate limiter; the session-management half additionally requires a valid
// access token, and registration is reserved to administrators.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
    g := e.Group("/api/auth")
    if limiter != nil {
        g.Use(limiter)
    }

    // Public: no session required.
    g.POST("/login", a.Login)
    g.POST("/logout", a.Logout)
    g.GET("/verificar", a.VerificarSesion)
    g.POST("/refresh", a.Refresh)
    g.POST("/pregunta-secreta/obtener", a.ObtenerPreguntaSecreta)
    g.POST("/recuperar", a.RecuperarConPreguntaSecreta)
    g.POST("/recuperar-codigo", a.SolicitarCodigo)
    g.POST("/restablecer", a.RestablecerConCodigo)

    // Session required.
    auth := g.Group("", middleware.JWTAuth(jwtSecret))
    auth.GET("/perfil", a.ObtenerPerfil)
    auth.PUT("/perfil", a.ActualizarPerfil)
    auth.PUT("/password", a.CambiarPassword)
    auth.POST("/pregunta-secreta/configurar", a.ConfigurarPreguntaSecreta)

    // Only administrators create accounts; there is no open signup.
    auth.POST("/registro", a.Registro, middleware.RequireRol("admin"))
}
