package router

import (
    "github.com/labstack/echo/v4"

    "github.com/historias-clinicas/api/internal/handler"
    "github.com/historias-clinicas/api/internal/middleware"
)

// RegisterClinica mounts the clinical CRUD groups (pacientes, consultas,
// turnos). Every route requires a session with an accepted role and logs
// the acting user.
func RegisterClinica(e *echo.Echo, p *handler.PacienteHandler, cta *handler.ConsultaHandler, t *handler.TurnoHandler, jwtSecret string) {
    api := e.Group("/api",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRol("admin", "doctor"),
        middleware.Logging(),
    )

    pacientes := api.Group("/pacientes")
    pacientes.GET("", p.Listar)
    pacientes.GET("/buscar", p.Buscar)
    pacientes.GET("/buscar/:dni", p.PorDNI)
    pacientes.GET("/:id", p.Obtener)
    pacientes.POST("", p.Crear)
    pacientes.POST("/minimo", p.CrearMinimo)
    pacientes.PUT("/:id", p.Actualizar)
    pacientes.DELETE("/:id", p.Eliminar)

    consultas := api.Group("/consultas")
    consultas.GET("", cta.Listar)
    consultas.GET("/paciente/:id_paciente", cta.PorPaciente)
    consultas.GET("/:id", cta.Obtener)
    consultas.POST("", cta.Crear)
    consultas.PUT("/:id", cta.Actualizar)
    consultas.DELETE("/:id", cta.Eliminar)

    turnos := api.Group("/turnos")
    turnos.GET("", t.Listar)
    turnos.GET("/hoy", t.Hoy)
    turnos.GET("/dia/:dia", t.PorDia)
    turnos.GET("/paciente/:id_paciente", t.PorPaciente)
    turnos.GET("/:id", t.Obtener)
    turnos.POST("", t.Crear)
    turnos.PUT("/:id", t.Actualizar)
    turnos.PATCH("/:id/situacion", t.CambiarSituacion)
    turnos.DELETE("/:id", t.Eliminar)
}
