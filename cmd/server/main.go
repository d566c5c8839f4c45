package main

import (
    "log"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"

    "github.com/historias-clinicas/api/internal/config"
    "github.com/historias-clinicas/api/internal/database"
    "github.com/historias-clinicas/api/internal/handler"
    "github.com/historias-clinicas/api/internal/middleware"
    "github.com/historias-clinicas/api/internal/queue"
    "github.com/historias-clinicas/api/internal/repository"
    "github.com/historias-clinicas/api/internal/router"
    "github.com/historias-clinicas/api/internal/service"
)

func main() {
    // .env is optional; a containerized deploy passes real env vars.
    _ = godotenv.Load()

    cfg := config.Load()

    pool, err := database.Open(cfg)
    if err != nil {
        log.Fatalf("base de datos: %v", err)
    }
    defer pool.Close()

    usuarios := repository.NewUsuarioRepo(pool)
    codigos := repository.NewCodigoRepo(pool)
    pacientes := repository.NewPacienteRepo(pool)
    consultas := repository.NewConsultaRepo(pool)
    turnos := repository.NewTurnoRepo(pool)

    authH := handler.NewAuthHandler(cfg, usuarios, codigos, service.NewPublicadorCodigos())
    pacienteH := handler.NewPacienteHandler(pacientes)
    consultaH := handler.NewConsultaHandler(consultas)
    turnoH := handler.NewTurnoHandler(turnos, pacientes)

    // Consumer of the recovery-code queue; runs for the life of the process.
    go func() {
        if err := queue.StartNotificacionesConsumer(); err != nil {
            log.Printf("consumidor de notificaciones terminó: %v", err)
        }
    }()

    e := echo.New()
    e.HideBanner = true
    e.Use(echomw.Recover())
    e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
        AllowOrigins:     corsOrigins(cfg),
        AllowMethods:     []string{echo.GET, echo.POST, echo.PUT, echo.PATCH, echo.DELETE, echo.OPTIONS},
        AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization},
        AllowCredentials: true,
    }))

    limiter := middleware.RateLimit(config.LoadRateLimitConfig(), config.NewRedisClient())

    router.RegisterRoutes(e, pool)
    router.RegisterAuth(e, authH, cfg.JWTSecret, limiter)
    router.RegisterClinica(e, pacienteH, consultaH, turnoH, cfg.JWTSecret)

    addr := ":" + cfg.Port
    log.Printf("escuchando en %s (env=%s)", addr, cfg.Env)
    if err := e.Start(addr); err != nil {
        log.Fatal(err)
    }
}

// corsOrigins resolves the allow-list; local frontends by default.
func corsOrigins(cfg config.Config) []string {
    if len(cfg.CORSOrigins) > 0 {
        return cfg.CORSOrigins
    }
    return []string{"http://localhost:5173", "http://localhost:3000"}
}
