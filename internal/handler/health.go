package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/jackc/pgx/v5/pgxpool"
    "github.com/labstack/echo/v4"
)

// Health answers a plain "ok" so load balancers can probe the process
// without touching the database.
func Health(c echo.Context) error {
    return c.String(http.StatusOK, "ok")
}

// HealthDB pings the pool; a failed ping answers 503 so orchestrators stop
// routing traffic to an instance that lost its database.
func HealthDB(pool *pgxpool.Pool) echo.HandlerFunc {
    return func(c echo.Context) error {
        if pool == nil {
            return c.JSON(http.StatusServiceUnavailable, echo.Map{"estado": "sin base de datos"})
        }
        ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
        defer cancel()
        if err := pool.Ping(ctx); err != nil {
            return c.JSON(http.StatusServiceUnavailable, echo.Map{"estado": "base de datos inaccesible"})
        }
        return c.JSON(http.StatusOK, echo.Map{"estado": "ok"})
    }
}
