// Package router wires the HTTP routes of the API to their handlers and
// middleware chains.
package router

import (
    "github.com/jackc/pgx/v5/pgxpool"
    "github.com/labstack/echo/v4"

    "github.com/historias-clinicas/api/internal/handler"
)

// RegisterRoutes registers the unauthenticated probe endpoints. /healthz is
// a liveness probe; /healthz/db additionally checks the database.
func RegisterRoutes(e *echo.Echo, pool *pgxpool.Pool) {
    e.GET("/healthz", handler.Health)
    e.GET("/healthz/db", handler.HealthDB(pool))
}
