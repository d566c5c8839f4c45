package database

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/historias-clinicas/api/internal/config"
)

// Open connects to PostgreSQL and verifies the connection. A DATABASE_URL,
// when present, takes precedence over the discrete host/user/password
// variables so the same binary runs against managed providers and local
// installs alike.
func Open(cfg config.Config) (*pgxpool.Pool, error) {
	dsn := cfg.DatabaseURL
	if dsn == "" {
		auth := url.User(cfg.DBUser)
		if cfg.DBPass != "" {
			auth = url.UserPassword(cfg.DBUser, cfg.DBPass)
		}
		u := url.URL{
			Scheme:   "postgres",
			User:     auth,
			Host:     fmt.Sprintf("%s:%s", cfg.DBHost, cfg.DBPort),
			Path:     "/" + cfg.DBName,
			RawQuery: "sslmode=" + cfg.SSLMode,
		}
		dsn = u.String()
	}

	pc, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	// Pool settings
	pc.MaxConns = 25
	pc.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(context.Background(), pc)
	if err != nil {
		return nil, err
	}

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
