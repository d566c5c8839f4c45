package config

// Redis backs the rate limiter on the auth endpoints. Like the database, it
// is configured URL-first (managed providers hand out a single rediss:// URL)
// with discrete host/port variables as the local fallback. When no server is
// reachable the constructor returns nil and the limiter degrades to a no-op
// so the API keeps serving.

import (
    "context"
    "log"
    "os"
    "strconv"
    "time"

    "github.com/redis/go-redis/v9"
)

// NewRedisClient builds a client from REDIS_URL (redis:// or rediss://), or
// from REDIS_HOST, REDIS_PORT, REDIS_PASSWORD and REDIS_DB when no URL is
// set. Returns nil when the server cannot be reached.
func NewRedisClient() *redis.Client {
    opts, err := redisOptions()
    if err != nil {
        log.Printf("REDIS_URL inválida, limitador deshabilitado: %v", err)
        return nil
    }

    client := redis.NewClient(opts)
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        log.Printf("Redis no disponible en %s, limitador deshabilitado: %v", opts.Addr, err)
        return nil
    }
    return client
}

func redisOptions() (*redis.Options, error) {
    if u := os.Getenv("REDIS_URL"); u != "" {
        return redis.ParseURL(u)
    }

    host := os.Getenv("REDIS_HOST")
    if host == "" {
        host = "localhost"
    }
    port := os.Getenv("REDIS_PORT")
    if port == "" {
        port = "6379"
    }
    db := 0
    if s := os.Getenv("REDIS_DB"); s != "" {
        if n, err := strconv.Atoi(s); err == nil {
            db = n
        }
    }
    return &redis.Options{
        Addr:     host + ":" + port,
        Password: os.Getenv("REDIS_PASSWORD"),
        DB:       db,
    }, nil
}
