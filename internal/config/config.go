package config // package config loads application configuration from environment variables

import (
    "log"     // log reports configuration problems at startup
    "os"      // os provides access to environment variables
    "strconv" // strconv converts strings to other types
    "strings" // strings splits list-valued variables
)

// Default signing secrets. Booting with these is tolerated so local
// development works out of the box, but a warning is logged because using
// them in production is a deployment error.
const (
    defaultJWTSecret        = "historias_clinicas_secret_default"
    defaultJWTRefreshSecret = "historias_clinicas_refresh_secret_default"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable. The types reflect how the values are used in the
// application: strings for identifiers and secrets, ints for durations and
// costs.
type Config struct {
    Env              string   // application environment (e.g. "dev", "prod")
    Port             string   // HTTP port to listen on
    DatabaseURL      string   // full postgres connection URL (takes precedence)
    DBUser           string   // database username
    DBPass           string   // database password (optional)
    DBHost           string   // database host address
    DBPort           string   // database port number
    DBName           string   // database name
    SSLMode          string   // postgres sslmode (disable, require, ...)
    JWTSecret        string   // secret used to sign access tokens
    JWTRefreshSecret string   // secret used to sign refresh tokens
    AccessTTLMin     int      // access token time-to-live in minutes
    RefreshTTLDays   int      // refresh token time-to-live in days
    BcryptCost       int      // bcrypt cost for password hashing
    CodigoTTLMin     int      // recovery code time-to-live in minutes
    CORSOrigins      []string // allowed CORS origins (empty = allow localhost only)
}

// Load reads configuration values from environment variables and returns a
// Config. Every value has a development default so the server can boot from
// a bare environment; secrets left at their defaults are logged as a warning.
func Load() Config {
    cfg := Config{
        Env:              getenv("APP_ENV", "dev"),
        Port:             getenv("PORT", "3000"),
        DatabaseURL:      os.Getenv("DATABASE_URL"),
        DBUser:           getenv("DB_USER", "postgres"),
        DBPass:           os.Getenv("DB_PASSWORD"),
        DBHost:           getenv("DB_HOST", "localhost"),
        DBPort:           getenv("DB_PORT", "5432"),
        DBName:           getenv("DB_NAME", "historias_clinicas"),
        SSLMode:          getenv("PGSSLMODE", "disable"),
        JWTSecret:        getenv("JWT_SECRET", defaultJWTSecret),
        JWTRefreshSecret: getenv("JWT_REFRESH_SECRET", defaultJWTRefreshSecret),
        AccessTTLMin:     envInt("ACCESS_TOKEN_TTL_MIN", 60),
        RefreshTTLDays:   envInt("REFRESH_TOKEN_TTL_DAYS", 7),
        BcryptCost:       envInt("BCRYPT_COST", 10),
        CodigoTTLMin:     envInt("CODIGO_TTL_MIN", 15),
        CORSOrigins:      envList("CORS_ORIGINS"),
    }
    if cfg.JWTSecret == defaultJWTSecret || cfg.JWTRefreshSecret == defaultJWTRefreshSecret {
        log.Printf("config: usando secretos JWT por defecto; definir JWT_SECRET y JWT_REFRESH_SECRET en producción")
    }
    return cfg
}

// getenv returns the value of key or def when unset/empty.
func getenv(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}

// envInt reads an integer variable, falling back to def when the variable is
// unset or not a valid number.
func envInt(key string, def int) int {
    v := os.Getenv(key)
    if v == "" {
        return def
    }
    n, err := strconv.Atoi(v)
    if err != nil {
        log.Printf("config: valor inválido para %s: %q (se usa %d)", key, v, def)
        return def
    }
    return n
}

// envList parses a comma separated variable into a slice, trimming blanks.
func envList(key string) []string {
    raw := os.Getenv(key)
    if raw == "" {
        return nil
    }
    var out []string
    for _, p := range strings.Split(raw, ",") {
        if p = strings.TrimSpace(p); p != "" {
            out = append(out, p)
        }
    }
    return out
}
