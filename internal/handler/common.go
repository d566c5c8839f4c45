package handler // handler implements the HTTP endpoints of the API

import (
    "context"
    "log"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/historias-clinicas/api/internal/middleware"
    "github.com/historias-clinicas/api/internal/model"
    "github.com/historias-clinicas/api/internal/utils"
)

// dbTimeout bounds every database round trip started from a handler.
const dbTimeout = 5 * time.Second

// UsuarioStore is the credential-store surface the auth handler needs. The
// repository package implements it over PostgreSQL; tests implement it in
// memory.
type UsuarioStore interface {
    BuscarPorEmail(ctx context.Context, email string) (model.Usuario, error)
    BuscarPorID(ctx context.Context, id uint64) (model.Usuario, error)
    BuscarConHashPorID(ctx context.Context, id uint64) (model.Usuario, error)
    BuscarConRespuestaHashPorEmail(ctx context.Context, email string) (model.Usuario, error)
    Crear(ctx context.Context, email, nombreCompleto, passwordHash, rol string) (model.Usuario, error)
    ExisteEmailParaOtro(ctx context.Context, email string, id uint64) (bool, error)
    ActualizarPerfil(ctx context.Context, id uint64, email, nombreCompleto string) (model.Usuario, error)
    ActualizarPassword(ctx context.Context, id uint64, nuevoHash string) error
    ConfigurarPreguntaSecreta(ctx context.Context, id uint64, pregunta, respuestaHash string) error
    ObtenerPreguntaSecreta(ctx context.Context, email string) (*string, error)
}

// CodigoStore persists one-time recovery codes (digest at rest).
type CodigoStore interface {
    Guardar(ctx context.Context, email, codigoHash string, expiraEn time.Time) error
    Validar(ctx context.Context, email, codigoHash string) error
    Eliminar(ctx context.Context, email string) error
}

// usuarioActual returns the identity that JWTAuth stored in the context.
func usuarioActual(c echo.Context) (utils.AccessClaims, bool) {
    claims, ok := c.Get(middleware.ClaveUsuario).(utils.AccessClaims)
    return claims, ok && claims.ID != 0
}

// noAutenticado is the shared 401 for handlers reached without identity.
func noAutenticado(c echo.Context) error {
    return c.JSON(http.StatusUnauthorized, echo.Map{"error": "No autenticado. Debes iniciar sesión."})
}

// errorInterno logs the real failure server-side and answers a generic
// message. Driver/storage error text never reaches the client.
func errorInterno(c echo.Context, mensaje string, err error) error {
    log.Printf("%s %s: %v", c.Request().Method, c.Request().URL.Path, err)
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": mensaje})
}

// reqCtx derives the bounded context used for repository calls.
func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
    return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// idParam parses a positive numeric path parameter.
func idParam(c echo.Context, nombre string) (uint64, bool) {
    id, err := strconv.ParseUint(c.Param(nombre), 10, 64)
    return id, err == nil && id > 0
}

// fechaISO is the wire format for date columns.
const fechaISO = "2006-01-02"

// parseFecha converts an optional "YYYY-MM-DD" string into a date.
func parseFecha(s *string) (*time.Time, error) {
    if s == nil || strings.TrimSpace(*s) == "" {
        return nil, nil
    }
    t, err := time.Parse(fechaISO, strings.TrimSpace(*s))
    if err != nil {
        return nil, err
    }
    return &t, nil
}

// fmtFecha renders an optional date in wire format.
func fmtFecha(t *time.Time) *string {
    if t == nil {
        return nil
    }
    s := t.Format(fechaISO)
    return &s
}
