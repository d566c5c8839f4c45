package middleware

import (
    "net/http"
    "net/http/httptest"
    "testing"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/historias-clinicas/api/internal/model"
    "github.com/historias-clinicas/api/internal/utils"
)

const secretPrueba = "secreto-middleware-test"

func siguiente(c echo.Context) error {
    claims := c.Get(ClaveUsuario).(utils.AccessClaims)
    return c.JSON(http.StatusOK, echo.Map{"id": claims.ID, "rol": c.Get(ClaveRol)})
}

func ejecutar(t *testing.T, mw echo.MiddlewareFunc, authHeader string) *httptest.ResponseRecorder {
    t.Helper()
    e := echo.New()
    req := httptest.NewRequest(http.MethodGet, "/api/pacientes", nil)
    if authHeader != "" {
        req.Header.Set(echo.HeaderAuthorization, authHeader)
    }
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    require.NoError(t, mw(siguiente)(c))
    return rec
}

func TestJWTAuthSinHeader(t *testing.T) {
    rec := ejecutar(t, JWTAuth(secretPrueba), "")
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
    assert.Contains(t, rec.Body.String(), "No autenticado")
}

func TestJWTAuthTokenInvalido(t *testing.T) {
    rec := ejecutar(t, JWTAuth(secretPrueba), "Bearer basura")
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
    assert.Contains(t, rec.Body.String(), "Token inválido")
}

func TestJWTAuthTokenExpirado(t *testing.T) {
    raw, err := utils.NuevoAccessToken(secretPrueba, model.Usuario{ID: 1, Email: "a@b.c", Rol: "doctor"}, -1)
    require.NoError(t, err)

    rec := ejecutar(t, JWTAuth(secretPrueba), "Bearer "+raw)
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
    assert.Contains(t, rec.Body.String(), "TOKEN_EXPIRADO")
}

func TestJWTAuthTokenValido(t *testing.T) {
    u := model.Usuario{ID: 9, Email: "dra@clinica.test", NombreCompleto: "Dra", Rol: "admin"}
    raw, err := utils.NuevoAccessToken(secretPrueba, u, 5)
    require.NoError(t, err)

    rec := ejecutar(t, JWTAuth(secretPrueba), "Bearer "+raw)
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Contains(t, rec.Body.String(), `"id":9`)
    assert.Contains(t, rec.Body.String(), `"rol":"admin"`)
}
