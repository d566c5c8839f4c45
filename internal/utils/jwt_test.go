package utils

import (
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/historias-clinicas/api/internal/model"
)

const (
    secretAcceso  = "secreto-acceso-test"
    secretRefresh = "secreto-refresh-test"
)

func usuarioDePrueba() model.Usuario {
    return model.Usuario{
        ID:             42,
        Email:          "doctora@clinica.test",
        NombreCompleto: "Ana García",
        Rol:            "doctor",
    }
}

func TestAccessTokenIdaYVuelta(t *testing.T) {
    raw, err := NuevoAccessToken(secretAcceso, usuarioDePrueba(), 60)
    require.NoError(t, err)

    claims, err := VerificarAccessToken(secretAcceso, raw)
    require.NoError(t, err)
    assert.Equal(t, uint64(42), claims.ID)
    assert.Equal(t, "doctora@clinica.test", claims.Email)
    assert.Equal(t, "Ana García", claims.Nombre)
    assert.Equal(t, "doctor", claims.Rol)
}

func TestAccessTokenExpirado(t *testing.T) {
    raw, err := NuevoAccessToken(secretAcceso, usuarioDePrueba(), -1)
    require.NoError(t, err)

    _, err = VerificarAccessToken(secretAcceso, raw)
    assert.ErrorIs(t, err, ErrTokenExpirado)
}

func TestAccessTokenSecretoIncorrecto(t *testing.T) {
    raw, err := NuevoAccessToken(secretAcceso, usuarioDePrueba(), 60)
    require.NoError(t, err)

    _, err = VerificarAccessToken("otro-secreto", raw)
    assert.ErrorIs(t, err, ErrTokenInvalido)
}

func TestAccessTokenBasura(t *testing.T) {
    _, err := VerificarAccessToken(secretAcceso, "no.es.un.jwt")
    assert.ErrorIs(t, err, ErrTokenInvalido)
}

func TestRefreshTokenIdaYVuelta(t *testing.T) {
    raw, err := NuevoRefreshToken(secretRefresh, 7, 7)
    require.NoError(t, err)

    id, err := VerificarRefreshToken(secretRefresh, raw)
    require.NoError(t, err)
    assert.Equal(t, uint64(7), id)
}

func TestRefreshRechazaAccessToken(t *testing.T) {
    // An access token signed with the refresh secret still lacks the tipo
    // discriminator and must not pass the refresh flow.
    raw, err := NuevoAccessToken(secretRefresh, usuarioDePrueba(), 60)
    require.NoError(t, err)

    _, err = VerificarRefreshToken(secretRefresh, raw)
    assert.ErrorIs(t, err, ErrTokenInvalido)
}

func TestRefreshTokenExpirado(t *testing.T) {
    raw, err := NuevoRefreshToken(secretRefresh, 7, -1)
    require.NoError(t, err)

    _, err = VerificarRefreshToken(secretRefresh, raw)
    assert.ErrorIs(t, err, ErrTokenExpirado)
}
