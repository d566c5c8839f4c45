package utils

import (
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "golang.org/x/crypto/bcrypt"
)

func TestHashYVerificarPassword(t *testing.T) {
    hash, err := HashPassword("secreta123", bcrypt.MinCost)
    require.NoError(t, err)
    assert.NotEqual(t, "secreta123", hash)

    assert.True(t, VerifyPassword(hash, "secreta123"))
    assert.False(t, VerifyPassword(hash, "otra"))
    assert.False(t, VerifyPassword("", "secreta123"))
}

func TestHashesDistintosPorSalt(t *testing.T) {
    a, err := HashPassword("secreta123", bcrypt.MinCost)
    require.NoError(t, err)
    b, err := HashPassword("secreta123", bcrypt.MinCost)
    require.NoError(t, err)
    assert.NotEqual(t, a, b)
}

func TestNormalizarRespuesta(t *testing.T) {
    // "Paris " and "paris" must verify against the same hash.
    hash, err := HashPassword(NormalizarRespuesta("Paris "), bcrypt.MinCost)
    require.NoError(t, err)
    assert.True(t, VerifyPassword(hash, NormalizarRespuesta("paris")))
    assert.True(t, VerifyPassword(hash, NormalizarRespuesta("  PARIS")))
    assert.False(t, VerifyPassword(hash, NormalizarRespuesta("londres")))
}

func TestHashCodigo(t *testing.T) {
    d := HashCodigo("123456")
    assert.Len(t, d, 64)
    assert.Equal(t, d, HashCodigo("123456"))
    assert.NotEqual(t, d, HashCodigo("123457"))
}
