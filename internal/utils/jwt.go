package utils // package utils provides helper functions for token creation and hashing

import (
    "errors" // errors wraps and matches sentinel values
    "time"   // time utilities for generating expirations

    "github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens

    "github.com/historias-clinicas/api/internal/model"
)

// ErrTokenExpirado indicates a structurally valid, correctly signed token
// whose exp claim has passed. Callers distinguish it from ErrTokenInvalido
// to decide whether a refresh attempt makes sense.
var ErrTokenExpirado = errors.New("token expirado")

// ErrTokenInvalido indicates a token that failed signature or format checks,
// or a refresh token whose tipo discriminator is missing or wrong.
var ErrTokenInvalido = errors.New("token inválido")

// AccessClaims is the decoded payload of an access token. It carries the
// identity the middleware attaches to each authenticated request.
type AccessClaims struct {
    ID     uint64 // user id (claim "id")
    Email  string // claim "email"
    Nombre string // claim "nombre"
    Rol    string // claim "rol"
}

// NuevoAccessToken builds and signs an HS256 JWT for a user. The payload
// carries id, email, nombre and rol plus standard exp/iat claims; the TTL is
// expressed in minutes.
func NuevoAccessToken(secret string, u model.Usuario, ttlMin int) (string, error) {
    now := time.Now().UTC()
    claims := jwt.MapClaims{
        "id":     u.ID,
        "email":  u.Email,
        "nombre": u.NombreCompleto,
        "rol":    u.Rol,
        "iat":    now.Unix(),
        "exp":    now.Add(time.Duration(ttlMin) * time.Minute).Unix(),
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    return t.SignedString([]byte(secret))
}

// NuevoRefreshToken builds and signs an HS256 JWT used only to mint new
// access tokens. It is signed with a different secret and carries nothing
// beyond the user id and the "refresh" discriminator; the TTL is expressed
// in days.
func NuevoRefreshToken(secret string, userID uint64, ttlDays int) (string, error) {
    now := time.Now().UTC()
    claims := jwt.MapClaims{
        "id":   userID,
        "tipo": "refresh",
        "iat":  now.Unix(),
        "exp":  now.Add(time.Duration(ttlDays) * 24 * time.Hour).Unix(),
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    return t.SignedString([]byte(secret))
}

// VerificarAccessToken parses and validates an access token, returning its
// decoded claims. Expired tokens yield ErrTokenExpirado; any other failure
// (bad signature, wrong algorithm, malformed payload) yields
// ErrTokenInvalido so the two cases stay distinguishable upstream.
func VerificarAccessToken(secret, raw string) (AccessClaims, error) {
    claims, err := parseHS256(secret, raw)
    if err != nil {
        return AccessClaims{}, err
    }
    ac := AccessClaims{
        ID:     claimUint64(claims, "id"),
        Email:  claimString(claims, "email"),
        Nombre: claimString(claims, "nombre"),
        Rol:    claimString(claims, "rol"),
    }
    if ac.ID == 0 {
        return AccessClaims{}, ErrTokenInvalido
    }
    return ac, nil
}

// VerificarRefreshToken parses and validates a refresh token and returns the
// subject user id. A token without the "refresh" tipo claim is rejected with
// ErrTokenInvalido even when its signature is valid, so an access token can
// never be replayed through the refresh flow.
func VerificarRefreshToken(secret, raw string) (uint64, error) {
    claims, err := parseHS256(secret, raw)
    if err != nil {
        return 0, err
    }
    if claimString(claims, "tipo") != "refresh" {
        return 0, ErrTokenInvalido
    }
    id := claimUint64(claims, "id")
    if id == 0 {
        return 0, ErrTokenInvalido
    }
    return id, nil
}

// parseHS256 parses a token enforcing the HMAC signing method and maps the
// library's failure modes onto the two sentinel errors.
func parseHS256(secret, raw string) (jwt.MapClaims, error) {
    tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, ErrTokenInvalido
        }
        return []byte(secret), nil
    })
    if err != nil {
        if errors.Is(err, jwt.ErrTokenExpired) {
            return nil, ErrTokenExpirado
        }
        return nil, ErrTokenInvalido
    }
    claims, ok := tok.Claims.(jwt.MapClaims)
    if !ok || !tok.Valid {
        return nil, ErrTokenInvalido
    }
    return claims, nil
}

// claimUint64 extracts a numeric claim. JSON numbers decode as float64;
// tokens issued by this package store ids as integers so the conversion is
// lossless.
func claimUint64(claims jwt.MapClaims, key string) uint64 {
    if f, ok := claims[key].(float64); ok && f > 0 {
        return uint64(f)
    }
    return 0
}

func claimString(claims jwt.MapClaims, key string) string {
    s, _ := claims[key].(string)
    return s
}
