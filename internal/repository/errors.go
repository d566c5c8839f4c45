// Package repository implements data access over the PostgreSQL pool. This
// file defines sentinel error values shared by the repositories so handlers
// can translate storage outcomes into contractual HTTP statuses without
// inspecting driver errors.
package repository

import "errors"

// ErrNoEncontrado is returned when a lookup matches no active row. Handlers
// translate it into an HTTP 404 response.
var ErrNoEncontrado = errors.New("registro no encontrado")

// ErrEmailEnUso is returned when creating or updating a user would collide
// with another active user's email (unique violation 23505). Handlers
// translate it into an HTTP 409 response.
var ErrEmailEnUso = errors.New("email ya registrado")

// ErrDNIEnUso is returned when creating or updating a patient would collide
// with another patient's DNI for the same user. Handlers translate it into
// an HTTP 409 response.
var ErrDNIEnUso = errors.New("dni ya registrado")

// ErrSinCambios is returned by partial updates when no field was supplied.
// Handlers translate it into an HTTP 400 response.
var ErrSinCambios = errors.New("nada para actualizar")

// ErrCodigoNoSolicitado is returned when a password reset references an
// email that never requested a recovery code (or whose code was consumed).
var ErrCodigoNoSolicitado = errors.New("no hay código solicitado")

// ErrCodigoExpirado is returned when the stored recovery code passed its
// 15 minute window.
var ErrCodigoExpirado = errors.New("código expirado")

// ErrCodigoIncorrecto is returned when the submitted recovery code does not
// match the stored digest.
var ErrCodigoIncorrecto = errors.New("código incorrecto")
