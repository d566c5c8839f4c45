package model

import "time"

// Usuario represents a row of the `usuarios` table. Password and secret
// answer are stored only as bcrypt hashes; repository methods that load the
// hashes are separate from the public lookups so handlers cannot leak them
// by accident.
//
// Fields:
//  ID                  – primary key (usuarios.id_usuario).
//  Email               – unique email among active users, stored as given.
//  NombreCompleto      – display name.
//  PasswordHash        – bcrypt hash, never exposed.
//  Rol                 – role name ("admin" or "doctor").
//  Activo              – soft-delete flag; inactive users are invisible.
//  PreguntaSecreta     – optional recovery question (nil when unset).
//  RespuestaSecretaHash– bcrypt hash of the normalized answer (nil when unset).
//  FechaRegistro       – timestamp of creation.
type Usuario struct {
    ID                   uint64     // usuarios.id_usuario
    Email                string     // usuarios.email
    NombreCompleto       string     // usuarios.nombre_completo
    PasswordHash         string     // usuarios.password_hash
    Rol                  string     // usuarios.rol
    Activo               bool       // usuarios.activo
    PreguntaSecreta      *string    // usuarios.pregunta_secreta (nullable)
    RespuestaSecretaHash *string    // usuarios.respuesta_secreta_hash (nullable)
    FechaRegistro        time.Time  // usuarios.fecha_registro
}

// CodigoRecuperacion models an entry in the `codigos_recuperacion` table.
// One row per email at most; a new request overwrites the previous one.
// The plain 6-digit code is never stored, only its SHA-256 hex digest.
type CodigoRecuperacion struct {
    Email      string    // codigos_recuperacion.email
    CodigoHash string    // codigos_recuperacion.codigo_hash
    ExpiraEn   time.Time // codigos_recuperacion.expira_en
    CreadoEn   time.Time // codigos_recuperacion.creado_en
}
