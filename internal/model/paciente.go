package model

import "time"

// Paciente represents a row of the `pacientes` table. Every column except
// nombre and apellido is optional; optional text columns map to pointers so
// NULL survives a round trip. Rows belong to the user that created them
// (IDUsuario) and are soft-deleted via the activo flag.
type Paciente struct {
    ID                       uint64     // pacientes.id_paciente
    IDUsuario                uint64     // pacientes.id_usuario (owner)
    Nombre                   string     // pacientes.nombre
    Apellido                 string     // pacientes.apellido
    DNI                      *string    // pacientes.dni (nullable, unique per user)
    FechaNacimiento          *time.Time // pacientes.fecha_nacimiento
    Sexo                     *string    // pacientes.sexo
    Telefono                 *string    // pacientes.telefono
    TelefonoAdicional        *string    // pacientes.telefono_adicional
    Email                    *string    // pacientes.email
    Cobertura                *string    // pacientes.cobertura
    Plan                     *string    // pacientes.plan
    NumeroAfiliado           *string    // pacientes.numero_afiliado
    Localidad                *string    // pacientes.localidad
    Direccion                *string    // pacientes.direccion
    Ocupacion                *string    // pacientes.ocupacion
    EnfermedadesPreexistentes *string   // pacientes.enfermedades_preexistentes
    Alergias                 *string    // pacientes.alergias
    Observaciones            *string    // pacientes.observaciones
    Activo                   bool       // pacientes.activo
    FechaCreacion            time.Time  // pacientes.fecha_creacion
}
