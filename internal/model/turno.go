package model

import "time"

// Turno represents a row of the `turnos` table: a scheduled appointment.
// A turno either references a registered patient through IDPaciente or, for
// walk-ins, carries a temporary name pair and no patient record.
type Turno struct {
    ID                  uint64    // turnos.id_turno
    IDUsuario           uint64    // turnos.id_usuario (owner)
    IDPaciente          *uint64   // turnos.id_paciente (nullable)
    PacienteNombreTmp   *string   // turnos.paciente_nombre_tmp
    PacienteApellidoTmp *string   // turnos.paciente_apellido_tmp
    Dia                 time.Time // turnos.dia (date)
    Horario             string    // turnos.horario (HH:MM)
    Cobertura           *string   // turnos.cobertura
    Situacion           string    // turnos.situacion (pendiente, atendido, ...)
    Detalle             *string   // turnos.detalle
    PrimeraVez          bool      // turnos.primera_vez
    FechaCreacion       time.Time // turnos.fecha_creacion

    // Joined from pacientes when the turno references a registered patient.
    PacienteNombre   *string
    PacienteApellido *string
}
