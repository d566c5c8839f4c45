package model

import "time"

// Consulta represents a row of the `consultas` table: one medical
// consultation of a patient. Ownership follows the patient record.
type Consulta struct {
    ID             uint64     // consultas.id_consulta
    IDPaciente     uint64     // consultas.id_paciente
    IDUsuario      uint64     // consultas.id_usuario (owner)
    Fecha          *time.Time // consultas.fecha (date, defaults to today)
    Hora           *string    // consultas.hora (HH:MM, nullable)
    MotivoConsulta string     // consultas.motivo_consulta
    InformeMedico  *string    // consultas.informe_medico
    Diagnostico    *string    // consultas.diagnostico
    Tratamiento    *string    // consultas.tratamiento
    Estudios       *string    // consultas.estudios
    ArchivoAdjunto *string    // consultas.archivo_adjunto
    FechaCreacion  time.Time  // consultas.fecha_creacion

    // PacienteNombre/PacienteApellido are joined from pacientes for listing
    // views; they are not columns of consultas.
    PacienteNombre   string
    PacienteApellido string
}
