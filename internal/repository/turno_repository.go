package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/historias-clinicas/api/internal/model"
)

// TurnoRepo persists appointments in the 'turnos' table. A turno may point
// to a registered patient or carry temporary walk-in names; the left join
// keeps both shapes listable with one query.
type TurnoRepo struct{ DB *pgxpool.Pool }

func NewTurnoRepo(db *pgxpool.Pool) *TurnoRepo { return &TurnoRepo{DB: db} }

const turnoCols = `t.id_turno, t.id_usuario, t.id_paciente, t.paciente_nombre_tmp,
	t.paciente_apellido_tmp, t.dia, t.horario, t.cobertura, t.situacion, t.detalle,
	t.primera_vez, t.fecha_creacion, p.nombre, p.apellido`

const turnoFrom = " FROM turnos t LEFT JOIN pacientes p ON p.id_paciente = t.id_paciente "

func scanTurno(row pgx.Row) (model.Turno, error) {
	var t model.Turno
	err := row.Scan(&t.ID, &t.IDUsuario, &t.IDPaciente, &t.PacienteNombreTmp,
		&t.PacienteApellidoTmp, &t.Dia, &t.Horario, &t.Cobertura, &t.Situacion,
		&t.Detalle, &t.PrimeraVez, &t.FechaCreacion, &t.PacienteNombre, &t.PacienteApellido)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Turno{}, ErrNoEncontrado
	}
	return t, err
}

func collectTurnos(rows pgx.Rows) ([]model.Turno, error) {
	defer rows.Close()
	out := []model.Turno{}
	for rows.Next() {
		t, err := scanTurno(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ObtenerTodos lists the user's appointments ordered by day and time.
func (r *TurnoRepo) ObtenerTodos(ctx context.Context, idUsuario uint64) ([]model.Turno, error) {
	rows, err := r.DB.Query(ctx,
		"SELECT "+turnoCols+turnoFrom+"WHERE t.id_usuario=$1 ORDER BY t.dia, t.horario",
		idUsuario)
	if err != nil {
		return nil, err
	}
	return collectTurnos(rows)
}

// ObtenerHoy lists today's appointments.
func (r *TurnoRepo) ObtenerHoy(ctx context.Context, idUsuario uint64) ([]model.Turno, error) {
	rows, err := r.DB.Query(ctx,
		"SELECT "+turnoCols+turnoFrom+"WHERE t.id_usuario=$1 AND t.dia=CURRENT_DATE ORDER BY t.horario",
		idUsuario)
	if err != nil {
		return nil, err
	}
	return collectTurnos(rows)
}

// ObtenerPorDia lists the appointments of one calendar day.
func (r *TurnoRepo) ObtenerPorDia(ctx context.Context, dia time.Time, idUsuario uint64) ([]model.Turno, error) {
	rows, err := r.DB.Query(ctx,
		"SELECT "+turnoCols+turnoFrom+"WHERE t.id_usuario=$1 AND t.dia=$2 ORDER BY t.horario",
		idUsuario, dia)
	if err != nil {
		return nil, err
	}
	return collectTurnos(rows)
}

// ObtenerPorPaciente lists the appointments of one patient, newest first.
func (r *TurnoRepo) ObtenerPorPaciente(ctx context.Context, idPaciente, idUsuario uint64) ([]model.Turno, error) {
	rows, err := r.DB.Query(ctx,
		"SELECT "+turnoCols+turnoFrom+"WHERE t.id_usuario=$1 AND t.id_paciente=$2 ORDER BY t.dia DESC, t.horario",
		idUsuario, idPaciente)
	if err != nil {
		return nil, err
	}
	return collectTurnos(rows)
}

// BuscarPorID fetches one appointment owned by the user.
func (r *TurnoRepo) BuscarPorID(ctx context.Context, id, idUsuario uint64) (model.Turno, error) {
	return scanTurno(r.DB.QueryRow(ctx,
		"SELECT "+turnoCols+turnoFrom+"WHERE t.id_turno=$1 AND t.id_usuario=$2",
		id, idUsuario))
}

// Crear inserts an appointment and returns its id.
func (r *TurnoRepo) Crear(ctx context.Context, t model.Turno, idUsuario uint64) (uint64, error) {
	var id uint64
	err := r.DB.QueryRow(ctx,
		`INSERT INTO turnos (id_usuario, id_paciente, paciente_nombre_tmp, paciente_apellido_tmp,
			dia, horario, cobertura, situacion, detalle, primera_vez)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,COALESCE(NULLIF($8,''),'pendiente'),$9,$10)
		 RETURNING id_turno`,
		idUsuario, t.IDPaciente, t.PacienteNombreTmp, t.PacienteApellidoTmp,
		t.Dia, t.Horario, t.Cobertura, t.Situacion, t.Detalle, t.PrimeraVez).Scan(&id)
	return id, err
}

// Actualizar replaces the editable columns of an appointment.
func (r *TurnoRepo) Actualizar(ctx context.Context, id uint64, t model.Turno, idUsuario uint64) error {
	tag, err := r.DB.Exec(ctx,
		`UPDATE turnos SET id_paciente=$1, paciente_nombre_tmp=$2, paciente_apellido_tmp=$3,
			dia=$4, horario=$5, cobertura=$6, situacion=COALESCE(NULLIF($7,''), situacion),
			detalle=$8, primera_vez=$9
		 WHERE id_turno=$10 AND id_usuario=$11`,
		t.IDPaciente, t.PacienteNombreTmp, t.PacienteApellidoTmp, t.Dia, t.Horario,
		t.Cobertura, t.Situacion, t.Detalle, t.PrimeraVez, id, idUsuario)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNoEncontrado
	}
	return nil
}

// ActualizarSituacion changes only the situación of an appointment
// (pendiente, atendido, ausente, cancelado).
func (r *TurnoRepo) ActualizarSituacion(ctx context.Context, id uint64, situacion string, idUsuario uint64) error {
	tag, err := r.DB.Exec(ctx,
		"UPDATE turnos SET situacion=$1 WHERE id_turno=$2 AND id_usuario=$3",
		situacion, id, idUsuario)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNoEncontrado
	}
	return nil
}

// Eliminar removes an appointment.
func (r *TurnoRepo) Eliminar(ctx context.Context, id, idUsuario uint64) error {
	tag, err := r.DB.Exec(ctx,
		"DELETE FROM turnos WHERE id_turno=$1 AND id_usuario=$2", id, idUsuario)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNoEncontrado
	}
	return nil
}
