package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/historias-clinicas/api/internal/model"
)

// ConsultaRepo persists consultations in the 'consultas' table. Rows are
// scoped to the owning user and joined with pacientes for listing views.
type ConsultaRepo struct{ DB *pgxpool.Pool }

func NewConsultaRepo(db *pgxpool.Pool) *ConsultaRepo { return &ConsultaRepo{DB: db} }

const consultaCols = `c.id_consulta, c.id_paciente, c.id_usuario, c.fecha, c.hora,
	c.motivo_consulta, c.informe_medico, c.diagnostico, c.tratamiento, c.estudios,
	c.archivo_adjunto, c.fecha_creacion, p.nombre, p.apellido`

const consultaFrom = " FROM consultas c JOIN pacientes p ON p.id_paciente = c.id_paciente "

func scanConsulta(row pgx.Row) (model.Consulta, error) {
	var cta model.Consulta
	err := row.Scan(&cta.ID, &cta.IDPaciente, &cta.IDUsuario, &cta.Fecha, &cta.Hora,
		&cta.MotivoConsulta, &cta.InformeMedico, &cta.Diagnostico, &cta.Tratamiento,
		&cta.Estudios, &cta.ArchivoAdjunto, &cta.FechaCreacion,
		&cta.PacienteNombre, &cta.PacienteApellido)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Consulta{}, ErrNoEncontrado
	}
	return cta, err
}

func collectConsultas(rows pgx.Rows) ([]model.Consulta, error) {
	defer rows.Close()
	out := []model.Consulta{}
	for rows.Next() {
		cta, err := scanConsulta(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cta)
	}
	return out, rows.Err()
}

// ObtenerTodas lists the user's consultations, newest first.
func (r *ConsultaRepo) ObtenerTodas(ctx context.Context, idUsuario uint64) ([]model.Consulta, error) {
	rows, err := r.DB.Query(ctx,
		"SELECT "+consultaCols+consultaFrom+"WHERE c.id_usuario=$1 ORDER BY c.fecha DESC, c.hora DESC",
		idUsuario)
	if err != nil {
		return nil, err
	}
	return collectConsultas(rows)
}

// BuscarPorFecha lists the user's consultations of one calendar day.
func (r *ConsultaRepo) BuscarPorFecha(ctx context.Context, fecha time.Time, idUsuario uint64) ([]model.Consulta, error) {
	rows, err := r.DB.Query(ctx,
		"SELECT "+consultaCols+consultaFrom+"WHERE c.id_usuario=$1 AND c.fecha=$2 ORDER BY c.hora",
		idUsuario, fecha)
	if err != nil {
		return nil, err
	}
	return collectConsultas(rows)
}

// ObtenerPorPaciente lists the consultations of one patient, newest first.
func (r *ConsultaRepo) ObtenerPorPaciente(ctx context.Context, idPaciente, idUsuario uint64) ([]model.Consulta, error) {
	rows, err := r.DB.Query(ctx,
		"SELECT "+consultaCols+consultaFrom+"WHERE c.id_usuario=$1 AND c.id_paciente=$2 ORDER BY c.fecha DESC, c.hora DESC",
		idUsuario, idPaciente)
	if err != nil {
		return nil, err
	}
	return collectConsultas(rows)
}

// BuscarPorID fetches one consultation owned by the user.
func (r *ConsultaRepo) BuscarPorID(ctx context.Context, id, idUsuario uint64) (model.Consulta, error) {
	return scanConsulta(r.DB.QueryRow(ctx,
		"SELECT "+consultaCols+consultaFrom+"WHERE c.id_consulta=$1 AND c.id_usuario=$2",
		id, idUsuario))
}

// Crear inserts a consultation and returns its id. A missing fecha defaults
// to the current date at the database.
func (r *ConsultaRepo) Crear(ctx context.Context, cta model.Consulta, idUsuario uint64) (uint64, error) {
	var id uint64
	err := r.DB.QueryRow(ctx,
		`INSERT INTO consultas (id_paciente, id_usuario, fecha, hora, motivo_consulta,
			informe_medico, diagnostico, tratamiento, estudios, archivo_adjunto)
		 VALUES ($1,$2,COALESCE($3, CURRENT_DATE),$4,$5,$6,$7,$8,$9,$10)
		 RETURNING id_consulta`,
		cta.IDPaciente, idUsuario, cta.Fecha, cta.Hora, cta.MotivoConsulta,
		cta.InformeMedico, cta.Diagnostico, cta.Tratamiento, cta.Estudios,
		cta.ArchivoAdjunto).Scan(&id)
	return id, err
}

// Actualizar replaces the editable columns of a consultation.
func (r *ConsultaRepo) Actualizar(ctx context.Context, id uint64, cta model.Consulta, idUsuario uint64) error {
	tag, err := r.DB.Exec(ctx,
		`UPDATE consultas SET fecha=COALESCE($1, fecha), hora=$2, motivo_consulta=$3,
			informe_medico=$4, diagnostico=$5, tratamiento=$6, estudios=$7, archivo_adjunto=$8
		 WHERE id_consulta=$9 AND id_usuario=$10`,
		cta.Fecha, cta.Hora, cta.MotivoConsulta, cta.InformeMedico, cta.Diagnostico,
		cta.Tratamiento, cta.Estudios, cta.ArchivoAdjunto, id, idUsuario)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNoEncontrado
	}
	return nil
}

// Eliminar removes a consultation. Consultations are hard-deleted; the
// medical history of a patient is the set of surviving rows.
func (r *ConsultaRepo) Eliminar(ctx context.Context, id, idUsuario uint64) error {
	tag, err := r.DB.Exec(ctx,
		"DELETE FROM consultas WHERE id_consulta=$1 AND id_usuario=$2", id, idUsuario)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNoEncontrado
	}
	return nil
}
