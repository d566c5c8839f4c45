package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/historias-clinicas/api/internal/model"
)

// PacienteRepo persists patient records in the 'pacientes' table. Every
// query is scoped to the owning user (id_usuario) and to active rows, so a
// doctor never sees another doctor's patients.
type PacienteRepo struct{ DB *pgxpool.Pool }

func NewPacienteRepo(db *pgxpool.Pool) *PacienteRepo { return &PacienteRepo{DB: db} }

const pacienteCols = `id_paciente, id_usuario, nombre, apellido, dni, fecha_nacimiento, sexo,
	telefono, telefono_adicional, email, cobertura, plan, numero_afiliado, localidad,
	direccion, ocupacion, enfermedades_preexistentes, alergias, observaciones, activo, fecha_creacion`

func scanPaciente(row pgx.Row) (model.Paciente, error) {
	var p model.Paciente
	err := row.Scan(&p.ID, &p.IDUsuario, &p.Nombre, &p.Apellido, &p.DNI, &p.FechaNacimiento,
		&p.Sexo, &p.Telefono, &p.TelefonoAdicional, &p.Email, &p.Cobertura, &p.Plan,
		&p.NumeroAfiliado, &p.Localidad, &p.Direccion, &p.Ocupacion,
		&p.EnfermedadesPreexistentes, &p.Alergias, &p.Observaciones, &p.Activo, &p.FechaCreacion)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Paciente{}, ErrNoEncontrado
	}
	return p, err
}

func collectPacientes(rows pgx.Rows) ([]model.Paciente, error) {
	defer rows.Close()
	out := []model.Paciente{}
	for rows.Next() {
		p, err := scanPaciente(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ObtenerTodos lists the user's active patients ordered by surname.
func (r *PacienteRepo) ObtenerTodos(ctx context.Context, idUsuario uint64) ([]model.Paciente, error) {
	rows, err := r.DB.Query(ctx,
		"SELECT "+pacienteCols+" FROM pacientes WHERE id_usuario=$1 AND activo=true ORDER BY apellido, nombre",
		idUsuario)
	if err != nil {
		return nil, err
	}
	return collectPacientes(rows)
}

// Buscar filters the user's active patients by a free text term matched
// against nombre, apellido and dni.
func (r *PacienteRepo) Buscar(ctx context.Context, termino string, idUsuario uint64) ([]model.Paciente, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+pacienteCols+` FROM pacientes
		 WHERE id_usuario=$1 AND activo=true
		   AND (nombre ILIKE '%'||$2||'%' OR apellido ILIKE '%'||$2||'%' OR dni ILIKE '%'||$2||'%')
		 ORDER BY apellido, nombre`,
		idUsuario, termino)
	if err != nil {
		return nil, err
	}
	return collectPacientes(rows)
}

// BuscarPorID fetches one active patient owned by the user.
func (r *PacienteRepo) BuscarPorID(ctx context.Context, id, idUsuario uint64) (model.Paciente, error) {
	return scanPaciente(r.DB.QueryRow(ctx,
		"SELECT "+pacienteCols+" FROM pacientes WHERE id_paciente=$1 AND id_usuario=$2 AND activo=true",
		id, idUsuario))
}

// BuscarPorDNI fetches one active patient by exact DNI.
func (r *PacienteRepo) BuscarPorDNI(ctx context.Context, dni string, idUsuario uint64) (model.Paciente, error) {
	return scanPaciente(r.DB.QueryRow(ctx,
		"SELECT "+pacienteCols+" FROM pacientes WHERE dni=$1 AND id_usuario=$2 AND activo=true",
		dni, idUsuario))
}

// Crear inserts a full patient record and returns its id. A duplicate DNI
// for the same user maps to ErrDNIEnUso.
func (r *PacienteRepo) Crear(ctx context.Context, p model.Paciente, idUsuario uint64) (uint64, error) {
	var id uint64
	err := r.DB.QueryRow(ctx,
		`INSERT INTO pacientes (id_usuario, nombre, apellido, dni, fecha_nacimiento, sexo,
			telefono, telefono_adicional, email, cobertura, plan, numero_afiliado, localidad,
			direccion, ocupacion, enfermedades_preexistentes, alergias, observaciones)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
		 RETURNING id_paciente`,
		idUsuario, p.Nombre, p.Apellido, p.DNI, p.FechaNacimiento, p.Sexo,
		p.Telefono, p.TelefonoAdicional, p.Email, p.Cobertura, p.Plan, p.NumeroAfiliado,
		p.Localidad, p.Direccion, p.Ocupacion, p.EnfermedadesPreexistentes, p.Alergias,
		p.Observaciones).Scan(&id)
	if err != nil {
		if esUniqueViolation(err) {
			return 0, ErrDNIEnUso
		}
		return 0, err
	}
	return id, nil
}

// CrearMinimo inserts a patient with only nombre and apellido, used by the
// appointment screen to register walk-ins on the fly.
func (r *PacienteRepo) CrearMinimo(ctx context.Context, nombre, apellido string, idUsuario uint64) (uint64, error) {
	var id uint64
	err := r.DB.QueryRow(ctx,
		"INSERT INTO pacientes (id_usuario, nombre, apellido) VALUES ($1,$2,$3) RETURNING id_paciente",
		idUsuario, nombre, apellido).Scan(&id)
	return id, err
}

// Actualizar replaces the editable columns of a patient and returns the
// updated record, ErrNoEncontrado when the row does not belong to the user.
func (r *PacienteRepo) Actualizar(ctx context.Context, id uint64, p model.Paciente, idUsuario uint64) (model.Paciente, error) {
	row := r.DB.QueryRow(ctx,
		`UPDATE pacientes SET nombre=$1, apellido=$2, dni=$3, fecha_nacimiento=$4, sexo=$5,
			telefono=$6, telefono_adicional=$7, email=$8, cobertura=$9, plan=$10,
			numero_afiliado=$11, localidad=$12, direccion=$13, ocupacion=$14,
			enfermedades_preexistentes=$15, alergias=$16, observaciones=$17
		 WHERE id_paciente=$18 AND id_usuario=$19 AND activo=true
		 RETURNING `+pacienteCols,
		p.Nombre, p.Apellido, p.DNI, p.FechaNacimiento, p.Sexo,
		p.Telefono, p.TelefonoAdicional, p.Email, p.Cobertura, p.Plan,
		p.NumeroAfiliado, p.Localidad, p.Direccion, p.Ocupacion,
		p.EnfermedadesPreexistentes, p.Alergias, p.Observaciones, id, idUsuario)
	actualizado, err := scanPaciente(row)
	if err != nil && esUniqueViolation(err) {
		return model.Paciente{}, ErrDNIEnUso
	}
	return actualizado, err
}

// Eliminar soft-deletes a patient. ErrNoEncontrado when nothing matched.
func (r *PacienteRepo) Eliminar(ctx context.Context, id, idUsuario uint64) error {
	tag, err := r.DB.Exec(ctx,
		"UPDATE pacientes SET activo=false WHERE id_paciente=$1 AND id_usuario=$2 AND activo=true",
		id, idUsuario)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNoEncontrado
	}
	return nil
}
