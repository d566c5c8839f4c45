package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/historias-clinicas/api/internal/model"
)

// UsuarioRepo persists user accounts in the 'usuarios' table. All lookups
// are scoped to active users; soft-deleted accounts behave as nonexistent.
type UsuarioRepo struct{ DB *pgxpool.Pool }

func NewUsuarioRepo(db *pgxpool.Pool) *UsuarioRepo { return &UsuarioRepo{DB: db} }

const usuarioCols = "id_usuario, email, nombre_completo, password_hash, rol, activo, pregunta_secreta, respuesta_secreta_hash, fecha_registro"

func scanUsuario(row pgx.Row) (model.Usuario, error) {
	var u model.Usuario
	err := row.Scan(&u.ID, &u.Email, &u.NombreCompleto, &u.PasswordHash, &u.Rol,
		&u.Activo, &u.PreguntaSecreta, &u.RespuestaSecretaHash, &u.FechaRegistro)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Usuario{}, ErrNoEncontrado
	}
	return u, err
}

// BuscarPorEmail fetches an active user by email, hash included. Callers
// must not serialize the hash back to clients.
func (r *UsuarioRepo) BuscarPorEmail(ctx context.Context, email string) (model.Usuario, error) {
	return scanUsuario(r.DB.QueryRow(ctx,
		"SELECT "+usuarioCols+" FROM usuarios WHERE email=$1 AND activo=true",
		strings.TrimSpace(email)))
}

// BuscarPorID fetches an active user by id with public fields only; the
// password hash is zeroed so it cannot leak through this path.
func (r *UsuarioRepo) BuscarPorID(ctx context.Context, id uint64) (model.Usuario, error) {
	u, err := scanUsuario(r.DB.QueryRow(ctx,
		"SELECT "+usuarioCols+" FROM usuarios WHERE id_usuario=$1 AND activo=true", id))
	if err != nil {
		return model.Usuario{}, err
	}
	u.PasswordHash = ""
	u.RespuestaSecretaHash = nil
	return u, nil
}

// BuscarConHashPorID fetches an active user including the password hash.
// Used by the password-change flow to verify the current password.
func (r *UsuarioRepo) BuscarConHashPorID(ctx context.Context, id uint64) (model.Usuario, error) {
	return scanUsuario(r.DB.QueryRow(ctx,
		"SELECT "+usuarioCols+" FROM usuarios WHERE id_usuario=$1 AND activo=true", id))
}

// BuscarConRespuestaHashPorEmail fetches an active user including the secret
// answer hash. Used only by the secret-question recovery flow.
func (r *UsuarioRepo) BuscarConRespuestaHashPorEmail(ctx context.Context, email string) (model.Usuario, error) {
	return scanUsuario(r.DB.QueryRow(ctx,
		"SELECT "+usuarioCols+" FROM usuarios WHERE email=$1 AND activo=true",
		strings.TrimSpace(email)))
}

// Crear inserts a user and returns the created public record. A unique
// violation on email maps to ErrEmailEnUso.
func (r *UsuarioRepo) Crear(ctx context.Context, email, nombreCompleto, passwordHash, rol string) (model.Usuario, error) {
	var u model.Usuario
	err := r.DB.QueryRow(ctx,
		"INSERT INTO usuarios (email, nombre_completo, password_hash, rol) VALUES ($1,$2,$3,$4) RETURNING id_usuario, email, nombre_completo, rol, fecha_registro",
		strings.TrimSpace(email), nombreCompleto, passwordHash, rol).
		Scan(&u.ID, &u.Email, &u.NombreCompleto, &u.Rol, &u.FechaRegistro)
	if err != nil {
		if esUniqueViolation(err) {
			return model.Usuario{}, ErrEmailEnUso
		}
		return model.Usuario{}, err
	}
	u.Activo = true
	return u, nil
}

// ExisteEmailParaOtro reports whether the email belongs to an active user
// other than the one being edited.
func (r *UsuarioRepo) ExisteEmailParaOtro(ctx context.Context, email string, id uint64) (bool, error) {
	var uno int
	err := r.DB.QueryRow(ctx,
		"SELECT 1 FROM usuarios WHERE email=$1 AND id_usuario<>$2 AND activo=true LIMIT 1",
		strings.TrimSpace(email), id).Scan(&uno)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// ActualizarPerfil partially updates email and/or nombre_completo. Empty
// arguments are skipped; when both are empty it returns ErrSinCambios.
func (r *UsuarioRepo) ActualizarPerfil(ctx context.Context, id uint64, email, nombreCompleto string) (model.Usuario, error) {
	sets := make([]string, 0, 2)
	args := make([]any, 0, 3)
	if email != "" {
		args = append(args, strings.TrimSpace(email))
		sets = append(sets, fmt.Sprintf("email=$%d", len(args)))
	}
	if nombreCompleto != "" {
		args = append(args, nombreCompleto)
		sets = append(sets, fmt.Sprintf("nombre_completo=$%d", len(args)))
	}
	if len(sets) == 0 {
		return model.Usuario{}, ErrSinCambios
	}
	args = append(args, id)
	q := fmt.Sprintf(
		"UPDATE usuarios SET %s WHERE id_usuario=$%d AND activo=true RETURNING id_usuario, email, nombre_completo, rol, fecha_registro",
		strings.Join(sets, ", "), len(args))

	var u model.Usuario
	err := r.DB.QueryRow(ctx, q, args...).
		Scan(&u.ID, &u.Email, &u.NombreCompleto, &u.Rol, &u.FechaRegistro)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Usuario{}, ErrNoEncontrado
	}
	if err != nil {
		if esUniqueViolation(err) {
			return model.Usuario{}, ErrEmailEnUso
		}
		return model.Usuario{}, err
	}
	u.Activo = true
	return u, nil
}

// ActualizarPassword replaces the stored password hash.
func (r *UsuarioRepo) ActualizarPassword(ctx context.Context, id uint64, nuevoHash string) error {
	_, err := r.DB.Exec(ctx,
		"UPDATE usuarios SET password_hash=$1 WHERE id_usuario=$2", nuevoHash, id)
	return err
}

// ConfigurarPreguntaSecreta stores the recovery question and the hash of
// the normalized answer.
func (r *UsuarioRepo) ConfigurarPreguntaSecreta(ctx context.Context, id uint64, pregunta, respuestaHash string) error {
	_, err := r.DB.Exec(ctx,
		"UPDATE usuarios SET pregunta_secreta=$1, respuesta_secreta_hash=$2 WHERE id_usuario=$3",
		pregunta, respuestaHash, id)
	return err
}

// ObtenerPreguntaSecreta returns the recovery question of an active user,
// nil when none is configured, ErrNoEncontrado when the email is unknown.
func (r *UsuarioRepo) ObtenerPreguntaSecreta(ctx context.Context, email string) (*string, error) {
	var pregunta *string
	err := r.DB.QueryRow(ctx,
		"SELECT pregunta_secreta FROM usuarios WHERE email=$1 AND activo=true",
		strings.TrimSpace(email)).Scan(&pregunta)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoEncontrado
	}
	return pregunta, err
}

// esUniqueViolation reports whether err is a postgres unique constraint
// violation (SQLSTATE 23505).
func esUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
