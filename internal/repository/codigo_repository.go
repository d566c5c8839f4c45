package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CodigoRepo persists one-time recovery codes in the 'codigos_recuperacion'
// table (one row per email, SHA-256 digest of the code at rest). Keeping the
// codes in the database instead of process memory means they survive
// restarts and work across multiple instances.
type CodigoRepo struct{ DB *pgxpool.Pool }

func NewCodigoRepo(db *pgxpool.Pool) *CodigoRepo { return &CodigoRepo{DB: db} }

// Guardar stores the code digest for an email, replacing any previous code.
// Only the latest requested code is ever valid.
func (r *CodigoRepo) Guardar(ctx context.Context, email, codigoHash string, expiraEn time.Time) error {
	_, err := r.DB.Exec(ctx,
		`INSERT INTO codigos_recuperacion (email, codigo_hash, expira_en)
		 VALUES ($1,$2,$3)
		 ON CONFLICT (email) DO UPDATE SET codigo_hash=EXCLUDED.codigo_hash, expira_en=EXCLUDED.expira_en, creado_en=NOW()`,
		email, codigoHash, expiraEn)
	return err
}

// Validar checks the submitted code digest for an email. It distinguishes
// "never requested", "expired" and "wrong code" so the handler can answer
// with precise messages. Expired rows are deleted on read.
func (r *CodigoRepo) Validar(ctx context.Context, email, codigoHash string) error {
	var (
		guardado string
		expiraEn time.Time
	)
	err := r.DB.QueryRow(ctx,
		"SELECT codigo_hash, expira_en FROM codigos_recuperacion WHERE email=$1",
		email).Scan(&guardado, &expiraEn)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrCodigoNoSolicitado
	}
	if err != nil {
		return err
	}
	if time.Now().UTC().After(expiraEn.UTC()) {
		_ = r.Eliminar(ctx, email)
		return ErrCodigoExpirado
	}
	if guardado != codigoHash {
		return ErrCodigoIncorrecto
	}
	return nil
}

// Eliminar consumes the code for an email. Resets call it after a
// successful password change so the code cannot be replayed.
func (r *CodigoRepo) Eliminar(ctx context.Context, email string) error {
	_, err := r.DB.Exec(ctx, "DELETE FROM codigos_recuperacion WHERE email=$1", email)
	return err
}
