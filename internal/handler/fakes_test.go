package handler

// In-memory stores used by the handler tests. They reproduce the error
// semantics of the repository package so handlers can be exercised without
// a database.

import (
    "context"
    "strings"
    "time"

    "github.com/historias-clinicas/api/internal/model"
    "github.com/historias-clinicas/api/internal/queue"
    "github.com/historias-clinicas/api/internal/repository"
)

type usuariosFalsos struct {
    seq   uint64
    porID map[uint64]model.Usuario
}

func nuevosUsuariosFalsos() *usuariosFalsos {
    return &usuariosFalsos{porID: map[uint64]model.Usuario{}}
}

func (f *usuariosFalsos) porEmail(email string) (model.Usuario, bool) {
    email = strings.TrimSpace(email)
    for _, u := range f.porID {
        if u.Email == email && u.Activo {
            return u, true
        }
    }
    return model.Usuario{}, false
}

func (f *usuariosFalsos) BuscarPorEmail(_ context.Context, email string) (model.Usuario, error) {
    if u, ok := f.porEmail(email); ok {
        return u, nil
    }
    return model.Usuario{}, repository.ErrNoEncontrado
}

func (f *usuariosFalsos) BuscarPorID(_ context.Context, id uint64) (model.Usuario, error) {
    u, ok := f.porID[id]
    if !ok || !u.Activo {
        return model.Usuario{}, repository.ErrNoEncontrado
    }
    u.PasswordHash = ""
    u.RespuestaSecretaHash = nil
    return u, nil
}

func (f *usuariosFalsos) BuscarConHashPorID(_ context.Context, id uint64) (model.Usuario, error) {
    u, ok := f.porID[id]
    if !ok || !u.Activo {
        return model.Usuario{}, repository.ErrNoEncontrado
    }
    return u, nil
}

func (f *usuariosFalsos) BuscarConRespuestaHashPorEmail(_ context.Context, email string) (model.Usuario, error) {
    if u, ok := f.porEmail(email); ok {
        return u, nil
    }
    return model.Usuario{}, repository.ErrNoEncontrado
}

func (f *usuariosFalsos) Crear(_ context.Context, email, nombreCompleto, passwordHash, rol string) (model.Usuario, error) {
    if _, ok := f.porEmail(email); ok {
        return model.Usuario{}, repository.ErrEmailEnUso
    }
    f.seq++
    u := model.Usuario{
        ID:             f.seq,
        Email:          strings.TrimSpace(email),
        NombreCompleto: nombreCompleto,
        PasswordHash:   passwordHash,
        Rol:            rol,
        Activo:         true,
        FechaRegistro:  time.Now(),
    }
    f.porID[u.ID] = u
    publico := u
    publico.PasswordHash = ""
    return publico, nil
}

func (f *usuariosFalsos) ExisteEmailParaOtro(_ context.Context, email string, id uint64) (bool, error) {
    u, ok := f.porEmail(email)
    return ok && u.ID != id, nil
}

func (f *usuariosFalsos) ActualizarPerfil(_ context.Context, id uint64, email, nombreCompleto string) (model.Usuario, error) {
    if email == "" && nombreCompleto == "" {
        return model.Usuario{}, repository.ErrSinCambios
    }
    u, ok := f.porID[id]
    if !ok || !u.Activo {
        return model.Usuario{}, repository.ErrNoEncontrado
    }
    if email != "" {
        if otro, existe := f.porEmail(email); existe && otro.ID != id {
            return model.Usuario{}, repository.ErrEmailEnUso
        }
        u.Email = strings.TrimSpace(email)
    }
    if nombreCompleto != "" {
        u.NombreCompleto = nombreCompleto
    }
    f.porID[id] = u
    publico := u
    publico.PasswordHash = ""
    publico.RespuestaSecretaHash = nil
    return publico, nil
}

func (f *usuariosFalsos) ActualizarPassword(_ context.Context, id uint64, nuevoHash string) error {
    u, ok := f.porID[id]
    if !ok {
        return repository.ErrNoEncontrado
    }
    u.PasswordHash = nuevoHash
    f.porID[id] = u
    return nil
}

func (f *usuariosFalsos) ConfigurarPreguntaSecreta(_ context.Context, id uint64, pregunta, respuestaHash string) error {
    u, ok := f.porID[id]
    if !ok {
        return repository.ErrNoEncontrado
    }
    u.PreguntaSecreta = &pregunta
    u.RespuestaSecretaHash = &respuestaHash
    f.porID[id] = u
    return nil
}

func (f *usuariosFalsos) ObtenerPreguntaSecreta(_ context.Context, email string) (*string, error) {
    u, ok := f.porEmail(email)
    if !ok {
        return nil, repository.ErrNoEncontrado
    }
    return u.PreguntaSecreta, nil
}

type codigoGuardado struct {
    hash     string
    expiraEn time.Time
}

type codigosFalsos struct {
    porEmail map[string]codigoGuardado
}

func nuevosCodigosFalsos() *codigosFalsos {
    return &codigosFalsos{porEmail: map[string]codigoGuardado{}}
}

func (f *codigosFalsos) Guardar(_ context.Context, email, codigoHash string, expiraEn time.Time) error {
    f.porEmail[email] = codigoGuardado{hash: codigoHash, expiraEn: expiraEn}
    return nil
}

func (f *codigosFalsos) Validar(_ context.Context, email, codigoHash string) error {
    g, ok := f.porEmail[email]
    if !ok {
        return repository.ErrCodigoNoSolicitado
    }
    if time.Now().UTC().After(g.expiraEn.UTC()) {
        delete(f.porEmail, email)
        return repository.ErrCodigoExpirado
    }
    if g.hash != codigoHash {
        return repository.ErrCodigoIncorrecto
    }
    return nil
}

func (f *codigosFalsos) Eliminar(_ context.Context, email string) error {
    delete(f.porEmail, email)
    return nil
}

type notificadorFalso struct {
    eventos []queue.CodigoRecuperacionEvent
    falla   error
}

func (f *notificadorFalso) PublicarCodigo(_ context.Context, ev queue.CodigoRecuperacionEvent) error {
    if f.falla != nil {
        return f.falla
    }
    f.eventos = append(f.eventos, ev)
    return nil
}
