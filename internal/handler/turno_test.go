package handler

import (
    "context"
    "net/http"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/historias-clinicas/api/internal/model"
    "github.com/historias-clinicas/api/internal/repository"
)

type turnosFalsos struct {
    seq   uint64
    porID map[uint64]model.Turno
}

func nuevosTurnosFalsos() *turnosFalsos {
    return &turnosFalsos{porID: map[uint64]model.Turno{}}
}

func (f *turnosFalsos) de(idUsuario uint64) []model.Turno {
    out := []model.Turno{}
    for _, t := range f.porID {
        if t.IDUsuario == idUsuario {
            out = append(out, t)
        }
    }
    return out
}

func (f *turnosFalsos) ObtenerTodos(_ context.Context, idUsuario uint64) ([]model.Turno, error) {
    return f.de(idUsuario), nil
}

func (f *turnosFalsos) ObtenerHoy(_ context.Context, idUsuario uint64) ([]model.Turno, error) {
    hoy := time.Now().Format("2006-01-02")
    out := []model.Turno{}
    for _, t := range f.de(idUsuario) {
        if t.Dia.Format("2006-01-02") == hoy {
            out = append(out, t)
        }
    }
    return out, nil
}

func (f *turnosFalsos) ObtenerPorDia(_ context.Context, dia time.Time, idUsuario uint64) ([]model.Turno, error) {
    out := []model.Turno{}
    for _, t := range f.de(idUsuario) {
        if t.Dia.Equal(dia) {
            out = append(out, t)
        }
    }
    return out, nil
}

func (f *turnosFalsos) ObtenerPorPaciente(_ context.Context, idPaciente, idUsuario uint64) ([]model.Turno, error) {
    out := []model.Turno{}
    for _, t := range f.de(idUsuario) {
        if t.IDPaciente != nil && *t.IDPaciente == idPaciente {
            out = append(out, t)
        }
    }
    return out, nil
}

func (f *turnosFalsos) BuscarPorID(_ context.Context, id, idUsuario uint64) (model.Turno, error) {
    t, ok := f.porID[id]
    if !ok || t.IDUsuario != idUsuario {
        return model.Turno{}, repository.ErrNoEncontrado
    }
    return t, nil
}

func (f *turnosFalsos) Crear(_ context.Context, t model.Turno, idUsuario uint64) (uint64, error) {
    f.seq++
    t.ID = f.seq
    t.IDUsuario = idUsuario
    if t.Situacion == "" {
        t.Situacion = "pendiente"
    }
    f.porID[t.ID] = t
    return t.ID, nil
}

func (f *turnosFalsos) Actualizar(_ context.Context, id uint64, t model.Turno, idUsuario uint64) error {
    actual, ok := f.porID[id]
    if !ok || actual.IDUsuario != idUsuario {
        return repository.ErrNoEncontrado
    }
    t.ID = id
    t.IDUsuario = idUsuario
    if t.Situacion == "" {
        t.Situacion = actual.Situacion
    }
    f.porID[id] = t
    return nil
}

func (f *turnosFalsos) ActualizarSituacion(_ context.Context, id uint64, situacion string, idUsuario uint64) error {
    t, ok := f.porID[id]
    if !ok || t.IDUsuario != idUsuario {
        return repository.ErrNoEncontrado
    }
    t.Situacion = situacion
    f.porID[id] = t
    return nil
}

func (f *turnosFalsos) Eliminar(_ context.Context, id, idUsuario uint64) error {
    t, ok := f.porID[id]
    if !ok || t.IDUsuario != idUsuario {
        return repository.ErrNoEncontrado
    }
    delete(f.porID, id)
    return nil
}

func TestTurnoCrearSinPaciente(t *testing.T) {
    h := NewTurnoHandler(nuevosTurnosFalsos(), nil)
    c, rec := peticion(t, http.MethodPost, "/api/turnos", `{"dia":"2026-09-01","horario":"10:30"}`)
    conSesion(c, sesionDoctor())
    require.NoError(t, h.Crear(c))
    assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTurnoCrearConWalkIn(t *testing.T) {
    store := nuevosTurnosFalsos()
    h := NewTurnoHandler(store, nil)
    c, rec := peticion(t, http.MethodPost, "/api/turnos",
        `{"paciente_nombre_tmp":"Juan","paciente_apellido_tmp":"Pérez","dia":"2026-09-01","horario":"10:30","primera_vez":true}`)
    conSesion(c, sesionDoctor())
    require.NoError(t, h.Crear(c))
    require.Equal(t, http.StatusCreated, rec.Code)

    creado := store.porID[1]
    assert.Nil(t, creado.IDPaciente)
    require.NotNil(t, creado.PacienteNombreTmp)
    assert.Equal(t, "Juan", *creado.PacienteNombreTmp)
    assert.Equal(t, "pendiente", creado.Situacion)
    assert.True(t, creado.PrimeraVez)
}

func TestTurnoCrearRegistrandoPaciente(t *testing.T) {
    turnos := nuevosTurnosFalsos()
    pacientes := nuevosPacientesFalsos()
    h := NewTurnoHandler(turnos, pacientes)

    c, rec := peticion(t, http.MethodPost, "/api/turnos",
        `{"paciente_nombre_tmp":"Juan","paciente_apellido_tmp":"Pérez","registrar_paciente":true,"dia":"2026-09-01","horario":"10:30"}`)
    conSesion(c, sesionDoctor())
    require.NoError(t, h.Crear(c))
    require.Equal(t, http.StatusCreated, rec.Code)

    // The walk-in became a registered patient linked from the turno.
    creado := turnos.porID[1]
    require.NotNil(t, creado.IDPaciente)
    assert.Nil(t, creado.PacienteNombreTmp)
    registrado, err := pacientes.BuscarPorID(context.Background(), *creado.IDPaciente, 1)
    require.NoError(t, err)
    assert.Equal(t, "Juan", registrado.Nombre)
}

func TestTurnoWalkInSinApellido(t *testing.T) {
    store := nuevosTurnosFalsos()
    h := NewTurnoHandler(store, nil)
    c, rec := peticion(t, http.MethodPost, "/api/turnos",
        `{"dia":"2026-09-01","horario":"10:00","paciente_nombre_tmp":"Juan"}`)
    conSesion(c, sesionDoctor())
    require.NoError(t, h.Crear(c))
    require.Equal(t, http.StatusBadRequest, rec.Code)
    assert.Equal(t, "Si no se especifica paciente, se requieren nombre y apellido",
        cuerpo(t, rec)["error"])
    assert.Empty(t, store.porID)
}

// registradorFallido simulates the patient store rejecting the minimal insert.
type registradorFallido struct{}

func (registradorFallido) CrearMinimo(context.Context, string, string, uint64) (uint64, error) {
    return 0, assert.AnError
}

func TestTurnoRegistrarPacienteFallaIgualCrea(t *testing.T) {
    turnos := nuevosTurnosFalsos()
    h := NewTurnoHandler(turnos, registradorFallido{})

    c, rec := peticion(t, http.MethodPost, "/api/turnos",
        `{"paciente_nombre_tmp":"Juan","paciente_apellido_tmp":"Pérez","registrar_paciente":true,"dia":"2026-09-01","horario":"10:30"}`)
    conSesion(c, sesionDoctor())
    require.NoError(t, h.Crear(c))
    require.Equal(t, http.StatusCreated, rec.Code)

    // Registration failed, so the turno keeps the temporary name pair.
    creado := turnos.porID[1]
    assert.Nil(t, creado.IDPaciente)
    require.NotNil(t, creado.PacienteNombreTmp)
    assert.Equal(t, "Juan", *creado.PacienteNombreTmp)
    require.NotNil(t, creado.PacienteApellidoTmp)
    assert.Equal(t, "Pérez", *creado.PacienteApellidoTmp)
}

func TestTurnoDiaInvalido(t *testing.T) {
    h := NewTurnoHandler(nuevosTurnosFalsos(), nil)
    c, rec := peticion(t, http.MethodPost, "/api/turnos",
        `{"id_paciente":3,"dia":"01/09/2026","horario":"10:30"}`)
    conSesion(c, sesionDoctor())
    require.NoError(t, h.Crear(c))
    assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTurnoSituacionInvalida(t *testing.T) {
    store := nuevosTurnosFalsos()
    id, err := store.Crear(context.Background(), model.Turno{Dia: time.Now(), Horario: "10:30"}, 1)
    require.NoError(t, err)
    h := NewTurnoHandler(store, nil)

    c, rec := peticion(t, http.MethodPatch, "/api/turnos/1/situacion", `{"situacion":"perdido"}`)
    conSesion(c, sesionDoctor())
    c.SetParamNames("id")
    c.SetParamValues("1")
    require.NoError(t, h.CambiarSituacion(c))
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    assert.Equal(t, "pendiente", store.porID[id].Situacion)
}

func TestTurnoCambiarSituacion(t *testing.T) {
    store := nuevosTurnosFalsos()
    id, err := store.Crear(context.Background(), model.Turno{Dia: time.Now(), Horario: "10:30"}, 1)
    require.NoError(t, err)
    h := NewTurnoHandler(store, nil)

    c, rec := peticion(t, http.MethodPatch, "/api/turnos/1/situacion", `{"situacion":"Atendido"}`)
    conSesion(c, sesionDoctor())
    c.SetParamNames("id")
    c.SetParamValues("1")
    require.NoError(t, h.CambiarSituacion(c))
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "atendido", store.porID[id].Situacion)
}

func TestTurnoAjenoNoVisible(t *testing.T) {
    store := nuevosTurnosFalsos()
    _, err := store.Crear(context.Background(), model.Turno{Dia: time.Now(), Horario: "10:30"}, 99)
    require.NoError(t, err)
    h := NewTurnoHandler(store, nil)

    c, rec := peticion(t, http.MethodGet, "/api/turnos/1", "")
    conSesion(c, sesionDoctor())
    c.SetParamNames("id")
    c.SetParamValues("1")
    require.NoError(t, h.Obtener(c))
    assert.Equal(t, http.StatusNotFound, rec.Code)
}
