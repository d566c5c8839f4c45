package handler

import (
    "context"
    "net/http"
    "strings"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/historias-clinicas/api/internal/model"
    "github.com/historias-clinicas/api/internal/repository"
)

type pacientesFalsos struct {
    seq   uint64
    porID map[uint64]model.Paciente
}

func nuevosPacientesFalsos() *pacientesFalsos {
    return &pacientesFalsos{porID: map[uint64]model.Paciente{}}
}

func (f *pacientesFalsos) activosDe(idUsuario uint64) []model.Paciente {
    out := []model.Paciente{}
    for _, p := range f.porID {
        if p.IDUsuario == idUsuario && p.Activo {
            out = append(out, p)
        }
    }
    return out
}

func (f *pacientesFalsos) ObtenerTodos(_ context.Context, idUsuario uint64) ([]model.Paciente, error) {
    return f.activosDe(idUsuario), nil
}

func (f *pacientesFalsos) Buscar(_ context.Context, termino string, idUsuario uint64) ([]model.Paciente, error) {
    termino = strings.ToLower(termino)
    out := []model.Paciente{}
    for _, p := range f.activosDe(idUsuario) {
        dni := ""
        if p.DNI != nil {
            dni = *p.DNI
        }
        if strings.Contains(strings.ToLower(p.Nombre), termino) ||
            strings.Contains(strings.ToLower(p.Apellido), termino) ||
            strings.Contains(dni, termino) {
            out = append(out, p)
        }
    }
    return out, nil
}

func (f *pacientesFalsos) BuscarPorID(_ context.Context, id, idUsuario uint64) (model.Paciente, error) {
    p, ok := f.porID[id]
    if !ok || !p.Activo || p.IDUsuario != idUsuario {
        return model.Paciente{}, repository.ErrNoEncontrado
    }
    return p, nil
}

func (f *pacientesFalsos) BuscarPorDNI(_ context.Context, dni string, idUsuario uint64) (model.Paciente, error) {
    for _, p := range f.activosDe(idUsuario) {
        if p.DNI != nil && *p.DNI == dni {
            return p, nil
        }
    }
    return model.Paciente{}, repository.ErrNoEncontrado
}

func (f *pacientesFalsos) dniEnUso(dni *string, idUsuario, salvo uint64) bool {
    if dni == nil {
        return false
    }
    for _, p := range f.activosDe(idUsuario) {
        if p.ID != salvo && p.DNI != nil && *p.DNI == *dni {
            return true
        }
    }
    return false
}

func (f *pacientesFalsos) Crear(_ context.Context, p model.Paciente, idUsuario uint64) (uint64, error) {
    if f.dniEnUso(p.DNI, idUsuario, 0) {
        return 0, repository.ErrDNIEnUso
    }
    f.seq++
    p.ID = f.seq
    p.IDUsuario = idUsuario
    p.Activo = true
    f.porID[p.ID] = p
    return p.ID, nil
}

func (f *pacientesFalsos) CrearMinimo(ctx context.Context, nombre, apellido string, idUsuario uint64) (uint64, error) {
    return f.Crear(ctx, model.Paciente{Nombre: nombre, Apellido: apellido}, idUsuario)
}

func (f *pacientesFalsos) Actualizar(_ context.Context, id uint64, p model.Paciente, idUsuario uint64) (model.Paciente, error) {
    actual, ok := f.porID[id]
    if !ok || !actual.Activo || actual.IDUsuario != idUsuario {
        return model.Paciente{}, repository.ErrNoEncontrado
    }
    if f.dniEnUso(p.DNI, idUsuario, id) {
        return model.Paciente{}, repository.ErrDNIEnUso
    }
    p.ID = id
    p.IDUsuario = idUsuario
    p.Activo = true
    p.FechaCreacion = actual.FechaCreacion
    f.porID[id] = p
    return p, nil
}

func (f *pacientesFalsos) Eliminar(_ context.Context, id, idUsuario uint64) error {
    p, ok := f.porID[id]
    if !ok || !p.Activo || p.IDUsuario != idUsuario {
        return repository.ErrNoEncontrado
    }
    p.Activo = false
    f.porID[id] = p
    return nil
}

func sesionDoctor() model.Usuario {
    return model.Usuario{ID: 1, Email: "dra@clinica.test", NombreCompleto: "Dra", Rol: "doctor"}
}

func TestPacienteListarSinSesion(t *testing.T) {
    h := NewPacienteHandler(nuevosPacientesFalsos())
    c, rec := peticion(t, http.MethodGet, "/api/pacientes", "")
    require.NoError(t, h.Listar(c))
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPacienteCrearCamposFaltantes(t *testing.T) {
    h := NewPacienteHandler(nuevosPacientesFalsos())
    c, rec := peticion(t, http.MethodPost, "/api/pacientes", `{"nombre":"Juan"}`)
    conSesion(c, sesionDoctor())
    require.NoError(t, h.Crear(c))
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    assert.Equal(t, "Nombre y apellido son requeridos", cuerpo(t, rec)["error"])
}

func TestPacienteCrearYObtener(t *testing.T) {
    store := nuevosPacientesFalsos()
    h := NewPacienteHandler(store)

    c, rec := peticion(t, http.MethodPost, "/api/pacientes",
        `{"nombre":"Juan","apellido":"Pérez","dni":"30123456","fecha_nacimiento":"1985-04-12","cobertura":"OSDE"}`)
    conSesion(c, sesionDoctor())
    require.NoError(t, h.Crear(c))
    require.Equal(t, http.StatusCreated, rec.Code)

    c, rec = peticion(t, http.MethodGet, "/api/pacientes/1", "")
    conSesion(c, sesionDoctor())
    c.SetParamNames("id")
    c.SetParamValues("1")
    require.NoError(t, h.Obtener(c))
    require.Equal(t, http.StatusOK, rec.Code)

    m := cuerpo(t, rec)
    assert.Equal(t, "Juan", m["nombre"])
    assert.Equal(t, "1985-04-12", m["fecha_nacimiento"])
    assert.Equal(t, "OSDE", m["cobertura"])
}

func TestPacienteFechaNacimientoInvalida(t *testing.T) {
    h := NewPacienteHandler(nuevosPacientesFalsos())
    c, rec := peticion(t, http.MethodPost, "/api/pacientes",
        `{"nombre":"Juan","apellido":"Pérez","fecha_nacimiento":"12/04/1985"}`)
    conSesion(c, sesionDoctor())
    require.NoError(t, h.Crear(c))
    assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPacienteDNIDuplicado(t *testing.T) {
    store := nuevosPacientesFalsos()
    h := NewPacienteHandler(store)
    dni := "30123456"
    _, err := store.Crear(context.Background(), model.Paciente{Nombre: "Juan", Apellido: "Pérez", DNI: &dni}, 1)
    require.NoError(t, err)

    c, rec := peticion(t, http.MethodPost, "/api/pacientes",
        `{"nombre":"Otro","apellido":"Paciente","dni":"30123456"}`)
    conSesion(c, sesionDoctor())
    require.NoError(t, h.Crear(c))
    assert.Equal(t, http.StatusConflict, rec.Code)
    assert.Equal(t, "Paciente ya registrado con este DNI", cuerpo(t, rec)["error"])
}

func TestPacienteNoVisibleParaOtroUsuario(t *testing.T) {
    store := nuevosPacientesFalsos()
    h := NewPacienteHandler(store)
    _, err := store.Crear(context.Background(), model.Paciente{Nombre: "Juan", Apellido: "Pérez"}, 99)
    require.NoError(t, err)

    c, rec := peticion(t, http.MethodGet, "/api/pacientes/1", "")
    conSesion(c, sesionDoctor())
    c.SetParamNames("id")
    c.SetParamValues("1")
    require.NoError(t, h.Obtener(c))
    assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPacienteEliminarEsSoft(t *testing.T) {
    store := nuevosPacientesFalsos()
    h := NewPacienteHandler(store)
    id, err := store.Crear(context.Background(), model.Paciente{Nombre: "Juan", Apellido: "Pérez"}, 1)
    require.NoError(t, err)

    c, rec := peticion(t, http.MethodDelete, "/api/pacientes/1", "")
    conSesion(c, sesionDoctor())
    c.SetParamNames("id")
    c.SetParamValues("1")
    require.NoError(t, h.Eliminar(c))
    require.Equal(t, http.StatusOK, rec.Code)

    // The row survives inactive; listings no longer include it.
    assert.False(t, store.porID[id].Activo)
    ps, err := store.ObtenerTodos(context.Background(), 1)
    require.NoError(t, err)
    assert.Empty(t, ps)

    // Deleting again answers 404.
    c, rec = peticion(t, http.MethodDelete, "/api/pacientes/1", "")
    conSesion(c, sesionDoctor())
    c.SetParamNames("id")
    c.SetParamValues("1")
    require.NoError(t, h.Eliminar(c))
    assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPacienteBuscar(t *testing.T) {
    store := nuevosPacientesFalsos()
    h := NewPacienteHandler(store)
    _, err := store.Crear(context.Background(), model.Paciente{Nombre: "Juan", Apellido: "Pérez"}, 1)
    require.NoError(t, err)
    _, err = store.Crear(context.Background(), model.Paciente{Nombre: "Ana", Apellido: "Suárez"}, 1)
    require.NoError(t, err)

    c, rec := peticion(t, http.MethodGet, "/api/pacientes/buscar?termino=juan", "")
    conSesion(c, sesionDoctor())
    require.NoError(t, h.Buscar(c))
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Contains(t, rec.Body.String(), "Juan")
    assert.NotContains(t, rec.Body.String(), "Ana")
}
