package handler

import (
    "context"
    "errors"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/historias-clinicas/api/internal/model"
    "github.com/historias-clinicas/api/internal/repository"
)

// PacienteStore is the patient surface the handler needs; the repository
// implements it over PostgreSQL, tests in memory.
type PacienteStore interface {
    ObtenerTodos(ctx context.Context, idUsuario uint64) ([]model.Paciente, error)
    Buscar(ctx context.Context, termino string, idUsuario uint64) ([]model.Paciente, error)
    BuscarPorID(ctx context.Context, id, idUsuario uint64) (model.Paciente, error)
    BuscarPorDNI(ctx context.Context, dni string, idUsuario uint64) (model.Paciente, error)
    Crear(ctx context.Context, p model.Paciente, idUsuario uint64) (uint64, error)
    CrearMinimo(ctx context.Context, nombre, apellido string, idUsuario uint64) (uint64, error)
    Actualizar(ctx context.Context, id uint64, p model.Paciente, idUsuario uint64) (model.Paciente, error)
    Eliminar(ctx context.Context, id, idUsuario uint64) error
}

// PacienteHandler serves the /api/pacientes endpoints. Every operation is
// scoped to the authenticated user's records.
type PacienteHandler struct {
    Pacientes PacienteStore
}

func NewPacienteHandler(pacientes PacienteStore) *PacienteHandler {
    return &PacienteHandler{Pacientes: pacientes}
}

type pacienteReq struct {
    Nombre                    string  `json:"nombre"`
    Apellido                  string  `json:"apellido"`
    DNI                       *string `json:"dni"`
    FechaNacimiento           *string `json:"fecha_nacimiento"`
    Sexo                      *string `json:"sexo"`
    Telefono                  *string `json:"telefono"`
    TelefonoAdicional         *string `json:"telefono_adicional"`
    Email                     *string `json:"email"`
    Cobertura                 *string `json:"cobertura"`
    Plan                      *string `json:"plan"`
    NumeroAfiliado            *string `json:"numero_afiliado"`
    Localidad                 *string `json:"localidad"`
    Direccion                 *string `json:"direccion"`
    Ocupacion                 *string `json:"ocupacion"`
    EnfermedadesPreexistentes *string `json:"enfermedades_preexistentes"`
    Alergias                  *string `json:"alergias"`
    Observaciones             *string `json:"observaciones"`
}

func (req pacienteReq) aModelo() (model.Paciente, error) {
    nacimiento, err := parseFecha(req.FechaNacimiento)
    if err != nil {
        return model.Paciente{}, err
    }
    return model.Paciente{
        Nombre:                    strings.TrimSpace(req.Nombre),
        Apellido:                  strings.TrimSpace(req.Apellido),
        DNI:                       limpiar(req.DNI),
        FechaNacimiento:           nacimiento,
        Sexo:                      limpiar(req.Sexo),
        Telefono:                  limpiar(req.Telefono),
        TelefonoAdicional:         limpiar(req.TelefonoAdicional),
        Email:                     limpiar(req.Email),
        Cobertura:                 limpiar(req.Cobertura),
        Plan:                      limpiar(req.Plan),
        NumeroAfiliado:            limpiar(req.NumeroAfiliado),
        Localidad:                 limpiar(req.Localidad),
        Direccion:                 limpiar(req.Direccion),
        Ocupacion:                 limpiar(req.Ocupacion),
        EnfermedadesPreexistentes: limpiar(req.EnfermedadesPreexistentes),
        Alergias:                  limpiar(req.Alergias),
        Observaciones:             limpiar(req.Observaciones),
    }, nil
}

// limpiar trims an optional string, turning blanks into NULL.
func limpiar(s *string) *string {
    if s == nil {
        return nil
    }
    t := strings.TrimSpace(*s)
    if t == "" {
        return nil
    }
    return &t
}

func pacienteJSON(p model.Paciente) echo.Map {
    return echo.Map{
        "id_paciente":                p.ID,
        "nombre":                     p.Nombre,
        "apellido":                   p.Apellido,
        "dni":                        p.DNI,
        "fecha_nacimiento":           fmtFecha(p.FechaNacimiento),
        "sexo":                       p.Sexo,
        "telefono":                   p.Telefono,
        "telefono_adicional":         p.TelefonoAdicional,
        "email":                      p.Email,
        "cobertura":                  p.Cobertura,
        "plan":                       p.Plan,
        "numero_afiliado":            p.NumeroAfiliado,
        "localidad":                  p.Localidad,
        "direccion":                  p.Direccion,
        "ocupacion":                  p.Ocupacion,
        "enfermedades_preexistentes": p.EnfermedadesPreexistentes,
        "alergias":                   p.Alergias,
        "observaciones":              p.Observaciones,
        "fecha_creacion":             p.FechaCreacion,
    }
}

func pacientesJSON(ps []model.Paciente) []echo.Map {
    out := make([]echo.Map, 0, len(ps))
    for _, p := range ps {
        out = append(out, pacienteJSON(p))
    }
    return out
}

// Listar answers the user's active patients.
func (h *PacienteHandler) Listar(c echo.Context) error {
    claims, ok := usuarioActual(c)
    if !ok {
        return noAutenticado(c)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    ps, err := h.Pacientes.ObtenerTodos(ctx, claims.ID)
    if err != nil {
        return errorInterno(c, "Error al obtener pacientes", err)
    }
    return c.JSON(http.StatusOK, pacientesJSON(ps))
}

// Buscar filters by the ?termino= query against nombre, apellido and dni.
// An empty term behaves like Listar.
func (h *PacienteHandler) Buscar(c echo.Context) error {
    claims, ok := usuarioActual(c)
    if !ok {
        return noAutenticado(c)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    termino := strings.TrimSpace(c.QueryParam("termino"))
    if termino == "" {
        termino = strings.TrimSpace(c.QueryParam("buscar"))
    }
    var (
        ps  []model.Paciente
        err error
    )
    if termino == "" {
        ps, err = h.Pacientes.ObtenerTodos(ctx, claims.ID)
    } else {
        ps, err = h.Pacientes.Buscar(ctx, termino, claims.ID)
    }
    if err != nil {
        return errorInterno(c, "Error al buscar pacientes", err)
    }
    return c.JSON(http.StatusOK, pacientesJSON(ps))
}

// Obtener answers one patient by id.
func (h *PacienteHandler) Obtener(c echo.Context) error {
    claims, ok := usuarioActual(c)
    if !ok {
        return noAutenticado(c)
    }
    id, ok := idParam(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "ID inválido"})
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    p, err := h.Pacientes.BuscarPorID(ctx, id, claims.ID)
    if err != nil {
        if errors.Is(err, repository.ErrNoEncontrado) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "Paciente no encontrado"})
        }
        return errorInterno(c, "Error al obtener paciente", err)
    }
    return c.JSON(http.StatusOK, pacienteJSON(p))
}

// PorDNI answers one patient by exact DNI, used by the appointment screen
// to link a walk-in to an existing record.
func (h *PacienteHandler) PorDNI(c echo.Context) error {
    claims, ok := usuarioActual(c)
    if !ok {
        return noAutenticado(c)
    }
    dni := strings.TrimSpace(c.Param("dni"))
    if dni == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "DNI requerido"})
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    p, err := h.Pacientes.BuscarPorDNI(ctx, dni, claims.ID)
    if err != nil {
        if errors.Is(err, repository.ErrNoEncontrado) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "Paciente no encontrado"})
        }
        return errorInterno(c, "Error al buscar paciente", err)
    }
    return c.JSON(http.StatusOK, pacienteJSON(p))
}

// Crear registers a new patient for the authenticated user.
func (h *PacienteHandler) Crear(c echo.Context) error {
    claims, ok := usuarioActual(c)
    if !ok {
        return noAutenticado(c)
    }
    var req pacienteReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "Cuerpo inválido"})
    }
    p, err := req.aModelo()
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "Fecha de nacimiento inválida (formato AAAA-MM-DD)"})
    }
    if p.Nombre == "" || p.Apellido == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "Nombre y apellido son requeridos"})
    }

    ctx, cancel := reqCtx(c)
    defer cancel()

    id, err := h.Pacientes.Crear(ctx, p, claims.ID)
    if err != nil {
        if errors.Is(err, repository.ErrDNIEnUso) {
            return c.JSON(http.StatusConflict, echo.Map{"error": "Paciente ya registrado con este DNI"})
        }
        return errorInterno(c, "Error al crear paciente", err)
    }
    return c.JSON(http.StatusCreated, echo.Map{
        "mensaje":     "Paciente creado exitosamente",
        "id_paciente": id,
    })
}

type pacienteMinimoReq struct {
    Nombre   string `json:"nombre"`
    Apellido string `json:"apellido"`
}

// CrearMinimo registers a patient with only nombre and apellido; the rest of
// the record gets filled in later from the patient screen.
func (h *PacienteHandler) CrearMinimo(c echo.Context) error {
    claims, ok := usuarioActual(c)
    if !ok {
        return noAutenticado(c)
    }
    var req pacienteMinimoReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "Cuerpo inválido"})
    }
    nombre := strings.TrimSpace(req.Nombre)
    apellido := strings.TrimSpace(req.Apellido)
    if nombre == "" || apellido == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "Nombre y apellido son requeridos"})
    }

    ctx, cancel := reqCtx(c)
    defer cancel()

    id, err := h.Pacientes.CrearMinimo(ctx, nombre, apellido, claims.ID)
    if err != nil {
        return errorInterno(c, "Error al crear paciente", err)
    }
    return c.JSON(http.StatusCreated, echo.Map{
        "mensaje":     "Paciente creado exitosamente",
        "id_paciente": id,
    })
}

// Actualizar replaces the editable data of a patient.
func (h *PacienteHandler) Actualizar(c echo.Context) error {
    claims, ok := usuarioActual(c)
    if !ok {
        return noAutenticado(c)
    }
    id, ok := idParam(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "ID inválido"})
    }
    var req pacienteReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "Cuerpo inválido"})
    }
    p, err := req.aModelo()
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "Fecha de nacimiento inválida (formato AAAA-MM-DD)"})
    }
    if p.Nombre == "" || p.Apellido == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "Nombre y apellido son requeridos"})
    }

    ctx, cancel := reqCtx(c)
    defer cancel()

    actualizado, err := h.Pacientes.Actualizar(ctx, id, p, claims.ID)
    if err != nil {
        switch {
        case errors.Is(err, repository.ErrNoEncontrado):
            return c.JSON(http.StatusNotFound, echo.Map{"error": "Paciente no encontrado"})
        case errors.Is(err, repository.ErrDNIEnUso):
            return c.JSON(http.StatusConflict, echo.Map{"error": "Paciente ya registrado con este DNI"})
        }
        return errorInterno(c, "Error al actualizar paciente", err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "mensaje":  "Paciente actualizado exitosamente",
        "paciente": pacienteJSON(actualizado),
    })
}

// Eliminar soft-deletes a patient; its history stays queryable by id.
func (h *PacienteHandler) Eliminar(c echo.Context) error {
    claims, ok := usuarioActual(c)
    if !ok {
        return noAutenticado(c)
    }
    id, ok := idParam(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "ID inválido"})
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    if err := h.Pacientes.Eliminar(ctx, id, claims.ID); err != nil {
        if errors.Is(err, repository.ErrNoEncontrado) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "Paciente no encontrado"})
        }
        return errorInterno(c, "Error al eliminar paciente", err)
    }
    return c.JSON(http.StatusOK, echo.Map{"mensaje": "Paciente eliminado exitosamente"})
}
