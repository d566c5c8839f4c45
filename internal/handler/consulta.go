package handler

import (
    "context"
    "errors"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/historias-clinicas/api/internal/model"
    "github.com/historias-clinicas/api/internal/repository"
)

// ConsultaStore is the consultation surface the handler needs.
type ConsultaStore interface {
    ObtenerTodas(ctx context.Context, idUsuario uint64) ([]model.Consulta, error)
    BuscarPorFecha(ctx context.Context, fecha time.Time, idUsuario uint64) ([]model.Consulta, error)
    ObtenerPorPaciente(ctx context.Context, idPaciente, idUsuario uint64) ([]model.Consulta, error)
    BuscarPorID(ctx context.Context, id, idUsuario uint64) (model.Consulta, error)
    Crear(ctx context.Context, cta model.Consulta, idUsuario uint64) (uint64, error)
    Actualizar(ctx context.Context, id uint64, cta model.Consulta, idUsuario uint64) error
    Eliminar(ctx context.Context, id, idUsuario uint64) error
}

// ConsultaHandler serves the /api/consultas endpoints.
type ConsultaHandler struct {
    Consultas ConsultaStore
}

func NewConsultaHandler(consultas ConsultaStore) *ConsultaHandler {
    return &ConsultaHandler{Consultas: consultas}
}

type consultaReq struct {
    IDPaciente     uint64  `json:"id_paciente"`
    Fecha          *string `json:"fecha"`
    Hora           *string `json:"hora"`
    MotivoConsulta string  `json:"motivo_consulta"`
    InformeMedico  *string `json:"informe_medico"`
    Diagnostico    *string `json:"diagnostico"`
    Tratamiento    *string `json:"tratamiento"`
    Estudios       *string `json:"estudios"`
    ArchivoAdjunto *string `json:"archivo_adjunto"`
}

func (req consultaReq) aModelo() (model.Consulta, error) {
    fecha, err := parseFecha(req.Fecha)
    if err != nil {
        return model.Consulta{}, err
    }
    return model.Consulta{
        IDPaciente:     req.IDPaciente,
        Fecha:          fecha,
        Hora:           limpiar(req.Hora),
        MotivoConsulta: strings.TrimSpace(req.MotivoConsulta),
        InformeMedico:  limpiar(req.InformeMedico),
        Diagnostico:    limpiar(req.Diagnostico),
        Tratamiento:    limpiar(req.Tratamiento),
        Estudios:       limpiar(req.Estudios),
        ArchivoAdjunto: limpiar(req.ArchivoAdjunto),
    }, nil
}

func consultaJSON(cta model.Consulta) echo.Map {
    return echo.Map{
        "id_consulta":       cta.ID,
        "id_paciente":       cta.IDPaciente,
        "fecha":             fmtFecha(cta.Fecha),
        "hora":              cta.Hora,
        "motivo_consulta":   cta.MotivoConsulta,
        "informe_medico":    cta.InformeMedico,
        "diagnostico":       cta.Diagnostico,
        "tratamiento":       cta.Tratamiento,
        "estudios":          cta.Estudios,
        "archivo_adjunto":   cta.ArchivoAdjunto,
        "fecha_creacion":    cta.FechaCreacion,
        "paciente_nombre":   cta.PacienteNombre,
        "paciente_apellido": cta.PacienteApellido,
    }
}

func consultasJSON(cs []model.Consulta) []echo.Map {
    out := make([]echo.Map, 0, len(cs))
    for _, cta := range cs {
        out = append(out, consultaJSON(cta))
    }
    return out
}

// Listar answers the user's consultations. ?fecha=AAAA-MM-DD narrows to one
// day, ?paciente= to one patient.
func (h *ConsultaHandler) Listar(c echo.Context) error {
    claims, ok := usuarioActual(c)
    if !ok {
        return noAutenticado(c)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    if p := strings.TrimSpace(c.QueryParam("paciente")); p != "" {
        idPaciente, err := strconv.ParseUint(p, 10, 64)
        if err != nil || idPaciente == 0 {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "ID de paciente inválido"})
        }
        cs, err := h.Consultas.ObtenerPorPaciente(ctx, idPaciente, claims.ID)
        if err != nil {
            return errorInterno(c, "Error al obtener consultas", err)
        }
        return c.JSON(http.StatusOK, consultasJSON(cs))
    }

    if f := strings.TrimSpace(c.QueryParam("fecha")); f != "" {
        fecha, err := parseFecha(&f)
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "Fecha inválida (formato AAAA-MM-DD)"})
        }
        cs, err := h.Consultas.BuscarPorFecha(ctx, *fecha, claims.ID)
        if err != nil {
            return errorInterno(c, "Error al obtener consultas", err)
        }
        return c.JSON(http.StatusOK, consultasJSON(cs))
    }

    cs, err := h.Consultas.ObtenerTodas(ctx, claims.ID)
    if err != nil {
        return errorInterno(c, "Error al obtener consultas", err)
    }
    return c.JSON(http.StatusOK, consultasJSON(cs))
}

// PorPaciente answers the consultation history of one patient.
func (h *ConsultaHandler) PorPaciente(c echo.Context) error {
    claims, ok := usuarioActual(c)
    if !ok {
        return noAutenticado(c)
    }
    idPaciente, ok := idParam(c, "id_paciente")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "ID inválido"})
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    cs, err := h.Consultas.ObtenerPorPaciente(ctx, idPaciente, claims.ID)
    if err != nil {
        return errorInterno(c, "Error al obtener consultas del paciente", err)
    }
    return c.JSON(http.StatusOK, consultasJSON(cs))
}

// Obtener answers one consultation by id.
func (h *ConsultaHandler) Obtener(c echo.Context) error {
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

    cta, err := h.Consultas.BuscarPorID(ctx, id, claims.ID)
    if err != nil {
        if errors.Is(err, repository.ErrNoEncontrado) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "Consulta no encontrada"})
        }
        return errorInterno(c, "Error al obtener consulta", err)
    }
    return c.JSON(http.StatusOK, consultaJSON(cta))
}

// Crear records a consultation. The date defaults to today at the database
// when omitted.
func (h *ConsultaHandler) Crear(c echo.Context) error {
    claims, ok := usuarioActual(c)
    if !ok {
        return noAutenticado(c)
    }
    var req consultaReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "Cuerpo inválido"})
    }
    cta, err := req.aModelo()
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "Fecha inválida (formato AAAA-MM-DD)"})
    }
    if cta.IDPaciente == 0 || cta.MotivoConsulta == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "Paciente y motivo de consulta son requeridos"})
    }

    ctx, cancel := reqCtx(c)
    defer cancel()

    id, err := h.Consultas.Crear(ctx, cta, claims.ID)
    if err != nil {
        return errorInterno(c, "Error al crear consulta", err)
    }
    return c.JSON(http.StatusCreated, echo.Map{
        "mensaje":     "Consulta creada exitosamente",
        "id_consulta": id,
    })
}

// Actualizar replaces the editable data of a consultation.
func (h *ConsultaHandler) Actualizar(c echo.Context) error {
    claims, ok := usuarioActual(c)
    if !ok {
        return noAutenticado(c)
    }
    id, ok := idParam(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "ID inválido"})
    }
    var req consultaReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "Cuerpo inválido"})
    }
    cta, err := req.aModelo()
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "Fecha inválida (formato AAAA-MM-DD)"})
    }
    if cta.MotivoConsulta == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "El motivo de consulta es requerido"})
    }

    ctx, cancel := reqCtx(c)
    defer cancel()

    if err := h.Consultas.Actualizar(ctx, id, cta, claims.ID); err != nil {
        if errors.Is(err, repository.ErrNoEncontrado) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "Consulta no encontrada"})
        }
        return errorInterno(c, "Error al actualizar consulta", err)
    }
    return c.JSON(http.StatusOK, echo.Map{"mensaje": "Consulta actualizada exitosamente"})
}

// Eliminar removes a consultation.
func (h *ConsultaHandler) Eliminar(c echo.Context) error {
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

    if err := h.Consultas.Eliminar(ctx, id, claims.ID); err != nil {
        if errors.Is(err, repository.ErrNoEncontrado) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "Consulta no encontrada"})
        }
        return errorInterno(c, "Error al eliminar consulta", err)
    }
    return c.JSON(http.StatusOK, echo.Map{"mensaje": "Consulta eliminada exitosamente"})
}
