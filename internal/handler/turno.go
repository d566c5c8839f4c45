package handler

import (
    "context"
    "errors"
    "log"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/historias-clinicas/api/internal/model"
    "github.com/historias-clinicas/api/internal/repository"
)

// TurnoStore is the appointment surface the handler needs.
type TurnoStore interface {
    ObtenerTodos(ctx context.Context, idUsuario uint64) ([]model.Turno, error)
    ObtenerHoy(ctx context.Context, idUsuario uint64) ([]model.Turno, error)
    ObtenerPorDia(ctx context.Context, dia time.Time, idUsuario uint64) ([]model.Turno, error)
    ObtenerPorPaciente(ctx context.Context, idPaciente, idUsuario uint64) ([]model.Turno, error)
    BuscarPorID(ctx context.Context, id, idUsuario uint64) (model.Turno, error)
    Crear(ctx context.Context, t model.Turno, idUsuario uint64) (uint64, error)
    Actualizar(ctx context.Context, id uint64, t model.Turno, idUsuario uint64) error
    ActualizarSituacion(ctx context.Context, id uint64, situacion string, idUsuario uint64) error
    Eliminar(ctx context.Context, id, idUsuario uint64) error
}

// RegistradorPacientes creates the minimal patient record behind the
// "registrar paciente" checkbox of the appointment screen.
type RegistradorPacientes interface {
    CrearMinimo(ctx context.Context, nombre, apellido string, idUsuario uint64) (uint64, error)
}

// TurnoHandler serves the /api/turnos endpoints.
type TurnoHandler struct {
    Turnos    TurnoStore
    Pacientes RegistradorPacientes
}

func NewTurnoHandler(turnos TurnoStore, pacientes RegistradorPacientes) *TurnoHandler {
    return &TurnoHandler{Turnos: turnos, Pacientes: pacientes}
}

// situacionesValidas is the closed state set of a turno.
var situacionesValidas = map[string]bool{
    "pendiente": true,
    "atendido":  true,
    "ausente":   true,
    "cancelado": true,
}

type turnoReq struct {
    IDPaciente          *uint64 `json:"id_paciente"`
    PacienteNombreTmp   *string `json:"paciente_nombre_tmp"`
    PacienteApellidoTmp *string `json:"paciente_apellido_tmp"`
    RegistrarPaciente   bool    `json:"registrar_paciente"`
    Dia                 string  `json:"dia"`
    Horario             string  `json:"horario"`
    Cobertura           *string `json:"cobertura"`
    Situacion           string  `json:"situacion"`
    Detalle             *string `json:"detalle"`
    PrimeraVez          bool    `json:"primera_vez"`
}

type situacionReq struct {
    Situacion string `json:"situacion"`
}

func turnoJSON(t model.Turno) echo.Map {
    return echo.Map{
        "id_turno":              t.ID,
        "id_paciente":           t.IDPaciente,
        "paciente_nombre_tmp":   t.PacienteNombreTmp,
        "paciente_apellido_tmp": t.PacienteApellidoTmp,
        "dia":                   t.Dia.Format(fechaISO),
        "horario":               t.Horario,
        "cobertura":             t.Cobertura,
        "situacion":             t.Situacion,
        "detalle":               t.Detalle,
        "primera_vez":           t.PrimeraVez,
        "fecha_creacion":        t.FechaCreacion,
        "paciente_nombre":       t.PacienteNombre,
        "paciente_apellido":     t.PacienteApellido,
    }
}

func turnosJSON(ts []model.Turno) []echo.Map {
    out := make([]echo.Map, 0, len(ts))
    for _, t := range ts {
        out = append(out, turnoJSON(t))
    }
    return out
}

// Listar answers the user's appointments. ?dia=AAAA-MM-DD narrows to one
// day (?dia=hoy is a shorthand for the current date), ?paciente= to one
// registered patient.
func (h *TurnoHandler) Listar(c echo.Context) error {
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
        ts, err := h.Turnos.ObtenerPorPaciente(ctx, idPaciente, claims.ID)
        if err != nil {
            return errorInterno(c, "Error al obtener turnos", err)
        }
        return c.JSON(http.StatusOK, turnosJSON(ts))
    }

    dia := strings.TrimSpace(c.QueryParam("dia"))
    var (
        ts  []model.Turno
        err error
    )
    switch {
    case strings.EqualFold(c.QueryParam("hoy"), "true"):
        ts, err = h.Turnos.ObtenerHoy(ctx, claims.ID)
    case dia == "":
        ts, err = h.Turnos.ObtenerTodos(ctx, claims.ID)
    case strings.EqualFold(dia, "hoy"):
        ts, err = h.Turnos.ObtenerHoy(ctx, claims.ID)
    default:
        fecha, perr := parseFecha(&dia)
        if perr != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "Día inválido (formato AAAA-MM-DD)"})
        }
        ts, err = h.Turnos.ObtenerPorDia(ctx, *fecha, claims.ID)
    }
    if err != nil {
        return errorInterno(c, "Error al obtener turnos", err)
    }
    return c.JSON(http.StatusOK, turnosJSON(ts))
}

// Hoy answers today's appointments, the agenda the frontend opens with.
func (h *TurnoHandler) Hoy(c echo.Context) error {
    claims, ok := usuarioActual(c)
    if !ok {
        return noAutenticado(c)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    ts, err := h.Turnos.ObtenerHoy(ctx, claims.ID)
    if err != nil {
        return errorInterno(c, "Error al obtener turnos de hoy", err)
    }
    return c.JSON(http.StatusOK, turnosJSON(ts))
}

// PorDia answers the appointments of one calendar day taken from the path.
func (h *TurnoHandler) PorDia(c echo.Context) error {
    claims, ok := usuarioActual(c)
    if !ok {
        return noAutenticado(c)
    }
    dia, err := time.Parse(fechaISO, strings.TrimSpace(c.Param("dia")))
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "Día inválido (formato AAAA-MM-DD)"})
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    ts, err := h.Turnos.ObtenerPorDia(ctx, dia, claims.ID)
    if err != nil {
        return errorInterno(c, "Error al obtener turnos", err)
    }
    return c.JSON(http.StatusOK, turnosJSON(ts))
}

// PorPaciente answers the appointment history of one registered patient.
func (h *TurnoHandler) PorPaciente(c echo.Context) error {
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

    ts, err := h.Turnos.ObtenerPorPaciente(ctx, idPaciente, claims.ID)
    if err != nil {
        return errorInterno(c, "Error al obtener turnos del paciente", err)
    }
    return c.JSON(http.StatusOK, turnosJSON(ts))
}

// Obtener answers one appointment by id.
func (h *TurnoHandler) Obtener(c echo.Context) error {
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

    t, err := h.Turnos.BuscarPorID(ctx, id, claims.ID)
    if err != nil {
        if errors.Is(err, repository.ErrNoEncontrado) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "Turno no encontrado"})
        }
        return errorInterno(c, "Error al obtener turno", err)
    }
    return c.JSON(http.StatusOK, turnoJSON(t))
}

// aModelo validates the request and builds the turno. When the request names
// a walk-in and asks to register it, a minimal patient record is created and
// linked; otherwise the temporary name pair travels on the turno itself.
func (h *TurnoHandler) aModelo(ctx context.Context, req turnoReq, idUsuario uint64) (model.Turno, string) {
    dia, err := time.Parse(fechaISO, strings.TrimSpace(req.Dia))
    if err != nil {
        return model.Turno{}, "Día inválido (formato AAAA-MM-DD)"
    }
    horario := strings.TrimSpace(req.Horario)
    if horario == "" {
        return model.Turno{}, "El horario es requerido"
    }
    situacion := strings.ToLower(strings.TrimSpace(req.Situacion))
    if situacion != "" && !situacionesValidas[situacion] {
        return model.Turno{}, "Situación inválida"
    }

    t := model.Turno{
        IDPaciente:          req.IDPaciente,
        PacienteNombreTmp:   limpiar(req.PacienteNombreTmp),
        PacienteApellidoTmp: limpiar(req.PacienteApellidoTmp),
        Dia:                 dia,
        Horario:             horario,
        Cobertura:           limpiar(req.Cobertura),
        Situacion:           situacion,
        Detalle:             limpiar(req.Detalle),
        PrimeraVez:          req.PrimeraVez,
    }

    if t.IDPaciente == nil && (t.PacienteNombreTmp == nil || t.PacienteApellidoTmp == nil) {
        return model.Turno{}, "Si no se especifica paciente, se requieren nombre y apellido"
    }

    if t.IDPaciente == nil && req.RegistrarPaciente && h.Pacientes != nil {
        id, err := h.Pacientes.CrearMinimo(ctx, *t.PacienteNombreTmp, *t.PacienteApellidoTmp, idUsuario)
        if err != nil {
            // The turno still goes through with the temporary name pair.
            log.Printf("no se pudo registrar el paciente del turno: %v", err)
        } else {
            t.IDPaciente = &id
            t.PacienteNombreTmp = nil
            t.PacienteApellidoTmp = nil
        }
    }
    return t, ""
}

// Crear schedules an appointment.
func (h *TurnoHandler) Crear(c echo.Context) error {
    claims, ok := usuarioActual(c)
    if !ok {
        return noAutenticado(c)
    }
    var req turnoReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "Cuerpo inválido"})
    }

    ctx, cancel := reqCtx(c)
    defer cancel()

    t, msg := h.aModelo(ctx, req, claims.ID)
    if msg != "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
    }

    id, err := h.Turnos.Crear(ctx, t, claims.ID)
    if err != nil {
        return errorInterno(c, "Error al crear turno", err)
    }
    return c.JSON(http.StatusCreated, echo.Map{
        "mensaje":  "Turno creado exitosamente",
        "id_turno": id,
    })
}

// Actualizar replaces the editable data of an appointment.
func (h *TurnoHandler) Actualizar(c echo.Context) error {
    claims, ok := usuarioActual(c)
    if !ok {
        return noAutenticado(c)
    }
    id, ok := idParam(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "ID inválido"})
    }
    var req turnoReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "Cuerpo inválido"})
    }

    ctx, cancel := reqCtx(c)
    defer cancel()

    t, msg := h.aModelo(ctx, req, claims.ID)
    if msg != "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
    }

    if err := h.Turnos.Actualizar(ctx, id, t, claims.ID); err != nil {
        if errors.Is(err, repository.ErrNoEncontrado) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "Turno no encontrado"})
        }
        return errorInterno(c, "Error al actualizar turno", err)
    }
    return c.JSON(http.StatusOK, echo.Map{"mensaje": "Turno actualizado exitosamente"})
}

// CambiarSituacion changes only the state of an appointment.
func (h *TurnoHandler) CambiarSituacion(c echo.Context) error {
    claims, ok := usuarioActual(c)
    if !ok {
        return noAutenticado(c)
    }
    id, ok := idParam(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "ID inválido"})
    }
    var req situacionReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "Cuerpo inválido"})
    }
    situacion := strings.ToLower(strings.TrimSpace(req.Situacion))
    if !situacionesValidas[situacion] {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "Situación inválida"})
    }

    ctx, cancel := reqCtx(c)
    defer cancel()

    if err := h.Turnos.ActualizarSituacion(ctx, id, situacion, claims.ID); err != nil {
        if errors.Is(err, repository.ErrNoEncontrado) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "Turno no encontrado"})
        }
        return errorInterno(c, "Error al actualizar situación", err)
    }
    return c.JSON(http.StatusOK, echo.Map{"mensaje": "Situación actualizada exitosamente"})
}

// Eliminar removes an appointment.
func (h *TurnoHandler) Eliminar(c echo.Context) error {
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

    if err := h.Turnos.Eliminar(ctx, id, claims.ID); err != nil {
        if errors.Is(err, repository.ErrNoEncontrado) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "Turno no encontrado"})
        }
        return errorInterno(c, "Error al eliminar turno", err)
    }
    return c.JSON(http.StatusOK, echo.Map{"mensaje": "Turno eliminado exitosamente"})
}
