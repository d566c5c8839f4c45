package queue

// CodigoRecuperacionEvent is the message published to the
// 'notificaciones.codigo' queue when a user requests a recovery code. The
// consumer side is responsible for getting the plaintext code to the user;
// only the digest is ever stored in the database.
type CodigoRecuperacionEvent struct {
    Email     string `json:"email"`
    Codigo    string `json:"codigo"`
    ExpiraEn  string `json:"expira_en"`
    EmitidoEn string `json:"emitido_en"`
}

// ColaNotificaciones is the durable queue both ends agree on.
const ColaNotificaciones = "notificaciones.codigo"
