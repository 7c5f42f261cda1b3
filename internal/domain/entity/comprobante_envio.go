package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de envío a SUNAT.
const (
	EnvioStatusFirmado   = "FIRMADO"   // XML firmado, pendiente de envío
	EnvioStatusEnviado   = "ENVIADO"   // enviado, respuesta pendiente (ticket)
	EnvioStatusAceptado  = "ACEPTADO"  // CDR con ResponseCode "0"
	EnvioStatusRechazado = "RECHAZADO" // CDR de rechazo o fault de negocio
	EnvioStatusError     = "ERROR"     // error de transporte o de generación
)

// ComprobanteEnvio registra el resultado de un envío a SUNAT (auditoría).
// FileName sigue la convención SUNAT: {ruc}-{tipo}-{serie}-{correlativo}
// (o {ruc}-RA-{fecha}-{correlativo} para bajas, RC para resúmenes).
type ComprobanteEnvio struct {
	ID           string
	EmpresaID    string
	TipoDoc      string // Catálogo 01 ("01", "03", "09"...) o "RA"/"RC"
	Serie        string
	Correlativo  string
	FileName     string
	Total        decimal.Decimal
	Estado       string // ver constantes EnvioStatus*
	Ticket       string // ticket de proceso (resumen/baja/GRE), vacío en sendBill
	CdrCodigo    string // cbc:ResponseCode del CDR
	CdrMensaje   string // cbc:Description del CDR
	CdrNotas     string // cbc:Note concatenadas (texto plano)
	ErrorDetalle string // detalle del error de transporte/parseo si Estado=ERROR
	EnviadoAt    time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
