// Package sunat implementa la tubería de emisión de comprobantes electrónicos:
// construcción UBL, firma XMLDSig, empaquetado ZIP, transporte SOAP/REST y
// parseo de la constancia de recepción (CDR).
package sunat

import (
	"errors"
	"fmt"
)

// Clases de error de la tubería. Determinan la política de reintento:
//   - configuración: fatal, nunca se reintenta
//   - transporte:    transitorio, reintento acotado
//   - rechazo:       respuesta de negocio de SUNAT, nunca se reintenta
//   - respuesta:     SUNAT respondió algo imposible de interpretar, no se reintenta
var (
	ErrConfiguracion = errors.New("error de configuración")
	ErrTransporte    = errors.New("error de transporte")
	ErrRechazo       = errors.New("comprobante rechazado")
	ErrRespuesta     = errors.New("respuesta no interpretable")
)

// FaultError describe un soap-env:Fault devuelto por SUNAT. Es una respuesta
// de negocio (documento observado o credenciales mal formadas), no un fallo
// de transporte, así que nunca se reintenta.
type FaultError struct {
	Code    string // faultcode (ej. "soap-env:Client.0156")
	Message string // faultstring
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("fault SUNAT %s: %s", e.Code, e.Message)
}

// Unwrap clasifica el fault como rechazo.
func (e *FaultError) Unwrap() error { return ErrRechazo }

// RechazoCDRError describe un CDR cuyo ResponseCode no es "0".
type RechazoCDRError struct {
	Codigo      string
	Descripcion string
	Notas       []string
}

func (e *RechazoCDRError) Error() string {
	return fmt.Sprintf("CDR de rechazo [%s]: %s", e.Codigo, e.Descripcion)
}

func (e *RechazoCDRError) Unwrap() error { return ErrRechazo }

// TransporteError envuelve fallos de red o HTTP no-2xx al hablar con SUNAT.
type TransporteError struct {
	Op     string // operación SOAP/REST que falló
	Status int    // código HTTP si lo hubo, 0 si el fallo fue de red
	Err    error
}

func (e *TransporteError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: HTTP %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransporteError) Unwrap() error { return ErrTransporte }

// TimeoutConsultaError indica que se agotaron los intentos de consulta de un
// ticket sin respuesta terminal. No implica rechazo: el proceso puede seguir
// corriendo en SUNAT.
type TimeoutConsultaError struct {
	Ticket   string
	Intentos int
}

func (e *TimeoutConsultaError) Error() string {
	return fmt.Sprintf("ticket %s sin respuesta terminal tras %d consultas", e.Ticket, e.Intentos)
}

func (e *TimeoutConsultaError) Unwrap() error { return ErrTransporte }
