package soap

import (
	"context"
	"errors"
	"time"

	"github.com/jhoicas/Facturacion-api/internal/infrastructure/sunat"
)

// RetryPolicy gobierna los reintentos de una operación contra SUNAT.
// Solo se reintenta lo que Reintentable acepte; un fault de negocio o un CDR
// de rechazo jamás se reintenta.
type RetryPolicy struct {
	MaxIntentos  int
	Backoff      func(intento int) time.Duration
	Reintentable func(error) bool
}

// DefaultRetryPolicy reproduce el comportamiento probado contra el servicio:
// hasta 5 intentos con backoff lineal de 20 s por intento, reintentando
// únicamente los 401 intermitentes del balanceador de SUNAT.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxIntentos: 5,
		Backoff: func(intento int) time.Duration {
			return time.Duration(intento) * 20 * time.Second
		},
		Reintentable: EsAuthIntermitente,
	}
}

// EsAuthIntermitente reconoce el 401 espurio del servicio: un error de
// transporte con status 401. Un soap-env:Fault con credenciales inválidas
// llega como FaultError y no pasa por aquí.
func EsAuthIntermitente(err error) bool {
	var te *sunat.TransporteError
	if errors.As(err, &te) {
		return te.Status == 401
	}
	return false
}

// Ejecutar corre fn hasta MaxIntentos veces. Devuelve el último error si se
// agotan los intentos o el primero no reintentable.
func (p RetryPolicy) Ejecutar(ctx context.Context, fn func(intento int) error) error {
	var lastErr error
	for intento := 1; intento <= p.MaxIntentos; intento++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = fn(intento)
		if lastErr == nil {
			return nil
		}
		if p.Reintentable == nil || !p.Reintentable(lastErr) {
			return lastErr
		}
		if intento == p.MaxIntentos {
			break
		}
		if p.Backoff != nil {
			d := p.Backoff(intento)
			if d > 0 {
				t := time.NewTimer(d)
				select {
				case <-ctx.Done():
					t.Stop()
					return ctx.Err()
				case <-t.C:
				}
			}
		}
	}
	return lastErr
}
