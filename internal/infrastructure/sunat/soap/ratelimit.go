package soap

import (
	"context"
	"sync"
	"time"
)

// RateLimiter espacia las llamadas al billService. SUNAT penaliza ráfagas:
// sin estas esperas el servicio responde 401 de forma intermitente.
//
// Reglas:
//   - DelayInicial se espera siempre antes del primer intento de cada envío.
//   - EspaciadoMin es la separación mínima entre intentos consecutivos.
//   - Cooldown es la separación mínima tras un envío exitoso (beta es mucho
//     más estricto que producción).
type RateLimiter struct {
	DelayInicial time.Duration
	EspaciadoMin time.Duration
	Cooldown     time.Duration

	mu            sync.Mutex
	ultimoIntento time.Time
	ultimoExito   time.Time
}

// NewRateLimiter devuelve el limitador con los tiempos del entorno.
func NewRateLimiter(env string) *RateLimiter {
	cooldown := 5 * time.Second
	if env == EnvBeta {
		cooldown = 120 * time.Second
	}
	return &RateLimiter{
		DelayInicial: 3 * time.Second,
		EspaciadoMin: 10 * time.Second,
		Cooldown:     cooldown,
	}
}

// EsperaAntesDeIntento calcula cuánto falta esperar en el instante now para
// poder lanzar un intento. Función pura sobre el estado registrado.
func (r *RateLimiter) EsperaAntesDeIntento(now time.Time) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	espera := r.DelayInicial
	if !r.ultimoIntento.IsZero() {
		if d := r.EspaciadoMin - now.Sub(r.ultimoIntento); d > espera {
			espera = d
		}
	}
	if !r.ultimoExito.IsZero() {
		if d := r.Cooldown - now.Sub(r.ultimoExito); d > espera {
			espera = d
		}
	}
	if espera < 0 {
		return 0
	}
	return espera
}

// Esperar duerme lo que indique EsperaAntesDeIntento, respetando el contexto,
// y registra el intento.
func (r *RateLimiter) Esperar(ctx context.Context) error {
	d := r.EsperaAntesDeIntento(time.Now())
	if d > 0 {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	r.RegistrarIntento(time.Now())
	return nil
}

// RegistrarIntento marca el instante del último intento.
func (r *RateLimiter) RegistrarIntento(t time.Time) {
	r.mu.Lock()
	r.ultimoIntento = t
	r.mu.Unlock()
}

// RegistrarExito marca el instante del último envío aceptado; activa el cooldown.
func (r *RateLimiter) RegistrarExito(t time.Time) {
	r.mu.Lock()
	r.ultimoExito = t
	r.mu.Unlock()
}
