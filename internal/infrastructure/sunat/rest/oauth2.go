package rest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/jhoicas/Facturacion-api/internal/infrastructure/sunat"
)

const (
	// SeguridadBaseURL es el host del servicio de tokens de SUNAT.
	SeguridadBaseURL = "https://api-seguridad.sunat.gob.pe"

	// ScopeCPE es el scope requerido por las APIs de comprobantes.
	ScopeCPE = "https://api-cpe.sunat.gob.pe"

	// margenExpiracion descuenta tiempo al expires_in reportado para no usar
	// tokens al borde de su vencimiento.
	margenExpiracion = 60 * time.Second
)

// Credenciales agrupa lo necesario para pedir un token con clave SOL.
type Credenciales struct {
	Env          string // beta | prod
	ClientID     string
	ClientSecret string // opcional en beta, obligatorio en prod
	Username     string // RUC + usuario SOL
	Password     string
}

// TokenSource obtiene y cachea tokens OAuth2 del servicio de seguridad de
// SUNAT mediante el flujo password con credenciales SOL.
type TokenSource struct {
	baseURL string
	creds   Credenciales
	http    *resty.Client

	mu     sync.Mutex
	token  string
	expira time.Time
	ahora  func() time.Time
}

// NewTokenSource valida las credenciales y construye la fuente de tokens.
func NewTokenSource(creds Credenciales) (*TokenSource, error) {
	if creds.ClientID == "" {
		return nil, fmt.Errorf("%w: falta client_id para el API de SUNAT", sunat.ErrConfiguracion)
	}
	if creds.Username == "" || creds.Password == "" {
		return nil, fmt.Errorf("%w: faltan credenciales SOL para el API de SUNAT", sunat.ErrConfiguracion)
	}
	// En beta SUNAT emite tokens sin secret. En producción su ausencia
	// produce rechazos crípticos, mejor fallar en el arranque.
	if creds.Env == "prod" && creds.ClientSecret == "" {
		return nil, fmt.Errorf("%w: client_secret es obligatorio en producción", sunat.ErrConfiguracion)
	}
	return &TokenSource{
		baseURL: SeguridadBaseURL,
		creds:   creds,
		http:    resty.New().SetTimeout(30 * time.Second),
		ahora:   time.Now,
	}, nil
}

// SetBaseURL reemplaza el host del servicio de tokens (tests).
func (ts *TokenSource) SetBaseURL(url string) { ts.baseURL = strings.TrimSuffix(url, "/") }

type tokenRespuesta struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// Token devuelve un token vigente, pidiendo uno nuevo solo cuando el cacheado
// expiró o está por expirar.
func (ts *TokenSource) Token(ctx context.Context) (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.token != "" && ts.ahora().Before(ts.expira) {
		return ts.token, nil
	}

	form := map[string]string{
		"grant_type": "password",
		"scope":      ScopeCPE,
		"client_id":  ts.creds.ClientID,
		"username":   ts.creds.Username,
		"password":   ts.creds.Password,
	}
	if ts.creds.ClientSecret != "" {
		form["client_secret"] = ts.creds.ClientSecret
	}

	var parsed tokenRespuesta
	resp, err := ts.http.R().
		SetContext(ctx).
		SetFormData(form).
		SetResult(&parsed).
		Post(fmt.Sprintf("%s/v1/clientessol/%s/oauth2/token", ts.baseURL, ts.creds.ClientID))
	if err != nil {
		return "", &sunat.TransporteError{Op: "oauth2", Err: err}
	}
	if resp.IsError() {
		return "", &sunat.TransporteError{Op: "oauth2", Status: resp.StatusCode(),
			Err: fmt.Errorf("token rechazado: %s", strings.TrimSpace(resp.String()))}
	}
	if parsed.AccessToken == "" {
		return "", fmt.Errorf("%w: el servicio de tokens no devolvió access_token", sunat.ErrRespuesta)
	}

	ts.token = parsed.AccessToken
	ts.expira = ts.ahora().Add(time.Duration(parsed.ExpiresIn)*time.Second - margenExpiracion)
	return ts.token, nil
}

// Invalidar descarta el token cacheado. Se usa cuando el API responde 401
// pese a tener un token vigente.
func (ts *TokenSource) Invalidar() {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.token = ""
	ts.expira = time.Time{}
}

// TokenCache mantiene una fuente de tokens por juego de credenciales. En un
// despliegue multiempresa cada empresa trae su propio client_id y usuario
// SOL.
type TokenCache struct {
	mu      sync.Mutex
	fuentes map[string]*TokenSource
}

func NewTokenCache() *TokenCache {
	return &TokenCache{fuentes: make(map[string]*TokenSource)}
}

// Fuente devuelve la fuente de tokens para las credenciales dadas, creándola
// si no existe.
func (c *TokenCache) Fuente(creds Credenciales) (*TokenSource, error) {
	llave := creds.Env + "|" + creds.ClientID + "|" + creds.Username

	c.mu.Lock()
	defer c.mu.Unlock()
	if ts, ok := c.fuentes[llave]; ok {
		return ts, nil
	}
	ts, err := NewTokenSource(creds)
	if err != nil {
		return nil, err
	}
	c.fuentes[llave] = ts
	return ts, nil
}
