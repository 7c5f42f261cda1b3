package rest

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/jhoicas/Facturacion-api/internal/infrastructure/sunat"
)

// CPEBaseURL es el host del API de comprobantes de pago electrónicos, que
// incluye el servicio de guías de remisión (GRE).
const CPEBaseURL = "https://api-cpe.sunat.gob.pe"

const (
	codAceptado  = "0"
	codEnProceso = "98"
)

// TokenProvider entrega tokens OAuth2 vigentes.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
	Invalidar()
}

// ResultadoEnvio es el estado de un envío de guía consultado por ticket.
type ResultadoEnvio struct {
	Codigo  string
	CdrZip  []byte // presente cuando SUNAT generó CDR
	Detalle string
}

// Aceptado indica que SUNAT aceptó la guía.
func (r *ResultadoEnvio) Aceptado() bool { return r.Codigo == codAceptado }

// EnProceso indica que el envío sigue en cola.
func (r *ResultadoEnvio) EnProceso() bool { return r.Codigo == codEnProceso }

// GREClient envía guías de remisión por el canal REST moderno de SUNAT:
// multipart con el ZIP firmado y consulta de resultado por ticket.
type GREClient struct {
	baseURL string
	tokens  TokenProvider
	http    *resty.Client

	// Parámetros de sondeo de ConsultarHastaCDR.
	PollIntentos int
	PollEspera   time.Duration
}

// NewGREClient construye el cliente GRE sobre el API de comprobantes.
func NewGREClient(tokens TokenProvider) *GREClient {
	return &GREClient{
		baseURL:      CPEBaseURL,
		tokens:       tokens,
		http:         resty.New().SetTimeout(60 * time.Second),
		PollIntentos: 10,
		PollEspera:   2 * time.Second,
	}
}

// SetBaseURL reemplaza el host del API (tests).
func (c *GREClient) SetBaseURL(url string) { c.baseURL = strings.TrimSuffix(url, "/") }

type envioRespuesta struct {
	NumTicket    string `json:"numTicket"`
	FecRecepcion string `json:"fecRecepcion"`
}

type consultaRespuesta struct {
	CodRespuesta   string `json:"codRespuesta"`
	ArcCdr         string `json:"arcCdr"`
	IndCdrGenerado string `json:"indCdrGenerado"`
	Error          *struct {
		NumError string `json:"numError"`
		DesError string `json:"desError"`
	} `json:"error"`
}

// Enviar entrega el ZIP de una guía firmada y devuelve el ticket asignado.
func (c *GREClient) Enviar(ctx context.Context, fileName string, zipBytes []byte) (string, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return "", err
	}

	var parsed envioRespuesta
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetMultipartField("archivo", fileName, "application/zip", bytes.NewReader(zipBytes)).
		SetResult(&parsed).
		Post(fmt.Sprintf("%s/v1/contribuyente/gem/comprobantes/%s", c.baseURL, fileName))
	if err != nil {
		return "", &sunat.TransporteError{Op: "gre.enviar", Err: err}
	}
	if resp.StatusCode() == 401 {
		c.tokens.Invalidar()
		return "", &sunat.TransporteError{Op: "gre.enviar", Status: 401,
			Err: fmt.Errorf("token rechazado por el API")}
	}
	if resp.IsError() {
		return "", &sunat.TransporteError{Op: "gre.enviar", Status: resp.StatusCode(),
			Err: fmt.Errorf("%s", strings.TrimSpace(resp.String()))}
	}
	if parsed.NumTicket == "" {
		return "", fmt.Errorf("%w: el API no devolvió numTicket", sunat.ErrRespuesta)
	}
	return parsed.NumTicket, nil
}

// Consultar pide el estado de un envío por ticket. Un código terminal
// distinto de aceptado se devuelve como rechazo.
func (c *GREClient) Consultar(ctx context.Context, ticket string) (*ResultadoEnvio, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	var parsed consultaRespuesta
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetResult(&parsed).
		Get(fmt.Sprintf("%s/v1/contribuyente/gem/comprobantes/envios/%s", c.baseURL, ticket))
	if err != nil {
		return nil, &sunat.TransporteError{Op: "gre.consultar", Err: err}
	}
	if resp.StatusCode() == 401 {
		c.tokens.Invalidar()
		return nil, &sunat.TransporteError{Op: "gre.consultar", Status: 401,
			Err: fmt.Errorf("token rechazado por el API")}
	}
	if resp.IsError() {
		return nil, &sunat.TransporteError{Op: "gre.consultar", Status: resp.StatusCode(),
			Err: fmt.Errorf("%s", strings.TrimSpace(resp.String()))}
	}

	resultado := &ResultadoEnvio{Codigo: strings.TrimSpace(parsed.CodRespuesta)}
	if parsed.Error != nil {
		resultado.Detalle = strings.TrimSpace(parsed.Error.NumError + " " + parsed.Error.DesError)
	}
	if parsed.ArcCdr != "" && parsed.IndCdrGenerado == "1" {
		cdrZip, err := base64.StdEncoding.DecodeString(parsed.ArcCdr)
		if err != nil {
			return nil, fmt.Errorf("%w: arcCdr no es base64: %v", sunat.ErrRespuesta, err)
		}
		resultado.CdrZip = cdrZip
	}
	return resultado, nil
}

// ConsultarHastaCDR sondea el ticket hasta obtener un resultado terminal. Si
// tras agotar los intentos el envío sigue en proceso devuelve un error de
// timeout que conserva el ticket para reanudar la consulta después.
func (c *GREClient) ConsultarHastaCDR(ctx context.Context, ticket string) (*ResultadoEnvio, error) {
	for intento := 1; intento <= c.PollIntentos; intento++ {
		resultado, err := c.Consultar(ctx, ticket)
		if err != nil {
			return nil, err
		}
		if !resultado.EnProceso() {
			return resultado, nil
		}

		espera := time.NewTimer(c.PollEspera)
		select {
		case <-ctx.Done():
			espera.Stop()
			return nil, ctx.Err()
		case <-espera.C:
		}
	}
	return nil, &sunat.TimeoutConsultaError{Ticket: ticket, Intentos: c.PollIntentos}
}
