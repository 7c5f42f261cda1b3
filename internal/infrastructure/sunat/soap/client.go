package soap

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jhoicas/Facturacion-api/internal/infrastructure/sunat"
	"github.com/jhoicas/Facturacion-api/pkg/logger"
)

const (
	soapEnvNS = "http://schemas.xmlsoap.org/soap/envelope/"
	serNS     = "http://service.sunat.gob.pe"
)

// StatusTicket es la respuesta de getStatus para procesos por ticket
// (resúmenes, bajas, lotes).
type StatusTicket struct {
	Codigo  string // 0 = procesado con CDR, 98 = en proceso, 99 = procesado con errores
	Mensaje string
	CdrZip  []byte // ZIP del CDR cuando Codigo lo incluye
}

// EnProceso indica que SUNAT aún no termina de procesar el ticket.
func (s *StatusTicket) EnProceso() bool { return s.Codigo == "98" }

// Client habla con un endpoint billService de SUNAT. El esquema de
// autenticación, el limitador y la política de reintentos se inyectan.
type Client struct {
	endpoint string
	auth     AuthHeaderProvider
	limiter  *RateLimiter
	retry    RetryPolicy
	log      *logger.Logger

	// nuevoHTTP crea un cliente HTTP por intento. El balanceador de SUNAT se
	// comporta mejor con conexiones frescas tras un 401 espurio.
	nuevoHTTP func() *http.Client
}

// NewClient construye el cliente SOAP para un endpoint billService.
func NewClient(endpoint string, auth AuthHeaderProvider, limiter *RateLimiter, retry RetryPolicy, log *logger.Logger) *Client {
	return &Client{
		endpoint: normalizarEndpoint(endpoint),
		auth:     auth,
		limiter:  limiter,
		retry:    retry,
		log:      log,
		nuevoHTTP: func() *http.Client {
			return &http.Client{Timeout: 60 * time.Second}
		},
	}
}

// SetHTTPFactory reemplaza la fábrica de clientes HTTP (tests).
func (c *Client) SetHTTPFactory(f func() *http.Client) { c.nuevoHTTP = f }

// SetEndpoint reemplaza el endpoint (tests contra httptest.Server).
func (c *Client) SetEndpoint(url string) { c.endpoint = normalizarEndpoint(url) }

// ── Operaciones ───────────────────────────────────────────────────────────────

// EnviarComprobante ejecuta sendBill: entrega el ZIP del comprobante firmado
// y devuelve el ZIP del CDR (applicationResponse) en bruto.
func (c *Client) EnviarComprobante(ctx context.Context, fileName string, zipBytes []byte) ([]byte, error) {
	body := fmt.Sprintf(`<ser:sendBill><fileName>%s</fileName><contentFile>%s</contentFile></ser:sendBill>`,
		escapar(fileName), base64.StdEncoding.EncodeToString(zipBytes))

	resp, err := c.llamar(ctx, "sendBill", body)
	if err != nil {
		return nil, err
	}
	if resp.Body.SendBill == nil || resp.Body.SendBill.ApplicationResponse == "" {
		return nil, fmt.Errorf("%w: sendBill sin applicationResponse", sunat.ErrRespuesta)
	}
	cdrZip, err := base64.StdEncoding.DecodeString(strings.TrimSpace(resp.Body.SendBill.ApplicationResponse))
	if err != nil {
		return nil, fmt.Errorf("%w: applicationResponse no es base64: %v", sunat.ErrRespuesta, err)
	}
	c.limiter.RegistrarExito(time.Now())
	return cdrZip, nil
}

// EnviarResumen ejecuta sendSummary: entrega el ZIP de un resumen diario o
// una comunicación de baja y devuelve el ticket de proceso.
func (c *Client) EnviarResumen(ctx context.Context, fileName string, zipBytes []byte) (string, error) {
	body := fmt.Sprintf(`<ser:sendSummary><fileName>%s</fileName><contentFile>%s</contentFile></ser:sendSummary>`,
		escapar(fileName), base64.StdEncoding.EncodeToString(zipBytes))

	resp, err := c.llamar(ctx, "sendSummary", body)
	if err != nil {
		return "", err
	}
	if resp.Body.SendSummary == nil || resp.Body.SendSummary.Ticket == "" {
		return "", fmt.Errorf("%w: sendSummary sin ticket", sunat.ErrRespuesta)
	}
	c.limiter.RegistrarExito(time.Now())
	return resp.Body.SendSummary.Ticket, nil
}

// EnviarLote ejecuta sendPack: entrega un ZIP con varios comprobantes y
// devuelve el ticket de proceso.
func (c *Client) EnviarLote(ctx context.Context, fileName string, zipBytes []byte) (string, error) {
	body := fmt.Sprintf(`<ser:sendPack><fileName>%s</fileName><contentFile>%s</contentFile></ser:sendPack>`,
		escapar(fileName), base64.StdEncoding.EncodeToString(zipBytes))

	resp, err := c.llamar(ctx, "sendPack", body)
	if err != nil {
		return "", err
	}
	if resp.Body.SendPack == nil || resp.Body.SendPack.Ticket == "" {
		return "", fmt.Errorf("%w: sendPack sin ticket", sunat.ErrRespuesta)
	}
	c.limiter.RegistrarExito(time.Now())
	return resp.Body.SendPack.Ticket, nil
}

// ConsultarTicket ejecuta getStatus sobre un ticket de sendSummary/sendPack.
func (c *Client) ConsultarTicket(ctx context.Context, ticket string) (*StatusTicket, error) {
	body := fmt.Sprintf(`<ser:getStatus><ticket>%s</ticket></ser:getStatus>`, escapar(ticket))

	resp, err := c.llamar(ctx, "getStatus", body)
	if err != nil {
		return nil, err
	}
	if resp.Body.Status == nil {
		return nil, fmt.Errorf("%w: getStatus sin status", sunat.ErrRespuesta)
	}
	st := &StatusTicket{
		Codigo:  strings.TrimSpace(resp.Body.Status.Status.StatusCode),
		Mensaje: strings.TrimSpace(resp.Body.Status.Status.StatusMessage),
	}
	if contenido := strings.TrimSpace(resp.Body.Status.Status.Content); contenido != "" {
		cdrZip, err := base64.StdEncoding.DecodeString(contenido)
		if err != nil {
			return nil, fmt.Errorf("%w: content no es base64: %v", sunat.ErrRespuesta, err)
		}
		st.CdrZip = cdrZip
	}
	return st, nil
}

// ── Transporte ────────────────────────────────────────────────────────────────

type respuestaEnvelope struct {
	Body struct {
		SendBill *struct {
			ApplicationResponse string `xml:"applicationResponse"`
		} `xml:"sendBillResponse"`
		SendSummary *struct {
			Ticket string `xml:"ticket"`
		} `xml:"sendSummaryResponse"`
		SendPack *struct {
			Ticket string `xml:"ticket"`
		} `xml:"sendPackResponse"`
		Status *struct {
			Status struct {
				StatusCode    string `xml:"statusCode"`
				Content       string `xml:"content"`
				StatusMessage string `xml:"statusMessage"`
			} `xml:"status"`
		} `xml:"getStatusResponse"`
		Fault *struct {
			Code    string `xml:"faultcode"`
			Message string `xml:"faultstring"`
		} `xml:"Fault"`
	} `xml:"Body"`
}

// llamar arma el envelope, aplica rate limiting y reintentos, y devuelve la
// respuesta parseada.
func (c *Client) llamar(ctx context.Context, op, bodyXML string) (*respuestaEnvelope, error) {
	envelope := c.armarEnvelope(bodyXML)

	var resp *respuestaEnvelope
	err := c.retry.Ejecutar(ctx, func(intento int) error {
		if err := c.limiter.Esperar(ctx); err != nil {
			return err
		}
		if c.log != nil && intento > 1 {
			c.log.Warn().Str("op", op).Int("intento", intento).Msg("reintentando llamada a SUNAT")
		}
		r, err := c.intentar(ctx, op, envelope)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) armarEnvelope(bodyXML string) string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	sb.WriteString(`<soap-env:Envelope xmlns:soap-env="` + soapEnvNS + `" xmlns:ser="` + serNS + `">`)
	sb.WriteString(`<soap-env:Header>`)
	sb.WriteString(c.auth.HeaderXML())
	sb.WriteString(`</soap-env:Header>`)
	sb.WriteString(`<soap-env:Body>`)
	sb.WriteString(bodyXML)
	sb.WriteString(`</soap-env:Body>`)
	sb.WriteString(`</soap-env:Envelope>`)
	return sb.String()
}

// intentar hace una llamada HTTP con cliente fresco y clasifica la respuesta.
func (c *Client) intentar(ctx context.Context, op, envelope string) (*respuestaEnvelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(envelope))
	if err != nil {
		return nil, &sunat.TransporteError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", "")
	// El frontal de SUNAT filtra user agents no convencionales.
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64)")
	req.Header.Set("Accept", "text/xml,application/xml,*/*")
	req.Header.Set("Connection", "close")

	httpResp, err := c.nuevoHTTP().Do(req)
	if err != nil {
		return nil, &sunat.TransporteError{Op: op, Err: err}
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, 8<<20))
	if err != nil {
		return nil, &sunat.TransporteError{Op: op, Err: err}
	}

	// Un fault es respuesta de negocio aunque venga con status 500.
	var parsed respuestaEnvelope
	parseErr := xml.Unmarshal(raw, &parsed)
	if parseErr == nil && parsed.Body.Fault != nil {
		return nil, &sunat.FaultError{Code: parsed.Body.Fault.Code, Message: parsed.Body.Fault.Message}
	}

	// 401 del balanceador: a veces llega como status real, a veces como una
	// página HTML "401 Authorization Required" con status 200.
	if httpResp.StatusCode == http.StatusUnauthorized ||
		bytes.Contains(raw, []byte("401 Authorization Required")) {
		return nil, &sunat.TransporteError{Op: op, Status: 401, Err: fmt.Errorf("autorización intermitente del servicio")}
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, &sunat.TransporteError{Op: op, Status: httpResp.StatusCode, Err: fmt.Errorf("%s", resumirCuerpo(raw))}
	}
	if parseErr != nil {
		return nil, fmt.Errorf("%w: %s no es XML: %v", sunat.ErrRespuesta, op, parseErr)
	}
	return &parsed, nil
}

func resumirCuerpo(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if len(s) > 300 {
		s = s[:300] + "..."
	}
	return s
}
