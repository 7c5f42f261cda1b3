package soap_test

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Facturacion-api/internal/infrastructure/sunat"
	"github.com/jhoicas/Facturacion-api/internal/infrastructure/sunat/soap"
)

// ─────────────────────────────────────────────────────────────
//  Helpers
// ─────────────────────────────────────────────────────────────

func clienteTest(t *testing.T, url string) *soap.Client {
	t.Helper()
	limiter := &soap.RateLimiter{} // sin esperas en tests
	retry := soap.RetryPolicy{
		MaxIntentos:  3,
		Backoff:      func(int) time.Duration { return 0 },
		Reintentable: soap.EsAuthIntermitente,
	}
	auth := soap.UsernameToken{Username: "20610588981MODDATOS", Password: "moddatos"}
	return soap.NewClient(url, auth, limiter, retry, nil)
}

func envolver(body string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>` +
		`<soap-env:Envelope xmlns:soap-env="http://schemas.xmlsoap.org/soap/envelope/">` +
		`<soap-env:Body>` + body + `</soap-env:Body></soap-env:Envelope>`
}

// ─────────────────────────────────────────────────────────────
//  sendBill
// ─────────────────────────────────────────────────────────────

func TestEnviarComprobante_DevuelveCDR(t *testing.T) {
	cdrZip := []byte("PK\x03\x04contenido-cdr")
	var pedido string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		pedido = string(raw)

		assert.Equal(t, "Mozilla/5.0 (Windows NT 10.0; Win64; x64)", r.UserAgent(), "user agent esperado por el frontal de SUNAT")
		assert.Contains(t, r.Header.Get("Content-Type"), "text/xml", "content type SOAP")

		resp := envolver(`<ns2:sendBillResponse xmlns:ns2="http://service.sunat.gob.pe">` +
			`<applicationResponse>` + base64.StdEncoding.EncodeToString(cdrZip) + `</applicationResponse>` +
			`</ns2:sendBillResponse>`)
		w.Header().Set("Content-Type", "text/xml")
		_, _ = w.Write([]byte(resp))
	}))
	defer srv.Close()

	cli := clienteTest(t, srv.URL)
	got, err := cli.EnviarComprobante(context.Background(), "20610588981-01-F001-00000001.zip", []byte("zip-firmado"))
	require.NoError(t, err)
	assert.Equal(t, cdrZip, got, "debe decodificar el applicationResponse")

	assert.Contains(t, pedido, "<fileName>20610588981-01-F001-00000001.zip</fileName>")
	assert.Contains(t, pedido, "wsse:UsernameToken", "el header debe llevar el token de credenciales SOL")
	assert.Contains(t, pedido, "20610588981MODDATOS")
	assert.Contains(t, pedido, base64.StdEncoding.EncodeToString([]byte("zip-firmado")))
}

func TestEnviarComprobante_FaultNoSeReintenta(t *testing.T) {
	var llamadas int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&llamadas, 1)
		w.Header().Set("Content-Type", "text/xml")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(envolver(`<soap-env:Fault>` +
			`<faultcode>soap-env:Client.1033</faultcode>` +
			`<faultstring>El comprobante fue registrado previamente con otros datos</faultstring>` +
			`</soap-env:Fault>`)))
	}))
	defer srv.Close()

	cli := clienteTest(t, srv.URL)
	_, err := cli.EnviarComprobante(context.Background(), "x.zip", []byte("zip"))
	require.Error(t, err)

	var fault *sunat.FaultError
	require.ErrorAs(t, err, &fault, "un fault debe clasificarse como FaultError")
	assert.Contains(t, fault.Code, "1033")
	assert.True(t, errors.Is(err, sunat.ErrRechazo), "los faults son rechazos de negocio")
	assert.Equal(t, int32(1), atomic.LoadInt32(&llamadas), "un fault nunca se reintenta")
}

func TestEnviarComprobante_401IntermitenteSeReintenta(t *testing.T) {
	var llamadas int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&llamadas, 1)
		if n < 3 {
			// El balanceador responde HTML con status 200.
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html><title>401 Authorization Required</title></html>"))
			return
		}
		w.Header().Set("Content-Type", "text/xml")
		_, _ = w.Write([]byte(envolver(`<ns2:sendBillResponse xmlns:ns2="http://service.sunat.gob.pe">` +
			`<applicationResponse>` + base64.StdEncoding.EncodeToString([]byte("cdr")) + `</applicationResponse>` +
			`</ns2:sendBillResponse>`)))
	}))
	defer srv.Close()

	cli := clienteTest(t, srv.URL)
	got, err := cli.EnviarComprobante(context.Background(), "x.zip", []byte("zip"))
	require.NoError(t, err, "el tercer intento debe prosperar")
	assert.Equal(t, []byte("cdr"), got)
	assert.Equal(t, int32(3), atomic.LoadInt32(&llamadas))
}

func TestEnviarComprobante_Error500EsTransporte(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("bad gateway"))
	}))
	defer srv.Close()

	cli := clienteTest(t, srv.URL)
	_, err := cli.EnviarComprobante(context.Background(), "x.zip", []byte("zip"))
	require.Error(t, err)

	var te *sunat.TransporteError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusBadGateway, te.Status)
	assert.True(t, errors.Is(err, sunat.ErrTransporte))
}

// ─────────────────────────────────────────────────────────────
//  sendSummary / sendPack
// ─────────────────────────────────────────────────────────────

func TestEnviarResumen_DevuelveTicket(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(raw), "<ser:sendSummary>")
		w.Header().Set("Content-Type", "text/xml")
		_, _ = w.Write([]byte(envolver(`<ns2:sendSummaryResponse xmlns:ns2="http://service.sunat.gob.pe">` +
			`<ticket>1756600000123</ticket></ns2:sendSummaryResponse>`)))
	}))
	defer srv.Close()

	cli := clienteTest(t, srv.URL)
	ticket, err := cli.EnviarResumen(context.Background(), "20610588981-RA-20260831-00001.zip", []byte("zip"))
	require.NoError(t, err)
	assert.Equal(t, "1756600000123", ticket)
}

func TestEnviarLote_DevuelveTicket(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(raw), "<ser:sendPack>")
		w.Header().Set("Content-Type", "text/xml")
		_, _ = w.Write([]byte(envolver(`<ns2:sendPackResponse xmlns:ns2="http://service.sunat.gob.pe">` +
			`<ticket>999</ticket></ns2:sendPackResponse>`)))
	}))
	defer srv.Close()

	cli := clienteTest(t, srv.URL)
	ticket, err := cli.EnviarLote(context.Background(), "lote.zip", []byte("zip"))
	require.NoError(t, err)
	assert.Equal(t, "999", ticket)
}

func TestEnviarResumen_SinTicketEsRespuestaInvalida(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/xml")
		_, _ = w.Write([]byte(envolver(`<ns2:sendSummaryResponse xmlns:ns2="http://service.sunat.gob.pe"/>`)))
	}))
	defer srv.Close()

	cli := clienteTest(t, srv.URL)
	_, err := cli.EnviarResumen(context.Background(), "x.zip", []byte("zip"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, sunat.ErrRespuesta))
}

// ─────────────────────────────────────────────────────────────
//  getStatus
// ─────────────────────────────────────────────────────────────

func TestConsultarTicket_EnProceso(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(raw), "<ticket>1756600000123</ticket>")
		w.Header().Set("Content-Type", "text/xml")
		_, _ = w.Write([]byte(envolver(`<ns2:getStatusResponse xmlns:ns2="http://service.sunat.gob.pe">` +
			`<status><statusCode>98</statusCode><statusMessage>EN PROCESO</statusMessage></status>` +
			`</ns2:getStatusResponse>`)))
	}))
	defer srv.Close()

	cli := clienteTest(t, srv.URL)
	st, err := cli.ConsultarTicket(context.Background(), "1756600000123")
	require.NoError(t, err)
	assert.True(t, st.EnProceso())
	assert.Nil(t, st.CdrZip)
}

func TestConsultarTicket_ProcesadoConCDR(t *testing.T) {
	cdrZip := []byte("PK\x03\x04cdr-resumen")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/xml")
		_, _ = w.Write([]byte(envolver(`<ns2:getStatusResponse xmlns:ns2="http://service.sunat.gob.pe">` +
			`<status><statusCode>0</statusCode><content>` + base64.StdEncoding.EncodeToString(cdrZip) + `</content></status>` +
			`</ns2:getStatusResponse>`)))
	}))
	defer srv.Close()

	cli := clienteTest(t, srv.URL)
	st, err := cli.ConsultarTicket(context.Background(), "1756600000123")
	require.NoError(t, err)
	assert.False(t, st.EnProceso())
	assert.Equal(t, "0", st.Codigo)
	assert.Equal(t, cdrZip, st.CdrZip)
}

func TestConsultarTicket_RespuestaNoXML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("esto no es xml"))
	}))
	defer srv.Close()

	cli := clienteTest(t, srv.URL)
	_, err := cli.ConsultarTicket(context.Background(), "1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, sunat.ErrRespuesta))
}

// ─────────────────────────────────────────────────────────────
//  Endpoints
// ─────────────────────────────────────────────────────────────

func TestEndpointsPorAmbiente(t *testing.T) {
	assert.Equal(t, "https://e-beta.sunat.gob.pe/ol-ti-itcpfegem-beta/billService", soap.BillEndpoint(soap.EnvBeta))
	assert.Equal(t, "https://e-factura.sunat.gob.pe/ol-ti-itcpfegem/billService", soap.BillEndpoint(soap.EnvProd))
	assert.True(t, strings.HasSuffix(soap.WSDLURL(soap.BillEndpoint(soap.EnvBeta)), "?wsdl"))
}
