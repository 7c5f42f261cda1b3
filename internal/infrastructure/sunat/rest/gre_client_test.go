package rest_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
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
	"github.com/jhoicas/Facturacion-api/internal/infrastructure/sunat/rest"
)

// ─────────────────────────────────────────────────────────────
//  Fakes
// ─────────────────────────────────────────────────────────────

type tokensFijos struct {
	invalidaciones int32
}

func (f *tokensFijos) Token(context.Context) (string, error) { return "tok-abc", nil }
func (f *tokensFijos) Invalidar()                            { atomic.AddInt32(&f.invalidaciones, 1) }

func clienteGRE(srvURL string) (*rest.GREClient, *tokensFijos) {
	tokens := &tokensFijos{}
	cli := rest.NewGREClient(tokens)
	cli.SetBaseURL(srvURL)
	cli.PollEspera = time.Millisecond
	return cli, tokens
}

// ─────────────────────────────────────────────────────────────
//  Enviar
// ─────────────────────────────────────────────────────────────

func TestGREEnviar_DevuelveTicket(t *testing.T) {
	const fileName = "20610588981-09-T001-00000001.zip"
	zipBytes := []byte("PK\x03\x04guia-firmada")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/contribuyente/gem/comprobantes/"+fileName, r.URL.Path)
		assert.Equal(t, "Bearer tok-abc", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		archivo, header, err := r.FormFile("archivo")
		require.NoError(t, err, "el ZIP viaja en la parte multipart 'archivo'")
		defer archivo.Close()
		contenido, _ := io.ReadAll(archivo)
		assert.Equal(t, zipBytes, contenido)
		assert.Equal(t, fileName, header.Filename)
		assert.Contains(t, header.Header.Get("Content-Type"), "application/zip")

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"numTicket":    "1756600000777",
			"fecRecepcion": "2026-08-31T10:00:00",
		})
	}))
	defer srv.Close()

	cli, _ := clienteGRE(srv.URL)
	ticket, err := cli.Enviar(context.Background(), fileName, zipBytes)
	require.NoError(t, err)
	assert.Equal(t, "1756600000777", ticket)
}

func TestGREEnviar_401InvalidaToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	cli, tokens := clienteGRE(srv.URL)
	_, err := cli.Enviar(context.Background(), "x.zip", []byte("zip"))
	require.Error(t, err)

	var te *sunat.TransporteError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 401, te.Status)
	assert.Equal(t, int32(1), atomic.LoadInt32(&tokens.invalidaciones), "un 401 debe descartar el token cacheado")
}

// ─────────────────────────────────────────────────────────────
//  Consultar
// ─────────────────────────────────────────────────────────────

func TestGREConsultar_AceptadoConCDR(t *testing.T) {
	cdrZip := []byte("PK\x03\x04cdr-guia")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/envios/1756600000777"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"codRespuesta":   "0",
			"arcCdr":         base64.StdEncoding.EncodeToString(cdrZip),
			"indCdrGenerado": "1",
		})
	}))
	defer srv.Close()

	cli, _ := clienteGRE(srv.URL)
	resultado, err := cli.Consultar(context.Background(), "1756600000777")
	require.NoError(t, err)
	assert.True(t, resultado.Aceptado())
	assert.Equal(t, cdrZip, resultado.CdrZip)
}

func TestGREConsultarHastaCDR_SondeaMientrasProcesa(t *testing.T) {
	var llamadas int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&llamadas, 1)
		w.Header().Set("Content-Type", "application/json")
		if n < 3 {
			_ = json.NewEncoder(w).Encode(map[string]string{"codRespuesta": "98"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"codRespuesta":   "0",
			"arcCdr":         base64.StdEncoding.EncodeToString([]byte("cdr")),
			"indCdrGenerado": "1",
		})
	}))
	defer srv.Close()

	cli, _ := clienteGRE(srv.URL)
	resultado, err := cli.ConsultarHastaCDR(context.Background(), "t-1")
	require.NoError(t, err)
	assert.True(t, resultado.Aceptado())
	assert.Equal(t, int32(3), atomic.LoadInt32(&llamadas))
}

func TestGREConsultarHastaCDR_AgotaIntentos(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"codRespuesta": "98"})
	}))
	defer srv.Close()

	cli, _ := clienteGRE(srv.URL)
	cli.PollIntentos = 3

	_, err := cli.ConsultarHastaCDR(context.Background(), "t-lento")
	require.Error(t, err)

	var timeout *sunat.TimeoutConsultaError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, "t-lento", timeout.Ticket)
	assert.Equal(t, 3, timeout.Intentos)
	assert.True(t, errors.Is(err, sunat.ErrTransporte))
}

func TestGREConsultar_RechazoTerminal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"codRespuesta": "99",
			"error": map[string]string{
				"numError": "2324",
				"desError": "El comprobante fue informado previamente en una comunicación de baja",
			},
		})
	}))
	defer srv.Close()

	cli, _ := clienteGRE(srv.URL)
	resultado, err := cli.Consultar(context.Background(), "t-2")
	require.NoError(t, err)
	assert.False(t, resultado.Aceptado())
	assert.False(t, resultado.EnProceso())
	assert.Contains(t, resultado.Detalle, "2324")
}
