package soap_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Facturacion-api/internal/infrastructure/sunat/soap"
)

// ─────────────────────────────────────────────────────────────
//  Espejo de WSDL
// ─────────────────────────────────────────────────────────────

func fetchDeMapa(docs map[string]string, descargas *[]string) func(context.Context, string) ([]byte, error) {
	return func(_ context.Context, url string) ([]byte, error) {
		contenido, ok := docs[url]
		if !ok {
			return nil, fmt.Errorf("documento no registrado: %s", url)
		}
		*descargas = append(*descargas, url)
		return []byte(contenido), nil
	}
}

func TestWSDLMirror_EspejaImportsTransitivos(t *testing.T) {
	docs := map[string]string{
		"https://e-beta.sunat.gob.pe/ol-ti-itcpfegem-beta/billService?wsdl": `<wsdl:definitions>` +
			`<wsdl:import location="https://e-beta.sunat.gob.pe/ol-ti-itcpfegem-beta/billService.wsdl"/>` +
			`</wsdl:definitions>`,
		"https://e-beta.sunat.gob.pe/ol-ti-itcpfegem-beta/billService.wsdl": `<wsdl:definitions>` +
			`<xsd:import schemaLocation="types.xsd"/>` +
			`</wsdl:definitions>`,
		"https://e-beta.sunat.gob.pe/ol-ti-itcpfegem-beta/types.xsd": `<xsd:schema/>`,
	}

	var descargas []string
	dir := t.TempDir()
	mirror := soap.NewWSDLMirror(dir)
	mirror.SetFetch(fetchDeMapa(docs, &descargas))

	ruta, err := mirror.Descargar(context.Background(), "https://e-beta.sunat.gob.pe/ol-ti-itcpfegem-beta/billService?wsdl")
	require.NoError(t, err)
	require.Len(t, descargas, 3, "debe descargar el WSDL raíz y los dos imports")

	raiz, err := os.ReadFile(ruta)
	require.NoError(t, err)
	assert.NotContains(t, string(raiz), "https://", "las referencias remotas deben quedar reescritas")
	assert.Contains(t, string(raiz), `location="billService-`)

	// El WSDL intermedio debe referenciar el XSD por su nombre local.
	entradas, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entradas, 3)

	var intermedio string
	for _, e := range entradas {
		if strings.HasSuffix(e.Name(), ".wsdl") && filepath.Join(dir, e.Name()) != ruta {
			raw, err := os.ReadFile(filepath.Join(dir, e.Name()))
			require.NoError(t, err)
			intermedio = string(raw)
		}
	}
	assert.Contains(t, intermedio, `schemaLocation="types-`)
	assert.Contains(t, intermedio, ".xsd")
}

func TestWSDLMirror_NoRedescargaLoCacheado(t *testing.T) {
	docs := map[string]string{
		"https://example.test/billService?wsdl": `<wsdl:definitions/>`,
	}

	var descargas []string
	mirror := soap.NewWSDLMirror(t.TempDir())
	mirror.SetFetch(fetchDeMapa(docs, &descargas))

	ruta1, err := mirror.Descargar(context.Background(), "https://example.test/billService?wsdl")
	require.NoError(t, err)
	ruta2, err := mirror.Descargar(context.Background(), "https://example.test/billService?wsdl")
	require.NoError(t, err)

	assert.Equal(t, ruta1, ruta2)
	assert.Len(t, descargas, 1, "la segunda corrida debe servirse del disco")
}

func TestWSDLMirror_ErrorDeDescargaSePropaga(t *testing.T) {
	mirror := soap.NewWSDLMirror(t.TempDir())
	mirror.SetFetch(func(context.Context, string) ([]byte, error) {
		return nil, fmt.Errorf("conexión rechazada")
	})

	_, err := mirror.Descargar(context.Background(), "https://example.test/billService?wsdl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conexión rechazada")
}
