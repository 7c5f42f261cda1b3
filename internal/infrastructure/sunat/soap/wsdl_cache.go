package soap

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/jhoicas/Facturacion-api/internal/infrastructure/sunat"
)

// refImportPattern captura las referencias a otros documentos dentro de un
// WSDL o XSD: wsdl:import@location y xsd:import/xsd:include@schemaLocation.
var refImportPattern = regexp.MustCompile(`(location|schemaLocation)="([^"]+)"`)

// WSDLMirror descarga un WSDL y todos sus imports transitivos a un directorio
// local, reescribiendo las referencias para que apunten a los archivos
// espejados. Algunas herramientas de cliente SOAP no resuelven imports
// remotos detrás del frontal de SUNAT.
//
// El Client de este paquete arma sus sobres a mano y no consume el
// descriptor: el espejo existe para herramientas SOAP externas y como
// referencia offline del contrato (se calienta al arrancar la aplicación).
type WSDLMirror struct {
	dir string

	// fetch se reemplaza en tests.
	fetch func(ctx context.Context, url string) ([]byte, error)
}

// NewWSDLMirror crea el espejo sobre el directorio dado.
func NewWSDLMirror(dir string) *WSDLMirror {
	return &WSDLMirror{dir: dir, fetch: fetchHTTP}
}

// SetFetch reemplaza la función de descarga (tests).
func (m *WSDLMirror) SetFetch(f func(ctx context.Context, url string) ([]byte, error)) {
	m.fetch = f
}

// Descargar espeja el WSDL raíz y sus dependencias. Devuelve la ruta local
// del WSDL raíz. Los archivos ya presentes en el directorio no se vuelven a
// descargar.
func (m *WSDLMirror) Descargar(ctx context.Context, wsdlURL string) (string, error) {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: creando directorio de caché: %v", sunat.ErrConfiguracion, err)
	}

	visitados := map[string]string{} // URL absoluta -> nombre local
	if err := m.espejar(ctx, wsdlURL, visitados); err != nil {
		return "", err
	}
	return filepath.Join(m.dir, visitados[wsdlURL]), nil
}

func (m *WSDLMirror) espejar(ctx context.Context, docURL string, visitados map[string]string) error {
	if _, ya := visitados[docURL]; ya {
		return nil
	}
	nombre := nombreLocal(docURL)
	visitados[docURL] = nombre

	if _, err := os.Stat(filepath.Join(m.dir, nombre)); err == nil {
		// Ya espejado en una corrida anterior. El archivo en disco tiene sus
		// referencias reescritas a nombres locales, así que es autocontenido.
		return nil
	}

	contenido, err := m.fetch(ctx, docURL)
	if err != nil {
		return &sunat.TransporteError{Op: "wsdl", Err: fmt.Errorf("descargando %s: %w", docURL, err)}
	}
	return m.recorrerImports(ctx, docURL, contenido, visitados)
}

// recorrerImports espeja recursivamente las dependencias y persiste el
// documento con las referencias reescritas a nombres locales.
func (m *WSDLMirror) recorrerImports(ctx context.Context, docURL string, contenido []byte, visitados map[string]string) error {
	base, err := url.Parse(docURL)
	if err != nil {
		return fmt.Errorf("%w: URL de WSDL inválida %q: %v", sunat.ErrConfiguracion, docURL, err)
	}

	texto := string(contenido)
	for _, match := range refImportPattern.FindAllStringSubmatch(texto, -1) {
		atributo, ref := match[1], match[2]
		refURL, err := url.Parse(ref)
		if err != nil {
			continue
		}
		abs := base.ResolveReference(refURL).String()
		if err := m.espejar(ctx, abs, visitados); err != nil {
			return err
		}
		texto = strings.ReplaceAll(texto,
			fmt.Sprintf(`%s="%s"`, atributo, ref),
			fmt.Sprintf(`%s="%s"`, atributo, visitados[abs]))
	}

	return os.WriteFile(filepath.Join(m.dir, visitados[docURL]), []byte(texto), 0o644)
}

// nombreLocal deriva un nombre de archivo estable a partir de la URL. El hash
// evita colisiones entre documentos con el mismo nombre en rutas distintas.
func nombreLocal(docURL string) string {
	sum := sha1.Sum([]byte(docURL))
	ext := ".wsdl"
	bajo := strings.ToLower(docURL)
	if strings.Contains(bajo, ".xsd") {
		ext = ".xsd"
	}
	base := filepath.Base(strings.SplitN(docURL, "?", 2)[0])
	base = strings.TrimSuffix(strings.TrimSuffix(base, ".wsdl"), ".xsd")
	if base == "" || base == "." || base == "/" {
		base = "doc"
	}
	return fmt.Sprintf("%s-%s%s", base, hex.EncodeToString(sum[:])[:10], ext)
}

func fetchHTTP(ctx context.Context, docURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, docURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64)")
	req.Header.Set("Accept", "text/xml,application/xml,*/*")

	cli := &http.Client{Timeout: 30 * time.Second}
	resp, err := cli.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 8<<20))
}
