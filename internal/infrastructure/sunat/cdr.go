package sunat

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// CDR es la constancia de recepción que SUNAT devuelve como
// ApplicationResponse dentro de un ZIP (R-{fileName}.zip).
type CDR struct {
	Codigo      string   // cbc:ResponseCode ("0" = aceptado)
	Descripcion string   // cbc:Description
	Notas       []string // cbc:Note (observaciones no bloqueantes)
	DocumentoID string   // cbc:ID del DocumentReference (serie-correlativo)
}

// Aceptado indica si el comprobante fue aceptado por SUNAT. Un CDR aceptado
// puede traer notas (observaciones) sin dejar de ser aceptado.
func (c *CDR) Aceptado() bool { return c.Codigo == "0" }

// ParsearCDR interpreta el XML ApplicationResponse de un CDR.
func ParsearCDR(xmlBytes []byte) (*CDR, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(xmlBytes); err != nil {
		return nil, fmt.Errorf("%w: CDR no es XML: %v", ErrRespuesta, err)
	}
	root := doc.Root()
	if root == nil || root.Tag != "ApplicationResponse" {
		return nil, fmt.Errorf("%w: se esperaba ApplicationResponse", ErrRespuesta)
	}

	cdr := &CDR{}
	if e := buscarPorRuta(root, "DocumentResponse", "Response", "ResponseCode"); e != nil {
		cdr.Codigo = strings.TrimSpace(e.Text())
	}
	if e := buscarPorRuta(root, "DocumentResponse", "Response", "Description"); e != nil {
		cdr.Descripcion = strings.TrimSpace(e.Text())
	}
	if e := buscarPorRuta(root, "DocumentResponse", "DocumentReference", "ID"); e != nil {
		cdr.DocumentoID = strings.TrimSpace(e.Text())
	}
	for _, n := range root.SelectElements("Note") {
		if txt := strings.TrimSpace(n.Text()); txt != "" {
			cdr.Notas = append(cdr.Notas, txt)
		}
	}
	if cdr.Codigo == "" {
		return nil, fmt.Errorf("%w: CDR sin cbc:ResponseCode", ErrRespuesta)
	}
	return cdr, nil
}

// ParsearCDRDesdeZip extrae el ApplicationResponse del ZIP del CDR y lo parsea.
func ParsearCDRDesdeZip(zipBytes []byte) (*CDR, error) {
	_, xmlBytes, err := Descomprimir(zipBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRespuesta, err)
	}
	return ParsearCDR(xmlBytes)
}

// ParsearCDRDesdeZipBase64 decodifica el applicationResponse en base64 de la
// respuesta SOAP y parsea el CDR contenido.
func ParsearCDRDesdeZipBase64(b64 string) (*CDR, error) {
	zipBytes, err := base64.StdEncoding.DecodeString(strings.TrimSpace(b64))
	if err != nil {
		return nil, fmt.Errorf("%w: applicationResponse no es base64: %v", ErrRespuesta, err)
	}
	return ParsearCDRDesdeZip(zipBytes)
}

// buscarPorRuta desciende por tags locales ignorando el prefijo de namespace
// (los CDR reales mezclan prefijos cac/cbc con declaraciones variadas).
func buscarPorRuta(e *etree.Element, tags ...string) *etree.Element {
	cur := e
	for _, tag := range tags {
		cur = cur.SelectElement(tag)
		if cur == nil {
			return nil
		}
	}
	return cur
}
