package ubl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
)

// Namespaces oficiales UBL 2.1 y SUNAT.
const (
	NsInvoice  = "urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"
	NsDespatch = "urn:oasis:names:specification:ubl:schema:xsd:DespatchAdvice-2"
	NsVoided   = "urn:sunat:names:specification:ubl:peru:schema:xsd:VoidedDocuments-1"
	NsSummary  = "urn:sunat:names:specification:ubl:peru:schema:xsd:SummaryDocuments-1"
	NsCac      = "urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2"
	NsCbc      = "urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2"
	NsExt      = "urn:oasis:names:specification:ubl:schema:xsd:CommonExtensionComponents-2"
	NsSac      = "urn:sunat:names:specification:ubl:peru:schema:xsd:SunatAggregateComponents-1"
	NsDs       = "http://www.w3.org/2000/09/xmldsig#"
)

const (
	fechaLayout = "2006-01-02"
	horaLayout  = "15:04:05"
)

// validarIdentidad exige los campos que componen el nombre SUNAT del
// documento. Sin ellos el archivo saldría con un nombre inválido y SUNAT lo
// rechazaría recién en el envío. El correlativo debe ser un entero no
// negativo: un "-1" se colaría en el nombre como "000000-1".
func validarIdentidad(ruc, serie, correlativo string) error {
	if ruc == "" {
		return fmt.Errorf("ubl: el emisor no tiene RUC")
	}
	if serie == "" {
		return fmt.Errorf("ubl: serie es obligatoria")
	}
	if correlativo == "" {
		return fmt.Errorf("ubl: correlativo es obligatorio")
	}
	if n, err := strconv.Atoi(strings.TrimSpace(correlativo)); err == nil && n < 0 {
		return fmt.Errorf("ubl: correlativo %q no puede ser negativo", correlativo)
	}
	return nil
}

// nuevoDocumento crea el documento etree con la declaración XML estándar.
func nuevoDocumento() *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="no"`)
	return doc
}

// agregarExtensiones crea ext:UBLExtensions/ext:UBLExtension/ext:ExtensionContent
// como primer hijo de la raíz. El firmador inyecta ds:Signature dentro del
// ExtensionContent vacío.
func agregarExtensiones(root *etree.Element) {
	exts := root.CreateElement("ext:UBLExtensions")
	ext := exts.CreateElement("ext:UBLExtension")
	ext.CreateElement("ext:ExtensionContent")
}

// agregarFirmaDeclarada escribe el bloque cac:Signature que referencia a la
// firma digital del emisor (requerido en los documentos SUNAT).
func agregarFirmaDeclarada(root *etree.Element, e Emisor) {
	sig := root.CreateElement("cac:Signature")
	addCbc(sig, "ID", "IDSignSP")
	party := sig.CreateElement("cac:SignatoryParty")
	pid := party.CreateElement("cac:PartyIdentification")
	addCbc(pid, "ID", e.RUC)
	pname := party.CreateElement("cac:PartyName")
	addCbc(pname, "Name", e.RazonSocial)
	att := sig.CreateElement("cac:DigitalSignatureAttachment")
	ref := att.CreateElement("cac:ExternalReference")
	addCbc(ref, "URI", "#SignatureSP")
}

func addCbc(parent *etree.Element, local, value string) *etree.Element {
	e := parent.CreateElement("cbc:" + local)
	e.SetText(value)
	return e
}

func addCbcAttr(parent *etree.Element, local, value string, attrs map[string]string) *etree.Element {
	e := addCbc(parent, local, value)
	for k, v := range attrs {
		e.CreateAttr(k, v)
	}
	return e
}

// addMonto escribe un elemento cbc de monto con currencyID.
func addMonto(parent *etree.Element, local string, monto decimal.Decimal, moneda string) *etree.Element {
	e := addCbc(parent, local, formatMonto(monto))
	e.CreateAttr("currencyID", moneda)
	return e
}

// formatMonto redondea a 2 decimales con punto decimal fijo.
func formatMonto(d decimal.Decimal) string {
	return d.Round(2).StringFixed(2)
}

// formatCantidad permite hasta 10 decimales sin ceros de relleno.
func formatCantidad(d decimal.Decimal) string {
	return d.String()
}

// serializar vuelca el documento con sangría de 2 espacios.
func serializar(doc *etree.Document) ([]byte, error) {
	doc.Indent(2)
	return doc.WriteToBytes()
}
