package ubl

import (
	"fmt"
	"strconv"

	"github.com/beevik/etree"
)

// ConstruirBaja genera el XML de una comunicación de baja (VoidedDocuments,
// "RA"), sin firmar. Usa UBL 2.0 con el esquema peruano sac.
func ConstruirBaja(b *Baja) ([]byte, error) {
	if b == nil {
		return nil, fmt.Errorf("ubl: baja es obligatoria")
	}
	if len(b.Detalles) == 0 {
		return nil, fmt.Errorf("ubl: la baja no tiene detalles")
	}
	if b.Correlativo <= 0 {
		return nil, fmt.Errorf("ubl: correlativo de baja debe ser positivo")
	}
	if b.Emisor.RUC == "" {
		return nil, fmt.Errorf("ubl: el emisor no tiene RUC")
	}

	doc := nuevoDocumento()
	root := doc.CreateElement("VoidedDocuments")
	root.CreateAttr("xmlns", NsVoided)
	root.CreateAttr("xmlns:cac", NsCac)
	root.CreateAttr("xmlns:cbc", NsCbc)
	root.CreateAttr("xmlns:ds", NsDs)
	root.CreateAttr("xmlns:ext", NsExt)
	root.CreateAttr("xmlns:sac", NsSac)

	agregarExtensiones(root)

	addCbc(root, "UBLVersionID", "2.0")
	addCbc(root, "CustomizationID", "1.0")
	addCbc(root, "ID", IDBaja(b.FechaComunicacion, b.Correlativo))
	addCbc(root, "ReferenceDate", b.FechaGeneracion.Format(fechaLayout))
	addCbc(root, "IssueDate", b.FechaComunicacion.Format(fechaLayout))

	agregarFirmaDeclarada(root, b.Emisor)
	agregarEmisorResumen(root, b.Emisor)

	for i, d := range b.Detalles {
		line := root.CreateElement("sac:VoidedDocumentsLine")
		addCbc(line, "LineID", strconv.Itoa(i+1))
		addCbc(line, "DocumentTypeCode", d.TipoDoc)
		sacEl(line, "DocumentSerialID", d.Serie)
		sacEl(line, "DocumentNumberID", d.Correlativo)
		sacEl(line, "VoidReasonDescription", d.Motivo)
	}

	return serializar(doc)
}

// agregarEmisorResumen escribe el AccountingSupplierParty abreviado que usan
// los documentos resumen (RA/RC): RUC como cuenta asignada y tipo de cuenta 6.
func agregarEmisorResumen(root *etree.Element, e Emisor) {
	sp := root.CreateElement("cac:AccountingSupplierParty")
	addCbc(sp, "CustomerAssignedAccountID", e.RUC)
	addCbc(sp, "AdditionalAccountID", "6")
	party := sp.CreateElement("cac:Party")
	legal := party.CreateElement("cac:PartyLegalEntity")
	addCbc(legal, "RegistrationName", e.RazonSocial)
}

func sacEl(parent *etree.Element, local, value string) *etree.Element {
	e := parent.CreateElement("sac:" + local)
	e.SetText(value)
	return e
}
