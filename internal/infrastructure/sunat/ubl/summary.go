package ubl

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Facturacion-api/pkg/sunat"
)

// ConstruirResumen genera el XML de un resumen diario de boletas
// (SummaryDocuments, "RC"), sin firmar.
func ConstruirResumen(r *Resumen) ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("ubl: resumen es obligatorio")
	}
	if len(r.Detalles) == 0 {
		return nil, fmt.Errorf("ubl: el resumen no tiene detalles")
	}
	if r.Correlativo <= 0 {
		return nil, fmt.Errorf("ubl: correlativo de resumen debe ser positivo")
	}
	if r.Emisor.RUC == "" {
		return nil, fmt.Errorf("ubl: el emisor no tiene RUC")
	}

	doc := nuevoDocumento()
	root := doc.CreateElement("SummaryDocuments")
	root.CreateAttr("xmlns", NsSummary)
	root.CreateAttr("xmlns:cac", NsCac)
	root.CreateAttr("xmlns:cbc", NsCbc)
	root.CreateAttr("xmlns:ds", NsDs)
	root.CreateAttr("xmlns:ext", NsExt)
	root.CreateAttr("xmlns:sac", NsSac)

	agregarExtensiones(root)

	addCbc(root, "UBLVersionID", "2.0")
	addCbc(root, "CustomizationID", "1.1")
	addCbc(root, "ID", IDResumen(r.FechaResumen, r.Correlativo))
	addCbc(root, "ReferenceDate", r.FechaGeneracion.Format(fechaLayout))
	addCbc(root, "IssueDate", r.FechaResumen.Format(fechaLayout))

	agregarFirmaDeclarada(root, r.Emisor)
	agregarEmisorResumen(root, r.Emisor)

	for i, d := range r.Detalles {
		if !sunat.ValidSummaryStates[d.Estado] {
			return nil, fmt.Errorf("ubl: estado %q inválido en detalle %d", d.Estado, i+1)
		}
		moneda := d.TipoMoneda
		if moneda == "" {
			moneda = "PEN"
		}

		line := root.CreateElement("sac:SummaryDocumentsLine")
		addCbc(line, "LineID", strconv.Itoa(i+1))
		addCbc(line, "DocumentTypeCode", d.TipoDoc)
		addCbc(line, "ID", d.DocID)

		cust := line.CreateElement("cac:AccountingCustomerParty")
		addCbc(cust, "CustomerAssignedAccountID", d.Cliente.NumDoc)
		addCbc(cust, "AdditionalAccountID", d.Cliente.TipoDoc)

		status := line.CreateElement("cac:Status")
		addCbc(status, "ConditionCode", d.Estado)

		addMonto(line, "TotalAmount", d.Total, moneda)

		// Importes por tipo de operación: 01 gravadas, 02 exoneradas, 03 inafectas
		escribirPago := func(instruccion string, monto decimal.Decimal) {
			bp := line.CreateElement("sac:BillingPayment")
			addMonto(bp, "PaidAmount", monto, moneda)
			addCbc(bp, "InstructionID", instruccion)
		}
		escribirPago("01", d.MtoOperGravadas)
		escribirPago("02", d.MtoOperExoneradas)
		escribirPago("03", d.MtoOperInafectas)

		tt := line.CreateElement("cac:TaxTotal")
		addMonto(tt, "TaxAmount", d.MtoIGV, moneda)
		st := tt.CreateElement("cac:TaxSubtotal")
		addMonto(st, "TaxAmount", d.MtoIGV, moneda)
		cat := st.CreateElement("cac:TaxCategory")
		scheme := cat.CreateElement("cac:TaxScheme")
		addCbc(scheme, "ID", sunat.TributoIGVID)
		addCbc(scheme, "Name", sunat.TributoIGVNombre)
		addCbc(scheme, "TaxTypeCode", sunat.TributoIGVTipo)
	}

	return serializar(doc)
}
