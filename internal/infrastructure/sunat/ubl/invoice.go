package ubl

import (
	"fmt"
	"strconv"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Facturacion-api/pkg/sunat"
)

// ConstruirFactura genera el XML UBL 2.1 de una factura ("01") o boleta ("03"),
// sin firmar. El firmador inyecta ds:Signature en el ExtensionContent vacío.
func ConstruirFactura(f *Factura) ([]byte, error) {
	if f == nil {
		return nil, fmt.Errorf("ubl: factura es obligatoria")
	}
	if f.TipoDoc != sunat.DocFactura && f.TipoDoc != sunat.DocBoleta {
		return nil, fmt.Errorf("ubl: tipo de documento %q no es factura ni boleta", f.TipoDoc)
	}
	if err := validarIdentidad(f.Emisor.RUC, f.Serie, f.Correlativo); err != nil {
		return nil, err
	}
	if len(f.Items) == 0 {
		return nil, fmt.Errorf("ubl: la factura no tiene ítems")
	}

	doc := nuevoDocumento()
	root := doc.CreateElement("Invoice")
	root.CreateAttr("xmlns", NsInvoice)
	root.CreateAttr("xmlns:cac", NsCac)
	root.CreateAttr("xmlns:cbc", NsCbc)
	root.CreateAttr("xmlns:ds", NsDs)
	root.CreateAttr("xmlns:ext", NsExt)

	agregarExtensiones(root)

	addCbc(root, "UBLVersionID", "2.1")
	addCbc(root, "CustomizationID", "2.0")
	addCbc(root, "ID", f.Serie+"-"+f.Correlativo)
	addCbc(root, "IssueDate", f.FechaEmision.Format(fechaLayout))
	addCbc(root, "IssueTime", f.FechaEmision.Format(horaLayout))

	tipoOp := f.TipoOperacion
	if tipoOp == "" {
		tipoOp = sunat.OperacionVentaInterna
	}
	addCbcAttr(root, "InvoiceTypeCode", f.TipoDoc, map[string]string{
		"listID":         tipoOp,
		"listAgencyName": "PE:SUNAT",
		"listName":       "Tipo de Documento",
		"listURI":        "urn:pe:gob:sunat:cpe:see:gem:catalogos:catalogo01",
	})

	for _, l := range f.Leyendas {
		addCbcAttr(root, "Note", l.Valor, map[string]string{"languageLocaleID": l.Codigo})
	}

	moneda := f.TipoMoneda
	if moneda == "" {
		moneda = "PEN"
	}
	addCbcAttr(root, "DocumentCurrencyCode", moneda, map[string]string{
		"listID":         "ISO 4217 Alpha",
		"listAgencyName": "United Nations Economic Commission for Europe",
	})

	agregarFirmaDeclarada(root, f.Emisor)
	agregarEmisor(root, f.Emisor)
	agregarCliente(root, f.Cliente)

	if f.FormaPago != "" {
		terms := root.CreateElement("cac:PaymentTerms")
		addCbc(terms, "ID", "FormaPago")
		addCbc(terms, "PaymentMeansID", f.FormaPago)
	}

	agregarTaxTotal(root, f, moneda)

	total := root.CreateElement("cac:LegalMonetaryTotal")
	addMonto(total, "LineExtensionAmount", f.ValorVenta, moneda)
	addMonto(total, "TaxInclusiveAmount", f.MtoImpVenta, moneda)
	addMonto(total, "PayableAmount", f.MtoImpVenta, moneda)

	for i, item := range f.Items {
		agregarLinea(root, i+1, item, moneda)
	}

	return serializar(doc)
}

// agregarEmisor escribe cac:AccountingSupplierParty con el RUC (schemeID 6)
// y la dirección fiscal con ubigeo INEI.
func agregarEmisor(root *etree.Element, e Emisor) {
	sp := root.CreateElement("cac:AccountingSupplierParty")
	party := sp.CreateElement("cac:Party")

	pid := party.CreateElement("cac:PartyIdentification")
	addCbcAttr(pid, "ID", e.RUC, map[string]string{
		"schemeID":         "6",
		"schemeName":       "Documento de Identidad",
		"schemeAgencyName": "PE:SUNAT",
		"schemeURI":        "urn:pe:gob:sunat:cpe:see:gem:catalogos:catalogo06",
	})

	if e.NombreComercial != "" {
		pname := party.CreateElement("cac:PartyName")
		addCbc(pname, "Name", e.NombreComercial)
	}

	legal := party.CreateElement("cac:PartyLegalEntity")
	addCbc(legal, "RegistrationName", e.RazonSocial)
	addr := legal.CreateElement("cac:RegistrationAddress")
	if e.Ubigeo != "" {
		addCbcAttr(addr, "ID", e.Ubigeo, map[string]string{
			"schemeAgencyName": "PE:INEI",
			"schemeName":       "Ubigeos",
		})
	}
	addCbcAttr(addr, "AddressTypeCode", "0000", map[string]string{
		"listAgencyName": "PE:SUNAT",
		"listName":       "Establecimientos anexos",
	})
	if e.Distrito != "" {
		addCbc(addr, "District", e.Distrito)
	}
	if e.Provincia != "" {
		addCbc(addr, "CityName", e.Provincia)
	}
	if e.Departamento != "" {
		addCbc(addr, "CountrySubentity", e.Departamento)
	}
	if e.Direccion != "" {
		line := addr.CreateElement("cac:AddressLine")
		addCbc(line, "Line", e.Direccion)
	}
	country := addr.CreateElement("cac:Country")
	addCbc(country, "IdentificationCode", "PE")
}

// agregarCliente escribe cac:AccountingCustomerParty con el documento de
// identidad del receptor (Catálogo 06).
func agregarCliente(root *etree.Element, c Cliente) {
	cp := root.CreateElement("cac:AccountingCustomerParty")
	party := cp.CreateElement("cac:Party")

	pid := party.CreateElement("cac:PartyIdentification")
	addCbcAttr(pid, "ID", c.NumDoc, map[string]string{
		"schemeID":         c.TipoDoc,
		"schemeName":       "Documento de Identidad",
		"schemeAgencyName": "PE:SUNAT",
		"schemeURI":        "urn:pe:gob:sunat:cpe:see:gem:catalogos:catalogo06",
	})

	legal := party.CreateElement("cac:PartyLegalEntity")
	addCbc(legal, "RegistrationName", c.RazonSocial)
	if c.Direccion != "" {
		addr := legal.CreateElement("cac:RegistrationAddress")
		line := addr.CreateElement("cac:AddressLine")
		addCbc(line, "Line", c.Direccion)
	}
}

// agregarTaxTotal escribe el cac:TaxTotal global con un subtotal por cada
// base imponible no nula (gravadas, exoneradas, inafectas).
func agregarTaxTotal(root *etree.Element, f *Factura, moneda string) {
	tt := root.CreateElement("cac:TaxTotal")
	addMonto(tt, "TaxAmount", f.TotalImpuestosOMtoIGV(), moneda)

	escribirSubtotal := func(base, igv decimal.Decimal, afe string) {
		st := tt.CreateElement("cac:TaxSubtotal")
		addMonto(st, "TaxableAmount", base, moneda)
		addMonto(st, "TaxAmount", igv, moneda)
		cat := st.CreateElement("cac:TaxCategory")
		id, nombre, tipo := sunat.TributoPorAfectacion(afe)
		scheme := cat.CreateElement("cac:TaxScheme")
		addCbcAttr(scheme, "ID", id, map[string]string{
			"schemeAgencyName": "PE:SUNAT",
			"schemeName":       "Codigo de tributos",
		})
		addCbc(scheme, "Name", nombre)
		addCbc(scheme, "TaxTypeCode", tipo)
	}

	if f.MtoOperGravadas.IsPositive() {
		escribirSubtotal(f.MtoOperGravadas, f.MtoIGV, sunat.AfeIgvGravado)
	}
	if f.MtoOperExoneradas.IsPositive() {
		escribirSubtotal(f.MtoOperExoneradas, decimal.Zero, sunat.AfeIgvExonerado)
	}
	if f.MtoOperInafectas.IsPositive() {
		escribirSubtotal(f.MtoOperInafectas, decimal.Zero, sunat.AfeIgvInafecto)
	}
}

// TotalImpuestosOMtoIGV devuelve TotalImpuestos si está informado y MtoIGV en
// su defecto (payloads antiguos solo traen MtoIGV).
func (f *Factura) TotalImpuestosOMtoIGV() decimal.Decimal {
	if f.TotalImpuestos.IsPositive() {
		return f.TotalImpuestos
	}
	return f.MtoIGV
}

// agregarLinea escribe un cac:InvoiceLine con PricingReference (precio con
// IGV, PriceTypeCode 01) y el TaxTotal de la línea según su afectación.
func agregarLinea(root *etree.Element, num int, l Linea, moneda string) {
	line := root.CreateElement("cac:InvoiceLine")
	addCbc(line, "ID", strconv.Itoa(num))

	unidad := l.Unidad
	if unidad == "" {
		unidad = sunat.UnidadNIU
	}
	addCbcAttr(line, "InvoicedQuantity", formatCantidad(l.Cantidad), map[string]string{
		"unitCode":               unidad,
		"unitCodeListID":         "UN/ECE rec 20",
		"unitCodeListAgencyName": "United Nations Economic Commission for Europe",
	})
	addMonto(line, "LineExtensionAmount", l.ValorVenta, moneda)

	pricing := line.CreateElement("cac:PricingReference")
	alt := pricing.CreateElement("cac:AlternativeConditionPrice")
	addMonto(alt, "PriceAmount", l.PrecioUnitario, moneda)
	addCbcAttr(alt, "PriceTypeCode", "01", map[string]string{
		"listAgencyName": "PE:SUNAT",
		"listName":       "Tipo de Precio",
		"listURI":        "urn:pe:gob:sunat:cpe:see:gem:catalogos:catalogo16",
	})

	tt := line.CreateElement("cac:TaxTotal")
	addMonto(tt, "TaxAmount", l.IGV, moneda)
	st := tt.CreateElement("cac:TaxSubtotal")
	addMonto(st, "TaxableAmount", l.ValorVenta, moneda)
	addMonto(st, "TaxAmount", l.IGV, moneda)
	cat := st.CreateElement("cac:TaxCategory")
	addCbc(cat, "Percent", l.PorcentajeIGV.String())
	afe := l.TipAfeIgv
	if afe == "" {
		afe = sunat.AfeIgvGravado
	}
	addCbcAttr(cat, "TaxExemptionReasonCode", afe, map[string]string{
		"listAgencyName": "PE:SUNAT",
		"listName":       "Afectacion del IGV",
		"listURI":        "urn:pe:gob:sunat:cpe:see:gem:catalogos:catalogo07",
	})
	id, nombre, tipo := sunat.TributoPorAfectacion(afe)
	scheme := cat.CreateElement("cac:TaxScheme")
	addCbc(scheme, "ID", id)
	addCbc(scheme, "Name", nombre)
	addCbc(scheme, "TaxTypeCode", tipo)

	item := line.CreateElement("cac:Item")
	addCbc(item, "Description", l.Descripcion)
	if l.Codigo != "" {
		sid := item.CreateElement("cac:SellersItemIdentification")
		addCbc(sid, "ID", l.Codigo)
	}

	price := line.CreateElement("cac:Price")
	addMonto(price, "PriceAmount", l.ValorUnitario, moneda)
}
