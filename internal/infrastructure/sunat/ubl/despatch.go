package ubl

import (
	"fmt"
	"strconv"

	"github.com/beevik/etree"

	"github.com/jhoicas/Facturacion-api/pkg/sunat"
)

// ConstruirGuia genera el XML UBL 2.1 de una guía de remisión remitente
// (DespatchAdvice, tipo "09"), sin firmar.
func ConstruirGuia(g *Guia) ([]byte, error) {
	if g == nil {
		return nil, fmt.Errorf("ubl: guía es obligatoria")
	}
	if err := validarIdentidad(g.Emisor.RUC, g.Serie, g.Correlativo); err != nil {
		return nil, err
	}
	if len(g.Items) == 0 {
		return nil, fmt.Errorf("ubl: la guía no tiene ítems")
	}
	switch g.Traslado.Modalidad {
	case sunat.ModalidadTransportePublico:
		if g.Transportista == nil {
			return nil, fmt.Errorf("ubl: modalidad 01 requiere transportista")
		}
	case sunat.ModalidadTransportePrivado:
		if g.Vehiculo == nil || g.Conductor == nil {
			return nil, fmt.Errorf("ubl: modalidad 02 requiere vehículo y conductor")
		}
	default:
		return nil, fmt.Errorf("ubl: modalidad de traslado %q desconocida", g.Traslado.Modalidad)
	}

	doc := nuevoDocumento()
	root := doc.CreateElement("DespatchAdvice")
	root.CreateAttr("xmlns", NsDespatch)
	root.CreateAttr("xmlns:cac", NsCac)
	root.CreateAttr("xmlns:cbc", NsCbc)
	root.CreateAttr("xmlns:ds", NsDs)
	root.CreateAttr("xmlns:ext", NsExt)

	agregarExtensiones(root)

	addCbc(root, "UBLVersionID", "2.1")
	addCbc(root, "CustomizationID", "2.0")
	addCbc(root, "ID", g.Serie+"-"+g.Correlativo)
	addCbc(root, "IssueDate", g.FechaEmision.Format(fechaLayout))
	addCbc(root, "IssueTime", g.FechaEmision.Format(horaLayout))
	addCbcAttr(root, "DespatchAdviceTypeCode", sunat.DocGuiaRemision, map[string]string{
		"listAgencyName": "PE:SUNAT",
		"listName":       "Tipo de Documento",
	})

	agregarFirmaDeclarada(root, g.Emisor)

	// Remitente
	dsp := root.CreateElement("cac:DespatchSupplierParty")
	party := dsp.CreateElement("cac:Party")
	pid := party.CreateElement("cac:PartyIdentification")
	addCbcAttr(pid, "ID", g.Emisor.RUC, map[string]string{"schemeID": "6"})
	legal := party.CreateElement("cac:PartyLegalEntity")
	addCbc(legal, "RegistrationName", g.Emisor.RazonSocial)

	// Destinatario
	dcp := root.CreateElement("cac:DeliveryCustomerParty")
	party = dcp.CreateElement("cac:Party")
	pid = party.CreateElement("cac:PartyIdentification")
	addCbcAttr(pid, "ID", g.Destinatario.NumDoc, map[string]string{"schemeID": g.Destinatario.TipoDoc})
	legal = party.CreateElement("cac:PartyLegalEntity")
	addCbc(legal, "RegistrationName", g.Destinatario.RazonSocial)

	agregarEnvio(root, g)

	for i, item := range g.Items {
		line := root.CreateElement("cac:DespatchLine")
		addCbc(line, "ID", strconv.Itoa(i+1))
		unidad := item.Unidad
		if unidad == "" {
			unidad = sunat.UnidadNIU
		}
		addCbcAttr(line, "DeliveredQuantity", formatCantidad(item.Cantidad), map[string]string{"unitCode": unidad})
		ref := line.CreateElement("cac:OrderLineReference")
		addCbc(ref, "LineID", strconv.Itoa(i+1))
		it := line.CreateElement("cac:Item")
		addCbc(it, "Description", item.Descripcion)
		if item.Codigo != "" {
			sid := it.CreateElement("cac:SellersItemIdentification")
			addCbc(sid, "ID", item.Codigo)
		}
	}

	return serializar(doc)
}

// agregarEnvio escribe cac:Shipment: motivo y modalidad de traslado, peso,
// etapa de transporte y puntos de partida/llegada con ubigeo INEI.
func agregarEnvio(root *etree.Element, g *Guia) {
	sh := root.CreateElement("cac:Shipment")
	addCbc(sh, "ID", "SUNAT_Envio")
	addCbcAttr(sh, "HandlingCode", g.Traslado.Motivo, map[string]string{
		"listAgencyName": "PE:SUNAT",
		"listName":       "Motivo de traslado",
	})
	if g.Traslado.DescripcionMotivo != "" {
		addCbc(sh, "HandlingInstructions", g.Traslado.DescripcionMotivo)
	}
	unidadPeso := g.Traslado.UnidadPeso
	if unidadPeso == "" {
		unidadPeso = sunat.UnidadKilogram
	}
	addCbcAttr(sh, "GrossWeightMeasure", formatCantidad(g.Traslado.PesoBruto), map[string]string{"unitCode": unidadPeso})
	if g.Traslado.NumeroBultos > 0 {
		addCbc(sh, "TotalTransportHandlingUnitQuantity", strconv.Itoa(g.Traslado.NumeroBultos))
	}

	stage := sh.CreateElement("cac:ShipmentStage")
	addCbcAttr(stage, "TransportModeCode", g.Traslado.Modalidad, map[string]string{
		"listName":       "Modalidad de traslado",
		"listAgencyName": "PE:SUNAT",
	})
	period := stage.CreateElement("cac:TransitPeriod")
	addCbc(period, "StartDate", g.Traslado.FechaInicio.Format(fechaLayout))

	if g.Traslado.Modalidad == sunat.ModalidadTransportePublico {
		carrier := stage.CreateElement("cac:CarrierParty")
		pid := carrier.CreateElement("cac:PartyIdentification")
		addCbcAttr(pid, "ID", g.Transportista.NumDoc, map[string]string{"schemeID": g.Transportista.TipoDoc})
		legal := carrier.CreateElement("cac:PartyLegalEntity")
		addCbc(legal, "RegistrationName", g.Transportista.RazonSocial)
		if g.Transportista.NroMTC != "" {
			addCbc(legal, "CompanyID", g.Transportista.NroMTC)
		}
	} else {
		driver := stage.CreateElement("cac:DriverPerson")
		addCbcAttr(driver, "ID", g.Conductor.NumDoc, map[string]string{"schemeID": g.Conductor.TipoDoc})
		addCbc(driver, "FirstName", g.Conductor.Nombres)
		addCbc(driver, "FamilyName", g.Conductor.Apellidos)
		addCbc(driver, "JobTitle", "Principal")
		license := driver.CreateElement("cac:IdentityDocumentReference")
		addCbc(license, "ID", g.Conductor.Licencia)
	}

	delivery := sh.CreateElement("cac:Delivery")
	loc := delivery.CreateElement("cac:DeliveryLocation")
	addr := loc.CreateElement("cac:Address")
	addCbcAttr(addr, "ID", g.LlegadaA.Ubigeo, map[string]string{
		"schemeAgencyName": "PE:INEI",
		"schemeName":       "Ubigeos",
	})
	line := addr.CreateElement("cac:AddressLine")
	addCbc(line, "Line", g.LlegadaA.Direccion)

	despatch := delivery.CreateElement("cac:Despatch")
	origin := despatch.CreateElement("cac:DespatchAddress")
	addCbcAttr(origin, "ID", g.PartidaDe.Ubigeo, map[string]string{
		"schemeAgencyName": "PE:INEI",
		"schemeName":       "Ubigeos",
	})
	line = origin.CreateElement("cac:AddressLine")
	addCbc(line, "Line", g.PartidaDe.Direccion)

	if g.Traslado.Modalidad == sunat.ModalidadTransportePrivado {
		unit := sh.CreateElement("cac:TransportHandlingUnit")
		equip := unit.CreateElement("cac:TransportEquipment")
		addCbc(equip, "ID", g.Vehiculo.Placa)
	}
}
