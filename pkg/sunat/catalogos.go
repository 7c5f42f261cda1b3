// Package sunat contiene catálogos y validaciones alineados a los anexos de la
// Resolución de Superintendencia SUNAT (Perú) para comprobantes de pago electrónicos.
package sunat

// =============================================================================
// Catálogo 01 - Tipo de Comprobante de Pago o Documento
// =============================================================================

const (
	DocFactura      = "01" // Factura
	DocBoleta       = "03" // Boleta de venta
	DocNotaCredito  = "07" // Nota de crédito
	DocNotaDebito   = "08" // Nota de débito
	DocGuiaRemision = "09" // Guía de remisión remitente
	DocBajaRA       = "RA" // Comunicación de baja
	DocResumenRC    = "RC" // Resumen diario de boletas
)

// ValidDocTypes tipos de documento que la tubería de emisión sabe construir.
var ValidDocTypes = map[string]bool{
	DocFactura: true, DocBoleta: true, DocNotaCredito: true,
	DocNotaDebito: true, DocGuiaRemision: true,
	DocBajaRA: true, DocResumenRC: true,
}

// =============================================================================
// Catálogo 06 - Tipo de Documento de Identidad
// =============================================================================

const (
	IdentidadDNI       = "1" // DNI
	IdentidadCarnetExt = "4" // Carnet de extranjería
	IdentidadRUC       = "6" // RUC
	IdentidadPasaporte = "7" // Pasaporte
	IdentidadSinDoc    = "0" // No domiciliado / sin documento
)

// ValidIdentityTypes códigos de documento de identidad aceptados.
var ValidIdentityTypes = map[string]bool{
	IdentidadDNI: true, IdentidadCarnetExt: true, IdentidadRUC: true,
	IdentidadPasaporte: true, IdentidadSinDoc: true,
}

// =============================================================================
// Catálogo 07 - Afectación del IGV (tipAfeIgv por línea)
// =============================================================================

const (
	AfeIgvGravado     = "10" // Gravado - operación onerosa
	AfeIgvExonerado   = "20" // Exonerado - operación onerosa
	AfeIgvInafecto    = "30" // Inafecto - operación onerosa
	AfeIgvExportacion = "40" // Exportación
	AfeIgvGratuito    = "15" // Gravado - retiro por bonificación
)

// EsAfectacionGravada indica si el código de afectación corresponde a una
// operación gravada con IGV (la línea lleva impuesto calculado).
func EsAfectacionGravada(cod string) bool {
	return cod == AfeIgvGravado || cod == AfeIgvGratuito
}

// =============================================================================
// Catálogo 03 - Unidades de Medida (UN/ECE rec 20) - uso frecuente
// =============================================================================

const (
	UnidadNIU      = "NIU" // Unidad (bienes)
	UnidadZZ       = "ZZ"  // Unidad (servicios)
	UnidadKilogram = "KGM" // Kilogramo
	UnidadLitro    = "LTR" // Litro
	UnidadMetro    = "MTR" // Metro
	UnidadGalon    = "GLL" // Galón
	UnidadCaja     = "BX"  // Caja
	UnidadDocena   = "DZN" // Docena
)

// ValidUnitCodes unidades de medida válidas (uso común en facturación).
var ValidUnitCodes = map[string]bool{
	UnidadNIU: true, UnidadZZ: true, UnidadKilogram: true, UnidadLitro: true,
	UnidadMetro: true, UnidadGalon: true, UnidadCaja: true, UnidadDocena: true,
}

// =============================================================================
// Catálogo 51 - Tipo de Operación (listID del InvoiceTypeCode)
// =============================================================================

const (
	OperacionVentaInterna = "0101" // Venta interna
	OperacionExportacion  = "0200" // Exportación de bienes
)

// =============================================================================
// Catálogo 20 - Motivo de Traslado (guía de remisión)
// =============================================================================

const (
	TrasladoVenta                 = "01" // Venta
	TrasladoCompra                = "02" // Compra
	TrasladoEntreEstablecimientos = "04" // Traslado entre establecimientos de la misma empresa
	TrasladoOtros                 = "13" // Otros
)

// =============================================================================
// Catálogo 18 - Modalidad de Traslado (guía de remisión)
// =============================================================================

const (
	ModalidadTransportePublico = "01" // Transporte público (transportista)
	ModalidadTransportePrivado = "02" // Transporte privado (vehículo propio)
)

// =============================================================================
// Resumen diario (RC) - estado por línea (Catálogo 19 - condición del ítem)
// =============================================================================

const (
	EstadoAdicionar = "1" // Adicionar (alta del comprobante en el resumen)
	EstadoModificar = "2" // Modificar
	EstadoAnular    = "3" // Anular
)

// ValidSummaryStates condiciones válidas en líneas de resumen diario.
var ValidSummaryStates = map[string]bool{
	EstadoAdicionar: true, EstadoModificar: true, EstadoAnular: true,
}

// =============================================================================
// Impuestos - identificadores UBL del esquema tributario peruano
// =============================================================================

const (
	TributoIGVID     = "1000" // cbc:ID del TaxScheme para IGV
	TributoIGVNombre = "IGV"
	TributoIGVTipo   = "VAT" // cbc:TaxTypeCode UN/ECE 5153

	TributoExoneradoID     = "9997" // Exonerado
	TributoExoneradoNombre = "EXO"
	TributoExoneradoTipo   = "VAT"

	TributoInafectoID     = "9998" // Inafecto
	TributoInafectoNombre = "INA"
	TributoInafectoTipo   = "FRE"

	TributoGratuitoID     = "9996" // Gratuito
	TributoGratuitoNombre = "GRA"
	TributoGratuitoTipo   = "FRE"
)

// TributoPorAfectacion devuelve (ID, nombre, tipo) del esquema tributario
// que corresponde al código de afectación del Catálogo 07.
func TributoPorAfectacion(afeIgv string) (id, nombre, tipo string) {
	switch afeIgv {
	case AfeIgvExonerado:
		return TributoExoneradoID, TributoExoneradoNombre, TributoExoneradoTipo
	case AfeIgvInafecto, AfeIgvExportacion:
		return TributoInafectoID, TributoInafectoNombre, TributoInafectoTipo
	case AfeIgvGratuito:
		return TributoGratuitoID, TributoGratuitoNombre, TributoGratuitoTipo
	default:
		return TributoIGVID, TributoIGVNombre, TributoIGVTipo
	}
}
