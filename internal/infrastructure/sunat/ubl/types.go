// Package ubl construye los documentos UBL 2.1 que SUNAT acepta: factura y
// boleta (Invoice), guía de remisión (DespatchAdvice), comunicación de baja
// (VoidedDocuments) y resumen diario (SummaryDocuments).
package ubl

import (
	"time"

	"github.com/shopspring/decimal"
)

// Emisor identifica al contribuyente que emite el comprobante.
type Emisor struct {
	RUC             string
	RazonSocial     string
	NombreComercial string
	Direccion       string
	Ubigeo          string // código INEI de 6 dígitos
	Distrito        string
	Provincia       string
	Departamento    string
}

// Cliente identifica al receptor del comprobante.
type Cliente struct {
	TipoDoc     string // Catálogo 06: "1" DNI, "6" RUC...
	NumDoc      string
	RazonSocial string
	Direccion   string
}

// Linea es un ítem de factura o boleta. Los montos unitarios van sin IGV en
// ValorUnitario y con IGV en PrecioUnitario (PriceTypeCode 01).
type Linea struct {
	Codigo         string
	Descripcion    string
	Unidad         string // Catálogo 03, ej. NIU
	Cantidad       decimal.Decimal
	ValorUnitario  decimal.Decimal // sin IGV
	PrecioUnitario decimal.Decimal // con IGV (precio de venta)
	ValorVenta     decimal.Decimal // cantidad * valor unitario
	IGV            decimal.Decimal
	PorcentajeIGV  decimal.Decimal // ej. 18
	TipAfeIgv      string          // Catálogo 07
}

// Leyenda es un texto normado del comprobante (ej. 1000 = monto en letras).
type Leyenda struct {
	Codigo string
	Valor  string
}

// Factura es el modelo de entrada para Invoice (factura "01" o boleta "03").
type Factura struct {
	TipoDoc       string // "01" | "03"
	Serie         string // F001, B001
	Correlativo   string // numérico, se normaliza a 8 dígitos en el nombre de archivo
	FechaEmision  time.Time
	TipoOperacion string // Catálogo 51, ej. 0101
	TipoMoneda    string // PEN, USD
	FormaPago     string // Contado, Credito

	Emisor  Emisor
	Cliente Cliente
	Items   []Linea

	MtoOperGravadas   decimal.Decimal
	MtoOperExoneradas decimal.Decimal
	MtoOperInafectas  decimal.Decimal
	MtoIGV            decimal.Decimal
	TotalImpuestos    decimal.Decimal
	ValorVenta        decimal.Decimal
	SubTotal          decimal.Decimal
	MtoImpVenta       decimal.Decimal

	Leyendas []Leyenda
}

// Traslado describe el motivo y modalidad de una guía de remisión.
type Traslado struct {
	Motivo            string // Catálogo 20
	DescripcionMotivo string
	Modalidad         string // Catálogo 18: "01" público, "02" privado
	FechaInicio       time.Time
	PesoBruto         decimal.Decimal
	UnidadPeso        string // normalmente KGM
	NumeroBultos      int
}

// Direccion es un punto de partida o llegada de la guía.
type Direccion struct {
	Ubigeo    string
	Direccion string
}

// Transportista para modalidad de transporte público.
type Transportista struct {
	TipoDoc     string
	NumDoc      string
	RazonSocial string
	NroMTC      string
}

// Conductor y Vehiculo para modalidad de transporte privado.
type Conductor struct {
	TipoDoc   string
	NumDoc    string
	Nombres   string
	Apellidos string
	Licencia  string
}

type Vehiculo struct {
	Placa string
}

// GuiaItem es un bien trasladado en la guía.
type GuiaItem struct {
	Codigo      string
	Descripcion string
	Unidad      string
	Cantidad    decimal.Decimal
}

// Guia es el modelo de entrada para DespatchAdvice (guía de remisión "09").
type Guia struct {
	Serie        string // T001
	Correlativo  string
	FechaEmision time.Time

	Emisor       Emisor
	Destinatario Cliente
	Traslado     Traslado
	PartidaDe    Direccion
	LlegadaA     Direccion

	Transportista *Transportista // modalidad 01
	Vehiculo      *Vehiculo      // modalidad 02
	Conductor     *Conductor     // modalidad 02

	Items []GuiaItem
}

// BajaDetalle es un comprobante incluido en la comunicación de baja.
type BajaDetalle struct {
	TipoDoc     string // Catálogo 01 del documento dado de baja
	Serie       string
	Correlativo string
	Motivo      string
}

// Baja es el modelo de entrada para VoidedDocuments (comunicación "RA").
// Correlativo es la secuencia del día (una baja por día puede tener varias).
type Baja struct {
	Correlativo       int
	FechaGeneracion   time.Time // fecha de emisión de los documentos dados de baja
	FechaComunicacion time.Time
	Emisor            Emisor
	Detalles          []BajaDetalle
}

// ResumenDetalle es una boleta incluida en el resumen diario.
type ResumenDetalle struct {
	TipoDoc    string // "03"
	DocID      string // serie-correlativo, ej. B001-123
	Cliente    Cliente
	Estado     string // Catálogo 19: "1" adicionar, "2" modificar, "3" anular
	TipoMoneda string

	MtoOperGravadas   decimal.Decimal
	MtoOperExoneradas decimal.Decimal
	MtoOperInafectas  decimal.Decimal
	MtoIGV            decimal.Decimal
	Total             decimal.Decimal
}

// Resumen es el modelo de entrada para SummaryDocuments (resumen "RC").
type Resumen struct {
	Correlativo     int
	FechaGeneracion time.Time // fecha de emisión de las boletas
	FechaResumen    time.Time // fecha de envío del resumen
	Emisor          Emisor
	Detalles        []ResumenDetalle
}
