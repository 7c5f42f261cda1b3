package dto

import "github.com/shopspring/decimal"

// EmisorDTO datos del emisor que complementan o corrigen los de la empresa
// registrada (distrito, provincia y departamento no viven en la tabla
// empresa). El RUC solo se usa cuando la petición no viene atada a una
// empresa autenticada: identifica a qué empresa registrada pertenece el
// envío.
type EmisorDTO struct {
	RUC             string `json:"ruc,omitempty"`
	NombreComercial string `json:"nombre_comercial,omitempty"`
	Distrito        string `json:"distrito,omitempty"`
	Provincia       string `json:"provincia,omitempty"`
	Departamento    string `json:"departamento,omitempty"`
}

// ClienteDTO receptor del comprobante.
type ClienteDTO struct {
	TipoDoc     string `json:"tipo_doc"` // Catálogo 06: "1" DNI, "6" RUC
	NumDoc      string `json:"num_doc"`
	RazonSocial string `json:"razon_social"`
	Direccion   string `json:"direccion,omitempty"`
}

// LineaDTO ítem de factura o boleta.
type LineaDTO struct {
	Codigo         string          `json:"codigo,omitempty"`
	Descripcion    string          `json:"descripcion"`
	Unidad         string          `json:"unidad"` // Catálogo 03, ej. NIU
	Cantidad       decimal.Decimal `json:"cantidad"`
	ValorUnitario  decimal.Decimal `json:"valor_unitario"`  // sin IGV
	PrecioUnitario decimal.Decimal `json:"precio_unitario"` // con IGV
	ValorVenta     decimal.Decimal `json:"valor_venta"`
	IGV            decimal.Decimal `json:"igv"`
	PorcentajeIGV  decimal.Decimal `json:"porcentaje_igv"`
	TipAfeIgv      string          `json:"tip_afe_igv"` // Catálogo 07
}

// LeyendaDTO texto normado (ej. código 1000 = monto en letras).
type LeyendaDTO struct {
	Codigo string `json:"codigo"`
	Valor  string `json:"valor"`
}

// EmitirComprobanteRequest body para POST /api/sunat/comprobantes.
// Los montos totales son opcionales: si MtoImpVenta viene en cero se derivan
// de los ítems.
type EmitirComprobanteRequest struct {
	TipoDoc       string `json:"tipo_doc"` // "01" factura, "03" boleta
	Serie         string `json:"serie"`
	Correlativo   string `json:"correlativo"`
	FechaEmision  string `json:"fecha_emision"` // 2006-01-02; vacío = hoy
	TipoOperacion string `json:"tipo_operacion,omitempty"`
	TipoMoneda    string `json:"tipo_moneda,omitempty"` // default PEN
	FormaPago     string `json:"forma_pago,omitempty"`  // default Contado

	Emisor   *EmisorDTO   `json:"emisor,omitempty"`
	Cliente  ClienteDTO   `json:"cliente"`
	Items    []LineaDTO   `json:"items"`
	Leyendas []LeyendaDTO `json:"leyendas,omitempty"`

	MtoOperGravadas   decimal.Decimal `json:"mto_oper_gravadas"`
	MtoOperExoneradas decimal.Decimal `json:"mto_oper_exoneradas"`
	MtoOperInafectas  decimal.Decimal `json:"mto_oper_inafectas"`
	MtoIGV            decimal.Decimal `json:"mto_igv"`
	MtoImpVenta       decimal.Decimal `json:"mto_imp_venta"`
}

// TrasladoDTO motivo y modalidad del traslado de una guía.
type TrasladoDTO struct {
	Motivo            string          `json:"motivo"` // Catálogo 20
	DescripcionMotivo string          `json:"descripcion_motivo,omitempty"`
	Modalidad         string          `json:"modalidad"` // "01" público, "02" privado
	FechaInicio       string          `json:"fecha_inicio"`
	PesoBruto         decimal.Decimal `json:"peso_bruto"`
	UnidadPeso        string          `json:"unidad_peso,omitempty"` // default KGM
	NumeroBultos      int             `json:"numero_bultos,omitempty"`
}

// DireccionDTO punto de partida o llegada.
type DireccionDTO struct {
	Ubigeo    string `json:"ubigeo"`
	Direccion string `json:"direccion"`
}

// TransportistaDTO para modalidad de transporte público.
type TransportistaDTO struct {
	TipoDoc     string `json:"tipo_doc"`
	NumDoc      string `json:"num_doc"`
	RazonSocial string `json:"razon_social"`
	NroMTC      string `json:"nro_mtc,omitempty"`
}

// ConductorDTO y VehiculoDTO para modalidad de transporte privado.
type ConductorDTO struct {
	TipoDoc   string `json:"tipo_doc"`
	NumDoc    string `json:"num_doc"`
	Nombres   string `json:"nombres"`
	Apellidos string `json:"apellidos"`
	Licencia  string `json:"licencia"`
}

type VehiculoDTO struct {
	Placa string `json:"placa"`
}

// GuiaItemDTO bien trasladado.
type GuiaItemDTO struct {
	Codigo      string          `json:"codigo,omitempty"`
	Descripcion string          `json:"descripcion"`
	Unidad      string          `json:"unidad"`
	Cantidad    decimal.Decimal `json:"cantidad"`
}

// EmitirGuiaRequest body para POST /api/sunat/guias.
type EmitirGuiaRequest struct {
	Serie        string `json:"serie"`
	Correlativo  string `json:"correlativo"`
	FechaEmision string `json:"fecha_emision"`

	Emisor       *EmisorDTO   `json:"emisor,omitempty"`
	Destinatario ClienteDTO   `json:"destinatario"`
	Traslado     TrasladoDTO  `json:"traslado"`
	PartidaDe    DireccionDTO `json:"partida_de"`
	LlegadaA     DireccionDTO `json:"llegada_a"`

	Transportista *TransportistaDTO `json:"transportista,omitempty"`
	Vehiculo      *VehiculoDTO      `json:"vehiculo,omitempty"`
	Conductor     *ConductorDTO     `json:"conductor,omitempty"`

	Items []GuiaItemDTO `json:"items"`
}

// BajaDetalleDTO comprobante incluido en la comunicación de baja.
type BajaDetalleDTO struct {
	TipoDoc     string `json:"tipo_doc"`
	Serie       string `json:"serie"`
	Correlativo string `json:"correlativo"`
	Motivo      string `json:"motivo"`
}

// ComunicarBajaRequest body para POST /api/sunat/bajas.
type ComunicarBajaRequest struct {
	Correlativo     int              `json:"correlativo"` // secuencia del día
	FechaGeneracion string           `json:"fecha_generacion"`
	Emisor          *EmisorDTO       `json:"emisor,omitempty"`
	Detalles        []BajaDetalleDTO `json:"detalles"`
}

// ResumenDetalleDTO boleta incluida en el resumen diario.
type ResumenDetalleDTO struct {
	TipoDoc    string     `json:"tipo_doc"` // "03"
	DocID      string     `json:"doc_id"`   // serie-correlativo
	Cliente    ClienteDTO `json:"cliente"`
	Estado     string     `json:"estado"` // Catálogo 19
	TipoMoneda string     `json:"tipo_moneda,omitempty"`

	MtoOperGravadas   decimal.Decimal `json:"mto_oper_gravadas"`
	MtoOperExoneradas decimal.Decimal `json:"mto_oper_exoneradas"`
	MtoOperInafectas  decimal.Decimal `json:"mto_oper_inafectas"`
	MtoIGV            decimal.Decimal `json:"mto_igv"`
	Total             decimal.Decimal `json:"total"`
}

// EnviarResumenRequest body para POST /api/sunat/resumenes.
type EnviarResumenRequest struct {
	Correlativo     int                 `json:"correlativo"`
	FechaGeneracion string              `json:"fecha_generacion"`
	Emisor          *EmisorDTO          `json:"emisor,omitempty"`
	Detalles        []ResumenDetalleDTO `json:"detalles"`
}

// EnvioResponse estado de un envío a SUNAT.
type EnvioResponse struct {
	ID           string          `json:"id"`
	TipoDoc      string          `json:"tipo_doc"`
	Serie        string          `json:"serie,omitempty"`
	Correlativo  string          `json:"correlativo"`
	FileName     string          `json:"file_name"`
	Total        decimal.Decimal `json:"total"`
	Estado       string          `json:"estado"` // FIRMADO|ENVIADO|ACEPTADO|RECHAZADO|ERROR
	Ticket       string          `json:"ticket,omitempty"`
	CdrCodigo    string          `json:"cdr_codigo,omitempty"`
	CdrMensaje   string          `json:"cdr_mensaje,omitempty"`
	CdrNotas     string          `json:"cdr_notas,omitempty"`
	ErrorDetalle string          `json:"error_detalle,omitempty"`
	EnviadoAt    string          `json:"enviado_at,omitempty"`
}

// ClaveRequest body para PUT /api/empresas/:id/claves.
type ClaveRequest struct {
	Tipo  string `json:"tipo"` // sunat_sol_user, sunat_sol_pass, sunat_cert_p12...
	Valor string `json:"valor"`
}

// ClaveResponse clave registrada. El valor nunca se devuelve.
type ClaveResponse struct {
	Tipo      string `json:"tipo"`
	UpdatedAt string `json:"updated_at,omitempty"`
}
