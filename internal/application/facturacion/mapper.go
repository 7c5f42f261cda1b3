package facturacion

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Facturacion-api/internal/application/dto"
	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/infrastructure/sunat/ubl"
	pkgsunat "github.com/jhoicas/Facturacion-api/pkg/sunat"
)

const fechaEntrada = "2006-01-02"

func parseFecha(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	t, err := time.Parse(fechaEntrada, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: fecha inválida %q (usar yyyy-mm-dd)", domain.ErrInvalidInput, s)
	}
	return t, nil
}

// armarEmisor combina los datos registrados de la empresa con los campos que
// solo llegan en la petición. Con fallback de configuración la empresa es nil
// y el emisor sale completo del DTO más el RUC de las credenciales.
func armarEmisor(empresa *entity.Empresa, creds *Credenciales, in *dto.EmisorDTO) ubl.Emisor {
	e := ubl.Emisor{RUC: creds.RUC}
	if empresa != nil {
		e.RazonSocial = empresa.RazonSocial
		e.Direccion = empresa.Direccion
		e.Ubigeo = empresa.Ubigeo
	}
	if in != nil {
		e.NombreComercial = in.NombreComercial
		e.Distrito = in.Distrito
		e.Provincia = in.Provincia
		e.Departamento = in.Departamento
	}
	return e
}

func mapCliente(in dto.ClienteDTO) ubl.Cliente {
	return ubl.Cliente{
		TipoDoc:     in.TipoDoc,
		NumDoc:      in.NumDoc,
		RazonSocial: in.RazonSocial,
		Direccion:   in.Direccion,
	}
}

func mapFactura(in dto.EmitirComprobanteRequest, emisor ubl.Emisor) (*ubl.Factura, error) {
	fecha, err := parseFecha(in.FechaEmision)
	if err != nil {
		return nil, err
	}

	f := &ubl.Factura{
		TipoDoc:       in.TipoDoc,
		Serie:         in.Serie,
		Correlativo:   in.Correlativo,
		FechaEmision:  fecha,
		TipoOperacion: in.TipoOperacion,
		TipoMoneda:    in.TipoMoneda,
		FormaPago:     in.FormaPago,
		Emisor:        emisor,
		Cliente:       mapCliente(in.Cliente),
	}
	if f.TipoMoneda == "" {
		f.TipoMoneda = "PEN"
	}
	if f.FormaPago == "" {
		f.FormaPago = "Contado"
	}

	for _, item := range in.Items {
		f.Items = append(f.Items, ubl.Linea(item))
	}
	for _, l := range in.Leyendas {
		f.Leyendas = append(f.Leyendas, ubl.Leyenda(l))
	}

	f.MtoOperGravadas = in.MtoOperGravadas
	f.MtoOperExoneradas = in.MtoOperExoneradas
	f.MtoOperInafectas = in.MtoOperInafectas
	f.MtoIGV = in.MtoIGV
	f.MtoImpVenta = in.MtoImpVenta
	if f.MtoImpVenta.IsZero() {
		derivarTotales(f)
	}
	f.TotalImpuestos = f.MtoIGV
	f.ValorVenta = f.MtoOperGravadas.Add(f.MtoOperExoneradas).Add(f.MtoOperInafectas)
	f.SubTotal = f.MtoImpVenta
	return f, nil
}

// derivarTotales calcula los acumulados por afectación a partir de las
// líneas cuando la petición no los trae.
func derivarTotales(f *ubl.Factura) {
	var gravadas, exoneradas, inafectas, igv decimal.Decimal
	for _, l := range f.Items {
		switch {
		case pkgsunat.EsAfectacionGravada(l.TipAfeIgv):
			gravadas = gravadas.Add(l.ValorVenta)
			igv = igv.Add(l.IGV)
		case l.TipAfeIgv == pkgsunat.AfeIgvExonerado:
			exoneradas = exoneradas.Add(l.ValorVenta)
		default:
			inafectas = inafectas.Add(l.ValorVenta)
		}
	}
	f.MtoOperGravadas = gravadas
	f.MtoOperExoneradas = exoneradas
	f.MtoOperInafectas = inafectas
	f.MtoIGV = igv
	f.MtoImpVenta = gravadas.Add(exoneradas).Add(inafectas).Add(igv)
}

func mapGuia(in dto.EmitirGuiaRequest, emisor ubl.Emisor) (*ubl.Guia, error) {
	fecha, err := parseFecha(in.FechaEmision)
	if err != nil {
		return nil, err
	}
	inicio, err := parseFecha(in.Traslado.FechaInicio)
	if err != nil {
		return nil, err
	}

	g := &ubl.Guia{
		Serie:        in.Serie,
		Correlativo:  in.Correlativo,
		FechaEmision: fecha,
		Emisor:       emisor,
		Destinatario: mapCliente(in.Destinatario),
		Traslado: ubl.Traslado{
			Motivo:            in.Traslado.Motivo,
			DescripcionMotivo: in.Traslado.DescripcionMotivo,
			Modalidad:         in.Traslado.Modalidad,
			FechaInicio:       inicio,
			PesoBruto:         in.Traslado.PesoBruto,
			UnidadPeso:        in.Traslado.UnidadPeso,
			NumeroBultos:      in.Traslado.NumeroBultos,
		},
		PartidaDe: ubl.Direccion(in.PartidaDe),
		LlegadaA:  ubl.Direccion(in.LlegadaA),
	}
	if g.Traslado.UnidadPeso == "" {
		g.Traslado.UnidadPeso = pkgsunat.UnidadKilogram
	}

	if in.Transportista != nil {
		t := ubl.Transportista(*in.Transportista)
		g.Transportista = &t
	}
	if in.Vehiculo != nil {
		v := ubl.Vehiculo(*in.Vehiculo)
		g.Vehiculo = &v
	}
	if in.Conductor != nil {
		c := ubl.Conductor(*in.Conductor)
		g.Conductor = &c
	}
	for _, item := range in.Items {
		g.Items = append(g.Items, ubl.GuiaItem(item))
	}
	return g, nil
}

func mapBaja(in dto.ComunicarBajaRequest, emisor ubl.Emisor, hoy time.Time) (*ubl.Baja, error) {
	generacion, err := parseFecha(in.FechaGeneracion)
	if err != nil {
		return nil, err
	}
	b := &ubl.Baja{
		Correlativo:       in.Correlativo,
		FechaGeneracion:   generacion,
		FechaComunicacion: hoy,
		Emisor:            emisor,
	}
	for _, d := range in.Detalles {
		b.Detalles = append(b.Detalles, ubl.BajaDetalle(d))
	}
	return b, nil
}

func mapResumen(in dto.EnviarResumenRequest, emisor ubl.Emisor, hoy time.Time) (*ubl.Resumen, error) {
	generacion, err := parseFecha(in.FechaGeneracion)
	if err != nil {
		return nil, err
	}
	r := &ubl.Resumen{
		Correlativo:     in.Correlativo,
		FechaGeneracion: generacion,
		FechaResumen:    hoy,
		Emisor:          emisor,
	}
	for _, d := range in.Detalles {
		det := ubl.ResumenDetalle{
			TipoDoc:           d.TipoDoc,
			DocID:             d.DocID,
			Cliente:           mapCliente(d.Cliente),
			Estado:            d.Estado,
			TipoMoneda:        d.TipoMoneda,
			MtoOperGravadas:   d.MtoOperGravadas,
			MtoOperExoneradas: d.MtoOperExoneradas,
			MtoOperInafectas:  d.MtoOperInafectas,
			MtoIGV:            d.MtoIGV,
			Total:             d.Total,
		}
		if det.TipoMoneda == "" {
			det.TipoMoneda = "PEN"
		}
		r.Detalles = append(r.Detalles, det)
	}
	return r, nil
}

func mapEnvio(e *entity.ComprobanteEnvio) *dto.EnvioResponse {
	out := &dto.EnvioResponse{
		ID:           e.ID,
		TipoDoc:      e.TipoDoc,
		Serie:        e.Serie,
		Correlativo:  e.Correlativo,
		FileName:     e.FileName,
		Total:        e.Total,
		Estado:       e.Estado,
		Ticket:       e.Ticket,
		CdrCodigo:    e.CdrCodigo,
		CdrMensaje:   e.CdrMensaje,
		CdrNotas:     e.CdrNotas,
		ErrorDetalle: e.ErrorDetalle,
	}
	if !e.EnviadoAt.IsZero() {
		out.EnviadoAt = e.EnviadoAt.Format(time.RFC3339)
	}
	return out
}
