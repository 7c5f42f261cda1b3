package facturacion_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Facturacion-api/internal/application/dto"
	"github.com/jhoicas/Facturacion-api/internal/application/facturacion"
	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/infrastructure/sunat"
	"github.com/jhoicas/Facturacion-api/internal/infrastructure/sunat/rest"
	"github.com/jhoicas/Facturacion-api/internal/infrastructure/sunat/soap"
	"github.com/jhoicas/Facturacion-api/pkg/config"
	"github.com/jhoicas/Facturacion-api/pkg/logger"
)

// ─────────────────────────────────────────────────────────────
//  Fakes de repositorios
// ─────────────────────────────────────────────────────────────

type empresasFake struct{ porID map[string]*entity.Empresa }

func (f *empresasFake) Create(*entity.Empresa) error { return nil }
func (f *empresasFake) GetByID(id string) (*entity.Empresa, error) {
	if e, ok := f.porID[id]; ok {
		return e, nil
	}
	return nil, domain.ErrEmpresaNotFound
}
func (f *empresasFake) GetByRUC(ruc string) (*entity.Empresa, error) {
	for _, e := range f.porID {
		if e.RUC == ruc {
			return e, nil
		}
	}
	return nil, domain.ErrEmpresaNotFound
}
func (f *empresasFake) Update(*entity.Empresa) error             { return nil }
func (f *empresasFake) List(int, int) ([]*entity.Empresa, error) { return nil, nil }
func (f *empresasFake) Delete(string) error                      { return nil }

type clavesFake struct{ porEmpresa map[string][]*entity.Clave }

func (f *clavesFake) Upsert(*entity.Clave) error { return nil }
func (f *clavesFake) Get(empresaID, tipo string) (*entity.Clave, error) {
	for _, c := range f.porEmpresa[empresaID] {
		if c.Tipo == tipo {
			return c, nil
		}
	}
	return nil, domain.ErrClaveNotFound
}
func (f *clavesFake) GetAll(empresaID string) ([]*entity.Clave, error) {
	claves, ok := f.porEmpresa[empresaID]
	if !ok {
		return nil, domain.ErrClaveNotFound
	}
	return claves, nil
}
func (f *clavesFake) Delete(string, string) error { return nil }

type enviosFake struct {
	porID        map[string]*entity.ComprobanteEnvio
	actualizados int
}

func (f *enviosFake) Create(e *entity.ComprobanteEnvio) error {
	f.porID[e.ID] = e
	return nil
}
func (f *enviosFake) Update(e *entity.ComprobanteEnvio) error {
	f.porID[e.ID] = e
	f.actualizados++
	return nil
}
func (f *enviosFake) GetByID(id string) (*entity.ComprobanteEnvio, error) {
	if e, ok := f.porID[id]; ok {
		return e, nil
	}
	return nil, domain.ErrNotFound
}
func (f *enviosFake) GetByFileName(string, string) (*entity.ComprobanteEnvio, error) {
	return nil, domain.ErrNotFound
}
func (f *enviosFake) ListByEmpresa(string, int, int) ([]*entity.ComprobanteEnvio, error) {
	out := make([]*entity.ComprobanteEnvio, 0, len(f.porID))
	for _, e := range f.porID {
		out = append(out, e)
	}
	return out, nil
}

// ─────────────────────────────────────────────────────────────
//  Fakes de canales
// ─────────────────────────────────────────────────────────────

type firmadorFake struct{}

func (firmadorFake) Firmar(xmlBytes []byte) ([]byte, error) { return xmlBytes, nil }

type billFake struct {
	cdrZip   []byte
	err      error
	ticket   string
	status   *soap.StatusTicket
	fileName string
}

func (f *billFake) EnviarComprobante(_ context.Context, fileName string, _ []byte) ([]byte, error) {
	f.fileName = fileName
	return f.cdrZip, f.err
}
func (f *billFake) EnviarResumen(_ context.Context, fileName string, _ []byte) (string, error) {
	f.fileName = fileName
	return f.ticket, f.err
}
func (f *billFake) ConsultarTicket(context.Context, string) (*soap.StatusTicket, error) {
	return f.status, f.err
}

type greFake struct {
	ticket    string
	resultado *rest.ResultadoEnvio
	err       error
}

func (f *greFake) Enviar(context.Context, string, []byte) (string, error) { return f.ticket, f.err }
func (f *greFake) Consultar(context.Context, string) (*rest.ResultadoEnvio, error) {
	return f.resultado, f.err
}
func (f *greFake) ConsultarHastaCDR(context.Context, string) (*rest.ResultadoEnvio, error) {
	return f.resultado, f.err
}

// ─────────────────────────────────────────────────────────────
//  Armado del servicio
// ─────────────────────────────────────────────────────────────

const empresaID = "emp-1"

func cdrZip(t *testing.T, codigo, descripcion string) []byte {
	t.Helper()
	xmlDoc := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<ar:ApplicationResponse xmlns:ar="urn:oasis:names:specification:ubl:schema:xsd:ApplicationResponse-2"
    xmlns:cac="urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2"
    xmlns:cbc="urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2">
  <cac:DocumentResponse>
    <cac:Response>
      <cbc:ResponseCode>%s</cbc:ResponseCode>
      <cbc:Description>%s</cbc:Description>
    </cac:Response>
  </cac:DocumentResponse>
</ar:ApplicationResponse>`, codigo, descripcion)
	zipBytes, err := sunat.Comprimir([]byte(xmlDoc), "R-cdr.xml")
	require.NoError(t, err)
	return zipBytes
}

func armarServicio(t *testing.T) (*facturacion.Service, *enviosFake) {
	t.Helper()

	empresas := &empresasFake{porID: map[string]*entity.Empresa{
		empresaID: {ID: empresaID, RazonSocial: "COMERCIAL ANDINA S.A.C.", RUC: "20610588981",
			Direccion: "AV. AREQUIPA 123", Ubigeo: "150101"},
	}}
	claves := &clavesFake{porEmpresa: map[string][]*entity.Clave{
		empresaID: {
			{Tipo: entity.ClaveSolUser, Valor: "MODDATOS"},
			{Tipo: entity.ClaveSolPass, Valor: "moddatos"},
		},
	}}
	envios := &enviosFake{porID: map[string]*entity.ComprobanteEnvio{}}

	cfg := config.SunatConfig{Env: "beta", GreChannel: "rest"}
	log := logger.New(logger.Config{Env: "production", Level: "error"})
	resolutor := facturacion.NewResolutor(empresas, claves, cfg)
	svc := facturacion.NewService(log, resolutor, envios, cfg)
	svc.SetFirmadorFactory(func(*facturacion.Credenciales) (facturacion.Firmador, error) {
		return firmadorFake{}, nil
	})
	return svc, envios
}

func facturaRequest() dto.EmitirComprobanteRequest {
	return dto.EmitirComprobanteRequest{
		TipoDoc:     "01",
		Serie:       "F001",
		Correlativo: "1",
		Cliente:     dto.ClienteDTO{TipoDoc: "6", NumDoc: "20100070970", RazonSocial: "CLIENTE S.A."},
		Items: []dto.LineaDTO{{
			Descripcion:    "Servicio de consultoría",
			Unidad:         "ZZ",
			Cantidad:       decimal.NewFromInt(1),
			ValorUnitario:  decimal.NewFromInt(100),
			PrecioUnitario: decimal.NewFromInt(118),
			ValorVenta:     decimal.NewFromInt(100),
			IGV:            decimal.NewFromInt(18),
			PorcentajeIGV:  decimal.NewFromInt(18),
			TipAfeIgv:      "10",
		}},
	}
}

// ─────────────────────────────────────────────────────────────
//  EmitirComprobante
// ─────────────────────────────────────────────────────────────

func TestEmitirComprobante_Aceptado(t *testing.T) {
	svc, envios := armarServicio(t)
	bill := &billFake{cdrZip: cdrZip(t, "0", "La Factura ha sido aceptada")}
	svc.SetBillFactory(func(*facturacion.Credenciales) facturacion.BillClient { return bill })

	resp, err := svc.EmitirComprobante(context.Background(), empresaID, facturaRequest())
	require.NoError(t, err)

	assert.Equal(t, "ACEPTADO", resp.Estado)
	assert.Equal(t, "0", resp.CdrCodigo)
	assert.Equal(t, "20610588981-01-F001-00000001", resp.FileName)
	assert.Equal(t, "20610588981-01-F001-00000001.zip", bill.fileName, "el ZIP viaja con el nombre SUNAT")
	assert.True(t, resp.Total.Equal(decimal.NewFromInt(118)), "el total se deriva de los ítems")

	guardado, err := envios.GetByID(resp.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.EnvioStatusAceptado, guardado.Estado)
}

func TestEmitirComprobante_RechazadoPorCDR(t *testing.T) {
	svc, _ := armarServicio(t)
	bill := &billFake{cdrZip: cdrZip(t, "2324", "El comprobante fue rechazado")}
	svc.SetBillFactory(func(*facturacion.Credenciales) facturacion.BillClient { return bill })

	resp, err := svc.EmitirComprobante(context.Background(), empresaID, facturaRequest())
	require.NoError(t, err, "un rechazo de negocio no es error del servicio")
	assert.Equal(t, "RECHAZADO", resp.Estado)
	assert.Equal(t, "2324", resp.CdrCodigo)
}

func TestEmitirComprobante_FaultQuedaRechazado(t *testing.T) {
	svc, _ := armarServicio(t)
	bill := &billFake{err: &sunat.FaultError{Code: "soap-env:Client.1033", Message: "registrado previamente"}}
	svc.SetBillFactory(func(*facturacion.Credenciales) facturacion.BillClient { return bill })

	resp, err := svc.EmitirComprobante(context.Background(), empresaID, facturaRequest())
	require.NoError(t, err)
	assert.Equal(t, "RECHAZADO", resp.Estado)
	assert.Contains(t, resp.CdrCodigo, "1033")
}

func TestEmitirComprobante_ErrorDeTransporte(t *testing.T) {
	svc, envios := armarServicio(t)
	bill := &billFake{err: &sunat.TransporteError{Op: "sendBill", Err: errors.New("conexión rechazada")}}
	svc.SetBillFactory(func(*facturacion.Credenciales) facturacion.BillClient { return bill })

	_, err := svc.EmitirComprobante(context.Background(), empresaID, facturaRequest())
	require.Error(t, err)
	assert.True(t, errors.Is(err, sunat.ErrTransporte))

	// La bitácora conserva el envío en ERROR con el detalle.
	var guardado *entity.ComprobanteEnvio
	for _, e := range envios.porID {
		guardado = e
	}
	require.NotNil(t, guardado)
	assert.Equal(t, entity.EnvioStatusError, guardado.Estado)
	assert.Contains(t, guardado.ErrorDetalle, "conexión rechazada")
}

func TestEmitirComprobante_Validaciones(t *testing.T) {
	svc, _ := armarServicio(t)

	in := facturaRequest()
	in.TipoDoc = "07"
	_, err := svc.EmitirComprobante(context.Background(), empresaID, in)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	in = facturaRequest()
	in.Items = nil
	_, err = svc.EmitirComprobante(context.Background(), empresaID, in)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	_, err = svc.EmitirComprobante(context.Background(), "emp-inexistente", facturaRequest())
	assert.True(t, errors.Is(err, domain.ErrEmpresaNotFound))
}

// ─────────────────────────────────────────────────────────────
//  EmitirGuia (canal REST)
// ─────────────────────────────────────────────────────────────

func guiaRequest() dto.EmitirGuiaRequest {
	return dto.EmitirGuiaRequest{
		Serie:        "T001",
		Correlativo:  "1",
		Destinatario: dto.ClienteDTO{TipoDoc: "6", NumDoc: "20100070970", RazonSocial: "DESTINO S.A."},
		Traslado: dto.TrasladoDTO{
			Motivo:      "01",
			Modalidad:   "02",
			FechaInicio: "2026-08-31",
			PesoBruto:   decimal.NewFromFloat(12.5),
		},
		PartidaDe: dto.DireccionDTO{Ubigeo: "150101", Direccion: "AV. AREQUIPA 123"},
		LlegadaA:  dto.DireccionDTO{Ubigeo: "040101", Direccion: "CALLE MERCADERES 456"},
		Vehiculo:  &dto.VehiculoDTO{Placa: "ABC123"},
		Conductor: &dto.ConductorDTO{TipoDoc: "1", NumDoc: "45678912", Nombres: "JUAN", Apellidos: "PEREZ", Licencia: "Q45678912"},
		Items:     []dto.GuiaItemDTO{{Descripcion: "CAJAS", Unidad: "NIU", Cantidad: decimal.NewFromInt(10)}},
	}
}

func TestEmitirGuia_AceptadaPorREST(t *testing.T) {
	svc, _ := armarServicio(t)
	gre := &greFake{
		ticket:    "1756600000777",
		resultado: &rest.ResultadoEnvio{Codigo: "0", CdrZip: cdrZip(t, "0", "La Guia ha sido aceptada")},
	}
	svc.SetGuiaRestFactory(func(*facturacion.Credenciales) (facturacion.GuiaRestClient, error) {
		return gre, nil
	})

	resp, err := svc.EmitirGuia(context.Background(), empresaID, guiaRequest())
	require.NoError(t, err)
	assert.Equal(t, "ACEPTADO", resp.Estado)
	assert.Equal(t, "1756600000777", resp.Ticket)
	assert.Equal(t, "20610588981-09-T001-00000001", resp.FileName)
}

func TestEmitirGuia_TimeoutDejaTicketPendiente(t *testing.T) {
	svc, _ := armarServicio(t)
	// Enviar prospera; ConsultarHastaCDR agota intentos.
	svc.SetGuiaRestFactory(func(*facturacion.Credenciales) (facturacion.GuiaRestClient, error) {
		return greEnvioOkConsultaTimeout{}, nil
	})

	resp, err := svc.EmitirGuia(context.Background(), empresaID, guiaRequest())
	require.NoError(t, err, "el timeout de consulta no es un fallo del envío")
	assert.Equal(t, "ENVIADO", resp.Estado)
	assert.Equal(t, "t-lento", resp.Ticket)
}

type greEnvioOkConsultaTimeout struct{}

func (greEnvioOkConsultaTimeout) Enviar(context.Context, string, []byte) (string, error) {
	return "t-lento", nil
}
func (greEnvioOkConsultaTimeout) Consultar(context.Context, string) (*rest.ResultadoEnvio, error) {
	return &rest.ResultadoEnvio{Codigo: "98"}, nil
}
func (greEnvioOkConsultaTimeout) ConsultarHastaCDR(context.Context, string) (*rest.ResultadoEnvio, error) {
	return nil, &sunat.TimeoutConsultaError{Ticket: "t-lento", Intentos: 10}
}

// ─────────────────────────────────────────────────────────────
//  Bajas, resúmenes y consulta de tickets
// ─────────────────────────────────────────────────────────────

func TestComunicarBaja_QuedaEnviadaConTicket(t *testing.T) {
	svc, _ := armarServicio(t)
	bill := &billFake{ticket: "1756600000123"}
	svc.SetBillFactory(func(*facturacion.Credenciales) facturacion.BillClient { return bill })

	resp, err := svc.ComunicarBaja(context.Background(), empresaID, dto.ComunicarBajaRequest{
		Correlativo:     1,
		FechaGeneracion: "2026-08-30",
		Detalles: []dto.BajaDetalleDTO{{
			TipoDoc: "01", Serie: "F001", Correlativo: "1", Motivo: "ERROR EN DATOS DEL CLIENTE",
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, "ENVIADO", resp.Estado)
	assert.Equal(t, "1756600000123", resp.Ticket)
	assert.Equal(t, "RA", resp.TipoDoc)
	assert.Contains(t, resp.FileName, "20610588981-RA-")
	assert.Contains(t, bill.fileName, ".zip")
}

func TestEnviarResumen_QuedaEnviadoConTicket(t *testing.T) {
	svc, _ := armarServicio(t)
	bill := &billFake{ticket: "1756600000456"}
	svc.SetBillFactory(func(*facturacion.Credenciales) facturacion.BillClient { return bill })

	resp, err := svc.EnviarResumen(context.Background(), empresaID, dto.EnviarResumenRequest{
		Correlativo:     1,
		FechaGeneracion: "2026-08-30",
		Detalles: []dto.ResumenDetalleDTO{{
			TipoDoc: "03", DocID: "B001-123",
			Cliente: dto.ClienteDTO{TipoDoc: "1", NumDoc: "45678912", RazonSocial: "CLIENTE"},
			Estado:  "1",
			Total:   decimal.NewFromInt(118),
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, "ENVIADO", resp.Estado)
	assert.Equal(t, "RC", resp.TipoDoc)
	assert.Contains(t, resp.Correlativo, "RC-")
}

func TestConsultarEnvio_TicketAceptado(t *testing.T) {
	svc, envios := armarServicio(t)
	envios.porID["env-1"] = &entity.ComprobanteEnvio{
		ID: "env-1", EmpresaID: empresaID, TipoDoc: "RA",
		Estado: entity.EnvioStatusEnviado, Ticket: "1756600000123",
	}
	bill := &billFake{status: &soap.StatusTicket{Codigo: "0", CdrZip: cdrZip(t, "0", "aceptada")}}
	svc.SetBillFactory(func(*facturacion.Credenciales) facturacion.BillClient { return bill })

	resp, err := svc.ConsultarEnvio(context.Background(), empresaID, "env-1")
	require.NoError(t, err)
	assert.Equal(t, "ACEPTADO", resp.Estado)
	assert.Equal(t, "0", resp.CdrCodigo)
}

func TestConsultarEnvio_EnProcesoNoCambiaEstado(t *testing.T) {
	svc, envios := armarServicio(t)
	envios.porID["env-1"] = &entity.ComprobanteEnvio{
		ID: "env-1", EmpresaID: empresaID, TipoDoc: "RC",
		Estado: entity.EnvioStatusEnviado, Ticket: "t-98",
	}
	bill := &billFake{status: &soap.StatusTicket{Codigo: "98", Mensaje: "EN PROCESO"}}
	svc.SetBillFactory(func(*facturacion.Credenciales) facturacion.BillClient { return bill })

	resp, err := svc.ConsultarEnvio(context.Background(), empresaID, "env-1")
	require.NoError(t, err)
	assert.Equal(t, "ENVIADO", resp.Estado)
}

func TestConsultarEnvio_DeOtraEmpresaEsForbidden(t *testing.T) {
	svc, envios := armarServicio(t)
	envios.porID["env-1"] = &entity.ComprobanteEnvio{
		ID: "env-1", EmpresaID: "otra-empresa", Ticket: "t",
		Estado: entity.EnvioStatusEnviado,
	}

	_, err := svc.ConsultarEnvio(context.Background(), empresaID, "env-1")
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

// ─────────────────────────────────────────────────────────────
//  Resolutor de credenciales
// ─────────────────────────────────────────────────────────────

func TestResolver_CredencialesDeEmpresa(t *testing.T) {
	empresas := &empresasFake{porID: map[string]*entity.Empresa{
		empresaID: {ID: empresaID, RUC: "20610588981", RazonSocial: "COMERCIAL ANDINA S.A.C."},
	}}
	claves := &clavesFake{porEmpresa: map[string][]*entity.Clave{
		empresaID: {
			{Tipo: entity.ClaveSolUser, Valor: "MODDATOS"},
			{Tipo: entity.ClaveSolPass, Valor: "moddatos"},
			{Tipo: entity.ClaveEnv, Valor: "prod"},
		},
	}}
	r := facturacion.NewResolutor(empresas, claves, config.SunatConfig{Env: "beta"})

	creds, empresa, err := r.Resolver(empresaID, "")
	require.NoError(t, err)
	assert.Equal(t, "20610588981MODDATOS", creds.Username())
	assert.Equal(t, "prod", creds.Env, "la clave sunat_env de la empresa manda sobre la configuración")
	assert.Equal(t, "20610588981", creds.ClientID, "client_id por defecto es el RUC")
	require.NotNil(t, empresa)
	assert.Equal(t, "COMERCIAL ANDINA S.A.C.", empresa.RazonSocial)
}

func TestResolver_EmpresaSinClavesSOL(t *testing.T) {
	empresas := &empresasFake{porID: map[string]*entity.Empresa{
		empresaID: {ID: empresaID, RUC: "20610588981"},
	}}
	claves := &clavesFake{porEmpresa: map[string][]*entity.Clave{}}
	r := facturacion.NewResolutor(empresas, claves, config.SunatConfig{Env: "beta"})

	_, _, err := r.Resolver(empresaID, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, sunat.ErrConfiguracion))
}

func TestResolver_PorRUCDeclarado(t *testing.T) {
	empresas := &empresasFake{porID: map[string]*entity.Empresa{
		empresaID: {ID: empresaID, RUC: "20610588981", RazonSocial: "COMERCIAL ANDINA S.A.C."},
	}}
	claves := &clavesFake{porEmpresa: map[string][]*entity.Clave{
		empresaID: {
			{Tipo: entity.ClaveSolUser, Valor: "MODDATOS"},
			{Tipo: entity.ClaveSolPass, Valor: "moddatos"},
		},
	}}
	r := facturacion.NewResolutor(empresas, claves, config.SunatConfig{
		Env: "beta", RUC: "20100070970", SolUser: "OTRO", SolPass: "otro",
	})

	creds, empresa, err := r.Resolver("", "20610588981")
	require.NoError(t, err)
	require.NotNil(t, empresa)
	assert.Equal(t, empresaID, empresa.ID)
	assert.Equal(t, "20610588981MODDATOS", creds.Username())

	// Un RUC declarado sin empresa registrada no cae a la configuración.
	_, _, err = r.Resolver("", "20508565934")
	assert.True(t, errors.Is(err, domain.ErrEmpresaNotFound))
}

func TestResolver_FallbackDeConfiguracion(t *testing.T) {
	r := facturacion.NewResolutor(
		&empresasFake{porID: map[string]*entity.Empresa{}},
		&clavesFake{porEmpresa: map[string][]*entity.Clave{}},
		config.SunatConfig{Env: "beta", RUC: "20610588981", SolUser: "MODDATOS", SolPass: "moddatos"},
	)

	creds, empresa, err := r.Resolver("", "")
	require.NoError(t, err)
	assert.Nil(t, empresa)
	assert.Equal(t, "20610588981MODDATOS", creds.Username())

	// Sin configuración, el fallback es un error de configuración.
	vacio := facturacion.NewResolutor(
		&empresasFake{porID: map[string]*entity.Empresa{}},
		&clavesFake{porEmpresa: map[string][]*entity.Clave{}},
		config.SunatConfig{Env: "beta"},
	)
	_, _, err = vacio.Resolver("", "")
	assert.True(t, errors.Is(err, sunat.ErrConfiguracion))
}
