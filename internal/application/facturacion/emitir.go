package facturacion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Facturacion-api/internal/application/dto"
	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
	"github.com/jhoicas/Facturacion-api/internal/infrastructure/sunat"
	"github.com/jhoicas/Facturacion-api/internal/infrastructure/sunat/firma"
	"github.com/jhoicas/Facturacion-api/internal/infrastructure/sunat/rest"
	"github.com/jhoicas/Facturacion-api/internal/infrastructure/sunat/soap"
	"github.com/jhoicas/Facturacion-api/internal/infrastructure/sunat/ubl"
	"github.com/jhoicas/Facturacion-api/pkg/config"
	"github.com/jhoicas/Facturacion-api/pkg/logger"
	pkgsunat "github.com/jhoicas/Facturacion-api/pkg/sunat"
)

// Service emite documentos electrónicos: construye el UBL, lo firma, lo
// empaqueta y lo envía a SUNAT, dejando cada envío en la bitácora.
type Service struct {
	log       *logger.Logger
	resolutor *Resolutor
	envios    repository.ComprobanteEnvioRepository
	cfg       config.SunatConfig
	tokens    *rest.TokenCache

	// Fábricas por envío: cada empresa trae sus propias credenciales.
	// Reemplazables en tests.
	nuevoFirmador func(creds *Credenciales) (Firmador, error)
	nuevoBill     func(creds *Credenciales) BillClient
	nuevoGuiaSoap func(creds *Credenciales) BillClient
	nuevoGuiaRest func(creds *Credenciales) (GuiaRestClient, error)
}

// NewService construye el servicio de emisión con los canales reales.
func NewService(log *logger.Logger, resolutor *Resolutor, envios repository.ComprobanteEnvioRepository, cfg config.SunatConfig) *Service {
	s := &Service{
		log:       log,
		resolutor: resolutor,
		envios:    envios,
		cfg:       cfg,
		tokens:    rest.NewTokenCache(),
	}
	s.nuevoFirmador = func(creds *Credenciales) (Firmador, error) {
		material, err := resolutor.Material(creds)
		if err != nil {
			return nil, err
		}
		return firma.NewFirmador(material), nil
	}
	s.nuevoBill = func(creds *Credenciales) BillClient {
		return s.clienteSOAP(soap.BillEndpoint(creds.Env), creds)
	}
	s.nuevoGuiaSoap = func(creds *Credenciales) BillClient {
		return s.clienteSOAP(soap.GuiaEndpoint(creds.Env), creds)
	}
	s.nuevoGuiaRest = func(creds *Credenciales) (GuiaRestClient, error) {
		fuente, err := s.tokens.Fuente(rest.Credenciales{
			Env:          creds.Env,
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			Username:     creds.Username(),
			Password:     creds.SolPass,
		})
		if err != nil {
			return nil, err
		}
		return rest.NewGREClient(fuente), nil
	}
	return s
}

func (s *Service) clienteSOAP(endpoint string, creds *Credenciales) *soap.Client {
	auth := soap.UsernameToken{Username: creds.Username(), Password: creds.SolPass}
	return soap.NewClient(endpoint, auth, soap.NewRateLimiter(creds.Env), soap.DefaultRetryPolicy(), s.log)
}

// SetFirmadorFactory, SetBillFactory, SetGuiaSoapFactory y SetGuiaRestFactory
// reemplazan los canales reales (tests).
func (s *Service) SetFirmadorFactory(f func(*Credenciales) (Firmador, error)) { s.nuevoFirmador = f }
func (s *Service) SetBillFactory(f func(*Credenciales) BillClient)            { s.nuevoBill = f }
func (s *Service) SetGuiaSoapFactory(f func(*Credenciales) BillClient)        { s.nuevoGuiaSoap = f }
func (s *Service) SetGuiaRestFactory(f func(*Credenciales) (GuiaRestClient, error)) {
	s.nuevoGuiaRest = f
}

// ── Comprobantes (sendBill síncrono) ─────────────────────────────────────────

// EmitirComprobante emite una factura o boleta: UBL, firma, ZIP y sendBill.
// El CDR llega en la misma llamada; un rechazo de SUNAT no es un error del
// servicio, queda reflejado en el estado del envío.
func (s *Service) EmitirComprobante(ctx context.Context, empresaID string, in dto.EmitirComprobanteRequest) (*dto.EnvioResponse, error) {
	if in.TipoDoc != pkgsunat.DocFactura && in.TipoDoc != pkgsunat.DocBoleta {
		return nil, fmt.Errorf("%w: tipo_doc debe ser 01 o 03", domain.ErrInvalidInput)
	}
	if in.Serie == "" || in.Correlativo == "" || len(in.Items) == 0 {
		return nil, domain.ErrInvalidInput
	}

	creds, empresa, err := s.resolutor.Resolver(empresaID, rucDeclarado(in.Emisor))
	if err != nil {
		return nil, err
	}
	empresaID = empresaResuelta(empresaID, empresa)
	factura, err := mapFactura(in, armarEmisor(empresa, creds, in.Emisor))
	if err != nil {
		return nil, err
	}

	xmlDoc, err := ubl.ConstruirFactura(factura)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	nombre := ubl.NombreComprobante(creds.RUC, in.TipoDoc, in.Serie, in.Correlativo)
	envio := &entity.ComprobanteEnvio{
		ID:          uuid.NewString(),
		EmpresaID:   empresaID,
		TipoDoc:     in.TipoDoc,
		Serie:       in.Serie,
		Correlativo: in.Correlativo,
		FileName:    nombre,
		Total:       factura.MtoImpVenta,
	}

	zipBytes, err := s.firmarYEmpaquetar(creds, xmlDoc, nombre, envio)
	if err != nil {
		return nil, err
	}

	cdrZip, err := s.nuevoBill(creds).EnviarComprobante(ctx, nombre+".zip", zipBytes)
	if err != nil {
		return s.resolverFalloEnvio(envio, err)
	}
	return s.aplicarCDRZip(envio, cdrZip)
}

// ── Guías de remisión ────────────────────────────────────────────────────────

// EmitirGuia emite una guía de remisión por el canal configurado: el API REST
// con OAuth2 (vigente) o el billService legado.
func (s *Service) EmitirGuia(ctx context.Context, empresaID string, in dto.EmitirGuiaRequest) (*dto.EnvioResponse, error) {
	if in.Serie == "" || in.Correlativo == "" || len(in.Items) == 0 {
		return nil, domain.ErrInvalidInput
	}

	creds, empresa, err := s.resolutor.Resolver(empresaID, rucDeclarado(in.Emisor))
	if err != nil {
		return nil, err
	}
	empresaID = empresaResuelta(empresaID, empresa)
	guia, err := mapGuia(in, armarEmisor(empresa, creds, in.Emisor))
	if err != nil {
		return nil, err
	}

	xmlDoc, err := ubl.ConstruirGuia(guia)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	nombre := ubl.NombreComprobante(creds.RUC, pkgsunat.DocGuiaRemision, in.Serie, in.Correlativo)
	envio := &entity.ComprobanteEnvio{
		ID:          uuid.NewString(),
		EmpresaID:   empresaID,
		TipoDoc:     pkgsunat.DocGuiaRemision,
		Serie:       in.Serie,
		Correlativo: in.Correlativo,
		FileName:    nombre,
	}

	zipBytes, err := s.firmarYEmpaquetar(creds, xmlDoc, nombre, envio)
	if err != nil {
		return nil, err
	}

	if s.cfg.GreChannel == "soap" {
		cdrZip, err := s.nuevoGuiaSoap(creds).EnviarComprobante(ctx, nombre+".zip", zipBytes)
		if err != nil {
			return s.resolverFalloEnvio(envio, err)
		}
		return s.aplicarCDRZip(envio, cdrZip)
	}

	cliente, err := s.nuevoGuiaRest(creds)
	if err != nil {
		return nil, err
	}
	ticket, err := cliente.Enviar(ctx, nombre+".zip", zipBytes)
	if err != nil {
		return s.resolverFalloEnvio(envio, err)
	}
	s.marcarEnviado(envio, ticket)

	resultado, err := cliente.ConsultarHastaCDR(ctx, ticket)
	if err != nil {
		var timeout *sunat.TimeoutConsultaError
		if errors.As(err, &timeout) {
			// El proceso sigue corriendo en SUNAT: el ticket queda en la
			// bitácora y se consulta después.
			return mapEnvio(envio), nil
		}
		return s.resolverFalloEnvio(envio, err)
	}
	return s.aplicarResultadoGRE(envio, resultado)
}

// ── Bajas y resúmenes (sendSummary asíncrono) ────────────────────────────────

// ComunicarBaja envía una comunicación de baja (RA). SUNAT la procesa en
// segundo plano: el envío queda con ticket hasta que se consulte.
func (s *Service) ComunicarBaja(ctx context.Context, empresaID string, in dto.ComunicarBajaRequest) (*dto.EnvioResponse, error) {
	if in.Correlativo <= 0 || len(in.Detalles) == 0 {
		return nil, domain.ErrInvalidInput
	}

	creds, empresa, err := s.resolutor.Resolver(empresaID, rucDeclarado(in.Emisor))
	if err != nil {
		return nil, err
	}
	empresaID = empresaResuelta(empresaID, empresa)
	hoy := time.Now()
	baja, err := mapBaja(in, armarEmisor(empresa, creds, in.Emisor), hoy)
	if err != nil {
		return nil, err
	}

	xmlDoc, err := ubl.ConstruirBaja(baja)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	nombre := ubl.NombreBaja(creds.RUC, hoy, in.Correlativo)
	return s.enviarResumen(ctx, creds, empresaID, pkgsunat.DocBajaRA, ubl.IDBaja(hoy, in.Correlativo), nombre, xmlDoc)
}

// EnviarResumen envía un resumen diario de boletas (RC).
func (s *Service) EnviarResumen(ctx context.Context, empresaID string, in dto.EnviarResumenRequest) (*dto.EnvioResponse, error) {
	if in.Correlativo <= 0 || len(in.Detalles) == 0 {
		return nil, domain.ErrInvalidInput
	}

	creds, empresa, err := s.resolutor.Resolver(empresaID, rucDeclarado(in.Emisor))
	if err != nil {
		return nil, err
	}
	empresaID = empresaResuelta(empresaID, empresa)
	hoy := time.Now()
	resumen, err := mapResumen(in, armarEmisor(empresa, creds, in.Emisor), hoy)
	if err != nil {
		return nil, err
	}

	xmlDoc, err := ubl.ConstruirResumen(resumen)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	nombre := ubl.NombreResumen(creds.RUC, hoy, in.Correlativo)
	return s.enviarResumen(ctx, creds, empresaID, pkgsunat.DocResumenRC, ubl.IDResumen(hoy, in.Correlativo), nombre, xmlDoc)
}

func (s *Service) enviarResumen(ctx context.Context, creds *Credenciales, empresaID, tipoDoc, docID, nombre string, xmlDoc []byte) (*dto.EnvioResponse, error) {
	envio := &entity.ComprobanteEnvio{
		ID:          uuid.NewString(),
		EmpresaID:   empresaID,
		TipoDoc:     tipoDoc,
		Correlativo: docID,
		FileName:    nombre,
	}

	zipBytes, err := s.firmarYEmpaquetar(creds, xmlDoc, nombre, envio)
	if err != nil {
		return nil, err
	}

	ticket, err := s.nuevoBill(creds).EnviarResumen(ctx, nombre+".zip", zipBytes)
	if err != nil {
		return s.resolverFalloEnvio(envio, err)
	}
	s.marcarEnviado(envio, ticket)
	return mapEnvio(envio), nil
}

// ── Consulta de tickets ──────────────────────────────────────────────────────

// ConsultarEnvio consulta en SUNAT el estado de un envío pendiente por su
// ticket y actualiza la bitácora.
func (s *Service) ConsultarEnvio(ctx context.Context, empresaID, envioID string) (*dto.EnvioResponse, error) {
	envio, err := s.envios.GetByID(envioID)
	if err != nil {
		return nil, err
	}
	if envio.EmpresaID != empresaID {
		return nil, domain.ErrForbidden
	}
	if envio.Estado == entity.EnvioStatusAceptado || envio.Estado == entity.EnvioStatusRechazado {
		return mapEnvio(envio), nil
	}
	if envio.Ticket == "" {
		return nil, fmt.Errorf("%w: el envío %s no tiene ticket pendiente", domain.ErrInvalidInput, envioID)
	}

	creds, _, err := s.resolutor.Resolver(empresaID, "")
	if err != nil {
		return nil, err
	}

	if envio.TipoDoc == pkgsunat.DocGuiaRemision && s.cfg.GreChannel != "soap" {
		cliente, err := s.nuevoGuiaRest(creds)
		if err != nil {
			return nil, err
		}
		resultado, err := cliente.Consultar(ctx, envio.Ticket)
		if err != nil {
			return nil, err
		}
		if resultado.EnProceso() {
			return mapEnvio(envio), nil
		}
		return s.aplicarResultadoGRE(envio, resultado)
	}

	status, err := s.nuevoBill(creds).ConsultarTicket(ctx, envio.Ticket)
	if err != nil {
		return nil, err
	}
	if status.EnProceso() {
		return mapEnvio(envio), nil
	}
	if len(status.CdrZip) > 0 {
		return s.aplicarCDRZip(envio, status.CdrZip)
	}

	// Terminal sin CDR: proceso con errores (statusCode 99).
	envio.Estado = entity.EnvioStatusRechazado
	envio.CdrCodigo = status.Codigo
	envio.CdrMensaje = status.Mensaje
	s.actualizar(envio)
	return mapEnvio(envio), nil
}

// GetEnvio devuelve un envío de la bitácora.
func (s *Service) GetEnvio(empresaID, envioID string) (*dto.EnvioResponse, error) {
	envio, err := s.envios.GetByID(envioID)
	if err != nil {
		return nil, err
	}
	if envio.EmpresaID != empresaID {
		return nil, domain.ErrForbidden
	}
	return mapEnvio(envio), nil
}

// ListarEnvios lista la bitácora de la empresa.
func (s *Service) ListarEnvios(empresaID string, limit, offset int) ([]*dto.EnvioResponse, error) {
	envios, err := s.envios.ListByEmpresa(empresaID, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.EnvioResponse, 0, len(envios))
	for _, e := range envios {
		out = append(out, mapEnvio(e))
	}
	return out, nil
}

// ── Pasos compartidos ────────────────────────────────────────────────────────

// firmarYEmpaquetar firma el UBL, lo comprime y registra el envío FIRMADO.
func (s *Service) firmarYEmpaquetar(creds *Credenciales, xmlDoc []byte, nombre string, envio *entity.ComprobanteEnvio) ([]byte, error) {
	firmador, err := s.nuevoFirmador(creds)
	if err != nil {
		return nil, err
	}
	firmado, err := firmador.Firmar(xmlDoc)
	if err != nil {
		return nil, fmt.Errorf("firmar %s: %w", nombre, err)
	}
	zipBytes, err := sunat.Comprimir(firmado, nombre+".xml")
	if err != nil {
		return nil, err
	}

	envio.Estado = entity.EnvioStatusFirmado
	if err := s.envios.Create(envio); err != nil {
		return nil, err
	}
	s.log.ConEnvio(envio.ID, nombre).Info().Str("empresa", envio.EmpresaID).Msg("comprobante firmado")
	return zipBytes, nil
}

// resolverFalloEnvio clasifica el error de un envío: los rechazos de negocio
// quedan como RECHAZADO en la bitácora y no son error del servicio, los
// fallos de transporte quedan como ERROR y sí se propagan.
func (s *Service) resolverFalloEnvio(envio *entity.ComprobanteEnvio, err error) (*dto.EnvioResponse, error) {
	var fault *sunat.FaultError
	if errors.As(err, &fault) {
		envio.Estado = entity.EnvioStatusRechazado
		envio.CdrCodigo = fault.Code
		envio.CdrMensaje = fault.Message
		s.actualizar(envio)
		s.log.Warn().Str("file", envio.FileName).Str("fault", fault.Code).Msg("envío rechazado por SUNAT")
		return mapEnvio(envio), nil
	}

	envio.Estado = entity.EnvioStatusError
	envio.ErrorDetalle = err.Error()
	s.actualizar(envio)
	s.log.Error().Err(err).Str("file", envio.FileName).Msg("fallo enviando a SUNAT")
	return nil, err
}

// aplicarCDRZip parsea el CDR y deja el envío ACEPTADO o RECHAZADO.
func (s *Service) aplicarCDRZip(envio *entity.ComprobanteEnvio, cdrZip []byte) (*dto.EnvioResponse, error) {
	cdr, err := sunat.ParsearCDRDesdeZip(cdrZip)
	if err != nil {
		envio.Estado = entity.EnvioStatusError
		envio.ErrorDetalle = err.Error()
		s.actualizar(envio)
		return nil, err
	}

	envio.CdrCodigo = cdr.Codigo
	envio.CdrMensaje = cdr.Descripcion
	envio.CdrNotas = joinNotas(cdr.Notas)
	envio.EnviadoAt = time.Now()
	if cdr.Aceptado() {
		envio.Estado = entity.EnvioStatusAceptado
	} else {
		envio.Estado = entity.EnvioStatusRechazado
	}
	s.actualizar(envio)
	s.log.ConEnvio(envio.ID, envio.FileName).Info().Str("cdr", cdr.Codigo).Str("estado", envio.Estado).Msg("CDR procesado")
	return mapEnvio(envio), nil
}

// aplicarResultadoGRE deja el envío según el resultado terminal del API GRE.
func (s *Service) aplicarResultadoGRE(envio *entity.ComprobanteEnvio, resultado *rest.ResultadoEnvio) (*dto.EnvioResponse, error) {
	if len(resultado.CdrZip) > 0 {
		return s.aplicarCDRZip(envio, resultado.CdrZip)
	}
	envio.CdrCodigo = resultado.Codigo
	envio.CdrMensaje = resultado.Detalle
	envio.EnviadoAt = time.Now()
	if resultado.Aceptado() {
		envio.Estado = entity.EnvioStatusAceptado
	} else {
		envio.Estado = entity.EnvioStatusRechazado
	}
	s.actualizar(envio)
	return mapEnvio(envio), nil
}

func (s *Service) marcarEnviado(envio *entity.ComprobanteEnvio, ticket string) {
	envio.Estado = entity.EnvioStatusEnviado
	envio.Ticket = ticket
	envio.EnviadoAt = time.Now()
	s.actualizar(envio)
}

// actualizar persiste el estado; un fallo de bitácora no tumba el envío ya
// hecho, solo se registra.
func (s *Service) actualizar(envio *entity.ComprobanteEnvio) {
	if err := s.envios.Update(envio); err != nil {
		s.log.Error().Err(err).Str("envio", envio.ID).Msg("no se pudo actualizar la bitácora")
	}
}

func joinNotas(notas []string) string {
	return strings.Join(notas, "; ")
}

func rucDeclarado(in *dto.EmisorDTO) string {
	if in == nil {
		return ""
	}
	return in.RUC
}

// empresaResuelta fija el dueño del envío en la bitácora cuando la empresa se
// resolvió por el RUC declarado en vez del contexto autenticado.
func empresaResuelta(empresaID string, empresa *entity.Empresa) string {
	if empresaID == "" && empresa != nil {
		return empresa.ID
	}
	return empresaID
}
