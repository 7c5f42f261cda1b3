package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Facturacion-api/internal/application/dto"
	"github.com/jhoicas/Facturacion-api/internal/application/facturacion"
	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/infrastructure/sunat"
)

// SunatHandler maneja la emisión y consulta de documentos electrónicos
// (protegido).
type SunatHandler struct {
	svc *facturacion.Service
}

// NewSunatHandler construye el handler.
func NewSunatHandler(svc *facturacion.Service) *SunatHandler {
	return &SunatHandler{svc: svc}
}

// EmitirComprobante emite una factura o boleta y espera el CDR.
// POST /api/sunat/comprobantes
func (h *SunatHandler) EmitirComprobante(c *fiber.Ctx) error {
	empresaID := GetEmpresaID(c)
	if empresaID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.EmitirComprobanteRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	resp, err := h.svc.EmitirComprobante(c.Context(), empresaID, in)
	if err != nil {
		return errorEnvio(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// EmitirGuia emite una guía de remisión.
// POST /api/sunat/guias
func (h *SunatHandler) EmitirGuia(c *fiber.Ctx) error {
	empresaID := GetEmpresaID(c)
	if empresaID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.EmitirGuiaRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	resp, err := h.svc.EmitirGuia(c.Context(), empresaID, in)
	if err != nil {
		return errorEnvio(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// ComunicarBaja envía una comunicación de baja (RA).
// POST /api/sunat/bajas
func (h *SunatHandler) ComunicarBaja(c *fiber.Ctx) error {
	empresaID := GetEmpresaID(c)
	if empresaID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.ComunicarBajaRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	resp, err := h.svc.ComunicarBaja(c.Context(), empresaID, in)
	if err != nil {
		return errorEnvio(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// EnviarResumen envía un resumen diario de boletas (RC).
// POST /api/sunat/resumenes
func (h *SunatHandler) EnviarResumen(c *fiber.Ctx) error {
	empresaID := GetEmpresaID(c)
	if empresaID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.EnviarResumenRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	resp, err := h.svc.EnviarResumen(c.Context(), empresaID, in)
	if err != nil {
		return errorEnvio(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// ListEnvios lista la bitácora de envíos de la empresa.
// GET /api/sunat/envios
func (h *SunatHandler) ListEnvios(c *fiber.Ctx) error {
	empresaID := GetEmpresaID(c)
	if empresaID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	page.DefaultPage()
	envios, err := h.svc.ListarEnvios(empresaID, page.Limit, page.Offset)
	if err != nil {
		return errorEnvio(c, err)
	}
	return c.JSON(envios)
}

// GetEnvio devuelve un envío de la bitácora.
// GET /api/sunat/envios/:id
func (h *SunatHandler) GetEnvio(c *fiber.Ctx) error {
	empresaID := GetEmpresaID(c)
	if empresaID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id requerido"})
	}
	resp, err := h.svc.GetEnvio(empresaID, id)
	if err != nil {
		return errorEnvio(c, err)
	}
	return c.JSON(resp)
}

// ConsultarEnvio consulta en SUNAT el estado de un envío con ticket pendiente.
// POST /api/sunat/envios/:id/consultar
func (h *SunatHandler) ConsultarEnvio(c *fiber.Ctx) error {
	empresaID := GetEmpresaID(c)
	if empresaID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id requerido"})
	}
	resp, err := h.svc.ConsultarEnvio(c.Context(), empresaID, id)
	if err != nil {
		return errorEnvio(c, err)
	}
	return c.JSON(resp)
}

// errorEnvio traduce los errores de la tubería a respuestas HTTP.
func errorEnvio(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrEmpresaNotFound), errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "recurso no encontrado"})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado al recurso"})
	case errors.Is(err, sunat.ErrConfiguracion):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "SUNAT_CONFIG", Message: err.Error()})
	case errors.Is(err, sunat.ErrTransporte):
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Code: "SUNAT_TRANSPORTE", Message: err.Error()})
	case errors.Is(err, sunat.ErrRespuesta):
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Code: "SUNAT_RESPUESTA", Message: err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}
