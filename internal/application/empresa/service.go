// Package empresa administra los contribuyentes emisores y sus credenciales
// SUNAT cifradas.
package empresa

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jhoicas/Facturacion-api/internal/application/dto"
	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
	pkgsunat "github.com/jhoicas/Facturacion-api/pkg/sunat"
)

// Service casos de uso de empresas y claves.
type Service struct {
	empresas repository.EmpresaRepository
	claves   repository.ClaveRepository
}

// NewService construye el servicio.
func NewService(empresas repository.EmpresaRepository, claves repository.ClaveRepository) *Service {
	return &Service{empresas: empresas, claves: claves}
}

// Create registra una empresa. El RUC debe ser válido y único.
func (s *Service) Create(in dto.CreateEmpresaRequest) (*dto.EmpresaResponse, error) {
	if in.RazonSocial == "" {
		return nil, fmt.Errorf("%w: razon_social requerida", domain.ErrInvalidInput)
	}
	ruc := strings.TrimSpace(in.RUC)
	if err := pkgsunat.ValidarRUC(ruc); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if existente, err := s.empresas.GetByRUC(ruc); err == nil && existente != nil {
		return nil, domain.ErrDuplicate
	}

	e := &entity.Empresa{
		ID:          uuid.NewString(),
		RazonSocial: in.RazonSocial,
		RUC:         ruc,
		Direccion:   in.Direccion,
		Ubigeo:      in.Ubigeo,
		Telefono:    in.Telefono,
		Email:       in.Email,
		Estado:      "active",
	}
	if err := s.empresas.Create(e); err != nil {
		return nil, err
	}
	return mapEmpresa(e), nil
}

// GetByID devuelve una empresa.
func (s *Service) GetByID(id string) (*dto.EmpresaResponse, error) {
	e, err := s.empresas.GetByID(id)
	if err != nil {
		return nil, err
	}
	return mapEmpresa(e), nil
}

// List lista empresas.
func (s *Service) List(limit, offset int) ([]*dto.EmpresaResponse, error) {
	empresas, err := s.empresas.List(limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.EmpresaResponse, 0, len(empresas))
	for _, e := range empresas {
		out = append(out, mapEmpresa(e))
	}
	return out, nil
}

// UpsertClave registra o reemplaza una credencial SUNAT de la empresa. El
// valor llega en claro y se cifra en el repositorio.
func (s *Service) UpsertClave(empresaID string, in dto.ClaveRequest) error {
	if !entity.ValidClaveTipos[in.Tipo] {
		return fmt.Errorf("%w: tipo de clave desconocido %q", domain.ErrInvalidInput, in.Tipo)
	}
	if in.Valor == "" {
		return fmt.Errorf("%w: valor requerido", domain.ErrInvalidInput)
	}
	if _, err := s.empresas.GetByID(empresaID); err != nil {
		return err
	}
	return s.claves.Upsert(&entity.Clave{
		ID:        uuid.NewString(),
		EmpresaID: empresaID,
		Tipo:      in.Tipo,
		Valor:     in.Valor,
	})
}

// ListClaves devuelve los tipos de clave registrados, nunca los valores.
func (s *Service) ListClaves(empresaID string) ([]*dto.ClaveResponse, error) {
	claves, err := s.claves.GetAll(empresaID)
	if err != nil {
		if err == domain.ErrClaveNotFound {
			return []*dto.ClaveResponse{}, nil
		}
		return nil, err
	}
	out := make([]*dto.ClaveResponse, 0, len(claves))
	for _, c := range claves {
		resp := &dto.ClaveResponse{Tipo: c.Tipo}
		if !c.UpdatedAt.IsZero() {
			resp.UpdatedAt = c.UpdatedAt.Format("2006-01-02T15:04:05Z07:00")
		}
		out = append(out, resp)
	}
	return out, nil
}

// DeleteClave elimina una credencial.
func (s *Service) DeleteClave(empresaID, tipo string) error {
	if !entity.ValidClaveTipos[tipo] {
		return fmt.Errorf("%w: tipo de clave desconocido %q", domain.ErrInvalidInput, tipo)
	}
	return s.claves.Delete(empresaID, tipo)
}

func mapEmpresa(e *entity.Empresa) *dto.EmpresaResponse {
	return &dto.EmpresaResponse{
		ID:          e.ID,
		RazonSocial: e.RazonSocial,
		RUC:         e.RUC,
		Direccion:   e.Direccion,
		Ubigeo:      e.Ubigeo,
		Telefono:    e.Telefono,
		Email:       e.Email,
		Estado:      e.Estado,
	}
}
