package repository

import "github.com/jhoicas/Facturacion-api/internal/domain/entity"

// ComprobanteEnvioRepository define el puerto de persistencia para la bitácora
// de envíos a SUNAT.
type ComprobanteEnvioRepository interface {
	Create(envio *entity.ComprobanteEnvio) error
	// Update actualiza estado, ticket y campos CDR del envío.
	Update(envio *entity.ComprobanteEnvio) error
	GetByID(id string) (*entity.ComprobanteEnvio, error)
	GetByFileName(empresaID, fileName string) (*entity.ComprobanteEnvio, error)
	ListByEmpresa(empresaID string, limit, offset int) ([]*entity.ComprobanteEnvio, error)
}
