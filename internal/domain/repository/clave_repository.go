package repository

import "github.com/jhoicas/Facturacion-api/internal/domain/entity"

// ClaveRepository define el puerto de persistencia para las credenciales SUNAT
// por empresa. El cifrado/descifrado del valor es responsabilidad de la
// implementación: el puerto habla siempre en claro.
type ClaveRepository interface {
	// Upsert crea o reemplaza la clave (empresa, tipo).
	Upsert(clave *entity.Clave) error
	// Get devuelve el valor en claro de la clave (empresa, tipo).
	Get(empresaID, tipo string) (*entity.Clave, error)
	// GetAll devuelve todas las claves de la empresa, en claro.
	GetAll(empresaID string) ([]*entity.Clave, error)
	Delete(empresaID, tipo string) error
}
