package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
	"github.com/jhoicas/Facturacion-api/internal/infrastructure/secrets"
)

// Asegura que ClaveRepo implementa repository.ClaveRepository.
var _ repository.ClaveRepository = (*ClaveRepo)(nil)

// ClaveRepo implementación del puerto ClaveRepository sobre PostgreSQL.
// Cifra el valor al escribir y lo descifra al leer; en la tabla solo viven
// valores cifrados.
type ClaveRepo struct {
	pool   *pgxpool.Pool
	cipher *secrets.Cipher
}

// NewClaveRepository construye el adaptador de persistencia para claves SUNAT.
func NewClaveRepository(pool *pgxpool.Pool, cipher *secrets.Cipher) *ClaveRepo {
	return &ClaveRepo{pool: pool, cipher: cipher}
}

// Upsert crea o reemplaza la clave (empresa, tipo).
func (r *ClaveRepo) Upsert(c *entity.Clave) error {
	if !entity.ValidClaveTipos[c.Tipo] {
		return fmt.Errorf("%w: tipo de clave desconocido: %s", domain.ErrInvalidInput, c.Tipo)
	}
	enc, err := r.cipher.Encrypt(c.Valor)
	if err != nil {
		return fmt.Errorf("cifrar clave %s: %w", c.Tipo, err)
	}
	query := `
		INSERT INTO clave (id, id_empresa, tipo, valor, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		ON CONFLICT (id_empresa, tipo)
		DO UPDATE SET valor = EXCLUDED.valor, updated_at = now()`
	_, err = r.pool.Exec(context.Background(), query,
		c.ID, c.EmpresaID, c.Tipo, enc,
	)
	if err != nil {
		return fmt.Errorf("upsert clave %s: %w", c.Tipo, err)
	}
	return nil
}

// Get devuelve el valor en claro de la clave (empresa, tipo).
func (r *ClaveRepo) Get(empresaID, tipo string) (*entity.Clave, error) {
	query := `
		SELECT id, id_empresa, tipo, valor, created_at, updated_at
		FROM clave WHERE id_empresa = $1 AND tipo = $2`
	var c entity.Clave
	err := r.pool.QueryRow(context.Background(), query, empresaID, tipo).Scan(
		&c.ID, &c.EmpresaID, &c.Tipo, &c.Valor, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrClaveNotFound
		}
		return nil, fmt.Errorf("get clave %s: %w", tipo, err)
	}
	plain, err := r.cipher.Decrypt(c.Valor)
	if err != nil {
		return nil, fmt.Errorf("descifrar clave %s: %w", tipo, err)
	}
	c.Valor = plain
	return &c, nil
}

// GetAll devuelve todas las claves de la empresa, en claro.
func (r *ClaveRepo) GetAll(empresaID string) ([]*entity.Clave, error) {
	query := `
		SELECT id, id_empresa, tipo, valor, created_at, updated_at
		FROM clave WHERE id_empresa = $1 ORDER BY tipo`
	rows, err := r.pool.Query(context.Background(), query, empresaID)
	if err != nil {
		return nil, fmt.Errorf("list claves: %w", err)
	}
	defer rows.Close()

	var list []*entity.Clave
	for rows.Next() {
		var c entity.Clave
		if err := rows.Scan(&c.ID, &c.EmpresaID, &c.Tipo, &c.Valor, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan clave: %w", err)
		}
		plain, err := r.cipher.Decrypt(c.Valor)
		if err != nil {
			return nil, fmt.Errorf("descifrar clave %s: %w", c.Tipo, err)
		}
		c.Valor = plain
		list = append(list, &c)
	}
	return list, rows.Err()
}

// Delete elimina la clave (empresa, tipo).
func (r *ClaveRepo) Delete(empresaID, tipo string) error {
	_, err := r.pool.Exec(context.Background(),
		`DELETE FROM clave WHERE id_empresa = $1 AND tipo = $2`, empresaID, tipo)
	if err != nil {
		return fmt.Errorf("delete clave %s: %w", tipo, err)
	}
	return nil
}
