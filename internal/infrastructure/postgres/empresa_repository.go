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
)

// Asegura que EmpresaRepo implementa repository.EmpresaRepository.
var _ repository.EmpresaRepository = (*EmpresaRepo)(nil)

// EmpresaRepo implementación del puerto EmpresaRepository sobre PostgreSQL.
type EmpresaRepo struct {
	pool *pgxpool.Pool
}

// NewEmpresaRepository construye el adaptador de persistencia para empresas.
func NewEmpresaRepository(pool *pgxpool.Pool) *EmpresaRepo {
	return &EmpresaRepo{pool: pool}
}

// Create persiste una nueva empresa.
func (r *EmpresaRepo) Create(e *entity.Empresa) error {
	query := `
		INSERT INTO empresa (id, razon_social, ruc, direccion, ubigeo, telefono, email, estado, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.pool.Exec(context.Background(), query,
		e.ID, e.RazonSocial, e.RUC, e.Direccion, e.Ubigeo,
		e.Telefono, e.Email, e.Estado, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert empresa: %w", err)
	}
	return nil
}

// GetByID obtiene una empresa por ID.
func (r *EmpresaRepo) GetByID(id string) (*entity.Empresa, error) {
	query := `
		SELECT id, razon_social, ruc, direccion, ubigeo, telefono, email, estado, created_at, updated_at
		FROM empresa WHERE id = $1`
	return r.scanOne(r.pool.QueryRow(context.Background(), query, id), "get empresa")
}

// GetByRUC obtiene una empresa por RUC.
func (r *EmpresaRepo) GetByRUC(ruc string) (*entity.Empresa, error) {
	query := `
		SELECT id, razon_social, ruc, direccion, ubigeo, telefono, email, estado, created_at, updated_at
		FROM empresa WHERE ruc = $1`
	return r.scanOne(r.pool.QueryRow(context.Background(), query, ruc), "get empresa by RUC")
}

func (r *EmpresaRepo) scanOne(row pgx.Row, op string) (*entity.Empresa, error) {
	var e entity.Empresa
	err := row.Scan(
		&e.ID, &e.RazonSocial, &e.RUC, &e.Direccion, &e.Ubigeo,
		&e.Telefono, &e.Email, &e.Estado, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEmpresaNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &e, nil
}

// Update actualiza una empresa existente.
func (r *EmpresaRepo) Update(e *entity.Empresa) error {
	query := `
		UPDATE empresa SET razon_social = $2, ruc = $3, direccion = $4, ubigeo = $5,
			telefono = $6, email = $7, estado = $8, updated_at = $9
		WHERE id = $1`
	cmd, err := r.pool.Exec(context.Background(), query,
		e.ID, e.RazonSocial, e.RUC, e.Direccion, e.Ubigeo,
		e.Telefono, e.Email, e.Estado, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update empresa: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrEmpresaNotFound
	}
	return nil
}

// List devuelve empresas con paginación.
func (r *EmpresaRepo) List(limit, offset int) ([]*entity.Empresa, error) {
	query := `
		SELECT id, razon_social, ruc, direccion, ubigeo, telefono, email, estado, created_at, updated_at
		FROM empresa ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(context.Background(), query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list empresas: %w", err)
	}
	defer rows.Close()

	var list []*entity.Empresa
	for rows.Next() {
		var e entity.Empresa
		if err := rows.Scan(&e.ID, &e.RazonSocial, &e.RUC, &e.Direccion, &e.Ubigeo,
			&e.Telefono, &e.Email, &e.Estado, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan empresa: %w", err)
		}
		list = append(list, &e)
	}
	return list, rows.Err()
}

// Delete elimina una empresa por ID.
func (r *EmpresaRepo) Delete(id string) error {
	_, err := r.pool.Exec(context.Background(), `DELETE FROM empresa WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete empresa: %w", err)
	}
	return nil
}
