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

// Asegura que ComprobanteEnvioRepo implementa el puerto.
var _ repository.ComprobanteEnvioRepository = (*ComprobanteEnvioRepo)(nil)

// ComprobanteEnvioRepo bitácora de envíos a SUNAT sobre PostgreSQL.
type ComprobanteEnvioRepo struct {
	pool *pgxpool.Pool
}

// NewComprobanteEnvioRepository construye el adaptador de persistencia de envíos.
func NewComprobanteEnvioRepository(pool *pgxpool.Pool) *ComprobanteEnvioRepo {
	return &ComprobanteEnvioRepo{pool: pool}
}

const envioColumns = `id, id_empresa, tipo_doc, serie, correlativo, file_name, total,
	estado, ticket, cdr_codigo, cdr_mensaje, cdr_notas, error_detalle,
	enviado_at, created_at, updated_at`

// Create persiste un envío recién firmado.
func (r *ComprobanteEnvioRepo) Create(e *entity.ComprobanteEnvio) error {
	query := `
		INSERT INTO comprobante_envio (` + envioColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err := r.pool.Exec(context.Background(), query,
		e.ID, e.EmpresaID, e.TipoDoc, e.Serie, e.Correlativo, e.FileName, e.Total,
		e.Estado, e.Ticket, e.CdrCodigo, e.CdrMensaje, e.CdrNotas, e.ErrorDetalle,
		e.EnviadoAt, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert envío: %w", err)
	}
	return nil
}

// Update actualiza estado, ticket y campos CDR del envío.
func (r *ComprobanteEnvioRepo) Update(e *entity.ComprobanteEnvio) error {
	query := `
		UPDATE comprobante_envio SET estado = $2, ticket = $3, cdr_codigo = $4,
			cdr_mensaje = $5, cdr_notas = $6, error_detalle = $7, enviado_at = $8, updated_at = $9
		WHERE id = $1`
	cmd, err := r.pool.Exec(context.Background(), query,
		e.ID, e.Estado, e.Ticket, e.CdrCodigo, e.CdrMensaje, e.CdrNotas,
		e.ErrorDetalle, e.EnviadoAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update envío: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetByID obtiene un envío por ID.
func (r *ComprobanteEnvioRepo) GetByID(id string) (*entity.ComprobanteEnvio, error) {
	query := `SELECT ` + envioColumns + ` FROM comprobante_envio WHERE id = $1`
	return scanEnvio(r.pool.QueryRow(context.Background(), query, id))
}

// GetByFileName obtiene un envío por (empresa, nombre de archivo).
func (r *ComprobanteEnvioRepo) GetByFileName(empresaID, fileName string) (*entity.ComprobanteEnvio, error) {
	query := `SELECT ` + envioColumns + ` FROM comprobante_envio
		WHERE id_empresa = $1 AND file_name = $2`
	return scanEnvio(r.pool.QueryRow(context.Background(), query, empresaID, fileName))
}

// ListByEmpresa devuelve los envíos de una empresa, más recientes primero.
func (r *ComprobanteEnvioRepo) ListByEmpresa(empresaID string, limit, offset int) ([]*entity.ComprobanteEnvio, error) {
	query := `SELECT ` + envioColumns + ` FROM comprobante_envio
		WHERE id_empresa = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(context.Background(), query, empresaID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list envíos: %w", err)
	}
	defer rows.Close()

	var list []*entity.ComprobanteEnvio
	for rows.Next() {
		e, err := scanEnvio(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

func scanEnvio(row pgx.Row) (*entity.ComprobanteEnvio, error) {
	var e entity.ComprobanteEnvio
	err := row.Scan(
		&e.ID, &e.EmpresaID, &e.TipoDoc, &e.Serie, &e.Correlativo, &e.FileName, &e.Total,
		&e.Estado, &e.Ticket, &e.CdrCodigo, &e.CdrMensaje, &e.CdrNotas, &e.ErrorDetalle,
		&e.EnviadoAt, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan envío: %w", err)
	}
	return &e, nil
}
