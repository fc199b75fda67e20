// Package organisations manages the tenant directory. Organisations are
// created by administrative seeding (cmd/seed), never through the API, and
// removing one hard-deletes everything it owns via schema cascades.
package organisations

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fieldserve/backend/internal/apperr"
	"github.com/fieldserve/backend/internal/models"
)

// Repository handles organisation persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an organisations repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts an organisation. Names are globally unique.
func (r *Repository) Create(ctx context.Context, org *models.Organisation) error {
	const q = `INSERT INTO organisations (name, street, postal_code)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, org.Name, org.Street, org.PostalCode).
		Scan(&org.ID, &org.CreatedAt, &org.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return apperr.Conflict("organisation name %q already exists", org.Name)
	}
	return err
}

// GetByID returns an organisation by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Organisation, error) {
	const q = `SELECT id, name, street, postal_code, created_at, updated_at
		FROM organisations WHERE id = $1`
	var org models.Organisation
	err := r.pool.QueryRow(ctx, q, id).
		Scan(&org.ID, &org.Name, &org.Street, &org.PostalCode, &org.CreatedAt, &org.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("organisation %s", id)
	}
	if err != nil {
		return nil, err
	}
	return &org, nil
}

// GetByName returns an organisation by exact name.
func (r *Repository) GetByName(ctx context.Context, name string) (*models.Organisation, error) {
	const q = `SELECT id, name, street, postal_code, created_at, updated_at
		FROM organisations WHERE name = $1`
	var org models.Organisation
	err := r.pool.QueryRow(ctx, q, name).
		Scan(&org.ID, &org.Name, &org.Street, &org.PostalCode, &org.CreatedAt, &org.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("organisation %q", name)
	}
	if err != nil {
		return nil, err
	}
	return &org, nil
}

// List returns all organisations ordered by name.
func (r *Repository) List(ctx context.Context) ([]models.Organisation, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, street, postal_code, created_at, updated_at
		FROM organisations ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Organisation
	for rows.Next() {
		var org models.Organisation
		if err := rows.Scan(&org.ID, &org.Name, &org.Street, &org.PostalCode, &org.CreatedAt, &org.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, org)
	}
	return list, rows.Err()
}

// Delete hard-deletes an organisation; the schema cascades the removal to all
// clients, technicians, interventions and events it owns.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM organisations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("organisation %s", id)
	}
	return nil
}
