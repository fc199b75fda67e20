package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fieldserve/backend/internal/models"
)

// Repository resolves login credentials and live subjects against the store.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an auth repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// FindClientsByUsername returns every client matching the username
// case-insensitively. Usernames are unique per organisation, not globally, so
// the same username may exist in several organisations; login verifies the
// password against each candidate. Soft-deleted rows are included so the
// caller can reject them explicitly.
func (r *Repository) FindClientsByUsername(ctx context.Context, username string) ([]models.Client, error) {
	const q = `SELECT id, org_id, first_name, last_name, username, email, COALESCE(phone, ''),
		password_hash, created_at, updated_at, deleted_at
		FROM clients WHERE lower(username) = lower($1)
		ORDER BY created_at, id`
	rows, err := r.pool.Query(ctx, q, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Client
	for rows.Next() {
		var c models.Client
		if err := rows.Scan(&c.ID, &c.OrgID, &c.FirstName, &c.LastName, &c.Username, &c.Email,
			&c.Phone, &c.PasswordHash, &c.CreatedAt, &c.UpdatedAt, &c.DeletedAt); err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// FindTechniciansByUsername returns every technician matching the username
// case-insensitively, across organisations, including soft-deleted rows.
func (r *Repository) FindTechniciansByUsername(ctx context.Context, username string) ([]models.Technician, error) {
	const q = `SELECT id, org_id, first_name, last_name, username, email, COALESCE(phone, ''),
		password_hash, created_at, updated_at, deleted_at
		FROM technicians WHERE lower(username) = lower($1)
		ORDER BY created_at, id`
	rows, err := r.pool.Query(ctx, q, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Technician
	for rows.Next() {
		var t models.Technician
		if err := rows.Scan(&t.ID, &t.OrgID, &t.FirstName, &t.LastName, &t.Username, &t.Email,
			&t.Phone, &t.PasswordHash, &t.CreatedAt, &t.UpdatedAt, &t.DeletedAt); err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

// SubjectActive reports whether the subject of a resolved credential still
// exists in the backing store and has not been soft-deleted.
func (r *Repository) SubjectActive(ctx context.Context, role models.Role, id uuid.UUID) (bool, error) {
	table := "clients"
	if role == models.RoleTechnician {
		table = "technicians"
	}
	var one int
	err := r.pool.QueryRow(ctx, `SELECT 1 FROM `+table+` WHERE id = $1 AND deleted_at IS NULL`, id).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
