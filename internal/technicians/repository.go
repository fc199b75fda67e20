package technicians

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fieldserve/backend/internal/apperr"
	"github.com/fieldserve/backend/internal/models"
)

const technicianColumns = `id, org_id, first_name, last_name, username, email, COALESCE(phone, ''),
	password_hash, created_at, updated_at, deleted_at`

// Repository handles technician persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a technicians repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanTechnician(row pgx.Row, t *models.Technician) error {
	return row.Scan(&t.ID, &t.OrgID, &t.FirstName, &t.LastName, &t.Username, &t.Email,
		&t.Phone, &t.PasswordHash, &t.CreatedAt, &t.UpdatedAt, &t.DeletedAt)
}

// Insert persists a new technician; unique-index violations map to conflicts.
func (r *Repository) Insert(ctx context.Context, t *models.Technician) error {
	const q = `INSERT INTO technicians (org_id, first_name, last_name, username, email, phone, password_hash)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)
		RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, t.OrgID, t.FirstName, t.LastName, t.Username, t.Email, t.Phone, t.PasswordHash).
		Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	return mapUniqueViolation(err)
}

// GetByID returns a technician within the organisation, including
// soft-deleted rows.
func (r *Repository) GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.Technician, error) {
	var t models.Technician
	err := scanTechnician(r.pool.QueryRow(ctx,
		`SELECT `+technicianColumns+` FROM technicians WHERE id = $1 AND org_id = $2`, id, orgID), &t)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("technician %s", id)
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetActive returns a non-deleted technician within the organisation.
func (r *Repository) GetActive(ctx context.Context, orgID, id uuid.UUID) (*models.Technician, error) {
	var t models.Technician
	err := scanTechnician(r.pool.QueryRow(ctx,
		`SELECT `+technicianColumns+` FROM technicians WHERE id = $1 AND org_id = $2 AND deleted_at IS NULL`,
		id, orgID), &t)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("technician %s", id)
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// FindConflicting returns active technicians matching any of the given
// non-empty username/email/phone values, case-insensitively.
func (r *Repository) FindConflicting(ctx context.Context, orgID uuid.UUID, username, email, phone string) ([]models.Technician, error) {
	const q = `SELECT ` + technicianColumns + ` FROM technicians
		WHERE org_id = $1 AND deleted_at IS NULL
		AND (($2 <> '' AND lower(username) = lower($2))
			OR ($3 <> '' AND lower(email) = lower($3))
			OR ($4 <> '' AND lower(phone) = lower($4)))`
	rows, err := r.pool.Query(ctx, q, orgID, username, email, phone)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Technician
	for rows.Next() {
		var t models.Technician
		if err := scanTechnician(rows, &t); err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

// List returns active technicians with the pre-pagination total.
func (r *Repository) List(ctx context.Context, orgID uuid.UUID, query string, page models.PageParams) (int, []models.Technician, error) {
	cond := `WHERE org_id = $1 AND deleted_at IS NULL`
	args := []interface{}{orgID}
	if query != "" {
		cond += ` AND (first_name ILIKE '%' || $2 || '%' OR last_name ILIKE '%' || $2 || '%' OR email ILIKE '%' || $2 || '%')`
		args = append(args, query)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM technicians `+cond, args...).Scan(&total); err != nil {
		return 0, nil, err
	}

	args = append(args, page.Limit, page.Offset)
	q := fmt.Sprintf(`SELECT %s FROM technicians %s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		technicianColumns, cond, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return 0, nil, err
	}
	defer rows.Close()
	var list []models.Technician
	for rows.Next() {
		var t models.Technician
		if err := scanTechnician(rows, &t); err != nil {
			return 0, nil, err
		}
		list = append(list, t)
	}
	return total, list, rows.Err()
}

// Save updates all mutable fields of the technician row.
func (r *Repository) Save(ctx context.Context, t *models.Technician) error {
	const q = `UPDATE technicians
		SET first_name = $1, last_name = $2, username = $3, email = $4,
			phone = NULLIF($5, ''), password_hash = $6, updated_at = NOW()
		WHERE id = $7 AND org_id = $8
		RETURNING updated_at`
	err := r.pool.QueryRow(ctx, q, t.FirstName, t.LastName, t.Username, t.Email,
		t.Phone, t.PasswordHash, t.ID, t.OrgID).Scan(&t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound("technician %s", t.ID)
	}
	return mapUniqueViolation(err)
}

// SoftDelete sets the deletion timestamp on an active technician. The ledger
// keeps its references: interventions restrict hard deletes at the schema
// level, so retiring a technician is always a soft delete.
func (r *Repository) SoftDelete(ctx context.Context, orgID, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE technicians SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND org_id = $2 AND deleted_at IS NULL`, id, orgID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return apperr.Conflict("username, email or phone already in use")
	}
	return err
}
