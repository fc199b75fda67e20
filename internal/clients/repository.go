package clients

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

const clientColumns = `id, org_id, first_name, last_name, username, email, COALESCE(phone, ''),
	password_hash, created_at, updated_at, deleted_at`

// Repository handles client persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a clients repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanClient(row pgx.Row, c *models.Client) error {
	return row.Scan(&c.ID, &c.OrgID, &c.FirstName, &c.LastName, &c.Username, &c.Email,
		&c.Phone, &c.PasswordHash, &c.CreatedAt, &c.UpdatedAt, &c.DeletedAt)
}

// Insert persists a new client. The partial unique indexes are the
// authoritative duplicate guard under concurrency; a violation surfaces
// as a conflict, never as a raw storage error.
func (r *Repository) Insert(ctx context.Context, c *models.Client) error {
	const q = `INSERT INTO clients (org_id, first_name, last_name, username, email, phone, password_hash)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)
		RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, c.OrgID, c.FirstName, c.LastName, c.Username, c.Email, c.Phone, c.PasswordHash).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	return mapUniqueViolation(err)
}

// GetByID returns a client within the organisation, including soft-deleted
// rows; absence and wrong-tenant access are indistinguishable.
func (r *Repository) GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.Client, error) {
	var c models.Client
	err := scanClient(r.pool.QueryRow(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE id = $1 AND org_id = $2`, id, orgID), &c)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("client %s", id)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetActive returns a non-deleted client within the organisation.
func (r *Repository) GetActive(ctx context.Context, orgID, id uuid.UUID) (*models.Client, error) {
	var c models.Client
	err := scanClient(r.pool.QueryRow(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE id = $1 AND org_id = $2 AND deleted_at IS NULL`,
		id, orgID), &c)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("client %s", id)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// FindConflicting returns active clients in the organisation whose username,
// email or phone matches any of the given non-empty values, case-insensitively.
func (r *Repository) FindConflicting(ctx context.Context, orgID uuid.UUID, username, email, phone string) ([]models.Client, error) {
	const q = `SELECT ` + clientColumns + ` FROM clients
		WHERE org_id = $1 AND deleted_at IS NULL
		AND (($2 <> '' AND lower(username) = lower($2))
			OR ($3 <> '' AND lower(email) = lower($3))
			OR ($4 <> '' AND lower(phone) = lower($4)))`
	rows, err := r.pool.Query(ctx, q, orgID, username, email, phone)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Client
	for rows.Next() {
		var c models.Client
		if err := scanClient(rows, &c); err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// List returns active clients in the organisation with the total matching
// count before pagination. The query filter is a case-insensitive substring
// match over first name, last name and email.
func (r *Repository) List(ctx context.Context, orgID uuid.UUID, query string, page models.PageParams) (int, []models.Client, error) {
	cond := `WHERE org_id = $1 AND deleted_at IS NULL`
	args := []interface{}{orgID}
	if query != "" {
		cond += ` AND (first_name ILIKE '%' || $2 || '%' OR last_name ILIKE '%' || $2 || '%' OR email ILIKE '%' || $2 || '%')`
		args = append(args, query)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM clients `+cond, args...).Scan(&total); err != nil {
		return 0, nil, err
	}

	args = append(args, page.Limit, page.Offset)
	q := fmt.Sprintf(`SELECT %s FROM clients %s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		clientColumns, cond, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return 0, nil, err
	}
	defer rows.Close()
	var list []models.Client
	for rows.Next() {
		var c models.Client
		if err := scanClient(rows, &c); err != nil {
			return 0, nil, err
		}
		list = append(list, c)
	}
	return total, list, rows.Err()
}

// Save updates all mutable fields of the client row.
func (r *Repository) Save(ctx context.Context, c *models.Client) error {
	const q = `UPDATE clients
		SET first_name = $1, last_name = $2, username = $3, email = $4,
			phone = NULLIF($5, ''), password_hash = $6, updated_at = NOW()
		WHERE id = $7 AND org_id = $8
		RETURNING updated_at`
	err := r.pool.QueryRow(ctx, q, c.FirstName, c.LastName, c.Username, c.Email,
		c.Phone, c.PasswordHash, c.ID, c.OrgID).Scan(&c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound("client %s", c.ID)
	}
	return mapUniqueViolation(err)
}

// SoftDelete sets the deletion timestamp on an active client. It reports
// false when no active row matched (absent, wrong tenant, or already deleted).
func (r *Repository) SoftDelete(ctx context.Context, orgID, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE clients SET deleted_at = NOW(), updated_at = NOW()
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
