package interventions

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fieldserve/backend/internal/apperr"
	"github.com/fieldserve/backend/internal/events"
	"github.com/fieldserve/backend/internal/models"
)

// Repository handles intervention persistence. Writes that also touch the
// event timeline run inside one transaction so a failure leaves no partial
// state behind.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an interventions repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const rowColumns = `i.id, i.org_id, i.client_id, i.technician_id, i.status, i.description,
	i.created_at, i.updated_at, i.deleted_at,
	c.first_name || ' ' || c.last_name, t.first_name || ' ' || t.last_name`

const rowJoins = `FROM interventions i
	INNER JOIN clients c ON c.id = i.client_id
	INNER JOIN technicians t ON t.id = i.technician_id`

func scanRow(row pgx.Row, iv *models.InterventionRow) error {
	return row.Scan(&iv.ID, &iv.OrgID, &iv.ClientID, &iv.TechnicianID, &iv.Status, &iv.Description,
		&iv.CreatedAt, &iv.UpdatedAt, &iv.DeletedAt, &iv.ClientName, &iv.TechnicianName)
}

// Insert persists a new intervention and its opening timeline event in one
// transaction.
func (r *Repository) Insert(ctx context.Context, iv *models.Intervention, opened *models.Event) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const q = `INSERT INTO interventions (org_id, client_id, technician_id, status, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`
	if err := tx.QueryRow(ctx, q, iv.OrgID, iv.ClientID, iv.TechnicianID, iv.Status, iv.Description).
		Scan(&iv.ID, &iv.CreatedAt, &iv.UpdatedAt); err != nil {
		return err
	}
	opened.InterventionID = iv.ID
	opened.OrgID = iv.OrgID
	if err := events.Append(ctx, tx, opened); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// GetByID returns an intervention within the organisation, joined with
// client and technician display names, including soft-deleted rows.
func (r *Repository) GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.InterventionRow, error) {
	var iv models.InterventionRow
	err := scanRow(r.pool.QueryRow(ctx,
		`SELECT `+rowColumns+` `+rowJoins+` WHERE i.id = $1 AND i.org_id = $2`, id, orgID), &iv)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("intervention %s", id)
	}
	if err != nil {
		return nil, err
	}
	return &iv, nil
}

// ListFilter restricts List; zero values mean no restriction. Filters
// combine with logical AND.
type ListFilter struct {
	Status   *models.Status
	ClientID *uuid.UUID
	Query    string
}

// List returns active interventions in the organisation with the total
// matching count before pagination. The text filter is a case-insensitive
// substring match over the description and both party names.
func (r *Repository) List(ctx context.Context, orgID uuid.UUID, f ListFilter, page models.PageParams) (int, []models.InterventionRow, error) {
	cond := `WHERE i.org_id = $1 AND i.deleted_at IS NULL`
	args := []interface{}{orgID}
	if f.Status != nil {
		args = append(args, *f.Status)
		cond += fmt.Sprintf(` AND i.status = $%d`, len(args))
	}
	if f.ClientID != nil {
		args = append(args, *f.ClientID)
		cond += fmt.Sprintf(` AND i.client_id = $%d`, len(args))
	}
	if f.Query != "" {
		args = append(args, f.Query)
		n := len(args)
		cond += fmt.Sprintf(` AND (i.description ILIKE '%%' || $%d || '%%'
			OR c.first_name || ' ' || c.last_name ILIKE '%%' || $%d || '%%'
			OR t.first_name || ' ' || t.last_name ILIKE '%%' || $%d || '%%')`, n, n, n)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) `+rowJoins+` `+cond, args...).Scan(&total); err != nil {
		return 0, nil, err
	}

	args = append(args, page.Limit, page.Offset)
	q := fmt.Sprintf(`SELECT %s %s %s ORDER BY i.created_at DESC, i.id LIMIT $%d OFFSET $%d`,
		rowColumns, rowJoins, cond, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return 0, nil, err
	}
	defer rows.Close()
	var list []models.InterventionRow
	for rows.Next() {
		var iv models.InterventionRow
		if err := scanRow(rows, &iv); err != nil {
			return 0, nil, err
		}
		list = append(list, iv)
	}
	return total, list, rows.Err()
}

// Save updates status and description, appending the given timeline event in
// the same transaction when one is supplied.
func (r *Repository) Save(ctx context.Context, iv *models.Intervention, ev *models.Event) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const q = `UPDATE interventions SET status = $1, description = $2, updated_at = NOW()
		WHERE id = $3 AND org_id = $4
		RETURNING updated_at`
	err = tx.QueryRow(ctx, q, iv.Status, iv.Description, iv.ID, iv.OrgID).Scan(&iv.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound("intervention %s", iv.ID)
	}
	if err != nil {
		return err
	}
	if ev != nil {
		ev.InterventionID = iv.ID
		ev.OrgID = iv.OrgID
		if err := events.Append(ctx, tx, ev); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// SoftDelete sets the deletion timestamp on an active intervention and
// appends the closing timeline event in the same transaction. It reports
// false when no active row matched.
func (r *Repository) SoftDelete(ctx context.Context, orgID, id uuid.UUID, ev *models.Event) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE interventions SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND org_id = $2 AND deleted_at IS NULL`, id, orgID)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}
	ev.InterventionID = id
	ev.OrgID = orgID
	if err := events.Append(ctx, tx, ev); err != nil {
		return false, err
	}
	return true, tx.Commit(ctx)
}
