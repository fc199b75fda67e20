package events

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fieldserve/backend/internal/models"
)

// Querier is the subset of pgx needed to append an event; both a pool and an
// open transaction satisfy it, so ledger writes can join a larger transaction.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Append inserts an immutable timeline entry. The organisation identifier is
// carried on the row itself, denormalized from the intervention, so tenant
// filtering never needs a join.
func Append(ctx context.Context, q Querier, ev *models.Event) error {
	const sql = `INSERT INTO events (org_id, intervention_id, type, note, payload, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`
	return q.QueryRow(ctx, sql, ev.OrgID, ev.InterventionID, ev.Type, ev.Note, ev.Payload, ev.CreatedBy).
		Scan(&ev.ID, &ev.CreatedAt)
}

// Repository handles event persistence. Events are append-only; there is no
// update or delete.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an events repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert appends a single event outside any larger transaction.
func (r *Repository) Insert(ctx context.Context, ev *models.Event) error {
	return Append(ctx, r.pool, ev)
}

// ListByIntervention returns the intervention's timeline ordered by creation
// time ascending, with the identifier as a deterministic tiebreak.
func (r *Repository) ListByIntervention(ctx context.Context, orgID, interventionID uuid.UUID) ([]models.Event, error) {
	const q = `SELECT id, org_id, intervention_id, type, note, payload, created_by, created_at
		FROM events
		WHERE intervention_id = $1 AND org_id = $2
		ORDER BY created_at ASC, id ASC`
	rows, err := r.pool.Query(ctx, q, interventionID, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Event
	for rows.Next() {
		var ev models.Event
		if err := rows.Scan(&ev.ID, &ev.OrgID, &ev.InterventionID, &ev.Type, &ev.Note,
			&ev.Payload, &ev.CreatedBy, &ev.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, ev)
	}
	return list, rows.Err()
}
