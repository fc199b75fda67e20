package models

import (
	"time"

	"github.com/google/uuid"
)

// Status is an intervention lifecycle state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// ParseStatus validates a status literal.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return Status(s), true
	}
	return "", false
}

// transitions is the allowed status graph. Cancellation is reachable from
// every state except cancelled itself, which is terminal: no outgoing edges,
// not even a self-loop.
var transitions = map[Status][]Status{
	StatusPending:    {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
	StatusCompleted:  {StatusCancelled},
	StatusCancelled:  {},
}

// CanTransitionTo reports whether the status may move to next.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if next == allowed {
			return true
		}
	}
	return false
}

// Intervention is a unit of service work for one client, assigned to one
// technician, inside one organisation.
type Intervention struct {
	ID           uuid.UUID  `json:"id"`
	OrgID        uuid.UUID  `json:"org_id"`
	ClientID     uuid.UUID  `json:"client_id"`
	TechnicianID uuid.UUID  `json:"technician_id"`
	Status       Status     `json:"status"`
	Description  string     `json:"description"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at"`
}

// Deleted reports whether the intervention has been soft-deleted.
func (i *Intervention) Deleted() bool { return i.DeletedAt != nil }

// InterventionRow is an intervention joined with client and technician
// display names for list responses.
type InterventionRow struct {
	Intervention
	ClientName     string `json:"client_name"`
	TechnicianName string `json:"technician_name"`
}
