package models

import (
	"time"

	"github.com/google/uuid"
)

// Technician is an organisation member who performs service. Technicians are
// referenced by interventions, so a technician in use can only be soft-deleted;
// the schema restricts hard deletion.
type Technician struct {
	ID           uuid.UUID  `json:"id"`
	OrgID        uuid.UUID  `json:"org_id"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	Phone        string     `json:"phone,omitempty"`
	PasswordHash string     `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at"`
}

// Deleted reports whether the technician has been soft-deleted.
func (t *Technician) Deleted() bool { return t.DeletedAt != nil }
