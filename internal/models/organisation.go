package models

import (
	"time"

	"github.com/google/uuid"
)

// Organisation is the tenant boundary. Every other entity belongs to exactly
// one organisation; removing an organisation cascades to everything it owns.
type Organisation struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Street     string    `json:"street"`
	PostalCode string    `json:"postal_code"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
