package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Well-known event types. The type column is a free-form tag; these are the
// values the system itself writes.
const (
	EventCreated    = "created"
	EventStarted    = "started"
	EventUpdated    = "updated"
	EventCompleted  = "completed"
	EventDeleted    = "deleted"
	EventAttachment = "attachment"
)

// Event is an immutable timeline entry for one intervention. The organisation
// is denormalized from the intervention so tenant filtering needs no join.
// Events are append-only: there is no update or delete.
type Event struct {
	ID             uuid.UUID       `json:"id"`
	OrgID          uuid.UUID       `json:"org_id"`
	InterventionID uuid.UUID       `json:"intervention_id"`
	Type           string          `json:"type"`
	Note           *string         `json:"note,omitempty"`
	Payload        json.RawMessage `json:"payload,omitempty"`
	CreatedBy      *uuid.UUID      `json:"created_by,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}
