package events

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fieldserve/backend/internal/apperr"
	"github.com/fieldserve/backend/internal/models"
)

// Store is the persistence surface the service needs. *Repository implements it.
type Store interface {
	Insert(ctx context.Context, ev *models.Event) error
	ListByIntervention(ctx context.Context, orgID, interventionID uuid.UUID) ([]models.Event, error)
}

// InterventionLookup resolves an intervention within an organisation,
// including soft-deleted rows. Implemented by the interventions repository.
type InterventionLookup interface {
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.InterventionRow, error)
}

// TechnicianLookup resolves an active technician within an organisation.
// Implemented by the technicians repository.
type TechnicianLookup interface {
	GetActive(ctx context.Context, orgID, id uuid.UUID) (*models.Technician, error)
}

// Service enforces the timeline rules: the intervention must be visible in
// the caller's organisation and still active, and an explicit author must be
// an active technician of the same organisation.
type Service struct {
	store         Store
	interventions InterventionLookup
	technicians   TechnicianLookup
	logger        *zap.Logger
}

// NewService creates an events service.
func NewService(store Store, interventions InterventionLookup, technicians TechnicianLookup, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, interventions: interventions, technicians: technicians, logger: logger}
}

// AppendParams holds the fields for a new timeline entry.
type AppendParams struct {
	Type         string
	Note         *string
	Payload      json.RawMessage
	TechnicianID *uuid.UUID
}

// Append records an event on the intervention's timeline. The type defaults
// to "started" when omitted, matching the event vocabulary.
func (s *Service) Append(ctx context.Context, orgID, interventionID uuid.UUID, p AppendParams) (*models.Event, error) {
	iv, err := s.interventions.GetByID(ctx, orgID, interventionID)
	if err != nil {
		return nil, err
	}
	if iv.Deleted() {
		return nil, apperr.Conflict("intervention already deleted")
	}

	if p.TechnicianID != nil {
		if _, err := s.technicians.GetActive(ctx, iv.OrgID, *p.TechnicianID); err != nil {
			return nil, err
		}
	}

	evType := p.Type
	if evType == "" {
		evType = models.EventStarted
	}
	ev := &models.Event{
		OrgID:          iv.OrgID,
		InterventionID: iv.ID,
		Type:           evType,
		Note:           p.Note,
		Payload:        p.Payload,
		CreatedBy:      p.TechnicianID,
	}
	if err := s.store.Insert(ctx, ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// List returns the intervention's timeline in creation order. The timeline of
// a soft-deleted intervention remains readable as history.
func (s *Service) List(ctx context.Context, orgID, interventionID uuid.UUID) ([]models.Event, error) {
	if _, err := s.interventions.GetByID(ctx, orgID, interventionID); err != nil {
		return nil, err
	}
	return s.store.ListByIntervention(ctx, orgID, interventionID)
}

// Visible checks that the intervention exists in the organisation.
func (s *Service) Visible(ctx context.Context, orgID, interventionID uuid.UUID) error {
	_, err := s.interventions.GetByID(ctx, orgID, interventionID)
	return err
}
