package interventions

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fieldserve/backend/internal/apperr"
	"github.com/fieldserve/backend/internal/models"
)

// Store is the persistence surface the service needs. *Repository implements it.
type Store interface {
	Insert(ctx context.Context, iv *models.Intervention, opened *models.Event) error
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.InterventionRow, error)
	List(ctx context.Context, orgID uuid.UUID, f ListFilter, page models.PageParams) (int, []models.InterventionRow, error)
	Save(ctx context.Context, iv *models.Intervention, ev *models.Event) error
	SoftDelete(ctx context.Context, orgID, id uuid.UUID, ev *models.Event) (bool, error)
}

// ClientDirectory resolves an active client within an organisation.
// Implemented by the clients repository.
type ClientDirectory interface {
	GetActive(ctx context.Context, orgID, id uuid.UUID) (*models.Client, error)
}

// TechnicianDirectory resolves an active technician within an organisation.
// Implemented by the technicians repository.
type TechnicianDirectory interface {
	GetActive(ctx context.Context, orgID, id uuid.UUID) (*models.Technician, error)
}

// Service owns the intervention lifecycle: both parties must be active
// members of the caller's organisation, and status only moves along the
// allowed transitions.
type Service struct {
	store       Store
	clients     ClientDirectory
	technicians TechnicianDirectory
	logger      *zap.Logger
}

// NewService creates an interventions service.
func NewService(store Store, clients ClientDirectory, technicians TechnicianDirectory, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, clients: clients, technicians: technicians, logger: logger}
}

// CreateParams holds the fields for a new intervention. Status is optional
// and defaults to pending.
type CreateParams struct {
	ClientID     uuid.UUID
	TechnicianID uuid.UUID
	Description  string
	Status       *models.Status
}

// Create opens a new intervention in pending status and records the opening
// event on its timeline. The actor, when known, is stamped as the event
// author.
func (s *Service) Create(ctx context.Context, orgID uuid.UUID, p CreateParams, actor *uuid.UUID) (*models.InterventionRow, error) {
	if strings.TrimSpace(p.Description) == "" {
		return nil, apperr.InvalidArgument("description is required")
	}
	client, err := s.clients.GetActive(ctx, orgID, p.ClientID)
	if err != nil {
		return nil, err
	}
	tech, err := s.technicians.GetActive(ctx, orgID, p.TechnicianID)
	if err != nil {
		return nil, err
	}

	status := models.StatusPending
	if p.Status != nil {
		status = *p.Status
	}
	iv := &models.Intervention{
		OrgID:        orgID,
		ClientID:     client.ID,
		TechnicianID: tech.ID,
		Status:       status,
		Description:  strings.TrimSpace(p.Description),
	}
	opened := &models.Event{Type: models.EventCreated, CreatedBy: actor}
	if err := s.store.Insert(ctx, iv, opened); err != nil {
		return nil, err
	}
	s.logger.Info("intervention created",
		zap.String("intervention_id", iv.ID.String()),
		zap.String("org_id", orgID.String()))

	row := &models.InterventionRow{Intervention: *iv}
	row.ClientName = client.FirstName + " " + client.LastName
	row.TechnicianName = tech.FirstName + " " + tech.LastName
	return row, nil
}

// Get returns an intervention by id, including soft-deleted ones.
func (s *Service) Get(ctx context.Context, orgID, id uuid.UUID) (*models.InterventionRow, error) {
	return s.store.GetByID(ctx, orgID, id)
}

// List returns active interventions matching the filter, with the total count.
func (s *Service) List(ctx context.Context, orgID uuid.UUID, f ListFilter, page models.PageParams) (int, []models.InterventionRow, error) {
	return s.store.List(ctx, orgID, f, page)
}

// UpdateParams holds the mutable intervention fields; nil means unchanged.
type UpdateParams struct {
	Status      *models.Status
	Description *string
}

// eventTypeFor maps a status transition to its timeline event type.
func eventTypeFor(to models.Status) string {
	switch to {
	case models.StatusInProgress:
		return models.EventStarted
	case models.StatusCompleted:
		return models.EventCompleted
	default:
		return models.EventUpdated
	}
}

// Update changes status and/or description. A status change must follow the
// lifecycle; requesting the current status again is rejected the same way as
// any other disallowed move. Each status change appends an event carrying the
// old and new values.
func (s *Service) Update(ctx context.Context, orgID, id uuid.UUID, p UpdateParams, actor *uuid.UUID) (*models.InterventionRow, error) {
	row, err := s.store.GetByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if row.Deleted() {
		return nil, apperr.Conflict("intervention already deleted")
	}

	var ev *models.Event
	if p.Status != nil && *p.Status != row.Status {
		from := row.Status
		if !from.CanTransitionTo(*p.Status) {
			return nil, apperr.Conflict("invalid transition from %s to %s", from, *p.Status)
		}
		row.Status = *p.Status
		payload, _ := json.Marshal(map[string]string{"from": string(from), "to": string(*p.Status)})
		ev = &models.Event{Type: eventTypeFor(*p.Status), Payload: payload, CreatedBy: actor}
	} else if p.Status != nil {
		return nil, apperr.Conflict("invalid transition from %s to %s", row.Status, *p.Status)
	}
	if p.Description != nil {
		if strings.TrimSpace(*p.Description) == "" {
			return nil, apperr.InvalidArgument("description cannot be empty")
		}
		row.Description = strings.TrimSpace(*p.Description)
	}

	if err := s.store.Save(ctx, &row.Intervention, ev); err != nil {
		return nil, err
	}
	return row, nil
}

// Delete soft-deletes an intervention in any status and records the closing
// event. Deleting an already deleted intervention is a conflict.
func (s *Service) Delete(ctx context.Context, orgID, id uuid.UUID, actor *uuid.UUID) error {
	row, err := s.store.GetByID(ctx, orgID, id)
	if err != nil {
		return err
	}
	if row.Deleted() {
		return apperr.Conflict("intervention already deleted")
	}
	ev := &models.Event{Type: models.EventDeleted, CreatedBy: actor}
	ok, err := s.store.SoftDelete(ctx, orgID, id, ev)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Conflict("intervention already deleted")
	}
	s.logger.Info("intervention deleted",
		zap.String("intervention_id", id.String()),
		zap.String("org_id", orgID.String()))
	return nil
}
