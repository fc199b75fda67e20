package technicians

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fieldserve/backend/internal/apperr"
	"github.com/fieldserve/backend/internal/models"
	"github.com/fieldserve/backend/pkg/utils"
)

// Store is the persistence surface the service needs. *Repository implements it.
type Store interface {
	Insert(ctx context.Context, t *models.Technician) error
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.Technician, error)
	FindConflicting(ctx context.Context, orgID uuid.UUID, username, email, phone string) ([]models.Technician, error)
	List(ctx context.Context, orgID uuid.UUID, query string, page models.PageParams) (int, []models.Technician, error)
	Save(ctx context.Context, t *models.Technician) error
	SoftDelete(ctx context.Context, orgID, id uuid.UUID) (bool, error)
}

// Service enforces the technician lifecycle rules, which mirror the client
// rules: org-scoped uniqueness, partial updates, soft delete.
type Service struct {
	store  Store
	logger *zap.Logger
}

// NewService creates a technicians service.
func NewService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger}
}

// CreateParams holds the fields for a new technician.
type CreateParams struct {
	FirstName string
	LastName  string
	Username  string
	Password  string
	Email     string
	Phone     string
}

// Create registers a technician in the organisation.
func (s *Service) Create(ctx context.Context, orgID uuid.UUID, p CreateParams) (*models.Technician, error) {
	if p.FirstName == "" || p.LastName == "" || p.Username == "" || p.Password == "" || p.Email == "" {
		return nil, apperr.InvalidArgument("first_name, last_name, username, password and email are required")
	}
	if err := s.checkUnique(ctx, orgID, uuid.Nil, p.Username, p.Email, p.Phone); err != nil {
		return nil, err
	}

	hash, err := utils.HashPassword(p.Password)
	if err != nil {
		return nil, err
	}
	t := &models.Technician{
		OrgID:        orgID,
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		Username:     p.Username,
		Email:        p.Email,
		Phone:        p.Phone,
		PasswordHash: hash,
	}
	if err := s.store.Insert(ctx, t); err != nil {
		return nil, err
	}
	s.logger.Info("technician created", zap.String("technician_id", t.ID.String()), zap.String("org_id", orgID.String()))
	return t, nil
}

// List returns a page of the organisation's active technicians.
func (s *Service) List(ctx context.Context, orgID uuid.UUID, query string, page models.PageParams) (int, []models.Technician, error) {
	return s.store.List(ctx, orgID, query, page)
}

// Get returns a technician visible in the organisation.
func (s *Service) Get(ctx context.Context, orgID, id uuid.UUID) (*models.Technician, error) {
	return s.store.GetByID(ctx, orgID, id)
}

// UpdateParams holds a partial update; nil fields keep their prior value.
type UpdateParams struct {
	FirstName *string
	LastName  *string
	Username  *string
	Password  *string
	Email     *string
	Phone     *string
}

// Update applies the provided fields, re-validating changed unique fields.
func (s *Service) Update(ctx context.Context, orgID, id uuid.UUID, p UpdateParams) (*models.Technician, error) {
	t, err := s.store.GetByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if t.Deleted() {
		return nil, apperr.Conflict("technician already deleted")
	}

	username, email, phone := "", "", ""
	if p.Username != nil && !strings.EqualFold(*p.Username, t.Username) {
		username = *p.Username
	}
	if p.Email != nil && !strings.EqualFold(*p.Email, t.Email) {
		email = *p.Email
	}
	if p.Phone != nil && !strings.EqualFold(*p.Phone, t.Phone) {
		phone = *p.Phone
	}
	if username != "" || email != "" || phone != "" {
		if err := s.checkUnique(ctx, orgID, id, username, email, phone); err != nil {
			return nil, err
		}
	}

	if p.FirstName != nil {
		t.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		t.LastName = *p.LastName
	}
	if p.Username != nil {
		t.Username = *p.Username
	}
	if p.Email != nil {
		t.Email = *p.Email
	}
	if p.Phone != nil {
		t.Phone = *p.Phone
	}
	if p.Password != nil {
		if *p.Password == "" {
			return nil, apperr.InvalidArgument("password must not be empty")
		}
		hash, err := utils.HashPassword(*p.Password)
		if err != nil {
			return nil, err
		}
		t.PasswordHash = hash
	}

	if err := s.store.Save(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Delete soft-deletes a technician; already-deleted is a conflict.
func (s *Service) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	t, err := s.store.GetByID(ctx, orgID, id)
	if err != nil {
		return err
	}
	if t.Deleted() {
		return apperr.Conflict("technician already deleted")
	}
	deleted, err := s.store.SoftDelete(ctx, orgID, id)
	if err != nil {
		return err
	}
	if !deleted {
		return apperr.Conflict("technician already deleted")
	}
	s.logger.Info("technician deleted", zap.String("technician_id", id.String()), zap.String("org_id", orgID.String()))
	return nil
}

func (s *Service) checkUnique(ctx context.Context, orgID, excludeID uuid.UUID, username, email, phone string) error {
	if username == "" && email == "" && phone == "" {
		return nil
	}
	matches, err := s.store.FindConflicting(ctx, orgID, username, email, phone)
	if err != nil {
		return err
	}
	for _, m := range matches {
		if m.ID == excludeID {
			continue
		}
		switch {
		case username != "" && strings.EqualFold(m.Username, username):
			return apperr.Conflict("username %q already in use", username)
		case email != "" && strings.EqualFold(m.Email, email):
			return apperr.Conflict("email %q already in use", email)
		case phone != "" && strings.EqualFold(m.Phone, phone):
			return apperr.Conflict("phone %q already in use", phone)
		}
	}
	return nil
}
