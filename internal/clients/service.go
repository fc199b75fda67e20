package clients

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
	Insert(ctx context.Context, c *models.Client) error
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.Client, error)
	FindConflicting(ctx context.Context, orgID uuid.UUID, username, email, phone string) ([]models.Client, error)
	List(ctx context.Context, orgID uuid.UUID, query string, page models.PageParams) (int, []models.Client, error)
	Save(ctx context.Context, c *models.Client) error
	SoftDelete(ctx context.Context, orgID, id uuid.UUID) (bool, error)
}

// Service enforces the client lifecycle rules: organisation-scoped
// uniqueness, partial updates, and idempotency-rejecting soft deletes.
type Service struct {
	store  Store
	logger *zap.Logger
}

// NewService creates a clients service.
func NewService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger}
}

// CreateParams holds the fields for a new client.
type CreateParams struct {
	FirstName string
	LastName  string
	Username  string
	Password  string
	Email     string
	Phone     string
}

// Create registers a client in the organisation. Username, email and phone
// must be unique among the organisation's active clients (case-insensitive).
func (s *Service) Create(ctx context.Context, orgID uuid.UUID, p CreateParams) (*models.Client, error) {
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
	c := &models.Client{
		OrgID:        orgID,
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		Username:     p.Username,
		Email:        p.Email,
		Phone:        p.Phone,
		PasswordHash: hash,
	}
	if err := s.store.Insert(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Info("client created", zap.String("client_id", c.ID.String()), zap.String("org_id", orgID.String()))
	return c, nil
}

// List returns a page of the organisation's active clients. An empty result
// is a success with total=0, not an error.
func (s *Service) List(ctx context.Context, orgID uuid.UUID, query string, page models.PageParams) (int, []models.Client, error) {
	return s.store.List(ctx, orgID, query, page)
}

// Get returns a client visible in the organisation. Soft-deleted clients are
// returned with their deletion timestamp set.
func (s *Service) Get(ctx context.Context, orgID, id uuid.UUID) (*models.Client, error) {
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

// Update applies the provided fields. Changed username/email/phone values are
// re-validated for uniqueness against other active records in the
// organisation. Updating a soft-deleted client is a conflict.
func (s *Service) Update(ctx context.Context, orgID, id uuid.UUID, p UpdateParams) (*models.Client, error) {
	c, err := s.store.GetByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if c.Deleted() {
		return nil, apperr.Conflict("client already deleted")
	}

	username, email, phone := "", "", ""
	if p.Username != nil && !strings.EqualFold(*p.Username, c.Username) {
		username = *p.Username
	}
	if p.Email != nil && !strings.EqualFold(*p.Email, c.Email) {
		email = *p.Email
	}
	if p.Phone != nil && !strings.EqualFold(*p.Phone, c.Phone) {
		phone = *p.Phone
	}
	if username != "" || email != "" || phone != "" {
		if err := s.checkUnique(ctx, orgID, id, username, email, phone); err != nil {
			return nil, err
		}
	}

	if p.FirstName != nil {
		c.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		c.LastName = *p.LastName
	}
	if p.Username != nil {
		c.Username = *p.Username
	}
	if p.Email != nil {
		c.Email = *p.Email
	}
	if p.Phone != nil {
		c.Phone = *p.Phone
	}
	if p.Password != nil {
		if *p.Password == "" {
			return nil, apperr.InvalidArgument("password must not be empty")
		}
		hash, err := utils.HashPassword(*p.Password)
		if err != nil {
			return nil, err
		}
		c.PasswordHash = hash
	}

	if err := s.store.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete soft-deletes a client. Deleting an already-deleted client is a
// conflict, never a second application of the delete.
func (s *Service) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	c, err := s.store.GetByID(ctx, orgID, id)
	if err != nil {
		return err
	}
	if c.Deleted() {
		return apperr.Conflict("client already deleted")
	}
	deleted, err := s.store.SoftDelete(ctx, orgID, id)
	if err != nil {
		return err
	}
	if !deleted {
		return apperr.Conflict("client already deleted")
	}
	s.logger.Info("client deleted", zap.String("client_id", id.String()), zap.String("org_id", orgID.String()))
	return nil
}

// checkUnique reports a conflict naming the first colliding field among the
// organisation's active clients, excluding the record being updated.
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
