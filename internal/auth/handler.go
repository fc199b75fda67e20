package auth

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fieldserve/backend/internal/apperr"
	"github.com/fieldserve/backend/internal/models"
	"github.com/fieldserve/backend/pkg/response"
	"github.com/fieldserve/backend/pkg/utils"
)

// CredentialStore looks up login candidates by username. Usernames are only
// unique within one organisation, so a lookup may return several accounts.
type CredentialStore interface {
	FindClientsByUsername(ctx context.Context, username string) ([]models.Client, error)
	FindTechniciansByUsername(ctx context.Context, username string) ([]models.Technician, error)
}

// credential is one login candidate, normalized across the two account tables.
type credential struct {
	subjectID uuid.UUID
	orgID     uuid.UUID
	hash      string
	deleted   bool
}

// LoginRequest is the body for POST /auth/login. Role selects which account
// table the username is resolved against and defaults to client.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
}

// TokenResponse is the auth response with JWT and resolved identity.
type TokenResponse struct {
	Token     string      `json:"token"`
	SubjectID uuid.UUID   `json:"subject_id"`
	OrgID     uuid.UUID   `json:"org_id"`
	Role      models.Role `json:"role"`
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	store  CredentialStore
	jwt    *JWTService
	guard  *Guard
	logger *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(store CredentialStore, jwt *JWTService, guard *Guard, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, jwt: jwt, guard: guard, logger: logger}
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	role := models.RoleClient
	if req.Role != "" {
		parsed, ok := models.ParseRole(req.Role)
		if !ok {
			response.BadRequest(c, "invalid role")
			return
		}
		role = parsed
	}

	var candidates []credential
	switch role {
	case models.RoleTechnician:
		techs, err := h.store.FindTechniciansByUsername(c.Request.Context(), req.Username)
		if err != nil {
			h.logger.Error("lookup technician", zap.Error(err))
			response.Internal(c, "login failed")
			return
		}
		for _, t := range techs {
			candidates = append(candidates, credential{t.ID, t.OrgID, t.PasswordHash, t.Deleted()})
		}
	default:
		cls, err := h.store.FindClientsByUsername(c.Request.Context(), req.Username)
		if err != nil {
			h.logger.Error("lookup client", zap.Error(err))
			response.Internal(c, "login failed")
			return
		}
		for _, cl := range cls {
			candidates = append(candidates, credential{cl.ID, cl.OrgID, cl.PasswordHash, cl.Deleted()})
		}
	}

	// The same username may exist in several organisations; the password
	// decides which account the caller owns. An active match wins over a
	// deleted one so re-registering a deleted username behaves sanely.
	var match *credential
	deletedMatch := false
	for i := range candidates {
		if !utils.CheckPassword(req.Password, candidates[i].hash) {
			continue
		}
		if candidates[i].deleted {
			deletedMatch = true
			continue
		}
		match = &candidates[i]
		break
	}
	if match == nil {
		if deletedMatch {
			response.Unauthorized(c, "account deleted")
			return
		}
		response.Unauthorized(c, "invalid username or password")
		return
	}

	token, err := h.jwt.Generate(match.subjectID, match.orgID, role)
	if err != nil {
		h.logger.Error("generate token", zap.Error(err))
		response.Internal(c, "failed to generate token")
		return
	}

	response.OK(c, TokenResponse{Token: token, SubjectID: match.subjectID, OrgID: match.orgID, Role: role})
}

// Logout handles POST /auth/logout. The presented token is revoked for its
// remaining lifetime.
func (h *Handler) Logout(c *gin.Context) {
	token, err := ExtractBearer(c.GetHeader("Authorization"))
	if err != nil {
		apperr.WriteHTTP(c, err)
		return
	}
	claims, err := h.jwt.Validate(token)
	if err != nil {
		apperr.WriteHTTP(c, err)
		return
	}
	if err := h.guard.Revoke(c.Request.Context(), claims); err != nil {
		h.logger.Error("revoke token", zap.Error(err))
		response.Internal(c, "failed to revoke token")
		return
	}
	response.NoContent(c)
}

// ExtractBearer returns the token from an Authorization header.
func ExtractBearer(header string) (string, error) {
	if header == "" {
		return "", apperr.Unauthenticated("missing authorization header")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", apperr.Unauthenticated("invalid authorization header")
	}
	return parts[1], nil
}
