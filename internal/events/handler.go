package events

import (
	"context"
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fieldserve/backend/internal/apperr"
	"github.com/fieldserve/backend/internal/middleware"
	"github.com/fieldserve/backend/internal/models"
	"github.com/fieldserve/backend/pkg/response"
)

// Presigner issues pre-signed attachment URLs. *storage.S3 implements it;
// nil means attachment storage is not configured.
type Presigner interface {
	PresignUpload(ctx context.Context, key, contentType string) (string, error)
	PresignDownload(ctx context.Context, key string) (string, error)
}

// AppendRequest is the body for POST /interventions/:id/events.
type AppendRequest struct {
	Type         string          `json:"type"`
	Note         *string         `json:"note"`
	Payload      json.RawMessage `json:"payload"`
	TechnicianID *uuid.UUID      `json:"technician_id"`
}

// Handler handles event timeline HTTP endpoints.
type Handler struct {
	svc     *Service
	storage Presigner
}

// NewHandler creates an events handler.
func NewHandler(svc *Service, storage Presigner) *Handler {
	return &Handler{svc: svc, storage: storage}
}

// actorID returns the authenticated technician's id, or nil when the caller
// is a client. Timeline authorship only references technicians.
func actorID(c *gin.Context) *uuid.UUID {
	if role, _ := c.MustGet(middleware.ContextRole).(models.Role); role != models.RoleTechnician {
		return nil
	}
	id := c.MustGet(middleware.ContextSubjectID).(uuid.UUID)
	return &id
}

// Append handles POST /interventions/:id/events. When the body names no
// author, the authenticated technician is stamped as one.
func (h *Handler) Append(c *gin.Context) {
	interventionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid intervention id")
		return
	}
	var req AppendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	author := req.TechnicianID
	if author == nil {
		author = actorID(c)
	}
	orgID := c.MustGet(middleware.ContextOrgID).(uuid.UUID)
	ev, err := h.svc.Append(c.Request.Context(), orgID, interventionID, AppendParams{
		Type:         req.Type,
		Note:         req.Note,
		Payload:      req.Payload,
		TechnicianID: author,
	})
	if err != nil {
		apperr.WriteHTTP(c, err)
		return
	}
	response.Created(c, ev)
}

// List handles GET /interventions/:id/events.
func (h *Handler) List(c *gin.Context) {
	interventionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid intervention id")
		return
	}
	orgID := c.MustGet(middleware.ContextOrgID).(uuid.UUID)
	list, err := h.svc.List(c.Request.Context(), orgID, interventionID)
	if err != nil {
		apperr.WriteHTTP(c, err)
		return
	}
	if list == nil {
		list = []models.Event{}
	}
	response.OK(c, list)
}
