package interventions

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fieldserve/backend/internal/apperr"
	"github.com/fieldserve/backend/internal/middleware"
	"github.com/fieldserve/backend/internal/models"
	"github.com/fieldserve/backend/pkg/response"
)

// Handler handles intervention HTTP endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates an interventions handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
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

// CreateRequest is the body for POST /interventions.
type CreateRequest struct {
	ClientID     uuid.UUID `json:"client_id" binding:"required"`
	TechnicianID uuid.UUID `json:"technician_id" binding:"required"`
	Description  string    `json:"description" binding:"required"`
	Status       *string   `json:"status"`
}

// Create handles POST /interventions.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	params := CreateParams{
		ClientID:     req.ClientID,
		TechnicianID: req.TechnicianID,
		Description:  req.Description,
	}
	if req.Status != nil {
		status, ok := models.ParseStatus(*req.Status)
		if !ok {
			response.BadRequest(c, "invalid status: "+*req.Status)
			return
		}
		params.Status = &status
	}
	orgID := c.MustGet(middleware.ContextOrgID).(uuid.UUID)
	iv, err := h.svc.Create(c.Request.Context(), orgID, params, actorID(c))
	if err != nil {
		apperr.WriteHTTP(c, err)
		return
	}
	response.Created(c, iv)
}

// List handles GET /interventions with optional status, client_id and q
// filters.
func (h *Handler) List(c *gin.Context) {
	page, err := models.ParsePage(c.Query("limit"), c.Query("offset"))
	if err != nil {
		apperr.WriteHTTP(c, err)
		return
	}
	var filter ListFilter
	if raw := c.Query("status"); raw != "" {
		status, ok := models.ParseStatus(raw)
		if !ok {
			response.BadRequest(c, "invalid status: "+raw)
			return
		}
		filter.Status = &status
	}
	if raw := c.Query("client_id"); raw != "" {
		clientID, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(c, "invalid client_id")
			return
		}
		filter.ClientID = &clientID
	}
	filter.Query = c.Query("q")

	orgID := c.MustGet(middleware.ContextOrgID).(uuid.UUID)
	total, list, err := h.svc.List(c.Request.Context(), orgID, filter, page)
	if err != nil {
		apperr.WriteHTTP(c, err)
		return
	}
	if list == nil {
		list = []models.InterventionRow{}
	}
	response.OK(c, response.Page{Total: total, Limit: page.Limit, Offset: page.Offset, Items: list})
}

// Get handles GET /interventions/:id.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid intervention id")
		return
	}
	orgID := c.MustGet(middleware.ContextOrgID).(uuid.UUID)
	iv, err := h.svc.Get(c.Request.Context(), orgID, id)
	if err != nil {
		apperr.WriteHTTP(c, err)
		return
	}
	response.OK(c, iv)
}

// UpdateRequest is the body for PATCH /interventions/:id. Absent fields are
// left unchanged.
type UpdateRequest struct {
	Status      *string `json:"status"`
	Description *string `json:"description"`
}

// Update handles PATCH /interventions/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid intervention id")
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	var params UpdateParams
	if req.Status != nil {
		status, ok := models.ParseStatus(*req.Status)
		if !ok {
			response.BadRequest(c, "invalid status: "+*req.Status)
			return
		}
		params.Status = &status
	}
	params.Description = req.Description

	orgID := c.MustGet(middleware.ContextOrgID).(uuid.UUID)
	iv, err := h.svc.Update(c.Request.Context(), orgID, id, params, actorID(c))
	if err != nil {
		apperr.WriteHTTP(c, err)
		return
	}
	response.OK(c, iv)
}

// Delete handles DELETE /interventions/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid intervention id")
		return
	}
	orgID := c.MustGet(middleware.ContextOrgID).(uuid.UUID)
	if err := h.svc.Delete(c.Request.Context(), orgID, id, actorID(c)); err != nil {
		apperr.WriteHTTP(c, err)
		return
	}
	response.NoContent(c)
}
