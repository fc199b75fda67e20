package clients

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fieldserve/backend/internal/apperr"
	"github.com/fieldserve/backend/internal/middleware"
	"github.com/fieldserve/backend/internal/models"
	"github.com/fieldserve/backend/pkg/response"
)

// CreateRequest is the body for POST /clients.
type CreateRequest struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Username  string `json:"username" binding:"required"`
	Password  string `json:"password" binding:"required,min=6"`
	Email     string `json:"email" binding:"required,email"`
	Phone     string `json:"phone"`
}

// UpdateRequest is the body for PATCH /clients/:id. Absent fields are untouched.
type UpdateRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Username  *string `json:"username"`
	Password  *string `json:"password"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
}

// Handler handles client HTTP endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a clients handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Create handles POST /clients.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	orgID := c.MustGet(middleware.ContextOrgID).(uuid.UUID)
	client, err := h.svc.Create(c.Request.Context(), orgID, CreateParams{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Username:  req.Username,
		Password:  req.Password,
		Email:     req.Email,
		Phone:     req.Phone,
	})
	if err != nil {
		apperr.WriteHTTP(c, err)
		return
	}
	response.Created(c, client)
}

// List handles GET /clients?q=&limit=&offset=.
func (h *Handler) List(c *gin.Context) {
	page, err := models.ParsePage(c.Query("limit"), c.Query("offset"))
	if err != nil {
		apperr.WriteHTTP(c, err)
		return
	}
	orgID := c.MustGet(middleware.ContextOrgID).(uuid.UUID)
	total, list, err := h.svc.List(c.Request.Context(), orgID, c.Query("q"), page)
	if err != nil {
		apperr.WriteHTTP(c, err)
		return
	}
	if list == nil {
		list = []models.Client{}
	}
	response.OK(c, response.Page{Total: total, Limit: page.Limit, Offset: page.Offset, Items: list})
}

// Get handles GET /clients/:id.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid client id")
		return
	}
	orgID := c.MustGet(middleware.ContextOrgID).(uuid.UUID)
	client, err := h.svc.Get(c.Request.Context(), orgID, id)
	if err != nil {
		apperr.WriteHTTP(c, err)
		return
	}
	response.OK(c, client)
}

// Update handles PATCH /clients/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid client id")
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	orgID := c.MustGet(middleware.ContextOrgID).(uuid.UUID)
	client, err := h.svc.Update(c.Request.Context(), orgID, id, UpdateParams{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Username:  req.Username,
		Password:  req.Password,
		Email:     req.Email,
		Phone:     req.Phone,
	})
	if err != nil {
		apperr.WriteHTTP(c, err)
		return
	}
	response.OK(c, client)
}

// Delete handles DELETE /clients/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid client id")
		return
	}
	orgID := c.MustGet(middleware.ContextOrgID).(uuid.UUID)
	if err := h.svc.Delete(c.Request.Context(), orgID, id); err != nil {
		apperr.WriteHTTP(c, err)
		return
	}
	response.NoContent(c)
}
