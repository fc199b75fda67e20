package events

import (
	"encoding/json"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fieldserve/backend/internal/apperr"
	"github.com/fieldserve/backend/internal/middleware"
	"github.com/fieldserve/backend/internal/models"
	"github.com/fieldserve/backend/pkg/response"
	"github.com/fieldserve/backend/pkg/storage"
)

// AttachmentRequest is the body for POST /interventions/:id/attachments.
type AttachmentRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type"`
}

// AttachmentResponse carries a pre-signed upload URL and the object key.
type AttachmentResponse struct {
	UploadURL string `json:"upload_url"`
	Key       string `json:"key"`
}

// CreateAttachment handles POST /interventions/:id/attachments. It returns a
// pre-signed PUT URL for a photo or report file and records an "attachment"
// event on the intervention's timeline. The URL is presigned before the event
// is appended: a presign failure must not leave a timeline entry for an
// upload that was never offered.
func (h *Handler) CreateAttachment(c *gin.Context) {
	if h.storage == nil {
		response.ServiceUnavailable(c, "attachment storage not configured")
		return
	}
	interventionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid intervention id")
		return
	}
	var req AttachmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if !storage.ValidateFileType(req.ContentType, req.Filename) {
		response.BadRequest(c, "unsupported attachment type")
		return
	}

	orgID := c.MustGet(middleware.ContextOrgID).(uuid.UUID)
	contentType := req.ContentType
	if contentType == "" {
		contentType = storage.ContentTypeForFilename(req.Filename)
	}
	key := storage.AttachmentKey(orgID.String(), interventionID.String(), req.Filename)

	url, err := h.storage.PresignUpload(c.Request.Context(), key, contentType)
	if err != nil {
		response.Internal(c, "failed to presign upload")
		return
	}

	payload, _ := json.Marshal(map[string]string{"key": key, "content_type": contentType})
	if _, err := h.svc.Append(c.Request.Context(), orgID, interventionID, AppendParams{
		Type:         models.EventAttachment,
		Payload:      payload,
		TechnicianID: actorID(c),
	}); err != nil {
		apperr.WriteHTTP(c, err)
		return
	}

	response.Created(c, AttachmentResponse{UploadURL: url, Key: key})
}

// AttachmentURL handles GET /interventions/:id/attachments/url?key=. It
// returns a pre-signed GET URL for a previously uploaded object. The key must
// lie under the caller's organisation and the intervention, so one tenant can
// never mint a download URL for another's objects.
func (h *Handler) AttachmentURL(c *gin.Context) {
	if h.storage == nil {
		response.ServiceUnavailable(c, "attachment storage not configured")
		return
	}
	interventionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid intervention id")
		return
	}
	key := c.Query("key")
	if key == "" {
		response.BadRequest(c, "key is required")
		return
	}
	orgID := c.MustGet(middleware.ContextOrgID).(uuid.UUID)
	prefix := storage.AttachmentKey(orgID.String(), interventionID.String(), "")
	if !strings.HasPrefix(key, prefix+"/") {
		apperr.WriteHTTP(c, apperr.NotFound("attachment %s", key))
		return
	}
	if err := h.svc.Visible(c.Request.Context(), orgID, interventionID); err != nil {
		apperr.WriteHTTP(c, err)
		return
	}

	url, err := h.storage.PresignDownload(c.Request.Context(), key)
	if err != nil {
		response.Internal(c, "failed to presign download")
		return
	}
	response.OK(c, gin.H{"download_url": url, "key": key})
}
