package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/fieldserve/backend/internal/auth"
	"github.com/fieldserve/backend/pkg/response"
)

const (
	// ContextSubjectID is the key for the authenticated subject ID in gin context.
	ContextSubjectID = "subject_id"
	// ContextOrgID is the key for the caller's organisation ID in gin context.
	ContextOrgID = "org_id"
	// ContextRole is the key for the caller's role in gin context.
	ContextRole = "role"
)

// JWT returns a middleware that resolves the Bearer credential through the
// access guard and sets (subject, organisation, role) in context. Any resolve
// failure, including a subject that no longer exists, is a 401.
func JWT(guard *auth.Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.ExtractBearer(c.GetHeader("Authorization"))
		if err != nil {
			response.Unauthorized(c, err.Error())
			c.Abort()
			return
		}
		_, ident, err := guard.Resolve(c.Request.Context(), token)
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		c.Set(ContextSubjectID, ident.SubjectID)
		c.Set(ContextOrgID, ident.OrgID)
		c.Set(ContextRole, ident.Role)
		c.Next()
	}
}
