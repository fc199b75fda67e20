package apperr

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/fieldserve/backend/pkg/response"
)

// WriteHTTP translates a taxonomy error into the JSON response envelope.
// Unclassified errors become a generic 500 without leaking their message.
func WriteHTTP(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidArgument):
		response.BadRequest(c, err.Error())
	case errors.Is(err, ErrUnauthenticated):
		response.Unauthorized(c, err.Error())
	case errors.Is(err, ErrForbidden):
		response.Forbidden(c, err.Error())
	case errors.Is(err, ErrNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, ErrConflict):
		response.Conflict(c, err.Error())
	default:
		response.Internal(c, "internal error")
	}
}
