package models

import (
	"strconv"

	"github.com/fieldserve/backend/internal/apperr"
)

// Pagination bounds for list operations.
const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// PageParams is a validated limit/offset pair.
type PageParams struct {
	Limit  int
	Offset int
}

// ParsePage validates query-string limit/offset, applying defaults when
// absent. Out-of-bounds values are a client error, never silently clamped.
func ParsePage(limitStr, offsetStr string) (PageParams, error) {
	p := PageParams{Limit: DefaultLimit, Offset: 0}
	if limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil {
			return p, apperr.InvalidArgument("limit must be an integer")
		}
		if n < 1 || n > MaxLimit {
			return p, apperr.InvalidArgument("limit must be between 1 and %d", MaxLimit)
		}
		p.Limit = n
	}
	if offsetStr != "" {
		n, err := strconv.Atoi(offsetStr)
		if err != nil {
			return p, apperr.InvalidArgument("offset must be an integer")
		}
		if n < 0 {
			return p, apperr.InvalidArgument("offset must not be negative")
		}
		p.Offset = n
	}
	return p, nil
}
