package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	// DefaultLimit is the page size when the caller does not pass one
	DefaultLimit = 10
	// MaxLimit caps the page size
	MaxLimit = 100
)

// Params holds parsed page-number pagination parameters
type Params struct {
	Page   int
	Limit  int
	Offset int
}

// Page is the envelope returned by paginated list endpoints
type Page struct {
	Count   int64       `json:"count"`
	Results interface{} `json:"results"`
}

// Parse reads `page` and `limit` query parameters, clamping them to sane
// values. Invalid values fall back to defaults rather than erroring.
func Parse(c *gin.Context) Params {
	page := 1
	if p := c.Query("page"); p != "" {
		if parsed, err := strconv.Atoi(p); err == nil && parsed > 0 {
			page = parsed
		}
	}

	limit := DefaultLimit
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= MaxLimit {
			limit = parsed
		}
	}

	return Params{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}
