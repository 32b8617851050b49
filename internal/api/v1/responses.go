package v1

import (
	"github.com/gin-gonic/gin"

	"outpost/internal/auth"
	"outpost/pkg/models"
)

// errorBody writes the structured error envelope shared by every endpoint:
// a human-readable message plus a stable machine-readable type tag.
func errorBody(c *gin.Context, status int, message, errType string) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"message": message,
			"type":    errType,
		},
	})
}

const (
	defaultPageLimit = 50
	maxPageLimit     = 100
)

// listQuery is the shared query-parameter shape for paginated listings.
// Unknown sortBy values are accepted; the repository resolves them to the
// default order.
type listQuery struct {
	Limit         int64  `form:"limit"`
	Offset        int64  `form:"offset"`
	SortBy        string `form:"sortBy"`
	SortDirection string `form:"sortDirection"`
}

func (q *listQuery) pagination() models.Pagination {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	return models.Pagination{Limit: limit, Offset: offset}
}

func (q *listQuery) sorting() *models.Sorting {
	if q.SortBy == "" && q.SortDirection == "" {
		return nil
	}
	return &models.Sorting{SortBy: q.SortBy, SortDirection: q.SortDirection}
}

// caller returns the authenticated caller's id and role from the request
// context, or writes a 401 and reports false.
func caller(c *gin.Context) (int64, bool, bool) {
	id, ok := auth.GetUserIDFromContext(c)
	if !ok {
		errorBody(c, 401, "Unauthorized", "unauthorized")
		return 0, false, false
	}

	return id, c.GetBool("is_admin"), true
}
