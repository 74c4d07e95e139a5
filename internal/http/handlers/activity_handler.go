// Activity HTTP handlers.
//
//   - GET /activity  (the caller's audit trail, paginated, newest first)
//
// The log is append-only; there is no write endpoint. Entries are recorded
// by the application services as side effects of state changes.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jd2q/go-interview-backend/internal/domain"
)

// ListActivityResponse wraps a page of audit entries and pagination metadata.
type ListActivityResponse struct {
	Activity   []domain.ActivityLog `json:"activity"`
	Pagination Pagination           `json:"pagination"`
}

// ListActivity godoc
// @ID          listActivity
// @Summary     List the current user's activity log (paginated)
// @Description Returns a page of the append-only audit trail, newest first.
// @Tags        Activity
// @Produce     json
// @Security    BearerAuth
// @Param       page       query  int  false  "Page number"     minimum(1) default(1)
// @Param       page_size  query  int  false  "Items per page"  minimum(1) maximum(100) default(20)
// @Success     200  {object}  handlers.ListActivityResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /activity [get]
func (h *Handlers) ListActivity(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)
	page, pageSize := clampPagination(c)

	total, err := h.actSvc.Count(ctx, uid)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "could not list activity")
		return
	}
	entries, err := h.actSvc.ListPage(ctx, uid, (page-1)*pageSize, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "could not list activity")
		return
	}
	ok(c, http.StatusOK, ListActivityResponse{
		Activity:   entries,
		Pagination: paginate(page, pageSize, total),
	})
}
