package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/splittyhq/splitty_backend/internal/core/ports/services"
	"github.com/splittyhq/splitty_backend/internal/dto"
	"github.com/splittyhq/splitty_backend/internal/middleware"
)

// activityHandler serves the audit trail, which lives only on the remote.
type activityHandler struct {
	sync portssvc.SyncSvcFacade
}

func newActivityHandler(sync portssvc.SyncSvcFacade) *activityHandler {
	return &activityHandler{sync: sync}
}

// registerActivityRoutes registers routes related to the activity feed.
func registerActivityRoutes(rg *gin.RouterGroup, sync portssvc.SyncSvcFacade) {
	h := newActivityHandler(sync)

	activity := rg.Group("/activity")
	{
		activity.GET("", h.listActivity)
	}
}

// listActivity godoc
// @Summary List the activity feed
// @Description Returns audit-trail entries newest first with token pagination
// @Tags activity
// @Produce  json
// @Param   limit query int false "Page size (default 20)"
// @Param   nextToken query string false "Pagination token from the previous page"
// @Success 200 {object} dto.ListActivityResponse
// @Failure 400 {object} map[string]string "Invalid pagination token"
// @Security BearerAuth
// @Router /activity [get]
func (h *activityHandler) listActivity(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var params dto.ListActivityParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query for ListActivity", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	entries, nextToken, err := h.sync.ListActivity(c.Request.Context(), params.Limit, params.NextToken)
	if err != nil {
		logger.Error("Failed to list activity", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list activity"})
		return
	}

	c.JSON(http.StatusOK, dto.ListActivityResponse{
		Entries:   dto.ToActivityResponses(entries),
		NextToken: nextToken,
	})
}
