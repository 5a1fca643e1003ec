package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/splittyhq/splitty_backend/internal/core/ports/services"
	"github.com/splittyhq/splitty_backend/internal/dto"
	"github.com/splittyhq/splitty_backend/internal/middleware"
)

// groupHandler handles HTTP requests related to groups.
type groupHandler struct {
	store portssvc.StoreSvcFacade
}

func newGroupHandler(store portssvc.StoreSvcFacade) *groupHandler {
	return &groupHandler{store: store}
}

// registerGroupRoutes registers routes related to groups.
func registerGroupRoutes(rg *gin.RouterGroup, store portssvc.StoreSvcFacade) {
	h := newGroupHandler(store)

	groups := rg.Group("/groups")
	{
		groups.POST("", h.createGroup)
		groups.GET("", h.listGroups)
		groups.GET("/:groupID", h.getGroup)
		groups.PUT("/:groupID", h.updateGroup)
		groups.DELETE("/:groupID", h.deleteGroup)
	}
}

// createGroup godoc
// @Summary Create a group
// @Description Creates a group over existing friends; the owner is an implicit member
// @Tags groups
// @Accept  json
// @Produce  json
// @Param   group body dto.CreateGroupRequest true "Group details"
// @Success 201 {object} dto.GroupResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 404 {object} map[string]string "Unknown member"
// @Security BearerAuth
// @Router /groups [post]
func (h *groupHandler) createGroup(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateGroup", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	group, err := h.store.AddGroup(c.Request.Context(), req)
	if err != nil {
		writeLedgerError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToGroupResponse(group, h.store.FormatCurrency(group.Balance)))
}

// listGroups godoc
// @Summary List groups
// @Tags groups
// @Produce  json
// @Success 200 {array} dto.GroupResponse
// @Security BearerAuth
// @Router /groups [get]
func (h *groupHandler) listGroups(c *gin.Context) {
	groups := h.store.ListGroups(c.Request.Context())
	responses := make([]dto.GroupResponse, len(groups))
	for i := range groups {
		responses[i] = dto.ToGroupResponse(&groups[i], h.store.FormatCurrency(groups[i].Balance))
	}
	c.JSON(http.StatusOK, responses)
}

// getGroup godoc
// @Summary Get a group
// @Tags groups
// @Produce  json
// @Param   groupID path string true "Group ID"
// @Success 200 {object} dto.GroupResponse
// @Failure 404 {object} map[string]string "Group not found"
// @Security BearerAuth
// @Router /groups/{groupID} [get]
func (h *groupHandler) getGroup(c *gin.Context) {
	group, err := h.store.GetGroup(c.Request.Context(), c.Param("groupID"))
	if err != nil {
		writeLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToGroupResponse(group, h.store.FormatCurrency(group.Balance)))
}

// updateGroup godoc
// @Summary Edit a group
// @Description Replaces the group's name and membership; the balance is untouched
// @Tags groups
// @Accept  json
// @Produce  json
// @Param   groupID path string true "Group ID"
// @Param   group body dto.UpdateGroupRequest true "Replacement details"
// @Success 200 {object} dto.GroupResponse
// @Failure 404 {object} map[string]string "Group not found"
// @Security BearerAuth
// @Router /groups/{groupID} [put]
func (h *groupHandler) updateGroup(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.UpdateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for UpdateGroup", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	group, err := h.store.EditGroup(c.Request.Context(), c.Param("groupID"), req)
	if err != nil {
		writeLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToGroupResponse(group, h.store.FormatCurrency(group.Balance)))
}

// deleteGroup godoc
// @Summary Delete a group
// @Tags groups
// @Produce  json
// @Param   groupID path string true "Group ID"
// @Success 204 "Deleted"
// @Failure 404 {object} map[string]string "Group not found"
// @Security BearerAuth
// @Router /groups/{groupID} [delete]
func (h *groupHandler) deleteGroup(c *gin.Context) {
	if err := h.store.DeleteGroup(c.Request.Context(), c.Param("groupID")); err != nil {
		writeLedgerError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
