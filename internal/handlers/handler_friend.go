package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/splittyhq/splitty_backend/internal/core/ports/services"
	"github.com/splittyhq/splitty_backend/internal/dto"
	"github.com/splittyhq/splitty_backend/internal/middleware"
)

// friendHandler handles HTTP requests related to friends.
type friendHandler struct {
	store portssvc.StoreSvcFacade
}

func newFriendHandler(store portssvc.StoreSvcFacade) *friendHandler {
	return &friendHandler{store: store}
}

// registerFriendRoutes registers routes related to friends.
func registerFriendRoutes(rg *gin.RouterGroup, store portssvc.StoreSvcFacade) {
	h := newFriendHandler(store)

	friends := rg.Group("/friends")
	{
		friends.POST("", h.createFriend)
		friends.GET("", h.listFriends)
		friends.GET("/:friendID", h.getFriend)
		friends.PUT("/:friendID", h.updateFriend)
		friends.DELETE("/:friendID", h.deleteFriend)
		friends.GET("/:friendID/expenses", h.listFriendExpenses)
	}
}

// createFriend godoc
// @Summary Add a friend
// @Description Adds a friend with a zero balance, linking a registered account when the email or phone matches one
// @Tags friends
// @Accept  json
// @Produce  json
// @Param   friend body dto.CreateFriendRequest true "Friend details"
// @Success 201 {object} dto.FriendResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Security BearerAuth
// @Router /friends [post]
func (h *friendHandler) createFriend(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateFriendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateFriend", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	friend, err := h.store.AddFriend(c.Request.Context(), req)
	if err != nil {
		writeLedgerError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToFriendResponse(friend, h.store.FormatCurrency(friend.Balance)))
}

// listFriends godoc
// @Summary List friends
// @Produce  json
// @Tags friends
// @Success 200 {array} dto.FriendResponse
// @Security BearerAuth
// @Router /friends [get]
func (h *friendHandler) listFriends(c *gin.Context) {
	friends := h.store.ListFriends(c.Request.Context())
	responses := make([]dto.FriendResponse, len(friends))
	for i := range friends {
		responses[i] = dto.ToFriendResponse(&friends[i], h.store.FormatCurrency(friends[i].Balance))
	}
	c.JSON(http.StatusOK, responses)
}

// getFriend godoc
// @Summary Get a friend
// @Tags friends
// @Produce  json
// @Param   friendID path string true "Friend ID"
// @Success 200 {object} dto.FriendResponse
// @Failure 404 {object} map[string]string "Friend not found"
// @Security BearerAuth
// @Router /friends/{friendID} [get]
func (h *friendHandler) getFriend(c *gin.Context) {
	friend, err := h.store.GetFriend(c.Request.Context(), c.Param("friendID"))
	if err != nil {
		writeLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToFriendResponse(friend, h.store.FormatCurrency(friend.Balance)))
}

// updateFriend godoc
// @Summary Edit a friend's display fields
// @Tags friends
// @Accept  json
// @Produce  json
// @Param   friendID path string true "Friend ID"
// @Param   friend body dto.UpdateFriendRequest true "Fields to update"
// @Success 200 {object} dto.FriendResponse
// @Failure 404 {object} map[string]string "Friend not found"
// @Security BearerAuth
// @Router /friends/{friendID} [put]
func (h *friendHandler) updateFriend(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.UpdateFriendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for UpdateFriend", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	friend, err := h.store.EditFriend(c.Request.Context(), c.Param("friendID"), req)
	if err != nil {
		writeLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToFriendResponse(friend, h.store.FormatCurrency(friend.Balance)))
}

// listFriendExpenses godoc
// @Summary List expenses shared with a friend
// @Description Returns the expenses the friend paid for or participated in, newest first
// @Tags friends
// @Produce  json
// @Param   friendID path string true "Friend ID"
// @Success 200 {array} dto.ExpenseResponse
// @Failure 404 {object} map[string]string "Friend not found"
// @Security BearerAuth
// @Router /friends/{friendID}/expenses [get]
func (h *friendHandler) listFriendExpenses(c *gin.Context) {
	expenses, err := h.store.ListExpensesForFriend(c.Request.Context(), c.Param("friendID"))
	if err != nil {
		writeLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToExpenseResponses(expenses))
}

// deleteFriend godoc
// @Summary Remove a friend
// @Description Removes the friend row; expenses referencing them remain
// @Tags friends
// @Produce  json
// @Param   friendID path string true "Friend ID"
// @Success 204 "Deleted"
// @Failure 404 {object} map[string]string "Friend not found"
// @Security BearerAuth
// @Router /friends/{friendID} [delete]
func (h *friendHandler) deleteFriend(c *gin.Context) {
	if err := h.store.DeleteFriend(c.Request.Context(), c.Param("friendID")); err != nil {
		writeLedgerError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
