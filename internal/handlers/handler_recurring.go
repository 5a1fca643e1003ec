package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/splittyhq/splitty_backend/internal/core/ports/services"
	"github.com/splittyhq/splitty_backend/internal/dto"
	"github.com/splittyhq/splitty_backend/internal/middleware"
)

// recurringHandler handles HTTP requests related to recurring expense templates.
type recurringHandler struct {
	store portssvc.StoreSvcFacade
}

func newRecurringHandler(store portssvc.StoreSvcFacade) *recurringHandler {
	return &recurringHandler{store: store}
}

// registerRecurringRoutes registers routes related to recurring expenses.
func registerRecurringRoutes(rg *gin.RouterGroup, store portssvc.StoreSvcFacade) {
	h := newRecurringHandler(store)

	recurring := rg.Group("/recurring")
	{
		recurring.POST("", h.createRecurring)
		recurring.GET("", h.listRecurring)
		recurring.DELETE("/:recurringID", h.deleteRecurring)
		recurring.POST("/check", h.checkRecurring)
	}
}

// createRecurring godoc
// @Summary Add a recurring expense template
// @Tags recurring
// @Accept  json
// @Produce  json
// @Param   template body dto.CreateRecurringRequest true "Template details"
// @Success 201 {object} dto.RecurringResponse
// @Failure 400 {object} map[string]string "Invalid amount or split"
// @Security BearerAuth
// @Router /recurring [post]
func (h *recurringHandler) createRecurring(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateRecurringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateRecurring", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	template, err := h.store.AddRecurringExpense(c.Request.Context(), req)
	if err != nil {
		writeLedgerError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToRecurringResponse(template))
}

// listRecurring godoc
// @Summary List recurring expense templates
// @Tags recurring
// @Produce  json
// @Success 200 {array} dto.RecurringResponse
// @Security BearerAuth
// @Router /recurring [get]
func (h *recurringHandler) listRecurring(c *gin.Context) {
	templates := h.store.ListRecurringExpenses(c.Request.Context())
	responses := make([]dto.RecurringResponse, len(templates))
	for i := range templates {
		responses[i] = dto.ToRecurringResponse(&templates[i])
	}
	c.JSON(http.StatusOK, responses)
}

// deleteRecurring godoc
// @Summary Delete a recurring expense template
// @Description Removing the template is the only way it stops firing
// @Tags recurring
// @Produce  json
// @Param   recurringID path string true "Recurring expense ID"
// @Success 204 "Deleted"
// @Failure 404 {object} map[string]string "Template not found"
// @Security BearerAuth
// @Router /recurring/{recurringID} [delete]
func (h *recurringHandler) deleteRecurring(c *gin.Context) {
	if err := h.store.DeleteRecurringExpense(c.Request.Context(), c.Param("recurringID")); err != nil {
		writeLedgerError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// checkRecurring godoc
// @Summary Run a recurring catch-up pass
// @Description Materializes one occurrence per due template and advances its next due date
// @Tags recurring
// @Produce  json
// @Success 200 {object} dto.CheckRecurringResponse
// @Security BearerAuth
// @Router /recurring/check [post]
func (h *recurringHandler) checkRecurring(c *gin.Context) {
	materialized, err := h.store.CheckRecurringExpenses(c.Request.Context())
	if err != nil {
		writeLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.CheckRecurringResponse{Materialized: materialized})
}
