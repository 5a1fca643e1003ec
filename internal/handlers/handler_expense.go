package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/splittyhq/splitty_backend/internal/apperrors"
	"github.com/splittyhq/splitty_backend/internal/core/ledger"
	portssvc "github.com/splittyhq/splitty_backend/internal/core/ports/services"
	"github.com/splittyhq/splitty_backend/internal/dto"
	"github.com/splittyhq/splitty_backend/internal/middleware"
)

// expenseHandler handles HTTP requests related to expenses and settlements.
type expenseHandler struct {
	store portssvc.StoreSvcFacade
}

func newExpenseHandler(store portssvc.StoreSvcFacade) *expenseHandler {
	return &expenseHandler{store: store}
}

// registerExpenseRoutes registers routes related to expenses.
func registerExpenseRoutes(rg *gin.RouterGroup, store portssvc.StoreSvcFacade) {
	h := newExpenseHandler(store)

	expenses := rg.Group("/expenses")
	{
		expenses.POST("", h.createExpense)
		expenses.GET("", h.listExpenses)
		expenses.GET("/:expenseID", h.getExpense)
		expenses.PUT("/:expenseID", h.updateExpense)
		expenses.DELETE("/:expenseID", h.deleteExpense)
	}

	settlements := rg.Group("/settlements")
	{
		settlements.POST("", h.createSettlement)
	}
}

// writeLedgerError maps the ledger and store error taxonomy to HTTP
// status codes.
func writeLedgerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrSplitMismatch),
		errors.Is(err, ledger.ErrMissingShares),
		errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("Request failed in service", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// createExpense godoc
// @Summary Add an expense
// @Description Validates the expense, applies its balance effect and commits it locally; the remote mirror happens asynchronously
// @Tags expenses
// @Accept  json
// @Produce  json
// @Param   expense body dto.CreateExpenseRequest true "Expense details"
// @Success 201 {object} dto.ExpenseResponse
// @Failure 400 {object} map[string]string "Invalid amount or split"
// @Failure 404 {object} map[string]string "Unknown payer or group"
// @Security BearerAuth
// @Router /expenses [post]
func (h *expenseHandler) createExpense(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateExpense", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	expense, err := h.store.AddExpense(c.Request.Context(), req)
	if err != nil {
		writeLedgerError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToExpenseResponse(expense))
}

// listExpenses godoc
// @Summary List expenses
// @Description Returns all expenses, newest first
// @Tags expenses
// @Produce  json
// @Success 200 {array} dto.ExpenseResponse
// @Security BearerAuth
// @Router /expenses [get]
func (h *expenseHandler) listExpenses(c *gin.Context) {
	expenses := h.store.ListExpenses(c.Request.Context())
	responses := make([]dto.ExpenseResponse, len(expenses))
	for i := range expenses {
		responses[i] = dto.ToExpenseResponse(&expenses[i])
	}
	c.JSON(http.StatusOK, responses)
}

// getExpense godoc
// @Summary Get an expense
// @Tags expenses
// @Produce  json
// @Param   expenseID path string true "Expense ID"
// @Success 200 {object} dto.ExpenseResponse
// @Failure 404 {object} map[string]string "Expense not found"
// @Security BearerAuth
// @Router /expenses/{expenseID} [get]
func (h *expenseHandler) getExpense(c *gin.Context) {
	expense, err := h.store.GetExpense(c.Request.Context(), c.Param("expenseID"))
	if err != nil {
		writeLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToExpenseResponse(expense))
}

// updateExpense godoc
// @Summary Edit an expense
// @Description Replaces the expense: the old balance effect is reversed and the new one applied
// @Tags expenses
// @Accept  json
// @Produce  json
// @Param   expenseID path string true "Expense ID"
// @Param   expense body dto.CreateExpenseRequest true "Replacement expense details"
// @Success 200 {object} dto.ExpenseResponse
// @Failure 400 {object} map[string]string "Invalid amount or split"
// @Failure 404 {object} map[string]string "Expense not found"
// @Security BearerAuth
// @Router /expenses/{expenseID} [put]
func (h *expenseHandler) updateExpense(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for UpdateExpense", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	expense, err := h.store.EditExpense(c.Request.Context(), c.Param("expenseID"), req)
	if err != nil {
		writeLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToExpenseResponse(expense))
}

// deleteExpense godoc
// @Summary Delete an expense
// @Description Reverses the expense's balance effect and removes it; deleting an unknown ID is a no-op
// @Tags expenses
// @Produce  json
// @Param   expenseID path string true "Expense ID"
// @Success 204 "Deleted"
// @Security BearerAuth
// @Router /expenses/{expenseID} [delete]
func (h *expenseHandler) deleteExpense(c *gin.Context) {
	if err := h.store.DeleteExpense(c.Request.Context(), c.Param("expenseID")); err != nil {
		writeLedgerError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// createSettlement godoc
// @Summary Record a settlement
// @Description Records a payment between the owner and a friend as a settlement expense
// @Tags settlements
// @Accept  json
// @Produce  json
// @Param   settlement body dto.CreateSettlementRequest true "Settlement details"
// @Success 201 {object} dto.ExpenseResponse
// @Failure 400 {object} map[string]string "Invalid settlement"
// @Failure 404 {object} map[string]string "Friend not found"
// @Security BearerAuth
// @Router /settlements [post]
func (h *expenseHandler) createSettlement(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateSettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateSettlement", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	settlement, err := h.store.SettleUp(c.Request.Context(), req)
	if err != nil {
		writeLedgerError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToExpenseResponse(settlement))
}
