package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/splittyhq/splitty_backend/internal/core/ports/services"
	"github.com/splittyhq/splitty_backend/internal/dto"
	"github.com/splittyhq/splitty_backend/internal/middleware"
)

// profileHandler handles the owner's profile.
type profileHandler struct {
	store portssvc.StoreSvcFacade
}

func newProfileHandler(store portssvc.StoreSvcFacade) *profileHandler {
	return &profileHandler{store: store}
}

// registerProfileRoutes registers routes related to the owner's profile.
func registerProfileRoutes(rg *gin.RouterGroup, store portssvc.StoreSvcFacade) {
	h := newProfileHandler(store)

	profile := rg.Group("/profile")
	{
		profile.GET("", h.getProfile)
		profile.PUT("", h.updateProfile)
	}
}

// getProfile godoc
// @Summary Get the owner's profile
// @Tags profile
// @Produce  json
// @Success 200 {object} dto.ProfileResponse
// @Security BearerAuth
// @Router /profile [get]
func (h *profileHandler) getProfile(c *gin.Context) {
	profile := h.store.GetProfile(c.Request.Context())
	c.JSON(http.StatusOK, dto.ToProfileResponse(&profile, h.store.CurrencySymbol()))
}

// updateProfile godoc
// @Summary Edit the owner's profile
// @Description Updates profile fields and the display currency; nil fields are untouched
// @Tags profile
// @Accept  json
// @Produce  json
// @Param   profile body dto.UpdateProfileRequest true "Fields to update"
// @Success 200 {object} dto.ProfileResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Security BearerAuth
// @Router /profile [put]
func (h *profileHandler) updateProfile(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for UpdateProfile", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	profile, err := h.store.UpdateProfile(c.Request.Context(), req)
	if err != nil {
		writeLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProfileResponse(profile, h.store.CurrencySymbol()))
}
