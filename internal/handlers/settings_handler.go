package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kakeibo/internal/services"
)

// SettingsHandler handles per-user preferences.
type SettingsHandler struct {
	settingsService services.SettingsServicer
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(settingsService services.SettingsServicer) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService}
}

// GetPreferences returns the user's preferences.
// @Summary     Get preferences
// @Description Current period, saved transaction filter and display settings. Defaults are returned until the user saves any.
// @Tags        settings
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.Preferences "Preferences"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /settings/preferences [get]
func (h *SettingsHandler) GetPreferences(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	prefs, err := h.settingsService.GetPreferences(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"preferences": prefs})
}

// UpdatePreferences saves the user's preferences. Fields missing from the
// body keep their current values.
// @Summary     Update preferences
// @Tags        settings
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body services.Preferences true "Preferences"
// @Success     200 {object} services.Preferences "Saved preferences"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /settings/preferences [put]
func (h *SettingsHandler) UpdatePreferences(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	prefs, err := h.settingsService.GetPreferences(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if err := c.ShouldBindJSON(prefs); err != nil {
		respondWithError(c, bindInvalid(err))
		return
	}

	saved, err := h.settingsService.UpdatePreferences(userID, *prefs)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"preferences": saved})
}
