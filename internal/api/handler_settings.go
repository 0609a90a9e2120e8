package api

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"bedclock/internal/model"
	"bedclock/internal/store"
)

type putSettingsRequest struct {
	Brightness  *int   `json:"brightness" binding:"required,min=0,max=7"`
	City        string `json:"city" binding:"max=64"`
	CountryCode string `json:"country_code" binding:"omitempty,len=2,alpha"`
}

// GetSettings returns the stored settings, or the defaults when none were saved.
func (h *Handler) GetSettings(c *gin.Context) {
	s, err := store.LoadSettings(c.Request.Context(), h.store)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s)
}

// PutSettings replaces the stored settings.
func (h *Handler) PutSettings(c *gin.Context) {
	var req putSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s := model.Settings{
		Brightness:  *req.Brightness,
		City:        req.City,
		CountryCode: req.CountryCode,
	}
	blob, err := json.Marshal(s)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := h.store.Write(c.Request.Context(), model.SettingsKey, blob); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.display.SetBrightness(s.Brightness)
	c.JSON(http.StatusOK, s)
}
