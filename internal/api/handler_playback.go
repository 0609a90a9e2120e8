package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"bedclock/internal/parse"
	"bedclock/internal/playback"
)

type postPlaybackRequest struct {
	Song *int `json:"song" form:"song" binding:"required"`
}

// PostPlayback plays a song once so it can be previewed.
func (h *Handler) PostPlayback(c *gin.Context) {
	var req postPlaybackRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	track, err := parse.Song(*req.Song)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	switch err := h.playback.StartOnce(track); {
	case err == nil:
		c.JSON(http.StatusAccepted, gin.H{"song": int(track)})
	case errors.Is(err, playback.ErrAlreadyRinging):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, playback.ErrInvalidTrack):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, playback.ErrNotRunning):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// DeletePlayback silences whatever is playing.
func (h *Handler) DeletePlayback(c *gin.Context) {
	h.playback.Stop()
	c.Status(http.StatusNoContent)
}
