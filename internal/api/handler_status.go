package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"bedclock/internal/alarm"
	"bedclock/internal/parse"
)

type statusResponse struct {
	Ringing     bool       `json:"ringing"`
	Track       int        `json:"track"`
	DisplayMode string     `json:"display_mode"`
	Alarms      int        `json:"alarms"`
	Capacity    int        `json:"capacity"`
	ClockSynced bool       `json:"clock_synced"`
	Timezone    string     `json:"timezone"`
	Time        *time.Time `json:"time"`
	Button      buttonInfo `json:"button"`
}

type buttonInfo struct {
	Accepted uint64 `json:"accepted"`
	Dropped  uint64 `json:"dropped"`
}

// GetStatus reports what the clock is doing right now.
func (h *Handler) GetStatus(c *gin.Context) {
	track := h.playback.Active()
	resp := statusResponse{
		Ringing:     track != alarm.TrackNone,
		Track:       int(track),
		DisplayMode: h.display.Mode().String(),
		Alarms:      h.alarms.Count(),
		Capacity:    alarm.Capacity,
		ClockSynced: h.clock.Synced(),
		Timezone:    h.clock.Location().String(),
	}
	resp.Button.Accepted, resp.Button.Dropped = h.button.Stats()
	if now, err := h.clock.Now(); err == nil {
		resp.Time = &now
	}
	c.JSON(http.StatusOK, resp)
}

// PostButton feeds a raw edge into the debouncer, as if the physical button
// had been pressed.
func (h *Handler) PostButton(c *gin.Context) {
	accepted := h.button.Edge(time.Now())
	c.JSON(http.StatusOK, gin.H{"accepted": accepted})
}

type putTimeRequest struct {
	Epoch string `json:"epoch" form:"epoch" binding:"required"`
}

// PutTime sets the device clock from a unix timestamp in seconds.
func (h *Handler) PutTime(c *gin.Context) {
	var req putTimeRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	t, err := parse.Epoch(req.Epoch)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.clock.Set(t)
	now, err := h.clock.Now()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"time": now})
}
