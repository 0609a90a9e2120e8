package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"bedclock/internal/alarm"
	"bedclock/internal/parse"
)

type alarmResponse struct {
	Index       int    `json:"index"`
	Repeats     int    `json:"repeats"`
	Time        string `json:"time"`
	Song        int    `json:"song"`
	SongName    string `json:"song_name"`
	Fired       bool   `json:"fired"`
	Description string `json:"description"`
}

// GetAlarms lists the occupied alarm slots in index order.
func (h *Handler) GetAlarms(c *gin.Context) {
	recs := h.alarms.List()
	resp := make([]alarmResponse, len(recs))
	for i, rec := range recs {
		resp[i] = alarmResponse{
			Index:       i,
			Repeats:     int(rec.Recurrence),
			Time:        parse.AlarmTime(rec),
			Song:        int(rec.Track),
			SongName:    rec.Track.String(),
			Fired:       rec.Fired,
			Description: rec.Describe(),
		}
	}
	c.JSON(http.StatusOK, gin.H{"alarms": resp, "capacity": alarm.Capacity})
}

type postAlarmRequest struct {
	Repeats   *int   `json:"repeats" form:"repeats" binding:"required"`
	AlarmTime string `json:"alarmtime" form:"alarmtime" binding:"required"`
	Song      *int   `json:"song" form:"song" binding:"required"`
}

// PostAlarm validates the form and appends a new alarm.
func (h *Handler) PostAlarm(c *gin.Context) {
	var req postAlarmRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := parse.Alarm(*req.Repeats, req.AlarmTime, *req.Song)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	index, err := h.alarms.Append(c.Request.Context(), rec)
	if err != nil {
		if errors.Is(err, alarm.ErrFull) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	log.Printf("Added alarm %d: %s (song %s)", index, rec.Describe(), rec.Track)
	c.JSON(http.StatusCreated, gin.H{"index": index, "description": rec.Describe()})
}

// DeleteAlarm removes one slot; later alarms shift down.
func (h *Handler) DeleteAlarm(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid alarm index"})
		return
	}

	if err := h.alarms.Delete(c.Request.Context(), index); err != nil {
		if errors.Is(err, alarm.ErrOutOfRange) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	log.Printf("Deleted alarm %d, %d remaining", index, h.alarms.Count())
	c.Status(http.StatusNoContent)
}
