package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"bedclock/internal/alarm"
	"bedclock/internal/display"
	"bedclock/internal/store"
)

// Playback is the part of the playback controller exposed over HTTP.
type Playback interface {
	Active() alarm.Track
	StartOnce(track alarm.Track) error
	Stop() bool
}

// Clock is the settable device clock.
type Clock interface {
	Now() (time.Time, error)
	Set(t time.Time)
	Synced() bool
	Location() *time.Location
}

// Display reports the view on screen and takes the panel brightness.
type Display interface {
	Mode() display.Mode
	SetBrightness(level int)
}

// Button accepts raw edges from a remote button.
type Button interface {
	Edge(at time.Time) bool
	Stats() (accepted, dropped uint64)
}

// Deps are the collaborators the handlers need.
type Deps struct {
	Store    store.Store
	Alarms   *alarm.Store
	Playback Playback
	Clock    Clock
	Display  Display
	Button   Button
	Webpush  *webpush.Options
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store    store.Store
	alarms   *alarm.Store
	playback Playback
	clock    Clock
	display  Display
	button   Button
	webpush  *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(d Deps) *Handler {
	return &Handler{
		store:    d.Store,
		alarms:   d.Alarms,
		playback: d.Playback,
		clock:    d.Clock,
		display:  d.Display,
		button:   d.Button,
		webpush:  d.Webpush,
	}
}
