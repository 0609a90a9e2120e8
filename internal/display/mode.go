// Package display decides which view the clock face shows.
package display

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"bedclock/internal/alarm"
)

// Mode is a foreground view.
type Mode int32

const (
	// Alert is shown while an alarm rings. It is not part of the cycle.
	Alert   Mode = -1
	Weather Mode = 0
	Sensors Mode = 1
	Face    Mode = 2
)

// cycle is the order informational views are shown in.
var cycle = []Mode{Weather, Sensors, Face}

func (m Mode) String() string {
	switch m {
	case Alert:
		return "alert"
	case Weather:
		return "weather"
	case Sensors:
		return "sensors"
	case Face:
		return "face"
	default:
		return fmt.Sprintf("mode(%d)", int32(m))
	}
}

func (m Mode) next() Mode {
	for i, v := range cycle {
		if v == m {
			return cycle[(i+1)%len(cycle)]
		}
	}
	return cycle[0]
}

// MaxBrightness is the brightest panel level; 0 is the dimmest.
const MaxBrightness = 7

// Frame is what a Renderer draws.
type Frame struct {
	Mode       Mode
	Track      alarm.Track
	Brightness int
}

// Renderer draws a frame on the physical display.
type Renderer interface {
	Render(f Frame) error
}

// Playback is the view of the playback controller the machine needs.
type Playback interface {
	Active() alarm.Track
	Stop() bool
}

// Machine is the view state machine. Its transitions are driven from the
// polling loop; Mode and SetBrightness may be used from any goroutine.
type Machine struct {
	playback   Playback
	renderer   Renderer
	mode       atomic.Int32
	brightness atomic.Int32

	renderMu sync.Mutex
}

// NewMachine returns a Machine showing the first informational view at full
// brightness.
func NewMachine(playback Playback, renderer Renderer) *Machine {
	m := &Machine{playback: playback, renderer: renderer}
	m.mode.Store(int32(cycle[0]))
	m.brightness.Store(MaxBrightness)
	return m
}

// Brightness returns the panel level frames are drawn at.
func (m *Machine) Brightness() int {
	return int(m.brightness.Load())
}

// SetBrightness changes the panel level, clamped to 0..MaxBrightness, and
// redraws the current view with it.
func (m *Machine) SetBrightness(level int) {
	level = min(max(level, 0), MaxBrightness)
	if m.brightness.Swap(int32(level)) == int32(level) {
		return
	}
	m.show(m.Mode())
}

// Mode returns the view currently shown.
func (m *Machine) Mode() Mode {
	return Mode(m.mode.Load())
}

// Redraw is the periodic cycle tick. While idle it advances to the next
// view; while ringing it keeps the alert view up.
func (m *Machine) Redraw() {
	if m.playback.Active() != alarm.TrackNone {
		m.Sync()
		return
	}
	m.show(m.Mode().next())
}

// Sync reconciles the view with playback state. It switches to the alert
// view as soon as playback starts and leaves it once playback has ended on
// its own.
func (m *Machine) Sync() {
	ringing := m.playback.Active() != alarm.TrackNone
	switch cur := m.Mode(); {
	case ringing && cur != Alert:
		m.show(Alert)
	case !ringing && cur == Alert:
		m.show(cycle[0])
	}
}

// Acknowledge handles a debounced button press. It silences a ringing alarm
// and returns to the first view, or otherwise advances the view manually.
func (m *Machine) Acknowledge() {
	if m.playback.Active() != alarm.TrackNone {
		m.playback.Stop()
		log.Println("Alarm acknowledged")
		m.show(cycle[0])
		return
	}
	m.show(m.Mode().next())
}

func (m *Machine) show(mode Mode) {
	m.renderMu.Lock()
	defer m.renderMu.Unlock()
	m.mode.Store(int32(mode))
	f := Frame{Mode: mode, Track: m.playback.Active(), Brightness: m.Brightness()}
	if err := m.renderer.Render(f); err != nil {
		log.Printf("Error rendering %s view: %v", mode, err)
	}
}

// Summarizer provides a one-line text for a view.
type Summarizer interface {
	Summary() string
}

// LogRenderer writes each frame to the log. It is used on hosts without a
// panel attached.
type LogRenderer struct {
	Weather Summarizer
}

func (r LogRenderer) Render(f Frame) error {
	switch {
	case f.Mode == Alert:
		log.Printf("Display: %s (track %s, brightness %d)", f.Mode, f.Track, f.Brightness)
	case f.Mode == Weather && r.Weather != nil:
		log.Printf("Display: %s, %s (brightness %d)", f.Mode, r.Weather.Summary(), f.Brightness)
	default:
		log.Printf("Display: %s (brightness %d)", f.Mode, f.Brightness)
	}
	return nil
}
