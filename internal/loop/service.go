// Package loop runs the clock's cooperative polling loop.
package loop

import (
	"context"
	"log"
	"time"

	"bedclock/config"
	"bedclock/internal/button"
	"bedclock/internal/display"
	"bedclock/internal/scheduler"
)

// Service drives the scheduler, the display and the button from a single
// goroutine.
type Service struct {
	tickInterval  time.Duration
	cycleInterval time.Duration
	scheduler     *scheduler.Scheduler
	display       *display.Machine
	button        *button.Debouncer
}

// NewService creates the polling loop.
func NewService(cfg *config.Config, sched *scheduler.Scheduler, disp *display.Machine, btn *button.Debouncer) *Service {
	return &Service{
		tickInterval:  cfg.Clock.TickInterval,
		cycleInterval: cfg.Display.CycleInterval,
		scheduler:     sched,
		display:       disp,
		button:        btn,
	}
}

// Run starts the polling loop and blocks until ctx is done.
func (s *Service) Run(ctx context.Context) {
	log.Printf("Starting polling loop (tick %s, display cycle %s)...", s.tickInterval, s.cycleInterval)

	s.TickOnce(ctx)

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()
	cycle := time.NewTimer(s.cycleInterval)
	defer cycle.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Polling loop shutting down.")
			return
		case <-ticker.C:
			s.TickOnce(ctx)
		case <-cycle.C:
			s.display.Redraw()
			cycle.Reset(s.cycleInterval)
		case <-s.button.C():
			if s.HandleButton() {
				// A view picked by hand stays up for a full cycle.
				cycle.Reset(s.cycleInterval)
			}
		}
	}
}

// TickOnce evaluates the alarms and brings the display in line with the
// playback state.
func (s *Service) TickOnce(ctx context.Context) {
	s.scheduler.Tick(ctx)
	s.display.Sync()
}

// HandleButton consumes a pending press, if any, and reports whether there
// was one.
func (s *Service) HandleButton() bool {
	if !s.button.Pressed() {
		return false
	}
	s.display.Acknowledge()
	return true
}
