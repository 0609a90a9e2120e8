// Package playback owns the single long-lived task that plays alarm
// melodies. Other components ask it to start or stop; only one melody rings
// at a time.
package playback

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"bedclock/internal/alarm"
)

var (
	// ErrAlreadyRinging is returned by Start while another melody is active.
	ErrAlreadyRinging = errors.New("playback already active")
	// ErrInvalidTrack is returned for tracks outside alarm.Tracks.
	ErrInvalidTrack = errors.New("invalid track")
	// ErrNotRunning is returned when the playback task is not accepting work.
	ErrNotRunning = errors.New("playback task is not running")
)

// Player plays one pass of a melody. It must return promptly once ctx is
// done.
type Player interface {
	Play(ctx context.Context, track alarm.Track) error
}

type session struct {
	track  alarm.Track
	loop   bool
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// Controller serializes playback requests onto one task started by Run.
type Controller struct {
	player Player
	pause  time.Duration
	cmds   chan *session

	mu      sync.Mutex
	running bool
	current *session

	active atomic.Int32
}

// New returns a Controller that pauses for pause between loop iterations.
func New(player Player, pause time.Duration) *Controller {
	return &Controller{
		player: player,
		pause:  pause,
		cmds:   make(chan *session, 1),
	}
}

// Run is the playback task. It blocks until ctx is done and must be called
// once.
func (c *Controller) Run(ctx context.Context) {
	c.mu.Lock()
	c.running = true
	c.mu.Unlock()
	log.Println("Playback task started")

	defer c.shutdown()

	for {
		select {
		case <-ctx.Done():
			log.Println("Playback task shutting down.")
			return
		case s := <-c.cmds:
			c.play(ctx, s)
		}
	}
}

// Start rings track in a loop until Stop is called.
func (c *Controller) Start(track alarm.Track) error {
	return c.start(track, true)
}

// StartOnce plays a single pass of track, for previewing a sound.
func (c *Controller) StartOnce(track alarm.Track) error {
	return c.start(track, false)
}

func (c *Controller) start(track alarm.Track, loop bool) error {
	if !track.Valid() {
		return ErrInvalidTrack
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return ErrNotRunning
	}
	if c.current != nil {
		return ErrAlreadyRinging
	}

	sctx, cancel := context.WithCancel(context.Background())
	s := &session{
		track:  track,
		loop:   loop,
		ctx:    sctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	// At most one session exists, so the buffered send never blocks.
	c.cmds <- s
	c.current = s
	c.active.Store(int32(track))
	log.Printf("Playback of track %s requested (loop=%t)", track, loop)
	return nil
}

// Stop silences the current melody and returns once the task has let go of
// it. It reports whether anything was playing.
func (c *Controller) Stop() bool {
	c.mu.Lock()
	s := c.current
	c.mu.Unlock()
	if s == nil {
		return false
	}
	s.cancel()
	<-s.done
	return true
}

// Active returns the track being played, or alarm.TrackNone when idle.
func (c *Controller) Active() alarm.Track {
	return alarm.Track(c.active.Load())
}

// Ringing reports whether a melody is active.
func (c *Controller) Ringing() bool {
	return c.Active() != alarm.TrackNone
}

// Running reports whether Run is accepting work.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func (c *Controller) play(runCtx context.Context, s *session) {
	defer c.finish(s)
	stop := context.AfterFunc(runCtx, s.cancel)
	defer stop()

	ctx := s.ctx
	timer := time.NewTimer(c.pause)
	defer timer.Stop()
	for {
		err := c.player.Play(ctx, s.track)
		if ctx.Err() != nil {
			log.Printf("Playback of track %s stopped", s.track)
			return
		}
		if err != nil {
			log.Printf("Playback of track %s failed: %v", s.track, err)
			return
		}
		if !s.loop {
			return
		}
		timer.Reset(c.pause)
		select {
		case <-ctx.Done():
			log.Printf("Playback of track %s stopped", s.track)
			return
		case <-timer.C:
		}
	}
}

func (c *Controller) finish(s *session) {
	s.cancel()
	c.mu.Lock()
	if c.current == s {
		c.current = nil
		c.active.Store(int32(alarm.TrackNone))
	}
	c.mu.Unlock()
	close(s.done)
}

func (c *Controller) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
	// A session queued but never picked up still has waiters.
	select {
	case s := <-c.cmds:
		s.cancel()
		if c.current == s {
			c.current = nil
			c.active.Store(int32(alarm.TrackNone))
		}
		close(s.done)
	default:
	}
}
