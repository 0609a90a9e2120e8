package loop

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bedclock/config"
	"bedclock/internal/alarm"
	"bedclock/internal/button"
	"bedclock/internal/clock"
	"bedclock/internal/display"
	"bedclock/internal/playback"
	"bedclock/internal/scheduler"
	"bedclock/internal/tone"
)

type rig struct {
	svc      *Service
	clock    *clock.Fixed
	store    *alarm.Store
	playback *playback.Controller
	display  *display.Machine
	button   *button.Debouncer
}

func newRig(t *testing.T, now time.Time) *rig {
	t.Helper()
	cfg := &config.Config{}
	cfg.Clock.TickInterval = 5 * time.Millisecond
	cfg.Display.CycleInterval = time.Hour

	// Real-time melodies keep the alarm ringing for the whole test.
	pb := playback.New(&tone.TimedPlayer{}, time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		pb.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	require.Eventually(t, pb.Running, time.Second, time.Millisecond)

	src := clock.NewFixed(now)
	store := alarm.NewStore(nil)
	sched := scheduler.New(src, store, pb)
	disp := display.NewMachine(pb, display.LogRenderer{})
	btn := button.NewDebouncer(333 * time.Millisecond)

	return &rig{
		svc:      NewService(cfg, sched, disp, btn),
		clock:    src,
		store:    store,
		playback: pb,
		display:  disp,
		button:   btn,
	}
}

func TestService_TickRingsAndAlerts(t *testing.T) {
	now := time.Date(2024, time.June, 3, 8, 0, 0, 0, time.UTC)
	r := newRig(t, now)
	_, err := r.store.Append(context.Background(), alarm.Record{Recurrence: alarm.Daily, Hour: 8, Track: 2})
	require.NoError(t, err)

	r.svc.TickOnce(context.Background())
	assert.Equal(t, alarm.Track(2), r.playback.Active())
	assert.Equal(t, display.Alert, r.display.Mode())

	r.clock.Set(now.Add(30 * time.Second))
	r.svc.TickOnce(context.Background())
	assert.Equal(t, alarm.Track(2), r.playback.Active())
}

func TestService_AcknowledgeStopsRinging(t *testing.T) {
	r := newRig(t, time.Date(2024, time.June, 3, 8, 0, 0, 0, time.UTC))
	require.NoError(t, r.playback.Start(1))
	r.svc.TickOnce(context.Background())
	require.Equal(t, display.Alert, r.display.Mode())

	require.True(t, r.button.Edge(time.Now()))
	assert.True(t, r.svc.HandleButton())

	assert.False(t, r.playback.Ringing())
	assert.Equal(t, display.Weather, r.display.Mode())

	// The press was consumed.
	assert.False(t, r.svc.HandleButton())
	assert.Equal(t, display.Weather, r.display.Mode())
}

func TestService_Run(t *testing.T) {
	now := time.Date(2024, time.June, 3, 6, 30, 0, 0, time.UTC)
	r := newRig(t, now)
	_, err := r.store.Append(context.Background(), alarm.Record{Recurrence: alarm.Weekly, Hour: 6, Minute: 30, Weekday: time.Monday, Track: 3})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.svc.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return r.display.Mode() == display.Alert }, time.Second, time.Millisecond)
	assert.Equal(t, alarm.Track(3), r.playback.Active())

	r.button.Edge(time.Now())
	require.Eventually(t, func() bool { return !r.playback.Ringing() }, time.Second, time.Millisecond)
	require.Eventually(t, func() bool { return r.display.Mode() == display.Weather }, time.Second, time.Millisecond)

	// Still inside the alarm minute: it does not ring again.
	time.Sleep(30 * time.Millisecond)
	assert.False(t, r.playback.Ringing())

	cancel()
	<-done
}

func TestService_PressRestartsDisplayCycle(t *testing.T) {
	r := newRig(t, time.Date(2024, time.June, 3, 6, 0, 0, 0, time.UTC))
	r.svc.tickInterval = time.Hour
	r.svc.cycleInterval = 400 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.svc.Run(ctx)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	time.Sleep(200 * time.Millisecond)
	require.True(t, r.button.Edge(time.Now()))
	require.Eventually(t, func() bool { return r.display.Mode() == display.Sensors }, time.Second, time.Millisecond)

	// The cycle that was due 200ms after the press is pushed back.
	assert.Never(t, func() bool { return r.display.Mode() != display.Sensors }, 300*time.Millisecond, 5*time.Millisecond)
	require.Eventually(t, func() bool { return r.display.Mode() == display.Face }, time.Second, 5*time.Millisecond)
}
