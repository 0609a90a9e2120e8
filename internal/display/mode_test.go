package display

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bedclock/internal/alarm"
)

type fakePlayback struct {
	track alarm.Track
	stops int
}

func (f *fakePlayback) Active() alarm.Track { return f.track }

func (f *fakePlayback) Stop() bool {
	f.stops++
	was := f.track != alarm.TrackNone
	f.track = alarm.TrackNone
	return was
}

type recorder struct {
	frames []Frame
	err    error
}

func (r *recorder) Render(f Frame) error {
	r.frames = append(r.frames, f)
	return r.err
}

func (r *recorder) modes() []Mode {
	out := make([]Mode, len(r.frames))
	for i, f := range r.frames {
		out[i] = f.Mode
	}
	return out
}

func TestMachine_CyclesWhileIdle(t *testing.T) {
	pb := &fakePlayback{}
	r := &recorder{}
	m := NewMachine(pb, r)
	assert.Equal(t, Weather, m.Mode())

	for i := 0; i < 4; i++ {
		m.Redraw()
	}
	assert.Equal(t, []Mode{Sensors, Face, Weather, Sensors}, r.modes())
}

func TestMachine_AlertSuspendsCycle(t *testing.T) {
	pb := &fakePlayback{}
	r := &recorder{}
	m := NewMachine(pb, r)

	pb.track = 2
	m.Sync()
	assert.Equal(t, Alert, m.Mode())
	assert.Equal(t, Frame{Mode: Alert, Track: 2, Brightness: MaxBrightness}, r.frames[0])

	m.Sync()
	m.Redraw()
	assert.Equal(t, Alert, m.Mode())
	assert.Len(t, r.frames, 1)
}

func TestMachine_AcknowledgeWhileRinging(t *testing.T) {
	pb := &fakePlayback{}
	r := &recorder{}
	m := NewMachine(pb, r)
	m.Redraw()
	m.Redraw()
	assert.Equal(t, Face, m.Mode())

	pb.track = 1
	m.Sync()
	m.Acknowledge()

	assert.Equal(t, 1, pb.stops)
	assert.Equal(t, alarm.TrackNone, pb.Active())
	assert.Equal(t, Weather, m.Mode())
	assert.Equal(t, []Mode{Sensors, Face, Alert, Weather}, r.modes())
}

func TestMachine_AcknowledgeWhileIdleAdvances(t *testing.T) {
	pb := &fakePlayback{}
	r := &recorder{}
	m := NewMachine(pb, r)

	m.Acknowledge()
	m.Acknowledge()
	assert.Equal(t, 0, pb.stops)
	assert.Equal(t, Face, m.Mode())
}

func TestMachine_LeavesAlertWhenPlaybackEnds(t *testing.T) {
	pb := &fakePlayback{track: 3}
	r := &recorder{}
	m := NewMachine(pb, r)
	m.Sync()

	pb.track = alarm.TrackNone
	m.Sync()
	assert.Equal(t, Weather, m.Mode())
	assert.Equal(t, []Mode{Alert, Weather}, r.modes())
}

func TestMachine_RenderErrorDoesNotBlockTransition(t *testing.T) {
	pb := &fakePlayback{}
	m := NewMachine(pb, &recorder{err: errors.New("panel unplugged")})
	m.Redraw()
	assert.Equal(t, Sensors, m.Mode())
}

func TestMode_String(t *testing.T) {
	assert.Equal(t, "alert", Alert.String())
	assert.Equal(t, "face", Face.String())
	assert.Equal(t, "mode(9)", Mode(9).String())
	assert.Equal(t, Weather, Alert.next())
}

type fixedSummary string

func (s fixedSummary) Summary() string { return string(s) }

func TestLogRenderer(t *testing.T) {
	r := LogRenderer{Weather: fixedSummary("Ipoh: clear sky, 31°C, 60%")}
	for _, f := range []Frame{{Mode: Weather}, {Mode: Sensors}, {Mode: Alert, Track: 2}} {
		assert.NoError(t, r.Render(f))
	}
	assert.NoError(t, LogRenderer{}.Render(Frame{Mode: Weather}))
}

func TestMachine_SetBrightness(t *testing.T) {
	testCases := []struct {
		name     string
		level    int
		expected int
	}{
		{name: "dim", level: 2, expected: 2},
		{name: "off scale low", level: -3, expected: 0},
		{name: "off scale high", level: 12, expected: MaxBrightness},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := &recorder{}
			m := NewMachine(&fakePlayback{}, r)
			m.Redraw()

			m.SetBrightness(tc.level)
			assert.Equal(t, tc.expected, m.Brightness())
			// The current view is redrawn right away at the new level.
			require.Len(t, r.frames, 2)
			assert.Equal(t, Frame{Mode: Sensors, Brightness: tc.expected}, r.frames[1])

			m.Redraw()
			assert.Equal(t, Frame{Mode: Face, Brightness: tc.expected}, r.frames[2])
		})
	}
}

func TestMachine_SetBrightnessUnchangedSkipsRedraw(t *testing.T) {
	r := &recorder{}
	m := NewMachine(&fakePlayback{}, r)
	m.SetBrightness(MaxBrightness)
	assert.Empty(t, r.frames)
}
