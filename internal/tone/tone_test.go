package tone

import (
	"context"
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bedclock/internal/alarm"
)

func TestPitch(t *testing.T) {
	testCases := []struct {
		name     string
		note     string
		expected float64
	}{
		{name: "concert A", note: "A4", expected: 440},
		{name: "middle C", note: "C4", expected: 261.63},
		{name: "sharp", note: "FS4", expected: 369.99},
		{name: "high E", note: "E5", expected: 659.26},
		{name: "rest", note: "REST", expected: 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Pitch(tc.note)
			require.NoError(t, err)
			assert.InDelta(t, tc.expected, got, 0.01)
		})
	}

	for _, bad := range []string{"", "H4", "Cx", "X"} {
		_, err := Pitch(bad)
		assert.Error(t, err, bad)
	}
}

func TestSongsCoverEveryTrack(t *testing.T) {
	for _, track := range alarm.Tracks {
		song, err := Lookup(track)
		require.NoError(t, err)
		assert.NotEmpty(t, song.Notes)
		assert.Greater(t, song.Duration(), time.Second)
	}
	_, err := Lookup(alarm.TrackRandom)
	assert.Error(t, err)
}

func TestRender(t *testing.T) {
	buf := Render(Note{Freq: 1000, Dur: 10 * time.Millisecond}, 8000)
	require.Len(t, buf, 80*2)

	// 8 samples per period: 4 high, 4 low.
	first := int16(binary.LittleEndian.Uint16(buf[0:]))
	fifth := int16(binary.LittleEndian.Uint16(buf[8:]))
	assert.Equal(t, int16(amplitude), first)
	assert.Equal(t, -int16(amplitude), fifth)

	rest := Render(Note{Dur: 5 * time.Millisecond}, 8000)
	assert.Equal(t, make([]byte, 80), rest)
}

func TestTimedPlayer(t *testing.T) {
	p := &TimedPlayer{Speed: 1000}

	start := time.Now()
	require.NoError(t, p.Play(context.Background(), 1))
	assert.Less(t, time.Since(start), time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := (&TimedPlayer{}).Play(ctx, 3)
	assert.ErrorIs(t, err, context.Canceled)

	assert.Error(t, p.Play(context.Background(), 7))
}
