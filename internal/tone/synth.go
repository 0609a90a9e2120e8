package tone

import (
	"context"
	"encoding/binary"
	"log"
	"time"

	"bedclock/internal/alarm"
)

// amplitude is a quarter of full scale, well below clipping.
const amplitude = 8191

// Render synthesizes one note as mono signed 16-bit little-endian PCM.
func Render(note Note, sampleRate int) []byte {
	samples := int(note.Dur.Seconds() * float64(sampleRate))
	buf := make([]byte, samples*2)
	if note.Freq <= 0 {
		return buf
	}
	period := float64(sampleRate) / note.Freq
	whole := int(period + 0.5)
	if whole < 2 {
		whole = 2
	}
	for i := 0; i < samples; i++ {
		v := int16(amplitude)
		// Second half of each period is the low phase.
		if float64(i%whole) >= period/2 {
			v = -v
		}
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(v))
	}
	return buf
}

// TimedPlayer plays songs silently, holding each note for its duration. It
// stands in for a speaker on headless hosts and in tests.
type TimedPlayer struct {
	// Speed scales note durations; 1 is real time, 0 means real time too.
	Speed float64
}

// Play walks the song note by note and returns ctx.Err() as soon as ctx is
// cancelled.
func (p *TimedPlayer) Play(ctx context.Context, track alarm.Track) error {
	song, err := Lookup(track)
	if err != nil {
		return err
	}
	log.Printf("Playing %q silently", song.Name)

	speed := p.Speed
	if speed <= 0 {
		speed = 1
	}
	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	for _, note := range song.Notes {
		timer.Reset(time.Duration(float64(note.Dur) / speed))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return nil
}
