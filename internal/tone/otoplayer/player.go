// Package otoplayer plays alarm melodies through the host sound card.
package otoplayer

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ebitengine/oto/v3"

	"bedclock/internal/alarm"
	"bedclock/internal/tone"
)

// pollInterval is how often a running player is checked for completion or
// cancellation.
const pollInterval = 10 * time.Millisecond

// Player renders songs to PCM and feeds them to an oto context.
type Player struct {
	ctx        *oto.Context
	sampleRate int
	rendered   map[alarm.Track][]byte
}

// New opens the audio device and pre-renders every song. It blocks until
// the device is ready.
func New(sampleRate int) (*Player, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
	}
	octx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("open audio device: %w", err)
	}
	<-ready
	log.Printf("Audio device ready at %d Hz", sampleRate)

	p := &Player{
		ctx:        octx,
		sampleRate: sampleRate,
		rendered:   make(map[alarm.Track][]byte, len(tone.Songs)),
	}
	for track, song := range tone.Songs {
		var buf bytes.Buffer
		for _, note := range song.Notes {
			buf.Write(tone.Render(note, sampleRate))
		}
		p.rendered[track] = buf.Bytes()
	}
	return p, nil
}

// Play plays one pass of track and returns when it finishes or ctx is done.
func (p *Player) Play(ctx context.Context, track alarm.Track) error {
	pcm, ok := p.rendered[track]
	if !ok {
		return fmt.Errorf("no song for track %s", track)
	}

	player := p.ctx.NewPlayer(bytes.NewReader(pcm))
	player.Play()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			player.Pause()
			if err := player.Close(); err != nil {
				log.Printf("Failed to close audio player: %v", err)
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
	if err := player.Close(); err != nil {
		return fmt.Errorf("close audio player: %w", err)
	}
	return nil
}
