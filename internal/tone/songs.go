// Package tone holds the alarm melodies and renders them as square-wave PCM.
package tone

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"bedclock/internal/alarm"
)

// Note is one pitch held for a duration. A zero Freq is a rest.
type Note struct {
	Freq float64
	Dur  time.Duration
}

// Song is a fixed note sequence.
type Song struct {
	Name  string
	Notes []Note
}

// Duration is the total length of one play-through.
func (s Song) Duration() time.Duration {
	var d time.Duration
	for _, n := range s.Notes {
		d += n.Dur
	}
	return d
}

var semitones = map[string]int{
	"C": 0, "CS": 1, "D": 2, "DS": 3, "E": 4, "F": 5,
	"FS": 6, "G": 7, "GS": 8, "A": 9, "AS": 10, "B": 11,
}

// Pitch returns the equal-tempered frequency of a note written the way the
// melodies below spell it ("A4", "FS4", "REST").
func Pitch(name string) (float64, error) {
	if name == "REST" {
		return 0, nil
	}
	if len(name) < 2 {
		return 0, fmt.Errorf("bad note %q", name)
	}
	octave, err := strconv.Atoi(name[len(name)-1:])
	if err != nil {
		return 0, fmt.Errorf("bad octave in note %q", name)
	}
	semi, ok := semitones[name[:len(name)-1]]
	if !ok {
		return 0, fmt.Errorf("bad pitch class in note %q", name)
	}
	midi := (octave+1)*12 + semi
	return 440 * math.Pow(2, float64(midi-69)/12), nil
}

func n(name string, ms int) Note {
	f, err := Pitch(name)
	if err != nil {
		panic(err)
	}
	return Note{Freq: f, Dur: time.Duration(ms) * time.Millisecond}
}

// Songs maps every playable track to its melody.
var Songs = map[alarm.Track]Song{
	1: {Name: "Nokia tune", Notes: []Note{
		n("E5", 125), n("D5", 125), n("FS4", 250), n("GS4", 250),
		n("CS5", 125), n("B4", 125), n("D4", 250), n("E4", 250),
		n("B4", 125), n("A4", 125), n("CS4", 250), n("E4", 250),
		n("A4", 500),
	}},
	2: {Name: "Mii channel", Notes: []Note{
		n("FS4", 500), n("A4", 250), n("CS5", 500), n("A4", 500),
		n("FS4", 250), n("D4", 250), n("D4", 250), n("D4", 500),
		n("REST", 750), n("CS4", 250),
		n("D4", 250), n("FS4", 250), n("A4", 250), n("CS5", 500),
		n("A4", 500), n("FS4", 250),
		n("E5", 750), n("DS5", 250), n("D5", 500),
	}},
	3: {Name: "Never gonna give you up", Notes: []Note{
		n("C4", 125), n("D4", 125), n("F4", 125), n("D4", 125),
		n("A4", 375), n("A4", 375), n("G4", 750),
		n("C4", 125), n("D4", 125), n("F4", 125), n("D4", 125),
		n("G4", 375), n("G4", 375), n("F4", 750),
		n("C4", 125), n("D4", 125), n("F4", 125), n("D4", 125),
		n("F4", 500), n("G4", 250), n("E4", 375), n("D4", 125),
		n("C4", 500),
		n("C4", 250), n("G4", 500), n("F4", 1000),
	}},
}

// Lookup returns the melody for track.
func Lookup(track alarm.Track) (Song, error) {
	song, ok := Songs[track]
	if !ok {
		return Song{}, fmt.Errorf("no song for track %s", track)
	}
	return song, nil
}
