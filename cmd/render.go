package cmd

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/towel808/towel"
	"github.com/towel808/towel/engine"
)

// Note is one note of an offline render. Start and Duration are seconds.
type Note struct {
	Key      int
	Velocity byte
	Start    float64
	Duration float64
}

// RenderBlockSize is the block size used for offline renders.
const RenderBlockSize = 512

// ParseNotes parses a comma separated list of notes written as
// key[:start[:duration[:velocity]]], e.g. "36,43:0.5:0.25:90".
func ParseNotes(s string) ([]Note, error) {
	var notes []Note
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		parts := strings.Split(field, ":")
		if len(parts) > 4 {
			return nil, fmt.Errorf("note %q has too many parts", field)
		}
		n := Note{Velocity: 100, Duration: 1}
		key, err := strconv.Atoi(parts[0])
		if err != nil || key < 0 || key >= towel.NumNotes {
			return nil, fmt.Errorf("note %q: invalid key %q", field, parts[0])
		}
		n.Key = key
		floats := []*float64{&n.Start, &n.Duration}
		for i, p := range parts[1:min(len(parts), 3)] {
			v, err := strconv.ParseFloat(p, 64)
			if err != nil || v < 0 || math.IsInf(v, 0) {
				return nil, fmt.Errorf("note %q: invalid time %q", field, p)
			}
			*floats[i] = v
		}
		if len(parts) == 4 {
			v, err := strconv.Atoi(parts[3])
			if err != nil || v < 1 || v > 127 {
				return nil, fmt.Errorf("note %q: invalid velocity %q", field, parts[3])
			}
			n.Velocity = byte(v)
		}
		notes = append(notes, n)
	}
	return notes, nil
}

// Length returns the time in seconds until the last note has been released
// and its release stage has ended.
func Length(notes []Note, release float64) float64 {
	var end float64
	for _, n := range notes {
		end = max(end, n.Start+n.Duration)
	}
	return end + release
}

// Render plays notes through e and returns length seconds of audio.
func Render(e *engine.Engine, notes []Note, length float64) towel.AudioBuffer {
	rate := e.SampleRate()
	frames := int(math.Round(length * rate))
	events := make([]towel.MIDIEvent, 0, 2*len(notes))
	for _, n := range notes {
		on := int(math.Round(n.Start * rate))
		off := int(math.Round((n.Start + n.Duration) * rate))
		events = append(events, towel.NoteOnEvent(on, byte(n.Key), n.Velocity), towel.NoteOffEvent(off, byte(n.Key)))
	}
	slices.SortStableFunc(events, func(a, b towel.MIDIEvent) int { return a.Frame - b.Frame })
	buffer := make(towel.AudioBuffer, frames)
	block := make([]towel.MIDIEvent, 0, len(events))
	for start := 0; start < frames; start += RenderBlockSize {
		end := min(start+RenderBlockSize, frames)
		block = block[:0]
		for len(events) > 0 && events[0].Frame < end {
			ev := events[0]
			ev.Frame -= start
			block = append(block, ev)
			events = events[1:]
		}
		e.RenderBlock(buffer[start:end], block)
	}
	return buffer
}
