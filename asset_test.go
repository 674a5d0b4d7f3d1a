package towel_test

import (
	"errors"
	"testing"

	"github.com/towel808/towel"
)

func ramp(frames int) []float32 {
	ch := make([]float32, frames)
	for i := range ch {
		ch[i] = float32(i) / float32(frames)
	}
	return ch
}

func TestLoad(t *testing.T) {
	pcm := towel.PCM{Channels: [][]float32{ramp(1000), ramp(1000)}, SampleRate: 48000}
	asset, err := towel.Load("kick", pcm, 36, 0)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if asset.Name() != "kick" || asset.NumChannels() != 2 || asset.Frames() != 1000 || asset.SampleRate() != 48000 || asset.RootNote() != 36 {
		t.Fatalf("unexpected asset properties: %q %d %d %v %d", asset.Name(), asset.NumChannels(), asset.Frames(), asset.SampleRate(), asset.RootNote())
	}
	for c := 0; c < 2; c++ {
		ch := asset.Channel(c)
		if len(ch) != 1000+towel.TailPad {
			t.Fatalf("channel %d: expected %d samples with padding, got %d", c, 1000+towel.TailPad, len(ch))
		}
		for i, v := range ch[1000:] {
			if v != 0 {
				t.Fatalf("channel %d: padding sample %d is %v, expected silence", c, i, v)
			}
		}
	}
	pcm.Channels[0][10] = 5
	if asset.Channel(0)[10] == 5 {
		t.Fatal("asset should not share memory with the decoded buffer")
	}
	if asset.Envelope() != towel.DefaultAssetEnvelope {
		t.Fatalf("expected default asset envelope, got %v", asset.Envelope())
	}
	if !asset.AppliesTo(0) || !asset.AppliesTo(127) || asset.AppliesTo(128) {
		t.Fatal("asset should apply to every MIDI note and nothing else")
	}
}

func TestLoadTruncates(t *testing.T) {
	testCases := []struct {
		name        string
		frames      int
		maxDuration float64
		want        int
	}{
		{"no limit", 48000, 0, 48000},
		{"half second", 48000, 0.5, 24000},
		{"limit beyond the end", 1000, 10, 1000},
		{"rounds to nearest frame", 1000, 0.0000313, 2},
		{"rounds down to nothing", 1000, 0.0000104, 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			pcm := towel.PCM{Channels: [][]float32{ramp(tc.frames)}, SampleRate: 48000}
			asset, err := towel.Load("x", pcm, towel.DefaultRootNote, tc.maxDuration)
			if tc.want < 2 {
				if !errors.Is(err, towel.ErrTooShort) {
					t.Fatalf("expected ErrTooShort, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if asset.Frames() != tc.want {
				t.Fatalf("expected %d frames, got %d", tc.want, asset.Frames())
			}
		})
	}
}

func TestLoadKeepsTwoChannels(t *testing.T) {
	pcm := towel.PCM{Channels: [][]float32{ramp(10), ramp(12), ramp(10), ramp(10)}, SampleRate: 44100}
	asset, err := towel.Load("surround", pcm, towel.DefaultRootNote, 0)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if asset.NumChannels() != 2 || asset.Frames() != 10 {
		t.Fatalf("expected 2 channels of 10 frames, got %d of %d", asset.NumChannels(), asset.Frames())
	}
}

func TestLoadErrors(t *testing.T) {
	testCases := []struct {
		name string
		pcm  towel.PCM
		want error
	}{
		{"no channels", towel.PCM{SampleRate: 44100}, towel.ErrNoChannels},
		{"one frame", towel.PCM{Channels: [][]float32{{1}}, SampleRate: 44100}, towel.ErrTooShort},
		{"zero rate", towel.PCM{Channels: [][]float32{ramp(10)}}, towel.ErrInvalidSampleRate},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := towel.Load("broken.wav", tc.pcm, towel.DefaultRootNote, 0)
			var decodeErr *towel.DecodeError
			if !errors.As(err, &decodeErr) {
				t.Fatalf("expected a DecodeError, got %v", err)
			}
			if decodeErr.Name != "broken.wav" || !errors.Is(err, tc.want) {
				t.Fatalf("unexpected error %v", err)
			}
		})
	}
}

func TestLoadOptions(t *testing.T) {
	var mask towel.NoteMask
	mask.Set(36, true)
	mask.Set(100, true)
	env := towel.EnvelopeParams{Attack: -1, Decay: 0.2, Sustain: 2, Release: 1}
	asset, err := towel.Load("x", towel.PCM{Channels: [][]float32{ramp(10)}, SampleRate: 44100}, 200, 0, towel.WithNotes(mask), towel.WithEnvelope(env))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !asset.AppliesTo(36) || !asset.AppliesTo(100) || asset.AppliesTo(60) {
		t.Fatal("asset does not follow its note mask")
	}
	if want := (towel.EnvelopeParams{Attack: 0, Decay: 0.2, Sustain: 1, Release: 1}); asset.Envelope() != want {
		t.Fatalf("expected sanitized envelope %v, got %v", want, asset.Envelope())
	}
	if asset.RootNote() != 127 {
		t.Fatalf("expected root note to be clamped to 127, got %d", asset.RootNote())
	}
}

func TestAssetVoiceCount(t *testing.T) {
	asset, err := towel.Load("x", towel.PCM{Channels: [][]float32{ramp(10)}, SampleRate: 44100}, towel.DefaultRootNote, 0)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	asset.Retain()
	asset.Retain()
	asset.Drop()
	if asset.Voices() != 1 {
		t.Fatalf("expected 1 voice, got %d", asset.Voices())
	}
}

func TestNoteMask(t *testing.T) {
	var m towel.NoteMask
	for _, n := range []int{0, 63, 64, 127} {
		m.Set(n, true)
	}
	m.Set(-1, true)
	m.Set(128, true)
	for n := -1; n <= 128; n++ {
		want := n == 0 || n == 63 || n == 64 || n == 127
		if m.Has(n) != want {
			t.Fatalf("note %d: Has = %v, want %v", n, m.Has(n), want)
		}
	}
	m.Set(64, false)
	if m.Has(64) {
		t.Fatal("note 64 should have been removed")
	}
}
