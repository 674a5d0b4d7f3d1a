package cmd_test

import (
	"reflect"
	"testing"

	"github.com/towel808/towel"
	"github.com/towel808/towel/cmd"
	"github.com/towel808/towel/engine"
)

func TestParseNotes(t *testing.T) {
	testCases := []struct {
		input string
		want  []cmd.Note
		ok    bool
	}{
		{"36", []cmd.Note{{Key: 36, Velocity: 100, Duration: 1}}, true},
		{"36, 43:0.5:0.25:90", []cmd.Note{{Key: 36, Velocity: 100, Duration: 1}, {Key: 43, Velocity: 90, Start: 0.5, Duration: 0.25}}, true},
		{"", nil, true},
		{"128", nil, false},
		{"60:x", nil, false},
		{"60:0:1:0", nil, false},
		{"60:0:1:64:9", nil, false},
	}
	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := cmd.ParseNotes(tc.input)
			if (err == nil) != tc.ok {
				t.Fatalf("unexpected error result %v", err)
			}
			if tc.ok && !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestRender(t *testing.T) {
	e := engine.New(4)
	e.Prepare(1000)
	ch := make([]float32, 10000)
	for i := range ch {
		ch[i] = 1
	}
	asset, err := towel.Load("one", towel.PCM{Channels: [][]float32{ch}, SampleRate: 1000}, 60, 0)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	e.SetActiveSample(asset)
	e.UpdateParameters(towel.Params{EnvelopeParams: towel.EnvelopeParams{Sustain: 1}})
	notes := []cmd.Note{{Key: 60, Velocity: 127, Start: 1, Duration: 0.7}}
	buf := cmd.Render(e, notes, cmd.Length(notes, 0.3))
	if len(buf) != 2000 {
		t.Fatalf("expected 2000 frames, got %d", len(buf))
	}
	for i, frame := range buf {
		want := float32(0)
		if i >= 1000 && i < 1700 {
			want = 1
		}
		if frame[0] != want {
			t.Fatalf("frame %d: got %v, want %v", i, frame[0], want)
		}
	}
}
