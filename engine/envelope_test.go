package engine_test

import (
	"math"
	"testing"

	"github.com/towel808/towel"
	"github.com/towel808/towel/engine"
)

const testRate = 44100

func newEnvelope(p towel.EnvelopeParams) *engine.Envelope {
	var env engine.Envelope
	env.SetSampleRate(testRate)
	env.SetParams(p)
	return &env
}

func TestEnvelopeAttackDecaySustain(t *testing.T) {
	env := newEnvelope(towel.EnvelopeParams{Attack: 0.1, Decay: 0.2, Sustain: 0.6, Release: 0.3})
	env.NoteOn()
	if env.Stage() != engine.Attack {
		t.Fatalf("expected attack after note on, got %v", env.Stage())
	}
	var v, prev float32
	for i := 0; i < int(0.1*testRate); i++ {
		v = env.Next()
		if v < prev {
			t.Fatalf("attack not monotonic at sample %d: %v < %v", i, v, prev)
		}
		prev = v
	}
	if math.Abs(float64(v)-1) > 1e-6 {
		t.Fatalf("expected level 1 at the end of attack, got %v", v)
	}
	for i := 0; i < int(0.2*testRate); i++ {
		v = env.Next()
		if v > prev {
			t.Fatalf("decay not monotonic at sample %d: %v > %v", i, v, prev)
		}
		prev = v
	}
	if math.Abs(float64(v)-0.6) > 1e-6 {
		t.Fatalf("expected sustain level 0.6 at the end of decay, got %v", v)
	}
	if env.Stage() != engine.Sustain {
		t.Fatalf("expected sustain stage, got %v", env.Stage())
	}
	for i := 0; i < 1000; i++ {
		if v = env.Next(); math.Abs(float64(v)-0.6) > 1e-6 {
			t.Fatalf("sustain level drifted to %v", v)
		}
	}
}

func TestEnvelopeRelease(t *testing.T) {
	env := newEnvelope(towel.EnvelopeParams{Attack: 0, Decay: 0, Sustain: 0.5, Release: 0.01})
	env.NoteOn()
	env.Next()
	env.NoteOff()
	if env.Stage() != engine.Release {
		t.Fatalf("expected release after note off, got %v", env.Stage())
	}
	limit := int(0.01*testRate) + 1
	prev := float32(0.5)
	n := 0
	for env.Active() {
		v := env.Next()
		if v > prev {
			t.Fatalf("release not monotonic: %v > %v", v, prev)
		}
		prev = v
		n++
		if n > limit {
			t.Fatalf("release did not finish in %d samples", limit)
		}
	}
	if n < limit-2 {
		t.Fatalf("release finished too early, after %d samples", n)
	}
	if env.Next() != 0 {
		t.Fatal("idle envelope should output zero")
	}
}

func TestEnvelopeZeroLengthStages(t *testing.T) {
	env := newEnvelope(towel.EnvelopeParams{Attack: 0, Decay: 0, Sustain: 0.25, Release: 0})
	env.NoteOn()
	if env.Stage() != engine.Sustain {
		t.Fatalf("expected instantaneous attack and decay, got stage %v", env.Stage())
	}
	if v := env.Next(); v != 0.25 {
		t.Fatalf("expected sustain level 0.25, got %v", v)
	}
	env.NoteOff()
	if env.Active() {
		t.Fatalf("expected zero release to stop at once, got stage %v", env.Stage())
	}
}

func TestEnvelopeNonFiniteParams(t *testing.T) {
	env := newEnvelope(towel.EnvelopeParams{Attack: math.NaN(), Decay: math.Inf(1), Sustain: 3, Release: -1})
	env.NoteOn()
	for i := 0; i < 10; i++ {
		v := env.Next()
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			t.Fatalf("envelope produced %v", v)
		}
	}
	if p := env.Params(); p.Sustain != 1 {
		t.Fatalf("expected sustain clamped to 1, got %v", p.Sustain)
	}
}

func TestEnvelopeRetriggerKeepsLevel(t *testing.T) {
	env := newEnvelope(towel.EnvelopeParams{Attack: 0.01, Decay: 0.1, Sustain: 0.8, Release: 1})
	env.NoteOn()
	for i := 0; i < 2000; i++ {
		env.Next()
	}
	env.NoteOff()
	for i := 0; i < 1000; i++ {
		env.Next()
	}
	level := env.Level()
	if level <= 0 || level >= 1 {
		t.Fatalf("expected a level inside the release ramp, got %v", level)
	}
	env.NoteOn()
	if env.Stage() != engine.Attack {
		t.Fatalf("expected attack on retrigger, got %v", env.Stage())
	}
	if env.Level() != level {
		t.Fatalf("retrigger reset level from %v to %v", level, env.Level())
	}
	if v := env.Next(); float64(v) <= level {
		t.Fatalf("retriggered attack should rise from %v, got %v", level, v)
	}
}

func TestEnvelopeLiveParameterChange(t *testing.T) {
	env := newEnvelope(towel.EnvelopeParams{Attack: 0, Decay: 1, Sustain: 0, Release: 1})
	env.NoteOn()
	for i := 0; i < 100; i++ {
		env.Next()
	}
	env.SetParams(towel.EnvelopeParams{Attack: 0, Decay: 0.5, Sustain: 0.2, Release: 1})
	if env.Stage() != engine.Decay {
		t.Fatalf("parameter change should not restart the stage, got %v", env.Stage())
	}
	env.SetParams(towel.EnvelopeParams{Attack: 0, Decay: 0, Sustain: 0.2, Release: 1})
	env.Next()
	env.Next()
	if env.Stage() != engine.Sustain || env.Level() != 0.2 {
		t.Fatalf("expected sustain at 0.2, got %v at %v", env.Stage(), env.Level())
	}
}
