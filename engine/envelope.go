package engine

import (
	"math"

	"github.com/towel808/towel"
)

type (
	// Envelope is a linear ADSR envelope generator advanced once per output
	// sample. The zero value is Idle and needs SetSampleRate and SetParams
	// before use.
	Envelope struct {
		stage      Stage
		level      float64
		params     towel.EnvelopeParams
		sampleRate float64

		attackRate  float64 // level change per sample; 0 means the stage is instantaneous
		decayRate   float64
		releaseRate float64
	}

	Stage int
)

const (
	Idle Stage = iota
	Attack
	Decay
	Sustain
	Release
)

// rampEpsilon absorbs rounding in accumulated ramps so that a stage of n
// samples ends on its n:th sample.
const rampEpsilon = 1e-9

func (s Stage) String() string {
	switch s {
	case Idle:
		return "idle"
	case Attack:
		return "attack"
	case Decay:
		return "decay"
	case Sustain:
		return "sustain"
	case Release:
		return "release"
	}
	return "unknown"
}

func (e *Envelope) SetSampleRate(rate float64) {
	e.sampleRate = rate
	e.recalculateRates()
}

// SetParams changes the stage parameters. A note in progress keeps its
// current stage and level; only the slopes change.
func (e *Envelope) SetParams(p towel.EnvelopeParams) {
	e.params = p.Sanitize()
	e.recalculateRates()
	if e.stage == Sustain {
		e.level = e.params.Sustain
	}
}

func (e *Envelope) Params() towel.EnvelopeParams { return e.params }
func (e *Envelope) Stage() Stage                 { return e.stage }
func (e *Envelope) Level() float64               { return e.level }

// Active is false only when the envelope is Idle.
func (e *Envelope) Active() bool { return e.stage != Idle }

// NoteOn starts the attack. From Idle the level starts at zero; a retrigger
// during any other stage ramps up from the current level.
func (e *Envelope) NoteOn() {
	if e.stage == Idle {
		e.level = 0
	}
	switch {
	case e.attackRate > 0:
		e.stage = Attack
	case e.decayRate > 0:
		e.level = 1
		e.stage = Decay
	default:
		e.level = e.params.Sustain
		e.stage = Sustain
	}
}

// NoteOff moves any active stage to Release, ramping from the current level
// to zero over the release time.
func (e *Envelope) NoteOff() {
	if e.stage == Idle {
		return
	}
	e.releaseRate = rate(e.level, e.params.Release, e.sampleRate)
	if e.releaseRate > 0 {
		e.stage = Release
	} else {
		e.Reset()
	}
}

// Reset forces the envelope to Idle at zero level.
func (e *Envelope) Reset() {
	e.stage = Idle
	e.level = 0
}

// Next advances the envelope by one sample and returns the new level.
func (e *Envelope) Next() float32 {
	switch e.stage {
	case Idle:
		return 0
	case Attack:
		e.level += e.attackRate
		if e.attackRate == 0 || e.level >= 1-rampEpsilon {
			e.level = 1
			if e.decayRate > 0 {
				e.stage = Decay
			} else {
				e.stage = Sustain
			}
		}
	case Decay:
		e.level -= e.decayRate
		if e.decayRate == 0 || e.level <= e.params.Sustain+rampEpsilon {
			e.level = e.params.Sustain
			e.stage = Sustain
		}
	case Sustain:
		e.level = e.params.Sustain
	case Release:
		e.level -= e.releaseRate
		if e.level <= rampEpsilon {
			e.Reset()
		}
	}
	return float32(e.level)
}

func (e *Envelope) recalculateRates() {
	e.attackRate = rate(1, e.params.Attack, e.sampleRate)
	e.decayRate = rate(1-e.params.Sustain, e.params.Decay, e.sampleRate)
	if e.stage == Release {
		e.releaseRate = rate(e.level, e.params.Release, e.sampleRate)
		if e.releaseRate == 0 {
			e.Reset()
		}
	}
}

// rate returns the per-sample step that covers distance in seconds, or 0 when
// the stage has no duration.
func rate(distance, seconds, sampleRate float64) float64 {
	samples := seconds * sampleRate
	if !(samples > 0) || math.IsInf(samples, 0) || distance <= 0 {
		return 0
	}
	return distance / samples
}
