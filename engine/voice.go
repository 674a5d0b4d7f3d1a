package engine

import (
	"math"

	"github.com/towel808/towel"
)

// Voice plays one note from an Asset: it reads the asset with linear
// interpolation at a fixed pitch ratio, shapes it with an Envelope and mixes
// it into an output buffer. Voices are owned by an Engine and only touched
// from the render goroutine.
type Voice struct {
	asset      *towel.Asset // nil unless playing
	playing    bool
	note       int
	position   float64
	pitchRatio float64
	gainL      float32
	gainR      float32
	env        Envelope
	started    uint64 // allocation order, used for stealing the oldest voice
}

// PitchRatio returns how many source frames to advance per output frame for
// note, given the root note and the sample rates of the source and output.
func PitchRatio(note, rootNote int, sourceRate, outputRate float64) float64 {
	return math.Pow(2, float64(note-rootNote)/12) * (sourceRate / outputRate)
}

// CanStart reports whether the voice is free.
func (v *Voice) CanStart() bool { return !v.playing }

func (v *Voice) Playing() bool       { return v.playing }
func (v *Voice) Note() int           { return v.note }
func (v *Voice) Position() float64   { return v.position }
func (v *Voice) PitchRatio() float64 { return v.pitchRatio }
func (v *Voice) Envelope() *Envelope { return &v.env }
func (v *Voice) Asset() *towel.Asset { return v.asset }

// Start begins playing note from asset. velocity is the normalized [0, 1]
// gain. Starting a voice that is still playing reassigns it; the envelope
// then ramps up from its current level instead of jumping to zero.
func (v *Voice) Start(asset *towel.Asset, note int, velocity float32, params towel.EnvelopeParams, outputRate float64) {
	if asset == nil || !(outputRate > 0) {
		v.Release(false)
		return
	}
	if v.asset != nil {
		v.asset.Drop()
	}
	asset.Retain()
	v.asset = asset
	v.playing = true
	v.note = towel.ClampNote(note)
	v.pitchRatio = PitchRatio(v.note, asset.RootNote(), asset.SampleRate(), outputRate)
	v.position = 0
	velocity = towel.ClampVelocity(velocity)
	v.gainL = velocity
	v.gainR = velocity
	if v.env.sampleRate != outputRate {
		v.env.SetSampleRate(outputRate)
	}
	v.env.SetParams(params)
	v.env.NoteOn()
}

// Release ends the note. With allowTailOff the envelope enters its release
// stage; otherwise the voice stops at once and renders nothing more.
func (v *Voice) Release(allowTailOff bool) {
	if !v.playing {
		return
	}
	if allowTailOff {
		v.env.NoteOff()
		return
	}
	v.stop()
}

// Releasing reports whether the voice is playing out its release stage.
func (v *Voice) Releasing() bool { return v.playing && v.env.Stage() == Release }

// RenderInto adds count frames of the voice to out, starting at frame start.
// The voice becomes free when the read cursor runs past the end of the
// sample or the released envelope reaches zero; the rest of the range is
// then left untouched.
func (v *Voice) RenderInto(out towel.AudioBuffer, start, count int) {
	if !v.playing {
		return
	}
	a := v.asset
	invariant(a != nil, "voice playing without an asset")
	if a == nil {
		v.playing = false
		v.env.Reset()
		return
	}
	inL := a.Channel(0)
	inR := inL
	if a.NumChannels() > 1 {
		inR = a.Channel(1)
	}
	frames := a.Frames()
	start = max(start, 0)
	end := min(start+count, len(out))
	for i := start; i < end; i++ {
		pos := int(v.position)
		if pos+1 >= frames {
			v.stop()
			return
		}
		alpha := float32(v.position - float64(pos))
		l := lerp(inL[pos], inL[pos+1], alpha)
		r := lerp(inR[pos], inR[pos+1], alpha)
		env := v.env.Next()
		if env <= 0 && !v.env.Active() {
			v.stop()
			return
		}
		out[i][0] += l * v.gainL * env
		out[i][1] += r * v.gainR * env
		v.position += v.pitchRatio
	}
}

// Interpolate returns the linearly interpolated value of data at position.
// At integer positions the sample itself is returned exactly.
func Interpolate(data []float32, position float64) float32 {
	pos := int(position)
	if pos < 0 || pos+1 >= len(data) {
		return 0
	}
	return lerp(data[pos], data[pos+1], float32(position-float64(pos)))
}

func lerp(a, b, alpha float32) float32 {
	return a*(1-alpha) + b*alpha
}

func (v *Voice) stop() {
	v.playing = false
	v.env.Reset()
	if v.asset != nil {
		v.asset.Drop()
		v.asset = nil
	}
}
