package engine

import (
	"slices"
	"sync/atomic"

	"github.com/towel808/towel"
)

const (
	// DefaultPolyphony is the number of voices a sampler normally has.
	DefaultPolyphony = 64
	// CutRelease is the release time, in seconds, used by all voices while
	// cut mode is enabled.
	CutRelease = 0.01
	// InjectCapacity is the number of events that can be waiting for the next
	// block after being injected with Inject.
	InjectCapacity = 1024
	// DefaultSampleRate is assumed until Prepare is called.
	DefaultSampleRate = 44100
)

// Engine is a polyphonic sampler: a fixed pool of voices that plays the
// active asset in response to MIDI events.
//
// RenderBlock, NoteOn and NoteOff belong to the render goroutine and must not
// be called concurrently with each other. SetActiveSample, UpdateParameters,
// Inject, KeyDown, ActiveVoices and Snapshot may be called from any goroutine
// at any time; their changes are picked up at the start of the next block.
// Prepare must not overlap a render call.
type Engine struct {
	voices     []Voice
	sampleRate float64
	startSeq   uint64

	published snapshotCell
	live      *Snapshot            // adopted at block start, render goroutine only
	envParams towel.EnvelopeParams // live envelope with cut mode applied

	injected *Ring
	pedal    bool
	deferred towel.NoteMask // note-offs held back by the sustain pedal

	keys   [2]atomic.Uint64
	active atomic.Int32
}

// New creates an engine with the given number of voices (at least one).
func New(polyphony int) *Engine {
	e := &Engine{
		voices:     make([]Voice, max(polyphony, 1)),
		sampleRate: DefaultSampleRate,
		injected:   NewRing(InjectCapacity),
	}
	e.published.p.Store(&Snapshot{Params: towel.DefaultParams})
	e.adopt()
	return e
}

// Prepare sets the output sample rate and silences all voices.
func (e *Engine) Prepare(sampleRate float64) {
	if sampleRate > 0 {
		e.sampleRate = sampleRate
	}
	for i := range e.voices {
		e.voices[i].Release(false)
		e.voices[i].env.SetSampleRate(e.sampleRate)
	}
	e.pedal = false
	e.deferred = towel.NoteMask{}
	e.active.Store(0)
}

func (e *Engine) SampleRate() float64 { return e.sampleRate }
func (e *Engine) Polyphony() int      { return len(e.voices) }

// SetActiveSample replaces the asset used by future note-ons. Voices already
// playing keep playing the asset they started with.
func (e *Engine) SetActiveSample(asset *towel.Asset) {
	e.published.update(func(s *Snapshot) { s.Asset = asset })
}

// UpdateParameters publishes new parameters. They apply from the next block
// on, to sounding voices as well as new ones.
func (e *Engine) UpdateParameters(p towel.Params) {
	p = p.Sanitize()
	e.published.update(func(s *Snapshot) { s.Params = p })
}

// Snapshot returns the most recently published state.
func (e *Engine) Snapshot() Snapshot { return *e.published.load() }

// Inject queues an event to be handled at the start of the next block, e.g.
// from an on-screen keyboard or a MIDI input driver. It returns false if the
// queue is full.
func (e *Engine) Inject(ev towel.MIDIEvent) bool {
	ev.Frame = 0
	return e.injected.Push(ev)
}

// KeyDown reports whether a note-on for note has been processed without a
// matching note-off.
func (e *Engine) KeyDown(note int) bool {
	if note < 0 || note >= towel.NumNotes {
		return false
	}
	return e.keys[note>>6].Load()&(1<<(note&63)) != 0
}

// ActiveVoices is the number of voices that were playing at the end of the
// last block.
func (e *Engine) ActiveVoices() int { return int(e.active.Load()) }

// Voice returns voice i of the pool for inspection. It must only be used from
// the render goroutine.
func (e *Engine) Voice(i int) *Voice { return &e.voices[i] }

// NoteOn starts note with the normalized velocity, outside of RenderBlock.
func (e *Engine) NoteOn(note int, velocity float32) {
	e.adopt()
	e.noteOn(note, velocity)
	e.countActive()
}

// NoteOff releases every voice playing note, outside of RenderBlock.
func (e *Engine) NoteOff(note int) {
	e.adopt()
	e.noteOff(note)
	e.countActive()
}

// RenderBlock fills out with the next len(out) frames. Injected events are
// handled first, then events are handled at their frame offsets (clamped to
// the block) in frame order, with the voices rendered in between. events is
// sorted in place if it is not in frame order.
func (e *Engine) RenderBlock(out towel.AudioBuffer, events []towel.MIDIEvent) {
	e.adopt()
	out.Clear()
	for {
		ev, ok := e.injected.Pop()
		if !ok {
			break
		}
		e.dispatch(ev)
	}
	if !slices.IsSortedFunc(events, compareFrames) {
		slices.SortStableFunc(events, compareFrames)
	}
	n := len(out)
	frame := 0
	for i := range events {
		at := max(frame, min(events[i].Frame, n))
		e.renderVoices(out, frame, at-frame)
		frame = at
		e.dispatch(events[i])
	}
	e.renderVoices(out, frame, n-frame)
	e.countActive()
}

func compareFrames(a, b towel.MIDIEvent) int { return a.Frame - b.Frame }

func (e *Engine) renderVoices(out towel.AudioBuffer, start, count int) {
	if count <= 0 {
		return
	}
	for i := range e.voices {
		e.voices[i].RenderInto(out, start, count)
	}
}

// adopt switches to the latest published snapshot and pushes its envelope to
// every voice.
func (e *Engine) adopt() {
	s := e.published.load()
	if s == e.live {
		return
	}
	e.live = s
	e.envParams = s.Params.EnvelopeParams.Sanitize()
	if s.Params.Cut {
		e.envParams.Release = CutRelease
	}
	for i := range e.voices {
		e.voices[i].env.SetParams(e.envParams)
	}
}

func (e *Engine) dispatch(ev towel.MIDIEvent) {
	switch ev.Kind {
	case towel.NoteOn:
		if ev.Velocity == 0 {
			e.noteOff(int(ev.Note))
			return
		}
		e.noteOn(int(ev.Note), towel.NormVelocity(ev.Velocity))
	case towel.NoteOff:
		e.noteOff(int(ev.Note))
	case towel.ControlChange:
		switch ev.Control {
		case towel.CCSustainPedal:
			e.setPedal(ev.Value >= 64)
		case towel.CCAllSoundOff:
			e.releaseAll(false)
		case towel.CCAllNotesOff:
			e.releaseAll(true)
		}
	}
}

func (e *Engine) noteOn(note int, velocity float32) {
	note = towel.ClampNote(note)
	e.setKey(note, true)
	if e.live.Params.Cut {
		for i := range e.voices {
			e.voices[i].Release(false)
		}
	}
	asset := e.live.Asset
	if asset == nil || !asset.AppliesTo(note) {
		return
	}
	if !e.live.Params.Cut {
		for i := range e.voices {
			if v := &e.voices[i]; v.playing && v.note == note {
				v.Release(true)
			}
		}
	}
	e.deferred.Set(note, false)
	v := e.freeVoice()
	e.startSeq++
	v.Start(asset, note, velocity, e.envParams, e.sampleRate)
	v.started = e.startSeq
}

// freeVoice returns the first idle voice, or the one started longest ago if
// all are busy.
func (e *Engine) freeVoice() *Voice {
	oldest := &e.voices[0]
	for i := range e.voices {
		v := &e.voices[i]
		if v.CanStart() {
			return v
		}
		if v.started < oldest.started {
			oldest = v
		}
	}
	return oldest
}

func (e *Engine) noteOff(note int) {
	note = towel.ClampNote(note)
	e.setKey(note, false)
	if e.pedal {
		e.deferred.Set(note, true)
		return
	}
	e.releaseNote(note)
}

func (e *Engine) releaseNote(note int) {
	for i := range e.voices {
		if v := &e.voices[i]; v.playing && v.note == note {
			v.Release(true)
		}
	}
}

func (e *Engine) setPedal(down bool) {
	if e.pedal == down {
		return
	}
	e.pedal = down
	if down {
		return
	}
	for note := 0; note < towel.NumNotes; note++ {
		if e.deferred.Has(note) {
			e.releaseNote(note)
		}
	}
	e.deferred = towel.NoteMask{}
}

func (e *Engine) releaseAll(allowTailOff bool) {
	for i := range e.voices {
		e.voices[i].Release(allowTailOff)
	}
	e.deferred = towel.NoteMask{}
}

func (e *Engine) setKey(note int, down bool) {
	bit := uint64(1) << (note & 63)
	if down {
		e.keys[note>>6].Or(bit)
	} else {
		e.keys[note>>6].And(^bit)
	}
}

func (e *Engine) countActive() {
	n := 0
	for i := range e.voices {
		if e.voices[i].playing {
			n++
		}
	}
	e.active.Store(int32(n))
}
