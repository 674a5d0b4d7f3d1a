package towel

import (
	"math"
	"sync/atomic"
)

const (
	// NumNotes is the size of the MIDI note range.
	NumNotes = 128
	// DefaultRootNote is the note a sample plays back unpitched at (middle C).
	DefaultRootNote = 60
	// TailPad is the number of silent frames stored after the playable part
	// of an asset, so interpolation never reads past the allocation.
	TailPad = 4
)

type (
	// NoteMask is the set of MIDI notes an asset responds to.
	NoteMask [2]uint64

	// Asset is a decoded sample held in memory, ready for playback. It is
	// immutable once Load returns, and may be read by many voices at the same
	// time, including after a newer asset has replaced it for new notes.
	Asset struct {
		name       string
		data       [][]float32 // 1 or 2 channels, each frames+TailPad long
		frames     int
		sampleRate float64
		rootNote   int
		notes      NoteMask
		envelope   EnvelopeParams

		voices atomic.Int32
	}

	// AssetOption customizes an Asset during Load.
	AssetOption func(*Asset)
)

// AllNotes returns a mask containing every MIDI note.
func AllNotes() NoteMask { return NoteMask{math.MaxUint64, math.MaxUint64} }

// Has reports whether note is in the mask. Notes outside 0..127 never are.
func (m NoteMask) Has(note int) bool {
	if note < 0 || note >= NumNotes {
		return false
	}
	return m[note>>6]&(1<<(note&63)) != 0
}

// Set adds or removes note from the mask.
func (m *NoteMask) Set(note int, on bool) {
	if note < 0 || note >= NumNotes {
		return
	}
	if on {
		m[note>>6] |= 1 << (note & 63)
	} else {
		m[note>>6] &^= 1 << (note & 63)
	}
}

// WithNotes restricts the asset to the given notes.
func WithNotes(mask NoteMask) AssetOption {
	return func(a *Asset) { a.notes = mask }
}

// WithEnvelope sets the envelope defaults carried by the asset.
func WithEnvelope(p EnvelopeParams) AssetOption {
	return func(a *Asset) { a.envelope = p.Sanitize() }
}

// Load copies decoded PCM into a new Asset. At most two channels are kept. If
// maxDuration is positive the sample is truncated to
// round(SampleRate*maxDuration) frames. The returned error is always a
// *DecodeError.
func Load(name string, pcm PCM, rootNote int, maxDuration float64, opts ...AssetOption) (*Asset, error) {
	if len(pcm.Channels) == 0 {
		return nil, &DecodeError{Name: name, Err: ErrNoChannels}
	}
	if !(pcm.SampleRate > 0) || math.IsInf(pcm.SampleRate, 0) {
		return nil, &DecodeError{Name: name, Err: ErrInvalidSampleRate}
	}
	frames := pcm.Frames()
	if maxDuration > 0 && !math.IsInf(maxDuration, 0) {
		frames = min(frames, int(math.Round(pcm.SampleRate*maxDuration)))
	}
	if frames < 2 {
		return nil, &DecodeError{Name: name, Err: ErrTooShort}
	}
	numChannels := min(2, len(pcm.Channels))
	a := &Asset{
		name:       name,
		data:       make([][]float32, numChannels),
		frames:     frames,
		sampleRate: pcm.SampleRate,
		rootNote:   ClampNote(rootNote),
		notes:      AllNotes(),
		envelope:   DefaultAssetEnvelope,
	}
	for c := range a.data {
		a.data[c] = make([]float32, frames+TailPad)
		copy(a.data[c], pcm.Channels[c][:frames])
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

func (a *Asset) Name() string             { return a.name }
func (a *Asset) NumChannels() int         { return len(a.data) }
func (a *Asset) Frames() int              { return a.frames }
func (a *Asset) SampleRate() float64      { return a.sampleRate }
func (a *Asset) RootNote() int            { return a.rootNote }
func (a *Asset) Notes() NoteMask          { return a.notes }
func (a *Asset) Envelope() EnvelopeParams { return a.envelope }

// AppliesTo reports whether the asset should sound for the note.
func (a *Asset) AppliesTo(note int) bool { return a.notes.Has(note) }

// Channel returns the samples of channel c including the tail padding. The
// slice must not be modified.
func (a *Asset) Channel(c int) []float32 { return a.data[c] }

// Voices returns how many voices are currently playing from the asset.
func (a *Asset) Voices() int { return int(a.voices.Load()) }

// Retain and Drop are called by voices when they start and stop playing from
// the asset.
func (a *Asset) Retain() { a.voices.Add(1) }
func (a *Asset) Drop()   { a.voices.Add(-1) }

// ClampNote limits note to the MIDI note range.
func ClampNote(note int) int {
	return max(0, min(NumNotes-1, note))
}

// ClampVelocity limits a normalized velocity to [0, 1]. NaN maps to 0.
func ClampVelocity(v float32) float32 {
	if !(v > 0) {
		return 0
	}
	return min(v, 1)
}
