// Package control is the control-surface side of the sampler: choosing and
// loading samples, editing parameters and playing notes from an on-screen
// keyboard. All of its methods may be called from any goroutine except the
// render goroutine.
package control

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/towel808/towel"
	"github.com/towel808/towel/catalog"
	"github.com/towel808/towel/engine"
	"gopkg.in/yaml.v3"
)

type (
	// Controller connects a sample catalog and decoder to an engine.
	Controller struct {
		engine  *engine.Engine
		decoder towel.Decoder
		catalog towel.Catalog
		options Options

		mu      sync.Mutex
		files   []towel.SampleFile
		current string
		params  towel.Params

		loadMu   sync.Mutex // serializes loads so current matches the engine
		requests chan string
		results  chan LoadResult
	}

	// Options control how sample files become assets.
	Options struct {
		RootNote    int     // note the sample plays unpitched at
		MaxDuration float64 // seconds kept from each sample, 0 for all
	}

	// LoadResult is the outcome of a background load started with
	// RequestLoadSample.
	LoadResult struct {
		Name  string
		Asset *towel.Asset
		Err   error
	}

	// State is everything a host session restores: the parameters and the
	// selected sample.
	State struct {
		Params towel.Params `yaml:"params"`
		Sample string       `yaml:"sample,omitempty"`
	}
)

const requestQueueSize = 16

func DefaultOptions() Options {
	return Options{RootNote: towel.DefaultRootNote}
}

// New creates a controller for e. The parameters start from what e has
// published. Call Refresh to read the catalog.
func New(e *engine.Engine, decoder towel.Decoder, cat towel.Catalog, options Options) *Controller {
	return &Controller{
		engine:   e,
		decoder:  decoder,
		catalog:  cat,
		options:  options,
		params:   e.Snapshot().Params,
		requests: make(chan string, requestQueueSize),
		results:  make(chan LoadResult, requestQueueSize),
	}
}

// Refresh re-reads the list of samples from the catalog.
func (c *Controller) Refresh() error {
	files, err := c.catalog.List()
	if err != nil {
		return fmt.Errorf("cannot refresh samples: %w", err)
	}
	c.mu.Lock()
	c.files = files
	c.mu.Unlock()
	return nil
}

// SampleNames returns the names of the samples in catalog order.
func (c *Controller) SampleNames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return catalog.Names(c.files)
}

// CurrentSample returns the name of the active sample, or "" if none has been
// loaded.
func (c *Controller) CurrentSample() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// LoadSample decodes the named sample and makes it the active one once it is
// fully loaded. On failure the error is a *towel.DecodeError and the previous
// sample stays active.
func (c *Controller) LoadSample(name string) (*towel.Asset, error) {
	c.loadMu.Lock()
	defer c.loadMu.Unlock()
	c.mu.Lock()
	file, ok := catalog.Find(c.files, name)
	c.mu.Unlock()
	if !ok {
		return nil, &towel.DecodeError{Name: name, Err: catalog.ErrNotFound}
	}
	pcm, err := c.decoder.Decode(file.Path)
	if err != nil {
		var decodeErr *towel.DecodeError
		if !errors.As(err, &decodeErr) {
			err = &towel.DecodeError{Name: file.Name, Err: err}
		}
		return nil, err
	}
	asset, err := towel.Load(file.Name, pcm, c.options.RootNote, c.options.MaxDuration)
	if err != nil {
		return nil, err
	}
	c.engine.SetActiveSample(asset)
	c.mu.Lock()
	c.current = file.Name
	c.mu.Unlock()
	return asset, nil
}

// RequestLoadSample queues the named sample for loading by Run. It returns
// false if too many requests are already waiting.
func (c *Controller) RequestLoadSample(name string) bool {
	return TrySend(c.requests, name)
}

// Results delivers the outcome of every request handled by Run. Results that
// are not received in time are dropped.
func (c *Controller) Results() <-chan LoadResult { return c.results }

// Run loads requested samples until ctx is done.
func (c *Controller) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case name := <-c.requests:
			asset, err := c.LoadSample(name)
			TrySend(c.results, LoadResult{Name: name, Asset: asset, Err: err})
		}
	}
}

// Params returns the parameters last published to the engine.
func (c *Controller) Params() towel.Params {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.params
}

// SetParams publishes a complete parameter set.
func (c *Controller) SetParams(p towel.Params) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.params = p.Sanitize()
	c.engine.UpdateParameters(c.params)
}

// Range of the envelope times accepted by SetEnvelope, in seconds.
const (
	MinEnvelopeTime = 0.01
	MaxEnvelopeTime = 5.0
)

// SetEnvelope publishes new envelope times (seconds) and sustain level. Times
// are clamped to [MinEnvelopeTime, MaxEnvelopeTime], sustain to [0, 1].
func (c *Controller) SetEnvelope(attack, decay, sustain, release float64) {
	p := towel.EnvelopeParams{Attack: attack, Decay: decay, Sustain: sustain, Release: release}.Sanitize()
	p.Attack = clampTime(p.Attack)
	p.Decay = clampTime(p.Decay)
	p.Release = clampTime(p.Release)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.params.EnvelopeParams = p
	c.engine.UpdateParameters(c.params)
}

func clampTime(t float64) float64 {
	return min(max(t, MinEnvelopeTime), MaxEnvelopeTime)
}

// SetCut enables or disables cut mode.
func (c *Controller) SetCut(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.params.Cut = enabled
	c.engine.UpdateParameters(c.params)
}

// KeyDown reports whether note is held, for drawing a keyboard.
func (c *Controller) KeyDown(note int) bool { return c.engine.KeyDown(note) }

// NoteOn plays note from the on-screen keyboard in the next audio block.
// velocity is normalized to [0, 1]. It returns false if the event could not be
// queued.
func (c *Controller) NoteOn(note int, velocity float32) bool {
	if note < 0 || note >= towel.NumNotes {
		return false
	}
	v := byte(max(1, min(127, math.Round(float64(towel.ClampVelocity(velocity))*127))))
	return c.engine.Inject(towel.NoteOnEvent(0, byte(note), v))
}

// NoteOff releases note in the next audio block.
func (c *Controller) NoteOff(note int) bool {
	if note < 0 || note >= towel.NumNotes {
		return false
	}
	return c.engine.Inject(towel.NoteOffEvent(0, byte(note)))
}

func (c *Controller) SerializeParameters() ([]byte, error) {
	return towel.SerializeParameters(c.Params())
}

// DeserializeParameters restores the parameters from a blob written by
// SerializeParameters, falling back to the defaults if it cannot be read.
func (c *Controller) DeserializeParameters(data []byte) {
	c.SetParams(towel.DeserializeParameters(data))
}

// MarshalState encodes the parameters and the selected sample.
func (c *Controller) MarshalState() ([]byte, error) {
	c.mu.Lock()
	s := State{Params: c.params, Sample: c.current}
	c.mu.Unlock()
	b, err := yaml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("cannot marshal state: %w", err)
	}
	return b, nil
}

// UnmarshalState restores a blob written by MarshalState. Malformed blobs
// reset the parameters to their defaults. The saved sample is loaded if the
// catalog still has it and it is not already active.
func (c *Controller) UnmarshalState(data []byte) error {
	s := State{Params: towel.DefaultParams}
	if len(bytes.TrimSpace(data)) > 0 {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&s); err != nil {
			c.SetParams(towel.DefaultParams)
			return fmt.Errorf("cannot unmarshal state: %w", err)
		}
	}
	c.SetParams(s.Params)
	if s.Sample == "" || s.Sample == c.CurrentSample() {
		return nil
	}
	if _, err := c.LoadSample(s.Sample); err != nil {
		return fmt.Errorf("cannot restore sample: %w", err)
	}
	return nil
}
