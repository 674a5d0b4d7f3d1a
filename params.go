package towel

import (
	"bytes"
	"fmt"
	"math"

	"gopkg.in/yaml.v3"
)

type (
	// EnvelopeParams are the stage times (in seconds) and sustain level of an
	// ADSR envelope.
	EnvelopeParams struct {
		Attack  float64 `yaml:"attack"`
		Decay   float64 `yaml:"decay"`
		Sustain float64 `yaml:"sustain"`
		Release float64 `yaml:"release"`
	}

	// Params is the complete set of user parameters: the envelope and whether
	// cut (choke) mode is enabled. It is the payload that is persisted and
	// published to the render goroutine as a whole.
	Params struct {
		EnvelopeParams `yaml:",inline"`
		Cut            bool `yaml:"cut"`
	}
)

var (
	// DefaultParams are used when nothing has been set or a persisted blob
	// cannot be read.
	DefaultParams = Params{
		EnvelopeParams: EnvelopeParams{Attack: 0.1, Decay: 0.5, Sustain: 0.8, Release: 0.5},
	}

	// DefaultAssetEnvelope is the envelope an asset carries unless
	// WithEnvelope is given.
	DefaultAssetEnvelope = EnvelopeParams{Attack: 0, Decay: 0.1, Sustain: 1, Release: 0.1}
)

// Sanitize returns the parameters with non-finite or negative times replaced
// by zero (an instantaneous stage) and sustain clamped to [0, 1].
func (p EnvelopeParams) Sanitize() EnvelopeParams {
	return EnvelopeParams{
		Attack:  sanitizeTime(p.Attack),
		Decay:   sanitizeTime(p.Decay),
		Sustain: clamp01(p.Sustain),
		Release: sanitizeTime(p.Release),
	}
}

func (p Params) Sanitize() Params {
	return Params{EnvelopeParams: p.EnvelopeParams.Sanitize(), Cut: p.Cut}
}

// SerializeParameters encodes the parameters as a YAML document.
func SerializeParameters(p Params) ([]byte, error) {
	b, err := yaml.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("cannot marshal parameters: %w", err)
	}
	return b, nil
}

// ParseParameters decodes a blob written by SerializeParameters. Keys missing
// from the blob keep their default values; unknown keys are an error.
func ParseParameters(data []byte) (Params, error) {
	p := DefaultParams
	if len(bytes.TrimSpace(data)) == 0 {
		return p, nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return DefaultParams, fmt.Errorf("cannot unmarshal parameters: %w", err)
	}
	return p.Sanitize(), nil
}

// DeserializeParameters is ParseParameters that fails closed: any malformed
// blob yields DefaultParams.
func DeserializeParameters(data []byte) Params {
	p, err := ParseParameters(data)
	if err != nil {
		return DefaultParams
	}
	return p
}

func sanitizeTime(t float64) float64 {
	if !(t > 0) || math.IsInf(t, 0) {
		return 0
	}
	return t
}

func clamp01(v float64) float64 {
	if !(v > 0) {
		return 0
	}
	return min(v, 1)
}
