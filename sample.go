package towel

import (
	"errors"
	"fmt"
)

type (
	// PCM is decoded audio: planar float channels of equal length, normalized
	// to [-1, 1], together with the rate they were recorded at.
	PCM struct {
		Channels   [][]float32
		SampleRate float64
	}

	// SampleFile is one entry in a sample catalog. Path is the handle given to
	// a Decoder.
	SampleFile struct {
		Name string
		Path string
	}

	// Decoder turns a sample file into PCM. The container format is up to the
	// implementation.
	Decoder interface {
		Decode(path string) (PCM, error)
	}

	// Catalog enumerates the sample files available for loading, in display
	// order.
	Catalog interface {
		List() ([]SampleFile, error)
	}

	// DecodeError is returned when a sample cannot be turned into an Asset.
	// The previously active asset stays in effect when this happens.
	DecodeError struct {
		Name string
		Err  error
	}
)

var (
	ErrNoChannels        = errors.New("no audio channels")
	ErrTooShort          = errors.New("sample shorter than two frames")
	ErrInvalidSampleRate = errors.New("invalid sample rate")
)

func (e *DecodeError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("decode failed: %v", e.Err)
	}
	return fmt.Sprintf("decode %q failed: %v", e.Name, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Frames returns the number of frames in the PCM, i.e. the length of the
// shortest channel.
func (p PCM) Frames() int {
	if len(p.Channels) == 0 {
		return 0
	}
	n := len(p.Channels[0])
	for _, c := range p.Channels[1:] {
		n = min(n, len(c))
	}
	return n
}
